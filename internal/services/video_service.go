package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"snapshare/internal/models"
	"snapshare/internal/repositories"
	"snapshare/internal/storage"
	"snapshare/internal/validator"
	"snapshare/pkg/rabbitmq"

	"go.uber.org/zap"
)

const (
	moreByCreatorLimit = 3
	thumbnailExts      = "jpg jpeg png gif webp"
)

// UploadInput is the video upload form.
type UploadInput struct {
	Title       string           `json:"title" form:"title" validate:"required,notblank,max=255"`
	Description string           `json:"description" form:"description" validate:"required,notblank"`
	Publisher   string           `json:"publisher" form:"publisher" validate:"required,notblank,max=255"`
	Producer    string           `json:"producer" form:"producer" validate:"required,notblank,max=255"`
	Genre       models.Genre     `json:"genre" form:"genre" validate:"required,oneof=action comedy drama horror sci-fi documentary other"`
	AgeRating   models.AgeRating `json:"age_rating" form:"age_rating" validate:"required,oneof=G PG PG-13 R NC-17"`
	VideoFile   *storage.Upload  `json:"-" form:"-" validate:"-"`
	Thumbnail   *storage.Upload  `json:"-" form:"-" validate:"-"`
}

// VideoService handles business logic for the video catalog.
type VideoService struct {
	videoRepo      repositories.VideoRepository
	engagementRepo repositories.EngagementRepository
	media          MediaStore
	validate       *validator.Validator
	obs            Observers
}

// NewVideoService creates a new VideoService.
func NewVideoService(videoRepo repositories.VideoRepository, engagementRepo repositories.EngagementRepository, media MediaStore, obs Observers) *VideoService {
	return &VideoService{
		videoRepo:      videoRepo,
		engagementRepo: engagementRepo,
		media:          media,
		validate:       validator.New(),
		obs:            obs,
	}
}

// NormalizeFilter trims the query and drops genre or age rating values that
// are not known choices.
func NormalizeFilter(filter models.VideoFilter) models.VideoFilter {
	filter.Query = strings.TrimSpace(filter.Query)
	if !slices.Contains(models.Genres, filter.Genre) {
		filter.Genre = ""
	}
	if !slices.Contains(models.AgeRatings, filter.AgeRating) {
		filter.AgeRating = ""
	}
	return filter
}

// ListVideos returns one page of the catalog, newest first.
func (s *VideoService) ListVideos(ctx context.Context, filter models.VideoFilter, page, pageSize int) (*models.Page[models.VideoSummary], error) {
	filter = NormalizeFilter(filter)

	count, err := s.videoRepo.Count(ctx, filter)
	if err != nil {
		return nil, classify("failed to count videos", err)
	}
	result := newPage[models.VideoSummary](count, page, pageSize)
	if count == 0 {
		return result, nil
	}

	videos, err := s.videoRepo.List(ctx, filter, result.Offset(), result.PageSize)
	if err != nil {
		return nil, classify("failed to list videos", err)
	}
	result.Items, err = s.summarize(ctx, videos)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// summarize builds listing entries with like counts fetched in one query.
func (s *VideoService) summarize(ctx context.Context, videos []models.Video) ([]models.VideoSummary, error) {
	ids := make([]uint, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	likes, err := s.videoRepo.LikeCounts(ctx, ids)
	if err != nil {
		return nil, classify("failed to count likes", err)
	}

	summaries := make([]models.VideoSummary, 0, len(videos))
	for _, v := range videos {
		summaries = append(summaries, models.VideoSummary{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			ThumbnailURL: s.media.URLOrNil(ctx, v.Thumbnail),
			Creator:      v.Creator.Username,
			Views:        v.Views,
			Likes:        likes[v.ID],
			UploadDate:   v.UploadDate,
		})
	}
	return summaries, nil
}

// GetVideo returns the full record of a video.
func (s *VideoService) GetVideo(ctx context.Context, id uint) (*models.VideoDetail, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("failed to get video", err)
	}

	likes, err := s.videoRepo.LikeCounts(ctx, []uint{video.ID})
	if err != nil {
		return nil, classify("failed to count likes", err)
	}
	stats, err := s.engagementRepo.RatingStats(ctx, video.ID)
	if err != nil {
		return nil, classify("failed to aggregate ratings", err)
	}
	others, err := s.videoRepo.ListByCreator(ctx, video.CreatorID, video.ID, moreByCreatorLimit)
	if err != nil {
		return nil, classify("failed to list more videos", err)
	}
	more, err := s.summarize(ctx, others)
	if err != nil {
		return nil, err
	}

	return &models.VideoDetail{
		ID:            video.ID,
		Title:         video.Title,
		Description:   video.Description,
		VideoURL:      s.media.URLOrNil(ctx, video.VideoFile),
		ThumbnailURL:  s.media.URLOrNil(ctx, video.Thumbnail),
		Creator:       models.CreatorRef{ID: video.Creator.ID, Username: video.Creator.Username},
		Publisher:     video.Publisher,
		Producer:      video.Producer,
		Genre:         video.Genre,
		AgeRating:     video.AgeRating,
		Views:         video.Views,
		Likes:         likes[video.ID],
		UploadDate:    video.UploadDate,
		AverageRating: stats.Average,
		RatingCount:   stats.Count,
		MoreByCreator: more,
	}, nil
}

// UploadVideo stores the files and records a new video. Only creators may
// upload; a rejected upload leaves no trace in storage or the database.
func (s *VideoService) UploadVideo(ctx context.Context, uploader *models.Identity, in UploadInput) (*models.Video, error) {
	if uploader == nil {
		return nil, ErrUnauthenticated
	}
	if !uploader.IsCreator() {
		return nil, fmt.Errorf("upload by %s: %w", uploader.Username, ErrForbidden)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Publisher = strings.TrimSpace(in.Publisher)
	in.Producer = strings.TrimSpace(in.Producer)

	var errs validator.ValidationErrors
	if err := errs.Merge(s.validate.Struct(in)); err != nil {
		return nil, err
	}
	if in.VideoFile == nil {
		errs.Add("video_file", "This field is required.", "required")
	}
	if in.Thumbnail == nil {
		errs.Add("thumbnail", "This field is required.", "required")
	} else if err := errs.Merge(s.validate.Var("thumbnail", in.Thumbnail.Filename, "file_ext="+thumbnailExts)); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	videoKey, err := s.media.Store(ctx, storage.CategoryVideos, *in.VideoFile)
	if err != nil {
		return nil, classify("failed to store video file", err)
	}
	thumbKey, err := s.media.Store(ctx, storage.CategoryThumbnails, *in.Thumbnail)
	if err != nil {
		discardUploads(ctx, s.media, s.obs, videoKey)
		return nil, classify("failed to store thumbnail", err)
	}

	video := &models.Video{
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   videoKey,
		Thumbnail:   thumbKey,
		CreatorID:   uploader.UserID,
		Publisher:   in.Publisher,
		Producer:    in.Producer,
		Genre:       in.Genre,
		AgeRating:   in.AgeRating,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		discardUploads(ctx, s.media, s.obs, videoKey, thumbKey)
		return nil, classify("failed to save video", err)
	}

	s.obs.Metrics.Uploaded(string(storage.CategoryVideos))
	s.obs.Metrics.Uploaded(string(storage.CategoryThumbnails))
	s.obs.logger().Info("video uploaded",
		zap.Uint("video_id", video.ID),
		zap.String("title", video.Title),
		zap.String("creator", uploader.Username),
	)
	s.obs.publish(rabbitmq.EventVideoUploaded, map[string]any{
		"video_id": video.ID,
		"title":    video.Title,
		"creator":  uploader.Username,
	})
	return video, nil
}

// RecordView counts one view of the video.
func (s *VideoService) RecordView(ctx context.Context, id uint) error {
	if err := s.videoRepo.IncrementViews(ctx, id); err != nil {
		return classify("failed to record view", err)
	}
	s.obs.Metrics.VideoViewed()
	return nil
}

// ToggleLike likes the video for the user, or removes an existing like.
func (s *VideoService) ToggleLike(ctx context.Context, videoID, userID uint) (*models.LikeResult, error) {
	result, err := s.videoRepo.ToggleLike(ctx, videoID, userID)
	if err != nil {
		return nil, classify("failed to toggle like", err)
	}
	s.obs.Metrics.LikeToggled(result.Liked)
	s.obs.publish(rabbitmq.EventLikeToggled, map[string]any{
		"video_id":    videoID,
		"user_id":     userID,
		"liked":       result.Liked,
		"total_likes": result.TotalLikes,
	})
	return result, nil
}

// IsLiked reports whether the user currently likes the video.
func (s *VideoService) IsLiked(ctx context.Context, videoID, userID uint) (bool, error) {
	liked, err := s.videoRepo.IsLikedBy(ctx, videoID, userID)
	if err != nil {
		return false, classify("failed to check like", err)
	}
	return liked, nil
}
