package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const newestFirst = "upload_date DESC, id DESC"

// GORMVideoRepository is a GORM implementation of VideoRepository.
type GORMVideoRepository struct {
	db *gorm.DB
}

// NewGORMVideoRepository creates a new instance of GORMVideoRepository.
func NewGORMVideoRepository(db *gorm.DB) *GORMVideoRepository {
	return &GORMVideoRepository{
		db: db,
	}
}

// Create inserts a new video. The creator association is not touched.
func (r *GORMVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a single video and its creator.
func (r *GORMVideoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Preload("Creator").First(&video, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get video by ID %d: %w", id, err)
	}
	return &video, nil
}

// Exists reports whether a video with the given id exists.
func (r *GORMVideoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check video %d: %w", id, err)
	}
	return count > 0, nil
}

// List retrieves a page of videos matching filter, newest first.
func (r *GORMVideoRepository) List(ctx context.Context, filter models.VideoFilter, offset, limit int) ([]models.Video, error) {
	var videos []models.Video
	err := r.filtered(ctx, filter).
		Preload("Creator").
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

// Count returns how many videos match filter.
func (r *GORMVideoRepository) Count(ctx context.Context, filter models.VideoFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// likeEscaper makes search terms match LIKE wildcards literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *GORMVideoRepository) filtered(ctx context.Context, filter models.VideoFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Video{})
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR creator_id IN (?)`,
			like, like,
			r.db.Model(&models.User{}).Select("id").Where(`LOWER(username) LIKE ? ESCAPE '\'`, like),
		)
	}
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
	}
	if filter.AgeRating != "" {
		q = q.Where("age_rating = ?", filter.AgeRating)
	}
	return q
}

// ListByCreator retrieves other videos by the same creator.
func (r *GORMVideoRepository) ListByCreator(ctx context.Context, creatorID, excludeID uint, limit int) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id = ? AND id <> ?", creatorID, excludeID).
		Order(newestFirst).
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list videos of creator %d: %w", creatorID, err)
	}
	return videos, nil
}

// LikeCounts counts likes for the given videos in one grouped query.
func (r *GORMVideoRepository) LikeCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		VideoID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.VideoLike{}).
		Select("video_id, COUNT(*) AS total").
		Where("video_id IN ?", ids).
		Group("video_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	for _, row := range rows {
		counts[row.VideoID] = row.Total
	}
	return counts, nil
}

// IncrementViews adds one view in a single UPDATE so concurrent fetches never lose counts.
func (r *GORMVideoRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to record view for video %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("video with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// ToggleLike flips the user's membership in the video's likes.
//
// The delete and the conflict-ignoring insert are each atomic, so concurrent
// toggles by the same user can never create a duplicate row; the returned
// state is whatever membership exists when the transaction reads it back.
func (r *GORMVideoRepository) ToggleLike(ctx context.Context, videoID, userID uint) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Video{}).Where("id = ?", videoID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("video with ID %d: %w", videoID, ErrNotFound)
		}

		res := tx.Where("video_id = ? AND user_id = ?", videoID, userID).Delete(&models.VideoLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.VideoLike{VideoID: videoID, UserID: userID}
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
		}

		var member int64
		if err := tx.Model(&models.VideoLike{}).Where("video_id = ? AND user_id = ?", videoID, userID).Count(&member).Error; err != nil {
			return err
		}
		result.Liked = member > 0
		return tx.Model(&models.VideoLike{}).Where("video_id = ?", videoID).Count(&result.TotalLikes).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to toggle like on video %d: %w", videoID, translate(err))
	}
	return result, nil
}

// IsLikedBy reports whether the user currently likes the video.
func (r *GORMVideoRepository) IsLikedBy(ctx context.Context, videoID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VideoLike{}).
		Where("video_id = ? AND user_id = ?", videoID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check like on video %d: %w", videoID, err)
	}
	return count > 0, nil
}
