package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapshare/internal/models"
	"snapshare/internal/repositories"
	"snapshare/internal/validator"
	"snapshare/pkg/rabbitmq"

	"go.uber.org/zap"
)

// EngagementService handles comments and ratings.
type EngagementService struct {
	engagementRepo repositories.EngagementRepository
	videoRepo      repositories.VideoRepository
	obs            Observers
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(engagementRepo repositories.EngagementRepository, videoRepo repositories.VideoRepository, obs Observers) *EngagementService {
	return &EngagementService{
		engagementRepo: engagementRepo,
		videoRepo:      videoRepo,
		obs:            obs,
	}
}

func (s *EngagementService) requireVideo(ctx context.Context, videoID uint) error {
	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return classify("failed to look up video", err)
	}
	if !exists {
		return fmt.Errorf("video with ID %d: %w", videoID, ErrNotFound)
	}
	return nil
}

// PostComment adds a comment by the user to the video.
func (s *EngagementService) PostComment(ctx context.Context, videoID, userID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		var errs validator.ValidationErrors
		errs.Add("text", "This field is required.", "required")
		return nil, errs
	}
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}

	comment := &models.Comment{VideoID: videoID, UserID: userID, Text: text}
	if err := s.engagementRepo.CreateComment(ctx, comment); err != nil {
		return nil, classify("failed to post comment", err)
	}

	s.obs.Metrics.CommentPosted()
	s.obs.logger().Info("comment posted", zap.Uint("video_id", videoID), zap.Uint("user_id", userID))
	s.obs.publish(rabbitmq.EventCommentPosted, map[string]any{
		"comment_id": comment.ID,
		"video_id":   videoID,
		"user_id":    userID,
	})
	return comment, nil
}

// SubmitRating records the user's 1-5 score, replacing any earlier one.
func (s *EngagementService) SubmitRating(ctx context.Context, videoID, userID uint, rating int) (*models.Rating, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		var errs validator.ValidationErrors
		errs.Add("rating", fmt.Sprintf("Ensure this value is between %d and %d.", models.MinRating, models.MaxRating), "range")
		return nil, errs
	}
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}

	stored := &models.Rating{VideoID: videoID, UserID: userID, Rating: rating}
	if err := s.engagementRepo.UpsertRating(ctx, stored); err != nil {
		return nil, classify("failed to submit rating", err)
	}

	s.obs.Metrics.RatingSubmitted()
	s.obs.logger().Info("rating submitted", zap.Uint("video_id", videoID), zap.Uint("user_id", userID), zap.Int("rating", rating))
	s.obs.publish(rabbitmq.EventRatingSubmitted, map[string]any{
		"video_id": videoID,
		"user_id":  userID,
		"rating":   rating,
	})
	return stored, nil
}

// GetComments returns one page of the video's comments, newest first.
func (s *EngagementService) GetComments(ctx context.Context, videoID uint, page, pageSize int) (*models.Page[models.CommentView], error) {
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}
	count, err := s.engagementRepo.CountComments(ctx, videoID)
	if err != nil {
		return nil, classify("failed to count comments", err)
	}
	result := newPage[models.CommentView](count, page, pageSize)
	if count == 0 {
		return result, nil
	}

	result.Items, err = s.engagementRepo.ListComments(ctx, videoID, result.Offset(), result.PageSize)
	if err != nil {
		return nil, classify("failed to list comments", err)
	}
	return result, nil
}

// RatingStats returns the average (nil without ratings) and number of ratings.
func (s *EngagementService) RatingStats(ctx context.Context, videoID uint) (models.RatingStats, error) {
	stats, err := s.engagementRepo.RatingStats(ctx, videoID)
	if err != nil {
		return models.RatingStats{}, classify("failed to aggregate ratings", err)
	}
	return stats, nil
}

// AverageRating returns the mean rating, or nil when nobody rated the video.
func (s *EngagementService) AverageRating(ctx context.Context, videoID uint) (*float64, error) {
	stats, err := s.RatingStats(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return stats.Average, nil
}

// RatingCount returns how many users rated the video.
func (s *EngagementService) RatingCount(ctx context.Context, videoID uint) (int64, error) {
	stats, err := s.RatingStats(ctx, videoID)
	if err != nil {
		return 0, err
	}
	return stats.Count, nil
}

// UserRating returns the user's current score for the video, or nil.
func (s *EngagementService) UserRating(ctx context.Context, videoID, userID uint) (*int, error) {
	rating, err := s.engagementRepo.GetRating(ctx, videoID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, classify("failed to load rating", err)
	}
	return &rating.Rating, nil
}

// AllComments returns every comment of the video, newest first.
func (s *EngagementService) AllComments(ctx context.Context, videoID uint) ([]models.CommentView, error) {
	comments, err := s.engagementRepo.ListComments(ctx, videoID, 0, -1)
	if err != nil {
		return nil, classify("failed to list comments", err)
	}
	return comments, nil
}
