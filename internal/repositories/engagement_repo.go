package repositories

import (
	"context"

	"snapshare/internal/models"
)

// EngagementRepository defines the interface for comment and rating data access.
type EngagementRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	// ListComments returns a video's comments newest first with author usernames.
	// A negative limit returns every remaining comment.
	ListComments(ctx context.Context, videoID uint, offset, limit int) ([]models.CommentView, error)
	CountComments(ctx context.Context, videoID uint) (int64, error)
	// UpsertRating stores the user's rating, replacing any earlier score for the same video.
	UpsertRating(ctx context.Context, rating *models.Rating) error
	GetRating(ctx context.Context, videoID, userID uint) (*models.Rating, error)
	RatingStats(ctx context.Context, videoID uint) (models.RatingStats, error)
}
