package repositories

import (
	"context"

	"snapshare/internal/models"
)

// VideoRepository defines the interface for video data access.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	// GetByID returns the video with its creator loaded.
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// List returns videos newest first, creators loaded.
	List(ctx context.Context, filter models.VideoFilter, offset, limit int) ([]models.Video, error)
	Count(ctx context.Context, filter models.VideoFilter) (int64, error)
	// ListByCreator returns up to limit of creatorID's videos newest first, skipping excludeID.
	ListByCreator(ctx context.Context, creatorID, excludeID uint, limit int) ([]models.Video, error)
	// LikeCounts returns the number of likes per video id. Videos without likes are absent.
	LikeCounts(ctx context.Context, ids []uint) (map[uint]int64, error)
	IncrementViews(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, videoID, userID uint) (*models.LikeResult, error)
	IsLikedBy(ctx context.Context, videoID, userID uint) (bool, error)
}
