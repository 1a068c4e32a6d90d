package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snapshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMEngagementRepository is a GORM implementation of EngagementRepository.
type GORMEngagementRepository struct {
	db *gorm.DB
}

// NewGORMEngagementRepository creates a new instance of GORMEngagementRepository.
func NewGORMEngagementRepository(db *gorm.DB) *GORMEngagementRepository {
	return &GORMEngagementRepository{
		db: db,
	}
}

// CreateComment inserts a comment.
func (r *GORMEngagementRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment on video %d: %w", comment.VideoID, translate(err))
	}
	return nil
}

// ListComments retrieves a page of comments joined with their authors.
func (r *GORMEngagementRepository) ListComments(ctx context.Context, videoID uint, offset, limit int) ([]models.CommentView, error) {
	var rows []struct {
		ID        uint
		Username  string
		Text      string
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("comments.id, users.username, comments.text, comments.created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.video_id = ?", videoID).
		Order("comments.created_at DESC, comments.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of video %d: %w", videoID, err)
	}

	comments := make([]models.CommentView, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, models.CommentView{
			ID:        row.ID,
			User:      row.Username,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		})
	}
	return comments, nil
}

// CountComments returns how many comments a video has.
func (r *GORMEngagementRepository) CountComments(ctx context.Context, videoID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments of video %d: %w", videoID, err)
	}
	return count, nil
}

// UpsertRating inserts the rating or overwrites the score of the existing
// (video, user) row in one statement. The stored row, including its original
// created_at, is read back into rating.
func (r *GORMEngagementRepository) UpsertRating(ctx context.Context, rating *models.Rating) error {
	db := r.db.WithContext(ctx)
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return fmt.Errorf("failed to save rating on video %d: %w", rating.VideoID, translate(err))
	}

	var stored models.Rating
	if err := db.First(&stored, "video_id = ? AND user_id = ?", rating.VideoID, rating.UserID).Error; err != nil {
		return fmt.Errorf("failed to reload rating on video %d: %w", rating.VideoID, translate(err))
	}
	*rating = stored
	return nil
}

// GetRating retrieves the user's rating of a video.
func (r *GORMEngagementRepository) GetRating(ctx context.Context, videoID, userID uint) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).First(&rating, "video_id = ? AND user_id = ?", videoID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rating of user %d on video %d: %w", userID, videoID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rating on video %d: %w", videoID, err)
	}
	return &rating, nil
}

// RatingStats aggregates the video's ratings.
func (r *GORMEngagementRepository) RatingStats(ctx context.Context, videoID uint) (models.RatingStats, error) {
	var row struct {
		Average sql.NullFloat64
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("AVG(rating * 1.0) AS average, COUNT(*) AS total").
		Where("video_id = ?", videoID).
		Scan(&row).Error
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("failed to aggregate ratings of video %d: %w", videoID, err)
	}

	stats := models.RatingStats{Count: row.Total}
	if row.Average.Valid && row.Total > 0 {
		avg := row.Average.Float64
		stats.Average = &avg
	}
	return stats, nil
}
