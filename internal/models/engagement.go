package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Comment is a viewer's remark on a video.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VideoID   uint      `json:"video_id" gorm:"not null;index"`
	Video     Video     `json:"-" gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// Rating is a 1-5 star score. There is at most one per (video, user).
type Rating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VideoID   uint      `json:"video_id" gorm:"not null;uniqueIndex:idx_ratings_video_user"`
	Video     Video     `json:"-" gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_ratings_video_user;index"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Rating    int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // first submission, kept on overwrite
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	ID        uint      `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingStats aggregates all ratings of a video. Average is nil without ratings.
type RatingStats struct {
	Average *float64
	Count   int64
}
