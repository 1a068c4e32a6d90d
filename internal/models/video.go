package models

import "time"

// Genre of a video.
type Genre string

const (
	GenreAction      Genre = "action"
	GenreComedy      Genre = "comedy"
	GenreDrama       Genre = "drama"
	GenreHorror      Genre = "horror"
	GenreSciFi       Genre = "sci-fi"
	GenreDocumentary Genre = "documentary"
	GenreOther       Genre = "other"
)

// Genres lists every genre in display order.
var Genres = []Genre{GenreAction, GenreComedy, GenreDrama, GenreHorror, GenreSciFi, GenreDocumentary, GenreOther}

// Label is the display name of the genre.
func (g Genre) Label() string {
	switch g {
	case GenreAction:
		return "Action"
	case GenreComedy:
		return "Comedy"
	case GenreDrama:
		return "Drama"
	case GenreHorror:
		return "Horror"
	case GenreSciFi:
		return "Science Fiction"
	case GenreDocumentary:
		return "Documentary"
	case GenreOther:
		return "Other"
	}
	return string(g)
}

// AgeRating is the audience classification of a video.
type AgeRating string

const (
	AgeRatingG    AgeRating = "G"
	AgeRatingPG   AgeRating = "PG"
	AgeRatingPG13 AgeRating = "PG-13"
	AgeRatingR    AgeRating = "R"
	AgeRatingNC17 AgeRating = "NC-17"
)

// AgeRatings lists every age rating in display order.
var AgeRatings = []AgeRating{AgeRatingG, AgeRatingPG, AgeRatingPG13, AgeRatingR, AgeRatingNC17}

// Label is the display name of the age rating.
func (a AgeRating) Label() string {
	switch a {
	case AgeRatingG:
		return "General Audiences"
	case AgeRatingPG:
		return "Parental Guidance Suggested"
	case AgeRatingPG13:
		return "Parents Strongly Cautioned"
	case AgeRatingR:
		return "Restricted"
	case AgeRatingNC17:
		return "Adults Only"
	}
	return string(a)
}

// Video is an uploaded video with its metadata.
type Video struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	UploadDate  time.Time `json:"upload_date" gorm:"autoCreateTime;index"`
	VideoFile   string    `json:"-" gorm:"type:varchar(255);not null"` // storage key
	Thumbnail   string    `json:"-" gorm:"type:varchar(255);not null"` // storage key
	CreatorID   uint      `json:"creator_id" gorm:"not null;index"`
	Creator     User      `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Publisher   string    `json:"publisher" gorm:"type:varchar(255);not null"`
	Producer    string    `json:"producer" gorm:"type:varchar(255);not null"`
	Genre       Genre     `json:"genre" gorm:"type:varchar(50);not null"`
	AgeRating   AgeRating `json:"age_rating" gorm:"type:varchar(5);not null"`
	Views       int64     `json:"views" gorm:"not null;default:0;check:views >= 0"`
}

// VideoLike records that a user likes a video.
type VideoLike struct {
	VideoID   uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	Video     Video     `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// VideoFilter narrows a catalog listing. Zero values mean "no filter".
type VideoFilter struct {
	Query     string
	Genre     Genre
	AgeRating AgeRating
}

// VideoSummary is a listing entry; it never carries the video file URL.
type VideoSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Creator      string    `json:"creator"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	UploadDate   time.Time `json:"upload_date"`
}

// CreatorRef identifies a video's owner.
type CreatorRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// VideoDetail is the full record served on the detail page and API.
type VideoDetail struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	VideoURL      *string        `json:"video_url"`
	ThumbnailURL  *string        `json:"thumbnail_url"`
	Creator       CreatorRef     `json:"creator"`
	Publisher     string         `json:"publisher"`
	Producer      string         `json:"producer"`
	Genre         Genre          `json:"-"`
	AgeRating     AgeRating      `json:"-"`
	Views         int64          `json:"views"`
	Likes         int64          `json:"likes"`
	UploadDate    time.Time      `json:"upload_date"`
	AverageRating *float64       `json:"-"`
	RatingCount   int64          `json:"-"`
	MoreByCreator []VideoSummary `json:"-"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"total_likes"`
}
