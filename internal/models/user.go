package models

import "time"

// Role decides what a user is allowed to do.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleConsumer Role = "consumer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleConsumer
}

// Label is the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleCreator:
		return "Content Creator"
	case RoleConsumer:
		return "Consumer"
	}
	return string(r)
}

// User represents an account of the video site.
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Username       string     `json:"username" gorm:"uniqueIndex;type:varchar(150);not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;type:varchar(254);not null"`
	Password       string     `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	Role           Role       `json:"role" gorm:"type:varchar(10);not null;default:consumer"`
	ProfilePicture string     `json:"-" gorm:"type:varchar(255)"` // storage key
	Bio            string     `json:"bio" gorm:"type:varchar(500)"`
	DateJoined     time.Time  `json:"date_joined" gorm:"autoCreateTime;index"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	UpdatedAt      time.Time  `json:"-"`
}

// IsCreator reports whether the user may upload videos.
func (u *User) IsCreator() bool {
	return u.Role == RoleCreator
}

// UserProfile is the read-only projection returned for the signed-in user.
type UserProfile struct {
	ID             uint    `json:"-"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Role           Role    `json:"role"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            string  `json:"bio"`
}

// Identity is what a validated session token resolves to.
type Identity struct {
	UserID   uint
	Username string
	Role     Role
}

// IsCreator reports whether the identity carries the creator role.
func (i *Identity) IsCreator() bool {
	return i != nil && i.Role == RoleCreator
}
