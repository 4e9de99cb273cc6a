// Package model defines database models
package model

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// DefaultProfilePicture is stored for users who never uploaded an image
const DefaultProfilePicture = "default.jpg"

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Bio            *string   `gorm:"size:500" json:"bio"`
	ProfilePicture string    `gorm:"not null;default:default.jpg" json:"profile_picture"`
	Role           Role      `gorm:"size:16;not null;default:user" json:"role"`
	PhoneNumber    *string   `json:"phone_number"`
	Verified       bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate fills the defaults the database would otherwise pick so the
// struct returned to callers matches the stored row
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ProfilePicture == "" {
		u.ProfilePicture = DefaultProfilePicture
	}

	if u.Role == "" {
		u.Role = RoleUser
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	return nil
}

// Profile is the subset of a user shown to its owner
type Profile struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            *string   `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	ProfilePicture string    `json:"profile_picture"`
	PhoneNumber    *string   `json:"phone_number"`
}

func (u *User) Profile() Profile {
	return Profile{
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
		ProfilePicture: u.ProfilePicture,
		PhoneNumber:    u.PhoneNumber,
	}
}
