package model

import "time"

// ResendRequest remembers when a verification mail was last sent to a user
type ResendRequest struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	UserID     uint      `gorm:"uniqueIndex;not null"`
	LastResend time.Time `gorm:"not null"`
}
