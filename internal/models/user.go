package models

import (
	"time"
)

// User is the minimal profile the broker needs: a display name for
// @-mentions and the prerequisite flags the tool layer checks before
// accepting an intent. Full profile management lives elsewhere.
type User struct {
	ID              uint      `gorm:"primaryKey"`
	Nickname        string    `gorm:"type:varchar(100);not null"`
	ContactVerified bool      `gorm:"default:false;not null"`
	Latitude        float64   `gorm:"type:float"`
	Longitude       float64   `gorm:"type:float"`
	LastActivity    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// HasLocation reports whether a usable last-known location is on file.
func (u *User) HasLocation() bool {
	return u.Latitude != 0 || u.Longitude != 0
}

// Mention renders the chat @-mention for the user.
func (u *User) Mention() string {
	return "@" + u.Nickname
}
