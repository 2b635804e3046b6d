package models

import (
	"time"
)

// Activity is the bookable event a confirmed match materializes into. The
// broker only writes these through the ActivityRepository adapter; the
// activity subsystem proper (browsing, editing, check-in) is out of scope.
type Activity struct {
	ID              uint      `gorm:"primaryKey"`
	Title           string    `gorm:"type:varchar(255);not null"`
	ActivityType    string    `gorm:"type:varchar(20);not null;index"`
	Latitude        float64   `gorm:"type:float"`
	Longitude       float64   `gorm:"type:float"`
	LocationHint    string    `gorm:"type:varchar(255)"`
	StartAt         time.Time `gorm:"not null"`
	MaxParticipants int       `gorm:"not null"`
	CreatorID       uint      `gorm:"not null;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Activity) TableName() string {
	return "activities"
}

type ActivityParticipant struct {
	ID         uint      `gorm:"primaryKey"`
	ActivityID uint      `gorm:"not null;index:idx_activity_user,unique"`
	UserID     uint      `gorm:"not null;index:idx_activity_user,unique"`
	Status     string    `gorm:"type:varchar(20);default:'joined';not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ActivityParticipant) TableName() string {
	return "activity_participants"
}

const (
	ParticipantStatusJoined = "joined"
	ParticipantStatusLeft   = "left"
)
