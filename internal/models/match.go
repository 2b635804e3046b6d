package models

import (
	"strconv"
	"strings"
	"time"
)

// IntentMatch is a candidate group of compatible intents. The match record
// is the group: IntentIDs and UserIDs are parallel ordered lists, index i
// of one always referring to the same member as index i of the other.
// Membership is fixed at creation; only the organizer pointer and its
// deadline move while the outcome stays pending.
type IntentMatch struct {
	ID                 uint   `gorm:"primaryKey"`
	ActivityType       string `gorm:"type:varchar(20);not null;index"`
	MatchScore         int    `gorm:"not null"`
	CommonTags         string `gorm:"type:text"` // Comma separated, shared by >=2 members
	CenterLatitude     float64
	CenterLongitude    float64
	CenterLocationHint string     `gorm:"type:varchar(255)"`
	TempOrganizerID    uint       `gorm:"not null;index"`
	IntentIDs          string     `gorm:"type:text;not null"` // Comma separated, parallel to UserIDs
	UserIDs            string     `gorm:"type:text;not null"`
	ConfirmDeadline    time.Time  `gorm:"not null;index"`
	Outcome            string     `gorm:"type:varchar(20);default:'pending';index"`
	ActivityID         uint       `gorm:"default:0"`
	ConfirmedAt        *time.Time `gorm:"index"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime"`
}

func (IntentMatch) TableName() string {
	return "intent_matches"
}

// Match outcome constants
const (
	MatchOutcomePending   = "pending"
	MatchOutcomeConfirmed = "confirmed"
	MatchOutcomeExpired   = "expired"
)

func (m *IntentMatch) IntentIDList() []uint {
	return splitIDList(m.IntentIDs)
}

func (m *IntentMatch) UserIDList() []uint {
	return splitIDList(m.UserIDs)
}

func (m *IntentMatch) SetMembers(intentIDs, userIDs []uint) {
	m.IntentIDs = joinIDList(intentIDs)
	m.UserIDs = joinIDList(userIDs)
}

func (m *IntentMatch) CommonTagList() []string {
	return splitList(m.CommonTags)
}

func (m *IntentMatch) SetCommonTagList(tags []string) {
	m.CommonTags = joinList(tags)
}

// MemberCount is the group size; always >= 2 for a persisted match.
func (m *IntentMatch) MemberCount() int {
	return len(m.UserIDList())
}

// HasMember reports whether the user belongs to the match.
func (m *IntentMatch) HasMember(userID uint) bool {
	for _, id := range m.UserIDList() {
		if id == userID {
			return true
		}
	}
	return false
}

// MatchMessage is an append-only message bound to a match. A nil SenderID
// marks a system message (the icebreaker).
type MatchMessage struct {
	ID          uint      `gorm:"primaryKey"`
	MatchID     uint      `gorm:"not null;index"`
	SenderID    *uint     `gorm:"index"`
	MessageType string    `gorm:"type:varchar(20);not null"`
	Content     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (MatchMessage) TableName() string {
	return "match_messages"
}

// Message type constants
const (
	MessageTypeIcebreaker = "icebreaker"
	MessageTypeUser       = "user"
)

func splitIDList(s string) []uint {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil {
			out = append(out, uint(v))
		}
	}
	return out
}

func joinIDList(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}
