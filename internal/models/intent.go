package models

import (
	"strings"
	"time"
)

// PartnerIntent is one user's standing request to be matched for an
// activity. At most one active intent per (user, activity type) exists at a
// time; the intent service rejects duplicates before creating a new row.
type PartnerIntent struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"not null;index"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ActivityType   string    `gorm:"type:varchar(20);not null;index"`
	LocationHint   string    `gorm:"type:varchar(255)"`
	Latitude       float64   `gorm:"type:float;not null"`
	Longitude      float64   `gorm:"type:float;not null"`
	TimePreference string    `gorm:"type:varchar(255)"`
	Tags           string    `gorm:"type:text"` // Comma separated list of preference tags
	POIPreference  string    `gorm:"type:varchar(255)"`
	BudgetType     string    `gorm:"type:varchar(10)"`
	RawInput       string    `gorm:"type:text"` // Original user text, kept for audit
	Status         string    `gorm:"type:varchar(20);default:'active';index"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
	Distance       float64   `gorm:"-"` // For radius search results
}

func (PartnerIntent) TableName() string {
	return "partner_intents"
}

// Intent status constants
const (
	IntentStatusActive    = "active"
	IntentStatusMatched   = "matched"
	IntentStatusExpired   = "expired"
	IntentStatusCancelled = "cancelled"
)

// Activity type constants
const (
	ActivityTypeFood          = "food"
	ActivityTypeEntertainment = "entertainment"
	ActivityTypeSports        = "sports"
	ActivityTypeBoardgame     = "boardgame"
	ActivityTypeOther         = "other"
)

// Budget type constants
const (
	BudgetTypeAA    = "AA"
	BudgetTypeTreat = "Treat"
	BudgetTypeFree  = "Free"
)

// IntentTTL is the fixed lifetime of an intent; ExpiresAt is stamped once
// at creation and never moves.
const IntentTTL = 24 * time.Hour

// TagList splits the stored tag column into an ordered slice. Order is the
// order the user declared the tags in.
func (i *PartnerIntent) TagList() []string {
	return splitList(i.Tags)
}

// SetTagList joins tags into the stored column, dropping empty entries.
func (i *PartnerIntent) SetTagList(tags []string) {
	i.Tags = joinList(tags)
}

// IsTerminal reports whether the intent can no longer change state.
func (i *PartnerIntent) IsTerminal() bool {
	return i.Status == IntentStatusMatched ||
		i.Status == IntentStatusExpired ||
		i.Status == IntentStatusCancelled
}

func ValidActivityType(t string) bool {
	switch t {
	case ActivityTypeFood, ActivityTypeEntertainment, ActivityTypeSports,
		ActivityTypeBoardgame, ActivityTypeOther:
		return true
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(items []string) string {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			clean = append(clean, it)
		}
	}
	return strings.Join(clean, ",")
}
