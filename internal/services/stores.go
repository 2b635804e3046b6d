package services

import (
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
)

// IntentStore is the slice of the intent repository the services need.
type IntentStore interface {
	Create(intent *models.PartnerIntent) error
	GetByID(id uint) (*models.PartnerIntent, error)
	GetByIDs(ids []uint) ([]models.PartnerIntent, error)
	FindActiveByUserAndType(userID uint, activityType string) (*models.PartnerIntent, error)
	FindCandidatesNear(activityType string, lat, lng, radiusKm float64, excludeUserID uint) ([]models.PartnerIntent, error)
	UpdateStatus(id uint, status string) error
	ListByUser(userID uint) ([]models.PartnerIntent, error)
}

// MatchStore is the slice of the match repository the services need.
type MatchStore interface {
	CreateWithIcebreaker(match *models.IntentMatch, message *models.MatchMessage) error
	GetByID(id uint) (*models.IntentMatch, error)
	ConfirmMatch(match *models.IntentMatch, activity *models.Activity, participantIDs []uint, confirmedAt time.Time) (uint, error)
	ListPendingByUser(userID uint) ([]models.IntentMatch, error)
	AppendMessage(message *models.MatchMessage) error
	GetMessages(matchID uint) ([]models.MatchMessage, error)
}

// UserStore resolves member user ids to profiles for mentions and
// prerequisite checks.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

// ConfirmDeadlineFrom computes the organizer's deadline: a fixed window
// from now, but never past the end of the current local day. Late-evening
// matches get a short fuse rather than one that silently crosses midnight.
func ConfirmDeadlineFrom(now time.Time, window time.Duration) time.Time {
	deadline := now.Add(window)
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(),
		23, 59, 59, 999000000, now.Location())
	if deadline.After(endOfDay) {
		return endOfDay
	}
	return deadline
}
