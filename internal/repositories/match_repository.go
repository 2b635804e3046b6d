package repositories

import (
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"gorm.io/gorm"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateWithIcebreaker persists a new pending match together with its
// system icebreaker message in one transaction. Member intents are
// re-checked under a row lock inside the same transaction so a candidate
// claimed by a concurrent match creation aborts this one instead of
// silently double-booking them.
func (r *MatchRepository) CreateWithIcebreaker(match *models.IntentMatch, message *models.MatchMessage) error {
	intentIDs := match.IntentIDList()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var lockedIDs []uint
		err := tx.Raw(
			`SELECT id FROM partner_intents WHERE id IN ? AND status = ? FOR UPDATE`,
			intentIDs, models.IntentStatusActive,
		).Scan(&lockedIDs).Error
		if err != nil {
			return err
		}
		if len(lockedIDs) != len(intentIDs) {
			return errors.New(errors.ErrCodeExpired, "a member intent is no longer active")
		}

		if err := tx.Create(match).Error; err != nil {
			return err
		}

		message.MatchID = match.ID
		return tx.Create(message).Error
	})

	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match")
	}

	return nil
}

func (r *MatchRepository) GetByID(id uint) (*models.IntentMatch, error) {
	var match models.IntentMatch
	result := r.db.First(&match, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get match")
	}

	return &match, nil
}

// FindExpiredPending returns every pending match whose confirm deadline
// has passed.
func (r *MatchRepository) FindExpiredPending(now time.Time) ([]models.IntentMatch, error) {
	var matches []models.IntentMatch
	err := r.db.Where("outcome = ? AND confirm_deadline < ?",
		models.MatchOutcomePending, now).
		Find(&matches).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find expired matches")
	}

	return matches, nil
}

// ReassignOrganizer hands the confirm duty to another member and pushes
// the deadline out. Guarded on outcome so a concurrently confirmed or
// expired match is left alone.
func (r *MatchRepository) ReassignOrganizer(matchID, organizerID uint, deadline time.Time) error {
	result := r.db.Model(&models.IntentMatch{}).
		Where("id = ? AND outcome = ?", matchID, models.MatchOutcomePending).
		Updates(map[string]interface{}{
			"temp_organizer_id": organizerID,
			"confirm_deadline":  deadline,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to reassign organizer")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeAlreadyProcessed, "match is no longer pending")
	}

	return nil
}

// Expire marks a pending match as expired (terminal).
func (r *MatchRepository) Expire(matchID uint) error {
	result := r.db.Model(&models.IntentMatch{}).
		Where("id = ? AND outcome = ?", matchID, models.MatchOutcomePending).
		Update("outcome", models.MatchOutcomeExpired)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to expire match")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeAlreadyProcessed, "match is no longer pending")
	}

	return nil
}

// ConfirmMatch applies the whole confirmation as one transaction: the
// activity and its participants are created, the match flips to confirmed
// with the activity id and timestamp, and every member intent becomes
// matched. A partial write can never leave a confirmed match without an
// activity or a matched group with active intents.
func (r *MatchRepository) ConfirmMatch(match *models.IntentMatch, activity *models.Activity, participantIDs []uint, confirmedAt time.Time) (uint, error) {
	var activityID uint

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return err
		}
		activityID = activity.ID

		for _, userID := range participantIDs {
			participant := &models.ActivityParticipant{
				ActivityID: activity.ID,
				UserID:     userID,
				Status:     models.ParticipantStatusJoined,
			}
			if err := tx.Create(participant).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.IntentMatch{}).
			Where("id = ? AND outcome = ?", match.ID, models.MatchOutcomePending).
			Updates(map[string]interface{}{
				"outcome":      models.MatchOutcomeConfirmed,
				"activity_id":  activity.ID,
				"confirmed_at": confirmedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCodeAlreadyProcessed, "match already processed")
		}

		return tx.Model(&models.PartnerIntent{}).
			Where("id IN ?", match.IntentIDList()).
			Update("status", models.IntentStatusMatched).Error
	})

	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return 0, appErr
		}
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to confirm match")
	}

	return activityID, nil
}

// ListPendingByUser returns pending matches the user is a member of,
// oldest deadline first. Membership lives in the comma-joined user_ids
// column, so candidates are prefiltered in SQL and verified in Go.
func (r *MatchRepository) ListPendingByUser(userID uint) ([]models.IntentMatch, error) {
	var candidates []models.IntentMatch
	err := r.db.Where("outcome = ?", models.MatchOutcomePending).
		Order("confirm_deadline ASC").
		Find(&candidates).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list pending matches")
	}

	var matches []models.IntentMatch
	for _, m := range candidates {
		if m.HasMember(userID) {
			matches = append(matches, m)
		}
	}

	return matches, nil
}

// AppendMessage adds a message to a match thread. Messages are append
// only; nothing updates or deletes them.
func (r *MatchRepository) AppendMessage(message *models.MatchMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to append match message")
	}
	return nil
}

// GetMessages returns the match thread in chronological order.
func (r *MatchRepository) GetMessages(matchID uint) ([]models.MatchMessage, error) {
	var messages []models.MatchMessage
	err := r.db.Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&messages).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get match messages")
	}

	return messages, nil
}
