package jobs

import (
	"fmt"
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/internal/services"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

// IntentStore is the slice of the intent repository the jobs need.
type IntentStore interface {
	GetByIDs(ids []uint) ([]models.PartnerIntent, error)
	ExpireOlderThan(now time.Time) (int64, error)
	RestoreToActive(ids []uint, now time.Time) (int64, error)
}

// MatchStore is the slice of the match repository the jobs need.
type MatchStore interface {
	FindExpiredPending(now time.Time) ([]models.IntentMatch, error)
	ReassignOrganizer(matchID, organizerID uint, deadline time.Time) error
	Expire(matchID uint) error
	AppendMessage(message *models.MatchMessage) error
}

type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

// Reconciliation holds the two periodic routines that keep intents and
// matches from getting stuck: stale intents expire, and stale pending
// matches either get a new organizer or unwind. Both are idempotent and
// safe to rerun on the next tick after any failure.
type Reconciliation struct {
	intents       IntentStore
	matches       MatchStore
	users         UserStore
	confirmWindow time.Duration
	now           func() time.Time
}

func NewReconciliation(intents IntentStore, matches MatchStore, users UserStore, confirmWindow time.Duration) *Reconciliation {
	return &Reconciliation{
		intents:       intents,
		matches:       matches,
		users:         users,
		confirmWindow: confirmWindow,
		now:           time.Now,
	}
}

// ExpireOldIntents flips every active intent past its ExpiresAt to
// expired. One bulk update, no other side effects.
func (r *Reconciliation) ExpireOldIntents() {
	count, err := r.intents.ExpireOlderThan(r.now())
	if err != nil {
		logger.Error("Failed to expire old intents", "error", err)
		return
	}

	if count > 0 {
		logger.Info("Expired stale intents", "count", count)
	}
}

// HandleExpiredMatches processes every pending match whose confirm
// deadline passed: reassign the organizer role when another member is
// still waiting, otherwise expire the match and put the surviving member
// intents back into the pool. Each match is independent; one failure is
// logged and the batch moves on.
func (r *Reconciliation) HandleExpiredMatches() {
	now := r.now()

	matches, err := r.matches.FindExpiredPending(now)
	if err != nil {
		logger.Error("Failed to load expired matches", "error", err)
		return
	}

	for i := range matches {
		if err := r.handleExpiredMatch(&matches[i], now); err != nil {
			logger.Error("Failed to handle expired match",
				"match_id", matches[i].ID, "error", err)
		}
	}
}

func (r *Reconciliation) handleExpiredMatch(match *models.IntentMatch, now time.Time) error {
	memberIntents, err := r.intents.GetByIDs(match.IntentIDList())
	if err != nil {
		return err
	}

	if replacement := pickReplacement(memberIntents, match.TempOrganizerID); replacement != nil {
		deadline := services.ConfirmDeadlineFrom(now, r.confirmWindow)
		if err := r.matches.ReassignOrganizer(match.ID, replacement.UserID, deadline); err != nil {
			return err
		}

		logger.Info("Organizer reassigned",
			"match_id", match.ID,
			"old_organizer_id", match.TempOrganizerID,
			"new_organizer_id", replacement.UserID)

		r.announceReassignment(match, replacement.UserID, deadline)
		return nil
	}

	// No member can take over: the match dies and everyone still viable
	// re-enters the matching pool.
	if err := r.matches.Expire(match.ID); err != nil {
		return err
	}

	restored, err := r.intents.RestoreToActive(match.IntentIDList(), now)
	if err != nil {
		return err
	}

	logger.Info("Match expired without replacement organizer",
		"match_id", match.ID, "restored_intents", restored)

	return nil
}

// pickReplacement chooses the next organizer: any member other than the
// current one whose own intent is still active, earliest intent first,
// lowest intent id on ties.
func pickReplacement(memberIntents []models.PartnerIntent, currentOrganizerID uint) *models.PartnerIntent {
	var best *models.PartnerIntent
	for i := range memberIntents {
		intent := &memberIntents[i]
		if intent.UserID == currentOrganizerID {
			continue
		}
		if intent.Status != models.IntentStatusActive {
			continue
		}
		if best == nil ||
			intent.CreatedAt.Before(best.CreatedAt) ||
			(intent.CreatedAt.Equal(best.CreatedAt) && intent.ID < best.ID) {
			best = intent
		}
	}
	return best
}

func (r *Reconciliation) announceReassignment(match *models.IntentMatch, organizerID uint, deadline time.Time) {
	mention := fmt.Sprintf("@user%d", organizerID)
	if user, err := r.users.GetByID(organizerID); err == nil {
		mention = user.Mention()
	}

	message := &models.MatchMessage{
		MatchID:     match.ID,
		MessageType: models.MessageTypeIcebreaker,
		Content: fmt.Sprintf("⏰ The previous organizer did not confirm in time. %s you are the new organizer — please confirm before %s.",
			mention, deadline.Format("15:04")),
	}

	// Best effort: the reassignment already committed.
	if err := r.matches.AppendMessage(message); err != nil {
		logger.Warn("Failed to announce reassignment",
			"match_id", match.ID, "error", err)
	}
}
