package services

import (
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

// IntentService owns the intent lifecycle on the user-facing path:
// creation (which runs the matching engine inline), cancellation, and the
// status view the chat layer renders.
type IntentService struct {
	intents   IntentStore
	matches   MatchStore
	engine    *MatchingEngine
	sanitizer *bluemonday.Policy
	ttl       time.Duration
	now       func() time.Time
}

func NewIntentService(intents IntentStore, matches MatchStore, engine *MatchingEngine, ttl time.Duration) *IntentService {
	return &IntentService{
		intents:   intents,
		matches:   matches,
		engine:    engine,
		sanitizer: bluemonday.StrictPolicy(),
		ttl:       ttl,
		now:       time.Now,
	}
}

type CreateIntentInput struct {
	UserID         uint
	ActivityType   string
	LocationHint   string
	Latitude       float64
	Longitude      float64
	TimePreference string
	Tags           []string
	POIPreference  string
	BudgetType     string
	RawInput       string
}

type CreateIntentResult struct {
	IntentID   uint
	MatchFound bool
	MatchID    uint
	ExpiresAt  time.Time
}

// CreateIntent persists a new intent and immediately runs the matching
// engine on it. Matching is synchronous on this path: the caller learns in
// one round trip whether a group formed.
func (s *IntentService) CreateIntent(input CreateIntentInput) (*CreateIntentResult, error) {
	if !models.ValidActivityType(input.ActivityType) {
		return nil, errors.New(errors.ErrCodeValidationFailed, "unknown activity type")
	}
	if input.BudgetType != "" &&
		input.BudgetType != models.BudgetTypeAA &&
		input.BudgetType != models.BudgetTypeTreat &&
		input.BudgetType != models.BudgetTypeFree {
		return nil, errors.New(errors.ErrCodeValidationFailed, "unknown budget type")
	}

	existing, err := s.intents.FindActiveByUserAndType(input.UserID, input.ActivityType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeDuplicateIntent,
			"an active intent of this type already exists")
	}

	now := s.now()
	intent := &models.PartnerIntent{
		UserID:         input.UserID,
		ActivityType:   input.ActivityType,
		LocationHint:   s.sanitizer.Sanitize(input.LocationHint),
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		TimePreference: s.sanitizer.Sanitize(input.TimePreference),
		POIPreference:  s.sanitizer.Sanitize(input.POIPreference),
		BudgetType:     input.BudgetType,
		RawInput:       s.sanitizer.Sanitize(input.RawInput),
		Status:         models.IntentStatusActive,
		ExpiresAt:      now.Add(s.ttl),
	}
	intent.SetTagList(s.sanitizeTags(input.Tags))

	if err := s.intents.Create(intent); err != nil {
		return nil, err
	}

	logger.Info("Intent created",
		"intent_id", intent.ID,
		"user_id", intent.UserID,
		"activity_type", intent.ActivityType)

	match, err := s.engine.TryMatch(intent.ID)
	if err != nil {
		// The intent is live; a failed matching attempt only costs the
		// instant match and the next trigger retries naturally.
		logger.Error("Inline matching attempt failed",
			"intent_id", intent.ID, "error", err)
	}

	result := &CreateIntentResult{
		IntentID:  intent.ID,
		ExpiresAt: intent.ExpiresAt,
	}
	if match != nil {
		result.MatchFound = true
		result.MatchID = match.ID
	}

	return result, nil
}

// CancelIntent marks the caller's intent cancelled. Only the owner may
// cancel, and only while the intent is still active.
func (s *IntentService) CancelIntent(intentID, callerUserID uint) error {
	intent, err := s.intents.GetByID(intentID)
	if err != nil {
		return err
	}

	if intent.UserID != callerUserID {
		return errors.New(errors.ErrCodePermissionDenied,
			"only the owner can cancel an intent")
	}
	if intent.Status != models.IntentStatusActive {
		return errors.New(errors.ErrCodeAlreadyProcessed,
			"intent is no longer active")
	}

	return s.intents.UpdateStatus(intentID, models.IntentStatusCancelled)
}

type UserStatus struct {
	Intents        []models.PartnerIntent
	PendingMatches []models.IntentMatch
}

// GetUserStatus returns the user's intents and the pending matches they
// belong to, for the "what's my situation" chat action.
func (s *IntentService) GetUserStatus(userID uint) (*UserStatus, error) {
	intents, err := s.intents.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matches.ListPendingByUser(userID)
	if err != nil {
		return nil, err
	}

	return &UserStatus{
		Intents:        intents,
		PendingMatches: matches,
	}, nil
}

// GetMatchThread returns the message history of a match the user belongs to.
func (s *IntentService) GetMatchThread(matchID, userID uint) ([]models.MatchMessage, error) {
	match, err := s.matches.GetByID(matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasMember(userID) {
		return nil, errors.New(errors.ErrCodePermissionDenied,
			"not a member of this match")
	}

	return s.matches.GetMessages(matchID)
}

// PostMatchMessage appends a user message to a match thread.
func (s *IntentService) PostMatchMessage(matchID, userID uint, content string) error {
	match, err := s.matches.GetByID(matchID)
	if err != nil {
		return err
	}
	if !match.HasMember(userID) {
		return errors.New(errors.ErrCodePermissionDenied,
			"not a member of this match")
	}

	clean := s.sanitizer.Sanitize(content)
	if clean == "" {
		return errors.New(errors.ErrCodeValidationFailed, "message is empty")
	}

	sender := userID
	return s.matches.AppendMessage(&models.MatchMessage{
		MatchID:     matchID,
		SenderID:    &sender,
		MessageType: models.MessageTypeUser,
		Content:     clean,
	})
}

func (s *IntentService) sanitizeTags(tags []string) []string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = s.sanitizer.Sanitize(t); t != "" {
			clean = append(clean, t)
		}
	}
	return clean
}
