package services

import (
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

type ConfirmConfig struct {
	ActivityLead   time.Duration // how far out the default start time sits
	ExtraOpenSlots int           // open seats beyond the matched members
}

func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		ActivityLead:   2 * time.Hour,
		ExtraOpenSlots: 2,
	}
}

// ConfirmationService executes the single-leader confirmation that turns a
// pending match into a bookable activity.
type ConfirmationService struct {
	matches MatchStore
	cfg     ConfirmConfig
	now     func() time.Time
}

func NewConfirmationService(matches MatchStore, cfg ConfirmConfig) *ConfirmationService {
	return &ConfirmationService{
		matches: matches,
		cfg:     cfg,
		now:     time.Now,
	}
}

type ConfirmResult struct {
	MatchID    uint
	ActivityID uint
	StartAt    time.Time
}

// ConfirmMatch validates that the caller currently holds the organizer
// role and the deadline has not passed, then materializes the activity.
// The activity write, the match flip, and the member intent flips happen
// in one transaction inside the store.
func (s *ConfirmationService) ConfirmMatch(matchID, callerUserID uint) (*ConfirmResult, error) {
	match, err := s.matches.GetByID(matchID)
	if err != nil {
		return nil, err
	}

	if callerUserID != match.TempOrganizerID {
		return nil, errors.New(errors.ErrCodePermissionDenied,
			"only the current organizer can confirm this match")
	}

	if match.Outcome != models.MatchOutcomePending {
		return nil, errors.New(errors.ErrCodeAlreadyProcessed,
			"match has already been processed")
	}

	now := s.now()
	if now.After(match.ConfirmDeadline) {
		return nil, errors.New(errors.ErrCodeExpired,
			"confirm deadline has passed")
	}

	memberIDs := match.UserIDList()
	startAt := now.Add(s.cfg.ActivityLead)

	activity := &models.Activity{
		Title:           activityTitle(match.ActivityType),
		ActivityType:    match.ActivityType,
		Latitude:        match.CenterLatitude,
		Longitude:       match.CenterLongitude,
		LocationHint:    match.CenterLocationHint,
		StartAt:         startAt,
		MaxParticipants: len(memberIDs) + s.cfg.ExtraOpenSlots,
		CreatorID:       callerUserID,
	}

	activityID, err := s.matches.ConfirmMatch(match, activity, memberIDs, now)
	if err != nil {
		return nil, err
	}

	logger.Info("Match confirmed",
		"match_id", match.ID,
		"activity_id", activityID,
		"organizer_id", callerUserID,
		"members", len(memberIDs))

	return &ConfirmResult{
		MatchID:    match.ID,
		ActivityID: activityID,
		StartAt:    startAt,
	}, nil
}

func activityTitle(activityType string) string {
	switch activityType {
	case models.ActivityTypeFood:
		return "Food meetup"
	case models.ActivityTypeEntertainment:
		return "Entertainment hangout"
	case models.ActivityTypeSports:
		return "Sports session"
	case models.ActivityTypeBoardgame:
		return "Boardgame night"
	default:
		return "Group hangout"
	}
}
