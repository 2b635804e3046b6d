package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

// Tag pairs that cannot coexist inside one group. Symmetric and fixed.
var conflictPairs = [][2]string{
	{"NoAlcohol", "Drinking"},
	{"Quiet", "Party"},
	{"GirlOnly", "BoyOnly"},
	{"AA", "Treat"},
}

type EngineConfig struct {
	SearchRadiusKm float64
	MinMatchScore  int
	ConfirmWindow  time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SearchRadiusKm: 3,
		MinMatchScore:  80,
		ConfirmWindow:  6 * time.Hour,
	}
}

// MatchingEngine turns a freshly created intent into a pending match when
// enough compatible company is waiting nearby. Every negative outcome is
// silent: the intent stays active and may be picked up by a later attempt.
type MatchingEngine struct {
	intents IntentStore
	matches MatchStore
	users   UserStore
	cfg     EngineConfig
	now     func() time.Time
}

func NewMatchingEngine(intents IntentStore, matches MatchStore, users UserStore, cfg EngineConfig) *MatchingEngine {
	return &MatchingEngine{
		intents: intents,
		matches: matches,
		users:   users,
		cfg:     cfg,
		now:     time.Now,
	}
}

// TryMatch runs the full pipeline for the given intent: candidate search,
// conflict filtering, scoring, and match creation. Returns the created
// match, or nil when no group formed.
func (e *MatchingEngine) TryMatch(intentID uint) (*models.IntentMatch, error) {
	intent, err := e.intents.GetByID(intentID)
	if err != nil {
		if errors.Code(err) == errors.ErrCodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	if intent.Status != models.IntentStatusActive {
		return nil, nil
	}

	candidates, err := e.intents.FindCandidatesNear(
		intent.ActivityType, intent.Latitude, intent.Longitude,
		e.cfg.SearchRadiusKm, intent.UserID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	group := filterConflicts(*intent, candidates)
	if len(group) < 2 {
		return nil, nil
	}

	score, commonTags := ScoreGroup(group)
	if score < e.cfg.MinMatchScore {
		logger.Debug("Group scored below threshold",
			"intent_id", intentID, "score", score, "members", len(group))
		return nil, nil
	}

	organizer := pickOrganizer(group)
	now := e.now()

	intentIDs := make([]uint, len(group))
	userIDs := make([]uint, len(group))
	for i, member := range group {
		intentIDs[i] = member.ID
		userIDs[i] = member.UserID
	}

	match := &models.IntentMatch{
		ActivityType:       intent.ActivityType,
		MatchScore:         score,
		CenterLatitude:     intent.Latitude,
		CenterLongitude:    intent.Longitude,
		CenterLocationHint: intent.LocationHint,
		TempOrganizerID:    organizer.UserID,
		ConfirmDeadline:    ConfirmDeadlineFrom(now, e.cfg.ConfirmWindow),
		Outcome:            models.MatchOutcomePending,
	}
	match.SetMembers(intentIDs, userIDs)
	match.SetCommonTagList(commonTags)

	icebreaker := &models.MatchMessage{
		MessageType: models.MessageTypeIcebreaker,
		Content:     e.icebreakerText(match, organizer.UserID),
	}

	if err := e.matches.CreateWithIcebreaker(match, icebreaker); err != nil {
		// A concurrent match creation can claim a member between our read
		// and the row lock; that attempt simply loses and stays silent.
		if errors.Code(err) == errors.ErrCodeExpired {
			logger.Warn("Match creation lost a candidate race", "intent_id", intentID)
			return nil, nil
		}
		return nil, err
	}

	logger.Info("Match created",
		"match_id", match.ID,
		"activity_type", match.ActivityType,
		"score", score,
		"members", len(group),
		"organizer_id", organizer.UserID)

	return match, nil
}

// filterConflicts walks the candidates oldest first, admitting each one
// whose tags do not clash with the tag union accumulated so far. The
// triggering intent is always the first member, so every admitted
// candidate is also conflict-free against it.
func filterConflicts(trigger models.PartnerIntent, candidates []models.PartnerIntent) []models.PartnerIntent {
	group := []models.PartnerIntent{trigger}
	union := make(map[string]bool)
	for _, t := range trigger.TagList() {
		union[t] = true
	}

	for _, c := range candidates {
		tags := c.TagList()
		if conflictsWith(union, tags) {
			continue
		}
		group = append(group, c)
		for _, t := range tags {
			union[t] = true
		}
	}

	return group
}

func conflictsWith(union map[string]bool, tags []string) bool {
	merged := make(map[string]bool, len(union)+len(tags))
	for t := range union {
		merged[t] = true
	}
	for _, t := range tags {
		merged[t] = true
	}

	for _, pair := range conflictPairs {
		if merged[pair[0]] && merged[pair[1]] {
			return true
		}
	}
	return false
}

// ScoreGroup computes the density-heuristic compatibility score and the
// common tags of a member group. A tag is common when at least two members
// declared it; order follows first time a tag becomes common. An empty tag
// multiset means type-only compatibility and scores 100.
func ScoreGroup(members []models.PartnerIntent) (int, []string) {
	totalTags := 0
	tagMembers := make(map[string]int)
	var commonTags []string

	for _, m := range members {
		tags := m.TagList()
		totalTags += len(tags)

		seen := make(map[string]bool, len(tags))
		for _, t := range tags {
			if seen[t] {
				continue
			}
			seen[t] = true
			tagMembers[t]++
			if tagMembers[t] == 2 {
				commonTags = append(commonTags, t)
			}
		}
	}

	if totalTags == 0 {
		return 100, nil
	}

	avgTagCount := float64(totalTags) / float64(len(members))
	score := int(math.Round(float64(len(commonTags)) / math.Max(avgTagCount, 1) * 100))

	return score, commonTags
}

// pickOrganizer returns the member whose intent was created first; ties
// go to the lowest intent id.
func pickOrganizer(members []models.PartnerIntent) models.PartnerIntent {
	best := members[0]
	for _, m := range members[1:] {
		if m.CreatedAt.Before(best.CreatedAt) ||
			(m.CreatedAt.Equal(best.CreatedAt) && m.ID < best.ID) {
			best = m
		}
	}
	return best
}

func (e *MatchingEngine) icebreakerText(match *models.IntentMatch, organizerID uint) string {
	mention := fmt.Sprintf("@user%d", organizerID)
	if user, err := e.users.GetByID(organizerID); err == nil {
		mention = user.Mention()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎉 A %s group of %d is ready!",
		match.ActivityType, match.MemberCount()))

	if tags := match.CommonTagList(); len(tags) > 0 {
		sb.WriteString(fmt.Sprintf(" You all share: %s.", strings.Join(tags, ", ")))
	}

	sb.WriteString(fmt.Sprintf(" %s you are up — please confirm the plan before %s.",
		mention, match.ConfirmDeadline.Format("15:04")))

	return sb.String()
}
