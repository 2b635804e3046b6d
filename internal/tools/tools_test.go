package tools

import (
	"os"
	"testing"
	"time"

	"github.com/mingleapp/mingle-server/internal/middleware"
	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/internal/services"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

const testSecret = "0123456789abcdef0123456789abcdef"

// stubStores backs all three service store interfaces with just enough
// state for the envelope-level assertions here. Matching never fires:
// FindCandidatesNear always comes back empty.
type stubStores struct {
	users   map[uint]*models.User
	matches map[uint]*models.IntentMatch
	created []*models.PartnerIntent
	nextID  uint
}

func newStubStores() *stubStores {
	return &stubStores{
		users:   make(map[uint]*models.User),
		matches: make(map[uint]*models.IntentMatch),
	}
}

func (s *stubStores) Create(intent *models.PartnerIntent) error {
	s.nextID++
	intent.ID = s.nextID
	s.created = append(s.created, intent)
	return nil
}

func (s *stubStores) GetByID(id uint) (*models.PartnerIntent, error) {
	for _, intent := range s.created {
		if intent.ID == id {
			return intent, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "intent not found")
}

func (s *stubStores) GetByIDs(ids []uint) ([]models.PartnerIntent, error) { return nil, nil }

func (s *stubStores) FindActiveByUserAndType(userID uint, activityType string) (*models.PartnerIntent, error) {
	return nil, nil
}

func (s *stubStores) FindCandidatesNear(activityType string, lat, lng, radiusKm float64, excludeUserID uint) ([]models.PartnerIntent, error) {
	return nil, nil
}

func (s *stubStores) UpdateStatus(id uint, status string) error { return nil }

func (s *stubStores) ListByUser(userID uint) ([]models.PartnerIntent, error) { return nil, nil }

func (s *stubStores) CreateWithIcebreaker(match *models.IntentMatch, message *models.MatchMessage) error {
	return nil
}

func (s *stubStores) MatchByID(id uint) (*models.IntentMatch, error) {
	if match, ok := s.matches[id]; ok {
		return match, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "match not found")
}

func (s *stubStores) ConfirmMatch(match *models.IntentMatch, activity *models.Activity, participantIDs []uint, confirmedAt time.Time) (uint, error) {
	stored := s.matches[match.ID]
	stored.Outcome = models.MatchOutcomeConfirmed
	stored.ActivityID = 77
	return 77, nil
}

func (s *stubStores) ListPendingByUser(userID uint) ([]models.IntentMatch, error) {
	var out []models.IntentMatch
	for _, match := range s.matches {
		if match.Outcome == models.MatchOutcomePending && match.HasMember(userID) {
			out = append(out, *match)
		}
	}
	return out, nil
}

func (s *stubStores) AppendMessage(message *models.MatchMessage) error { return nil }

func (s *stubStores) GetMessages(matchID uint) ([]models.MatchMessage, error) { return nil, nil }

func (s *stubStores) UserByID(id uint) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

// matchStoreView adapts stubStores to services.MatchStore; GetByID is
// claimed by the intent lookup on the same struct.
type matchStoreView struct{ *stubStores }

func (v matchStoreView) GetByID(id uint) (*models.IntentMatch, error) { return v.MatchByID(id) }

type userStoreView struct{ *stubStores }

func (v userStoreView) GetByID(id uint) (*models.User, error) { return v.UserByID(id) }

func newTestToolset(stores *stubStores, ratePerMinute int) *Toolset {
	matches := matchStoreView{stores}
	users := userStoreView{stores}

	engine := services.NewMatchingEngine(stores, matches, users, services.DefaultEngineConfig())
	intents := services.NewIntentService(stores, matches, engine, models.IntentTTL)
	confirm := services.NewConfirmationService(matches, services.DefaultConfirmConfig())
	limiter := middleware.NewRateLimiter(ratePerMinute, time.Minute)

	return NewToolset(intents, confirm, users, nil, limiter, testSecret)
}

func verifiedUser(id uint) *models.User {
	return &models.User{
		ID:              id,
		Nickname:        "ada",
		ContactVerified: true,
		Latitude:        31.2304,
		Longitude:       121.4737,
	}
}

func validParams(userID uint) CreateIntentParams {
	return CreateIntentParams{
		UserID:       userID,
		ActivityType: models.ActivityTypeFood,
		Latitude:     31.2304,
		Longitude:    121.4737,
		RawInput:     "hotpot tonight",
	}
}

func TestCreateIntent_ValidationEnvelope(t *testing.T) {
	stores := newStubStores()
	stores.users[1] = verifiedUser(1)
	ts := newTestToolset(stores, 10)

	tests := []struct {
		name   string
		mutate func(*CreateIntentParams)
	}{
		{"unknown activity type", func(p *CreateIntentParams) { p.ActivityType = "karaoke" }},
		{"missing raw input", func(p *CreateIntentParams) { p.RawInput = "" }},
		{"latitude out of range", func(p *CreateIntentParams) { p.Latitude = 91 }},
		{"bad budget type", func(p *CreateIntentParams) { p.BudgetType = "Split" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams(1)
			tt.mutate(&params)

			env := ts.CreateIntent(params)
			if env.Success {
				t.Fatal("Success = true, want validation failure")
			}
			if env.Code != errors.ErrCodeValidationFailed {
				t.Errorf("Code = %q, want %q", env.Code, errors.ErrCodeValidationFailed)
			}
		})
	}

	if len(stores.created) != 0 {
		t.Errorf("created %d intents from invalid params, want 0", len(stores.created))
	}
}

func TestCreateIntent_RateLimited(t *testing.T) {
	stores := newStubStores()
	stores.users[1] = verifiedUser(1)
	ts := newTestToolset(stores, 1)

	if env := ts.CreateIntent(validParams(1)); !env.Success {
		t.Fatalf("first call failed: %s %s", env.Code, env.Message)
	}

	env := ts.CreateIntent(validParams(1))
	if env.Success {
		t.Fatal("second call succeeded, want rate limit")
	}
	if env.Code != errors.ErrCodeRateLimitExceeded {
		t.Errorf("Code = %q, want %q", env.Code, errors.ErrCodeRateLimitExceeded)
	}
}

func TestCreateIntent_Prerequisites(t *testing.T) {
	stores := newStubStores()
	stores.users[1] = &models.User{ID: 1, Nickname: "ada"} // unverified, no location
	stores.users[2] = &models.User{ID: 2, Nickname: "bob", ContactVerified: true}
	ts := newTestToolset(stores, 10)

	env := ts.CreateIntent(validParams(1))
	if env.Success || env.Code != errors.ErrCodeMissingPrerequisite {
		t.Errorf("unverified user: Code = %q, want %q", env.Code, errors.ErrCodeMissingPrerequisite)
	}

	params := validParams(2)
	params.Latitude, params.Longitude = 0, 0
	env = ts.CreateIntent(params)
	if env.Success || env.Code != errors.ErrCodeMissingPrerequisite {
		t.Errorf("no location anywhere: Code = %q, want %q", env.Code, errors.ErrCodeMissingPrerequisite)
	}

	if len(stores.created) != 0 {
		t.Errorf("created %d intents, want 0", len(stores.created))
	}
}

func TestCreateIntent_FallsBackToStoredLocation(t *testing.T) {
	stores := newStubStores()
	stores.users[1] = verifiedUser(1)
	ts := newTestToolset(stores, 10)

	params := validParams(1)
	params.Latitude, params.Longitude = 0, 0

	env := ts.CreateIntent(params)
	if !env.Success {
		t.Fatalf("CreateIntent failed: %s %s", env.Code, env.Message)
	}

	if len(stores.created) != 1 {
		t.Fatalf("created %d intents, want 1", len(stores.created))
	}
	intent := stores.created[0]
	if intent.Latitude != 31.2304 || intent.Longitude != 121.4737 {
		t.Errorf("intent coordinates = (%v, %v), want the user's stored location",
			intent.Latitude, intent.Longitude)
	}
}

func TestConfirmLinkRoundTrip(t *testing.T) {
	stores := newStubStores()
	stores.users[10] = verifiedUser(10)

	match := &models.IntentMatch{
		ID:              1,
		ActivityType:    models.ActivityTypeFood,
		MatchScore:      100,
		TempOrganizerID: 10,
		ConfirmDeadline: time.Now().Add(2 * time.Hour),
		Outcome:         models.MatchOutcomePending,
	}
	match.SetMembers([]uint{1, 2}, []uint{10, 20})
	stores.matches[1] = match

	ts := newTestToolset(stores, 10)

	env := ts.IssueConfirmLink(1, 10)
	if !env.Success {
		t.Fatalf("IssueConfirmLink failed: %s %s", env.Code, env.Message)
	}
	token, _ := env.Data.(map[string]interface{})["confirmToken"].(string)
	if token == "" {
		t.Fatal("envelope carries no confirm token")
	}

	env = ts.ConfirmMatchByToken(token)
	if !env.Success {
		t.Fatalf("ConfirmMatchByToken failed: %s %s", env.Code, env.Message)
	}
	if stores.matches[1].Outcome != models.MatchOutcomeConfirmed {
		t.Errorf("Outcome = %q, want confirmed", stores.matches[1].Outcome)
	}
}

func TestIssueConfirmLink_Denied(t *testing.T) {
	stores := newStubStores()
	stores.users[20] = verifiedUser(20)

	match := &models.IntentMatch{
		ID:              1,
		ActivityType:    models.ActivityTypeFood,
		TempOrganizerID: 10,
		ConfirmDeadline: time.Now().Add(2 * time.Hour),
		Outcome:         models.MatchOutcomePending,
	}
	match.SetMembers([]uint{1, 2}, []uint{10, 20})
	stores.matches[1] = match

	ts := newTestToolset(stores, 10)

	// A member who is not the organizer gets no link.
	env := ts.IssueConfirmLink(1, 20)
	if env.Success || env.Code != errors.ErrCodePermissionDenied {
		t.Errorf("non-organizer: Code = %q, want %q", env.Code, errors.ErrCodePermissionDenied)
	}

	// A match the caller is not in reads as not found.
	env = ts.IssueConfirmLink(99, 20)
	if env.Success || env.Code != errors.ErrCodeNotFound {
		t.Errorf("unknown match: Code = %q, want %q", env.Code, errors.ErrCodeNotFound)
	}
}

func TestConfirmMatchByToken_BadToken(t *testing.T) {
	ts := newTestToolset(newStubStores(), 10)

	env := ts.ConfirmMatchByToken("not-a-token")
	if env.Success {
		t.Fatal("garbage token accepted")
	}
	if env.Code != errors.ErrCodeExpired {
		t.Errorf("Code = %q, want %q", env.Code, errors.ErrCodeExpired)
	}
}

func TestMyStatus_Empty(t *testing.T) {
	ts := newTestToolset(newStubStores(), 10)

	env := ts.MyStatus(5)
	if !env.Success {
		t.Fatalf("MyStatus failed: %s %s", env.Code, env.Message)
	}
	if env.Message != "No open requests or pending matches right now." {
		t.Errorf("Message = %q", env.Message)
	}
}
