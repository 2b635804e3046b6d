// Package tools is the action surface the conversational layer calls.
// Every method returns an Envelope: a machine-readable success/error code
// plus a human-readable summary the AI can drop straight into chat.
package tools

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mingleapp/mingle-server/internal/middleware"
	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/internal/security"
	"github.com/mingleapp/mingle-server/internal/services"
	"github.com/mingleapp/mingle-server/pkg/errors"
)

// POIStore resolves a free-text POI preference to a catalog venue.
type POIStore interface {
	FindByNameNear(name string, lat, lng, radiusKm float64) (*models.POI, error)
}

type Envelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Toolset struct {
	intents     *services.IntentService
	confirm     *services.ConfirmationService
	users       services.UserStore
	pois        POIStore
	limiter     *middleware.RateLimiter
	validate    *validator.Validate
	tokenSecret string
}

func NewToolset(
	intents *services.IntentService,
	confirm *services.ConfirmationService,
	users services.UserStore,
	pois POIStore,
	limiter *middleware.RateLimiter,
	tokenSecret string,
) *Toolset {
	return &Toolset{
		intents:     intents,
		confirm:     confirm,
		users:       users,
		pois:        pois,
		limiter:     limiter,
		validate:    validator.New(),
		tokenSecret: tokenSecret,
	}
}

type CreateIntentParams struct {
	UserID         uint     `validate:"required"`
	ActivityType   string   `validate:"required,oneof=food entertainment sports boardgame other"`
	LocationHint   string   `validate:"max=255"`
	Latitude       float64  `validate:"gte=-90,lte=90"`
	Longitude      float64  `validate:"gte=-180,lte=180"`
	TimePreference string   `validate:"max=255"`
	Tags           []string `validate:"max=20,dive,max=50"`
	POIPreference  string   `validate:"max=255"`
	BudgetType     string   `validate:"omitempty,oneof=AA Treat Free"`
	RawInput       string   `validate:"required,max=2000"`
}

// CreateIntent registers a new partner intent and reports whether a group
// formed on the spot.
func (t *Toolset) CreateIntent(params CreateIntentParams) Envelope {
	if err := t.validate.Struct(params); err != nil {
		return fail(errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid intent parameters"))
	}

	if !t.limiter.Allow(params.UserID) {
		return fail(errors.New(errors.ErrCodeRateLimitExceeded,
			"too many requests, try again in a minute"))
	}

	user, err := t.users.GetByID(params.UserID)
	if err != nil {
		return fail(err)
	}
	if !user.ContactVerified {
		return fail(errors.New(errors.ErrCodeMissingPrerequisite,
			"verify your contact info before creating an intent"))
	}
	if params.Latitude == 0 && params.Longitude == 0 && !user.HasLocation() {
		return fail(errors.New(errors.ErrCodeMissingPrerequisite,
			"share a location before creating an intent"))
	}

	lat, lng := params.Latitude, params.Longitude
	if lat == 0 && lng == 0 {
		lat, lng = user.Latitude, user.Longitude
	}

	result, err := t.intents.CreateIntent(services.CreateIntentInput{
		UserID:         params.UserID,
		ActivityType:   params.ActivityType,
		LocationHint:   params.LocationHint,
		Latitude:       lat,
		Longitude:      lng,
		TimePreference: params.TimePreference,
		Tags:           params.Tags,
		POIPreference:  params.POIPreference,
		BudgetType:     params.BudgetType,
		RawInput:       params.RawInput,
	})
	if err != nil {
		return fail(err)
	}

	if result.MatchFound {
		return ok(
			fmt.Sprintf("🎉 You're matched! A %s group formed right away — check match #%d for the details.",
				params.ActivityType, result.MatchID),
			map[string]interface{}{
				"matchFound": true,
				"matchId":    result.MatchID,
				"intentId":   result.IntentID,
			})
	}

	return ok(
		fmt.Sprintf("📍 Got it — looking for %s partners nearby. Your request stays open until %s.",
			params.ActivityType, result.ExpiresAt.Format("Jan 2 15:04")),
		map[string]interface{}{
			"matchFound": false,
			"intentId":   result.IntentID,
			"expiresAt":  result.ExpiresAt,
		})
}

// ConfirmMatch executes the organizer confirmation by explicit ids.
func (t *Toolset) ConfirmMatch(matchID, userID uint) Envelope {
	result, err := t.confirm.ConfirmMatch(matchID, userID)
	if err != nil {
		return fail(err)
	}

	return ok(
		fmt.Sprintf("✅ Confirmed! Activity #%d is on at %s. Everyone in the group has a seat, plus a couple of open spots.",
			result.ActivityID, result.StartAt.Format("15:04")),
		map[string]interface{}{
			"matchId":    result.MatchID,
			"activityId": result.ActivityID,
			"startAt":    result.StartAt,
		})
}

// IssueConfirmLink hands the current organizer a signed token for a
// one-tap confirm.
func (t *Toolset) IssueConfirmLink(matchID, userID uint) Envelope {
	status, err := t.intents.GetUserStatus(userID)
	if err != nil {
		return fail(err)
	}

	for _, m := range status.PendingMatches {
		if m.ID != matchID {
			continue
		}
		if m.TempOrganizerID != userID {
			return fail(errors.New(errors.ErrCodePermissionDenied,
				"only the current organizer gets a confirm link"))
		}

		token, err := security.IssueConfirmToken(m.ID, userID, m.ConfirmDeadline, t.tokenSecret)
		if err != nil {
			return fail(errors.Wrap(err, errors.ErrCodeInternalError, "failed to issue confirm token"))
		}

		return ok("Here is your confirm link — valid until the deadline.",
			map[string]interface{}{"confirmToken": token})
	}

	return fail(errors.New(errors.ErrCodeNotFound, "no such pending match for this user"))
}

// ConfirmMatchByToken executes a confirmation carried by a signed token.
func (t *Toolset) ConfirmMatchByToken(token string) Envelope {
	claims, err := security.ParseConfirmToken(token, t.tokenSecret)
	if err != nil {
		return fail(errors.Wrap(err, errors.ErrCodeExpired, "confirm link is invalid or expired"))
	}

	return t.ConfirmMatch(claims.MatchID, claims.UserID)
}

// MyStatus summarizes the user's open intents and pending matches.
func (t *Toolset) MyStatus(userID uint) Envelope {
	status, err := t.intents.GetUserStatus(userID)
	if err != nil {
		return fail(err)
	}

	return ok(t.renderStatus(userID, status), map[string]interface{}{
		"intents":        status.Intents,
		"pendingMatches": status.PendingMatches,
	})
}

// CancelIntent withdraws one of the caller's own intents.
func (t *Toolset) CancelIntent(intentID, userID uint) Envelope {
	if err := t.intents.CancelIntent(intentID, userID); err != nil {
		return fail(err)
	}

	return ok("Your request has been cancelled.", map[string]interface{}{
		"intentId": intentID,
	})
}

// GetMatchThread returns the message history of one of the caller's matches.
func (t *Toolset) GetMatchThread(matchID, userID uint) Envelope {
	messages, err := t.intents.GetMatchThread(matchID, userID)
	if err != nil {
		return fail(err)
	}

	return ok(fmt.Sprintf("%d messages in this match.", len(messages)),
		map[string]interface{}{"messages": messages})
}

// PostMatchMessage appends a user message to one of the caller's matches.
func (t *Toolset) PostMatchMessage(matchID, userID uint, content string) Envelope {
	if err := t.intents.PostMatchMessage(matchID, userID, content); err != nil {
		return fail(err)
	}

	return ok("Message sent.", nil)
}

func (t *Toolset) renderStatus(userID uint, status *services.UserStatus) string {
	var sb strings.Builder

	open := 0
	for _, intent := range status.Intents {
		if intent.Status != models.IntentStatusActive {
			continue
		}
		open++
		sb.WriteString(fmt.Sprintf("• Looking for %s partners", intent.ActivityType))
		if venue := t.resolvePOI(&intent); venue != "" {
			sb.WriteString(" near " + venue)
		} else if intent.LocationHint != "" {
			sb.WriteString(" near " + intent.LocationHint)
		}
		sb.WriteString(fmt.Sprintf(" (open until %s)\n", intent.ExpiresAt.Format("Jan 2 15:04")))
	}

	for _, match := range status.PendingMatches {
		sb.WriteString(fmt.Sprintf("• Match #%d (%s, %d people) waiting on confirmation",
			match.ID, match.ActivityType, match.MemberCount()))
		if match.TempOrganizerID == userID {
			sb.WriteString(" — you are the organizer, deadline " +
				match.ConfirmDeadline.Format("15:04"))
		}
		sb.WriteString("\n")
	}

	if open == 0 && len(status.PendingMatches) == 0 {
		return "No open requests or pending matches right now."
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (t *Toolset) resolvePOI(intent *models.PartnerIntent) string {
	if intent.POIPreference == "" || t.pois == nil {
		return ""
	}

	poi, err := t.pois.FindByNameNear(intent.POIPreference,
		intent.Latitude, intent.Longitude, 3)
	if err != nil || poi == nil {
		return ""
	}
	return poi.Name
}

func ok(message string, data interface{}) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func fail(err error) Envelope {
	message := "something went wrong, please try again"
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}

	return Envelope{
		Success: false,
		Code:    errors.Code(err),
		Message: message,
	}
}
