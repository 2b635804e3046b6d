package repositories

import (
	"time"

	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"gorm.io/gorm"
)

type IntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// Create persists a new intent. The caller is responsible for the
// duplicate-active check and for stamping ExpiresAt.
func (r *IntentRepository) Create(intent *models.PartnerIntent) error {
	if err := r.db.Create(intent).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create intent")
	}
	return nil
}

func (r *IntentRepository) GetByID(id uint) (*models.PartnerIntent, error) {
	var intent models.PartnerIntent
	result := r.db.First(&intent, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "intent not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get intent")
	}

	return &intent, nil
}

func (r *IntentRepository) GetByIDs(ids []uint) ([]models.PartnerIntent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var intents []models.PartnerIntent
	if err := r.db.Where("id IN ?", ids).Find(&intents).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get intents")
	}
	return intents, nil
}

// FindActiveByUserAndType returns the user's active intent of the given
// activity type, or nil if none exists.
func (r *IntentRepository) FindActiveByUserAndType(userID uint, activityType string) (*models.PartnerIntent, error) {
	var intent models.PartnerIntent
	result := r.db.Where("user_id = ? AND activity_type = ? AND status = ?",
		userID, activityType, models.IntentStatusActive).
		First(&intent)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up active intent")
	}

	return &intent, nil
}

// FindCandidatesNear returns active intents of the given activity type
// within radiusKm of the point, excluding the given user, ordered oldest
// first. Distance is computed in SQL with the haversine formula; Postgres
// is the geospatial store.
func (r *IntentRepository) FindCandidatesNear(activityType string, lat, lng, radiusKm float64, excludeUserID uint) ([]models.PartnerIntent, error) {
	type intentWithDistance struct {
		models.PartnerIntent
		Dist float64 `gorm:"column:distance"`
	}
	var results []intentWithDistance

	// 6371 is the Earth radius in km
	query := `
		SELECT *, (
			6371 * acos(
				cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) +
				sin(radians(?)) * sin(radians(latitude))
			)
		) AS distance
		FROM partner_intents
		WHERE activity_type = ?
		AND status = ?
		AND user_id != ?
		AND (
			6371 * acos(
				cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) +
				sin(radians(?)) * sin(radians(latitude))
			)
		) <= ?
		ORDER BY created_at ASC
	`

	err := r.db.Raw(query,
		lat, lng, lat,
		activityType, models.IntentStatusActive, excludeUserID,
		lat, lng, lat, radiusKm,
	).Scan(&results).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find candidate intents")
	}

	intents := make([]models.PartnerIntent, len(results))
	for i, row := range results {
		intents[i] = row.PartnerIntent
		intents[i].Distance = row.Dist
	}

	return intents, nil
}

// UpdateStatus transitions one intent to the given status.
func (r *IntentRepository) UpdateStatus(id uint, status string) error {
	result := r.db.Model(&models.PartnerIntent{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update intent status")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "intent not found")
	}

	return nil
}

// ExpireOlderThan flips every active intent whose ExpiresAt has passed to
// expired and returns how many rows changed. Idempotent: re-running it
// matches nothing new.
func (r *IntentRepository) ExpireOlderThan(now time.Time) (int64, error) {
	result := r.db.Model(&models.PartnerIntent{}).
		Where("status = ? AND expires_at < ?", models.IntentStatusActive, now).
		Update("status", models.IntentStatusExpired)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to expire intents")
	}

	return result.RowsAffected, nil
}

// RestoreToActive puts the given intents back into the matching pool,
// skipping any that have independently expired or were cancelled.
func (r *IntentRepository) RestoreToActive(ids []uint, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.Model(&models.PartnerIntent{}).
		Where("id IN ? AND expires_at > ? AND status != ?",
			ids, now, models.IntentStatusCancelled).
		Update("status", models.IntentStatusActive)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to restore intents")
	}

	return result.RowsAffected, nil
}

// ListByUser returns the user's intents, newest first.
func (r *IntentRepository) ListByUser(userID uint) ([]models.PartnerIntent, error) {
	var intents []models.PartnerIntent
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&intents).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list intents")
	}

	return intents, nil
}
