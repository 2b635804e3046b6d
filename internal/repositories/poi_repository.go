package repositories

import (
	"github.com/mingleapp/mingle-server/internal/models"
	"github.com/mingleapp/mingle-server/pkg/errors"
	"gorm.io/gorm"
)

type POIRepository struct {
	db *gorm.DB
}

func NewPOIRepository(db *gorm.DB) *POIRepository {
	return &POIRepository{db: db}
}

// FindByNameNear resolves a free-text POI preference to the closest
// catalog venue matching the name, or nil if the catalog has no match
// within radiusKm.
func (r *POIRepository) FindByNameNear(name string, lat, lng, radiusKm float64) (*models.POI, error) {
	if name == "" {
		return nil, nil
	}

	type poiWithDistance struct {
		models.POI
		Dist float64 `gorm:"column:distance"`
	}
	var results []poiWithDistance

	query := `
		SELECT *, (
			6371 * acos(
				cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) +
				sin(radians(?)) * sin(radians(latitude))
			)
		) AS distance
		FROM pois
		WHERE name ILIKE ?
		ORDER BY distance ASC
		LIMIT 1
	`

	err := r.db.Raw(query, lat, lng, lat, "%"+name+"%").Scan(&results).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to search POIs")
	}

	if len(results) == 0 || results[0].Dist > radiusKm {
		return nil, nil
	}

	poi := results[0].POI
	return &poi, nil
}

// Upsert inserts or refreshes a catalog venue keyed by name.
func (r *POIRepository) Upsert(poi *models.POI) error {
	var existing models.POI
	result := r.db.Where("name = ?", poi.Name).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		if err := r.db.Create(poi).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create POI")
		}
		return nil
	}
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up POI")
	}

	poi.ID = existing.ID
	if err := r.db.Save(poi).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update POI")
	}
	return nil
}
