package models

import (
	"time"
)

// POI is a catalog venue used to resolve a free-text POI preference to a
// concrete place in chat summaries. The catalog is loaded from a
// spreadsheet by scripts/import_pois.
type POI struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;index"`
	Category  string    `gorm:"type:varchar(50);index"`
	Latitude  float64   `gorm:"type:float;not null"`
	Longitude float64   `gorm:"type:float;not null"`
	Address   string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (POI) TableName() string {
	return "pois"
}
