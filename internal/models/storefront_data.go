package models

import (
	"time"

	"gorm.io/datatypes"
)

// StorefrontData holds the richer presentation payload fetched from the
// Steam storefront appdetails endpoint. Same keying and fetch-bookkeeping
// discipline as GameMetadata.
type StorefrontData struct {
	AppID               int64          `gorm:"primaryKey;autoIncrement:false" json:"app_id"`
	ShortDescription    *string        `gorm:"type:text" json:"short_description"`
	DetailedDescription *string        `gorm:"type:text" json:"detailed_description"`
	IsFree              *bool          `json:"is_free"`
	RequiredAge         *int           `json:"required_age"`
	Website             *string        `gorm:"type:text" json:"website"`
	HeaderImage         *string        `gorm:"type:text" json:"header_image"`
	ReleaseDate         *string        `gorm:"type:text" json:"release_date"`
	Developers          datatypes.JSON `gorm:"type:jsonb" json:"developers"`
	Publishers          datatypes.JSON `gorm:"type:jsonb" json:"publishers"`
	Genres              datatypes.JSON `gorm:"type:jsonb" json:"genres"`
	Categories          datatypes.JSON `gorm:"type:jsonb" json:"categories"`
	SupportedLanguages  *string        `gorm:"type:text" json:"supported_languages"`
	PriceOverview       datatypes.JSON `gorm:"type:jsonb" json:"price_overview"`
	PCRequirements      datatypes.JSON `gorm:"type:jsonb" json:"pc_requirements"`
	Screenshots         datatypes.JSON `gorm:"type:jsonb" json:"screenshots"`
	Movies              datatypes.JSON `gorm:"type:jsonb" json:"movies"`
	LastUpdated         time.Time      `gorm:"type:timestamptz;not null" json:"last_updated"`
	FetchAttempts       int            `gorm:"not null;default:0" json:"fetch_attempts"`
	FetchStatus         string         `gorm:"type:text;not null;default:pending;index" json:"fetch_status"`
}

func (StorefrontData) TableName() string {
	return "storefront_data"
}
