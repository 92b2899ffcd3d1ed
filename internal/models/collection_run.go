package models

import (
	"time"

	"gorm.io/datatypes"
)

// CollectionRun records the outcome of the latest pipeline pass for one
// scope (listing, metadata, storefront, export).
type CollectionRun struct {
	Scope         string         `gorm:"primaryKey;type:text" json:"scope"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz" json:"last_attempt_at"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz" json:"last_success_at"`
	LastError     *string        `gorm:"type:text" json:"last_error"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb" json:"stats"`
}

func (CollectionRun) TableName() string {
	return "collection_runs"
}
