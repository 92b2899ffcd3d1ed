package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameMetadata holds the per-title statistics fetched from SteamSpy.
// One row per game, upserted on every fetch attempt so partial failures
// stay visible and re-fetchable.
type GameMetadata struct {
	AppID                  int64          `gorm:"primaryKey;autoIncrement:false" json:"app_id"`
	Developer              *string        `gorm:"type:text" json:"developer"`
	Publisher              *string        `gorm:"type:text" json:"publisher"`
	OwnersEstimate         *string        `gorm:"type:text;index" json:"owners_estimate"`
	PositiveReviews        *int           `json:"positive_reviews"`
	NegativeReviews        *int           `json:"negative_reviews"`
	ScoreRank              *int           `gorm:"index" json:"score_rank"`
	AveragePlaytimeForever *int           `gorm:"column:average_playtime_forever" json:"average_playtime_forever"`
	AveragePlaytime2Weeks  *int           `gorm:"column:average_playtime_2weeks" json:"average_playtime_2weeks"`
	Price                  *string        `gorm:"type:text" json:"price"`
	Genre                  *string        `gorm:"type:text" json:"genre"`
	Languages              *string        `gorm:"type:text" json:"languages"`
	Tags                   datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	LastUpdated            time.Time      `gorm:"type:timestamptz;not null" json:"last_updated"`
	FetchAttempts          int            `gorm:"not null;default:0" json:"fetch_attempts"`
	FetchStatus            string         `gorm:"type:text;not null;default:pending;index" json:"fetch_status"`
}

func (GameMetadata) TableName() string {
	return "game_metadata"
}
