package models

import (
	"time"
)

type Game struct {
	AppID     int64     `gorm:"primaryKey;autoIncrement:false" json:"app_id"`
	Name      string    `gorm:"type:text;not null;index" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null" json:"updated_at"`

	Metadata   *GameMetadata   `gorm:"foreignKey:AppID;references:AppID" json:"metadata,omitempty"`
	Storefront *StorefrontData `gorm:"foreignKey:AppID;references:AppID" json:"storefront,omitempty"`
}

func (Game) TableName() string {
	return "games"
}
