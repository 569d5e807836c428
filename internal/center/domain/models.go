package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Center is a support-center reporting location.
type Center struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	DistrictID snowflake.ID `json:"district_id" gorm:"column:district_id"`
	Name       string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_centers_name"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Center) TableName() string { return "centers" }
