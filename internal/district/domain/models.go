package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// District is a reporting location for district-level observations.
type District struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	CircleID  snowflake.ID `json:"circle_id" gorm:"column:circle_id"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_districts_name"`
	ShortName string       `json:"short_name" gorm:"type:text;not null;default:''"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (District) TableName() string { return "districts" }
