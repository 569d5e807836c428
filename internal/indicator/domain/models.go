package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Polarity encodes how raw values rank: higher-is-better, lower-is-better
// or neutral.
const (
	PolarityLowerBetter  = 0
	PolarityHigherBetter = 1
	PolarityNeutral      = 2
)

const (
	StatusActive   = 1
	StatusDisabled = 0
)

// Indicator is a tracked KPI definition.
type Indicator struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null;index:ix_indicators_name"`
	Unit        *string      `json:"unit" gorm:"type:text"`
	MajorID     snowflake.ID `json:"major_id" gorm:"column:major_id"`
	TypeID      snowflake.ID `json:"type_id" gorm:"column:type_id"`
	Polarity    int          `json:"polarity" gorm:"not null;default:1"`
	DataOwner   *string      `json:"data_owner" gorm:"type:text"`
	DataDept    *string      `json:"data_dept" gorm:"type:text"`
	Description *string      `json:"description" gorm:"type:text"`
	Status      int          `json:"status" gorm:"not null;default:1"`
	Version     int          `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Indicator) TableName() string { return "indicators" }
