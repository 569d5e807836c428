package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Observation is one district-scoped indicator datum, unique per
// (indicator_id, district_id, stat_date). Indicator name, polarity and
// classification are denormalized at write time.
type Observation struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	IndicatorID   snowflake.ID   `json:"indicator_id" gorm:"column:indicator_id"`
	IndicatorName string         `json:"indicator_name" gorm:"type:text;not null"`
	TypeID        snowflake.ID   `json:"type_id" gorm:"column:type_id"`
	MajorID       snowflake.ID   `json:"major_id" gorm:"column:major_id"`
	Polarity      int            `json:"polarity" gorm:"not null;default:1"`
	CircleID      int64          `json:"circle_id" gorm:"column:circle_id"`
	DistrictID    snowflake.ID   `json:"district_id" gorm:"column:district_id"`
	DistrictName  string         `json:"district_name" gorm:"type:text;not null"`
	StatDate      datatypes.Date `json:"stat_date" gorm:"type:date;not null"`
	Value         *float64       `json:"value"`
	Benchmark     *float64       `json:"benchmark"`
	Challenge     *float64       `json:"challenge"`
	Exemption     *float64       `json:"exemption"`
	ZeroTolerance *float64       `json:"zero_tolerance"`
	Score         *float64       `json:"score"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Observation) TableName() string { return "observations" }

// CenterObservation mirrors Observation for support centers, unique per
// (indicator_id, center_id, stat_date).
type CenterObservation struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	IndicatorID   snowflake.ID   `json:"indicator_id" gorm:"column:indicator_id"`
	IndicatorName string         `json:"indicator_name" gorm:"type:text;not null"`
	TypeID        snowflake.ID   `json:"type_id" gorm:"column:type_id"`
	MajorID       snowflake.ID   `json:"major_id" gorm:"column:major_id"`
	Polarity      int            `json:"polarity" gorm:"not null;default:1"`
	CenterID      snowflake.ID   `json:"center_id" gorm:"column:center_id"`
	CenterName    string         `json:"center_name" gorm:"type:text;not null"`
	StatDate      datatypes.Date `json:"stat_date" gorm:"type:date;not null"`
	Value         *float64       `json:"value"`
	Benchmark     *float64       `json:"benchmark"`
	Challenge     *float64       `json:"challenge"`
	Score         *float64       `json:"score"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CenterObservation) TableName() string { return "center_observations" }

// CenterObservationRow joins a center observation with its center's
// district for query responses.
type CenterObservationRow struct {
	CenterObservation
	DistrictID   snowflake.ID `json:"district_id" gorm:"column:district_id"`
	DistrictName *string      `json:"district_name" gorm:"column:district_name"`
}

const dateLayout = "2006-01-02"

// ParseDate accepts the canonical YYYY-MM-DD form.
func ParseDate(raw string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return datatypes.Date{}, ErrInvalidDate
	}
	return datatypes.Date(t), nil
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(dateLayout)
}
