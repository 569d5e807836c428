package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueryFilter is the shared predicate for district observation reads.
// Nil members impose no constraint.
type QueryFilter struct {
	IndicatorID  *snowflake.ID
	DistrictID   *snowflake.ID
	DistrictIDs  []snowflake.ID
	DistrictName *string
	CircleID     *int64
	MajorID      *snowflake.ID
	TypeID       *snowflake.ID
	StartDate    *datatypes.Date
	EndDate      *datatypes.Date
}

type CenterQueryFilter struct {
	IndicatorID *snowflake.ID
	CenterID    *snowflake.ID
	DistrictID  *snowflake.ID
	MajorID     *snowflake.ID
	TypeID      *snowflake.ID
	StartDate   *datatypes.Date
	EndDate     *datatypes.Date
}

type Sort struct {
	Column string
	Desc   bool
}

// DeleteFilter selects rows by explicit ids or by key components; at
// least one member must be set.
type DeleteFilter struct {
	IDs         []snowflake.ID
	IndicatorID *snowflake.ID
	LocationID  *snowflake.ID
	StartDate   *datatypes.Date
	EndDate     *datatypes.Date
}

func (f DeleteFilter) Empty() bool {
	return len(f.IDs) == 0 && f.IndicatorID == nil && f.LocationID == nil &&
		f.StartDate == nil && f.EndDate == nil
}

type Repository interface {
	// District observations.
	FindByKey(ctx context.Context, db *gorm.DB, indicatorID, districtID snowflake.ID, statDate datatypes.Date) (*Observation, error)
	Insert(ctx context.Context, db *gorm.DB, obs *Observation) error
	Update(ctx context.Context, db *gorm.DB, obs *Observation) error
	DeleteWhere(ctx context.Context, db *gorm.DB, filter DeleteFilter) (int64, error)
	Query(ctx context.Context, db *gorm.DB, filter QueryFilter, sort Sort, limit, offset int) ([]Observation, int64, error)
	Series(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, districtID *snowflake.ID, startDate, endDate *datatypes.Date, limit int) ([]Observation, int64, error)
	Snapshot(ctx context.Context, db *gorm.DB, filter QueryFilter, sort Sort, limit, offset int) ([]Observation, int64, error)
	LatestDateForDistrict(ctx context.Context, db *gorm.DB, districtID snowflake.ID) (*datatypes.Date, error)
	ListByDistrictAndDate(ctx context.Context, db *gorm.DB, districtID snowflake.ID, statDate datatypes.Date) ([]Observation, error)
	LatestDateForIndicator(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID) (*datatypes.Date, error)
	ListByIndicatorAndDate(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, statDate datatypes.Date) ([]Observation, error)
	LatestPerPair(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID) ([]Observation, error)
	ListByIndicatorsAndDate(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID, statDate datatypes.Date) ([]Observation, error)
	LatestDateForIndicators(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID) (*datatypes.Date, error)

	// Center observations.
	FindCenterByKey(ctx context.Context, db *gorm.DB, indicatorID, centerID snowflake.ID, statDate datatypes.Date) (*CenterObservation, error)
	InsertCenter(ctx context.Context, db *gorm.DB, obs *CenterObservation) error
	UpdateCenter(ctx context.Context, db *gorm.DB, obs *CenterObservation) error
	DeleteCenterWhere(ctx context.Context, db *gorm.DB, filter DeleteFilter) (int64, error)
	QueryCenter(ctx context.Context, db *gorm.DB, filter CenterQueryFilter, sort Sort, limit, offset int) ([]CenterObservationRow, int64, error)
	SeriesCenter(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, centerID *snowflake.ID, startDate, endDate *datatypes.Date, limit int) ([]CenterObservationRow, int64, error)
	LatestDateForCenter(ctx context.Context, db *gorm.DB, centerID snowflake.ID) (*datatypes.Date, error)
	ListByCenterAndDate(ctx context.Context, db *gorm.DB, centerID snowflake.ID, statDate datatypes.Date) ([]CenterObservation, error)
	LatestCenterDateForIndicator(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, districtID *snowflake.ID) (*datatypes.Date, error)
	ListCenterByIndicatorAndDate(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, statDate datatypes.Date, districtID *snowflake.ID) ([]CenterObservationRow, error)
}
