package domain

import (
	"context"
	"errors"
)

type Service interface {
	// District observations.
	Create(ctx context.Context, req DataInput) (*Response, error)
	UpdateStrict(ctx context.Context, req DataInput) (*Response, error)
	Delete(ctx context.Context, req DeleteRequest) (int64, error)
	Query(ctx context.Context, req QueryRequest) (*QueryResult[Response], error)
	Series(ctx context.Context, req SeriesRequest) (*QueryResult[Response], error)
	Snapshot(ctx context.Context, req QueryRequest) (*QueryResult[Response], error)
	LatestByIndicator(ctx context.Context, req LatestRequest) ([]Response, error)
	ByDistrict(ctx context.Context, req LocationRequest) (*DistrictReport, error)
	ByMajor(ctx context.Context, req MatrixRequest) (*MatrixReport, error)
	ByType(ctx context.Context, req MatrixRequest) (*MatrixReport, error)

	// Center observations.
	CreateCenter(ctx context.Context, req CenterDataInput) (*CenterResponse, error)
	UpdateCenterStrict(ctx context.Context, req CenterDataInput) (*CenterResponse, error)
	DeleteCenter(ctx context.Context, req DeleteRequest) (int64, error)
	QueryCenter(ctx context.Context, req CenterQueryRequest) (*QueryResult[CenterResponse], error)
	SeriesCenter(ctx context.Context, req SeriesRequest) (*QueryResult[CenterResponse], error)
	LatestCenterByIndicator(ctx context.Context, req LatestRequest) ([]CenterLatestResponse, error)
	ByCenter(ctx context.Context, req LocationRequest) (*CenterReport, error)
}

// DataInput carries one district observation keyed by indicator,
// district and date. TypeID, when set, must agree with the indicator's
// own classification.
type DataInput struct {
	IndicatorID   string   `json:"indicator_id" binding:"required"`
	DistrictID    string   `json:"district_id" binding:"required"`
	StatDate      string   `json:"stat_date" binding:"required"`
	TypeID        string   `json:"type_id,omitempty"`
	Value         *float64 `json:"value"`
	Benchmark     *float64 `json:"benchmark"`
	Challenge     *float64 `json:"challenge"`
	Exemption     *float64 `json:"exemption"`
	ZeroTolerance *float64 `json:"zero_tolerance"`
	Score         *float64 `json:"score"`
}

type CenterDataInput struct {
	IndicatorID string   `json:"indicator_id" binding:"required"`
	CenterID    string   `json:"center_id" binding:"required"`
	StatDate    string   `json:"stat_date" binding:"required"`
	TypeID      string   `json:"type_id,omitempty"`
	Value       *float64 `json:"value"`
	Benchmark   *float64 `json:"benchmark"`
	Challenge   *float64 `json:"challenge"`
	Score       *float64 `json:"score"`
}

type DeleteRequest struct {
	IDs         []string `json:"ids,omitempty"`
	IndicatorID string   `json:"indicator_id,omitempty"`
	LocationID  string   `json:"location_id,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
}

type QueryRequest struct {
	IndicatorID  string
	DistrictID   string
	DistrictIDs  []string
	DistrictName string
	CircleID     *int64
	MajorID      string
	TypeID       string
	StartDate    string
	EndDate      string
	Page         int
	Size         int
	OrderBy      string
	Desc         bool
}

type CenterQueryRequest struct {
	IndicatorID string
	CenterID    string
	DistrictID  string
	MajorID     string
	TypeID      string
	StartDate   string
	EndDate     string
	Page        int
	Size        int
	OrderBy     string
	Desc        bool
}

type SeriesRequest struct {
	IndicatorID string
	LocationID  string
	StartDate   string
	EndDate     string
	Size        int
}

type LatestRequest struct {
	IndicatorID   string
	IndicatorName string
	StatDate      string
	DistrictID    string
}

type LocationRequest struct {
	ID       string
	Name     string
	StatDate string
}

// MatrixRequest selects indicators of one major or evaluation type and
// lays their latest (or dated) values out per district.
type MatrixRequest struct {
	ID           string
	Name         string
	DistrictID   string
	DistrictName string
	StatDate     string
}

type QueryResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type Response struct {
	ID            string   `json:"id"`
	IndicatorID   string   `json:"indicator_id"`
	IndicatorName string   `json:"indicator_name"`
	TypeID        string   `json:"type_id,omitempty"`
	MajorID       string   `json:"major_id,omitempty"`
	Polarity      int      `json:"polarity"`
	CircleID      int64    `json:"circle_id"`
	DistrictID    string   `json:"district_id"`
	DistrictName  string   `json:"district_name"`
	StatDate      string   `json:"stat_date"`
	Value         *float64 `json:"value"`
	Benchmark     *float64 `json:"benchmark"`
	Challenge     *float64 `json:"challenge"`
	Exemption     *float64 `json:"exemption"`
	ZeroTolerance *float64 `json:"zero_tolerance"`
	Score         *float64 `json:"score"`
}

type CenterResponse struct {
	ID            string   `json:"id"`
	IndicatorID   string   `json:"indicator_id"`
	IndicatorName string   `json:"indicator_name"`
	TypeID        string   `json:"type_id,omitempty"`
	MajorID       string   `json:"major_id,omitempty"`
	Polarity      int      `json:"polarity"`
	CenterID      string   `json:"center_id"`
	CenterName    string   `json:"center_name"`
	DistrictID    string   `json:"district_id,omitempty"`
	DistrictName  *string  `json:"district_name"`
	StatDate      string   `json:"stat_date"`
	Value         *float64 `json:"value"`
	Benchmark     *float64 `json:"benchmark"`
	Challenge     *float64 `json:"challenge"`
	Score         *float64 `json:"score"`
}

type CenterLatestResponse struct {
	IndicatorID   string   `json:"indicator_id"`
	IndicatorName string   `json:"indicator_name"`
	CenterID      string   `json:"center_id"`
	CenterName    string   `json:"center_name"`
	DistrictID    string   `json:"district_id,omitempty"`
	DistrictName  *string  `json:"district_name"`
	StatDate      string   `json:"stat_date"`
	Value         *float64 `json:"value"`
	Score         *float64 `json:"score"`
}

// DistrictReport is the compact one-location view.
type DistrictReport struct {
	DistrictID   string       `json:"district_id"`
	DistrictName string       `json:"district_name"`
	StatDate     string       `json:"stat_date"`
	Indicators   []ReportItem `json:"indicators"`
}

type CenterReport struct {
	CenterID     string       `json:"center_id"`
	CenterName   string       `json:"center_name"`
	DistrictID   string       `json:"district_id,omitempty"`
	DistrictName *string      `json:"district_name"`
	StatDate     string       `json:"stat_date"`
	Indicators   []ReportItem `json:"indicators"`
}

type ReportItem struct {
	IndicatorName string   `json:"indicator_name"`
	Value         *float64 `json:"value"`
	Benchmark     *float64 `json:"benchmark"`
	Challenge     *float64 `json:"challenge"`
	Exemption     *float64 `json:"exemption,omitempty"`
	ZeroTolerance *float64 `json:"zero_tolerance,omitempty"`
	Score         *float64 `json:"score"`
}

type MatrixReport struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	StatDate   string            `json:"stat_date"`
	Indicators []IndicatorSeries `json:"indicators"`
}

type IndicatorSeries struct {
	IndicatorID   string          `json:"indicator_id"`
	IndicatorName string          `json:"indicator_name"`
	Districts     []DistrictValue `json:"districts"`
}

type DistrictValue struct {
	DistrictID   string   `json:"district_id"`
	DistrictName string   `json:"district_name"`
	Value        *float64 `json:"value"`
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidDate       = errors.New("invalid_date")
	ErrTypeMismatch      = errors.New("type_mismatch")
	ErrMissingConstraint = errors.New("missing_constraint")
	ErrMissingSelector   = errors.New("missing_selector")
	ErrNoData            = errors.New("no_data")
)
