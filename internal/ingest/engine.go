package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	evaldomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	obsdomain "github.com/statboard/statboard/internal/observation/domain"
	pkgdb "github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mode selects which observation table a bulk upload targets.
type Mode int

const (
	ModeDistrict Mode = iota
	ModeCenter
)

// MaxReportedErrors bounds how many row errors a rejected batch surfaces.
const MaxReportedErrors = 10

// Row is one upload row keyed by canonical field name, as produced by
// the excel codec.
type Row map[string]string

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type Result struct {
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	RowCount int        `json:"row_count"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Failed reports whether the batch was rejected. A failed batch is
// never partially applied.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Obs        obsdomain.Repository
	Indicators indicatordomain.Repository
	Districts  districtdomain.Repository
	Centers    centerdomain.Repository
	Majors     majordomain.Repository
	Types      evaldomain.Repository
}

// Engine validates and commits bulk uploads. Every batch is
// all-or-nothing: a single bad row rejects the whole file.
type Engine struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	obs        obsdomain.Repository
	indicators indicatordomain.Repository
	districts  districtdomain.Repository
	centers    centerdomain.Repository
	majors     majordomain.Repository
	types      evaldomain.Repository
}

func New(p Params) *Engine {
	return &Engine{
		db:         p.DB,
		log:        p.Log.Named("ingest.engine"),
		genID:      p.GenID,
		obs:        p.Obs,
		indicators: p.Indicators,
		districts:  p.Districts,
		centers:    p.Centers,
		majors:     p.Majors,
		types:      p.Types,
	}
}

type lookup struct {
	indicators map[string]*indicatordomain.Indicator
	districts  map[string]*districtdomain.District
	centers    map[string]*centerdomain.Center
	typesByNm  map[string]snowflake.ID
	majorsByNm map[string]snowflake.ID
}

func (e *Engine) loadLookup(ctx context.Context, mode Mode) (*lookup, error) {
	lk := &lookup{
		indicators: map[string]*indicatordomain.Indicator{},
		districts:  map[string]*districtdomain.District{},
		centers:    map[string]*centerdomain.Center{},
		typesByNm:  map[string]snowflake.ID{},
		majorsByNm: map[string]snowflake.ID{},
	}

	indicators, err := e.indicators.ListAll(ctx, e.db)
	if err != nil {
		return nil, err
	}
	for i := range indicators {
		lk.indicators[indicators[i].Name] = &indicators[i]
	}

	switch mode {
	case ModeCenter:
		centers, err := e.centers.List(ctx, e.db, nil)
		if err != nil {
			return nil, err
		}
		for i := range centers {
			lk.centers[centers[i].Name] = &centers[i]
		}
	default:
		districts, err := e.districts.List(ctx, e.db)
		if err != nil {
			return nil, err
		}
		// Uploads may name a district by either its canonical or its
		// short form.
		for i := range districts {
			lk.districts[districts[i].Name] = &districts[i]
			if districts[i].ShortName != "" {
				lk.districts[districts[i].ShortName] = &districts[i]
			}
		}
	}

	types, _, err := e.types.List(ctx, e.db, "", 10000, 0)
	if err != nil {
		return nil, err
	}
	for i := range types {
		lk.typesByNm[types[i].Name] = types[i].ID
	}

	majors, _, err := e.majors.List(ctx, e.db, "", 10000, 0)
	if err != nil {
		return nil, err
	}
	for i := range majors {
		lk.majorsByNm[majors[i].Name] = majors[i].ID
	}
	return lk, nil
}

// stagedObs is one validated upload row ready to commit.
type stagedObs struct {
	indicator *indicatordomain.Indicator
	district  *districtdomain.District
	center    *centerdomain.Center
	typeID    snowflake.ID
	statDate  datatypes.Date

	value         *float64
	benchmark     *float64
	challenge     *float64
	exemption     *float64
	zeroTolerance *float64
	score         *float64
}

type obsKey struct {
	indicatorID snowflake.ID
	locationID  snowflake.ID
	statDate    string
}

// IngestObservations validates every row, then commits the batch in one
// transaction. Duplicate keys inside a batch collapse to the last row.
func (e *Engine) IngestObservations(ctx context.Context, rows []Row, mode Mode) (*Result, error) {
	result := &Result{RowCount: len(rows)}

	lk, err := e.loadLookup(ctx, mode)
	if err != nil {
		return nil, err
	}

	staged := map[obsKey]*stagedObs{}
	order := []obsKey{}
	for i, row := range rows {
		rowNum := i + 1
		st, rerr := e.validateObservationRow(row, rowNum, mode, lk)
		if rerr != nil {
			result.Errors = append(result.Errors, *rerr)
			continue
		}
		key := obsKey{
			indicatorID: st.indicator.ID,
			statDate:    obsdomain.FormatDate(st.statDate),
		}
		if mode == ModeCenter {
			key.locationID = st.center.ID
		} else {
			key.locationID = st.district.ID
		}
		if _, dup := staged[key]; !dup {
			order = append(order, key)
		}
		staged[key] = st
	}

	if result.Failed() {
		if len(result.Errors) > MaxReportedErrors {
			result.Errors = result.Errors[:MaxReportedErrors]
		}
		return result, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range order {
			st := staged[key]
			created, err := e.commitStaged(ctx, tx, st, mode)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) validateObservationRow(row Row, rowNum int, mode Mode, lk *lookup) (*stagedObs, *RowError) {
	st := &stagedObs{}

	name := strings.TrimSpace(row["indicator_name"])
	indicator, ok := lk.indicators[name]
	if !ok {
		return nil, rowError(rowNum, "Indicator '%s' not found", name)
	}
	st.indicator = indicator

	if mode == ModeCenter {
		centerName := strings.TrimSpace(row["center_name"])
		center, ok := lk.centers[centerName]
		if !ok {
			return nil, rowError(rowNum, "Center '%s' not found", centerName)
		}
		st.center = center
	} else {
		districtName := strings.TrimSpace(row["district_name"])
		district, ok := lk.districts[districtName]
		if !ok {
			return nil, rowError(rowNum, "District '%s' not found", districtName)
		}
		st.district = district
	}

	var override snowflake.ID
	if raw := strings.TrimSpace(row["type_id"]); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, rowError(rowNum, "Invalid type_id value")
		}
		override = id
	} else if typeName := strings.TrimSpace(row["type_name"]); typeName != "" {
		id, ok := lk.typesByNm[typeName]
		if !ok {
			return nil, rowError(rowNum, "Evaluation type '%s' not found", typeName)
		}
		override = id
	}
	if override != 0 && indicator.TypeID != 0 && override != indicator.TypeID {
		return nil, rowError(rowNum, "type_id mismatch with indicator definition")
	}
	if override != 0 {
		st.typeID = override
	} else {
		st.typeID = indicator.TypeID
	}

	statDate, err := parseUploadDate(row["stat_date"])
	if err != nil {
		return nil, rowError(rowNum, "Invalid stat_date value")
	}
	st.statDate = statDate

	for _, col := range []struct {
		name string
		dst  **float64
	}{
		{"value", &st.value},
		{"benchmark", &st.benchmark},
		{"challenge", &st.challenge},
		{"exemption", &st.exemption},
		{"zero_tolerance", &st.zeroTolerance},
		{"score", &st.score},
	} {
		v, err := parseFloat(row[col.name])
		if err != nil {
			return nil, rowError(rowNum, "Invalid %s value", col.name)
		}
		*col.dst = v
	}
	return st, nil
}

func (e *Engine) commitStaged(ctx context.Context, tx *gorm.DB, st *stagedObs, mode Mode) (bool, error) {
	now := time.Now().UTC()
	if mode == ModeCenter {
		existing, err := e.obs.FindCenterByKey(ctx, tx, st.indicator.ID, st.center.ID, st.statDate)
		if err != nil {
			return false, err
		}
		if existing == nil {
			// The insert runs under a savepoint so a key collision
			// does not abort the surrounding batch transaction.
			insertErr := tx.Transaction(func(inner *gorm.DB) error {
				return e.obs.InsertCenter(ctx, inner, &obsdomain.CenterObservation{
					ID:            e.genID.Generate(),
					IndicatorID:   st.indicator.ID,
					IndicatorName: st.indicator.Name,
					TypeID:        st.typeID,
					MajorID:       st.indicator.MajorID,
					Polarity:      st.indicator.Polarity,
					CenterID:      st.center.ID,
					CenterName:    st.center.Name,
					StatDate:      st.statDate,
					Value:         st.value,
					Benchmark:     st.benchmark,
					Challenge:     st.challenge,
					Score:         st.score,
					CreatedAt:     now,
					UpdatedAt:     now,
				})
			})
			if insertErr == nil {
				return true, nil
			}
			if !pkgdb.IsDuplicateKeyErr(insertErr) {
				return false, insertErr
			}
			// A concurrent upload claimed the key; update the row
			// that won instead of failing the batch.
			existing, err = e.obs.FindCenterByKey(ctx, tx, st.indicator.ID, st.center.ID, st.statDate)
			if err != nil {
				return false, err
			}
			if existing == nil {
				return false, insertErr
			}
		}
		existing.Value = st.value
		existing.Benchmark = st.benchmark
		existing.Challenge = st.challenge
		if st.score != nil {
			existing.Score = st.score
		}
		if existing.TypeID == 0 {
			existing.TypeID = st.typeID
		}
		if existing.MajorID == 0 {
			existing.MajorID = st.indicator.MajorID
		}
		existing.UpdatedAt = now
		return false, e.obs.UpdateCenter(ctx, tx, existing)
	}

	existing, err := e.obs.FindByKey(ctx, tx, st.indicator.ID, st.district.ID, st.statDate)
	if err != nil {
		return false, err
	}
	if existing == nil {
		insertErr := tx.Transaction(func(inner *gorm.DB) error {
			return e.obs.Insert(ctx, inner, &obsdomain.Observation{
				ID:            e.genID.Generate(),
				IndicatorID:   st.indicator.ID,
				IndicatorName: st.indicator.Name,
				TypeID:        st.typeID,
				MajorID:       st.indicator.MajorID,
				Polarity:      st.indicator.Polarity,
				CircleID:      int64(st.district.CircleID),
				DistrictID:    st.district.ID,
				DistrictName:  st.district.Name,
				StatDate:      st.statDate,
				Value:         st.value,
				Benchmark:     st.benchmark,
				Challenge:     st.challenge,
				Exemption:     st.exemption,
				ZeroTolerance: st.zeroTolerance,
				Score:         st.score,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		})
		if insertErr == nil {
			return true, nil
		}
		if !pkgdb.IsDuplicateKeyErr(insertErr) {
			return false, insertErr
		}
		existing, err = e.obs.FindByKey(ctx, tx, st.indicator.ID, st.district.ID, st.statDate)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, insertErr
		}
	}
	existing.Value = st.value
	existing.Benchmark = st.benchmark
	existing.Challenge = st.challenge
	existing.Exemption = st.exemption
	existing.ZeroTolerance = st.zeroTolerance
	if st.score != nil {
		existing.Score = st.score
	}
	if existing.TypeID == 0 {
		existing.TypeID = st.typeID
	}
	if existing.MajorID == 0 {
		existing.MajorID = st.indicator.MajorID
	}
	existing.UpdatedAt = now
	return false, e.obs.Update(ctx, tx, existing)
}

type stagedIndicator struct {
	name        string
	unit        *string
	majorID     snowflake.ID
	typeID      snowflake.ID
	polarity    int
	description *string
}

type indicatorKey struct {
	name    string
	majorID snowflake.ID
	typeID  snowflake.ID
}

// IngestIndicators bulk-upserts indicator definitions keyed by
// (name, major, type), with the same all-or-nothing discipline as the
// observation path.
func (e *Engine) IngestIndicators(ctx context.Context, rows []Row) (*Result, error) {
	result := &Result{RowCount: len(rows)}

	lk, err := e.loadLookup(ctx, ModeDistrict)
	if err != nil {
		return nil, err
	}

	staged := map[indicatorKey]*stagedIndicator{}
	order := []indicatorKey{}
	for i, row := range rows {
		rowNum := i + 1
		st, rerr := e.validateIndicatorRow(row, rowNum, lk)
		if rerr != nil {
			result.Errors = append(result.Errors, *rerr)
			continue
		}
		key := indicatorKey{name: st.name, majorID: st.majorID, typeID: st.typeID}
		if _, dup := staged[key]; !dup {
			order = append(order, key)
		}
		staged[key] = st
	}

	if result.Failed() {
		if len(result.Errors) > MaxReportedErrors {
			result.Errors = result.Errors[:MaxReportedErrors]
		}
		return result, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, key := range order {
			st := staged[key]
			existing, err := e.indicators.FindByKey(ctx, tx, st.name, st.majorID, st.typeID)
			if err != nil {
				return err
			}
			if existing == nil {
				insertErr := tx.Transaction(func(inner *gorm.DB) error {
					return e.indicators.Insert(ctx, inner, &indicatordomain.Indicator{
						ID:          e.genID.Generate(),
						Name:        st.name,
						Unit:        st.unit,
						MajorID:     st.majorID,
						TypeID:      st.typeID,
						Polarity:    st.polarity,
						Description: st.description,
						Status:      indicatordomain.StatusActive,
						Version:     1,
						CreatedAt:   now,
						UpdatedAt:   now,
					})
				})
				if insertErr == nil {
					result.Created++
					continue
				}
				if !pkgdb.IsDuplicateKeyErr(insertErr) {
					return insertErr
				}
				existing, err = e.indicators.FindByKey(ctx, tx, st.name, st.majorID, st.typeID)
				if err != nil {
					return err
				}
				if existing == nil {
					return insertErr
				}
			}
			existing.Unit = st.unit
			existing.Polarity = st.polarity
			existing.Description = st.description
			existing.Version++
			existing.UpdatedAt = now
			if err := e.indicators.Update(ctx, tx, existing); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) validateIndicatorRow(row Row, rowNum int, lk *lookup) (*stagedIndicator, *RowError) {
	st := &stagedIndicator{}

	st.name = strings.TrimSpace(row["indicator_name"])
	if st.name == "" {
		return nil, rowError(rowNum, "indicator_name is required")
	}

	if raw := strings.TrimSpace(row["major_id"]); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, rowError(rowNum, "invalid major_id")
		}
		st.majorID = id
	} else if majorName := strings.TrimSpace(row["major_name"]); majorName != "" {
		id, ok := lk.majorsByNm[majorName]
		if !ok {
			return nil, rowError(rowNum, "major not resolved")
		}
		st.majorID = id
	}

	if raw := strings.TrimSpace(row["type_id"]); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, rowError(rowNum, "invalid type_id")
		}
		st.typeID = id
	} else if typeName := strings.TrimSpace(row["type_name"]); typeName != "" {
		id, ok := lk.typesByNm[typeName]
		if !ok {
			return nil, rowError(rowNum, "type not resolved")
		}
		st.typeID = id
	}

	polarity, err := parsePolarity(row["is_positive"])
	if err != nil {
		return nil, rowError(rowNum, "is_positive required")
	}
	st.polarity = polarity

	if unit := strings.TrimSpace(row["unit"]); unit != "" {
		st.unit = &unit
	}
	if desc := strings.TrimSpace(row["description"]); desc != "" {
		st.description = &desc
	}
	return st, nil
}

func rowError(rowNum int, format string, args ...any) *RowError {
	return &RowError{Row: rowNum, Message: fmt.Sprintf("Row %d: ", rowNum) + fmt.Sprintf(format, args...)}
}

func parseUploadDate(raw string) (datatypes.Date, error) {
	return obsdomain.ParseDate(strings.TrimSpace(raw))
}

func parseFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parsePolarity(raw string) (int, error) {
	switch strings.TrimSpace(raw) {
	case "1", "是", "true", "TRUE", "True":
		return indicatordomain.PolarityHigherBetter, nil
	case "0", "否", "false", "FALSE", "False":
		return indicatordomain.PolarityLowerBetter, nil
	case "2":
		return indicatordomain.PolarityNeutral, nil
	default:
		return 0, fmt.Errorf("unrecognized polarity %q", raw)
	}
}
