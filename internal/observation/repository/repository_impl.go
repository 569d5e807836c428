package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	obsdomain "github.com/statboard/statboard/internal/observation/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() obsdomain.Repository {
	return &repo{}
}

const obsColumns = `o.id, o.indicator_id, o.indicator_name, o.type_id, o.major_id, o.polarity, o.circle_id,
	o.district_id, o.district_name, o.stat_date, o.value, o.benchmark, o.challenge, o.exemption,
	o.zero_tolerance, o.score, o.created_at, o.updated_at`

const centerObsColumns = `o.id, o.indicator_id, o.indicator_name, o.type_id, o.major_id, o.polarity,
	o.center_id, o.center_name, o.stat_date, o.value, o.benchmark, o.challenge, o.score,
	o.created_at, o.updated_at`

// Sortable columns per table; anything outside the whitelist falls back
// to stat_date.
var obsSortColumns = map[string]string{
	"stat_date":    "o.stat_date",
	"value":        "o.value",
	"benchmark":    "o.benchmark",
	"challenge":    "o.challenge",
	"score":        "o.score",
	"district_id":  "o.district_id",
	"indicator_id": "o.indicator_id",
	"circle_id":    "o.circle_id",
	"created_at":   "o.created_at",
}

var centerSortColumns = map[string]string{
	"stat_date":    "o.stat_date",
	"value":        "o.value",
	"benchmark":    "o.benchmark",
	"challenge":    "o.challenge",
	"score":        "o.score",
	"center_id":    "o.center_id",
	"indicator_id": "o.indicator_id",
	"district_id":  "c.district_id",
	"created_at":   "o.created_at",
}

func orderClause(columns map[string]string, sort obsdomain.Sort) string {
	col, ok := columns[sort.Column]
	if !ok {
		col = "o.stat_date"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, indicatorID, districtID snowflake.ID, statDate datatypes.Date) (*obsdomain.Observation, error) {
	var obs obsdomain.Observation
	err := db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o
		 WHERE o.indicator_id = ? AND o.district_id = ? AND o.stat_date = ?`,
		indicatorID,
		districtID,
		statDate,
	).Scan(&obs).Error
	if err != nil {
		return nil, err
	}
	if obs.ID == 0 {
		return nil, nil
	}
	return &obs, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, obs *obsdomain.Observation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO observations (id, indicator_id, indicator_name, type_id, major_id, polarity, circle_id,
		 district_id, district_name, stat_date, value, benchmark, challenge, exemption, zero_tolerance, score,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID,
		obs.IndicatorID,
		obs.IndicatorName,
		obs.TypeID,
		obs.MajorID,
		obs.Polarity,
		obs.CircleID,
		obs.DistrictID,
		obs.DistrictName,
		obs.StatDate,
		obs.Value,
		obs.Benchmark,
		obs.Challenge,
		obs.Exemption,
		obs.ZeroTolerance,
		obs.Score,
		obs.CreatedAt,
		obs.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, obs *obsdomain.Observation) error {
	return db.WithContext(ctx).Exec(
		`UPDATE observations
		 SET indicator_name = ?, type_id = ?, major_id = ?, polarity = ?, circle_id = ?, district_name = ?,
		     value = ?, benchmark = ?, challenge = ?, exemption = ?, zero_tolerance = ?, score = ?, updated_at = ?
		 WHERE id = ?`,
		obs.IndicatorName,
		obs.TypeID,
		obs.MajorID,
		obs.Polarity,
		obs.CircleID,
		obs.DistrictName,
		obs.Value,
		obs.Benchmark,
		obs.Challenge,
		obs.Exemption,
		obs.ZeroTolerance,
		obs.Score,
		obs.UpdatedAt,
		obs.ID,
	).Error
}

func deletePredicate(filter obsdomain.DeleteFilter, locationColumn string) (string, []interface{}) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if len(filter.IDs) > 0 {
		where = append(where, `id IN ?`)
		args = append(args, filter.IDs)
	}
	if filter.IndicatorID != nil {
		where = append(where, `indicator_id = ?`)
		args = append(args, *filter.IndicatorID)
	}
	if filter.LocationID != nil {
		where = append(where, locationColumn+` = ?`)
		args = append(args, *filter.LocationID)
	}
	if filter.StartDate != nil {
		where = append(where, `stat_date >= ?`)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, `stat_date <= ?`)
		args = append(args, *filter.EndDate)
	}
	return strings.Join(where, " AND "), args
}

func (r *repo) DeleteWhere(ctx context.Context, db *gorm.DB, filter obsdomain.DeleteFilter) (int64, error) {
	clause, args := deletePredicate(filter, "district_id")
	tx := db.WithContext(ctx).Exec(`DELETE FROM observations WHERE `+clause, args...)
	return tx.RowsAffected, tx.Error
}

func queryPredicate(filter obsdomain.QueryFilter) (string, []interface{}) {
	where := []string{`i.status = 1`}
	args := make([]interface{}, 0, 8)
	if filter.IndicatorID != nil {
		where = append(where, `o.indicator_id = ?`)
		args = append(args, *filter.IndicatorID)
	}
	if len(filter.DistrictIDs) > 0 {
		where = append(where, `o.district_id IN ?`)
		args = append(args, filter.DistrictIDs)
	} else if filter.DistrictID != nil {
		where = append(where, `o.district_id = ?`)
		args = append(args, *filter.DistrictID)
	}
	if filter.DistrictName != nil {
		where = append(where, `o.district_name = ?`)
		args = append(args, *filter.DistrictName)
	}
	if filter.CircleID != nil {
		where = append(where, `o.circle_id = ?`)
		args = append(args, *filter.CircleID)
	}
	if filter.MajorID != nil {
		where = append(where, `i.major_id = ?`)
		args = append(args, *filter.MajorID)
	}
	if filter.TypeID != nil {
		where = append(where, `i.type_id = ?`)
		args = append(args, *filter.TypeID)
	}
	if filter.StartDate != nil {
		where = append(where, `o.stat_date >= ?`)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, `o.stat_date <= ?`)
		args = append(args, *filter.EndDate)
	}
	return strings.Join(where, " AND "), args
}

func (r *repo) Query(ctx context.Context, db *gorm.DB, filter obsdomain.QueryFilter, sort obsdomain.Sort, limit, offset int) ([]obsdomain.Observation, int64, error) {
	clause, args := queryPredicate(filter)

	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM observations o JOIN indicators i ON i.id = o.indicator_id WHERE `+clause,
		args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []obsdomain.Observation
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	err = db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o JOIN indicators i ON i.id = o.indicator_id
		 WHERE `+clause+orderClause(obsSortColumns, sort)+` LIMIT ? OFFSET ?`,
		listArgs...,
	).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) Series(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, districtID *snowflake.ID, startDate, endDate *datatypes.Date, limit int) ([]obsdomain.Observation, int64, error) {
	filter := obsdomain.QueryFilter{
		IndicatorID: &indicatorID,
		DistrictID:  districtID,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	clause, args := queryPredicate(filter)

	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM observations o JOIN indicators i ON i.id = o.indicator_id WHERE `+clause,
		args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []obsdomain.Observation
	listArgs := append(append([]interface{}{}, args...), limit)
	err = db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o JOIN indicators i ON i.id = o.indicator_id
		 WHERE `+clause+` ORDER BY o.stat_date ASC LIMIT ?`,
		listArgs...,
	).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Snapshot keeps only the newest row per (indicator, district) pair via
// a window-ranked subquery.
func (r *repo) Snapshot(ctx context.Context, db *gorm.DB, filter obsdomain.QueryFilter, sort obsdomain.Sort, limit, offset int) ([]obsdomain.Observation, int64, error) {
	clause, args := queryPredicate(filter)
	ranked := `SELECT ` + obsColumns + `,
		row_number() OVER (PARTITION BY o.indicator_id, o.district_id ORDER BY o.stat_date DESC) AS rn
		FROM observations o JOIN indicators i ON i.id = o.indicator_id WHERE ` + clause

	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM (`+ranked+`) ranked WHERE ranked.rn = 1`,
		args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	var rows []obsdomain.Observation
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	err = db.WithContext(ctx).Raw(
		`SELECT * FROM (`+ranked+`) ranked WHERE ranked.rn = 1
		 ORDER BY ranked.stat_date `+dir+` LIMIT ? OFFSET ?`,
		listArgs...,
	).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) LatestDateForDistrict(ctx context.Context, db *gorm.DB, districtID snowflake.ID) (*datatypes.Date, error) {
	return latestDate(ctx, db, `SELECT stat_date FROM observations WHERE district_id = ? ORDER BY stat_date DESC LIMIT 1`, districtID)
}

func (r *repo) ListByDistrictAndDate(ctx context.Context, db *gorm.DB, districtID snowflake.ID, statDate datatypes.Date) ([]obsdomain.Observation, error) {
	var rows []obsdomain.Observation
	err := db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o
		 WHERE o.district_id = ? AND o.stat_date = ?
		 ORDER BY o.indicator_name ASC`,
		districtID,
		statDate,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) LatestDateForIndicator(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID) (*datatypes.Date, error) {
	return latestDate(ctx, db, `SELECT stat_date FROM observations WHERE indicator_id = ? ORDER BY stat_date DESC LIMIT 1`, indicatorID)
}

func (r *repo) ListByIndicatorAndDate(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, statDate datatypes.Date) ([]obsdomain.Observation, error) {
	var rows []obsdomain.Observation
	err := db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o
		 WHERE o.indicator_id = ? AND o.stat_date = ?
		 ORDER BY o.district_id ASC`,
		indicatorID,
		statDate,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) LatestPerPair(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID) ([]obsdomain.Observation, error) {
	var rows []obsdomain.Observation
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM (
			SELECT `+obsColumns+`,
			row_number() OVER (PARTITION BY o.indicator_id, o.district_id ORDER BY o.stat_date DESC) AS rn
			FROM observations o WHERE o.indicator_id IN ?
		 ) ranked WHERE ranked.rn = 1`,
		indicatorIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListByIndicatorsAndDate(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID, statDate datatypes.Date) ([]obsdomain.Observation, error) {
	var rows []obsdomain.Observation
	err := db.WithContext(ctx).Raw(
		`SELECT `+obsColumns+` FROM observations o
		 WHERE o.indicator_id IN ? AND o.stat_date = ?`,
		indicatorIDs,
		statDate,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) LatestDateForIndicators(ctx context.Context, db *gorm.DB, indicatorIDs []snowflake.ID) (*datatypes.Date, error) {
	return latestDate(ctx, db, `SELECT stat_date FROM observations WHERE indicator_id IN ? ORDER BY stat_date DESC LIMIT 1`, indicatorIDs)
}

func (r *repo) FindCenterByKey(ctx context.Context, db *gorm.DB, indicatorID, centerID snowflake.ID, statDate datatypes.Date) (*obsdomain.CenterObservation, error) {
	var obs obsdomain.CenterObservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+centerObsColumns+` FROM center_observations o
		 WHERE o.indicator_id = ? AND o.center_id = ? AND o.stat_date = ?`,
		indicatorID,
		centerID,
		statDate,
	).Scan(&obs).Error
	if err != nil {
		return nil, err
	}
	if obs.ID == 0 {
		return nil, nil
	}
	return &obs, nil
}

func (r *repo) InsertCenter(ctx context.Context, db *gorm.DB, obs *obsdomain.CenterObservation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO center_observations (id, indicator_id, indicator_name, type_id, major_id, polarity,
		 center_id, center_name, stat_date, value, benchmark, challenge, score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID,
		obs.IndicatorID,
		obs.IndicatorName,
		obs.TypeID,
		obs.MajorID,
		obs.Polarity,
		obs.CenterID,
		obs.CenterName,
		obs.StatDate,
		obs.Value,
		obs.Benchmark,
		obs.Challenge,
		obs.Score,
		obs.CreatedAt,
		obs.UpdatedAt,
	).Error
}

func (r *repo) UpdateCenter(ctx context.Context, db *gorm.DB, obs *obsdomain.CenterObservation) error {
	return db.WithContext(ctx).Exec(
		`UPDATE center_observations
		 SET indicator_name = ?, type_id = ?, major_id = ?, polarity = ?, center_name = ?,
		     value = ?, benchmark = ?, challenge = ?, score = ?, updated_at = ?
		 WHERE id = ?`,
		obs.IndicatorName,
		obs.TypeID,
		obs.MajorID,
		obs.Polarity,
		obs.CenterName,
		obs.Value,
		obs.Benchmark,
		obs.Challenge,
		obs.Score,
		obs.UpdatedAt,
		obs.ID,
	).Error
}

func (r *repo) DeleteCenterWhere(ctx context.Context, db *gorm.DB, filter obsdomain.DeleteFilter) (int64, error) {
	clause, args := deletePredicate(filter, "center_id")
	tx := db.WithContext(ctx).Exec(`DELETE FROM center_observations WHERE `+clause, args...)
	return tx.RowsAffected, tx.Error
}

const centerJoin = ` FROM center_observations o
	JOIN centers c ON c.id = o.center_id
	LEFT JOIN districts d ON d.id = c.district_id
	JOIN indicators i ON i.id = o.indicator_id`

func centerQueryPredicate(filter obsdomain.CenterQueryFilter) (string, []interface{}) {
	where := []string{`i.status = 1`}
	args := make([]interface{}, 0, 8)
	if filter.IndicatorID != nil {
		where = append(where, `o.indicator_id = ?`)
		args = append(args, *filter.IndicatorID)
	}
	if filter.CenterID != nil {
		where = append(where, `o.center_id = ?`)
		args = append(args, *filter.CenterID)
	}
	if filter.DistrictID != nil {
		where = append(where, `c.district_id = ?`)
		args = append(args, *filter.DistrictID)
	}
	if filter.MajorID != nil {
		where = append(where, `i.major_id = ?`)
		args = append(args, *filter.MajorID)
	}
	if filter.TypeID != nil {
		where = append(where, `i.type_id = ?`)
		args = append(args, *filter.TypeID)
	}
	if filter.StartDate != nil {
		where = append(where, `o.stat_date >= ?`)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, `o.stat_date <= ?`)
		args = append(args, *filter.EndDate)
	}
	return strings.Join(where, " AND "), args
}

func (r *repo) QueryCenter(ctx context.Context, db *gorm.DB, filter obsdomain.CenterQueryFilter, sort obsdomain.Sort, limit, offset int) ([]obsdomain.CenterObservationRow, int64, error) {
	clause, args := centerQueryPredicate(filter)

	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*)`+centerJoin+` WHERE `+clause,
		args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []obsdomain.CenterObservationRow
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	err = db.WithContext(ctx).Raw(
		`SELECT `+centerObsColumns+`, c.district_id AS district_id, d.name AS district_name`+
			centerJoin+` WHERE `+clause+orderClause(centerSortColumns, sort)+` LIMIT ? OFFSET ?`,
		listArgs...,
	).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) SeriesCenter(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, centerID *snowflake.ID, startDate, endDate *datatypes.Date, limit int) ([]obsdomain.CenterObservationRow, int64, error) {
	filter := obsdomain.CenterQueryFilter{
		IndicatorID: &indicatorID,
		CenterID:    centerID,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	clause, args := centerQueryPredicate(filter)

	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*)`+centerJoin+` WHERE `+clause,
		args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []obsdomain.CenterObservationRow
	listArgs := append(append([]interface{}{}, args...), limit)
	err = db.WithContext(ctx).Raw(
		`SELECT `+centerObsColumns+`, c.district_id AS district_id, d.name AS district_name`+
			centerJoin+` WHERE `+clause+` ORDER BY o.stat_date ASC LIMIT ?`,
		listArgs...,
	).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) LatestDateForCenter(ctx context.Context, db *gorm.DB, centerID snowflake.ID) (*datatypes.Date, error) {
	return latestDate(ctx, db, `SELECT stat_date FROM center_observations WHERE center_id = ? ORDER BY stat_date DESC LIMIT 1`, centerID)
}

func (r *repo) ListByCenterAndDate(ctx context.Context, db *gorm.DB, centerID snowflake.ID, statDate datatypes.Date) ([]obsdomain.CenterObservation, error) {
	var rows []obsdomain.CenterObservation
	err := db.WithContext(ctx).Raw(
		`SELECT `+centerObsColumns+` FROM center_observations o
		 WHERE o.center_id = ? AND o.stat_date = ?
		 ORDER BY o.indicator_name ASC`,
		centerID,
		statDate,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) LatestCenterDateForIndicator(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, districtID *snowflake.ID) (*datatypes.Date, error) {
	if districtID == nil {
		return latestDate(ctx, db, `SELECT stat_date FROM center_observations WHERE indicator_id = ? ORDER BY stat_date DESC LIMIT 1`, indicatorID)
	}
	return latestDate(ctx, db,
		`SELECT o.stat_date FROM center_observations o JOIN centers c ON c.id = o.center_id
		 WHERE o.indicator_id = ? AND c.district_id = ? ORDER BY o.stat_date DESC LIMIT 1`,
		indicatorID, *districtID)
}

func (r *repo) ListCenterByIndicatorAndDate(ctx context.Context, db *gorm.DB, indicatorID snowflake.ID, statDate datatypes.Date, districtID *snowflake.ID) ([]obsdomain.CenterObservationRow, error) {
	where := `o.indicator_id = ? AND o.stat_date = ?`
	args := []interface{}{indicatorID, statDate}
	if districtID != nil {
		where += ` AND c.district_id = ?`
		args = append(args, *districtID)
	}
	var rows []obsdomain.CenterObservationRow
	err := db.WithContext(ctx).Raw(
		`SELECT `+centerObsColumns+`, c.district_id AS district_id, d.name AS district_name
		 FROM center_observations o
		 JOIN centers c ON c.id = o.center_id
		 LEFT JOIN districts d ON d.id = c.district_id
		 WHERE `+where+` ORDER BY o.center_id ASC`,
		args...,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// latestDate scans the newest stat_date produced by query, or nil when
// the table slice is empty.
func latestDate(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*datatypes.Date, error) {
	var rows []struct {
		StatDate datatypes.Date
	}
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].StatDate, nil
}
