package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	centerrepo "github.com/statboard/statboard/internal/center/repository"
	districtrepo "github.com/statboard/statboard/internal/district/repository"
	evalrepo "github.com/statboard/statboard/internal/evaluationtype/repository"
	indicatorrepo "github.com/statboard/statboard/internal/indicator/repository"
	majorrepo "github.com/statboard/statboard/internal/major/repository"
	obsdomain "github.com/statboard/statboard/internal/observation/domain"
	"github.com/statboard/statboard/internal/observation/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS indicators (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			unit TEXT,
			major_id INTEGER,
			type_id INTEGER,
			polarity INTEGER NOT NULL DEFAULT 1,
			data_owner TEXT,
			data_dept TEXT,
			description TEXT,
			status INTEGER NOT NULL DEFAULT 1,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS districts (
			id INTEGER PRIMARY KEY,
			circle_id INTEGER,
			name TEXT NOT NULL,
			short_name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS centers (
			id INTEGER PRIMARY KEY,
			district_id INTEGER,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS majors (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS evaluation_types (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY,
			indicator_id INTEGER NOT NULL,
			indicator_name TEXT NOT NULL,
			type_id INTEGER,
			major_id INTEGER,
			polarity INTEGER NOT NULL DEFAULT 1,
			circle_id INTEGER,
			district_id INTEGER NOT NULL,
			district_name TEXT NOT NULL,
			stat_date DATE NOT NULL,
			value REAL,
			benchmark REAL,
			challenge REAL,
			exemption REAL,
			zero_tolerance REAL,
			score REAL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS center_observations (
			id INTEGER PRIMARY KEY,
			indicator_id INTEGER NOT NULL,
			indicator_name TEXT NOT NULL,
			type_id INTEGER,
			major_id INTEGER,
			polarity INTEGER NOT NULL DEFAULT 1,
			center_id INTEGER NOT NULL,
			center_name TEXT NOT NULL,
			stat_date DATE NOT NULL,
			value REAL,
			benchmark REAL,
			challenge REAL,
			score REAL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:         db,
		log:        zap.NewNop(),
		genID:      node,
		repo:       repository.Provide(),
		indicators: indicatorrepo.Provide(),
		districts:  districtrepo.Provide(),
		centers:    centerrepo.Provide(),
		majors:     majorrepo.Provide(),
		types:      evalrepo.Provide(),
	}
	return svc, db
}

func seedIndicator(t *testing.T, db *gorm.DB, id int64, name string, majorID, typeID int64, polarity int) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO indicators (id, name, major_id, type_id, polarity, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		id, name, majorID, typeID, polarity,
	).Error
	if err != nil {
		t.Fatalf("seed indicator: %v", err)
	}
}

func seedDistrict(t *testing.T, db *gorm.DB, id int64, name string, circleID int64) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO districts (id, circle_id, name, short_name) VALUES (?, ?, ?, ?)`,
		id, circleID, name, name,
	).Error
	if err != nil {
		t.Fatalf("seed district: %v", err)
	}
}

func seedCenter(t *testing.T, db *gorm.DB, id, districtID int64, name string) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO centers (id, district_id, name) VALUES (?, ?, ?)`,
		id, districtID, name,
	).Error
	if err != nil {
		t.Fatalf("seed center: %v", err)
	}
}

func f64(v float64) *float64 { return &v }

func TestCreateUpsertsByKey(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)

	first, err := svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		Value:       f64(80),
		Benchmark:   f64(85),
		Score:       f64(70),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.IndicatorName != "fiber coverage" || first.DistrictName != "east" {
		t.Fatalf("expected denormalized names, got %+v", first)
	}

	// Same key again: overwrites values, score only when provided.
	second, err := svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		Value:       f64(90),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s vs %s", second.ID, first.ID)
	}
	if second.Value == nil || *second.Value != 90 {
		t.Fatalf("expected value overwrite, got %v", second.Value)
	}
	if second.Benchmark != nil {
		t.Fatalf("expected benchmark cleared, got %v", second.Benchmark)
	}
	if second.Score == nil || *second.Score != 70 {
		t.Fatalf("expected score kept, got %v", second.Score)
	}
}

// blindRepo misses the key lookup a set number of times, standing in
// for a concurrent writer landing between the read and the insert.
type blindRepo struct {
	obsdomain.Repository
	misses int
}

func (r *blindRepo) FindByKey(ctx context.Context, db *gorm.DB, indicatorID, districtID snowflake.ID, statDate datatypes.Date) (*obsdomain.Observation, error) {
	if r.misses > 0 {
		r.misses--
		return nil, nil
	}
	return r.Repository.FindByKey(ctx, db, indicatorID, districtID, statDate)
}

func TestCreateConcurrentInsertBecomesUpdate(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)
	if err := db.Exec(`CREATE UNIQUE INDEX ux_observations_key ON observations (indicator_id, district_id, stat_date)`).Error; err != nil {
		t.Fatalf("create index: %v", err)
	}

	first, err := svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		Value:       f64(80),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.repo = &blindRepo{Repository: svc.repo, misses: 1}

	second, err := svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		Value:       f64(95),
	})
	if err != nil {
		t.Fatalf("expected the losing insert to become an update, got %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s vs %s", second.ID, first.ID)
	}
	if second.Value == nil || *second.Value != 95 {
		t.Fatalf("expected value overwrite, got %v", second.Value)
	}

	var n int64
	if err := db.Raw(`SELECT COUNT(*) FROM observations`).Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected a single row, got %d", n)
	}
}

func TestCreateRejectsTypeMismatch(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)

	_, err := svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		TypeID:      "22",
		Value:       f64(1),
	})
	if err != obsdomain.ErrTypeMismatch {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	_, err = svc.Create(ctx, obsdomain.DataInput{
		IndicatorID: "999",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
	})
	if err != obsdomain.ErrNotFound {
		t.Fatalf("expected not found for unknown indicator, got %v", err)
	}
}

func TestUpdateStrictMissingKey(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)

	_, err := svc.UpdateStrict(ctx, obsdomain.DataInput{
		IndicatorID: "101",
		DistrictID:  "201",
		StatDate:    "2026-03-01",
		Value:       f64(1),
	})
	if err != obsdomain.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRequiresConstraint(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Delete(context.Background(), obsdomain.DeleteRequest{})
	if err != obsdomain.ErrMissingConstraint {
		t.Fatalf("expected missing constraint, got %v", err)
	}
}

func TestQueryPaginationConcatenates(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	for i := int64(0); i < 5; i++ {
		seedDistrict(t, db, 201+i, "district-"+string(rune('a'+i)), 1)
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: "101",
			DistrictID:  snowflake.ID(201 + i).String(),
			StatDate:    "2026-03-01",
			Value:       f64(float64(i)),
		})
		if err != nil {
			t.Fatalf("create row %d: %v", i, err)
		}
	}

	var seen []string
	for page := 1; ; page++ {
		res, err := svc.Query(ctx, obsdomain.QueryRequest{
			IndicatorID: "101",
			Page:        page,
			Size:        2,
			OrderBy:     "district_id",
		})
		if err != nil {
			t.Fatalf("query page %d: %v", page, err)
		}
		if res.Total != 5 {
			t.Fatalf("expected total 5, got %d", res.Total)
		}
		for _, item := range res.Items {
			seen = append(seen, item.DistrictID)
		}
		if int64(page*2) >= res.Total || len(res.Items) == 0 {
			break
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 rows across pages, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("expected ascending district ids, got %v", seen)
		}
	}
}

func TestSnapshotReturnsLatestPerPair(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)
	seedDistrict(t, db, 202, "west", 2)

	for _, row := range []struct {
		district string
		date     string
		value    float64
	}{
		{"201", "2026-03-01", 10},
		{"201", "2026-03-02", 20},
		{"202", "2026-03-01", 30},
	} {
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: "101",
			DistrictID:  row.district,
			StatDate:    row.date,
			Value:       f64(row.value),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := svc.Snapshot(ctx, obsdomain.QueryRequest{IndicatorID: "101"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected one row per district, got %d", res.Total)
	}
	dates := map[string]string{}
	for _, item := range res.Items {
		dates[item.DistrictName] = item.StatDate
	}
	if dates["east"] != "2026-03-02" {
		t.Fatalf("expected latest date for east, got %q", dates["east"])
	}
	if dates["west"] != "2026-03-01" {
		t.Fatalf("expected only date for west, got %q", dates["west"])
	}
}

func TestLatestByIndicatorDefaultsToNewestDate(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)
	seedDistrict(t, db, 202, "west", 2)

	for _, row := range []struct {
		district string
		date     string
	}{
		{"201", "2026-03-01"},
		{"201", "2026-03-02"},
		{"202", "2026-03-02"},
	} {
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: "101",
			DistrictID:  row.district,
			StatDate:    row.date,
			Value:       f64(1),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := svc.LatestByIndicator(ctx, obsdomain.LatestRequest{IndicatorName: "fiber coverage"})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both districts on newest date, got %d", len(rows))
	}
	for _, r := range rows {
		if r.StatDate != "2026-03-02" {
			t.Fatalf("expected 2026-03-02, got %q", r.StatDate)
		}
	}

	// Unknown indicator name resolves to an empty result, not an error.
	rows, err = svc.LatestByIndicator(ctx, obsdomain.LatestRequest{IndicatorName: "no such"})
	if err != nil {
		t.Fatalf("latest unknown: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result, got %d", len(rows))
	}
}

func TestByDistrictReport(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedIndicator(t, db, 102, "fault rate", 11, 21, 0)
	seedDistrict(t, db, 201, "east", 1)

	for _, row := range []struct {
		indicator string
		value     float64
	}{{"101", 95}, {"102", 2}} {
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: row.indicator,
			DistrictID:  "201",
			StatDate:    "2026-03-01",
			Value:       f64(row.value),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	report, err := svc.ByDistrict(ctx, obsdomain.LocationRequest{Name: "east"})
	if err != nil {
		t.Fatalf("by district: %v", err)
	}
	if report.StatDate != "2026-03-01" {
		t.Fatalf("expected latest date, got %q", report.StatDate)
	}
	if len(report.Indicators) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(report.Indicators))
	}

	if _, err := svc.ByDistrict(ctx, obsdomain.LocationRequest{}); err != obsdomain.ErrMissingSelector {
		t.Fatalf("expected missing selector, got %v", err)
	}
	if _, err := svc.ByDistrict(ctx, obsdomain.LocationRequest{Name: "no such"}); err != obsdomain.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestByMajorMatrix(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	if err := db.Exec(`INSERT INTO majors (id, name) VALUES (11, 'wireless')`).Error; err != nil {
		t.Fatalf("seed major: %v", err)
	}
	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedIndicator(t, db, 102, "fault rate", 11, 21, 0)
	seedDistrict(t, db, 201, "east", 1)
	seedDistrict(t, db, 202, "west", 2)

	for _, row := range []struct {
		indicator, district, date string
		value                     float64
	}{
		{"101", "201", "2026-03-01", 95},
		{"101", "201", "2026-03-02", 96},
		{"101", "202", "2026-03-01", 90},
	} {
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: row.indicator,
			DistrictID:  row.district,
			StatDate:    row.date,
			Value:       f64(row.value),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	report, err := svc.ByMajor(ctx, obsdomain.MatrixRequest{Name: "wireless"})
	if err != nil {
		t.Fatalf("by major: %v", err)
	}
	if report.Name != "wireless" {
		t.Fatalf("expected major name, got %q", report.Name)
	}
	if len(report.Indicators) != 2 {
		t.Fatalf("expected both indicators, got %d", len(report.Indicators))
	}
	for _, series := range report.Indicators {
		if len(series.Districts) != 2 {
			t.Fatalf("expected a cell per district, got %d", len(series.Districts))
		}
	}
	var coverage *obsdomain.IndicatorSeries
	for i := range report.Indicators {
		if report.Indicators[i].IndicatorName == "fiber coverage" {
			coverage = &report.Indicators[i]
		}
	}
	if coverage == nil {
		t.Fatal("expected fiber coverage series")
	}
	for _, cell := range coverage.Districts {
		switch cell.DistrictName {
		case "east":
			if cell.Value == nil || *cell.Value != 96 {
				t.Fatalf("expected latest east value 96, got %v", cell.Value)
			}
		case "west":
			if cell.Value == nil || *cell.Value != 90 {
				t.Fatalf("expected west value 90, got %v", cell.Value)
			}
		}
	}
}

func TestCenterLifecycle(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "ticket backlog", 11, 21, 0)
	seedDistrict(t, db, 201, "east", 1)
	seedCenter(t, db, 301, 201, "east support center")

	created, err := svc.CreateCenter(ctx, obsdomain.CenterDataInput{
		IndicatorID: "101",
		CenterID:    "301",
		StatDate:    "2026-03-01",
		Value:       f64(12),
	})
	if err != nil {
		t.Fatalf("create center obs: %v", err)
	}
	if created.CenterName != "east support center" {
		t.Fatalf("expected center name, got %q", created.CenterName)
	}
	if created.DistrictName == nil || *created.DistrictName != "east" {
		t.Fatalf("expected parent district, got %v", created.DistrictName)
	}

	report, err := svc.ByCenter(ctx, obsdomain.LocationRequest{ID: "301"})
	if err != nil {
		t.Fatalf("by center: %v", err)
	}
	if len(report.Indicators) != 1 {
		t.Fatalf("expected 1 indicator, got %d", len(report.Indicators))
	}

	rows, err := svc.LatestCenterByIndicator(ctx, obsdomain.LatestRequest{IndicatorID: "101"})
	if err != nil {
		t.Fatalf("latest center: %v", err)
	}
	if len(rows) != 1 || rows[0].CenterName != "east support center" {
		t.Fatalf("expected the seeded center, got %+v", rows)
	}

	_, err = svc.UpdateCenterStrict(ctx, obsdomain.CenterDataInput{
		IndicatorID: "101",
		CenterID:    "301",
		StatDate:    "2026-04-01",
		Value:       f64(5),
	})
	if err != obsdomain.ErrNotFound {
		t.Fatalf("expected not found for missing key, got %v", err)
	}
}

func TestSeriesAscending(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	seedIndicator(t, db, 101, "fiber coverage", 11, 21, 1)
	seedDistrict(t, db, 201, "east", 1)

	for _, date := range []string{"2026-03-03", "2026-03-01", "2026-03-02"} {
		_, err := svc.Create(ctx, obsdomain.DataInput{
			IndicatorID: "101",
			DistrictID:  "201",
			StatDate:    date,
			Value:       f64(1),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := svc.Series(ctx, obsdomain.SeriesRequest{IndicatorID: "101", LocationID: "201"})
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if res.Total != 3 || len(res.Items) != 3 {
		t.Fatalf("expected 3 points, got total=%d len=%d", res.Total, len(res.Items))
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i-1].StatDate >= res.Items[i].StatDate {
			t.Fatalf("expected ascending dates, got %v", res.Items)
		}
	}
}
