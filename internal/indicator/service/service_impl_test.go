package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"github.com/statboard/statboard/internal/indicator/repository"
	"github.com/statboard/statboard/pkg/db/pagination"
	"go.uber.org/zap"
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
		db:    db,
		log:   zap.NewNop(),
		repo:  repository.Provide(),
		genID: node,
	}
	return svc, db
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	unit := "%"
	created, err := svc.Create(ctx, indicatordomain.CreateRequest{
		Name:     "network availability",
		Unit:     &unit,
		Polarity: intPtr(indicatordomain.PolarityHigherBetter),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "network availability" {
		t.Fatalf("expected name round trip, got %q", got.Name)
	}
	if got.Unit == nil || *got.Unit != "%" {
		t.Fatalf("expected unit %%, got %v", got.Unit)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: "  "}); err != indicatordomain.ErrInvalidName {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: "x", Polarity: intPtr(7)}); err != indicatordomain.ErrInvalidPolarity {
		t.Fatalf("expected invalid polarity, got %v", err)
	}
}

func TestUpdatePropagatesToObservations(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: "complaint rate"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := db.Exec(
		`INSERT INTO observations (id, indicator_id, indicator_name, type_id, major_id, polarity, district_id, district_name, stat_date, value, created_at, updated_at)
		 VALUES (1, ?, 'complaint rate', 0, 0, 1, 10, 'west', '2026-01-01', 3.5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		created.ID,
	).Error; err != nil {
		t.Fatalf("seed observation: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO center_observations (id, indicator_id, indicator_name, type_id, major_id, polarity, center_id, center_name, stat_date, value, created_at, updated_at)
		 VALUES (2, ?, 'complaint rate', 0, 0, 1, 20, 'core', '2026-01-01', 4.5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		created.ID,
	).Error; err != nil {
		t.Fatalf("seed center observation: %v", err)
	}

	newName := "complaint volume"
	updated, err := svc.Update(ctx, indicatordomain.UpdateRequest{
		ID:       created.ID,
		Name:     &newName,
		Polarity: intPtr(indicatordomain.PolarityLowerBetter),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", updated.Version)
	}

	var name string
	if err := db.Raw(`SELECT indicator_name FROM observations WHERE id = 1`).Scan(&name).Error; err != nil {
		t.Fatalf("read observation: %v", err)
	}
	if name != "complaint volume" {
		t.Fatalf("expected observation rename, got %q", name)
	}

	var polarity int
	if err := db.Raw(`SELECT polarity FROM center_observations WHERE id = 2`).Scan(&polarity).Error; err != nil {
		t.Fatalf("read center observation: %v", err)
	}
	if polarity != indicatordomain.PolarityLowerBetter {
		t.Fatalf("expected polarity propagated, got %d", polarity)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := setupService(t)

	name := "ghost"
	if _, err := svc.Update(context.Background(), indicatordomain.UpdateRequest{ID: "12345", Name: &name}); err != indicatordomain.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, name := range []string{"uplink latency", "uplink jitter", "downlink loss"} {
		if _, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	page, err := svc.List(ctx, indicatordomain.ListRequest{
		Query: "uplink",
		Page:  pagination.Pagination{Page: 1, Size: 1},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected total 2, got %d", page.Total)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected one row per page, got %d", len(page.Data))
	}
}

func TestSearchActiveOnly(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: "coverage ratio"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	retired, err := svc.Create(ctx, indicatordomain.CreateRequest{Name: "coverage legacy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, indicatordomain.UpdateRequest{ID: retired.ID, Status: intPtr(indicatordomain.StatusDisabled)}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	results, err := svc.Search(ctx, "coverage", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != active.ID {
		t.Fatalf("expected only the active indicator, got %d rows", len(results))
	}
}

func TestBulkUpsert(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	rows := []indicatordomain.BulkRow{
		{Name: "mttr", Polarity: indicatordomain.PolarityLowerBetter},
		{Name: "nps", Polarity: indicatordomain.PolarityHigherBetter},
	}
	result, err := svc.BulkUpsert(ctx, rows)
	if err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 {
		t.Fatalf("expected 2 created, got %+v", result)
	}

	unit := "h"
	rows[0].Unit = &unit
	result, err = svc.BulkUpsert(ctx, rows[:1])
	if err != nil {
		t.Fatalf("bulk upsert again: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	got, err := svc.Search(ctx, "mttr", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Unit == nil || *got[0].Unit != "h" {
		t.Fatalf("expected updated unit, got %+v", got)
	}
	if got[0].Version != 2 {
		t.Fatalf("expected version 2 after upsert, got %d", got[0].Version)
	}
}

func intPtr(v int) *int { return &v }
