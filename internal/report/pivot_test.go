package report

import (
	"testing"

	"github.com/bwmarrin/snowflake"
)

func f64(v float64) *float64 { return &v }

func testOptions() Options {
	return Options{
		LabelHeaders: []string{"circle", "district"},
		ScoreSuffix:  "-score",
		MeanLabel:    "mean",
		BestLabel:    "best",
	}
}

func row(date string, loc snowflake.ID, labels []string, ind snowflake.ID, name string, polarity int, value, score *float64) SourceRow {
	return SourceRow{
		StatDate:      date,
		LocationID:    loc,
		Labels:        labels,
		IndicatorID:   ind,
		IndicatorName: name,
		Polarity:      polarity,
		Value:         value,
		Score:         score,
	}
}

func TestBuildSheetPerDateSorted(t *testing.T) {
	pivot := Build([]SourceRow{
		row("2026-02-01", 1, []string{"1", "east"}, 10, "coverage", 1, f64(1), nil),
		row("2026-01-01", 1, []string{"1", "east"}, 10, "coverage", 1, f64(2), nil),
	}, testOptions())

	if len(pivot.Sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(pivot.Sheets))
	}
	if pivot.Sheets[0].Date != "2026-01-01" || pivot.Sheets[1].Date != "2026-02-01" {
		t.Fatalf("expected ascending dates, got %s then %s", pivot.Sheets[0].Date, pivot.Sheets[1].Date)
	}
}

func TestBuildColumnsAndRowOrder(t *testing.T) {
	pivot := Build([]SourceRow{
		row("2026-01-01", 2, []string{"2", "west"}, 10, "coverage", 1, f64(90), f64(80)),
		row("2026-01-01", 1, []string{"1", "east"}, 10, "coverage", 1, f64(95), f64(85)),
		row("2026-01-01", 1, []string{"1", "east"}, 11, "faults", 0, f64(3), f64(60)),
	}, testOptions())

	sheet := pivot.Sheets[0]
	wantCols := []string{"circle", "district", "coverage", "coverage-score", "faults", "faults-score"}
	if len(sheet.Columns) != len(wantCols) {
		t.Fatalf("expected %v, got %v", wantCols, sheet.Columns)
	}
	for i, col := range wantCols {
		if sheet.Columns[i] != col {
			t.Fatalf("expected column %q at %d, got %q", col, i, sheet.Columns[i])
		}
	}

	// 2 location rows + mean + best.
	if len(sheet.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(sheet.Rows))
	}
	if sheet.Rows[0][1] != "east" || sheet.Rows[1][1] != "west" {
		t.Fatalf("expected location ID ordering, got %v / %v", sheet.Rows[0][1], sheet.Rows[1][1])
	}
	if v := sheet.Rows[0][2].(*float64); v == nil || *v != 95 {
		t.Fatalf("expected east coverage 95, got %v", v)
	}
	// west has no faults row: cell stays empty.
	if v := sheet.Rows[1][4].(*float64); v != nil {
		t.Fatalf("expected missing cell, got %v", *v)
	}
}

func TestSummaryRows(t *testing.T) {
	pivot := Build([]SourceRow{
		row("2026-01-01", 1, []string{"1", "east"}, 10, "coverage", 1, f64(90), f64(70)),
		row("2026-01-01", 2, []string{"2", "west"}, 10, "coverage", 1, f64(80), f64(90)),
		row("2026-01-01", 1, []string{"1", "east"}, 11, "faults", 0, f64(3), f64(60)),
		row("2026-01-01", 2, []string{"2", "west"}, 11, "faults", 0, f64(5), nil),
	}, testOptions())

	sheet := pivot.Sheets[0]
	meanRow := sheet.Rows[len(sheet.Rows)-2]
	bestRow := sheet.Rows[len(sheet.Rows)-1]

	if meanRow[0] != "mean" || bestRow[0] != "best" {
		t.Fatalf("expected summary labels, got %v / %v", meanRow[0], bestRow[0])
	}
	if v := meanRow[2].(*float64); v == nil || *v != 85 {
		t.Fatalf("expected mean coverage 85, got %v", v)
	}
	// Missing west faults score is skipped, not zero-filled.
	if v := meanRow[5].(*float64); v == nil || *v != 60 {
		t.Fatalf("expected mean faults score 60, got %v", v)
	}
	// Higher-is-better takes the max, lower-is-better the min.
	if v := bestRow[2].(*float64); v == nil || *v != 90 {
		t.Fatalf("expected best coverage 90, got %v", v)
	}
	if v := bestRow[4].(*float64); v == nil || *v != 3 {
		t.Fatalf("expected best faults 3, got %v", v)
	}
	// Scores always take the max.
	if v := bestRow[3].(*float64); v == nil || *v != 90 {
		t.Fatalf("expected best coverage score 90, got %v", v)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	pivot := Build(nil, testOptions())
	if len(pivot.Sheets) != 0 {
		t.Fatalf("expected no sheets, got %d", len(pivot.Sheets))
	}
}
