package excel

import (
	"bytes"
	"testing"

	"github.com/statboard/statboard/internal/report"
	"github.com/xuri/excelize/v2"
)

func f64(v float64) *float64 { return &v }

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell ref: %v", err)
		}
		if err := f.SetSheetRow(sheet, ref, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseUploadMapsLabels(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"指标名称", "区县", "统计日期", "完成值", "备注"},
		{"宽带装机及时率", "高新", "2026-01-01", "98.5", "ok"},
		{"", "", "", "", ""},
	})

	rows, err := ParseUpload(data, KindObservation)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected blank rows dropped, got %d rows", len(rows))
	}
	row := rows[0]
	if row["indicator_name"] != "宽带装机及时率" || row["district_name"] != "高新" {
		t.Fatalf("expected mapped fields, got %v", row)
	}
	if row["stat_date"] != "2026-01-01" || row["value"] != "98.5" {
		t.Fatalf("expected value fields, got %v", row)
	}
	// Unmapped headers pass through under their own name.
	if row["备注"] != "ok" {
		t.Fatalf("expected passthrough column, got %v", row)
	}
}

func TestParseUploadMissingRequiredColumn(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"指标名称", "完成值"},
		{"x", "1"},
	})

	_, err := ParseUpload(data, KindObservation)
	if err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestParseUploadExcelSerialDate(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"指标名称", "区县", "统计日期"},
		{"x", "高新", "45658"},
	})

	rows, err := ParseUpload(data, KindObservation)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rows[0]["stat_date"] != "2025-01-01" {
		t.Fatalf("expected serial date conversion, got %q", rows[0]["stat_date"])
	}
}

func TestBuildTemplateRoundtrip(t *testing.T) {
	data, err := BuildTemplate(KindCenterObservation)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if f.GetSheetName(0) != SheetTemplate {
		t.Fatalf("expected template sheet, got %q", f.GetSheetName(0))
	}
	rows, err := f.GetRows(SheetTemplate)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + description + sample, got %d rows", len(rows))
	}
	if rows[0][0] != "指标名称" || rows[0][1] != "支撑中心" {
		t.Fatalf("unexpected header %v", rows[0])
	}
}

func TestBuildPivotRendersSheets(t *testing.T) {
	pivot := &report.Pivot{Sheets: []report.Table{
		{
			Date:    "2026-01-01",
			Columns: []string{"圈层", "区县", "coverage", "coverage-得分"},
			Rows: [][]any{
				{"1", "高新", f64(98.5), f64(90)},
				{MeanRowLabel, "", f64(98.5), f64(90)},
			},
		},
		{
			Date:    "2026-01-02",
			Columns: []string{"圈层", "区县", "coverage", "coverage-得分"},
			Rows:    [][]any{{"1", "高新", (*float64)(nil), f64(80)}},
		},
	}}

	data, err := BuildPivot(pivot)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "2026-01-01" || sheets[1] != "2026-01-02" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	value, err := f.GetCellValue("2026-01-01", "C2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if value != "98.5" {
		t.Fatalf("expected 98.5, got %q", value)
	}
	// nil measure cells render empty, not zero.
	value, err = f.GetCellValue("2026-01-02", "C2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty cell, got %q", value)
	}
}

func TestBuildPivotEmpty(t *testing.T) {
	data, err := BuildPivot(&report.Pivot{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if f.GetSheetName(0) != SheetEmpty {
		t.Fatalf("expected placeholder sheet, got %q", f.GetSheetName(0))
	}
	message, err := f.GetCellValue(SheetEmpty, "A2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if message != EmptyMessage {
		t.Fatalf("expected %q, got %q", EmptyMessage, message)
	}
}
