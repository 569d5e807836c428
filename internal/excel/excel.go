// Package excel translates between upload/export workbooks and the
// canonical row maps the ingest engine and query services speak.
package excel

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/statboard/statboard/internal/ingest"
	obsdomain "github.com/statboard/statboard/internal/observation/domain"
	"github.com/statboard/statboard/internal/report"
	"github.com/xuri/excelize/v2"
)

// Kind selects which upload layout a workbook follows.
type Kind int

const (
	KindObservation Kind = iota
	KindCenterObservation
	KindIndicatorManage
)

const (
	SheetTemplate = "模板"
	SheetExport   = "导出"
	SheetEmpty    = "空"

	EmptyHeader  = "提示"
	EmptyMessage = "无数据"

	ScoreSuffix  = "-得分"
	MeanRowLabel = "成都总计"
	BestRowLabel = "全市最优值"
)

// PivotDistrictHeaders and PivotCenterHeaders are the location label
// columns of the two pivot exports, in render order.
var (
	PivotDistrictHeaders = []string{"圈层", "区县"}
	PivotCenterHeaders   = []string{"区县", "支撑中心"}
)

var (
	ErrNoSheet        = errors.New("workbook has no sheet")
	ErrMissingColumns = errors.New("missing required columns")
)

type column struct {
	label    string
	field    string
	desc     string
	sample   string
	required bool
}

var observationColumns = []column{
	{"指标名称", "indicator_name", "必填，须与指标定义完全一致", "宽带装机及时率", true},
	{"区县", "district_name", "必填，区县名称或简称", "高新", true},
	{"统计日期", "stat_date", "必填，格式 YYYY-MM-DD", "2026-01-01", true},
	{"完成值", "value", "数值", "98.5", false},
	{"基准值", "benchmark", "数值", "95", false},
	{"挑战值", "challenge", "数值", "99", false},
	{"豁免值", "exemption", "数值", "", false},
	{"零容忍值", "zero_tolerance", "数值", "", false},
	{"得分", "score", "数值，留空则保留原得分", "", false},
	{"类型ID", "type_id", "可选，与指标定义一致", "", false},
	{"类型名称", "type_name", "可选，按名称匹配考核类型", "", false},
}

var centerObservationColumns = []column{
	{"指标名称", "indicator_name", "必填，须与指标定义完全一致", "装维及时率", true},
	{"支撑中心", "center_name", "必填，支撑中心名称", "高新第一支撑中心", true},
	{"统计日期", "stat_date", "必填，格式 YYYY-MM-DD", "2026-01-01", true},
	{"完成值", "value", "数值", "97", false},
	{"基准值", "benchmark", "数值", "95", false},
	{"挑战值", "challenge", "数值", "99", false},
	{"得分", "score", "数值，留空则保留原得分", "", false},
	{"类型ID", "type_id", "可选，与指标定义一致", "", false},
	{"类型名称", "type_name", "可选，按名称匹配考核类型", "", false},
}

var indicatorManageColumns = []column{
	{"指标名称", "indicator_name", "必填", "宽带装机及时率", true},
	{"单位", "unit", "可选", "%", false},
	{"专业中文名", "major_name", "与专业ID二选一", "宽带", false},
	{"专业ID", "major_id", "与专业中文名二选一", "", false},
	{"类型中文名", "type_name", "与类型ID二选一", "月度考核", false},
	{"类型ID", "type_id", "与类型中文名二选一", "", false},
	{"是否正向", "is_positive", "必填，1 正向 0 负向", "1", false},
	{"状态", "status", "可选，1 启用 0 停用", "1", false},
	{"版本", "version", "只读", "", false},
	{"说明", "description", "可选", "", false},
}

func columnsFor(kind Kind) []column {
	switch kind {
	case KindCenterObservation:
		return centerObservationColumns
	case KindIndicatorManage:
		return indicatorManageColumns
	default:
		return observationColumns
	}
}

// ParseUpload reads the first sheet into canonical field-map rows.
// Headers outside the label table pass through under their own name.
func ParseUpload(data []byte, kind Kind) ([]ingest.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoSheet
	}

	columns := columnsFor(kind)
	byLabel := make(map[string]column, len(columns))
	for _, col := range columns {
		byLabel[col.label] = col
	}

	fields := make([]string, len(raw[0]))
	present := map[string]bool{}
	for i, header := range raw[0] {
		header = strings.TrimSpace(header)
		if col, ok := byLabel[header]; ok {
			fields[i] = col.field
		} else {
			fields[i] = header
		}
		present[fields[i]] = true
	}
	var missing []string
	for _, col := range columns {
		if col.required && !present[col.field] {
			missing = append(missing, col.label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows := make([]ingest.Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := ingest.Row{}
		empty := true
		for i, field := range fields {
			if field == "" || i >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[i])
			if value == "" {
				continue
			}
			if field == "stat_date" {
				value = normalizeDate(value)
			}
			row[field] = value
			empty = false
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// normalizeDate accepts YYYY-MM-DD or an excel serial number.
func normalizeDate(raw string) string {
	if _, err := obsdomain.ParseDate(raw); err == nil {
		return raw
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

// BuildTemplate renders the import template for one upload kind:
// a bold header row, a description row and one sample row.
func BuildTemplate(kind Kind) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetTemplate); err != nil {
		return nil, err
	}

	columns := columnsFor(kind)
	headers := make([]any, len(columns))
	descs := make([]any, len(columns))
	samples := make([]any, len(columns))
	for i, col := range columns {
		headers[i] = col.label
		descs[i] = col.desc
		samples[i] = col.sample
	}
	if err := writeRow(f, SheetTemplate, 1, headers); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetTemplate, 2, descs); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetTemplate, 3, samples); err != nil {
		return nil, err
	}
	if err := boldRow(f, SheetTemplate, 1, len(columns)); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// BuildFlatExport writes one sheet of rows under the given headers.
func BuildFlatExport(headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetExport); err != nil {
		return nil, err
	}
	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := writeRow(f, SheetExport, 1, cells); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(f, SheetExport, i+2, row); err != nil {
			return nil, err
		}
	}
	if err := boldRow(f, SheetExport, 1, len(headers)); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// BuildPivot renders one sheet per pivoted date. An empty pivot
// produces a single placeholder sheet instead of an invalid workbook.
func BuildPivot(pivot *report.Pivot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if pivot == nil || len(pivot.Sheets) == 0 {
		if err := f.SetSheetName(f.GetSheetName(0), SheetEmpty); err != nil {
			return nil, err
		}
		if err := writeRow(f, SheetEmpty, 1, []any{EmptyHeader}); err != nil {
			return nil, err
		}
		if err := writeRow(f, SheetEmpty, 2, []any{EmptyMessage}); err != nil {
			return nil, err
		}
		return workbookBytes(f)
	}

	for i, table := range pivot.Sheets {
		name := table.Date
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}

		cells := make([]any, len(table.Columns))
		for j, col := range table.Columns {
			cells[j] = col
		}
		if err := writeRow(f, name, 1, cells); err != nil {
			return nil, err
		}
		for j, row := range table.Rows {
			if err := writeRow(f, name, j+2, row); err != nil {
				return nil, err
			}
		}
		if err := boldRow(f, name, 1, len(table.Columns)); err != nil {
			return nil, err
		}
	}
	return workbookBytes(f)
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []any) error {
	// nil *float64 cells must stay empty rather than render as zero.
	out := make([]any, len(cells))
	for i, cell := range cells {
		if v, ok := cell.(*float64); ok {
			if v == nil {
				out[i] = nil
				continue
			}
			out[i] = *v
			continue
		}
		out[i] = cell
	}
	ref, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, ref, &out)
}

func boldRow(f *excelize.File, sheet string, rowNum, width int) error {
	if width == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, rowNum)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
