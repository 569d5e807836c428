package report

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// SourceRow is one observation flattened for pivoting. Labels carry the
// location columns in render order; the location ID only drives row
// ordering and never appears in the output.
type SourceRow struct {
	StatDate      string
	LocationID    snowflake.ID
	Labels        []string
	IndicatorID   snowflake.ID
	IndicatorName string
	Polarity      int
	Value         *float64
	Score         *float64
}

// Options controls the rendered headers and summary row labels. The
// literals live with the excel layer so this package stays
// presentation-free.
type Options struct {
	LabelHeaders []string
	ScoreSuffix  string
	MeanLabel    string
	BestLabel    string
}

// Table is one pivoted sheet: a header row, one row per location and
// the two appended summary rows. Cells are either string labels or
// *float64 values.
type Table struct {
	Date    string
	Columns []string
	Rows    [][]any
}

type Pivot struct {
	Sheets []Table
}

type indicatorCol struct {
	id       snowflake.ID
	name     string
	polarity int
}

// Build groups rows into one table per statistics date (ascending),
// with locations sorted by ID and a column pair (value, score) per
// indicator in first-seen order.
func Build(rows []SourceRow, opts Options) *Pivot {
	indicators := []indicatorCol{}
	seen := map[snowflake.ID]bool{}
	byDate := map[string][]SourceRow{}
	for _, row := range rows {
		if !seen[row.IndicatorID] {
			seen[row.IndicatorID] = true
			indicators = append(indicators, indicatorCol{
				id:       row.IndicatorID,
				name:     row.IndicatorName,
				polarity: row.Polarity,
			})
		}
		byDate[row.StatDate] = append(byDate[row.StatDate], row)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	columns := append([]string{}, opts.LabelHeaders...)
	for _, ind := range indicators {
		columns = append(columns, ind.name, ind.name+opts.ScoreSuffix)
	}

	pivot := &Pivot{Sheets: make([]Table, 0, len(dates))}
	for _, date := range dates {
		pivot.Sheets = append(pivot.Sheets, buildTable(date, columns, indicators, byDate[date], opts))
	}
	return pivot
}

type locationRow struct {
	id     snowflake.ID
	labels []string
	values map[snowflake.ID]*float64
	scores map[snowflake.ID]*float64
}

func buildTable(date string, columns []string, indicators []indicatorCol, rows []SourceRow, opts Options) Table {
	locations := []*locationRow{}
	byLocation := map[snowflake.ID]*locationRow{}
	for _, row := range rows {
		loc, ok := byLocation[row.LocationID]
		if !ok {
			loc = &locationRow{
				id:     row.LocationID,
				labels: row.Labels,
				values: map[snowflake.ID]*float64{},
				scores: map[snowflake.ID]*float64{},
			}
			byLocation[row.LocationID] = loc
			locations = append(locations, loc)
		}
		loc.values[row.IndicatorID] = row.Value
		loc.scores[row.IndicatorID] = row.Score
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].id < locations[j].id })

	labelWidth := len(opts.LabelHeaders)
	table := Table{Date: date, Columns: columns}
	for _, loc := range locations {
		cells := make([]any, 0, labelWidth+2*len(indicators))
		for i := 0; i < labelWidth; i++ {
			if i < len(loc.labels) {
				cells = append(cells, loc.labels[i])
			} else {
				cells = append(cells, "")
			}
		}
		for _, ind := range indicators {
			cells = append(cells, loc.values[ind.id], loc.scores[ind.id])
		}
		table.Rows = append(table.Rows, cells)
	}

	table.Rows = append(table.Rows,
		summaryRow(opts.MeanLabel, labelWidth, indicators, locations, meanValue, meanScore),
		summaryRow(opts.BestLabel, labelWidth, indicators, locations, bestValue, maxScore),
	)
	return table
}

type aggregator func(ind indicatorCol, locations []*locationRow) *float64

func summaryRow(label string, labelWidth int, indicators []indicatorCol, locations []*locationRow, value, score aggregator) []any {
	cells := make([]any, 0, labelWidth+2*len(indicators))
	cells = append(cells, label)
	for i := 1; i < labelWidth; i++ {
		cells = append(cells, "")
	}
	for _, ind := range indicators {
		cells = append(cells, value(ind, locations), score(ind, locations))
	}
	return cells
}

// meanValue averages present values, skipping missing cells.
func meanValue(ind indicatorCol, locations []*locationRow) *float64 {
	return mean(collect(locations, func(loc *locationRow) *float64 { return loc.values[ind.id] }))
}

func meanScore(ind indicatorCol, locations []*locationRow) *float64 {
	return mean(collect(locations, func(loc *locationRow) *float64 { return loc.scores[ind.id] }))
}

// bestValue is the max for higher-is-better indicators and the min
// otherwise.
func bestValue(ind indicatorCol, locations []*locationRow) *float64 {
	values := collect(locations, func(loc *locationRow) *float64 { return loc.values[ind.id] })
	if len(values) == 0 {
		return nil
	}
	best := values[0]
	for _, v := range values[1:] {
		if ind.polarity == 1 {
			if v > best {
				best = v
			}
		} else if v < best {
			best = v
		}
	}
	return &best
}

// maxScore: a score is always better when higher, whatever the
// indicator's own polarity.
func maxScore(ind indicatorCol, locations []*locationRow) *float64 {
	scores := collect(locations, func(loc *locationRow) *float64 { return loc.scores[ind.id] })
	if len(scores) == 0 {
		return nil
	}
	best := scores[0]
	for _, v := range scores[1:] {
		if v > best {
			best = v
		}
	}
	return &best
}

func collect(locations []*locationRow, pick func(*locationRow) *float64) []float64 {
	out := []float64{}
	for _, loc := range locations {
		if v := pick(loc); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
