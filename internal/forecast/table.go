package forecast

import (
	"fmt"
	"slices"
	"time"

	"TickerCast/internal/model"
)

// Canonical column names of the fitting table.
const (
	ColumnDS = "ds"
	ColumnY  = "y"
)

// TargetColumn is the price column forecast by default.
const TargetColumn = "Open"

// Table is a columnar time-indexed table.
type Table struct {
	Index   string
	Times   []time.Time
	Columns map[string][]float64
	Order   []string
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Times) }

// Column returns the named column or nil.
func (t *Table) Column(name string) []float64 { return t.Columns[name] }

// IsCanonical reports whether t is indexed by ds and carries a y column.
// Extra columns are allowed and ignored by the model.
func (t *Table) IsCanonical() bool {
	_, ok := t.Columns[ColumnY]
	return t.Index == ColumnDS && ok
}

// FromSeries lays a price series out as a Date/Open/High/Low/Close/Volume table.
func FromSeries(s *model.PriceSeries) *Table {
	n := len(s.Bars)
	t := &Table{
		Index: "Date",
		Times: make([]time.Time, n),
		Columns: map[string][]float64{
			"Open":   make([]float64, n),
			"High":   make([]float64, n),
			"Low":    make([]float64, n),
			"Close":  make([]float64, n),
			"Volume": make([]float64, n),
		},
		Order: []string{"Open", "High", "Low", "Close", "Volume"},
	}
	for i, b := range s.Bars {
		t.Times[i] = b.Time
		t.Columns["Open"][i] = b.Open
		t.Columns["High"][i] = b.High
		t.Columns["Low"][i] = b.Low
		t.Columns["Close"][i] = b.Close
		t.Columns["Volume"][i] = b.Volume
	}
	return t
}

// NewFrame builds a canonical ds/y table from parallel slices.
func NewFrame(ds []time.Time, y []float64) (*Table, error) {
	if len(ds) != len(y) {
		return nil, fmt.Errorf("ds has %d rows, y has %d", len(ds), len(y))
	}
	return &Table{
		Index:   ColumnDS,
		Times:   slices.Clone(ds),
		Columns: map[string][]float64{ColumnY: slices.Clone(y)},
		Order:   []string{ColumnY},
	}, nil
}

// Reshape selects valueColumn as the target and renames the index to ds and
// the target to y. A table that is already canonical is returned as is.
func Reshape(t *Table, valueColumn string) (*Table, error) {
	if t.IsCanonical() {
		return t, nil
	}
	col, ok := t.Columns[valueColumn]
	if !ok {
		return nil, fmt.Errorf("column %q not found", valueColumn)
	}
	return NewFrame(t.Times, col)
}

// Slice returns the canonical rows with ds in [from, to].
func (t *Table) Slice(from, to time.Time) *Table {
	out := &Table{Index: t.Index, Columns: make(map[string][]float64, len(t.Columns)), Order: slices.Clone(t.Order)}
	for i, ts := range t.Times {
		if ts.Before(from) || ts.After(to) {
			continue
		}
		out.Times = append(out.Times, ts)
		for name, col := range t.Columns {
			out.Columns[name] = append(out.Columns[name], col[i])
		}
	}
	return out
}

// checkHistory enforces the fitting preconditions on a canonical table.
func checkHistory(t *Table) error {
	if !t.IsCanonical() {
		return fmt.Errorf("history table is not in %s/%s form", ColumnDS, ColumnY)
	}
	ds, y := t.Times, t.Columns[ColumnY]
	distinct := 0
	for i := range ds {
		if i == 0 || !ds[i].Equal(ds[i-1]) {
			distinct++
		}
	}
	if distinct < 2 {
		return fmt.Errorf("%d distinct timestamps: %w", distinct, model.ErrInsufficientHistory)
	}
	for i := 1; i < len(ds); i++ {
		if !ds[i].After(ds[i-1]) {
			return &model.HistoryError{Index: i, Err: model.ErrUnorderedHistory}
		}
	}
	for i, v := range y {
		if v != v {
			return fmt.Errorf("row %d: y is NaN", i)
		}
	}
	return nil
}
