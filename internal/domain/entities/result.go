package entities

import (
	"encoding/json"
	"fmt"
)

// Scalar is a single table or chart cell: string, json.Number, bool or nil.
type Scalar = any

// Table is a rectangular result: every row has one cell per column.
type Table struct {
	Columns []string   `json:"columns"`
	Data    [][]Scalar `json:"data"`
}

// Validate checks column uniqueness and row widths.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: table has no columns", ErrOutputParse)
	}
	if err := uniqueColumns(t.Columns); err != nil {
		return err
	}
	for i, row := range t.Data {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: table row %d has %d cells, want %d", ErrOutputParse, i, len(row), len(t.Columns))
		}
	}
	return nil
}

func uniqueColumns(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrOutputParse, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// ChartKind is the visualisation requested by the table collaborator.
type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
)

// ChartKinds lists the chart keys accepted in a table payload.
var ChartKinds = [...]ChartKind{ChartBar, ChartLine, ChartScatter}

// Chart is a chart payload. Exactly one of Series (one value per column) or
// Rows (one data row per entry, first column is the category axis) is set.
type Chart struct {
	Kind    ChartKind
	Columns []string
	Series  []Scalar
	Rows    [][]Scalar
}

// TwoDimensional reports whether the chart carries row data.
func (c *Chart) TwoDimensional() bool {
	return c.Rows != nil
}

// MarshalJSON renders the chart with a single "data" field, matching the
// shape the collaborator produced.
func (c Chart) MarshalJSON() ([]byte, error) {
	var data any = c.Series
	if c.Rows != nil {
		data = c.Rows
	}
	return json.Marshal(struct {
		Kind    ChartKind `json:"kind"`
		Columns []string  `json:"columns"`
		Data    any       `json:"data"`
	}{c.Kind, c.Columns, data})
}

// ToolResult is the normalised output of one capability for one turn.
// The fields are additive: a table answer may carry text, a table and a
// chart at once. At least one field must be set.
type ToolResult struct {
	Text  *string
	Table *Table
	Chart *Chart
}

// TextAnswer builds a plain-text result.
func TextAnswer(text string) *ToolResult {
	return &ToolResult{Text: &text}
}

// IsEmpty reports whether no field is set.
func (r *ToolResult) IsEmpty() bool {
	return r == nil || (r.Text == nil && r.Table == nil && r.Chart == nil)
}

// TextOrEmpty returns the text answer, or "" when there is none.
func (r *ToolResult) TextOrEmpty() string {
	if r == nil || r.Text == nil {
		return ""
	}
	return *r.Text
}

// Validate enforces the result invariants.
func (r *ToolResult) Validate() error {
	if r.IsEmpty() {
		return fmt.Errorf("%w: empty tool result", ErrOutputParse)
	}
	if r.Table != nil {
		if err := r.Table.Validate(); err != nil {
			return err
		}
	}
	return nil
}
