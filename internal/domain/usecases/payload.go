package usecases

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// Payload keys accepted from the table engine.
const (
	keyAnswer = "answer"
	keyTable  = "table"
)

// ParseTablePayload validates the raw structured output of the table
// engine and shapes it into a ToolResult. Anything outside the accepted
// schema fails with entities.ErrOutputParse.
func ParseTablePayload(raw string) (*entities.ToolResult, error) {
	body := stripCodeFence(raw)
	if !gjson.Valid(body) {
		return nil, parseErrorf("payload is not valid JSON")
	}
	root := gjson.Parse(body)
	if !root.IsObject() {
		return nil, parseErrorf("payload must be a JSON object")
	}

	result := &entities.ToolResult{}
	seen := make(map[string]bool)
	var err error

	root.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if seen[key] {
			err = parseErrorf("duplicate key %q", key)
			return false
		}
		seen[key] = true

		switch key {
		case keyAnswer:
			if v.Type != gjson.String {
				err = parseErrorf("answer must be a string")
				return false
			}
			text := v.Str
			result.Text = &text
		case keyTable:
			result.Table, err = parseTable(v)
		default:
			kind, ok := chartKind(key)
			if !ok {
				err = parseErrorf("unexpected key %q", key)
				return false
			}
			if result.Chart != nil {
				err = parseErrorf("only one chart is allowed, got %q and %q", result.Chart.Kind, key)
				return false
			}
			result.Chart, err = parseChart(kind, v)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func chartKind(key string) (entities.ChartKind, bool) {
	for _, k := range entities.ChartKinds {
		if string(k) == key {
			return k, true
		}
	}
	return "", false
}

// NormalizeChart checks a chart against its columns. One-dimensional bar
// and line data longer than the column list is truncated to it; every other
// mismatch is an error.
func NormalizeChart(c *entities.Chart) error {
	if len(c.Columns) == 0 {
		return parseErrorf("%s chart has no columns", c.Kind)
	}
	if err := uniqueColumns(c.Columns); err != nil {
		return err
	}
	if (c.Series == nil) == (c.Rows == nil) {
		return parseErrorf("%s chart must carry either a series or rows", c.Kind)
	}

	if c.Rows == nil {
		if c.Kind == entities.ChartScatter {
			return parseErrorf("scatter data must be two-dimensional")
		}
		if len(c.Series) < len(c.Columns) {
			return parseErrorf("%s chart has %d values for %d columns", c.Kind, len(c.Series), len(c.Columns))
		}
		c.Series = c.Series[:len(c.Columns)]
		return nil
	}

	if c.Kind == entities.ChartScatter && len(c.Columns) < 2 {
		return parseErrorf("scatter chart needs at least two columns")
	}
	if len(c.Rows) == 0 {
		return parseErrorf("%s chart has no data", c.Kind)
	}
	for i, row := range c.Rows {
		if len(row) != len(c.Columns) {
			return parseErrorf("%s chart row %d has %d cells, want %d", c.Kind, i, len(row), len(c.Columns))
		}
	}
	return nil
}

func parseTable(v gjson.Result) (*entities.Table, error) {
	if !v.IsObject() {
		return nil, parseErrorf("table must be an object")
	}
	if err := onlyKeys(v, "table", "columns", "data"); err != nil {
		return nil, err
	}
	columns, err := parseColumns(v.Get("columns"))
	if err != nil {
		return nil, err
	}
	data := v.Get("data")
	if !data.IsArray() {
		return nil, parseErrorf("table data must be an array of rows")
	}

	table := &entities.Table{Columns: columns, Data: [][]entities.Scalar{}}
	for i, r := range data.Array() {
		if !r.IsArray() {
			return nil, parseErrorf("table row %d is not an array", i)
		}
		row, err := parseRow(r)
		if err != nil {
			return nil, err
		}
		table.Data = append(table.Data, row)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func parseChart(kind entities.ChartKind, v gjson.Result) (*entities.Chart, error) {
	if !v.IsObject() {
		return nil, parseErrorf("%s must be an object", kind)
	}
	if err := onlyKeys(v, string(kind), "columns", "data"); err != nil {
		return nil, err
	}
	columns, err := parseColumns(v.Get("columns"))
	if err != nil {
		return nil, err
	}
	data := v.Get("data")
	if !data.IsArray() {
		return nil, parseErrorf("%s data must be an array", kind)
	}
	items := data.Array()
	if len(items) == 0 {
		return nil, parseErrorf("%s chart has no data", kind)
	}

	chart := &entities.Chart{Kind: kind, Columns: columns}
	twoD := items[0].IsArray()
	for i, item := range items {
		if item.IsArray() != twoD {
			return nil, parseErrorf("%s data mixes rows and values at index %d", kind, i)
		}
		if twoD {
			row, err := parseRow(item)
			if err != nil {
				return nil, err
			}
			chart.Rows = append(chart.Rows, row)
			continue
		}
		s, err := parseScalar(item)
		if err != nil {
			return nil, err
		}
		chart.Series = append(chart.Series, s)
	}

	if err := NormalizeChart(chart); err != nil {
		return nil, err
	}
	return chart, nil
}

func parseColumns(v gjson.Result) ([]string, error) {
	if !v.IsArray() {
		return nil, parseErrorf("columns must be an array of strings")
	}
	var columns []string
	for _, c := range v.Array() {
		if c.Type != gjson.String {
			return nil, parseErrorf("column name %s is not a string", c.Raw)
		}
		columns = append(columns, c.Str)
	}
	if len(columns) == 0 {
		return nil, parseErrorf("columns must not be empty")
	}
	return columns, uniqueColumns(columns)
}

func parseRow(v gjson.Result) ([]entities.Scalar, error) {
	cells := v.Array()
	row := make([]entities.Scalar, 0, len(cells))
	for _, c := range cells {
		s, err := parseScalar(c)
		if err != nil {
			return nil, err
		}
		row = append(row, s)
	}
	return row, nil
}

// parseScalar keeps numbers as json.Number so values pass through unchanged.
func parseScalar(v gjson.Result) (entities.Scalar, error) {
	switch v.Type {
	case gjson.String:
		return v.Str, nil
	case gjson.Number:
		return json.Number(v.Raw), nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.Null:
		return nil, nil
	default:
		return nil, parseErrorf("cell %s is not a scalar", v.Raw)
	}
}

func onlyKeys(v gjson.Result, owner string, allowed ...string) error {
	var err error
	v.ForEach(func(k, _ gjson.Result) bool {
		for _, a := range allowed {
			if k.String() == a {
				return true
			}
		}
		err = parseErrorf("unexpected key %q in %s", k.String(), owner)
		return false
	})
	return err
}

func uniqueColumns(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return parseErrorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// often add around JSON output.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{entities.ErrOutputParse}, args...)...)
}
