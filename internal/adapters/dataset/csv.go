// Package dataset loads tabular files into entities.Dataset.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// CSVLoader implements ports.DatasetLoader for comma separated files.
type CSVLoader struct {
	maxRows int
}

// NewCSVLoader creates a CSV loader. maxRows <= 0 means no limit.
func NewCSVLoader(maxRows int) *CSVLoader {
	return &CSVLoader{maxRows: maxRows}
}

// LoadDataset reads a header row followed by data rows. Short rows are
// padded with empty cells; rows wider than the header are rejected.
// Duplicate header names get a numeric suffix ("a", "a.1").
func (l *CSVLoader) LoadDataset(ctx context.Context, name string, r io.Reader) (*entities.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	columns := normalizeHeader(header)

	ds := &entities.Dataset{
		Name:     filepath.Base(name),
		Columns:  columns,
		LoadedAt: time.Now(),
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("%s: line %d has %d fields, header has %d", name, line, len(record), len(columns))
		}
		for len(record) < len(columns) {
			record = append(record, "")
		}
		ds.Rows = append(ds.Rows, record)
		if l.maxRows > 0 && len(ds.Rows) >= l.maxRows {
			break
		}
	}
	return ds, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		base := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}
		name := base
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		columns[i] = name
	}
	return columns
}
