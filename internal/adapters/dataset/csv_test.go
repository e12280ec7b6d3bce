package dataset

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVLoader_Load(t *testing.T) {
	input := "region,quarter,revenue\nnorth,Q1,120\nsouth,Q1,80\n"

	ds, err := NewCSVLoader(0).LoadDataset(context.Background(), "/tmp/sales.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, []string{"region", "quarter", "revenue"}, ds.Columns)
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, []string{"south", "Q1", "80"}, ds.Rows[1])
}

func TestCSVLoader_HeaderCleanup(t *testing.T) {
	input := "\ufeffa, a ,,b\n1,2,3,4\n"

	ds, err := NewCSVLoader(0).LoadDataset(context.Background(), "x.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "b"}, ds.Columns)
}

func TestCSVLoader_RaggedRows(t *testing.T) {
	ds, err := NewCSVLoader(0).LoadDataset(context.Background(), "x.csv", strings.NewReader("a,b,c\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", ""}, ds.Rows[0])

	_, err = NewCSVLoader(0).LoadDataset(context.Background(), "x.csv", strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestCSVLoader_MaxRows(t *testing.T) {
	ds, err := NewCSVLoader(2).LoadDataset(context.Background(), "x.csv", strings.NewReader("a\n1\n2\n3\n4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
}

func TestCSVLoader_Empty(t *testing.T) {
	_, err := NewCSVLoader(0).LoadDataset(context.Background(), "x.csv", strings.NewReader(""))
	assert.Error(t, err)
}
