package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	data, err := New([]string{"name", "age"}, [][]string{
		{"Alice", "29"},
		{"Bob", "34"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, data.Len())
	assert.Equal(t, []string{"name", "age"}, data.Columns())
	assert.False(t, data.IsEmpty())

	names, err := data.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := New([]string{"name", "name"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestNewRejectsRaggedRows(t *testing.T) {
	_, err := New([]string{"name", "age"}, [][]string{
		{"Alice", "29"},
		{"Bob"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAGGED_ROWS")
}

func TestEmpty(t *testing.T) {
	data := Empty()
	assert.True(t, data.IsEmpty())
	assert.Equal(t, 0, data.Len())
	assert.Empty(t, data.Columns())
}

func TestColumnNotFound(t *testing.T) {
	data, err := New([]string{"name"}, [][]string{{"Alice"}})
	require.NoError(t, err)

	_, err = data.Column("age")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLUMN_NOT_FOUND")

	err = data.SetColumn("age", []string{"29"})
	require.Error(t, err)
}

func TestSetColumnLengthMismatch(t *testing.T) {
	data, err := New([]string{"name"}, [][]string{{"Alice"}, {"Bob"}})
	require.NoError(t, err)

	err = data.SetColumn("name", []string{"Carol"})
	require.Error(t, err)
}

func TestColumnReturnsCopy(t *testing.T) {
	data, err := New([]string{"name"}, [][]string{{"Alice"}})
	require.NoError(t, err)

	names, err := data.Column("name")
	require.NoError(t, err)
	names[0] = "Mallory"

	again, err := data.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, again)
}

func TestRowsPreserveOrder(t *testing.T) {
	rows := [][]string{
		{"Alice", "29"},
		{"Bob", "34"},
		{"Carol", "41"},
	}
	data, err := New([]string{"name", "age"}, rows)
	require.NoError(t, err)

	assert.Equal(t, rows, data.Rows())
	assert.Equal(t, []string{"Bob", "34"}, data.Row(1))
}

func TestClone(t *testing.T) {
	data, err := New([]string{"name"}, [][]string{{"Alice"}})
	require.NoError(t, err)

	clone := data.Clone()
	require.NoError(t, clone.SetColumn("name", []string{"Bob"}))

	names, err := data.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)
}

func TestSelectRows(t *testing.T) {
	data, err := New([]string{"name", "age"}, [][]string{
		{"Alice", "29"},
		{"Bob", "34"},
		{"Carol", "41"},
	})
	require.NoError(t, err)

	filtered, err := data.SelectRows([]bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, [][]string{{"Alice", "29"}, {"Carol", "41"}}, filtered.Rows())

	_, err = data.SelectRows([]bool{true})
	require.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	input := "name, age\nAlice, 29\nBob, 34\n"

	data, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, data.Columns())
	ages, err := data.Column("age")
	require.NoError(t, err)
	assert.Equal(t, []string{"29", "34"}, ages)
}

func TestCSVRoundTrip(t *testing.T) {
	data, err := New([]string{"name", "age"}, [][]string{
		{"Alice", "29"},
		{"Bob", "34"},
	})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, data.WriteCSV(&buf))

	parsed, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, data.Rows(), parsed.Rows())
	assert.Equal(t, data.Columns(), parsed.Columns())
}
