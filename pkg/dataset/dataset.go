// Package dataset provides the in-memory tabular data model consumed by the
// anonymization engine: named columns of string cells with a stable row order.
package dataset

import (
	"fmt"

	"github.com/inferloop/tabanon/pkg/errors"
)

// Dataset is a table of named columns. Column order and row order are
// preserved across all operations. Cells are plain strings; the engine treats
// every value as categorical.
type Dataset struct {
	columns []string
	data    map[string][]string
	rows    int
}

// New builds a dataset from a column list and rows of cells. Every row must
// have exactly one cell per column.
func New(columns []string, rows [][]string) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] {
			return nil, errors.NewDatasetError(errors.CodeInvalidInput,
				fmt.Sprintf("duplicate column %q", col)).WithCause(errors.ErrDuplicateColumn)
		}
		seen[col] = true
	}

	data := make(map[string][]string, len(columns))
	for _, col := range columns {
		data[col] = make([]string, 0, len(rows))
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDatasetError(errors.CodeRaggedRows,
				fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), len(columns))).
				WithCause(errors.ErrRaggedRows)
		}
		for j, col := range columns {
			data[col] = append(data[col], row[j])
		}
	}

	return &Dataset{
		columns: append([]string(nil), columns...),
		data:    data,
		rows:    len(rows),
	}, nil
}

// Empty returns a dataset with no columns and no rows. Used as the explicit
// infeasibility result.
func Empty() *Dataset {
	return &Dataset{data: make(map[string][]string)}
}

// Columns returns the column names in their original order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.data[name]
	return ok
}

// Column returns the cell values of the named column in row order.
func (d *Dataset) Column(name string) ([]string, error) {
	values, ok := d.data[name]
	if !ok {
		return nil, errors.NewDatasetError(errors.CodeColumnNotFound,
			fmt.Sprintf("column %q not found", name)).WithCause(errors.ErrColumnNotFound)
	}
	return append([]string(nil), values...), nil
}

// SetColumn replaces the cell values of an existing column.
func (d *Dataset) SetColumn(name string, values []string) error {
	if _, ok := d.data[name]; !ok {
		return errors.NewDatasetError(errors.CodeColumnNotFound,
			fmt.Sprintf("column %q not found", name)).WithCause(errors.ErrColumnNotFound)
	}
	if len(values) != d.rows {
		return errors.NewDatasetError(errors.CodeRaggedRows,
			fmt.Sprintf("column %q: %d values for %d rows", name, len(values), d.rows)).
			WithCause(errors.ErrColumnLength)
	}
	d.data[name] = append([]string(nil), values...)
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// IsEmpty reports whether the dataset has no rows or no columns.
func (d *Dataset) IsEmpty() bool {
	return d.rows == 0 || len(d.columns) == 0
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.columns))
	for j, col := range d.columns {
		row[j] = d.data[col][i]
	}
	return row
}

// Rows returns all rows in column order.
func (d *Dataset) Rows() [][]string {
	rows := make([][]string, d.rows)
	for i := 0; i < d.rows; i++ {
		rows[i] = d.Row(i)
	}
	return rows
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	data := make(map[string][]string, len(d.columns))
	for _, col := range d.columns {
		data[col] = append([]string(nil), d.data[col]...)
	}
	return &Dataset{
		columns: append([]string(nil), d.columns...),
		data:    data,
		rows:    d.rows,
	}
}

// SelectRows returns a new dataset containing only the rows for which
// keep[i] is true, preserving order.
func (d *Dataset) SelectRows(keep []bool) (*Dataset, error) {
	if len(keep) != d.rows {
		return nil, errors.NewDatasetError(errors.CodeRaggedRows,
			fmt.Sprintf("keep mask has %d entries for %d rows", len(keep), d.rows))
	}

	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}

	data := make(map[string][]string, len(d.columns))
	for _, col := range d.columns {
		filtered := make([]string, 0, kept)
		for i, k := range keep {
			if k {
				filtered = append(filtered, d.data[col][i])
			}
		}
		data[col] = filtered
	}

	return &Dataset{
		columns: append([]string(nil), d.columns...),
		data:    data,
		rows:    kept,
	}, nil
}
