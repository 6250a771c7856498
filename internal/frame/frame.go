// Package frame provides the dynamic in-memory table used by the combine
// pipeline.
//
// A Frame holds an ordered set of column names and rows represented as
// map[string]any, so files with arbitrary schemas can be read, flattened,
// and concatenated without compile-time row types.
package frame

import (
	"sort"
)

// Frame is a tabular structure with a stable column order.
type Frame struct {
	columns []string
	colSet  map[string]struct{}
	rows    []map[string]any
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{colSet: make(map[string]struct{})}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.rows)
}

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int {
	return len(f.columns)
}

// Row returns row i. The returned map is shared, not copied.
func (f *Frame) Row(i int) map[string]any {
	return f.rows[i]
}

// Rows returns the underlying row slice. Callers must not reorder it.
func (f *Frame) Rows() []map[string]any {
	return f.rows
}

// AddColumn registers a column name if not already present.
func (f *Frame) AddColumn(name string) {
	if _, ok := f.colSet[name]; ok {
		return
	}
	f.colSet[name] = struct{}{}
	f.columns = append(f.columns, name)
}

// HasColumn reports whether the column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.colSet[name]
	return ok
}

// Append adds a row, registering any new columns it carries.
// New columns keep first-seen order; within one row they are added in
// sorted key order so the result is deterministic.
func (f *Frame) Append(row map[string]any) {
	newCols := make([]string, 0)
	for k := range row {
		if _, ok := f.colSet[k]; !ok {
			newCols = append(newCols, k)
		}
	}
	sort.Strings(newCols)
	for _, k := range newCols {
		f.AddColumn(k)
	}
	f.rows = append(f.rows, row)
}

// Value returns the value at (row, column), nil if the row lacks it.
func (f *Frame) Value(i int, column string) any {
	return f.rows[i][column]
}

// Concat appends all rows of other, aligning columns by name. Columns
// present only in other are added; rows from either side simply lack the
// keys of columns they never carried, which readers treat as null.
func (f *Frame) Concat(other *Frame) {
	for _, c := range other.columns {
		f.AddColumn(c)
	}
	f.rows = append(f.rows, other.rows...)
}
