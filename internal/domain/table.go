package domain

import (
	"fmt"
	"slices"
)

// Table is the raw, string-typed output of an adapter. Rows follow the order of
// Columns. Skipped counts malformed raw lines the adapter dropped.
type Table struct {
	Columns []string
	Rows    [][]string
	Skipped int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out, true
}

// Map rewrites every cell of the named column in place. Missing columns are
// ignored.
func (t *Table) Map(name string, fn func(string) string) {
	i := t.Index(name)
	if i < 0 {
		return
	}
	for _, row := range t.Rows {
		if i < len(row) {
			row[i] = fn(row[i])
		}
	}
}

// Drop returns a new table without the named columns.
func (t *Table) Drop(names ...string) *Table {
	keep := make([]int, 0, len(t.Columns))
	out := &Table{Skipped: t.Skipped}
	for i, c := range t.Columns {
		if slices.Contains(names, c) {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, c)
	}
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				nr[j] = row[i]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// Append adds the rows of other, which must have identical columns.
func (t *Table) Append(other *Table) error {
	if !slices.Equal(t.Columns, other.Columns) {
		return fmt.Errorf("append table: columns %v do not match %v", other.Columns, t.Columns)
	}
	t.Rows = append(t.Rows, other.Rows...)
	t.Skipped += other.Skipped
	return nil
}
