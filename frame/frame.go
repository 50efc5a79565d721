// Package frame implements the ordered-column tabular structure every
// listing and measurement series is reshaped into. Columns may be added
// after rows exist; existing rows are padded with empty cells. Cell values
// are strings - the platform serves heterogeneous JSON and everything ends
// up in CSV anyway.
package frame

import (
	"github.com/pkg/errors"
)

// Frame is a small column-ordered table. The zero value is not usable; use
// New.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New returns an empty Frame with the given initial columns.
func New(cols ...string) *Frame {
	f := &Frame{index: make(map[string]int)}
	for _, c := range cols {
		f.AddColumn(c)
	}
	return f
}

// Columns returns the column names in order. The returned slice is shared;
// callers must not modify it.
func (f *Frame) Columns() []string { return f.cols }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AddColumn ensures a column with the given name exists, padding existing
// rows, and returns its position.
func (f *Frame) AddColumn(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	i := len(f.cols)
	f.cols = append(f.cols, name)
	f.index[name] = i
	for r := range f.rows {
		f.rows[r] = append(f.rows[r], "")
	}
	return i
}

// Append adds an empty row and returns its index.
func (f *Frame) Append() int {
	f.rows = append(f.rows, make([]string, len(f.cols)))
	return len(f.rows) - 1
}

// Set writes a cell, adding the column if needed.
func (f *Frame) Set(row int, col, v string) {
	i := f.AddColumn(col)
	f.rows[row][i] = v
}

// SetJoin appends v to the cell, comma-separated, when the cell already
// holds a value. Multi-valued attributes (an object under several levels of
// the same factor) land in one cell this way.
func (f *Frame) SetJoin(row int, col, v string) {
	i := f.AddColumn(col)
	if cur := f.rows[row][i]; cur != "" {
		f.rows[row][i] = cur + ", " + v
		return
	}
	f.rows[row][i] = v
}

// Cell reads a cell; unknown columns read as empty.
func (f *Frame) Cell(row int, col string) string {
	i, ok := f.index[col]
	if !ok {
		return ""
	}
	return f.rows[row][i]
}

// Row returns a copy of the row as a column->value map.
func (f *Frame) Row(row int) map[string]string {
	m := make(map[string]string, len(f.cols))
	for i, c := range f.cols {
		m[c] = f.rows[row][i]
	}
	return m
}

// Column returns a copy of all values in the named column, empty strings
// included.
func (f *Frame) Column(col string) []string {
	i, ok := f.index[col]
	if !ok {
		return nil
	}
	vs := make([]string, len(f.rows))
	for r := range f.rows {
		vs[r] = f.rows[r][i]
	}
	return vs
}

// DistinctCount returns the number of distinct values in the column,
// counting the empty cell as a value. This mirrors how grouping decides
// which columns discriminate between rows.
func (f *Frame) DistinctCount(col string) int {
	i, ok := f.index[col]
	if !ok {
		return 0
	}
	seen := make(map[string]struct{})
	for r := range f.rows {
		seen[f.rows[r][i]] = struct{}{}
	}
	return len(seen)
}

// Filter returns a new Frame with the same columns holding only the rows
// keep accepted.
func (f *Frame) Filter(keep func(row map[string]string) bool) *Frame {
	out := New(f.cols...)
	for r := range f.rows {
		if keep(f.Row(r)) {
			nr := out.Append()
			copy(out.rows[nr], f.rows[r])
		}
	}
	return out
}

// DropEmptyColumns removes every column in which all cells are empty.
func (f *Frame) DropEmptyColumns() {
	keep := make([]string, 0, len(f.cols))
	keepIdx := make([]int, 0, len(f.cols))
	for i, c := range f.cols {
		empty := true
		for r := range f.rows {
			if f.rows[r][i] != "" {
				empty = false
				break
			}
		}
		if !empty || len(f.rows) == 0 {
			keep = append(keep, c)
			keepIdx = append(keepIdx, i)
		}
	}
	if len(keep) == len(f.cols) {
		return
	}
	for r := range f.rows {
		nr := make([]string, len(keepIdx))
		for j, i := range keepIdx {
			nr[j] = f.rows[r][i]
		}
		f.rows[r] = nr
	}
	f.cols = keep
	f.index = make(map[string]int, len(keep))
	for i, c := range keep {
		f.index[c] = i
	}
}

// Rename renames a column, keeping its position. Renaming to an existing
// column name is an error.
func (f *Frame) Rename(old, new string) error {
	i, ok := f.index[old]
	if !ok {
		return errors.Errorf("no column %q", old)
	}
	if _, exists := f.index[new]; exists {
		return errors.Errorf("column %q already exists", new)
	}
	f.cols[i] = new
	delete(f.index, old)
	f.index[new] = i
	return nil
}

// Pair is one (URI, Name) entry extracted from a frame.
type Pair struct {
	URI  string
	Name string
}

// URINamePairs returns the URI/Name pairs of all rows that carry both. It
// is what listings feed into the urimap registry.
func (f *Frame) URINamePairs() []Pair {
	if !f.HasColumn("URI") || !f.HasColumn("Name") {
		return nil
	}
	ps := make([]Pair, 0, len(f.rows))
	for r := range f.rows {
		uri, name := f.Cell(r, "URI"), f.Cell(r, "Name")
		if uri == "" && name == "" {
			continue
		}
		ps = append(ps, Pair{URI: uri, Name: name})
	}
	return ps
}
