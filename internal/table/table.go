// Package table implements the mutable structured value that flows through a
// rule: ordered rows of string cells, unique column names, per-row page
// provenance, and a scalar-collapse flag.
//
// Rows are not required to be padded to the column count. A cell beyond the
// stored length of its row reads as "". Every mutation keeps the row/page
// alignment invariant: len(RowPages()) == Len() at every observable point.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is a rows x named-columns value, or (once collapsed) a single scalar.
// A Table is owned by exactly one running rule; it is not safe for concurrent
// use.
type Table struct {
	rows   [][]string
	names  []string
	pages  []int
	scalar bool
	value  string
}

// FromLines builds the initial single-column table ("Col0") used as the start
// of every rule. lines and pages must be index-aligned.
func FromLines(lines []string, pages []int) (*Table, error) {
	if len(lines) != len(pages) {
		return nil, fmt.Errorf("table: %d lines but %d page numbers", len(lines), len(pages))
	}
	t := &Table{
		rows:  make([][]string, len(lines)),
		names: []string{"Col0"},
		pages: append([]int(nil), pages...),
	}
	for i, l := range lines {
		t.rows[i] = []string{l}
	}
	return t, nil
}

// New builds a table from explicit column names, rows and pages. Names are
// de-duplicated case-insensitively; rows are copied.
func New(names []string, rows [][]string, pages []int) (*Table, error) {
	if len(rows) != len(pages) {
		return nil, fmt.Errorf("table: %d rows but %d page numbers", len(rows), len(pages))
	}
	t := &Table{
		rows:  make([][]string, len(rows)),
		pages: append([]int(nil), pages...),
	}
	for i, r := range rows {
		t.rows[i] = append([]string(nil), r...)
	}
	t.names = uniqueNames(names)
	return t, nil
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Table) Clone() *Table {
	c := &Table{
		rows:   make([][]string, len(t.rows)),
		names:  append([]string(nil), t.names...),
		pages:  append([]int(nil), t.pages...),
		scalar: t.scalar,
		value:  t.value,
	}
	for i, r := range t.rows {
		c.rows[i] = append([]string(nil), r...)
	}
	return c
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// ColumnCount returns the number of named columns.
func (t *Table) ColumnCount() int { return len(t.names) }

// ColumnNames returns a copy of the column names in display order.
func (t *Table) ColumnNames() []string { return append([]string(nil), t.names...) }

// ColumnName returns the name of column i, or "" if out of range.
func (t *Table) ColumnName(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Rows returns a copy of the stored rows. Rows may be shorter than
// ColumnCount.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Row returns a copy of row i padded to ColumnCount.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.names))
	if i >= 0 && i < len(t.rows) {
		copy(out, t.rows[i])
	}
	return out
}

// RowPages returns a copy of the per-row page numbers.
func (t *Table) RowPages() []int { return append([]int(nil), t.pages...) }

// Page returns the page of row i, or 0 if out of range.
func (t *Table) Page(i int) int {
	if i < 0 || i >= len(t.pages) {
		return 0
	}
	return t.pages[i]
}

// Cell returns the value at (row, col); missing cells read as "".
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	return cellOf(t.rows[row], col)
}

// IsScalar reports whether the table has been collapsed to a single value.
func (t *Table) IsScalar() bool { return t.scalar }

// ScalarValue returns the collapsed value ("" while in table mode).
func (t *Table) ScalarValue() string { return t.value }

func cellOf(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// set writes v into row i at col, padding the row when it is short.
func (t *Table) set(i, col int, v string) {
	r := t.rows[i]
	if col >= len(r) {
		if v == "" {
			return
		}
		grown := make([]string, col+1)
		copy(grown, r)
		r = grown
		t.rows[i] = r
	}
	r[col] = v
}

// update applies fn to every cell of column col and writes back changed
// values only.
func (t *Table) update(col int, fn func(i int, v string) string) {
	for i := range t.rows {
		v := cellOf(t.rows[i], col)
		if nv := fn(i, v); nv != v {
			t.set(i, col, nv)
		}
	}
}

// keep retains rows whose mask entry is true, re-slicing pages identically.
func (t *Table) keep(mask []bool) int {
	rows := t.rows[:0]
	pages := t.pages[:0]
	for i, ok := range mask {
		if ok {
			rows = append(rows, t.rows[i])
			pages = append(pages, t.pages[i])
		}
	}
	t.rows, t.pages = rows, pages
	return len(rows)
}

// spliceRow returns a new row where cell col is replaced by vals. Short rows
// are padded so the new cells land at the right position.
func spliceRow(row []string, col int, vals ...string) []string {
	out := make([]string, 0, max(len(row), col+1)+len(vals)-1)
	for c := 0; c < col; c++ {
		out = append(out, cellOf(row, c))
	}
	out = append(out, vals...)
	if col+1 < len(row) {
		out = append(out, row[col+1:]...)
	}
	return out
}

// insertName inserts a unique column name derived from base at position at.
func (t *Table) insertName(at int, base string) {
	name := t.uniqueName(base)
	t.names = append(t.names, "")
	copy(t.names[at+1:], t.names[at:])
	t.names[at] = name
}

// uniqueName returns base (trimmed) or base_k such that it does not collide
// case-insensitively with an existing column name.
func (t *Table) uniqueName(base string) string {
	name := strings.TrimSpace(base)
	if name == "" {
		name = "Col" + strconv.Itoa(len(t.names))
	}
	seen := make(map[string]struct{}, len(t.names))
	for _, n := range t.names {
		seen[strings.ToLower(n)] = struct{}{}
	}
	if _, dup := seen[strings.ToLower(name)]; !dup {
		return name
	}
	for k := 2; ; k++ {
		cand := name + "_" + strconv.Itoa(k)
		if _, dup := seen[strings.ToLower(cand)]; !dup {
			return cand
		}
	}
}

// uniqueNames disambiguates a full name list in order; blank names become
// Col{i}.
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		base := strings.TrimSpace(n)
		if base == "" {
			base = "Col" + strconv.Itoa(i)
		}
		name := base
		for k := 2; ; k++ {
			if _, dup := seen[strings.ToLower(name)]; !dup {
				break
			}
			name = base + "_" + strconv.Itoa(k)
		}
		seen[strings.ToLower(name)] = struct{}{}
		out[i] = name
	}
	return out
}
