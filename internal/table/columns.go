package table

import (
	"fmt"
	"strings"
)

// KeepColumns keeps only the given columns in the given order. Repeated
// indices produce disambiguated names. Out-of-range indices are an error.
func (t *Table) KeepColumns(idx []int) error {
	for _, i := range idx {
		if i < 0 || i >= len(t.names) {
			return fmt.Errorf("table: keep columns: index %d out of range [0,%d)", i, len(t.names))
		}
	}
	names := make([]string, len(idx))
	for k, i := range idx {
		names[k] = t.names[i]
	}
	for r, row := range t.rows {
		out := make([]string, len(idx))
		for k, i := range idx {
			out[k] = cellOf(row, i)
		}
		t.rows[r] = out
	}
	t.names = uniqueNames(names)
	return nil
}

// Rename renames columns positionally. A blank or missing entry keeps the
// old name; the result is disambiguated case-insensitively in order.
func (t *Table) Rename(names []string) {
	next := make([]string, len(t.names))
	for i, old := range t.names {
		next[i] = old
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			next[i] = strings.TrimSpace(names[i])
		}
	}
	t.names = uniqueNames(next)
}

// InsertBlank inserts an empty column at position at (clamped to
// [0, ColumnCount]) and returns the position used. A blank name defaults to
// Col{at}.
func (t *Table) InsertBlank(at int, name string) int {
	at = clamp(at, 0, len(t.names))
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Col%d", at)
	}
	for i, r := range t.rows {
		if at < len(r) {
			out := make([]string, 0, len(r)+1)
			out = append(out, r[:at]...)
			out = append(out, "")
			t.rows[i] = append(out, r[at:]...)
		}
	}
	t.insertName(at, name)
	return at
}

// CopyMode selects how CopyColumn writes into the destination.
type CopyMode int

const (
	// Overwrite replaces the destination cell with the source cell.
	Overwrite CopyMode = iota
	// Append concatenates the source onto a non-empty destination with a
	// separator, or copies it into an empty destination.
	Append
)

// CopyColumn copies src into dest on every row. With onlyNonEmpty, rows with
// an empty source are left untouched.
func (t *Table) CopyColumn(src, dest int, mode CopyMode, sep string, onlyNonEmpty bool) error {
	if dest < 0 || dest >= len(t.names) {
		return fmt.Errorf("table: copy column: destination %d out of range [0,%d)", dest, len(t.names))
	}
	for i, r := range t.rows {
		s := cellOf(r, src)
		if onlyNonEmpty && s == "" {
			continue
		}
		d := cellOf(r, dest)
		switch mode {
		case Append:
			switch {
			case d == "":
				t.set(i, dest, s)
			case s != "":
				t.set(i, dest, d+sep+s)
			}
		default:
			t.set(i, dest, s)
		}
	}
	return nil
}
