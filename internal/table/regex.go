package table

import (
	"regexp"
	"strconv"
	"strings"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	Pattern         string
	CaseInsensitive bool
	// Group selects the capture group; 0 is the whole match and an
	// out-of-range group yields "".
	Group int
	// AllMatches collects every match instead of the first.
	AllMatches bool
	// InPlace writes the result back into the source column.
	InPlace bool
	// Expand (with AllMatches and not InPlace) creates one column per match
	// ordinal instead of a single joined column.
	Expand bool
	// NewColumn overrides the "<col>_rx" base name of created columns.
	NewColumn string
	// Separator joins multiple matches.
	Separator string
}

func groupValue(m []string, group int) string {
	if group < 0 || group >= len(m) {
		return ""
	}
	return m[group]
}

// Extract runs a regular expression over col and writes what it captures.
//
// Single match: the captured value replaces the cell (InPlace) or lands in a
// new column right of col. All matches: the joined values replace the cell
// (InPlace), land in one new column, or with Expand fill K new columns
// "<base>_m1".."<base>_mK" where K is the largest match count of any row.
func (t *Table) Extract(col int, o ExtractOptions) error {
	rx, err := compile(o.Pattern, o.CaseInsensitive)
	if err != nil {
		return err
	}
	base := strings.TrimSpace(o.NewColumn)
	if base == "" {
		base = t.names[col] + "_rx"
	}

	if !o.AllMatches {
		values := make([]string, len(t.rows))
		for i, r := range t.rows {
			if m := rx.FindStringSubmatch(cellOf(r, col)); m != nil {
				values[i] = groupValue(m, o.Group)
			}
		}
		if o.InPlace {
			t.update(col, func(i int, _ string) string { return values[i] })
			return nil
		}
		t.insertColumnAfter(col, values, base)
		return nil
	}

	all := make([][]string, len(t.rows))
	maxMatches := 0
	for i, r := range t.rows {
		for _, m := range rx.FindAllStringSubmatch(cellOf(r, col), -1) {
			all[i] = append(all[i], groupValue(m, o.Group))
		}
		maxMatches = max(maxMatches, len(all[i]))
	}

	switch {
	case o.InPlace:
		t.update(col, func(i int, _ string) string { return strings.Join(all[i], o.Separator) })
	case o.Expand:
		for k := 0; k < maxMatches; k++ {
			values := make([]string, len(t.rows))
			for i := range t.rows {
				if k < len(all[i]) {
					values[i] = all[i][k]
				}
			}
			t.insertColumnAfter(col+k, values, base+"_m"+strconv.Itoa(k+1))
		}
	default:
		values := make([]string, len(t.rows))
		for i := range t.rows {
			values[i] = strings.Join(all[i], o.Separator)
		}
		t.insertColumnAfter(col, values, base)
	}
	return nil
}

// insertColumnAfter inserts a new column at col+1 holding values.
func (t *Table) insertColumnAfter(col int, values []string, base string) {
	for i, r := range t.rows {
		t.rows[i] = spliceRow(r, col, cellOf(r, col), values[i])
	}
	t.insertName(col+1, base)
}

// ToScalar collapses the table to the cell at (row, col). row is clamped to
// the table. A non-blank pattern re-extracts the value from the cell using
// group (falling back to the whole match when the group does not exist; no
// match yields ""). An empty table collapses to "".
func (t *Table) ToScalar(col, row int, pattern string, group int, trim bool) error {
	var rx *regexp.Regexp
	if strings.TrimSpace(pattern) != "" {
		var err error
		if rx, err = compile(pattern, false); err != nil {
			return err
		}
	}
	if len(t.rows) == 0 {
		t.scalar, t.value = true, ""
		return nil
	}
	v := t.Cell(clamp(row, 0, len(t.rows)-1), col)
	if rx != nil {
		m := rx.FindStringSubmatch(v)
		switch {
		case m == nil:
			v = ""
		case group >= 0 && group < len(m):
			v = m[group]
		default:
			v = m[0]
		}
	}
	if trim {
		v = strings.TrimSpace(v)
	}
	t.scalar, t.value = true, v
	return nil
}
