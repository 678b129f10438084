package table

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MergeStrategy decides how a group's cells are combined.
type MergeStrategy int

const (
	ConcatSpace MergeStrategy = iota
	ConcatNewline
	FirstNonEmpty
	LastNonEmpty
)

var mergeStrategyNames = [...]string{"ConcatSpace", "ConcatNewline", "FirstNonEmpty", "LastNonEmpty"}

func (s MergeStrategy) String() string {
	if s < 0 || int(s) >= len(mergeStrategyNames) {
		return "Unknown"
	}
	return mergeStrategyNames[s]
}

func (s MergeStrategy) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *MergeStrategy) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("table: merge strategy: %w", err)
	}
	for i, n := range mergeStrategyNames {
		if strings.EqualFold(n, name) {
			*s = MergeStrategy(i)
			return nil
		}
	}
	return fmt.Errorf("table: unknown merge strategy %q", name)
}

func (s MergeStrategy) fold(existing, incoming string) string {
	switch s {
	case ConcatSpace, ConcatNewline:
		if existing == "" {
			return incoming
		}
		if incoming == "" {
			return existing
		}
		if s == ConcatSpace {
			return existing + " " + incoming
		}
		return existing + "\n" + incoming
	case FirstNonEmpty:
		if existing == "" {
			return incoming
		}
		return existing
	case LastNonEmpty:
		if incoming != "" {
			return incoming
		}
	}
	return existing
}

// MergeGroups collapses runs of consecutive rows into one row per group. A
// group starts on a row whose cell in col matches start. With an end pattern
// the group closes (inclusive) on its first end match; without one it closes
// right before the next start match. With resetPerPage a page change also
// closes the open group. Rows before the first start match, and between an
// end match and the next start match, are dropped. Each aggregated row takes
// the page of its first row. Returns the number of groups.
func (t *Table) MergeGroups(col int, start, end string, caseInsensitive, resetPerPage bool, strategy MergeStrategy) (int, error) {
	if strings.TrimSpace(start) == "" {
		return 0, fmt.Errorf("%w: merge start pattern is empty", ErrPattern)
	}
	rxStart, err := compile(start, caseInsensitive)
	if err != nil {
		return 0, err
	}
	rxEnd, err := compileOptional(end, caseInsensitive)
	if err != nil {
		return 0, err
	}

	width := len(t.names)
	var rows [][]string
	var pages []int

	i := 0
	for i < len(t.rows) {
		for i < len(t.rows) && !rxStart.MatchString(cellOf(t.rows[i], col)) {
			i++
		}
		if i >= len(t.rows) {
			break
		}

		page := t.pages[i]
		agg := make([]string, width)
		for i < len(t.rows) {
			if resetPerPage && t.pages[i] != page {
				break
			}
			row := t.rows[i]
			for c := range agg {
				agg[c] = strategy.fold(agg[c], cellOf(row, c))
			}
			isEnd := rxEnd != nil && rxEnd.MatchString(cellOf(row, col))
			i++
			if isEnd {
				break
			}
			if rxEnd == nil && i < len(t.rows) && rxStart.MatchString(cellOf(t.rows[i], col)) {
				break
			}
		}
		rows = append(rows, agg)
		pages = append(pages, page)
	}

	if rows == nil {
		rows, pages = [][]string{}, []int{}
	}
	t.rows, t.pages = rows, pages
	return len(rows), nil
}
