package table

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrPattern reports a regular expression that does not compile.
var ErrPattern = errors.New("invalid pattern")

func compile(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	p := pattern
	if caseInsensitive {
		p = "(?i)" + p
	}
	rx, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrPattern, pattern, err)
	}
	return rx, nil
}

// compileOptional returns nil for a blank pattern.
func compileOptional(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	return compile(pattern, caseInsensitive)
}

// KeepSection keeps the rows between start and end markers, evaluated
// independently on every page. A page boundary is a change of page number
// between consecutive rows and always resets the state to outside. Outside a
// section a start match enters it (the start row is kept iff includeStart);
// inside, an end match leaves it (kept iff includeEnd) and every other row is
// kept. A blank start pattern never matches; a blank end pattern keeps the
// section open to the end of the page. Returns the remaining row count.
func (t *Table) KeepSection(col int, start, end string, includeStart, includeEnd, caseInsensitive bool) (int, error) {
	rxStart, err := compileOptional(start, caseInsensitive)
	if err != nil {
		return 0, err
	}
	rxEnd, err := compileOptional(end, caseInsensitive)
	if err != nil {
		return 0, err
	}

	mask := make([]bool, len(t.rows))
	inside := false
	for i, r := range t.rows {
		if i == 0 || t.pages[i] != t.pages[i-1] {
			inside = false
		}
		cell := cellOf(r, col)
		if !inside {
			if rxStart != nil && rxStart.MatchString(cell) {
				mask[i] = includeStart
				inside = true
			}
			continue
		}
		if rxEnd != nil && rxEnd.MatchString(cell) {
			mask[i] = includeEnd
			inside = false
			continue
		}
		mask[i] = true
	}
	return t.keep(mask), nil
}

// KeepMatching keeps rows whose cell in col matches pattern.
func (t *Table) KeepMatching(col int, pattern string, caseInsensitive bool) (int, error) {
	rx, err := compile(pattern, caseInsensitive)
	if err != nil {
		return 0, err
	}
	mask := make([]bool, len(t.rows))
	for i, r := range t.rows {
		mask[i] = rx.MatchString(cellOf(r, col))
	}
	return t.keep(mask), nil
}

// KeepNotEmpty keeps rows whose cell in col holds more than whitespace.
func (t *Table) KeepNotEmpty(col int) int {
	mask := make([]bool, len(t.rows))
	for i, r := range t.rows {
		mask[i] = strings.TrimSpace(cellOf(r, col)) != ""
	}
	return t.keep(mask)
}

// DropFirstRow removes row 0 and its page, if any.
func (t *Table) DropFirstRow() {
	if len(t.rows) == 0 {
		return
	}
	t.rows = t.rows[1:]
	t.pages = t.pages[1:]
}
