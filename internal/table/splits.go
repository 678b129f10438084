package table

import (
	"regexp"
	"strconv"
	"strings"
)

// splitEach replaces col with (left, right) on every row using fn and names
// the new right-hand column base+suffix.
func (t *Table) splitEach(col int, suffix string, fn func(v string) (string, string)) {
	for i, r := range t.rows {
		left, right := fn(cellOf(r, col))
		t.rows[i] = spliceRow(r, col, left, right)
	}
	t.insertName(col+1, t.names[col]+suffix)
}

// SplitOnKeyword splits col at the first occurrence of keyword (removing it)
// into col and a new column col+1 named "<col>_R". Rows without the keyword
// keep their value and get "" on the right. With all set, the cell is split
// at every occurrence; the number of new columns is the maximum occurrence
// count across rows ("<col>_Part2", "<col>_Part3", ...) and shorter rows are
// padded with "". An empty keyword is a no-op.
func (t *Table) SplitOnKeyword(col int, keyword string, caseInsensitive, all bool) {
	if keyword == "" {
		return
	}
	var rx *regexp.Regexp
	if caseInsensitive {
		rx = regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))
	}
	if !all {
		t.splitEach(col, "_R", func(v string) (string, string) {
			var loc []int
			if rx != nil {
				loc = rx.FindStringIndex(v)
			} else if i := strings.Index(v, keyword); i >= 0 {
				loc = []int{i, i + len(keyword)}
			}
			if loc == nil {
				return v, ""
			}
			return v[:loc[0]], v[loc[1]:]
		})
		return
	}

	parts := make([][]string, len(t.rows))
	maxParts := 1
	for i, r := range t.rows {
		v := cellOf(r, col)
		if rx != nil {
			parts[i] = rx.Split(v, -1)
		} else {
			parts[i] = strings.Split(v, keyword)
		}
		maxParts = max(maxParts, len(parts[i]))
	}
	for i, r := range t.rows {
		vals := make([]string, maxParts)
		copy(vals, parts[i])
		t.rows[i] = spliceRow(r, col, vals...)
	}
	base := t.names[col]
	for k := 2; k <= maxParts; k++ {
		t.insertName(col+k-1, base+"_Part"+strconv.Itoa(k))
	}
}

// SplitAfterChars splits col after n characters (clamped to the cell length)
// into col and "<col>_R".
func (t *Table) SplitAfterChars(col, n int) {
	t.splitEach(col, "_R", func(v string) (string, string) {
		rs := []rune(v)
		k := clamp(n, 0, len(rs))
		return string(rs[:k]), string(rs[k:])
	})
}

// SplitAfterWords keeps the first n whitespace-separated words in col and
// moves the rest into "<col>_afterWords". Words are re-joined with single
// spaces.
func (t *Table) SplitAfterWords(col, n int) {
	if n < 0 {
		n = 0
	}
	t.splitEach(col, "_afterWords", func(v string) (string, string) {
		tokens := strings.Fields(v)
		k := min(n, len(tokens))
		return strings.Join(tokens[:k], " "), strings.Join(tokens[k:], " ")
	})
}

// SplitOnRegex splits col around the first match of pattern (the match is
// removed) into col and "<col>_R". A blank pattern is a no-op.
func (t *Table) SplitOnRegex(col int, pattern string, caseInsensitive bool) error {
	rx, err := compileOptional(pattern, caseInsensitive)
	if err != nil || rx == nil {
		return err
	}
	t.splitEach(col, "_R", func(v string) (string, string) {
		loc := rx.FindStringIndex(v)
		if loc == nil {
			return v, ""
		}
		return v[:loc[0]], v[loc[1]:]
	})
	return nil
}

// SplitLastWords moves the last n words of col into "<col>_Tail".
func (t *Table) SplitLastWords(col, n int) {
	t.splitEach(col, "_Tail", func(v string) (string, string) {
		return cutLastWords(v, n)
	})
}

// SplitLastChars moves the last n characters of col into "<col>_lastChars".
// A cell no longer than n moves entirely.
func (t *Table) SplitLastChars(col, n int) {
	if n < 0 {
		n = 0
	}
	t.splitEach(col, "_lastChars", func(v string) (string, string) {
		if n == 0 {
			return v, ""
		}
		rs := []rune(v)
		if len(rs) <= n {
			return "", v
		}
		return string(rs[:len(rs)-n]), string(rs[len(rs)-n:])
	})
}
