package table

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TrimAll trims surrounding whitespace from every stored cell.
func (t *Table) TrimAll() {
	for _, r := range t.rows {
		for c := range r {
			r[c] = strings.TrimSpace(r[c])
		}
	}
}

// Trim trims surrounding whitespace in col.
func (t *Table) Trim(col int) {
	t.update(col, func(_ int, v string) string { return strings.TrimSpace(v) })
}

// ReplaceRegex replaces every match of pattern in col. The replacement may
// reference groups as $1 or ${name}.
func (t *Table) ReplaceRegex(col int, pattern, replacement string) error {
	rx, err := compile(pattern, false)
	if err != nil {
		return err
	}
	t.update(col, func(_ int, v string) string { return rx.ReplaceAllString(v, replacement) })
	return nil
}

// Left keeps the first n characters of col, clamped to the cell length.
func (t *Table) Left(col, n int) {
	t.update(col, func(_ int, v string) string {
		rs := []rune(v)
		return string(rs[:clamp(n, 0, len(rs))])
	})
}

// Right keeps the last n characters of col, clamped to the cell length.
func (t *Table) Right(col, n int) {
	t.update(col, func(_ int, v string) string {
		rs := []rune(v)
		return string(rs[len(rs)-clamp(n, 0, len(rs)):])
	})
}

// CutLastWords removes the last n whitespace-separated words of col, keeping
// the remainder. n <= 0 is a no-op; n >= word count empties the cell.
func (t *Table) CutLastWords(col, n int) {
	if n <= 0 {
		return
	}
	t.update(col, func(_ int, v string) string {
		rest, _ := cutLastWords(v, n)
		return rest
	})
}

// Casing selects a case-folding transform.
type Casing int

const (
	Upper Casing = iota
	Lower
	Title
)

// ChangeCase folds col using the rules of locale (a BCP 47 tag; blank means
// language-neutral). For Title, lowerFirst lower-cases the rest of each word
// before capitalising the first letter; otherwise existing capitals survive.
func (t *Table) ChangeCase(col int, c Casing, locale string, lowerFirst bool) error {
	tag := language.Und
	if strings.TrimSpace(locale) != "" {
		var err error
		tag, err = language.Parse(strings.TrimSpace(locale))
		if err != nil {
			return fmt.Errorf("table: locale %q: %w", locale, err)
		}
	}
	var caser cases.Caser
	switch c {
	case Upper:
		caser = cases.Upper(tag)
	case Lower:
		caser = cases.Lower(tag)
	case Title:
		if lowerFirst {
			caser = cases.Title(tag)
		} else {
			caser = cases.Title(tag, cases.NoLower)
		}
	default:
		return fmt.Errorf("table: unknown casing %d", int(c))
	}
	t.update(col, func(_ int, v string) string { return caser.String(v) })
	return nil
}

// FillFromPrevious fills blank cells of col with the nearest non-blank value
// above them. Leading blanks stay blank.
func (t *Table) FillFromPrevious(col int) {
	last := ""
	t.update(col, func(_ int, v string) string {
		if strings.TrimSpace(v) != "" {
			last = v
			return v
		}
		if last != "" {
			return last
		}
		return v
	})
}

// FillFromNext fills blank cells of col with the nearest non-blank value
// below them. Trailing blanks stay blank.
func (t *Table) FillFromNext(col int) {
	next := ""
	for i := len(t.rows) - 1; i >= 0; i-- {
		v := cellOf(t.rows[i], col)
		if strings.TrimSpace(v) != "" {
			next = v
			continue
		}
		if next != "" {
			t.set(i, col, next)
		}
	}
}

// FillRowIndex fills blank cells of col with start + row index.
func (t *Table) FillRowIndex(col, start int) {
	t.update(col, func(i int, v string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return strconv.Itoa(start + i)
	})
}

// FillStatic fills blank cells of col with value.
func (t *Table) FillStatic(col int, value string) {
	t.update(col, func(_ int, v string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return value
	})
}

// cutLastWords splits s into whitespace-separated words, as SplitAfterWords
// does, and returns (all but the last n words, the last n words), each
// re-joined with single spaces.
func cutLastWords(s string, n int) (rest, last string) {
	if n <= 0 {
		return s, ""
	}
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return "", ""
	}
	if n >= len(tokens) {
		return "", strings.Join(tokens, " ")
	}
	cut := len(tokens) - n
	return strings.Join(tokens[:cut], " "), strings.Join(tokens[cut:], " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
