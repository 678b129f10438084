package step

import (
	"fmt"

	"lineparser/internal/table"
)

// SplitOnKeyword splits a column at the first (or every) occurrence of a
// literal keyword.
type SplitOnKeyword struct {
	Meta
	Col             table.Selector `json:"col"`
	Keyword         string         `json:"keyword"`
	CaseInsensitive bool           `json:"caseInsensitive"`
	AllOccurrences  bool           `json:"allOccurrences"`
}

func (s *SplitOnKeyword) Kind() string { return KindSplitOnKeyword }

func (s *SplitOnKeyword) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	before := t.ColumnCount()
	t.SplitOnKeyword(col, s.Keyword, s.CaseInsensitive, s.AllOccurrences)
	log.Printf("SplitOnKeyword col=%d keyword=%q all=%t => +%d column(s)", col, s.Keyword, s.AllOccurrences, t.ColumnCount()-before)
	return nil
}

func (s *SplitOnKeyword) Describe() string {
	mode := "first"
	if s.AllOccurrences {
		mode = "all"
	}
	return fmt.Sprintf("SplitOnKeyword %s keyword=%q (%s)", s.Col, s.Keyword, mode)
}

func (s *SplitOnKeyword) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }
func (s *SplitOnKeyword) Clone() Step     { c := *s; return &c }

// SplitAfterChars splits a column after N characters.
type SplitAfterChars struct {
	Meta
	Col table.Selector `json:"col"`
	N   int            `json:"n"`
}

func (s *SplitAfterChars) Kind() string { return KindSplitAfterChars }

func (s *SplitAfterChars) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.SplitAfterChars(col, s.N)
	log.Printf("SplitAfterChars col=%d n=%d", col, s.N)
	return nil
}

func (s *SplitAfterChars) Describe() string { return fmt.Sprintf("SplitAfterChars %s n=%d", s.Col, s.N) }

func (s *SplitAfterChars) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "n", s.N)
}

func (s *SplitAfterChars) Clone() Step { c := *s; return &c }

// SplitAfterWords keeps the first W words and moves the rest to a new column.
type SplitAfterWords struct {
	Meta
	Col table.Selector `json:"col"`
	W   int            `json:"w"`
}

func (s *SplitAfterWords) Kind() string { return KindSplitAfterWords }

func (s *SplitAfterWords) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.SplitAfterWords(col, s.W)
	log.Printf("SplitAfterWords col=%d w=%d", col, s.W)
	return nil
}

func (s *SplitAfterWords) Describe() string { return fmt.Sprintf("SplitAfterWords %s w=%d", s.Col, s.W) }

func (s *SplitAfterWords) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "w", s.W)
}

func (s *SplitAfterWords) Clone() Step { c := *s; return &c }

// SplitOnRegexDelimiter splits a column around the first regex match.
type SplitOnRegexDelimiter struct {
	Meta
	Col             table.Selector `json:"col"`
	Pattern         string         `json:"pattern"`
	CaseInsensitive bool           `json:"caseInsensitive"`
}

func (s *SplitOnRegexDelimiter) Kind() string { return KindSplitOnRegexDelimiter }

func (s *SplitOnRegexDelimiter) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	if err := t.SplitOnRegex(col, s.Pattern, s.CaseInsensitive); err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("SplitOnRegexDelimiter col=%d rx=%s ci=%t", col, rx(s.Pattern), s.CaseInsensitive)
	return nil
}

func (s *SplitOnRegexDelimiter) Describe() string {
	return fmt.Sprintf("SplitOnRegexDelimiter %s rx=%s", s.Col, rx(s.Pattern))
}

func (s *SplitOnRegexDelimiter) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "pattern", s.Pattern, false)
}

func (s *SplitOnRegexDelimiter) Clone() Step { c := *s; return &c }

// SplitCutLastWordsToNewColumn moves the last W words into a new column.
type SplitCutLastWordsToNewColumn struct {
	Meta
	Col table.Selector `json:"col"`
	W   int            `json:"w"`
}

func (s *SplitCutLastWordsToNewColumn) Kind() string { return KindSplitCutLastWordsToNewColumn }

func (s *SplitCutLastWordsToNewColumn) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.SplitLastWords(col, s.W)
	log.Printf("SplitCutLastWordsToNewColumn col=%d w=%d", col, s.W)
	return nil
}

func (s *SplitCutLastWordsToNewColumn) Describe() string {
	return fmt.Sprintf("SplitCutLastWordsToNewColumn %s w=%d", s.Col, s.W)
}

func (s *SplitCutLastWordsToNewColumn) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "w", s.W)
}

func (s *SplitCutLastWordsToNewColumn) Clone() Step { c := *s; return &c }

// SplitCutLastCharsToNewColumn moves the last N characters into a new column.
type SplitCutLastCharsToNewColumn struct {
	Meta
	Col table.Selector `json:"col"`
	N   int            `json:"n"`
}

func (s *SplitCutLastCharsToNewColumn) Kind() string { return KindSplitCutLastCharsToNewColumn }

func (s *SplitCutLastCharsToNewColumn) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.SplitLastChars(col, s.N)
	log.Printf("SplitCutLastCharsToNewColumn col=%d n=%d", col, s.N)
	return nil
}

func (s *SplitCutLastCharsToNewColumn) Describe() string {
	return fmt.Sprintf("SplitCutLastCharsToNewColumn %s n=%d", s.Col, s.N)
}

func (s *SplitCutLastCharsToNewColumn) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "n", s.N)
}

func (s *SplitCutLastCharsToNewColumn) Clone() Step { c := *s; return &c }
