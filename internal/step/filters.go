package step

import (
	"fmt"

	"lineparser/internal/table"
)

// KeepTableSection keeps the rows between a start and an end marker,
// evaluated independently on every page.
type KeepTableSection struct {
	Meta
	Col             table.Selector `json:"col"`
	StartRegex      string         `json:"startRegex"`
	EndRegex        string         `json:"endRegex"`
	IncludeStart    bool           `json:"includeStart"`
	IncludeEnd      bool           `json:"includeEnd"`
	CaseInsensitive bool           `json:"caseInsensitive"`
}

func (s *KeepTableSection) Kind() string { return KindKeepTableSection }

func (s *KeepTableSection) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	n, err := t.KeepSection(col, s.StartRegex, s.EndRegex, s.IncludeStart, s.IncludeEnd, s.CaseInsensitive)
	if err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("KeepTableSection col=%d start=%s end=%s ci=%t => %d row(s)", col, rx(s.StartRegex), rx(s.EndRegex), s.CaseInsensitive, n)
	return nil
}

func (s *KeepTableSection) Describe() string {
	return fmt.Sprintf("KeepTableSection %s start=%s end=%s", s.Col, rx(s.StartRegex), rx(s.EndRegex))
}

func (s *KeepTableSection) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	if err := checkPattern(s.Kind(), "startRegex", s.StartRegex, true); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "endRegex", s.EndRegex, false)
}

func (s *KeepTableSection) Clone() Step { c := *s; return &c }

// KeepRowsWhereRegex keeps rows whose cell matches Regex.
type KeepRowsWhereRegex struct {
	Meta
	Col             table.Selector `json:"col"`
	Regex           string         `json:"regex"`
	CaseInsensitive bool           `json:"caseInsensitive,omitempty"`
}

func (s *KeepRowsWhereRegex) Kind() string { return KindKeepRowsWhereRegex }

func (s *KeepRowsWhereRegex) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	n, err := t.KeepMatching(col, s.Regex, s.CaseInsensitive)
	if err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("KeepRowsWhereRegex col=%d rx=%s => %d row(s)", col, rx(s.Regex), n)
	return nil
}

func (s *KeepRowsWhereRegex) Describe() string {
	return fmt.Sprintf("KeepRowsWhereRegex %s rx=%s", s.Col, rx(s.Regex))
}

func (s *KeepRowsWhereRegex) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "regex", s.Regex, false)
}

func (s *KeepRowsWhereRegex) Clone() Step { c := *s; return &c }

// KeepRowsWhereNotEmpty drops rows whose cell is blank.
type KeepRowsWhereNotEmpty struct {
	Meta
	Col table.Selector `json:"col"`
}

func (s *KeepRowsWhereNotEmpty) Kind() string { return KindKeepRowsWhereNotEmpty }

func (s *KeepRowsWhereNotEmpty) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	n := t.KeepNotEmpty(col)
	log.Printf("KeepRowsWhereNotEmpty col=%d => %d row(s)", col, n)
	return nil
}

func (s *KeepRowsWhereNotEmpty) Describe() string {
	return fmt.Sprintf("KeepRowsWhereNotEmpty %s", s.Col)
}

func (s *KeepRowsWhereNotEmpty) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }

func (s *KeepRowsWhereNotEmpty) Clone() Step { c := *s; return &c }

// DropFirstRow removes the first row, typically a header line.
type DropFirstRow struct {
	Meta
}

func (s *DropFirstRow) Kind() string { return KindDropFirstRow }

func (s *DropFirstRow) Apply(t *table.Table, _ Policy, log Logger) error {
	t.DropFirstRow()
	log.Printf("DropFirstRow => %d row(s)", t.Len())
	return nil
}

func (s *DropFirstRow) Describe() string { return "DropFirstRow" }
func (s *DropFirstRow) Validate() error  { return nil }
func (s *DropFirstRow) Clone() Step      { c := *s; return &c }
