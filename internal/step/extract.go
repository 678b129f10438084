package step

import (
	"fmt"

	"lineparser/internal/table"
)

// RegexExtract captures the first or every match of Pattern in a column.
type RegexExtract struct {
	Meta
	Col                     table.Selector `json:"col"`
	Pattern                 string         `json:"pattern"`
	CaseInsensitive         bool           `json:"caseInsensitive"`
	Group                   int            `json:"group"`
	AllMatches              bool           `json:"allMatches"`
	InPlace                 bool           `json:"inPlace"`
	ExpandToMultipleColumns bool           `json:"expandToMultipleColumns"`
	NewColumnName           string         `json:"newColumnName,omitempty"`
	JoinSeparator           string         `json:"joinSeparator"`
}

func (s *RegexExtract) Kind() string { return KindRegexExtract }

func (s *RegexExtract) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	err = t.Extract(col, table.ExtractOptions{
		Pattern:         s.Pattern,
		CaseInsensitive: s.CaseInsensitive,
		Group:           s.Group,
		AllMatches:      s.AllMatches,
		InPlace:         s.InPlace,
		Expand:          s.ExpandToMultipleColumns,
		NewColumn:       s.NewColumnName,
		Separator:       s.JoinSeparator,
	})
	if err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("RegexExtract col=%d rx=%s all=%t inPlace=%t expand=%t", col, rx(s.Pattern), s.AllMatches, s.InPlace, s.ExpandToMultipleColumns)
	return nil
}

func (s *RegexExtract) Describe() string {
	out := "new column"
	switch {
	case s.InPlace:
		out = "in place"
	case s.AllMatches && s.ExpandToMultipleColumns:
		out = "expand"
	}
	matches := "first"
	if s.AllMatches {
		matches = "all"
	}
	return fmt.Sprintf("RegexExtract %s rx=%s group=%d %s, %s", s.Col, rx(s.Pattern), s.Group, matches, out)
}

func (s *RegexExtract) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	if err := checkPattern(s.Kind(), "pattern", s.Pattern, true); err != nil {
		return err
	}
	return checkCount(s.Kind(), "group", s.Group)
}

func (s *RegexExtract) Clone() Step { c := *s; return &c }

// ToScalarFromCell collapses the table to one cell, optionally re-extracted
// through a capture group. Nothing can act on rows or columns afterwards.
type ToScalarFromCell struct {
	Meta
	Col     table.Selector `json:"col"`
	Row     int            `json:"row"`
	Pattern string         `json:"pattern,omitempty"`
	Group   int            `json:"group"`
	Trim    bool           `json:"trim"`
}

func (s *ToScalarFromCell) Kind() string { return KindToScalarFromCell }

func (s *ToScalarFromCell) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	if err := t.ToScalar(col, s.Row, s.Pattern, s.Group, s.Trim); err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("ToScalarFromCell col=%d row=%d rx=%t => %q", col, s.Row, s.Pattern != "", t.ScalarValue())
	return nil
}

func (s *ToScalarFromCell) Describe() string {
	if s.Pattern == "" {
		return fmt.Sprintf("ToScalar %s row=%d", s.Col, s.Row)
	}
	return fmt.Sprintf("ToScalar %s row=%d rx=%s group=%d", s.Col, s.Row, rx(s.Pattern), s.Group)
}

func (s *ToScalarFromCell) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	if err := checkCount(s.Kind(), "row", s.Row); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "pattern", s.Pattern, false)
}

func (s *ToScalarFromCell) Clone() Step { c := *s; return &c }
