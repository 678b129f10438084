package step

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"lineparser/internal/table"
)

// TrimAll trims every cell of the table.
type TrimAll struct {
	Meta
}

func (s *TrimAll) Kind() string { return KindTrimAll }

func (s *TrimAll) Apply(t *table.Table, _ Policy, log Logger) error {
	t.TrimAll()
	log.Printf("TrimAll")
	return nil
}

func (s *TrimAll) Describe() string { return "TrimAll" }
func (s *TrimAll) Validate() error  { return nil }
func (s *TrimAll) Clone() Step      { c := *s; return &c }

// TransformTrim trims one column.
type TransformTrim struct {
	Meta
	Col table.Selector `json:"col"`
}

func (s *TransformTrim) Kind() string { return KindTransformTrim }

func (s *TransformTrim) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.Trim(col)
	log.Printf("Trim col=%d", col)
	return nil
}

func (s *TransformTrim) Describe() string { return fmt.Sprintf("Trim %s", s.Col) }
func (s *TransformTrim) Validate() error  { return checkSelector(s.Kind(), "col", s.Col) }
func (s *TransformTrim) Clone() Step      { c := *s; return &c }

// TransformReplaceRegex rewrites every match of Pattern in a column.
type TransformReplaceRegex struct {
	Meta
	Col         table.Selector `json:"col"`
	Pattern     string         `json:"pattern"`
	Replacement string         `json:"replacement"`
}

func (s *TransformReplaceRegex) Kind() string { return KindTransformReplaceRegex }

func (s *TransformReplaceRegex) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	if err := t.ReplaceRegex(col, s.Pattern, s.Replacement); err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("Replace %s -> %q col=%d", rx(s.Pattern), s.Replacement, col)
	return nil
}

func (s *TransformReplaceRegex) Describe() string {
	return fmt.Sprintf("Replace %s %s -> %q", s.Col, rx(s.Pattern), s.Replacement)
}

func (s *TransformReplaceRegex) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "pattern", s.Pattern, true)
}

func (s *TransformReplaceRegex) Clone() Step { c := *s; return &c }

// TransformLeft keeps the first N characters of a column.
type TransformLeft struct {
	Meta
	Col table.Selector `json:"col"`
	N   int            `json:"n"`
}

func (s *TransformLeft) Kind() string { return KindTransformLeft }

func (s *TransformLeft) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.Left(col, s.N)
	log.Printf("Left %d col=%d", s.N, col)
	return nil
}

func (s *TransformLeft) Describe() string { return fmt.Sprintf("Left %s n=%d", s.Col, s.N) }

func (s *TransformLeft) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "n", s.N)
}

func (s *TransformLeft) Clone() Step { c := *s; return &c }

// TransformRight keeps the last N characters of a column.
type TransformRight struct {
	Meta
	Col table.Selector `json:"col"`
	N   int            `json:"n"`
}

func (s *TransformRight) Kind() string { return KindTransformRight }

func (s *TransformRight) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.Right(col, s.N)
	log.Printf("Right %d col=%d", s.N, col)
	return nil
}

func (s *TransformRight) Describe() string { return fmt.Sprintf("Right %s n=%d", s.Col, s.N) }

func (s *TransformRight) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	return checkCount(s.Kind(), "n", s.N)
}

func (s *TransformRight) Clone() Step { c := *s; return &c }

// TransformCutLastWords drops the last W words of a column.
type TransformCutLastWords struct {
	Meta
	Col table.Selector `json:"col"`
	W   int            `json:"w"`
}

func (s *TransformCutLastWords) Kind() string { return KindTransformCutLastWords }

func (s *TransformCutLastWords) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.CutLastWords(col, s.W)
	log.Printf("CutLastWords w=%d col=%d", s.W, col)
	return nil
}

func (s *TransformCutLastWords) Describe() string {
	return fmt.Sprintf("CutLastWords %s w=%d", s.Col, s.W)
}

func (s *TransformCutLastWords) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }
func (s *TransformCutLastWords) Clone() Step     { c := *s; return &c }

// FillDirection picks the neighbour FillEmpty copies from.
type FillDirection int

const (
	Previous FillDirection = iota
	Next
)

func (d FillDirection) String() string {
	if d == Next {
		return "Next"
	}
	return "Previous"
}

func (d FillDirection) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *FillDirection) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("step: fill direction: %w", err)
	}
	switch {
	case strings.EqualFold(s, "Previous"):
		*d = Previous
	case strings.EqualFold(s, "Next"):
		*d = Next
	default:
		return fmt.Errorf("step: unknown fill direction %q", s)
	}
	return nil
}

// FillEmpty fills blank cells from the nearest non-blank neighbour.
type FillEmpty struct {
	Meta
	Col       table.Selector `json:"col"`
	Direction FillDirection  `json:"direction"`
}

func (s *FillEmpty) Kind() string { return KindFillEmpty }

func (s *FillEmpty) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	if s.Direction == Next {
		t.FillFromNext(col)
	} else {
		t.FillFromPrevious(col)
	}
	log.Printf("FillEmpty direction=%s col=%d", s.Direction, col)
	return nil
}

func (s *FillEmpty) Describe() string {
	return fmt.Sprintf("FillEmpty %s from %s", s.Col, strings.ToLower(s.Direction.String()))
}

func (s *FillEmpty) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }
func (s *FillEmpty) Clone() Step     { c := *s; return &c }

// FillEmptyWithRowIndex fills blank cells with StartIndex plus the row index.
type FillEmptyWithRowIndex struct {
	Meta
	Col        table.Selector `json:"col"`
	StartIndex int            `json:"startIndex"`
}

func (s *FillEmptyWithRowIndex) Kind() string { return KindFillEmptyWithRowIndex }

func (s *FillEmptyWithRowIndex) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.FillRowIndex(col, s.StartIndex)
	log.Printf("FillEmptyWithRowIndex col=%d start=%d", col, s.StartIndex)
	return nil
}

func (s *FillEmptyWithRowIndex) Describe() string {
	return fmt.Sprintf("FillEmptyWithRowIndex %s start=%d", s.Col, s.StartIndex)
}

func (s *FillEmptyWithRowIndex) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }
func (s *FillEmptyWithRowIndex) Clone() Step     { c := *s; return &c }

// FillEmptyWithStaticValue fills blank cells with Value.
type FillEmptyWithStaticValue struct {
	Meta
	Col   table.Selector `json:"col"`
	Value string         `json:"value"`
}

func (s *FillEmptyWithStaticValue) Kind() string { return KindFillEmptyWithStaticValue }

func (s *FillEmptyWithStaticValue) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	t.FillStatic(col, s.Value)
	log.Printf("FillEmptyWithStaticValue col=%d value=%q", col, s.Value)
	return nil
}

func (s *FillEmptyWithStaticValue) Describe() string {
	return fmt.Sprintf("FillEmptyWithStaticValue %s value=%q", s.Col, s.Value)
}

func (s *FillEmptyWithStaticValue) Validate() error { return checkSelector(s.Kind(), "col", s.Col) }
func (s *FillEmptyWithStaticValue) Clone() Step     { c := *s; return &c }

// TransformToUpper upper-cases a column using the rules of Culture.
type TransformToUpper struct {
	Meta
	Col     table.Selector `json:"col"`
	Culture string         `json:"culture,omitempty"`
}

func (s *TransformToUpper) Kind() string { return KindTransformToUpper }

func (s *TransformToUpper) Apply(t *table.Table, p Policy, log Logger) error {
	return changeCase(t, s.Kind(), s.Col, table.Upper, s.Culture, false, p, log)
}

func (s *TransformToUpper) Describe() string { return describeCase("ToUpper", s.Col, s.Culture) }
func (s *TransformToUpper) Validate() error  { return checkCase(s.Kind(), s.Col, s.Culture) }
func (s *TransformToUpper) Clone() Step      { c := *s; return &c }

// TransformToLower lower-cases a column using the rules of Culture.
type TransformToLower struct {
	Meta
	Col     table.Selector `json:"col"`
	Culture string         `json:"culture,omitempty"`
}

func (s *TransformToLower) Kind() string { return KindTransformToLower }

func (s *TransformToLower) Apply(t *table.Table, p Policy, log Logger) error {
	return changeCase(t, s.Kind(), s.Col, table.Lower, s.Culture, false, p, log)
}

func (s *TransformToLower) Describe() string { return describeCase("ToLower", s.Col, s.Culture) }
func (s *TransformToLower) Validate() error  { return checkCase(s.Kind(), s.Col, s.Culture) }
func (s *TransformToLower) Clone() Step      { c := *s; return &c }

// TransformToTitleCase capitalises each word of a column. With
// ForceLowerFirst the rest of each word is lower-cased first.
type TransformToTitleCase struct {
	Meta
	Col             table.Selector `json:"col"`
	ForceLowerFirst bool           `json:"forceLowerFirst"`
	Culture         string         `json:"culture,omitempty"`
}

func (s *TransformToTitleCase) Kind() string { return KindTransformToTitleCase }

func (s *TransformToTitleCase) Apply(t *table.Table, p Policy, log Logger) error {
	return changeCase(t, s.Kind(), s.Col, table.Title, s.Culture, s.ForceLowerFirst, p, log)
}

func (s *TransformToTitleCase) Describe() string {
	return describeCase("ToTitleCase", s.Col, s.Culture) + fmt.Sprintf(" lowerFirst=%t", s.ForceLowerFirst)
}

func (s *TransformToTitleCase) Validate() error { return checkCase(s.Kind(), s.Col, s.Culture) }
func (s *TransformToTitleCase) Clone() Step     { c := *s; return &c }

func changeCase(t *table.Table, kind string, sel table.Selector, c table.Casing, culture string, lowerFirst bool, p Policy, log Logger) error {
	col, ok, err := resolve(t, sel, p, log)
	if !ok {
		return err
	}
	if err := t.ChangeCase(col, c, culture, lowerFirst); err != nil {
		return invalid(kind, err)
	}
	log.Printf("%s col=%d culture=%q", strings.TrimPrefix(kind, "Transform"), col, culture)
	return nil
}

func describeCase(name string, sel table.Selector, culture string) string {
	if culture == "" {
		return fmt.Sprintf("%s %s", name, sel)
	}
	return fmt.Sprintf("%s %s culture=%s", name, sel, culture)
}

func checkCase(kind string, sel table.Selector, culture string) error {
	if err := checkSelector(kind, "col", sel); err != nil {
		return err
	}
	if c := strings.TrimSpace(culture); c != "" {
		if _, err := language.Parse(c); err != nil {
			return fmt.Errorf("%s: %w: culture %q: %v", kind, ErrInvalidParam, culture, err)
		}
	}
	return nil
}
