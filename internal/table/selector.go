package table

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SelectorKind discriminates how a Selector picks a column.
type SelectorKind int

const (
	ByIndexKind SelectorKind = iota
	ByNameKind
	ByNameRegexKind
	LastKind
)

var selectorKindNames = [...]string{"Index", "Name", "NameRegex", "Last"}

func (k SelectorKind) String() string {
	if k < 0 || int(k) >= len(selectorKindNames) {
		return "Unknown"
	}
	return selectorKindNames[k]
}

// MarshalText encodes the kind as its name.
func (k SelectorKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(selectorKindNames) {
		return nil, fmt.Errorf("table: invalid selector kind %d", int(k))
	}
	return []byte(selectorKindNames[k]), nil
}

// UnmarshalText accepts the kind name case-insensitively.
func (k *SelectorKind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, n := range selectorKindNames {
		if strings.EqualFold(n, s) {
			*k = SelectorKind(i)
			return nil
		}
	}
	return fmt.Errorf("table: unknown selector kind %q", s)
}

// Selector is a late-bound column reference. It is plain data: resolving it
// against a table never mutates either and never panics.
type Selector struct {
	Kind            SelectorKind `json:"kind"`
	Index           int          `json:"index"`
	Name            string       `json:"name,omitempty"`
	Pattern         string       `json:"pattern,omitempty"`
	CaseInsensitive bool         `json:"caseInsensitive,omitempty"`
}

// Index selects the column at position i.
func Index(i int) Selector { return Selector{Kind: ByIndexKind, Index: i} }

// Name selects the first column whose name equals name case-insensitively.
func Name(name string) Selector { return Selector{Kind: ByNameKind, Index: -1, Name: name} }

// NameRegex selects the first column whose name matches pattern.
func NameRegex(pattern string, caseInsensitive bool) Selector {
	return Selector{Kind: ByNameRegexKind, Index: -1, Pattern: pattern, CaseInsensitive: caseInsensitive}
}

// Last selects the right-most column.
func Last() Selector { return Selector{Kind: LastKind, Index: -1} }

// UnmarshalJSON defaults a missing index to -1 for non-index selectors so a
// decoded Name selector does not silently become Index(0).
func (s *Selector) UnmarshalJSON(b []byte) error {
	type plain Selector
	p := plain{Index: -1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Selector(p)
	return nil
}

// Resolve returns the concrete column index of s against t's current shape.
// ok is false when the reference cannot be resolved; an invalid name pattern
// is reported as a resolution failure.
func (s Selector) Resolve(t *Table) (idx int, ok bool) {
	if t == nil || len(t.names) == 0 {
		return -1, false
	}
	switch s.Kind {
	case ByIndexKind:
		if s.Index >= 0 && s.Index < len(t.names) {
			return s.Index, true
		}
	case ByNameKind:
		if s.Name == "" {
			return -1, false
		}
		for i, n := range t.names {
			if strings.EqualFold(n, s.Name) {
				return i, true
			}
		}
	case ByNameRegexKind:
		if s.Pattern == "" {
			return -1, false
		}
		pat := s.Pattern
		if s.CaseInsensitive {
			pat = "(?i)" + pat
		}
		rx, err := regexp.Compile(pat)
		if err != nil {
			return -1, false
		}
		for i, n := range t.names {
			if rx.MatchString(n) {
				return i, true
			}
		}
	case LastKind:
		return len(t.names) - 1, true
	}
	return -1, false
}

func (s Selector) String() string {
	switch s.Kind {
	case ByIndexKind:
		return fmt.Sprintf("Index(%d)", s.Index)
	case ByNameKind:
		return fmt.Sprintf("Name(%q)", s.Name)
	case ByNameRegexKind:
		return fmt.Sprintf("NameRegex(%q)", s.Pattern)
	case LastKind:
		return "Last()"
	}
	return "Unknown"
}
