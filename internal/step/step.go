// Package step defines the closed set of table mutations a Rule is built
// from. Every step is plain data (patterns, counts, flags, column selectors),
// serialises to a tagged JSON object and clones by value, so a step list can
// be persisted, copied between an editing session and a saved Rule, and
// replayed any number of times against a fresh table.
package step

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"lineparser/internal/table"
)

var (
	// ErrColumnNotFound reports a selector that did not resolve under the
	// Fail policy.
	ErrColumnNotFound = errors.New("column not found")
	// ErrInvalidParam reports a malformed pattern or literal parameter.
	ErrInvalidParam = errors.New("invalid step parameter")
	// ErrUnknownKind reports an unrecognised step discriminator.
	ErrUnknownKind = errors.New("unknown step kind")
)

// Logger receives one human-readable line per event. It is the only side
// channel a step may write to.
type Logger func(msg string)

// Discard is a Logger that drops everything.
func Discard(string) {}

// WarnMarker ends every message logged under the Warn policy.
const WarnMarker = "[warn]"

// IsWarning reports whether msg was logged under the Warn policy. Prefixes
// added by Prefixed do not affect the result.
func IsWarning(msg string) bool { return strings.HasSuffix(msg, WarnMarker) }

// Printf formats one message. A nil Logger drops it.
func (l Logger) Printf(format string, args ...any) {
	if l != nil {
		l(fmt.Sprintf(format, args...))
	}
}

// Prefixed returns a Logger that prepends prefix to every message.
func (l Logger) Prefixed(prefix string) Logger {
	if l == nil {
		return nil
	}
	return func(msg string) { l(prefix + msg) }
}

// Policy decides what happens when a column selector does not resolve.
type Policy int

const (
	// Skip makes the step a silent no-op.
	Skip Policy = iota
	// Warn makes the step a no-op and logs the failure.
	Warn
	// Fail aborts the enclosing rule.
	Fail
)

var policyNames = [...]string{"Skip", "Warn", "Fail"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return "Unknown"
	}
	return policyNames[p]
}

func (p Policy) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(policyNames) {
		return nil, fmt.Errorf("step: invalid policy %d", int(p))
	}
	return []byte(policyNames[p]), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, n := range policyNames {
		if strings.EqualFold(n, s) {
			*p = Policy(i)
			return nil
		}
	}
	return fmt.Errorf("step: unknown missing-column policy %q", s)
}

// Meta holds the fields shared by every step.
type Meta struct {
	Enabled bool   `json:"enabled"`
	Comment string `json:"comment,omitempty"`
}

func (m *Meta) meta() *Meta { return m }

func on() Meta { return Meta{Enabled: true} }

// Step is one serialisable mutation. The set of implementations is closed:
// every Step is declared in this package and registered in the codec.
type Step interface {
	// Kind is the stable discriminator used in the persisted form.
	Kind() string
	// Apply mutates t in place. Selectors are resolved against t as it is
	// now; unresolved selectors are handled per policy.
	Apply(t *table.Table, policy Policy, log Logger) error
	// Describe returns a one-line summary for listings and run logs.
	Describe() string
	// Validate checks literal parameters without a table.
	Validate() error
	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Step

	meta() *Meta
}

// Enabled reports whether s takes part in rule execution.
func Enabled(s Step) bool { return s.meta().Enabled }

// SetEnabled switches s on or off.
func SetEnabled(s Step, enabled bool) { s.meta().Enabled = enabled }

// Comment returns the free-form note attached to s.
func Comment(s Step) string { return s.meta().Comment }

// SetComment attaches a free-form note to s.
func SetComment(s Step, c string) { s.meta().Comment = c }

// resolve turns sel into a column index. ok is false when the step must not
// run; err is non-nil only under the Fail policy.
func resolve(t *table.Table, sel table.Selector, policy Policy, log Logger) (col int, ok bool, err error) {
	if col, ok := sel.Resolve(t); ok {
		return col, true, nil
	}
	switch policy {
	case Skip:
		return -1, false, nil
	case Warn:
		log.Printf("column not found for selector %s %s", sel, WarnMarker)
		return -1, false, nil
	default:
		return -1, false, fmt.Errorf("%w: selector %s", ErrColumnNotFound, sel)
	}
}

// invalid wraps a table-level failure (bad pattern, bad index) as a step
// parameter error.
func invalid(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", kind, ErrInvalidParam, err)
}

func checkPattern(kind, field, pattern string, required bool) error {
	if strings.TrimSpace(pattern) == "" {
		if required {
			return fmt.Errorf("%s: %w: %s is empty", kind, ErrInvalidParam, field)
		}
		return nil
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%s: %w: %s: %v", kind, ErrInvalidParam, field, err)
	}
	return nil
}

func checkCount(kind, field string, n int) error {
	if n < 0 {
		return fmt.Errorf("%s: %w: %s must be >= 0, got %d", kind, ErrInvalidParam, field, n)
	}
	return nil
}

func checkSelector(kind, field string, sel table.Selector) error {
	switch sel.Kind {
	case table.ByIndexKind:
		if sel.Index < 0 {
			return fmt.Errorf("%s: %w: %s index must be >= 0", kind, ErrInvalidParam, field)
		}
	case table.ByNameKind:
		if strings.TrimSpace(sel.Name) == "" {
			return fmt.Errorf("%s: %w: %s name is empty", kind, ErrInvalidParam, field)
		}
	case table.ByNameRegexKind:
		return checkPattern(kind, field+".pattern", sel.Pattern, true)
	case table.LastKind:
	default:
		return fmt.Errorf("%s: %w: %s has unknown kind", kind, ErrInvalidParam, field)
	}
	return nil
}

// rx renders a pattern for descriptions.
func rx(p string) string { return "/" + p + "/" }
