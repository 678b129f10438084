// Package router dispatches a parser run to a second parser chosen by a tag:
// the scalar produced by a designated rule of the owner parser. Routes are
// tried in order; the first match wins, otherwise the default target is
// used. A router that cannot decide is not an error for the caller, which
// falls back to running the owner parser alone.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTagRule is the rule name used when a router does not set one.
const DefaultTagRule = "Tag"

// ErrNotRouted reports a recoverable routing failure: the tag could not be
// computed, or nothing matched and there is no default.
var ErrNotRouted = errors.New("not routed")

// MatchKind selects how a route compares the tag.
type MatchKind int

const (
	Exact MatchKind = iota
	Regex
)

var matchKindNames = [...]string{"Exact", "Regex"}

func (k MatchKind) String() string {
	if k < 0 || int(k) >= len(matchKindNames) {
		return "Unknown"
	}
	return matchKindNames[k]
}

func (k MatchKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(matchKindNames) {
		return nil, fmt.Errorf("router: invalid match kind %d", int(k))
	}
	return []byte(matchKindNames[k]), nil
}

func (k *MatchKind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, n := range matchKindNames {
		if strings.EqualFold(n, s) {
			*k = MatchKind(i)
			return nil
		}
	}
	return fmt.Errorf("router: unknown match kind %q", s)
}

// Route maps tags to a target parser.
type Route struct {
	Kind            MatchKind `json:"kind"`
	Pattern         string    `json:"pattern"`
	CaseInsensitive bool      `json:"caseInsensitive"`
	TargetParser    string    `json:"targetParser"`
}

// UnmarshalJSON defaults CaseInsensitive to true.
func (r *Route) UnmarshalJSON(b []byte) error {
	type plain Route
	v := plain{CaseInsensitive: true}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Route(v)
	return nil
}

func (r Route) String() string {
	kind := "EXACT"
	if r.Kind == Regex {
		kind = "REGEX"
	}
	ci := "cs"
	if r.CaseInsensitive {
		ci = "ci"
	}
	return fmt.Sprintf("%s '%s' -> %s (%s)", kind, r.Pattern, r.TargetParser, ci)
}

// Match reports whether tag selects this route. An invalid pattern never
// matches.
func (r Route) Match(tag string) bool {
	switch r.Kind {
	case Exact:
		if r.CaseInsensitive {
			return strings.EqualFold(tag, r.Pattern)
		}
		return tag == r.Pattern
	case Regex:
		pat := r.Pattern
		if r.CaseInsensitive {
			pat = "(?i)" + pat
		}
		rx, err := regexp.Compile(pat)
		if err != nil {
			return false
		}
		return rx.MatchString(tag)
	}
	return false
}

// Validate checks the route's pattern and target.
func (r Route) Validate() error {
	if strings.TrimSpace(r.TargetParser) == "" {
		return fmt.Errorf("router: route %s: target parser is empty", r)
	}
	if r.Kind == Regex {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("router: route %s: %w", r, err)
		}
	}
	return nil
}

// Router is the routing table of one owner parser.
type Router struct {
	TagRuleName         string   `json:"tagRuleName"`
	Routes              []Route  `json:"routes"`
	DefaultTargetParser string   `json:"defaultTargetParser,omitempty"`
	ExcludeRules        []string `json:"excludeRules,omitempty"`
}

// New returns an empty router using the default tag rule name.
func New() *Router { return &Router{TagRuleName: DefaultTagRule} }

// UnmarshalJSON defaults TagRuleName.
func (r *Router) UnmarshalJSON(b []byte) error {
	type plain Router
	v := plain{TagRuleName: DefaultTagRule}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Router(v)
	return nil
}

// TagRule returns the tag rule name, or DefaultTagRule when blank.
func (r *Router) TagRule() string {
	if n := strings.TrimSpace(r.TagRuleName); n != "" {
		return n
	}
	return DefaultTagRule
}

// Configured reports whether the router can select anything at all.
func (r *Router) Configured() bool {
	return len(r.Routes) > 0 || strings.TrimSpace(r.DefaultTargetParser) != ""
}

// Decision is the outcome of matching a tag.
type Decision struct {
	Target string
	// Route is the index of the matching route, or -1 for the default.
	Route int
}

// Match walks routes in order. The first match wins; otherwise the default
// target is used. Without either, the error wraps ErrNotRouted.
func (r *Router) Match(tag string) (Decision, error) {
	for i, rt := range r.Routes {
		if rt.Match(tag) {
			return Decision{Target: rt.TargetParser, Route: i}, nil
		}
	}
	if d := strings.TrimSpace(r.DefaultTargetParser); d != "" {
		return Decision{Target: d, Route: -1}, nil
	}
	return Decision{Route: -1}, fmt.Errorf("router: %w: no route matched tag %q and no default", ErrNotRouted, tag)
}

// Excluded reports whether rule is listed in ExcludeRules.
func (r *Router) Excluded(rule string) bool {
	for _, e := range r.ExcludeRules {
		if strings.EqualFold(strings.TrimSpace(e), rule) {
			return true
		}
	}
	return false
}

// Clone deep-copies r.
func (r *Router) Clone() *Router {
	c := *r
	c.Routes = append([]Route(nil), r.Routes...)
	c.ExcludeRules = append([]string(nil), r.ExcludeRules...)
	return &c
}

// Describe renders the router as a short multi-line listing.
func (r *Router) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tag rule: %s\n", r.TagRule())
	if len(r.Routes) == 0 {
		sb.WriteString("No routes.\n")
	} else {
		sb.WriteString("Routes:\n")
		for i, rt := range r.Routes {
			fmt.Fprintf(&sb, " %d) %s\n", i+1, rt)
		}
	}
	if r.DefaultTargetParser != "" {
		fmt.Fprintf(&sb, "Default: %s\n", r.DefaultTargetParser)
	}
	if len(r.ExcludeRules) > 0 {
		fmt.Fprintf(&sb, "ExcludeRules: %s\n", strings.Join(r.ExcludeRules, ", "))
	}
	return sb.String()
}
