// Package pipeline holds the Parser and Rule models and runs them: every
// Rule starts from a fresh table built from the source snapshot, applies
// its enabled steps in order, and yields either a table or a scalar.
//
// Example parser document (trimmed):
//
//	{
//	  "name": "Invoice",
//	  "version": "1.0.0",
//	  "missingPolicy": "Warn",
//	  "rules": [
//	    { "name": "Number", "steps": [ { "type": "ToScalarFromCell", "row": 0 } ] },
//	    { "name": "Items",  "steps": [ { "type": "KeepTableSection", "startRegex": "^Items", "endRegex": "^Total" } ],
//	      "partition": { "column": { "kind": "Name", "name": "Group" } } }
//	  ]
//	}
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"lineparser/internal/step"
	"lineparser/internal/table"
)

// DefaultVersion is the version given to a parser that does not declare one.
const DefaultVersion = "1.0.0"

// Parser is a named set of rules sharing one missing-column policy.
type Parser struct {
	Name          string      `json:"name"`
	Version       string      `json:"version"`
	MissingPolicy step.Policy `json:"missingPolicy"`
	Rules         []Rule      `json:"rules"`
}

// NewParser returns an empty parser with the default version and the Warn
// policy.
func NewParser(name string) *Parser {
	return &Parser{Name: name, Version: DefaultVersion, MissingPolicy: step.Warn}
}

// UnmarshalJSON fills defaults for fields the document leaves out.
func (p *Parser) UnmarshalJSON(b []byte) error {
	type plain Parser
	v := plain{Version: DefaultVersion, MissingPolicy: step.Warn}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if strings.TrimSpace(v.Version) == "" {
		v.Version = DefaultVersion
	}
	*p = Parser(v)
	return nil
}

// Rule returns the rule named name, compared case-insensitively.
func (p *Parser) Rule(name string) (*Rule, bool) {
	for i := range p.Rules {
		if strings.EqualFold(p.Rules[i].Name, name) {
			return &p.Rules[i], true
		}
	}
	return nil, false
}

// RuleNames lists rule names in declaration order.
func (p *Parser) RuleNames() []string {
	out := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		out[i] = r.Name
	}
	return out
}

// SetRule stores r, replacing an existing rule of the same name in place or
// appending it.
func (p *Parser) SetRule(r Rule) {
	for i := range p.Rules {
		if strings.EqualFold(p.Rules[i].Name, r.Name) {
			p.Rules[i] = r
			return
		}
	}
	p.Rules = append(p.Rules, r)
}

// RemoveRule deletes the named rule and reports whether it existed.
func (p *Parser) RemoveRule(name string) bool {
	for i := range p.Rules {
		if strings.EqualFold(p.Rules[i].Name, name) {
			p.Rules = append(p.Rules[:i], p.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// Clone deep-copies p including every step.
func (p *Parser) Clone() *Parser {
	c := *p
	c.Rules = make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		c.Rules[i] = r.Clone()
	}
	return &c
}

// Validate checks rule names and every step's literal parameters.
func (p *Parser) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pipeline: parser name is empty")
	}
	seen := make(map[string]bool, len(p.Rules))
	for i, r := range p.Rules {
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if key == "" {
			return fmt.Errorf("pipeline: rule %d: name is empty", i)
		}
		if seen[key] {
			return fmt.Errorf("pipeline: duplicate rule name %q", r.Name)
		}
		seen[key] = true
		if err := r.Steps.Validate(); err != nil {
			return fmt.Errorf("pipeline: rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// Rule is an ordered step list producing one named table or scalar.
type Rule struct {
	Name      string     `json:"name"`
	Steps     step.List  `json:"steps"`
	Partition *Partition `json:"partition,omitempty"`
}

// UnmarshalJSON also accepts the older "ruleSteps" key for the step list.
func (r *Rule) UnmarshalJSON(b []byte) error {
	type plain Rule
	var v struct {
		plain
		RuleSteps step.List `json:"ruleSteps"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Steps == nil && v.RuleSteps != nil {
		v.Steps = v.RuleSteps
	}
	*r = Rule(v.plain)
	return nil
}

// Clone deep-copies r.
func (r Rule) Clone() Rule {
	c := Rule{Name: r.Name, Steps: r.Steps.Clone()}
	if r.Partition != nil {
		p := *r.Partition
		c.Partition = &p
	}
	return c
}

// EnabledCount returns the number of enabled steps.
func (r Rule) EnabledCount() int {
	n := 0
	for _, s := range r.Steps {
		if step.Enabled(s) {
			n++
		}
	}
	return n
}

// Partition declares that a table rule's output is split into groups by the
// value of a key column. It is applied by formatters, never by the engine.
type Partition struct {
	// Column picks the key column on the final table.
	Column table.Selector `json:"column"`
	// AttributeName overrides the key attribute name; blank uses the key
	// column's name.
	AttributeName    string `json:"attributeName,omitempty"`
	KeepKeyInRows    bool   `json:"keepKeyInRows"`
	DropEmptyKeyRows bool   `json:"dropEmptyKeyRows"`
	// EmptyKeyLabel replaces an empty key when such rows are kept.
	EmptyKeyLabel   string `json:"emptyKeyLabel"`
	TrimKey         bool   `json:"trimKey"`
	CaseInsensitive bool   `json:"caseInsensitive"`
}

// DefaultPartition returns a partition on the first column with the usual
// defaults.
func DefaultPartition() Partition {
	return Partition{
		Column:          table.Index(0),
		EmptyKeyLabel:   "(empty)",
		TrimKey:         true,
		CaseInsensitive: true,
	}
}

// UnmarshalJSON fills defaults for fields the document leaves out.
func (p *Partition) UnmarshalJSON(b []byte) error {
	type plain Partition
	v := plain(DefaultPartition())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Partition(v)
	return nil
}
