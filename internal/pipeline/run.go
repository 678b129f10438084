package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lineparser/internal/metrics"
	"lineparser/internal/step"
	"lineparser/internal/table"
)

// ErrRuleNotFound reports a rule name absent from a parser.
var ErrRuleNotFound = errors.New("rule not found")

// Source produces the fresh table every rule run starts from. Each call must
// return an independent table.
type Source interface {
	Table() *table.Table
}

// StepError is a hard step failure that aborted a rule.
type StepError struct {
	Rule  string
	Index int // position in the rule's step list
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("rule %q: step %d (%s): %v", e.Rule, e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RunRule executes r against a fresh table from src and returns the final
// table, which may be in scalar mode. A step error aborts the rule.
func RunRule(parser string, r Rule, policy step.Policy, src Source, log step.Logger) (*table.Table, error) {
	start := time.Now()
	t := src.Table()
	total := r.EnabledCount()
	log.Printf("Running %s › %s: %d step(s). Policy=%s", parser, r.Name, total, policy)

	stepLog := log.Prefixed("    ")
	n := 0
	for i, s := range r.Steps {
		if !step.Enabled(s) {
			log.Printf("(skipped) %s", s.Describe())
			continue
		}
		n++
		if t.IsScalar() {
			log.Printf("[%d/%d] %s (not applied: rule output is already a scalar)", n, total, s.Describe())
			continue
		}
		log.Printf("[%d/%d] %s", n, total, s.Describe())
		err := s.Apply(t, policy, stepLog)
		metrics.RecordStep(s.Kind(), err)
		if err != nil {
			serr := &StepError{Rule: r.Name, Index: i, Kind: s.Kind(), Err: err}
			metrics.RecordRule(parser, r.Name, "", 0, serr, time.Since(start))
			return nil, serr
		}
	}

	if t.IsScalar() {
		log.Printf("Rule '%s' produced a scalar value.", r.Name)
		metrics.RecordRule(parser, r.Name, "scalar", 0, nil, time.Since(start))
	} else {
		log.Printf("Rule '%s' produced %d row(s) with %d column(s).", r.Name, t.Len(), t.ColumnCount())
		metrics.RecordRule(parser, r.Name, "table", t.Len(), nil, time.Since(start))
	}
	return t, nil
}

// RunRule runs the named rule of p.
func (p *Parser) RunRule(name string, src Source, log step.Logger) (*table.Table, error) {
	r, ok := p.Rule(name)
	if !ok {
		return nil, fmt.Errorf("pipeline: %w: %q in parser %q", ErrRuleNotFound, name, p.Name)
	}
	return RunRule(p.Name, *r, p.MissingPolicy, src, log)
}

// RunOptions tunes RunParser.
type RunOptions struct {
	// Exclude lists rule names to skip, compared case-insensitively.
	Exclude []string
	Log     step.Logger
}

func (o RunOptions) excluded(name string) bool {
	for _, e := range o.Exclude {
		if strings.EqualFold(strings.TrimSpace(e), name) {
			return true
		}
	}
	return false
}

// RuleOutput is the result of one rule.
type RuleOutput struct {
	Name      string
	Table     *table.Table
	Partition *Partition
}

// Value is the scalar string or the ordered row records.
func (o RuleOutput) Value() any {
	if o.Table.IsScalar() {
		return o.Table.ScalarValue()
	}
	return o.Table.Records()
}

// Output collects the results of a parser run in rule order.
type Output struct {
	Parser string
	Rules  []RuleOutput
}

// Get returns the output of the named rule, compared case-insensitively.
func (o *Output) Get(name string) (RuleOutput, bool) {
	for _, r := range o.Rules {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return RuleOutput{}, false
}

// Scalars returns name/value pairs of every scalar rule in rule order.
func (o *Output) Scalars() []table.Field {
	var out []table.Field
	for _, r := range o.Rules {
		if r.Table.IsScalar() {
			out = append(out, table.Field{Name: r.Name, Value: r.Table.ScalarValue()})
		}
	}
	return out
}

// MarshalJSON writes {rule: value, ...} in rule order. Scalars are strings;
// tables are arrays of objects keyed by column name.
func (o Output) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range o.Rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Value())
		if err != nil {
			return nil, fmt.Errorf("pipeline: rule %q: %w", r.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RunParser runs every rule of p independently, each on its own fresh
// table. The first step error aborts the run.
func RunParser(p *Parser, src Source, o RunOptions) (*Output, error) {
	out := &Output{Parser: p.Name}
	for _, r := range p.Rules {
		if o.excluded(r.Name) {
			o.Log.Printf("[skip] Rule '%s' excluded.", r.Name)
			continue
		}
		t, err := RunRule(p.Name, r, p.MissingPolicy, src, o.Log)
		if err != nil {
			return nil, fmt.Errorf("pipeline: parser %q: %w", p.Name, err)
		}
		out.Rules = append(out.Rules, RuleOutput{Name: r.Name, Table: t, Partition: r.Partition})
	}
	return out, nil
}
