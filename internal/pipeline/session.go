package pipeline

import (
	"fmt"

	"lineparser/internal/step"
	"lineparser/internal/table"
)

// Session is an editing model over one immutable source: a working step
// list and the table it currently produces. Steps are applied as they are
// added; any structural edit replays the whole list from the source.
type Session struct {
	src    Source
	policy step.Policy
	log    step.Logger

	steps step.List
	t     *table.Table
}

// Fault is a step failure collected during a replay.
type Fault struct {
	Index int
	Kind  string
	Err   error
}

func (f Fault) Error() string { return fmt.Sprintf("step %d (%s): %v", f.Index, f.Kind, f.Err) }

// NewSession starts an empty session on src.
func NewSession(src Source, policy step.Policy, log step.Logger) *Session {
	return &Session{src: src, policy: policy, log: log, t: src.Table()}
}

// Table returns the current table. It is owned by the session and changes
// on the next edit.
func (s *Session) Table() *table.Table { return s.t }

// Steps returns a deep copy of the working list.
func (s *Session) Steps() step.List { return s.steps.Clone() }

// SetPolicy changes the missing-column policy used from the next apply.
func (s *Session) SetPolicy(p step.Policy) { s.policy = p }

// Add applies st to the current table and records it only if it succeeded.
// A disabled step is recorded without being applied.
func (s *Session) Add(st step.Step) error {
	if step.Enabled(st) {
		if s.t.IsScalar() {
			return fmt.Errorf("pipeline: table is already a scalar; %s not applied", st.Kind())
		}
		// Apply to a copy so a failing step leaves the table untouched.
		work := s.t.Clone()
		if err := st.Apply(work, s.policy, s.log.Prefixed("    ")); err != nil {
			return err
		}
		s.t = work
	}
	s.steps = append(s.steps, st.Clone())
	return nil
}

func (s *Session) check(i int) error {
	if i < 0 || i >= len(s.steps) {
		return fmt.Errorf("pipeline: step index %d out of range [0,%d)", i, len(s.steps))
	}
	return nil
}

// Delete removes step i and replays.
func (s *Session) Delete(i int) ([]Fault, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	s.steps = append(s.steps[:i], s.steps[i+1:]...)
	return s.Replay(), nil
}

// Move relocates step from to position to and replays.
func (s *Session) Move(from, to int) ([]Fault, error) {
	if err := s.check(from); err != nil {
		return nil, err
	}
	if err := s.check(to); err != nil {
		return nil, err
	}
	st := s.steps[from]
	s.steps = append(s.steps[:from], s.steps[from+1:]...)
	s.steps = append(s.steps[:to], append(step.List{st}, s.steps[to:]...)...)
	return s.Replay(), nil
}

// Toggle flips step i between enabled and disabled and replays.
func (s *Session) Toggle(i int) ([]Fault, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	step.SetEnabled(s.steps[i], !step.Enabled(s.steps[i]))
	return s.Replay(), nil
}

// Replay rebuilds the table from the source and applies every enabled step.
// A failing step is reported and skipped; the replay continues.
func (s *Session) Replay() []Fault {
	t := s.src.Table()
	var faults []Fault
	for i, st := range s.steps {
		if !step.Enabled(st) || t.IsScalar() {
			continue
		}
		work := t.Clone()
		if err := st.Apply(work, s.policy, s.log.Prefixed("    ")); err != nil {
			s.log.Printf("step %d (%s) failed: %v", i, st.Kind(), err)
			faults = append(faults, Fault{Index: i, Kind: st.Kind(), Err: err})
			continue
		}
		t = work
	}
	s.t = t
	return faults
}

// Load replaces the working list with a copy of r's steps and replays.
func (s *Session) Load(r Rule) []Fault {
	s.steps = r.Steps.Clone()
	return s.Replay()
}

// SaveMode selects how SaveTo treats an existing rule.
type SaveMode int

const (
	// Replace overwrites the rule's steps with the session's.
	Replace SaveMode = iota
	// Append adds the session's steps after the rule's existing ones.
	Append
)

// SaveTo copies the working list into the named rule of p, creating the
// rule when it does not exist. An existing partition is kept.
func (s *Session) SaveTo(p *Parser, rule string, mode SaveMode) {
	steps := s.steps.Clone()
	if r, ok := p.Rule(rule); ok {
		if mode == Append {
			r.Steps = append(r.Steps, steps...)
		} else {
			r.Steps = steps
		}
		return
	}
	p.Rules = append(p.Rules, Rule{Name: rule, Steps: steps})
}
