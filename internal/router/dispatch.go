package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lineparser/internal/metrics"
	"lineparser/internal/pipeline"
	"lineparser/internal/step"
)

// Loader resolves target parsers by name.
type Loader interface {
	LoadParser(ctx context.Context, name string) (*pipeline.Parser, error)
}

// EvaluateTag runs the tag rule of p and returns its trimmed scalar. A rule
// that does not collapse to a scalar falls back to the trimmed first cell of
// its table. A missing rule, a failing step or an empty table yields an
// error wrapping ErrNotRouted.
func EvaluateTag(p *pipeline.Parser, tagRule string, src pipeline.Source, log step.Logger) (string, error) {
	r, ok := p.Rule(tagRule)
	if !ok {
		log.Printf("Router: Tag rule '%s' not found in parser '%s'.", tagRule, p.Name)
		return "", fmt.Errorf("router: %w: tag rule %q not found in parser %q", ErrNotRouted, tagRule, p.Name)
	}
	t, err := pipeline.RunRule(p.Name, *r, p.MissingPolicy, src, nil)
	if err != nil {
		log.Printf("Router: Tag rule failed: %v", err)
		return "", fmt.Errorf("router: %w: %w", ErrNotRouted, err)
	}
	if t.IsScalar() {
		tag := strings.TrimSpace(t.ScalarValue())
		log.Printf("Router: Tag value = %q", tag)
		return tag, nil
	}
	if t.Len() > 0 && t.ColumnCount() > 0 {
		tag := strings.TrimSpace(t.Cell(0, 0))
		log.Printf("Router: Tag fallback from [0,0] = %q", tag)
		return tag, nil
	}
	log.Printf("Router: Unable to compute Tag (no scalar and table is empty).")
	return "", fmt.Errorf("router: %w: tag rule %q produced no value", ErrNotRouted, tagRule)
}

// Plan is a routing decision made without running the target.
type Plan struct {
	Tag      string
	Decision Decision
}

// DryRun computes the tag and the would-be target.
func DryRun(owner *pipeline.Parser, r *Router, src pipeline.Source, log step.Logger) (Plan, error) {
	if !r.Configured() {
		log.Printf("Router: no routes configured for parser '%s'.", owner.Name)
		return Plan{Decision: Decision{Route: -1}}, fmt.Errorf("router: %w: no routes configured for %q", ErrNotRouted, owner.Name)
	}
	tag, err := EvaluateTag(owner, r.TagRule(), src, log)
	if err != nil {
		metrics.RecordRoute(owner.Name, "", "unrouted")
		return Plan{Decision: Decision{Route: -1}}, err
	}
	d, err := r.Match(tag)
	if err != nil {
		log.Printf("Router: no route matched and no default specified.")
		metrics.RecordRoute(owner.Name, "", "unrouted")
		return Plan{Tag: tag, Decision: d}, err
	}
	if d.Target == owner.Name {
		log.Printf("Router: target '%s' is the owner itself; not routing.", d.Target)
		metrics.RecordRoute(owner.Name, "", "unrouted")
		return Plan{Tag: tag, Decision: d}, fmt.Errorf("router: %w: target %q is the owner parser", ErrNotRouted, d.Target)
	}
	if d.Route >= 0 {
		rt := r.Routes[d.Route]
		log.Printf("Router: matched %s '%s' -> %s", rt.Kind, rt.Pattern, d.Target)
		metrics.RecordRoute(owner.Name, d.Target, "matched")
	} else {
		log.Printf("Router: no rule matched; using DEFAULT -> %s", d.Target)
		metrics.RecordRoute(owner.Name, d.Target, "default")
	}
	return Plan{Tag: tag, Decision: d}, nil
}

// Info is the routing metadata attached to a combined result.
type Info struct {
	Parser   string `json:"parentParser"`
	TagRule  string `json:"tagRule,omitempty"`
	TagValue string `json:"tagValue,omitempty"`
	Target   string `json:"targetParser,omitempty"`
}

// Result is the output of one export: the owner parser alone, or the owner
// followed by its routed target.
type Result struct {
	Info    Info
	Routed  bool
	Outputs []*pipeline.Output
}

// MarshalJSON writes a single output as {rule: value}; a routed result as
// {"_router": info, owner: {...}, target: {...}}. A parser name repeated
// across outputs gets a "#2", "#3"... suffix so no key is written twice.
func (r *Result) MarshalJSON() ([]byte, error) {
	if !r.Routed {
		if len(r.Outputs) == 0 {
			return []byte("{}"), nil
		}
		return json.Marshal(r.Outputs[0])
	}
	var buf bytes.Buffer
	info, err := json.Marshal(r.Info)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"_router":`)
	buf.Write(info)
	seen := map[string]int{"_router": 1}
	for _, o := range r.Outputs {
		name := o.Parser
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s#%d", o.Parser, n+1)
		}
		seen[o.Parser]++
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dispatch routes owner through r: it computes the tag, loads the chosen
// target, then runs every rule of the owner and every non-excluded rule of
// the target. Routing failures wrap ErrNotRouted; a target that cannot be
// loaded and step failures are hard errors.
func Dispatch(ctx context.Context, owner *pipeline.Parser, r *Router, loader Loader, src pipeline.Source, log step.Logger) (*Result, error) {
	plan, err := DryRun(owner, r, src, log)
	if err != nil {
		return nil, err
	}
	target, err := loader.LoadParser(ctx, plan.Decision.Target)
	if err != nil {
		return nil, fmt.Errorf("router: load target %q: %w", plan.Decision.Target, err)
	}

	parent, err := pipeline.RunParser(owner, src, pipeline.RunOptions{Log: log.Prefixed("[parent] ")})
	if err != nil {
		return nil, err
	}
	sub, err := pipeline.RunParser(target, src, pipeline.RunOptions{
		Exclude: r.ExcludeRules,
		Log:     log.Prefixed("[target] "),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Info: Info{
			Parser:   owner.Name,
			TagRule:  r.TagRule(),
			TagValue: plan.Tag,
			Target:   target.Name,
		},
		Routed:  true,
		Outputs: []*pipeline.Output{parent, sub},
	}, nil
}

// Run routes owner when r is set and can decide, and otherwise runs owner
// alone. Only ErrNotRouted triggers the fallback.
func Run(ctx context.Context, owner *pipeline.Parser, r *Router, loader Loader, src pipeline.Source, log step.Logger) (*Result, error) {
	if r != nil {
		res, err := Dispatch(ctx, owner, r, loader, src, log)
		if err == nil {
			log.Printf("Router: exporting PARENT='%s' + TARGET='%s' (Tag='%s').", res.Info.Parser, res.Info.Target, res.Info.TagValue)
			return res, nil
		}
		if !errors.Is(err, ErrNotRouted) {
			return nil, err
		}
		log.Printf("Router: %v; exporting single parser.", err)
	} else {
		log.Printf("Router: not configured; exporting single parser.")
	}

	out, err := pipeline.RunParser(owner, src, pipeline.RunOptions{Log: log})
	if err != nil {
		return nil, err
	}
	return &Result{Info: Info{Parser: owner.Name}, Outputs: []*pipeline.Output{out}}, nil
}
