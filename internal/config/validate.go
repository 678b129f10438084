package config

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/step"
	"lineparser/internal/table"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block by default.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the document,
// e.g. "rules[1].steps[0]" or "store.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues block execution. With strict set,
// warnings block too.
func HasErrors(issues []Issue, strict bool) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError || strict {
			return true
		}
	}
	return false
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

var dsnKinds = map[string]bool{"sqlite": true, "sqlserver": true, "mysql": true, "postgres": true}

// ValidateApp lints the application configuration.
func ValidateApp(a App) []Issue {
	var issues []Issue

	kind := strings.ToLower(strings.TrimSpace(a.Store.Kind))
	switch {
	case kind == "":
		issues = append(issues, errorf("store.kind", "store.kind must not be empty"))
	case kind == "file":
		if strings.TrimSpace(a.Store.Root) == "" {
			issues = append(issues, warnf("store.root", "file store root is empty; %q is used", "parsers"))
		}
	case dsnKinds[kind]:
		if strings.TrimSpace(a.Store.DSN) == "" {
			issues = append(issues, errorf("store.dsn", "%s store requires a dsn", kind))
		}
	default:
		issues = append(issues, warnf("store.kind", "unknown store kind %q; ensure a matching backend is registered", a.Store.Kind))
	}

	switch strings.ToLower(strings.TrimSpace(a.Metrics.Backend)) {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(a.Metrics.PushgatewayURL) == "" {
			issues = append(issues, errorf("metrics.pushgateway_url", "pushgateway backend requires a URL"))
		}
	case "datadog":
		if strings.TrimSpace(a.Metrics.DatadogAddr) == "" {
			issues = append(issues, errorf("metrics.datadog_addr", "datadog backend requires an agent address"))
		}
	default:
		issues = append(issues, warnf("metrics.backend", "unknown metrics backend %q; metrics will be disabled", a.Metrics.Backend))
	}

	if enc := strings.TrimSpace(a.Source.Encoding); enc != "" {
		if e, err := ianaindex.IANA.Encoding(enc); err != nil || e == nil {
			issues = append(issues, errorf("source.encoding", "unsupported encoding %q", enc))
		}
	}

	if a.Runtime.Workers < 0 {
		issues = append(issues, errorf("runtime.workers", "workers must be >= 0"))
	}
	return issues
}

// ValidateParser lints a parser document: names, step parameters, partition
// settings and steps that can never run.
func ValidateParser(p *pipeline.Parser) []Issue {
	var issues []Issue
	if strings.TrimSpace(p.Name) == "" {
		issues = append(issues, errorf("name", "parser name must not be empty"))
	}
	if len(p.Rules) == 0 {
		issues = append(issues, warnf("rules", "parser has no rules"))
	}

	seen := map[string]int{}
	for i, r := range p.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		name := strings.TrimSpace(r.Name)
		switch {
		case name == "":
			issues = append(issues, errorf(path+".name", "rule name must not be empty"))
		default:
			if j, dup := seen[strings.ToLower(name)]; dup {
				issues = append(issues, errorf(path+".name", "duplicate rule name %q (also rules[%d])", r.Name, j))
			} else {
				seen[strings.ToLower(name)] = i
			}
		}
		issues = append(issues, validateRule(path, r)...)
	}
	return issues
}

func validateRule(path string, r pipeline.Rule) []Issue {
	var issues []Issue
	scalarAt := -1
	for j, s := range r.Steps {
		sp := fmt.Sprintf("%s.steps[%d]", path, j)
		if s == nil {
			issues = append(issues, errorf(sp, "step is null"))
			continue
		}
		if err := s.Validate(); err != nil {
			issues = append(issues, errorf(sp, "%v", err))
		}
		if !step.Enabled(s) {
			continue
		}
		if scalarAt >= 0 {
			issues = append(issues, warnf(sp, "%s never runs: steps[%d] collapses the rule to a scalar", s.Kind(), scalarAt))
		} else if s.Kind() == step.KindToScalarFromCell {
			scalarAt = j
		}
	}
	if r.EnabledCount() == 0 {
		issues = append(issues, warnf(path+".steps", "rule has no enabled steps; it outputs the whole source"))
	}
	if r.Partition != nil {
		if scalarAt >= 0 {
			issues = append(issues, warnf(path+".partition", "partition is ignored on a scalar rule"))
		}
		if msg := selectorProblem(r.Partition.Column); msg != "" {
			issues = append(issues, errorf(path+".partition.column", "%s", msg))
		}
	}
	return issues
}

func selectorProblem(s table.Selector) string {
	switch s.Kind {
	case table.ByIndexKind:
		if s.Index < 0 {
			return "index must be >= 0"
		}
	case table.ByNameKind:
		if strings.TrimSpace(s.Name) == "" {
			return "name is empty"
		}
	case table.ByNameRegexKind:
		if strings.TrimSpace(s.Pattern) == "" {
			return "pattern is empty"
		}
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return err.Error()
		}
	}
	return ""
}

// ValidateRouter lints the router of owner. targets maps known parser names
// to their documents; a nil map skips target checks.
func ValidateRouter(r *router.Router, owner *pipeline.Parser, targets map[string]*pipeline.Parser) []Issue {
	var issues []Issue

	if owner != nil {
		if _, ok := owner.Rule(r.TagRule()); !ok {
			issues = append(issues, errorf("tagRuleName", "owner %q has no rule %q to compute the tag", owner.Name, r.TagRule()))
		}
	}
	if !r.Configured() {
		issues = append(issues, warnf("routes", "router has no routes and no default target; runs fall back to the owner alone"))
	}

	lookup := func(name string) (*pipeline.Parser, bool) {
		for k, p := range targets {
			if strings.EqualFold(k, name) {
				return p, true
			}
		}
		return nil, false
	}
	checkTarget := func(path, name string) {
		if owner != nil && strings.EqualFold(name, owner.Name) {
			issues = append(issues, errorf(path, "target %q is the owner itself", name))
			return
		}
		if targets != nil {
			if _, ok := lookup(name); !ok {
				issues = append(issues, errorf(path, "target parser %q does not exist", name))
			}
		}
	}

	for i, rt := range r.Routes {
		path := fmt.Sprintf("routes[%d]", i)
		if strings.TrimSpace(rt.Pattern) == "" {
			issues = append(issues, errorf(path+".pattern", "route pattern must not be empty"))
		}
		if err := rt.Validate(); err != nil {
			issues = append(issues, errorf(path, "%v", err))
			continue
		}
		checkTarget(path+".targetParser", rt.TargetParser)
	}
	if d := strings.TrimSpace(r.DefaultTargetParser); d != "" {
		checkTarget("defaultTargetParser", d)
	}

	if targets != nil {
		for i, e := range r.ExcludeRules {
			if !anyHasRule(targets, e) {
				issues = append(issues, warnf(fmt.Sprintf("excludeRules[%d]", i), "no target parser has a rule %q", e))
			}
		}
	}
	return issues
}

func anyHasRule(parsers map[string]*pipeline.Parser, rule string) bool {
	for _, p := range parsers {
		if _, ok := p.Rule(strings.TrimSpace(rule)); ok {
			return true
		}
	}
	return false
}
