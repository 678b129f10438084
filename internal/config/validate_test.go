package config

import (
	"strings"
	"testing"

	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/step"
	"lineparser/internal/table"
)

var on = step.Meta{Enabled: true}

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidateApp_DefaultIsClean(t *testing.T) {
	if issues := ValidateApp(Default()); len(issues) != 0 {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestValidateApp(t *testing.T) {
	cases := []struct {
		name string
		edit func(*App)
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"empty kind", func(a *App) { a.Store.Kind = "" }, SeverityError, "store.kind", "must not be empty"},
		{"dsn missing", func(a *App) { a.Store.Kind = "MySQL" }, SeverityError, "store.dsn", "mysql store requires a dsn"},
		{"unknown kind", func(a *App) { a.Store.Kind = "redis" }, SeverityWarning, "store.kind", "unknown store kind"},
		{"pushgateway url", func(a *App) { a.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "requires a URL"},
		{"datadog addr", func(a *App) { a.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "agent address"},
		{"unknown backend", func(a *App) { a.Metrics.Backend = "statsd" }, SeverityWarning, "metrics.backend", "disabled"},
		{"encoding", func(a *App) { a.Source.Encoding = "klingon-8" }, SeverityError, "source.encoding", "unsupported encoding"},
		{"workers", func(a *App) { a.Runtime.Workers = -1 }, SeverityError, "runtime.workers", ">= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Default()
			tc.edit(&a)
			issues := ValidateApp(a)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("missing %s at %s; got %+v", tc.sev, tc.path, issues)
			}
		})
	}
}

func TestValidateApp_KnownEncoding(t *testing.T) {
	a := Default()
	a.Source.Encoding = "windows-1250"
	if issues := ValidateApp(a); len(issues) != 0 {
		t.Fatalf("issues = %+v", issues)
	}
}

/*
TestValidateParser verifies rule name checks, step parameter errors, steps
after a scalar collapse and partition selector problems.
*/
func TestValidateParser(t *testing.T) {
	part := pipeline.DefaultPartition()
	part.Column = table.Name(" ")
	p := pipeline.NewParser("")
	p.Rules = []pipeline.Rule{
		{Name: "Total", Steps: step.List{
			&step.ToScalarFromCell{Meta: on, Col: table.Index(0)},
			&step.TrimAll{Meta: on},
		}},
		{Name: "total", Steps: step.List{&step.KeepRowsWhereRegex{Meta: on, Col: table.Index(0), Regex: "("}}},
		{Name: "", Steps: step.List{&step.TrimAll{}}},
		{Name: "Lines", Steps: step.List{&step.TrimAll{Meta: on}}, Partition: &part},
	}

	issues := ValidateParser(p)
	for _, want := range []struct {
		sev        IssueSeverity
		path, msg string
	}{
		{SeverityError, "name", "must not be empty"},
		{SeverityWarning, "rules[0].steps[1]", "never runs"},
		{SeverityError, "rules[1].name", "duplicate rule name"},
		{SeverityError, "rules[1].steps[0]", "KeepRowsWhereRegex"},
		{SeverityError, "rules[2].name", "must not be empty"},
		{SeverityWarning, "rules[2].steps", "no enabled steps"},
		{SeverityError, "rules[3].partition.column", "name is empty"},
	} {
		if !hasIssue(t, issues, want.sev, want.path, want.msg) {
			t.Errorf("missing %s at %s (%s); got %+v", want.sev, want.path, want.msg, issues)
		}
	}
	if !HasErrors(issues, false) {
		t.Fatalf("HasErrors = false")
	}
}

func TestValidateParser_Clean(t *testing.T) {
	p := pipeline.NewParser("Invoice")
	p.Rules = []pipeline.Rule{{Name: "Body", Steps: step.List{&step.TrimAll{Meta: on}}}}
	if issues := ValidateParser(p); len(issues) != 0 {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestValidateRouter(t *testing.T) {
	owner := pipeline.NewParser("Owner")
	owner.Rules = []pipeline.Rule{{Name: "Head", Steps: step.List{&step.TrimAll{Meta: on}}}}
	b := pipeline.NewParser("ParserB")
	b.Rules = []pipeline.Rule{{Name: "Body", Steps: step.List{&step.TrimAll{Meta: on}}}}

	r := router.New()
	r.Routes = []router.Route{
		{Kind: router.Exact, Pattern: "", TargetParser: "ParserB"},
		{Kind: router.Regex, Pattern: "(", TargetParser: "ParserB"},
		{Kind: router.Exact, Pattern: "X", TargetParser: "owner"},
		{Kind: router.Exact, Pattern: "Y", TargetParser: "Missing"},
	}
	r.DefaultTargetParser = "parserb"
	r.ExcludeRules = []string{"body", "Nope"}

	issues := ValidateRouter(r, owner, map[string]*pipeline.Parser{"ParserB": b})
	for _, want := range []struct {
		sev        IssueSeverity
		path, msg string
	}{
		{SeverityError, "tagRuleName", `no rule "Tag"`},
		{SeverityError, "routes[0].pattern", "must not be empty"},
		{SeverityError, "routes[1]", "router: route"},
		{SeverityError, "routes[2].targetParser", "owner itself"},
		{SeverityError, "routes[3].targetParser", "does not exist"},
		{SeverityWarning, "excludeRules[1]", `"Nope"`},
	} {
		if !hasIssue(t, issues, want.sev, want.path, want.msg) {
			t.Errorf("missing %s at %s (%s); got %+v", want.sev, want.path, want.msg, issues)
		}
	}
	for _, iss := range issues {
		if iss.Path == "defaultTargetParser" || iss.Path == "excludeRules[0]" {
			t.Errorf("unexpected issue %+v", iss)
		}
	}
}

func TestValidateRouter_Unconfigured(t *testing.T) {
	issues := ValidateRouter(router.New(), nil, nil)
	if len(issues) != 1 || !hasIssue(t, issues, SeverityWarning, "routes", "no routes") {
		t.Fatalf("issues = %+v", issues)
	}
}
