package pipeline

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"lineparser/internal/source"
	"lineparser/internal/step"
	"lineparser/internal/table"
)

var on = step.Meta{Enabled: true}

func snapshot(t *testing.T, lines []string, pages ...int) *source.Snapshot {
	t.Helper()
	if pages == nil {
		pages = make([]int, len(lines))
		for i := range pages {
			pages[i] = 1
		}
	}
	s, err := source.New(lines, pages)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type captured []string

func (c *captured) log(msg string) { *c = append(*c, msg) }

func (c captured) contains(sub string) bool {
	for _, l := range c {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func invoiceParser() *Parser {
	p := NewParser("Invoice")
	p.Rules = []Rule{
		{Name: "Number", Steps: step.List{
			&step.KeepRowsWhereRegex{Meta: on, Col: table.Index(0), Regex: `^Invoice`},
			&step.ToScalarFromCell{Meta: on, Col: table.Index(0), Pattern: `(\d+)`, Group: 1, Trim: true},
		}},
		{Name: "Items", Steps: step.List{
			&step.KeepTableSection{Meta: on, Col: table.Index(0), StartRegex: `^Items`, EndRegex: `^Total`},
			&step.SplitOnKeyword{Meta: on, Col: table.Index(0), Keyword: ";"},
			&step.RenameColumns{Meta: on, Names: []string{"Sku", "Name"}},
		}},
	}
	return p
}

var invoiceLines = []string{"Invoice 42", "Items", "A-1;Bolt", "B-2;Nut", "Total 3"}

/*
TestRunParser_CollectsRulesInOrder verifies that every rule runs on its own
fresh table and that the JSON output keeps rule order and column order.
*/
func TestRunParser_CollectsRulesInOrder(t *testing.T) {
	src := snapshot(t, invoiceLines)

	out, err := RunParser(invoiceParser(), src, RunOptions{})
	if err != nil {
		t.Fatalf("RunParser: %v", err)
	}
	if len(out.Rules) != 2 {
		t.Fatalf("rules = %d", len(out.Rules))
	}
	num, ok := out.Get("number")
	if !ok || num.Value() != "42" {
		t.Fatalf("Number = %#v, %v", num.Value(), ok)
	}

	b, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Number":"42","Items":[{"Sku":"A-1","Name":"Bolt"},{"Sku":"B-2","Name":"Nut"}]}`
	if string(b) != want {
		t.Fatalf("json = %s\nwant   %s", b, want)
	}
}

func TestRunParser_Exclude(t *testing.T) {
	var logs captured
	out, err := RunParser(invoiceParser(), snapshot(t, invoiceLines), RunOptions{Exclude: []string{" ITEMS "}, Log: logs.log})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rules) != 1 || out.Rules[0].Name != "Number" {
		t.Fatalf("rules = %+v", out.Rules)
	}
	if !logs.contains("[skip] Rule 'Items' excluded.") {
		t.Fatalf("logs = %q", logs)
	}
}

/*
TestRunRule_IsRepeatable verifies that running the same rule twice against
the same snapshot gives identical output and leaves the snapshot alone.
*/
func TestRunRule_IsRepeatable(t *testing.T) {
	src := snapshot(t, invoiceLines)
	p := invoiceParser()

	first, err := p.RunRule("Items", src, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.RunRule("items", src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Records(), second.Records()) {
		t.Fatalf("runs differ:\n%v\n%v", first.Records(), second.Records())
	}
	if src.Len() != len(invoiceLines) {
		t.Fatalf("snapshot changed")
	}
}

func TestRunRule_UnknownRule(t *testing.T) {
	_, err := invoiceParser().RunRule("nope", snapshot(t, nil), nil)
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRule_FailPolicyReturnsStepError(t *testing.T) {
	r := Rule{Name: "R", Steps: step.List{
		&step.TrimAll{Meta: on},
		&step.TransformTrim{Meta: on, Col: table.Name("missing")},
	}}

	_, err := RunRule("P", r, step.Fail, snapshot(t, []string{"x"}), nil)
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StepError", err)
	}
	if se.Index != 1 || se.Kind != step.KindTransformTrim || se.Rule != "R" {
		t.Fatalf("step error = %+v", se)
	}
	if !errors.Is(err, step.ErrColumnNotFound) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

/*
TestRunRule_Logging verifies the progress lines: header, numbered enabled
steps, skipped disabled steps, indented step messages, and the note for
steps after a scalar collapse.
*/
func TestRunRule_Logging(t *testing.T) {
	r := Rule{Name: "Tag", Steps: step.List{
		&step.TransformTrim{Meta: on, Col: table.Name("missing")},
		&step.TrimAll{},
		&step.ToScalarFromCell{Meta: on, Col: table.Index(0), Group: 1, Trim: true},
		&step.TransformToUpper{Meta: on, Col: table.Index(0)},
	}}

	var logs captured
	tb, err := RunRule("P", r, step.Warn, snapshot(t, []string{" acme "}), logs.log)
	if err != nil {
		t.Fatal(err)
	}
	if !tb.IsScalar() || tb.ScalarValue() != "acme" {
		t.Fatalf("scalar = %v %q", tb.IsScalar(), tb.ScalarValue())
	}

	for _, want := range []string{
		"Running P › Tag: 3 step(s). Policy=Warn",
		"[1/3] ",
		"    column not found for selector",
		"(skipped) ",
		"[2/3] ",
		"[3/3] ",
		"not applied",
		"Rule 'Tag' produced a scalar value.",
	} {
		if !logs.contains(want) {
			t.Errorf("missing log %q in %q", want, logs)
		}
	}
}

func TestParser_UnmarshalDefaults(t *testing.T) {
	doc := `{"name":"X","rules":[{"name":"A","ruleSteps":[{"type":"TrimAllStep"}]},
		{"name":"B","steps":[],"partition":{"attributeName":"Grp"}}]}`

	var p Parser
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatal(err)
	}
	if p.Version != DefaultVersion || p.MissingPolicy != step.Warn {
		t.Fatalf("defaults = %q %v", p.Version, p.MissingPolicy)
	}
	if len(p.Rules[0].Steps) != 1 || p.Rules[0].Steps[0].Kind() != step.KindTrimAll {
		t.Fatalf("legacy steps = %v", p.Rules[0].Steps)
	}
	part := p.Rules[1].Partition
	if part == nil || part.EmptyKeyLabel != "(empty)" || !part.TrimKey || !part.CaseInsensitive || part.AttributeName != "Grp" {
		t.Fatalf("partition = %+v", part)
	}
}

func TestParser_RoundTrip(t *testing.T) {
	p := invoiceParser()
	p.Rules[1].Partition = &Partition{Column: table.Name("Sku"), EmptyKeyLabel: "-", TrimKey: true}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back Parser
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	again, err := json.Marshal(&back)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != string(again) {
		t.Fatalf("round trip differs:\n%s\n%s", b, again)
	}
}

func TestParser_CloneIsIndependent(t *testing.T) {
	p := invoiceParser()
	c := p.Clone()
	c.Rules[0].Name = "Changed"
	step.SetEnabled(c.Rules[1].Steps[0], false)

	if p.Rules[0].Name != "Number" || !step.Enabled(p.Rules[1].Steps[0]) {
		t.Fatalf("clone aliases original")
	}
}

func TestParser_Validate(t *testing.T) {
	p := invoiceParser()
	if err := p.Validate(); err != nil {
		t.Fatalf("valid parser: %v", err)
	}
	p.Rules = append(p.Rules, Rule{Name: "NUMBER"})
	if err := p.Validate(); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

/*
TestPartition_Split verifies key trimming, case-insensitive grouping, the
empty-key label and first-occurrence group order.
*/
func TestPartition_Split(t *testing.T) {
	tb, err := table.New([]string{"Grp", "V"}, [][]string{
		{"b ", "1"}, {"A", "2"}, {"B", "3"}, {"", "4"}, {" a", "5"},
	}, []int{1, 1, 1, 2, 2})
	if err != nil {
		t.Fatal(err)
	}

	p := DefaultPartition()
	groups, keyCol, ok := p.Split(tb)
	if !ok || keyCol != 0 {
		t.Fatalf("Split ok=%v keyCol=%d", ok, keyCol)
	}
	want := []Group{{"b", []int{0, 2}}, {"A", []int{1, 4}}, {"(empty)", []int{3}}}
	if !reflect.DeepEqual(groups, want) {
		t.Fatalf("groups = %+v\nwant     %+v", groups, want)
	}
	if p.KeyName(tb, keyCol) != "Grp" {
		t.Fatalf("key name = %q", p.KeyName(tb, keyCol))
	}

	p.DropEmptyKeyRows = true
	p.CaseInsensitive = false
	groups, _, _ = p.Split(tb)
	if len(groups) != 4 {
		t.Fatalf("case-sensitive groups = %+v", groups)
	}

	p.Column = table.Name("nope")
	if _, _, ok := p.Split(tb); ok {
		t.Fatalf("expected unresolved key column")
	}
}
