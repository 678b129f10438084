package step

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"lineparser/internal/table"
)

func TestMarshal_TypeFirst(t *testing.T) {
	b, err := Marshal(&SplitAfterChars{Meta: on(), Col: table.Index(2), N: 4})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"SplitAfterChars","enabled":true,"col":{"kind":"Index","index":2},"n":4}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

/*
TestUnmarshal_DiscriminatorForms verifies the short and long discriminator
forms are accepted in any letter case and resolve to the same kind.
*/
func TestUnmarshal_DiscriminatorForms(t *testing.T) {
	for _, typ := range []string{"FillEmpty", "FillEmptyStep", "fillempty", "FILLEMPTYSTEP"} {
		s, err := Unmarshal([]byte(`{"type":"` + typ + `","direction":"next"}`))
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		fe, ok := s.(*FillEmpty)
		if !ok {
			t.Fatalf("%s: decoded %T", typ, s)
		}
		if fe.Direction != Next || fe.Col != table.Index(0) || !fe.Enabled {
			t.Fatalf("%s: %+v", typ, fe)
		}
	}
}

func TestUnmarshal_UnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"SplitOnKeywrd"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "SplitOnKeyword") {
		t.Fatalf("expected a suggestion in %q", err)
	}
	if _, err := Unmarshal([]byte(`{"col":{"kind":"Last"}}`)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("missing type: %v", err)
	}
	if _, err := Unmarshal([]byte(`[1]`)); err == nil {
		t.Fatalf("expected error for non-object")
	}
}

func TestUnmarshal_DefaultsSurviveMissingFields(t *testing.T) {
	s, err := Unmarshal([]byte(`{"type":"ToScalarFromCellStep","col":{"kind":"Name","name":"Total"}}`))
	if err != nil {
		t.Fatal(err)
	}
	ts := s.(*ToScalarFromCell)
	if ts.Group != 1 || !ts.Trim || !ts.Enabled {
		t.Fatalf("defaults lost: %+v", ts)
	}
	if ts.Col != table.Name("Total") {
		t.Fatalf("col = %+v", ts.Col)
	}
}

/*
TestUnmarshal_RegexExtractWithoutGroup verifies a decoded RegexExtract that
omits "group" captures the whole match, so a group-less pattern still
expands every match into its own column.
*/
func TestUnmarshal_RegexExtractWithoutGroup(t *testing.T) {
	s, err := Unmarshal([]byte(`{"type":"RegexExtract","col":{"kind":"Index","index":0},"pattern":"\\d+","allMatches":true,"expandToMultipleColumns":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if g := s.(*RegexExtract).Group; g != 0 {
		t.Fatalf("group = %d, want 0", g)
	}
	tb := lines(t, "1,2,3", "4")
	if err := s.Apply(tb, Fail, Discard); err != nil {
		t.Fatal(err)
	}
	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"Col0", "Col0_rx_m1", "Col0_rx_m2", "Col0_rx_m3"}) {
		t.Fatalf("names = %q", got)
	}
	want := [][]string{{"1,2,3", "1", "2", "3"}, {"4", "4", "", ""}}
	if got := tb.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %q", got)
	}
}

/*
TestList_RoundTripEveryKind encodes one default step of every kind and
decodes it back to an equal value.
*/
func TestList_RoundTripEveryKind(t *testing.T) {
	var l List
	for _, k := range Kinds() {
		l = append(l, mustNew(t, k))
	}
	SetComment(l[0], "first")
	SetEnabled(l[1], false)

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var back List
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != len(l) {
		t.Fatalf("len = %d, want %d", len(back), len(l))
	}
	for i := range l {
		if !reflect.DeepEqual(normalize(l[i]), normalize(back[i])) {
			t.Errorf("%s: %+v != %+v", l[i].Kind(), l[i], back[i])
		}
	}
}

func TestList_ErrorNamesPosition(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"type":"TrimAll"},{"type":"Nope"}]`), &l)
	if !errors.Is(err, ErrUnknownKind) || !strings.Contains(err.Error(), "step 1") {
		t.Fatalf("err = %v", err)
	}
}

// normalize maps nil and empty slices to the same value so a round trip of
// a default step compares equal.
func normalize(s Step) Step {
	c := s.Clone()
	switch v := c.(type) {
	case *KeepColumns:
		if len(v.Keep) == 0 {
			v.Keep = nil
		}
	case *RenameColumns:
		if len(v.Names) == 0 {
			v.Names = nil
		}
	}
	return c
}
