package table

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

/*
TestSplitOnKeyword_First verifies the keyword is removed, the right-hand part
lands in a new "_R" column, and rows without the keyword keep their value.
*/
func TestSplitOnKeyword_First(t *testing.T) {
	tb := linesTable(t, []string{"FOO:BAR", "plain", "a:b:c"})
	tb.SplitOnKeyword(0, ":", false, false)

	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"Col0", "Col0_R"}) {
		t.Fatalf("names = %q", got)
	}
	want := [][]string{{"FOO", "BAR"}, {"plain", ""}, {"a", "b:c"}}
	for i, w := range want {
		if got := tb.Row(i); !reflect.DeepEqual(got, w) {
			t.Fatalf("row %d = %q, want %q", i, got, w)
		}
	}
	checkAligned(t, tb)
}

func TestSplitOnKeyword_AllPadsToMaxParts(t *testing.T) {
	tb := linesTable(t, []string{"a x b X c", "d"})
	tb.SplitOnKeyword(0, " x ", true, true)

	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"Col0", "Col0_Part2", "Col0_Part3"}) {
		t.Fatalf("names = %q", got)
	}
	if got := tb.Row(0); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("row 0 = %q", got)
	}
	if got := tb.Row(1); !reflect.DeepEqual(got, []string{"d", "", ""}) {
		t.Fatalf("row 1 = %q", got)
	}
}

func TestSplitOnKeyword_EmptyKeywordIsNoop(t *testing.T) {
	tb := linesTable(t, []string{"a"})
	tb.SplitOnKeyword(0, "", false, false)
	if tb.ColumnCount() != 1 {
		t.Fatalf("columns = %d", tb.ColumnCount())
	}
}

func TestSplitVariants(t *testing.T) {
	cases := []struct {
		name  string
		apply func(*Table) error
		names []string
		row   []string
	}{
		{
			name:  "after chars",
			apply: func(tb *Table) error { tb.SplitAfterChars(0, 3); return nil },
			names: []string{"Col0", "Col0_R"},
			row:   []string{"ABC", "DEF ghi"},
		},
		{
			name:  "after words",
			apply: func(tb *Table) error { tb.SplitAfterWords(0, 1); return nil },
			names: []string{"Col0", "Col0_afterWords"},
			row:   []string{"ABCDEF", "ghi"},
		},
		{
			name:  "regex delimiter",
			apply: func(tb *Table) error { return tb.SplitOnRegex(0, `\s+`, false) },
			names: []string{"Col0", "Col0_R"},
			row:   []string{"ABCDEF", "ghi"},
		},
		{
			name:  "last words",
			apply: func(tb *Table) error { tb.SplitLastWords(0, 1); return nil },
			names: []string{"Col0", "Col0_Tail"},
			row:   []string{"ABCDEF", "ghi"},
		},
		{
			name:  "last chars",
			apply: func(tb *Table) error { tb.SplitLastChars(0, 2); return nil },
			names: []string{"Col0", "Col0_lastChars"},
			row:   []string{"ABCDEF g", "hi"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tb := linesTable(t, []string{"ABCDEF ghi"})
			if err := tc.apply(tb); err != nil {
				t.Fatal(err)
			}
			if got := tb.ColumnNames(); !reflect.DeepEqual(got, tc.names) {
				t.Fatalf("names = %q, want %q", got, tc.names)
			}
			if got := tb.Row(0); !reflect.DeepEqual(got, tc.row) {
				t.Fatalf("row = %q, want %q", got, tc.row)
			}
		})
	}
}

func TestSplit_NameCollisionIsDisambiguated(t *testing.T) {
	tb := linesTable(t, []string{"a b c"})
	tb.SplitAfterWords(0, 1)
	tb.Rename([]string{"x", "x_R"})
	tb.SplitAfterChars(0, 0)
	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"x", "x_R_2", "x_R"}) {
		t.Fatalf("names = %q", got)
	}
}

func TestTextTransforms(t *testing.T) {
	tb := linesTable(t, []string{"  héllo wörld  "})
	tb.Trim(0)
	if got := tb.Cell(0, 0); got != "héllo wörld" {
		t.Fatalf("trim = %q", got)
	}

	c := tb.Clone()
	c.Left(0, 5)
	if got := c.Cell(0, 0); got != "héllo" {
		t.Fatalf("left = %q", got)
	}
	c = tb.Clone()
	c.Right(0, 99)
	if got := c.Cell(0, 0); got != "héllo wörld" {
		t.Fatalf("right clamp = %q", got)
	}
	c = tb.Clone()
	c.CutLastWords(0, 1)
	if got := c.Cell(0, 0); got != "héllo" {
		t.Fatalf("cut last words = %q", got)
	}
	c = tb.Clone()
	if err := c.ReplaceRegex(0, `(\S+) (\S+)`, "$2 $1"); err != nil {
		t.Fatal(err)
	}
	if got := c.Cell(0, 0); got != "wörld héllo" {
		t.Fatalf("replace = %q", got)
	}
	if err := c.ReplaceRegex(0, "(", ""); !errors.Is(err, ErrPattern) {
		t.Fatalf("want ErrPattern, got %v", err)
	}
}

/*
TestWordOps_AnyWhitespace verifies the word-based operations agree on what a
word is: tabs and runs of spaces separate words just like a single space.
*/
func TestWordOps_AnyWhitespace(t *testing.T) {
	in := []string{"Bolt\tM8 \t zinc", "single"}

	tb := linesTable(t, in)
	tb.SplitLastWords(0, 1)
	if got := column(tb, 0); !reflect.DeepEqual(got, []string{"Bolt M8", ""}) {
		t.Fatalf("split last words head = %q", got)
	}
	if got := column(tb, 1); !reflect.DeepEqual(got, []string{"zinc", "single"}) {
		t.Fatalf("split last words tail = %q", got)
	}

	tb = linesTable(t, in)
	tb.CutLastWords(0, 2)
	if got := column(tb, 0); !reflect.DeepEqual(got, []string{"Bolt", ""}) {
		t.Fatalf("cut last words = %q", got)
	}

	tb = linesTable(t, in)
	tb.SplitAfterWords(0, 2)
	if got := column(tb, 1); !reflect.DeepEqual(got, []string{"zinc", ""}) {
		t.Fatalf("split after words tail = %q", got)
	}
}

func TestChangeCase(t *testing.T) {
	cases := []struct {
		in, locale string
		casing     Casing
		lowerFirst bool
		want       string
	}{
		{"abc Déf", "", Upper, false, "ABC DÉF"},
		{"ABC Déf", "", Lower, false, "abc déf"},
		{"hello wORLD", "en", Title, false, "Hello WORLD"},
		{"hello wORLD", "en", Title, true, "Hello World"},
		{"istanbul", "tr", Upper, false, "İSTANBUL"},
	}
	for _, tc := range cases {
		tb := linesTable(t, []string{tc.in})
		if err := tb.ChangeCase(0, tc.casing, tc.locale, tc.lowerFirst); err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got := tb.Cell(0, 0); got != tc.want {
			t.Fatalf("ChangeCase(%q,%s) = %q, want %q", tc.in, tc.locale, got, tc.want)
		}
	}
	if err := linesTable(t, []string{"x"}).ChangeCase(0, Upper, "not a locale!", false); err == nil {
		t.Fatalf("expected locale error")
	}
}

func TestFills(t *testing.T) {
	tb := linesTable(t, []string{"", "x", "", " ", "y", ""})
	c := tb.Clone()
	c.FillFromPrevious(0)
	if got := column(c, 0); !reflect.DeepEqual(got, []string{"", "x", "x", "x", "y", "y"}) {
		t.Fatalf("previous = %q", got)
	}
	c = tb.Clone()
	c.FillFromNext(0)
	if got := column(c, 0); !reflect.DeepEqual(got, []string{"x", "x", "y", "y", "y", ""}) {
		t.Fatalf("next = %q", got)
	}
	c = tb.Clone()
	c.FillStatic(0, "-")
	if got := column(c, 0); !reflect.DeepEqual(got, []string{"-", "x", "-", "-", "y", "-"}) {
		t.Fatalf("static = %q", got)
	}
}

/*
TestFillRowIndex verifies blank cells get start plus their row index.
*/
func TestFillRowIndex(t *testing.T) {
	tb := linesTable(t, []string{"", "x", ""})
	tb.FillRowIndex(0, 10)
	if got := column(tb, 0); !reflect.DeepEqual(got, []string{"10", "x", "12"}) {
		t.Fatalf("got %q", got)
	}
}

func TestColumns(t *testing.T) {
	tb, _ := New([]string{"a", "b", "c"}, [][]string{{"1", "2", "3"}, {"4"}}, []int{1, 2})

	c := tb.Clone()
	if err := c.KeepColumns([]int{2, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if got := c.ColumnNames(); !reflect.DeepEqual(got, []string{"c", "a", "a_2"}) {
		t.Fatalf("names = %q", got)
	}
	if got := c.Row(0); !reflect.DeepEqual(got, []string{"3", "1", "1"}) {
		t.Fatalf("row = %q", got)
	}
	if err := c.KeepColumns([]int{7}); err == nil {
		t.Fatalf("expected range error")
	}

	c = tb.Clone()
	c.Rename([]string{"", "B", "a"})
	if got := c.ColumnNames(); !reflect.DeepEqual(got, []string{"a", "B", "a_2"}) {
		t.Fatalf("rename = %q", got)
	}

	c = tb.Clone()
	if at := c.InsertBlank(99, ""); at != 3 {
		t.Fatalf("insert at = %d", at)
	}
	if got := c.ColumnNames(); !reflect.DeepEqual(got, []string{"a", "b", "c", "Col3"}) {
		t.Fatalf("insert names = %q", got)
	}
	c.InsertBlank(0, "z")
	if got := c.Row(0); !reflect.DeepEqual(got, []string{"", "1", "2", "3", ""}) {
		t.Fatalf("insert row = %q", got)
	}
}

func TestCopyColumn(t *testing.T) {
	tb, _ := New([]string{"a", "b"}, [][]string{{"1", "x"}, {"", "y"}, {"2"}}, []int{1, 1, 1})

	c := tb.Clone()
	if err := c.CopyColumn(0, 1, Overwrite, "", true); err != nil {
		t.Fatal(err)
	}
	if got := column(c, 1); !reflect.DeepEqual(got, []string{"1", "y", "2"}) {
		t.Fatalf("overwrite = %q", got)
	}

	c = tb.Clone()
	if err := c.CopyColumn(0, 1, Append, "|", false); err != nil {
		t.Fatal(err)
	}
	if got := column(c, 1); !reflect.DeepEqual(got, []string{"x|1", "y", "2"}) {
		t.Fatalf("append = %q", got)
	}

	if err := tb.CopyColumn(0, 5, Overwrite, "", false); err == nil {
		t.Fatalf("expected destination error")
	}
}

/*
TestMergeGroups_StartOnly verifies groups close before the next start match
and leading rows are dropped.
*/
func TestMergeGroups_StartOnly(t *testing.T) {
	tb := linesTable(t, []string{"junk", "H", "a", "H", "b", "c"}, 1, 1, 1, 1, 2, 2)
	n, err := tb.MergeGroups(0, "^H$", "", false, false, ConcatSpace)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || !reflect.DeepEqual(column(tb, 0), []string{"H a", "H b c"}) {
		t.Fatalf("got %d %q", n, column(tb, 0))
	}
	if got := tb.RowPages(); !reflect.DeepEqual(got, []int{1, 1}) {
		t.Fatalf("pages = %v", got)
	}
}

func TestMergeGroups_EndAndPageReset(t *testing.T) {
	tb := linesTable(t, []string{"S", "1", "E", "x", "S", "2", "S", "3"}, 1, 1, 1, 1, 1, 1, 2, 2)
	if _, err := tb.MergeGroups(0, "^S$", "^E$", false, true, ConcatNewline); err != nil {
		t.Fatal(err)
	}
	want := []string{"S\n1\nE", "S\n2", "S\n3"}
	if got := column(tb, 0); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := tb.RowPages(); !reflect.DeepEqual(got, []int{1, 1, 2}) {
		t.Fatalf("pages = %v", got)
	}
}

func TestMergeStrategies(t *testing.T) {
	rows := [][]string{{"H", ""}, {"", "a"}, {"", "b"}}
	cases := []struct {
		s    MergeStrategy
		want []string
	}{
		{ConcatSpace, []string{"H", "a b"}},
		{FirstNonEmpty, []string{"H", "a"}},
		{LastNonEmpty, []string{"H", "b"}},
	}
	for _, tc := range cases {
		tb, _ := New([]string{"k", "v"}, rows, []int{1, 1, 1})
		if _, err := tb.MergeGroups(0, "H", "", false, false, tc.s); err != nil {
			t.Fatal(err)
		}
		if got := tb.Row(0); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: %q, want %q", tc.s, got, tc.want)
		}
	}

	if _, err := linesTable(t, []string{"x"}).MergeGroups(0, " ", "", false, false, ConcatSpace); !errors.Is(err, ErrPattern) {
		t.Fatalf("empty start must fail with ErrPattern, got %v", err)
	}

	var s MergeStrategy
	if err := json.Unmarshal([]byte(`"lastnonempty"`), &s); err != nil || s != LastNonEmpty {
		t.Fatalf("unmarshal = %v, %v", s, err)
	}
}

/*
TestExtract_Expand verifies all matches spread into one column per ordinal,
sized by the row with the most matches.
*/
func TestExtract_Expand(t *testing.T) {
	tb := linesTable(t, []string{"1,2,3", "4", "none"})
	err := tb.Extract(0, ExtractOptions{Pattern: `\d+`, AllMatches: true, Expand: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := tb.ColumnNames(); !reflect.DeepEqual(got, []string{"Col0", "Col0_rx_m1", "Col0_rx_m2", "Col0_rx_m3"}) {
		t.Fatalf("names = %q", got)
	}
	if got := tb.Row(0); !reflect.DeepEqual(got, []string{"1,2,3", "1", "2", "3"}) {
		t.Fatalf("row 0 = %q", got)
	}
	if got := tb.Row(1); !reflect.DeepEqual(got, []string{"4", "4", "", ""}) {
		t.Fatalf("row 1 = %q", got)
	}
}

func TestExtract_Modes(t *testing.T) {
	in := []string{"id=7 id=8", "nothing"}

	tb := linesTable(t, in)
	if err := tb.Extract(0, ExtractOptions{Pattern: `id=(\d)`, Group: 1, NewColumn: "id"}); err != nil {
		t.Fatal(err)
	}
	if got := column(tb, 1); !reflect.DeepEqual(got, []string{"7", ""}) {
		t.Fatalf("single new column = %q", got)
	}
	if tb.ColumnName(1) != "id" {
		t.Fatalf("name = %q", tb.ColumnName(1))
	}

	tb = linesTable(t, in)
	if err := tb.Extract(0, ExtractOptions{Pattern: `id=(\d)`, Group: 1, AllMatches: true, InPlace: true, Separator: ", "}); err != nil {
		t.Fatal(err)
	}
	if got := column(tb, 0); !reflect.DeepEqual(got, []string{"7, 8", ""}) {
		t.Fatalf("all in place = %q", got)
	}

	tb = linesTable(t, in)
	if err := tb.Extract(0, ExtractOptions{Pattern: `id=\d`, Group: 3}); err != nil {
		t.Fatal(err)
	}
	if got := column(tb, 1); !reflect.DeepEqual(got, []string{"", ""}) {
		t.Fatalf("out-of-range group = %q", got)
	}
}

func TestToScalar(t *testing.T) {
	tb := linesTable(t, []string{"Invoice: ACME-42 ", "x"})
	if err := tb.ToScalar(0, -5, `(ACME)-\d+`, 1, true); err != nil {
		t.Fatal(err)
	}
	if !tb.IsScalar() || tb.ScalarValue() != "ACME" {
		t.Fatalf("scalar = %v %q", tb.IsScalar(), tb.ScalarValue())
	}

	tb = linesTable(t, []string{"a", " b "})
	if err := tb.ToScalar(0, 99, "", 1, true); err != nil {
		t.Fatal(err)
	}
	if tb.ScalarValue() != "b" {
		t.Fatalf("clamped row value = %q", tb.ScalarValue())
	}

	tb = linesTable(t, []string{"abc"})
	_ = tb.ToScalar(0, 0, "b", 4, false)
	if tb.ScalarValue() != "b" {
		t.Fatalf("missing group must fall back to match, got %q", tb.ScalarValue())
	}

	empty := linesTable(t, nil)
	_ = empty.ToScalar(0, 0, "", 0, false)
	if !empty.IsScalar() || empty.ScalarValue() != "" {
		t.Fatalf("empty table scalar = %q", empty.ScalarValue())
	}
}

func TestRecords_PreserveColumnOrder(t *testing.T) {
	tb, _ := New([]string{"z", "a"}, [][]string{{"1"}}, []int{1})
	recs := tb.Records()
	b, err := json.Marshal(recs)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[{"z":"1","a":""}]` {
		t.Fatalf("json = %s", b)
	}
	if v, ok := recs[0].Get("z"); !ok || v != "1" {
		t.Fatalf("Get = %q %v", v, ok)
	}
}
