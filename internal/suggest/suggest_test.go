package suggest

import (
	"reflect"
	"testing"
)

func TestClosest(t *testing.T) {
	kinds := []string{"TransformTrim", "TrimAll", "TransformLeft", "SplitAfterChars"}

	tests := []struct {
		name   string
		target string
		n      int
		want   []string
	}{
		{name: "subsequence", target: "trimall", n: 3, want: []string{"TrimAll"}},
		{name: "typo falls back to edit distance", target: "TrimAlll2", n: 3, want: []string{"TrimAll"}},
		{name: "nothing close", target: "zzzzzzzz", n: 3, want: []string{}},
		{name: "empty target", target: "", n: 3, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Closest(tt.target, kinds, tt.n)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Closest(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestHint(t *testing.T) {
	if got := Hint(nil); got != "" {
		t.Fatalf("Hint(nil) = %q", got)
	}
	if got := Hint([]string{"A"}); got != " (did you mean A?)" {
		t.Fatalf("Hint(one) = %q", got)
	}
	if got := Hint([]string{"A", "B"}); got != " (did you mean one of A, B?)" {
		t.Fatalf("Hint(two) = %q", got)
	}
}
