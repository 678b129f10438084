package step

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"lineparser/internal/suggest"
	"lineparser/internal/table"
)

// Step discriminators. These strings are persisted and must never change.
const (
	KindKeepTableSection             = "KeepTableSection"
	KindKeepRowsWhereRegex           = "KeepRowsWhereRegex"
	KindKeepRowsWhereNotEmpty        = "KeepRowsWhereNotEmpty"
	KindTrimAll                      = "TrimAll"
	KindTransformTrim                = "TransformTrim"
	KindTransformReplaceRegex        = "TransformReplaceRegex"
	KindTransformLeft                = "TransformLeft"
	KindTransformRight               = "TransformRight"
	KindTransformCutLastWords        = "TransformCutLastWords"
	KindFillEmpty                    = "FillEmpty"
	KindFillEmptyWithRowIndex        = "FillEmptyWithRowIndex"
	KindFillEmptyWithStaticValue     = "FillEmptyWithStaticValue"
	KindTransformToUpper             = "TransformToUpper"
	KindTransformToLower             = "TransformToLower"
	KindTransformToTitleCase         = "TransformToTitleCase"
	KindSplitOnKeyword               = "SplitOnKeyword"
	KindSplitAfterChars              = "SplitAfterChars"
	KindSplitAfterWords              = "SplitAfterWords"
	KindSplitOnRegexDelimiter        = "SplitOnRegexDelimiter"
	KindSplitCutLastWordsToNewColumn = "SplitCutLastWordsToNewColumn"
	KindSplitCutLastCharsToNewColumn = "SplitCutLastCharsToNewColumn"
	KindKeepColumns                  = "KeepColumns"
	KindDropFirstRow                 = "DropFirstRow"
	KindRenameColumns                = "RenameColumns"
	KindInsertBlankColumn            = "InsertBlankColumn"
	KindCopyColumn                   = "CopyColumn"
	KindMergeRowsByGroup             = "MergeRowsByGroup"
	KindRegexExtract                 = "RegexExtract"
	KindToScalarFromCell             = "ToScalarFromCell"
)

// longSuffix is the optional trailing part of the long discriminator form.
const longSuffix = "step"

// factories build a step with its default parameters.
var factories = map[string]func() Step{
	KindKeepTableSection: func() Step {
		return &KeepTableSection{Meta: on(), Col: table.Index(0), IncludeStart: true, IncludeEnd: true}
	},
	KindKeepRowsWhereRegex:    func() Step { return &KeepRowsWhereRegex{Meta: on(), Col: table.Index(0), Regex: ".*"} },
	KindKeepRowsWhereNotEmpty: func() Step { return &KeepRowsWhereNotEmpty{Meta: on(), Col: table.Index(0)} },
	KindTrimAll:               func() Step { return &TrimAll{Meta: on()} },
	KindTransformTrim:         func() Step { return &TransformTrim{Meta: on(), Col: table.Index(0)} },
	KindTransformReplaceRegex: func() Step { return &TransformReplaceRegex{Meta: on(), Col: table.Index(0)} },
	KindTransformLeft:         func() Step { return &TransformLeft{Meta: on(), Col: table.Index(0)} },
	KindTransformRight:        func() Step { return &TransformRight{Meta: on(), Col: table.Index(0)} },
	KindTransformCutLastWords: func() Step { return &TransformCutLastWords{Meta: on(), Col: table.Index(0), W: 1} },
	KindFillEmpty:             func() Step { return &FillEmpty{Meta: on(), Col: table.Index(0)} },
	KindFillEmptyWithRowIndex: func() Step { return &FillEmptyWithRowIndex{Meta: on(), Col: table.Index(0)} },
	KindFillEmptyWithStaticValue: func() Step {
		return &FillEmptyWithStaticValue{Meta: on(), Col: table.Index(0)}
	},
	KindTransformToUpper: func() Step { return &TransformToUpper{Meta: on(), Col: table.Index(0)} },
	KindTransformToLower: func() Step { return &TransformToLower{Meta: on(), Col: table.Index(0)} },
	KindTransformToTitleCase: func() Step {
		return &TransformToTitleCase{Meta: on(), Col: table.Index(0), ForceLowerFirst: true}
	},
	KindSplitOnKeyword:        func() Step { return &SplitOnKeyword{Meta: on(), Col: table.Index(0)} },
	KindSplitAfterChars:       func() Step { return &SplitAfterChars{Meta: on(), Col: table.Index(0), N: 1} },
	KindSplitAfterWords:       func() Step { return &SplitAfterWords{Meta: on(), Col: table.Index(0), W: 1} },
	KindSplitOnRegexDelimiter: func() Step { return &SplitOnRegexDelimiter{Meta: on(), Col: table.Index(0)} },
	KindSplitCutLastWordsToNewColumn: func() Step {
		return &SplitCutLastWordsToNewColumn{Meta: on(), Col: table.Index(0), W: 1}
	},
	KindSplitCutLastCharsToNewColumn: func() Step {
		return &SplitCutLastCharsToNewColumn{Meta: on(), Col: table.Index(0), N: 1}
	},
	KindKeepColumns:       func() Step { return &KeepColumns{Meta: on()} },
	KindDropFirstRow:      func() Step { return &DropFirstRow{Meta: on()} },
	KindRenameColumns:     func() Step { return &RenameColumns{Meta: on()} },
	KindInsertBlankColumn: func() Step { return &InsertBlankColumn{Meta: on()} },
	KindCopyColumn: func() Step {
		return &CopyColumn{Meta: on(), Source: table.Index(0), Overwrite: true, Separator: " "}
	},
	KindMergeRowsByGroup: func() Step { return &MergeRowsByGroup{Meta: on(), Col: table.Index(0)} },
	KindRegexExtract: func() Step {
		return &RegexExtract{Meta: on(), Col: table.Index(0), JoinSeparator: ", "}
	},
	KindToScalarFromCell: func() Step {
		return &ToScalarFromCell{Meta: on(), Col: table.Index(0), Group: 1, Trim: true}
	},
}

// byFold indexes factories by lower-cased kind.
var byFold = func() map[string]string {
	m := make(map[string]string, len(factories))
	for k := range factories {
		m[strings.ToLower(k)] = k
	}
	return m
}()

// Kinds returns every registered discriminator, sorted.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// canonical maps a short or long ("...Step") discriminator, in any case, to
// its canonical short form.
func canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if k, ok := byFold[n]; ok {
		return k, true
	}
	if strings.HasSuffix(n, longSuffix) {
		if k, ok := byFold[strings.TrimSuffix(n, longSuffix)]; ok {
			return k, true
		}
	}
	return "", false
}

func unknownKind(name string) error {
	short := strings.TrimSpace(name)
	if len(short) > len(longSuffix) && strings.EqualFold(short[len(short)-len(longSuffix):], longSuffix) {
		short = short[:len(short)-len(longSuffix)]
	}
	return fmt.Errorf("%w %q%s", ErrUnknownKind, name, suggest.Hint(suggest.Closest(short, Kinds(), 3)))
}

// New returns a step of the given kind with default parameters.
func New(kind string) (Step, error) {
	k, ok := canonical(kind)
	if !ok {
		return nil, unknownKind(kind)
	}
	return factories[k](), nil
}

// Marshal encodes s as {"type": <kind>, ...fields}.
func Marshal(s Step) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("step: marshal %s: %w", s.Kind(), err)
	}
	typ, _ := json.Marshal(s.Kind())

	var buf bytes.Buffer
	buf.Grow(len(body) + len(typ) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one tagged step. Fields absent from the document keep
// their defaults. An unknown discriminator is an error wrapping
// ErrUnknownKind.
func Unmarshal(b []byte) (Step, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	if head.Type == nil {
		return nil, fmt.Errorf("step: %w: missing \"type\"", ErrUnknownKind)
	}
	s, err := New(*head.Type)
	if err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("step: decode %s: %w", s.Kind(), err)
	}
	return s, nil
}

// List is an ordered step list with a tagged JSON form.
type List []Step

func (l List) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(l))
	for i, s := range l {
		b, err := Marshal(s)
		if err != nil {
			return nil, err
		}
		items[i] = b
	}
	return json.Marshal(items)
}

func (l *List) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("step: list: %w", err)
	}
	out := make(List, len(items))
	for i, raw := range items {
		s, err := Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		out[i] = s
	}
	*l = out
	return nil
}

// Clone deep-copies every step of l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, s := range l {
		out[i] = s.Clone()
	}
	return out
}

// Validate checks every step and returns the first failure, prefixed with
// its position.
func (l List) Validate() error {
	for i, s := range l {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
