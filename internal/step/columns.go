package step

import (
	"fmt"
	"strings"

	"lineparser/internal/table"
)

// KeepColumns keeps only the selected columns, in the order given.
type KeepColumns struct {
	Meta
	Keep []table.Selector `json:"keep"`
}

func (s *KeepColumns) Kind() string { return KindKeepColumns }

func (s *KeepColumns) Apply(t *table.Table, p Policy, log Logger) error {
	idx := make([]int, 0, len(s.Keep))
	for _, sel := range s.Keep {
		col, ok, err := resolve(t, sel, p, log)
		if err != nil {
			return err
		}
		if ok {
			idx = append(idx, col)
		}
	}
	if len(idx) == 0 {
		log.Printf("KeepColumns: no valid columns")
		return nil
	}
	if err := t.KeepColumns(idx); err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("KeepColumns => %d col(s)", len(idx))
	return nil
}

func (s *KeepColumns) Describe() string {
	parts := make([]string, len(s.Keep))
	for i, sel := range s.Keep {
		parts[i] = sel.String()
	}
	return "KeepColumns [" + strings.Join(parts, ", ") + "]"
}

func (s *KeepColumns) Validate() error {
	if len(s.Keep) == 0 {
		return fmt.Errorf("%s: %w: keep is empty", s.Kind(), ErrInvalidParam)
	}
	for i, sel := range s.Keep {
		if err := checkSelector(s.Kind(), fmt.Sprintf("keep[%d]", i), sel); err != nil {
			return err
		}
	}
	return nil
}

func (s *KeepColumns) Clone() Step {
	c := *s
	c.Keep = append([]table.Selector(nil), s.Keep...)
	return &c
}

// RenameColumns renames columns positionally; blank entries keep the old
// name.
type RenameColumns struct {
	Meta
	Names []string `json:"names"`
}

func (s *RenameColumns) Kind() string { return KindRenameColumns }

func (s *RenameColumns) Apply(t *table.Table, _ Policy, log Logger) error {
	t.Rename(s.Names)
	log.Printf("RenameColumns => %s", strings.Join(t.ColumnNames(), ", "))
	return nil
}

func (s *RenameColumns) Describe() string {
	return "RenameColumns [" + strings.Join(s.Names, ", ") + "]"
}

func (s *RenameColumns) Validate() error { return nil }

func (s *RenameColumns) Clone() Step {
	c := *s
	c.Names = append([]string(nil), s.Names...)
	return &c
}

// InsertBlankColumn inserts an empty column at InsertIndex.
type InsertBlankColumn struct {
	Meta
	InsertIndex int    `json:"insertIndex"`
	ColumnName  string `json:"columnName,omitempty"`
}

func (s *InsertBlankColumn) Kind() string { return KindInsertBlankColumn }

func (s *InsertBlankColumn) Apply(t *table.Table, _ Policy, log Logger) error {
	at := t.InsertBlank(s.InsertIndex, s.ColumnName)
	log.Printf("InsertBlankColumn at %d name=%q", at, t.ColumnName(at))
	return nil
}

func (s *InsertBlankColumn) Describe() string {
	return fmt.Sprintf("InsertBlankColumn at %d name=%q", s.InsertIndex, s.ColumnName)
}

func (s *InsertBlankColumn) Validate() error { return checkCount(s.Kind(), "insertIndex", s.InsertIndex) }
func (s *InsertBlankColumn) Clone() Step     { c := *s; return &c }

// CopyColumn copies Source into the column at DestinationIndex, or into a
// new column inserted there when CreateNewDestination is set. Append wins
// over Overwrite; with neither set the step does nothing.
type CopyColumn struct {
	Meta
	Source                 table.Selector `json:"source"`
	CreateNewDestination   bool           `json:"createNewDestination"`
	DestinationIndex       int            `json:"destinationIndex"`
	NewColumnName          string         `json:"newColumnName,omitempty"`
	Append                 bool           `json:"append"`
	Overwrite              bool           `json:"overwrite"`
	Separator              string         `json:"separator"`
	OnlyWhenSourceNonEmpty bool           `json:"onlyWhenSourceNonEmpty"`
}

func (s *CopyColumn) Kind() string { return KindCopyColumn }

func (s *CopyColumn) Apply(t *table.Table, p Policy, log Logger) error {
	src, ok, err := resolve(t, s.Source, p, log)
	if !ok {
		return err
	}
	if !s.Append && !s.Overwrite {
		log.Printf("CopyColumn: neither append nor overwrite set")
		return nil
	}
	dest := s.DestinationIndex
	if s.CreateNewDestination {
		dest = t.InsertBlank(s.DestinationIndex, s.NewColumnName)
		if dest <= src {
			src++
		}
	}
	mode := table.Overwrite
	if s.Append {
		mode = table.Append
	}
	if err := t.CopyColumn(src, dest, mode, s.Separator, s.OnlyWhenSourceNonEmpty); err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("CopyColumn src=%d dest=%d append=%t overwrite=%t", src, dest, s.Append, s.Overwrite)
	return nil
}

func (s *CopyColumn) Describe() string {
	dest := fmt.Sprintf("col %d", s.DestinationIndex)
	if s.CreateNewDestination {
		dest = fmt.Sprintf("new col %q at %d", s.NewColumnName, s.DestinationIndex)
	}
	mode := "overwrite"
	if s.Append {
		mode = fmt.Sprintf("append sep=%q", s.Separator)
	}
	return fmt.Sprintf("CopyColumn %s -> %s (%s)", s.Source, dest, mode)
}

func (s *CopyColumn) Validate() error {
	if err := checkSelector(s.Kind(), "source", s.Source); err != nil {
		return err
	}
	return checkCount(s.Kind(), "destinationIndex", s.DestinationIndex)
}

func (s *CopyColumn) Clone() Step { c := *s; return &c }

// MergeRowsByGroup folds runs of rows into one row per group.
type MergeRowsByGroup struct {
	Meta
	Col             table.Selector      `json:"col"`
	StartPattern    string              `json:"startPattern"`
	EndPattern      string              `json:"endPattern,omitempty"`
	CaseInsensitive bool                `json:"caseInsensitive"`
	ResetPerPage    bool                `json:"resetPerPage"`
	Strategy        table.MergeStrategy `json:"strategy"`
}

func (s *MergeRowsByGroup) Kind() string { return KindMergeRowsByGroup }

func (s *MergeRowsByGroup) Apply(t *table.Table, p Policy, log Logger) error {
	col, ok, err := resolve(t, s.Col, p, log)
	if !ok {
		return err
	}
	groups, err := t.MergeGroups(col, s.StartPattern, s.EndPattern, s.CaseInsensitive, s.ResetPerPage, s.Strategy)
	if err != nil {
		return invalid(s.Kind(), err)
	}
	log.Printf("MergeRowsByGroup col=%d start=%s end=%s strategy=%s => %d group(s)", col, rx(s.StartPattern), rx(s.EndPattern), s.Strategy, groups)
	return nil
}

func (s *MergeRowsByGroup) Describe() string {
	return fmt.Sprintf("MergeRowsByGroup %s start=%s end=%s %s", s.Col, rx(s.StartPattern), rx(s.EndPattern), s.Strategy)
}

func (s *MergeRowsByGroup) Validate() error {
	if err := checkSelector(s.Kind(), "col", s.Col); err != nil {
		return err
	}
	if err := checkPattern(s.Kind(), "startPattern", s.StartPattern, true); err != nil {
		return err
	}
	return checkPattern(s.Kind(), "endPattern", s.EndPattern, false)
}

func (s *MergeRowsByGroup) Clone() Step { c := *s; return &c }
