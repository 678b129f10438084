package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"lineparser/internal/pipeline"
	"lineparser/internal/router"
)

const (
	headerSheet   = "Header"
	maxSheetName  = 31
	invalidSheetC = `[]:*?/\`
)

// SheetName makes name usable as a worksheet title: forbidden characters
// become "_", the result is cut to 31 runes and a blank name becomes "Sheet".
func SheetName(name string) string {
	s := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetC, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "'")
	if s == "" {
		s = "Sheet"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

// uniqueSheet returns a sheet title not yet in used, comparing
// case-insensitively as Excel does.
func uniqueSheet(name string, used map[string]bool) string {
	base := SheetName(name)
	cand := base
	for k := 2; used[strings.ToLower(cand)]; k++ {
		suffix := "_" + strconv.Itoa(k)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		cand = string(r) + suffix
	}
	used[strings.ToLower(cand)] = true
	return cand
}

// WriteXLSX writes res as a workbook. The first sheet, "Header", lists the
// parser info followed by every scalar rule; each table rule gets its own
// sheet with a header row and a trailing page column.
func WriteXLSX(w io.Writer, res *router.Result, _ Options) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("format: xlsx: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", headerSheet); err != nil {
		return fmt.Errorf("format: xlsx: %w", err)
	}
	used := map[string]bool{strings.ToLower(headerSheet): true}

	row := 1
	put := func(k, v string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(headerSheet, cell, &[]any{k, v})
	}
	info := [][2]string{{"Parser", res.Info.Parser}, {"Routed", strconv.FormatBool(res.Routed)}}
	if res.Routed {
		info = append(info, [2]string{"Subparser", res.Info.Target}, [2]string{"TagRule", res.Info.TagRule}, [2]string{"TagValue", res.Info.TagValue})
	}
	for _, kv := range info {
		if err := put(kv[0], kv[1]); err != nil {
			return fmt.Errorf("format: xlsx: %w", err)
		}
	}
	for _, out := range res.Outputs {
		for _, s := range out.Scalars() {
			if err := put(s.Name, s.Value); err != nil {
				return fmt.Errorf("format: xlsx: %w", err)
			}
		}
	}

	for _, out := range res.Outputs {
		for _, r := range out.Rules {
			if r.Table.IsScalar() {
				continue
			}
			sheet := uniqueSheet(r.Name, used)
			if err := writeSheet(f, sheet, r); err != nil {
				return fmt.Errorf("format: xlsx: rule %q: %w", r.Name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("format: xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, r pipeline.RuleOutput) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	t := r.Table
	header := make([]any, 0, t.ColumnCount()+1)
	for _, n := range t.ColumnNames() {
		header = append(header, n)
	}
	header = append(header, "Page")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		vals := make([]any, 0, t.ColumnCount()+1)
		for c := 0; c < t.ColumnCount(); c++ {
			vals = append(vals, t.Cell(i, c))
		}
		vals = append(vals, t.Page(i))
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return nil
}
