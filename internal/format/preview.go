package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"lineparser/internal/router"
	"lineparser/internal/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	scalarStyle = lipgloss.NewStyle().Italic(true)
)

// Render draws t as a bordered grid with a leading row-number column and a
// trailing page column. A scalar renders as its quoted value.
func Render(t *table.Table) string {
	if t.IsScalar() {
		return scalarStyle.Render(strconv.Quote(t.ScalarValue()))
	}
	headers := append([]string{"#"}, t.ColumnNames()...)
	headers = append(headers, "Page")
	rows := make([][]string, t.Len())
	for i := range rows {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.Itoa(i))
		row = append(row, t.Row(i)...)
		for len(row) < len(headers)-1 {
			row = append(row, "")
		}
		rows[i] = append(row, strconv.Itoa(t.Page(i)))
	}
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// WritePreview prints every rule of res under its title.
func WritePreview(w io.Writer, res *router.Result, _ Options) error {
	var sb strings.Builder
	if res.Routed {
		fmt.Fprintf(&sb, "%s\n\n", titleStyle.Render(fmt.Sprintf("Routed %s -> %s (tag %q)", res.Info.Parser, res.Info.Target, res.Info.TagValue)))
	}
	for _, out := range res.Outputs {
		for _, r := range out.Rules {
			fmt.Fprintf(&sb, "%s\n%s\n\n", titleStyle.Render(out.Parser+" › "+r.Name), Render(r.Table))
		}
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("format: preview: %w", err)
	}
	return nil
}
