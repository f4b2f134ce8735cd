package report

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Markdown renders a summary as a pull-request comment. The output is a pure
// function of the summary and always starts with domain.ReportMarker.
func Markdown(summary domain.Summary) string {
	lines := []string{domain.ReportMarker}

	if section := summary.ChangedFiles; section != nil {
		lines = append(lines, changedFilesLines(section)...)
	}

	lines = append(lines,
		"",
		"## ☂️ Coverage details",
		"",
		"<details>",
		"<summary>Show details</summary>",
		"",
		fmt.Sprintf("**Total line coverage:** %s (%s lines)",
			domain.FormatPercent(summary.HeadPercent()), summary.HeadTotal),
		"",
		packageTable(summary.Packages),
		"",
		"</details>",
	)

	return strings.Join(lines, "\n") + "\n"
}

func changedFilesLines(section *domain.ChangedFilesSection) []string {
	lines := []string{
		"",
		"## 🔍 Changed files coverage",
		"",
		"Total coverage: " + section.TotalLabel,
		"",
	}

	if len(section.Rows) > 0 {
		t := newTable("File", "Line coverage")
		for _, row := range section.Rows {
			t.AppendRow(table.Row{code(row.Path), row.Label})
		}
		lines = append(lines, t.RenderMarkdown())
	}

	if section.Omitted > 0 {
		lines = append(lines,
			"",
			fmt.Sprintf("_Table truncated: %d more files omitted._", section.Omitted),
		)
	}
	return lines
}

// packageTable renders the header even when no package has coverable lines.
func packageTable(rows []domain.PackageRow) string {
	t := newTable("Package", "Line coverage")
	for _, row := range rows {
		t.AppendRow(table.Row{
			code(row.Name),
			fmt.Sprintf("%s (%d/%d)", domain.FormatPercent(row.Percent), row.Covered, row.Total),
		})
	}
	return t.RenderMarkdown()
}

// newTable pins every column to left alignment. Without it go-pretty treats
// columns with no rows as numeric and right-aligns them.
func newTable(headers ...string) table.Writer {
	t := table.NewWriter()
	header := make(table.Row, 0, len(headers))
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i, h := range headers {
		header = append(header, h)
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignLeft})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)
	return t
}

func code(s string) string {
	return "`" + s + "`"
}
