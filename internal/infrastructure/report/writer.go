package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/mattn/go-isatty"
)

type Writer struct{}

var (
	_ application.Reporter         = Writer{}
	_ application.CommentFormatter = Writer{}
)

func (Writer) Write(w io.Writer, summary domain.Summary, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		payload := struct {
			domain.Summary
			HeadPercent float64 `json:"headPercent"`
		}{
			Summary:     summary,
			HeadPercent: summary.HeadPercent(),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputText:
		return writeText(w, summary)
	case application.OutputMarkdown, "":
		_, err := io.WriteString(w, Markdown(summary))
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatComment renders the markdown report used as a PR comment body.
func (Writer) FormatComment(summary domain.Summary) string {
	return Markdown(summary)
}

func writeText(w io.Writer, summary domain.Summary) error {
	colorize := colorEnabled(w)
	upStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)

	paint := func(label string, delta *domain.Delta) string {
		if !colorize || delta == nil {
			return label
		}
		if delta.Indicator == domain.IndicatorUp {
			return upStyle.Render(label)
		}
		return downStyle.Render(label)
	}

	_, _ = fmt.Fprintf(w, "Total line coverage: %s (%s lines)\n",
		domain.FormatPercent(summary.HeadPercent()), summary.HeadTotal)

	if section := summary.ChangedFiles; section != nil {
		_, _ = fmt.Fprintf(w, "\nChanged files: %s\n", paint(section.TotalLabel, section.TotalDelta))
		if len(section.Rows) > 0 {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "File\tCoverage")
			for _, row := range section.Rows {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", row.Path, paint(row.Label, row.Delta))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		if section.Omitted > 0 {
			_, _ = fmt.Fprintf(w, "(%d more files omitted)\n", section.Omitted)
		}
	}

	_, _ = fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Package\tCoverage\tLines")
	for _, row := range summary.Packages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\n", row.Name, domain.FormatPercent(row.Percent), row.Covered, row.Total)
	}
	return tw.Flush()
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
