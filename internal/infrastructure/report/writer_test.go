package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
)

func sampleSummary(t *testing.T) domain.Summary {
	t.Helper()
	base := parse(t, baseXML)
	return domain.Summarize(parse(t, headXML), &base, changedFiles, true)
}

func TestWriteText(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleSummary(t), application.OutputText); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := buf.String()
	for _, want := range []string{
		"Total line coverage: 80.00% (80/100 lines)",
		"Changed files: 80.00% (🟢 +10.00%)",
		"src/main/java/com/example/Foo.java",
		"75.00% (🟢 +25.00%)",
		"com.example",
		"4/6",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("expected no ANSI codes when writing to a buffer")
	}
}

func TestWriteTextWithoutChangedFiles(t *testing.T) {
	buf := new(bytes.Buffer)
	summary := domain.Summarize(parse(t, headXML), nil, "", false)
	if err := (Writer{}).Write(buf, summary, application.OutputText); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.Contains(buf.String(), "Changed files") {
		t.Fatal("unexpected changed files section")
	}
}

func TestWriteJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleSummary(t), application.OutputJSON); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := buf.String()
	for _, want := range []string{
		`"headPercent": 80`,
		`"totalLabel": "80.00% (🟢 +10.00%)"`,
		`"path": "src/main/java/com/example/Foo.java"`,
		`"name": "com.example"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in JSON:\n%s", want, output)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	summary := sampleSummary(t)
	for _, format := range []application.OutputFormat{application.OutputMarkdown, ""} {
		buf := new(bytes.Buffer)
		if err := (Writer{}).Write(buf, summary, format); err != nil {
			t.Fatalf("write %q: %v", format, err)
		}
		if buf.String() != Markdown(summary) {
			t.Errorf("format %q: expected markdown output", format)
		}
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	err := (Writer{}).Write(buf, domain.Summary{}, application.OutputFormat("xml"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestColorEnabledNonFile(t *testing.T) {
	if colorEnabled(new(bytes.Buffer)) {
		t.Fatal("expected color disabled for non-file writers")
	}
}

func TestColorEnabledNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if colorEnabled(new(bytes.Buffer)) {
		t.Fatal("expected color disabled with NO_COLOR")
	}
}
