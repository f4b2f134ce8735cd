package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/config"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/parsers/jacoco"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	headXML = `<report name="app">
  <package name="com/example">
    <sourcefile name="Foo.java"><counter type="LINE" missed="1" covered="3"/></sourcefile>
    <counter type="LINE" missed="1" covered="3"/>
  </package>
  <counter type="LINE" missed="20" covered="80"/>
</report>`
	baseXML = `<report name="app">
  <package name="com/example">
    <sourcefile name="Foo.java"><counter type="LINE" missed="2" covered="2"/></sourcefile>
    <counter type="LINE" missed="2" covered="2"/>
  </package>
  <counter type="LINE" missed="30" covered="70"/>
</report>`
	fooPath = "src/main/java/com/example/Foo.java"
)

func newService() *application.Service {
	return &application.Service{
		Parser:   jacoco.New(),
		Reporter: report.Writer{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:      io.Discard,
	}
}

// connect starts the server on an in-memory transport and returns a client session.
func connect(t *testing.T, svc Service, cfg Config) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	server := New(svc, cfg)
	_, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNew_DefaultConfig(t *testing.T) {
	server := New(newService(), Config{})

	assert.Equal(t, ".coverpr.yaml", server.config.ConfigPath)
	assert.NotNil(t, server.server)
}

func TestListTools(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"render_coverage_report", "render_coverage_files"}, names)
}

func TestRenderCoverageReport(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "render_coverage_report",
		Arguments: map[string]any{
			"head_xml":       headXML,
			"base_xml":       baseXML,
			"base_requested": true,
			"changed_files":  fooPath + "\nREADME.md",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	markdown := textContent(t, res)
	assert.True(t, strings.HasPrefix(markdown, domain.ReportMarker+"\n"))
	assert.Contains(t, markdown, "Total coverage: 80.00% (🟢 +10.00%)")
	assert.Contains(t, markdown, "75.00% (🟢 +25.00%)")
	assert.NotContains(t, markdown, "README.md")

	structured, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "expected structured content, got %T", res.StructuredContent)
	assert.Equal(t, true, structured["baseAvailable"])
	assert.EqualValues(t, 1, structured["changedFileRows"])
	assert.EqualValues(t, 80, structured["headPercent"])
}

func TestRenderCoverageReport_InvalidBaseFallsBack(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "render_coverage_report",
		Arguments: map[string]any{
			"head_xml":       headXML,
			"base_xml":       "<report",
			"base_requested": true,
			"changed_files":  fooPath,
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), "Total coverage: 80.00% (n/a)")
}

func TestRenderCoverageReport_NonReportBaseFallsBack(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "render_coverage_report",
		Arguments: map[string]any{
			"head_xml":       headXML,
			"base_xml":       "<html><body>502 Bad Gateway</body></html>",
			"base_requested": true,
			"changed_files":  fooPath,
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	markdown := textContent(t, res)
	assert.Contains(t, markdown, "Total coverage: 80.00% (n/a)")
	assert.Contains(t, markdown, "75.00% (n/a)")
	assert.NotContains(t, markdown, "🟢")
}

func TestRenderCoverageReport_InvalidHead(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "render_coverage_report",
		Arguments: map[string]any{"head_xml": "not xml"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textContent(t, res), "parse head report")
}

func TestRenderCoverageFiles(t *testing.T) {
	dir := t.TempDir()
	headPath := filepath.Join(dir, "head.xml")
	basePath := filepath.Join(dir, "base.xml")
	require.NoError(t, os.WriteFile(headPath, []byte(headXML), 0o644))
	require.NoError(t, os.WriteFile(basePath, []byte(baseXML), 0o644))

	session := connect(t, newService(), Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "render_coverage_files",
		Arguments: map[string]any{
			"head_path":     headPath,
			"base_path":     basePath,
			"changed_files": fooPath,
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), "| `"+fooPath+"` | 75.00% (🟢 +25.00%) |")
}

type failingService struct{ *application.Service }

func (failingService) LoadFiles(ctx context.Context, files application.ReportFiles) (application.BuildOptions, error) {
	return application.BuildOptions{}, errors.New("read head report: no such file")
}

func TestRenderCoverageFiles_LoadError(t *testing.T) {
	session := connect(t, failingService{newService()}, Config{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "render_coverage_files",
		Arguments: map[string]any{"head_path": "missing.xml"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textContent(t, res), "no such file")
}

func TestConfigResource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".coverpr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner:\n  tool: gradle\n"), 0o644))

	session := connect(t, newService(), Config{ConfigPath: path, ConfigLoader: config.Loader{}})

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "coverpr://config"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"Tool": "gradle"`)
}

func TestConfigResource_Defaults(t *testing.T) {
	session := connect(t, newService(), Config{})

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "coverpr://config"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"Base": "origin/main"`)
}

func TestGenerateSummary(t *testing.T) {
	summary := domain.Summary{HeadTotal: domain.NewLineCounts(1, 3)}
	assert.Equal(t, "75.00% overall | 0 packages", generateSummary(summary))

	summary.ChangedFiles = &domain.ChangedFilesSection{TotalLabel: "75.00% (n/a)"}
	assert.Equal(t, "75.00% overall | 0 packages | changed files 75.00% (n/a) | 0 rows", generateSummary(summary))
}
