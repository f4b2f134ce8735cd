package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// handleRenderReport implements the render_coverage_report tool.
func (s *Server) handleRenderReport(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RenderInput,
) (*mcp.CallToolResult, RenderOutput, error) {
	return s.render(application.BuildOptions{
		HeadXML:       input.HeadXML,
		BaseXML:       input.BaseXML,
		BaseRequested: input.BaseRequested,
		ChangedFiles:  input.ChangedFiles,
	})
}

// handleRenderFiles implements the render_coverage_files tool.
func (s *Server) handleRenderFiles(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RenderFilesInput,
) (*mcp.CallToolResult, RenderOutput, error) {
	opts, err := s.svc.LoadFiles(ctx, application.ReportFiles{
		HeadPath:         input.HeadPath,
		BasePath:         input.BasePath,
		ChangedFiles:     input.ChangedFiles,
		ChangedFilesPath: input.ChangedFilesPath,
		DiffBase:         input.DiffBase,
	})
	if err != nil {
		return nil, RenderOutput{}, err
	}
	return s.render(opts)
}

// render returns the markdown as text content and the summary as structured content.
func (s *Server) render(opts application.BuildOptions) (*mcp.CallToolResult, RenderOutput, error) {
	summary, err := s.svc.Build(opts)
	if err != nil {
		return nil, RenderOutput{}, err
	}
	markdown, err := s.svc.Markdown(summary)
	if err != nil {
		return nil, RenderOutput{}, err
	}

	output := RenderOutput{
		Markdown:      markdown,
		HeadPercent:   summary.HeadPercent(),
		BaseAvailable: summary.BaseTotal != nil,
		Summary:       generateSummary(summary),
	}
	if section := summary.ChangedFiles; section != nil {
		output.ChangedFileRows = len(section.Rows)
		output.OmittedFiles = section.Omitted
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: markdown}},
	}, output, nil
}

// generateSummary creates a one-line summary for agents.
func generateSummary(summary domain.Summary) string {
	line := fmt.Sprintf("%s overall | %d packages", domain.FormatPercent(summary.HeadPercent()), len(summary.Packages))
	if section := summary.ChangedFiles; section != nil {
		line += fmt.Sprintf(" | changed files %s | %d rows", section.TotalLabel, len(section.Rows))
	}
	return line
}
