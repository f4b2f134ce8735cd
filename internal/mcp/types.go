// Package mcp exposes coverage report rendering over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
)

// Service defines the application operations needed by MCP.
type Service interface {
	Build(opts application.BuildOptions) (domain.Summary, error)
	Markdown(summary domain.Summary) (string, error)
	LoadFiles(ctx context.Context, files application.ReportFiles) (application.BuildOptions, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath   string // Path to .coverpr.yaml (default: ".coverpr.yaml")
	ConfigLoader application.ConfigLoader
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{ConfigPath: ".coverpr.yaml"}
}

// RenderInput defines the input parameters for the render_coverage_report tool.
type RenderInput struct {
	HeadXML       string `json:"head_xml" jsonschema:"JaCoCo XML report of the head revision"`
	BaseXML       string `json:"base_xml,omitempty" jsonschema:"JaCoCo XML report of the base revision"`
	BaseRequested bool   `json:"base_requested,omitempty" jsonschema:"Whether a base comparison was requested; enables the changed files section"`
	ChangedFiles  string `json:"changed_files,omitempty" jsonschema:"Newline-delimited repository paths changed by the pull request"`
}

// RenderFilesInput defines the input parameters for the render_coverage_files tool.
type RenderFilesInput struct {
	HeadPath         string `json:"head_path" jsonschema:"Path to the head JaCoCo XML report"`
	BasePath         string `json:"base_path,omitempty" jsonschema:"Path to the base JaCoCo XML report; enables comparison"`
	ChangedFiles     string `json:"changed_files,omitempty" jsonschema:"Newline-delimited repository paths changed by the pull request"`
	ChangedFilesPath string `json:"changed_files_path,omitempty" jsonschema:"Path to a file listing changed paths, one per line"`
	DiffBase         string `json:"diff_base,omitempty" jsonschema:"Git ref to diff against when no changed files are given"`
}

// RenderOutput is the structured result of the render tools.
type RenderOutput struct {
	Markdown        string  `json:"markdown"`
	HeadPercent     float64 `json:"headPercent"`
	BaseAvailable   bool    `json:"baseAvailable"`
	ChangedFileRows int     `json:"changedFileRows"`
	OmittedFiles    int     `json:"omittedFiles"`
	Summary         string  `json:"summary"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
