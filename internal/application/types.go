package application

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/coverpr/internal/domain"
)

type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
)

// BuildTool selects how the coverage runner builds a project.
type BuildTool string

const (
	// ToolAuto detects the build tool from the source tree.
	ToolAuto BuildTool = "auto"
	// ToolGradle runs Gradle with the jacocoTestReport task.
	ToolGradle BuildTool = "gradle"
	// ToolMaven runs Maven with the jacoco:report goal.
	ToolMaven BuildTool = "maven"
)

var (
	ErrHeadRequired     = errors.New("head coverage report is required")
	ErrBaseMissing      = errors.New("base coverage report is missing")
	ErrRunnerMissing    = errors.New("no coverage runner configured")
	ErrFormatterMissing = errors.New("comment formatter not configured")
)

// Config represents validated, application-ready configuration.
type Config struct {
	Version int
	Runner  RunnerConfig
	Diff    DiffConfig
	GitHub  GitHubConfig
}

type RunnerConfig struct {
	Tool   BuildTool
	Report string // Report path relative to the source tree
	Args   []string
}

type DiffConfig struct {
	Base string
}

type GitHubConfig struct {
	Owner string
	Repo  string
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// ReportParser turns coverage report text into the domain tree.
type ReportParser interface {
	ParseString(text string) (domain.CoverageReport, error)
}

// CoverageRunner executes the project's tests with coverage in a source tree
// and returns the contents of the produced report.
type CoverageRunner interface {
	// Run executes the build and returns the report XML.
	Run(ctx context.Context, opts RunOptions) (string, error)
	// Name returns the runner's identifier.
	Name() string
	// Detect checks if this runner can build the project in projectDir.
	Detect(projectDir string) bool
}

type RunOptions struct {
	Dir        string    // Source tree to build
	Tool       BuildTool // Build tool (auto-detected if empty)
	ReportPath string    // Report path relative to Dir (tool default if empty)
	BuildFlags BuildFlags
}

// BuildFlags contains options passed to the build tool
type BuildFlags struct {
	Verbose  bool     // Verbose build output
	Run      string   // Run only tests matching pattern
	TestArgs []string // Additional arguments passed to the build tool
}

type DiffProvider interface {
	ChangedFiles(ctx context.Context, base string) ([]string, error)
}

type Reporter interface {
	Write(w io.Writer, summary domain.Summary, format OutputFormat) error
}

// CommentFormatter generates PR comment content.
type CommentFormatter interface {
	// FormatComment generates markdown for a coverage PR comment
	FormatComment(summary domain.Summary) string
}

// BuildOptions is the raw input of one render.
type BuildOptions struct {
	HeadXML       string
	BaseXML       string
	BaseErr       error // Set when producing the base report failed
	BaseRequested bool
	ChangedFiles  string // Newline-delimited repository paths
}

// RenderOptions renders a report to the service output.
type RenderOptions struct {
	Build  BuildOptions
	Output OutputFormat
}

// ReportFiles locates the inputs of a render on disk.
type ReportFiles struct {
	HeadPath         string
	BasePath         string // Empty means no base comparison
	ChangedFilesPath string
	ChangedFiles     string // Used when ChangedFilesPath is empty
	DiffBase         string // Git ref for changed files when none are given
}

// PipelineOptions runs coverage for the head tree and optionally a base tree.
type PipelineOptions struct {
	HeadDir      string
	BaseDir      string // Empty means no base comparison
	Tool         BuildTool
	ReportPath   string
	BuildFlags   BuildFlags
	ChangedFiles string
	DiffBase     string
}

// PRProvider represents a git hosting provider.
type PRProvider string

const (
	// ProviderGitHub is GitHub.com or GitHub Enterprise
	ProviderGitHub PRProvider = "github"
	// ProviderGitLab is GitLab.com or self-hosted GitLab
	ProviderGitLab PRProvider = "gitlab"
	// ProviderBitbucket is Bitbucket Cloud
	ProviderBitbucket PRProvider = "bitbucket"
	// ProviderAuto detects the provider from CI environment variables
	ProviderAuto PRProvider = "auto"
)

// PRCommentOptions configures the PR comment feature.
type PRCommentOptions struct {
	Build          BuildOptions
	Provider       PRProvider // Git hosting provider (auto-detected if empty)
	PRNumber       int        // PR number to comment on
	Owner          string     // Repository owner
	Repo           string     // Repository name
	UpdateExisting bool       // Update existing comment instead of creating new
	DryRun         bool       // Just generate comment, don't post
}

// PRCommentResult contains the result of a PR comment operation.
type PRCommentResult struct {
	CommentID   int64  `json:"commentId,omitempty"`
	CommentURL  string `json:"commentUrl,omitempty"`
	CommentBody string `json:"commentBody"`
	Created     bool   `json:"created"` // true if created, false if updated
}

// PRClient provides PR comment operations for a git hosting provider.
type PRClient interface {
	// FindCoverageComment finds an existing coverage comment on a PR
	FindCoverageComment(ctx context.Context, owner, repo string, prNumber int) (int64, error)
	// CreateComment creates a new comment on a PR
	CreateComment(ctx context.Context, owner, repo string, prNumber int, body string) (int64, string, error)
	// UpdateComment updates an existing comment
	UpdateComment(ctx context.Context, owner, repo string, prNumber int, commentID int64, body string) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	Files  ReportFiles
	Output OutputFormat
}

// WatchCallback is called after each render in watch mode.
type WatchCallback func(runNumber int, err error)
