package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/bitbucket"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/config"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/diff"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/github"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/gitlab"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/parsers/jacoco"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/report"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/runners"
	"github.com/felixgeelhaar/coverpr/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/coverpr/internal/mcp"
	"github.com/felixgeelhaar/coverpr/internal/pathutil"
)

type Service interface {
	Render(ctx context.Context, opts application.RenderOptions) error
	LoadFiles(ctx context.Context, files application.ReportFiles) (application.BuildOptions, error)
	Collect(ctx context.Context, opts application.PipelineOptions) (application.BuildOptions, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
	PRComment(ctx context.Context, opts application.PRCommentOptions) (application.PRCommentResult, error)
	ServeMCP(ctx context.Context, configPath string) error
}

// App wires the application service, the PR comment handler and the MCP server.
type App struct {
	*application.Service
	Comments     *application.PRCommentHandler
	ConfigLoader application.ConfigLoader
}

var _ Service = (*App)(nil)

func (a *App) PRComment(ctx context.Context, opts application.PRCommentOptions) (application.PRCommentResult, error) {
	return a.Comments.PRComment(ctx, opts)
}

func (a *App) ServeMCP(ctx context.Context, configPath string) error {
	mcp.Version = Version
	server := mcp.New(a.Service, mcp.Config{ConfigPath: configPath, ConfigLoader: a.ConfigLoader})
	return server.Run(ctx)
}

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	stdin io.Reader = os.Stdin

	loadConfig = func(path string) (application.Config, error) {
		return application.LoadConfig(config.Loader{}, path)
	}
	newWatcher = func(logger *slog.Logger) (application.FileWatcher, error) {
		return watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithLogger(logger))
	}
)

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx := context.Background()

	switch args[1] {
	case "render":
		fs := newFlagSet("render", stderr)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		head := fs.String("head", "", "Head JaCoCo XML report (required)")
		base := fs.String("base", "", "Base JaCoCo XML report; enables comparison")
		changed := fs.String("changed-files", "", "File listing changed paths, one per line (- for stdin)")
		diffBase := fs.String("diff-base", "", "Git ref used to list changed files when none are given")
		output := outputFlags(fs)
		watch := fs.Bool("watch", false, "Re-render when a report file changes")
		verbose := verboseFlag(fs)
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		setVerbose(*verbose)
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		files, err := reportFiles(*head, *base, *changed, coalesce(*diffBase, cfg.Diff.Base))
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		if *watch {
			return runWatch(ctx, stdout, stderr, svc, application.WatchOptions{Files: files, Output: *output})
		}
		build, err := svc.LoadFiles(ctx, files)
		if err != nil {
			return exitCode(err, 1, stderr)
		}
		err = svc.Render(ctx, application.RenderOptions{Build: build, Output: *output})
		return exitCode(err, 1, stderr)
	case "run":
		fs := newFlagSet("run", stderr)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		headDir := fs.String("head-dir", ".", "Source tree of the head revision")
		baseDir := fs.String("base-dir", "", "Source tree of the base revision; enables comparison")
		tool := fs.String("tool", "", "Build tool: auto|gradle|maven")
		reportPath := fs.String("report", "", "JaCoCo XML report path relative to the source tree")
		testPattern := fs.String("run", "", "Run only tests matching pattern")
		changed := fs.String("changed-files", "", "File listing changed paths, one per line (- for stdin)")
		diffBase := fs.String("diff-base", "", "Git ref used to list changed files when none are given")
		output := outputFlags(fs)
		verbose := verboseFlag(fs)
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		setVerbose(*verbose)
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		buildTool, err := parseTool(coalesce(*tool, string(cfg.Runner.Tool)))
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		changedText, err := readChangedFiles(*changed)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		build, err := svc.Collect(ctx, application.PipelineOptions{
			HeadDir:    *headDir,
			BaseDir:    *baseDir,
			Tool:       buildTool,
			ReportPath: coalesce(*reportPath, cfg.Runner.Report),
			BuildFlags: application.BuildFlags{
				Verbose:  *verbose,
				Run:      *testPattern,
				TestArgs: append(append([]string{}, cfg.Runner.Args...), fs.Args()...),
			},
			ChangedFiles: changedText,
			DiffBase:     coalesce(*diffBase, cfg.Diff.Base),
		})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		err = svc.Render(ctx, application.RenderOptions{Build: build, Output: *output})
		return exitCode(err, 1, stderr)
	case "comment":
		fs := newFlagSet("comment", stderr)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		head := fs.String("head", "", "Head JaCoCo XML report (required)")
		base := fs.String("base", "", "Base JaCoCo XML report; enables comparison")
		changed := fs.String("changed-files", "", "File listing changed paths, one per line (- for stdin)")
		diffBase := fs.String("diff-base", "", "Git ref used to list changed files when none are given")
		provider := fs.String("provider", string(application.ProviderAuto), "Hosting provider: auto|github|gitlab|bitbucket")
		owner := fs.String("owner", "", "Repository owner or workspace (default from config or CI environment)")
		repo := fs.String("repo", "", "Repository name (default from config or CI environment)")
		prNumber := fs.Int("pr", 0, "Pull request number")
		update := fs.Bool("update", true, "Update the previous coverage comment instead of adding a new one")
		dryRun := fs.Bool("dry-run", false, "Print the comment body without posting it")
		verbose := verboseFlag(fs)
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		setVerbose(*verbose)
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		prProvider, err := parseProvider(*provider)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		files, err := reportFiles(*head, *base, *changed, coalesce(*diffBase, cfg.Diff.Base))
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		repoOwner, repoName := repository(*owner, *repo, cfg.GitHub)
		if !*dryRun && (repoOwner == "" || repoName == "") {
			return exitCode(errors.New("repository owner and name are required (--owner, --repo)"), 2, stderr)
		}
		build, err := svc.LoadFiles(ctx, files)
		if err != nil {
			return exitCode(err, 1, stderr)
		}
		result, err := svc.PRComment(ctx, application.PRCommentOptions{
			Build:          build,
			Provider:       prProvider,
			PRNumber:       *prNumber,
			Owner:          repoOwner,
			Repo:           repoName,
			UpdateExisting: *update,
			DryRun:         *dryRun,
		})
		if err != nil {
			return exitCode(err, 4, stderr)
		}
		printCommentResult(result, *dryRun, stdout)
		return 0
	case "mcp":
		fs := newFlagSet("mcp", stderr)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		verbose := verboseFlag(fs)
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		setVerbose(*verbose)
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := svc.ServeMCP(ctx, *configPath)
		if errors.Is(err, context.Canceled) {
			return 0
		}
		return exitCode(err, 1, stderr)
	case "init":
		fs := newFlagSet("init", stderr)
		configPath := fs.String("config", config.DefaultPath, "Config file path (- for stdout)")
		force := fs.Bool("force", false, "Overwrite existing config file")
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		if err := writeConfigFile(*configPath, application.DefaultConfig(), stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		if *configPath != "-" {
			fmt.Fprintf(stdout, "Config written to %s\n", *configPath)
		}
		return 0
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "coverpr %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func BuildService(out *os.File) *App {
	svc := &application.Service{
		Parser:   jacoco.New(),
		Runner:   runners.NewJacocoRunner(),
		Diff:     diff.GitDiff{},
		Reporter: report.Writer{},
		Logger:   logger,
		Out:      out,
	}
	return &App{
		Service: svc,
		Comments: &application.PRCommentHandler{
			Service: svc,
			Clients: map[application.PRProvider]application.PRClient{
				application.ProviderGitHub:    github.NewClient(""),
				application.ProviderGitLab:    gitlab.NewClient(""),
				application.ProviderBitbucket: bitbucket.NewClient("", ""),
			},
			Formatter: report.Writer{},
		},
		ConfigLoader: config.Loader{},
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func verboseFlag(fs *flag.FlagSet) *bool {
	return fs.Bool("verbose", false, "Enable debug logging")
}

func setVerbose(verbose bool) {
	if verbose {
		logLevel.Set(slog.LevelDebug)
		return
	}
	logLevel.Set(slog.LevelInfo)
}

func outputFlags(fs *flag.FlagSet) *application.OutputFormat {
	output := application.OutputMarkdown
	fs.Var((*outputValue)(&output), "output", "Output format: markdown|text|json")
	fs.Var((*outputValue)(&output), "o", "Output format: markdown|text|json")
	return &output
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputMarkdown), string(application.OutputText), string(application.OutputJSON):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

func parseTool(value string) (application.BuildTool, error) {
	switch tool := application.BuildTool(value); tool {
	case "", application.ToolAuto:
		return application.ToolAuto, nil
	case application.ToolGradle, application.ToolMaven:
		return tool, nil
	default:
		return "", fmt.Errorf("invalid build tool: %s", value)
	}
}

func parseProvider(value string) (application.PRProvider, error) {
	switch provider := application.PRProvider(value); provider {
	case "", application.ProviderAuto:
		return application.ProviderAuto, nil
	case application.ProviderGitHub, application.ProviderGitLab, application.ProviderBitbucket:
		return provider, nil
	default:
		return "", fmt.Errorf("invalid provider: %s", value)
	}
}

// reportFiles turns the shared render flags into report file locations.
// A changed-files value of "-" is read from stdin up front.
func reportFiles(head, base, changed, diffBase string) (application.ReportFiles, error) {
	if head == "" {
		return application.ReportFiles{}, errors.New("--head is required")
	}
	files := application.ReportFiles{HeadPath: head, BasePath: base, DiffBase: diffBase}
	if changed == "-" {
		text, err := readChangedFiles(changed)
		if err != nil {
			return application.ReportFiles{}, err
		}
		files.ChangedFiles = text
		return files, nil
	}
	files.ChangedFilesPath = changed
	return files, nil
}

func readChangedFiles(path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read changed files from stdin: %w", err)
		}
		return string(raw), nil
	default:
		text, err := pathutil.ReadText(path)
		if err != nil {
			return "", fmt.Errorf("read changed files: %w", err)
		}
		return text, nil
	}
}

// repositoryEnv holds "owner/name" variables set by GitHub Actions,
// GitLab CI and Bitbucket Pipelines.
var repositoryEnv = []string{"GITHUB_REPOSITORY", "CI_PROJECT_PATH", "BITBUCKET_REPO_FULL_NAME"}

// repository resolves the comment target from flags, then config, then
// the first CI repository variable that is set.
func repository(owner, repo string, cfg application.GitHubConfig) (string, string) {
	owner = coalesce(owner, cfg.Owner)
	repo = coalesce(repo, cfg.Repo)
	if owner != "" && repo != "" {
		return owner, repo
	}
	for _, key := range repositoryEnv {
		full := os.Getenv(key)
		i := strings.LastIndex(full, "/")
		if i <= 0 {
			continue
		}
		return coalesce(owner, full[:i]), coalesce(repo, full[i+1:])
	}
	return owner, repo
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func printCommentResult(result application.PRCommentResult, dryRun bool, w io.Writer) {
	switch {
	case dryRun:
		fmt.Fprint(w, result.CommentBody)
	case result.Created:
		fmt.Fprintf(w, "Coverage comment created: %s\n", coalesce(result.CommentURL, fmt.Sprint(result.CommentID)))
	default:
		fmt.Fprintf(w, "Coverage comment %d updated\n", result.CommentID)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `coverpr <command>

Commands:
  render   Render a PR coverage comment from JaCoCo XML reports
  run      Build head and base trees with JaCoCo, then render
  comment  Render and post the report as a pull request comment
  mcp      Serve the renderer over the Model Context Protocol (stdio)
  init     Write a default .coverpr.yaml
  version  Print version information`)
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, opts application.WatchOptions) int {
	w, err := newWatcher(logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 1
	}
	defer w.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintln(stderr, "Watching report files... (Ctrl+C to stop)")

	callback := func(runNumber int, runErr error) {
		fmt.Fprintf(stderr, "--- Render #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			fmt.Fprintf(stderr, "Render failed: %v\n", runErr)
		}
	}

	if err := svc.Watch(ctx, opts, w, callback); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return 1
	}
	return 0
}
