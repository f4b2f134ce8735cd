package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/felixgeelhaar/coverpr/internal/pathutil"
)

type Service struct {
	Parser   ReportParser
	Runner   CoverageRunner
	Diff     DiffProvider
	Reporter Reporter
	Logger   *slog.Logger
	Out      io.Writer

	// ReadFile overrides file reads (for testing).
	ReadFile func(path string) (string, error)
}

// Build parses the head and base reports and summarizes them.
// Only a head failure is returned; an unusable base is logged and the
// summary falls back to "n/a" for every base-dependent value.
func (s *Service) Build(opts BuildOptions) (domain.Summary, error) {
	if strings.TrimSpace(opts.HeadXML) == "" {
		return domain.Summary{}, ErrHeadRequired
	}
	head, err := s.Parser.ParseString(opts.HeadXML)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("parse head report: %w", err)
	}

	var base *domain.CoverageReport
	if opts.BaseRequested {
		base = s.parseBase(opts)
	}

	summary := domain.Summarize(head, base, opts.ChangedFiles, opts.BaseRequested)
	s.logger().Debug("coverage summarized",
		"head_percent", summary.HeadPercent(),
		"packages", len(summary.Packages),
		"base_available", base != nil,
	)
	return summary, nil
}

func (s *Service) parseBase(opts BuildOptions) *domain.CoverageReport {
	err := opts.BaseErr
	if err == nil {
		if strings.TrimSpace(opts.BaseXML) == "" {
			err = ErrBaseMissing
		} else {
			report, parseErr := s.Parser.ParseString(opts.BaseXML)
			if parseErr == nil {
				return &report
			}
			err = fmt.Errorf("parse base report: %w", parseErr)
		}
	}
	s.logger().Warn("base report unavailable, rendering without comparison", "error", err)
	return nil
}

// Render builds a summary and writes it to the service output.
func (s *Service) Render(ctx context.Context, opts RenderOptions) error {
	summary, err := s.Build(opts.Build)
	if err != nil {
		return err
	}
	format := opts.Output
	if format == "" {
		format = OutputMarkdown
	}
	return s.Reporter.Write(s.Out, summary, format)
}

// RenderMarkdown returns the markdown report for the given inputs.
func (s *Service) RenderMarkdown(opts BuildOptions) (string, error) {
	summary, err := s.Build(opts)
	if err != nil {
		return "", err
	}
	return s.Markdown(summary)
}

// Markdown renders an already built summary.
func (s *Service) Markdown(summary domain.Summary) (string, error) {
	var buf bytes.Buffer
	if err := s.Reporter.Write(&buf, summary, OutputMarkdown); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadFiles reads render inputs from disk. A missing or unreadable base
// file is carried as BaseErr so that Build applies the usual fallback.
func (s *Service) LoadFiles(ctx context.Context, files ReportFiles) (BuildOptions, error) {
	if files.HeadPath == "" {
		return BuildOptions{}, ErrHeadRequired
	}
	head, err := s.read(files.HeadPath)
	if err != nil {
		return BuildOptions{}, fmt.Errorf("read head report: %w", err)
	}

	opts := BuildOptions{HeadXML: head, ChangedFiles: files.ChangedFiles}
	if files.BasePath != "" {
		opts.BaseRequested = true
		opts.BaseXML, opts.BaseErr = s.read(files.BasePath)
		if opts.BaseErr != nil {
			opts.BaseErr = fmt.Errorf("read base report: %w", opts.BaseErr)
		}
	}
	if files.ChangedFilesPath != "" {
		changed, err := s.read(files.ChangedFilesPath)
		if err != nil {
			return BuildOptions{}, fmt.Errorf("read changed files: %w", err)
		}
		opts.ChangedFiles = changed
	}

	s.fillChangedFiles(ctx, &opts, files.DiffBase)
	return opts, nil
}

// Collect runs coverage for the head tree and, when requested, the base tree.
// A failed base run is carried as BaseErr; a failed head run is returned.
func (s *Service) Collect(ctx context.Context, opts PipelineOptions) (BuildOptions, error) {
	if s.Runner == nil {
		return BuildOptions{}, ErrRunnerMissing
	}

	runOpts := RunOptions{
		Dir:        opts.HeadDir,
		Tool:       opts.Tool,
		ReportPath: opts.ReportPath,
		BuildFlags: opts.BuildFlags,
	}
	s.logger().Info("running head coverage", "runner", s.Runner.Name(), "dir", opts.HeadDir)
	head, err := s.Runner.Run(ctx, runOpts)
	if err != nil {
		return BuildOptions{}, fmt.Errorf("run head coverage: %w", err)
	}

	build := BuildOptions{HeadXML: head, ChangedFiles: opts.ChangedFiles}
	if opts.BaseDir != "" {
		build.BaseRequested = true
		runOpts.Dir = opts.BaseDir
		s.logger().Info("running base coverage", "runner", s.Runner.Name(), "dir", opts.BaseDir)
		build.BaseXML, build.BaseErr = s.Runner.Run(ctx, runOpts)
		if build.BaseErr != nil {
			build.BaseErr = fmt.Errorf("run base coverage: %w", build.BaseErr)
		}
	}

	s.fillChangedFiles(ctx, &build, opts.DiffBase)
	return build, nil
}

// fillChangedFiles asks the diff provider for changed paths when a base
// comparison is requested and the caller supplied none.
func (s *Service) fillChangedFiles(ctx context.Context, opts *BuildOptions, diffBase string) {
	if !opts.BaseRequested || strings.TrimSpace(opts.ChangedFiles) != "" || s.Diff == nil {
		return
	}
	files, err := s.Diff.ChangedFiles(ctx, diffBase)
	if err != nil {
		s.logger().Warn("changed files unavailable", "error", err)
		return
	}
	opts.ChangedFiles = strings.Join(files, "\n")
}

func (s *Service) read(path string) (string, error) {
	if s.ReadFile != nil {
		return s.ReadFile(path)
	}
	return pathutil.ReadText(path)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
