package runners

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/pathutil"
)

var gradleMarkers = []string{"build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts"}

// JacocoRunner implements CoverageRunner for JVM projects.
// Supports Maven with JaCoCo and Gradle with JaCoCo.
type JacocoRunner struct {
	// Exec overrides command execution (for testing).
	Exec func(ctx context.Context, dir string, tool application.BuildTool, args []string) error
	// Output receives build tool output (default os.Stderr).
	Output io.Writer
}

var _ application.CoverageRunner = (*JacocoRunner)(nil)

// NewJacocoRunner creates a new JaCoCo coverage runner.
func NewJacocoRunner() *JacocoRunner {
	return &JacocoRunner{}
}

// Name returns the runner's identifier.
func (r *JacocoRunner) Name() string {
	return "jacoco"
}

// Detect checks if this runner can handle the project in projectDir.
func (r *JacocoRunner) Detect(projectDir string) bool {
	for _, marker := range append([]string{"pom.xml"}, gradleMarkers...) {
		if fileExists(filepath.Join(projectDir, marker)) {
			return true
		}
	}
	return false
}

// Run builds the source tree in opts.Dir and returns the JaCoCo XML report text.
func (r *JacocoRunner) Run(ctx context.Context, opts application.RunOptions) (string, error) {
	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	tool := opts.Tool
	if tool == "" || tool == application.ToolAuto {
		tool = r.detectBuildTool(dir)
	}

	report := opts.ReportPath
	if report == "" {
		report = r.defaultReportPath(tool)
	}
	if !filepath.IsAbs(report) {
		report = filepath.Join(dir, report)
	}

	args, err := r.buildArgs(tool, opts)
	if err != nil {
		return "", err
	}

	execFn := r.Exec
	if execFn == nil {
		execFn = r.runCommand
	}

	if err := execFn(ctx, dir, tool, args); err != nil {
		return "", fmt.Errorf("%s coverage failed: %w", tool, err)
	}

	text, err := pathutil.ReadText(report)
	if err != nil {
		return "", fmt.Errorf("read jacoco report: %w", err)
	}
	return text, nil
}

// detectBuildTool determines which JVM build tool is used.
func (r *JacocoRunner) detectBuildTool(projectDir string) application.BuildTool {
	if fileExists(filepath.Join(projectDir, "pom.xml")) {
		return application.ToolMaven
	}
	for _, marker := range gradleMarkers {
		if fileExists(filepath.Join(projectDir, marker)) {
			return application.ToolGradle
		}
	}
	return application.ToolMaven
}

// defaultReportPath returns the default JaCoCo XML report path for the build tool.
func (r *JacocoRunner) defaultReportPath(tool application.BuildTool) string {
	switch tool {
	case application.ToolGradle:
		return filepath.Join("build", "reports", "jacoco", "test", "jacocoTestReport.xml")
	default:
		return filepath.Join("target", "site", "jacoco", "jacoco.xml")
	}
}

func (r *JacocoRunner) buildArgs(tool application.BuildTool, opts application.RunOptions) ([]string, error) {
	switch tool {
	case application.ToolGradle:
		return r.buildGradleArgs(opts), nil
	case application.ToolMaven:
		return r.buildMavenArgs(opts), nil
	default:
		return nil, fmt.Errorf("unsupported build tool: %s", tool)
	}
}

// buildMavenArgs builds command line arguments for Maven with JaCoCo.
func (r *JacocoRunner) buildMavenArgs(opts application.RunOptions) []string {
	args := []string{"--batch-mode", "verify", "jacoco:report"}

	if !opts.BuildFlags.Verbose {
		args = append(args, "-q")
	}
	if opts.BuildFlags.Run != "" {
		args = append(args, "-Dtest="+opts.BuildFlags.Run)
	}

	return append(args, opts.BuildFlags.TestArgs...)
}

// buildGradleArgs builds command line arguments for Gradle with JaCoCo.
func (r *JacocoRunner) buildGradleArgs(opts application.RunOptions) []string {
	args := []string{"test", "jacocoTestReport"}

	if !opts.BuildFlags.Verbose {
		args = append(args, "-q")
	}
	if opts.BuildFlags.Run != "" {
		args = append(args, "--tests", opts.BuildFlags.Run)
	}

	return append(args, opts.BuildFlags.TestArgs...)
}

// runCommand executes the build tool, preferring the project's wrapper script.
func (r *JacocoRunner) runCommand(ctx context.Context, dir string, tool application.BuildTool, args []string) error {
	name, wrapper := "gradle", "gradlew"
	if tool == application.ToolMaven {
		name, wrapper = "mvn", "mvnw"
	}
	if fileExists(filepath.Join(dir, wrapper)) {
		name = "./" + wrapper
	}

	out := r.Output
	if out == nil {
		out = os.Stderr
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
