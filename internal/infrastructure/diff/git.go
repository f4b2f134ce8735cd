package diff

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/application"
)

// DefaultBase is compared against HEAD when no base ref is configured.
const DefaultBase = "origin/main"

// GitDiff lists files changed between a base ref and HEAD in a git work tree.
type GitDiff struct {
	Dir  string
	Exec func(ctx context.Context, dir string, args []string) ([]byte, error)
}

func (g GitDiff) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	if base == "" {
		base = DefaultBase
	}
	args := []string{"diff", "--name-only", base + "...HEAD"}
	execFn := g.Exec
	if execFn == nil {
		execFn = runGitOutput
	}
	out, err := execFn(ctx, g.Dir, args)
	if err != nil {
		return nil, fmt.Errorf("git diff against %s: %w", base, err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	files := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	return files, nil
}

var _ application.DiffProvider = GitDiff{}

func runGitOutput(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}
