package diff

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestGitDiffChangedFiles(t *testing.T) {
	var gotDir string
	var gotArgs []string
	diff := GitDiff{
		Dir: "/repo/head",
		Exec: func(ctx context.Context, dir string, args []string) ([]byte, error) {
			gotDir, gotArgs = dir, args
			return []byte("src/main/java/com/example/Foo.java\n\n  README.md  \n"), nil
		},
	}
	files, err := diff.ChangedFiles(context.Background(), "main")
	if err != nil {
		t.Fatalf("changed files: %v", err)
	}
	want := []string{"src/main/java/com/example/Foo.java", "README.md"}
	if !slices.Equal(files, want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	if gotDir != "/repo/head" {
		t.Fatalf("unexpected dir: %s", gotDir)
	}
	if !slices.Contains(gotArgs, "main...HEAD") {
		t.Fatalf("expected base range in args, got %v", gotArgs)
	}
}

func TestGitDiffDefaultBase(t *testing.T) {
	var gotArgs []string
	diff := GitDiff{
		Exec: func(ctx context.Context, dir string, args []string) ([]byte, error) {
			gotArgs = args
			return nil, nil
		},
	}
	files, err := diff.ChangedFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("changed files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
	if !slices.Contains(gotArgs, DefaultBase+"...HEAD") {
		t.Fatalf("expected default base in args, got %v", gotArgs)
	}
}

func TestGitDiffError(t *testing.T) {
	gitErr := errors.New("unknown revision")
	diff := GitDiff{
		Exec: func(ctx context.Context, dir string, args []string) ([]byte, error) {
			return nil, gitErr
		},
	}
	if _, err := diff.ChangedFiles(context.Background(), "nope"); !errors.Is(err, gitErr) {
		t.Fatalf("expected wrapped git error, got %v", err)
	}
}
