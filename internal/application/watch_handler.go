package application

import (
	"context"
	"fmt"
	"path/filepath"
)

// Watch renders once, then re-renders every time a watched report changes.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	for _, dir := range watchDirs(opts.Files) {
		if err := watcher.WatchDir(dir); err != nil {
			return fmt.Errorf("failed to watch directory: %w", err)
		}
	}

	render := func() error {
		build, err := s.LoadFiles(ctx, opts.Files)
		if err != nil {
			return err
		}
		return s.Render(ctx, RenderOptions{Build: build, Output: opts.Output})
	}

	runNumber := 1
	runErr := render()
	if callback != nil {
		callback(runNumber, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			runErr := render()
			if callback != nil {
				callback(runNumber, runErr)
			}
		}
	}
}

func watchDirs(files ReportFiles) []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, path := range []string{files.HeadPath, files.BasePath, files.ChangedFilesPath} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}
