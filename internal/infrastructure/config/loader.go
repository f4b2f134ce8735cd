package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/coverpr/internal/application"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".coverpr.yaml"

const currentVersion = 1

type Loader struct{}

var _ application.ConfigLoader = Loader{}

type fileConfig struct {
	Version int        `yaml:"version"`
	Runner  fileRunner `yaml:"runner"`
	Diff    fileDiff   `yaml:"diff"`
	GitHub  fileGitHub `yaml:"github"`
}

type fileRunner struct {
	Tool   string   `yaml:"tool"`
	Report string   `yaml:"report,omitempty"`
	Args   []string `yaml:"args,omitempty"`
}

type fileDiff struct {
	Base string `yaml:"base"`
}

type fileGitHub struct {
	Owner string `yaml:"owner,omitempty"`
	Repo  string `yaml:"repo,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads a config file. Fields left out keep their defaults.
func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Config{}, err
	}

	defaults := application.DefaultConfig()
	cfg := fileConfig{
		Version: defaults.Version,
		Runner:  fileRunner{Tool: string(defaults.Runner.Tool)},
		Diff:    fileDiff{Base: defaults.Diff.Base},
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return application.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != currentVersion {
		return application.Config{}, fmt.Errorf("unsupported config version: %d", cfg.Version)
	}

	tool := application.BuildTool(cfg.Runner.Tool)
	switch tool {
	case application.ToolAuto, application.ToolGradle, application.ToolMaven:
	default:
		return application.Config{}, fmt.Errorf("unsupported runner tool: %q", cfg.Runner.Tool)
	}

	return application.Config{
		Version: cfg.Version,
		Runner: application.RunnerConfig{
			Tool:   tool,
			Report: cfg.Runner.Report,
			Args:   cfg.Runner.Args,
		},
		Diff:   application.DiffConfig{Base: cfg.Diff.Base},
		GitHub: application.GitHubConfig{Owner: cfg.GitHub.Owner, Repo: cfg.GitHub.Repo},
	}, nil
}

func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Version: cfg.Version,
		Runner: fileRunner{
			Tool:   string(cfg.Runner.Tool),
			Report: cfg.Runner.Report,
			Args:   cfg.Runner.Args,
		},
		Diff:   fileDiff{Base: cfg.Diff.Base},
		GitHub: fileGitHub{Owner: cfg.GitHub.Owner, Repo: cfg.GitHub.Repo},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
