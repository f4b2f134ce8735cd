package application

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Runner:  RunnerConfig{Tool: ToolAuto},
		Diff:    DiffConfig{Base: "origin/main"},
	}
}

// LoadConfig loads config from path, or returns DefaultConfig if the file is absent.
func LoadConfig(loader ConfigLoader, configPath string) (Config, error) {
	exists, err := loader.Exists(configPath)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return DefaultConfig(), nil
	}
	return loader.Load(configPath)
}
