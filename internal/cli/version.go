package cli

// Build metadata, injected with -ldflags "-X github.com/felixgeelhaar/coverpr/internal/cli.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
