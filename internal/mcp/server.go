package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
	server *mcp.Server
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	cfg.ConfigPath = coalesce(cfg.ConfigPath, DefaultConfig().ConfigPath)

	s := &Server{
		svc:    svc,
		config: cfg,
	}
	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "coverpr",
			Version: Version,
		},
		&mcp.ServerOptions{
			Capabilities: &mcp.ServerCapabilities{
				Tools:     &mcp.ToolCapabilities{},
				Resources: &mcp.ResourceCapabilities{},
			},
		},
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over STDIO and blocks until the context is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcp.StdioTransport{})
}

// RunWithTransport serves over the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcp.Transport) error {
	if err := s.server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_coverage_report",
		Description: "Render a markdown pull request comment from JaCoCo XML text. Optionally compares against a base report and lists coverage deltas for changed files.",
	}, s.handleRenderReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_coverage_files",
		Description: "Render a markdown pull request comment from JaCoCo XML report files on disk. Changed files default to a git diff against the base ref when a base report is given.",
	}, s.handleRenderFiles)
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         "coverpr://config",
		Name:        "Current Configuration",
		Description: "Returns the coverpr configuration from .coverpr.yaml, or the defaults when the file is absent",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}
