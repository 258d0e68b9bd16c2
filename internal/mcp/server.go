// Package mcp exposes the chunk graph operations as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/chunkgraph/internal/analysis"
	"github.com/nvandessel/chunkgraph/internal/config"
	"github.com/nvandessel/chunkgraph/internal/logging"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/nvandessel/chunkgraph/internal/telemetry"
	"go.uber.org/zap"
)

// Config configures a Server.
type Config struct {
	Name    string
	Version string
	Root    string // project root holding .chunkgraph/

	// Settings overrides the config file under Root when set.
	Settings *config.Config
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
}

// Server serves chunkgraph tools to an MCP client.
type Server struct {
	server  *mcp.Server
	store   store.GraphStore
	service *analysis.Service
	root    string
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewServer opens the project's graph store and registers every tool.
func NewServer(cfg *Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger).Named("mcp")

	dir, err := store.EnsureDir(cfg.Root)
	if err != nil {
		return nil, err
	}

	settings := cfg.Settings
	if settings == nil {
		loaded, err := config.Load(config.Path(dir))
		if err != nil {
			return nil, err
		}
		settings = &loaded
	}

	path := settings.Store.Path
	if path == "" {
		path = store.DefaultPath(cfg.Root, settings.Store.Backend)
	}
	gs, err := store.Open(settings.Store.Backend, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}

	s := &Server{
		server:  mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		store:   gs,
		service: analysis.NewService(gs, settings.Query, logger, cfg.Metrics),
		root:    cfg.Root,
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", zap.String("root", s.root))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the graph store. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close()
	})
	return s.closeErr
}
