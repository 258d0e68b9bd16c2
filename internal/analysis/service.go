// Package analysis is the request-level facade over the chunk graph. Every
// query takes a fresh snapshot from the store, builds a read-only graph and
// runs one engine against it.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/chunkgraph/internal/config"
	"github.com/nvandessel/chunkgraph/internal/graph"
	"github.com/nvandessel/chunkgraph/internal/ingest"
	"github.com/nvandessel/chunkgraph/internal/logging"
	"github.com/nvandessel/chunkgraph/internal/metrics"
	"github.com/nvandessel/chunkgraph/internal/sanitize"
	"github.com/nvandessel/chunkgraph/internal/shortest"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/nvandessel/chunkgraph/internal/telemetry"
	"github.com/nvandessel/chunkgraph/internal/traversal"
	"go.uber.org/zap"
)

// CompareNearest is how many nearest nodes Compare lists per center.
const CompareNearest = 20

// Operation names used in logs and metrics.
const (
	OpIngest  = "ingest"
	OpRelated = "related"
	OpPaths   = "paths"
	OpNearest = "nearest"
	OpMetrics = "metrics"
	OpStats   = "stats"
	OpCompare = "compare"
	OpSearch  = "search"
	OpEdges   = "search_edges"
	OpRename  = "rename"
	OpReset   = "reset"
)

// Service runs chunk graph operations against a GraphStore.
type Service struct {
	store   store.GraphStore
	query   config.QueryConfig
	merger  *ingest.Merger
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewService wires a Service. logger and m may be nil.
func NewService(s store.GraphStore, query config.QueryConfig, logger *zap.Logger, m *telemetry.Metrics) *Service {
	logger = logging.OrNop(logger).Named("analysis")
	return &Service{
		store:   s,
		query:   query,
		merger:  ingest.NewMerger(s, logger.Named("ingest")),
		logger:  logger,
		metrics: m,
	}
}

// Query returns the query defaults the service was built with.
func (s *Service) Query() config.QueryConfig {
	return s.query
}

// observe runs fn as one logged, timed operation.
func observe[T any](s *Service, op string, fields []zap.Field, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start)

	s.metrics.Observe(op, elapsed, err)
	log := s.logger.With(zap.String("op", op), zap.String("op_id", uuid.NewString()), zap.Duration("elapsed", elapsed))
	if err != nil {
		log.Warn("operation failed", append(fields, zap.Error(err))...)
	} else {
		log.Debug("operation finished", fields...)
	}
	return out, err
}

// snapshot reads the current edge set and builds the graph for one query.
func (s *Service) snapshot(ctx context.Context) (*graph.Graph, error) {
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph snapshot: %w", err)
	}
	g := graph.Build(edges)
	s.metrics.SetSnapshotEdges(g.EdgeCount())
	return g, nil
}

func requireStart(start string) (string, error) {
	name := sanitize.ChunkName(start)
	if name == "" {
		return "", invalid("start", "chunk name is empty")
	}
	return name, nil
}

// Ingest merges relation lines into the store.
func (s *Service) Ingest(ctx context.Context, text string) (ingest.Result, error) {
	return observe(s, OpIngest, nil, func() (ingest.Result, error) {
		res, err := s.merger.Ingest(ctx, text)
		s.metrics.AddIngestedEdges(res.EdgesWritten)
		return res, err
	})
}

// RelatedChunks lists chunks reachable from start within maxDepth hops.
func (s *Service) RelatedChunks(ctx context.Context, start string, maxDepth int) ([]traversal.Chunk, error) {
	fields := []zap.Field{zap.String("start", start), zap.Int("max_depth", maxDepth)}
	return observe(s, OpRelated, fields, func() ([]traversal.Chunk, error) {
		name, err := requireStart(start)
		if err != nil {
			return nil, err
		}
		if maxDepth < 0 {
			return nil, invalid("depth", "must not be negative, got %d", maxDepth)
		}
		g, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return traversal.Related(g, name, maxDepth), nil
	})
}

// ShortestPaths returns the distance from start to every node of the
// snapshot; unreachable nodes map to +Inf.
func (s *Service) ShortestPaths(ctx context.Context, start string) (map[string]float64, error) {
	return observe(s, OpPaths, []zap.Field{zap.String("start", start)}, func() (map[string]float64, error) {
		name, err := requireStart(start)
		if err != nil {
			return nil, err
		}
		g, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return shortest.Paths(g, name), nil
	})
}

// NearestNodes returns up to n reachable nodes closest to start.
func (s *Service) NearestNodes(ctx context.Context, start string, n int) ([]shortest.Ranked, error) {
	fields := []zap.Field{zap.String("start", start), zap.Int("limit", n)}
	return observe(s, OpNearest, fields, func() ([]shortest.Ranked, error) {
		name, err := requireStart(start)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, invalid("limit", "must be positive, got %d", n)
		}
		g, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if !g.HasNode(name) {
			return nil, invalid("start", "chunk %q not found", name)
		}
		return shortest.Nearest(shortest.Paths(g, name), name, n), nil
	})
}

// NodeMetrics computes connectivity metrics for each center, in order.
func (s *Service) NodeMetrics(ctx context.Context, centers []string) ([]metrics.NodeMetric, error) {
	return observe(s, OpMetrics, []zap.Field{zap.Int("centers", len(centers))}, func() ([]metrics.NodeMetric, error) {
		names, err := cleanCenters(centers)
		if err != nil {
			return nil, err
		}
		g, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return metrics.NodeMetrics(ctx, g, names)
	})
}

// EdgeStatistics summarizes the weights of every edge in the store.
func (s *Service) EdgeStatistics(ctx context.Context) (metrics.Stats, error) {
	return observe(s, OpStats, nil, func() (metrics.Stats, error) {
		g, err := s.snapshot(ctx)
		if err != nil {
			return metrics.Stats{}, err
		}
		return metrics.EdgeStatistics(g), nil
	})
}

// Search returns chunk names containing keyword, case-insensitively.
func (s *Service) Search(ctx context.Context, keyword string) ([]string, error) {
	return observe(s, OpSearch, []zap.Field{zap.String("keyword", keyword)}, func() ([]string, error) {
		kw := sanitize.Keyword(keyword)
		if kw == "" {
			return nil, invalid("keyword", "is empty")
		}
		return s.store.SearchNodes(ctx, kw)
	})
}

// SearchEdges returns the edges touching a chunk whose name contains
// keyword, case-insensitively.
func (s *Service) SearchEdges(ctx context.Context, keyword string) ([]store.Edge, error) {
	return observe(s, OpEdges, []zap.Field{zap.String("keyword", keyword)}, func() ([]store.Edge, error) {
		kw := sanitize.Keyword(keyword)
		if kw == "" {
			return nil, invalid("keyword", "is empty")
		}
		return s.store.SearchEdges(ctx, kw)
	})
}

// Rename replaces every occurrence of from with to across chunk names.
// Chunks that end up with the same name merge.
func (s *Service) Rename(ctx context.Context, from, to string) (store.RenameResult, error) {
	fields := []zap.Field{zap.String("from", from), zap.String("to", to)}
	return observe(s, OpRename, fields, func() (store.RenameResult, error) {
		src, dst := sanitize.Fragment(from), sanitize.Fragment(to)
		if src == "" {
			return store.RenameResult{}, invalid("from", "is empty")
		}
		if src == dst {
			return store.RenameResult{}, invalid("to", "is the same as from")
		}
		res, err := s.store.Rename(ctx, src, dst)
		if errors.Is(err, store.ErrEmptyName) {
			return store.RenameResult{}, invalid("to", "replacing %q would leave a chunk with an empty name", src)
		}
		return res, err
	})
}

// Reset removes every node and edge from the store.
func (s *Service) Reset(ctx context.Context) error {
	_, err := observe(s, OpReset, nil, func() (struct{}, error) {
		return struct{}{}, s.store.Clear(ctx)
	})
	return err
}

func cleanCenters(centers []string) ([]string, error) {
	if len(centers) == 0 {
		return nil, invalid("centers", "at least one chunk is required")
	}
	names := make([]string, len(centers))
	for i, c := range centers {
		names[i] = sanitize.ChunkName(c)
		if names[i] == "" {
			return nil, invalid("centers", "entry %d is empty", i+1)
		}
	}
	return names, nil
}
