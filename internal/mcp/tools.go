package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/chunkgraph/internal/report"
)

// IngestInput is the chunkgraph_ingest argument.
type IngestInput struct {
	Text string `json:"text" jsonschema:"relation lines of the form 'chunk: related, weight, related, weight'"`
}

// ChunkInput names a start chunk.
type ChunkInput struct {
	Chunk string `json:"chunk" jsonschema:"start chunk name"`
}

// RelatedInput is the chunkgraph_related argument.
type RelatedInput struct {
	Chunk string `json:"chunk" jsonschema:"start chunk name"`
	Depth *int   `json:"depth,omitempty" jsonschema:"maximum hops to expand; defaults to the configured max depth"`
}

// NearestInput is the chunkgraph_nearest argument.
type NearestInput struct {
	Chunk string `json:"chunk" jsonschema:"start chunk name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return; defaults to the configured limit"`
}

// MetricsInput is the chunkgraph_metrics argument.
type MetricsInput struct {
	Chunks []string `json:"chunks" jsonschema:"center chunk names"`
}

// StatsInput is the (empty) chunkgraph_stats argument.
type StatsInput struct{}

// SearchInput is the chunkgraph_search argument.
type SearchInput struct {
	Keyword string `json:"keyword" jsonschema:"case-insensitive substring of chunk names"`
	Edges   bool   `json:"edges,omitempty" jsonschema:"return matching edges (source, target, weight) instead of chunk names"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_ingest",
		Description: "Merge relation lines into the chunk graph. Each relation is written in both directions.",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_related",
		Description: "List chunks reachable from a chunk within a hop limit, with the weight of the edge each was found through.",
	}, s.handleRelated)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_paths",
		Description: "Shortest weighted distance from a chunk to every chunk in the graph.",
	}, s.handlePaths)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_nearest",
		Description: "The reachable chunks closest to a chunk by shortest weighted distance.",
	}, s.handleNearest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_metrics",
		Description: "Connectivity and average distance to the nearest 5, 10 and 20 chunks for each center chunk.",
	}, s.handleMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_stats",
		Description: "Count, mean and median of all edge weights.",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunkgraph_search",
		Description: "Find chunk names containing a keyword, or with edges set, every edge touching such a chunk.",
	}, s.handleSearch)
}

// jsonResult wraps v as a single JSON text block.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	text, err := report.MarshalString(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, in IngestInput) (*mcp.CallToolResult, any, error) {
	res, err := s.service.Ingest(ctx, in.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest stopped after %d edges: %w", res.EdgesWritten, err)
	}
	return jsonResult(res)
}

func (s *Server) handleRelated(ctx context.Context, _ *mcp.CallToolRequest, in RelatedInput) (*mcp.CallToolResult, any, error) {
	depth := s.service.Query().MaxDepth
	if in.Depth != nil {
		depth = *in.Depth
	}
	chunks, err := s.service.RelatedChunks(ctx, in.Chunk, depth)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report.Chunks(chunks))
}

func (s *Server) handlePaths(ctx context.Context, _ *mcp.CallToolRequest, in ChunkInput) (*mcp.CallToolResult, any, error) {
	dist, err := s.service.ShortestPaths(ctx, in.Chunk)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report.Distances(dist))
}

func (s *Server) handleNearest(ctx context.Context, _ *mcp.CallToolRequest, in NearestInput) (*mcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit == 0 {
		limit = s.service.Query().NearestLimit
	}
	near, err := s.service.NearestNodes(ctx, in.Chunk, limit)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report.Ranked(near))
}

func (s *Server) handleMetrics(ctx context.Context, _ *mcp.CallToolRequest, in MetricsInput) (*mcp.CallToolResult, any, error) {
	ms, err := s.service.NodeMetrics(ctx, in.Chunks)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report.Metrics(ms))
}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, any, error) {
	stats, err := s.service.EdgeStatistics(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report.Stats(stats))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	if in.Edges {
		edges, err := s.service.SearchEdges(ctx, in.Keyword)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(map[string]any{"keyword": in.Keyword, "edges": report.Edges(edges)})
	}
	names, err := s.service.Search(ctx, in.Keyword)
	if err != nil {
		return nil, nil, err
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(map[string]any{"keyword": in.Keyword, "matches": names})
}
