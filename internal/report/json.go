// Package report renders query results for the CLI and the MCP server.
//
// Distances and averages are routinely +Inf or NaN, which encoding/json
// refuses to encode, so every float goes out through Number.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nvandessel/chunkgraph/internal/analysis"
	"github.com/nvandessel/chunkgraph/internal/metrics"
	"github.com/nvandessel/chunkgraph/internal/shortest"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/nvandessel/chunkgraph/internal/traversal"
)

// Number is a float64 that encodes NaN and infinities as JSON strings.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// ChunkRow is one related chunk.
type ChunkRow struct {
	Node   string `json:"node"`
	Weight Number `json:"weight"`
}

// DistanceRow is one node with its distance from a source.
type DistanceRow struct {
	Node     string `json:"node"`
	Distance Number `json:"distance"`
}

// MetricRow mirrors metrics.NodeMetric.
type MetricRow struct {
	Node           string `json:"node"`
	ConnectedNodes int    `json:"connected_nodes"`
	AvgDist5       Number `json:"avg_dist_5"`
	AvgDist10      Number `json:"avg_dist_10"`
	AvgDist20      Number `json:"avg_dist_20"`
}

// StatsView mirrors metrics.Stats.
type StatsView struct {
	Count  int    `json:"count"`
	Mean   Number `json:"mean"`
	Median Number `json:"median"`
}

// EdgeRow is one directed edge.
type EdgeRow struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight Number `json:"weight"`
}

// ComparisonView mirrors analysis.Comparison.
type ComparisonView struct {
	Metrics []MetricRow              `json:"metrics"`
	Nearest map[string][]DistanceRow `json:"nearest"`
	Nodes   []string                 `json:"nodes"`
	Edges   []EdgeRow                `json:"edges"`
}

// Chunks converts traversal output.
func Chunks(cs []traversal.Chunk) []ChunkRow {
	out := make([]ChunkRow, len(cs))
	for i, c := range cs {
		out[i] = ChunkRow{Node: c.Node, Weight: Number(c.Weight)}
	}
	return out
}

// Ranked converts an ordered distance list.
func Ranked(rs []shortest.Ranked) []DistanceRow {
	out := make([]DistanceRow, len(rs))
	for i, r := range rs {
		out[i] = DistanceRow{Node: r.Node, Distance: Number(r.Distance)}
	}
	return out
}

// Distances orders a full distance map ascending, unreachable nodes last.
// The source itself is listed at distance 0.
func Distances(dist map[string]float64) []DistanceRow {
	return Ranked(shortest.Ranking(dist, ""))
}

// Metrics converts node metrics, keeping their order.
func Metrics(ms []metrics.NodeMetric) []MetricRow {
	out := make([]MetricRow, len(ms))
	for i, m := range ms {
		out[i] = MetricRow{
			Node:           m.Node,
			ConnectedNodes: m.ConnectedNodes,
			AvgDist5:       Number(m.AvgDist5),
			AvgDist10:      Number(m.AvgDist10),
			AvgDist20:      Number(m.AvgDist20),
		}
	}
	return out
}

// Stats converts edge statistics.
func Stats(s metrics.Stats) StatsView {
	return StatsView{Count: s.Count, Mean: Number(s.Mean), Median: Number(s.Median)}
}

// Edges converts an edge list.
func Edges(es []store.Edge) []EdgeRow {
	out := make([]EdgeRow, len(es))
	for i, e := range es {
		out[i] = EdgeRow{Source: e.Source, Target: e.Target, Weight: Number(e.Weight)}
	}
	return out
}

// Comparison converts a compare view.
func Comparison(c analysis.Comparison) ComparisonView {
	near := make(map[string][]DistanceRow, len(c.Nearest))
	for k, v := range c.Nearest {
		near[k] = Ranked(v)
	}
	return ComparisonView{
		Metrics: Metrics(c.Metrics),
		Nearest: near,
		Nodes:   c.Nodes,
		Edges:   Edges(c.Edges),
	}
}

// WriteJSON encodes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// MarshalString returns v as compact JSON text.
func MarshalString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data), nil
}
