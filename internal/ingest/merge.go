package ingest

import (
	"context"
	"fmt"

	"github.com/nvandessel/chunkgraph/internal/store"
	"go.uber.org/zap"
)

// Result summarizes one Ingest call.
type Result struct {
	Lines          int `json:"lines"`
	Nodes          int `json:"nodes"`
	EdgesWritten   int `json:"edges_written"`
	MirrorsSkipped int `json:"mirrors_skipped"`
}

// Merger writes parsed relation lines through a GraphStore.
type Merger struct {
	store  store.GraphStore
	logger *zap.Logger
}

// NewMerger returns a Merger writing to s.
func NewMerger(s store.GraphStore, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{store: s, logger: logger}
}

// pairKey identifies an unordered pair of chunks.
type pairKey [2]string

func unordered(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Ingest parses text line by line and upserts nodes and edges.
//
// For every relation the forward edge subject→related is always written.
// The mirrored edge related→subject is written with the same weight unless
// the unordered pair was already written earlier in this call; pairs from
// previous calls are not remembered.
//
// A malformed line yields a *ParseError and stops processing. Nothing from
// the failing line is written, but writes from earlier lines stay in place.
// Store failures are returned wrapped with the line number.
func (m *Merger) Ingest(ctx context.Context, text string) (Result, error) {
	var res Result
	seenPairs := make(map[pairKey]struct{})
	seenNodes := make(map[string]struct{})

	upsertNode := func(name string) error {
		if err := m.store.UpsertNode(ctx, name); err != nil {
			return err
		}
		seenNodes[name] = struct{}{}
		return nil
	}

	for n, raw := range splitLines(text) {
		line, err := ParseLine(n, raw)
		if err != nil {
			m.logger.Warn("rejected ingestion line", zap.Int("line", n), zap.Error(err))
			res.Nodes = len(seenNodes)
			return res, err
		}
		writeErr := func(err error) (Result, error) {
			res.Nodes = len(seenNodes)
			return res, fmt.Errorf("line %d: %w", n, err)
		}

		for _, rel := range line.Relations {
			if err := upsertNode(line.Subject); err != nil {
				return writeErr(err)
			}
			if err := upsertNode(rel.Target); err != nil {
				return writeErr(err)
			}
			if err := m.store.UpsertEdge(ctx, line.Subject, rel.Target, rel.Weight); err != nil {
				return writeErr(err)
			}
			res.EdgesWritten++

			key := unordered(line.Subject, rel.Target)
			if _, dup := seenPairs[key]; dup {
				res.MirrorsSkipped++
				continue
			}
			if err := m.store.UpsertEdge(ctx, rel.Target, line.Subject, rel.Weight); err != nil {
				return writeErr(err)
			}
			res.EdgesWritten++
			seenPairs[key] = struct{}{}
		}
		res.Lines++
		res.Nodes = len(seenNodes)
	}

	m.logger.Debug("ingested batch",
		zap.Int("lines", res.Lines),
		zap.Int("nodes", res.Nodes),
		zap.Int("edges_written", res.EdgesWritten),
		zap.Int("mirrors_skipped", res.MirrorsSkipped))
	return res, nil
}
