package store

import (
	"context"
	"sort"
	"sync"
)

type edgeKey struct{ source, target string }

// InMemoryGraphStore is a GraphStore backed by maps. Edge order follows first
// insertion; replacing a weight keeps the edge in place.
type InMemoryGraphStore struct {
	mu     sync.RWMutex
	nodes  map[string]struct{}
	index  map[edgeKey]int
	edges  []Edge
	closed bool
}

// NewInMemoryGraphStore returns an empty in-memory store.
func NewInMemoryGraphStore() *InMemoryGraphStore {
	return &InMemoryGraphStore{
		nodes: make(map[string]struct{}),
		index: make(map[edgeKey]int),
	}
}

func (s *InMemoryGraphStore) ListEdges(ctx context.Context) ([]Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("list edges", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeErr("list edges", errClosed)
	}
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out, nil
}

func (s *InMemoryGraphStore) ListNodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("list nodes", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeErr("list nodes", errClosed)
	}
	out := make([]string, 0, len(s.nodes))
	for n := range s.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (s *InMemoryGraphStore) UpsertNode(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return storeErr("upsert node", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storeErr("upsert node", errClosed)
	}
	s.nodes[name] = struct{}{}
	return nil
}

func (s *InMemoryGraphStore) UpsertEdge(ctx context.Context, source, target string, weight float64) error {
	if err := ctx.Err(); err != nil {
		return storeErr("upsert edge", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storeErr("upsert edge", errClosed)
	}
	k := edgeKey{source, target}
	if i, ok := s.index[k]; ok {
		s.edges[i].Weight = weight
		return nil
	}
	s.index[k] = len(s.edges)
	s.edges = append(s.edges, Edge{Source: source, Target: target, Weight: weight})
	return nil
}

func (s *InMemoryGraphStore) SearchNodes(ctx context.Context, keyword string) ([]string, error) {
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return matchEdgeNodes(edges, keyword), nil
}

func (s *InMemoryGraphStore) SearchEdges(ctx context.Context, keyword string) ([]Edge, error) {
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return matchEdges(edges, keyword), nil
}

func (s *InMemoryGraphStore) Rename(ctx context.Context, from, to string) (RenameResult, error) {
	if err := ctx.Err(); err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return RenameResult{}, storeErr("rename", errClosed)
	}

	names := make([]string, 0, len(s.nodes))
	for n := range s.nodes {
		names = append(names, n)
	}
	renamed, nodesChanged, err := renameNodes(names, from, to)
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	edges, res, err := renameEdges(s.edges, from, to)
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	res.Nodes = nodesChanged

	s.nodes = make(map[string]struct{}, len(renamed))
	for _, n := range renamed {
		s.nodes[n] = struct{}{}
	}
	s.index = make(map[edgeKey]int, len(edges))
	for i, e := range edges {
		s.index[edgeKey{e.Source, e.Target}] = i
	}
	s.edges = edges
	return res, nil
}

func (s *InMemoryGraphStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storeErr("clear", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storeErr("clear", errClosed)
	}
	s.nodes = make(map[string]struct{})
	s.index = make(map[edgeKey]int)
	s.edges = nil
	return nil
}

// Close marks the store closed. Subsequent calls fail with a StoreError.
func (s *InMemoryGraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
