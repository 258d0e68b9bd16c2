package store

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyName is returned by Rename when a name would become empty.
var ErrEmptyName = errors.New("rename would leave a chunk with an empty name")

// RenameResult counts what a Rename rewrote.
type RenameResult struct {
	Nodes  int `json:"nodes_renamed"`
	Edges  int `json:"edges_renamed"`
	Merged int `json:"edges_merged"`
}

// Changed reports whether the rename touched anything.
func (r RenameResult) Changed() bool {
	return r.Nodes > 0 || r.Edges > 0
}

// foldName is the case folding every backend applies before matching a
// search keyword. SQLite runs it through the chunkgraph_fold SQL function so
// that non-ASCII letters match the same way on every backend.
func foldName(s string) string {
	return strings.ToLower(s)
}

func containsFolded(name, foldedKeyword string) bool {
	return strings.Contains(foldName(name), foldedKeyword)
}

// matchEdgeNodes returns the distinct, sorted endpoint names of edges whose
// name contains keyword (case-insensitive).
func matchEdgeNodes(edges []Edge, keyword string) []string {
	kw := foldName(keyword)
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		if containsFolded(name, kw) {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for _, e := range edges {
		add(e.Source)
		add(e.Target)
	}
	sort.Strings(out)
	return out
}

// matchEdges keeps the edges with either endpoint containing keyword, in
// their original order.
func matchEdges(edges []Edge, keyword string) []Edge {
	kw := foldName(keyword)
	var out []Edge
	for _, e := range edges {
		if containsFolded(e.Source, kw) || containsFolded(e.Target, kw) {
			out = append(out, e)
		}
	}
	return out
}

// renameNodes replaces from with to in every name. The result is sorted and
// distinct; names that collide after renaming collapse into one.
func renameNodes(names []string, from, to string) ([]string, int, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	changed := 0
	for _, n := range names {
		r := strings.ReplaceAll(n, from, to)
		if r == "" {
			return nil, 0, ErrEmptyName
		}
		if r != n {
			changed++
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out, changed, nil
}

// renameEdges replaces from with to in both endpoints of every edge. Edges
// that land on the same ordered pair merge at the position of the first one,
// and the weight of the later edge in input order wins.
func renameEdges(edges []Edge, from, to string) ([]Edge, RenameResult, error) {
	var res RenameResult
	index := make(map[edgeKey]int, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		r := Edge{
			Source: strings.ReplaceAll(e.Source, from, to),
			Target: strings.ReplaceAll(e.Target, from, to),
			Weight: e.Weight,
		}
		if r.Source == "" || r.Target == "" {
			return nil, RenameResult{}, ErrEmptyName
		}
		if r.Source != e.Source || r.Target != e.Target {
			res.Edges++
		}
		k := edgeKey{r.Source, r.Target}
		if i, ok := index[k]; ok {
			out[i].Weight = r.Weight
			res.Merged++
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out, res, nil
}
