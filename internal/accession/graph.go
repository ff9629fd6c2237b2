// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package accession

import "sort"

// Graph is the same-page co-occurrence map over dataset IDs: identifiers
// that appear inside a single molecular-data block form a mutual
// association set. It is built once per page and queried by both the
// normalizer and the merger, so partial or ranged references can be
// completed to their full associated set.
type Graph struct {
	nodes []string
	index map[string]int
	edges []map[int]bool
}

// NewGraph returns an empty co-occurrence graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// node interns id and returns its arena index.
func (g *Graph) node(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.index[id] = i
	g.edges = append(g.edges, make(map[int]bool))
	return i
}

// AddBlock records one molecular-data block's identifiers as mutually
// associated.
func (g *Graph) AddBlock(ids []string) {
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		idx = append(idx, g.node(id))
	}
	for _, a := range idx {
		for _, b := range idx {
			if a != b {
				g.edges[a][b] = true
			}
		}
	}
}

// Expand completes a reference list to its full association set: every
// listed ID plus all IDs co-occurring with it, sorted and deduplicated.
// IDs the graph has never seen pass through unchanged.
func (g *Graph) Expand(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, id := range ids {
		add(id)
		if i, ok := g.index[id]; ok {
			for j := range g.edges[i] {
				add(g.nodes[j])
			}
		}
	}
	sort.Strings(out)
	return out
}

// Known reports whether id appears in the graph.
func (g *Graph) Known(id string) bool {
	_, ok := g.index[id]
	return ok
}
