// Package graph holds the file-level import graph and computes which files
// are reachable from the entry points.
package graph

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/unused/pkg/source"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Edge is a resolved directive from one code file to another.
type Edge struct {
	From source.FileID
	To   source.FileID
}

// Graph is an immutable adjacency list over the file index.
type Graph struct {
	index *source.Index
	out   [][]source.FileID
	edges int
}

// Build creates the graph. Edges touching non-code files are dropped and
// duplicates are merged.
func Build(index *source.Index, edges []Edge) *Graph {
	g := &Graph{
		index: index,
		out:   make([][]source.FileID, index.Len()),
	}
	n := source.FileID(index.Len())
	for _, e := range edges {
		if e.From >= n || e.To >= n {
			continue
		}
		if index.File(e.From).Kind != source.KindCode || index.File(e.To).Kind != source.KindCode {
			continue
		}
		g.out[e.From] = append(g.out[e.From], e.To)
	}
	for i, succ := range g.out {
		if len(succ) == 0 {
			continue
		}
		slices.Sort(succ)
		g.out[i] = slices.Compact(succ)
		g.edges += len(g.out[i])
	}
	return g
}

// Successors returns the files id imports, exports or includes, in id order.
func (g *Graph) Successors(id source.FileID) []source.FileID {
	if int(id) >= len(g.out) {
		return nil
	}
	return g.out[id]
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// ReachableSet is the set of files reachable from the entry points.
type ReachableSet struct {
	bits *roaring.Bitmap
}

// Contains reports whether id is reachable.
func (r *ReachableSet) Contains(id source.FileID) bool {
	return r.bits.Contains(uint32(id))
}

// Len returns the number of reachable files.
func (r *ReachableSet) Len() int {
	return int(r.bits.GetCardinality())
}

// IDs returns the reachable files in ascending id order.
func (r *ReachableSet) IDs() []source.FileID {
	out := make([]source.FileID, 0, r.bits.GetCardinality())
	it := r.bits.Iterator()
	for it.HasNext() {
		out = append(out, source.FileID(it.Next()))
	}
	return out
}

// Reach performs a breadth-first traversal from entries. Each file is
// visited at most once, so cycles terminate.
func (g *Graph) Reach(entries []source.FileID) *ReachableSet {
	visited := roaring.New()

	// BFS traversal using index-based queue (avoids O(n) slice reslicing)
	queue := make([]source.FileID, 0, len(entries)*2)
	for _, e := range entries {
		if visited.CheckedAdd(uint32(e)) {
			queue = append(queue, e)
		}
	}
	head := 0

	for head < len(queue) {
		current := queue[head]
		head++

		for _, next := range g.Successors(current) {
			if visited.CheckedAdd(uint32(next)) {
				queue = append(queue, next)
			}
		}
	}

	return &ReachableSet{bits: visited}
}

// Cycles returns the import cycles of the graph: every strongly connected
// component with more than one file, plus files that import themselves.
// Members of a cycle are in id order and cycles are ordered by first member.
func (g *Graph) Cycles() [][]source.FileID {
	directed := simple.NewDirectedGraph()
	for id := range g.out {
		if g.index.File(source.FileID(id)).Kind == source.KindCode {
			directed.AddNode(simple.Node(int64(id)))
		}
	}

	var selfLoops []source.FileID
	for from, succ := range g.out {
		for _, to := range succ {
			// gonum simple graphs don't support self-loops
			if int(to) == from {
				selfLoops = append(selfLoops, to)
				continue
			}
			directed.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
		}
	}

	var cycles [][]source.FileID
	inCycle := roaring.New()
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		members := make([]source.FileID, 0, len(scc))
		for _, node := range scc {
			members = append(members, source.FileID(node.ID()))
			inCycle.Add(uint32(node.ID()))
		}
		slices.Sort(members)
		cycles = append(cycles, members)
	}
	for _, id := range selfLoops {
		if !inCycle.Contains(uint32(id)) {
			cycles = append(cycles, []source.FileID{id})
		}
	}

	slices.SortFunc(cycles, func(a, b []source.FileID) int {
		return int(a[0]) - int(b[0])
	})
	return cycles
}
