package compiler

import (
	"fmt"

	"github.com/roach88/idlbind/internal/ir"
)

// CycleNote reports composite types that reach themselves through their
// members.
//
// Such cycles are representable: the generated codec delegates to each type's
// own encode and decode methods, so recursion happens at run time and ends
// when a sequence is empty or a union selects another case. A cycle made only
// of direct struct members cannot end, and is reported at warning level.
type CycleNote struct {
	Path    []string `json:"path"`    // ["a::Node", "a::Tree", "a::Node"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles finds reference cycles among structs and unions.
//
// The algorithm:
//  1. Build a graph with an edge from each struct or union to every struct or
//     union its members reach, looking through typedefs and sequences
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// An acyclic tree returns an empty list.
func AnalyzeCycles(tree *ir.Tree) []CycleNote {
	g := newGraph()
	var composites []ir.Definition
	tree.Walk(func(def ir.Definition) bool {
		switch def.(type) {
		case *ir.Struct, *ir.Union:
			g.node(def)
			composites = append(composites, def)
		}
		return true
	})
	for _, def := range composites {
		from := g.node(def)
		for _, m := range membersOf(def) {
			if m == nil {
				continue
			}
			reach(m.Type, false, func(target ir.Definition, viaSeq bool) {
				g.edge(from, g.node(target), viaSeq)
			}, isComposite)
		}
	}

	notes := []CycleNote{}
	for _, scc := range tarjanSCC(g.adj) {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		path := reconstructCyclePath(scc, g.adj)
		level := "warning"
		for i := 0; i+1 < len(path); i++ {
			if g.soft(path[i], path[i+1]) {
				level = "info"
				break
			}
		}
		names := g.names(path)
		notes = append(notes, CycleNote{
			Path:    names,
			Message: fmt.Sprintf("recursive types: %s", joinPath(names)),
			Level:   level,
		})
	}
	return notes
}

// aliasCycles reports typedefs whose aliased type reaches the typedef again
// through other typedefs or sequences. The codec expands typedefs inline, so
// such a chain never reaches a terminal type.
func aliasCycles(tree *ir.Tree) []ValidationError {
	g := newGraph()
	var typedefs []*ir.Typedef
	tree.Walk(func(def ir.Definition) bool {
		if td, ok := def.(*ir.Typedef); ok {
			g.node(td)
			typedefs = append(typedefs, td)
		}
		return true
	})
	for _, td := range typedefs {
		from := g.node(td)
		reach(td.Aliased, false, func(target ir.Definition, _ bool) {
			g.edge(from, g.node(target), false)
		}, func(def ir.Definition) bool {
			_, ok := def.(*ir.Typedef)
			return ok
		})
	}

	var errs []ValidationError
	for _, scc := range tarjanSCC(g.adj) {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		names := g.names(reconstructCyclePath(scc, g.adj))
		errs = append(errs, ValidationError{
			Field:   names[0],
			Message: fmt.Sprintf("typedef alias cycle: %s", joinPath(names)),
			Code:    ErrAliasCycle,
		})
	}
	return errs
}

func isComposite(def ir.Definition) bool {
	switch def.(type) {
	case *ir.Struct, *ir.Union:
		return true
	}
	return false
}

func membersOf(def ir.Definition) []*ir.Member {
	switch d := def.(type) {
	case *ir.Struct:
		return d.Members
	case *ir.Union:
		out := make([]*ir.Member, len(d.Cases))
		for i, c := range d.Cases {
			out[i] = c.Member
		}
		return out
	}
	return nil
}

// reach calls visit for the first declaration accepted by stop along t,
// looking through sequences and, for declarations stop rejects, typedefs.
func reach(t ir.Type, viaSeq bool, visit func(ir.Definition, bool), stop func(ir.Definition) bool) {
	for depth := 0; depth <= ir.MaxAliasDepth && t != nil; depth++ {
		if seq, ok := t.(ir.Sequence); ok {
			t = seq.Elem
			viaSeq = true
			continue
		}
		def := ir.Target(t)
		if def == nil {
			return
		}
		if stop(def) {
			visit(def, viaSeq)
			return
		}
		td, ok := def.(*ir.Typedef)
		if !ok {
			return
		}
		t = td.Aliased
	}
}

// graph is a directed graph over declarations. Nodes are numbered in
// insertion order so traversal is deterministic.
type graph struct {
	ids   map[ir.Definition]int
	defs  []ir.Definition
	adj   [][]int
	viaSq map[[2]int]bool
}

func newGraph() *graph {
	return &graph{ids: make(map[ir.Definition]int), viaSq: make(map[[2]int]bool)}
}

func (g *graph) node(def ir.Definition) int {
	if id, ok := g.ids[def]; ok {
		return id
	}
	id := len(g.defs)
	g.ids[def] = id
	g.defs = append(g.defs, def)
	g.adj = append(g.adj, nil)
	return id
}

func (g *graph) edge(from, to int, viaSeq bool) {
	key := [2]int{from, to}
	if _, ok := g.viaSq[key]; !ok {
		g.adj[from] = append(g.adj[from], to)
		g.viaSq[key] = viaSeq
		return
	}
	// A direct edge wins over one through a sequence.
	g.viaSq[key] = g.viaSq[key] && viaSeq
}

// soft reports whether the edge from a to b ends: it passes through a
// sequence or starts at a union.
func (g *graph) soft(a, b int) bool {
	if _, ok := g.defs[a].(*ir.Union); ok {
		return true
	}
	return g.viaSq[[2]int{a, b}]
}

func (g *graph) hasSelfLoop(n int) bool {
	for _, w := range g.adj[n] {
		if w == n {
			return true
		}
	}
	return false
}

func (g *graph) names(path []int) []string {
	out := make([]string, len(path))
	for i, n := range path {
		out[i] = label(g.defs[n])
	}
	return out
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles.
func tarjanSCC(adj [][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(adj))
		lowlink = make([]int, len(adj))
		onStack = make([]bool, len(adj))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range adj {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath returns the shortest cycle through the SCC's earliest
// declared node, found breadth-first within the SCC. The path starts and ends
// at that node.
func reconstructCyclePath(scc []int, adj [][]int) []int {
	if len(scc) == 0 {
		return nil
	}
	inSCC := make(map[int]bool, len(scc))
	start := scc[0]
	for _, n := range scc {
		inSCC[n] = true
		start = min(start, n)
	}

	prev := map[int]int{}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if !inSCC[w] {
				continue
			}
			if w == start {
				path := []int{start}
				for n := v; n != start; n = prev[n] {
					path = append(path, n)
				}
				path = append(path, start)
				// reverse the interior
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, seen := prev[w]; !seen {
				prev[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []int{start}
}
