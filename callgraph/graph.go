// Package callgraph holds the program-wide call graph of both languages: it is
// built during analysis, pruned from the entry points, checked against the tier
// compatibility matrix and then frozen.
package callgraph

import (
	"errors"
	"fmt"

	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
)

var (
	// ErrSealed is returned when the graph is mutated after Check.
	ErrSealed = errors.New("call graph is sealed")
	// ErrUnknownNode is returned when an edge starts at a node never added.
	ErrUnknownNode = errors.New("unknown call graph node")
	// ErrDisciplineConflict is returned when two analyses derive different
	// disciplines for the same edge.
	ErrDisciplineConflict = errors.New("conflicting call discipline")
)

type edgeKey struct {
	caller string
	callee string
}

// Graph is the mutable build/prune phase of the call graph.
type Graph struct {
	nodes       map[string]*Node
	order       []string
	edges       map[edgeKey]*Edge
	edgeOrder   []edgeKey
	unresolved  []Unresolved
	entryPoints []string
	pruned      bool
	sealed      bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: map[string]*Node{}, edges: map[edgeKey]*Edge{}}
}

// AddNode adds a node; adding an existing name is a no-op returning the node.
func (g *Graph) AddNode(qname string, lang jam.Language, tier jam.Tier) (*Node, error) {
	if g.sealed {
		return nil, fmt.Errorf("add node %v: %w", qname, ErrSealed)
	}
	if node, ok := g.nodes[qname]; ok {
		return node, nil
	}
	node := &Node{Name: qname, Language: lang, Tier: tier, Result: jam.Unknown}
	g.nodes[qname] = node
	g.order = append(g.order, qname)
	return node, nil
}

// AddDeclaration adds the node of a callable top-level declaration.
func (g *Graph) AddDeclaration(decl *preprocess.Declaration) (*Node, error) {
	_, exists := g.nodes[decl.QualifiedName()]
	node, err := g.AddNode(decl.QualifiedName(), decl.Language, decl.Tier)
	if err != nil || exists {
		return node, err
	}
	node.Annotation = decl.Annotation
	node.Kind = decl.Kind
	node.Params = append([]jam.Param(nil), decl.Params...)
	node.Result = decl.Result
	node.Line = decl.Line
	node.Malformed = decl.Malformed
	node.Conditions = append([]string(nil), decl.Conditions...)
	return node, nil
}

// AddEdge records a call site of caller → callee. Repeated calls append sites.
func (g *Graph) AddEdge(caller, callee string, discipline jam.Discipline, site CallSite) (*Edge, error) {
	if g.sealed {
		return nil, fmt.Errorf("add edge %v -> %v: %w", caller, callee, ErrSealed)
	}
	from, ok := g.nodes[caller]
	if !ok {
		return nil, fmt.Errorf("add edge %v -> %v: %w %v", caller, callee, ErrUnknownNode, caller)
	}
	key := edgeKey{caller: caller, callee: callee}
	edge, ok := g.edges[key]
	if !ok {
		edge = &Edge{Caller: caller, Callee: callee, Discipline: discipline}
		g.edges[key] = edge
		g.edgeOrder = append(g.edgeOrder, key)
		from.out = append(from.out, edge)
	} else if edge.Discipline != discipline {
		return nil, fmt.Errorf("%v -> %v: %w: %v and %v", caller, callee, ErrDisciplineConflict, edge.Discipline, discipline)
	}
	edge.Sites = append(edge.Sites, site)
	return edge, nil
}

// AddUnresolved records a call to a name that matched no declaration.
func (g *Graph) AddUnresolved(caller, name string, line int) error {
	if g.sealed {
		return fmt.Errorf("add unresolved %v: %w", name, ErrSealed)
	}
	g.unresolved = append(g.unresolved, Unresolved{Caller: caller, Name: name, Line: line})
	return nil
}

// Node returns the node named qname.
func (g *Graph) Node(qname string) (*Node, bool) {
	node, ok := g.nodes[qname]
	return node, ok
}

// Nodes returns every node in insertion order, reachable or not.
func (g *Graph) Nodes() []*Node {
	result := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		result = append(result, g.nodes[name])
	}
	return result
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge {
	result := make([]*Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		result = append(result, g.edges[key])
	}
	return result
}

// Edge returns the edge caller → callee.
func (g *Graph) Edge(caller, callee string) (*Edge, bool) {
	edge, ok := g.edges[edgeKey{caller: caller, callee: callee}]
	return edge, ok
}

// Unresolved returns the recorded unresolved calls.
func (g *Graph) Unresolved() []Unresolved {
	return append([]Unresolved(nil), g.unresolved...)
}

// Sealed reports whether Check has frozen the graph.
func (g *Graph) Sealed() bool {
	return g.sealed
}

// Pruned reports whether Prune has run.
func (g *Graph) Pruned() bool {
	return g.pruned
}

// EntryPoints returns the entry points of the last Prune.
func (g *Graph) EntryPoints() []string {
	return append([]string(nil), g.entryPoints...)
}
