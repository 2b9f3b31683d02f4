package callgraph

import (
	"io"

	"github.com/viant/jamc/jam"
)

// Checked is the read-only view of a checked graph. Accessors return copies
// so that no reader can change a discipline or reachability fact.
type Checked struct {
	graph  *Graph
	policy *Policy
}

func nodeCopy(node *Node) Node {
	ret := *node
	ret.out = nil
	ret.Params = append([]jam.Param(nil), node.Params...)
	ret.Conditions = append([]string(nil), node.Conditions...)
	return ret
}

func edgeCopy(edge *Edge) Edge {
	ret := *edge
	ret.Sites = append([]CallSite(nil), edge.Sites...)
	return ret
}

// Node returns the node named qname.
func (c *Checked) Node(qname string) (Node, bool) {
	node, ok := c.graph.nodes[qname]
	if !ok {
		return Node{}, false
	}
	return nodeCopy(node), true
}

// Nodes returns every node, reachable or not, in insertion order.
func (c *Checked) Nodes() []Node {
	var result []Node
	for _, node := range c.graph.Nodes() {
		result = append(result, nodeCopy(node))
	}
	return result
}

// Reachable reports whether qname survived pruning.
func (c *Checked) Reachable(qname string) bool {
	node, ok := c.graph.nodes[qname]
	return ok && node.Reachable
}

// Unreachable returns the nodes dropped by pruning.
func (c *Checked) Unreachable() []Node {
	var result []Node
	for _, node := range c.graph.Nodes() {
		if !node.Reachable {
			result = append(result, nodeCopy(node))
		}
	}
	return result
}

// Edges returns the edges leaving reachable nodes.
func (c *Checked) Edges() []Edge {
	var result []Edge
	for _, edge := range c.graph.Edges() {
		if c.Reachable(edge.Caller) {
			result = append(result, edgeCopy(edge))
		}
	}
	return result
}

// Out returns the edges leaving qname.
func (c *Checked) Out(qname string) []Edge {
	node, ok := c.graph.nodes[qname]
	if !ok {
		return nil
	}
	var result []Edge
	for _, edge := range node.out {
		result = append(result, edgeCopy(edge))
	}
	return result
}

// Edge returns the edge caller → callee.
func (c *Checked) Edge(caller, callee string) (Edge, bool) {
	edge, ok := c.graph.Edge(caller, callee)
	if !ok {
		return Edge{}, false
	}
	return edgeCopy(edge), true
}

// Discipline returns the recorded discipline of caller → callee, Local when
// there is no such edge.
func (c *Checked) Discipline(caller, callee string) jam.Discipline {
	if edge, ok := c.graph.Edge(caller, callee); ok {
		return edge.Discipline
	}
	return jam.Local
}

// Tier returns the effective tier of qname.
func (c *Checked) Tier(qname string) jam.Tier {
	node, ok := c.graph.nodes[qname]
	if !ok {
		return jam.Unspecified
	}
	return c.policy.Tier(node)
}

// EntryPoints returns the entry points the graph was pruned from.
func (c *Checked) EntryPoints() []string {
	return c.graph.EntryPoints()
}

// Render writes the graph in format.
func (c *Checked) Render(w io.Writer, format Format) error {
	return c.graph.Render(w, format)
}
