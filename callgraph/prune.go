package callgraph

import "fmt"

// Report is the outcome of a reachability sweep.
type Report struct {
	Reachable   []string `yaml:"reachable"`
	Unreachable []string `yaml:"unreachable"`
	Removed     []string `yaml:"removed"` // dropped by this sweep
	Missing     []string `yaml:"missing,omitempty"`
}

// Prune marks every node reachable from entryPoints; the rest leave the active
// graph but are kept for reporting. Pruning a pruned graph removes nothing
// further.
func (g *Graph) Prune(entryPoints []string) (*Report, error) {
	if g.sealed {
		return nil, fmt.Errorf("prune: %w", ErrSealed)
	}
	active := func(node *Node) bool {
		return !g.pruned || node.Reachable
	}
	report := &Report{}
	visited := map[string]bool{}
	var queue []*Node
	for _, name := range entryPoints {
		node, ok := g.nodes[name]
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}
		if active(node) && !visited[name] {
			visited[name] = true
			queue = append(queue, node)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, edge := range node.out {
			callee, ok := g.nodes[edge.Callee]
			if !ok || visited[callee.Name] || !active(callee) {
				continue
			}
			visited[callee.Name] = true
			queue = append(queue, callee)
		}
	}
	for _, name := range g.order {
		node := g.nodes[name]
		wasActive := active(node)
		node.Reachable = visited[name]
		if node.Reachable {
			report.Reachable = append(report.Reachable, name)
			continue
		}
		report.Unreachable = append(report.Unreachable, name)
		if wasActive {
			report.Removed = append(report.Removed, name)
		}
	}
	g.pruned = true
	g.entryPoints = append([]string(nil), entryPoints...)
	return report, nil
}
