package callgraph

// PropagateSideEffects computes the side-effecting set as the fixed point of
// "a caller of a side-effecting function is side-effecting", starting from the
// directly observed seeds. Facts only move from false to true, so the worklist
// drains in at most one round per node. It returns the set and the number of
// rounds.
func PropagateSideEffects(checked *Checked, seeds []string) (map[string]bool, int) {
	callers := map[string][]string{}
	for _, edge := range checked.graph.Edges() {
		callers[edge.Callee] = append(callers[edge.Callee], edge.Caller)
	}
	effects := map[string]bool{}
	var frontier []string
	for _, seed := range seeds {
		if !effects[seed] {
			effects[seed] = true
			frontier = append(frontier, seed)
		}
	}
	rounds := 0
	for len(frontier) > 0 {
		rounds++
		var next []string
		for _, name := range frontier {
			for _, caller := range callers[name] {
				if effects[caller] {
					continue
				}
				effects[caller] = true
				next = append(next, caller)
			}
		}
		frontier = next
	}
	return effects, rounds
}
