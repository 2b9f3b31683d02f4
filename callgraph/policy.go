package callgraph

import "github.com/viant/jamc/jam"

// Policy derives call disciplines and holds the tier compatibility matrix.
type Policy struct {
	Matrix       *jam.Matrix
	DefaultTiers map[jam.Language]jam.Tier
}

// NewPolicy creates a policy; a nil matrix selects jam.DefaultMatrix.
func NewPolicy(matrix *jam.Matrix, defaultTiers map[jam.Language]jam.Tier) *Policy {
	if matrix == nil {
		matrix = jam.DefaultMatrix()
	}
	if defaultTiers == nil {
		defaultTiers = map[jam.Language]jam.Tier{}
	}
	return &Policy{Matrix: matrix, DefaultTiers: defaultTiers}
}

// Tier returns the node's declared tier, or its language default.
func (p *Policy) Tier(node *Node) jam.Tier {
	if node.Tier != jam.Unspecified {
		return node.Tier
	}
	return p.DefaultTiers[node.Language]
}

// Discipline is the single place a call discipline is derived. Calls to
// unannotated functions are local. Calls to annotated functions are remote
// when they cross languages or connect two different specified tiers; the
// annotation then selects synchronous or asynchronous.
func (p *Policy) Discipline(caller, callee *Node) jam.Discipline {
	if callee == nil || !callee.Exported() {
		return jam.Local
	}
	from, to := p.Tier(caller), p.Tier(callee)
	crossing := caller.Language != callee.Language || (from.Specified() && to.Specified() && from != to)
	if !crossing {
		return jam.Local
	}
	return callee.Annotation.Remote()
}
