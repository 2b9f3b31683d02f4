package callgraph

import (
	"errors"
	"fmt"

	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
)

// ErrNotPruned is returned when Check runs before Prune.
var ErrNotPruned = errors.New("call graph is not pruned")

// Check validates every edge leaving a reachable node and seals the graph.
// Legality violations are returned as diagnostics; when there is none the
// read-only graph is returned. The error is reserved for contract violations.
func (g *Graph) Check(policy *Policy) (*Checked, diag.List, error) {
	if g.sealed {
		return nil, nil, fmt.Errorf("check: %w", ErrSealed)
	}
	if !g.pruned {
		return nil, nil, fmt.Errorf("check: %w", ErrNotPruned)
	}
	g.sealed = true
	var diags diag.List
	for _, unresolved := range g.unresolved {
		caller, ok := g.nodes[unresolved.Caller]
		if !ok || !caller.Reachable {
			continue
		}
		diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Category: diag.Resolution,
			Language: caller.Language,
			Name:     caller.Name,
			Line:     unresolved.Line,
			Message:  fmt.Sprintf("call to undeclared function %q", unresolved.Name),
		})
	}
	for _, edge := range g.Edges() {
		caller := g.nodes[edge.Caller]
		if !caller.Reachable {
			continue
		}
		if err := g.checkEdge(policy, caller, edge, &diags); err != nil {
			return nil, diags, err
		}
	}
	if diags.ByCategory(diag.Legality).HasErrors() {
		return nil, diags, nil
	}
	return &Checked{graph: g, policy: policy}, diags, nil
}

func (g *Graph) checkEdge(policy *Policy, caller *Node, edge *Edge, diags *diag.List) error {
	callee, ok := g.nodes[edge.Callee]
	from := policy.Tier(caller)
	to := jam.Unspecified
	if ok {
		to = policy.Tier(callee)
	}
	fail := func(site CallSite, format string, args ...interface{}) {
		diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Category: diag.Legality,
			Language: caller.Language,
			Name:     caller.Name,
			Callee:   edge.Callee,
			Tier:     fmt.Sprintf("%s -> %s", from, to),
			Line:     site.Line,
			Message:  fmt.Sprintf(format, args...),
		})
	}
	first := CallSite{}
	if len(edge.Sites) > 0 {
		first = edge.Sites[0]
	}
	switch {
	case !ok:
		fail(first, "callee %s does not exist", edge.Callee)
		return nil
	case !callee.Reachable:
		fail(first, "callee %s is not reachable", edge.Callee)
		return nil
	case !callee.Valid():
		fail(first, "callee %s has a malformed annotation", edge.Callee)
		return nil
	case caller.Language != callee.Language && !callee.Exported():
		fail(first, "%s function %s is not annotated with jsync, jasync or jtask and cannot be called from %s",
			callee.Language.Title(), edge.Callee, caller.Language.Title())
		return nil
	}
	if derived := policy.Discipline(caller, callee); derived != edge.Discipline {
		return fmt.Errorf("%v -> %v: %w: recorded %v, derived %v", edge.Caller, edge.Callee, ErrDisciplineConflict, edge.Discipline, derived)
	}
	if !edge.Discipline.Remote() {
		return nil
	}
	if !policy.Matrix.Permits(edge.Discipline, from, to) {
		fail(first, "%s call from tier %s to tier %s is not permitted", edge.Discipline, from, to)
	}
	if edge.Discipline == jam.AsyncRemote {
		if to.Specified() && !policy.Matrix.Deferrable(to) {
			fail(first, "tier %s does not accept deferred execution of %s", to, edge.Callee)
		}
		for _, site := range edge.Sites {
			if site.UsesResult {
				fail(site, "result of asynchronous call to %s is used before the call completes", edge.Callee)
			}
		}
	}
	if !callee.Variadic() {
		for _, site := range edge.Sites {
			if site.Args != len(callee.Params) {
				fail(site, "remote call to %s passes %d argument(s), expected %d", edge.Callee, site.Args, len(callee.Params))
			}
		}
	}
	if caller.Language == jam.JS && callee.Language == jam.JS {
		return nil
	}
	for _, param := range callee.Params {
		if !param.Kind.Marshallable() {
			fail(first, "parameter %s of %s has no marshallable boundary type", param.Name, edge.Callee)
		}
	}
	if edge.Discipline == jam.SyncRemote && callee.Result != jam.Void && !callee.Result.Marshallable() {
		fail(first, "result of %s has no marshallable boundary type", edge.Callee)
	}
	return nil
}
