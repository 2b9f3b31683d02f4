package translator

import (
	"fmt"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
)

// TopLevel is the qualified name of the synthetic JS program body node.
var TopLevel = jam.JS.Qualify(jam.TopLevel)

// Declare adds a node for every callable declaration of units, plus the JS
// program body node.
func Declare(graph *callgraph.Graph, units ...*preprocess.Unit) error {
	for _, unit := range units {
		if unit == nil {
			continue
		}
		for _, decl := range unit.Declarations {
			if !decl.Callable() {
				continue
			}
			if _, err := graph.AddDeclaration(decl); err != nil {
				return err
			}
		}
		if unit.Language != jam.JS {
			continue
		}
		node, err := graph.AddNode(TopLevel, jam.JS, jam.Unspecified)
		if err != nil {
			return err
		}
		node.Synthetic = true
		node.Kind = symtab.Function
	}
	return nil
}

// EntryPoints returns the roots of reachability: C main, every jtask, the JS
// program body and any extra qualified names.
func EntryPoints(units []*preprocess.Unit, extra ...string) []string {
	var result []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	for _, unit := range units {
		if unit == nil {
			continue
		}
		switch unit.Language {
		case jam.C:
			if decl, ok := unit.Lookup("main"); ok {
				add(decl.QualifiedName())
			}
		case jam.JS:
			add(TopLevel)
		}
		for _, decl := range unit.Declarations {
			if decl.Callable() && decl.Annotation == jam.Task {
				add(decl.QualifiedName())
			}
		}
	}
	for _, name := range extra {
		add(name)
	}
	return result
}

// Recorder is the single path through which an analysis touches the shared
// graph and the side-effect seeds.
type Recorder struct {
	in       *Input
	analysis *Analysis
	shared   map[string]*preprocess.SharedData
}

// NewRecorder starts an analysis of in.Unit.
func NewRecorder(in *Input) *Recorder {
	ret := &Recorder{
		in: in,
		analysis: &Analysis{
			Language: in.Unit.Language,
			Unit:     in.Unit,
			Manager:  in.Manager,
		},
		shared: map[string]*preprocess.SharedData{},
	}
	for _, data := range in.SharedData() {
		ret.shared[data.Name] = data
	}
	if in.Unit.Language == jam.JS && len(in.Unit.SharedData) > 0 {
		ret.analysis.HasSharedData = true
	}
	return ret
}

// Analysis returns the analysis being recorded.
func (r *Recorder) Analysis() *Analysis {
	return r.analysis
}

// Resolve maps a free function name to its node: a declaration of the same
// language first, then an exported declaration of the other language.
func (r *Recorder) Resolve(name string) (*callgraph.Node, bool) {
	if decl, ok := r.in.Unit.Lookup(name); ok {
		return r.in.Graph.Node(decl.QualifiedName())
	}
	if r.in.Other == nil {
		return nil, false
	}
	if decl, ok := r.in.Other.Lookup(name); ok && decl.Annotation.Exported() {
		return r.in.Graph.Node(decl.QualifiedName())
	}
	return nil, false
}

// ResolveForeign maps name to an unexported declaration of the other language;
// such a call is recorded so that the check reports it.
func (r *Recorder) ResolveForeign(name string) (*callgraph.Node, bool) {
	if r.in.Other == nil {
		return nil, false
	}
	if decl, ok := r.in.Other.Lookup(name); ok {
		return r.in.Graph.Node(decl.QualifiedName())
	}
	return nil, false
}

// External classifies a name no fragment declares.
func (r *Recorder) External(name string) (known bool, opaque bool) {
	return r.in.Externals.Classify(name)
}

// Call records caller → callee with the discipline derived by the policy.
func (r *Recorder) Call(caller string, callee *callgraph.Node, site callgraph.CallSite) error {
	from, ok := r.in.Graph.Node(caller)
	if !ok {
		return fmt.Errorf("record call %v -> %v: %w %v", caller, callee.Name, callgraph.ErrUnknownNode, caller)
	}
	discipline := r.in.Policy.Discipline(from, callee)
	if _, err := r.in.Graph.AddEdge(caller, callee.Name, discipline, site); err != nil {
		return err
	}
	if discipline.Remote() {
		r.analysis.Calls = append(r.analysis.Calls, Call{
			Caller:     caller,
			Callee:     callee.Name,
			Discipline: discipline,
			Span:       site.Span,
			Line:       site.Line,
		})
	}
	return nil
}

// Seed marks caller as directly side-effecting.
func (r *Recorder) Seed(caller string) error {
	return r.in.Manager.MarkSideEffecting(caller)
}

// Unresolved records a call to an undeclared name.
func (r *Recorder) Unresolved(caller, name string, line int) error {
	return r.in.Graph.AddUnresolved(caller, name, line)
}

// SharedDatum returns the jdata entry named name.
func (r *Recorder) SharedDatum(name string) (*preprocess.SharedData, bool) {
	data, ok := r.shared[name]
	if ok {
		r.analysis.HasSharedData = true
	}
	return data, ok
}

// Loop records a yield point.
func (r *Recorder) Loop(caller string, offset int) {
	r.analysis.Loops = append(r.analysis.Loops, Loop{Caller: caller, Offset: offset})
}

// DataWrite records a shared-data assignment.
func (r *Recorder) DataWrite(write DataWrite) {
	r.analysis.DataWrites = append(r.analysis.DataWrites, write)
}

// Errorf records an error diagnostic against caller.
func (r *Recorder) Errorf(category diag.Category, caller string, line int, format string, args ...interface{}) {
	r.analysis.Diagnostics.Errorf(category, r.in.Unit.Language, caller, line, format, args...)
}

// Warnf records a warning against caller.
func (r *Recorder) Warnf(category diag.Category, caller string, line int, format string, args ...interface{}) {
	r.analysis.Diagnostics.Warnf(category, r.in.Unit.Language, caller, line, format, args...)
}
