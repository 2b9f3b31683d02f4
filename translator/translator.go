// Package translator defines the contract both per-language translators honor:
// analysis populates the shared call graph and seeds side effects, emission
// reads only the checked graph and the shared glue set.
package translator

import (
	"context"
	"errors"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
)

// Translator is implemented by the C and JS translators.
type Translator interface {
	Language() jam.Language
	// Analyze walks the unit, records call edges and side-effect seeds.
	Analyze(ctx context.Context, in *Input) (*Analysis, error)
	// Emit produces instrumented code from a finished analysis.
	Emit(ctx context.Context, analysis *Analysis, checked *callgraph.Checked, glue *Glue) (*Output, error)
}

// Input is what an analysis consumes.
type Input struct {
	Unit      *preprocess.Unit
	Other     *preprocess.Unit // opposite language, for cross-language references
	Manager   *symtab.Manager
	Graph     *callgraph.Graph
	Policy    *callgraph.Policy
	Externals *Externals
}

// SharedData returns the jdata entries visible to the unit.
func (i *Input) SharedData() []*preprocess.SharedData {
	if i.Unit.Language == jam.JS {
		return i.Unit.SharedData
	}
	if i.Other != nil {
		return i.Other.SharedData
	}
	return nil
}

// Call is a call site whose discipline needs glue at emission.
type Call struct {
	Caller     string
	Callee     string
	Discipline jam.Discipline
	Span       preprocess.Span
	Line       int
}

// Loop is the opening brace of a loop body, a cooperative yield point.
type Loop struct {
	Caller string
	Offset int // just after '{'
}

// DataWrite is an assignment to a shared datum rewritten at emission.
type DataWrite struct {
	Caller     string
	Name       string
	Start      int // assignment start
	ValueStart int
	End        int
	Line       int
}

// Analysis is the per-language result of the analysis phase.
type Analysis struct {
	Language      jam.Language
	Unit          *preprocess.Unit
	Manager       *symtab.Manager
	Calls         []Call
	Loops         []Loop
	DataWrites    []DataWrite
	HasSharedData bool
	Diagnostics   diag.List
}

// Output is the immutable per-language translation result.
type Output struct {
	Language      jam.Language    `yaml:"language"`
	Code          string          `yaml:"-"`
	SideEffects   map[string]bool `yaml:"sideEffects"`
	MaxLevel      int             `yaml:"maxLevel"`
	HasSharedData bool            `yaml:"hasSharedData"`
	FlowDecls     string          `yaml:"-"` // C: declarations of C entries for the annotated JS
	Start         string          `yaml:"-"` // JS: bootstrap snippet
}

// ErrUnbalancedScopes is returned when an analysis leaves a scope open.
var ErrUnbalancedScopes = errors.New("unbalanced scopes")
