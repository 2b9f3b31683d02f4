package callgraph

import (
	"strings"

	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
)

// Node is one function or task of either language.
type Node struct {
	Name       string         `yaml:"name"` // qualified
	Language   jam.Language   `yaml:"language"`
	Tier       jam.Tier       `yaml:"tier"`
	Annotation jam.Annotation `yaml:"annotation"`
	Kind       symtab.Kind    `yaml:"-"`
	Params     []jam.Param    `yaml:"params,omitempty"`
	Result     jam.ValueKind  `yaml:"result"`
	Line       int            `yaml:"line,omitempty"`
	Malformed  bool           `yaml:"malformed,omitempty"`
	Synthetic  bool           `yaml:"synthetic,omitempty"` // JS program body
	Reachable  bool           `yaml:"reachable"`
	Conditions []string       `yaml:"conditions,omitempty"` // jcond names guarding the function

	out []*Edge
}

// Exported reports whether the node may be called across the boundary.
func (n *Node) Exported() bool {
	return n.Annotation.Exported()
}

// Valid reports whether the node's declaration and tier were understood.
func (n *Node) Valid() bool {
	return !n.Malformed && n.Tier != jam.Invalid
}

// Shape returns the argument marshalling codes.
func (n *Node) Shape() string {
	return jam.Shape(n.Params)
}

// Variadic reports whether the node accepts any number of arguments.
func (n *Node) Variadic() bool {
	for _, param := range n.Params {
		if strings.HasPrefix(param.Name, "...") {
			return true
		}
	}
	return false
}

// CallSite locates one call of an edge.
type CallSite struct {
	Span       preprocess.Span `yaml:"span"` // callee identifier
	Line       int             `yaml:"line"`
	Args       int             `yaml:"args"`
	UsesResult bool            `yaml:"usesResult,omitempty"`
}

// Edge is the caller → callee relation with every site making the call.
type Edge struct {
	Caller     string         `yaml:"caller"`
	Callee     string         `yaml:"callee"`
	Discipline jam.Discipline `yaml:"discipline"`
	Sites      []CallSite     `yaml:"sites"`
}

// Unresolved is a call to a name that matched no declaration.
type Unresolved struct {
	Caller string `yaml:"caller"`
	Name   string `yaml:"name"`
	Line   int    `yaml:"line"`
}
