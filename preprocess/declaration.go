package preprocess

import (
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

// Span is a half-open byte range of the source.
type Span struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Declaration is one top-level declaration found without translating bodies.
type Declaration struct {
	Name       string         `yaml:"name"`
	Language   jam.Language   `yaml:"language"`
	Kind       symtab.Kind    `yaml:"-"`
	Annotation jam.Annotation `yaml:"annotation"`
	Tier       jam.Tier       `yaml:"tier"`
	Conditions []string       `yaml:"conditions,omitempty"`
	Params     []jam.Param    `yaml:"params,omitempty"`
	Result     jam.ValueKind  `yaml:"result"`
	Span       Span           `yaml:"span"`
	NameSpan   Span           `yaml:"nameSpan"`
	Line       int            `yaml:"line"`
	Static     bool           `yaml:"static,omitempty"`
	Prototype  bool           `yaml:"prototype,omitempty"` // C declaration without body
	Removable  bool           `yaml:"-"`                   // prototype is the only declarator of its statement
	Var        bool           `yaml:"var,omitempty"`       // JS var binding, may repeat
	Malformed  bool           `yaml:"malformed,omitempty"`
}

// QualifiedName returns the program-wide name, e.g. "js:ping".
func (d *Declaration) QualifiedName() string {
	return d.Language.Qualify(d.Name)
}

// Callable reports whether the declaration defines a function body that can be a
// call-graph node.
func (d *Declaration) Callable() bool {
	return d.Kind.Callable() && !d.Prototype
}

// Shape returns the argument marshalling codes.
func (d *Declaration) Shape() string {
	return jam.Shape(d.Params)
}

// Condition is a named runtime predicate declared in a jcond block.
type Condition struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
	Line int    `yaml:"line"`
}

// SharedMode is the runtime flow kind of a jdata entry.
type SharedMode string

const (
	Logger      SharedMode = "logger"
	Broadcaster SharedMode = "broadcaster"
	Flow        SharedMode = "flow"
)

func (m SharedMode) valid() bool {
	return m == Logger || m == Broadcaster || m == Flow
}

// SharedData is one task-shared datum declared in a jdata block.
type SharedData struct {
	Name string     `yaml:"name"`
	Type string     `yaml:"type,omitempty"`
	Mode SharedMode `yaml:"mode"`
	Line int        `yaml:"line"`
}
