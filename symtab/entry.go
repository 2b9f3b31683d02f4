package symtab

import "github.com/viant/jamc/jam"

// Kind is the closed set of declaration kinds.
type Kind int

const (
	Variable Kind = iota
	Function
	Task
	SharedData
	Condition
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Task:
		return "task"
	case SharedData:
		return "shared-data"
	case Condition:
		return "condition"
	}
	return "variable"
}

// Callable reports whether the kind can be a call-graph node.
func (k Kind) Callable() bool {
	return k == Function || k == Task
}

// Fact is a monotonic side-effect fact: Unknown until analysis resolves it.
type Fact int

const (
	Unknown Fact = iota
	Pure
	Effecting
)

func (f Fact) String() string {
	switch f {
	case Pure:
		return "pure"
	case Effecting:
		return "side-effecting"
	}
	return "unknown"
}

// Entry is one declared name.
type Entry struct {
	Name       string
	Kind       Kind
	Tier       jam.Tier
	Annotation jam.Annotation
	Line       int
	Static     bool // C static local, lives beyond the call
	Param      bool
	Malformed  bool // declaration could not be parsed; tier is unknown
	SideEffect Fact
	Captured   bool // referenced from a nested closure
	Scope      ScopeID
}
