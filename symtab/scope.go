package symtab

// ScopeID is a non-owning handle into the manager's scope arena.
type ScopeID int

// NoScope is the parent of the root scope.
const NoScope ScopeID = -1

// ScopeKind classifies a lexical scope.
type ScopeKind string

const (
	GlobalScope   ScopeKind = "global"
	FunctionScope ScopeKind = "function"
	BlockScope    ScopeKind = "block"
	LoopScope     ScopeKind = "loop"
	ClassScope    ScopeKind = "class"
)

// Scope is a lexical binding context.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Name   string
	Parent ScopeID
	Depth  int
	Closed bool

	entries map[string]*Entry
	order   []string
}

func newScope(id, parent ScopeID, kind ScopeKind, name string, depth int) *Scope {
	return &Scope{ID: id, Parent: parent, Kind: kind, Name: name, Depth: depth, entries: map[string]*Entry{}}
}

// Entry returns the entry declared in this scope only.
func (s *Scope) Entry(name string) (*Entry, bool) {
	entry, ok := s.entries[name]
	return entry, ok
}

// Entries returns the scope's entries in declaration order.
func (s *Scope) Entries() []*Entry {
	result := make([]*Entry, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.entries[name])
	}
	return result
}

// Global reports whether s is the root scope.
func (s *Scope) Global() bool {
	return s.Parent == NoScope
}
