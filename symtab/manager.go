// Package symtab implements the scoped symbol and side-effect table of one
// language's translation pass.
package symtab

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/jamc/jam"
)

var (
	// ErrScopeUnderflow is returned when the root scope is exited.
	ErrScopeUnderflow = errors.New("exit of root scope")
	// ErrRedeclared is returned when a name already exists in the current scope.
	ErrRedeclared = errors.New("redeclaration")
	// ErrNotFinalized is returned when the side-effect result is read too early.
	ErrNotFinalized = errors.New("side-effect result is not finalized")
	// ErrFinalized is returned when seeding after the result was produced.
	ErrFinalized = errors.New("side-effect result is already finalized")
)

// Manager owns the scope tree of one language's pass. Scopes live in an arena;
// parents are handles used only for lookup.
type Manager struct {
	Language jam.Language

	scopes          []*Scope
	current         ScopeID
	maxDepth        int
	checkSideEffect bool
	seeds           map[string]bool
	seedOrder       []string
	result          map[string]bool
	finalized       bool
}

// New creates a manager positioned at its global scope.
func New(lang jam.Language) *Manager {
	ret := &Manager{Language: lang, checkSideEffect: true, seeds: map[string]bool{}}
	ret.scopes = append(ret.scopes, newScope(0, NoScope, GlobalScope, "", 0))
	return ret
}

// Global returns the root scope.
func (m *Manager) Global() *Scope {
	return m.scopes[0]
}

// Current returns the innermost open scope.
func (m *Manager) Current() *Scope {
	return m.scopes[m.current]
}

// Scope returns the scope behind id.
func (m *Manager) Scope(id ScopeID) *Scope {
	if id < 0 || int(id) >= len(m.scopes) {
		return nil
	}
	return m.scopes[id]
}

// EnterScope opens a nested scope and makes it current.
func (m *Manager) EnterScope(kind ScopeKind, name string) ScopeID {
	parent := m.Current()
	id := ScopeID(len(m.scopes))
	scope := newScope(id, parent.ID, kind, name, parent.Depth+1)
	m.scopes = append(m.scopes, scope)
	m.current = id
	if scope.Depth > m.maxDepth {
		m.maxDepth = scope.Depth
	}
	return id
}

// ExitScope closes the current scope; exiting the root is a structural error.
func (m *Manager) ExitScope() error {
	scope := m.Current()
	if scope.Global() {
		return fmt.Errorf("%s: %w", m.Language.Title(), ErrScopeUnderflow)
	}
	scope.Closed = true
	m.current = scope.Parent
	return nil
}

// Depth returns the nesting depth of the current scope (root is 0).
func (m *Manager) Depth() int {
	return m.Current().Depth
}

// MaxDepth returns the deepest nesting observed.
func (m *Manager) MaxDepth() int {
	return m.maxDepth
}

// Balanced reports whether every entered scope was exited.
func (m *Manager) Balanced() bool {
	return m.Current().Global()
}

// Declare adds name to the current scope.
func (m *Manager) Declare(name string, kind Kind, tier jam.Tier) (*Entry, error) {
	return m.DeclareEntry(Entry{Name: name, Kind: kind, Tier: tier})
}

// DeclareEntry adds a fully described entry to the current scope. On
// redeclaration the existing entry is returned with ErrRedeclared.
func (m *Manager) DeclareEntry(entry Entry) (*Entry, error) {
	scope := m.Current()
	if prev, ok := scope.entries[entry.Name]; ok {
		return prev, fmt.Errorf("%w of %q", ErrRedeclared, entry.Name)
	}
	entry.Scope = scope.ID
	ret := &entry
	scope.entries[entry.Name] = ret
	scope.order = append(scope.order, entry.Name)
	return ret, nil
}

// Lookup walks from the current scope outward and returns the first match.
func (m *Manager) Lookup(name string) (*Entry, *Scope, bool) {
	for id := m.current; id != NoScope; id = m.scopes[id].Parent {
		scope := m.scopes[id]
		if entry, ok := scope.entries[name]; ok {
			return entry, scope, true
		}
	}
	return nil, nil, false
}

// LookupLocal looks name up in the current scope only.
func (m *Manager) LookupLocal(name string) (*Entry, bool) {
	return m.Current().Entry(name)
}

// Reference resolves name like Lookup and records the capture when the match
// belongs to an enclosing function rather than the current one or the globals.
func (m *Manager) Reference(name string) (*Entry, *Scope, bool) {
	entry, owner, ok := m.Lookup(name)
	if !ok || owner.Global() {
		return entry, owner, ok
	}
	for id := m.current; id != owner.ID; id = m.scopes[id].Parent {
		if m.scopes[id].Kind == FunctionScope {
			entry.Captured = true
			break
		}
	}
	return entry, owner, ok
}

// EnclosingFunction returns the innermost function scope, or nil at top level.
func (m *Manager) EnclosingFunction() *Scope {
	for id := m.current; id != NoScope; id = m.scopes[id].Parent {
		if m.scopes[id].Kind == FunctionScope {
			return m.scopes[id]
		}
	}
	return nil
}

// SetCheckSideEffect toggles side-effect checking for the whole tree; when off,
// seeds are ignored and Finalize treats every function as side-effecting.
func (m *Manager) SetCheckSideEffect(check bool) {
	m.checkSideEffect = check
}

// CheckSideEffect reports whether side-effect checking is active.
func (m *Manager) CheckSideEffect() bool {
	return m.checkSideEffect
}

// MarkSideEffecting seeds qname as directly side-effecting. Repeated calls are
// no-ops.
func (m *Manager) MarkSideEffecting(qname string) error {
	if m.finalized {
		return fmt.Errorf("%s: mark %v: %w", m.Language.Title(), qname, ErrFinalized)
	}
	if !m.checkSideEffect || m.seeds[qname] {
		return nil
	}
	m.seeds[qname] = true
	m.seedOrder = append(m.seedOrder, qname)
	return nil
}

// Seeded reports whether qname was seeded directly.
func (m *Manager) Seeded(qname string) bool {
	return m.seeds[qname]
}

// Seeds returns the directly observed side-effecting functions in seeding order.
func (m *Manager) Seeds() []string {
	return append([]string(nil), m.seedOrder...)
}

// Finalize stores the propagated side-effect facts for functions, the
// qualified names of this language's functions. Names missing from effects are
// pure. Entries at global scope receive the resolved fact.
func (m *Manager) Finalize(functions []string, effects map[string]bool) {
	m.result = make(map[string]bool, len(functions))
	for _, qname := range functions {
		effecting := effects[qname] || !m.checkSideEffect
		m.result[qname] = effecting
		_, name, _ := jam.SplitQualified(qname)
		if entry, ok := m.Global().Entry(name); ok && entry.Kind.Callable() {
			entry.SideEffect = Pure
			if effecting {
				entry.SideEffect = Effecting
			}
		}
	}
	m.finalized = true
}

// SideEffectResult returns the final table keyed by qualified function name.
func (m *Manager) SideEffectResult() (map[string]bool, error) {
	if !m.finalized {
		return nil, fmt.Errorf("%s: %w", m.Language.Title(), ErrNotFinalized)
	}
	ret := make(map[string]bool, len(m.result))
	for k, v := range m.result {
		ret[k] = v
	}
	return ret, nil
}

// Functions returns the qualified names of callable globals, sorted.
func (m *Manager) Functions() []string {
	var result []string
	for _, entry := range m.Global().Entries() {
		if entry.Kind.Callable() {
			result = append(result, m.Language.Qualify(entry.Name))
		}
	}
	sort.Strings(result)
	return result
}
