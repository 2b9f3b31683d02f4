package translator

import (
	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
)

// Stub is a caller-side function forwarding a remote call to the runtime.
type Stub struct {
	Language   jam.Language // side the stub is emitted on
	Name       string
	Callee     string // qualified
	Function   string // plain callee name known to the runtime
	Discipline jam.Discipline
	Tier       string
	Condition  string
	Params     []jam.Param
	Result     jam.ValueKind
}

// Shape returns the argument marshalling codes.
func (s Stub) Shape() string {
	return jam.Shape(s.Params)
}

// Entry is a callee-side registration of an annotated function.
type Entry struct {
	Language   jam.Language
	Function   string
	Callee     string // qualified
	Wrapper    string
	Annotation jam.Annotation
	Tier       string
	Condition  string
	Params     []jam.Param
	Result     jam.ValueKind
	SideEffect bool
}

// Shape returns the argument marshalling codes.
func (e Entry) Shape() string {
	return jam.Shape(e.Params)
}

// Glue is the shared condition set both emitters read: the stubs each side
// must emit and the entries each side must register.
type Glue struct {
	Conditions []*preprocess.Condition
	stubs      map[jam.Language][]Stub
	entries    map[jam.Language][]Entry
}

// TierName is the runtime spelling of a tier; unspecified tiers are empty.
func TierName(tier jam.Tier) string {
	if tier.Specified() {
		return tier.String()
	}
	return ""
}

// BuildGlue derives the glue from the checked graph. It runs once, after side
// effects are final, and both emitters consume the same value.
func BuildGlue(checked *callgraph.Checked, conditions []*preprocess.Condition, effects map[string]bool) *Glue {
	ret := &Glue{Conditions: conditions, stubs: map[jam.Language][]Stub{}, entries: map[jam.Language][]Entry{}}
	seen := map[string]bool{}
	for _, edge := range checked.Edges() {
		if !edge.Discipline.Remote() {
			continue
		}
		callee, ok := checked.Node(edge.Callee)
		if !ok {
			continue
		}
		caller, _ := checked.Node(edge.Caller)
		_, function, _ := jam.SplitQualified(callee.Name)
		name := StubName(edge.Discipline, function)
		key := caller.Language.Qualify(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		condition := ConditionExpr(callee.Conditions)
		ret.stubs[caller.Language] = append(ret.stubs[caller.Language], Stub{
			Language:   caller.Language,
			Name:       name,
			Callee:     callee.Name,
			Function:   function,
			Discipline: edge.Discipline,
			Tier:       TierName(checked.Tier(callee.Name)),
			Condition:  condition,
			Params:     callee.Params,
			Result:     callee.Result,
		})
	}
	for _, node := range checked.Nodes() {
		if !node.Reachable || !node.Exported() || node.Synthetic {
			continue
		}
		_, function, _ := jam.SplitQualified(node.Name)
		condition := ConditionExpr(node.Conditions)
		ret.entries[node.Language] = append(ret.entries[node.Language], Entry{
			Language:   node.Language,
			Function:   function,
			Callee:     node.Name,
			Wrapper:    EntryName(function),
			Annotation: node.Annotation,
			Tier:       TierName(checked.Tier(node.Name)),
			Condition:  condition,
			Params:     node.Params,
			Result:     node.Result,
			SideEffect: effects[node.Name],
		})
	}
	return ret
}

// Stubs returns the stubs emitted on lang's side.
func (g *Glue) Stubs(lang jam.Language) []Stub {
	return g.stubs[lang]
}

// Entries returns the registrations emitted on lang's side.
func (g *Glue) Entries(lang jam.Language) []Entry {
	return g.entries[lang]
}

// Tasks returns lang's jtask entries, launched at startup.
func (g *Glue) Tasks(lang jam.Language) []Entry {
	var result []Entry
	for _, entry := range g.entries[lang] {
		if entry.Annotation == jam.Task {
			result = append(result, entry)
		}
	}
	return result
}

// Entry returns the registration of the qualified callee.
func (g *Glue) Entry(callee string) (Entry, bool) {
	lang, _, _ := jam.SplitQualified(callee)
	for _, entry := range g.entries[lang] {
		if entry.Callee == callee {
			return entry, true
		}
	}
	return Entry{}, false
}
