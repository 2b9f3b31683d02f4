// Package preprocess scans C and JS fragments once, strips the language
// extension and enumerates top-level declarations so that forward and
// cross-language references resolve before translation starts.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

// ErrNoDeclarations is returned when a fragment cannot produce any declaration
// list at all.
var ErrNoDeclarations = errors.New("unable to enumerate declarations")

// Unit is the immutable result of preprocessing one fragment.
type Unit struct {
	Language     jam.Language
	Source       []byte
	Stripped     []byte   // extension blanked, offsets unchanged
	Annotated    []byte   // JS only: boundary types kept for type checking
	Preserved    []string // C only: '#' and ';' lines in source order
	Declarations []*Declaration
	Prototypes   []*Declaration // C forward declarations of functions defined in the fragment
	Conditions   []*Condition
	SharedData   []*SharedData
	Tree         *sitter.Tree
	Diagnostics  diag.List
	Hash         uint64
}

// Clone returns a copy of u owning a copy of the parse tree. Walking a tree
// mutates its node cache, so a shared unit is cloned before every walk.
func (u *Unit) Clone() *Unit {
	ret := *u
	if u.Tree != nil {
		ret.Tree = u.Tree.Copy()
	}
	return &ret
}

// Includes reports whether the C fragment includes at least one header.
func (u *Unit) Includes() bool {
	for _, line := range u.Preserved {
		directive := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if strings.HasPrefix(directive, "include") {
			return true
		}
	}
	return false
}

// Root returns the root of the shallow parse.
func (u *Unit) Root() *sitter.Node {
	return u.Tree.RootNode()
}

// Lookup returns the first callable declaration named name.
func (u *Unit) Lookup(name string) (*Declaration, bool) {
	for _, decl := range u.Declarations {
		if decl.Name == name && decl.Callable() {
			return decl, true
		}
	}
	return nil, false
}

// Exported returns the annotated callable declarations.
func (u *Unit) Exported() []*Declaration {
	var result []*Declaration
	for _, decl := range u.Declarations {
		if decl.Callable() && decl.Annotation.Exported() {
			result = append(result, decl)
		}
	}
	return result
}

// Register declares every top-level name in the manager's global scope. A
// repeated name is reported and the first declaration stays.
func (u *Unit) Register(manager *symtab.Manager) diag.List {
	var diags diag.List
	global := manager.Global()
	declare := func(entry symtab.Entry, redeclarable bool) {
		if prev, ok := global.Entry(entry.Name); ok {
			if redeclarable && prev.Kind == symtab.Variable {
				return
			}
			diags.Errorf(diag.Declaration, u.Language, u.Language.Qualify(entry.Name), entry.Line,
				"redeclaration of %q, first declared at line %d", entry.Name, prev.Line)
			return
		}
		entry.Scope = global.ID
		if _, err := manager.DeclareEntry(entry); err != nil {
			diags.Errorf(diag.Declaration, u.Language, u.Language.Qualify(entry.Name), entry.Line, "%v", err)
		}
	}
	for _, decl := range u.Declarations {
		declare(symtab.Entry{
			Name:       decl.Name,
			Kind:       decl.Kind,
			Tier:       decl.Tier,
			Annotation: decl.Annotation,
			Line:       decl.Line,
			Static:     decl.Static,
			Malformed:  decl.Malformed,
		}, decl.Var)
	}
	for _, cond := range u.Conditions {
		declare(symtab.Entry{Name: cond.Name, Kind: symtab.Condition, Line: cond.Line}, false)
	}
	for _, data := range u.SharedData {
		declare(symtab.Entry{Name: data.Name, Kind: symtab.SharedData, Line: data.Line}, false)
	}
	return diags
}

// UndefinedConditions reports annotation conditions missing from defined.
func (u *Unit) UndefinedConditions(defined map[string]*Condition) diag.List {
	var diags diag.List
	for _, decl := range u.Declarations {
		for _, name := range decl.Conditions {
			if _, ok := defined[name]; ok {
				continue
			}
			diags.Errorf(diag.Declaration, u.Language, decl.QualifiedName(), decl.Line,
				"%q is neither a tier nor a condition defined by a jcond block", name)
		}
	}
	return diags
}

// C preprocesses a C fragment.
func C(ctx context.Context, src []byte) (*Unit, error) {
	return preprocess(ctx, jam.C, src)
}

// JS preprocesses a JavaScript fragment.
func JS(ctx context.Context, src []byte) (*Unit, error) {
	return preprocess(ctx, jam.JS, src)
}

func preprocess(ctx context.Context, lang jam.Language, src []byte) (*Unit, error) {
	scanner := newScanner(lang, src)
	scanner.scan()

	parser := sitter.NewParser()
	if lang == jam.C {
		parser.SetLanguage(c.GetLanguage())
	} else {
		parser.SetLanguage(javascript.GetLanguage())
	}
	tree, err := parser.ParseCtx(ctx, nil, scanner.stripped)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", lang.Title(), ErrNoDeclarations, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("%s: %w: empty parse", lang.Title(), ErrNoDeclarations)
	}
	hash, err := jam.Hash(src)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash source: %w", lang.Title(), err)
	}
	unit := &Unit{
		Language:    lang,
		Source:      src,
		Stripped:    scanner.stripped,
		Annotated:   scanner.annotated,
		Preserved:   scanner.preserved,
		Conditions:  scanner.conditions,
		SharedData:  scanner.shared,
		Tree:        tree,
		Diagnostics: scanner.diags,
		Hash:        hash,
	}
	collector := &collector{unit: unit, src: scanner.stripped}
	if lang == jam.C {
		collector.cDeclarations(tree.RootNode())
	} else {
		collector.jsDeclarations(tree.RootNode())
	}
	collector.attach(scanner.annotations)
	unit.Declarations = collector.declarations
	unit.Diagnostics.Merge(collector.diags)
	return unit, nil
}
