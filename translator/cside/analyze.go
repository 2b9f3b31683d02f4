package cside

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
	"github.com/viant/jamc/translator"
)

// Analyze walks every C function body.
func (t *Translator) Analyze(ctx context.Context, in *translator.Input) (*translator.Analysis, error) {
	w := &walker{
		rec:     translator.NewRecorder(in),
		manager: in.Manager,
		src:     in.Unit.Stripped,
		decls:   map[int]*preprocess.Declaration{},
		headers: t.headerExternals && in.Unit.Includes(),
		assumed: map[string]bool{},
	}
	for _, decl := range in.Unit.Declarations {
		if decl.Callable() {
			if _, ok := w.decls[decl.Span.Start]; !ok {
				w.decls[decl.Span.Start] = decl
			}
		}
	}
	root := in.Unit.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := root.NamedChild(i)
		if node.Type() != "function_definition" {
			continue
		}
		if err := w.function(node); err != nil {
			return nil, err
		}
	}
	if !in.Manager.Balanced() {
		return nil, fmt.Errorf("C: %w", translator.ErrUnbalancedScopes)
	}
	return w.rec.Analysis(), nil
}

type walker struct {
	rec     *translator.Recorder
	manager *symtab.Manager
	src     []byte
	decls   map[int]*preprocess.Declaration
	caller  string
	headers bool            // undeclared names may come from an included header
	assumed map[string]bool // caller and name already warned about
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func (w *walker) function(node *sitter.Node) error {
	decl, ok := w.decls[int(node.StartByte())]
	if !ok {
		return nil
	}
	w.caller = decl.QualifiedName()
	w.manager.EnterScope(symtab.FunctionScope, decl.Name)
	for _, param := range decl.Params {
		if param.Name == "" || param.Name == "..." {
			continue
		}
		if _, err := w.manager.DeclareEntry(symtab.Entry{Name: param.Name, Kind: symtab.Variable, Param: true, Line: decl.Line}); err != nil {
			w.rec.Errorf(diag.Declaration, w.caller, decl.Line, "%v", err)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		if err := w.children(body); err != nil {
			return err
		}
	}
	return w.manager.ExitScope()
}

func (w *walker) children(node *sitter.Node) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if err := w.walk(node.NamedChild(i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walk(node *sitter.Node) error {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "compound_statement":
		w.manager.EnterScope(symtab.BlockScope, "")
		if err := w.children(node); err != nil {
			return err
		}
		return w.manager.ExitScope()
	case "for_statement", "while_statement", "do_statement":
		w.manager.EnterScope(symtab.LoopScope, node.Type())
		if body := node.ChildByFieldName("body"); body != nil && body.Type() == "compound_statement" {
			w.rec.Loop(w.caller, int(body.StartByte())+1)
		}
		if err := w.children(node); err != nil {
			return err
		}
		return w.manager.ExitScope()
	case "declaration":
		return w.declaration(node)
	case "call_expression":
		return w.call(node)
	case "assignment_expression":
		return w.assignment(node)
	case "update_expression":
		if err := w.write(node, node.ChildByFieldName("argument")); err != nil {
			return err
		}
		return w.children(node)
	case "ERROR":
		w.rec.Warnf(diag.Declaration, w.caller, line(node), "unparsed code in function body")
		return nil
	}
	return w.children(node)
}

func (w *walker) declaration(node *sitter.Node) error {
	static := preprocess.HasStorageClass(node, w.src, "static")
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "init_declarator", "pointer_declarator", "array_declarator":
		default:
			continue
		}
		name, nameNode, _ := preprocess.DeclaratorName(child, w.src)
		if nameNode == nil {
			continue
		}
		if _, err := w.manager.DeclareEntry(symtab.Entry{Name: name, Kind: symtab.Variable, Static: static, Line: line(child)}); err != nil {
			if !errors.Is(err, symtab.ErrRedeclared) {
				return err
			}
			w.rec.Errorf(diag.Declaration, w.caller, line(child), "redeclaration of %q in the same scope", name)
		}
		if child.Type() == "init_declarator" {
			if err := w.walk(child.ChildByFieldName("value")); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) call(node *sitter.Node) error {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	site := callgraph.CallSite{
		Span:       preprocess.Span{Start: int(fn.StartByte()), End: int(fn.EndByte())},
		Line:       line(node),
		Args:       argumentCount(args),
		UsesResult: usesResult(node, w.src),
	}
	if fn.Type() != "identifier" {
		if err := w.rec.Seed(w.caller); err != nil {
			return err
		}
		if err := w.walk(fn); err != nil {
			return err
		}
		return w.walk(args)
	}
	if err := w.resolveCall(fn.Content(w.src), site); err != nil {
		return err
	}
	return w.walk(args)
}

func (w *walker) resolveCall(name string, site callgraph.CallSite) error {
	entry, scope, declared := w.manager.Lookup(name)
	switch {
	case declared && !scope.Global():
		return w.rec.Seed(w.caller)
	case declared && !entry.Kind.Callable():
		return w.rec.Seed(w.caller)
	}
	if callee, ok := w.rec.Resolve(name); ok {
		return w.rec.Call(w.caller, callee, site)
	}
	if known, opaque := w.rec.External(name); known {
		if opaque {
			return w.rec.Seed(w.caller)
		}
		return nil
	}
	if callee, ok := w.rec.ResolveForeign(name); ok {
		return w.rec.Call(w.caller, callee, site)
	}
	if declared {
		// prototype without a body: an external library function
		return w.rec.Seed(w.caller)
	}
	if w.headers {
		if key := w.caller + " " + name; !w.assumed[key] {
			w.assumed[key] = true
			w.rec.Warnf(diag.Resolution, w.caller, site.Line, "%s is not declared in the fragment, assuming an opaque function from an included header", name)
		}
		return w.rec.Seed(w.caller)
	}
	return w.rec.Unresolved(w.caller, name, site.Line)
}

func (w *walker) assignment(node *sitter.Node) error {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left != nil && right != nil && left.Type() == "identifier" {
		name := left.Content(w.src)
		if _, _, declared := w.manager.Lookup(name); !declared {
			if _, ok := w.rec.SharedDatum(name); ok {
				operator := strings.TrimSpace(string(w.src[left.EndByte():right.StartByte()]))
				if operator == "=" {
					w.rec.DataWrite(translator.DataWrite{
						Caller:     w.caller,
						Name:       name,
						Start:      int(node.StartByte()),
						ValueStart: int(right.StartByte()),
						End:        int(node.EndByte()),
						Line:       line(node),
					})
				} else {
					w.rec.Errorf(diag.Resolution, w.caller, line(node), "shared datum %s only supports plain assignment, found %q", name, operator)
				}
				if err := w.rec.Seed(w.caller); err != nil {
					return err
				}
				return w.walk(right)
			}
		}
	}
	if err := w.write(node, left); err != nil {
		return err
	}
	if err := w.walk(left); err != nil {
		return err
	}
	return w.walk(right)
}

// write seeds the caller when lvalue may reach state outside the function:
// globals, static locals, shared data, and anything written through a pointer
// or an array parameter.
func (w *walker) write(node, lvalue *sitter.Node) error {
	indirect := false
	element := false
	for lvalue != nil && lvalue.Type() != "identifier" {
		switch lvalue.Type() {
		case "parenthesized_expression":
			lvalue = lvalue.NamedChild(0)
		case "field_expression":
			argument := lvalue.ChildByFieldName("argument")
			field := lvalue.ChildByFieldName("field")
			if argument != nil && field != nil && strings.Contains(string(w.src[argument.EndByte():field.StartByte()]), "->") {
				indirect = true
			}
			element = true
			lvalue = argument
		case "subscript_expression":
			element = true
			lvalue = lvalue.ChildByFieldName("argument")
		case "pointer_expression":
			indirect = true
			lvalue = lvalue.ChildByFieldName("argument")
		default:
			lvalue = nil
		}
	}
	if lvalue == nil || indirect {
		return w.rec.Seed(w.caller)
	}
	name := lvalue.Content(w.src)
	entry, scope, ok := w.manager.Lookup(name)
	if !ok {
		if _, shared := w.rec.SharedDatum(name); !shared {
			if err := w.rec.Unresolved(w.caller, name, line(node)); err != nil {
				return err
			}
		}
		return w.rec.Seed(w.caller)
	}
	if scope.Global() || entry.Static || (entry.Param && element) {
		return w.rec.Seed(w.caller)
	}
	return nil
}

func argumentCount(args *sitter.Node) int {
	if args == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if args.NamedChild(i).Type() != "comment" {
			count++
		}
	}
	return count
}

// usesResult reports whether the value of call is consumed: a call used as a
// statement or cast to void discards it.
func usesResult(call *sitter.Node, src []byte) bool {
	parent := call.Parent()
	for parent != nil && parent.Type() == "parenthesized_expression" {
		parent = parent.Parent()
	}
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "expression_statement":
		return false
	case "cast_expression":
		if typeNode := parent.ChildByFieldName("type"); typeNode != nil && strings.TrimSpace(typeNode.Content(src)) == "void" {
			return false
		}
	}
	return true
}
