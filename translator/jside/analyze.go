package jside

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
	"github.com/viant/jamc/translator"
)

var functionValues = map[string]bool{
	"function":            true,
	"function_expression": true,
	"arrow_function":      true,
	"generator_function":  true,
}

// Analyze walks the program body and every function of the JS fragment.
// Statements outside functions are attributed to the program body node.
func (t *Translator) Analyze(ctx context.Context, in *translator.Input) (*translator.Analysis, error) {
	w := &walker{
		rec:     translator.NewRecorder(in),
		manager: in.Manager,
		src:     in.Unit.Stripped,
		decls:   map[int]*preprocess.Declaration{},
		vars:    map[*symtab.Entry]bool{},
		caller:  translator.TopLevel,
	}
	for _, decl := range in.Unit.Declarations {
		if decl.Callable() {
			w.decls[decl.Span.Start] = decl
		}
	}
	root := in.Unit.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.topLevel(root.NamedChild(i)); err != nil {
			return nil, err
		}
	}
	if !in.Manager.Balanced() {
		return nil, fmt.Errorf("JS: %w", translator.ErrUnbalancedScopes)
	}
	return w.rec.Analysis(), nil
}

type walker struct {
	rec     *translator.Recorder
	manager *symtab.Manager
	src     []byte
	decls   map[int]*preprocess.Declaration
	vars    map[*symtab.Entry]bool
	caller  string
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// as runs fn with qname as the current caller.
func (w *walker) as(qname string, fn func() error) error {
	prev := w.caller
	w.caller = qname
	defer func() { w.caller = prev }()
	return fn()
}

func (w *walker) topLevel(node *sitter.Node) error {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if decl, ok := w.decls[int(node.StartByte())]; ok {
			return w.as(decl.QualifiedName(), func() error { return w.function(node) })
		}
		return w.function(node)
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarator := node.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			nameNode := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if nameNode != nil && nameNode.Type() != "identifier" {
				// destructured globals are not enumerated up front
				w.names(nameNode, func(name string, at *sitter.Node) {
					_, _ = w.manager.DeclareEntry(symtab.Entry{Name: name, Kind: symtab.Variable, Line: line(at)})
				})
			}
			if value == nil {
				continue
			}
			if decl, ok := w.decls[int(declarator.StartByte())]; ok && functionValues[value.Type()] {
				if err := w.as(decl.QualifiedName(), func() error { return w.walk(value) }); err != nil {
					return err
				}
				continue
			}
			if err := w.walk(value); err != nil {
				return err
			}
		}
		return nil
	case "class_declaration":
		return w.class(node)
	}
	return w.walk(node)
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
	case "statement_block":
		w.manager.EnterScope(symtab.BlockScope, "")
		if err := w.block(node); err != nil {
			return err
		}
		return w.manager.ExitScope()
	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		w.manager.EnterScope(symtab.LoopScope, node.Type())
		if node.Type() == "for_in_statement" && node.ChildByFieldName("kind") != nil {
			w.declareNames(node.ChildByFieldName("left"), node.ChildByFieldName("kind").Content(w.src) == "var")
		}
		if err := w.children(node); err != nil {
			return err
		}
		return w.manager.ExitScope()
	case "function_declaration", "generator_function_declaration":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			if _, ok := w.manager.LookupLocal(nameNode.Content(w.src)); !ok {
				w.declare(nameNode.Content(w.src), symtab.Function, line(node), false)
			}
		}
		return w.function(node)
	case "function", "function_expression", "arrow_function", "generator_function", "method_definition":
		return w.function(node)
	case "class_declaration":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			w.declare(nameNode.Content(w.src), symtab.Variable, line(node), false)
		}
		return w.class(node)
	case "class":
		return w.class(node)
	case "lexical_declaration", "variable_declaration":
		return w.declaration(node)
	case "call_expression":
		return w.call(node, node.ChildByFieldName("function"), node.ChildByFieldName("arguments"))
	case "new_expression":
		return w.call(node, node.ChildByFieldName("constructor"), node.ChildByFieldName("arguments"))
	case "assignment_expression", "augmented_assignment_expression":
		return w.assignment(node)
	case "update_expression":
		if err := w.write(node.ChildByFieldName("argument")); err != nil {
			return err
		}
		return w.children(node)
	case "identifier", "shorthand_property_identifier":
		w.manager.Reference(node.Content(w.src))
		return nil
	case "ERROR":
		w.rec.Warnf(diag.Declaration, w.caller, line(node), "unparsed code")
		return nil
	}
	return w.children(node)
}

// block walks statements after hoisting the function declarations they contain.
func (w *walker) block(node *sitter.Node) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "function_declaration" && child.Type() != "generator_function_declaration" {
			continue
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			w.declare(nameNode.Content(w.src), symtab.Function, line(child), false)
		}
	}
	return w.children(node)
}

func (w *walker) function(node *sitter.Node) error {
	name := ""
	nameNode := node.ChildByFieldName("name")
	if nameNode != nil {
		name = nameNode.Content(w.src)
	}
	w.manager.EnterScope(symtab.FunctionScope, name)
	if nameNode != nil && node.Type() != "function_declaration" && node.Type() != "generator_function_declaration" && node.Type() != "method_definition" {
		w.declare(name, symtab.Function, line(node), false)
	}
	declareParam := func(param string, at *sitter.Node) {
		if _, err := w.manager.DeclareEntry(symtab.Entry{Name: param, Kind: symtab.Variable, Param: true, Line: line(at)}); err != nil {
			w.rec.Errorf(diag.Declaration, w.caller, line(at), "duplicate parameter %q", param)
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			param := params.NamedChild(i)
			w.names(param, declareParam)
			if param.Type() == "assignment_pattern" {
				if err := w.walk(param.ChildByFieldName("right")); err != nil {
					return err
				}
			}
		}
	}
	if param := node.ChildByFieldName("parameter"); param != nil {
		w.names(param, declareParam)
	}
	body := node.ChildByFieldName("body")
	var err error
	switch {
	case body == nil:
	case body.Type() == "statement_block":
		err = w.block(body)
	default:
		err = w.walk(body)
	}
	if err != nil {
		return err
	}
	return w.manager.ExitScope()
}

func (w *walker) class(node *sitter.Node) error {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(w.src)
	}
	if heritage := findChild(node, "class_heritage"); heritage != nil {
		if err := w.children(heritage); err != nil {
			return err
		}
	}
	w.manager.EnterScope(symtab.ClassScope, name)
	if body := node.ChildByFieldName("body"); body != nil {
		if err := w.children(body); err != nil {
			return err
		}
	}
	return w.manager.ExitScope()
}

func findChild(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == kind {
			return child
		}
	}
	return nil
}

// names reports every binding identifier of a declaration target or pattern.
func (w *walker) names(node *sitter.Node, fn func(name string, at *sitter.Node)) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		fn(node.Content(w.src), node)
	case "assignment_pattern", "object_assignment_pattern":
		w.names(node.ChildByFieldName("left"), fn)
	case "pair_pattern":
		w.names(node.ChildByFieldName("value"), fn)
	case "rest_pattern", "object_pattern", "array_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			w.names(node.NamedChild(i), fn)
		}
	}
}

// declare adds a local binding. var bindings may repeat, let and const may not.
func (w *walker) declare(name string, kind symtab.Kind, at int, isVar bool) {
	entry, err := w.manager.DeclareEntry(symtab.Entry{Name: name, Kind: kind, Line: at})
	if err == nil {
		if isVar {
			w.vars[entry] = true
		}
		return
	}
	if !errors.Is(err, symtab.ErrRedeclared) || (isVar && w.vars[entry]) {
		return
	}
	w.rec.Errorf(diag.Declaration, w.caller, at, "redeclaration of %q, first declared at line %d", name, entry.Line)
}

func (w *walker) declareNames(node *sitter.Node, isVar bool) {
	w.names(node, func(name string, at *sitter.Node) {
		w.declare(name, symtab.Variable, line(at), isVar)
	})
}

func (w *walker) declaration(node *sitter.Node) error {
	isVar := node.Type() == "variable_declaration"
	for i := 0; i < int(node.NamedChildCount()); i++ {
		declarator := node.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		w.declareNames(declarator.ChildByFieldName("name"), isVar)
		if err := w.walk(declarator.ChildByFieldName("value")); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) call(node, fn, args *sitter.Node) error {
	if fn == nil {
		return w.children(node)
	}
	site := callgraph.CallSite{
		Span:       preprocess.Span{Start: int(fn.StartByte()), End: int(fn.EndByte())},
		Line:       line(node),
		Args:       argumentCount(args),
		UsesResult: usesResult(node),
	}
	var err error
	switch fn.Type() {
	case "identifier":
		err = w.resolveCall(fn.Content(w.src), site)
	case "member_expression":
		err = w.receiverCall(fn)
		if err == nil {
			err = w.walk(fn.ChildByFieldName("object"))
		}
	default:
		err = w.rec.Seed(w.caller)
		if err == nil {
			err = w.walk(fn)
		}
	}
	if err != nil {
		return err
	}
	return w.walk(args)
}

func (w *walker) resolveCall(name string, site callgraph.CallSite) error {
	entry, scope, declared := w.manager.Reference(name)
	if declared && !scope.Global() {
		// closures are walked as part of the caller; only callbacks are opaque
		if entry.Param {
			return w.rec.Seed(w.caller)
		}
		return nil
	}
	if declared && !entry.Kind.Callable() {
		return w.rec.Seed(w.caller)
	}
	if callee, ok := w.rec.Resolve(name); ok {
		return w.rec.Call(w.caller, callee, site)
	}
	if declared {
		return w.rec.Seed(w.caller)
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
	return w.rec.Unresolved(w.caller, name, site.Line)
}

// receiverCall classifies a method call by the root object it is invoked on.
func (w *walker) receiverCall(member *sitter.Node) error {
	root := receiver(member)
	if root == nil || root.Type() != "identifier" {
		return w.rec.Seed(w.caller)
	}
	name := root.Content(w.src)
	entry, scope, declared := w.manager.Reference(name)
	switch {
	case declared && !scope.Global():
		if entry.Param {
			return w.rec.Seed(w.caller)
		}
		return nil
	case declared:
		return w.rec.Seed(w.caller)
	}
	if known, opaque := w.rec.External(name); known && !opaque {
		return nil
	}
	return w.rec.Seed(w.caller)
}

// receiver descends member and subscript chains to their root object.
func receiver(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Type() {
		case "member_expression", "subscript_expression":
			node = node.ChildByFieldName("object")
		case "parenthesized_expression":
			node = node.NamedChild(0)
		default:
			return node
		}
	}
	return nil
}

func (w *walker) assignment(node *sitter.Node) error {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left != nil && left.Type() == "identifier" {
		name := left.Content(w.src)
		if entry, scope, ok := w.manager.Lookup(name); ok && scope.Global() && entry.Kind == symtab.SharedData {
			w.rec.Errorf(diag.Resolution, w.caller, line(node), "shared datum %s cannot be reassigned", name)
		}
	}
	if err := w.write(left); err != nil {
		return err
	}
	if left != nil && left.Type() != "identifier" {
		if err := w.walk(left); err != nil {
			return err
		}
	}
	return w.walk(right)
}

// write seeds the caller when lvalue may reach state outside the caller:
// globals, this, and objects received as parameters.
func (w *walker) write(lvalue *sitter.Node) error {
	if lvalue == nil {
		return nil
	}
	element := lvalue.Type() == "member_expression" || lvalue.Type() == "subscript_expression"
	root := receiver(lvalue)
	if root == nil || root.Type() != "identifier" {
		return w.rec.Seed(w.caller)
	}
	entry, scope, ok := w.manager.Reference(root.Content(w.src))
	switch {
	case !ok, scope.Global():
		return w.rec.Seed(w.caller)
	case entry.Param && element:
		return w.rec.Seed(w.caller)
	}
	return nil
}

func argumentCount(args *sitter.Node) int {
	if args == nil || args.Type() != "arguments" {
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

// usesResult reports whether the value of call is consumed.
func usesResult(call *sitter.Node) bool {
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
	case "unary_expression":
		if operator := parent.ChildByFieldName("operator"); operator != nil && operator.Type() == "void" {
			return false
		}
	}
	return true
}
