package preprocess

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

var cDeclaratorTypes = map[string]bool{
	"identifier":               true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
}

func (c *collector) cDeclarations(root *sitter.Node) {
	var prototypes []*Declaration
	defined := map[string]bool{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "function_definition":
			if decl := c.cFunction(node, node.ChildByFieldName("declarator")); decl != nil {
				decl.Static = HasStorageClass(node, c.src, "static")
				defined[decl.Name] = true
				c.add(decl)
			}
		case "declaration":
			static := HasStorageClass(node, c.src, "static")
			declarators := 0
			for j := 0; j < int(node.NamedChildCount()); j++ {
				if cDeclaratorTypes[node.NamedChild(j).Type()] {
					declarators++
				}
			}
			for j := 0; j < int(node.NamedChildCount()); j++ {
				child := node.NamedChild(j)
				if !cDeclaratorTypes[child.Type()] {
					continue
				}
				if fn, _ := functionDeclarator(child); fn != nil {
					if decl := c.cFunction(node, child); decl != nil {
						decl.Prototype = true
						decl.Removable = declarators == 1
						prototypes = append(prototypes, decl)
					}
					continue
				}
				name, nameNode, _ := DeclaratorName(child, c.src)
				if nameNode == nil {
					continue
				}
				c.add(&Declaration{
					Name:     name,
					Kind:     symtab.Variable,
					Span:     span(node),
					NameSpan: span(nameNode),
					Line:     line(node),
					Static:   static,
				})
			}
		case "ERROR":
			c.malformed(node)
		}
	}
	for _, proto := range prototypes {
		if defined[proto.Name] {
			c.unit.Prototypes = append(c.unit.Prototypes, proto)
			continue
		}
		c.add(proto)
	}
}

// cFunction describes a function whose declarator is declarator; node is the
// enclosing definition or declaration.
func (c *collector) cFunction(node, declarator *sitter.Node) *Declaration {
	if declarator == nil {
		return nil
	}
	fn, pointers := functionDeclarator(declarator)
	if fn == nil {
		return nil
	}
	nameNode := fn.ChildByFieldName("declarator")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return nil
	}
	ret := &Declaration{
		Name:     nameNode.Content(c.src),
		Kind:     symtab.Function,
		Span:     span(node),
		NameSpan: span(nameNode),
		Line:     line(node),
		Params:   c.cParams(fn.ChildByFieldName("parameters")),
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		ret.Result = CKind(typeNode.Content(c.src), pointers)
	}
	return ret
}

func (c *collector) cParams(list *sitter.Node) []jam.Param {
	if list == nil {
		return nil
	}
	var result []jam.Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		node := list.NamedChild(i)
		switch node.Type() {
		case "parameter_declaration":
			typeText := ""
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				typeText = typeNode.Content(c.src)
			}
			declarator := node.ChildByFieldName("declarator")
			if declarator == nil && typeText == "void" {
				continue
			}
			name, _, pointers := DeclaratorName(declarator, c.src)
			result = append(result, jam.Param{
				Name: name,
				Kind: CKind(typeText, pointers),
				Raw:  strings.TrimSpace(typeText + " " + strings.Repeat("*", pointers)),
			})
		case "variadic_parameter":
			result = append(result, jam.Param{Name: "...", Kind: jam.Unknown, Raw: "..."})
		}
	}
	return result
}

// functionDeclarator descends the declarator chain to the function declarator,
// counting the pointer levels of the return type on the way.
func functionDeclarator(node *sitter.Node) (*sitter.Node, int) {
	pointers := 0
	for node != nil {
		switch node.Type() {
		case "function_declarator":
			return node, pointers
		case "pointer_declarator":
			pointers++
			node = node.ChildByFieldName("declarator")
		case "init_declarator":
			node = node.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if node.NamedChildCount() == 0 {
				return nil, 0
			}
			node = node.NamedChild(0)
		default:
			return nil, 0
		}
	}
	return nil, 0
}

// DeclaratorName returns the identifier a declarator introduces and how many
// pointer or array levels wrap it.
func DeclaratorName(node *sitter.Node, src []byte) (string, *sitter.Node, int) {
	pointers := 0
	for node != nil {
		switch node.Type() {
		case "identifier", "field_identifier":
			return node.Content(src), node, pointers
		case "pointer_declarator", "abstract_pointer_declarator", "array_declarator", "abstract_array_declarator":
			pointers++
			node = node.ChildByFieldName("declarator")
		case "init_declarator", "function_declarator":
			node = node.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if node.NamedChildCount() == 0 {
				return "", nil, pointers
			}
			node = node.NamedChild(0)
		default:
			return "", nil, pointers
		}
	}
	return "", nil, pointers
}

// HasStorageClass reports whether node carries the storage class specifier.
func HasStorageClass(node *sitter.Node, src []byte, class string) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "storage_class_specifier" && child.Content(src) == class {
			return true
		}
	}
	return false
}

var cQualifiers = map[string]bool{"const": true, "volatile": true, "static": true, "extern": true, "register": true, "inline": true, "restrict": true}

// CKind maps a C type spelling with the given pointer depth to its boundary kind.
func CKind(typeText string, pointers int) jam.ValueKind {
	base := ""
	for _, word := range strings.Fields(typeText) {
		if !cQualifiers[word] {
			base = word
		}
	}
	if pointers == 1 && base == "char" {
		return jam.String
	}
	if pointers > 0 {
		return jam.Unknown
	}
	switch base {
	case "void":
		return jam.Void
	case "float", "double":
		return jam.Double
	case "bool", "_Bool":
		return jam.Bool
	case "int", "long", "short", "char", "unsigned", "signed", "size_t", "ssize_t":
		return jam.Int
	}
	if strings.HasSuffix(base, "_t") && (strings.HasPrefix(base, "int") || strings.HasPrefix(base, "uint")) {
		return jam.Int
	}
	return jam.Unknown
}
