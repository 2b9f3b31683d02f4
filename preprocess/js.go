package preprocess

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

var jsFunctionValues = map[string]bool{
	"function":            true,
	"function_expression": true,
	"arrow_function":      true,
	"generator_function":  true,
}

func (c *collector) jsDeclarations(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "function_declaration", "generator_function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			c.add(&Declaration{
				Name:     nameNode.Content(c.src),
				Kind:     symtab.Function,
				Span:     span(node),
				NameSpan: span(nameNode),
				Line:     line(node),
				Params:   c.jsParams(node.ChildByFieldName("parameters")),
				Result:   jam.Unknown,
			})
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(node.NamedChildCount()); j++ {
				declarator := node.NamedChild(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				nameNode := declarator.ChildByFieldName("name")
				if nameNode == nil || nameNode.Type() != "identifier" {
					continue
				}
				decl := &Declaration{
					Name:     nameNode.Content(c.src),
					Kind:     symtab.Variable,
					Span:     span(node),
					NameSpan: span(nameNode),
					Line:     line(node),
					Var:      node.Type() == "variable_declaration",
					Result:   jam.Unknown,
				}
				if value := declarator.ChildByFieldName("value"); value != nil && jsFunctionValues[value.Type()] {
					decl.Kind = symtab.Function
					decl.Span = span(declarator)
					decl.Params = c.jsParams(value.ChildByFieldName("parameters"))
					if single := value.ChildByFieldName("parameter"); single != nil {
						decl.Params = []jam.Param{{Name: single.Content(c.src), Kind: jam.Unknown}}
					}
				}
				c.add(decl)
			}
		case "class_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				c.add(&Declaration{
					Name:     nameNode.Content(c.src),
					Kind:     symtab.Variable,
					Span:     span(node),
					NameSpan: span(nameNode),
					Line:     line(node),
				})
			}
		case "ERROR":
			c.malformed(node)
		}
	}
}

func (c *collector) jsParams(list *sitter.Node) []jam.Param {
	if list == nil {
		return nil
	}
	var result []jam.Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		node := list.NamedChild(i)
		name := ""
		switch node.Type() {
		case "identifier":
			name = node.Content(c.src)
		case "assignment_pattern":
			if left := node.ChildByFieldName("left"); left != nil {
				name = left.Content(c.src)
			}
		case "rest_pattern":
			name = node.Content(c.src)
		case "comment":
			continue
		default:
			name = node.Content(c.src)
		}
		result = append(result, jam.Param{Name: name, Kind: jam.Unknown})
	}
	return result
}
