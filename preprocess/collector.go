package preprocess

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

// collector enumerates the root children of a shallow parse.
type collector struct {
	unit         *Unit
	src          []byte
	declarations []*Declaration
	diags        diag.List
}

func (c *collector) lang() jam.Language {
	return c.unit.Language
}

func (c *collector) add(decl *Declaration) {
	decl.Language = c.lang()
	c.declarations = append(c.declarations, decl)
}

func (c *collector) malformed(node *sitter.Node) {
	c.diags.Errorf(diag.Declaration, c.lang(), "", line(node), "malformed top-level declaration: %s", excerpt(node.Content(c.src)))
}

// attach applies each annotation to the function declared right after it;
// annotations whose function could not be parsed yield malformed declarations.
func (c *collector) attach(annotations []*annotation) {
	for _, a := range annotations {
		if a.orphan {
			continue
		}
		decl := c.following(a)
		if decl == nil {
			decl = &Declaration{
				Name:     a.name,
				Kind:     symtab.Function,
				Span:     Span{Start: a.start, End: a.nameSpan.End},
				NameSpan: a.nameSpan,
				Line:     a.line,
			}
			if a.kind != jam.Sync {
				decl.Result = jam.Void
			}
			a.malformed = true
			c.add(decl)
			c.diags.Errorf(diag.Declaration, c.lang(), decl.QualifiedName(), a.line, "unable to parse %s function %s", a.kind, a.name)
		}
		c.apply(a, decl)
	}
}

func (c *collector) following(a *annotation) *Declaration {
	for _, decl := range c.declarations {
		if decl.Span.Start < a.start || !decl.Callable() {
			continue
		}
		if decl.Name == a.name && decl.NameSpan == a.nameSpan {
			return decl
		}
		return nil
	}
	return nil
}

func (c *collector) apply(a *annotation, decl *Declaration) {
	decl.Annotation = a.kind
	decl.Tier = a.tier
	decl.Conditions = a.conditions
	if a.kind == jam.Task {
		decl.Kind = symtab.Task
	}
	if a.malformed {
		decl.Malformed = true
		decl.Tier = jam.Invalid
	}
	if c.lang() == jam.JS {
		for i := range decl.Params {
			param := &decl.Params[i]
			if kind, ok := a.types[param.Name]; ok {
				param.Kind = kind
				param.Raw = a.raw[param.Name]
			}
		}
		switch {
		case a.hasResult:
			decl.Result = a.result
		case a.kind == jam.Sync:
			decl.Result = jam.Unknown
		default:
			decl.Result = jam.Void
		}
	}
	qname := decl.QualifiedName()
	if a.kind != jam.Sync && decl.Result != jam.Void {
		c.diags.Errorf(diag.Declaration, c.lang(), qname, decl.Line, "%s function %s must return void, found %s", a.kind, decl.Name, decl.Result)
	}
	if a.kind == jam.Task && len(decl.Params) > 0 {
		c.diags.Errorf(diag.Declaration, c.lang(), qname, decl.Line, "jtask %s must not take parameters", decl.Name)
	}
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func span(node *sitter.Node) Span {
	return Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func excerpt(text string) string {
	for i, ch := range text {
		if ch == '\n' {
			text = text[:i]
			break
		}
	}
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	return text
}
