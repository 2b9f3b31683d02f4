package callgraph

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported rendering format.
var ErrUnknownFormat = errors.New("unknown call graph format")

// Format is a rendering target.
type Format string

const (
	DOT     Format = "dot"     // Graphviz, machine-consumable
	YAML    Format = "yaml"    // structured, machine-consumable
	Mermaid Format = "mermaid" // markdown flowchart, human-readable
	HTML    Format = "html"    // standalone page, human-readable
)

// Formats lists the supported formats.
var Formats = []Format{DOT, YAML, Mermaid, HTML}

// ParseFormat converts a format name.
func ParseFormat(name string) (Format, error) {
	for _, format := range Formats {
		if string(format) == strings.ToLower(name) {
			return format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Render writes the graph in format. Unreachable nodes are drawn dashed.
func (g *Graph) Render(w io.Writer, format Format) error {
	switch format {
	case DOT:
		return g.renderDOT(w)
	case YAML:
		return g.renderYAML(w)
	case Mermaid:
		_, err := io.WriteString(w, g.mermaid())
		return err
	case HTML:
		return g.renderHTML(w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func label(node *Node) string {
	return fmt.Sprintf("%s\\n%s | %s", node.Name, node.Tier, node.Language.Title())
}

func (g *Graph) renderDOT(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph callgraph {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box];\n")
	for _, node := range g.Nodes() {
		style := "solid"
		if g.pruned && !node.Reachable {
			style = "dashed"
		}
		sb.WriteString(fmt.Sprintf("    %q [label=\"%s\", style=%s];\n", node.Name, label(node), style))
	}
	for _, edge := range g.Edges() {
		sb.WriteString(fmt.Sprintf("    %q -> %q [label=%q];\n", edge.Caller, edge.Callee, edge.Discipline.String()))
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

type yamlGraph struct {
	EntryPoints []string     `yaml:"entryPoints,omitempty"`
	Nodes       []*Node      `yaml:"nodes"`
	Edges       []*Edge      `yaml:"edges"`
	Unresolved  []Unresolved `yaml:"unresolved,omitempty"`
}

func (g *Graph) renderYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	doc := yamlGraph{EntryPoints: g.entryPoints, Nodes: g.Nodes(), Edges: g.Edges(), Unresolved: g.unresolved}
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode call graph: %w", err)
	}
	return encoder.Close()
}

func (g *Graph) mermaid() string {
	ids := map[string]string{}
	var sb strings.Builder
	sb.WriteString("flowchart LR\n")
	for i, node := range g.Nodes() {
		id := fmt.Sprintf("n%d", i)
		ids[node.Name] = id
		sb.WriteString(fmt.Sprintf("    %s[\"%s<br/>%s | %s\"]", id, node.Name, node.Tier, node.Language.Title()))
		if g.pruned && !node.Reachable {
			sb.WriteString(":::unreachable")
		}
		sb.WriteString("\n")
	}
	for _, edge := range g.Edges() {
		to, ok := ids[edge.Callee]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", ids[edge.Caller], edge.Discipline, to))
	}
	sb.WriteString("    classDef unreachable stroke-dasharray: 5 5\n")
	return sb.String()
}

var pageTemplate = template.Must(template.New("callgraph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Call graph</title>
<script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
<style>
body { font-family: sans-serif; }
td, th { padding: 2px 8px; text-align: left; }
.unreachable { color: #999; }
</style>
</head>
<body>
<h1>Call graph</h1>
<pre class="mermaid">
{{.Diagram}}
</pre>
<table>
<tr><th>Function</th><th>Language</th><th>Tier</th><th>Annotation</th><th>Reachable</th></tr>
{{range .Nodes}}<tr{{if not .Reachable}} class="unreachable"{{end}}><td>{{.Name}}</td><td>{{.Language}}</td><td>{{.Tier}}</td><td>{{.Annotation}}</td><td>{{.Reachable}}</td></tr>
{{end}}</table>
<script>mermaid.initialize({startOnLoad: true});</script>
</body>
</html>
`))

func (g *Graph) renderHTML(w io.Writer) error {
	return pageTemplate.Execute(w, struct {
		Diagram string
		Nodes   []*Node
	}{Diagram: g.mermaid(), Nodes: g.Nodes()})
}
