// Package diag collects analysis diagnostics so that a single run reports every
// fixable issue at once.
package diag

import (
	"fmt"
	"strings"

	"github.com/viant/jamc/jam"
)

// Severity ranks a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Category is the error taxonomy.
type Category string

const (
	Declaration Category = "declaration"
	Resolution  Category = "resolution"
	Legality    Category = "legality"
	Structural  Category = "structural"
	Dead        Category = "dead-code"
	Limit       Category = "limit"
)

// Diagnostic is a single finding with enough context to locate its source.
type Diagnostic struct {
	Severity Severity     `yaml:"severity"`
	Category Category     `yaml:"category"`
	Language jam.Language `yaml:"language,omitempty"`
	Name     string       `yaml:"name,omitempty"`   // declaration or caller (qualified)
	Callee   string       `yaml:"callee,omitempty"` // qualified callee for call diagnostics
	Tier     string       `yaml:"tier,omitempty"`   // tier detail, e.g. "fog -> device"
	Line     int          `yaml:"line,omitempty"`
	Message  string       `yaml:"message"`
}

func (d Diagnostic) String() string {
	builder := strings.Builder{}
	builder.WriteString(d.Severity.String())
	builder.WriteString(" [")
	builder.WriteString(string(d.Category))
	builder.WriteString("]")
	if d.Name != "" {
		builder.WriteString(" ")
		builder.WriteString(d.Name)
	}
	if d.Callee != "" {
		builder.WriteString(" -> ")
		builder.WriteString(d.Callee)
	}
	if d.Tier != "" {
		builder.WriteString(" (")
		builder.WriteString(d.Tier)
		builder.WriteString(")")
	}
	if d.Line > 0 {
		builder.WriteString(fmt.Sprintf(" line %d", d.Line))
	}
	builder.WriteString(": ")
	builder.WriteString(d.Message)
	return builder.String()
}

// List accumulates diagnostics in the order they were found.
type List []Diagnostic

// Add appends d.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Errorf records an error of the given category.
func (l *List) Errorf(category Category, lang jam.Language, name string, line int, format string, args ...interface{}) {
	l.Add(Diagnostic{Severity: Error, Category: category, Language: lang, Name: name, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning of the given category.
func (l *List) Warnf(category Category, lang jam.Language, name string, line int, format string, args ...interface{}) {
	l.Add(Diagnostic{Severity: Warning, Category: category, Language: lang, Name: name, Line: line, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns the error-severity diagnostics.
func (l List) Errors() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == Error })
}

// Warnings returns the warning-severity diagnostics.
func (l List) Warnings() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == Warning })
}

// ByCategory returns the diagnostics of category c.
func (l List) ByCategory(c Category) List {
	return l.filter(func(d Diagnostic) bool { return d.Category == c })
}

func (l List) filter(fn func(d Diagnostic) bool) List {
	var result List
	for _, d := range l {
		if fn(d) {
			result = append(result, d)
		}
	}
	return result
}

// Err returns the list as an error when it holds at least one error.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return &Failure{Diagnostics: l}
}

// Failure is the error returned when compilation fails; it carries every
// diagnostic collected up to the failure.
type Failure struct {
	Diagnostics List
}

func (f *Failure) Error() string {
	errs := f.Diagnostics.Errors()
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	for _, d := range errs {
		builder.WriteString("\n  ")
		builder.WriteString(d.String())
	}
	return builder.String()
}
