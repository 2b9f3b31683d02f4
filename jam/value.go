package jam

import "strings"

// ValueKind is the boundary type of a parameter or result; it drives argument
// marshalling on both sides of a remote call.
type ValueKind int

const (
	Unknown ValueKind = iota
	Void
	Int
	Double
	String
	Bool
)

// ParseValueKind converts a JS boundary type annotation.
func ParseValueKind(name string) (ValueKind, bool) {
	switch strings.TrimSpace(name) {
	case "int":
		return Int, true
	case "double", "number", "float":
		return Double, true
	case "string":
		return String, true
	case "bool", "boolean":
		return Bool, true
	case "void":
		return Void, true
	}
	return Unknown, false
}

func (k ValueKind) String() string {
	switch k {
	case Void:
		return "void"
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return "unknown"
}

// Code is the single-character marshalling code shared by both runtimes.
func (k ValueKind) Code() byte {
	switch k {
	case Void:
		return 'v'
	case Int:
		return 'i'
	case Double:
		return 'd'
	case String:
		return 's'
	case Bool:
		return 'b'
	}
	return '?'
}

// CType is the C spelling used in generated stubs.
func (k ValueKind) CType() string {
	switch k {
	case Void:
		return "void"
	case Int, Bool:
		return "int"
	case Double:
		return "double"
	case String:
		return "char *"
	}
	return "void *"
}

// FlowType is the Flow spelling used in the annotated JS.
func (k ValueKind) FlowType() string {
	switch k {
	case Void:
		return "void"
	case Int, Double:
		return "number"
	case String:
		return "string"
	case Bool:
		return "boolean"
	}
	return "any"
}

// Marshallable reports whether a value of this kind can be passed as an argument.
func (k ValueKind) Marshallable() bool {
	return k == Int || k == Double || k == String || k == Bool
}

// MarshalYAML writes the kind by name.
func (k ValueKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// Param is one formal parameter of a function.
type Param struct {
	Name string    `yaml:"name"`
	Kind ValueKind `yaml:"kind"`
	Raw  string    `yaml:"raw,omitempty"` // source spelling of the type
}

// Shape returns the marshalling code string of params, e.g. "isd".
func Shape(params []Param) string {
	builder := strings.Builder{}
	for _, param := range params {
		builder.WriteByte(param.Kind.Code())
	}
	return builder.String()
}
