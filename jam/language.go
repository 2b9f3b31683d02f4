package jam

import "strings"

// Language identifies the source fragment a declaration belongs to.
type Language string

const (
	C  Language = "c"
	JS Language = "js"
)

// Languages lists the supported fragments in pipeline order.
var Languages = []Language{JS, C}

// Qualify returns the program-wide name of a declaration, e.g. "c:main".
func (l Language) Qualify(name string) string {
	return string(l) + ":" + name
}

// Other returns the opposite fragment.
func (l Language) Other() Language {
	if l == C {
		return JS
	}
	return C
}

// Title returns a human label used in diagnostics.
func (l Language) Title() string {
	switch l {
	case C:
		return "C"
	case JS:
		return "JavaScript"
	}
	return string(l)
}

// SplitQualified splits "lang:name" into its parts.
func SplitQualified(qname string) (Language, string, bool) {
	idx := strings.Index(qname, ":")
	if idx == -1 {
		return "", qname, false
	}
	lang := Language(qname[:idx])
	if lang != C && lang != JS {
		return "", qname, false
	}
	return lang, qname[idx+1:], true
}

// TopLevel is the synthetic name of the JS program body.
const TopLevel = "$toplevel"
