package translator

import "github.com/viant/jamc/jam"

// Externals classifies names that are not declared by either fragment: pure
// ones are free of side effects, opaque ones (I/O, allocation, timers) are
// side-effecting. For JS an entry may also name a namespace object such as
// Math or console.
type Externals struct {
	Pure   map[string]bool
	Opaque map[string]bool
}

// NewExternals builds a classification from name lists.
func NewExternals(pure, opaque []string) *Externals {
	ret := &Externals{Pure: map[string]bool{}, Opaque: map[string]bool{}}
	for _, name := range pure {
		ret.Pure[name] = true
	}
	for _, name := range opaque {
		ret.Opaque[name] = true
	}
	return ret
}

// Classify reports whether name is a known external and whether it is opaque.
func (e *Externals) Classify(name string) (known bool, opaque bool) {
	if e == nil {
		return false, false
	}
	if e.Opaque[name] {
		return true, true
	}
	return e.Pure[name], false
}

// DefaultPure lists the side-effect free library names of a language.
func DefaultPure(lang jam.Language) []string {
	if lang == jam.C {
		return []string{
			"strlen", "strcmp", "strncmp", "strchr", "strrchr", "strstr",
			"abs", "labs", "atoi", "atol", "atof", "strtol", "strtoul", "strtod",
			"sqrt", "pow", "sin", "cos", "tan", "exp", "log", "log10", "floor", "ceil", "fabs", "fmin", "fmax",
			"isdigit", "isalpha", "isalnum", "isspace", "isupper", "islower", "toupper", "tolower",
		}
	}
	return []string{
		"parseInt", "parseFloat", "isNaN", "isFinite", "Number", "String", "Boolean",
		"Math", "JSON", "encodeURIComponent", "decodeURIComponent",
	}
}

// DefaultOpaque lists the library names whose effects cannot be seen.
func DefaultOpaque(lang jam.Language) []string {
	if lang == jam.C {
		return []string{
			"printf", "fprintf", "sprintf", "snprintf", "puts", "putchar", "getchar", "scanf", "fscanf", "sscanf",
			"fgets", "fputs", "fopen", "fclose", "fread", "fwrite", "fflush", "perror",
			"malloc", "calloc", "realloc", "free", "memcpy", "memmove", "memset", "strcpy", "strncpy", "strcat", "strncat", "strdup",
			"exit", "abort", "assert", "system", "sleep", "usleep", "nanosleep", "time", "clock", "gettimeofday",
			"rand", "srand", "read", "write", "open", "close",
		}
	}
	return []string{
		"console", "process", "require", "setTimeout", "setInterval", "clearTimeout", "clearInterval",
		"fetch", "alert", "jworklib", "jsys", "jman", "Date", "Promise",
	}
}
