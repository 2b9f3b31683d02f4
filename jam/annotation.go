package jam

// Annotation is the cross-boundary keyword attached to a top-level function.
type Annotation int

const (
	None Annotation = iota
	Sync
	Async
	Task
)

// Keywords maps source keywords to annotations.
var Keywords = map[string]Annotation{
	"jsync":  Sync,
	"jasync": Async,
	"jtask":  Task,
}

func (a Annotation) String() string {
	switch a {
	case Sync:
		return "sync"
	case Async:
		return "async"
	case Task:
		return "task"
	}
	return "none"
}

// Exported reports whether the declaration is visible across the boundary.
func (a Annotation) Exported() bool {
	return a != None
}

// Remote returns the discipline used when a call to the declaration crosses a
// language or tier boundary.
func (a Annotation) Remote() Discipline {
	switch a {
	case Sync:
		return SyncRemote
	case Async, Task:
		return AsyncRemote
	}
	return Local
}

// MarshalYAML writes the annotation by name.
func (a Annotation) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}
