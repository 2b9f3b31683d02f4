package jam

// Discipline describes how a call crosses tiers or languages.
type Discipline int

const (
	Local Discipline = iota
	SyncRemote
	AsyncRemote
)

func (d Discipline) String() string {
	switch d {
	case SyncRemote:
		return "synchronous-remote"
	case AsyncRemote:
		return "asynchronous-remote"
	}
	return "local"
}

// Short is the compact form used in generated identifiers.
func (d Discipline) Short() string {
	switch d {
	case SyncRemote:
		return "sync"
	case AsyncRemote:
		return "async"
	}
	return "local"
}

// Remote reports whether the call needs runtime glue.
func (d Discipline) Remote() bool {
	return d != Local
}

// MarshalYAML writes the discipline by name.
func (d Discipline) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
