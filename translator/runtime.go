package translator

import (
	"strings"

	"github.com/viant/jamc/jam"
)

// Names of the generated glue. Both translators derive them from here so that
// a stub emitted on one side always matches the entry emitted on the other.
const (
	stubPrefix  = "jam_"
	entryPrefix = "jam_entry_"
	// UserMain is the name the C main function is renamed to.
	UserMain = "user_main"
)

// StubName returns the caller-side stub of a remote call, e.g. jam_sync_name.
func StubName(discipline jam.Discipline, name string) string {
	return stubPrefix + discipline.Short() + "_" + name
}

// EntryName returns the callee-side wrapper registered with the runtime.
func EntryName(name string) string {
	return entryPrefix + name
}

// ConditionExpr joins condition names into the runtime condition string.
func ConditionExpr(conditions []string) string {
	return strings.Join(conditions, "&&")
}
