package preprocess

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/symtab"
)

const cSource = `#include <stdio.h>
int counter;
static int hidden = 3;
int helper(int a);
jasync {fog, fogonly} report(int x) {
    counter = x;
}
jsync {cloud} char *name(double d, char *s) {
    return s;
}
int helper(int a) { return a + 1; }
int main(int argc, char **argv) {
    report(helper(2));
    return 0;
}
`

const jsSource = `jcond { fogonly: sys.type == "fog"; }
jdata { int temp as logger; char *msg as broadcaster; }
var count = 0;
var count;
jsync {cloud} function lookup(k: int, s: string): int {
    return k;
}
jasync {fog, fogonly} function ping(msg: string) {
    count++;
}
function helper(x) { return x; }
const arrow = (a, b) => a + b;
helper(lookup(1, "a"));
`

func names(unit *Unit) []string {
	var result []string
	for _, decl := range unit.Declarations {
		result = append(result, decl.Name)
	}
	return result
}

func TestC(t *testing.T) {
	unit, err := C(context.Background(), []byte(cSource))
	require.NoError(t, err)
	assert.Empty(t, unit.Diagnostics)
	assert.Equal(t, []string{"counter", "hidden", "report", "name", "helper", "main"}, names(unit))
	assert.Equal(t, []string{"#include <stdio.h>"}, unit.Preserved)
	assert.Len(t, unit.Stripped, len(unit.Source))
	assert.Equal(t, strings.Count(cSource, "\n"), strings.Count(string(unit.Stripped), "\n"))
	assert.NotContains(t, string(unit.Stripped), "jasync")
	assert.NotContains(t, string(unit.Stripped), "#include")

	report, ok := unit.Lookup("report")
	require.True(t, ok)
	assert.Equal(t, jam.Async, report.Annotation)
	assert.Equal(t, jam.Fog, report.Tier)
	assert.Equal(t, []string{"fogonly"}, report.Conditions)
	assert.Equal(t, jam.Void, report.Result)
	assert.Equal(t, "i", report.Shape())
	assert.Equal(t, 5, report.Line)
	assert.Equal(t, "report", string(unit.Stripped[report.NameSpan.Start:report.NameSpan.End]))

	name, ok := unit.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, jam.Sync, name.Annotation)
	assert.Equal(t, jam.Cloud, name.Tier)
	assert.Equal(t, jam.String, name.Result)
	assert.Equal(t, "ds", name.Shape())

	main, ok := unit.Lookup("main")
	require.True(t, ok)
	assert.Equal(t, jam.None, main.Annotation)
	assert.Equal(t, "i?", main.Shape())

	hidden := unit.Declarations[1]
	assert.True(t, hidden.Static)
	assert.Equal(t, symtab.Variable, hidden.Kind)
}

func TestJS(t *testing.T) {
	unit, err := JS(context.Background(), []byte(jsSource))
	require.NoError(t, err)
	assert.Empty(t, unit.Diagnostics)
	assert.Equal(t, []string{"count", "count", "lookup", "ping", "helper", "arrow"}, names(unit))

	require.Len(t, unit.Conditions, 1)
	assert.Equal(t, "fogonly", unit.Conditions[0].Name)
	assert.Equal(t, `sys.type == "fog"`, unit.Conditions[0].Expr)

	require.Len(t, unit.SharedData, 2)
	assert.Equal(t, SharedData{Name: "temp", Type: "int", Mode: Logger, Line: 2}, *unit.SharedData[0])
	assert.Equal(t, SharedData{Name: "msg", Type: "char *", Mode: Broadcaster, Line: 2}, *unit.SharedData[1])

	stripped := string(unit.Stripped)
	assert.Len(t, unit.Stripped, len(unit.Source))
	assert.NotContains(t, stripped, ": int")
	assert.NotContains(t, stripped, "jcond")
	assert.NotContains(t, stripped, "jdata")
	assert.Contains(t, string(unit.Annotated), "lookup(k: int, s: string): int")
	assert.NotContains(t, string(unit.Annotated), "jsync")

	lookup, ok := unit.Lookup("lookup")
	require.True(t, ok)
	assert.Equal(t, jam.Cloud, lookup.Tier)
	assert.Equal(t, jam.Int, lookup.Result)
	assert.Equal(t, "is", lookup.Shape())
	assert.Equal(t, "int", lookup.Params[0].Raw)

	ping, ok := unit.Lookup("ping")
	require.True(t, ok)
	assert.Equal(t, jam.Void, ping.Result)
	assert.Equal(t, "s", ping.Shape())

	arrow, ok := unit.Lookup("arrow")
	require.True(t, ok)
	assert.Equal(t, symtab.Function, arrow.Kind)
	assert.Len(t, arrow.Params, 2)

	manager := symtab.New(jam.JS)
	assert.Empty(t, unit.Register(manager))
	entry, _, ok := manager.Lookup("fogonly")
	require.True(t, ok)
	assert.Equal(t, symtab.Condition, entry.Kind)
	entry, _, ok = manager.Lookup("temp")
	require.True(t, ok)
	assert.Equal(t, symtab.SharedData, entry.Kind)
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name      string
		lang      jam.Language
		source    string
		decl      string
		malformed bool
		message   string
	}{
		{
			name:      "two tiers",
			lang:      jam.C,
			source:    "jasync {fog, cloud} void f() {}\n",
			decl:      "f",
			malformed: true,
			message:   "more than one tier",
		},
		{
			name:    "async result",
			lang:    jam.C,
			source:  "jasync {fog} int f() { return 1; }\n",
			decl:    "f",
			message: "must return void",
		},
		{
			name:    "task parameters",
			lang:    jam.JS,
			source:  "jtask {device} function sample(n: int) {}\n",
			decl:    "sample",
			message: "must not take parameters",
		},
		{
			name:    "boundary type",
			lang:    jam.JS,
			source:  "jsync function f(a: Array<int>): int { return 1; }\n",
			decl:    "f",
			message: "unsupported boundary type",
		},
		{
			name:    "orphan",
			lang:    jam.C,
			source:  "jasync int x;\nint main() { return 0; }\n",
			decl:    "main",
			message: "not followed by a function definition",
		},
		{
			name:    "jdata mode",
			lang:    jam.JS,
			source:  "jdata { int x as bucket; }\nfunction f() {}\n",
			decl:    "f",
			message: "unknown jdata mode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var unit *Unit
			var err error
			if tt.lang == jam.C {
				unit, err = C(context.Background(), []byte(tt.source))
			} else {
				unit, err = JS(context.Background(), []byte(tt.source))
			}
			require.NoError(t, err)
			require.True(t, unit.Diagnostics.HasErrors())
			assert.Contains(t, unit.Diagnostics[0].Message, tt.message)
			assert.Equal(t, diag.Declaration, unit.Diagnostics[0].Category)

			decl, ok := unit.Lookup(tt.decl)
			require.True(t, ok)
			assert.Equal(t, tt.malformed, decl.Malformed)
			if tt.malformed {
				assert.Equal(t, jam.Invalid, decl.Tier)
			}
		})
	}
}

func TestUnit_Register(t *testing.T) {
	source := "int f() { return 1; }\nint g() { return f(); }\nint f() { return 2; }\n"
	unit, err := C(context.Background(), []byte(source))
	require.NoError(t, err)

	manager := symtab.New(jam.C)
	diags := unit.Register(manager)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `redeclaration of "f", first declared at line 1`)
	assert.Equal(t, 3, diags[0].Line)

	entry, _, ok := manager.Lookup("f")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Line)
	_, _, ok = manager.Lookup("g")
	assert.True(t, ok)
}

func TestUnit_UndefinedConditions(t *testing.T) {
	unit, err := C(context.Background(), []byte(cSource))
	require.NoError(t, err)
	assert.Len(t, unit.UndefinedConditions(nil), 1)
	assert.Empty(t, unit.UndefinedConditions(map[string]*Condition{"fogonly": {Name: "fogonly"}}))
}

func TestCKind(t *testing.T) {
	tests := []struct {
		typeText string
		pointers int
		want     jam.ValueKind
	}{
		{typeText: "int", want: jam.Int},
		{typeText: "unsigned long", want: jam.Int},
		{typeText: "uint8_t", want: jam.Int},
		{typeText: "double", want: jam.Double},
		{typeText: "const char", pointers: 1, want: jam.String},
		{typeText: "char", pointers: 2, want: jam.Unknown},
		{typeText: "void", want: jam.Void},
		{typeText: "struct point", want: jam.Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CKind(tt.typeText, tt.pointers), tt.typeText)
	}
}
