package cside

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
	"github.com/viant/jamc/translator"
)

type pass struct {
	input    *translator.Input
	analysis *translator.Analysis
}

func analyze(t *testing.T, cSource, jsSource string) *pass {
	ctx := context.Background()
	cUnit, err := preprocess.C(ctx, []byte(cSource))
	require.NoError(t, err)
	jsUnit, err := preprocess.JS(ctx, []byte(jsSource))
	require.NoError(t, err)
	manager := symtab.New(jam.C)
	require.Empty(t, cUnit.Register(manager).Errors())
	graph := callgraph.New()
	require.NoError(t, translator.Declare(graph, jsUnit, cUnit))
	in := &translator.Input{
		Unit:      cUnit,
		Other:     jsUnit,
		Manager:   manager,
		Graph:     graph,
		Policy:    callgraph.NewPolicy(nil, map[jam.Language]jam.Tier{jam.C: jam.Device}),
		Externals: translator.NewExternals(translator.DefaultPure(jam.C), translator.DefaultOpaque(jam.C)),
	}
	analysis, err := New().Analyze(ctx, in)
	require.NoError(t, err)
	return &pass{input: in, analysis: analysis}
}

func (p *pass) emit(t *testing.T, translate *Translator) *translator.Output {
	graph := p.input.Graph
	_, err := graph.Prune(translator.EntryPoints([]*preprocess.Unit{p.input.Other, p.input.Unit}))
	require.NoError(t, err)
	checked, diags, err := graph.Check(p.input.Policy)
	require.NoError(t, err)
	require.Empty(t, diags.Errors())
	effects, _ := callgraph.PropagateSideEffects(checked, p.input.Manager.Seeds())
	p.input.Manager.Finalize(p.input.Manager.Functions(), effects)
	glue := translator.BuildGlue(checked, p.input.Other.Conditions, effects)
	output, err := translate.Emit(context.Background(), p.analysis, checked, glue)
	require.NoError(t, err)
	return output
}

func TestTranslator_SideEffectSeeds(t *testing.T) {
	p := analyze(t, `int counter;
int pure(int x) { int y = x + 1; return y; }
void bump(int x) { counter = x; }
void say(int x) { printf("%d\n", x); }
void fill(int *buf) { *buf = 1; }
void local(int n) { int a[4]; a[0] = n; }
void array(int a[]) { a[0] = 1; }
void keep(void) { static int calls; calls++; }
int main() { pure(1); bump(2); say(3); local(4); keep(); return 0; }
`, "")
	manager := p.input.Manager
	testCases := []struct {
		name     string
		expected bool
	}{
		{name: "c:pure", expected: false},
		{name: "c:bump", expected: true},
		{name: "c:say", expected: true},
		{name: "c:fill", expected: true},
		{name: "c:local", expected: false},
		{name: "c:array", expected: true},
		{name: "c:keep", expected: true},
		{name: "c:main", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, manager.Seeded(testCase.name))
		})
	}
	assert.True(t, manager.Balanced())
	assert.Equal(t, 1, manager.MaxDepth())

	edge, ok := p.input.Graph.Edge("c:main", "c:pure")
	require.True(t, ok)
	assert.Equal(t, jam.Local, edge.Discipline)
	require.Len(t, edge.Sites, 1)
	assert.Equal(t, 1, edge.Sites[0].Args)
	assert.False(t, edge.Sites[0].UsesResult)
}

func TestTranslator_Diagnostics(t *testing.T) {
	p := analyze(t, `void f(void) { int x; int x; mystery(1); }
int main() { f(); return 0; }
`, "")
	errors := p.analysis.Diagnostics.ByCategory(diag.Declaration)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Message, "redeclaration")
	unresolved := p.input.Graph.Unresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "mystery", unresolved[0].Name)
	assert.Equal(t, "c:f", unresolved[0].Caller)
}

func TestTranslator_Emit(t *testing.T) {
	p := analyze(t, `jasync report(int x) {
    printf("%d\n", x);
}

int unused(void) {
    return 1;
}

int main() {
    int r = ping(2);
    while (r > 0) {
        r--;
    }
    report(r);
    return 0;
}
`, `jsync function ping(n: int): int { return n * 2; }
`)
	require.Len(t, p.analysis.Calls, 1)
	assert.Equal(t, jam.SyncRemote, p.analysis.Calls[0].Discipline)
	edge, ok := p.input.Graph.Edge("c:main", "js:ping")
	require.True(t, ok)
	assert.True(t, edge.Sites[0].UsesResult)

	source := string(p.input.Unit.Stripped)
	output := p.emit(t, New(WithYields(true), WithLineDirectives("app.c")))
	code := output.Code

	assert.True(t, strings.HasPrefix(code, "cnode_t *cn;\nint jam_sync_ping(int a0);\n"))
	assert.Contains(t, code, "int r = jam_sync_ping(2);")
	assert.Contains(t, code, "int user_main()")
	assert.Contains(t, code, "while (r > 0) { task_yield();")
	assert.Contains(t, code, "#line 9 \"app.c\"\n")
	assert.NotContains(t, code, "unused")
	assert.Contains(t, code, `arg_t *rv = remote_sync_call(cn->tboard, "ping", "", "", "i", a0);`)
	assert.Contains(t, code, "int ret = rv->val.ival;")
	assert.Contains(t, code, "void jam_entry_report(context_t ctx) {\n    arg_t *t = (arg_t *)task_get_args();\n    (void)ctx;\n    report(t[0].val.ival);\n}\n")
	assert.Contains(t, code, `tboard_register_func(cn->tboard, TBOARD_FUNC("report", jam_entry_report, "i", "v", PRI_BATCH_TASK));`)
	assert.Contains(t, code, "    user_main();\n    cnode_stop(cn);\n")
	assert.Equal(t, "declare function report(x: number): void;\n", output.FlowDecls)
	assert.True(t, output.SideEffects["c:report"])
	assert.True(t, output.SideEffects["c:main"])
	assert.False(t, output.SideEffects["c:unused"])

	// dead function bodies keep their line count
	body := code[strings.Index(code, "\n\n")+2:]
	body = body[:strings.Index(body, "\nint jam_sync_ping(int a0) {")]
	assert.Equal(t, strings.Count(source, "\n")+strings.Count(body, "#line"), strings.Count(body, "\n"))
}

func TestTranslator_SharedData(t *testing.T) {
	p := analyze(t, `void tick(int v) { temp = v; }
void bad(int v) { temp += v; }
int main() { tick(1); return 0; }
`, "jdata { int temp as logger; }\n")
	assert.True(t, p.analysis.HasSharedData)
	assert.True(t, p.input.Manager.Seeded("c:tick"))
	require.Len(t, p.analysis.DataWrites, 1)
	resolution := p.analysis.Diagnostics.ByCategory(diag.Resolution)
	require.Len(t, resolution, 1)
	assert.Equal(t, "c:bad", resolution[0].Name)

	output := p.emit(t, New())
	assert.Contains(t, output.Code, `void tick(int v) { jam_data_write(cn, "temp", v); }`)
	assert.True(t, output.HasSharedData)
}

func TestTranslator_DeadPrototypes(t *testing.T) {
	p := analyze(t, `int helper(int x);
int kept(int x), other(int y);
int live(void);

int helper(int x) {
    return x + 1;
}

int kept(int x) { return x; }
int other(int y) { return y; }

int live(void) {
    return 2;
}

int main() {
    return live();
}
`, "")
	prototypes := p.input.Unit.Prototypes
	require.Len(t, prototypes, 4)
	var removable []string
	for _, proto := range prototypes {
		if proto.Removable {
			removable = append(removable, proto.Name)
		}
	}
	assert.Equal(t, []string{"helper", "live"}, removable)

	source := string(p.input.Unit.Stripped)
	code := p.emit(t, New()).Code
	assert.NotContains(t, code, "helper")
	assert.Contains(t, code, "int live(void);\n")
	assert.Contains(t, code, "int kept(int x), other(int y);\n")
	body := code[strings.Index(code, "\n\n")+2:]
	body = body[:strings.Index(body, "\nint main(int argc, char *argv[]) {")]
	assert.Equal(t, strings.Count(source, "\n"), strings.Count(body, "\n"))
}
