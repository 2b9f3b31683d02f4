package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/jamc/config"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"
)

func fixture(t *testing.T, name string) map[string][]byte {
	archive, err := txtar.ParseFile(filepath.Join("testdata", name+".txtar"))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range archive.Files {
		files[f.Name] = f.Data
	}
	return files
}

func newCompiler(t *testing.T, cfg *config.Config, options ...Option) *Compiler {
	options = append([]Option{WithLogger(logger.Discard())}, options...)
	ret, err := New(cfg, options...)
	require.NoError(t, err)
	return ret
}

func compileFixture(t *testing.T, name string) (*Result, error) {
	files := fixture(t, name)
	return newCompiler(t, nil).Compile(context.Background(), files["app.c"], files["app.js"])
}

func failure(t *testing.T, err error) *diag.Failure {
	var ret *diag.Failure
	require.True(t, errors.As(err, &ret), "expected *diag.Failure, got %v", err)
	return ret
}

func TestCompiler_Compile(t *testing.T) {
	testCases := []struct {
		description string
		fixture     string
		check       func(t *testing.T, result *Result)
	}{
		{
			description: "async call into pure C",
			fixture:     "async_pure",
			check: func(t *testing.T, result *Result) {
				assert.Equal(t, jam.AsyncRemote, result.Checked.Discipline("js:f", "c:g"))
				assert.False(t, result.CSideEffects["c:g"])
				assert.False(t, result.JSSideEffects["js:f"])
				assert.Contains(t, result.JS, "jam_async_g(n);")
				assert.Contains(t, result.JS, `jworklib.remoteAsyncExec("g", [a0], "i", "cloud", "");`)
				assert.Contains(t, result.C, "void jam_entry_g(context_t ctx) {")
				assert.Contains(t, result.C, `TBOARD_FUNC("g", jam_entry_g, "i", "v", PRI_BATCH_TASK)`)
				assert.NotContains(t, result.C, "user_main")
				assert.Contains(t, result.Start, `jworklib.registerFunc("f", f, "i", "v", "fog", "", "async", false);`)
				assert.Contains(t, result.AnnotatedJS, "function f(n: int)")
				assert.Contains(t, result.AnnotatedJS, "declare function g(x: number): void;")
				assert.Equal(t, "\njsys = jworklib.getjsys();\n", result.Preamble)
				assert.False(t, result.HasSharedData)
				require.Len(t, result.Manifest.Registrations, 2)
				assert.Equal(t, "f", result.Manifest.Registrations[0].Function)
				assert.Equal(t, "g", result.Manifest.Registrations[1].Function)
			},
		},
		{
			description: "sync call into mutating JS",
			fixture:     "sync_mutation",
			check: func(t *testing.T, result *Result) {
				assert.Equal(t, jam.SyncRemote, result.Checked.Discipline("c:main", "js:h"))
				assert.True(t, result.JSSideEffects["js:h"])
				assert.True(t, result.CSideEffects["c:main"])
				assert.True(t, strings.HasPrefix(result.C, "#include <unistd.h>\n"))
				assert.Contains(t, result.C, "#include <stdio.h>\ncnode_t *cn;\nint jam_sync_h(void);\n")
				assert.Contains(t, result.C, "int n = jam_sync_h();")
				assert.Contains(t, result.C, "int user_main() {")
				assert.Contains(t, result.C, `remote_sync_call(cn->tboard, "h", "device", "", "");`)
				assert.Contains(t, result.Start, `jworklib.registerFunc("h", h, "", "i", "device", "", "sync", true);`)
			},
		},
		{
			description: "dead function",
			fixture:     "dead",
			check: func(t *testing.T, result *Result) {
				dead := result.Warnings.ByCategory(diag.Dead)
				require.Len(t, dead, 1)
				assert.Equal(t, "c:helper", dead[0].Name)
				assert.NotContains(t, result.C, "helper")
				assert.False(t, result.Checked.Reachable("c:helper"))
				assert.False(t, result.CSideEffects["c:helper"])
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			result, err := compileFixture(t, testCase.fixture)
			require.NoError(t, err)
			testCase.check(t, result)
		})
	}
}

func withEntryPoints(names ...string) *config.Config {
	ret := config.Default()
	ret.EntryPoints = names
	return ret
}

func TestCompiler_Failures(t *testing.T) {
	testCases := []struct {
		description string
		fixture     string
		cSource     string
		jsSource    string
		cfg         *config.Config
		category    diag.Category
		count       int
		message     string
	}{
		{description: "redeclaration", fixture: "redeclare", category: diag.Declaration, count: 2, message: "redeclaration"},
		{description: "illegal calls", fixture: "illegal", category: diag.Legality, count: 2, message: "fog -> "},
		{
			description: "unresolved call",
			cSource:     "int main() { return nothere(); }\n",
			category:    diag.Resolution,
			count:       1,
			message:     "nothere",
		},
		{
			description: "exported by both fragments",
			cSource:     "jsync int ping(int x) { return x; }\nint main() { return ping(1); }\n",
			jsSource:    "jsync function ping(x: int): int { return x; }\n",
			category:    diag.Declaration,
			count:       1,
			message:     "exported by both fragments",
		},
		{
			description: "cross-language call to unannotated function",
			cSource:     "int main() { return local(1); }\n",
			jsSource:    "function local(x) { return x; }\n",
			category:    diag.Legality,
			count:       1,
			message:     "not annotated",
		},
		{
			description: "undefined condition",
			cSource:     "jasync {fog, sunny} report() { }\nint main() { report(); return 0; }\n",
			category:    diag.Declaration,
			count:       1,
			message:     "sunny",
		},
		{
			description: "missing configured entry point",
			cSource:     "int main() { return 0; }\n",
			cfg:         withEntryPoints("js:missing"),
			category:    diag.Declaration,
			count:       1,
			message:     "js:missing",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			cSource, jsSource := []byte(testCase.cSource), []byte(testCase.jsSource)
			if testCase.fixture != "" {
				files := fixture(t, testCase.fixture)
				cSource, jsSource = files["app.c"], files["app.js"]
			}
			result, err := newCompiler(t, testCase.cfg).Compile(context.Background(), cSource, jsSource)
			require.Error(t, err)
			assert.Nil(t, result)
			diagnostics := failure(t, err).Diagnostics.ByCategory(testCase.category).Errors()
			require.Len(t, diagnostics, testCase.count)
			for _, d := range diagnostics {
				assert.Contains(t, d.String(), testCase.message)
			}
		})
	}
}

func TestCompiler_Isolation(t *testing.T) {
	files := fixture(t, "isolated")
	compiler := newCompiler(t, nil)
	ctx := context.Background()
	compile := func(c, js string) *Result {
		result, err := compiler.Compile(ctx, files[c], files[js])
		require.NoError(t, err)
		return result
	}
	withA := compile("app.c", "a.js")
	withB := compile("app.c", "b.js")
	assert.Equal(t, withA.C, withB.C)
	assert.Equal(t, withA.CSideEffects, withB.CSideEffects)
	assert.NotEqual(t, withA.JS, withB.JS)

	other := compile("other.c", "a.js")
	assert.Equal(t, withA.JS, other.JS)
	assert.Equal(t, withA.Start, other.Start)
	assert.Equal(t, withA.JSSideEffects, other.JSSideEffects)
	assert.True(t, other.CSideEffects["c:main"])
	assert.False(t, withA.CSideEffects["c:main"])
}

func TestCompiler_HeaderExternals(t *testing.T) {
	files := fixture(t, "headers")
	result, err := newCompiler(t, nil).Compile(context.Background(), files["app.c"], files["app.js"])
	require.NoError(t, err)
	assumed := result.Warnings.ByCategory(diag.Resolution)
	require.Len(t, assumed, 2)
	assert.Equal(t, "c:main", assumed[0].Name)
	assert.Contains(t, assumed[0].Message, "memcmp")
	assert.Contains(t, assumed[1].Message, "qsort")
	assert.True(t, result.CSideEffects["c:main"])
	assert.Contains(t, result.C, "qsort(a, 0, 1, 0);")

	cfg := config.Default()
	cfg.HeaderExternals = false
	_, err = newCompiler(t, cfg).Compile(context.Background(), files["app.c"], files["app.js"])
	require.Error(t, err)
	unresolved := failure(t, err).Diagnostics.ByCategory(diag.Resolution).Errors()
	require.Len(t, unresolved, 2)
	assert.Contains(t, unresolved[0].Message, "memcmp")

	_, err = newCompiler(t, nil).Compile(context.Background(), []byte("int main() { return memcmp(0, 0, 0); }\n"), nil)
	require.Error(t, err)
	assert.Len(t, failure(t, err).Diagnostics.ByCategory(diag.Resolution).Errors(), 1)
}

func TestCompiler_Concurrent(t *testing.T) {
	body := strings.Repeat("    { int x = 1; x++; }\n", 3000)
	cSource := []byte("int counter;\nint main() {\n" + body + "    counter++;\n    return 0;\n}\n")
	jsSource := fixture(t, "async_pure")["app.js"]
	compiler := newCompiler(t, nil)
	ctx := context.Background()
	_, err := compiler.PreprocessOnly(ctx, cSource, jsSource)
	require.NoError(t, err)

	results := make([]*Result, 8)
	group, ctx := errgroup.WithContext(ctx)
	for i := range results {
		i := i
		group.Go(func() error {
			result, err := compiler.Compile(ctx, cSource, jsSource)
			results[i] = result
			return err
		})
	}
	require.NoError(t, group.Wait())
	for _, result := range results[1:] {
		assert.Equal(t, results[0].C, result.C)
		assert.Equal(t, results[0].JS, result.JS)
		assert.Equal(t, results[0].Manifest, result.Manifest)
	}
	assert.True(t, results[0].CSideEffects["c:main"])
	assert.Equal(t, 2, compiler.cache.Len())
}

func TestCompiler_Deterministic(t *testing.T) {
	files := fixture(t, "async_pure")
	compiler := newCompiler(t, nil)
	first, err := compiler.Compile(context.Background(), files["app.c"], files["app.js"])
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.cache.Len())
	second, err := compiler.Compile(context.Background(), files["app.c"], files["app.js"])
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.cache.Len())
	assert.Equal(t, first.C, second.C)
	assert.Equal(t, first.JS, second.JS)
	assert.Equal(t, first.Manifest, second.Manifest)
	assert.NotContains(t, first.Manifest.Text(), "CREATE-TIME")

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stamped, err := newCompiler(t, nil, WithClock(func() time.Time { return stamp }), WithName("blink")).
		Compile(context.Background(), files["app.c"], files["app.js"])
	require.NoError(t, err)
	text := stamped.Manifest.Text()
	assert.Contains(t, text, "NAME = blink\n")
	assert.Contains(t, text, "RUNTIME-VERSION = v2.0.0\n")
	assert.Contains(t, text, "CREATE-TIME = 1714564800000\n")
	assert.Equal(t, first.Manifest.Artifacts, stamped.Manifest.Artifacts)
}

func TestCompiler_Options(t *testing.T) {
	ctx := context.Background()
	cSource := []byte("int counter;\nvoid spin() { for (;;) { while (counter) { counter--; } } }\nint main() { spin(); return 0; }\n")

	cfg := config.Default()
	cfg.NestingLimit = 2
	cfg.Yields = true
	result, err := newCompiler(t, cfg).Compile(ctx, cSource, nil)
	require.NoError(t, err)
	limits := result.Warnings.ByCategory(diag.Limit)
	require.Len(t, limits, 1)
	assert.Equal(t, jam.C, limits[0].Language)
	assert.Equal(t, 5, result.MaxLevel)
	assert.Contains(t, result.C, "{ task_yield(); counter--;")
	assert.True(t, result.CSideEffects["c:main"])

	cfg = config.Default()
	cfg.CheckSideEffects = false
	result, err = newCompiler(t, cfg).Compile(ctx, []byte("int pure(int x) { return x; }\nint main() { return pure(1); }\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c:pure": true, "c:main": true}, result.CSideEffects)
}

func TestCompiler_PreprocessOnly(t *testing.T) {
	files := fixture(t, "sync_mutation")
	preprocessed, err := newCompiler(t, nil).PreprocessOnly(context.Background(), files["app.c"], files["app.js"])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(preprocessed.C, "#include <stdio.h>\n"))
	assert.NotContains(t, preprocessed.JS, "jsync")
	assert.NotContains(t, preprocessed.JS, ": int")
	assert.Len(t, preprocessed.Declarations, 3)

	_, err = newCompiler(t, nil).PreprocessOnly(context.Background(), nil, []byte("jdata { int x as bucket; }\n"))
	assert.Error(t, err)
}

func TestArtifactWriter_Write(t *testing.T) {
	result, err := compileFixture(t, "async_pure")
	require.NoError(t, err)
	location := t.TempDir()
	fs := afs.New()
	URLs, err := NewArtifactWriter(fs, location, true).Write(context.Background(), result)
	require.NoError(t, err)
	assert.Len(t, URLs, 8)
	for _, name := range []string{CFile, JSFile, AnnotatedFile, StartFile, ManifestText, ManifestYAML, GraphDOT, GraphHTML} {
		_, err := os.Stat(filepath.Join(location, name))
		assert.NoError(t, err, name)
	}
	data, err := os.ReadFile(filepath.Join(location, JSFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), result.Preamble))
	data, err = os.ReadFile(filepath.Join(location, ManifestYAML))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: jamout.c")

	cSource, jsSource, err := LoadSources(context.Background(), fs, filepath.Join(location, CFile), filepath.Join(location, JSFile))
	require.NoError(t, err)
	assert.Equal(t, result.C, string(cSource))
	assert.Equal(t, result.Preamble+result.JS, string(jsSource))
}

type recorder struct {
	steps []string
	fail  string
}

func (r *recorder) step(name string) error {
	r.steps = append(r.steps, name)
	if name == r.fail {
		return errors.New(name + " failed")
	}
	return nil
}

func (r *recorder) CompileC(ctx context.Context, code []byte) error { return r.step("c") }

func (r *recorder) CheckJS(ctx context.Context, annotated []byte) error { return r.step("flow") }

func (r *recorder) Package(ctx context.Context, files []File) error { return r.step("package") }

func TestCompiler_Build(t *testing.T) {
	result, err := compileFixture(t, "async_pure")
	require.NoError(t, err)

	tools := &recorder{}
	compiler := newCompiler(t, nil, WithToolchain(tools), WithTypeChecker(tools), WithPackager(tools))
	require.NoError(t, compiler.Build(context.Background(), result))
	assert.Equal(t, []string{"flow", "c", "package"}, tools.steps)

	tools = &recorder{fail: "flow"}
	compiler = newCompiler(t, nil, WithToolchain(tools), WithTypeChecker(tools))
	assert.ErrorContains(t, compiler.Build(context.Background(), result), "type check")
	assert.Equal(t, []string{"flow"}, tools.steps)

	assert.NoError(t, newCompiler(t, nil).Build(context.Background(), result))
}
