package jside

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/translator"
)

// Emit rewrites the stripped JS source, appends the stubs and builds the
// startup snippet.
func (t *Translator) Emit(ctx context.Context, analysis *translator.Analysis, checked *callgraph.Checked, glue *translator.Glue) (*translator.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	effects, err := analysis.Manager.SideEffectResult()
	if err != nil {
		return nil, err
	}
	unit := analysis.Unit
	src := unit.Stripped
	var edits jam.Edits
	for _, decl := range unit.Declarations {
		if !decl.Callable() || checked.Reachable(decl.QualifiedName()) {
			continue
		}
		newlines := strings.Repeat("\n", bytes.Count(src[decl.Span.Start:decl.Span.End], []byte("\n")))
		if decl.Span.Start == decl.NameSpan.Start {
			// a binding keeps its declarator so the statement stays well formed
			edits.Replace(decl.Span.Start, decl.Span.End, decl.Name+" = null"+newlines)
			continue
		}
		edits.Replace(decl.Span.Start, decl.Span.End, newlines)
	}
	for _, call := range analysis.Calls {
		if !checked.Reachable(call.Caller) {
			continue
		}
		_, name, _ := jam.SplitQualified(call.Callee)
		edits.Replace(call.Span.Start, call.Span.End, translator.StubName(call.Discipline, name))
	}
	code, err := edits.Apply(src)
	if err != nil {
		return nil, fmt.Errorf("JS: emit: %w", err)
	}

	out := &strings.Builder{}
	for _, data := range unit.SharedData {
		fmt.Fprintf(out, "var %s = jman.%s(%q);\n", data.Name, data.Mode, data.Name)
	}
	out.Write(code)
	for _, stub := range glue.Stubs(jam.JS) {
		out.WriteString("\n")
		writeStub(out, stub)
	}
	return &translator.Output{
		Language:      jam.JS,
		Code:          out.String(),
		SideEffects:   effects,
		MaxLevel:      analysis.Manager.MaxDepth(),
		HasSharedData: analysis.HasSharedData,
		Start:         start(glue),
	}, nil
}

func arguments(count int) string {
	args := make([]string, count)
	for i := range args {
		args[i] = fmt.Sprintf("a%d", i)
	}
	return strings.Join(args, ", ")
}

func writeStub(out *strings.Builder, stub translator.Stub) {
	args := arguments(len(stub.Params))
	fmt.Fprintf(out, "function %s(%s) {\n", stub.Name, args)
	if stub.Discipline == jam.SyncRemote {
		fmt.Fprintf(out, "    return jworklib.remoteSyncExec(%q, [%s], %q, %q, %q);\n}\n", stub.Function, args, stub.Shape(), stub.Tier, stub.Condition)
		return
	}
	fmt.Fprintf(out, "    jworklib.remoteAsyncExec(%q, [%s], %q, %q, %q);\n}\n", stub.Function, args, stub.Shape(), stub.Tier, stub.Condition)
}

// start registers conditions and JS entries with the worker, launches the JS
// tasks and signals readiness.
func start(glue *translator.Glue) string {
	out := &strings.Builder{}
	for _, condition := range glue.Conditions {
		fmt.Fprintf(out, "jsys.setCondition(%q, function(sys) { return (%s); });\n", condition.Name, condition.Expr)
	}
	for _, entry := range glue.Entries(jam.JS) {
		fmt.Fprintf(out, "jworklib.registerFunc(%q, %s, %q, \"%c\", %q, %q, %q, %t);\n",
			entry.Function, entry.Function, entry.Shape(), entry.Result.Code(), entry.Tier, entry.Condition, entry.Annotation, entry.SideEffect)
	}
	for _, task := range glue.Tasks(jam.JS) {
		fmt.Fprintf(out, "jworklib.localAsyncExec(%q, []);\n", task.Function)
	}
	out.WriteString("jworklib.ready();\n")
	return out.String()
}
