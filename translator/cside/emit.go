package cside

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/translator"
)

// Emit rewrites the stripped C source and appends the runtime glue.
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
	userMain := false
	for _, decl := range unit.Declarations {
		if !decl.Callable() {
			continue
		}
		qname := decl.QualifiedName()
		if !checked.Reachable(qname) {
			edits.Replace(decl.Span.Start, decl.Span.End, strings.Repeat("\n", bytes.Count(src[decl.Span.Start:decl.Span.End], []byte("\n"))))
			continue
		}
		if t.lineFile != "" {
			directive := fmt.Sprintf("#line %d %q\n", decl.Line, t.lineFile)
			if decl.Span.Start > 0 && src[decl.Span.Start-1] != '\n' {
				directive = "\n" + directive
			}
			edits.Insert(decl.Span.Start, directive)
		}
		if decl.Name == "main" {
			userMain = true
			edits.Replace(decl.NameSpan.Start, decl.NameSpan.End, translator.UserMain)
		}
	}
	for _, proto := range unit.Prototypes {
		if proto.Removable && !checked.Reachable(proto.QualifiedName()) {
			edits.Replace(proto.Span.Start, proto.Span.End, strings.Repeat("\n", bytes.Count(src[proto.Span.Start:proto.Span.End], []byte("\n"))))
		}
	}
	for _, call := range analysis.Calls {
		if !checked.Reachable(call.Caller) {
			continue
		}
		_, name, _ := jam.SplitQualified(call.Callee)
		edits.Replace(call.Span.Start, call.Span.End, translator.StubName(call.Discipline, name))
	}
	for _, write := range analysis.DataWrites {
		if !checked.Reachable(write.Caller) {
			continue
		}
		edits.Replace(write.Start, write.ValueStart, fmt.Sprintf("jam_data_write(cn, %q, ", write.Name))
		edits.Insert(write.End, ")")
	}
	if t.yields {
		for _, loop := range analysis.Loops {
			if checked.Reachable(loop.Caller) {
				edits.Insert(loop.Offset, " task_yield();")
			}
		}
	}
	code, err := edits.Apply(src)
	if err != nil {
		return nil, fmt.Errorf("C: emit: %w", err)
	}

	out := &strings.Builder{}
	out.WriteString("cnode_t *cn;\n")
	stubs := glue.Stubs(jam.C)
	for _, stub := range stubs {
		out.WriteString(stubSignature(stub) + ";\n")
	}
	out.WriteString("\n")
	out.Write(code)
	for _, stub := range stubs {
		out.WriteString("\n")
		writeStub(out, stub)
	}
	entries := glue.Entries(jam.C)
	for _, entry := range entries {
		out.WriteString("\n")
		writeEntry(out, entry)
	}
	out.WriteString("\n")
	main, ok := unit.Lookup("main")
	writeMain(out, entries, glue.Tasks(jam.C), ok && userMain, main != nil && len(main.Params) > 0)

	return &translator.Output{
		Language:      jam.C,
		Code:          out.String(),
		SideEffects:   effects,
		MaxLevel:      analysis.Manager.MaxDepth(),
		HasSharedData: analysis.HasSharedData,
		FlowDecls:     flowDecls(entries),
	}, nil
}

func parameterList(params []jam.Param) string {
	if len(params) == 0 {
		return "void"
	}
	var result []string
	for i, param := range params {
		result = append(result, fmt.Sprintf("%s a%d", strings.TrimSpace(param.Kind.CType()), i))
	}
	return strings.Join(result, ", ")
}

func stubSignature(stub translator.Stub) string {
	result := jam.Void
	if stub.Discipline == jam.SyncRemote && stub.Result != jam.Unknown {
		result = stub.Result
	}
	return fmt.Sprintf("%s %s(%s)", strings.TrimSpace(result.CType()), stub.Name, parameterList(stub.Params))
}

func stubArguments(stub translator.Stub) string {
	args := fmt.Sprintf("cn->tboard, %q, %q, %q, %q", stub.Function, stub.Tier, stub.Condition, stub.Shape())
	for i := range stub.Params {
		args += fmt.Sprintf(", a%d", i)
	}
	return args
}

// field is the arg_t union member holding a value of kind.
func field(kind jam.ValueKind) string {
	switch kind {
	case jam.Double:
		return "dval"
	case jam.String:
		return "sval"
	}
	return "ival"
}

func writeStub(out *strings.Builder, stub translator.Stub) {
	fmt.Fprintf(out, "%s {\n", stubSignature(stub))
	if stub.Discipline == jam.AsyncRemote {
		fmt.Fprintf(out, "    remote_async_call(%s);\n}\n", stubArguments(stub))
		return
	}
	fmt.Fprintf(out, "    arg_t *rv = remote_sync_call(%s);\n", stubArguments(stub))
	switch stub.Result {
	case jam.Void, jam.Unknown:
		out.WriteString("    command_arg_free(rv);\n}\n")
		return
	case jam.String:
		out.WriteString("    char *ret = strdup(rv->val.sval);\n")
	default:
		fmt.Fprintf(out, "    %s ret = rv->val.%s;\n", stub.Result.CType(), field(stub.Result))
	}
	out.WriteString("    command_arg_free(rv);\n    return ret;\n}\n")
}

func writeEntry(out *strings.Builder, entry translator.Entry) {
	fmt.Fprintf(out, "void %s(context_t ctx) {\n", entry.Wrapper)
	args := make([]string, len(entry.Params))
	if len(entry.Params) > 0 {
		out.WriteString("    arg_t *t = (arg_t *)task_get_args();\n")
		for i, param := range entry.Params {
			args[i] = fmt.Sprintf("t[%d].val.%s", i, field(param.Kind))
		}
	}
	call := fmt.Sprintf("%s(%s)", entry.Function, strings.Join(args, ", "))
	if entry.Annotation == jam.Sync && entry.Result.Marshallable() {
		fmt.Fprintf(out, "    %s rv = %s;\n", strings.TrimSpace(entry.Result.CType()), call)
		fmt.Fprintf(out, "    task_set_return(ctx, \"%c\", rv);\n}\n", entry.Result.Code())
		return
	}
	fmt.Fprintf(out, "    (void)ctx;\n    %s;\n}\n", call)
}

func priority(entry translator.Entry) string {
	if entry.Annotation == jam.Sync {
		return "PRI_SYNC_TASK"
	}
	return "PRI_BATCH_TASK"
}

func writeMain(out *strings.Builder, entries, tasks []translator.Entry, userMain, withArgs bool) {
	out.WriteString("int main(int argc, char *argv[]) {\n")
	out.WriteString("    cn = cnode_init(argc, argv);\n")
	for _, entry := range entries {
		fmt.Fprintf(out, "    tboard_register_func(cn->tboard, TBOARD_FUNC(%q, %s, %q, \"%c\", %s));\n",
			entry.Function, entry.Wrapper, entry.Shape(), entry.Result.Code(), priority(entry))
	}
	for _, task := range tasks {
		fmt.Fprintf(out, "    local_async_call(cn->tboard, %q, 0, \"\");\n", task.Function)
	}
	if userMain {
		if withArgs {
			fmt.Fprintf(out, "    %s(argc, argv);\n", translator.UserMain)
		} else {
			fmt.Fprintf(out, "    %s();\n", translator.UserMain)
		}
	}
	out.WriteString("    cnode_stop(cn);\n    cnode_destroy(cn);\n    return 0;\n}\n")
}

// flowDecls declares the C entries to the JS type checker.
func flowDecls(entries []translator.Entry) string {
	builder := strings.Builder{}
	for _, entry := range entries {
		var params []string
		for i, param := range entry.Params {
			name := param.Name
			if name == "" {
				name = fmt.Sprintf("a%d", i)
			}
			params = append(params, name+": "+param.Kind.FlowType())
		}
		result := jam.Void
		if entry.Annotation == jam.Sync {
			result = entry.Result
		}
		fmt.Fprintf(&builder, "declare function %s(%s): %s;\n", entry.Function, strings.Join(params, ", "), result.FlowType())
	}
	return builder.String()
}
