package compiler

import (
	"fmt"
	"strings"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/translator"
)

// Result is everything one compilation produces.
type Result struct {
	C             string
	JS            string
	Start         string
	Preamble      string
	AnnotatedJS   string
	Manifest      *Manifest
	CSideEffects  map[string]bool
	JSSideEffects map[string]bool
	MaxLevel      int
	HasSharedData bool
	Checked       *callgraph.Checked
	Warnings      diag.List
}

// Artifact file names.
const (
	CFile         = "jamout.c"
	JSFile        = "jamout.js"
	AnnotatedFile = "annotated.js"
	StartFile     = "jstart.js"
	ManifestText  = "MANIFEST.txt"
	ManifestYAML  = "manifest.yaml"
)

var cIncludes = []string{
	"#include <unistd.h>",
	"#include <string.h>",
	`#include "jamdata.h"`,
	`#include "command.h"`,
	`#include "jam.h"`,
}

// flowAliases lets Flow read the boundary types kept in the annotated source.
const flowAliases = "type int = number;\ntype double = number;\ntype bool = boolean;\n"

func (c *Compiler) assemble(p *pass, checked *callgraph.Checked, glue *translator.Glue, outputs map[jam.Language]*translator.Output) (*Result, error) {
	cOut, jsOut := outputs[jam.C], outputs[jam.JS]
	cUnit, jsUnit := p.units[jam.C], p.units[jam.JS]

	code := strings.Builder{}
	code.WriteString(strings.Join(cIncludes, "\n") + "\n")
	for _, line := range cUnit.Preserved {
		code.WriteString(line + "\n")
	}
	code.WriteString(cOut.Code)

	shared := cOut.HasSharedData || jsOut.HasSharedData
	preamble := "\njsys = jworklib.getjsys();\n"
	if shared {
		preamble += "jman = new JAMManager(jworklib.getcmdopts(), jsys);\n"
	}

	annotated := strings.Builder{}
	annotated.WriteString("// @flow\n")
	annotated.WriteString(flowAliases)
	annotated.Write(jsUnit.Annotated)
	if !strings.HasSuffix(string(jsUnit.Annotated), "\n") {
		annotated.WriteString("\n")
	}
	annotated.WriteString(cOut.FlowDecls)

	result := &Result{
		C:             code.String(),
		JS:            jsOut.Code,
		Start:         jsOut.Start,
		Preamble:      preamble,
		AnnotatedJS:   annotated.String(),
		CSideEffects:  cOut.SideEffects,
		JSSideEffects: jsOut.SideEffects,
		MaxLevel:      max(cOut.MaxLevel, jsOut.MaxLevel),
		HasSharedData: shared,
		Checked:       checked,
		Warnings:      p.diags.Warnings(),
	}
	manifest, err := c.manifest(result, glue)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	result.Manifest = manifest
	return result, nil
}

// Files returns the generated files by name, in writing order.
func (r *Result) Files() ([]File, error) {
	manifestYAML, err := r.Manifest.YAML()
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: CFile, Data: []byte(r.C)},
		{Name: JSFile, Data: []byte(r.Preamble + r.JS)},
		{Name: AnnotatedFile, Data: []byte(r.AnnotatedJS)},
		{Name: StartFile, Data: []byte(r.Start)},
		{Name: ManifestText, Data: []byte(r.Manifest.Text())},
		{Name: ManifestYAML, Data: manifestYAML},
	}, nil
}

// File is one generated artifact.
type File struct {
	Name string
	Data []byte
}
