// Package compiler orchestrates a translation: it preprocesses both fragments,
// analyzes them into one call graph, checks and prunes it, settles side effects
// and assembles the emitted C, JS and manifest.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/config"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/logger"
	"github.com/viant/jamc/preprocess"
	"github.com/viant/jamc/symtab"
	"github.com/viant/jamc/translator"
	"github.com/viant/jamc/translator/cside"
	"github.com/viant/jamc/translator/jside"
)

// Compiler translates C and JS fragment pairs. It is safe for concurrent use;
// every Compile builds its own graph and tables.
type Compiler struct {
	cfg         *config.Config
	policy      *callgraph.Policy
	log         *slog.Logger
	now         func() time.Time
	name        string
	cache       *unitCache
	toolchain   Toolchain
	typeChecker TypeChecker
	packager    Packager
}

// New creates a compiler; a nil cfg selects config.Default().
func New(cfg *config.Config, options ...Option) (*Compiler, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	cache, err := newUnitCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create preprocessing cache: %w", err)
	}
	ret := &Compiler{cfg: cfg, policy: policy, cache: cache, name: "jamout"}
	for _, option := range options {
		option(ret)
	}
	if ret.log == nil {
		if ret.log, err = logger.New(cfg.Log, os.Stderr); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// pass is the state of one compilation.
type pass struct {
	units    map[jam.Language]*preprocess.Unit
	managers map[jam.Language]*symtab.Manager
	graph    *callgraph.Graph
	diags    diag.List
}

func (p *pass) ordered() []*preprocess.Unit {
	return []*preprocess.Unit{p.units[jam.JS], p.units[jam.C]}
}

// Compile translates one program. Declaration, resolution and legality errors
// are returned together as a *diag.Failure; a contract violation inside the
// pipeline is returned as a wrapped sentinel error. No partial result is
// returned on failure.
func (c *Compiler) Compile(ctx context.Context, cSource, jsSource []byte) (*Result, error) {
	started := time.Now()
	p := &pass{
		units:    map[jam.Language]*preprocess.Unit{},
		managers: map[jam.Language]*symtab.Manager{},
		graph:    callgraph.New(),
	}
	sources := map[jam.Language][]byte{jam.C: cSource, jam.JS: jsSource}
	for _, lang := range jam.Languages {
		unit, cached, err := c.cache.preprocess(ctx, lang, sources[lang])
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}
		p.units[lang] = unit
		p.diags.Merge(unit.Diagnostics)
		logger.Phase(c.log, "preprocess", "language", lang, "declarations", len(unit.Declarations), "cached", cached)
	}
	c.register(p)

	analyses, err := c.analyze(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, lang := range jam.Languages {
		p.diags.Merge(analyses[lang].Diagnostics)
	}

	checked, err := c.check(p)
	if err != nil {
		return nil, err
	}
	if checked == nil {
		return nil, p.diags.Err()
	}

	effects, err := c.settle(p, checked)
	if err != nil {
		return nil, err
	}
	if p.diags.HasErrors() {
		return nil, p.diags.Err()
	}

	glue := translator.BuildGlue(checked, p.units[jam.JS].Conditions, effects)
	outputs := map[jam.Language]*translator.Output{}
	for _, t := range c.translators() {
		output, err := t.Emit(ctx, analyses[t.Language()], checked, glue)
		if err != nil {
			return nil, fmt.Errorf("emit: %w", err)
		}
		outputs[t.Language()] = output
		logger.Phase(c.log, "emit", "language", t.Language(), "bytes", len(output.Code))
	}
	result, err := c.assemble(p, checked, glue, outputs)
	if err != nil {
		return nil, err
	}
	c.log.Info("compiled",
		"name", c.name,
		"functions", len(checked.Nodes()),
		"unreachable", len(checked.Unreachable()),
		"stubs", len(glue.Stubs(jam.C))+len(glue.Stubs(jam.JS)),
		"warnings", len(result.Warnings),
		"duration", time.Since(started))
	return result, nil
}

func (c *Compiler) translators() []translator.Translator {
	var options []cside.Option
	options = append(options, cside.WithYields(c.cfg.Yields), cside.WithHeaderExternals(c.cfg.HeaderExternals))
	if c.cfg.LineDirectives != "" {
		options = append(options, cside.WithLineDirectives(c.cfg.LineDirectives))
	}
	return []translator.Translator{jside.New(), cside.New(options...)}
}

// register fills both global scopes, validates annotation conditions and
// rejects a name exported by both fragments.
func (c *Compiler) register(p *pass) {
	for _, lang := range jam.Languages {
		manager := symtab.New(lang)
		manager.SetCheckSideEffect(c.cfg.CheckSideEffects)
		p.managers[lang] = manager
		p.diags.Merge(p.units[lang].Register(manager))
	}
	defined := map[string]*preprocess.Condition{}
	for _, condition := range p.units[jam.JS].Conditions {
		defined[condition.Name] = condition
	}
	for _, unit := range p.ordered() {
		p.diags.Merge(unit.UndefinedConditions(defined))
	}
	jsExports := map[string]*preprocess.Declaration{}
	for _, decl := range p.units[jam.JS].Exported() {
		jsExports[decl.Name] = decl
	}
	for _, decl := range p.units[jam.C].Exported() {
		if other, ok := jsExports[decl.Name]; ok {
			p.diags.Errorf(diag.Declaration, jam.C, decl.QualifiedName(), decl.Line,
				"%s is exported by both fragments, JS declares it at line %d", decl.Name, other.Line)
		}
	}
	logger.Phase(c.log, "register", "errors", len(p.diags.Errors()))
}

func (c *Compiler) analyze(ctx context.Context, p *pass) (map[jam.Language]*translator.Analysis, error) {
	if err := translator.Declare(p.graph, p.ordered()...); err != nil {
		return nil, fmt.Errorf("declare: %w", err)
	}
	result := map[jam.Language]*translator.Analysis{}
	for _, t := range c.translators() {
		lang := t.Language()
		analysis, err := t.Analyze(ctx, &translator.Input{
			Unit:      p.units[lang],
			Other:     p.units[lang.Other()],
			Manager:   p.managers[lang],
			Graph:     p.graph,
			Policy:    c.policy,
			Externals: c.cfg.ExternalsOf(lang),
		})
		if err != nil {
			return nil, fmt.Errorf("analyze %v: %w", lang.Title(), err)
		}
		result[lang] = analysis
		logger.Phase(c.log, "analyze", "language", lang, "remoteCalls", len(analysis.Calls), "seeds", len(p.managers[lang].Seeds()))
	}
	return result, nil
}

// check prunes the graph and validates the surviving edges. A nil Checked
// means legality errors were recorded and compilation stops.
func (c *Compiler) check(p *pass) (*callgraph.Checked, error) {
	report, err := p.graph.Prune(translator.EntryPoints(p.ordered(), c.cfg.EntryPoints...))
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	for _, name := range report.Missing {
		lang, _, _ := jam.SplitQualified(name)
		p.diags.Errorf(diag.Declaration, lang, name, 0, "entry point %s is not declared", name)
	}
	for _, name := range report.Unreachable {
		node, ok := p.graph.Node(name)
		if !ok || node.Synthetic {
			continue
		}
		p.diags.Warnf(diag.Dead, node.Language, name, node.Line, "%s is never called and is removed", name)
	}
	logger.Phase(c.log, "prune", "reachable", len(report.Reachable), "unreachable", len(report.Unreachable))
	checked, diags, err := p.graph.Check(c.policy)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	p.diags.Merge(diags)
	logger.Phase(c.log, "check", "diagnostics", len(diags))
	return checked, nil
}

// settle propagates side effects over the checked graph, finalizes both tables
// and reports nesting above the configured limit. It returns the combined table.
func (c *Compiler) settle(p *pass, checked *callgraph.Checked) (map[string]bool, error) {
	var seeds []string
	for _, lang := range jam.Languages {
		seeds = append(seeds, p.managers[lang].Seeds()...)
	}
	effects, rounds := callgraph.PropagateSideEffects(checked, seeds)
	table := map[string]bool{}
	for _, lang := range jam.Languages {
		manager := p.managers[lang]
		manager.Finalize(manager.Functions(), effects)
		result, err := manager.SideEffectResult()
		if err != nil {
			return nil, err
		}
		for k, v := range result {
			table[k] = v
		}
		if limit := c.cfg.NestingLimit; limit > 0 && manager.MaxDepth() > limit {
			p.diags.Warnf(diag.Limit, lang, "", 0, "scope nesting depth %d exceeds the limit of %d", manager.MaxDepth(), limit)
		}
	}
	logger.Phase(c.log, "side effects", "seeds", len(seeds), "rounds", rounds)
	return table, nil
}
