// Package cside translates the C fragment: it records C call sites and side
// effects into the shared graph and emits the instrumented C program.
package cside

import "github.com/viant/jamc/jam"

// Option configures the C translator.
type Option func(*Translator)

// WithYields inserts a cooperative task_yield() at the top of every loop body.
func WithYields(enabled bool) Option {
	return func(t *Translator) {
		t.yields = enabled
	}
}

// WithLineDirectives prefixes each emitted function with a #line directive
// pointing back into file.
func WithLineDirectives(file string) Option {
	return func(t *Translator) {
		t.lineFile = file
	}
}

// WithHeaderExternals treats calls to undeclared names as opaque library calls
// when the fragment includes a header, since the prototypes live there.
func WithHeaderExternals(enabled bool) Option {
	return func(t *Translator) {
		t.headerExternals = enabled
	}
}

// Translator is the C-emitting translator.
type Translator struct {
	yields          bool
	lineFile        string
	headerExternals bool
}

// New creates a C translator.
func New(options ...Option) *Translator {
	ret := &Translator{}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Language returns jam.C.
func (t *Translator) Language() jam.Language {
	return jam.C
}
