package compiler

import (
	"log/slog"
	"time"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger; the default is built from the config.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// WithClock stamps manifests with the time now returns. Without a clock the
// output is byte-for-byte reproducible.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		c.now = now
	}
}

// WithName sets the program name recorded in the manifest.
func WithName(name string) Option {
	return func(c *Compiler) {
		c.name = name
	}
}

// WithToolchain sets the C compiler used by Build.
func WithToolchain(toolchain Toolchain) Option {
	return func(c *Compiler) {
		c.toolchain = toolchain
	}
}

// WithTypeChecker sets the JS type checker used by Build.
func WithTypeChecker(checker TypeChecker) Option {
	return func(c *Compiler) {
		c.typeChecker = checker
	}
}

// WithPackager sets the packager used by Build.
func WithPackager(packager Packager) Option {
	return func(c *Compiler) {
		c.packager = packager
	}
}
