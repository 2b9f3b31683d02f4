package compiler

import (
	"context"
	"fmt"
)

// Toolchain compiles the generated C program.
type Toolchain interface {
	CompileC(ctx context.Context, code []byte) error
}

// TypeChecker checks the annotated JS program.
type TypeChecker interface {
	CheckJS(ctx context.Context, annotated []byte) error
}

// Packager bundles the generated artifacts into an executable archive.
type Packager interface {
	Package(ctx context.Context, files []File) error
}

// Build hands a result to the configured external tools: type checking, then
// C compilation, then packaging. Tools that are not configured are skipped.
func (c *Compiler) Build(ctx context.Context, result *Result) error {
	if c.typeChecker != nil {
		if err := c.typeChecker.CheckJS(ctx, []byte(result.AnnotatedJS)); err != nil {
			return fmt.Errorf("type check: %w", err)
		}
	}
	if c.toolchain != nil {
		if err := c.toolchain.CompileC(ctx, []byte(result.C)); err != nil {
			return fmt.Errorf("compile C: %w", err)
		}
	}
	if c.packager == nil {
		return nil
	}
	files, err := result.Files()
	if err != nil {
		return err
	}
	if err := c.packager.Package(ctx, files); err != nil {
		return fmt.Errorf("package: %w", err)
	}
	return nil
}
