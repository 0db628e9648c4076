// Package compiler orchestrates the full pipeline: tokenize, parse,
// typecheck, generate IR, emit assembly, assemble. It owns the sole
// recover() boundary that turns a pipeline panic back into a plain error.
package compiler

import (
	"fmt"
	"sort"

	"tinylang/internal/asm"
	"tinylang/internal/assemble"
	"tinylang/internal/errors"
	"tinylang/internal/ir"
	"tinylang/internal/irgen"
	"tinylang/internal/lexer"
	"tinylang/internal/parser"
	"tinylang/internal/typecheck"
)

// Options controls the assembler's linking mode for this compile.
type Options struct {
	LinkWithC      bool
	ExtraLibraries []string
}

// Compile runs the whole pipeline on source from file, returning the linked
// executable's bytes. Every stage panics with an *errors.Diagnostic on
// failure; Compile is the only place that recovers from it.
func Compile(file, source string, opts Options) (program []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if diag, ok := r.(*errors.Diagnostic); ok {
				err = diag
				return
			}
			err = fmt.Errorf("internal compiler error: %v", r)
		}
	}()

	tokens := lexer.Tokenize(file, source)
	module := parser.Parse(tokens)
	typecheck.Module(module)
	funcs := irgen.Generate(module)
	assembly := asm.Generate(funcs, orderedFuncNames(funcs))

	program, asmErr := assemble.Assemble(assembly, assemble.Options{
		LinkWithC:      opts.LinkWithC,
		ExtraLibraries: opts.ExtraLibraries,
	})
	if asmErr != nil {
		return nil, asmErr
	}
	return program, nil
}

// orderedFuncNames sorts function names alphabetically, except "main",
// which sorts last, so the emitted assembly is deterministic across runs of
// the same input.
func orderedFuncNames(funcs map[string][]ir.Instruction) []string {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		if name != "main" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := funcs["main"]; ok {
		names = append(names, "main")
	}
	return names
}
