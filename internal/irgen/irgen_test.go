package irgen

import (
	"strings"
	"testing"

	"tinylang/internal/ast"
	"tinylang/internal/ir"
	"tinylang/internal/lexer"
	"tinylang/internal/parser"
	"tinylang/internal/source"
	"tinylang/internal/typecheck"
)

func generate(t *testing.T, src string) map[string][]ir.Instruction {
	t.Helper()
	module := parser.Parse(lexer.Tokenize("test", src))
	typecheck.Module(module)
	return Generate(module)
}

func instructionKinds(instructions []ir.Instruction) []string {
	kinds := make([]string, len(instructions))
	for i, insn := range instructions {
		s := insn.String()
		kinds[i] = s[:strings.IndexByte(s, '(')]
	}
	return kinds
}

func TestGenerateIntResultPrintsPrintInt(t *testing.T) {
	funcs := generate(t, "1 + 2")
	main, ok := funcs["main"]
	if !ok {
		t.Fatal("expected a main function")
	}

	var sawPrintIntCall bool
	for _, insn := range main {
		if call, ok := insn.(*ir.Call); ok && call.Fun.Name == "print_int" {
			sawPrintIntCall = true
		}
	}
	if !sawPrintIntCall {
		t.Errorf("expected a print_int call in main, got %v", instructionKinds(main))
	}
}

func TestGenerateBoolPrintsPrintBool(t *testing.T) {
	funcs := generate(t, "true and false")
	main := funcs["main"]

	var sawPrintBoolCall bool
	for _, insn := range main {
		if call, ok := insn.(*ir.Call); ok && call.Fun.Name == "print_bool" {
			sawPrintBoolCall = true
		}
	}
	if !sawPrintBoolCall {
		t.Errorf("expected a print_bool call in main, got %v", instructionKinds(main))
	}
}

func TestGenerateAndShortCircuits(t *testing.T) {
	funcs := generate(t, "true and false")
	main := funcs["main"]

	var labels []string
	for _, insn := range main {
		if l, ok := insn.(*ir.Label); ok {
			labels = append(labels, l.Name)
		}
	}

	wantPrefixes := []string{"and_right", "and_skip", "and_end"}
	for _, want := range wantPrefixes {
		found := false
		for _, l := range labels {
			if l == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a %q label, got labels %v", want, labels)
		}
	}
}

func TestGenerateFunctionDefinitionHasParamsAndReturn(t *testing.T) {
	funcs := generate(t, "fun sq(x: Int): Int { x * x } sq(7)")
	sq, ok := funcs["sq"]
	if !ok {
		t.Fatal("expected a sq function")
	}

	fn, ok := sq[0].(*ir.Fun)
	if !ok {
		t.Fatalf("expected first instruction to be Fun, got %T", sq[0])
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Errorf("Fun.Params = %v, want [x]", fn.Params)
	}

	last := sq[len(sq)-1]
	if _, ok := last.(*ir.Return); !ok {
		t.Errorf("expected last instruction to be Return, got %T", last)
	}
}

func TestGenerateWhileLoop(t *testing.T) {
	funcs := generate(t, "var x: Int = 0; while x < 3 do { x = x + 1 }")
	main := funcs["main"]

	var sawCondJump bool
	for _, insn := range main {
		if _, ok := insn.(*ir.CondJump); ok {
			sawCondJump = true
		}
	}
	if !sawCondJump {
		t.Errorf("expected a CondJump in while-loop lowering, got %v", instructionKinds(main))
	}
}

func TestGenerateBreakOutsideLoopPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected generateMain to panic on break without a loop")
		}
	}()
	// typecheck doesn't reject this, so irgen's own guard must catch it.
	module := &ast.Module{Expr: ast.NewBreak(source.Dummy())}
	Generate(module)
}
