package parser

import (
	"fmt"
	"testing"

	"tinylang/internal/ast"
	"tinylang/internal/lexer"
)

func parseString(src string) (module *ast.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("parser panic: %v", r)
			}
			module = nil
		}
	}()
	tokens := lexer.Tokenize("test.tl", src)
	module = Parse(tokens)
	return
}

func assertParseSuccess(t *testing.T, src, description string) *ast.Module {
	t.Helper()
	module, err := parseString(src)
	if err != nil {
		t.Fatalf("%s: parsing failed: %v", description, err)
	}
	return module
}

func assertParseError(t *testing.T, src, description string) {
	t.Helper()
	_, err := parseString(src)
	if err == nil {
		t.Fatalf("%s: expected a parse error, got none", description)
	}
}

func TestParsePrecedence(t *testing.T) {
	module := assertParseSuccess(t, "1 + 2 * 3", "arithmetic precedence")
	bin, ok := module.Expr.(*ast.BinaryOp)
	if !ok {
		t.Fatalf("top expr = %T, want *ast.BinaryOp", module.Expr)
	}
	if bin.Op != "+" {
		t.Fatalf("root op = %q, want +", bin.Op)
	}
	rhs, ok := bin.Right.(*ast.BinaryOp)
	if !ok || rhs.Op != "*" {
		t.Fatalf("right child = %#v, want a * BinaryOp", bin.Right)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	module := assertParseSuccess(t, "1 - 2 - 3", "left associative subtraction")
	bin, ok := module.Expr.(*ast.BinaryOp)
	if !ok || bin.Op != "-" {
		t.Fatalf("root = %#v, want top-level -", module.Expr)
	}
	left, ok := bin.Left.(*ast.BinaryOp)
	if !ok || left.Op != "-" {
		t.Fatalf("left child = %#v, want nested -", bin.Left)
	}
}

// A higher-precedence subtree in the middle of a same-precedence chain must
// not change the chain's left-associative grouping: "10 - 2 * 3 - 1" parses
// as "(10 - (2*3)) - 1", not "10 - ((2*3) - 1)".
func TestParseLeftAssociativityWithMixedPrecedenceMiddleTerm(t *testing.T) {
	module := assertParseSuccess(t, "10 - 2 * 3 - 1", "left-associative chain with a higher-precedence middle term")

	root, ok := module.Expr.(*ast.BinaryOp)
	if !ok || root.Op != "-" {
		t.Fatalf("root = %#v, want top-level -", module.Expr)
	}
	rhs, ok := root.Right.(*ast.Literal)
	if !ok || rhs.Value != int64(1) {
		t.Fatalf("root right = %#v, want literal 1", root.Right)
	}

	left, ok := root.Left.(*ast.BinaryOp)
	if !ok || left.Op != "-" {
		t.Fatalf("root left = %#v, want nested -", root.Left)
	}
	mul, ok := left.Right.(*ast.BinaryOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("nested - right = %#v, want 2*3", left.Right)
	}
}

func TestParseBlockOptionalSemicolon(t *testing.T) {
	assertParseSuccess(t, "{ if true then { 1 } 2 }", "semicolon optional after brace-terminated expr")
	assertParseError(t, "{ 1 2 }", "semicolon required between two non-brace expressions")
}

func TestParseIfWhileVar(t *testing.T) {
	assertParseSuccess(t, "if true then 1 else 2", "if/else")
	assertParseSuccess(t, "while true do { x = x - 1 }", "while/do")
	assertParseSuccess(t, "var x: Int = 1", "typed var")
	assertParseSuccess(t, "var x = 1", "untyped var")
}

func TestParseVarNotAllowedAsOperand(t *testing.T) {
	assertParseError(t, "1 + (var x = 1)", "var inside parenthesized expression")
}

func TestParseFunctionCall(t *testing.T) {
	module := assertParseSuccess(t, "f(1, 2)", "call with args")
	call, ok := module.Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expr = %T, want *ast.Call", module.Expr)
	}
	if call.Callee.Name != "f" || len(call.Args) != 2 {
		t.Fatalf("call = %#v", call)
	}
}

func TestParseDefinitionDuplicateParam(t *testing.T) {
	assertParseError(t, "fun f(x: Int, x: Int): Int { x }", "duplicate parameter name")
}

func TestParseDefinition(t *testing.T) {
	module := assertParseSuccess(t, "fun add(a: Int, b: Int): Int { a + b }", "simple function definition")
	if len(module.Defs) != 1 {
		t.Fatalf("defs = %d, want 1", len(module.Defs))
	}
	def := module.Defs[0]
	if def.Name != "add" || len(def.Params) != 2 {
		t.Fatalf("def = %#v", def)
	}
}

func TestParseUnary(t *testing.T) {
	module := assertParseSuccess(t, "-x", "unary minus")
	un, ok := module.Expr.(*ast.UnaryOp)
	if !ok || un.Op != "unary_-" {
		t.Fatalf("expr = %#v, want unary_-", module.Expr)
	}
}

func TestParseTrailingTokenIsAnError(t *testing.T) {
	assertParseError(t, "1 + 2 )", "stray closing paren after a full expression")
}
