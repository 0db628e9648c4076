package compiler

import (
	"testing"

	"tinylang/internal/ir"
)

func TestOrderedFuncNamesPutsMainLast(t *testing.T) {
	funcs := map[string][]ir.Instruction{
		"main": nil,
		"sq":   nil,
		"add":  nil,
	}
	got := orderedFuncNames(funcs)
	want := []string{"add", "sq", "main"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestOrderedFuncNamesWithoutMain(t *testing.T) {
	funcs := map[string][]ir.Instruction{"b": nil, "a": nil}
	got := orderedFuncNames(funcs)
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompileSyntaxErrorIsReturnedNotPanicked(t *testing.T) {
	_, err := Compile("<test>", "fun (", Options{})
	if err == nil {
		t.Fatal("expected a syntax error")
	}
}

func TestCompileTypeErrorIsReturnedNotPanicked(t *testing.T) {
	_, err := Compile("<test>", "1 + true", Options{})
	if err == nil {
		t.Fatal("expected a type error")
	}
}
