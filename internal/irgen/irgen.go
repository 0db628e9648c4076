// Package irgen lowers a type-checked AST to the three-address IR defined
// in internal/ir, one instruction sequence per function plus a synthetic
// "main" sequence for the module's top-level expression.
package irgen

import (
	"fmt"

	"tinylang/internal/ast"
	"tinylang/internal/errors"
	"tinylang/internal/ir"
	"tinylang/internal/source"
	"tinylang/internal/symtab"
	"tinylang/internal/types"
)

var unitVar = ir.Var{Name: "unit"}

// builtinNames mirrors typecheck.Builtins: every builtin and operator name is
// also its own IR-var.
var builtinNames = []string{
	"print_int", "print_bool", "read_int",
	"+", "-", "*", "/", "%", "<", ">", "<=", ">=", "and", "or",
	"unary_-", "unary_not",
}

// Generate lowers every definition and the top-level expression, returning a
// map from function name to its instruction sequence.
func Generate(module *ast.Module) map[string][]ir.Instruction {
	rootNames := symtab.New[ir.Var](nil)
	for _, name := range builtinNames {
		rootNames.Define(name, ir.Var{Name: name})
	}
	for _, def := range module.Defs {
		rootNames.Define(def.Name, ir.Var{Name: def.Name})
	}

	labels := newLabelMinter()
	out := make(map[string][]ir.Instruction)

	for _, def := range module.Defs {
		g := newGenerator(labels)
		out[def.Name] = g.generateDefinition(def, rootNames)
	}

	if module.Expr != nil {
		g := newGenerator(labels)
		out["main"] = g.generateMain(module.Expr, rootNames)
	}

	return out
}

// labelMinter hands out globally-unique label names across the whole
// compilation, mirroring the original's shared `labels: set[str]`.
type labelMinter struct {
	used map[string]bool
}

func newLabelMinter() *labelMinter {
	return &labelMinter{used: make(map[string]bool)}
}

func (m *labelMinter) mint(hint string) string {
	name := findUnique(hint, m.used)
	m.used[name] = true
	return name
}

func findUnique(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%d", base, n)
		if !used[candidate] {
			return candidate
		}
	}
}

// generator lowers one function body (or the top-level expression). Its
// variable-name space is private to that body, matching the original's
// per-definition var_types copy.
type generator struct {
	labels   *labelMinter
	varNames map[string]bool
	ins      []ir.Instruction
}

func newGenerator(labels *labelMinter) *generator {
	return &generator{labels: labels, varNames: map[string]bool{"unit": true}}
}

func (g *generator) newVar() ir.Var {
	name := findUnique("x", g.varNames)
	g.varNames[name] = true
	return ir.Var{Name: name}
}

func (g *generator) newLabel(loc source.Location, hint string) *ir.Label {
	return ir.NewLabel(loc, g.labels.mint(hint))
}

func (g *generator) emit(i ir.Instruction) {
	g.ins = append(g.ins, i)
}

func (g *generator) generateDefinition(def *ast.Definition, rootNames *symtab.SymTab[ir.Var]) []ir.Instruction {
	scope := symtab.Child(rootNames)
	params := make([]ir.Var, len(def.Params))
	for i, p := range def.Params {
		v := ir.Var{Name: p.Name}
		params[i] = v
		g.varNames[p.Name] = true
		scope.Define(p.Name, v)
	}

	g.emit(ir.NewFun(def.Body.Location(), def.Name, params))
	result := g.visit(scope, def.Body, nil, nil)
	if _, isUnit := def.Type.Result.(types.Unit); isUnit {
		g.emit(ir.NewReturn(def.Loc, nil))
	} else {
		g.emit(ir.NewReturn(def.Loc, &result))
	}
	return g.ins
}

func (g *generator) generateMain(expr ast.Expr, rootNames *symtab.SymTab[ir.Var]) []ir.Instruction {
	scope := symtab.Child(rootNames)

	g.emit(ir.NewFun(expr.Location(), "main", nil))
	final := g.visit(scope, expr, nil, nil)

	switch expr.Type().(type) {
	case types.Int:
		g.emit(ir.NewCall(expr.Location(), ir.Var{Name: "print_int"}, []ir.Var{final}, unitVar))
	case types.Bool:
		g.emit(ir.NewCall(expr.Location(), ir.Var{Name: "print_bool"}, []ir.Var{final}, unitVar))
	}

	g.emit(ir.NewReturn(source.Dummy(), nil))
	return g.ins
}

// visit lowers expr, returning the IR-var holding its value. breakLabel and
// continueLabel are non-nil only while inside a while loop.
func (g *generator) visit(st *symtab.SymTab[ir.Var], expr ast.Expr, breakLabel, continueLabel *ir.Label) ir.Var {
	loc := expr.Location()

	switch n := expr.(type) {
	case *ast.Literal:
		switch v := n.Value.(type) {
		case bool:
			dest := g.newVar()
			g.emit(ir.NewLoadBoolConst(loc, v, dest))
			return dest
		case int64:
			dest := g.newVar()
			g.emit(ir.NewLoadIntConst(loc, v, dest))
			return dest
		default:
			return unitVar
		}

	case *ast.Identifier:
		return st.Require(n.Name)

	case *ast.BinaryOp:
		return g.visitBinaryOp(st, n, breakLabel, continueLabel)

	case *ast.UnaryOp:
		param := g.visit(st, n.Param, breakLabel, continueLabel)
		if n.Op == "()" {
			return param
		}
		dest := g.newVar()
		op := st.Require(n.Op)
		g.emit(ir.NewCall(loc, op, []ir.Var{param}, dest))
		return dest

	case *ast.If:
		return g.visitIf(st, n, breakLabel, continueLabel)

	case *ast.Call:
		fun := st.Require(n.Callee.Name)
		args := make([]ir.Var, len(n.Args))
		for i, a := range n.Args {
			args[i] = g.visit(st, a, breakLabel, continueLabel)
		}
		dest := g.newVar()
		g.emit(ir.NewCall(loc, fun, args, dest))
		return dest

	case *ast.Block:
		blockScope := symtab.Child(st)
		for _, e := range n.Exprs {
			g.visit(blockScope, e, breakLabel, continueLabel)
		}
		if n.Result == nil {
			return unitVar
		}
		return g.visit(blockScope, n.Result, breakLabel, continueLabel)

	case *ast.While:
		return g.visitWhile(st, n)

	case *ast.Var:
		exprVar := g.visit(st, n.Expr, breakLabel, continueLabel)
		dest := g.newVar()
		st.Define(n.Identifier.Name, dest)
		g.emit(ir.NewCopy(loc, exprVar, dest))
		return unitVar

	case *ast.Break:
		if breakLabel == nil {
			panic(errors.NewCompile(loc, "break outside of a loop"))
		}
		g.emit(ir.NewJump(loc, breakLabel))
		return unitVar

	case *ast.Continue:
		if continueLabel == nil {
			panic(errors.NewCompile(loc, "continue outside of a loop"))
		}
		g.emit(ir.NewJump(loc, continueLabel))
		return unitVar

	case *ast.Return:
		var v *ir.Var
		if n.Expr != nil {
			rv := g.visit(st, n.Expr, breakLabel, continueLabel)
			v = &rv
		}
		g.emit(ir.NewReturn(loc, v))
		return unitVar

	default:
		return unitVar
	}
}

func (g *generator) visitBinaryOp(st *symtab.SymTab[ir.Var], n *ast.BinaryOp, breakLabel, continueLabel *ir.Label) ir.Var {
	loc := n.Loc
	left := g.visit(st, n.Left, breakLabel, continueLabel)

	if n.Op == "and" || n.Op == "or" {
		lRight := g.newLabel(loc, n.Op+"_right")
		lSkip := g.newLabel(loc, n.Op+"_skip")
		lEnd := g.newLabel(loc, n.Op+"_end")

		if n.Op == "and" {
			g.emit(ir.NewCondJump(loc, left, lRight, lSkip))
		} else {
			g.emit(ir.NewCondJump(loc, left, lSkip, lRight))
		}

		g.emit(lRight)
		right := g.visit(st, n.Right, breakLabel, continueLabel)
		result := g.newVar()
		g.emit(ir.NewCopy(loc, right, result))
		g.emit(ir.NewJump(loc, lEnd))

		g.emit(lSkip)
		g.emit(ir.NewLoadBoolConst(loc, n.Op == "or", result))
		g.emit(ir.NewJump(loc, lEnd))

		g.emit(lEnd)
		return result
	}

	right := g.visit(st, n.Right, breakLabel, continueLabel)

	if n.Op == "=" {
		g.emit(ir.NewCopy(loc, right, left))
		return left
	}

	dest := g.newVar()
	var op ir.Var
	if n.Op == "==" || n.Op == "!=" {
		op = ir.Var{Name: n.Op}
	} else {
		op = st.Require(n.Op)
	}
	g.emit(ir.NewCall(loc, op, []ir.Var{left, right}, dest))
	return dest
}

func (g *generator) visitIf(st *symtab.SymTab[ir.Var], n *ast.If, breakLabel, continueLabel *ir.Label) ir.Var {
	loc := n.Loc
	lThen := g.newLabel(loc, "then")
	lEnd := g.newLabel(loc, "if_end")

	cond := g.visit(st, n.Condition, breakLabel, continueLabel)

	if n.FalseBranch == nil {
		g.emit(ir.NewCondJump(loc, cond, lThen, lEnd))
		g.emit(lThen)
		g.visit(st, n.TrueBranch, breakLabel, continueLabel)
		g.emit(lEnd)
		return unitVar
	}

	result := g.newVar()
	lElse := g.newLabel(loc, "else")

	g.emit(ir.NewCondJump(loc, cond, lThen, lElse))

	g.emit(lThen)
	thenVar := g.visit(st, n.TrueBranch, breakLabel, continueLabel)
	g.emit(ir.NewCopy(loc, thenVar, result))
	g.emit(ir.NewJump(loc, lEnd))

	g.emit(lElse)
	elseVar := g.visit(st, n.FalseBranch, breakLabel, continueLabel)
	g.emit(ir.NewCopy(loc, elseVar, result))

	g.emit(lEnd)
	return result
}

func (g *generator) visitWhile(st *symtab.SymTab[ir.Var], n *ast.While) ir.Var {
	loc := n.Loc
	lStart := g.newLabel(loc, "while_start")
	lBody := g.newLabel(loc, "while_body")
	lEnd := g.newLabel(loc, "while_end")

	g.emit(lStart)
	cond := g.visit(st, n.Condition, lEnd, lStart)
	g.emit(ir.NewCondJump(loc, cond, lBody, lEnd))

	g.emit(lBody)
	g.visit(st, n.Body, lEnd, lStart)
	g.emit(ir.NewJump(loc, lStart))

	g.emit(lEnd)
	return unitVar
}
