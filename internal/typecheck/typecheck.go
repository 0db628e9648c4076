// Package typecheck walks the AST produced by the parser, decorating every
// node with its resolved Type and enforcing the rules from spec §4.3.
package typecheck

import (
	"fmt"

	"tinylang/internal/ast"
	"tinylang/internal/errors"
	"tinylang/internal/source"
	"tinylang/internal/symtab"
	"tinylang/internal/types"
)

// Builtins is the type environment every module starts from.
var Builtins = map[string]types.Type{
	"print_int":  types.Fn{Params: []types.Type{types.Int{}}, Result: types.Unit{}},
	"print_bool": types.Fn{Params: []types.Type{types.Bool{}}, Result: types.Unit{}},
	"read_int":   types.Fn{Params: nil, Result: types.Int{}},
	"+":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Int{}},
	"-":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Int{}},
	"*":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Int{}},
	"/":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Int{}},
	"%":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Int{}},
	"<":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Bool{}},
	">":          types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Bool{}},
	"<=":         types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Bool{}},
	">=":         types.Fn{Params: []types.Type{types.Int{}, types.Int{}}, Result: types.Bool{}},
	"and":        types.Fn{Params: []types.Type{types.Bool{}, types.Bool{}}, Result: types.Bool{}},
	"or":         types.Fn{Params: []types.Type{types.Bool{}, types.Bool{}}, Result: types.Bool{}},
	"unary_-":    types.Fn{Params: []types.Type{types.Int{}}, Result: types.Int{}},
	"unary_not":  types.Fn{Params: []types.Type{types.Bool{}}, Result: types.Bool{}},
}

// Module type-checks every definition and the top-level expression, returning
// the module's result type. Every AST node reachable from module is
// decorated in place with its resolved type as a side effect.
func Module(module *ast.Module) types.Type {
	root := symtab.New(cloneEnv(Builtins))

	for _, def := range module.Defs {
		root.Define(def.Name, def.Type)
	}

	for _, def := range module.Defs {
		definitionScope := symtab.Child(root)
		Definition(def, definitionScope)
	}

	var moduleType types.Type = types.Unit{}
	if module.Expr != nil {
		moduleType = Expr(module.Expr, root)
	}
	module.Typ = moduleType
	return moduleType
}

func cloneEnv(src map[string]types.Type) map[string]types.Type {
	out := make(map[string]types.Type, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Definition type-checks a function body in a scope seeded with its
// parameters, and requires the body's result type to match the declared
// return type.
func Definition(def *ast.Definition, scope *symtab.SymTab[types.Type]) types.Type {
	for i, param := range def.Params {
		scope.Define(param.Name, def.Type.Params[i])
	}

	resultType := Expr(def.Body, scope)

	if !def.Type.Result.Equal(resultType) {
		panic(errors.NewType(def.Loc, fmt.Sprintf("return type doesn't match function definition (declared %s, got %s)", def.Type.Result, resultType)))
	}
	return resultType
}

// Expr type-checks a single expression node and every node below it,
// returning (and recording on the node) its resolved type.
func Expr(node ast.Expr, scope *symtab.SymTab[types.Type]) types.Type {
	t := resolve(node, scope)
	node.SetType(t)
	return t
}

func resolve(node ast.Expr, scope *symtab.SymTab[types.Type]) types.Type {
	switch n := node.(type) {
	case *ast.Literal:
		switch n.Value.(type) {
		case bool:
			return types.Bool{}
		case int64:
			return types.Int{}
		default:
			return types.Unit{}
		}

	case *ast.Identifier:
		t, ok := scope.Get(n.Name)
		if !ok {
			panic(errors.NewType(n.Loc, fmt.Sprintf("undefined identifier %q", n.Name)))
		}
		return t

	case *ast.BinaryOp:
		return binaryOp(n, scope)

	case *ast.UnaryOp:
		t := Expr(n.Param, scope)
		switch n.Op {
		case "unary_not":
			checkMatch(n.Loc, types.Bool{}, t)
		case "unary_-":
			checkMatch(n.Loc, types.Int{}, t)
		}
		return t

	case *ast.If:
		checkMatch(n.Loc, types.Bool{}, Expr(n.Condition, scope))
		trueType := Expr(n.TrueBranch, scope)
		if n.FalseBranch == nil {
			return types.Unit{}
		}
		falseType := Expr(n.FalseBranch, scope)
		if !trueType.Equal(falseType) {
			panic(errors.NewType(n.Loc, fmt.Sprintf("mismatching types in conditional branches (%s and %s)", trueType, falseType)))
		}
		return trueType

	case *ast.Call:
		callee, ok := scope.Get(n.Callee.Name)
		if !ok {
			panic(errors.NewType(n.Loc, fmt.Sprintf("undefined function %q", n.Callee.Name)))
		}
		fn, ok := callee.(types.Fn)
		if !ok {
			panic(errors.NewType(n.Loc, fmt.Sprintf("%q is not a function", n.Callee.Name)))
		}
		if len(n.Args) != len(fn.Params) {
			panic(errors.NewType(n.Loc, fmt.Sprintf("function %q takes %d argument(s), got %d", n.Callee.Name, len(fn.Params), len(n.Args))))
		}
		for i, arg := range n.Args {
			argType := Expr(arg, scope)
			checkMatch(n.Loc, fn.Params[i], argType)
		}
		return fn.Result

	case *ast.Block:
		blockScope := symtab.Child(scope)
		for _, e := range n.Exprs {
			Expr(e, blockScope)
		}
		if n.Result == nil {
			return types.Unit{}
		}
		return Expr(n.Result, blockScope)

	case *ast.While:
		checkMatch(n.Loc, types.Bool{}, Expr(n.Condition, scope))
		Expr(n.Body, scope)
		return types.Unit{}

	case *ast.Var:
		if scope.IsInScope(n.Identifier.Name) {
			panic(errors.NewType(n.Loc, fmt.Sprintf("variable %q already declared in scope", n.Identifier.Name)))
		}
		t := Expr(n.Expr, scope)
		if n.Typed && !n.DeclaredType.Equal(t) {
			panic(errors.NewType(n.Loc, fmt.Sprintf("mismatch between declared type (%s) and actual type (%s)", n.DeclaredType, t)))
		}
		scope.Define(n.Identifier.Name, t)
		return types.Unit{}

	case *ast.Break, *ast.Continue, *ast.Return:
		if r, ok := n.(*ast.Return); ok && r.Expr != nil {
			Expr(r.Expr, scope)
		}
		return types.Unit{}

	default:
		return types.Unit{}
	}
}

func binaryOp(n *ast.BinaryOp, scope *symtab.SymTab[types.Type]) types.Type {
	leftType := Expr(n.Left, scope)
	rightType := Expr(n.Right, scope)

	switch n.Op {
	case "==", "!=":
		if !leftType.Equal(rightType) {
			panic(errors.NewType(n.Loc, fmt.Sprintf("comparison's types mismatch (got %s and %s)", leftType, rightType)))
		}
		return types.Bool{}

	case "=":
		id, ok := n.Left.(*ast.Identifier)
		if !ok {
			panic(errors.NewType(n.Loc, "left side of assignment isn't an identifier"))
		}
		if _, ok := scope.Get(id.Name); !ok {
			panic(errors.NewType(n.Loc, fmt.Sprintf("undefined variable %q", id.Name)))
		}
		checkMatch(n.Loc, leftType, rightType)
		scope.Set(id.Name, rightType)
		return rightType
	}

	opType, ok := scope.Get(n.Op)
	if !ok {
		panic(errors.NewType(n.Loc, fmt.Sprintf("undefined operator %q", n.Op)))
	}
	fn, ok := opType.(types.Fn)
	if !ok || len(fn.Params) != 2 {
		panic(errors.NewType(n.Loc, fmt.Sprintf("undefined operator %q", n.Op)))
	}
	checkMatch(n.Loc, fn.Params[0], leftType)
	checkMatch(n.Loc, fn.Params[1], rightType)
	return fn.Result
}

func checkMatch(loc source.Location, expected, got types.Type) {
	if !expected.Equal(got) {
		panic(errors.NewType(loc, fmt.Sprintf("expected type %s, got %s", expected, got)))
	}
}
