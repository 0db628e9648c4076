// Package types implements the finite type lattice: Int, Bool, Unit, Fn.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every member of the lattice. Equality is
// structural, not by Go identity — use Equal, not ==.
type Type interface {
	fmt.Stringer
	isType()
	Equal(other Type) bool
}

type Int struct{}

func (Int) isType()             {}
func (Int) String() string      { return "Int" }
func (Int) Equal(o Type) bool   { _, ok := o.(Int); return ok }

type Bool struct{}

func (Bool) isType()           {}
func (Bool) String() string    { return "Bool" }
func (Bool) Equal(o Type) bool { _, ok := o.(Bool); return ok }

type Unit struct{}

func (Unit) isType()           {}
func (Unit) String() string    { return "Unit" }
func (Unit) Equal(o Type) bool { _, ok := o.(Unit); return ok }

// Fn is the type of a builtin or user-defined function.
type Fn struct {
	Params []Type
	Result Type
}

func (Fn) isType() {}

func (f Fn) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Result)
}

func (f Fn) Equal(o Type) bool {
	of, ok := o.(Fn)
	if !ok || len(f.Params) != len(of.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equal(of.Params[i]) {
			return false
		}
	}
	return f.Result.Equal(of.Result)
}

// FromName converts a type keyword ("Int", "Bool", "Unit") to a Type.
func FromName(name string) (Type, bool) {
	switch name {
	case "Int":
		return Int{}, true
	case "Bool":
		return Bool{}, true
	case "Unit":
		return Unit{}, true
	default:
		return nil, false
	}
}
