// Package ir defines the three-address instruction set produced by
// internal/irgen and consumed by internal/asm.
package ir

import (
	"fmt"
	"strings"

	"tinylang/internal/source"
)

// Var names an IR-level temporary or parameter. Equality is by Name.
type Var struct {
	Name string
}

func (v Var) String() string { return v.Name }

// Instruction is implemented by every IR instruction variant.
type Instruction interface {
	Location() source.Location
	fmt.Stringer
	isInstruction()
}

type base struct {
	Loc source.Location
}

func (b base) Location() source.Location { return b.Loc }

// Label marks a jump target.
type Label struct {
	base
	Name string
}

func NewLabel(loc source.Location, name string) *Label {
	return &Label{base: base{loc}, Name: name}
}
func (l *Label) String() string { return fmt.Sprintf("Label(%s)", l.Name) }
func (*Label) isInstruction()   {}

// Fun is the header that opens a function's instruction sequence.
type Fun struct {
	base
	Name   string
	Params []Var
}

func NewFun(loc source.Location, name string, params []Var) *Fun {
	return &Fun{base: base{loc}, Name: name, Params: params}
}
func (f *Fun) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Name
	}
	return fmt.Sprintf("Fun(%s, [%s])", f.Name, strings.Join(parts, ", "))
}
func (*Fun) isInstruction() {}

// LoadIntConst loads a constant integer into Dest.
type LoadIntConst struct {
	base
	Value int64
	Dest  Var
}

func NewLoadIntConst(loc source.Location, value int64, dest Var) *LoadIntConst {
	return &LoadIntConst{base: base{loc}, Value: value, Dest: dest}
}
func (i *LoadIntConst) String() string { return fmt.Sprintf("LoadIntConst(%d, %s)", i.Value, i.Dest) }
func (*LoadIntConst) isInstruction()   {}

// LoadBoolConst loads a constant boolean into Dest.
type LoadBoolConst struct {
	base
	Value bool
	Dest  Var
}

func NewLoadBoolConst(loc source.Location, value bool, dest Var) *LoadBoolConst {
	return &LoadBoolConst{base: base{loc}, Value: value, Dest: dest}
}
func (b *LoadBoolConst) String() string {
	return fmt.Sprintf("LoadBoolConst(%t, %s)", b.Value, b.Dest)
}
func (*LoadBoolConst) isInstruction() {}

// Copy moves Source into Dest.
type Copy struct {
	base
	Source Var
	Dest   Var
}

func NewCopy(loc source.Location, src, dest Var) *Copy {
	return &Copy{base: base{loc}, Source: src, Dest: dest}
}
func (c *Copy) String() string { return fmt.Sprintf("Copy(%s, %s)", c.Source, c.Dest) }
func (*Copy) isInstruction()   {}

// Call invokes Fun (a builtin, an operator intrinsic, or a user function)
// with Args, storing the result in Dest.
type Call struct {
	base
	Fun  Var
	Args []Var
	Dest Var
}

func NewCall(loc source.Location, fun Var, args []Var, dest Var) *Call {
	return &Call{base: base{loc}, Fun: fun, Args: args, Dest: dest}
}
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Name
	}
	return fmt.Sprintf("Call(%s, [%s], %s)", c.Fun, strings.Join(parts, ", "), c.Dest)
}
func (*Call) isInstruction() {}

// Jump is an unconditional branch.
type Jump struct {
	base
	Target *Label
}

func NewJump(loc source.Location, target *Label) *Jump {
	return &Jump{base: base{loc}, Target: target}
}
func (j *Jump) String() string { return fmt.Sprintf("Jump(%s)", j.Target.Name) }
func (*Jump) isInstruction()   {}

// CondJump branches to Then if Cond is true, Else otherwise.
type CondJump struct {
	base
	Cond Var
	Then *Label
	Else *Label
}

func NewCondJump(loc source.Location, cond Var, then, els *Label) *CondJump {
	return &CondJump{base: base{loc}, Cond: cond, Then: then, Else: els}
}
func (c *CondJump) String() string {
	return fmt.Sprintf("CondJump(%s, %s, %s)", c.Cond, c.Then.Name, c.Else.Name)
}
func (*CondJump) isInstruction() {}

// Return exits the current function, optionally carrying Var's value.
type Return struct {
	base
	Var *Var // nil for a bare return
}

func NewReturn(loc source.Location, v *Var) *Return {
	return &Return{base: base{loc}, Var: v}
}
func (r *Return) String() string {
	if r.Var == nil {
		return "Return(None)"
	}
	return fmt.Sprintf("Return(%s)", *r.Var)
}
func (*Return) isInstruction() {}
