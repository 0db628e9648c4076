// Package asm lowers three-address IR to AT&T-syntax x86-64 assembly text
// for GNU `as`, one function at a time, with no register allocation: every
// IR-var lives in its own stack slot.
package asm

import (
	"fmt"
	"sort"
	"strings"

	"tinylang/internal/intrinsics"
	"tinylang/internal/ir"
)

var argRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// locals assigns every IR-var referenced by a function's instructions to a
// unique stack slot at -8*(i+1)(%rbp).
type locals struct {
	slot      map[string]string
	order     []ir.Var
	stackUsed int
}

func newLocals(vars []ir.Var) *locals {
	l := &locals{slot: make(map[string]string, len(vars)), order: vars}
	for i, v := range vars {
		l.slot[v.Name] = fmt.Sprintf("%d(%%rbp)", -8*(i+1))
	}
	l.stackUsed = len(vars) * 8
	return l
}

func (l *locals) ref(v ir.Var) string {
	s, ok := l.slot[v.Name]
	if !ok {
		panic(fmt.Sprintf("asm: variable %q has no stack slot", v.Name))
	}
	return s
}

func (l *locals) contains(v ir.Var) bool {
	_, ok := l.slot[v.Name]
	return ok
}

// Generate emits the assembly text for a whole compilation: one prologue
// block of .extern directives, then each function's instructions in turn.
// funcOrder fixes iteration order so output is deterministic across runs.
func Generate(funcs map[string][]ir.Instruction, funcOrder []string) string {
	var out []string
	emit := func(line string) { out = append(out, line) }

	emit(".extern print_int")
	emit(".extern print_bool")
	emit(".extern read_int")
	emit(".section .text")

	for _, name := range funcOrder {
		generateFunction(funcs[name], emit)
	}

	return strings.Join(out, "\n") + "\n"
}

func generateFunction(instructions []ir.Instruction, emit func(string)) {
	vars := collectVars(instructions)
	l := newLocals(vars)

	emit(fmt.Sprintf("# Stack used: %d", l.stackUsed))
	for _, v := range vars {
		emit(fmt.Sprintf("# %s in %s", v.Name, l.ref(v)))
	}

	for _, insn := range instructions {
		emit("# " + insn.String())
		switch n := insn.(type) {
		case *ir.Fun:
			emit(".global " + n.Name)
			emit(fmt.Sprintf(".type %s, @function", n.Name))
			emit(n.Name + ":")
			emit("pushq %rbp")
			emit("movq %rsp, %rbp")

			for i, p := range n.Params {
				if i >= 6 {
					break
				}
				if l.contains(p) {
					emit(fmt.Sprintf("movq %s, %s", argRegs[i], l.ref(p)))
				}
			}
			emit(fmt.Sprintf("subq $%d, %%rsp", l.stackUsed))

		case *ir.Label:
			emit("")
			emit(".L" + n.Name + ":")

		case *ir.LoadIntConst:
			if n.Value >= -(1<<31) && n.Value < (1<<31) {
				emit(fmt.Sprintf("movq $%d, %s", n.Value, l.ref(n.Dest)))
			} else {
				emit(fmt.Sprintf("movabsq $%d, %%rax", n.Value))
				emit(fmt.Sprintf("movq %%rax, %s", l.ref(n.Dest)))
			}

		case *ir.LoadBoolConst:
			v := 0
			if n.Value {
				v = 1
			}
			emit(fmt.Sprintf("movq $%d, %s", v, l.ref(n.Dest)))

		case *ir.Copy:
			emit(fmt.Sprintf("movq %s, %%rax", l.ref(n.Source)))
			emit(fmt.Sprintf("movq %%rax, %s", l.ref(n.Dest)))

		case *ir.CondJump:
			emit(fmt.Sprintf("movq %s, %%rax", l.ref(n.Cond)))
			emit("cmpq $0, %rax")
			emit("jne .L" + n.Then.Name)
			emit("jmp .L" + n.Else.Name)

		case *ir.Jump:
			emit("jmp .L" + n.Target.Name)

		case *ir.Call:
			generateCall(n, l, emit)

		case *ir.Return:
			if n.Var != nil {
				emit(fmt.Sprintf("movq %s, %%rax", l.ref(*n.Var)))
			} else {
				emit("movq $0, %rax")
			}
			emit("movq %rbp, %rsp")
			emit("popq %rbp")
			emit("ret")
		}
	}
}

func generateCall(n *ir.Call, l *locals, emit func(string)) {
	name := n.Fun.Name

	if intrinsic, ok := intrinsics.Table[name]; ok {
		argRefs := make([]string, len(n.Args))
		for i, a := range n.Args {
			argRefs[i] = l.ref(a)
		}
		intrinsic(intrinsics.Args{ArgRefs: argRefs, ResultReg: "%rax", Emit: emit})
		emit(fmt.Sprintf("movq %%rax, %s", l.ref(n.Dest)))
		return
	}

	argOffset := 0
	if len(n.Args) > 6 {
		argOffset = 8 * (len(n.Args) - 6)
	}
	offset := (l.stackUsed + argOffset) % 16
	if offset > 0 {
		emit(fmt.Sprintf("subq $%d, %%rsp", offset))
	}

	for i, a := range n.Args {
		if i < 6 {
			emit(fmt.Sprintf("movq %s, %s", l.ref(a), argRegs[i]))
		} else {
			emit(fmt.Sprintf("pushq %s", l.ref(a)))
		}
	}
	emit("callq " + name)
	emit(fmt.Sprintf("movq %%rax, %s", l.ref(n.Dest)))

	total := offset + argOffset
	if total > 0 {
		emit(fmt.Sprintf("addq $%d, %%rsp", total))
	}
}

// collectVars walks instructions and returns every distinct IR-var that
// appears as a field, in first-appearance order (made deterministic by a
// stable sort on first-seen index, matching the emitter's requirement that
// stack-slot assignment be reproducible across runs of the same input).
func collectVars(instructions []ir.Instruction) []ir.Var {
	seen := make(map[string]int)
	var names []string
	add := func(v ir.Var) {
		if _, ok := seen[v.Name]; !ok {
			seen[v.Name] = len(names)
			names = append(names, v.Name)
		}
	}

	for _, insn := range instructions {
		switch n := insn.(type) {
		case *ir.Fun:
			for _, p := range n.Params {
				add(p)
			}
		case *ir.LoadIntConst:
			add(n.Dest)
		case *ir.LoadBoolConst:
			add(n.Dest)
		case *ir.Copy:
			add(n.Source)
			add(n.Dest)
		case *ir.Call:
			add(n.Fun)
			for _, arg := range n.Args {
				add(arg)
			}
			add(n.Dest)
		case *ir.CondJump:
			add(n.Cond)
		case *ir.Return:
			if n.Var != nil {
				add(*n.Var)
			}
		}
	}

	sort.SliceStable(names, func(i, j int) bool { return seen[names[i]] < seen[names[j]] })
	out := make([]ir.Var, len(names))
	for i, n := range names {
		out[i] = ir.Var{Name: n}
	}
	return out
}
