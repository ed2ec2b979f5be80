package cps

import (
	"github.com/raymyers/ralph-cc/pkg/build"
	"github.com/raymyers/ralph-cc/pkg/ir"
)

// StackType is the type of "_s", the opaque runtime stack handle. spec.md's
// closed type algebra has no dedicated "stack" type, so an opaque handle is
// modeled as the pointer-integer primitive already in that algebra — the
// natural fit for a value the program only ever passes around and never
// inspects structurally.
func StackType() ir.Type {
	return ir.Primitive{Kind: ir.PointerInteger}
}

// Stack push/pop/create/destroy are stack-discipline primitives the
// runtime provides and the backend lowers (spec.md §4.4). spec.md's closed
// Instruction list has no push/pop node, so this repository realizes them
// as calls to well-known builtin operations via ir.Builtin — the same
// pattern the teacher uses for runtime primitives not modeled as ordinary
// calls (Sbuiltin/Ibuiltin/Mbuiltin in pkg/cminor, pkg/rtl, pkg/mach).

const (
	opStackCreate  = "stack.create"
	opStackDestroy = "stack.destroy"
	opStackPush    = "stack.push"
	opStackPop     = "stack.pop"
)

// createStack creates a fresh runtime stack, returning the instruction and
// the fresh name it binds the new stack handle to.
func createStack(names *build.NameGenerator) (ir.Instruction, string) {
	name := names.Next()
	return ir.Builtin{Name: name, Type: StackType(), Op: opStackCreate}, name
}

func destroyStack(names *build.NameGenerator, stack ir.Expression) ir.Instruction {
	return ir.Builtin{Name: names.Next(), Type: ir.Void(), Op: opStackDestroy, Arguments: []ir.Expression{stack}}
}

func pushStack(names *build.NameGenerator, stack ir.Expression, value ir.Expression) ir.Instruction {
	return ir.Builtin{Name: names.Next(), Type: ir.Void(), Op: opStackPush, Arguments: []ir.Expression{stack, value}}
}

// popStack pops a value of recordType off stack, returning the instruction
// and the fresh name it binds the popped value to.
func popStack(names *build.NameGenerator, stack ir.Expression, recordType ir.Type) (ir.Instruction, string) {
	name := names.Next()
	return ir.Builtin{Name: name, Type: recordType, Op: opStackPop, Arguments: []ir.Expression{stack}}, name
}
