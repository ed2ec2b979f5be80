// Package freevar computes the set of names an instruction list and
// terminal reference but do not bind (spec.md §4.5), walking top-down and
// subtracting binders as it goes so that a later free occurrence of a
// shadowed name is not re-added.
package freevar

import (
	"sort"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

// Set is a set of variable names.
type Set map[string]struct{}

// Collect returns the names free in instructions and terminal: referenced
// but not bound by an earlier instruction in the same list.
func Collect(instructions []ir.Instruction, terminal ir.Terminal) Set {
	bound := make(Set)
	free := make(Set)
	for _, inst := range instructions {
		addInstruction(inst, bound, free)
		bound[inst.ResultName()] = struct{}{}
	}
	addTerminal(terminal, bound, free)
	return free
}

// Names returns free as a sorted slice, for deterministic iteration.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func addInstruction(inst ir.Instruction, bound, free Set) {
	switch i := inst.(type) {
	case ir.Call:
		addExpression(i.Function, bound, free)
		for _, a := range i.Arguments {
			addExpression(a, bound, free)
		}
	case ir.Load:
		addExpression(i.Pointer, bound, free)
	case ir.Store:
		addExpression(i.Value, bound, free)
		addExpression(i.Pointer, bound, free)
	case ir.AtomicLoad:
		addExpression(i.Pointer, bound, free)
	case ir.AtomicStore:
		addExpression(i.Value, bound, free)
		addExpression(i.Pointer, bound, free)
	case ir.AtomicCompareAndSwap:
		addExpression(i.Pointer, bound, free)
		addExpression(i.Expected, bound, free)
		addExpression(i.New, bound, free)
	case ir.AllocateStack:
		// no operand expressions
	case ir.AllocateHeap:
		// no operand expressions
	case ir.ReallocateHeap:
		addExpression(i.Pointer, bound, free)
		addExpression(i.Size, bound, free)
	case ir.MemoryCopy:
		addExpression(i.Source, bound, free)
		addExpression(i.Destination, bound, free)
		addExpression(i.Size, bound, free)
	case ir.DeconstructRecord:
		addExpression(i.Record, bound, free)
	case ir.DeconstructUnion:
		addExpression(i.Union, bound, free)
	case ir.PassThrough:
		addExpression(i.Expression, bound, free)
	case ir.Assignment:
		addExpression(i.Expression, bound, free)
	case ir.If:
		addExpression(i.Condition, bound, free)
		nested := Collect(i.Then.Instructions, i.Then.Terminal)
		for n := range nested {
			if _, isBound := bound[n]; !isBound {
				free[n] = struct{}{}
			}
		}
		nested = Collect(i.Else.Instructions, i.Else.Terminal)
		for n := range nested {
			if _, isBound := bound[n]; !isBound {
				free[n] = struct{}{}
			}
		}
	case ir.Builtin:
		for _, a := range i.Arguments {
			addExpression(a, bound, free)
		}
	}
}

func addTerminal(term ir.Terminal, bound, free Set) {
	switch t := term.(type) {
	case ir.Return:
		addExpression(t.Expression, bound, free)
	case ir.Branch:
		addExpression(t.Expression, bound, free)
	case ir.Unreachable:
		// no operands
	}
}

func addExpression(expr ir.Expression, bound, free Set) {
	switch e := expr.(type) {
	case ir.Variable:
		if _, isBound := bound[e.Name]; !isBound {
			free[e.Name] = struct{}{}
		}
	case ir.RecordValue:
		for _, f := range e.Fields {
			addExpression(f, bound, free)
		}
	case ir.UnionValue:
		addExpression(e.Value, bound, free)
	case ir.BitCast:
		addExpression(e.Value, bound, free)
	case ir.ArithmeticOperation:
		addExpression(e.LHS, bound, free)
		addExpression(e.RHS, bound, free)
	case ir.ComparisonOperation:
		addExpression(e.LHS, bound, free)
		addExpression(e.RHS, bound, free)
	case ir.RecordAddress:
		addExpression(e.Base, bound, free)
	case ir.UnionAddress:
		addExpression(e.Base, bound, free)
	case ir.PointerAddress:
		addExpression(e.Base, bound, free)
		addExpression(e.Offset, bound, free)
	default:
		// Undefined, VoidValue, literals, SizeOf, AlignOf: no operands.
	}
}
