package cconv

import (
	"github.com/raymyers/ralph-cc/pkg/build"
	"github.com/raymyers/ralph-cc/pkg/ir"
)

// rewriteCallSites walks block recursively (through if arms) and replaces
// every Call matching the memory-returning Target criterion with the
// allocate/call/load sequence from spec.md §4.3 "Call-site rewrite".
func rewriteCallSites(block *ir.Block, wordBytes int) (*ir.Block, *Error) {
	instructions := make([]ir.Instruction, 0, len(block.Instructions))
	for _, inst := range block.Instructions {
		if ifInst, ok := inst.(ir.If); ok {
			newThen, err := rewriteCallSites(ifInst.Then, wordBytes)
			if err != nil {
				return nil, err
			}
			newElse, err := rewriteCallSites(ifInst.Else, wordBytes)
			if err != nil {
				return nil, err
			}
			ifInst.Then = newThen
			ifInst.Else = newElse
			instructions = append(instructions, ifInst)
			continue
		}
		call, ok := inst.(ir.Call)
		if !ok || call.Type.Convention != ir.Target {
			instructions = append(instructions, inst)
			continue
		}
		record, ok := call.Type.Result.(ir.Record)
		if !ok || !isMemoryReturning(record, wordBytes) {
			instructions = append(instructions, inst)
			continue
		}
		expanded, err := rewriteCallSite(call, record)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, expanded...)
	}
	return &ir.Block{Instructions: instructions, Terminal: block.Terminal}, nil
}

// rewriteCallSite expands a single memory-returning Target call into:
// allocate a stack slot in a fresh "{call.Name}_c_"-scoped generator,
// rewrite the call to pass the slot as a trailing out-parameter and bind
// its now-void result to the generator's next name, then load the slot
// back into the call's original result name. Built through the shared
// InstructionBuilder (spec.md §4.1) rather than raw instruction literals,
// the same collaborator the CPS split/bridge paths use.
func rewriteCallSite(call ir.Call, record ir.Record) ([]ir.Instruction, *Error) {
	if _, ok := call.Function.(ir.Variable); !ok {
		return nil, newError(UnsupportedCalleeShape, "call %s: non-variable callee expression %T", call.Name, call.Function)
	}

	b := build.NewInstructionBuilder(build.NewNameGenerator(call.Name + "_c_"))
	slot := b.AllocateStack(record)

	fnType := rewrittenFunctionType(call.Type, record)
	args := make([]build.TypedExpression, 0, len(call.Arguments)+1)
	for i, a := range call.Arguments {
		args = append(args, build.TypedExpression{Expression: a, Type: fnType.Arguments[i]})
	}
	args = append(args, slot)

	if _, err := b.Call(build.TypedExpression{Expression: call.Function, Type: fnType}, args); err != nil {
		return nil, newError(BuildError, "call %s: %s", call.Name, err)
	}

	// The result must keep the original call's name (so later uses of it
	// stay well-typed), not a generator-fresh one, so this is spliced
	// directly rather than through InstructionBuilder.Load.
	b.AddInstruction(ir.Load{Name: call.Name, Type: record, Pointer: slot.Expression})

	return b.IntoInstructions(), nil
}
