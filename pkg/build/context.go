package build

import "github.com/raymyers/ralph-cc/pkg/ir"

// InstructionContext pairs a captured instruction list with the expression
// that list ultimately produces, grounded on fmm's instruction_context.rs
// (InstructionContext{instructions, expression}). It is the shape used when
// a helper needs to both build instructions and hand back a usable value —
// the CPS transform's continuation-environment restore is one such helper.
type InstructionContext struct {
	Instructions []ir.Instruction
	Expression   TypedExpression
}

// From wraps an already-known expression with no attached instructions.
func From(value TypedExpression) InstructionContext {
	return InstructionContext{Expression: value}
}

// WithInstruction returns a copy of c with inst appended to its instruction list.
func (c InstructionContext) WithInstruction(inst ir.Instruction) InstructionContext {
	instructions := make([]ir.Instruction, 0, len(c.Instructions)+1)
	instructions = append(instructions, c.Instructions...)
	instructions = append(instructions, inst)
	return InstructionContext{Instructions: instructions, Expression: c.Expression}
}

// Splice appends c's captured instructions to a block builder's accumulated
// list and returns c's final expression for further use.
func (c InstructionContext) Splice(b *InstructionBuilder) TypedExpression {
	for _, inst := range c.Instructions {
		b.AddInstruction(inst)
	}
	return c.Expression
}
