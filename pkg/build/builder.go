package build

import (
	"fmt"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

// TypedExpression pairs an expression with its statically known type, the
// shape every builder method returns so callers never have to re-derive a
// type the builder already knows.
type TypedExpression struct {
	Expression ir.Expression
	Type       ir.Type
}

// Var returns e as a plain Variable reference of the same type when its
// expression is a Variable; any other expression is returned unchanged.
func (e TypedExpression) Var() TypedExpression {
	v, ok := e.Expression.(ir.Variable)
	if !ok {
		return e
	}
	return TypedExpression{Expression: v, Type: e.Type}
}

// InstructionBuilder accumulates an ordered instruction list and offers
// convenience constructors for the instructions the two transforms emit
// most: allocate-stack, load, store, call, and splicing pre-built
// instructions. Names for bound results come from the generator it is
// constructed with.
type InstructionBuilder struct {
	names        *NameGenerator
	instructions []ir.Instruction
}

// NewInstructionBuilder creates a builder that names results from names.
func NewInstructionBuilder(names *NameGenerator) *InstructionBuilder {
	return &InstructionBuilder{names: names}
}

// AllocateStack emits a stack allocation of content, returning its pointer.
func (b *InstructionBuilder) AllocateStack(content ir.Type) TypedExpression {
	name := b.names.Next()
	b.instructions = append(b.instructions, ir.AllocateStack{Name: name, Content: content})
	return TypedExpression{Expression: ir.Variable{Name: name}, Type: ir.Pointer{Content: content}}
}

// Load emits a load through pointer, which must have type Pointer.
func (b *InstructionBuilder) Load(pointer TypedExpression) (TypedExpression, error) {
	ptrType, ok := pointer.Type.(ir.Pointer)
	if !ok {
		return TypedExpression{}, fmt.Errorf("build: load of non-pointer type %s", pointer.Type)
	}
	name := b.names.Next()
	b.instructions = append(b.instructions, ir.Load{Name: name, Type: ptrType.Content, Pointer: pointer.Expression})
	return TypedExpression{Expression: ir.Variable{Name: name}, Type: ptrType.Content}, nil
}

// Store emits a store of value through dest, which must point to value's type.
func (b *InstructionBuilder) Store(value TypedExpression, dest TypedExpression) error {
	ptrType, ok := dest.Type.(ir.Pointer)
	if !ok {
		return fmt.Errorf("build: store into non-pointer type %s", dest.Type)
	}
	if !ir.Identical(ptrType.Content, value.Type) {
		return fmt.Errorf("build: store type mismatch: dest holds %s, value is %s", ptrType.Content, value.Type)
	}
	name := b.names.Next()
	b.instructions = append(b.instructions, ir.Store{Name: name, Value: value.Expression, Pointer: dest.Expression})
	return nil
}

// Call emits a call to fn with args, naming the result from the generator.
func (b *InstructionBuilder) Call(fn TypedExpression, args []TypedExpression) (TypedExpression, error) {
	fnType, ok := fn.Type.(ir.Function)
	if !ok {
		return TypedExpression{}, fmt.Errorf("build: call of non-function type %s", fn.Type)
	}
	if len(fnType.Arguments) != len(args) {
		return TypedExpression{}, fmt.Errorf("build: call argument count mismatch: want %d, got %d", len(fnType.Arguments), len(args))
	}
	exprs := make([]ir.Expression, len(args))
	for i, a := range args {
		exprs[i] = a.Expression
	}
	name := b.names.Next()
	b.instructions = append(b.instructions, ir.Call{Name: name, Type: fnType, Function: fn.Expression, Arguments: exprs})
	return TypedExpression{Expression: ir.Variable{Name: name}, Type: fnType.Result}, nil
}

// AddInstruction splices a pre-built instruction into the accumulated list.
func (b *InstructionBuilder) AddInstruction(inst ir.Instruction) {
	b.instructions = append(b.instructions, inst)
}

// IntoInstructions drains and returns the accumulated instruction list,
// leaving the builder empty for reuse.
func (b *InstructionBuilder) IntoInstructions() []ir.Instruction {
	out := b.instructions
	b.instructions = nil
	return out
}
