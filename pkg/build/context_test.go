package build

import (
	"testing"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

func TestInstructionContextWithInstructionDoesNotMutateOriginal(t *testing.T) {
	base := From(TypedExpression{Expression: ir.Variable{Name: "x"}, Type: ir.Primitive{Kind: ir.Integer32}})
	extended := base.WithInstruction(ir.Assignment{Name: "y", Type: ir.Primitive{Kind: ir.Integer32}, Expression: ir.Variable{Name: "x"}})

	if len(base.Instructions) != 0 {
		t.Errorf("base.Instructions = %v, want untouched empty slice", base.Instructions)
	}
	if len(extended.Instructions) != 1 {
		t.Fatalf("extended.Instructions len = %d, want 1", len(extended.Instructions))
	}
}

func TestInstructionContextSplice(t *testing.T) {
	ctx := From(TypedExpression{Expression: ir.Variable{Name: "x"}, Type: ir.Primitive{Kind: ir.Integer32}}).
		WithInstruction(ir.Assignment{Name: "y", Type: ir.Primitive{Kind: ir.Integer32}, Expression: ir.Variable{Name: "x"}})

	b := NewInstructionBuilder(NewNameGenerator("t_"))
	result := ctx.Splice(b)

	if result.Expression.String() != "x" {
		t.Errorf("Splice result = %s, want x", result.Expression)
	}
	insts := b.IntoInstructions()
	if len(insts) != 1 {
		t.Fatalf("builder instructions after splice = %d, want 1", len(insts))
	}
}
