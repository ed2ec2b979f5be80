package localvar

import (
	"testing"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

func i32() ir.Type { return ir.Primitive{Kind: ir.Integer32} }

func TestCollectArgumentsAndInstructions(t *testing.T) {
	fn := ir.FunctionDefinition{
		Name:      "f",
		Arguments: []ir.Argument{{Name: "a", Type: i32()}},
		Body: &ir.Block{
			Instructions: []ir.Instruction{
				ir.Assignment{Name: "b", Type: i32(), Expression: ir.Variable{Name: "a"}},
			},
			Terminal: ir.Return{Type: i32(), Expression: ir.Variable{Name: "b"}},
		},
	}
	env := Collect(fn)
	if _, ok := env["a"]; !ok {
		t.Error("expected argument \"a\" in environment")
	}
	if _, ok := env["b"]; !ok {
		t.Error("expected instruction result \"b\" in environment")
	}
}

func TestCollectRecursesThroughIf(t *testing.T) {
	fn := ir.FunctionDefinition{
		Name: "f",
		Body: &ir.Block{
			Instructions: []ir.Instruction{
				ir.If{
					Name:      "j",
					Type:      i32(),
					Condition: ir.BooleanLiteral{Value: true},
					Then: &ir.Block{
						Instructions: []ir.Instruction{
							ir.Assignment{Name: "inner_then", Type: i32(), Expression: ir.Integer32Literal{Value: 1}},
						},
						Terminal: ir.Branch{Type: i32(), Expression: ir.Variable{Name: "inner_then"}},
					},
					Else: &ir.Block{
						Instructions: []ir.Instruction{
							ir.Assignment{Name: "inner_else", Type: i32(), Expression: ir.Integer32Literal{Value: 2}},
						},
						Terminal: ir.Branch{Type: i32(), Expression: ir.Variable{Name: "inner_else"}},
					},
				},
			},
			Terminal: ir.Return{Type: i32(), Expression: ir.Variable{Name: "j"}},
		},
	}
	env := Collect(fn)
	for _, name := range []string{"j", "inner_then", "inner_else"} {
		if _, ok := env[name]; !ok {
			t.Errorf("expected %q in environment", name)
		}
	}
}
