package freevar

import (
	"testing"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

func i32() ir.Type { return ir.Primitive{Kind: ir.Integer32} }

func TestCollectSimple(t *testing.T) {
	instructions := []ir.Instruction{
		ir.Assignment{Name: "r", Type: i32(), Expression: ir.Variable{Name: "a"}},
	}
	terminal := ir.Return{Type: i32(), Expression: ir.Variable{Name: "r"}}

	got := Collect(instructions, terminal)
	if _, ok := got["a"]; !ok {
		t.Error("expected \"a\" free")
	}
	if _, ok := got["r"]; ok {
		t.Error("\"r\" is bound, should not be free")
	}
}

func TestCollectThroughIfDoesNotLeakInnerBinding(t *testing.T) {
	instructions := []ir.Instruction{
		ir.If{
			Name:      "j",
			Type:      i32(),
			Condition: ir.Variable{Name: "cond"},
			Then: &ir.Block{
				Instructions: []ir.Instruction{
					ir.Assignment{Name: "inner", Type: i32(), Expression: ir.Variable{Name: "outer"}},
				},
				Terminal: ir.Branch{Type: i32(), Expression: ir.Variable{Name: "inner"}},
			},
			Else: &ir.Block{
				Terminal: ir.Branch{Type: i32(), Expression: ir.Integer32Literal{Value: 0}},
			},
		},
	}
	terminal := ir.Return{Type: i32(), Expression: ir.Variable{Name: "j"}}

	got := Collect(instructions, terminal)
	if _, ok := got["cond"]; !ok {
		t.Error("expected \"cond\" free")
	}
	if _, ok := got["outer"]; !ok {
		t.Error("expected \"outer\" free (referenced inside the then-arm)")
	}
	if _, ok := got["inner"]; ok {
		t.Error("\"inner\" is bound inside the then-arm, must not leak out as free")
	}
}

func TestCollectShadowing(t *testing.T) {
	instructions := []ir.Instruction{
		ir.Assignment{Name: "x", Type: i32(), Expression: ir.Variable{Name: "x"}},
	}
	terminal := ir.Return{Type: i32(), Expression: ir.Variable{Name: "x"}}

	got := Collect(instructions, terminal)
	if _, ok := got["x"]; !ok {
		t.Error("the right-hand-side reference to x precedes its own binding, so it must be free")
	}
}
