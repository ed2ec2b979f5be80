package cps

import (
	"testing"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

func i32() ir.Type { return ir.Primitive{Kind: ir.Integer32} }

func TestTransformIdempotentOnTailOnlyModule(t *testing.T) {
	fn := ir.FunctionDefinition{
		Name:       "f",
		Arguments:  []ir.Argument{{Name: "x", Type: i32()}},
		ResultType: i32(),
		Body:       &ir.Block{Terminal: ir.Return{Type: i32(), Expression: ir.Variable{Name: "x"}}},
		Options:    ir.FunctionDefinitionOptions{CallingConvention: ir.Tail},
	}
	module := &ir.Module{FunctionDefinitions: []ir.FunctionDefinition{fn}}

	got, err := Transform(module, i32())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got != module {
		t.Error("Transform on a module with no Source conventions must return the input module unchanged (idempotence)")
	}
}

func TestTransformTailCall(t *testing.T) {
	gType := ir.Function{Arguments: []ir.Type{i32()}, Result: i32(), Convention: ir.Source}
	fBody := &ir.Block{
		Instructions: []ir.Instruction{
			ir.Call{Name: "r", Type: gType, Function: ir.Variable{Name: "g"}, Arguments: []ir.Expression{ir.Variable{Name: "x"}}},
		},
		Terminal: ir.Return{Type: i32(), Expression: ir.Variable{Name: "r"}},
	}
	f := ir.FunctionDefinition{
		Name:       "f",
		Arguments:  []ir.Argument{{Name: "x", Type: i32()}},
		ResultType: i32(),
		Body:       fBody,
		Options:    ir.FunctionDefinitionOptions{CallingConvention: ir.Source},
	}
	module := &ir.Module{
		FunctionDeclarations: []ir.FunctionDeclaration{{Name: "g", Type: gType}},
		FunctionDefinitions:  []ir.FunctionDefinition{f},
	}

	result, err := Transform(module, i32())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	var transformed ir.FunctionDefinition
	found := false
	for _, fn := range result.FunctionDefinitions {
		if fn.Name == "f" {
			transformed = fn
			found = true
		}
	}
	if !found {
		t.Fatal("transformed function \"f\" not found in output")
	}

	if len(transformed.Arguments) != 3 || transformed.Arguments[0].Name != "_s" || transformed.Arguments[1].Name != "_k" {
		t.Fatalf("arguments = %v, want [_s, _k, x]", transformed.Arguments)
	}
	if transformed.Options.CallingConvention != ir.Tail {
		t.Errorf("calling convention = %v, want Tail", transformed.Options.CallingConvention)
	}
	if len(transformed.Body.Instructions) != 1 {
		t.Fatalf("body instructions = %d, want 1 (tail call in place, no split)", len(transformed.Body.Instructions))
	}
	call, ok := transformed.Body.Instructions[0].(ir.Call)
	if !ok {
		t.Fatalf("instructions[0] = %T, want ir.Call", transformed.Body.Instructions[0])
	}
	if call.Name != "_k_0" {
		t.Errorf("tail call result name = %s, want _k_0 (first fresh name minted in the module)", call.Name)
	}
	if len(call.Arguments) != 3 {
		t.Fatalf("call arguments = %d, want 3 (_s, _k, x)", len(call.Arguments))
	}
	ret, ok := transformed.Body.Terminal.(ir.Return)
	if !ok {
		t.Fatalf("terminal = %T, want ir.Return", transformed.Body.Terminal)
	}
	if v, ok := ret.Expression.(ir.Variable); !ok || v.Name != "_k_0" {
		t.Errorf("terminal expression = %v, want _k_0", ret.Expression)
	}

	for _, d := range result.FunctionDeclarations {
		if d.Name == "g" && d.Type.Convention != ir.Tail {
			t.Errorf("declaration g convention = %v, want Tail", d.Type.Convention)
		}
	}
}

// TestTransformSplitsSharedFreeVariableAcrossTwoCalls covers two Source
// calls that both pass the function argument x: x must survive in the
// environment record pushed before the first split (its remainder still
// calls g(x)), and every continuation that references x must restore it via
// a deconstruct.
func TestTransformSplitsSharedFreeVariableAcrossTwoCalls(t *testing.T) {
	gType := ir.Function{Arguments: []ir.Type{i32()}, Result: i32(), Convention: ir.Source}
	fBody := &ir.Block{
		Instructions: []ir.Instruction{
			ir.Call{Name: "a", Type: gType, Function: ir.Variable{Name: "g"}, Arguments: []ir.Expression{ir.Variable{Name: "x"}}},
			ir.Call{Name: "b", Type: gType, Function: ir.Variable{Name: "g"}, Arguments: []ir.Expression{ir.Variable{Name: "x"}}},
		},
		Terminal: ir.Return{
			Type: i32(),
			Expression: ir.ArithmeticOperation{
				Type: i32(), Op: ir.Add,
				LHS: ir.Variable{Name: "a"},
				RHS: ir.Variable{Name: "b"},
			},
		},
	}
	f := ir.FunctionDefinition{
		Name:       "f",
		Arguments:  []ir.Argument{{Name: "x", Type: i32()}},
		ResultType: i32(),
		Body:       fBody,
		Options:    ir.FunctionDefinitionOptions{CallingConvention: ir.Source},
	}
	module := &ir.Module{
		FunctionDeclarations: []ir.FunctionDeclaration{{Name: "g", Type: gType}},
		FunctionDefinitions:  []ir.FunctionDefinition{f},
	}

	result, err := Transform(module, i32())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	var continuations []ir.FunctionDefinition
	for _, fn := range result.FunctionDefinitions {
		if fn.Name != "f" {
			continuations = append(continuations, fn)
		}
	}
	if len(continuations) != 2 {
		t.Fatalf("synthesized continuation count = %d, want 2 (one per split call)", len(continuations))
	}

	// Only the first continuation's environment needs to carry x forward
	// (it still has the second call ahead); the second continuation has
	// nothing left referencing x, so it need not restore it. Either way,
	// whichever continuation bodies still reference x as a free variable
	// must restore it via a deconstruct before using it.
	for _, cont := range continuations {
		refsX := false
		for _, inst := range cont.Body.Instructions {
			if call, ok := inst.(ir.Call); ok {
				for _, arg := range call.Arguments {
					if v, ok := arg.(ir.Variable); ok && v.Name == "x" {
						refsX = true
					}
				}
			}
		}
		if !refsX {
			continue
		}
		restored := false
		for _, inst := range cont.Body.Instructions {
			if dr, ok := inst.(ir.DeconstructRecord); ok && dr.Name == "x" {
				restored = true
			}
		}
		if !restored {
			t.Errorf("continuation %s references x but never restores it via DeconstructRecord", cont.Name)
		}
	}
}

func TestTransformSplitsNonTailCall(t *testing.T) {
	gType := ir.Function{Arguments: []ir.Type{i32()}, Result: i32(), Convention: ir.Source}
	fBody := &ir.Block{
		Instructions: []ir.Instruction{
			ir.Call{Name: "r", Type: gType, Function: ir.Variable{Name: "g"}, Arguments: []ir.Expression{ir.Variable{Name: "x"}}},
			ir.Assignment{
				Name: "y",
				Type: i32(),
				Expression: ir.ArithmeticOperation{
					Type: i32(), Op: ir.Add,
					LHS: ir.Variable{Name: "r"},
					RHS: ir.Integer32Literal{Value: 1},
				},
			},
		},
		Terminal: ir.Return{Type: i32(), Expression: ir.Variable{Name: "y"}},
	}
	f := ir.FunctionDefinition{
		Name:       "f",
		Arguments:  []ir.Argument{{Name: "x", Type: i32()}},
		ResultType: i32(),
		Body:       fBody,
		Options:    ir.FunctionDefinitionOptions{CallingConvention: ir.Source},
	}
	module := &ir.Module{
		FunctionDeclarations: []ir.FunctionDeclaration{{Name: "g", Type: gType}},
		FunctionDefinitions:  []ir.FunctionDefinition{f},
	}

	result, err := Transform(module, i32())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	var continuation *ir.FunctionDefinition
	for i := range result.FunctionDefinitions {
		fn := &result.FunctionDefinitions[i]
		if fn.Name != "f" {
			continuation = fn
		}
	}
	if continuation == nil {
		t.Fatal("expected a synthesized continuation function alongside f")
	}
	if len(continuation.Arguments) != 2 || continuation.Arguments[0].Name != "_s" || continuation.Arguments[1].Name != "r" {
		t.Fatalf("continuation arguments = %v, want [_s, r] (the split call's own result name)", continuation.Arguments)
	}
	if continuation.Options.CallingConvention != ir.Tail {
		t.Errorf("continuation calling convention = %v, want Tail", continuation.Options.CallingConvention)
	}

	var transformedF ir.FunctionDefinition
	for _, fn := range result.FunctionDefinitions {
		if fn.Name == "f" {
			transformedF = fn
		}
	}
	lastInst := transformedF.Body.Instructions[len(transformedF.Body.Instructions)-1]
	call, ok := lastInst.(ir.Call)
	if !ok {
		t.Fatalf("last instruction = %T, want ir.Call (the tail call into the continuation)", lastInst)
	}
	if call.Arguments[1].String() != continuation.Name {
		t.Errorf("split call's continuation argument = %s, want %s", call.Arguments[1], continuation.Name)
	}
}
