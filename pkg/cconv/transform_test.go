package cconv

import (
	"testing"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

func bigRecord() ir.Record {
	i64 := ir.Primitive{Kind: ir.Integer64}
	return ir.Record{Fields: []ir.Type{i64, i64, i64}}
}

func TestTransformRejectsBadWordSize(t *testing.T) {
	for _, w := range []int{1, 2, 3, 5, 6, 7, 16} {
		if _, err := Transform(&ir.Module{}, w); err == nil || err.Kind != WordSize {
			t.Errorf("Transform with wordBytes=%d: err = %v, want WordSize error", w, err)
		}
	}
}

func TestTransformAcceptsStandardWordSizes(t *testing.T) {
	for _, w := range []int{4, 8} {
		if _, err := Transform(&ir.Module{}, w); err != nil {
			t.Errorf("Transform with wordBytes=%d: %v, want nil", w, err)
		}
	}
}

func TestTransformRewritesMemoryReturningDefinition(t *testing.T) {
	record := bigRecord()
	fn := ir.FunctionDefinition{
		Name:       "make_triple",
		ResultType: record,
		Body: &ir.Block{
			Terminal: ir.Return{Type: record, Expression: ir.RecordValue{
				Type: record,
				Fields: []ir.Expression{
					ir.Integer64Literal{Value: 1},
					ir.Integer64Literal{Value: 2},
					ir.Integer64Literal{Value: 3},
				},
			}},
		},
		Options: ir.FunctionDefinitionOptions{CallingConvention: ir.Target},
	}
	module := &ir.Module{FunctionDefinitions: []ir.FunctionDefinition{fn}}

	result, err := Transform(module, 8)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	got := result.FunctionDefinitions[0]
	if !ir.Identical(got.ResultType, ir.Void()) {
		t.Errorf("ResultType = %s, want void", got.ResultType)
	}
	if len(got.Arguments) != 1 || got.Arguments[0].Name != "make_triple.p" {
		t.Fatalf("Arguments = %v, want a single trailing out-parameter", got.Arguments)
	}
	ret, ok := got.Body.Terminal.(ir.Return)
	if !ok || !ir.Identical(ret.Type, ir.Void()) {
		t.Fatalf("Terminal = %v, want Return(void, ...)", got.Body.Terminal)
	}
	if len(got.Body.Instructions) != 1 {
		t.Fatalf("Instructions len = %d, want 1 (the synthesized store)", len(got.Body.Instructions))
	}
	store, ok := got.Body.Instructions[0].(ir.Store)
	if !ok {
		t.Fatalf("Instructions[0] = %T, want ir.Store", got.Body.Instructions[0])
	}
	if v, ok := store.Pointer.(ir.Variable); !ok || v.Name != "make_triple.p" {
		t.Errorf("store destination = %v, want make_triple.p", store.Pointer)
	}
}

func TestTransformLeavesSmallRecordUnchanged(t *testing.T) {
	i32 := ir.Primitive{Kind: ir.Integer32}
	small := ir.Record{Fields: []ir.Type{i32}}
	fn := ir.FunctionDefinition{
		Name:       "make_pair",
		ResultType: small,
		Body: &ir.Block{
			Terminal: ir.Return{Type: small, Expression: ir.RecordValue{Type: small, Fields: []ir.Expression{ir.Integer32Literal{Value: 1}}}},
		},
		Options: ir.FunctionDefinitionOptions{CallingConvention: ir.Target},
	}
	module := &ir.Module{FunctionDefinitions: []ir.FunctionDefinition{fn}}

	result, err := Transform(module, 8)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(result.FunctionDefinitions[0].Arguments) != 0 {
		t.Errorf("a record fitting in two words must not gain an out-parameter, got %v", result.FunctionDefinitions[0].Arguments)
	}
}

func TestTransformRewritesCallSite(t *testing.T) {
	record := bigRecord()
	calleeType := ir.Function{Result: record, Convention: ir.Target}
	caller := ir.FunctionDefinition{
		Name:       "uses_triple",
		ResultType: ir.Void(),
		Body: &ir.Block{
			Instructions: []ir.Instruction{
				ir.Call{Name: "t", Type: calleeType, Function: ir.Variable{Name: "make_triple"}},
			},
			Terminal: ir.Return{Type: ir.Void(), Expression: ir.VoidValue{}},
		},
		Options: ir.FunctionDefinitionOptions{CallingConvention: ir.Target},
	}
	module := &ir.Module{
		FunctionDeclarations: []ir.FunctionDeclaration{{Name: "make_triple", Type: calleeType}},
		FunctionDefinitions:  []ir.FunctionDefinition{caller},
	}

	result, err := Transform(module, 8)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	var rewrittenCaller ir.FunctionDefinition
	for _, fn := range result.FunctionDefinitions {
		if fn.Name == "uses_triple" {
			rewrittenCaller = fn
		}
	}
	if len(rewrittenCaller.Body.Instructions) != 3 {
		t.Fatalf("call site instructions = %d, want 3 (allocate, call, load)", len(rewrittenCaller.Body.Instructions))
	}
	if _, ok := rewrittenCaller.Body.Instructions[0].(ir.AllocateStack); !ok {
		t.Errorf("instructions[0] = %T, want AllocateStack", rewrittenCaller.Body.Instructions[0])
	}
	call, ok := rewrittenCaller.Body.Instructions[1].(ir.Call)
	if !ok {
		t.Fatalf("instructions[1] = %T, want ir.Call", rewrittenCaller.Body.Instructions[1])
	}
	if !ir.Identical(call.Type.Result, ir.Void()) {
		t.Errorf("rewritten call result type = %s, want void", call.Type.Result)
	}
	if len(call.Arguments) != 1 {
		t.Errorf("rewritten call arguments = %d, want 1 (the out-parameter pointer)", len(call.Arguments))
	}
	load, ok := rewrittenCaller.Body.Instructions[2].(ir.Load)
	if !ok {
		t.Fatalf("instructions[2] = %T, want ir.Load", rewrittenCaller.Body.Instructions[2])
	}
	if load.Name != "t" {
		t.Errorf("load result name = %s, want t (the original call's result name)", load.Name)
	}
}
