package cconv

import (
	"github.com/raymyers/ralph-cc/pkg/build"
	"github.com/raymyers/ralph-cc/pkg/ir"
)

// rewriteDefinition replaces a Target-convention definition whose result is
// a memory-returning record R with the out-parameter shape (spec.md §4.3
// "Function definition rewrite"): a trailing fresh argument "{name}.p : ptr
// R", a void result type, and every return(R, e) rewritten to
// store(R, e, "{name}.p"); return(void, void_value), recursively through if
// arms. Definitions that don't match are returned unchanged.
func rewriteDefinition(fn ir.FunctionDefinition, wordBytes int) (ir.FunctionDefinition, *Error) {
	if fn.Options.CallingConvention != ir.Target {
		return fn, nil
	}
	record, ok := fn.ResultType.(ir.Record)
	if !ok || !isMemoryReturning(record, wordBytes) {
		return fn, nil
	}

	outParam := fn.Name + ".p"
	outParamType := ir.Pointer{Content: record}

	fn.Arguments = append(append([]ir.Argument{}, fn.Arguments...), ir.Argument{Name: outParam, Type: outParamType})
	fn.ResultType = ir.Void()
	names := build.NewNameGenerator(outParam + ".store_")
	body, err := rewriteReturns(fn.Body, outParam, outParamType, record, names)
	if err != nil {
		return ir.FunctionDefinition{}, err
	}
	fn.Body = body
	return fn, nil
}

// rewriteReturns rewrites every return(R, e) reachable from b (recursing
// through if arms) into store(R, e, outParam); return(void, void_value),
// built through a fresh InstructionBuilder per return site (spec.md §4.1)
// rather than a raw ir.Store literal. Each synthesized store gets a fresh
// name from names, since a function with multiple return sites (e.g. both
// if arms) would otherwise bind the same store name twice, violating
// per-function name uniqueness even though only one textual occurrence
// ever executes on a given path.
func rewriteReturns(b *ir.Block, outParam string, outParamType ir.Pointer, record ir.Record, names *build.NameGenerator) (*ir.Block, *Error) {
	instructions := make([]ir.Instruction, len(b.Instructions))
	for i, inst := range b.Instructions {
		if ifInst, ok := inst.(ir.If); ok {
			newThen, err := rewriteReturns(ifInst.Then, outParam, outParamType, record, names)
			if err != nil {
				return nil, err
			}
			newElse, err := rewriteReturns(ifInst.Else, outParam, outParamType, record, names)
			if err != nil {
				return nil, err
			}
			ifInst.Then = newThen
			ifInst.Else = newElse
			instructions[i] = ifInst
			continue
		}
		instructions[i] = inst
	}

	ret, ok := b.Terminal.(ir.Return)
	if !ok {
		return &ir.Block{Instructions: instructions, Terminal: b.Terminal}, nil
	}
	builder := build.NewInstructionBuilder(names)
	if err := builder.Store(
		build.TypedExpression{Expression: ret.Expression, Type: record},
		build.TypedExpression{Expression: ir.Variable{Name: outParam}, Type: outParamType},
	); err != nil {
		return nil, newError(BuildError, "return store in %s: %s", outParam, err)
	}
	instructions = append(instructions, builder.IntoInstructions()...)
	return &ir.Block{
		Instructions: instructions,
		Terminal:     ir.Return{Type: ir.Void(), Expression: ir.VoidValue{}},
	}, nil
}
