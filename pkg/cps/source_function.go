package cps

import (
	"sort"

	"github.com/raymyers/ralph-cc/pkg/build"
	"github.com/raymyers/ralph-cc/pkg/freevar"
	"github.com/raymyers/ralph-cc/pkg/ir"
	"github.com/raymyers/ralph-cc/pkg/localvar"
	"github.com/raymyers/ralph-cc/pkg/typecheck"
)

const stackArgumentName = "_s"
const continuationArgumentName = "_k"

// ContinuationType is the type of a Source function's continuation
// argument: fn(_s, R) → RT under the Tail convention, where R is the
// function's own result type and RT is the module's final result type.
func ContinuationType(resultType, finalResultType ir.Type) ir.Function {
	return ir.Function{
		Arguments:  []ir.Type{StackType(), resultType},
		Result:     finalResultType,
		Convention: ir.Tail,
	}
}

func tailCallType(original ir.Function, finalResultType ir.Type) ir.Function {
	contType := ContinuationType(original.Result, finalResultType)
	args := make([]ir.Type, 0, len(original.Arguments)+2)
	args = append(args, StackType(), contType)
	args = append(args, original.Arguments...)
	return ir.Function{Arguments: args, Result: finalResultType, Convention: ir.Tail}
}

// Transform rewrites every Source-convention function definition and
// declaration in module into Tail-convention form (spec.md §4.4). It
// type-checks its input and is idempotent on a module already free of
// Source conventions. Its output is type-checked only when no
// Target-convention body in module calls a Source function; otherwise the
// output is returned unchecked.
func Transform(module *ir.Module, finalResultType ir.Type) (*ir.Module, *Error) {
	if err := typecheck.Check(module); err != nil {
		return nil, newError(TypeMismatch, "input module: %s", err)
	}

	if !hasSourceConvention(module) {
		return module, nil
	}

	newDeclarations := make([]ir.FunctionDeclaration, len(module.FunctionDeclarations))
	for i, d := range module.FunctionDeclarations {
		if d.Type.Convention == ir.Source {
			newDeclarations[i] = ir.FunctionDeclaration{Name: d.Name, Type: tailCallType(d.Type, finalResultType)}
		} else {
			newDeclarations[i] = d
		}
	}

	ctx := &transformContext{finalResultType: finalResultType}

	newDefinitions := make([]ir.FunctionDefinition, len(module.FunctionDefinitions))
	for i, fn := range module.FunctionDefinitions {
		if fn.Options.CallingConvention != ir.Source {
			newDefinitions[i] = fn
			continue
		}
		transformed, err := transformFunctionDefinition(fn, finalResultType, ctx)
		if err != nil {
			return nil, err
		}
		newDefinitions[i] = transformed
	}
	newDefinitions = append(newDefinitions, ctx.synthesized...)

	result := &ir.Module{
		VariableDeclarations: module.VariableDeclarations,
		FunctionDeclarations: newDeclarations,
		VariableDefinitions:  module.VariableDefinitions,
		FunctionDefinitions:  newDefinitions,
	}

	// A Target-convention function body that calls one of the
	// just-retyped Source functions still holds the stale Source-typed
	// Call from before this pass ran; BridgeTargetCallers is what
	// rewrites that call site, not Transform. Checking the whole module
	// here would reject that known, expected, and temporary
	// inconsistency, so the full re-check only runs when no such
	// pending bridge site exists.
	if !hasUnbridgedTargetCallers(module) {
		if err := typecheck.Check(result); err != nil {
			return nil, newError(TypeMismatch, "output module: %s", err)
		}
	}
	return result, nil
}

// hasUnbridgedTargetCallers reports whether any Target-convention function
// body in module still contains a Call of Source convention — a call site
// BridgeTargetCallers has not yet rewritten.
func hasUnbridgedTargetCallers(module *ir.Module) bool {
	for _, fn := range module.FunctionDefinitions {
		if fn.Options.CallingConvention == ir.Target && blockCallsSource(fn.Body) {
			return true
		}
	}
	return false
}

func blockCallsSource(b *ir.Block) bool {
	for _, inst := range b.Instructions {
		switch i := inst.(type) {
		case ir.Call:
			if i.Type.Convention == ir.Source {
				return true
			}
		case ir.If:
			if blockCallsSource(i.Then) || blockCallsSource(i.Else) {
				return true
			}
		}
	}
	return false
}

func hasSourceConvention(module *ir.Module) bool {
	for _, d := range module.FunctionDeclarations {
		if d.Type.Convention == ir.Source {
			return true
		}
	}
	for _, f := range module.FunctionDefinitions {
		if f.Options.CallingConvention == ir.Source {
			return true
		}
	}
	return false
}

// transformContext accumulates the top-level continuation functions
// synthesized while splitting non-tail Source calls across the whole
// module, and owns the "_k_"-prefixed result-name generator shared by every
// function transformed in one Transform call — shared, rather than
// per-function, so that two Source functions in the same module never
// generate the same fresh result name.
type transformContext struct {
	finalResultType ir.Type
	synthesized     []ir.FunctionDefinition
	resultNames     *build.NameGenerator
}

// funcState carries the per-function context the splitting algorithm needs:
// the function's own stack/continuation variables and types, its original
// (pre-transform) local-variable environment — used to filter and type
// continuation-environment fields — and the name generators scoped to it.
type funcState struct {
	stackVar    ir.Expression
	contVar     ir.Expression
	contType    ir.Function
	localEnv    localvar.Environment
	resultNames *build.NameGenerator // shared module-wide "_k_" generator (see transformContext)
	contNames   *build.NameGenerator // "{fn}_cont_"-prefixed: synthesized continuation function names
	tmpNames    *build.NameGenerator // "{fn}_cps_tmp_"-prefixed: internal push/pop bookkeeping names
}

func transformFunctionDefinition(fn ir.FunctionDefinition, finalResultType ir.Type, ctx *transformContext) (ir.FunctionDefinition, *Error) {
	if ctx.resultNames == nil {
		ctx.resultNames = build.NewNameGenerator(continuationArgumentName + "_")
	}

	contType := ContinuationType(fn.ResultType, finalResultType)
	newArgs := make([]ir.Argument, 0, len(fn.Arguments)+2)
	newArgs = append(newArgs,
		ir.Argument{Name: stackArgumentName, Type: StackType()},
		ir.Argument{Name: continuationArgumentName, Type: contType},
	)
	newArgs = append(newArgs, fn.Arguments...)

	state := &funcState{
		stackVar:    ir.Variable{Name: stackArgumentName},
		contVar:     ir.Variable{Name: continuationArgumentName},
		contType:    contType,
		localEnv:    localvar.Collect(fn),
		resultNames: ctx.resultNames,
		contNames:   build.NewNameGenerator(fn.Name + "_cont_"),
		tmpNames:    build.NewNameGenerator(fn.Name + "_cps_tmp_"),
	}

	body, err := transformBlockRecursively(fn.Body, state, ctx)
	if err != nil {
		return ir.FunctionDefinition{}, err
	}

	return ir.FunctionDefinition{
		Name:       fn.Name,
		Arguments:  newArgs,
		ResultType: finalResultType,
		Body:       body,
		Options: ir.FunctionDefinitionOptions{
			Linkage:           fn.Options.Linkage,
			CallingConvention: ir.Tail,
			AddressNamed:      fn.Options.AddressNamed,
		},
	}, nil
}

// transformBlockRecursively implements the worklist: it transforms block
// once, and if that produced a continuation function whose own body still
// contains Source calls, those are in turn transformed when the
// continuation is built (transformSplitCall runs transformBlock again on the
// remaining instructions), so by construction no continuation is left
// untransformed.
func transformBlockRecursively(block *ir.Block, state *funcState, ctx *transformContext) (*ir.Block, *Error) {
	return transformBlock(block, state, ctx)
}

func transformBlock(block *ir.Block, state *funcState, ctx *transformContext) (*ir.Block, *Error) {
	processed := make([]ir.Instruction, 0, len(block.Instructions))
	for idx, inst := range block.Instructions {
		call, ok := inst.(ir.Call)
		if !ok {
			if ifInst, isIf := inst.(ir.If); isIf {
				newThen, err := transformBlock(ifInst.Then, state, ctx)
				if err != nil {
					return nil, err
				}
				newElse, err := transformBlock(ifInst.Else, state, ctx)
				if err != nil {
					return nil, err
				}
				ifInst.Then = newThen
				ifInst.Else = newElse
				processed = append(processed, ifInst)
				continue
			}
			processed = append(processed, inst)
			continue
		}
		if call.Type.Convention != ir.Source {
			processed = append(processed, inst)
			continue
		}

		remaining := block.Instructions[idx+1:]
		if len(remaining) == 0 {
			if ret, isReturn := block.Terminal.(ir.Return); isReturn {
				if v, isVar := ret.Expression.(ir.Variable); isVar && v.Name == call.Name {
					return transformTailCall(call, processed, state)
				}
			}
		}
		return transformSplitCall(call, remaining, block.Terminal, processed, state, ctx)
	}

	return transformTerminal(processed, block.Terminal, state)
}

// transformTailCall rewrites a Source call already in tail position:
// pass the current continuation straight through, rebind its result to a
// fresh name, and return that value at the module's final result type.
// Emitted through the shared InstructionBuilder (spec.md §4.1) rather than
// a raw ir.Call literal.
func transformTailCall(call ir.Call, processed []ir.Instruction, state *funcState) (*ir.Block, *Error) {
	b := build.NewInstructionBuilder(state.resultNames)
	calleeType := tailCallType(call.Type, state.contType.Result)
	args := make([]build.TypedExpression, 0, len(call.Arguments)+2)
	args = append(args,
		build.TypedExpression{Expression: state.stackVar, Type: StackType()},
		build.TypedExpression{Expression: state.contVar, Type: state.contType},
	)
	for i, a := range call.Arguments {
		args = append(args, build.TypedExpression{Expression: a, Type: call.Type.Arguments[i]})
	}
	result, err := b.Call(build.TypedExpression{Expression: call.Function, Type: calleeType}, args)
	if err != nil {
		return nil, newError(BuildError, "tail call to %s: %s", call.Name, err)
	}
	processed = append(processed, b.IntoInstructions()...)
	terminal := ir.Return{Type: state.contType.Result, Expression: result.Expression}
	return &ir.Block{Instructions: processed, Terminal: terminal}, nil
}

// transformSplitCall handles a Source call not in tail position: push the
// continuation environment, tail-call with a synthesized continuation, and
// move the remaining instructions and terminal into that continuation's body.
func transformSplitCall(call ir.Call, remaining []ir.Instruction, terminal ir.Terminal, processed []ir.Instruction, state *funcState, ctx *transformContext) (*ir.Block, *Error) {
	freeNames := freevar.Collect(remaining, terminal)
	envNames := make(map[string]struct{}, len(freeNames)+1)
	for n := range freeNames {
		envNames[n] = struct{}{}
	}
	envNames[continuationArgumentName] = struct{}{}
	delete(envNames, call.Name)

	names := make([]string, 0, len(envNames))
	for n := range envNames {
		if n == continuationArgumentName {
			names = append(names, n)
			continue
		}
		if _, ok := state.localEnv[n]; ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	fieldTypes := make([]ir.Type, len(names))
	fieldValues := make([]ir.Expression, len(names))
	for i, n := range names {
		var t ir.Type
		if n == continuationArgumentName {
			t = state.contType
		} else {
			t = state.localEnv[n]
		}
		fieldTypes[i] = t
		fieldValues[i] = ir.Variable{Name: n}
	}
	recordType := ir.Record{Fields: fieldTypes}
	envValue := ir.RecordValue{Type: recordType, Fields: fieldValues}

	pushInst := pushStack(state.tmpNames, state.stackVar, envValue)
	processed = append(processed, pushInst)

	kappaName := state.contNames.Next()
	popInst, poppedName := popStack(state.tmpNames, state.stackVar, recordType)

	deconstructs := make([]ir.Instruction, len(names))
	for i, n := range names {
		deconstructs[i] = ir.DeconstructRecord{Name: n, Type: fieldTypes[i], Record: ir.Variable{Name: poppedName}, FieldIndex: i}
	}

	restBlock, err := transformBlock(&ir.Block{Instructions: remaining, Terminal: terminal}, state, ctx)
	if err != nil {
		return nil, err
	}

	kappaInstructions := make([]ir.Instruction, 0, len(deconstructs)+len(restBlock.Instructions)+1)
	kappaInstructions = append(kappaInstructions, popInst)
	kappaInstructions = append(kappaInstructions, deconstructs...)
	kappaInstructions = append(kappaInstructions, restBlock.Instructions...)

	kappaDef := ir.FunctionDefinition{
		Name: kappaName,
		Arguments: []ir.Argument{
			{Name: stackArgumentName, Type: StackType()},
			{Name: call.Name, Type: call.Type.Result},
		},
		ResultType: state.contType.Result,
		Body:       &ir.Block{Instructions: kappaInstructions, Terminal: restBlock.Terminal},
		Options: ir.FunctionDefinitionOptions{
			Linkage:           ir.Internal,
			CallingConvention: ir.Tail,
			AddressNamed:      false,
		},
	}
	ctx.synthesized = append(ctx.synthesized, kappaDef)

	calleeContType := ContinuationType(call.Type.Result, state.contType.Result)
	b := build.NewInstructionBuilder(state.resultNames)
	calleeType := tailCallType(call.Type, state.contType.Result)
	callArgs := make([]build.TypedExpression, 0, len(call.Arguments)+2)
	callArgs = append(callArgs,
		build.TypedExpression{Expression: state.stackVar, Type: StackType()},
		build.TypedExpression{Expression: ir.Variable{Name: kappaName}, Type: calleeContType},
	)
	for i, a := range call.Arguments {
		callArgs = append(callArgs, build.TypedExpression{Expression: a, Type: call.Type.Arguments[i]})
	}
	result, buildErr := b.Call(build.TypedExpression{Expression: call.Function, Type: calleeType}, callArgs)
	if buildErr != nil {
		return nil, newError(BuildError, "split call to %s: %s", call.Name, buildErr)
	}
	processed = append(processed, b.IntoInstructions()...)

	return &ir.Block{
		Instructions: processed,
		Terminal:     ir.Return{Type: state.contType.Result, Expression: result.Expression},
	}, nil
}

// transformTerminal handles a block that contained no Source call: a
// Return(R, e) is the function's "original return" and becomes a tail call
// through the current continuation; Branch and Unreachable pass through
// unchanged (an if-arm that never needed to split still joins normally).
func transformTerminal(processed []ir.Instruction, terminal ir.Terminal, state *funcState) (*ir.Block, *Error) {
	ret, ok := terminal.(ir.Return)
	if !ok {
		return &ir.Block{Instructions: processed, Terminal: terminal}, nil
	}
	b := build.NewInstructionBuilder(state.resultNames)
	result, err := b.Call(
		build.TypedExpression{Expression: state.contVar, Type: state.contType},
		[]build.TypedExpression{
			{Expression: state.stackVar, Type: StackType()},
			{Expression: ret.Expression, Type: ret.Type},
		},
	)
	if err != nil {
		return nil, newError(BuildError, "continuation call: %s", err)
	}
	processed = append(processed, b.IntoInstructions()...)
	return &ir.Block{
		Instructions: processed,
		Terminal:     ir.Return{Type: state.contType.Result, Expression: result.Expression},
	}, nil
}
