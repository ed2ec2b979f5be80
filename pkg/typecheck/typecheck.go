package typecheck

import (
	"fmt"

	"github.com/raymyers/ralph-cc/pkg/ir"
)

type environment map[string]ir.Type

// Check validates every function body in module against the structural
// rules in spec.md §4.2 and returns the first mismatch found, or nil.
func Check(module *ir.Module) *Error {
	env := make(environment)
	for _, d := range module.VariableDeclarations {
		env[d.Name] = d.Type
	}
	for _, d := range module.FunctionDeclarations {
		env[d.Name] = d.Type
	}
	for _, d := range module.VariableDefinitions {
		env[d.Name] = d.Type
	}
	for _, f := range module.FunctionDefinitions {
		env[f.Name] = f.Type()
	}

	for _, f := range module.FunctionDefinitions {
		if err := checkFunction(f, env); err != nil {
			return err
		}
	}
	return nil
}

func checkFunction(f ir.FunctionDefinition, outer environment) *Error {
	env := make(environment, len(outer)+len(f.Arguments))
	for k, v := range outer {
		env[k] = v
	}
	for _, a := range f.Arguments {
		env[a.Name] = a.Type
	}
	return checkBlock(f.Body, env, f.ResultType, nil)
}

// checkBlock checks every instruction and the terminal of b. returnType is
// the enclosing function's declared result type; joinType is non-nil only
// when b is an If arm, in which case a Branch terminal must be of joinType
// (a Return inside the arm is still checked against returnType).
func checkBlock(b *ir.Block, env environment, returnType ir.Type, joinType ir.Type) *Error {
	local := make(environment, len(env))
	for k, v := range env {
		local[k] = v
	}
	for _, inst := range b.Instructions {
		if err := checkInstruction(inst, local, returnType); err != nil {
			return err
		}
		local[inst.ResultName()] = inst.ResultType()
	}
	return checkTerminal(b.Terminal, local, returnType, joinType)
}

func checkInstruction(inst ir.Instruction, env environment, returnType ir.Type) *Error {
	switch i := inst.(type) {
	case ir.Call:
		fnType, err := inferExpression(i.Function, env)
		if err != nil {
			return err
		}
		fn, ok := fnType.(ir.Function)
		if !ok {
			return newError("call %s: callee has non-function type %s", i.Name, fnType)
		}
		if !ir.Identical(fn, i.Type) {
			return newError("call %s: callee type %s disagrees with declared %s", i.Name, fn, i.Type)
		}
		if len(fn.Arguments) != len(i.Arguments) {
			return newError("call %s: argument count mismatch: want %d, got %d", i.Name, len(fn.Arguments), len(i.Arguments))
		}
		for idx, arg := range i.Arguments {
			argType, err := inferExpression(arg, env)
			if err != nil {
				return err
			}
			if !ir.Identical(argType, fn.Arguments[idx]) {
				return newError("call %s: argument %d has type %s, want %s", i.Name, idx, argType, fn.Arguments[idx])
			}
		}
		return nil
	case ir.Load:
		ptrType, err := inferExpression(i.Pointer, env)
		if err != nil {
			return err
		}
		ptr, ok := ptrType.(ir.Pointer)
		if !ok {
			return newError("load %s: pointer operand has non-pointer type %s", i.Name, ptrType)
		}
		if !ir.Identical(ptr.Content, i.Type) {
			return newError("load %s: pointee type %s disagrees with declared %s", i.Name, ptr.Content, i.Type)
		}
		return nil
	case ir.Store:
		ptrType, err := inferExpression(i.Pointer, env)
		if err != nil {
			return err
		}
		ptr, ok := ptrType.(ir.Pointer)
		if !ok {
			return newError("store %s: destination has non-pointer type %s", i.Name, ptrType)
		}
		valType, err := inferExpression(i.Value, env)
		if err != nil {
			return err
		}
		if !ir.Identical(ptr.Content, valType) {
			return newError("store %s: value type %s disagrees with pointee type %s", i.Name, valType, ptr.Content)
		}
		return nil
	case ir.AtomicLoad:
		ptrType, err := inferExpression(i.Pointer, env)
		if err != nil {
			return err
		}
		ptr, ok := ptrType.(ir.Pointer)
		if !ok || !ir.Identical(ptr.Content, i.Type) {
			return newError("atomic_load %s: pointer/result type mismatch", i.Name)
		}
		return nil
	case ir.AtomicStore:
		ptrType, err := inferExpression(i.Pointer, env)
		if err != nil {
			return err
		}
		ptr, ok := ptrType.(ir.Pointer)
		if !ok {
			return newError("atomic_store %s: destination has non-pointer type %s", i.Name, ptrType)
		}
		valType, err := inferExpression(i.Value, env)
		if err != nil {
			return err
		}
		if !ir.Identical(ptr.Content, valType) {
			return newError("atomic_store %s: value type disagrees with pointee type", i.Name)
		}
		return nil
	case ir.AtomicCompareAndSwap:
		ptrType, err := inferExpression(i.Pointer, env)
		if err != nil {
			return err
		}
		ptr, ok := ptrType.(ir.Pointer)
		if !ok || !ir.Identical(ptr.Content, i.Type) {
			return newError("cas %s: pointer/result type mismatch", i.Name)
		}
		return nil
	case ir.AllocateStack:
		if !ir.Identical(i.ResultType(), ir.Pointer{Content: i.Content}) {
			return newError("allocate_stack %s: impossible result type", i.Name)
		}
		return nil
	case ir.AllocateHeap:
		if !ir.Identical(i.ResultType(), ir.Pointer{Content: i.Content}) {
			return newError("allocate_heap %s: impossible result type", i.Name)
		}
		return nil
	case ir.ReallocateHeap:
		if _, err := inferExpression(i.Pointer, env); err != nil {
			return err
		}
		if _, err := inferExpression(i.Size, env); err != nil {
			return err
		}
		return nil
	case ir.MemoryCopy:
		if _, err := inferExpression(i.Source, env); err != nil {
			return err
		}
		if _, err := inferExpression(i.Destination, env); err != nil {
			return err
		}
		if _, err := inferExpression(i.Size, env); err != nil {
			return err
		}
		return nil
	case ir.DeconstructRecord:
		recType, err := inferExpression(i.Record, env)
		if err != nil {
			return err
		}
		rec, ok := recType.(ir.Record)
		if !ok {
			return newError("deconstruct_record %s: operand has non-record type %s", i.Name, recType)
		}
		if i.FieldIndex < 0 || i.FieldIndex >= len(rec.Fields) {
			return newError("deconstruct_record %s: field index %d out of range", i.Name, i.FieldIndex)
		}
		if !ir.Identical(rec.Fields[i.FieldIndex], i.Type) {
			return newError("deconstruct_record %s: field type disagrees with declared %s", i.Name, i.Type)
		}
		return nil
	case ir.DeconstructUnion:
		unionType, err := inferExpression(i.Union, env)
		if err != nil {
			return err
		}
		u, ok := unionType.(ir.Union)
		if !ok {
			return newError("deconstruct_union %s: operand has non-union type %s", i.Name, unionType)
		}
		if i.MemberIndex < 0 || i.MemberIndex >= len(u.Members) {
			return newError("deconstruct_union %s: member index %d out of range", i.Name, i.MemberIndex)
		}
		if !ir.Identical(u.Members[i.MemberIndex], i.Type) {
			return newError("deconstruct_union %s: member type disagrees with declared %s", i.Name, i.Type)
		}
		return nil
	case ir.PassThrough:
		t, err := inferExpression(i.Expression, env)
		if err != nil {
			return err
		}
		if !ir.Identical(t, i.Type) {
			return newError("pass_through %s: expression type %s disagrees with declared %s", i.Name, t, i.Type)
		}
		return nil
	case ir.Assignment:
		t, err := inferExpression(i.Expression, env)
		if err != nil {
			return err
		}
		if !ir.Identical(t, i.Type) {
			return newError("assignment %s: expression type %s disagrees with declared %s", i.Name, t, i.Type)
		}
		return nil
	case ir.If:
		condType, err := inferExpression(i.Condition, env)
		if err != nil {
			return err
		}
		if !ir.Identical(condType, ir.Primitive{Kind: ir.Boolean}) {
			return newError("if %s: condition has non-boolean type %s", i.Name, condType)
		}
		if err := checkBlock(i.Then, env, returnType, i.Type); err != nil {
			return err
		}
		if err := checkBlock(i.Else, env, returnType, i.Type); err != nil {
			return err
		}
		return nil
	case ir.Builtin:
		for _, a := range i.Arguments {
			if _, err := inferExpression(a, env); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("typecheck: unhandled instruction type: %T", i))
	}
}

func checkTerminal(term ir.Terminal, env environment, returnType ir.Type, joinType ir.Type) *Error {
	switch t := term.(type) {
	case ir.Return:
		// A Return is ordinarily only legal at function-body level (joinType
		// nil), but CPS splitting can leave one inside an if arm when the
		// arm's remaining instructions end in the "original returns" rule
		// rather than a join; such a Return is checked against the
		// enclosing function's result type same as any other, not against
		// joinType.
		exprType, err := inferExpression(t.Expression, env)
		if err != nil {
			return err
		}
		if !ir.Identical(exprType, returnType) || !ir.Identical(exprType, t.Type) {
			return newError("return type %s disagrees with function result type %s", t.Type, returnType)
		}
		return nil
	case ir.Branch:
		if joinType == nil {
			return newError("branch used outside an if arm")
		}
		exprType, err := inferExpression(t.Expression, env)
		if err != nil {
			return err
		}
		if !ir.Identical(exprType, joinType) || !ir.Identical(exprType, t.Type) {
			return newError("branch type %s disagrees with if join type %s", t.Type, joinType)
		}
		return nil
	case ir.Unreachable:
		return nil
	default:
		panic(fmt.Sprintf("typecheck: unhandled terminal type: %T", t))
	}
}

func inferExpression(expr ir.Expression, env environment) (ir.Type, *Error) {
	switch e := expr.(type) {
	case ir.Variable:
		t, ok := env[e.Name]
		if !ok {
			return nil, newError("reference to out-of-scope variable %q", e.Name)
		}
		return t, nil
	case ir.Undefined:
		return e.Type, nil
	case ir.VoidValue:
		return ir.Void(), nil
	case ir.BooleanLiteral:
		return ir.Primitive{Kind: ir.Boolean}, nil
	case ir.Integer8Literal:
		return ir.Primitive{Kind: ir.Integer8}, nil
	case ir.Integer32Literal:
		return ir.Primitive{Kind: ir.Integer32}, nil
	case ir.Integer64Literal:
		return ir.Primitive{Kind: ir.Integer64}, nil
	case ir.Float32Literal:
		return ir.Primitive{Kind: ir.Float32}, nil
	case ir.Float64Literal:
		return ir.Primitive{Kind: ir.Float64}, nil
	case ir.PointerIntegerLiteral:
		return ir.Primitive{Kind: ir.PointerInteger}, nil
	case ir.RecordValue:
		if len(e.Fields) != len(e.Type.Fields) {
			return nil, newError("record constructor field count mismatch: want %d, got %d", len(e.Type.Fields), len(e.Fields))
		}
		for idx, f := range e.Fields {
			ft, err := inferExpression(f, env)
			if err != nil {
				return nil, err
			}
			if !ir.Identical(ft, e.Type.Fields[idx]) {
				return nil, newError("record constructor field %d has type %s, want %s", idx, ft, e.Type.Fields[idx])
			}
		}
		return e.Type, nil
	case ir.UnionValue:
		if e.MemberIndex < 0 || e.MemberIndex >= len(e.Type.Members) {
			return nil, newError("union constructor member index %d out of range", e.MemberIndex)
		}
		if !ir.Identical(e.Type.Members[e.MemberIndex], e.MemberType) {
			return nil, newError("union constructor member type disagrees with declared member %d", e.MemberIndex)
		}
		vt, err := inferExpression(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !ir.Identical(vt, e.MemberType) {
			return nil, newError("union constructor value type %s disagrees with member type %s", vt, e.MemberType)
		}
		return e.Type, nil
	case ir.SizeOf:
		return ir.Primitive{Kind: ir.PointerInteger}, nil
	case ir.AlignOf:
		return ir.Primitive{Kind: ir.PointerInteger}, nil
	case ir.BitCast:
		vt, err := inferExpression(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !ir.Identical(vt, e.From) {
			return nil, newError("bitcast source type %s disagrees with operand type %s", e.From, vt)
		}
		return e.To, nil
	case ir.ArithmeticOperation:
		lt, err := inferExpression(e.LHS, env)
		if err != nil {
			return nil, err
		}
		rt, err := inferExpression(e.RHS, env)
		if err != nil {
			return nil, err
		}
		if !ir.Identical(lt, e.Type) || !ir.Identical(rt, e.Type) {
			return nil, newError("arithmetic operation operand types disagree with declared %s", e.Type)
		}
		return e.Type, nil
	case ir.ComparisonOperation:
		lt, err := inferExpression(e.LHS, env)
		if err != nil {
			return nil, err
		}
		rt, err := inferExpression(e.RHS, env)
		if err != nil {
			return nil, err
		}
		if !ir.Identical(lt, e.Type) || !ir.Identical(rt, e.Type) {
			return nil, newError("comparison operation operand types disagree with declared %s", e.Type)
		}
		return ir.Primitive{Kind: ir.Boolean}, nil
	case ir.RecordAddress:
		bt, err := inferExpression(e.Base, env)
		if err != nil {
			return nil, err
		}
		basePtr, ok := bt.(ir.Pointer)
		if !ok {
			return nil, newError("record_address: base has non-pointer type %s", bt)
		}
		rec, ok := basePtr.Content.(ir.Record)
		if !ok {
			return nil, newError("record_address: base does not point to a record")
		}
		if e.FieldIndex < 0 || e.FieldIndex >= len(rec.Fields) {
			return nil, newError("record_address: field index %d out of range", e.FieldIndex)
		}
		want := ir.Pointer{Content: rec.Fields[e.FieldIndex]}
		if !ir.Identical(want, e.Type) {
			return nil, newError("record_address: declared type %s disagrees with field pointer %s", e.Type, want)
		}
		return e.Type, nil
	case ir.UnionAddress:
		bt, err := inferExpression(e.Base, env)
		if err != nil {
			return nil, err
		}
		basePtr, ok := bt.(ir.Pointer)
		if !ok {
			return nil, newError("union_address: base has non-pointer type %s", bt)
		}
		u, ok := basePtr.Content.(ir.Union)
		if !ok {
			return nil, newError("union_address: base does not point to a union")
		}
		if e.MemberIndex < 0 || e.MemberIndex >= len(u.Members) {
			return nil, newError("union_address: member index %d out of range", e.MemberIndex)
		}
		want := ir.Pointer{Content: u.Members[e.MemberIndex]}
		if !ir.Identical(want, e.Type) {
			return nil, newError("union_address: declared type %s disagrees with member pointer %s", e.Type, want)
		}
		return e.Type, nil
	case ir.PointerAddress:
		bt, err := inferExpression(e.Base, env)
		if err != nil {
			return nil, err
		}
		if !ir.Identical(bt, e.Type) {
			return nil, newError("pointer_address: base type %s disagrees with declared %s", bt, e.Type)
		}
		if _, err := inferExpression(e.Offset, env); err != nil {
			return nil, err
		}
		return e.Type, nil
	default:
		panic(fmt.Sprintf("typecheck: unhandled expression type: %T", e))
	}
}
