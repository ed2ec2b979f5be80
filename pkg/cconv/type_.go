package cconv

import "github.com/raymyers/ralph-cc/pkg/ir"

// sizeOf estimates a type's flattened byte size for the purpose of
// memory-return classification. Field padding/alignment is not modeled —
// spec.md gives the condition only narratively ("any record type whose ABI
// classification requires memory return"); in the absence of an explicit
// layout algorithm in the spec, this repository uses total flattened size,
// documented as an Open-Question resolution in DESIGN.md.
func sizeOf(t ir.Type, wordBytes int) int {
	switch x := t.(type) {
	case ir.Primitive:
		switch x.Kind {
		case ir.Boolean, ir.Integer8:
			return 1
		case ir.Integer32, ir.Float32:
			return 4
		case ir.Integer64, ir.Float64:
			return 8
		case ir.PointerInteger:
			return wordBytes
		default:
			return wordBytes
		}
	case ir.Pointer:
		return wordBytes
	case ir.Record:
		total := 0
		for _, f := range x.Fields {
			total += sizeOf(f, wordBytes)
		}
		return total
	case ir.Union:
		max := 0
		for _, m := range x.Members {
			if s := sizeOf(m, wordBytes); s > max {
				max = s
			}
		}
		return max
	default:
		return 0
	}
}

// isMemoryReturning reports whether r's ABI classification requires memory
// return: its flattened size exceeds two machine words, mirroring the
// System V AMD64 rule that a result fitting in two eightwords returns in
// registers and anything larger returns through a pointer.
func isMemoryReturning(r ir.Record, wordBytes int) bool {
	return sizeOf(r, wordBytes) > 2*wordBytes
}

// rewrittenFunctionType replaces original's result with void and appends a
// trailing ptr-to-R out-parameter, preserving the calling convention —
// spec.md §9 fixes trailing position for the out-parameter, overriding the
// literal prepend wording of §4.3 step 1 (see DESIGN.md).
func rewrittenFunctionType(original ir.Function, result ir.Record) ir.Function {
	args := make([]ir.Type, 0, len(original.Arguments)+1)
	args = append(args, original.Arguments...)
	args = append(args, ir.Pointer{Content: result})
	return ir.Function{Arguments: args, Result: ir.Void(), Convention: original.Convention}
}
