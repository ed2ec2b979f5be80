package cconv

import "github.com/raymyers/ralph-cc/pkg/ir"

// rewriteDeclaration replaces a Target-convention declaration whose result
// is a memory-returning record with the trailing out-parameter shape
// (spec.md §4.3 "Function declaration rewrite"). Declarations that don't
// match are returned unchanged.
func rewriteDeclaration(d ir.FunctionDeclaration, wordBytes int) ir.FunctionDeclaration {
	if d.Type.Convention != ir.Target {
		return d
	}
	record, ok := d.Type.Result.(ir.Record)
	if !ok || !isMemoryReturning(record, wordBytes) {
		return d
	}
	return ir.FunctionDeclaration{Name: d.Name, Type: rewrittenFunctionType(d.Type, record)}
}
