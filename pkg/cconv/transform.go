package cconv

import (
	"github.com/raymyers/ralph-cc/pkg/ir"
	"github.com/raymyers/ralph-cc/pkg/typecheck"
)

// Transform applies the C calling-convention rewrite (spec.md §4.3) to every
// Target-convention function declaration, definition, and call site in
// module whose result is a memory-returning record, given a target word
// size in bytes (4 or 8).
func Transform(module *ir.Module, wordBytes int) (*ir.Module, *Error) {
	if wordBytes != 4 && wordBytes != 8 {
		return nil, newError(WordSize, "unsupported word size %d, want 4 or 8", wordBytes)
	}

	if err := typecheck.Check(module); err != nil {
		return nil, newError(TypeMismatch, "input module: %s", err)
	}

	newDecls := make([]ir.FunctionDeclaration, len(module.FunctionDeclarations))
	for i, d := range module.FunctionDeclarations {
		newDecls[i] = rewriteDeclaration(d, wordBytes)
	}

	newDefs := make([]ir.FunctionDefinition, len(module.FunctionDefinitions))
	for i, fn := range module.FunctionDefinitions {
		rewritten, err := rewriteDefinition(fn, wordBytes)
		if err != nil {
			return nil, err
		}
		newDefs[i] = rewritten
	}
	for i, fn := range newDefs {
		newBody, err := rewriteCallSites(fn.Body, wordBytes)
		if err != nil {
			return nil, err
		}
		fn.Body = newBody
		newDefs[i] = fn
	}

	result := &ir.Module{
		VariableDeclarations: module.VariableDeclarations,
		FunctionDeclarations: newDecls,
		VariableDefinitions:  module.VariableDefinitions,
		FunctionDefinitions:  newDefs,
	}

	if err := typecheck.Check(result); err != nil {
		return nil, newError(TypeMismatch, "output module: %s", err)
	}
	return result, nil
}
