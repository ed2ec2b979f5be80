// Package localvar collects the typed environment of every name locally
// bound within a function: its arguments, every instruction's result name
// (including if-join names), recursively through if arms (spec.md §4.5).
package localvar

import "github.com/raymyers/ralph-cc/pkg/ir"

// Environment maps a locally bound name to its declared type.
type Environment map[string]ir.Type

// Collect returns the full local environment of fn.
func Collect(fn ir.FunctionDefinition) Environment {
	env := make(Environment)
	for _, a := range fn.Arguments {
		env[a.Name] = a.Type
	}
	addBlock(fn.Body, env)
	return env
}

func addBlock(b *ir.Block, env Environment) {
	for _, inst := range b.Instructions {
		env[inst.ResultName()] = inst.ResultType()
		if ifInst, ok := inst.(ir.If); ok {
			addBlock(ifInst.Then, env)
			addBlock(ifInst.Else, env)
		}
	}
}
