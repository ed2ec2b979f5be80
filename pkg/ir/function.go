package ir

// Argument is a function parameter: it binds Name to Type over the body.
type Argument struct {
	Name string
	Type Type
}

// FunctionDefinitionOptions carries the non-signature attributes of a
// function definition.
type FunctionDefinitionOptions struct {
	Linkage           Linkage
	CallingConvention CallingConvention
	// AddressNamed controls whether the function's address is referenced
	// by name elsewhere; synthesized continuations set this false, since
	// nothing outside the CPS transform ever takes their address directly.
	AddressNamed bool
}

// FunctionDeclaration describes an externally linked function symbol with
// no body: its Name and Type (a Function type, carrying the calling convention).
type FunctionDeclaration struct {
	Name string
	Type Function
}

// FunctionDefinition is a function body: Name, Arguments (binding names over
// Body), ResultType, Body, and Options.
type FunctionDefinition struct {
	Name       string
	Arguments  []Argument
	ResultType Type
	Body       *Block
	Options    FunctionDefinitionOptions
}

// Type returns the Function type this definition's signature describes.
func (f FunctionDefinition) Type() Function {
	args := make([]Type, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = a.Type
	}
	return Function{Arguments: args, Result: f.ResultType, Convention: f.Options.CallingConvention}
}

// WithBody returns a copy of f with its body replaced.
func (f FunctionDefinition) WithBody(body *Block) FunctionDefinition {
	f.Body = body
	return f
}

// WithArguments returns a copy of f with its arguments replaced.
func (f FunctionDefinition) WithArguments(arguments []Argument) FunctionDefinition {
	f.Arguments = arguments
	return f
}

// WithResultType returns a copy of f with its result type replaced.
func (f FunctionDefinition) WithResultType(t Type) FunctionDefinition {
	f.ResultType = t
	return f
}
