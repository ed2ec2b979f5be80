package ir

// VariableDeclaration describes an externally linked module-scope variable
// symbol with no initializer: its Name and Type.
type VariableDeclaration struct {
	Name string
	Type Type
}

// VariableDefinition is a module-scope variable with a body value.
type VariableDefinition struct {
	Name    string
	Type    Type
	Value   Expression
	Options FunctionDefinitionOptions
}

// Module is the four-tuple (variable-declarations, function-declarations,
// variable-definitions, function-definitions) in that fixed order.
type Module struct {
	VariableDeclarations []VariableDeclaration
	FunctionDeclarations []FunctionDeclaration
	VariableDefinitions  []VariableDefinition
	FunctionDefinitions  []FunctionDefinition
}

// NewModule constructs an empty Module.
func NewModule() *Module {
	return &Module{}
}

// WithFunctionDefinitions returns a copy of m with its function definitions replaced.
func (m *Module) WithFunctionDefinitions(defs []FunctionDefinition) *Module {
	return &Module{
		VariableDeclarations: m.VariableDeclarations,
		FunctionDeclarations: m.FunctionDeclarations,
		VariableDefinitions:  m.VariableDefinitions,
		FunctionDefinitions:  defs,
	}
}

// AppendFunctionDefinitions returns a copy of m with extra function
// definitions appended — the shape every transform uses to own the module
// it builds while accumulating synthesized top-level functions.
func (m *Module) AppendFunctionDefinitions(defs ...FunctionDefinition) *Module {
	merged := make([]FunctionDefinition, 0, len(m.FunctionDefinitions)+len(defs))
	merged = append(merged, m.FunctionDefinitions...)
	merged = append(merged, defs...)
	return m.WithFunctionDefinitions(merged)
}

// FindFunctionDeclaration looks up a function declaration by name.
func (m *Module) FindFunctionDeclaration(name string) (FunctionDeclaration, bool) {
	for _, d := range m.FunctionDeclarations {
		if d.Name == name {
			return d, true
		}
	}
	return FunctionDeclaration{}, false
}

// FindFunctionDefinition looks up a function definition by name.
func (m *Module) FindFunctionDefinition(name string) (FunctionDefinition, bool) {
	for _, d := range m.FunctionDefinitions {
		if d.Name == name {
			return d, true
		}
	}
	return FunctionDefinition{}, false
}
