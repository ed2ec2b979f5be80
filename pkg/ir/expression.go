package ir

import "fmt"

// Expression is a non-effecting value: a variable reference, a literal, or
// a pure computation over other expressions. Expressions never bind a name
// and never have side effects; only Instructions do.
type Expression interface {
	implExpression()
	String() string
}

// Variable is a reference to an in-scope name (an argument, an instruction
// result, an if-join, or a module-level declaration/definition).
type Variable struct {
	Name string
}

// Undefined is an unspecified value of a given type; used as a placeholder
// where no well-defined value exists yet (e.g. before a function body
// writes through an out-parameter).
type Undefined struct {
	Type Type
}

// VoidValue is the single canonical value of the void type.
type VoidValue struct{}

// BooleanLiteral, IntegerNLiteral and FloatNLiteral are primitive literals.
type BooleanLiteral struct{ Value bool }
type Integer8Literal struct{ Value int8 }
type Integer32Literal struct{ Value int32 }
type Integer64Literal struct{ Value int64 }
type Float32Literal struct{ Value float32 }
type Float64Literal struct{ Value float64 }
type PointerIntegerLiteral struct{ Value uint64 }

// RecordValue constructs a record value from its field values.
type RecordValue struct {
	Type   Record
	Fields []Expression
}

// UnionValue constructs a union value by picking one member's type and value.
type UnionValue struct {
	Type        Union
	MemberIndex int
	MemberType  Type
	Value       Expression
}

// SizeOf and AlignOf compute a type's runtime size/alignment as a pointer-integer.
type SizeOf struct{ Type Type }
type AlignOf struct{ Type Type }

// BitCast reinterprets a value of one type as another of the same width.
type BitCast struct {
	From  Type
	To    Type
	Value Expression
}

// ArithmeticOperator enumerates arithmetic operations.
type ArithmeticOperator int

const (
	Add ArithmeticOperator = iota
	Subtract
	Multiply
	Divide
)

func (o ArithmeticOperator) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return "?"
	}
}

// ArithmeticOperation applies a binary arithmetic operator over two operands
// of the same numeric Type, producing a value of that Type.
type ArithmeticOperation struct {
	Type  Type
	Op    ArithmeticOperator
	LHS   Expression
	RHS   Expression
}

// ComparisonOperator enumerates comparison operations. The result of a
// ComparisonOperation is always Boolean.
type ComparisonOperator int

const (
	Equal ComparisonOperator = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

func (o ComparisonOperator) String() string {
	switch o {
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return "?"
	}
}

// ComparisonOperation compares two operands of the same Type, producing Boolean.
type ComparisonOperation struct {
	Type Type
	Op   ComparisonOperator
	LHS  Expression
	RHS  Expression
}

// RecordAddress computes the address of a record's field without loading it:
// Base is a pointer to a record, and Type is the result's type, a pointer to
// the field named by FieldIndex.
type RecordAddress struct {
	Type       Pointer
	Base       Expression
	FieldIndex int
}

// UnionAddress computes the address of a union member without loading it.
type UnionAddress struct {
	Type        Pointer
	Base        Expression
	MemberIndex int
}

// PointerAddress computes Base + Offset, scaled by the pointee's size.
type PointerAddress struct {
	Type   Pointer
	Base   Expression
	Offset Expression
}

func (Variable) implExpression()              {}
func (Undefined) implExpression()              {}
func (VoidValue) implExpression()              {}
func (BooleanLiteral) implExpression()         {}
func (Integer8Literal) implExpression()        {}
func (Integer32Literal) implExpression()       {}
func (Integer64Literal) implExpression()       {}
func (Float32Literal) implExpression()         {}
func (Float64Literal) implExpression()         {}
func (PointerIntegerLiteral) implExpression()  {}
func (RecordValue) implExpression()            {}
func (UnionValue) implExpression()             {}
func (SizeOf) implExpression()                 {}
func (AlignOf) implExpression()                {}
func (BitCast) implExpression()                {}
func (ArithmeticOperation) implExpression()    {}
func (ComparisonOperation) implExpression()    {}
func (RecordAddress) implExpression()          {}
func (UnionAddress) implExpression()           {}
func (PointerAddress) implExpression()         {}

func (v Variable) String() string { return v.Name }
func (Undefined) String() string  { return "undefined" }
func (VoidValue) String() string  { return "void_value" }
func (b BooleanLiteral) String() string        { return fmt.Sprintf("%t", b.Value) }
func (i Integer8Literal) String() string       { return fmt.Sprintf("%di8", i.Value) }
func (i Integer32Literal) String() string      { return fmt.Sprintf("%di32", i.Value) }
func (i Integer64Literal) String() string      { return fmt.Sprintf("%di64", i.Value) }
func (f Float32Literal) String() string        { return fmt.Sprintf("%gf32", f.Value) }
func (f Float64Literal) String() string        { return fmt.Sprintf("%gf64", f.Value) }
func (p PointerIntegerLiteral) String() string { return fmt.Sprintf("%dpi", p.Value) }
func (r RecordValue) String() string           { return fmt.Sprintf("record{%d fields}", len(r.Fields)) }
func (u UnionValue) String() string            { return fmt.Sprintf("union{%d: %s}", u.MemberIndex, u.Value) }
func (s SizeOf) String() string                { return fmt.Sprintf("size_of(%s)", s.Type) }
func (a AlignOf) String() string               { return fmt.Sprintf("align_of(%s)", a.Type) }
func (b BitCast) String() string               { return fmt.Sprintf("bitcast(%s, %s -> %s)", b.Value, b.From, b.To) }
func (a ArithmeticOperation) String() string   { return fmt.Sprintf("(%s %s %s)", a.LHS, a.Op, a.RHS) }
func (c ComparisonOperation) String() string   { return fmt.Sprintf("(%s %s %s)", c.LHS, c.Op, c.RHS) }
func (r RecordAddress) String() string         { return fmt.Sprintf("%s.%d", r.Base, r.FieldIndex) }
func (u UnionAddress) String() string          { return fmt.Sprintf("%s.%d", u.Base, u.MemberIndex) }
func (p PointerAddress) String() string        { return fmt.Sprintf("(%s + %s)", p.Base, p.Offset) }
