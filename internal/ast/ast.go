// Package ast defines the tagged-variant AST produced by internal/parser.
//
// Grounded on the per-construct Node shape confirmed authoritative by
// original_source/esh_parser/src/tests.rs (list_test, location_test,
// struct_test) rather than the generic Binary/Unary/Ternary/Quaternion shape
// found in the earlier original_source/parser/src/parser.rs. Each syntactic
// construct is its own Go struct, following core/ast/ast.go's per-construct
// Node interface pattern in the teacher repo.
package ast

import "github.com/eshc-lang/eshc/internal/token"

// Node is implemented by every AST construct.
type Node interface {
	Range() token.Range
	isNode()
}

type base struct {
	R token.Range
}

func (b base) Range() token.Range { return b.R }
func (base) isNode()              {}

// Primary wraps a single literal/identifier/keyword token: numbers, strings,
// booleans, and bare identifiers all end up here.
type Primary struct {
	base
	Token token.Token
}

// Block is an ordered sequence of statements/expressions, e.g. a function or
// struct body, or the top-level program.
type Block struct {
	base
	Statements []Node
}

// Tuple is a parenthesized, comma-separated sequence: call arguments, return
// types, or a plain grouping of zero/one/many expressions.
type Tuple struct {
	base
	Elements []Node
}

// List is a bracketed literal list: `[1, 2, 3]`.
type List struct {
	base
	Elements []Node
}

// ListCall is both a list-type annotation (`num[]`, Index == nil) and an
// indexed access/assignment target (`arr[0]`, Index != nil).
type ListCall struct {
	base
	Base  Node
	Index Node // nil for a bare list-type annotation
}

// Vector is a `<x, y, z>` literal.
type Vector struct {
	base
	Elements []Node
}

// Location is a `<x, y, z, pitch, yaw>`-style positional literal,
// syntactically identical to Vector but semantically distinct per spec.md.
type Location struct {
	base
	Elements []Node
}

// UnaryOp identifies a single-operand prefix operator.
type UnaryOp int

const (
	Not UnaryOp = iota
	Negative
)

type Unary struct {
	base
	Op      UnaryOp
	Operand Node
}

// BinaryOp identifies a two-operand infix operator.
type BinaryOp int

const (
	Product BinaryOp = iota
	Quotient
	Modulo
	Sum
	Difference
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	Equal
	NotEqual
	And
	Or
)

type Binary struct {
	base
	Op    BinaryOp
	Left  Node
	Right Node
}

// FunctionCall invokes Callee (a Primary or Access) with Args (a Tuple).
type FunctionCall struct {
	base
	Callee Node
	Args   *Tuple
}

// Access is a flattened left-to-right dotted member chain: `a.b.c` becomes
// Access{Parts: [a, b, c]}, generalizing the binary Access(receiver, member)
// form found in original_source/esh_parser in line with spec.md's flattened
// description.
type Access struct {
	base
	Parts []Node
}

// Declaration introduces a typed name: `num x`.
type Declaration struct {
	base
	Type Node
	Name Node
}

// Assignment covers both `x = 1` and declaration-with-initializer
// (`num x = 1`, where Target is a *Declaration).
type Assignment struct {
	base
	Target Node
	Value  Node
}

type Return struct {
	base
	Value Node // nil for a bare `return;`
}

type If struct {
	base
	Cond Node
	Then *Block
}

// Else always references an If or another Else as its preceding branch;
// Branch is either a *Block (terminal `else { ... }`) or an *If (chained
// `else if ...`), per spec.md §3.
type Else struct {
	base
	Preceding Node // *If or *Else
	Branch    Node // *Block or *If
}

type While struct {
	base
	Cond Node
	Body *Block
}

// Func is a declaration: `func name(params) -> returnType { body }`.
type Func struct {
	base
	Name       Node
	Params     *Tuple
	ReturnType Node // nil if omitted
	Body       *Block
}

type Struct struct {
	base
	Name Node
	Body *Block
}

// Construct is a struct literal: `foo { x = 1; y = "a"; }`.
type Construct struct {
	base
	Type Node
	Body *Block
}

func NewPrimary(r token.Range, t token.Token) *Primary { return &Primary{base{r}, t} }
func NewBlock(r token.Range, stmts []Node) *Block       { return &Block{base{r}, stmts} }
func NewTuple(r token.Range, elems []Node) *Tuple       { return &Tuple{base{r}, elems} }
func NewList(r token.Range, elems []Node) *List         { return &List{base{r}, elems} }
func NewListCall(r token.Range, b, idx Node) *ListCall  { return &ListCall{base{r}, b, idx} }
func NewVector(r token.Range, elems []Node) *Vector     { return &Vector{base{r}, elems} }
func NewLocation(r token.Range, elems []Node) *Location { return &Location{base{r}, elems} }
func NewUnary(r token.Range, op UnaryOp, operand Node) *Unary {
	return &Unary{base{r}, op, operand}
}
func NewBinary(r token.Range, op BinaryOp, l, rhs Node) *Binary {
	return &Binary{base{r}, op, l, rhs}
}
func NewFunctionCall(r token.Range, callee Node, args *Tuple) *FunctionCall {
	return &FunctionCall{base{r}, callee, args}
}
func NewAccess(r token.Range, parts []Node) *Access { return &Access{base{r}, parts} }
func NewDeclaration(r token.Range, typ, name Node) *Declaration {
	return &Declaration{base{r}, typ, name}
}
func NewAssignment(r token.Range, target, value Node) *Assignment {
	return &Assignment{base{r}, target, value}
}
func NewReturn(r token.Range, value Node) *Return { return &Return{base{r}, value} }
func NewIf(r token.Range, cond Node, then *Block) *If {
	return &If{base{r}, cond, then}
}
func NewElse(r token.Range, preceding, branch Node) *Else {
	return &Else{base{r}, preceding, branch}
}
func NewWhile(r token.Range, cond Node, body *Block) *While { return &While{base{r}, cond, body} }
func NewFunc(r token.Range, name Node, params *Tuple, ret Node, body *Block) *Func {
	return &Func{base{r}, name, params, ret, body}
}
func NewStruct(r token.Range, name Node, body *Block) *Struct { return &Struct{base{r}, name, body} }
func NewConstruct(r token.Range, typ Node, body *Block) *Construct {
	return &Construct{base{r}, typ, body}
}
