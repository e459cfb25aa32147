// Package hir defines the typed high-level IR produced by semantic
// analysis. Every expression node carries a concrete datatype and a display
// name; resolved references point back into the definitions that own them.
package hir

import "github.com/sorinm/empirical-lang/vvm"

// Decltype distinguishes let from var declarations.
type Decltype int

const (
	DeclLet Decltype = iota
	DeclVar
)

// Querytype is the kind of relational query.
type Querytype int

const (
	QuerySelect Querytype = iota
	QueryExec
)

// Direction is the asof-join match direction.
type Direction int

const (
	DirectionBackward Direction = iota
	DirectionForward
	DirectionNearest
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionNearest:
		return "nearest"
	default:
		return "backward"
	}
}

/* datatypes */

// Datatype is the closed set of type constructors. A nil Datatype means the
// type is unknown (an earlier diagnostic was already issued for it).
type Datatype interface {
	datatypeNode()
}

// VVMType is a primitive VM type.
type VVMType struct {
	T vvm.TypeID
}

// UDT is a named record type; Ref points at the DataRef that declares the
// fields. A name starting with '!' denotes the Dataframe view.
type UDT struct {
	Name string
	Ref  Resolved
}

// Array is a homogeneous sequence.
type Array struct {
	Elem Datatype
}

// FuncType is the type of a callable value.
type FuncType struct {
	Args []Datatype
	Ret  Datatype
}

// Kind is the type-of-a-type, assigned to names that denote types.
type Kind struct {
	Of Datatype
}

// Void is the absence of a value.
type Void struct{}

func (*VVMType) datatypeNode()  {}
func (*UDT) datatypeNode()      {}
func (*Array) datatypeNode()    {}
func (*FuncType) datatypeNode() {}
func (*Kind) datatypeNode()     {}
func (*Void) datatypeNode()     {}

/* resolved references */

// Resolved is what an identifier may resolve to.
type Resolved interface {
	resolvedNode()
}

type DeclRef struct {
	Decl *Declaration
}

type FuncRef struct {
	Def *FunctionDef
}

type GenericFuncRef struct {
	Def *GenericFunctionDef
}

type DataRef struct {
	Def *DataDef
}

// ModRef is reserved for module resolution.
type ModRef struct{}

// VVMOpRef is a builtin operator with its function type prebaked.
type VVMOpRef struct {
	Opcode string
	Type   *FuncType
}

// VVMTypeRef is a builtin type name.
type VVMTypeRef struct {
	T vvm.TypeID
}

// CompilerCode identifies a compiler-recognized intrinsic.
type CompilerCode int

const (
	CodeStore CompilerCode = iota
)

// CompilerRef is a compiler intrinsic with its function type prebaked.
type CompilerRef struct {
	Code CompilerCode
	Type *FuncType
}

func (*DeclRef) resolvedNode()        {}
func (*FuncRef) resolvedNode()        {}
func (*GenericFuncRef) resolvedNode() {}
func (*DataRef) resolvedNode()        {}
func (*ModRef) resolvedNode()         {}
func (*VVMOpRef) resolvedNode()       {}
func (*VVMTypeRef) resolvedNode()     {}
func (*CompilerRef) resolvedNode()    {}

/* declarations */

// Declaration is a single name binding; Offset is the field position when
// the declaration is a record member.
type Declaration struct {
	Name         string
	ExplicitType Expr
	Value        Expr
	Type         Datatype
	Offset       int
}

// Alias is a named (or bare) column expression in a relational construct.
type Alias struct {
	Value Expr
	Name  string
}

/* statements */

type Stmt interface {
	stmtNode()
}

// Module is the result of one analysis pass.
type Module struct {
	Body      []Stmt
	Docstring string
}

type FunctionDef struct {
	Name            string
	Args            []*Declaration
	Body            []Stmt
	ExplicitRettype Expr
	Docstring       string
	Rettype         Datatype
}

// GenericFunctionDef wraps a definition with at least one untyped argument;
// Instantiated accumulates its monomorphizations in first-use order.
type GenericFunctionDef struct {
	Original     *FunctionDef
	Instantiated []*FunctionDef
}

// DataDef declares a record type; Scope is the symbol-table scope holding
// the field declarations, used for member lookup.
type DataDef struct {
	Name  string
	Body  []*Declaration
	Scope int
}

type Return struct {
	Value Expr
}

type If struct {
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type While struct {
	Test Expr
	Body []Stmt
}

type Import struct {
	Names []string
}

type ImportFrom struct {
	Module string
	Names  []string
}

type Decl struct {
	Dt    Decltype
	Decls []*Declaration
}

type Assign struct {
	Target Expr
	Value  Expr
}

type Del struct {
	Targets []Expr
}

// ExprStmt is an expression evaluated for its value.
type ExprStmt struct {
	Value Expr
}

func (*Module) stmtNode()             {}
func (*FunctionDef) stmtNode()        {}
func (*GenericFunctionDef) stmtNode() {}
func (*DataDef) stmtNode()            {}
func (*Return) stmtNode()             {}
func (*If) stmtNode()                 {}
func (*While) stmtNode()              {}
func (*Import) stmtNode()             {}
func (*ImportFrom) stmtNode()         {}
func (*Decl) stmtNode()               {}
func (*Assign) stmtNode()             {}
func (*Del) stmtNode()                {}
func (*ExprStmt) stmtNode()           {}

/* expressions */

// ExprInfo carries the fields every expression node has once analyzed: the
// concrete type and a display name used when synthesizing record fields.
type ExprInfo struct {
	Typ  Datatype
	Name string
}

func (i *ExprInfo) Type() Datatype   { return i.Typ }
func (i *ExprInfo) NameHint() string { return i.Name }
func (i *ExprInfo) exprNode()        {}

type Expr interface {
	Type() Datatype
	NameHint() string
	exprNode()
}

type Id struct {
	ExprInfo
	Sym string
	Ref Resolved
}

// ImpliedMember is an identifier that resolved through the preferred scope
// of a relational construct; Of is the table expression it belongs to.
type ImpliedMember struct {
	ExprInfo
	Sym string
	Ref Resolved
	Of  Expr
}

// OverloadedId carries the full overload set; a call site narrows it to a
// plain Id. It must not survive analysis anywhere else.
type OverloadedId struct {
	ExprInfo
	Sym  string
	Refs []Resolved
}

type Member struct {
	ExprInfo
	Value Expr
	Attr  string
	Ref   Resolved
}

type Subscript struct {
	ExprInfo
	Value Expr
	Slice SliceNode
}

type FunctionCall struct {
	ExprInfo
	Func Expr
	Args []Expr
}

// TemplateInst is a compile-time template instantiation such as
// load("trades.csv"); Resolutions holds the DataDefs synthesized while
// pre-evaluating the arguments.
type TemplateInst struct {
	ExprInfo
	Func        Expr
	Args        []Expr
	Resolutions []Stmt
}

type UnaryOp struct {
	ExprInfo
	Op      string
	Operand Expr
	Ref     Resolved
}

type BinOp struct {
	ExprInfo
	Left  Expr
	Op    string
	Right Expr
	Ref   Resolved
}

type UserDefinedLiteral struct {
	ExprInfo
	Literal Expr
	Suffix  string
	Ref     Resolved
}

type IntegerLiteral struct {
	ExprInfo
	Val int64
}

type FloatingLiteral struct {
	ExprInfo
	Val float64
}

type BoolLiteral struct {
	ExprInfo
	Val bool
}

type Str struct {
	ExprInfo
	Val string
}

type Char struct {
	ExprInfo
	Val rune
}

type List struct {
	ExprInfo
	Values []Expr
}

type Paren struct {
	ExprInfo
	Sub Expr
}

type Query struct {
	ExprInfo
	Table  Expr
	Qt     Querytype
	Cols   []*Alias
	By     []*Alias
	Where  Expr
	ByType Datatype
}

type Sort struct {
	ExprInfo
	Table  Expr
	By     []*Alias
	ByType Datatype
}

type Join struct {
	ExprInfo
	Left          Expr
	Right         Expr
	LeftOn        []*Alias
	RightOn       []*Alias
	LeftOnType    Datatype
	RightOnType   Datatype
	LeftAsof      *Alias
	RightAsof     *Alias
	Strict        bool
	Direction     Direction
	Within        Expr
	RemainingType Datatype
}

/* slices */

type SliceNode interface {
	sliceNode()
}

// Slice is a lower:upper:step range; each bound is optional.
type Slice struct {
	Lower Expr
	Upper Expr
	Step  Expr
}

// Index is a single subscript position.
type Index struct {
	Value Expr
}

func (*Slice) sliceNode() {}
func (*Index) sliceNode() {}
