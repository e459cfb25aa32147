package semerr

import (
	"fmt"
	"strings"
)

type NewSymbolNotFound struct {
	Name       string
	Suggestion string
}

func (e NewSymbolNotFound) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("symbol %s was not found; did you mean '%s'?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("symbol %s was not found", e.Name)
}
func (e NewSymbolNotFound) ErrCode() ErrCode { return SymbolNotFound }

type NewAlreadyDefined struct {
	Name string
}

func (e NewAlreadyDefined) Error() string {
	return fmt.Sprintf("symbol %s was already defined", e.Name)
}
func (e NewAlreadyDefined) ErrCode() ErrCode { return AlreadyDefined }

type NewNoMembers struct{}

func (e NewNoMembers) Error() string    { return "value does not have members" }
func (e NewNoMembers) ErrCode() ErrCode { return NoMembers }

type NewNotAMember struct {
	Name string
}

func (e NewNotAMember) Error() string {
	return fmt.Sprintf("%s is not a member", e.Name)
}
func (e NewNotAMember) ErrCode() ErrCode { return NotAMember }

// NewTypeMismatch covers assignment and declaration mismatches; Context
// names the construct.
type NewTypeMismatch struct {
	Context string
	Left    string
	Right   string
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("mismatched types in %s: %s vs %s", e.Context, e.Left, e.Right)
}
func (e NewTypeMismatch) ErrCode() ErrCode { return TypeMismatch }

type NewNonBoolean struct {
	Got string
}

func (e NewNonBoolean) Error() string {
	return fmt.Sprintf("conditional must be a boolean, not %s", e.Got)
}
func (e NewNonBoolean) ErrCode() ErrCode { return NonBoolean }

// NewNotIndexable rejects non-integer slice bounds and indexes; Which is
// "lower bound", "upper bound", "step", or empty for a plain index.
type NewNotIndexable struct {
	Which string
	Got   string
}

func (e NewNotIndexable) Error() string {
	if e.Which == "" {
		return fmt.Sprintf("type %s cannot be used as an index", e.Got)
	}
	return fmt.Sprintf("%s type %s cannot be used as an index", e.Which, e.Got)
}
func (e NewNotIndexable) ErrCode() ErrCode { return NotIndexable }

type NewNotArray struct {
	Got string
}

func (e NewNotArray) Error() string {
	return fmt.Sprintf("value must be an array; got type %s", e.Got)
}
func (e NewNotArray) ErrCode() ErrCode { return NotIndexable }

type NewNotCallable struct {
	Got string
}

func (e NewNotCallable) Error() string {
	return fmt.Sprintf("type %s is not callable", e.Got)
}
func (e NewNotCallable) ErrCode() ErrCode { return NotCallable }

// NewInvalidAnnotation fires when a type annotation does not denote a type.
type NewInvalidAnnotation struct {
	Context string
	Name    string
}

func (e NewInvalidAnnotation) Error() string {
	return fmt.Sprintf("%s for %s has invalid type", e.Context, e.Name)
}
func (e NewInvalidAnnotation) ErrCode() ErrCode { return InvalidAnnotation }

type NewVoidType struct {
	Context string // "assignable" or "declarable"
}

func (e NewVoidType) Error() string {
	if e.Context == "assignable" {
		return "type 'void' is not assignable"
	}
	return "symbol cannot have a 'void' type"
}
func (e NewVoidType) ErrCode() ErrCode { return VoidType }

// NewNamingConvention enforces lowercase value names and uppercase type
// names.
type NewNamingConvention struct {
	Name   string
	IsType bool
}

func (e NewNamingConvention) Error() string {
	if e.IsType {
		return fmt.Sprintf("type name %s must begin with upper-case letter", e.Name)
	}
	return fmt.Sprintf("value name %s must begin with lower-case letter", e.Name)
}
func (e NewNamingConvention) ErrCode() ErrCode { return NamingConvention }

// NewCallMismatch wraps the argument-matching explanation for a direct
// (non-overloaded) call.
type NewCallMismatch struct {
	Reason string
}

func (e NewCallMismatch) Error() string    { return e.Reason }
func (e NewCallMismatch) ErrCode() ErrCode { return CallMismatch }

// NewOverloadNoMatch lists up to three candidate signatures with the reason
// each was rejected.
type NewOverloadNoMatch struct {
	Name       string
	Candidates []string // "candidate: <sig>\n    <reason>"
	Omitted    int
}

func (e NewOverloadNoMatch) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unable to match overloaded function %s", e.Name)
	for _, c := range e.Candidates {
		b.WriteString("\n  ")
		b.WriteString(c)
	}
	if e.Omitted > 0 {
		fmt.Fprintf(&b, "\n  ...\n  <%d others>", e.Omitted)
	}
	return b.String()
}
func (e NewOverloadNoMatch) ErrCode() ErrCode { return OverloadNoMatch }

// NewAmbiguousOverload rejects an overloaded name escaping a call position.
type NewAmbiguousOverload struct {
	Name    string
	Context string
}

func (e NewAmbiguousOverload) Error() string {
	return fmt.Sprintf("overloaded name %s is ambiguous in %s", e.Name, e.Context)
}
func (e NewAmbiguousOverload) ErrCode() ErrCode { return AmbiguousOverload }

type NewCastReturn struct {
	Name string
}

func (e NewCastReturn) Error() string {
	return fmt.Sprintf("cast definition for %s must return its own type", e.Name)
}
func (e NewCastReturn) ErrCode() ErrCode { return CastReturn }

type NewCastNotType struct {
	Name string
}

func (e NewCastNotType) Error() string {
	return fmt.Sprintf("cast definition must be for a type, not %s", e.Name)
}
func (e NewCastNotType) ErrCode() ErrCode { return CastNotType }

// NewNotDataframe rejects a relational operand that is not a Dataframe;
// Which is "query", "sort", "join for left", or "join for right".
type NewNotDataframe struct {
	Which string
	Got   string
}

func (e NewNotDataframe) Error() string {
	return fmt.Sprintf("%s must be on Dataframe, not %s", e.Which, e.Got)
}
func (e NewNotDataframe) ErrCode() ErrCode { return NotDataframe }

// NewAggregationShape covers the projection/aggregation shape rules of a
// query's result columns.
type NewAggregationShape struct {
	Kind string // "array", "scalar", "missing"
}

func (e NewAggregationShape) Error() string {
	switch e.Kind {
	case "array":
		return "resulting column must be an array"
	case "scalar":
		return "resulting column must be a scalar"
	default:
		return "must express aggregation if 'by' is listed"
	}
}
func (e NewAggregationShape) ErrCode() ErrCode { return AggregationShape }

type NewWhereNotBoolean struct {
	Got string
}

func (e NewWhereNotBoolean) Error() string {
	return fmt.Sprintf("'where' must be a boolean array; got type %s", e.Got)
}
func (e NewWhereNotBoolean) ErrCode() ErrCode { return NonBoolean }

type NewJoinOnIncompatible struct {
	Left  string
	Right string
}

func (e NewJoinOnIncompatible) Error() string {
	return fmt.Sprintf("join 'on' types are not compatible: %s vs %s", e.Left, e.Right)
}
func (e NewJoinOnIncompatible) ErrCode() ErrCode { return JoinIncompatible }

type NewJoinAsofIncompatible struct {
	Left  string
	Right string
}

func (e NewJoinAsofIncompatible) Error() string {
	return fmt.Sprintf("join 'asof' types are not compatible: %s vs %s", e.Left, e.Right)
}
func (e NewJoinAsofIncompatible) ErrCode() ErrCode { return JoinIncompatible }

type NewJoinWithinMismatch struct {
	Expected string
	Got      string
}

func (e NewJoinWithinMismatch) Error() string {
	return fmt.Sprintf("join 'asof' types not compatible with 'within': expected %s, got %s", e.Expected, e.Got)
}
func (e NewJoinWithinMismatch) ErrCode() ErrCode { return JoinIncompatible }

type NewJoinNotSubtractable struct {
	Got string
}

func (e NewJoinNotSubtractable) Error() string {
	return fmt.Sprintf("join 'asof' types prohibit 'within' or 'nearest': %s", e.Got)
}
func (e NewJoinNotSubtractable) ErrCode() ErrCode { return JoinIncompatible }

type NewNearestStrict struct{}

func (e NewNearestStrict) Error() string {
	return "join 'asof' cannot be both 'nearest' and 'strict'"
}
func (e NewNearestStrict) ErrCode() ErrCode { return NearestStrict }

type NewNoReturn struct {
	Name string
}

func (e NewNoReturn) Error() string {
	return fmt.Sprintf("function %s has no return statements", e.Name)
}
func (e NewNoReturn) ErrCode() ErrCode { return NoReturn }

type NewMismatchedReturn struct {
	Name  string
	Left  string
	Right string
}

func (e NewMismatchedReturn) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("mismatched return types in function %s: %s vs %s", e.Name, e.Left, e.Right)
	}
	return fmt.Sprintf("mismatched return types: %s vs %s", e.Left, e.Right)
}
func (e NewMismatchedReturn) ErrCode() ErrCode { return MismatchedReturn }

type NewUndeterminedReturn struct {
	Name string
}

func (e NewUndeterminedReturn) Error() string {
	return fmt.Sprintf("unable to determine return type for function %s", e.Name)
}
func (e NewUndeterminedReturn) ErrCode() ErrCode { return NoReturn }

type NewReturnOutsideFunction struct{}

func (e NewReturnOutsideFunction) Error() string {
	return "return statement is not in function body"
}
func (e NewReturnOutsideFunction) ErrCode() ErrCode { return ReturnOutsideFunction }

type NewTemporaryTarget struct{}

func (e NewTemporaryTarget) Error() string {
	return "target of assignment cannot be temporary"
}
func (e NewTemporaryTarget) ErrCode() ErrCode { return TemporaryTarget }

type NewListMismatch struct {
	Left  string
	Right string
}

func (e NewListMismatch) Error() string {
	return fmt.Sprintf("mismatch in list: %s vs %s", e.Left, e.Right)
}
func (e NewListMismatch) ErrCode() ErrCode { return ListMismatch }

type NewListOneType struct{}

func (e NewListOneType) Error() string    { return "only one type allowed for lists" }
func (e NewListOneType) ErrCode() ErrCode { return ListMismatch }

type NewUnknownType struct {
	Name string
}

func (e NewUnknownType) Error() string {
	if e.Name == "" {
		return "unable to determine type"
	}
	return fmt.Sprintf("unable to resolve type for %s", e.Name)
}
func (e NewUnknownType) ErrCode() ErrCode { return UnknownType }

type NewLoadArgument struct{}

func (e NewLoadArgument) Error() string    { return "'load' expects a String parameter" }
func (e NewLoadArgument) ErrCode() ErrCode { return LoadArgument }

type NewLoadFailed struct {
	Detail string
}

func (e NewLoadFailed) Error() string {
	return fmt.Sprintf("'load' could not be evaluated: %s", e.Detail)
}
func (e NewLoadFailed) ErrCode() ErrCode { return LoadArgument }
