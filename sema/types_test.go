package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/vvm"
)

var (
	i64T = &hir.VVMType{T: vvm.I64}
	f64T = &hir.VVMType{T: vvm.F64}
	strT = &hir.VVMType{T: vvm.S}
)

func TestSameTypeWildcard(t *testing.T) {
	assert.True(t, sameType(nil, i64T))
	assert.True(t, sameType(i64T, nil))
	assert.True(t, sameType(nil, nil))
}

func TestSameTypeStructure(t *testing.T) {
	assert.True(t, sameType(i64T, &hir.VVMType{T: vvm.I64}))
	assert.False(t, sameType(i64T, f64T))

	assert.True(t, sameType(&hir.Array{Elem: i64T}, &hir.Array{Elem: i64T}))
	assert.False(t, sameType(&hir.Array{Elem: i64T}, i64T))
	assert.False(t, sameType(&hir.Array{Elem: i64T}, &hir.Array{Elem: f64T}))

	ft := &hir.FuncType{Args: []hir.Datatype{i64T, f64T}, Ret: strT}
	same := &hir.FuncType{Args: []hir.Datatype{i64T, f64T}, Ret: strT}
	shorter := &hir.FuncType{Args: []hir.Datatype{i64T}, Ret: strT}
	assert.True(t, sameType(ft, same))
	assert.False(t, sameType(ft, shorter))

	assert.True(t, sameType(&hir.Kind{Of: i64T}, &hir.Kind{Of: i64T}))
	assert.False(t, sameType(&hir.Kind{Of: i64T}, &hir.Kind{Of: f64T}))
	assert.True(t, sameType(&hir.Void{}, &hir.Void{}))
}

func TestSameTypeUDTComparesFieldsAndNames(t *testing.T) {
	mk := func(names []string, types []hir.Datatype) hir.Datatype {
		dd := &hir.DataDef{Name: "T"}
		for i := range names {
			dd.Body = append(dd.Body, &hir.Declaration{Name: names[i], Type: types[i], Offset: i})
		}
		return &hir.UDT{Name: "T", Ref: &hir.DataRef{Def: dd}}
	}
	left := mk([]string{"x", "y"}, []hir.Datatype{i64T, f64T})
	assert.True(t, sameType(left, mk([]string{"x", "y"}, []hir.Datatype{i64T, f64T})))
	assert.False(t, sameType(left, mk([]string{"x", "z"}, []hir.Datatype{i64T, f64T})))
	assert.False(t, sameType(left, mk([]string{"x", "y"}, []hir.Datatype{i64T, i64T})))
	assert.False(t, sameType(left, mk([]string{"x"}, []hir.Datatype{i64T})))
}

func TestTypeStringRendering(t *testing.T) {
	assert.Equal(t, "Int64", toString(i64T))
	assert.Equal(t, "[Float64]", toString(&hir.Array{Elem: f64T}))
	assert.Equal(t, "(Int64, Float64) -> String",
		toString(&hir.FuncType{Args: []hir.Datatype{i64T, f64T}, Ret: strT}))
	assert.Equal(t, "Kind(Int64)", toString(&hir.Kind{Of: i64T}))
	assert.Equal(t, "()", toString(&hir.Void{}))
	assert.Equal(t, "_", toString(nil))
}

func TestMatchArgsMessages(t *testing.T) {
	ft := &hir.FuncType{Args: []hir.Datatype{i64T, f64T}, Ret: i64T}
	one := &hir.IntegerLiteral{ExprInfo: hir.ExprInfo{Typ: i64T}}
	str := &hir.Str{ExprInfo: hir.ExprInfo{Typ: strT}}

	assert.Equal(t, "wrong number of arguments; expected 2 but got 1",
		matchArgs([]hir.Expr{one}, ft))
	assert.Equal(t, "argument type at position 1 does not match: String vs Float64",
		matchArgs([]hir.Expr{one, str}, ft))
	two := &hir.FloatingLiteral{ExprInfo: hir.ExprInfo{Typ: f64T}}
	assert.Empty(t, matchArgs([]hir.Expr{one, two}, ft))
}

func TestKindOfUDTIsConstructor(t *testing.T) {
	dd := &hir.DataDef{Name: "Point", Body: []*hir.Declaration{
		{Name: "x", Type: i64T}, {Name: "y", Type: i64T},
	}}
	kind := typeOf(&hir.DataRef{Def: dd})
	require.True(t, isKindType(kind))
	args := argtypesOf(kind)
	require.Len(t, args, 2)
	assert.True(t, sameType(args[0], i64T))
	udt, ok := rettypeOf(kind).(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "Point", udt.Name)
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, isTemporary(&hir.Id{}))
	assert.False(t, isTemporary(&hir.Member{}))
	assert.False(t, isTemporary(&hir.Subscript{}))
	assert.False(t, isTemporary(&hir.ImpliedMember{}))
	assert.False(t, isTemporary(&hir.OverloadedId{}))
	assert.True(t, isTemporary(&hir.IntegerLiteral{}))
	assert.True(t, isTemporary(&hir.BinOp{}))
	assert.True(t, isTemporary(&hir.FunctionCall{}))
}

func TestPredicates(t *testing.T) {
	assert.True(t, isStringType(strT))
	assert.True(t, isIndexableType(i64T))
	assert.True(t, isBooleanType(&hir.VVMType{T: vvm.B8}))
	assert.False(t, isBooleanType(i64T))
	assert.True(t, isCallable(&hir.Kind{Of: i64T}))
	assert.True(t, isCallable(&hir.FuncType{Ret: i64T}))
	assert.False(t, isCallable(i64T))
	assert.True(t, isVoidType(&hir.Void{}))
}

func TestDropColumns(t *testing.T) {
	dd := &hir.DataDef{Name: "!Q", Body: []*hir.Declaration{
		{Name: "sym", Type: &hir.Array{Elem: strT}},
		{Name: "ts", Type: &hir.Array{Elem: &hir.VVMType{T: vvm.T64}}},
		{Name: "bid", Type: &hir.Array{Elem: f64T}},
	}}
	full := &hir.UDT{Name: "!Q", Ref: &hir.DataRef{Def: dd}}

	onDD := &hir.DataDef{Name: "On", Body: []*hir.Declaration{{Name: "sym", Type: strT}}}
	onType := &hir.UDT{Name: "On", Ref: &hir.DataRef{Def: onDD}}

	assert.Equal(t, "bid: Float64", dropColumns(full, onType, "ts"))
	assert.Equal(t, "sym: String, ts: Timestamp, bid: Float64", dropColumns(full, nil, ""))
}
