package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/vvm"
)

func intLit(v int64) hir.Expr {
	return &hir.IntegerLiteral{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.I64}}, Val: v}
}

func strLit(v string) hir.Expr {
	return &hir.Str{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.S}}, Val: v}
}

func TestCodegenScalarProgram(t *testing.T) {
	mod := &hir.Module{Body: []hir.Stmt{
		&hir.Decl{Decls: []*hir.Declaration{{Name: "x", Value: intLit(3)}}},
		&hir.ExprStmt{Value: &hir.BinOp{
			Left: &hir.Id{Sym: "x"}, Op: "+", Right: intLit(2),
		}},
	}}
	prog, err := Codegen(mod, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"x := 3"}, prog.Stmts)
	assert.Equal(t, "(x + 2)", prog.Expr)
}

func TestCodegenRejectsRelational(t *testing.T) {
	mod := &hir.Module{Body: []hir.Stmt{
		&hir.ExprStmt{Value: &hir.Query{}},
	}}
	_, err := Codegen(mod, true, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the executable subset")
}

func TestCodegenKeywordCollision(t *testing.T) {
	mod := &hir.Module{Body: []hir.Stmt{
		&hir.Decl{Decls: []*hir.Declaration{{Name: "type", Value: intLit(1)}}},
	}}
	prog, err := Codegen(mod, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"type_ := 1"}, prog.Stmts)
}

func TestSessionEvaluatesArithmetic(t *testing.T) {
	session := NewSession()
	mod := &hir.Module{Body: []hir.Stmt{
		&hir.Decl{Decls: []*hir.Declaration{{Name: "x", Value: intLit(3)}}},
		&hir.ExprStmt{Value: &hir.BinOp{
			Left: &hir.Id{Sym: "x"}, Op: "+", Right: intLit(2),
		}},
	}}
	out, err := session.Eval(mod)
	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func TestSessionQuotesStrings(t *testing.T) {
	session := NewSession()
	mod := &hir.Module{Body: []hir.Stmt{
		&hir.ExprStmt{Value: &hir.BinOp{
			Left: strLit("trades"), Op: "+", Right: strLit(".csv"),
		}},
	}}
	out, err := session.Eval(mod)
	require.NoError(t, err)
	assert.Equal(t, `"trades.csv"`, out)
}

func TestSessionStatePersistsAcrossCalls(t *testing.T) {
	session := NewSession()
	_, err := session.Eval(&hir.Module{Body: []hir.Stmt{
		&hir.Decl{Decls: []*hir.Declaration{{Name: "base", Value: strLit("trades")}}},
	}})
	require.NoError(t, err)

	out, err := session.Eval(&hir.Module{Body: []hir.Stmt{
		&hir.ExprStmt{Value: &hir.BinOp{
			Left: &hir.Id{Sym: "base"}, Op: "+", Right: strLit(".csv"),
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, `"trades.csv"`, out)
}
