package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorinm/empirical-lang/backend"
	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/parser"
	"github.com/sorinm/empirical-lang/sema"
	"github.com/sorinm/empirical-lang/vvm/csvinfer"
)

func compile(t *testing.T, src string) (*hir.Module, *backend.Session, error) {
	t.Helper()
	mod, err := parser.Parse(src, false, false)
	require.NoError(t, err)
	session := backend.NewSession()
	hirMod, err := sema.Analyze(mod, sema.Config{
		Eval:       session.Eval,
		InferTable: csvinfer.InferTableFromFile,
	})
	return hirMod, session, err
}

func TestScalarPipeline(t *testing.T) {
	hirMod, session, err := compile(t, "x := 3\ny := x + 2\ny\n")
	require.NoError(t, err)

	out, err := session.Eval(hirMod)
	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func TestLoadPipeline(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"sym,price,volume\nAAPL,189.5,100\nMSFT,410.25,50\n",
	), 0o644))

	src := fmt.Sprintf("t := load(%q)\n", csvPath)
	hirMod, _, err := compile(t, src)
	require.NoError(t, err)

	decl := hirMod.Body[0].(*hir.Decl).Decls[0]
	udt, ok := decl.Type.(*hir.UDT)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(udt.Name, "!Provider$"))
	assert.True(t, strings.HasSuffix(udt.Name, "trades.csv"))
	assert.Equal(t, "sym: [String], price: [Float64], volume: [Int64]",
		fieldSummary(decl.Type))
}

func TestQueryOverLoadedTable(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"sym,price,volume\nAAPL,189.5,100\nMSFT,410.25,50\n",
	), 0o644))

	src := fmt.Sprintf("t := load(%q)\nr := from t select avg(price) by sym where volume > 0\n", csvPath)
	hirMod, _, err := compile(t, src)
	require.NoError(t, err)

	decl := hirMod.Body[1].(*hir.Decl).Decls[0]
	assert.Equal(t, "sym: [String], avg_price: [Float64]", fieldSummary(decl.Type))
}

func TestDiagnosticsAreAggregated(t *testing.T) {
	_, _, err := compile(t, "a := nope\nb := 1 + \"s\"\n")
	require.Error(t, err)
	// one failed pass surfaces every problem
	assert.Contains(t, err.Error(), "symbol nope was not found")
	assert.Contains(t, err.Error(), "unable to match overloaded function +")
}

func fieldSummary(dt hir.Datatype) string {
	udt, ok := dt.(*hir.UDT)
	if !ok {
		return ""
	}
	ref, ok := udt.Ref.(*hir.DataRef)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(ref.Def.Body))
	for _, d := range ref.Def.Body {
		parts = append(parts, d.Name+": "+hir.TypeString(d.Type))
	}
	return strings.Join(parts, ", ")
}
