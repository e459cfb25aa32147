package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/parser"
	"github.com/sorinm/empirical-lang/vvm"
)

func analyzeSrc(t *testing.T, src string, cfg Config) (*hir.Module, error) {
	t.Helper()
	mod, err := parser.Parse(src, false, false)
	require.NoError(t, err)
	return Analyze(mod, cfg)
}

func mustAnalyze(t *testing.T, src string) *hir.Module {
	t.Helper()
	m, err := analyzeSrc(t, src, Config{})
	require.NoError(t, err)
	return m
}

func declType(t *testing.T, s hir.Stmt) hir.Datatype {
	t.Helper()
	decl, ok := s.(*hir.Decl)
	require.True(t, ok)
	require.Len(t, decl.Decls, 1)
	return decl.Decls[0].Type
}

const tradeDef = `
data Trade: sym: String, ts: Timestamp, price: Float64, volume: Int64 end
var t: !Trade
`

func TestDeclAndBinOp(t *testing.T) {
	m := mustAnalyze(t, "a := 3\nb := a + 2\n")
	require.Len(t, m.Body, 2)
	assert.True(t, sameType(declType(t, m.Body[0]), &hir.VVMType{T: vvm.I64}))
	assert.True(t, sameType(declType(t, m.Body[1]), &hir.VVMType{T: vvm.I64}))

	bin := m.Body[1].(*hir.Decl).Decls[0].Value.(*hir.BinOp)
	op, ok := bin.Ref.(*hir.VVMOpRef)
	require.True(t, ok, "binary + should resolve to the builtin operator")
	assert.Equal(t, "add_i64s", op.Opcode)
}

func TestRecordConstructionAndMember(t *testing.T) {
	m := mustAnalyze(t, `
data Point: x: Int64, y: Int64 end
p := Point(1, 2)
q := p.x
`)
	require.Len(t, m.Body, 3)
	pt := declType(t, m.Body[1])
	udt, ok := pt.(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "Point", udt.Name)
	assert.True(t, sameType(declType(t, m.Body[2]), &hir.VVMType{T: vvm.I64}))
}

func TestRecordConstructorArgMismatch(t *testing.T) {
	_, err := analyzeSrc(t, `
data Point: x: Int64, y: Int64 end
p := Point(1)
`, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong number of arguments")
}

func TestMonomorphicFunction(t *testing.T) {
	m := mustAnalyze(t, `
func add(x: Int64, y: Int64) -> Int64:
  return x + y
end
r := add(1, 2)
`)
	fd, ok := m.Body[0].(*hir.FunctionDef)
	require.True(t, ok)
	assert.True(t, sameType(fd.Rettype, &hir.VVMType{T: vvm.I64}))
	assert.True(t, sameType(declType(t, m.Body[1]), &hir.VVMType{T: vvm.I64}))

	call := m.Body[1].(*hir.Decl).Decls[0].Value.(*hir.FunctionCall)
	id, ok := call.Func.(*hir.Id)
	require.True(t, ok)
	assert.IsType(t, &hir.FuncRef{}, id.Ref)
}

func TestGenericInstantiation(t *testing.T) {
	m := mustAnalyze(t, `
func id(x):
  return x
end
a := id(1)
b := id("a")
c := id(2)
`)
	generic, ok := m.Body[0].(*hir.GenericFunctionDef)
	require.True(t, ok)
	require.Len(t, generic.Instantiated, 2, "the Int64 instantiation is reused")

	first := funcTypeOf(generic.Instantiated[0])
	require.Len(t, first.Args, 1)
	assert.True(t, sameType(first.Args[0], &hir.VVMType{T: vvm.I64}))
	assert.True(t, sameType(first.Ret, &hir.VVMType{T: vvm.I64}))

	second := funcTypeOf(generic.Instantiated[1])
	assert.True(t, sameType(second.Args[0], &hir.VVMType{T: vvm.S}))
	assert.True(t, sameType(second.Ret, &hir.VVMType{T: vvm.S}))

	assert.True(t, sameType(declType(t, m.Body[1]), &hir.VVMType{T: vvm.I64}))
	assert.True(t, sameType(declType(t, m.Body[2]), &hir.VVMType{T: vvm.S}))

	// instantiated bodies are real, not empty shells
	require.NotEmpty(t, generic.Instantiated[0].Body)
}

func TestRecursiveFunction(t *testing.T) {
	m := mustAnalyze(t, `
func fact(n: Int64) -> Int64:
  if n <= 1:
    return 1
  end
  return n * fact(n - 1)
end
`)
	fd := m.Body[0].(*hir.FunctionDef)
	assert.True(t, sameType(fd.Rettype, &hir.VVMType{T: vvm.I64}))
}

func TestRecursiveGenericTerminates(t *testing.T) {
	// a self-call inside the instantiated body must resolve to the
	// in-progress instantiation instead of recursing forever
	_, err := analyzeSrc(t, `
func loop(x):
  return loop(x)
end
r := loop(1)
`, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to determine return type")
}

func TestGenericCallRoutesToInstantiation(t *testing.T) {
	m := mustAnalyze(t, "func id(x):\n  return x\nend\na := id(1)\n")
	call := m.Body[1].(*hir.Decl).Decls[0].Value.(*hir.FunctionCall)
	id, ok := call.Func.(*hir.Id)
	require.True(t, ok, "a resolved call must not keep a generic callee")
	assert.IsType(t, &hir.FuncRef{}, id.Ref)
}

func TestDataframeFieldsAreArrayWrapped(t *testing.T) {
	m := mustAnalyze(t, "data Point: x: Int64, y: Float64 end\nvar ps: !Point\n")
	dfType := declType(t, m.Body[1])
	udt, ok := dfType.(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "!Point", udt.Name)

	df := dataDefOf(dfType)
	require.NotNil(t, df)
	scalar := []hir.Datatype{&hir.VVMType{T: vvm.I64}, &hir.VVMType{T: vvm.F64}}
	names := []string{"x", "y"}
	require.Len(t, df.Body, 2)
	for i, field := range df.Body {
		assert.Equal(t, names[i], field.Name)
		assert.True(t, sameType(field.Type, &hir.Array{Elem: scalar[i]}))
	}
}

func TestQueryAggregation(t *testing.T) {
	m := mustAnalyze(t, tradeDef+"r := from t select avg(price) by sym where volume > 0\n")
	q := m.Body[2].(*hir.Decl).Decls[0].Value.(*hir.Query)

	// sym resolves through the preferred scope
	require.Len(t, q.By, 1)
	assert.IsType(t, &hir.ImpliedMember{}, q.By[0].Value)

	// the result is a fresh Dataframe with sym and avg_price columns
	udt, ok := q.Type().(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "!Anon__1", udt.Name)
	dd := dataDefOf(q.Type())
	require.NotNil(t, dd)
	require.Len(t, dd.Body, 2)
	assert.Equal(t, "sym", dd.Body[0].Name)
	assert.True(t, sameType(dd.Body[0].Type, &hir.Array{Elem: &hir.VVMType{T: vvm.S}}))
	assert.Equal(t, "avg_price", dd.Body[1].Name)
	assert.True(t, sameType(dd.Body[1].Type, &hir.Array{Elem: &hir.VVMType{T: vvm.F64}}))

	// where is a boolean array
	assert.True(t, sameType(q.Where.Type(), &hir.Array{Elem: &hir.VVMType{T: vvm.B8}}))
}

func TestQueryProjectionRejectsScalar(t *testing.T) {
	_, err := analyzeSrc(t, tradeDef+"r := from t select sum(price)\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resulting column must be an array")
}

func TestQueryAggregationRejectsArray(t *testing.T) {
	_, err := analyzeSrc(t, tradeDef+"r := from t select price by sym\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resulting column must be a scalar")
}

func TestQueryByWithoutColsRejected(t *testing.T) {
	_, err := analyzeSrc(t, tradeDef+"r := from t select by sym\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must express aggregation")
}

func TestQueryFilterOnlyKeepsTableType(t *testing.T) {
	m := mustAnalyze(t, tradeDef+"threshold := 0\nr := from t select where volume > threshold\n")
	q := m.Body[3].(*hir.Decl).Decls[0].Value.(*hir.Query)
	udt, ok := q.Type().(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "!Trade", udt.Name)
}

func TestQueryOnNonDataframe(t *testing.T) {
	_, err := analyzeSrc(t, "x := 1\nr := from x select where [true]\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query must be on Dataframe")
}

func TestSortKeepsTableType(t *testing.T) {
	m := mustAnalyze(t, tradeDef+"r := sort t by sym, price\n")
	s := m.Body[2].(*hir.Decl).Decls[0].Value.(*hir.Sort)
	udt, ok := s.Type().(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "!Trade", udt.Name)
	require.NotNil(t, s.ByType)
	assert.True(t, isDataframeType(s.ByType))
}

const quoteDef = `
data Quote: sym: String, ts: Timestamp, bid: Float64 end
var q: !Quote
`

func TestJoinOutputDropsRightKeys(t *testing.T) {
	m := mustAnalyze(t, tradeDef+quoteDef+"j := join t, q on sym asof ts\n")
	j := m.Body[4].(*hir.Decl).Decls[0].Value.(*hir.Join)

	dd := dataDefOf(j.Type())
	require.NotNil(t, dd)
	var names []string
	for _, d := range dd.Body {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"sym", "ts", "price", "volume", "bid"}, names)
	assert.True(t, sameType(j.LeftOnType, j.RightOnType))
}

func TestJoinAsofWithin(t *testing.T) {
	m := mustAnalyze(t, tradeDef+quoteDef+"j := join t, q on sym asof ts within 5s\n")
	j := m.Body[4].(*hir.Decl).Decls[0].Value.(*hir.Join)
	require.NotNil(t, j.Within)
	assert.True(t, sameType(j.Within.Type(), &hir.VVMType{T: vvm.D64}))
}

func TestJoinWithinTypeMismatch(t *testing.T) {
	_, err := analyzeSrc(t, tradeDef+quoteDef+"j := join t, q on sym asof ts within 5\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible with 'within'")
}

func TestJoinNearestStrictConflict(t *testing.T) {
	_, err := analyzeSrc(t, tradeDef+quoteDef+"j := join t, q on sym asof ts strict nearest\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be both 'nearest' and 'strict'")
}

func TestJoinOnTypeMismatch(t *testing.T) {
	src := `
data A: k: Int64, u: Float64 end
data B: k: String, v: Float64 end
var left: !A
var right: !B
j := join left, right on k
`
	_, err := analyzeSrc(t, src, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join 'on' types are not compatible")
}

func TestLoadSynthesizesProvider(t *testing.T) {
	var evaluated, inferred string
	cfg := Config{
		Eval: func(mod *hir.Module) (string, error) {
			require.Len(t, mod.Body, 1)
			evaluated = hir.ExprString(mod.Body[0].(*hir.ExprStmt).Value)
			return `"trades.csv"`, nil
		},
		InferTable: func(path string) (string, error) {
			inferred = path
			return "sym: String, price: Float64, size: Int64", nil
		},
	}
	m, err := analyzeSrc(t, "t := load(\"trades.csv\")\n", cfg)
	require.NoError(t, err)
	assert.Equal(t, `"trades.csv"`, evaluated)
	assert.Equal(t, "trades.csv", inferred)

	ti := m.Body[0].(*hir.Decl).Decls[0].Value.(*hir.TemplateInst)
	require.Len(t, ti.Resolutions, 1)
	dd := ti.Resolutions[0].(*hir.DataDef)
	assert.Equal(t, "Provider$trades.csv", dd.Name)

	udt, ok := ti.Type().(*hir.UDT)
	require.True(t, ok)
	assert.Equal(t, "!Provider$trades.csv", udt.Name)
	fields := dataDefOf(ti.Type())
	require.Len(t, fields.Body, 3)
	assert.True(t, sameType(fields.Body[1].Type, &hir.Array{Elem: &hir.VVMType{T: vvm.F64}}))
}

func TestLoadRejectsNonString(t *testing.T) {
	cfg := Config{
		Eval:       func(*hir.Module) (string, error) { return "", nil },
		InferTable: func(string) (string, error) { return "", nil },
	}
	_, err := analyzeSrc(t, "t := load(3)\n", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'load' expects a String parameter")
}

func TestCastDefinition(t *testing.T) {
	m := mustAnalyze(t, `
data Celsius: deg: Float64 end
func Celsius(x: Float64) -> Celsius:
  return Celsius(x)
end
`)
	require.Len(t, m.Body, 2)
}

func TestCastMustReturnOwnType(t *testing.T) {
	_, err := analyzeSrc(t, `
data Celsius: deg: Float64 end
func Celsius(x: Int64) -> Int64:
  return x
end
`, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cast definition for Celsius must return its own type")
}

func TestSymbolNotFoundSuggests(t *testing.T) {
	_, err := analyzeSrc(t, "price := 1\nr := prics + 1\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol prics was not found")
	assert.Contains(t, err.Error(), "did you mean 'price'?")
}

func TestAssignmentRules(t *testing.T) {
	_, err := analyzeSrc(t, "a := 1\na = \"s\"\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched types in assignment")

	_, err = analyzeSrc(t, "1 = 2\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target of assignment cannot be temporary")
}

func TestOverloadedIdMustNotEscapeCall(t *testing.T) {
	src := `
func weight(x: Int64) -> Int64:
  return x
end
func weight(x: Float64) -> Float64:
  return x
end
w := weight
`
	_, err := analyzeSrc(t, src, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded name weight is ambiguous")
}

func TestOverloadNoMatchListsCandidates(t *testing.T) {
	_, err := analyzeSrc(t, "r := 1 + \"s\"\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to match overloaded function +")
	assert.Contains(t, err.Error(), "candidate:")
	assert.Contains(t, err.Error(), "others>")
}

func TestConditionalMustBeBoolean(t *testing.T) {
	_, err := analyzeSrc(t, "if 1:\n  a := 2\nend\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conditional must be a boolean")
}

func TestNamingConventions(t *testing.T) {
	_, err := analyzeSrc(t, "Up := 1\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must begin with lower-case letter")

	_, err = analyzeSrc(t, "data point: x: Int64 end\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must begin with upper-case letter")
}

func TestReturnOutsideFunction(t *testing.T) {
	_, err := analyzeSrc(t, "return 1\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return statement is not in function body")
}

func TestMismatchedReturns(t *testing.T) {
	src := `
func f(b: Bool) -> Int64:
  if b:
    return 1
  else:
    return "s"
  end
end
`
	_, err := analyzeSrc(t, src, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched return types")
}

func TestImportIsFatal(t *testing.T) {
	mod, err := parser.Parse("import math\n", false, false)
	require.NoError(t, err)
	m, err := Analyze(mod, Config{})
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "not yet implemented")
}

func TestDelRemovesFromScope(t *testing.T) {
	_, err := analyzeSrc(t, "a := 1\ndel a\nb := a\n", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol a was not found")
}

func TestFailedDefinitionIsUnwound(t *testing.T) {
	// the broken data definition must not leave Broken in scope
	src := `
data Broken: x: Nope end
var b: Broken
`
	_, err := analyzeSrc(t, src, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol Nope was not found")
	assert.Contains(t, err.Error(), "symbol Broken was not found")
}

func TestInteractiveOverride(t *testing.T) {
	a := NewAnalyzer(Config{Interactive: true})
	mod, err := parser.Parse("x := 3\n", true, false)
	require.NoError(t, err)
	_, err = a.Analyze(mod)
	require.NoError(t, err)

	mod, err = parser.Parse("x := \"s\"\n", true, false)
	require.NoError(t, err)
	_, err = a.Analyze(mod)
	require.NoError(t, err, "interactive mode replaces an overridable symbol")

	mod, err = parser.Parse("y := x + \"!\"\n", true, false)
	require.NoError(t, err)
	m, err := a.Analyze(mod)
	require.NoError(t, err)
	assert.True(t, sameType(declType(t, m.Body[0]), &hir.VVMType{T: vvm.S}))
}

func TestBatchRedefinitionRejected(t *testing.T) {
	a := NewAnalyzer(Config{})
	mod, err := parser.Parse("x := 3\nx := 4\n", false, false)
	require.NoError(t, err)
	_, err = a.Analyze(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol x was already defined")
}

func TestBuiltinNotOverridable(t *testing.T) {
	a := NewAnalyzer(Config{Interactive: true})
	mod, err := parser.Parse("Int64 := 1\n", true, false)
	require.NoError(t, err)
	_, err = a.Analyze(mod)
	require.Error(t, err)
}

func TestHistoryAccumulates(t *testing.T) {
	a := NewAnalyzer(Config{Interactive: true})
	for _, line := range []string{"x := 1\n", "y := x + 1\n"} {
		mod, err := parser.Parse(line, true, false)
		require.NoError(t, err)
		_, err = a.Analyze(mod)
		require.NoError(t, err)
	}
	assert.Len(t, a.History(), 2)
}

func TestIdempotentAnalysis(t *testing.T) {
	src := tradeDef + "r := from t select avg(price) by sym where volume > 0\n"
	first := hir.ToString(mustAnalyze(t, src))
	second := hir.ToString(mustAnalyze(t, src))
	assert.Equal(t, second, first)
}

func TestTypeStringRoundTrip(t *testing.T) {
	m := mustAnalyze(t, "data Point: x: Int64, y: Float64 end\nvar ps: !Point\n")
	dfType := declType(t, m.Body[1])
	rendered := typeStringOfUDT(dfType)
	assert.Equal(t, "x: Int64, y: Float64", rendered)

	a := NewAnalyzer(Config{})
	a.createDatatype("Roundtrip", rendered)
	df := a.makeDataframe("!Roundtrip")
	require.NotNil(t, df)
	assert.True(t, sameType(df, dfType))
}
