// Package sema builds the typed high-level IR from the syntax tree: it
// resolves every identifier against a scoped symbol table with overloading,
// infers and checks every expression type, elaborates user-defined record
// types and their Dataframe views, instantiates generic functions, and
// types relational query expressions by synthesizing record types for
// their outputs.
package sema

import (
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/internal/log"
	"github.com/sorinm/empirical-lang/parser"
	"github.com/sorinm/empirical-lang/sema/semerr"
	"github.com/sorinm/empirical-lang/syntax/ast"
	"github.com/sorinm/empirical-lang/vvm"
)

// EvalFunc evaluates a one-statement module at compile time and returns the
// value's printed form. It is the codegen+interpret collaborator used for
// template instantiation.
type EvalFunc func(mod *hir.Module) (string, error)

// InferFunc infers a "name: Type, ..." field list from a CSV file.
type InferFunc func(path string) (string, error)

type Config struct {
	// Interactive relaxes redefinition: an overridable symbol is replaced.
	Interactive bool
	// DumpHIR prints the produced HIR after a successful pass.
	DumpHIR bool
	// Eval and InferTable are the load() collaborators; leaving them nil
	// turns template instantiation into a diagnostic.
	Eval       EvalFunc
	InferTable InferFunc
	Logger     *slog.Logger
}

// genericOrigin remembers where a generic function was defined so calls can
// re-analyze its body with concrete argument types.
type genericOrigin struct {
	node  *ast.FunctionDef
	scope int
}

// Analyzer holds the state of semantic analysis. It persists across calls
// to Analyze so an interactive session accumulates definitions.
type Analyzer struct {
	cfg Config

	scopes    []scope
	current   int
	preferred hir.Expr

	rettypes [][]hir.Datatype
	generics map[*hir.GenericFunctionDef]genericOrigin

	errs        *semerr.Errors
	history     []hir.Stmt
	anonCounter int
	logger      *slog.Logger
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = log.DefaultLogger
	}
	a := &Analyzer{
		cfg:      cfg,
		scopes:   []scope{{symbols: make(map[string][]hir.Resolved)}},
		generics: make(map[*hir.GenericFunctionDef]genericOrigin),
		errs:     &semerr.Errors{},
		logger:   cfg.Logger.With("section", "sema"),
	}
	a.pushScope()
	a.saveBuiltins()
	return a
}

// bailout aborts the whole pass for constructs that cannot be recovered.
type bailout struct {
	err error
}

func (a *Analyzer) nyi(rule string) {
	panic(bailout{err: errors.Errorf("not yet implemented: %s", rule)})
}

// Analyze runs one pass over a module. Diagnostics are accumulated for the
// whole pass and surfaced as a single error; the (possibly incomplete) HIR
// is returned alongside so tooling can still inspect it.
func (a *Analyzer) Analyze(mod *ast.Module) (m *hir.Module, err error) {
	a.errs = &semerr.Errors{}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			m, err = nil, b.err
		}
	}()
	body := make([]hir.Stmt, 0, len(mod.Body))
	for _, s := range mod.Body {
		body = append(body, a.stmt(s))
	}
	a.history = append(a.history, body...)
	m = &hir.Module{Body: body, Docstring: mod.Docstring}
	if a.errs.HasError() {
		a.logger.Debug("pass failed", "errors", a.errs)
		return m, a.errs.Join()
	}
	if a.cfg.DumpHIR {
		fmt.Println(hir.ToString(m))
	}
	return m, nil
}

// History returns every HIR statement produced across calls to Analyze.
func (a *Analyzer) History() []hir.Stmt {
	return a.history
}

// Analyze is the one-shot entry point for batch compilation.
func Analyze(mod *ast.Module, cfg Config) (*hir.Module, error) {
	return NewAnalyzer(cfg).Analyze(mod)
}

/* statements */

func (a *Analyzer) stmt(s ast.Stmt) hir.Stmt {
	switch n := s.(type) {
	case *ast.FunctionDef:
		return a.functionDef(n)
	case *ast.DataDef:
		return a.dataDef(n)
	case *ast.Return:
		return a.returnStmt(n)
	case *ast.If:
		return a.ifStmt(n)
	case *ast.While:
		return a.whileStmt(n)
	case *ast.Import:
		a.nyi("import")
	case *ast.ImportFrom:
		a.nyi("from import")
	case *ast.Decl:
		return a.declStmt(n)
	case *ast.Assign:
		return a.assign(n)
	case *ast.Del:
		return a.del(n)
	case *ast.ExprStmt:
		return &hir.ExprStmt{Value: a.expr(n.Value)}
	}
	panic(fmt.Sprintf("sema: unexpected statement %T", s))
}

func (a *Analyzer) declStmt(node *ast.Decl) hir.Stmt {
	decls := make([]*hir.Declaration, 0, len(node.Decls))
	for _, d := range node.Decls {
		decls = append(decls, a.declaration(d, nil, false))
	}
	return &hir.Decl{Dt: hir.Decltype(node.Dt), Decls: decls}
}

// declaration analyzes a single binding. override supplies the type of a
// generic argument during instantiation; allowMissingType permits generic
// function arguments to stay untyped.
func (a *Analyzer) declaration(node *ast.Declaration, override hir.Datatype, allowMissingType bool) *hir.Declaration {
	startErr := a.errs.Len()
	if first, _ := utf8.DecodeRuneInString(node.Name); unicode.IsUpper(first) {
		a.errs = a.errs.With(semerr.NewNamingConvention{Name: node.Name})
	}
	var explicitType hir.Expr
	var typ hir.Datatype
	if node.ExplicitType != nil {
		explicitType = a.expr(node.ExplicitType)
		if isKindType(explicitType.Type()) {
			typ = underlyingType(explicitType.Type())
		} else {
			a.errs = a.errs.With(semerr.NewInvalidAnnotation{Context: "declaration", Name: node.Name})
		}
	}
	var value hir.Expr
	if node.Value != nil {
		value = a.expr(node.Value)
		if isOverloadedExpr(value) {
			a.errs = a.errs.With(semerr.NewAmbiguousOverload{Name: value.NameHint(), Context: "declaration"})
		}
	}
	if typ == nil && value != nil {
		typ = value.Type()
	}
	if value != nil && !sameType(typ, value.Type()) {
		a.errs = a.errs.With(semerr.NewTypeMismatch{
			Context: "declaration", Left: toString(typ), Right: toString(value.Type()),
		})
	}
	if typ == nil && override != nil {
		typ = override
	}
	if typ == nil && !allowMissingType {
		a.errs = a.errs.With(semerr.NewUnknownType{})
	}
	if isVoidType(typ) {
		a.errs = a.errs.With(semerr.NewVoidType{Context: "declarable"})
	}
	decl := &hir.Declaration{Name: node.Name, ExplicitType: explicitType, Value: value, Type: typ}
	if a.errs.Len() == startErr {
		if !a.storeSymbol(node.Name, &hir.DeclRef{Decl: decl}) {
			a.errs = a.errs.With(semerr.NewAlreadyDefined{Name: node.Name})
		}
	}
	return decl
}

func (a *Analyzer) alias(node *ast.Alias) *hir.Alias {
	if node.Name != "" {
		if first, _ := utf8.DecodeRuneInString(node.Name); unicode.IsUpper(first) {
			a.errs = a.errs.With(semerr.NewNamingConvention{Name: node.Name})
		}
	}
	return &hir.Alias{Value: a.expr(node.Value), Name: node.Name}
}

func (a *Analyzer) dataDef(node *ast.DataDef) hir.Stmt {
	startErr := a.errs.Len()
	if first, _ := utf8.DecodeRuneInString(node.Name); unicode.IsLower(first) {
		a.errs = a.errs.With(semerr.NewNamingConvention{Name: node.Name, IsType: true})
	}
	// tentative reference first so self-referential types resolve
	dd := &hir.DataDef{Name: node.Name}
	ref := &hir.DataRef{Def: dd}
	if !a.storeSymbol(node.Name, ref) {
		a.errs = a.errs.With(semerr.NewAlreadyDefined{Name: node.Name})
	}
	scopeIdx := a.pushScope()
	for offset, b := range node.Body {
		d := a.declaration(b, nil, false)
		d.Offset = offset
		dd.Body = append(dd.Body, d)
	}
	a.popScope()
	if a.errs.Len() > startErr {
		a.removeSymbolRef(node.Name, ref)
	}
	dd.Scope = scopeIdx
	return dd
}

func (a *Analyzer) functionDef(node *ast.FunctionDef) hir.Stmt {
	result, _ := a.analyzeFunctionDef(node, nil, true, nil)
	return result
}

// analyzeFunctionDef is shared between definition and generic
// instantiation: override fills in missing argument types, register
// controls whether the outer scope learns the name, and genericParent (set
// while instantiating) receives the new definition before its body is
// analyzed so recursive calls resolve to the in-progress instantiation.
func (a *Analyzer) analyzeFunctionDef(node *ast.FunctionDef, override []hir.Datatype, register bool, genericParent *hir.GenericFunctionDef) (hir.Stmt, *hir.FunctionDef) {
	startErr := a.errs.Len()
	var explicitRettype hir.Expr
	var rettype hir.Datatype
	if node.ExplicitRettype != nil {
		explicitRettype = a.expr(node.ExplicitRettype)
		if isKindType(explicitRettype.Type()) {
			rettype = underlyingType(explicitRettype.Type())
		} else {
			a.errs = a.errs.With(semerr.NewInvalidAnnotation{Context: "return type", Name: node.Name})
		}
	}

	// arguments live in a fresh inner scope
	outer := a.current
	a.pushScope()
	inner := a.current
	args := make([]*hir.Declaration, 0, len(node.Args))
	for i, astArg := range node.Args {
		var ov hir.Datatype
		if override != nil && i < len(override) {
			ov = override[i]
		}
		args = append(args, a.declaration(astArg, ov, true))
	}

	// create the shell now so the body can recurse
	fd := &hir.FunctionDef{
		Name:            node.Name,
		Args:            args,
		ExplicitRettype: explicitRettype,
		Docstring:       node.Docstring,
		Rettype:         rettype,
	}
	generic := false
	if override == nil {
		for _, astArg := range node.Args {
			if astArg.ExplicitType == nil {
				generic = true
				break
			}
		}
	}
	var result hir.Stmt = fd
	var ref hir.Resolved = &hir.FuncRef{Def: fd}
	if generic {
		g := &hir.GenericFunctionDef{Original: fd}
		a.generics[g] = genericOrigin{node: node, scope: outer}
		result = g
		ref = &hir.GenericFuncRef{Def: g}
	}
	if register {
		a.current = outer
		if !a.storeSymbol(node.Name, ref) {
			a.errs = a.errs.With(semerr.NewAlreadyDefined{Name: node.Name})
		}
		a.current = inner
	}
	if genericParent != nil {
		genericParent.Instantiated = append(genericParent.Instantiated, fd)
	}

	// body runs under a fresh return-type frame
	a.rettypes = append(a.rettypes, nil)
	for _, b := range node.Body {
		fd.Body = append(fd.Body, a.stmt(b))
	}
	a.popScope()
	frame := a.rettypes[len(a.rettypes)-1]
	a.rettypes = a.rettypes[:len(a.rettypes)-1]

	var bodyRettype hir.Datatype
	if len(frame) == 0 {
		if rettype == nil || len(node.Body) > 0 {
			a.errs = a.errs.With(semerr.NewNoReturn{Name: node.Name})
		}
	} else {
		bodyRettype = frame[0]
		for _, rt := range frame[1:] {
			if !sameType(bodyRettype, rt) {
				a.errs = a.errs.With(semerr.NewMismatchedReturn{
					Name: node.Name, Left: toString(bodyRettype), Right: toString(rt),
				})
			}
		}
	}
	if rettype == nil {
		rettype = bodyRettype
	}
	if rettype == nil && len(frame) > 0 && !generic {
		a.errs = a.errs.With(semerr.NewUndeterminedReturn{Name: node.Name})
	}
	if !sameType(rettype, bodyRettype) {
		a.errs = a.errs.With(semerr.NewMismatchedReturn{
			Left: toString(rettype), Right: toString(bodyRettype),
		})
	}

	// an uppercase name is a cast definition and must return its own type
	if first, _ := utf8.DecodeRuneInString(node.Name); unicode.IsUpper(first) {
		resolveds, _ := a.findSymbol(node.Name)
		if len(resolveds) > 0 {
			castType := typeOf(resolveds[0])
			if isKindType(castType) {
				expected := underlyingType(castType)
				if !sameType(rettype, expected) && !sameType(rettype, &hir.Array{Elem: expected}) {
					a.errs = a.errs.With(semerr.NewCastReturn{Name: node.Name})
				}
			} else {
				a.errs = a.errs.With(semerr.NewCastNotType{Name: node.Name})
			}
		}
	}

	if register && a.errs.Len() > startErr {
		a.removeSymbolRef(node.Name, ref)
	}
	fd.Rettype = rettype
	return result, fd
}

func (a *Analyzer) returnStmt(node *ast.Return) hir.Stmt {
	var value hir.Expr
	if node.Value != nil {
		value = a.expr(node.Value)
		if isOverloadedExpr(value) {
			a.errs = a.errs.With(semerr.NewAmbiguousOverload{Name: value.NameHint(), Context: "return"})
		}
	}
	if len(a.rettypes) == 0 {
		a.errs = a.errs.With(semerr.NewReturnOutsideFunction{})
	} else {
		var dt hir.Datatype = &hir.Void{}
		if value != nil {
			dt = value.Type()
		}
		top := len(a.rettypes) - 1
		a.rettypes[top] = append(a.rettypes[top], dt)
	}
	return &hir.Return{Value: value}
}

func (a *Analyzer) ifStmt(node *ast.If) hir.Stmt {
	test := a.expr(node.Test)
	if !isBooleanType(test.Type()) {
		a.errs = a.errs.With(semerr.NewNonBoolean{Got: toString(test.Type())})
	}
	n := &hir.If{Test: test}
	a.pushScope()
	for _, b := range node.Body {
		n.Body = append(n.Body, a.stmt(b))
	}
	a.popScope()
	a.pushScope()
	for _, o := range node.Orelse {
		n.Orelse = append(n.Orelse, a.stmt(o))
	}
	a.popScope()
	return n
}

func (a *Analyzer) whileStmt(node *ast.While) hir.Stmt {
	test := a.expr(node.Test)
	if !isBooleanType(test.Type()) {
		a.errs = a.errs.With(semerr.NewNonBoolean{Got: toString(test.Type())})
	}
	n := &hir.While{Test: test}
	a.pushScope()
	for _, b := range node.Body {
		n.Body = append(n.Body, a.stmt(b))
	}
	a.popScope()
	return n
}

func (a *Analyzer) assign(node *ast.Assign) hir.Stmt {
	target := a.expr(node.Target)
	value := a.expr(node.Value)
	if isTemporary(target) {
		a.errs = a.errs.With(semerr.NewTemporaryTarget{})
	}
	if isOverloadedExpr(value) {
		a.errs = a.errs.With(semerr.NewAmbiguousOverload{Name: value.NameHint(), Context: "assignment"})
	}
	if !sameType(target.Type(), value.Type()) {
		a.errs = a.errs.With(semerr.NewTypeMismatch{
			Context: "assignment", Left: toString(target.Type()), Right: toString(value.Type()),
		})
	}
	if isVoidType(value.Type()) {
		a.errs = a.errs.With(semerr.NewVoidType{Context: "assignable"})
	}
	return &hir.Assign{Target: target, Value: value}
}

func (a *Analyzer) del(node *ast.Del) hir.Stmt {
	targets := make([]hir.Expr, 0, len(node.Targets))
	for _, t := range node.Targets {
		e := a.expr(t)
		if id, ok := e.(*hir.Id); ok {
			a.removeSymbol(id.Sym)
		}
		targets = append(targets, e)
	}
	return &hir.Del{Targets: targets}
}

/* on-the-fly type synthesis */

func (a *Analyzer) anonName() string {
	name := fmt.Sprintf("Anon__%d", a.anonCounter)
	a.anonCounter++
	return name
}

// createDatatype parses "data Anon: <typeDef> end", renames the result and
// analyzes it as if it appeared in the source. This is how query visitors
// obtain named record types for their synthesized outputs.
func (a *Analyzer) createDatatype(typeName, typeDef string) hir.Stmt {
	src := "data Anon: " + typeDef + " end"
	mod, err := parser.Parse(src, false, false)
	if err != nil || len(mod.Body) == 0 {
		a.errs = a.errs.With(semerr.NewUnknownType{Name: typeName})
		return nil
	}
	dd, ok := mod.Body[0].(*ast.DataDef)
	if !ok {
		a.errs = a.errs.With(semerr.NewUnknownType{Name: typeName})
		return nil
	}
	dd.Name = typeName
	a.logger.Debug("synthesized datatype", "name", typeName, "fields", typeDef)
	return a.stmt(dd)
}

// underlyingUDT finds the scalar record definition for a Dataframe name
// (assumes the leading '!').
func (a *Analyzer) underlyingUDT(name string) *hir.DataDef {
	refs, _ := a.findSymbol(name[1:])
	if len(refs) == 0 {
		return nil
	}
	dr, ok := refs[0].(*hir.DataRef)
	if !ok {
		return nil
	}
	return dr.Def
}

// dataframeTypeValid checks that an existing Dataframe definition still
// reflects the array-ized fields of its scalar record.
func dataframeTypeValid(left *hir.DataDef, ref hir.Resolved) bool {
	dr, ok := ref.(*hir.DataRef)
	if !ok {
		return false
	}
	right := dr.Def
	if len(left.Body) != len(right.Body) {
		return false
	}
	for i := range left.Body {
		if !sameType(&hir.Array{Elem: left.Body[i].Type}, right.Body[i].Type) ||
			left.Body[i].Name != right.Body[i].Name {
			return false
		}
	}
	return true
}

// makeDataframe synthesizes (or revalidates) the Dataframe view of the
// scalar record behind name: same fields in the same order, each type
// wrapped in Array.
func (a *Analyzer) makeDataframe(name string) hir.Datatype {
	node := a.underlyingUDT(name)
	if node == nil {
		return nil
	}
	var ref hir.Resolved
	if refs, _ := a.findSymbol(name); len(refs) > 0 {
		ref = refs[0]
		if !dataframeTypeValid(node, ref) {
			ref = nil
		}
	}
	if ref == nil {
		dd := &hir.DataDef{Name: name}
		scopeIdx := a.pushScope()
		for _, b := range node.Body {
			d := &hir.Declaration{
				Name:   b.Name,
				Value:  b.Value,
				Type:   &hir.Array{Elem: b.Type},
				Offset: b.Offset,
			}
			a.storeSymbol(b.Name, &hir.DeclRef{Decl: d})
			dd.Body = append(dd.Body, d)
		}
		a.popScope()
		dd.Scope = scopeIdx
		dref := &hir.DataRef{Def: dd}
		a.storeSymbol(name, dref)
		ref = dref
		a.logger.Debug("synthesized dataframe", "name", name)
	}
	return &hir.UDT{Name: name, Ref: ref}
}

/* builtins */

func operandType(o vvm.Operand) hir.Datatype {
	base := &hir.VVMType{T: o.T}
	if o.Array {
		return &hir.Array{Elem: base}
	}
	return base
}

// saveBuiltins seeds the startup scope with the primitive type names, the
// VM operator table, and the compiler intrinsics.
func (a *Analyzer) saveBuiltins() {
	a.storeSymbol("store", &hir.CompilerRef{
		Code: hir.CodeStore,
		Type: &hir.FuncType{
			Args: []hir.Datatype{nil, &hir.VVMType{T: vvm.S}},
			Ret:  &hir.Void{},
		},
	})
	for t := vvm.TypeID(0); t < vvm.NumTypes; t++ {
		a.storeSymbol(t.String(), &hir.VVMTypeRef{T: t})
	}
	for _, op := range vvm.Ops {
		ft := &hir.FuncType{Ret: operandType(op.Ret)}
		for _, arg := range op.Args {
			ft.Args = append(ft.Args, operandType(arg))
		}
		a.storeSymbol(op.Name, &hir.VVMOpRef{Opcode: op.Opcode, Type: ft})
	}
}
