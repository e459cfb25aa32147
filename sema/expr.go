package sema

import (
	"strings"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/sema/semerr"
	"github.com/sorinm/empirical-lang/syntax/ast"
	"github.com/sorinm/empirical-lang/vvm"
)

func (a *Analyzer) expr(e ast.Expr) hir.Expr {
	switch n := e.(type) {
	case nil:
		// the parser already reported whatever produced the hole
		return &hir.Id{}
	case *ast.Id:
		return a.idExpr(n)
	case *ast.Member:
		return a.member(n)
	case *ast.Subscript:
		return a.subscript(n)
	case *ast.FunctionCall:
		return a.functionCall(n)
	case *ast.TemplateInst:
		return a.templateInst(n)
	case *ast.UnaryOp:
		return a.unaryOp(n)
	case *ast.BinOp:
		return a.binOp(n)
	case *ast.UserDefinedLiteral:
		return a.userDefinedLiteral(n)
	case *ast.IntegerLiteral:
		return &hir.IntegerLiteral{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.I64}}, Val: n.Val}
	case *ast.FloatingLiteral:
		return &hir.FloatingLiteral{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.F64}}, Val: n.Val}
	case *ast.BoolLiteral:
		return &hir.BoolLiteral{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.B8}}, Val: n.Val}
	case *ast.Str:
		return &hir.Str{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.S}}, Val: n.Val}
	case *ast.Char:
		return &hir.Char{ExprInfo: hir.ExprInfo{Typ: &hir.VVMType{T: vvm.C8}}, Val: n.Val}
	case *ast.List:
		return a.list(n)
	case *ast.Paren:
		sub := a.expr(n.Sub)
		return &hir.Paren{ExprInfo: hir.ExprInfo{Typ: sub.Type(), Name: sub.NameHint()}, Sub: sub}
	case *ast.Query:
		return a.query(n)
	case *ast.Sort:
		return a.sortExpr(n)
	case *ast.Join:
		return a.join(n)
	}
	panic("sema: unexpected expression")
}

func (a *Analyzer) idExpr(node *ast.Id) hir.Expr {
	// Dataframe names need their view synthesized up front
	if strings.HasPrefix(node.Sym, "!") {
		a.makeDataframe(node.Sym)
	}

	resolveds, inPreferred := a.findSymbol(node.Sym)
	if len(resolveds) == 0 {
		a.errs = a.errs.With(semerr.NewSymbolNotFound{
			Name:       node.Sym,
			Suggestion: a.nearestSymbol(node.Sym),
		})
	}
	if len(resolveds) <= 1 {
		var ptr hir.Resolved
		if len(resolveds) == 1 {
			ptr = resolveds[0]
		}
		typ := typeOf(ptr)
		if inPreferred {
			return &hir.ImpliedMember{
				ExprInfo: hir.ExprInfo{Typ: typ, Name: node.Sym},
				Sym:      node.Sym,
				Ref:      ptr,
				Of:       a.preferred,
			}
		}
		return &hir.Id{ExprInfo: hir.ExprInfo{Typ: typ, Name: node.Sym}, Sym: node.Sym, Ref: ptr}
	}
	// the overload is narrowed at the call site; the first candidate's type
	// stands in until then
	return &hir.OverloadedId{
		ExprInfo: hir.ExprInfo{Typ: typeOf(resolveds[0]), Name: node.Sym},
		Sym:      node.Sym,
		Refs:     resolveds,
	}
}

func (a *Analyzer) member(node *ast.Member) hir.Expr {
	value := a.expr(node.Value)
	scopeIdx := a.scopeOfType(value.Type())
	if scopeIdx == 0 {
		a.errs = a.errs.With(semerr.NewNoMembers{})
	}
	resolveds := a.findSymbolInScope(node.Attr, scopeIdx)
	if scopeIdx != 0 && len(resolveds) == 0 {
		a.errs = a.errs.With(semerr.NewNotAMember{Name: node.Attr})
	}
	var ref hir.Resolved
	if len(resolveds) == 1 {
		ref = resolveds[0]
	}
	typ := typeOf(ref)
	if ref != nil && typ == nil {
		a.errs = a.errs.With(semerr.NewUnknownType{Name: node.Attr})
	}
	return &hir.Member{
		ExprInfo: hir.ExprInfo{Typ: typ, Name: node.Attr},
		Value:    value,
		Attr:     node.Attr,
		Ref:      ref,
	}
}

func (a *Analyzer) subscript(node *ast.Subscript) hir.Expr {
	value := a.expr(node.Value)
	if !isArrayType(value.Type()) && value.Type() != nil {
		a.errs = a.errs.With(semerr.NewNotArray{Got: toString(value.Type())})
	}
	slice := a.slice(node.Slice)
	// an index yields the element type; a slice keeps the array type
	typ := value.Type()
	if _, isSlice := slice.(*hir.Slice); !isSlice {
		typ = underlyingType(typ)
	}
	return &hir.Subscript{
		ExprInfo: hir.ExprInfo{Typ: typ, Name: value.NameHint()},
		Value:    value,
		Slice:    slice,
	}
}

func (a *Analyzer) slice(node ast.SliceNode) hir.SliceNode {
	switch n := node.(type) {
	case *ast.Index:
		value := a.expr(n.Value)
		if !isIndexableType(value.Type()) && value.Type() != nil {
			a.errs = a.errs.With(semerr.NewNotIndexable{Got: toString(value.Type())})
		}
		return &hir.Index{Value: value}
	case *ast.Slice:
		bound := func(e ast.Expr, which string) hir.Expr {
			if e == nil {
				return nil
			}
			b := a.expr(e)
			if !isIndexableType(b.Type()) && b.Type() != nil {
				a.errs = a.errs.With(semerr.NewNotIndexable{Which: which, Got: toString(b.Type())})
			}
			return b
		}
		return &hir.Slice{
			Lower: bound(n.Lower, "lower bound"),
			Upper: bound(n.Upper, "upper bound"),
			Step:  bound(n.Step, "step"),
		}
	}
	panic("sema: unexpected slice node")
}

func (a *Analyzer) list(node *ast.List) hir.Expr {
	values := make([]hir.Expr, 0, len(node.Values))
	for _, v := range node.Values {
		values = append(values, a.expr(v))
	}
	var expected hir.Datatype
	if len(values) > 0 {
		expected = values[0].Type()
	}
	for _, e := range values {
		if !sameType(e.Type(), expected) {
			a.errs = a.errs.With(semerr.NewListMismatch{
				Left: toString(e.Type()), Right: toString(expected),
			})
		}
	}
	name := ""
	if len(values) > 0 {
		name = values[0].NameHint()
	}
	var typ hir.Datatype
	if isKindType(expected) {
		// a list of kinds denotes an array type, e.g. [Int64]
		typ = &hir.Kind{Of: &hir.Array{Elem: underlyingType(expected)}}
		if len(values) >= 2 {
			a.errs = a.errs.With(semerr.NewListOneType{})
		}
	} else {
		typ = &hir.Array{Elem: expected}
	}
	return &hir.List{ExprInfo: hir.ExprInfo{Typ: typ, Name: name}, Values: values}
}

/* operators desugar to function calls and re-pack into sugared form */

func (a *Analyzer) unaryOp(node *ast.UnaryOp) hir.Expr {
	call := a.functionCall(&ast.FunctionCall{
		Func: &ast.Id{Sym: node.Op},
		Args: []ast.Expr{node.Operand},
	}).(*hir.FunctionCall)
	var ref hir.Resolved
	if id, ok := call.Func.(*hir.Id); ok {
		ref = id.Ref
	}
	return &hir.UnaryOp{
		ExprInfo: hir.ExprInfo{Typ: call.Typ, Name: call.Name},
		Op:       node.Op,
		Operand:  call.Args[0],
		Ref:      ref,
	}
}

func (a *Analyzer) binOp(node *ast.BinOp) hir.Expr {
	call := a.functionCall(&ast.FunctionCall{
		Func: &ast.Id{Sym: node.Op},
		Args: []ast.Expr{node.Left, node.Right},
	}).(*hir.FunctionCall)
	var ref hir.Resolved
	if id, ok := call.Func.(*hir.Id); ok {
		ref = id.Ref
	}
	return &hir.BinOp{
		ExprInfo: hir.ExprInfo{Typ: call.Typ, Name: call.Name},
		Left:     call.Args[0],
		Op:       node.Op,
		Right:    call.Args[1],
		Ref:      ref,
	}
}

func (a *Analyzer) userDefinedLiteral(node *ast.UserDefinedLiteral) hir.Expr {
	call := a.functionCall(&ast.FunctionCall{
		Func: &ast.Id{Sym: "suffix" + node.Suffix},
		Args: []ast.Expr{node.Literal},
	}).(*hir.FunctionCall)
	var ref hir.Resolved
	if id, ok := call.Func.(*hir.Id); ok {
		ref = id.Ref
	}
	return &hir.UserDefinedLiteral{
		ExprInfo: hir.ExprInfo{Typ: call.Typ, Name: call.Name},
		Literal:  call.Args[0],
		Suffix:   node.Suffix,
		Ref:      ref,
	}
}

/* calls */

func (a *Analyzer) functionCall(node *ast.FunctionCall) hir.Expr {
	fn := a.expr(node.Func)
	if !isCallable(fn.Type()) {
		a.errs = a.errs.With(semerr.NewNotCallable{Got: toString(fn.Type())})
	}
	args := make([]hir.Expr, 0, len(node.Args))
	for _, e := range node.Args {
		args = append(args, a.expr(e))
	}
	if generic := getGeneric(fn); generic != nil {
		fn = a.resolveGenericCall(generic, fn, args)
	} else if overloaded, ok := fn.(*hir.OverloadedId); ok {
		fn = a.resolveOverloadedCall(overloaded, args)
	} else {
		if msg := matchArgs(args, fn.Type()); msg != "" {
			a.errs = a.errs.With(semerr.NewCallMismatch{Reason: msg})
		}
	}
	rettype := rettypeOf(fn.Type())
	name := fn.NameHint()
	if len(args) > 0 {
		name = args[0].NameHint()
	}
	return &hir.FunctionCall{
		ExprInfo: hir.ExprInfo{Typ: rettype, Name: name},
		Func:     fn,
		Args:     args,
	}
}

// resolveGenericCall reuses a matching instantiation or monomorphizes the
// generic for the actual argument types, re-analyzing the original body
// with the missing types filled in.
func (a *Analyzer) resolveGenericCall(generic *hir.GenericFunctionDef, fn hir.Expr, args []hir.Expr) hir.Expr {
	for _, inst := range generic.Instantiated {
		ft := funcTypeOf(inst)
		if matchArgs(args, ft) == "" {
			return &hir.Id{
				ExprInfo: hir.ExprInfo{Typ: ft, Name: inst.Name},
				Sym:      inst.Name,
				Ref:      &hir.FuncRef{Def: inst},
			}
		}
	}
	origType := funcTypeOf(generic.Original)
	if msg := matchArgs(args, origType); msg != "" {
		a.errs = a.errs.With(semerr.NewCallMismatch{Reason: msg})
		return fn
	}
	override := make([]hir.Datatype, len(args))
	for i := range args {
		if origType.Args[i] != nil {
			override[i] = origType.Args[i]
		} else {
			override[i] = args[i].Type()
		}
	}
	origin, known := a.generics[generic]
	if !known {
		return fn
	}
	a.logger.Debug("instantiating generic", "name", generic.Original.Name)
	savedScope, savedPreferred := a.current, a.preferred
	a.current, a.preferred = origin.scope, nil
	_, inst := a.analyzeFunctionDef(origin.node, override, false, generic)
	a.current, a.preferred = savedScope, savedPreferred
	ft := funcTypeOf(inst)
	return &hir.Id{
		ExprInfo: hir.ExprInfo{Typ: ft, Name: inst.Name},
		Sym:      inst.Name,
		Ref:      &hir.FuncRef{Def: inst},
	}
}

const maxCountedCandidates = 3

// resolveOverloadedCall narrows an overload set to the first candidate the
// arguments fit; definition order wins.
func (a *Analyzer) resolveOverloadedCall(id *hir.OverloadedId, args []hir.Expr) hir.Expr {
	var candidates []string
	counted := 0
	for _, ref := range id.Refs {
		ft := typeOf(ref)
		msg := matchArgs(args, ft)
		if msg == "" {
			return &hir.Id{
				ExprInfo: hir.ExprInfo{Typ: ft, Name: id.Sym},
				Sym:      id.Sym,
				Ref:      ref,
			}
		}
		counted++
		if counted <= maxCountedCandidates {
			candidates = append(candidates, "candidate: "+toString(ft)+"\n    "+msg)
		}
	}
	omitted := 0
	if counted > maxCountedCandidates {
		omitted = counted - maxCountedCandidates
	}
	a.errs = a.errs.With(semerr.NewOverloadNoMatch{Name: id.Sym, Candidates: candidates, Omitted: omitted})
	return id
}

/* compile-time template instantiation */

// templateInst pre-evaluates load("file.csv"): each constant string
// argument is compiled and interpreted, the named file's schema is
// inferred, and a Provider$<file> record plus its Dataframe view become the
// result type.
func (a *Analyzer) templateInst(node *ast.TemplateInst) hir.Expr {
	id, ok := node.Func.(*ast.Id)
	if !ok {
		a.nyi("template instantiation on non-identifier")
	}
	if id.Sym != "load" {
		a.nyi("template instantiation on " + id.Sym)
	}
	value := &hir.Id{ExprInfo: hir.ExprInfo{Name: "load"}, Sym: "load"}
	args := make([]hir.Expr, 0, len(node.Args))
	for _, e := range node.Args {
		args = append(args, a.expr(e))
	}

	var resolutions []hir.Stmt
	typeName := ""
	for _, e := range args {
		if !isStringType(e.Type()) {
			a.errs = a.errs.With(semerr.NewLoadArgument{})
			continue
		}
		if a.cfg.Eval == nil || a.cfg.InferTable == nil {
			a.errs = a.errs.With(semerr.NewLoadFailed{Detail: "no compile-time evaluator configured"})
			continue
		}
		mod := &hir.Module{Body: []hir.Stmt{&hir.ExprStmt{Value: e}}}
		printed, err := a.cfg.Eval(mod)
		if err != nil {
			a.errs = a.errs.With(semerr.NewLoadFailed{Detail: err.Error()})
			continue
		}
		filename := printed
		if len(filename) >= 2 && filename[0] == '"' && filename[len(filename)-1] == '"' {
			filename = filename[1 : len(filename)-1]
		}
		typestr, err := a.cfg.InferTable(filename)
		if err != nil {
			a.errs = a.errs.With(semerr.NewLoadFailed{Detail: err.Error()})
			continue
		}
		typeName = "Provider$" + filename
		if datatype := a.createDatatype(typeName, typestr); datatype != nil {
			resolutions = append(resolutions, datatype)
		}
	}
	var rettype hir.Datatype
	if typeName != "" {
		rettype = a.makeDataframe("!" + typeName)
	}
	return &hir.TemplateInst{
		ExprInfo:    hir.ExprInfo{Typ: rettype, Name: value.Sym},
		Func:        value,
		Args:        args,
		Resolutions: resolutions,
	}
}
