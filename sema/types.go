package sema

import (
	"fmt"
	"strings"

	"github.com/sorinm/empirical-lang/hir"
)

/* info from resolved references */

// typeOf returns a resolved item's type, or nil if not available.
func typeOf(ref hir.Resolved) hir.Datatype {
	switch r := ref.(type) {
	case nil:
		return nil
	case *hir.DeclRef:
		return r.Decl.Type
	case *hir.FuncRef:
		return funcTypeOf(r.Def)
	case *hir.GenericFuncRef:
		return funcTypeOf(r.Def.Original)
	case *hir.DataRef:
		return &hir.Kind{Of: &hir.UDT{Name: r.Def.Name, Ref: r}}
	case *hir.ModRef:
		return nil
	case *hir.VVMOpRef:
		return r.Type
	case *hir.VVMTypeRef:
		return &hir.Kind{Of: &hir.VVMType{T: r.T}}
	case *hir.CompilerRef:
		return r.Type
	}
	return nil
}

// funcTypeOf builds the function type of a definition from its arguments
// and return type.
func funcTypeOf(def *hir.FunctionDef) *hir.FuncType {
	args := make([]hir.Datatype, len(def.Args))
	for i, a := range def.Args {
		args[i] = a.Type
	}
	return &hir.FuncType{Args: args, Ret: def.Rettype}
}

// scopeOfResolved returns the symbol-table scope a reference owns, or zero.
func scopeOfResolved(ref hir.Resolved) int {
	if dr, ok := ref.(*hir.DataRef); ok {
		return dr.Def.Scope
	}
	return 0
}

// scopeOfType returns the scope a type owns (UDTs own their field scope).
func (a *Analyzer) scopeOfType(dt hir.Datatype) int {
	if udt, ok := dt.(*hir.UDT); ok {
		return scopeOfResolved(udt.Ref)
	}
	return 0
}

// dataDefOf unwraps a UDT down to its defining DataDef.
func dataDefOf(dt hir.Datatype) *hir.DataDef {
	udt, ok := dt.(*hir.UDT)
	if !ok {
		return nil
	}
	dr, ok := udt.Ref.(*hir.DataRef)
	if !ok {
		return nil
	}
	return dr.Def
}

/* rendering */

func toString(dt hir.Datatype) string {
	return hir.TypeString(dt)
}

// toStringUDT renders the underlying field types of a UDT, for join
// diagnostics.
func toStringUDT(dt hir.Datatype) string {
	dd := dataDefOf(dt)
	if dd == nil {
		return ""
	}
	parts := make([]string, len(dd.Body))
	for i, d := range dd.Body {
		parts[i] = toString(d.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

/* structural equality */

// sameType validates that two types have the same structure. A nil type is
// unknown (already diagnosed) and matches anything to avoid cascades.
func sameType(left, right hir.Datatype) bool {
	if left == nil || right == nil {
		return true
	}
	switch l := left.(type) {
	case *hir.VVMType:
		r, ok := right.(*hir.VVMType)
		return ok && l.T == r.T
	case *hir.UDT:
		r, ok := right.(*hir.UDT)
		if !ok {
			return false
		}
		ldd, rdd := dataDefOf(l), dataDefOf(r)
		if ldd == nil || rdd == nil || len(ldd.Body) != len(rdd.Body) {
			return false
		}
		for i := range ldd.Body {
			if !sameType(ldd.Body[i].Type, rdd.Body[i].Type) ||
				ldd.Body[i].Name != rdd.Body[i].Name {
				return false
			}
		}
		return true
	case *hir.Array:
		r, ok := right.(*hir.Array)
		return ok && sameType(l.Elem, r.Elem)
	case *hir.FuncType:
		r, ok := right.(*hir.FuncType)
		if !ok || len(l.Args) != len(r.Args) {
			return false
		}
		for i := range l.Args {
			if !sameType(l.Args[i], r.Args[i]) {
				return false
			}
		}
		return sameType(l.Ret, r.Ret)
	case *hir.Kind:
		r, ok := right.(*hir.Kind)
		return ok && sameType(l.Of, r.Of)
	case *hir.Void:
		_, ok := right.(*hir.Void)
		return ok
	}
	return false
}

/* predicates */

func isVVM(dt hir.Datatype, want string) bool {
	b, ok := dt.(*hir.VVMType)
	return ok && b.T.VMName() == want
}

func isStringType(dt hir.Datatype) bool    { return isVVM(dt, "Ss") }
func isIndexableType(dt hir.Datatype) bool { return isVVM(dt, "i64s") }
func isBooleanType(dt hir.Datatype) bool   { return isVVM(dt, "b8s") }

func isDataframeType(dt hir.Datatype) bool {
	udt, ok := dt.(*hir.UDT)
	return ok && strings.HasPrefix(udt.Name, "!")
}

func isArrayType(dt hir.Datatype) bool {
	_, ok := dt.(*hir.Array)
	return ok
}

func isKindType(dt hir.Datatype) bool {
	_, ok := dt.(*hir.Kind)
	return ok
}

func isVoidType(dt hir.Datatype) bool {
	_, ok := dt.(*hir.Void)
	return ok
}

// isCallable accepts function types and kinds (casts and constructors). An
// unknown type passes to avoid cascades.
func isCallable(dt hir.Datatype) bool {
	switch dt.(type) {
	case nil, *hir.FuncType, *hir.Kind:
		return true
	default:
		return false
	}
}

// isTemporary reports whether an expression does not outlive its immediate
// use; temporaries cannot be assigned to.
func isTemporary(e hir.Expr) bool {
	switch e.(type) {
	case *hir.Member, *hir.Subscript, *hir.Id, *hir.ImpliedMember, *hir.OverloadedId:
		return false
	default:
		return true
	}
}

func isOverloadedExpr(e hir.Expr) bool {
	_, ok := e.(*hir.OverloadedId)
	return ok
}

/* overloading */

// isOverloadable: type-like entries may be overloaded by function-like
// entries only; function-like entries may be overloaded by function-like
// entries with a distinct signature.
func (a *Analyzer) isOverloadable(first, second hir.Resolved) bool {
	switch first.(type) {
	case *hir.VVMTypeRef, *hir.DataRef:
		switch second.(type) {
		case *hir.VVMOpRef, *hir.FuncRef:
			return true
		default:
			return false
		}
	case *hir.VVMOpRef, *hir.FuncRef:
		switch second.(type) {
		case *hir.VVMOpRef, *hir.FuncRef:
			return !sameType(typeOf(first), typeOf(second))
		default:
			return false
		}
	default:
		return false
	}
}

// isOverridable: anything that is not a builtin.
func isOverridable(ref hir.Resolved) bool {
	switch ref.(type) {
	case *hir.VVMTypeRef, *hir.VVMOpRef:
		return false
	default:
		return true
	}
}

/* higher-kind accessors */

// underlyingType unwraps an array or kind.
func underlyingType(dt hir.Datatype) hir.Datatype {
	switch t := dt.(type) {
	case *hir.Array:
		return t.Elem
	case *hir.Kind:
		return t.Of
	default:
		return nil
	}
}

// argtypesOf returns a callable type's argument types. The kind of a UDT is
// a constructor whose arguments are the field types.
func argtypesOf(dt hir.Datatype) []hir.Datatype {
	switch t := dt.(type) {
	case *hir.FuncType:
		return t.Args
	case *hir.Kind:
		dd := dataDefOf(t.Of)
		if dd == nil {
			return nil
		}
		args := make([]hir.Datatype, len(dd.Body))
		for i, d := range dd.Body {
			args[i] = d.Type
		}
		return args
	default:
		return nil
	}
}

// rettypeOf returns a callable type's return type; for a kind it is the
// denoted type itself.
func rettypeOf(dt hir.Datatype) hir.Datatype {
	switch t := dt.(type) {
	case *hir.FuncType:
		return t.Ret
	case *hir.Kind:
		return t.Of
	default:
		return nil
	}
}

// getGeneric unwraps an expression down to a generic function definition.
func getGeneric(e hir.Expr) *hir.GenericFunctionDef {
	id, ok := e.(*hir.Id)
	if !ok {
		return nil
	}
	ref, ok := id.Ref.(*hir.GenericFuncRef)
	if !ok {
		return nil
	}
	return ref.Def
}

// matchArgs explains why arguments do not fit a callable type; an empty
// result is a match. A nil type matches anything.
func matchArgs(args []hir.Expr, funcType hir.Datatype) string {
	if funcType == nil {
		return ""
	}
	argtypes := argtypesOf(funcType)
	if len(args) != len(argtypes) {
		return fmt.Sprintf("wrong number of arguments; expected %d but got %d",
			len(argtypes), len(args))
	}
	for i, arg := range args {
		if !sameType(arg.Type(), argtypes[i]) {
			return fmt.Sprintf("argument type at position %d does not match: %s vs %s",
				i, toString(arg.Type()), toString(argtypes[i]))
		}
	}
	return ""
}

/* type-string synthesis */

// columnName picks the rendered field name for a column alias: an explicit
// alias wins; an unaliased call of a named function (an aggregate or any
// other) renders as func_firstArg; anything else keeps its display name.
func columnName(a *hir.Alias) string {
	if a.Name != "" {
		return a.Name
	}
	if fc, ok := a.Value.(*hir.FunctionCall); ok && len(fc.Args) > 0 {
		if id, ok := fc.Func.(*hir.Id); ok {
			return id.Sym + "_" + fc.Args[0].NameHint()
		}
	}
	return a.Value.NameHint()
}

// typeStringOfAliases renders "name: Type, ..." for a column list, unwrapping
// arrays so the fragment can seed a scalar record definition.
func typeStringOfAliases(aliases []*hir.Alias) string {
	parts := make([]string, 0, len(aliases))
	for _, a := range aliases {
		dt := a.Value.Type()
		if isArrayType(dt) {
			dt = underlyingType(dt)
		}
		parts = append(parts, columnName(a)+": "+toString(dt))
	}
	return strings.Join(parts, ", ")
}

// typeStringOfUDT renders a UDT's fields the same way.
func typeStringOfUDT(dt hir.Datatype) string {
	dd := dataDefOf(dt)
	if dd == nil {
		return ""
	}
	parts := make([]string, 0, len(dd.Body))
	for _, d := range dd.Body {
		t := d.Type
		if isArrayType(t) {
			t = underlyingType(t)
		}
		parts = append(parts, d.Name+": "+toString(t))
	}
	return strings.Join(parts, ", ")
}

// dropColumns renders origType's fields minus the fields of dropType and
// the extra name, preserving field order.
func dropColumns(origType, dropType hir.Datatype, extra string) string {
	origDD := dataDefOf(origType)
	if origDD == nil {
		return ""
	}
	dropped := make(map[string]bool)
	if dropDD := dataDefOf(dropType); dropDD != nil {
		for _, d := range dropDD.Body {
			dropped[d.Name] = true
		}
	}
	if extra != "" {
		dropped[extra] = true
	}
	parts := make([]string, 0, len(origDD.Body))
	for _, d := range origDD.Body {
		if dropped[d.Name] {
			continue
		}
		t := d.Type
		if isArrayType(t) {
			t = underlyingType(t)
		}
		parts = append(parts, d.Name+": "+toString(t))
	}
	return strings.Join(parts, ", ")
}
