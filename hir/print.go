package hir

import (
	"fmt"
	"strings"

	"github.com/sorinm/empirical-lang/vvm"
)

// TypeString renders a datatype in round-trippable surface syntax. Unknown
// types render as "_".
func TypeString(dt Datatype) string {
	if dt == nil {
		return "_"
	}
	switch t := dt.(type) {
	case *VVMType:
		return vvm.EmpiricalTypeStrings[t.T]
	case *UDT:
		return t.Name
	case *Array:
		return "[" + TypeString(t.Elem) + "]"
	case *FuncType:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = TypeString(a)
		}
		return "(" + strings.Join(args, ", ") + ") -> " + TypeString(t.Ret)
	case *Kind:
		return "Kind(" + TypeString(t.Of) + ")"
	case *Void:
		return "()"
	}
	return "_"
}

// ToString renders a module for --dump-hir output.
func ToString(mod *Module) string {
	p := printer{}
	for _, s := range mod.Body {
		p.stmt(s)
	}
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) block(body []Stmt) {
	p.indent++
	for _, s := range body {
		p.stmt(s)
	}
	p.indent--
}

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case nil:
		p.line("<nil>")
	case *FunctionDef:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.Name + ": " + TypeString(a.Type)
		}
		p.line("func %s(%s) -> %s:", n.Name, strings.Join(args, ", "), TypeString(n.Rettype))
		p.block(n.Body)
		p.line("end")
	case *GenericFunctionDef:
		p.line("generic func %s  # %d instantiation(s)", n.Original.Name, len(n.Instantiated))
		for _, inst := range n.Instantiated {
			p.stmt(inst)
		}
	case *DataDef:
		p.line("data %s:  # scope %d", n.Name, n.Scope)
		p.indent++
		for _, d := range n.Body {
			p.line("%s: %s", d.Name, TypeString(d.Type))
		}
		p.indent--
		p.line("end")
	case *Return:
		if n.Value == nil {
			p.line("return")
		} else {
			p.line("return %s", ExprString(n.Value))
		}
	case *If:
		p.line("if %s:", ExprString(n.Test))
		p.block(n.Body)
		if len(n.Orelse) > 0 {
			p.line("else:")
			p.block(n.Orelse)
		}
		p.line("end")
	case *While:
		p.line("while %s:", ExprString(n.Test))
		p.block(n.Body)
		p.line("end")
	case *Decl:
		kw := "let"
		if n.Dt == DeclVar {
			kw = "var"
		}
		for _, d := range n.Decls {
			if d.Value != nil {
				p.line("%s %s: %s = %s", kw, d.Name, TypeString(d.Type), ExprString(d.Value))
			} else {
				p.line("%s %s: %s", kw, d.Name, TypeString(d.Type))
			}
		}
	case *Assign:
		p.line("%s = %s", ExprString(n.Target), ExprString(n.Value))
	case *Del:
		targets := make([]string, len(n.Targets))
		for i, t := range n.Targets {
			targets[i] = ExprString(t)
		}
		p.line("del %s", strings.Join(targets, ", "))
	case *ExprStmt:
		p.line("%s  # %s", ExprString(n.Value), TypeString(n.Value.Type()))
	case *Import:
		p.line("import %s", strings.Join(n.Names, ", "))
	case *ImportFrom:
		p.line("from %s import %s", n.Module, strings.Join(n.Names, ", "))
	default:
		p.line("<stmt %T>", s)
	}
}

func aliasString(a *Alias) string {
	if a.Name != "" {
		return a.Name + " = " + ExprString(a.Value)
	}
	return ExprString(a.Value)
}

func aliasesString(aliases []*Alias) string {
	parts := make([]string, len(aliases))
	for i, a := range aliases {
		parts[i] = aliasString(a)
	}
	return strings.Join(parts, ", ")
}

// ExprString renders an expression in surface syntax.
func ExprString(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *Id:
		return n.Sym
	case *ImpliedMember:
		return n.Sym
	case *OverloadedId:
		return fmt.Sprintf("%s<%d overloads>", n.Sym, len(n.Refs))
	case *Member:
		return ExprString(n.Value) + "." + n.Attr
	case *Subscript:
		return ExprString(n.Value) + "[" + sliceString(n.Slice) + "]"
	case *FunctionCall:
		return ExprString(n.Func) + "(" + exprsString(n.Args) + ")"
	case *TemplateInst:
		return ExprString(n.Func) + "$(" + exprsString(n.Args) + ")"
	case *UnaryOp:
		return "(" + n.Op + ExprString(n.Operand) + ")"
	case *BinOp:
		return "(" + ExprString(n.Left) + " " + n.Op + " " + ExprString(n.Right) + ")"
	case *UserDefinedLiteral:
		return ExprString(n.Literal) + n.Suffix
	case *IntegerLiteral:
		return fmt.Sprintf("%d", n.Val)
	case *FloatingLiteral:
		return fmt.Sprintf("%g", n.Val)
	case *BoolLiteral:
		if n.Val {
			return "true"
		}
		return "false"
	case *Str:
		return fmt.Sprintf("%q", n.Val)
	case *Char:
		return fmt.Sprintf("%q", n.Val)
	case *List:
		return "[" + exprsString(n.Values) + "]"
	case *Paren:
		return "(" + ExprString(n.Sub) + ")"
	case *Query:
		s := "from " + ExprString(n.Table) + " select " + aliasesString(n.Cols)
		if len(n.By) > 0 {
			s += " by " + aliasesString(n.By)
		}
		if n.Where != nil {
			s += " where " + ExprString(n.Where)
		}
		return s
	case *Sort:
		return "sort " + ExprString(n.Table) + " by " + aliasesString(n.By)
	case *Join:
		s := "join " + ExprString(n.Left) + ", " + ExprString(n.Right)
		if len(n.LeftOn) > 0 {
			s += " on " + aliasesString(n.LeftOn)
		}
		if n.LeftAsof != nil {
			s += " asof " + aliasString(n.LeftAsof)
			if n.Strict {
				s += " strict"
			}
			s += " " + n.Direction.String()
			if n.Within != nil {
				s += " within " + ExprString(n.Within)
			}
		}
		return s
	}
	return fmt.Sprintf("<expr %T>", e)
}

func exprsString(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func sliceString(s SliceNode) string {
	switch n := s.(type) {
	case *Index:
		return ExprString(n.Value)
	case *Slice:
		out := ""
		if n.Lower != nil {
			out += ExprString(n.Lower)
		}
		out += ":"
		if n.Upper != nil {
			out += ExprString(n.Upper)
		}
		if n.Step != nil {
			out += ":" + ExprString(n.Step)
		}
		return out
	}
	return ""
}
