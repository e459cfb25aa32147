// Package backend lowers the scalar subset of HIR to Go source and
// evaluates it with an embedded interpreter. It exists to serve
// compile-time evaluation of load() arguments and simple REPL echoing;
// relational operators are outside the executable subset.
package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sorinm/empirical-lang/hir"
)

// Program is a generated sequence of Go statements plus an optional final
// expression whose value is the program's result.
type Program struct {
	Stmts []string
	Expr  string
}

// Codegen translates a module. Statements outside the scalar subset return
// an error naming the construct.
func Codegen(mod *hir.Module, interactive, dump bool) (*Program, error) {
	_ = interactive
	p := &Program{}
	for _, s := range mod.Body {
		// a later statement demotes the previous expression
		if p.Expr != "" {
			p.Stmts = append(p.Stmts, "_ = "+p.Expr)
			p.Expr = ""
		}
		switch n := s.(type) {
		case *hir.Decl:
			for _, d := range n.Decls {
				value, err := genExpr(d.Value)
				if err != nil {
					return nil, err
				}
				p.Stmts = append(p.Stmts, fmt.Sprintf("%s := %s", goName(d.Name), value))
			}
		case *hir.Assign:
			target, err := genExpr(n.Target)
			if err != nil {
				return nil, err
			}
			value, err := genExpr(n.Value)
			if err != nil {
				return nil, err
			}
			p.Stmts = append(p.Stmts, target+" = "+value)
		case *hir.ExprStmt:
			code, err := genExpr(n.Value)
			if err != nil {
				return nil, err
			}
			p.Expr = code
		default:
			return nil, errors.Errorf("codegen: %T is outside the executable subset", s)
		}
	}
	if dump {
		fmt.Println(strings.Join(append(append([]string{}, p.Stmts...), p.Expr), "\n"))
	}
	return p, nil
}

// goKeywords guards generated identifiers against collisions.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true,
	"for": true, "func": true, "go": true, "goto": true, "if": true,
	"import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true,
	"switch": true, "type": true, "var": true,
}

func goName(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

var goBinOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"==": "==", "!=": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"and": "&&", "or": "||",
}

func genExpr(e hir.Expr) (string, error) {
	switch n := e.(type) {
	case *hir.IntegerLiteral:
		return strconv.FormatInt(n.Val, 10), nil
	case *hir.FloatingLiteral:
		s := strconv.FormatFloat(n.Val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case *hir.BoolLiteral:
		return strconv.FormatBool(n.Val), nil
	case *hir.Str:
		return strconv.Quote(n.Val), nil
	case *hir.Char:
		return strconv.QuoteRune(n.Val), nil
	case *hir.Id:
		return goName(n.Sym), nil
	case *hir.Paren:
		sub, err := genExpr(n.Sub)
		if err != nil {
			return "", err
		}
		return "(" + sub + ")", nil
	case *hir.BinOp:
		op, ok := goBinOps[n.Op]
		if !ok {
			return "", errors.Errorf("codegen: operator %q is outside the executable subset", n.Op)
		}
		left, err := genExpr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := genExpr(n.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + op + " " + right + ")", nil
	case *hir.UnaryOp:
		op := n.Op
		if op == "not" {
			op = "!"
		}
		if op != "-" && op != "!" {
			return "", errors.Errorf("codegen: operator %q is outside the executable subset", n.Op)
		}
		operand, err := genExpr(n.Operand)
		if err != nil {
			return "", err
		}
		return op + "(" + operand + ")", nil
	default:
		return "", errors.Errorf("codegen: %T is outside the executable subset", e)
	}
}
