package backend

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/internal/log"
)

// Session evaluates generated programs and keeps interpreter state across
// calls so earlier declarations stay visible, as in a REPL.
type Session struct {
	interp *interp.Interpreter
	logger *slog.Logger
}

func NewSession() *Session {
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	return &Session{
		interp: i,
		logger: log.DefaultLogger.With("section", "backend"),
	}
}

// Interpret runs a program and renders its value the way the VM prints
// one: strings quoted, everything else in its natural form. A program with
// no final expression yields the empty string.
func (s *Session) Interpret(p *Program) (string, error) {
	for _, stmt := range p.Stmts {
		if _, err := s.interp.Eval(stmt); err != nil {
			// a redeclared name in an ongoing session becomes an assignment
			if strings.Contains(err.Error(), "already declared") && strings.Contains(stmt, ":=") {
				retry := strings.Replace(stmt, ":=", "=", 1)
				if _, err := s.interp.Eval(retry); err != nil {
					return "", errors.Wrap(err, "interpret")
				}
				continue
			}
			return "", errors.Wrap(err, "interpret")
		}
	}
	if p.Expr == "" {
		return "", nil
	}
	v, err := s.interp.Eval(p.Expr)
	if err != nil {
		return "", errors.Wrap(err, "interpret")
	}
	return renderValue(v), nil
}

// Eval is the sema collaborator: codegen then interpret a one-off module
// against this session.
func (s *Session) Eval(mod *hir.Module) (string, error) {
	prog, err := Codegen(mod, true, false)
	if err != nil {
		return "", err
	}
	s.logger.Debug("compile-time evaluation", "stmts", len(prog.Stmts), "expr", prog.Expr)
	return s.Interpret(prog)
}

func renderValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.String {
		return strconv.Quote(v.String())
	}
	return fmt.Sprintf("%v", v.Interface())
}
