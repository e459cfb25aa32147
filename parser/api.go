// Package parser turns Empirical source text into an ast.Module. The lexer
// and parser are hand-written; newlines separate statements except inside
// brackets.
package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/sorinm/empirical-lang/syntax/ast"
)

// Parse lexes and parses source. In interactive mode a missing trailing
// newline is tolerated (the lexer inserts one either way). With dumpAST the
// raw tree is printed to stdout.
func Parse(source string, interactive, dumpAST bool) (*ast.Module, error) {
	_ = interactive
	toks, lexErrs := lex(source)
	p := &parser{toks: toks}
	mod := p.parseModule()
	errs := append(lexErrs, p.errs...)
	if len(errs) > 0 {
		return mod, errors.Join(errs...)
	}
	if dumpAST {
		fmt.Fprintf(os.Stdout, "%#v\n", mod)
	}
	return mod, nil
}
