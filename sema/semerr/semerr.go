// Package semerr collects the diagnostics of a semantic-analysis pass.
// Every error kind is a typed struct implementing SemaError; the analyzer
// accumulates them and surfaces a single failure at the end of the pass so
// one run can report many problems.
package semerr

import (
	"fmt"
	"log/slog"
	"strings"
)

type ErrCode int

const (
	None ErrCode = iota
	SymbolNotFound
	AlreadyDefined
	NoMembers
	NotAMember
	TypeMismatch
	NonBoolean
	NotIndexable
	NotCallable
	InvalidAnnotation
	VoidType
	NamingConvention
	CallMismatch
	OverloadNoMatch
	AmbiguousOverload
	CastReturn
	CastNotType
	NotDataframe
	AggregationShape
	JoinIncompatible
	NearestStrict
	NoReturn
	MismatchedReturn
	ReturnOutsideFunction
	TemporaryTarget
	ListMismatch
	UnknownType
	LoadArgument
)

type SemaError interface {
	Error() string
	ErrCode() ErrCode
}

// Errors accumulates diagnostics across a pass.
type Errors struct {
	errs []SemaError
}

func (r *Errors) With(err ...SemaError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(other *Errors) *Errors {
	if r == nil {
		return other
	}
	if other == nil || len(other.errs) == 0 {
		return r
	}
	return r.With(other.errs...)
}

func (r *Errors) Errors() []SemaError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	return r != nil && len(r.errs) > 0
}

func (r *Errors) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errs)
}

// String renders every diagnostic as an "Error: ..." line.
func (r *Errors) String() string {
	var b strings.Builder
	for _, e := range r.Errors() {
		b.WriteString("Error: ")
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

// Join returns a single error carrying the full diagnostic text, or nil.
func (r *Errors) Join() error {
	if !r.HasError() {
		return nil
	}
	return joined{text: strings.TrimRight(r.String(), "\n")}
}

type joined struct {
	text string
}

func (j joined) Error() string { return j.text }

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, e := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key:   fmt.Sprint("e", i),
			Value: slog.StringValue(e.Error()),
		})
	}
	return slog.GroupValue(vals...)
}
