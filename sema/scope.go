package sema

import (
	"github.com/agnivade/levenshtein"

	"github.com/sorinm/empirical-lang/hir"
)

// scope is a single symbol map. Scopes are long-lived: record scopes must
// outlive their DataDef so member access can resolve against them, so the
// analyzer keeps every scope in a flat table linked by previous indexes
// rather than a stack of maps.
type scope struct {
	symbols  map[string][]hir.Resolved
	previous int
}

func (a *Analyzer) pushScope() int {
	a.scopes = append(a.scopes, scope{
		symbols:  make(map[string][]hir.Resolved),
		previous: a.current,
	})
	a.current = len(a.scopes) - 1
	return a.current
}

func (a *Analyzer) popScope() {
	a.current = a.scopes[a.current].previous
}

// findSymbol walks the preferred scope first (flagging a hit so the caller
// can wrap the result as an implied member), then the current scope and its
// previous chain down to global.
func (a *Analyzer) findSymbol(name string) (refs []hir.Resolved, inPreferred bool) {
	if a.preferred != nil {
		idx := a.scopeOfType(a.preferred.Type())
		if initial := a.findSymbolInScope(name, idx); len(initial) > 0 {
			return initial, true
		}
	}
	i := a.current
	for {
		if refs, ok := a.scopes[i].symbols[name]; ok {
			return refs, false
		}
		if i == 0 {
			return nil, false
		}
		i = a.scopes[i].previous
	}
}

func (a *Analyzer) findSymbolInScope(name string, idx int) []hir.Resolved {
	if idx == 0 {
		return nil
	}
	return a.scopes[idx].symbols[name]
}

// storeSymbol saves a reference in the current scope. A name that already
// exists must be overloadable against every existing entry; in interactive
// mode a non-overloadable but overridable entry is replaced instead.
func (a *Analyzer) storeSymbol(name string, ref hir.Resolved) bool {
	symbols := a.scopes[a.current].symbols
	existing, ok := symbols[name]
	if !ok {
		symbols[name] = []hir.Resolved{ref}
		return true
	}
	for i, r := range existing {
		if !a.isOverloadable(r, ref) {
			if a.cfg.Interactive && isOverridable(r) {
				existing[i] = ref
				return true
			}
			return false
		}
	}
	symbols[name] = append(existing, ref)
	return true
}

// removeSymbol deletes name from the nearest scope on the current chain
// that defines it.
func (a *Analyzer) removeSymbol(name string) bool {
	i := a.current
	for {
		if _, ok := a.scopes[i].symbols[name]; ok {
			delete(a.scopes[i].symbols, name)
			return true
		}
		if i == 0 {
			return false
		}
		i = a.scopes[i].previous
	}
}

// removeSymbolRef unwinds a tentative reference after a failed definition.
func (a *Analyzer) removeSymbolRef(name string, ref hir.Resolved) {
	symbols := a.scopes[a.current].symbols
	refs := symbols[name]
	for i, r := range refs {
		if r == ref {
			symbols[name] = append(refs[:i:i], refs[i+1:]...)
			return
		}
	}
}

const maxSuggestionDistance = 2

// nearestSymbol returns the closest visible name within a small edit
// distance, for "did you mean" hints.
func (a *Analyzer) nearestSymbol(name string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	i := a.current
	for {
		for candidate := range a.scopes[i].symbols {
			if candidate == name {
				continue
			}
			if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
				best, bestDist = candidate, d
			}
		}
		if i == 0 {
			return best
		}
		i = a.scopes[i].previous
	}
}
