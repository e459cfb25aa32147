package sema

import (
	"github.com/sorinm/empirical-lang/hir"
	"github.com/sorinm/empirical-lang/sema/semerr"
	"github.com/sorinm/empirical-lang/syntax/ast"
)

// withPreferredScope runs fn with the table expression's scope preferred
// for name lookup, restoring the previous preference on every path.
func (a *Analyzer) withPreferredScope(table hir.Expr, fn func()) {
	saved := a.preferred
	a.preferred = table
	defer func() {
		a.preferred = saved
	}()
	fn()
}

// query types `from T select cols by by_cols where pred`. Grouping columns
// and result columns each get a synthesized record type; the overall result
// is the Dataframe of by ++ cols, or the table's own type for a pure
// filter.
func (a *Analyzer) query(node *ast.Query) hir.Expr {
	table := a.expr(node.Table)
	if !isDataframeType(table.Type()) && table.Type() != nil {
		a.errs = a.errs.With(semerr.NewNotDataframe{Which: "query", Got: toString(table.Type())})
	}

	q := &hir.Query{Table: table, Qt: hir.Querytype(node.Qt)}
	a.withPreferredScope(table, func() {
		// 'by' gets its own Dataframe
		for _, b := range node.By {
			q.By = append(q.By, a.alias(b))
		}
		if len(q.By) > 0 {
			byName := a.anonName()
			a.createDatatype(byName, typeStringOfAliases(q.By))
			q.ByType = a.makeDataframe("!" + byName)
		}

		// 'cols' shape the resulting type: projections are arrays,
		// aggregations are scalars
		for _, c := range node.Cols {
			col := a.alias(c)
			isArray := isArrayType(col.Value.Type())
			if len(q.By) == 0 && !isArray {
				a.errs = a.errs.With(semerr.NewAggregationShape{Kind: "array"})
			}
			if len(q.By) > 0 && isArray {
				a.errs = a.errs.With(semerr.NewAggregationShape{Kind: "scalar"})
			}
			q.Cols = append(q.Cols, col)
		}
		q.Typ = table.Type()
		if len(q.Cols) > 0 {
			ts := typeStringOfAliases(q.Cols)
			if len(q.By) > 0 {
				ts = typeStringOfAliases(q.By) + ", " + ts
			}
			typeName := a.anonName()
			a.createDatatype(typeName, ts)
			q.Typ = a.makeDataframe("!" + typeName)
		} else if len(q.By) > 0 {
			a.errs = a.errs.With(semerr.NewAggregationShape{Kind: "missing"})
		}

		// 'where' is just a boolean array
		if node.Where != nil {
			q.Where = a.expr(node.Where)
			valid := false
			if arr, ok := q.Where.Type().(*hir.Array); ok {
				valid = isBooleanType(arr.Elem)
			}
			if !valid && q.Where.Type() != nil {
				a.errs = a.errs.With(semerr.NewWhereNotBoolean{Got: toString(q.Where.Type())})
			}
		}
	})

	q.Name = table.NameHint()
	return q
}

// sortExpr types `sort T by cols`; the by columns get a synthesized record
// type and the result keeps the input Dataframe's type.
func (a *Analyzer) sortExpr(node *ast.Sort) hir.Expr {
	table := a.expr(node.Table)
	if !isDataframeType(table.Type()) && table.Type() != nil {
		a.errs = a.errs.With(semerr.NewNotDataframe{Which: "sort", Got: toString(table.Type())})
	}

	s := &hir.Sort{Table: table}
	a.withPreferredScope(table, func() {
		for _, b := range node.By {
			s.By = append(s.By, a.alias(b))
		}
	})

	byName := a.anonName()
	a.createDatatype(byName, typeStringOfAliases(s.By))
	s.ByType = a.makeDataframe("!" + byName)

	s.Typ = table.Type()
	s.Name = table.NameHint()
	return s
}

// join types `join L, R on cols asof col ...`. The on and asof columns are
// typed once under each side's preferred scope and must agree; the output
// concatenates left's fields with right's fields minus the join keys.
func (a *Analyzer) join(node *ast.Join) hir.Expr {
	startErr := a.errs.Len()
	left := a.expr(node.Left)
	if left.Type() != nil && !isDataframeType(left.Type()) {
		a.errs = a.errs.With(semerr.NewNotDataframe{Which: "join for left", Got: toString(left.Type())})
	}
	right := a.expr(node.Right)
	if right.Type() != nil && !isDataframeType(right.Type()) {
		a.errs = a.errs.With(semerr.NewNotDataframe{Which: "join for right", Got: toString(right.Type())})
	}
	badDataframes := a.errs.Len() != startErr

	j := &hir.Join{
		Left:      left,
		Right:     right,
		Strict:    node.Strict,
		Direction: hir.Direction(node.Direction),
	}

	// 'on' columns are resolved against both sides and must line up
	if !badDataframes && len(node.On) > 0 {
		a.withPreferredScope(left, func() {
			for _, o := range node.On {
				j.LeftOn = append(j.LeftOn, a.alias(o))
			}
		})
		a.withPreferredScope(right, func() {
			for _, o := range node.On {
				j.RightOn = append(j.RightOn, a.alias(o))
			}
		})

		leftName := a.anonName()
		a.createDatatype(leftName, typeStringOfAliases(j.LeftOn))
		j.LeftOnType = a.makeDataframe("!" + leftName)

		rightName := a.anonName()
		a.createDatatype(rightName, typeStringOfAliases(j.RightOn))
		j.RightOnType = a.makeDataframe("!" + rightName)

		if !sameType(j.LeftOnType, j.RightOnType) {
			a.errs = a.errs.With(semerr.NewJoinOnIncompatible{
				Left: toStringUDT(j.LeftOnType), Right: toStringUDT(j.RightOnType),
			})
		}
	}

	// 'asof' column, with the nearest/within subtraction rules
	rightAsofName := ""
	if node.Within != nil {
		j.Within = a.expr(node.Within)
	}
	if !badDataframes && node.Asof != nil {
		a.withPreferredScope(left, func() {
			j.LeftAsof = a.alias(node.Asof)
		})
		a.withPreferredScope(right, func() {
			j.RightAsof = a.alias(node.Asof)
		})
		leftAsofType := j.LeftAsof.Value.Type()
		rightAsofType := j.RightAsof.Value.Type()
		rightAsofName = j.RightAsof.Name
		if rightAsofName == "" {
			rightAsofName = j.RightAsof.Value.NameHint()
		}

		if !sameType(leftAsofType, rightAsofType) {
			a.errs = a.errs.With(semerr.NewJoinAsofIncompatible{
				Left: toString(leftAsofType), Right: toString(rightAsofType),
			})
		}

		// nearest or within require the asof columns to be subtractable;
		// resolve the '-' overload against the two columns to find out
		if j.Within != nil || j.Direction == hir.DirectionNearest {
			subtractable := false
			args := []hir.Expr{j.LeftAsof.Value, j.RightAsof.Value}
			if id, ok := a.expr(&ast.Id{Sym: "-"}).(*hir.OverloadedId); ok {
				for _, ref := range id.Refs {
					funcType := typeOf(ref)
					if matchArgs(args, funcType) != "" {
						continue
					}
					if arr, ok := rettypeOf(funcType).(*hir.Array); ok {
						subtractable = true
						if j.Within != nil && !sameType(arr.Elem, j.Within.Type()) {
							a.errs = a.errs.With(semerr.NewJoinWithinMismatch{
								Expected: toString(arr.Elem), Got: toString(j.Within.Type()),
							})
						}
					}
					break
				}
			}
			if !subtractable {
				a.errs = a.errs.With(semerr.NewJoinNotSubtractable{Got: toString(leftAsofType)})
			}
		}

		if j.Strict && j.Direction == hir.DirectionNearest {
			a.errs = a.errs.With(semerr.NewNearestStrict{})
		}
	}

	// drop right's join keys, then splice what remains onto left's fields
	remainingTS := ""
	if !badDataframes {
		remainingTS = dropColumns(right.Type(), j.RightOnType, rightAsofName)
		remainingName := a.anonName()
		a.createDatatype(remainingName, remainingTS)
		j.RemainingType = a.makeDataframe("!" + remainingName)

		fullTS := typeStringOfUDT(left.Type()) + ", " + remainingTS
		fullName := a.anonName()
		a.createDatatype(fullName, fullTS)
		j.Typ = a.makeDataframe("!" + fullName)
	}

	j.Name = left.NameHint() + right.NameHint()
	return j
}
