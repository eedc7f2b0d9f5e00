// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package exprutil implements the available-expression analysis, structural
// substitution, and terminal scalar lowering that the recursion in package
// lower uses to hoist loop-invariant sub-computations and to materialize
// partial reductions into temporaries.
package exprutil

import (
	"github.com/gx-org/sparsetaco/notation"
)

func isVisited(vars []*notation.IndexVariable, iv *notation.IndexVariable) bool {
	for _, v := range vars {
		if v == iv {
			return true
		}
	}
	return false
}

// allFreeVarsIn reports whether every free variable of e appears in vars.
func allFreeVarsIn(e notation.IndexExpr, vars []*notation.IndexVariable) bool {
	for _, iv := range notation.FreeVars(e) {
		if !isVisited(vars, iv) {
			return false
		}
	}
	return true
}

// GetAvailableExpressions returns the maximal sub-expressions of e (e
// included) whose free index variables are all in visitedVars, in a
// deterministic pre-order walk; the operands of a returned sub-expression
// are not listed separately. These are candidates the recursion may hoist into a
// temporary above the current loop, since nothing below visitedVars can
// change their value.
func GetAvailableExpressions(e notation.IndexExpr, visitedVars []*notation.IndexVariable) []notation.IndexExpr {
	var out []notation.IndexExpr
	var walk func(notation.IndexExpr)
	walk = func(e notation.IndexExpr) {
		if allFreeVarsIn(e, visitedVars) {
			out = append(out, e)
			return
		}
		for _, op := range e.Operands() {
			walk(op)
		}
	}
	walk(e)
	return out
}

// GetSubExpr returns the unique maximal sub-expression of e whose free
// variables are all in reachableVars, and true if one exists. "Maximal"
// means: if e itself qualifies, return e; otherwise recurse into operands
// and require exactly one operand to qualify (a multi-operand match would
// mean reachableVars spans more than one child's territory, which the
// caller must not ask for).
//
// reachableVars is not only a child's own descendants: a reduction child
// must carry every factor the reduction touches, including ones that only
// depend on an ancestor index variable (e.g. B(i,j) in a(i)=B(i,j)*c(j)),
// since that ancestor's position stays bound for the reduction's whole
// loop. Callers pass the child's descendants plus iv and iv's own
// ancestors for a reduction child, and skip this call entirely for a free
// child.
func GetSubExpr(e notation.IndexExpr, reachableVars []*notation.IndexVariable) (notation.IndexExpr, bool) {
	if allFreeVarsIn(e, reachableVars) {
		return e, true
	}
	var found notation.IndexExpr
	count := 0
	for _, op := range e.Operands() {
		if sub, ok := GetSubExpr(op, reachableVars); ok {
			found = sub
			count++
		}
	}
	if count != 1 {
		return nil, false
	}
	return found, true
}

// Replace returns a structural copy of e with every node that is == (by
// pointer) to a key of substitutions replaced by its value. Leaves without a
// substitution, and internal nodes none of whose operands changed, are
// returned unchanged (by identity) so callers can cheaply tell whether a
// substitution actually fired.
func Replace(e notation.IndexExpr, substitutions map[notation.IndexExpr]notation.IndexExpr) notation.IndexExpr {
	if sub, ok := substitutions[e]; ok {
		return sub
	}
	switch n := e.(type) {
	case *notation.AccessExpr, *notation.LitExpr:
		return e
	case *notation.NegExpr:
		x := Replace(n.X, substitutions)
		if x == n.X {
			return e
		}
		return notation.Neg(x)
	case *notation.SqrtExpr:
		x := Replace(n.X, substitutions)
		if x == n.X {
			return e
		}
		return notation.Sqrt(x)
	case *notation.AddExpr:
		x, y := Replace(n.X, substitutions), Replace(n.Y, substitutions)
		if x == n.X && y == n.Y {
			return e
		}
		return notation.Add(x, y)
	case *notation.SubExpr:
		x, y := Replace(n.X, substitutions), Replace(n.Y, substitutions)
		if x == n.X && y == n.Y {
			return e
		}
		return notation.Sub(x, y)
	case *notation.MulExpr:
		x, y := Replace(n.X, substitutions), Replace(n.Y, substitutions)
		if x == n.X && y == n.Y {
			return e
		}
		return notation.Mul(x, y)
	case *notation.DivExpr:
		x, y := Replace(n.X, substitutions), Replace(n.Y, substitutions)
		if x == n.X && y == n.Y {
			return e
		}
		return notation.Div(x, y)
	default:
		return e
	}
}
