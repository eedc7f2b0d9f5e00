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

package lower

import (
	"github.com/gx-org/sparsetaco/exprutil"
	"github.com/gx-org/sparsetaco/internal/compileerr"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/lattice"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

// computeCase classifies an index variable's position relative to the last
// free variable in the loop nest, which decides whether a level stores
// directly, passes through to a descendant, or accumulates.
type computeCase int

const (
	aboveLastFree computeCase = iota
	lastFree
	belowLastFree
)

func classify(ctx *Ctx, iv *notation.IndexVariable) computeCase {
	if iv.IsReduction() {
		return belowLastFree
	}
	if ctx.Graph.IsLastFreeVariable(iv) {
		return lastFree
	}
	return aboveLastFree
}

// parentPos returns the IR expression for step's parent position: the
// position variable of the same tensor's level directly above step, or the
// literal 0 for a tensor's outermost level (the implicit single root
// position every tensor path starts from).
func parentPos(tab *iterator.Table, step notation.TensorPathStep) loopir.Expr {
	if step.LevelIdx == 0 {
		return loopir.Int(0)
	}
	for _, it := range tab.All() {
		s := it.Step()
		if s.Tensor == step.Tensor && s.LevelIdx == step.LevelIdx-1 {
			return it.PosVar()
		}
	}
	return loopir.Int(0)
}

// unionRangeIterators gathers the distinct range iterators across every
// point of lat, in first-seen order.
func unionRangeIterators(lat *lattice.Lattice) []iterator.Iterator {
	seen := map[iterator.Iterator]bool{}
	var out []iterator.Iterator
	for _, p := range lat.Points {
		for _, it := range p.RangeIterators {
			if !seen[it] {
				seen[it] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// targetLHS returns the IR expression lower stores compute results into for
// target at the current index variable iv: an array element for an
// explicitly positioned target, the bound scalar variable for a temporary,
// the result's own position counter at iv if target.Tensor is the real
// result and iv sits on its tensor path, or vals[0] for the 0-D /
// scalar-output case.
func targetLHS(ctx *Ctx, target Target, iv *notation.IndexVariable) loopir.Expr {
	if target.Pos != nil {
		return loopir.Load(exprutil.ValsArray(target.Tensor), target.Pos)
	}
	if v, ok := ctx.Temporaries[target.Tensor]; ok {
		return v
	}
	resultPath := ctx.Graph.ResultTensorPath()
	if target.Tensor == resultPath.Tensor {
		if step, ok := resultPath.StepFor(iv); ok {
			if it, ok := ctx.Iterators.Lookup(step); ok {
				return loopir.Load(exprutil.ValsArray(target.Tensor), it.PosVar())
			}
		}
	}
	return loopir.Load(exprutil.ValsArray(target.Tensor), loopir.Int(0))
}

// Lower runs the recursion for one indexVar and the sub-expression it
// ranges over, returning the statements it emits. exhaustedAccesses is
// not consulted: nothing in this package populates it, and the recursive
// calls pass nil to their children.
func Lower(ctx *Ctx, target Target, iv *notation.IndexVariable, expr notation.IndexExpr, exhaustedAccesses map[*notation.AccessExpr]bool) ([]loopir.Stmt, error) {
	lat, err := lattice.Build(expr, iv, ctx.Iterators)
	if err != nil {
		return nil, err
	}
	rangeIters := unionRangeIterators(lat)
	if len(rangeIters) == 0 {
		return nil, compileerr.Internal("index variable %q has no range iterator in its own merge lattice", iv.Name())
	}
	emitMerge := len(rangeIters) > 1 || !rangeIters[0].Capabilities().IsUnique

	var prologue []loopir.Stmt
	begins := map[iterator.Iterator]loopir.Expr{}
	ends := map[iterator.Iterator]loopir.Expr{}
	for _, r := range rangeIters {
		pp := parentPos(ctx.Iterators, r.Step())
		stmt, begin, end := r.GetPosIter(pp)
		if stmt != nil {
			prologue = append(prologue, stmt)
		}
		begins[r], ends[r] = begin, end
		if emitMerge {
			prologue = append(prologue,
				loopir.Store(r.IteratorVar(), begin, false),
				loopir.Store(r.EndVar(), end, false),
			)
		}
	}

	body, err := lowerCases(ctx, target, iv, lat, rangeIters)
	if err != nil {
		return nil, err
	}

	var loopStmt loopir.Stmt
	if emitMerge {
		var cond loopir.Expr
		for _, r := range rangeIters {
			term := loopir.Bin("<", r.IteratorVar(), r.EndVar())
			if cond == nil {
				cond = term
			} else {
				cond = loopir.Bin("||", cond, term)
			}
		}
		loopStmt = &loopir.While{Cond: cond, Body: loopir.NewBlock(body...)}
	} else {
		r := rangeIters[0]
		loopStmt = &loopir.For{
			Var:         r.IteratorVar(),
			Begin:       begins[r],
			End:         ends[r],
			Body:        loopir.NewBlock(body...),
			Parallelism: doParallelize(ctx, iv),
		}
	}

	return append(prologue, loopStmt), nil
}

func lowerCases(ctx *Ctx, target Target, iv *notation.IndexVariable, lat *lattice.Lattice, rangeIters []iterator.Iterator) ([]loopir.Stmt, error) {
	var stmts []loopir.Stmt

	idxVar := loopir.NewVar(ctx.Names.Next("m"+iv.Name()), loopir.IntKind)
	idxExprs := make([]loopir.Expr, 0, len(rangeIters))
	bindings := iterator.Bindings{}
	for _, r := range rangeIters {
		pre, derived, _ := r.GetPosAccess(r.IteratorVar(), bindings)
		if pre != nil {
			stmts = append(stmts, pre)
		}
		if derived != nil {
			stmts = append(stmts, loopir.Store(r.IdxVar(), derived, false))
		}
		if r.Capabilities().HasLocate {
			// A Dense level driving the loop: its position is the loop's own
			// iteration variable.
			stmts = append(stmts, loopir.Store(r.PosVar(), r.IteratorVar(), false))
		}
		idxExprs = append(idxExprs, r.IdxVar())
	}
	stmts = append(stmts, loopir.Store(idxVar, loopir.Min(idxExprs...), false))
	bindings[iv] = idxVar

	// Bind locate iterators (full, directly-addressable operands) now that
	// idxVar is known; a locate iterator is always a full (Dense) level,
	// which locates from idxVar without needing the merge's range
	// iterators, so this runs once, shared by every case below.
	for _, p := range lat.Points {
		for _, l := range p.LocateIterators {
			if !l.Capabilities().HasLocate {
				continue
			}
			pre, pos, _ := l.GetLocate(parentPos(ctx.Iterators, l.Step()), bindings)
			if pre != nil {
				stmts = append(stmts, pre)
			}
			if pos != nil {
				stmts = append(stmts, loopir.Store(l.PosVar(), pos, false))
			}
		}
	}

	// A dense result level is never a lattice operand, so the shared
	// locate-binding loop above never touches it; bind its own PosVar() here
	// the same way, so targetLHS can read it uniformly with an appending
	// level's position counter.
	if resStep, ok := ctx.Graph.ResultTensorPath().StepFor(iv); ok {
		if resIt, ok := ctx.Iterators.Lookup(resStep); ok && resIt.Capabilities().HasInsert {
			pre, pos, _ := resIt.GetLocate(parentPos(ctx.Iterators, resStep), bindings)
			if pre != nil {
				stmts = append(stmts, pre)
			}
			if pos != nil {
				stmts = append(stmts, loopir.Store(resIt.PosVar(), pos, false))
			}
		}
	}

	if ctx.Props.Compute {
		if resStep, ok := ctx.Graph.ResultTensorPath().StepFor(iv); ok {
			if resIt, ok := ctx.Iterators.Lookup(resStep); ok && resIt.Capabilities().HasAppend {
				cap := ctx.ValsCapacity(ctx.Graph.ResultTensorPath().Tensor)
				stmts = append(stmts, loopir.ResizeDouble(exprutil.ValsArray(resStep.Tensor), cap, loopir.Bin("+", resIt.PosVar(), loopir.Int(1))))
			}
		}
	}

	var chain *loopir.If
	var chainStmt loopir.Stmt
	for i, lq := range lat.Points {
		caseBody, err := lowerCase(ctx, target, iv, lq, idxVar)
		if err != nil {
			return nil, err
		}
		block := loopir.NewBlock(caseBody...)
		if len(lq.RangeIterators) == 0 {
			// The literal-true case: becomes the else arm, or (if it is the
			// only point) the unconditional body.
			if chain == nil && i == 0 {
				chainStmt = block
			} else if chain != nil {
				chain.Else = block
			} else {
				chainStmt = block
			}
			continue
		}
		var cond loopir.Expr
		for _, r := range lq.RangeIterators {
			term := loopir.Bin("==", r.IdxVar(), idxVar)
			if cond == nil {
				cond = term
			} else {
				cond = loopir.Bin("&&", cond, term)
			}
		}
		next := &loopir.If{Cond: cond, Then: block}
		if chain == nil {
			chainStmt = next
		} else {
			chain.Else = loopir.NewBlock(next)
		}
		chain = next
	}
	if chainStmt != nil {
		stmts = append(stmts, chainStmt)
	}

	for _, r := range rangeIters {
		var incr loopir.Expr
		if len(rangeIters) == 1 {
			incr = loopir.Int(1)
		} else {
			incr = &loopir.CondExpr{Cond: loopir.Bin("==", r.IdxVar(), idxVar), Then: loopir.Int(1), Else: loopir.Int(0)}
		}
		stmts = append(stmts, loopir.Store(r.IteratorVar(), loopir.Bin("+", r.IteratorVar(), incr), false))
	}

	return stmts, nil
}

func lowerCase(ctx *Ctx, target Target, iv *notation.IndexVariable, lq *lattice.Point, idxVar loopir.Expr) ([]loopir.Stmt, error) {
	var stmts []loopir.Stmt
	cc := classify(ctx, iv)
	caseExpr := lq.Expr

	// passThrough records whether the one child this level has (the graph
	// is always a single chain) already owns the real store: true for a
	// free child, or a reduction child with a free variable
	// nested below it (Gustavson's ikj order for A(i,j)=B(i,k)*C(k,j) puts
	// the free j under the reduction k). In either case this level must not
	// also compute and store - the descendant's own lastFree level does
	// that, against the real target, once it gets there.
	passThrough := false
	for _, child := range ctx.Graph.Children(iv) {
		if child.IsReduction() && !ctx.Graph.HasFreeVariableDescendant(child) {
			// The reduction child must carry the entire sub-expression it
			// reduces, including factors that depend on iv or an ancestor
			// of iv - not just the part confined to the child's own
			// descendants - or an ancestor-dependent factor is stranded
			// and evaluated once against a stale position instead of once
			// per reduction step.
			reachable := append(append([]*notation.IndexVariable{}, ctx.Graph.Ancestors(iv)...), iv, child)
			reachable = append(reachable, ctx.Graph.Descendants(child)...)
			sub, ok := exprutil.GetSubExpr(caseExpr, reachable)
			if !ok {
				childStmts, err := Lower(ctx, target, child, caseExpr, nil)
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, childStmts...)
				passThrough = true
				continue
			}
			tempName := "t" + child.Name()
			tempTensor := notation.NewTensorVar(tempName, target.Tensor.Elem, notation.NewFormat())
			tempVar := loopir.NewElemVar(ctx.Names.Next(tempName), target.Tensor.Elem)
			stmts = append(stmts, &loopir.VarDecl{Var: tempVar, Init: loopir.Float(0)})
			ctx.Temporaries[tempTensor] = tempVar
			caseExpr = exprutil.Replace(caseExpr, map[notation.IndexExpr]notation.IndexExpr{sub: notation.Access(tempTensor)})

			childStmts, err := Lower(ctx, Target{Tensor: tempTensor}, child, sub, nil)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, childStmts...)
			continue
		}

		childStmts, err := Lower(ctx, target, child, caseExpr, nil)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, childStmts...)
		passThrough = true
	}

	if ctx.Props.Compute && !passThrough && (cc == lastFree || cc == belowLastFree) {
		scalar, err := exprutil.LowerToScalarExpression(caseExpr, ctx.Iterators, ctx.Temporaries, ctx.elem)
		if err != nil {
			return nil, err
		}
		compound := cc == belowLastFree || ctx.Graph.HasReductionVariableAncestor(iv) || (cc == lastFree && ctx.Props.Accumulate)
		stmts = append(stmts, loopir.Store(targetLHS(ctx, target, iv), scalar, compound))
	}

	resultPath := ctx.Graph.ResultTensorPath()
	if resStep, ok := resultPath.StepFor(iv); ok {
		if resIt, ok := ctx.Iterators.Lookup(resStep); ok {
			switch {
			case resIt.Capabilities().HasAppend:
				if ctx.Props.Assemble {
					stmts = append(stmts, resIt.GetAppendCoord(resIt.PosVar(), idxVar))
				}
				if ctx.Props.Assemble || ctx.Props.Compute {
					stmts = append(stmts, loopir.Store(resIt.PosVar(), loopir.Bin("+", resIt.PosVar(), loopir.Int(1)), false))
				}
			case resIt.Capabilities().HasInsert:
				if ctx.Props.Assemble {
					if c := resIt.GetInsertCoord(resIt.PosVar(), iterator.Bindings{iv: idxVar}); c != nil {
						stmts = append(stmts, c)
					}
				}
			}
		}
	}

	return stmts, nil
}
