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
	"github.com/gx-org/sparsetaco/graph"
	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

// allocSize is the initial values-array capacity the driver allocates when
// assembling. The recursion doubles it on demand via loopir.ResizeDouble.
const allocSize = 16

// Drive runs the top-level driver: given a result assignment, its operand
// tensors, and a property set, it builds the iteration graph and iterator
// table, then emits the complete loopir.Func that assembles and/or
// computes the result. This is the entry point that exercises the
// recursion in package lower end to end.
func Drive(name string, stmt *notation.Assignment, operands []*notation.TensorVar, props Properties) (*loopir.Func, error) {
	if err := IsLowerable(stmt, operands); err != nil {
		return nil, err
	}
	if stmt.Accumulate {
		props.Accumulate = true
	}

	operandPaths := make([]*notation.TensorPath, 0, len(operands))
	for _, t := range operands {
		path, err := notation.BuildTensorPath(t, accessIndices(stmt.Rhs, t))
		if err != nil {
			return nil, err
		}
		operandPaths = append(operandPaths, path)
	}

	g, err := graph.Build(stmt, operandPaths)
	if err != nil {
		return nil, err
	}

	names := freshname.NewSource()
	tab, err := iterator.Build(g.TensorPaths(), names)
	if err != nil {
		return nil, err
	}

	ctx := NewCtx(props, g, tab, names, stmt.ResultTensor.Elem)

	body := loopir.NewBlock()

	// Scalar shortcut: no roots means the result has no free variables on
	// its output path; lower the whole RHS directly to vals[0] rather than
	// descending through the loop-nest path.
	if len(g.Order()) == 0 {
		if props.Assemble {
			body.Append(&loopir.ExprStmt{X: loopir.Call("alloc_vals", exprutil.ValsArray(stmt.ResultTensor), loopir.Int(1))})
		}
		if props.Compute {
			scalar, err := exprutil.LowerToScalarExpression(stmt.Rhs, tab, ctx.Temporaries, stmt.ResultTensor.Elem)
			if err != nil {
				return nil, err
			}
			lhs := loopir.Load(exprutil.ValsArray(stmt.ResultTensor), loopir.Int(0))
			body.Append(loopir.Store(lhs, scalar, props.Accumulate))
		}
		return wrapFunc(name, operands, stmt.ResultTensor, body), nil
	}

	resultPath := g.ResultTensorPath()

	if props.Assemble {
		body.Append(initAssembly(ctx, resultPath)...)
	} else if props.Compute {
		body.Append(initComputeOnlyVals(ctx, resultPath)...)
	}

	if props.Compute && !props.Accumulate {
		if resultPath.Steps == nil || len(resultPath.Steps) == 0 {
			body.Append(loopir.Store(loopir.Load(exprutil.ValsArray(stmt.ResultTensor), loopir.Int(0)), loopir.Float(0), false))
		} else if needsZero(ctx) {
			first := resultPath.Steps[0]
			if it, ok := tab.Lookup(first); ok && it.Capabilities().HasInsert {
				body.Append(zeroFillLoop(ctx, it, stmt.ResultTensor))
			}
		}
	}

	for _, root := range g.Roots() {
		stmts, err := Lower(ctx, Target{Tensor: stmt.ResultTensor}, root, stmt.Rhs, nil)
		if err != nil {
			return nil, err
		}
		body.Append(stmts...)
	}

	if props.Assemble {
		body.Append(finalizeAssembly(ctx, resultPath, props.Compute)...)
	}

	return wrapFunc(name, operands, stmt.ResultTensor, body), nil
}

// accessIndices finds the index variables t is accessed with inside expr, in
// logical-dimension order. If t appears more than once, the indices of the
// last occurrence in a left-to-right walk are returned; the other
// occurrences are not compared against them.
func accessIndices(expr notation.IndexExpr, t *notation.TensorVar) []*notation.IndexVariable {
	var found []*notation.IndexVariable
	var walk func(notation.IndexExpr)
	walk = func(e notation.IndexExpr) {
		if acc, ok := e.(*notation.AccessExpr); ok && acc.Tensor == t {
			found = acc.Indices
			return
		}
		for _, op := range e.Operands() {
			walk(op)
		}
	}
	walk(expr)
	return found
}

// initAssembly: for each result level, emit initLevel, initialize each
// appending level's posVar to zero, and allocate the values array with its
// initial capacity.
func initAssembly(ctx *Ctx, resultPath *notation.TensorPath) []loopir.Stmt {
	if len(resultPath.Steps) == 0 {
		// 0-D result (a pure reduction to a scalar): a single value slot,
		// no level to initialize.
		return []loopir.Stmt{&loopir.ExprStmt{X: loopir.Call("alloc_vals", exprutil.ValsArray(resultPath.Tensor), loopir.Int(1))}}
	}
	var stmts []loopir.Stmt
	for i, step := range resultPath.Steps {
		it, ok := ctx.Iterators.Lookup(step)
		if !ok {
			continue
		}
		szPrev := prevLevelSize(ctx, resultPath, i)
		sz := levelSize(ctx, resultPath, i)
		switch {
		case it.Capabilities().HasAppend:
			if s := it.GetAppendInitLevel(szPrev, sz); s != nil {
				stmts = append(stmts, s)
			}
			stmts = append(stmts, loopir.Store(it.PosVar(), loopir.Int(0), false))
		case it.Capabilities().HasInsert:
			if s := it.GetInsertInitLevel(szPrev, sz); s != nil {
				stmts = append(stmts, s)
			}
		}
	}
	capVar := ctx.ValsCapacity(resultPath.Tensor)
	stmts = append(stmts,
		&loopir.VarDecl{Var: capVar, Init: loopir.Int(allocSize)},
		&loopir.ExprStmt{X: loopir.Call("alloc_vals", exprutil.ValsArray(resultPath.Tensor), capVar)},
	)
	return stmts
}

// initComputeOnlyVals prepares a compute-only pass: the kernel is split
// into two separate generated functions, one that assembles the index
// structure and one that fills values against it later. The index
// structure is assumed already assembled, so only the per-level
// append-position counters and the values array itself need initializing
// here.
func initComputeOnlyVals(ctx *Ctx, resultPath *notation.TensorPath) []loopir.Stmt {
	if len(resultPath.Steps) == 0 {
		return []loopir.Stmt{&loopir.ExprStmt{X: loopir.Call("alloc_vals", exprutil.ValsArray(resultPath.Tensor), loopir.Int(1))}}
	}
	var stmts []loopir.Stmt
	for _, step := range resultPath.Steps {
		it, ok := ctx.Iterators.Lookup(step)
		if !ok || !it.Capabilities().HasAppend {
			continue
		}
		stmts = append(stmts, loopir.Store(it.PosVar(), loopir.Int(0), false))
	}
	capVar := ctx.ValsCapacity(resultPath.Tensor)
	stmts = append(stmts,
		&loopir.VarDecl{Var: capVar, Init: loopir.Int(allocSize)},
		&loopir.ExprStmt{X: loopir.Call("alloc_vals", exprutil.ValsArray(resultPath.Tensor), capVar)},
	)
	return stmts
}

// finalizeAssembly: finalizeLevel for each result level, outermost first so
// each level tears down in the same order it was built, then - if not also
// computing - truncate the values array to its final non-zero count.
func finalizeAssembly(ctx *Ctx, resultPath *notation.TensorPath, alsoComputing bool) []loopir.Stmt {
	if len(resultPath.Steps) == 0 {
		if alsoComputing {
			return nil
		}
		sizeVar := loopir.NewVar(resultPath.Tensor.Name+"_valuesSize", loopir.IntKind)
		return []loopir.Stmt{&loopir.VarDecl{Var: sizeVar, Init: loopir.Int(1)}}
	}
	var stmts []loopir.Stmt
	for i, step := range resultPath.Steps {
		it, ok := ctx.Iterators.Lookup(step)
		if !ok {
			continue
		}
		szPrev := prevLevelSize(ctx, resultPath, i)
		sz := levelSize(ctx, resultPath, i)
		var s loopir.Stmt
		switch {
		case it.Capabilities().HasAppend:
			s = it.GetAppendFinalizeLevel(szPrev, sz)
		case it.Capabilities().HasInsert:
			s = it.GetInsertFinalizeLevel(szPrev, sz)
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	if !alsoComputing {
		last := resultPath.Steps[len(resultPath.Steps)-1]
		if it, ok := ctx.Iterators.Lookup(last); ok {
			sizeVar := loopir.NewVar(resultPath.Tensor.Name+"_valuesSize", loopir.IntKind)
			stmts = append(stmts,
				&loopir.VarDecl{Var: sizeVar, Init: it.PosVar()},
				&loopir.ExprStmt{X: loopir.Call("resize", exprutil.ValsArray(resultPath.Tensor), sizeVar)},
			)
		}
	}
	return stmts
}

// prevLevelSize and levelSize name the IR expressions initLevel/finalizeLevel
// take for the level boundary above and at step i: the parent's posVar, or
// literal 1 for the implicit root above the outermost level.
func prevLevelSize(ctx *Ctx, path *notation.TensorPath, i int) loopir.Expr {
	if i == 0 {
		return loopir.Int(1)
	}
	it, ok := ctx.Iterators.Lookup(path.Steps[i-1])
	if !ok {
		return loopir.Int(1)
	}
	return it.PosVar()
}

func levelSize(ctx *Ctx, path *notation.TensorPath, i int) loopir.Expr {
	it, ok := ctx.Iterators.Lookup(path.Steps[i])
	if !ok {
		return loopir.Int(0)
	}
	return it.PosVar()
}

// zeroFillLoop emits the dense-prefix zero-fill loop needed when needsZero
// holds and the result's outermost step inserts: for p := 0; p < dimSize;
// p++ { vals[p] = 0 }.
func zeroFillLoop(ctx *Ctx, it iterator.Iterator, result *notation.TensorVar) *loopir.For {
	p := loopir.NewVar(ctx.Names.Next("z"), loopir.IntKind)
	_, _, end := it.GetPosIter(loopir.Int(0))
	if end == nil {
		end = it.EndVar()
	}
	return &loopir.For{
		Var:   p,
		Begin: loopir.Int(0),
		End:   end,
		Body:  loopir.NewBlock(loopir.Store(loopir.Load(exprutil.ValsArray(result), p), loopir.Float(0), false)),
	}
}

func wrapFunc(name string, operands []*notation.TensorVar, result *notation.TensorVar, body *loopir.Block) *loopir.Func {
	params := make([]*loopir.Var, 0, len(operands))
	for _, t := range operands {
		params = append(params, loopir.NewVar(t.Name, loopir.ArrayKind))
	}
	return &loopir.Func{
		Name:    name,
		Params:  params,
		Results: []*loopir.Var{loopir.NewVar(result.Name, loopir.ArrayKind)},
		Body:    body,
	}
}
