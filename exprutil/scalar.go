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

package exprutil

import (
	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"

	"github.com/gx-org/sparsetaco/internal/compileerr"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

// ValsArray returns the stable IR variable naming t's flat values array.
// Unlike the per-step pos/idx variables minted by package iterator, the
// values array is one-per-tensor and needs no fresh-name collision
// avoidance, so it is derived directly from the tensor name.
func ValsArray(t *notation.TensorVar) *loopir.Var {
	return loopir.NewVar(t.Name+"_vals", loopir.ArrayKind)
}

// foldConstant evaluates e at compile time if every leaf is a literal: a
// type switch over the handful of node kinds notation.IndexExpr has. Returns
// ok=false the moment it hits an AccessExpr, since those are only known at
// runtime.
func foldConstant[T dtype.AlgebraType](e notation.IndexExpr) (val T, ok bool) {
	switch n := e.(type) {
	case *notation.LitExpr:
		return T(n.Value), true
	case *notation.NegExpr:
		x, ok := foldConstant[T](n.X)
		if !ok {
			return 0, false
		}
		return -x, true
	case *notation.AddExpr:
		x, ok1 := foldConstant[T](n.X)
		y, ok2 := foldConstant[T](n.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x + y, true
	case *notation.SubExpr:
		x, ok1 := foldConstant[T](n.X)
		y, ok2 := foldConstant[T](n.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x - y, true
	case *notation.MulExpr:
		x, ok1 := foldConstant[T](n.X)
		y, ok2 := foldConstant[T](n.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x * y, true
	case *notation.DivExpr:
		x, ok1 := foldConstant[T](n.X)
		y, ok2 := foldConstant[T](n.Y)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x / y, true
	default:
		return 0, false
	}
}

func constLit[T dtype.AlgebraType](elem notation.Kind, val T) loopir.Expr {
	switch elem {
	case notation.Int32, notation.Int64:
		return loopir.Int(int64(val))
	default:
		return loopir.Float(float64(val))
	}
}

// Temporaries maps a temporary TensorVar (one minted per reduction-hoisted
// sub-expression, named "t"+indexVar) to the scalar IR variable that backs
// it. Ctx owns the live instance; LowerToScalarExpression only reads it.
type Temporaries map[*notation.TensorVar]*loopir.Var

// LowerToScalarExpression turns e, an IndexExpr whose accesses are all
// resolvable at the current loop level, into a scalar IR expression: reads
// of a temporary tensor become its bound scalar variable, reads of a real
// operand become an array load through the innermost iterator of its tensor
// path, and purely literal sub-expressions are constant folded.
func LowerToScalarExpression(e notation.IndexExpr, tab *iterator.Table, temporaries Temporaries, elem notation.Kind) (loopir.Expr, error) {
	if lit, ok := foldConstant[float64](e); ok {
		return constLit(elem, lit), nil
	}
	switch n := e.(type) {
	case *notation.AccessExpr:
		return lowerAccess(n, tab, temporaries)
	case *notation.LitExpr:
		return constLit(elem, n.Value), nil
	case *notation.NegExpr:
		x, err := LowerToScalarExpression(n.X, tab, temporaries, elem)
		if err != nil {
			return nil, err
		}
		return loopir.Un("-", x), nil
	case *notation.SqrtExpr:
		x, err := LowerToScalarExpression(n.X, tab, temporaries, elem)
		if err != nil {
			return nil, err
		}
		return loopir.Call("sqrt", x), nil
	case *notation.AddExpr:
		return lowerBinary(n.X, n.Y, "+", tab, temporaries, elem)
	case *notation.SubExpr:
		return lowerBinary(n.X, n.Y, "-", tab, temporaries, elem)
	case *notation.MulExpr:
		return lowerBinary(n.X, n.Y, "*", tab, temporaries, elem)
	case *notation.DivExpr:
		return lowerBinary(n.X, n.Y, "/", tab, temporaries, elem)
	case *notation.ReductionExpr:
		return nil, compileerr.Internal("reduction node %s survived to scalar lowering", n.String())
	default:
		return nil, compileerr.Internal("cannot lower expression %T to a scalar IR expression", e)
	}
}

func lowerBinary(x, y notation.IndexExpr, op string, tab *iterator.Table, temporaries Temporaries, elem notation.Kind) (loopir.Expr, error) {
	xi, err := LowerToScalarExpression(x, tab, temporaries, elem)
	if err != nil {
		return nil, err
	}
	yi, err := LowerToScalarExpression(y, tab, temporaries, elem)
	if err != nil {
		return nil, err
	}
	return loopir.Bin(op, xi, yi), nil
}

func lowerAccess(acc *notation.AccessExpr, tab *iterator.Table, temporaries Temporaries) (loopir.Expr, error) {
	if v, ok := temporaries[acc.Tensor]; ok {
		return v, nil
	}
	path, err := notation.BuildTensorPath(acc.Tensor, acc.Indices)
	if err != nil {
		return nil, err
	}
	if len(path.Steps) == 0 {
		// 0-D tensor (a scalar operand): its single value lives at vals[0].
		return loopir.Load(ValsArray(acc.Tensor), loopir.Int(0)), nil
	}
	last := path.Steps[len(path.Steps)-1]
	it, ok := tab.Lookup(last)
	if !ok {
		return nil, errors.Errorf("no iterator registered for tensor %q at index variable %q", acc.Tensor.Name, last.IndexVar.Name())
	}
	// A directly-addressable level (Dense) has its PosVar() bound by package
	// lower: by the shared locate-binding loop when it is located, or to the
	// loop's iteration variable when it drives the loop. A Compressed or
	// Fixed level this tensor's path ranges over never gets a PosVar()
	// store - its live position is the range loop's own iteration variable.
	if it.Capabilities().HasLocate {
		return loopir.Load(ValsArray(acc.Tensor), it.PosVar()), nil
	}
	return loopir.Load(ValsArray(acc.Tensor), it.IteratorVar()), nil
}
