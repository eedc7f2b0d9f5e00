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

package lattice

import (
	"github.com/gx-org/sparsetaco/internal/compileerr"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/notation"
)

func notLowerableExpr(e notation.IndexExpr) error {
	return compileerr.Internal("cannot build a merge lattice for expression %s", e.String())
}

// Build constructs the merge lattice for (expr, iv): a leaf access
// contributes one point per its own step at iv (or an empty, vacuously-full
// point if the tensor does not range over iv here); Mul and Div combine
// their operands' lattices conjunctively (a term is only computed where
// every multiplicand/divisor is present, since an absent sparse factor
// makes the product zero); Add, Sub, Neg, and Sqrt combine disjunctively
// (a term is computed wherever any operand is present, the others
// defaulting to their additive identity) - the same asymmetry TACO's own
// lattice algebra encodes between multiplicative and additive merges.
func Build(expr notation.IndexExpr, iv *notation.IndexVariable, table *iterator.Table) (*Lattice, error) {
	switch e := expr.(type) {
	case *notation.AccessExpr:
		return buildLeaf(e, iv, table)
	case *notation.LitExpr:
		return &Lattice{Points: []*Point{{Expr: e}}}, nil
	case *notation.NegExpr:
		return buildUnary(e, e.X, iv, table)
	case *notation.SqrtExpr:
		return buildUnary(e, e.X, iv, table)
	case *notation.AddExpr:
		return buildBinary(e, e.X, e.Y, iv, table, true)
	case *notation.SubExpr:
		return buildBinary(e, e.X, e.Y, iv, table, true)
	case *notation.MulExpr:
		return buildBinary(e, e.X, e.Y, iv, table, false)
	case *notation.DivExpr:
		return buildBinary(e, e.X, e.Y, iv, table, false)
	default:
		return nil, notLowerableExpr(expr)
	}
}

func buildLeaf(acc *notation.AccessExpr, iv *notation.IndexVariable, table *iterator.Table) (*Lattice, error) {
	path, err := notation.BuildTensorPath(acc.Tensor, acc.Indices)
	if err != nil {
		return nil, err
	}
	tstep, ok := path.StepFor(iv)
	if !ok {
		// acc does not range over iv at all: vacuously full, no iterators.
		return &Lattice{Points: []*Point{{Expr: acc}}}, nil
	}
	it, ok := table.Lookup(tstep)
	if !ok {
		return nil, notLowerableExpr(acc)
	}
	rng, locate := classify([]iterator.Iterator{it})
	return &Lattice{Points: []*Point{{
		Iterators:       []iterator.Iterator{it},
		RangeIterators:  rng,
		LocateIterators: locate,
		Expr:            acc,
	}}}, nil
}

func buildUnary(whole, x notation.IndexExpr, iv *notation.IndexVariable, table *iterator.Table) (*Lattice, error) {
	sub, err := Build(x, iv, table)
	if err != nil {
		return nil, err
	}
	points := make([]*Point, len(sub.Points))
	for i, p := range sub.Points {
		points[i] = &Point{Iterators: p.Iterators, RangeIterators: p.RangeIterators, LocateIterators: p.LocateIterators, Expr: whole}
	}
	return &Lattice{Points: points}, nil
}

func buildBinary(whole, x, y notation.IndexExpr, iv *notation.IndexVariable, table *iterator.Table, disjunctive bool) (*Lattice, error) {
	lx, err := Build(x, iv, table)
	if err != nil {
		return nil, err
	}
	ly, err := Build(y, iv, table)
	if err != nil {
		return nil, err
	}
	var points []*Point
	for _, px := range lx.Points {
		for _, py := range ly.Points {
			its := union(px.Iterators, py.Iterators)
			rng, locate := classify(its)
			points = append(points, &Point{Iterators: its, RangeIterators: rng, LocateIterators: locate, Expr: whole})
		}
	}
	if disjunctive {
		for _, px := range lx.Points {
			rng, locate := classify(px.Iterators)
			points = append(points, &Point{Iterators: px.Iterators, RangeIterators: rng, LocateIterators: locate, Expr: whole})
		}
		for _, py := range ly.Points {
			rng, locate := classify(py.Iterators)
			points = append(points, &Point{Iterators: py.Iterators, RangeIterators: rng, LocateIterators: locate, Expr: whole})
		}
	}
	points = dedup(points)
	points = orderBySpecificity(points)
	return &Lattice{Points: points}, nil
}

// orderBySpecificity places points with more iterators first, so that
// GetSubLattice's "points after p" reading holds: once a point's range
// iterators dominate, only less-specific cases remain reachable.
func orderBySpecificity(points []*Point) []*Point {
	out := append([]*Point{}, points...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j].Iterators) > len(out[j-1].Iterators); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
