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

// Package lattice builds the per-indexVar merge lattice: the disjunction of
// co-iteration cases that drives the loop emitted for one index variable.
package lattice

import (
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/notation"
)

// Point is one co-iteration case at an index variable: the iterators that
// contribute values, which of those advance sequentially versus are
// dereferenced directly, and the sub-expression this case evaluates.
type Point struct {
	Iterators       []iterator.Iterator
	RangeIterators  []iterator.Iterator
	LocateIterators []iterator.Iterator
	Expr            notation.IndexExpr
}

// IsFull reports whether this point's range iterators, taken together,
// cover the whole dimension - true if any one of them is a full level, or
// if there are no range iterators at all (a point with nothing to range
// over is vacuously full, e.g. a sub-expression that does not depend on
// this index variable).
func (p *Point) IsFull() bool {
	if len(p.RangeIterators) == 0 {
		return true
	}
	for _, it := range p.RangeIterators {
		if it.Capabilities().IsFull {
			return true
		}
	}
	return false
}

// Lattice is the ordered sequence of Points for one index variable: exactly
// one fires per iteration, selected by which iterators match the current
// merged coordinate.
type Lattice struct {
	Points []*Point
}

// GetSubLattice returns the sub-lattice of cases reachable once p's
// advancing iterators dominate: the points strictly after p. Lattice
// construction always orders points from most to least specific, so this
// is simply the remaining suffix.
func (l *Lattice) GetSubLattice(p *Point) *Lattice {
	for i, q := range l.Points {
		if q == p {
			return &Lattice{Points: l.Points[i+1:]}
		}
	}
	return &Lattice{}
}

func dedup(points []*Point) []*Point {
	seen := map[string]bool{}
	var out []*Point
	for _, p := range points {
		key := iteratorSetKey(p.Iterators)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func iteratorSetKey(its []iterator.Iterator) string {
	key := ""
	for _, it := range its {
		key += it.Step().Tensor.Name + "#" + it.Step().IndexVar.Name() + ";"
	}
	return key
}

func union(a, b []iterator.Iterator) []iterator.Iterator {
	seen := map[iterator.Iterator]bool{}
	var out []iterator.Iterator
	for _, it := range a {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	for _, it := range b {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// classify splits its into range (sequentially advancing) and locate
// (directly dereferenced) groups: when at least one iterator is not a full
// level, every full-level iterator in the same point yields to it and is
// dereferenced by locate instead of driving the loop.
func classify(its []iterator.Iterator) (rng, locate []iterator.Iterator) {
	anyNonFull := false
	for _, it := range its {
		if !it.Capabilities().IsFull {
			anyNonFull = true
			break
		}
	}
	if !anyNonFull {
		if len(its) == 0 {
			return nil, nil
		}
		return its[:1], its[1:]
	}
	for _, it := range its {
		if it.Capabilities().IsFull {
			locate = append(locate, it)
		} else {
			rng = append(rng, it)
		}
	}
	return rng, locate
}
