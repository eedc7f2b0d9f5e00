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
	"testing"

	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/notation"
)

func buildTable(t *testing.T, tensors []*notation.TensorVar, indices [][]*notation.IndexVariable) *iterator.Table {
	t.Helper()
	var paths []*notation.TensorPath
	for i, tv := range tensors {
		p, err := notation.BuildTensorPath(tv, indices[i])
		if err != nil {
			t.Fatalf("BuildTensorPath: %v", err)
		}
		paths = append(paths, p)
	}
	table, err := iterator.Build(paths, freshname.NewSource())
	if err != nil {
		t.Fatalf("iterator.Build: %v", err)
	}
	return table
}

func TestBuildMulConjunctive(t *testing.T) {
	i := notation.NewFree("i")
	j := notation.NewFree("j")
	b := notation.NewTensorVar("b", notation.Float64, notation.DenseVector())
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())
	table := buildTable(t, []*notation.TensorVar{b, c}, [][]*notation.IndexVariable{{i}, {i}})

	expr := notation.Mul(notation.Access(b, i), notation.Access(c, i))
	lat, err := Build(expr, i, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Both operands are dense (full): Mul is conjunctive, so there is a
	// single combined point; with every iterator full, the first drives the
	// loop and the other is dereferenced by locate.
	if len(lat.Points) != 1 {
		t.Fatalf("got %d points, want 1", len(lat.Points))
	}
	if !lat.Points[0].IsFull() {
		t.Errorf("expected the all-dense product point to be full")
	}
	_ = j
}

func TestBuildAddDisjunctive(t *testing.T) {
	i := notation.NewFree("i")
	B := notation.NewTensorVar("B", notation.Float64, notation.SparseVector())
	C := notation.NewTensorVar("C", notation.Float64, notation.SparseVector())
	table := buildTable(t, []*notation.TensorVar{B, C}, [][]*notation.IndexVariable{{i}, {i}})

	expr := notation.Add(notation.Access(B, i), notation.Access(C, i))
	lat, err := Build(expr, i, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Disjunctive merge of two non-full, non-overlapping sparse operands:
	// the union point (both present) plus each operand alone, three points
	// total, ordered most- to least-specific.
	if len(lat.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(lat.Points))
	}
	if len(lat.Points[0].Iterators) != 2 {
		t.Errorf("first point should be the two-way intersection, got %d iterators", len(lat.Points[0].Iterators))
	}
	for _, p := range lat.Points[1:] {
		if len(p.Iterators) != 1 {
			t.Errorf("expected singleton fallback points, got %d iterators", len(p.Iterators))
		}
	}
}

func TestGetSubLattice(t *testing.T) {
	i := notation.NewFree("i")
	B := notation.NewTensorVar("B", notation.Float64, notation.SparseVector())
	C := notation.NewTensorVar("C", notation.Float64, notation.SparseVector())
	table := buildTable(t, []*notation.TensorVar{B, C}, [][]*notation.IndexVariable{{i}, {i}})

	expr := notation.Add(notation.Access(B, i), notation.Access(C, i))
	lat, err := Build(expr, i, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sub := lat.GetSubLattice(lat.Points[0])
	if len(sub.Points) != len(lat.Points)-1 {
		t.Errorf("got %d points in sub-lattice, want %d", len(sub.Points), len(lat.Points)-1)
	}
}

func TestBuildAccessNotRangingOverIV(t *testing.T) {
	i := notation.NewFree("i")
	j := notation.NewFree("j")
	scale := notation.NewTensorVar("scale", notation.Float64, notation.NewFormat())
	table := buildTable(t, nil, nil)

	expr := notation.Access(scale)
	lat, err := Build(expr, i, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(lat.Points) != 1 || !lat.Points[0].IsFull() {
		t.Errorf("an access that does not range over i should be a single vacuously full point")
	}
	_ = j
}
