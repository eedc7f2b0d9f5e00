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

package graph

import (
	"testing"

	"github.com/gx-org/sparsetaco/notation"
)

func buildPath(t *testing.T, tv *notation.TensorVar, indices ...*notation.IndexVariable) *notation.TensorPath {
	t.Helper()
	p, err := notation.BuildTensorPath(tv, indices)
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	return p
}

func TestBuildSpMV(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewReduction("j")
	a := notation.NewTensorVar("a", notation.Float64, notation.DenseVector())
	b := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())

	stmt, err := notation.Assign(a, []*notation.IndexVariable{i}, notation.Mul(notation.Access(b, i, j), notation.Access(c, j)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	bPath := buildPath(t, b, i, j)
	cPath := buildPath(t, c, j)

	g, err := Build(stmt, []*notation.TensorPath{bPath, cPath})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	order := g.Order()
	if len(order) != 2 || order[0] != i || order[1] != j {
		t.Fatalf("got order %v, want [i j]", order)
	}
	if !g.IsLastFreeVariable(i) {
		t.Errorf("i should be the last free variable: no free index is nested inside it")
	}
	if !g.IsReduction(j) {
		t.Errorf("j should be a reduction variable in a(i) = B(i,j)*c(j)")
	}
	if got := g.Roots(); len(got) != 1 || got[0] != i {
		t.Errorf("got roots %v, want [i]", got)
	}
	if got := g.Children(i); len(got) != 1 || got[0] != j {
		t.Errorf("got children of i: %v, want [j]", got)
	}
	if g.HasReductionVariableAncestor(j) {
		t.Errorf("j's only ancestor is i, which is free, not a reduction variable")
	}
}

func TestBuildConflictingOrder(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewFree("j")
	a := notation.NewTensorVar("a", notation.Float64, notation.Dense2D())
	b := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	// a(i,j) wants i outer, j inner; accessing B with (j,i) as if B's storage
	// visited j before i forces the opposite order - no valid single loop nest.
	stmt, err := notation.Assign(a, []*notation.IndexVariable{i, j}, notation.Access(b, i, j), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	conflicting, err := notation.BuildTensorPath(notation.NewTensorVar("B2", notation.Float64, notation.CSC()), []*notation.IndexVariable{i, j})
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	if _, err := Build(stmt, []*notation.TensorPath{conflicting}); err == nil {
		t.Errorf("expected a transposition-without-supporting-order error")
	}
}
