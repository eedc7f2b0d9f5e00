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

package notation

import "testing"

func TestFreeVars(t *testing.T) {
	i, j := NewFree("i"), NewFree("j")
	b := NewTensorVar("b", Float64, CSR())
	c := NewTensorVar("c", Float64, DenseVector())
	expr := Mul(Access(b, i, j), Access(c, j))

	vars := FreeVars(expr)
	if len(vars) != 2 || vars[0] != i || vars[1] != j {
		t.Errorf("got %v, want [i j] in first-seen order", vars)
	}
}

func TestContainsReduction(t *testing.T) {
	i := NewFree("i")
	k := NewReduction("k")
	b := NewTensorVar("b", Float64, CSR())
	c := NewTensorVar("c", Float64, DenseVector())

	plain := Mul(Access(b, i, k), Access(c, k))
	if ContainsReduction(plain) {
		t.Errorf("plain access tree should not report a reduction node")
	}
	reduced := &ReductionExpr{Var: k, X: plain}
	if !ContainsReduction(reduced) {
		t.Errorf("expected ContainsReduction to find the wrapping ReductionExpr")
	}
}

func TestBuildTensorPathOrdersByStorage(t *testing.T) {
	i, j := NewFree("i"), NewFree("j")
	csc := NewTensorVar("B", Float64, CSC())
	path, err := BuildTensorPath(csc, []*IndexVariable{i, j})
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	if len(path.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(path.Steps))
	}
	// CSC stores the column (dim 1, j) before the row (dim 0, i).
	if path.Steps[0].IndexVar != j || path.Steps[1].IndexVar != i {
		t.Errorf("got storage order [%v %v], want [j i]", path.Steps[0].IndexVar, path.Steps[1].IndexVar)
	}
}

func TestBuildTensorPathOrderMismatch(t *testing.T) {
	i := NewFree("i")
	mat := NewTensorVar("B", Float64, CSR())
	if _, err := BuildTensorPath(mat, []*IndexVariable{i}); err == nil {
		t.Errorf("expected an error: CSR needs 2 indices, got 1")
	}
}

func TestAssignOrderMismatch(t *testing.T) {
	i := NewFree("i")
	a := NewTensorVar("a", Float64, DenseVector())
	b := NewTensorVar("b", Float64, DenseVector())
	if _, err := Assign(a, []*IndexVariable{i, i}, Access(b, i), false); err == nil {
		t.Errorf("expected an error: a vector result cannot take two indices")
	}
}

func TestFormatValidate(t *testing.T) {
	if err := CSR().Validate(2); err != nil {
		t.Errorf("CSR().Validate(2): %v", err)
	}
	if err := CSR().Validate(3); err == nil {
		t.Errorf("expected a level-count mismatch error")
	}
	bad := NewFormat(Level{Kind: Dense, Dim: 0}, Level{Kind: Compressed, Dim: 0})
	if err := bad.Validate(2); err == nil {
		t.Errorf("expected a duplicate-dimension error")
	}
}
