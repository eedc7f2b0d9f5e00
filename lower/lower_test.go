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
	"regexp"
	"strings"
	"testing"

	"github.com/gx-org/sparsetaco/notation"
)

// TestDriveScalarDotProduct exercises the scalar-result scenario:
// alpha = b(i)*c(i), both sparse, i summed out entirely. The result has
// order 0 but the iteration graph is non-empty, which is exactly the case
// initAssembly/finalizeAssembly guard explicitly for.
func TestDriveScalarDotProduct(t *testing.T) {
	i := notation.NewReduction("i")
	alpha := notation.NewTensorVar("alpha", notation.Float64, notation.NewFormat())
	b := notation.NewTensorVar("b", notation.Float64, notation.SparseVector())
	c := notation.NewTensorVar("c", notation.Float64, notation.SparseVector())

	stmt, err := notation.Assign(alpha, nil, notation.Mul(notation.Access(b, i), notation.Access(c, i)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	fn, err := Drive("dot", stmt, []*notation.TensorVar{b, c}, Properties{Compute: true, Assemble: true})
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	got := fn.String()
	if !strings.Contains(got, "alloc_vals") {
		t.Errorf("expected the scalar result's single value slot to be allocated, got:\n%s", got)
	}
	if !strings.Contains(got, "alpha_vals[0]") {
		t.Errorf("expected a store through alpha's vals[0], got:\n%s", got)
	}
}

// TestDriveSpMV exercises a(i) = B(i,j)*c(j): i free and dense, j a
// reduction summed against a dense c - a single-range-iterator for-loop
// at both levels, no merge.
func TestDriveSpMV(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewReduction("j")
	a := notation.NewTensorVar("a", notation.Float64, notation.DenseVector())
	bMat := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())

	stmt, err := notation.Assign(a, []*notation.IndexVariable{i}, notation.Mul(notation.Access(bMat, i, j), notation.Access(c, j)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	fn, err := Drive("spmv", stmt, []*notation.TensorVar{bMat, c}, Properties{Compute: true, Assemble: true})
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	got := fn.String()
	if !strings.Contains(got, "for ") {
		t.Errorf("expected at least one for-loop in the output, got:\n%s", got)
	}
	if strings.Contains(got, "while ") {
		t.Errorf("SpMV over a CSR row has a unique range iterator at every level; no merge loop is expected, got:\n%s", got)
	}
	// The reduction must accumulate the full product B(i,j)*c(j) into a
	// scalar temporary on every step of j's loop, not strand B(i,j) to be
	// read once after the loop against a stale position.
	product := regexp.MustCompile(`t\w+ \+= \(B_vals\[\w+\] \* c_vals\[\w+\]\)`)
	if !product.MatchString(got) {
		t.Errorf("expected the reduction body to accumulate B(i,j)*c(j) into a temporary, got:\n%s", got)
	}
	store := regexp.MustCompile(`a_vals\[\w+\] = t\w+`)
	if !store.MatchString(got) {
		t.Errorf("expected the last-free level to store the finished temporary into a, got:\n%s", got)
	}
	// The product must not be recomputed after j's loop against a stale
	// position: there should be exactly one occurrence of the product.
	if n := len(product.FindAllString(got, -1)); n != 1 {
		t.Errorf("expected the product to be computed exactly once (inside the reduction loop), found %d occurrences in:\n%s", n, got)
	}
}

// TestDriveSparseAddEmitsMerge exercises a(i) = b(i) + c(i) with both
// operands sparse and disjoint supports possible: Add is disjunctive, so
// the lattice has more than one point and the recursion must emit a merge
// while-loop, not a single for-loop.
func TestDriveSparseAddEmitsMerge(t *testing.T) {
	i := notation.NewFree("i")
	a := notation.NewTensorVar("a", notation.Float64, notation.SparseVector())
	b := notation.NewTensorVar("b", notation.Float64, notation.SparseVector())
	c := notation.NewTensorVar("c", notation.Float64, notation.SparseVector())

	stmt, err := notation.Assign(a, []*notation.IndexVariable{i}, notation.Add(notation.Access(b, i), notation.Access(c, i)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	fn, err := Drive("spadd", stmt, []*notation.TensorVar{b, c}, Properties{Compute: true, Assemble: true})
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	got := fn.String()
	if !strings.Contains(got, "while ") {
		t.Errorf("expected a merge while-loop co-iterating b and c, got:\n%s", got)
	}
	sum := regexp.MustCompile(`a_vals\[\w+\] = \(b_vals\[\w+\] \+ c_vals\[\w+\]\)`)
	if !sum.MatchString(got) {
		t.Errorf("expected a's store to add b's and c's own values, got:\n%s", got)
	}
}

// TestDriveRowSumAccumulate exercises Accumulate: a(i) += B(i,j) with j
// a reduction, producing a compound store at the innermost level.
func TestDriveRowSumAccumulate(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewReduction("j")
	a := notation.NewTensorVar("a", notation.Float64, notation.DenseVector())
	bMat := notation.NewTensorVar("B", notation.Float64, notation.CSR())

	stmt, err := notation.Assign(a, []*notation.IndexVariable{i}, notation.Access(bMat, i, j), true)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	fn, err := Drive("rowsum", stmt, []*notation.TensorVar{bMat}, Properties{Compute: true, Assemble: true, Accumulate: true})
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	got := fn.String()
	if !strings.Contains(got, "+=") {
		t.Errorf("expected at least one compound += store, got:\n%s", got)
	}
	// j is a reduction with no free variable below it, so it collapses into
	// a scalar temporary that accumulates B's own values, and a's own
	// compound store (forced by Accumulate) adds the finished temporary.
	temp := regexp.MustCompile(`t\w+ \+= B_vals\[\w+\]`)
	if !temp.MatchString(got) {
		t.Errorf("expected the reduction temporary to accumulate B's values, got:\n%s", got)
	}
	accum := regexp.MustCompile(`a_vals\[\w+\] \+= t\w+`)
	if !accum.MatchString(got) {
		t.Errorf("expected a's accumulate store to add the finished reduction temporary, got:\n%s", got)
	}
}

// TestDriveRejectsReductionOnLHS exercises IsLowerable's programmer-error
// check: a reduction variable cannot appear in the result's index list.
func TestDriveRejectsReductionOnLHS(t *testing.T) {
	k := notation.NewReduction("k")
	a := notation.NewTensorVar("a", notation.Float64, notation.DenseVector())
	b := notation.NewTensorVar("b", notation.Float64, notation.DenseVector())

	stmt, err := notation.Assign(a, []*notation.IndexVariable{k}, notation.Access(b, k), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := Drive("bad", stmt, []*notation.TensorVar{b}, Properties{Compute: true, Assemble: true}); err == nil {
		t.Errorf("expected Drive to reject a reduction variable on the result's left-hand side")
	}
}

// TestDriveSpGEMM exercises sparse matrix-matrix multiply:
// A(i,j) = B(i,k)*C(k,j) with both operands CSR. The result must assemble
// its own pos/idx arrays (k is a reduction summed between two sparse
// operands, so the i/j loop nest cannot reuse either operand's structure
// directly) and then fill values in a separate compute pass.
func TestDriveSpGEMM(t *testing.T) {
	i, j, k := notation.NewFree("i"), notation.NewFree("j"), notation.NewReduction("k")
	bMat := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	cMat := notation.NewTensorVar("C", notation.Float64, notation.CSR())
	aMat := notation.NewTensorVar("A", notation.Float64, notation.CSR())

	stmt, err := notation.Assign(aMat, []*notation.IndexVariable{i, j},
		notation.Mul(notation.Access(bMat, i, k), notation.Access(cMat, k, j)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	assembleFn, err := Drive("spgemm_assemble", stmt, []*notation.TensorVar{bMat, cMat}, Properties{Assemble: true})
	if err != nil {
		t.Fatalf("Drive (assemble): %v", err)
	}
	if got := assembleFn.String(); !strings.Contains(got, "A_idx") {
		t.Errorf("expected an assembly store into A's idx array, got:\n%s", got)
	}

	computeFn, err := Drive("spgemm_compute", stmt, []*notation.TensorVar{bMat, cMat}, Properties{Compute: true})
	if err != nil {
		t.Fatalf("Drive (compute): %v", err)
	}
	got := computeFn.String()
	if !strings.Contains(got, "*") {
		t.Errorf("expected a multiplication in the compute-only pass, got:\n%s", got)
	}
	// j (free) is nested under k (reduction) in Gustavson's ikj order, so the
	// same A(i,j) position is visited once per nonzero B(i,k): the store
	// must accumulate (+=), not overwrite, or only the last k's contribution
	// would survive.
	accum := regexp.MustCompile(`A_vals\[\w+\] \+= \(B_vals\[\w+\] \* C_vals\[\w+\]\)`)
	if !accum.MatchString(got) {
		t.Errorf("expected A's compute store to accumulate B(i,k)*C(k,j) across k, got:\n%s", got)
	}
}

// TestDriveScaleByScalarCopiesStructure exercises scaling by a scalar
// literal: A(i,j) = alpha*B(i,j). Assembly must copy B's structure into A
// unchanged; compute scales every value.
func TestDriveScaleByScalarCopiesStructure(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewFree("j")
	bMat := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	aMat := notation.NewTensorVar("A", notation.Float64, notation.CSR())

	stmt, err := notation.Assign(aMat, []*notation.IndexVariable{i, j},
		notation.Mul(notation.Lit(2), notation.Access(bMat, i, j)), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	fn, err := Drive("scale", stmt, []*notation.TensorVar{bMat}, Properties{Compute: true, Assemble: true})
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	got := fn.String()
	if strings.Contains(got, "while ") {
		t.Errorf("scaling by a scalar literal ranges over B's own unique iterators only; no merge expected, got:\n%s", got)
	}
	if !strings.Contains(got, "2") {
		t.Errorf("expected the scalar literal 2 to appear in the compute expression, got:\n%s", got)
	}
	scale := regexp.MustCompile(`A_vals\[\w+\] = \(2 \* B_vals\[\w+\]\)`)
	if !scale.MatchString(got) {
		t.Errorf("expected A's store to scale B's own value directly by the literal, got:\n%s", got)
	}
}
