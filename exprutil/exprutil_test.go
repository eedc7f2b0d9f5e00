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
	"testing"

	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

func TestGetAvailableExpressions(t *testing.T) {
	i := notation.NewFree("i")
	j := notation.NewFree("j")
	b := notation.NewTensorVar("b", notation.Float64, notation.DenseVector())
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())
	// (b(i) * c(i)) + c(j): the left summand is available once i is visited;
	// the right summand needs j too.
	expr := notation.Add(notation.Mul(notation.Access(b, i), notation.Access(c, i)), notation.Access(c, j))

	avail := GetAvailableExpressions(expr, []*notation.IndexVariable{i})
	if len(avail) != 1 {
		t.Fatalf("got %d available expressions visiting only i, want 1", len(avail))
	}
	if avail[0].String() != "(b(i) * c(i))" {
		t.Errorf("got %q, want the product sub-expression", avail[0].String())
	}

	avail = GetAvailableExpressions(expr, []*notation.IndexVariable{i, j})
	if len(avail) != 1 || avail[0] != expr {
		t.Errorf("visiting both i and j should make the whole expression available")
	}
}

func TestGetSubExpr(t *testing.T) {
	i := notation.NewFree("i")
	j := notation.NewFree("j")
	B := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())
	expr := notation.Mul(notation.Access(B, i, j), notation.Access(c, j))

	sub, ok := GetSubExpr(expr, []*notation.IndexVariable{j})
	if !ok {
		t.Fatalf("GetSubExpr: expected a match for descendant {j}")
	}
	if sub.String() != "c(j)" {
		t.Errorf("got %q, want c(j)", sub.String())
	}

	if _, ok := GetSubExpr(expr, []*notation.IndexVariable{i}); ok {
		t.Errorf("expected no match for descendant {i} alone (B(i,j) still needs j)")
	}
}

func TestReplace(t *testing.T) {
	i := notation.NewFree("i")
	j := notation.NewFree("j")
	c := notation.NewTensorVar("c", notation.Float64, notation.DenseVector())
	t2 := notation.NewTensorVar("tj", notation.Float64, notation.NewFormat())
	cj := notation.Access(c, j)
	expr := notation.Add(notation.Access(c, i), cj)

	repl := Replace(expr, map[notation.IndexExpr]notation.IndexExpr{cj: notation.Access(t2)})
	got := repl.String()
	want := "(c(i) + tj())"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Replace must not mutate the original tree.
	if expr.String() != "(c(i) + c(j))" {
		t.Errorf("Replace mutated the input expression: %q", expr.String())
	}
}

func TestLowerToScalarExpressionConstantFold(t *testing.T) {
	expr := notation.Mul(notation.Lit(2), notation.Add(notation.Lit(3), notation.Lit(4)))
	ir, err := LowerToScalarExpression(expr, nil, nil, notation.Float64)
	if err != nil {
		t.Fatalf("LowerToScalarExpression: %v", err)
	}
	if ir.String() != "14" {
		t.Errorf("got %q, want the folded constant 14", ir.String())
	}
}

func TestLowerToScalarExpressionAccess(t *testing.T) {
	i := notation.NewFree("i")
	b := notation.NewTensorVar("b", notation.Float64, notation.SparseVector())
	path, err := notation.BuildTensorPath(b, []*notation.IndexVariable{i})
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	tab, err := iterator.Build([]*notation.TensorPath{path}, freshname.NewSource())
	if err != nil {
		t.Fatalf("iterator.Build: %v", err)
	}
	ir, err := LowerToScalarExpression(notation.Access(b, i), tab, nil, notation.Float64)
	if err != nil {
		t.Fatalf("LowerToScalarExpression: %v", err)
	}
	if ir.String() != "b_vals[pi_b]" {
		t.Errorf("got %q, want a load through the innermost iterator's pos var", ir.String())
	}
}

func TestLowerToScalarExpressionTemporary(t *testing.T) {
	tj := notation.NewTensorVar("tj", notation.Float64, notation.NewFormat())
	bound := loopir.NewElemVar("tj", notation.Float64)
	temps := Temporaries{tj: bound}
	ir, err := LowerToScalarExpression(notation.Access(tj), nil, temps, notation.Float64)
	if err != nil {
		t.Fatalf("LowerToScalarExpression: %v", err)
	}
	if ir.String() != "tj" {
		t.Errorf("got %q, want the temporary's bound variable returned verbatim", ir.String())
	}
}
