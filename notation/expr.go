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

import "fmt"

// IndexExpr is a node of the index-expression tree: Access, Literal, Neg,
// Add, Sub, Mul, Div, Sqrt, Reduction. The node() method seals the
// interface to this package's node set, keeping the tree a closed
// algebraic data type.
type IndexExpr interface {
	// node prevents external packages from implementing IndexExpr.
	node()
	// Operands returns the direct sub-expressions, nil for leaves.
	Operands() []IndexExpr
	// String returns a debug rendering of the expression.
	String() string
}

type (
	// AccessExpr reads tensor at the given index variables, one per
	// logical dimension (in logical, not storage, order).
	AccessExpr struct {
		Tensor  *TensorVar
		Indices []*IndexVariable
	}

	// LitExpr is a constant scalar.
	LitExpr struct {
		Value float64
	}

	// NegExpr negates its operand.
	NegExpr struct{ X IndexExpr }

	// AddExpr is X + Y.
	AddExpr struct{ X, Y IndexExpr }

	// SubExpr is X - Y.
	SubExpr struct{ X, Y IndexExpr }

	// MulExpr is X * Y.
	MulExpr struct{ X, Y IndexExpr }

	// DivExpr is X / Y.
	DivExpr struct{ X, Y IndexExpr }

	// SqrtExpr is sqrt(X).
	SqrtExpr struct{ X IndexExpr }

	// ReductionExpr sums X over Var. It must never appear in the concrete
	// notation handed to the lowering engine; isLowerable rejects any
	// statement whose tree still contains one. It exists here only so
	// isLowerable has something concrete to check for.
	ReductionExpr struct {
		Var *IndexVariable
		X   IndexExpr
	}
)

func (*AccessExpr) node()    {}
func (*LitExpr) node()       {}
func (*NegExpr) node()       {}
func (*AddExpr) node()       {}
func (*SubExpr) node()       {}
func (*MulExpr) node()       {}
func (*DivExpr) node()       {}
func (*SqrtExpr) node()      {}
func (*ReductionExpr) node() {}

func (e *AccessExpr) Operands() []IndexExpr    { return nil }
func (e *LitExpr) Operands() []IndexExpr       { return nil }
func (e *NegExpr) Operands() []IndexExpr       { return []IndexExpr{e.X} }
func (e *AddExpr) Operands() []IndexExpr       { return []IndexExpr{e.X, e.Y} }
func (e *SubExpr) Operands() []IndexExpr       { return []IndexExpr{e.X, e.Y} }
func (e *MulExpr) Operands() []IndexExpr       { return []IndexExpr{e.X, e.Y} }
func (e *DivExpr) Operands() []IndexExpr       { return []IndexExpr{e.X, e.Y} }
func (e *SqrtExpr) Operands() []IndexExpr      { return []IndexExpr{e.X} }
func (e *ReductionExpr) Operands() []IndexExpr { return []IndexExpr{e.X} }

func (e *AccessExpr) String() string {
	s := e.Tensor.Name + "("
	for i, iv := range e.Indices {
		if i > 0 {
			s += ","
		}
		s += iv.Name()
	}
	return s + ")"
}
func (e *LitExpr) String() string { return fmt.Sprintf("%v", e.Value) }
func (e *NegExpr) String() string { return "-" + e.X.String() }
func (e *AddExpr) String() string { return "(" + e.X.String() + " + " + e.Y.String() + ")" }
func (e *SubExpr) String() string { return "(" + e.X.String() + " - " + e.Y.String() + ")" }
func (e *MulExpr) String() string { return "(" + e.X.String() + " * " + e.Y.String() + ")" }
func (e *DivExpr) String() string { return "(" + e.X.String() + " / " + e.Y.String() + ")" }
func (e *SqrtExpr) String() string { return "sqrt(" + e.X.String() + ")" }
func (e *ReductionExpr) String() string {
	return "reduce(" + e.Var.Name() + ", " + e.X.String() + ")"
}

// Access constructs an AccessExpr.
func Access(t *TensorVar, indices ...*IndexVariable) *AccessExpr {
	return &AccessExpr{Tensor: t, Indices: indices}
}

// Lit constructs a constant.
func Lit(v float64) *LitExpr { return &LitExpr{Value: v} }

// Neg constructs -x.
func Neg(x IndexExpr) *NegExpr { return &NegExpr{X: x} }

// Add constructs x + y.
func Add(x, y IndexExpr) *AddExpr { return &AddExpr{X: x, Y: y} }

// Sub constructs x - y.
func Sub(x, y IndexExpr) *SubExpr { return &SubExpr{X: x, Y: y} }

// Mul constructs x * y.
func Mul(x, y IndexExpr) *MulExpr { return &MulExpr{X: x, Y: y} }

// Div constructs x / y.
func Div(x, y IndexExpr) *DivExpr { return &DivExpr{X: x, Y: y} }

// Sqrt constructs sqrt(x).
func Sqrt(x IndexExpr) *SqrtExpr { return &SqrtExpr{X: x} }

// FreeVars returns the distinct index variables referenced by e, in
// first-encountered order, including the variable each ReductionExpr
// binds.
func FreeVars(e IndexExpr) []*IndexVariable {
	seen := map[*IndexVariable]bool{}
	var order []*IndexVariable
	var walk func(IndexExpr)
	walk = func(e IndexExpr) {
		if acc, ok := e.(*AccessExpr); ok {
			for _, iv := range acc.Indices {
				if !seen[iv] {
					seen[iv] = true
					order = append(order, iv)
				}
			}
			return
		}
		if red, ok := e.(*ReductionExpr); ok {
			if !seen[red.Var] {
				seen[red.Var] = true
				order = append(order, red.Var)
			}
		}
		for _, op := range e.Operands() {
			walk(op)
		}
	}
	walk(e)
	return order
}

// ContainsReduction reports whether e (or any sub-expression) is a
// ReductionExpr - a reduction node that was not rewritten away before
// lowering, which IsLowerable treats as an error.
func ContainsReduction(e IndexExpr) bool {
	if _, ok := e.(*ReductionExpr); ok {
		return true
	}
	for _, op := range e.Operands() {
		if ContainsReduction(op) {
			return true
		}
	}
	return false
}
