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

package loopir

import (
	"strings"
	"testing"
)

func TestBinaryExprString(t *testing.T) {
	e := Bin("+", Int(1), Bin("*", Int(2), Int(3)))
	if got, want := e.String(), "(1 + (2 * 3))"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMinBuildsNestedTernary(t *testing.T) {
	e := Min(Int(3), Int(1), Int(2))
	want := "((2 < ((1 < 3) ? 1 : 3)) ? 2 : ((1 < 3) ? 1 : 3))"
	if got := e.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResizeDoubleBuildsCapacityCheck(t *testing.T) {
	arr := NewVar("vals", ArrayKind)
	capVar := NewVar("cap", IntKind)
	needed := Bin("+", NewVar("p", IntKind), Int(1))
	stmt := ResizeDouble(arr, capVar, needed)
	got := stmtString(stmt)
	if !strings.Contains(got, "if") || !strings.Contains(got, "resize") {
		t.Errorf("got %q, want an if guarding a resize call", got)
	}
}

func TestFuncStringRendersParamsAndBody(t *testing.T) {
	a := NewVar("a", ArrayKind)
	b := NewVar("b", ArrayKind)
	p := NewVar("p", IntKind)
	fn := &Func{
		Name:   "axpy",
		Params: []*Var{a, b},
		Results: []*Var{a},
		Body: NewBlock(
			&For{
				Var:   p,
				Begin: Int(0),
				End:   Int(10),
				Body:  NewBlock(Store(Load(a, p), Load(b, p), false)),
			},
		),
	}
	got := fn.String()
	for _, want := range []string{"func axpy(a, b) (a) {", "for p := 0; p < 10; p++ {", "a[p] = b[p]"} {
		if !strings.Contains(got, want) {
			t.Errorf("Func.String() = %q, want it to contain %q", got, want)
		}
	}
}

func TestSwitchStringRendersCasesAndDefault(t *testing.T) {
	tag := NewVar("kind", IntKind)
	sw := &Switch{
		Tag: tag,
		Cases: []SwitchCase{
			{Value: Int(0), Body: NewBlock(&ExprStmt{X: Call("noop")})},
			{Value: nil, Body: NewBlock(&ExprStmt{X: Call("panic_unreachable")})},
		},
	}
	got := stmtString(sw)
	if !strings.Contains(got, "case 0:") || !strings.Contains(got, "default:") {
		t.Errorf("got %q, want a case and a default arm", got)
	}
}
