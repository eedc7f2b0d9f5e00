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

import "github.com/gx-org/sparsetaco/notation"

// ValKind is the static type of an IR variable: an integer (positions,
// indicator masks, sizes) or one of the tensor element kinds. Position
// variables are always integer; coordinate variables have the key type of
// the tensor.
type ValKind int

const (
	// IntKind is the type of pos/idx/iterator/capacity variables.
	IntKind ValKind = iota
	// BoolKind is the type of validity flags.
	BoolKind
	// ElemKind is a tensor's element type; see Var.Elem.
	ElemKind
	// ArrayKind is a flat pos/idx/values array.
	ArrayKind
)

// Var is a named IR variable: a loop counter, a position, a coordinate, a
// validity flag, a scalar temporary, or a pos/idx/values array. Iterator
// implementations (package iterator) hand out Vars for posVar, endVar,
// beginVar, iteratorVar, idxVar, derivedVar, validVar, segendVar; package
// lower mints Vars for scalar temporaries and loop counters via
// internal/freshname.
type Var struct {
	Name string
	Kind ValKind
	Elem notation.Kind
}

// NewVar returns a Var of the given kind.
func NewVar(name string, kind ValKind) *Var {
	return &Var{Name: name, Kind: kind}
}

// NewElemVar returns a Var holding a tensor element value.
func NewElemVar(name string, elem notation.Kind) *Var {
	return &Var{Name: name, Kind: ElemKind, Elem: elem}
}

func (v *Var) expr() {}

// String returns the variable's name.
func (v *Var) String() string {
	if v == nil {
		return "<nil>"
	}
	return v.Name
}
