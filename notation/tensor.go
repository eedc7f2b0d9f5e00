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

import "github.com/pkg/errors"

// Kind is a tensor's element type. Kept deliberately small (the generic
// numeric kernel in exprutil constrains on dtype.AlgebraType directly); Kind
// only needs to round-trip through diagnostics and IR variable declarations.
type Kind int

const (
	Float32 Kind = iota
	Float64
	Int32
	Int64
)

func (k Kind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "invalid"
	}
}

// TensorVar is a named tensor operand or result. Its name, element type,
// order, and format are fixed for the duration of one lowering call.
type TensorVar struct {
	Name   string
	Elem   Kind
	Format *Format
}

// NewTensorVar returns a tensor operand with the given name, element type,
// and format. The order is implied by the format.
func NewTensorVar(name string, elem Kind, format *Format) *TensorVar {
	return &TensorVar{Name: name, Elem: elem, Format: format}
}

// Order returns the tensor's order (number of dimensions).
func (t *TensorVar) Order() int {
	return t.Format.Order()
}

// TensorPathStep is one step of a TensorPath: the level of t that indexVar
// controls.
type TensorPathStep struct {
	Tensor   *TensorVar
	LevelIdx int
	IndexVar *IndexVariable
}

// Level returns the format level this step corresponds to.
func (s TensorPathStep) Level() Level {
	return s.Tensor.Format.Levels[s.LevelIdx]
}

// TensorPath is the ordered sequence of index variables used to access one
// TensorVar, one step per storage level, outermost first.
type TensorPath struct {
	Tensor *TensorVar
	Steps  []TensorPathStep
}

// BuildTensorPath derives a TensorPath for an access of t at the given
// indices, where indices[d] is the index variable used at logical
// dimension d. Steps are emitted in storage order (the format's level
// order), each naming the index variable that controls that level.
func BuildTensorPath(t *TensorVar, indices []*IndexVariable) (*TensorPath, error) {
	if len(indices) != t.Order() {
		return nil, errors.Errorf("tensor %q has order %d but access supplies %d indices", t.Name, t.Order(), len(indices))
	}
	steps := make([]TensorPathStep, len(t.Format.Levels))
	for i, lvl := range t.Format.Levels {
		steps[i] = TensorPathStep{Tensor: t, LevelIdx: i, IndexVar: indices[lvl.Dim]}
	}
	return &TensorPath{Tensor: t, Steps: steps}, nil
}

// IndexVars returns the index variables along the path, in storage order.
func (p *TensorPath) IndexVars() []*IndexVariable {
	vars := make([]*IndexVariable, len(p.Steps))
	for i, s := range p.Steps {
		vars[i] = s.IndexVar
	}
	return vars
}

// StepFor returns the step of p that iv controls, if any.
func (p *TensorPath) StepFor(iv *IndexVariable) (TensorPathStep, bool) {
	for _, s := range p.Steps {
		if s.IndexVar == iv {
			return s, true
		}
	}
	return TensorPathStep{}, false
}
