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

// Package notation is the index-notation tree the lowering engine consumes:
// index variables, tensor operands, storage formats, tensor paths, and the
// IndexExpr/IndexStmt algebraic data types.
package notation

// IndexVariable is a symbolic loop index such as i, j, or k. An IndexVariable
// is either free (appears on the assignment's left-hand side) or a reduction
// variable (summed over); this is fixed at construction and never changes.
type IndexVariable struct {
	name      string
	reduction bool
}

// NewFree returns a free index variable.
func NewFree(name string) *IndexVariable {
	return &IndexVariable{name: name}
}

// NewReduction returns a reduction index variable.
func NewReduction(name string) *IndexVariable {
	return &IndexVariable{name: name, reduction: true}
}

// Name returns the index variable's source-level name.
func (v *IndexVariable) Name() string {
	return v.name
}

// IsReduction reports whether v is summed over rather than appearing on the
// left-hand side.
func (v *IndexVariable) IsReduction() bool {
	return v.reduction
}

// IsFree reports whether v appears on the assignment's left-hand side.
func (v *IndexVariable) IsFree() bool {
	return !v.reduction
}

// String returns the index variable's name.
func (v *IndexVariable) String() string {
	return v.name
}
