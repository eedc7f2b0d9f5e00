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

// IndexStmt is a top-level index notation statement. Assignment is
// currently the only kind the lowering engine accepts.
type IndexStmt interface {
	node()
	Result() *TensorPath
}

// Assignment assigns Rhs to Result, optionally accumulating (+=) rather
// than overwriting.
type Assignment struct {
	ResultTensor *TensorVar
	ResultIdx    []*IndexVariable
	result       *TensorPath
	Rhs          IndexExpr
	Accumulate   bool
}

func (*Assignment) node() {}

// Assign builds an assignment of rhs to result(indices...). accumulate
// selects += over = at the innermost store.
func Assign(result *TensorVar, indices []*IndexVariable, rhs IndexExpr, accumulate bool) (*Assignment, error) {
	path, err := BuildTensorPath(result, indices)
	if err != nil {
		return nil, err
	}
	return &Assignment{
		ResultTensor: result,
		ResultIdx:    indices,
		result:       path,
		Rhs:          rhs,
		Accumulate:   accumulate,
	}, nil
}

// Result returns the assignment's single output tensor path.
func (a *Assignment) Result() *TensorPath {
	return a.result
}
