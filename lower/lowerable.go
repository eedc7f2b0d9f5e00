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
	"github.com/gx-org/sparsetaco/internal/compileerr"
	"github.com/gx-org/sparsetaco/notation"
)

// IsLowerable runs the programmer-error checks required before lowering
// starts: non-concrete notation (reduction nodes surviving to lowering),
// format-dimension mismatch, and duplicate assignment to the same result
// tensor path. It does not check for a valid iteration order; that is
// graph.Build's job, reported separately since it needs the constructed
// tensor paths.
func IsLowerable(stmt *notation.Assignment, operands []*notation.TensorVar) error {
	var errs compileerr.Errors

	if notation.ContainsReduction(stmt.Rhs) {
		errs.Appendf("assignment to %q contains a reduction node; reductions must be rewritten to explicit temporaries before lowering", stmt.ResultTensor.Name)
	}

	seen := map[*notation.TensorVar]bool{}
	checkFormat := func(t *notation.TensorVar) {
		if seen[t] {
			errs.Appendf("tensor %q is assigned to or read more than once in this statement", t.Name)
			return
		}
		seen[t] = true
		if err := t.Format.Validate(t.Order()); err != nil {
			errs.Appendf("tensor %q: %v", t.Name, err)
		}
	}
	checkFormat(stmt.ResultTensor)
	for _, t := range operands {
		checkFormat(t)
	}

	for _, iv := range stmt.ResultIdx {
		if iv.IsReduction() {
			errs.Appendf("index variable %q is used on the left-hand side of %q's assignment but is marked as a reduction variable", iv.Name(), stmt.ResultTensor.Name)
		}
	}

	return errs.Err()
}
