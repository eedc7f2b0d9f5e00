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

// needsZero reports whether the dense output region at or below the
// current level must be pre-zeroed: true when the innermost free variable
// has a reduction ancestor, or when some output index variable's step is
// insertable but an input path reaching it is not full.
func needsZero(ctx *Ctx) bool {
	order := ctx.Graph.Order()
	if len(order) == 0 {
		return false
	}
	innermostFree := order[len(order)-1]
	for _, iv := range order {
		if iv.IsFree() {
			innermostFree = iv
		}
	}
	if ctx.Graph.HasReductionVariableAncestor(innermostFree) {
		return true
	}

	resultPath := ctx.Graph.ResultTensorPath()
	for _, step := range resultPath.Steps {
		if !step.IndexVar.IsFree() {
			continue
		}
		it, ok := ctx.Iterators.Lookup(step)
		if !ok || !it.Capabilities().HasInsert {
			continue
		}
		for _, path := range ctx.Graph.TensorPaths() {
			if path == resultPath {
				continue
			}
			inStep, ok := path.StepFor(step.IndexVar)
			if !ok {
				continue
			}
			inIt, ok := ctx.Iterators.Lookup(inStep)
			if !ok {
				continue
			}
			if !inIt.Capabilities().IsFull {
				return true
			}
		}
	}
	return false
}
