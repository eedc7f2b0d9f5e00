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
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

// doParallelize decides the scheduling tag for the loop emitted at iv. Lower
// consults it for every for-loop it emits; only the outermost loop of a
// lowered statement may be tagged, which this function enforces by
// returning Serial for any indexVar that is not a root.
func doParallelize(ctx *Ctx, iv *notation.IndexVariable) loopir.Parallelism {
	if ctx.Props.Assemble || iv.IsReduction() {
		return loopir.Serial
	}
	isRoot := false
	for _, r := range ctx.Graph.Roots() {
		if r == iv {
			isRoot = true
			break
		}
	}
	if !isRoot {
		return loopir.Serial
	}

	resultPath := ctx.Graph.ResultTensorPath()
	resultStep, ok := resultPath.StepFor(iv)
	if !ok {
		return loopir.Serial
	}

	_ = resultStep
	path := resultPath
	for _, p := range ctx.Graph.TensorPaths() {
		if p == resultPath {
			continue
		}
		if _, ok := p.StepFor(iv); ok {
			path = p
			break
		}
	}

	if len(path.Steps) <= 2 {
		return loopir.Static
	}
	for i, s := range path.Steps {
		if i == 0 {
			continue
		}
		it, ok := ctx.Iterators.Lookup(s)
		if !ok || !it.Capabilities().IsFull {
			return loopir.Dynamic
		}
	}
	return loopir.Static
}
