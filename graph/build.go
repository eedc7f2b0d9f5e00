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

package graph

import (
	"github.com/pkg/errors"

	"github.com/gx-org/sparsetaco/notation"
)

// Build constructs the IterationGraph for stmt from its own result path and
// the operand paths supplied by the caller.
//
// Each tensor path imposes a precedence constraint: its steps must nest in
// the order given. Build merges every path's constraints via a topological
// sort, breaking ties by preferring free variables over reduction
// variables and otherwise preserving the order index variables were first
// seen across [result path, then operand paths in the order given]. A cycle
// in the constraints - two paths disagreeing about which of two index
// variables nests outside the other - means the statement has no valid
// single loop nest; that is a transposition without a supporting iteration
// order, reported as a programmer error rather than silently picking one
// path's order over another's.
func Build(stmt *notation.Assignment, operandPaths []*notation.TensorPath) (*IterationGraph, error) {
	result := stmt.Result()
	paths := append([]*notation.TensorPath{result}, operandPaths...)

	firstSeen := map[*notation.IndexVariable]int{}
	var all []*notation.IndexVariable
	seen := map[*notation.IndexVariable]bool{}
	succ := map[*notation.IndexVariable]map[*notation.IndexVariable]bool{}
	indeg := map[*notation.IndexVariable]int{}

	addNode := func(iv *notation.IndexVariable) {
		if seen[iv] {
			return
		}
		seen[iv] = true
		firstSeen[iv] = len(all)
		all = append(all, iv)
		succ[iv] = map[*notation.IndexVariable]bool{}
		indeg[iv] = 0
	}
	addEdge := func(a, b *notation.IndexVariable) {
		if a == b {
			return
		}
		if !succ[a][b] {
			succ[a][b] = true
			indeg[b]++
		}
	}

	for _, p := range paths {
		vars := p.IndexVars()
		for _, iv := range vars {
			addNode(iv)
		}
		for i := 0; i+1 < len(vars); i++ {
			addEdge(vars[i], vars[i+1])
		}
	}

	remaining := map[*notation.IndexVariable]bool{}
	for _, iv := range all {
		remaining[iv] = true
	}

	var order []*notation.IndexVariable
	for len(remaining) > 0 {
		var best *notation.IndexVariable
		for iv := range remaining {
			if indeg[iv] != 0 {
				continue
			}
			if best == nil || betterCandidate(iv, best, firstSeen) {
				best = iv
			}
		}
		if best == nil {
			return nil, errors.Errorf("cannot build an iteration graph: conflicting tensor path orderings (transposition without a supporting iteration order)")
		}
		order = append(order, best)
		delete(remaining, best)
		for succVar := range succ[best] {
			indeg[succVar]--
		}
	}

	pos := make(map[*notation.IndexVariable]int, len(order))
	for i, iv := range order {
		pos[iv] = i
	}
	return &IterationGraph{order: order, pos: pos, paths: paths, resultPath: result}, nil
}

// betterCandidate reports whether a should be picked ahead of b among
// currently-available (in-degree zero) index variables: free variables
// before reduction variables, then first-seen order.
func betterCandidate(a, b *notation.IndexVariable, firstSeen map[*notation.IndexVariable]int) bool {
	if a.IsFree() != b.IsFree() {
		return a.IsFree()
	}
	return firstSeen[a] < firstSeen[b]
}
