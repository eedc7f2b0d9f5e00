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

// Package graph implements the iteration graph the lowering engine recurses
// over: the partial order of index variables giving the loop-nesting order,
// built once per statement and treated as immutable during lowering.
package graph

import "github.com/gx-org/sparsetaco/notation"

// IterationGraph is the nesting order of index variables for one statement,
// plus the tensor paths that order was derived from. The query methods below
// (Roots, Children, Ancestors, Descendants) describe it as a general partial
// order; in practice a single assignment always lowers to one sequential
// loop nest, so Build always produces a single chain. Writing the accessors
// against the general contract means a future construction strategy that
// legitimately branches (independent free variables with no tensor path
// linking them) would not require any change to package lower.
type IterationGraph struct {
	order      []*notation.IndexVariable
	pos        map[*notation.IndexVariable]int
	paths      []*notation.TensorPath
	resultPath *notation.TensorPath
}

// Roots returns the index variables with no ancestor.
func (g *IterationGraph) Roots() []*notation.IndexVariable {
	if len(g.order) == 0 {
		return nil
	}
	return []*notation.IndexVariable{g.order[0]}
}

// Children returns the index variables immediately nested inside iv.
func (g *IterationGraph) Children(iv *notation.IndexVariable) []*notation.IndexVariable {
	i, ok := g.pos[iv]
	if !ok || i+1 >= len(g.order) {
		return nil
	}
	return []*notation.IndexVariable{g.order[i+1]}
}

// Ancestors returns the index variables that nest iv, outermost first.
func (g *IterationGraph) Ancestors(iv *notation.IndexVariable) []*notation.IndexVariable {
	i, ok := g.pos[iv]
	if !ok {
		return nil
	}
	return append([]*notation.IndexVariable{}, g.order[:i]...)
}

// Descendants returns the index variables nested inside iv, outermost
// first.
func (g *IterationGraph) Descendants(iv *notation.IndexVariable) []*notation.IndexVariable {
	i, ok := g.pos[iv]
	if !ok {
		return nil
	}
	return append([]*notation.IndexVariable{}, g.order[i+1:]...)
}

// IsReduction reports whether iv is a reduction variable.
func (g *IterationGraph) IsReduction(iv *notation.IndexVariable) bool {
	return iv.IsReduction()
}

// IsLastFreeVariable reports whether iv is free and no free variable is
// nested inside it - the boundary between the loop levels that still need to
// descend into further free variables and the level where results actually
// get stored.
func (g *IterationGraph) IsLastFreeVariable(iv *notation.IndexVariable) bool {
	if iv.IsReduction() {
		return false
	}
	for _, d := range g.Descendants(iv) {
		if d.IsFree() {
			return false
		}
	}
	return true
}

// HasFreeVariableDescendant reports whether some descendant of iv is free.
func (g *IterationGraph) HasFreeVariableDescendant(iv *notation.IndexVariable) bool {
	for _, d := range g.Descendants(iv) {
		if d.IsFree() {
			return true
		}
	}
	return false
}

// HasReductionVariableAncestor reports whether some ancestor of iv is a
// reduction variable - used to decide whether a store must accumulate (+=)
// rather than overwrite.
func (g *IterationGraph) HasReductionVariableAncestor(iv *notation.IndexVariable) bool {
	for _, a := range g.Ancestors(iv) {
		if a.IsReduction() {
			return true
		}
	}
	return false
}

// TensorPaths returns every tensor path (operands and result) the graph was
// built from.
func (g *IterationGraph) TensorPaths() []*notation.TensorPath {
	return g.paths
}

// ResultTensorPath returns the result tensor's path.
func (g *IterationGraph) ResultTensorPath() *notation.TensorPath {
	return g.resultPath
}

// Order returns the full loop-nesting order, outermost first. Package lower
// needs it for the top-level driver's "for each root indexVar, invoke
// lower" step - Roots() alone would force lower to rediscover the chain.
func (g *IterationGraph) Order() []*notation.IndexVariable {
	return append([]*notation.IndexVariable{}, g.order...)
}
