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

// Package lower implements the central recursion: given an index
// statement, a per-operand Format, and a property set, it emits a loopir
// procedure that co-iterates operands through their Iterators,
// materializes partial reductions at the correct nesting level, and
// performs result assembly and computation in one pass.
package lower

import (
	"github.com/gx-org/sparsetaco/exprutil"
	"github.com/gx-org/sparsetaco/graph"
	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/iterator"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

// Properties is the recognized option set: Compute emits value code,
// Assemble emits index-structure code, Accumulate forces a compound store
// at the innermost level. Print is accepted but not read by the driver or
// the recursion; setting it does not change the emitted code or produce a
// trace.
type Properties struct {
	Compute    bool
	Assemble   bool
	Accumulate bool
	Print      bool
}

// Target is the current assignment destination passed down the recursion:
// (tensor, pos), where Pos is nil for a scalar target.
type Target struct {
	Tensor *notation.TensorVar
	Pos    loopir.Expr
}

// Ctx is the single lowering context shared by one top-level driver
// invocation: the property set, the iteration graph and iterator table it
// was built from, the temporaries map, and the fresh-name source. Ctx is
// owned by the driver and passed down the recursion as a structured
// borrow - the recursion is strictly sequential, so no synchronization is
// needed.
type Ctx struct {
	Props       Properties
	Graph       *graph.IterationGraph
	Iterators   *iterator.Table
	Names       *freshname.Source
	Temporaries exprutil.Temporaries

	// capacity tracks, per result tensor, the IR variable holding the
	// current allocated length of its values array.
	capacity map[*notation.TensorVar]*loopir.Var
	// elem is the result tensor's element kind, used to pick the literal
	// representation of constant-folded scalars.
	elem notation.Kind
}

// NewCtx builds a lowering context for one driver invocation, sharing names
// (the fresh-name source) with the iterator.Table that tab was built from -
// both must mint names out of the same counter so Iterator variable names
// and recursion-minted names never collide.
func NewCtx(props Properties, g *graph.IterationGraph, tab *iterator.Table, names *freshname.Source, elem notation.Kind) *Ctx {
	return &Ctx{
		Props:       props,
		Graph:       g,
		Iterators:   tab,
		Names:       names,
		Temporaries: exprutil.Temporaries{},
		capacity:    map[*notation.TensorVar]*loopir.Var{},
		elem:        elem,
	}
}

// ValsCapacity returns the IR variable tracking t's values-array capacity,
// minting one the first time it is requested.
func (c *Ctx) ValsCapacity(t *notation.TensorVar) *loopir.Var {
	if v, ok := c.capacity[t]; ok {
		return v
	}
	v := loopir.NewVar(c.Names.Next(t.Name+"_cap"), loopir.IntKind)
	c.capacity[t] = v
	return v
}
