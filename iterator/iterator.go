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

// Package iterator implements the Iterator abstraction: a per-level runtime
// cursor, one per TensorPathStep, that names the IR expressions the
// lowering recursion binds coordinates and positions through. Level kinds
// are modeled as a closed set of variants behind one interface, not an
// inheritance hierarchy: each variant is its own type composing a shared
// base for the common IR variable bindings.
package iterator

import (
	"github.com/gx-org/sparsetaco/internal/compileerr"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

func notSupported(kind notation.LevelKind) error {
	return compileerr.NotSupported("level kind " + kind.String())
}

// Bindings is the map from index variable to its currently-bound merged
// coordinate expression, threaded through the dereference/locate calls'
// idxVars argument.
type Bindings map[*notation.IndexVariable]loopir.Expr

// Iterator is the per-step runtime cursor. It never owns storage; every
// method either returns an IR prologue plus bound IR expressions, or
// reports "no code required" via a nil Stmt/Expr.
type Iterator interface {
	// Step identifies the (tensor, level, indexVar) this iterator serves.
	Step() notation.TensorPathStep
	// Capabilities returns the level's capability set.
	Capabilities() notation.Capabilities

	PosVar() *loopir.Var
	EndVar() *loopir.Var
	BeginVar() *loopir.Var
	IteratorVar() *loopir.Var
	IdxVar() *loopir.Var
	DerivedVar() *loopir.Var
	ValidVar() *loopir.Var
	SegendVar() *loopir.Var

	// GetPosIter returns the prologue and [begin,end) position range for a
	// position-iterable level given its parent's position.
	GetPosIter(parentPos loopir.Expr) (prologue loopir.Stmt, begin, end loopir.Expr)
	// GetCoordIter returns the prologue and [begin,end) coordinate range
	// for a coordinate-iterable level.
	GetCoordIter(idx Bindings) (prologue loopir.Stmt, begin, end loopir.Expr)

	// GetPosAccess dereferences the level at pos, producing its
	// coordinate and a validity flag.
	GetPosAccess(pos loopir.Expr, idx Bindings) (prologue loopir.Stmt, derivedIdx loopir.Expr, valid loopir.Expr)
	// GetCoordAccess dereferences the level by coordinate given the
	// parent's position, producing the derived position and a validity
	// flag.
	GetCoordAccess(parentPos loopir.Expr, idx Bindings) (prologue loopir.Stmt, derivedPos loopir.Expr, valid loopir.Expr)
	// GetLocate performs a direct lookup for levels that support random
	// access.
	GetLocate(parentPos loopir.Expr, idx Bindings) (prologue loopir.Stmt, pos loopir.Expr, valid loopir.Expr)

	// Insert-assembly hooks (result levels with HasInsert).
	GetInsertInitLevel(szPrev, sz loopir.Expr) loopir.Stmt
	GetInsertInitCoords(pBegin, pEnd loopir.Expr) loopir.Stmt
	GetInsertCoord(pos loopir.Expr, idx Bindings) loopir.Stmt
	GetInsertFinalizeLevel(szPrev, sz loopir.Expr) loopir.Stmt

	// Append-assembly hooks (result levels with HasAppend).
	GetAppendInitLevel(szPrev, sz loopir.Expr) loopir.Stmt
	GetAppendInitEdges(pPrevBegin, pPrevEnd loopir.Expr) loopir.Stmt
	GetAppendCoord(pos loopir.Expr, idx loopir.Expr) loopir.Stmt
	GetAppendEdges(pPrevBegin, pPrevEnd loopir.Expr) loopir.Stmt
	GetAppendFinalizeLevel(szPrev, sz loopir.Expr) loopir.Stmt
}

// base holds the IR variable bindings shared by every level-kind variant.
// It implements none of the phase methods (the embedding variant overrides
// every one it needs; the rest fall back to zeroBase's "no code" stubs).
type base struct {
	step notation.TensorPathStep
	caps notation.Capabilities

	pos, end, begin, it, idx, derived, valid, segend *loopir.Var

	// dimSize is the runtime extent of this level's logical dimension
	// (for Dense) or its fixed fanout (for Fixed). posArray/idxArray are
	// the level's pos/idx storage arrays (unused, left nil, for levels
	// that don't have one - e.g. Dense has no idx array).
	dimSize            *loopir.Var
	posArray, idxArray *loopir.Var
}

func newBase(step notation.TensorPathStep, names func(prefix string) string) base {
	suffix := step.IndexVar.Name() + "_" + step.Tensor.Name
	b := base{
		step:    step,
		caps:    step.Level().Kind.Capabilities(),
		pos:     loopir.NewVar(names("p"+suffix), loopir.IntKind),
		end:     loopir.NewVar(names("pend"+suffix), loopir.IntKind),
		begin:   loopir.NewVar(names("pbegin"+suffix), loopir.IntKind),
		it:      loopir.NewVar(names("i"+suffix), loopir.IntKind),
		idx:     loopir.NewVar(names("idx"+suffix), loopir.ElemKind),
		derived: loopir.NewVar(names("dv"+suffix), loopir.ElemKind),
		valid:   loopir.NewVar(names("valid"+suffix), loopir.BoolKind),
		segend:  loopir.NewVar(names("segend"+suffix), loopir.IntKind),
		dimSize: loopir.NewVar(names("dim"+suffix), loopir.IntKind),
	}
	switch step.Level().Kind {
	case notation.Compressed:
		b.posArray = loopir.NewVar(names(step.Tensor.Name+"_pos"+suffix), loopir.ArrayKind)
		b.idxArray = loopir.NewVar(names(step.Tensor.Name+"_idx"+suffix), loopir.ArrayKind)
	case notation.Fixed:
		b.idxArray = loopir.NewVar(names(step.Tensor.Name+"_idx"+suffix), loopir.ArrayKind)
	}
	return b
}

func (b base) Step() notation.TensorPathStep        { return b.step }
func (b base) Capabilities() notation.Capabilities  { return b.caps }
func (b base) PosVar() *loopir.Var                  { return b.pos }
func (b base) EndVar() *loopir.Var                  { return b.end }
func (b base) BeginVar() *loopir.Var                { return b.begin }
func (b base) IteratorVar() *loopir.Var             { return b.it }
func (b base) IdxVar() *loopir.Var                  { return b.idx }
func (b base) DerivedVar() *loopir.Var              { return b.derived }
func (b base) ValidVar() *loopir.Var                { return b.valid }
func (b base) SegendVar() *loopir.Var               { return b.segend }

// zeroBase contributes "no code required" defaults for every phase method;
// a variant that does not support a capability simply doesn't override it.
type zeroBase struct{ base }

func (zeroBase) GetPosIter(loopir.Expr) (loopir.Stmt, loopir.Expr, loopir.Expr)   { return nil, nil, nil }
func (zeroBase) GetCoordIter(Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr)    { return nil, nil, nil }
func (zeroBase) GetPosAccess(loopir.Expr, Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, nil, nil
}
func (zeroBase) GetCoordAccess(loopir.Expr, Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, nil, nil
}
func (zeroBase) GetLocate(loopir.Expr, Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, nil, nil
}
func (zeroBase) GetInsertInitLevel(loopir.Expr, loopir.Expr) loopir.Stmt     { return nil }
func (zeroBase) GetInsertInitCoords(loopir.Expr, loopir.Expr) loopir.Stmt    { return nil }
func (zeroBase) GetInsertCoord(loopir.Expr, Bindings) loopir.Stmt            { return nil }
func (zeroBase) GetInsertFinalizeLevel(loopir.Expr, loopir.Expr) loopir.Stmt { return nil }
func (zeroBase) GetAppendInitLevel(loopir.Expr, loopir.Expr) loopir.Stmt     { return nil }
func (zeroBase) GetAppendInitEdges(loopir.Expr, loopir.Expr) loopir.Stmt     { return nil }
func (zeroBase) GetAppendCoord(loopir.Expr, loopir.Expr) loopir.Stmt         { return nil }
func (zeroBase) GetAppendEdges(loopir.Expr, loopir.Expr) loopir.Stmt         { return nil }
func (zeroBase) GetAppendFinalizeLevel(loopir.Expr, loopir.Expr) loopir.Stmt { return nil }

// New returns the Iterator variant for step's level kind, or an error for
// Offset/Replicated: treated as not yet implemented at the Iterator
// boundary, not as a user error.
func New(step notation.TensorPathStep, names func(prefix string) string) (Iterator, error) {
	b := newBase(step, names)
	switch step.Level().Kind {
	case notation.Dense:
		return &denseIterator{zeroBase{b}}, nil
	case notation.Compressed:
		return &compressedIterator{zeroBase{b}}, nil
	case notation.Fixed:
		return &fixedIterator{zeroBase{b}}, nil
	default:
		return nil, notSupported(step.Level().Kind)
	}
}
