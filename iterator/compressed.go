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

package iterator

import "github.com/gx-org/sparsetaco/loopir"

// compressedIterator is a pos/idx-array level (e.g. CSR's column level):
// not full, unique, position-range-iterable via a parent pointer, appends
// rather than inserts.
type compressedIterator struct{ zeroBase }

func (c *compressedIterator) GetPosIter(parentPos loopir.Expr) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	begin := loopir.Load(c.posArray, parentPos)
	end := loopir.Load(c.posArray, loopir.Bin("+", parentPos, loopir.Int(1)))
	return nil, begin, end
}

func (c *compressedIterator) GetPosAccess(pos loopir.Expr, _ Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, loopir.Load(c.idxArray, pos), nil
}

func (c *compressedIterator) GetAppendInitLevel(szPrev, _ loopir.Expr) loopir.Stmt {
	return loopir.NewBlock(
		&loopir.ExprStmt{X: loopir.Call("alloc_pos", c.posArray, loopir.Bin("+", szPrev, loopir.Int(1)))},
		&loopir.Assign{Lhs: loopir.Load(c.posArray, loopir.Int(0)), Rhs: loopir.Int(0)},
	)
}

func (c *compressedIterator) GetAppendCoord(pos, idx loopir.Expr) loopir.Stmt {
	return &loopir.Assign{Lhs: loopir.Load(c.idxArray, pos), Rhs: idx}
}

func (c *compressedIterator) GetAppendEdges(pPrevBegin, pPrevEnd loopir.Expr) loopir.Stmt {
	return &loopir.Assign{
		Lhs: loopir.Load(c.posArray, loopir.Bin("+", pPrevBegin, loopir.Int(1))),
		Rhs: pPrevEnd,
	}
}

func (c *compressedIterator) GetAppendFinalizeLevel(_, sz loopir.Expr) loopir.Stmt {
	return &loopir.ExprStmt{X: loopir.Call("trim_idx", c.idxArray, sz)}
}
