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

// fixedIterator is a fixed-fanout level: every parent has the same number
// of children (dimSize here holds the fanout), so its segment boundaries
// are a pure function of the parent's position - it is branchless, and its
// coordinate emission can be fused with an ancestor's.
type fixedIterator struct{ zeroBase }

func (f *fixedIterator) GetPosIter(parentPos loopir.Expr) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	begin := loopir.Bin("*", parentPos, f.dimSize)
	end := loopir.Bin("+", begin, f.dimSize)
	return nil, begin, end
}

func (f *fixedIterator) GetPosAccess(pos loopir.Expr, _ Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, loopir.Load(f.idxArray, pos), nil
}

func (f *fixedIterator) GetAppendInitLevel(_, sz loopir.Expr) loopir.Stmt {
	return &loopir.ExprStmt{X: loopir.Call("alloc_idx", f.idxArray, sz)}
}

func (f *fixedIterator) GetAppendCoord(pos, idx loopir.Expr) loopir.Stmt {
	return &loopir.Assign{Lhs: loopir.Load(f.idxArray, pos), Rhs: idx}
}
