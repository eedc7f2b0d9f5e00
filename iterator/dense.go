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

// denseIterator is a fully populated, directly addressable level: full,
// unique, supports locate and insert, has no idx array (the coordinate is
// derived arithmetically from the position).
type denseIterator struct{ zeroBase }

func (d *denseIterator) GetPosIter(parentPos loopir.Expr) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	begin := loopir.Bin("*", parentPos, d.dimSize)
	end := loopir.Bin("+", begin, d.dimSize)
	return nil, begin, end
}

func (d *denseIterator) GetPosAccess(pos loopir.Expr, _ Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	return nil, loopir.Bin("%", pos, d.dimSize), nil
}

func (d *denseIterator) GetLocate(parentPos loopir.Expr, idx Bindings) (loopir.Stmt, loopir.Expr, loopir.Expr) {
	coord, ok := idx[d.step.IndexVar]
	if !ok {
		coord = d.idx
	}
	pos := loopir.Bin("+", loopir.Bin("*", parentPos, d.dimSize), coord)
	return nil, pos, nil
}

func (d *denseIterator) GetInsertInitLevel(szPrev, _ loopir.Expr) loopir.Stmt {
	return nil
}

func (d *denseIterator) GetInsertCoord(_ loopir.Expr, _ Bindings) loopir.Stmt {
	return nil
}
