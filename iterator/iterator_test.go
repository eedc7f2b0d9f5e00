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

import (
	"testing"

	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/loopir"
	"github.com/gx-org/sparsetaco/notation"
)

func TestNewRejectsUnsupportedLevelKinds(t *testing.T) {
	i := notation.NewFree("i")
	tv := notation.NewTensorVar("t", notation.Float64, notation.NewFormat(notation.Level{Kind: notation.Offset, Dim: 0}))
	step := notation.TensorPathStep{Tensor: tv, LevelIdx: 0, IndexVar: i}
	if _, err := New(step, freshname.NewSource().Next); err == nil {
		t.Errorf("expected an error: Offset is not supported at the Iterator boundary")
	}
}

func TestDenseIteratorPosIterAndLocate(t *testing.T) {
	i := notation.NewFree("i")
	v := notation.NewTensorVar("v", notation.Float64, notation.DenseVector())
	step := notation.TensorPathStep{Tensor: v, LevelIdx: 0, IndexVar: i}
	it, err := New(step, freshname.NewSource().Next)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !it.Capabilities().IsFull || !it.Capabilities().HasLocate {
		t.Fatalf("dense level should be full and locate-capable")
	}
	_, begin, end := it.GetPosIter(loopir.Int(0))
	if begin == nil || end == nil {
		t.Errorf("dense GetPosIter should return a concrete [begin,end) range")
	}
}

func TestCompressedIteratorAppendLifecycle(t *testing.T) {
	i := notation.NewFree("i")
	sv := notation.NewTensorVar("s", notation.Float64, notation.SparseVector())
	step := notation.TensorPathStep{Tensor: sv, LevelIdx: 0, IndexVar: i}
	it, err := New(step, freshname.NewSource().Next)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	caps := it.Capabilities()
	if !caps.HasAppend || caps.HasInsert {
		t.Fatalf("compressed level should be append-only, not insert-capable")
	}
	prevSize := it.PosVar()
	if s := it.GetAppendInitLevel(prevSize, prevSize); s == nil {
		t.Errorf("compressed GetAppendInitLevel should allocate the pos array")
	}
	if s := it.GetAppendCoord(it.PosVar(), it.IdxVar()); s == nil {
		t.Errorf("compressed GetAppendCoord should store the coordinate")
	}
}

func TestTableBuildDedupesSharedSteps(t *testing.T) {
	i, j := notation.NewFree("i"), notation.NewFree("j")
	b := notation.NewTensorVar("B", notation.Float64, notation.CSR())
	pathA, err := notation.BuildTensorPath(b, []*notation.IndexVariable{i, j})
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	// The same tensor accessed again with the same indices yields identical
	// steps; Build must mint exactly one Iterator per distinct step.
	pathB, err := notation.BuildTensorPath(b, []*notation.IndexVariable{i, j})
	if err != nil {
		t.Fatalf("BuildTensorPath: %v", err)
	}
	tab, err := Build([]*notation.TensorPath{pathA, pathB}, freshname.NewSource())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tab.All()) != 2 {
		t.Errorf("got %d iterators, want 2 (one per distinct step, not one per path)", len(tab.All()))
	}
}
