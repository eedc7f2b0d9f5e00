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

package notation

import "github.com/pkg/errors"

// LevelKind tags the storage scheme of one level of a Format.
type LevelKind int

const (
	// Dense is a fully populated, directly addressable level.
	Dense LevelKind = iota
	// Compressed is a pos/idx-array level (e.g. CSR's column level).
	Compressed
	// Fixed is a fixed-fanout level: every parent has the same number of
	// children, addressable without a pointer array.
	Fixed
	// Offset is not supported yet.
	Offset
	// Replicated is not supported yet.
	Replicated
)

// String names a level kind.
func (k LevelKind) String() string {
	switch k {
	case Dense:
		return "dense"
	case Compressed:
		return "compressed"
	case Fixed:
		return "fixed"
	case Offset:
		return "offset"
	case Replicated:
		return "replicated"
	default:
		return "unknown"
	}
}

// Capabilities is the capability set a Level exposes to the Iterator
// abstraction: whether it supports a coordinate/position range iterator,
// a direct coordinate-value iterator, random-access locate, append-style
// or insert-style writes, whether its coordinates are unique, whether it
// is fully populated, and whether it can be walked without branching.
type Capabilities struct {
	HasCoordPosIter bool
	HasCoordValIter bool
	HasLocate       bool
	HasAppend       bool
	HasInsert       bool
	IsUnique        bool
	IsFull          bool
	IsBranchless    bool
}

// Capabilities returns the default capability set for a level kind. Offset
// and Replicated return the zero value; callers must reject them via
// compileerr.NotSupported before relying on any of it.
func (k LevelKind) Capabilities() Capabilities {
	switch k {
	case Dense:
		return Capabilities{
			HasCoordPosIter: true,
			HasLocate:       true,
			HasInsert:       true,
			IsUnique:        true,
			IsFull:          true,
		}
	case Compressed:
		return Capabilities{
			HasCoordPosIter: true,
			HasAppend:       true,
			IsUnique:        true,
		}
	case Fixed:
		return Capabilities{
			HasCoordPosIter: true,
			HasAppend:       true,
			IsUnique:        true,
			IsBranchless:    true,
		}
	default:
		return Capabilities{}
	}
}

// Level is one storage level of a Format: a kind tagged onto one logical
// tensor dimension.
type Level struct {
	Kind LevelKind
	// Dim is the logical dimension this storage level corresponds to (the
	// format's storage-order-to-logical-dimension permutation is the
	// sequence of Dim values across Format.Levels).
	Dim int
}

// Format is a tensor's per-dimension storage scheme: an ordered list of
// Levels, outermost first, each mapped to a logical dimension.
type Format struct {
	Levels []Level
}

// NewFormat builds a Format from (kind, logicalDim) pairs, outermost level
// first.
func NewFormat(levels ...Level) *Format {
	return &Format{Levels: levels}
}

// Dense2D returns a two-level all-dense format (dimension 0, then 1), the
// identity permutation.
func Dense2D() *Format {
	return NewFormat(Level{Kind: Dense, Dim: 0}, Level{Kind: Dense, Dim: 1})
}

// CSR returns the standard compressed-sparse-row format: a dense row level
// followed by a compressed column level.
func CSR() *Format {
	return NewFormat(Level{Kind: Dense, Dim: 0}, Level{Kind: Compressed, Dim: 1})
}

// CSC returns compressed-sparse-column: storage order visits the column
// dimension first.
func CSC() *Format {
	return NewFormat(Level{Kind: Dense, Dim: 1}, Level{Kind: Compressed, Dim: 0})
}

// SparseVector returns a 1-D compressed format.
func SparseVector() *Format {
	return NewFormat(Level{Kind: Compressed, Dim: 0})
}

// DenseVector returns a 1-D dense format.
func DenseVector() *Format {
	return NewFormat(Level{Kind: Dense, Dim: 0})
}

// Order returns the tensor order (number of dimensions) this format
// describes.
func (f *Format) Order() int {
	return len(f.Levels)
}

// Validate checks that f has exactly order levels and that its
// storage-to-logical dimension mapping is a bijection onto [0, order) - a
// format-dimension mismatch is a programmer error, reported here rather
// than discovered later as a panic or silently wrong lowering.
func (f *Format) Validate(order int) error {
	if len(f.Levels) != order {
		return errors.Errorf("format has %d levels but tensor has order %d", len(f.Levels), order)
	}
	seen := make([]bool, order)
	for _, lvl := range f.Levels {
		if lvl.Dim < 0 || lvl.Dim >= order {
			return errors.Errorf("format level refers to dimension %d out of range [0,%d)", lvl.Dim, order)
		}
		if seen[lvl.Dim] {
			return errors.Errorf("format dimension %d is mapped to by more than one level", lvl.Dim)
		}
		seen[lvl.Dim] = true
	}
	return nil
}
