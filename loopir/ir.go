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

// Package loopir is the lowering engine's output IR: the statement/
// expression tree the recursion in package lower builds, and the single
// Func it is wrapped up into. Modeled as a closed algebraic data type
// sealed by a private marker method, walked by type switch rather than
// virtual dispatch.
package loopir

// Stmt is a node of the emitted statement tree.
type Stmt interface {
	stmt()
}

// Expr is a node of the emitted expression tree.
type Expr interface {
	expr()
	String() string
}

// Parallelism tags a For loop with the scheduling decision the driver made
// for it.
type Parallelism int

const (
	// Serial is the default: no parallel annotation.
	Serial Parallelism = iota
	// Static partitions the iteration space evenly ahead of time.
	Static
	// Dynamic partitions the iteration space at runtime (work-stealing).
	Dynamic
)

func (p Parallelism) String() string {
	switch p {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "serial"
	}
}

// Func is the lowering engine's output: one procedure with parameters
// (input tensor IR variables), results (result tensor IR variables), and a
// body built by the driver.
type Func struct {
	Name    string
	Params  []*Var
	Results []*Var
	Body    *Block
}
