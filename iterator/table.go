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
	"github.com/gx-org/sparsetaco/internal/freshname"
	"github.com/gx-org/sparsetaco/internal/ordered"
	"github.com/gx-org/sparsetaco/notation"
)

// Table is the Iterator table: exactly one Iterator per TensorPathStep
// across the whole statement. Ctx (package lower) exclusively owns a
// Table; everything else borrows entries by step lookup rather than
// holding its own reference, so an Iterator's "parent iterator" link is
// always a step lookup into the same Table rather than an owning pointer.
type Table struct {
	entries *ordered.Map[notation.TensorPathStep, Iterator]
}

// Build creates one Iterator per step of every path, in path-then-step
// order, using names to mint each Iterator's IR variable names.
func Build(paths []*notation.TensorPath, names *freshname.Source) (*Table, error) {
	t := &Table{entries: ordered.NewMap[notation.TensorPathStep, Iterator]()}
	for _, p := range paths {
		for _, step := range p.Steps {
			if _, ok := t.entries.Load(step); ok {
				continue
			}
			it, err := New(step, names.Next)
			if err != nil {
				return nil, err
			}
			t.entries.Store(step, it)
		}
	}
	return t, nil
}

// Lookup returns the Iterator for step.
func (t *Table) Lookup(step notation.TensorPathStep) (Iterator, bool) {
	return t.entries.Load(step)
}

// ForPath returns the iterators for every step of p, in path order.
func (t *Table) ForPath(p *notation.TensorPath) []Iterator {
	its := make([]Iterator, len(p.Steps))
	for i, step := range p.Steps {
		its[i], _ = t.entries.Load(step)
	}
	return its
}

// All returns every iterator in the table, in construction order.
func (t *Table) All() []Iterator {
	var all []Iterator
	for it := range t.entries.Values() {
		all = append(all, it)
	}
	return all
}
