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

// Package ordered provides an insertion-ordered map used by the iterator
// table so that entries keyed by TensorPathStep iterate in a stable order.
// This is what keeps fresh-name minting and emitted statement order
// deterministic across runs of the same input (see Table in package
// iterator).
package ordered

// Map is an insertion-ordered map. Iter and Keys walk the entries in the
// order they were first stored; a later Store of an existing key updates the
// value in place without moving it.
type Map[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

// NewMap returns a new, empty ordered map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Store a key,value pair.
func (m *Map[K, V]) Store(k K, v V) {
	if _, in := m.m[k]; !in {
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// Load returns the value associated with k, if any.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// GetOrInit returns the value stored at k, creating it with init and storing
// it first if absent.
func (m *Map[K, V]) GetOrInit(k K, init func() V) V {
	if v, ok := m.m[k]; ok {
		return v
	}
	v := init()
	m.Store(k, v)
	return v
}

// Iter ranges over the map in insertion order.
func (m *Map[K, V]) Iter() func(func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// Keys ranges over the keys in insertion order.
func (m *Map[K, V]) Keys() func(func(K) bool) {
	return func(yield func(K) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Values ranges over the values in insertion order.
func (m *Map[K, V]) Values() func(func(V) bool) {
	return func(yield func(V) bool) {
		for _, k := range m.keys {
			if !yield(m.m[k]) {
				return
			}
		}
	}
}

// Size returns the number of entries in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}
