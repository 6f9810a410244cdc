/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import "sort"

// Net is a named group of wires that are electrically identical. It stores
// wire IDs only; the Manager owns the wires and the net's lifetime.
//
// Membership changes do not verify the connectivity invariant. The Manager
// restores the invariant through its merge/split operations before a public
// operation returns.
type Net struct {
	name  string
	wires map[WireID]struct{}
}

// NewNet creates an empty, unnamed net.
func NewNet() *Net {
	return &Net{wires: make(map[WireID]struct{})}
}

// Name returns the user-visible net name, which may be empty.
func (n *Net) Name() string { return n.name }

// SetName assigns the user-visible net name.
func (n *Net) SetName(name string) { n.name = name }

// AddWire adds id to the net. Idempotent.
func (n *Net) AddWire(id WireID) {
	if id == 0 {
		return
	}
	n.wires[id] = struct{}{}
}

// RemoveWire removes id from the net, reporting whether it was present.
func (n *Net) RemoveWire(id WireID) bool {
	if _, ok := n.wires[id]; !ok {
		return false
	}
	delete(n.wires, id)
	return true
}

// Contains reports membership of id.
func (n *Net) Contains(id WireID) bool {
	_, ok := n.wires[id]
	return ok
}

// Count returns the number of member wires.
func (n *Net) Count() int { return len(n.wires) }

// Wires returns the member IDs in deterministic order.
func (n *Net) Wires() []WireID {
	out := make([]WireID, 0, len(n.wires))
	for id := range n.wires {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
