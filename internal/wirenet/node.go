/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import "goschematic/internal/geometry"

// Node is a schematic component that owns a fixed set of connectors.
// The engine never creates or destroys connectors; it only binds and
// unbinds them to wire points as geometry changes.
type Node struct {
	id         string
	pos        geometry.Point
	size       geometry.Point // width/height, used by consumers for rendering
	connectors []*Connector
}

// NewNode creates a node at pos with the given stable identifier.
func NewNode(id string, pos geometry.Point) *Node {
	return &Node{id: id, pos: pos}
}

// ID returns the node's stable identifier.
func (n *Node) ID() string { return n.id }

// Pos returns the node origin in scene coordinates.
func (n *Node) Pos() geometry.Point { return n.pos }

// Size returns the node's width/height pair.
func (n *Node) Size() geometry.Point { return n.size }

// SetSize sets the node's width/height pair.
func (n *Node) SetSize(s geometry.Point) { n.size = s }

// AddConnector creates a connector at offset relative to the node origin.
func (n *Node) AddConnector(name string, offset geometry.Point) *Connector {
	c := &Connector{node: n, name: name, offset: offset, index: -1}
	n.connectors = append(n.connectors, c)
	return c
}

// Connectors returns the node's connectors.
func (n *Node) Connectors() []*Connector { return n.connectors }

// moveBy translates the node rigidly; the connectors follow through their
// offsets. Wire-point propagation is the Manager's job.
func (n *Node) moveBy(delta geometry.Point) { n.pos = n.pos.Add(delta) }

// Connector is an attachment point owned by a node. It can be bound to at
// most one wire point at a time, identified by (WireID, point index).
type Connector struct {
	node   *Node
	name   string
	offset geometry.Point
	wire   WireID
	index  int
}

// Node returns the owning node.
func (c *Connector) Node() *Node { return c.node }

// Name returns the connector's pin name.
func (c *Connector) Name() string { return c.name }

// Pos returns the connector's scene position.
func (c *Connector) Pos() geometry.Point { return c.node.pos.Add(c.offset) }

// AttachWire binds the connector to point index of w. The binding is
// rejected (no-op) if index is outside the wire's current point range.
func (c *Connector) AttachWire(w *Wire, index int) {
	if w == nil {
		return
	}
	if index < 0 || index >= w.PointCount() {
		return
	}
	c.wire = w.ID()
	c.index = index
}

// DetachWire clears the binding.
func (c *Connector) DetachWire() {
	c.wire = 0
	c.index = -1
}

// Attached reports whether the connector is bound to a wire point.
func (c *Connector) Attached() bool { return c.wire != 0 }

// AttachedWire returns the bound wire's ID, or zero if unbound.
func (c *Connector) AttachedWire() WireID { return c.wire }

// AttachedPointIndex returns the bound point index, or -1 if unbound.
func (c *Connector) AttachedPointIndex() int { return c.index }
