/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import (
	"log/slog"
	"sort"

	"goschematic/internal/geometry"
	applog "goschematic/internal/log"
)

// Settings holds the collaborator-supplied policy knobs of the engine.
// Snap and Tolerance are treated as pure; the engine never mutates them.
type Settings struct {
	// Snap maps a raw scene position to a grid position. Nil means identity.
	Snap func(geometry.Point) geometry.Point
	// Tolerance is the coincidence tolerance in scene units.
	// Zero or negative selects geometry.DefaultTolerance.
	Tolerance float64
	// RouteStraightAngles enables orthogonal two-leg routing while drawing.
	RouteStraightAngles bool
}

func (s Settings) snap(p geometry.Point) geometry.Point {
	if s.Snap == nil {
		return p
	}
	return s.Snap(p)
}

func (s Settings) tolerance() float64 {
	if s.Tolerance <= 0 {
		return geometry.DefaultTolerance
	}
	return s.Tolerance
}

// Observer receives structural-change notifications. Collaborators (undo
// stack, renderer) use it to mirror engine mutations; every callback fires
// after the corresponding mutation has been applied. All notified mutations
// are expressible as reversible deltas.
type Observer interface {
	NetCreated(n *Net)
	NetsMerged(into, from *Net)
	NetRemoved(n *Net)
	WireAdded(id WireID)
	WireRemoved(id WireID)
	PointMoved(id WireID, index int, from, to geometry.Point)
	JunctionChanged(id WireID, index int, junction bool)
	ConnectorAttached(c *Connector, id WireID, index int)
	ConnectorDetached(c *Connector, id WireID, index int)
}

// NopObserver is an Observer that ignores every notification. Embed it to
// implement only the callbacks of interest.
type NopObserver struct{}

func (NopObserver) NetCreated(*Net)                                       {}
func (NopObserver) NetsMerged(*Net, *Net)                                 {}
func (NopObserver) NetRemoved(*Net)                                       {}
func (NopObserver) WireAdded(WireID)                                      {}
func (NopObserver) WireRemoved(WireID)                                    {}
func (NopObserver) PointMoved(WireID, int, geometry.Point, geometry.Point) {}
func (NopObserver) JunctionChanged(WireID, int, bool)                     {}
func (NopObserver) ConnectorAttached(*Connector, WireID, int)             {}
func (NopObserver) ConnectorDetached(*Connector, WireID, int)             {}

// Manager owns the wire arena, the net list, and the node/connector
// registry, and performs the merge/split/junction/attach algorithms.
// It is single-threaded: every public operation runs to completion and
// leaves all invariants restored before returning.
type Manager struct {
	settings Settings
	obs      Observer
	log      *slog.Logger

	wires  map[WireID]*Wire
	nextID WireID
	nets   []*Net
	nodes  []*Node
}

// NewManager creates an empty manager with the given settings.
func NewManager(settings Settings) *Manager {
	return &Manager{
		settings: settings,
		obs:      NopObserver{},
		log:      applog.WithComponent("wirenet"),
		wires:    make(map[WireID]*Wire),
		nextID:   1,
	}
}

// SetObserver installs the structural-change observer. Nil restores the
// no-op observer.
func (m *Manager) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	m.obs = o
}

// Settings returns the manager's settings.
func (m *Manager) Settings() Settings { return m.settings }

// Tolerance returns the effective coincidence tolerance.
func (m *Manager) Tolerance() float64 { return m.settings.tolerance() }

// AddNode registers a node and its connectors with the engine.
func (m *Manager) AddNode(n *Node) {
	if n == nil {
		return
	}
	m.nodes = append(m.nodes, n)
}

// Nodes returns all registered nodes.
func (m *Manager) Nodes() []*Node { return m.nodes }

// Connectors returns every connector of every registered node.
func (m *Manager) Connectors() []*Connector {
	var out []*Connector
	for _, n := range m.nodes {
		out = append(out, n.connectors...)
	}
	return out
}

// Wire returns the wire for id, or nil if unknown.
func (m *Manager) Wire(id WireID) *Wire { return m.wires[id] }

// Wires returns all wire IDs in the arena, in deterministic order.
func (m *Manager) Wires() []WireID {
	out := make([]WireID, 0, len(m.wires))
	for id := range m.wires {
		out = append(out, id)
	}
	sortWireIDs(out)
	return out
}

// Nets returns the manager's net list.
func (m *Manager) Nets() []*Net { return m.nets }

// NetOf returns the net containing id, or nil.
func (m *Manager) NetOf(id WireID) *Net {
	for _, n := range m.nets {
		if n.Contains(id) {
			return n
		}
	}
	return nil
}

// CreateWire allocates a new empty wire at pos in a fresh net.
func (m *Manager) CreateWire(pos geometry.Point) *Wire {
	w := newWire(m.nextID, pos)
	m.nextID++
	m.wires[w.id] = w

	net := NewNet()
	net.AddWire(w.id)
	m.addNet(net)
	m.obs.WireAdded(w.id)
	return w
}

// RemoveWire deletes the wire from the arena and its net, detaches any
// connectors bound to it, drops back-references held by other wires, and
// re-partitions the remaining net members into connected components.
// Unknown IDs are a no-op.
func (m *Manager) RemoveWire(id WireID) {
	w, ok := m.wires[id]
	if !ok {
		return
	}

	// Detach connectors bound to this wire.
	for _, c := range m.Connectors() {
		if c.AttachedWire() == id {
			idx := c.AttachedPointIndex()
			c.DetachWire()
			m.obs.ConnectorDetached(c, id, idx)
		}
	}

	// Drop back-references in both directions.
	for _, other := range m.wires {
		other.DisconnectWire(id)
	}
	w.connected = make(map[WireID]struct{})

	net := m.NetOf(id)
	delete(m.wires, id)
	m.obs.WireRemoved(id)
	if net == nil {
		return
	}
	net.RemoveWire(id)
	if net.Count() == 0 {
		m.removeNet(net)
		return
	}
	m.repartitionNet(net)
}

// WiresConnectedTo computes the connected component of wire within its net,
// including the wire itself, using only each wire's local back-reference
// set. The relation is treated as undirected without assuming symmetry of
// the stored references.
func (m *Manager) WiresConnectedTo(id WireID) []WireID {
	w, ok := m.wires[id]
	if !ok {
		return nil
	}
	net := m.NetOf(id)
	if net == nil {
		return []WireID{id}
	}

	component := map[WireID]struct{}{w.id: {}}
	for {
		added := false
		for _, candidate := range net.Wires() {
			if _, in := component[candidate]; in {
				continue
			}
			cw := m.wires[candidate]
			if cw == nil {
				continue
			}
			for member := range component {
				mw := m.wires[member]
				if mw == nil {
					continue
				}
				if mw.IsConnectedTo(candidate) || cw.IsConnectedTo(member) {
					component[candidate] = struct{}{}
					added = true
					break
				}
			}
		}
		if !added {
			break
		}
	}

	out := make([]WireID, 0, len(component))
	for id := range component {
		out = append(out, id)
	}
	sortWireIDs(out)
	return out
}

// ConnectWire registers other as connected to wire (the back-reference is
// added to wire) and merges the two wires' nets into wire's net. Connecting
// wires that already share a net is a successful no-op. Unknown IDs are
// ignored.
func (m *Manager) ConnectWire(wire, other WireID) {
	a, ok := m.wires[wire]
	if !ok {
		return
	}
	if _, ok := m.wires[other]; !ok {
		return
	}
	a.ConnectWire(other)

	netA := m.NetOf(wire)
	netB := m.NetOf(other)
	if netA == nil || netB == nil || netA == netB {
		return
	}
	for _, id := range netB.Wires() {
		netB.RemoveWire(id)
		netA.AddWire(id)
	}
	m.log.Debug("nets merged", slog.Int("into", int(wire)), slog.Int("from", int(other)))
	m.obs.NetsMerged(netA, netB)
	m.removeNet(netB)
}

// DisconnectWire removes the back-reference on other that makes it depend
// on wire, then splits other's net if the removal broke it into two
// components. Wires still reachable from other keep the original net (and
// its name); the complement moves to a freshly created net.
func (m *Manager) DisconnectWire(wire, other WireID) {
	b, ok := m.wires[other]
	if !ok {
		return
	}
	b.DisconnectWire(wire)

	net := m.NetOf(other)
	if net == nil {
		return
	}
	connected := m.WiresConnectedTo(other)
	if len(connected) == net.Count() {
		return
	}
	inComponent := make(map[WireID]struct{}, len(connected))
	for _, id := range connected {
		inComponent[id] = struct{}{}
	}
	fresh := NewNet()
	for _, id := range net.Wires() {
		if _, stay := inComponent[id]; stay {
			continue
		}
		net.RemoveWire(id)
		fresh.AddWire(id)
	}
	m.log.Debug("net split", slog.Int("wire", int(wire)), slog.Int("other", int(other)),
		slog.Int("moved", fresh.Count()))
	m.addNet(fresh)
}

// MovePointTo moves point index of wire to p (scene coordinates) and runs
// the attach/detach and junction maintenance passes. Unknown wires and
// out-of-range indices are a no-op.
func (m *Manager) MovePointTo(id WireID, index int, p geometry.Point) {
	w, ok := m.wires[id]
	if !ok || index < 0 || index >= w.PointCount() {
		return
	}
	before, _ := w.PointAbsolute(index)
	w.MovePointTo(index, p)
	after, _ := w.PointAbsolute(index)
	m.obs.PointMoved(id, index, before.Pos, after.Pos)
	m.pointMoved(w, index)
}

// MovePointBy moves point index of wire by delta and runs the maintenance
// passes, like MovePointTo.
func (m *Manager) MovePointBy(id WireID, index int, delta geometry.Point) {
	w, ok := m.wires[id]
	if !ok || index < 0 || index >= w.PointCount() {
		return
	}
	before, _ := w.PointAbsolute(index)
	m.MovePointTo(id, index, before.Pos.Add(delta))
}

// MoveWireBy translates a wire rigidly and re-evaluates the endpoints of
// the wire and of every wire connected to it, so junctions and connector
// bindings track the new geometry.
func (m *Manager) MoveWireBy(id WireID, delta geometry.Point) {
	w, ok := m.wires[id]
	if !ok || (delta.X == 0 && delta.Y == 0) {
		return
	}
	w.MoveBy(delta)
	for _, other := range w.ConnectedWires() {
		ow := m.wires[other]
		if ow == nil || ow.PointCount() == 0 {
			continue
		}
		m.pointMoved(ow, 0)
		m.pointMoved(ow, ow.PointCount()-1)
	}
	for i := 0; i < w.PointCount(); i++ {
		m.pointMoved(w, i)
	}
}

// MoveNodeBy translates a node and its connectors as a rigid body. Bound
// wire points are dragged along, and unbound connectors are re-scanned
// against all wire endpoints for newly coincident positions.
func (m *Manager) MoveNodeBy(n *Node, delta geometry.Point) {
	if n == nil || (delta.X == 0 && delta.Y == 0) {
		return
	}
	n.moveBy(delta)
	for _, c := range n.connectors {
		if !c.Attached() {
			continue
		}
		m.MovePointTo(c.AttachedWire(), c.AttachedPointIndex(), c.Pos())
	}
	m.UpdateNodeConnections(n)
}

// UpdateNodeConnections scans the node's unbound connectors against all
// wire endpoints and attaches newly coincident pairs. Endpoints flagged as
// junctions are never offered to a connector, and an endpoint already
// claimed by another connector is skipped.
func (m *Manager) UpdateNodeConnections(n *Node) {
	if n == nil {
		return
	}
	tol := m.settings.tolerance()
	for _, c := range n.connectors {
		if c.Attached() {
			continue
		}
		for _, id := range m.Wires() {
			w := m.wires[id]
			if w.PointCount() < 2 {
				continue
			}
			index := -1
			if first, _ := w.PointAbsolute(0); first.Pos.Near(c.Pos(), tol) {
				index = 0
			} else if last, _ := w.PointAbsolute(w.PointCount() - 1); last.Pos.Near(c.Pos(), tol) {
				index = w.PointCount() - 1
			}
			if index == -1 {
				continue
			}
			if p, _ := w.PointAbsolute(index); p.Junction {
				continue
			}
			if m.connectorAt(w.id, index, c) != nil {
				continue
			}
			c.AttachWire(w, index)
			m.obs.ConnectorAttached(c, w.id, index)
			break
		}
	}
}

// pointMoved runs the four maintenance stages after point index of w moved:
// connector detach, connector attach, junction drop, junction formation.
func (m *Manager) pointMoved(w *Wire, index int) {
	abs, ok := w.PointAbsolute(index)
	if !ok {
		return
	}
	tol := m.settings.tolerance()

	// Detach connectors whose binding no longer coincides with the point.
	for _, c := range m.Connectors() {
		if c.AttachedWire() != w.id || c.AttachedPointIndex() != index {
			continue
		}
		if !c.Pos().Near(abs.Pos, tol) {
			c.DetachWire()
			m.obs.ConnectorDetached(c, w.id, index)
		}
	}

	// Attach unbound connectors that now coincide with the point.
	for _, c := range m.Connectors() {
		if c.Attached() {
			continue
		}
		if c.Pos().Near(abs.Pos, tol) {
			c.AttachWire(w, index)
			m.obs.ConnectorAttached(c, w.id, index)
		}
	}

	if !w.IsEndpoint(index) {
		return
	}

	// Drop junctions whose geometric coincidence no longer holds. The wires
	// stay connected if any other junction point of w still lies on the
	// other wire.
	if abs.Junction {
		for _, otherID := range m.Wires() {
			if otherID == w.id {
				continue
			}
			other := m.wires[otherID]
			if !other.IsConnectedTo(w.id) {
				continue
			}
			if other.PointIsOnWire(abs.Pos, tol) {
				continue
			}
			shouldDisconnect := true
			for _, j := range w.JunctionIndices() {
				if j == index {
					continue
				}
				jp, _ := w.PointAbsolute(j)
				if other.PointIsOnWire(jp.Pos, tol) {
					shouldDisconnect = false
					break
				}
			}
			if shouldDisconnect {
				m.DisconnectWire(w.id, otherID)
			}
			w.SetPointIsJunction(index, false)
			m.obs.JunctionChanged(w.id, index, false)
			abs.Junction = false
		}
	}

	// Form a junction if the endpoint now lies on another wire's path. The
	// flag tracks geometric coincidence; the connect call is skipped when
	// the wires are already connected.
	for _, otherID := range m.Wires() {
		if otherID == w.id {
			continue
		}
		other := m.wires[otherID]
		if !other.PointIsOnWire(abs.Pos, tol) {
			continue
		}
		if !abs.Junction {
			w.SetPointIsJunction(index, true)
			m.obs.JunctionChanged(w.id, index, true)
			abs.Junction = true
		}
		if !w.IsConnectedTo(otherID) && !other.IsConnectedTo(w.id) {
			m.ConnectWire(otherID, w.id)
		}
	}
}

// connectorAt returns the connector bound to (wire, index), excluding skip,
// or nil if none is.
func (m *Manager) connectorAt(id WireID, index int, skip *Connector) *Connector {
	for _, c := range m.Connectors() {
		if c == skip {
			continue
		}
		if c.AttachedWire() == id && c.AttachedPointIndex() == index {
			return c
		}
	}
	return nil
}

// repartitionNet splits net into one net per connected component after a
// member was removed. The first component keeps the original net.
func (m *Manager) repartitionNet(net *Net) {
	remaining := net.Wires()
	if len(remaining) == 0 {
		m.removeNet(net)
		return
	}
	seen := make(map[WireID]struct{})
	first := true
	for _, id := range remaining {
		if _, done := seen[id]; done {
			continue
		}
		component := m.WiresConnectedTo(id)
		for _, c := range component {
			seen[c] = struct{}{}
		}
		if first {
			first = false
			continue
		}
		fresh := NewNet()
		for _, c := range component {
			net.RemoveWire(c)
			fresh.AddWire(c)
		}
		m.addNet(fresh)
	}
}

func (m *Manager) addNet(n *Net) {
	m.nets = append(m.nets, n)
	m.obs.NetCreated(n)
}

func (m *Manager) removeNet(n *Net) {
	for i, candidate := range m.nets {
		if candidate == n {
			m.nets = append(m.nets[:i], m.nets[i+1:]...)
			m.obs.NetRemoved(n)
			return
		}
	}
}

func sortWireIDs(ids []WireID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
