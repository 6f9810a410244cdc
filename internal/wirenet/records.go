/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import "goschematic/internal/geometry"

// PointRecord is one wire point in absolute scene coordinates.
type PointRecord struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Junction bool    `json:"junction,omitempty"`
}

// WireRecord is the persisted form of a wire.
type WireRecord struct {
	ID     WireID        `json:"id"`
	Points []PointRecord `json:"points"`
}

// NetRecord is the persisted form of a net: its name and wire membership.
type NetRecord struct {
	Name  string   `json:"name,omitempty"`
	Wires []WireID `json:"wires"`
}

// Records exports the manager's wires and nets for persistence. Points are
// absolute; back-references are not exported, they are rebuilt by the
// junction-discovery pass on load.
func (m *Manager) Records() ([]WireRecord, []NetRecord) {
	wireRecs := make([]WireRecord, 0, len(m.wires))
	for _, id := range m.Wires() {
		w := m.wires[id]
		rec := WireRecord{ID: id, Points: make([]PointRecord, 0, w.PointCount())}
		for _, p := range w.PointsAbsolute() {
			rec.Points = append(rec.Points, PointRecord{X: p.Pos.X, Y: p.Pos.Y, Junction: p.Junction})
		}
		wireRecs = append(wireRecs, rec)
	}
	netRecs := make([]NetRecord, 0, len(m.nets))
	for _, n := range m.nets {
		netRecs = append(netRecs, NetRecord{Name: n.Name(), Wires: n.Wires()})
	}
	return wireRecs, netRecs
}

// Restore replaces the manager's wires and nets with the recorded state.
// Back-references, junction coincidences, and connector bindings are not
// reconstructed here; callers follow with ReattachConnectors and
// DiscoverJunctions (or use Rebuild).
func (m *Manager) Restore(wireRecs []WireRecord, netRecs []NetRecord) {
	for _, c := range m.Connectors() {
		c.DetachWire()
	}
	m.wires = make(map[WireID]*Wire, len(wireRecs))
	m.nets = nil
	m.nextID = 1

	for _, rec := range wireRecs {
		if rec.ID <= 0 || len(rec.Points) == 0 {
			continue
		}
		origin := geometry.P(rec.Points[0].X, rec.Points[0].Y)
		w := newWire(rec.ID, origin)
		for _, p := range rec.Points {
			w.AppendPoint(geometry.P(p.X, p.Y))
			w.SetPointIsJunction(w.PointCount()-1, p.Junction)
		}
		m.wires[rec.ID] = w
		if rec.ID >= m.nextID {
			m.nextID = rec.ID + 1
		}
	}

	assigned := make(map[WireID]struct{})
	for _, rec := range netRecs {
		net := NewNet()
		net.SetName(rec.Name)
		for _, id := range rec.Wires {
			if _, ok := m.wires[id]; !ok {
				continue
			}
			if _, dup := assigned[id]; dup {
				continue
			}
			net.AddWire(id)
			assigned[id] = struct{}{}
		}
		if net.Count() > 0 {
			m.addNet(net)
		}
	}
	// Wires the net records missed each get a net of their own.
	for _, id := range m.Wires() {
		if _, ok := assigned[id]; ok {
			continue
		}
		net := NewNet()
		net.AddWire(id)
		m.addNet(net)
	}
}

// ReattachConnectors scans every connector against all wire points and
// attaches coincident pairs. Junction-flagged points and points already
// claimed by another connector are skipped.
func (m *Manager) ReattachConnectors() {
	tol := m.settings.tolerance()
	for _, c := range m.Connectors() {
		if c.Attached() {
			continue
		}
	scan:
		for _, id := range m.Wires() {
			w := m.wires[id]
			for i := 0; i < w.PointCount(); i++ {
				p, _ := w.PointAbsolute(i)
				if p.Junction || !p.Pos.Near(c.Pos(), tol) {
					continue
				}
				if m.connectorAt(id, i, c) != nil {
					continue
				}
				c.AttachWire(w, i)
				m.obs.ConnectorAttached(c, id, i)
				break scan
			}
		}
	}
}

// DiscoverJunctions checks every ordered pair of distinct wires for an
// endpoint of one lying on the other's path, marks the junction, and
// connects the wires (merging their nets).
func (m *Manager) DiscoverJunctions() {
	tol := m.settings.tolerance()
	ids := m.Wires()
	for _, aID := range ids {
		a := m.wires[aID]
		if a.PointCount() == 0 {
			continue
		}
		for _, bID := range ids {
			if aID == bID {
				continue
			}
			b := m.wires[bID]
			for _, i := range []int{0, a.PointCount() - 1} {
				p, _ := a.PointAbsolute(i)
				if !b.PointIsOnWire(p.Pos, tol) {
					continue
				}
				if !p.Junction {
					a.SetPointIsJunction(i, true)
					m.obs.JunctionChanged(aID, i, true)
				}
				if !a.IsConnectedTo(bID) && !b.IsConnectedTo(aID) {
					m.ConnectWire(bID, aID)
				}
			}
		}
	}
}

// Rebuild restores the recorded state and runs the reattachment and
// junction-discovery passes, in that order.
func (m *Manager) Rebuild(wireRecs []WireRecord, netRecs []NetRecord) {
	m.Restore(wireRecs, netRecs)
	m.ReattachConnectors()
	m.DiscoverJunctions()
}
