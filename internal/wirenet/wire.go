/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package wirenet implements the wire-net connectivity engine of the
// schematic editor: wires as ordered polylines, nets as groups of
// electrically identical wires, junction detection, net merge/split, and
// connector attachment. The Manager owns all wires in an arena keyed by
// WireID; nets and connectors refer to wires by ID only, so no dangling
// references can occur when wires are removed.
package wirenet

import (
	"sort"

	"goschematic/internal/geometry"
)

// WireID is a stable handle into the manager's wire arena. Zero means "no wire".
type WireID int

// simplifyEpsilon is the colinearity slack used by Simplify. It is much
// tighter than the user-facing coincidence tolerance so that deliberate
// small jogs survive simplification.
const simplifyEpsilon = 1e-6

// WirePoint is one point of a wire's path, in wire-local coordinates,
// tagged with a junction flag. A junction marks that another wire's
// endpoint terminates on this point.
type WirePoint struct {
	Pos      geometry.Point
	Junction bool
}

// Wire is an ordered path of points plus the set of wires whose endpoints
// terminate on it (back-references). Point coordinates are relative to the
// wire's origin so that moving a wire as a rigid body is a single offset
// update.
type Wire struct {
	id        WireID
	pos       geometry.Point
	points    []WirePoint
	connected map[WireID]struct{}
}

func newWire(id WireID, pos geometry.Point) *Wire {
	return &Wire{id: id, pos: pos, connected: make(map[WireID]struct{})}
}

// ID returns the wire's arena handle.
func (w *Wire) ID() WireID { return w.id }

// Pos returns the wire's origin in scene coordinates.
func (w *Wire) Pos() geometry.Point { return w.pos }

// MoveBy translates the whole wire rigidly.
func (w *Wire) MoveBy(delta geometry.Point) { w.pos = w.pos.Add(delta) }

// PointCount returns the number of path points.
func (w *Wire) PointCount() int { return len(w.points) }

// AppendPoint adds p (scene coordinates) as the new last point.
func (w *Wire) AppendPoint(p geometry.Point) {
	w.points = append(w.points, WirePoint{Pos: p.Sub(w.pos)})
}

// RemoveLastPoint removes the final point. No-op on an empty wire.
func (w *Wire) RemoveLastPoint() {
	if len(w.points) == 0 {
		return
	}
	w.points = w.points[:len(w.points)-1]
}

// MovePointTo relocates point index to p (scene coordinates).
// Out-of-range indices are silently ignored.
func (w *Wire) MovePointTo(index int, p geometry.Point) {
	if index < 0 || index >= len(w.points) {
		return
	}
	w.points[index].Pos = p.Sub(w.pos)
}

// MovePointBy relocates point index by delta. Out-of-range indices are
// silently ignored.
func (w *Wire) MovePointBy(index int, delta geometry.Point) {
	if index < 0 || index >= len(w.points) {
		return
	}
	w.points[index].Pos = w.points[index].Pos.Add(delta)
}

// PointsRelative returns a copy of the wire-local path.
func (w *Wire) PointsRelative() []WirePoint {
	out := make([]WirePoint, len(w.points))
	copy(out, w.points)
	return out
}

// PointsAbsolute returns a copy of the path translated into scene
// coordinates, junction flags preserved.
func (w *Wire) PointsAbsolute() []WirePoint {
	out := make([]WirePoint, len(w.points))
	for i, p := range w.points {
		out[i] = WirePoint{Pos: p.Pos.Add(w.pos), Junction: p.Junction}
	}
	return out
}

// PointAbsolute returns point index in scene coordinates.
func (w *Wire) PointAbsolute(index int) (WirePoint, bool) {
	if index < 0 || index >= len(w.points) {
		return WirePoint{}, false
	}
	p := w.points[index]
	return WirePoint{Pos: p.Pos.Add(w.pos), Junction: p.Junction}, true
}

// IsEndpoint reports whether index is the first or last point.
func (w *Wire) IsEndpoint(index int) bool {
	return len(w.points) > 0 && (index == 0 || index == len(w.points)-1)
}

// SetPointIsJunction toggles the junction flag of point index.
// Out-of-range indices are silently ignored.
func (w *Wire) SetPointIsJunction(index int, junction bool) {
	if index < 0 || index >= len(w.points) {
		return
	}
	w.points[index].Junction = junction
}

// JunctionIndices returns the indices of all points flagged as junctions.
func (w *Wire) JunctionIndices() []int {
	var out []int
	for i, p := range w.points {
		if p.Junction {
			out = append(out, i)
		}
	}
	return out
}

// PointIsOnWire reports whether p (scene coordinates) lies on any segment
// of the wire's path within tol.
func (w *Wire) PointIsOnWire(p geometry.Point, tol float64) bool {
	abs := w.PointsAbsolute()
	for i := 0; i+1 < len(abs); i++ {
		seg := geometry.Segment{A: abs[i].Pos, B: abs[i+1].Pos}
		if seg.ContainsPoint(p, tol) {
			return true
		}
	}
	return false
}

// ConnectWire records a back-reference to other. Idempotent.
func (w *Wire) ConnectWire(other WireID) {
	if other == 0 || other == w.id {
		return
	}
	w.connected[other] = struct{}{}
}

// DisconnectWire removes the back-reference to other, if present.
func (w *Wire) DisconnectWire(other WireID) {
	delete(w.connected, other)
}

// IsConnectedTo reports whether w holds a back-reference to other.
func (w *Wire) IsConnectedTo(other WireID) bool {
	_, ok := w.connected[other]
	return ok
}

// ConnectedWires returns the back-reference set in deterministic order.
func (w *Wire) ConnectedWires() []WireID {
	out := make([]WireID, 0, len(w.connected))
	for id := range w.connected {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Simplify removes duplicate consecutive points and redundant colinear
// interior points. Points flagged as junctions are never removed since
// another wire terminates there. Called once a wire's shape is finalized.
func (w *Wire) Simplify() {
	// Drop consecutive duplicates first.
	dedup := w.points[:0]
	for _, p := range w.points {
		if len(dedup) > 0 && !p.Junction {
			last := dedup[len(dedup)-1]
			if last.Pos.Distance(p.Pos) <= simplifyEpsilon {
				continue
			}
		} else if len(dedup) > 0 && p.Junction {
			last := dedup[len(dedup)-1]
			if last.Pos.Distance(p.Pos) <= simplifyEpsilon {
				// Keep the junction flag, drop the duplicate coordinate.
				dedup[len(dedup)-1].Junction = true
				continue
			}
		}
		dedup = append(dedup, p)
	}
	w.points = dedup

	// Then drop colinear interior points.
	for i := 1; i+1 < len(w.points); {
		if w.points[i].Junction {
			i++
			continue
		}
		a := w.points[i-1].Pos
		b := w.points[i].Pos
		c := w.points[i+1].Pos
		if geometry.Colinear(a, b, c, simplifyEpsilon) {
			w.points = append(w.points[:i], w.points[i+1:]...)
			continue
		}
		i++
	}
}
