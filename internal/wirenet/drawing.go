/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import (
	"errors"
	"log/slog"

	"goschematic/internal/geometry"
)

// ErrFloatingEndpoint reports a finish attempt whose final point coincides
// with neither a connector nor another wire's path. Recoverable: the
// session stays in StateDrawing after the offending point is retracted.
var ErrFloatingEndpoint = errors.New("wirenet: wire endpoint is floating")

// DrawingState is the phase of an interactive wire-drawing gesture.
type DrawingState int

const (
	StateIdle DrawingState = iota
	StateDrawing
	StateFinished
	StateAborted
)

func (s DrawingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateFinished:
		return "finished"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// DrawingSession is the explicit state of one wire-drawing gesture. It is
// passed into and returned from each protocol step as a value, so the
// state machine carries no hidden fields and gestures can be driven
// without a live scene.
type DrawingSession struct {
	State DrawingState
	// Wire is the in-progress wire, 0 while Idle and after Finished/Aborted.
	Wire WireID
	// InvertPosture flips which axis an orthogonal corner resolves first.
	InvertPosture bool

	// newSegment marks that the last click committed a point and the next
	// cursor move starts a fresh provisional corner+endpoint pair.
	newSegment bool
}

// NewDrawingSession returns an idle session.
func NewDrawingSession() DrawingSession {
	return DrawingSession{State: StateIdle}
}

// TogglePosture flips the posture-inversion toggle. The provisional corner
// is re-routed on the next MoveCursor.
func (s DrawingSession) TogglePosture() DrawingSession {
	s.InvertPosture = !s.InvertPosture
	return s
}

// corner places the single corner point that turns prev→next into two
// axis-aligned legs. The normal posture bends vertically first (the corner
// keeps prev's X); the inverted posture bends horizontally first.
func (s DrawingSession) corner(prev, next geometry.Point) geometry.Point {
	if s.InvertPosture {
		return geometry.P(next.X, prev.Y)
	}
	return geometry.P(prev.X, next.Y)
}

// ClickWire advances the gesture by one click at pos (raw scene
// coordinates; the manager snaps it). From Idle it creates a new wire in a
// fresh net seeded with the snapped point; within Drawing it commits the
// current provisional endpoint as a fixed point of the path.
func (m *Manager) ClickWire(s DrawingSession, pos geometry.Point) DrawingSession {
	snapped := m.settings.snap(pos)
	switch s.State {
	case StateIdle, StateFinished, StateAborted:
		w := m.CreateWire(snapped)
		w.AppendPoint(snapped)
		m.log.Debug("wire draw started", slog.Int("wire", int(w.id)))
		return DrawingSession{State: StateDrawing, Wire: w.id, InvertPosture: s.InvertPosture, newSegment: true}
	case StateDrawing:
		w := m.wires[s.Wire]
		if w == nil {
			return NewDrawingSession()
		}
		// The committed point duplicates the provisional endpoint; the next
		// cursor move (or the finish) removes the duplicate.
		w.AppendPoint(snapped)
		s.newSegment = true
		return s
	}
	return s
}

// MoveCursor updates the live preview for a cursor at pos. Outside of a
// new segment it replaces the provisional corner+endpoint pair in place,
// so the point list does not grow while the pointer moves.
func (m *Manager) MoveCursor(s DrawingSession, pos geometry.Point) DrawingSession {
	if s.State != StateDrawing {
		return s
	}
	w := m.wires[s.Wire]
	if w == nil {
		return s
	}
	snapped := m.settings.snap(pos)

	if !m.settings.RouteStraightAngles {
		if s.newSegment {
			if w.PointCount() > 1 {
				w.RemoveLastPoint()
			}
			w.AppendPoint(snapped)
			s.newSegment = false
			return s
		}
		w.MovePointTo(w.PointCount()-1, snapped)
		return s
	}

	if s.newSegment {
		if w.PointCount() > 1 {
			w.RemoveLastPoint()
		}
		last, _ := w.PointAbsolute(w.PointCount() - 1)
		w.AppendPoint(s.corner(last.Pos, snapped))
		w.AppendPoint(snapped)
		s.newSegment = false
		return s
	}

	// Re-route the provisional pair against the last committed point.
	n := w.PointCount()
	if n < 3 {
		w.MovePointTo(n-1, snapped)
		return s
	}
	base, _ := w.PointAbsolute(n - 3)
	w.MovePointTo(n-2, s.corner(base.Pos, snapped))
	w.MovePointTo(n-1, snapped)
	return s
}

// FinishWire commits the gesture. The final point must coincide with a
// connector's position or with another wire's path; otherwise the finish
// is rejected with ErrFloatingEndpoint, the offending point is retracted,
// and the session stays in StateDrawing. On success the path is
// simplified, terminal junctions and connector bindings are established,
// and the session transitions to StateFinished.
func (m *Manager) FinishWire(s DrawingSession) (DrawingSession, error) {
	if s.State != StateDrawing {
		return s, nil
	}
	w := m.wires[s.Wire]
	if w == nil {
		return NewDrawingSession(), nil
	}

	// Drop the duplicate left behind by the committing click.
	if n := w.PointCount(); n > 1 {
		last, _ := w.PointAbsolute(n - 1)
		prev, _ := w.PointAbsolute(n - 2)
		if last.Pos.Near(prev.Pos, simplifyEpsilon) {
			w.RemoveLastPoint()
		}
	}

	if w.PointCount() < 2 || !m.terminationValid(w) {
		if w.PointCount() > 1 {
			w.RemoveLastPoint()
		}
		m.log.Debug("wire finish rejected", slog.Int("wire", int(w.id)))
		return s, ErrFloatingEndpoint
	}

	w.Simplify()
	m.pointMoved(w, 0)
	m.pointMoved(w, w.PointCount()-1)
	m.log.Debug("wire draw finished",
		slog.Int("wire", int(w.id)), slog.Int("points", w.PointCount()))
	return DrawingSession{State: StateFinished, InvertPosture: s.InvertPosture}, nil
}

// AbortWire cancels the gesture, discarding the in-progress wire and the
// net created to hold it.
func (m *Manager) AbortWire(s DrawingSession) DrawingSession {
	if s.State == StateDrawing && s.Wire != 0 {
		m.RemoveWire(s.Wire)
	}
	return DrawingSession{State: StateAborted, InvertPosture: s.InvertPosture}
}

// terminationValid reports whether the last point of w lands on a
// connector or on another wire's path.
func (m *Manager) terminationValid(w *Wire) bool {
	last, ok := w.PointAbsolute(w.PointCount() - 1)
	if !ok {
		return false
	}
	tol := m.settings.tolerance()
	for _, c := range m.Connectors() {
		if c.Pos().Near(last.Pos, tol) {
			return true
		}
	}
	for id, other := range m.wires {
		if id == w.id {
			continue
		}
		if other.PointIsOnWire(last.Pos, tol) {
			return true
		}
	}
	return false
}
