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
	"testing"

	"goschematic/internal/geometry"
)

func newDrawingManager() *Manager {
	return NewManager(Settings{RouteStraightAngles: true})
}

// terminalNode drops a single-connector node at pos so a drawn wire has a
// valid termination there.
func terminalNode(m *Manager, pos geometry.Point) *Connector {
	n := NewNode("T", pos)
	c := n.AddConnector("t", geometry.P(0, 0))
	m.AddNode(n)
	return c
}

func TestDrawTwoLegWire(t *testing.T) {
	m := newDrawingManager()
	pin := terminalNode(m, geometry.P(100, 100))

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(0, 0))
	if s.State != StateDrawing {
		t.Fatalf("expected drawing state after first click, got %v", s.State)
	}
	s = m.MoveCursor(s, geometry.P(100, 0))
	s = m.ClickWire(s, geometry.P(100, 0))
	s = m.MoveCursor(s, geometry.P(100, 100))
	s = m.ClickWire(s, geometry.P(100, 100))

	s, err := m.FinishWire(s)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if s.State != StateFinished {
		t.Fatalf("expected finished state, got %v", s.State)
	}

	ids := m.Wires()
	if len(ids) != 1 {
		t.Fatalf("expected 1 wire, got %d", len(ids))
	}
	abs := m.Wire(ids[0]).PointsAbsolute()
	want := []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	if len(abs) != len(want) {
		t.Fatalf("expected %d points, got %d: %+v", len(want), len(abs), abs)
	}
	for i, p := range abs {
		if p.Pos != want[i] {
			t.Fatalf("point %d: got %+v, want %+v", i, p.Pos, want[i])
		}
	}
	if !pin.Attached() {
		t.Fatalf("terminating connector must be attached")
	}
}

func TestDrawPostureInversion(t *testing.T) {
	m := newDrawingManager()
	terminalNode(m, geometry.P(100, 100))

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(0, 0))
	s = s.TogglePosture()
	s = m.MoveCursor(s, geometry.P(100, 100))

	w := m.Wire(s.Wire)
	corner, _ := w.PointAbsolute(1)
	if corner.Pos != geometry.P(100, 0) {
		t.Fatalf("inverted posture must bend horizontally first, corner at %+v", corner.Pos)
	}

	// Toggling back re-routes on the next cursor move.
	s = s.TogglePosture()
	s = m.MoveCursor(s, geometry.P(100, 100))
	corner, _ = w.PointAbsolute(1)
	if corner.Pos != geometry.P(0, 100) {
		t.Fatalf("normal posture must bend vertically first, corner at %+v", corner.Pos)
	}
}

func TestDrawPreviewDoesNotGrowPointList(t *testing.T) {
	m := newDrawingManager()

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(0, 0))
	s = m.MoveCursor(s, geometry.P(50, 0))
	w := m.Wire(s.Wire)
	n := w.PointCount()

	for _, p := range []geometry.Point{{X: 60, Y: 10}, {X: 70, Y: 20}, {X: 80, Y: 30}} {
		s = m.MoveCursor(s, p)
		if w.PointCount() != n {
			t.Fatalf("preview grew the point list: %d -> %d", n, w.PointCount())
		}
	}
	if last, _ := w.PointAbsolute(w.PointCount() - 1); last.Pos != geometry.P(80, 30) {
		t.Fatalf("provisional endpoint not tracking cursor: %+v", last.Pos)
	}
}

func TestFinishFloatingEndpointIsRecoverable(t *testing.T) {
	m := newDrawingManager()

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(0, 0))
	s = m.MoveCursor(s, geometry.P(100, 0))
	s = m.ClickWire(s, geometry.P(100, 0))

	w := m.Wire(s.Wire)
	before := w.PointCount()

	s, err := m.FinishWire(s)
	if !errors.Is(err, ErrFloatingEndpoint) {
		t.Fatalf("expected ErrFloatingEndpoint, got %v", err)
	}
	if s.State != StateDrawing {
		t.Fatalf("rejected finish must stay in drawing state, got %v", s.State)
	}
	if w.PointCount() >= before {
		t.Fatalf("rejected finish must retract the last point: %d -> %d", before, w.PointCount())
	}

	// The gesture can continue and finish on a valid target.
	terminalNode(m, geometry.P(50, 80))
	s = m.MoveCursor(s, geometry.P(50, 80))
	s = m.ClickWire(s, geometry.P(50, 80))
	s, err = m.FinishWire(s)
	if err != nil {
		t.Fatalf("finish after recovery failed: %v", err)
	}
	if s.State != StateFinished {
		t.Fatalf("expected finished state, got %v", s.State)
	}
}

func TestAbortDiscardsWireAndNet(t *testing.T) {
	m := newDrawingManager()

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(0, 0))
	s = m.MoveCursor(s, geometry.P(100, 0))

	s = m.AbortWire(s)
	if s.State != StateAborted {
		t.Fatalf("expected aborted state, got %v", s.State)
	}
	if len(m.Wires()) != 0 || len(m.Nets()) != 0 {
		t.Fatalf("abort must discard wire and net: %d wires, %d nets",
			len(m.Wires()), len(m.Nets()))
	}

	// A new gesture can start from the aborted session.
	s = m.ClickWire(s, geometry.P(10, 10))
	if s.State != StateDrawing || s.Wire == 0 {
		t.Fatalf("click after abort must start a new wire")
	}
}

func TestDrawStartOnExistingWireFormsJunction(t *testing.T) {
	m := newDrawingManager()
	w1 := addWire(m, geometry.P(0, 0), geometry.P(100, 0))
	terminalNode(m, geometry.P(50, 100))

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(50, 0))
	s = m.MoveCursor(s, geometry.P(50, 100))
	s = m.ClickWire(s, geometry.P(50, 100))
	s, err := m.FinishWire(s)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	var w2 *Wire
	for _, id := range m.Wires() {
		if id != w1.ID() {
			w2 = m.Wire(id)
		}
	}
	if w2 == nil {
		t.Fatalf("drawn wire missing")
	}
	if p, _ := w2.PointAbsolute(0); !p.Junction {
		t.Fatalf("start point on an existing wire must be a junction")
	}
	if m.NetOf(w1.ID()) != m.NetOf(w2.ID()) {
		t.Fatalf("junction at start must merge the nets")
	}
	assertNetInvariant(t, m)
}

func TestSnapAppliesToClicksAndPreview(t *testing.T) {
	m := NewManager(Settings{
		RouteStraightAngles: true,
		Snap:                geometry.Snapper(10),
	})

	s := NewDrawingSession()
	s = m.ClickWire(s, geometry.P(3, 4))
	w := m.Wire(s.Wire)
	if p, _ := w.PointAbsolute(0); p.Pos != geometry.P(0, 0) {
		t.Fatalf("click not snapped: %+v", p.Pos)
	}
	s = m.MoveCursor(s, geometry.P(52, 7))
	if last, _ := w.PointAbsolute(w.PointCount() - 1); last.Pos != geometry.P(50, 10) {
		t.Fatalf("preview not snapped: %+v", last.Pos)
	}
}
