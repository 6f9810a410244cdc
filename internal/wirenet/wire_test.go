/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wirenet

import (
	"testing"

	"goschematic/internal/geometry"
)

func TestWirePointsAreWireLocal(t *testing.T) {
	w := newWire(1, geometry.P(10, 10))
	w.AppendPoint(geometry.P(10, 10))
	w.AppendPoint(geometry.P(30, 10))

	rel := w.PointsRelative()
	if rel[0].Pos != geometry.P(0, 0) || rel[1].Pos != geometry.P(20, 0) {
		t.Fatalf("unexpected relative points: %+v", rel)
	}

	w.MoveBy(geometry.P(5, -5))
	abs := w.PointsAbsolute()
	if abs[0].Pos != geometry.P(15, 5) || abs[1].Pos != geometry.P(35, 5) {
		t.Fatalf("unexpected absolute points after move: %+v", abs)
	}
}

func TestWireMovePointOutOfRangeIsNoOp(t *testing.T) {
	w := newWire(1, geometry.P(0, 0))
	w.AppendPoint(geometry.P(0, 0))
	w.MovePointTo(5, geometry.P(9, 9))
	w.MovePointTo(-1, geometry.P(9, 9))
	if p, _ := w.PointAbsolute(0); p.Pos != geometry.P(0, 0) {
		t.Fatalf("out-of-range move mutated the wire: %+v", p)
	}
}

func TestWirePointIsOnWire(t *testing.T) {
	w := newWire(1, geometry.P(0, 0))
	w.AppendPoint(geometry.P(0, 0))
	w.AppendPoint(geometry.P(100, 0))
	w.AppendPoint(geometry.P(100, 100))

	if !w.PointIsOnWire(geometry.P(50, 0), 1) {
		t.Fatalf("expected (50,0) on the first segment")
	}
	if !w.PointIsOnWire(geometry.P(100, 40), 1) {
		t.Fatalf("expected (100,40) on the second segment")
	}
	if w.PointIsOnWire(geometry.P(50, 10), 1) {
		t.Fatalf("(50,10) is 10 units off the path")
	}
}

func TestWireBackReferences(t *testing.T) {
	w := newWire(1, geometry.P(0, 0))
	w.ConnectWire(2)
	w.ConnectWire(2)
	w.ConnectWire(3)
	w.ConnectWire(1) // self, ignored
	w.ConnectWire(0) // none, ignored

	if got := w.ConnectedWires(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("unexpected back-references: %v", got)
	}
	w.DisconnectWire(2)
	if w.IsConnectedTo(2) {
		t.Fatalf("wire 2 still referenced after disconnect")
	}
	if !w.IsConnectedTo(3) {
		t.Fatalf("disconnect removed the wrong reference")
	}
}

func TestWireSimplifyRemovesDuplicatesAndColinear(t *testing.T) {
	w := newWire(1, geometry.P(0, 0))
	for _, p := range []geometry.Point{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100},
	} {
		w.AppendPoint(p)
	}
	w.Simplify()

	abs := w.PointsAbsolute()
	if len(abs) != 3 {
		t.Fatalf("expected 3 points after simplify, got %d: %+v", len(abs), abs)
	}
	want := []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	for i, p := range abs {
		if p.Pos != want[i] {
			t.Fatalf("point %d: got %+v, want %+v", i, p.Pos, want[i])
		}
	}
}

func TestWireSimplifyKeepsJunctionPoints(t *testing.T) {
	w := newWire(1, geometry.P(0, 0))
	for _, p := range []geometry.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0},
	} {
		w.AppendPoint(p)
	}
	w.SetPointIsJunction(1, true)
	w.Simplify()

	if w.PointCount() != 3 {
		t.Fatalf("junction-flagged interior point must survive simplify, got %d points", w.PointCount())
	}
	if p, _ := w.PointAbsolute(1); !p.Junction {
		t.Fatalf("junction flag lost on interior point")
	}
}
