//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"goschematic/internal/domain"
	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

func almostEqual(a, b, eps float64) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func testSheet() *domain.Sheet {
	return &domain.Sheet{
		Name: "main",
		Grid: 10,
		Symbols: []domain.Symbol{
			{
				ID:   "s1",
				Ref:  "R1",
				Pos:  geometry.P(10, 10),
				Size: geometry.P(50, 20),
				Pins: []domain.Pin{
					{Name: "1", Offset: geometry.P(0, 10)},
					{Name: "2", Offset: geometry.P(50, 10)},
				},
			},
		},
	}
}

func TestSheetCanvas_CoordinateMapping(t *testing.T) {
	sc := NewSheetCanvas()

	v := sc.toView(geometry.P(10, 20))
	if v.X != 40 || v.Y != 60 {
		t.Fatalf("unexpected view position: %v", v)
	}

	back := sc.toModel(v)
	if !almostEqual(back.X, 10, 1e-3) || !almostEqual(back.Y, 20, 1e-3) {
		t.Fatalf("roundtrip mismatch: %v", back)
	}
}

func TestSheetCanvas_WireDrawingGesture(t *testing.T) {
	sc := NewSheetCanvas()
	sheet := testSheet()
	sc.SetSheet(sheet, geometry.DefaultTolerance)
	sc.SetWireMode(true)

	// Pin 1 sits at (10, 20), pin 2 at (60, 20).
	sc.Tapped(&fyne.PointEvent{Position: sc.toView(geometry.P(10, 20))})
	if sc.session.State != wirenet.StateDrawing {
		t.Fatalf("expected drawing state after first click, got %v", sc.session.State)
	}

	sc.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: sc.toView(geometry.P(60, 20))}})
	sc.DoubleTapped(nil)

	if sc.session.State != wirenet.StateIdle {
		t.Fatalf("expected session reset after finish, got %v", sc.session.State)
	}
	if len(sheet.Wires) != 1 {
		t.Fatalf("expected 1 captured wire record, got %d", len(sheet.Wires))
	}
	if len(sheet.Nets) != 1 {
		t.Fatalf("expected 1 captured net record, got %d", len(sheet.Nets))
	}
}

func TestSheetCanvas_FloatingEndpointKeepsDrawing(t *testing.T) {
	sc := NewSheetCanvas()
	var lastStatus string
	sc.onStatus = func(s string) { lastStatus = s }
	sc.SetSheet(testSheet(), geometry.DefaultTolerance)
	sc.SetWireMode(true)

	sc.Tapped(&fyne.PointEvent{Position: sc.toView(geometry.P(10, 20))})
	sc.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: sc.toView(geometry.P(200, 200))}})
	sc.DoubleTapped(nil)

	if sc.session.State != wirenet.StateDrawing {
		t.Fatalf("expected session to stay drawing on floating endpoint, got %v", sc.session.State)
	}
	if lastStatus == "" {
		t.Fatal("expected a status message for the rejected finish")
	}
}

func TestSheetCanvas_AbortDiscardsWire(t *testing.T) {
	sc := NewSheetCanvas()
	sc.SetSheet(testSheet(), geometry.DefaultTolerance)
	sc.SetWireMode(true)

	sc.Tapped(&fyne.PointEvent{Position: sc.toView(geometry.P(10, 20))})
	if got := len(sc.Manager().Wires()); got != 1 {
		t.Fatalf("expected 1 in-progress wire, got %d", got)
	}

	sc.Abort()
	if sc.session.State != wirenet.StateIdle {
		t.Fatalf("expected idle session after abort, got %v", sc.session.State)
	}
	if got := len(sc.Manager().Wires()); got != 0 {
		t.Fatalf("expected in-progress wire removed, got %d", got)
	}
}

func TestSheetCanvas_RendererBuildsScene(t *testing.T) {
	sc := NewSheetCanvas()
	sheet := testSheet()
	sheet.Labels = []domain.Label{{ID: "l1", Text: "power", Pos: geometry.P(5, 60)}}
	sc.SetSheet(sheet, geometry.DefaultTolerance)

	r, ok := sc.CreateRenderer().(*sheetCanvasRenderer)
	if !ok {
		t.Fatalf("expected sheetCanvasRenderer, got %T", sc.CreateRenderer())
	}

	// Background, symbol body, two pin dots, ref text, label text.
	if got := len(r.Objects()); got < 6 {
		t.Fatalf("expected at least 6 scene objects, got %d", got)
	}

	sz := r.MinSize()
	// Body extends to (60, 30) in model space, scale 2 plus padding.
	if sz.Width < 60*2+2*canvasPad-1 || sz.Height < 30*2+2*canvasPad-1 {
		t.Fatalf("unexpected min size: %v", sz)
	}
}
