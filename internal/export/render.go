/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"goschematic/internal/domain"
	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

// Color is an 8-bit RGBA drawing color.
type Color struct {
	R, G, B, A uint8
}

// Stroke pairs a color with a line width in scene units.
type Stroke struct {
	Color Color
	Width float64
}

// Drawing defaults shared by the PDF, SVG and PNG exporters.
// Junction dots and pin markers are sized relative to a 10-unit grid.
const (
	sheetMargin    = 40.0
	junctionRadius = 3.0
	pinRadius      = 2.0
	labelFontSize  = 12.0
	refFontSize    = 10.0
)

func defaultGuideColor(c Color) Color {
	if c == (Color{}) {
		return Color{R: 160, G: 160, B: 160, A: 255}
	}
	return c
}

func defaultStroke(s Stroke) Stroke {
	if s.Width == 0 {
		return Stroke{Color: Color{A: 255}, Width: 1}
	}
	return s
}

// sheetBounds returns the bounding box of everything drawn on the sheet.
// An empty sheet gets a small non-degenerate box so exporters always have
// a valid page size.
func sheetBounds(sh *domain.Sheet) (minX, minY, maxX, maxY float64) {
	first := true
	extend := func(p geometry.Point) {
		if first {
			minX, maxX = p.X, p.X
			minY, maxY = p.Y, p.Y
			first = false
			return
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	for _, sym := range sh.Symbols {
		w, h := symbolExtent(sym)
		extend(sym.Pos)
		extend(geometry.P(sym.Pos.X+w, sym.Pos.Y+h))
		for _, pin := range sym.Pins {
			extend(sym.Pos.Add(domain.RotateOffset(pin.Offset, sym.Rotation)))
		}
	}
	for _, wr := range sh.Wires {
		for _, p := range wr.Points {
			extend(geometry.P(p.X, p.Y))
		}
	}
	for _, lb := range sh.Labels {
		extend(lb.Pos)
	}
	if first {
		return 0, 0, 100, 100
	}
	if maxX-minX < 1 {
		maxX = minX + 1
	}
	if maxY-minY < 1 {
		maxY = minY + 1
	}
	return minX, minY, maxX, maxY
}

// symbolExtent returns the body width/height taking 90-degree rotation into
// account.
func symbolExtent(sym domain.Symbol) (w, h float64) {
	size := sym.Size
	if size.X == 0 && size.Y == 0 {
		size = domain.DefaultSymbolSize
	}
	rot := ((sym.Rotation % 360) + 360) % 360
	if rot == 90 || rot == 270 {
		return size.Y, size.X
	}
	return size.X, size.Y
}

// sheetNames resolves the sheet filter: empty means all sheets, otherwise
// the named subset in project order. Unknown names are ignored.
func sheetNames(p *domain.Project, specific []string) []string {
	if len(specific) == 0 {
		out := make([]string, 0, len(p.Sheets))
		for i := range p.Sheets {
			out = append(out, p.Sheets[i].Name)
		}
		return out
	}
	want := make(map[string]bool, len(specific))
	for _, n := range specific {
		want[n] = true
	}
	out := make([]string, 0, len(specific))
	for i := range p.Sheets {
		if want[p.Sheets[i].Name] {
			out = append(out, p.Sheets[i].Name)
		}
	}
	return out
}

// netAnchor picks a label anchor for a net: the first point of the first of
// its wires present on the sheet.
func netAnchor(sh *domain.Sheet, ids []wirenet.WireID) (geometry.Point, bool) {
	member := make(map[wirenet.WireID]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}
	for _, wr := range sh.Wires {
		if member[wr.ID] && len(wr.Points) > 0 {
			return geometry.P(wr.Points[0].X, wr.Points[0].Y), true
		}
	}
	return geometry.Point{}, false
}

// fileSafeName flattens a sheet name into something usable as a filename.
func fileSafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "sheet"
	}
	return b.String()
}
