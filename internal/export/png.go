/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"goschematic/internal/domain"
	"goschematic/internal/storage"
)

// PNGOptions controls PNG export behavior.
// - Scale: output pixels per scene unit; <= 0 means 2.
// - IncludeGrid: draw the snap grid as faint dots.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	IncludeGrid  bool
	Scale        float64
	GridColor    Color
	WireStroke   Stroke
	SymbolStroke Stroke
	Sheets       []string
}

// ExportProjectPNGSheets exports each sheet as a separate PNG file named
// sheet-<name>.png under outDir (resolved under the project's exports folder
// when relative). Text uses the fixed 7x13 bitmap face so output is
// deterministic across platforms.
func ExportProjectPNGSheets(ph *storage.ProjectHandle, outDir string, opt PNGOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	names := sheetNames(&ph.Project, opt.Sheets)
	if len(names) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	scale := opt.Scale
	if scale <= 0 {
		scale = 2
	}
	gridCol := toRGBA(defaultGuideColor(opt.GridColor))
	wireStroke := defaultStroke(opt.WireStroke)
	symbolStroke := defaultStroke(opt.SymbolStroke)
	wc := toRGBA(wireStroke.Color)
	sc := toRGBA(symbolStroke.Color)

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	for _, name := range names {
		sh, ok := ph.Project.SheetByName(name)
		if !ok {
			continue
		}
		minX, minY, maxX, maxY := sheetBounds(sh)
		pixW := int(math.Round((maxX - minX + 2*sheetMargin) * scale))
		pixH := int(math.Round((maxY - minY + 2*sheetMargin) * scale))

		img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

		px := func(x float64) int { return int(math.Round((x - minX + sheetMargin) * scale)) }
		py := func(y float64) int { return int(math.Round((y - minY + sheetMargin) * scale)) }

		if opt.IncludeGrid && sh.Grid > 0 {
			for x := minX; x <= maxX; x += sh.Grid {
				for y := minY; y <= maxY; y += sh.Grid {
					img.SetRGBA(px(x), py(y), gridCol)
				}
			}
		}

		for _, wr := range sh.Wires {
			for i := 1; i < len(wr.Points); i++ {
				a, b := wr.Points[i-1], wr.Points[i]
				drawLine(img, px(a.X), py(a.Y), px(b.X), py(b.Y), wc)
			}
			for _, p := range wr.Points {
				if p.Junction {
					fillCircle(img, px(p.X), py(p.Y), int(math.Round(junctionRadius*scale/2))+1, wc)
				}
			}
		}

		for _, sym := range sh.Symbols {
			bw, bh := symbolExtent(sym)
			x0, y0 := px(sym.Pos.X), py(sym.Pos.Y)
			x1, y1 := px(sym.Pos.X+bw), py(sym.Pos.Y+bh)
			strokeRect(img, x0, y0, x1, y1, sc)
			for _, pin := range sym.Pins {
				pp := sym.Pos.Add(domain.RotateOffset(pin.Offset, sym.Rotation))
				fillCircle(img, px(pp.X), py(pp.Y), int(math.Round(pinRadius*scale/2))+1, sc)
			}
			drawText(img, x0, y0-4, sym.Ref, sc)
			if sym.Value != "" {
				drawText(img, x0, y1+13, sym.Value, sc)
			}
		}

		for _, net := range sh.Nets {
			if net.Name == "" {
				continue
			}
			if p, ok := netAnchor(sh, net.Wires); ok {
				drawText(img, px(p.X)+4, py(p.Y)-4, net.Name, wc)
			}
		}
		for _, lb := range sh.Labels {
			drawText(img, px(lb.Pos.X), py(lb.Pos.Y), lb.Text, color.RGBA{A: 255})
		}

		path := filepath.Join(outDir, fmt.Sprintf("sheet-%s.png", fileSafeName(sh.Name)))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
	}
	return nil
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// drawText renders s with the fixed 7x13 face, baseline at (x, y).
func drawText(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine draws a 1px line using the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.SetRGBA(cx+x, cy+y, col)
			}
		}
	}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
