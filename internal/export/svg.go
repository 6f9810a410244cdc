/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"goschematic/internal/domain"
	"goschematic/internal/storage"
)

// SVGOptions controls SVG export behavior.
// The coordinate system matches the model (scene units); a viewBox scales it.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	IncludeGrid  bool
	GridColor    Color
	WireStroke   Stroke
	SymbolStroke Stroke
	Sheets       []string
}

// ExportProjectSVGSheets exports each sheet as a separate SVG file named
// sheet-<name>.svg under outDir (resolved under the project's exports folder
// when relative).
func ExportProjectSVGSheets(ph *storage.ProjectHandle, outDir string, opt SVGOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	names := sheetNames(&ph.Project, opt.Sheets)
	if len(names) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	gridCol := defaultGuideColor(opt.GridColor)
	wireStroke := defaultStroke(opt.WireStroke)
	symbolStroke := defaultStroke(opt.SymbolStroke)

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
		w := maxX - minX + 2*sheetMargin
		h := maxY - minY + 2*sheetMargin

		var buf bytes.Buffer
		var werr error
		wf := func(format string, args ...any) {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(&buf, format, args...)
		}

		wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" viewBox=\"%g %g %g %g\">\n",
			minX-sheetMargin, minY-sheetMargin, w, h)
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n",
			minX-sheetMargin, minY-sheetMargin, w, h)

		gc := svgColor(gridCol)
		if opt.IncludeGrid && sh.Grid > 0 {
			for x := minX; x <= maxX; x += sh.Grid {
				for y := minY; y <= maxY; y += sh.Grid {
					wf("  <circle cx=\"%g\" cy=\"%g\" r=\"0.4\" fill=\"%s\"/>\n", x, y, gc)
				}
			}
		}

		wc := svgColor(wireStroke.Color)
		for _, wr := range sh.Wires {
			if len(wr.Points) > 1 {
				wf("  <polyline points=\"")
				for i, p := range wr.Points {
					if i > 0 {
						wf(" ")
					}
					wf("%g,%g", p.X, p.Y)
				}
				wf("\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", wc, wireStroke.Width)
			}
			for _, p := range wr.Points {
				if p.Junction {
					wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"%s\"/>\n", p.X, p.Y, junctionRadius, wc)
				}
			}
		}

		sc := svgColor(symbolStroke.Color)
		for _, sym := range sh.Symbols {
			bw, bh := symbolExtent(sym)
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				sym.Pos.X, sym.Pos.Y, bw, bh, sc, symbolStroke.Width)
			for _, pin := range sym.Pins {
				pp := sym.Pos.Add(domain.RotateOffset(pin.Offset, sym.Rotation))
				wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"none\" stroke=\"%s\"/>\n", pp.X, pp.Y, pinRadius, sc)
			}
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" font-weight=\"bold\">%s</text>\n",
				sym.Pos.X, sym.Pos.Y-4, refFontSize, escText(sym.Ref))
			if sym.Value != "" {
				wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\">%s</text>\n",
					sym.Pos.X, sym.Pos.Y+bh+refFontSize, refFontSize, escText(sym.Value))
			}
		}

		for _, net := range sh.Nets {
			if net.Name == "" {
				continue
			}
			if p, ok := netAnchor(sh, net.Wires); ok {
				wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" font-style=\"italic\">%s</text>\n",
					p.X+4, p.Y-4, refFontSize, escText(net.Name))
			}
		}

		for _, lb := range sh.Labels {
			sz := lb.Size
			if sz <= 0 {
				sz = labelFontSize
			}
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\">%s</text>\n",
				lb.Pos.X, lb.Pos.Y, sz, escText(lb.Text))
		}

		wf("</svg>\n")
		if werr != nil {
			return fmt.Errorf("build svg: %w", werr)
		}

		path := filepath.Join(outDir, fmt.Sprintf("sheet-%s.svg", fileSafeName(sh.Name)))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

func svgColor(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
