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
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"goschematic/internal/domain"
	"goschematic/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Scene units map 1:1 to PDF points; each sheet becomes one page sized to
// its drawing bounds plus a margin.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	IncludeGrid  bool // draw the snap grid as faint dots
	GridColor    Color
	WireStroke   Stroke
	SymbolStroke Stroke
	Sheets       []string // if empty, export all sheets
}

// ExportProjectPDF exports the project to a single multi-page PDF at outPath,
// one page per sheet. Junction points are drawn as filled dots and connector
// pins as small circles, matching the on-screen rendering.
func ExportProjectPDF(ph *storage.ProjectHandle, outPath string, opt PDFOptions) error {
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

	// Page size is per-sheet; NewCustom only fixes the default, each page
	// is added with its own format.
	first, _ := ph.Project.SheetByName(names[0])
	fx0, fy0, fx1, fy1 := sheetBounds(first)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: fx1 - fx0 + 2*sheetMargin, Ht: fy1 - fy0 + 2*sheetMargin},
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("%s — Schematic", ph.Project.Name), false)
	pdf.SetAuthor(ph.Project.Metadata.Author, false)
	pdf.SetFont("Helvetica", "", labelFontSize)

	for _, name := range names {
		sh, ok := ph.Project.SheetByName(name)
		if !ok {
			continue
		}
		minX, minY, maxX, maxY := sheetBounds(sh)
		pageW := maxX - minX + 2*sheetMargin
		pageH := maxY - minY + 2*sheetMargin
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})

		// model -> page coordinates
		tx := func(x float64) float64 { return x - minX + sheetMargin }
		ty := func(y float64) float64 { return y - minY + sheetMargin }

		// Sheet frame and title
		setDrawColor(pdf, gridCol)
		pdf.SetLineWidth(0.3)
		pdf.Rect(2, 2, pageW-4, pageH-4, "D")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", labelFontSize)
		pdf.Text(6, 14, fmt.Sprintf("%s / %s", ph.Project.Name, sh.Name))
		if rev := ph.Project.Metadata.Revision; rev != "" {
			pdf.SetFont("Helvetica", "", refFontSize)
			pdf.Text(6, pageH-6, "rev "+rev)
		}

		if opt.IncludeGrid && sh.Grid > 0 {
			setFillColor(pdf, gridCol)
			for x := minX; x <= maxX; x += sh.Grid {
				for y := minY; y <= maxY; y += sh.Grid {
					pdf.Circle(tx(x), ty(y), 0.4, "F")
				}
			}
		}

		// Wires with junction dots
		setDrawColor(pdf, wireStroke.Color)
		setFillColor(pdf, wireStroke.Color)
		pdf.SetLineWidth(wireStroke.Width)
		for _, wr := range sh.Wires {
			for i := 1; i < len(wr.Points); i++ {
				a, b := wr.Points[i-1], wr.Points[i]
				pdf.Line(tx(a.X), ty(a.Y), tx(b.X), ty(b.Y))
			}
			for _, p := range wr.Points {
				if p.Junction {
					pdf.Circle(tx(p.X), ty(p.Y), junctionRadius, "F")
				}
			}
		}

		// Symbols: body, pins, ref/value
		setDrawColor(pdf, symbolStroke.Color)
		pdf.SetLineWidth(symbolStroke.Width)
		for _, sym := range sh.Symbols {
			w, h := symbolExtent(sym)
			pdf.Rect(tx(sym.Pos.X), ty(sym.Pos.Y), w, h, "D")
			for _, pin := range sym.Pins {
				pp := sym.Pos.Add(domain.RotateOffset(pin.Offset, sym.Rotation))
				pdf.Circle(tx(pp.X), ty(pp.Y), pinRadius, "D")
			}
			pdf.SetFont("Helvetica", "B", refFontSize)
			pdf.Text(tx(sym.Pos.X), ty(sym.Pos.Y)-4, sym.Ref)
			if sym.Value != "" {
				pdf.SetFont("Helvetica", "", refFontSize)
				pdf.Text(tx(sym.Pos.X), ty(sym.Pos.Y)+h+refFontSize, sym.Value)
			}
		}

		// Net names at the first point of the first wire of each named net
		pdf.SetFont("Helvetica", "I", refFontSize)
		for _, net := range sh.Nets {
			if net.Name == "" {
				continue
			}
			if p, ok := netAnchor(sh, net.Wires); ok {
				pdf.Text(tx(p.X)+4, ty(p.Y)-4, net.Name)
			}
		}

		// Free labels
		pdf.SetFont("Helvetica", "", labelFontSize)
		for _, lb := range sh.Labels {
			sz := lb.Size
			if sz <= 0 {
				sz = labelFontSize
			}
			pdf.SetFontSize(sz)
			pdf.Text(tx(lb.Pos.X), ty(lb.Pos.Y), lb.Text)
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
