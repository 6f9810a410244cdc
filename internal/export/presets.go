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
	"strings"

	"goschematic/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"   // png + svg, no grid
	PresetPrint PresetName = "print" // pdf with grid dots
)

// BatchOptions controls batch export across multiple formats and sheets.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <project>/exports/<preset>/.
//   - PDF output is a single schematic.pdf in OutDir.
//   - PNG/SVG per-sheet outputs land in png/ or svg/ subfolders of OutDir.
//   - Netlist output is schematic.net in OutDir.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg, netlist; empty means preset defaults
	Sheets        []string // empty means all sheets
	ScaleOverride float64  // when > 0 overrides the PNG raster scale
	IncludeGrid   *bool    // when set, overrides the preset's grid default
	OutDir        string
}

// BatchExport runs exports according to the given preset.
func BatchExport(ph *storage.ProjectHandle, opt BatchOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if len(ph.Project.Sheets) == 0 {
		return fmt.Errorf("project has no sheets")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, "exports", baseOut)
	}

	grid := presetIncludeGrid(opt.Preset)
	if opt.IncludeGrid != nil {
		grid = *opt.IncludeGrid
	}

	for _, f := range formats {
		switch f {
		case "pdf":
			out := filepath.Join(baseOut, "schematic.pdf")
			po := PDFOptions{IncludeGrid: grid, Sheets: opt.Sheets}
			if err := ExportProjectPDF(ph, out, po); err != nil {
				return fmt.Errorf("pdf: %w", err)
			}
		case "png":
			outDir := filepath.Join(baseOut, "png")
			po := PNGOptions{IncludeGrid: grid, Sheets: opt.Sheets}
			if opt.ScaleOverride > 0 {
				po.Scale = opt.ScaleOverride
			}
			if err := ExportProjectPNGSheets(ph, outDir, po); err != nil {
				return fmt.Errorf("png: %w", err)
			}
		case "svg":
			outDir := filepath.Join(baseOut, "svg")
			so := SVGOptions{IncludeGrid: grid, Sheets: opt.Sheets}
			if err := ExportProjectSVGSheets(ph, outDir, so); err != nil {
				return fmt.Errorf("svg: %w", err)
			}
		case "netlist":
			if err := os.MkdirAll(baseOut, 0o755); err != nil {
				return fmt.Errorf("ensure out dir: %w", err)
			}
			out := filepath.Join(baseOut, "schematic.net")
			if err := os.WriteFile(out, []byte(GenerateNetlist(&ph.Project)), 0o644); err != nil {
				return fmt.Errorf("netlist: %w", err)
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "netlist"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGrid(p PresetName) bool {
	switch p {
	case PresetWeb:
		return false
	case PresetPrint:
		return true
	default:
		return false
	}
}
