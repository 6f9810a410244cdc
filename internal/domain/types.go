/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model structures for a schematic project.
// The model serializes to a human-readable JSON manifest (schematic.json);
// live wire connectivity is rebuilt from it by the wirenet engine on load.

import (
	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

// Project represents a schematic project and its metadata.
type Project struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata,omitempty"`
	Sheets   []Sheet  `json:"sheets"`
}

// Metadata contains optional descriptive metadata for a project.
type Metadata struct {
	Author   string `json:"author,omitempty"`
	Company  string `json:"company,omitempty"`
	Revision string `json:"revision,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Sheet is one schematic page: placed symbols plus the wires and nets
// drawn on it. Grid is the snap grid pitch in scene units.
type Sheet struct {
	Name    string               `json:"name"`
	Grid    float64              `json:"grid,omitempty"`
	Symbols []Symbol             `json:"symbols"`
	Labels  []Label              `json:"labels,omitempty"`
	Wires   []wirenet.WireRecord `json:"wires"`
	Nets    []wirenet.NetRecord  `json:"nets"`
}

// DefaultSymbolSize is the body footprint used when a symbol is placed without
// an explicit size.
var DefaultSymbolSize = geometry.Point{X: 60, Y: 40}

// Symbol is a placed component instance on a sheet.
type Symbol struct {
	ID       string         `json:"id"`
	Ref      string         `json:"ref"` // e.g. "R1", "U3"
	Value    string         `json:"value,omitempty"`
	Pos      geometry.Point `json:"pos"`
	Rotation int            `json:"rotation,omitempty"` // degrees, multiples of 90
	Size     geometry.Point `json:"size,omitempty"`
	Pins     []Pin          `json:"pins"`
}

// Pin is a connection point of a symbol, offset from the symbol origin.
type Pin struct {
	Name   string         `json:"name"`
	Number string         `json:"number,omitempty"`
	Offset geometry.Point `json:"offset"`
}

// Label is a free text annotation on a sheet.
type Label struct {
	ID   string         `json:"id"`
	Text string         `json:"text"`
	Pos  geometry.Point `json:"pos"`
	Size float64        `json:"size,omitempty"`
}

// SymbolByRef returns the symbol with the given reference designator.
func (s *Sheet) SymbolByRef(ref string) (Symbol, bool) {
	for _, sym := range s.Symbols {
		if sym.Ref == ref {
			return sym, true
		}
	}
	return Symbol{}, false
}

// SheetByName returns the named sheet.
func (p *Project) SheetByName(name string) (*Sheet, bool) {
	for i := range p.Sheets {
		if p.Sheets[i].Name == name {
			return &p.Sheets[i], true
		}
	}
	return nil, false
}
