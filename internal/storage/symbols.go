/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"sort"

	"goschematic/internal/domain"
)

// EnsureSheet returns a pointer to a sheet with the given name, creating it if it does not exist yet.
// New sheets are appended with an empty symbol list and the default grid.
func EnsureSheet(ph *ProjectHandle, name string) (*domain.Sheet, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	if name == "" {
		return nil, fmt.Errorf("sheet name is required")
	}
	for i := range ph.Project.Sheets {
		if ph.Project.Sheets[i].Name == name {
			return &ph.Project.Sheets[i], nil
		}
	}
	sh := domain.Sheet{Name: name, Grid: 10, Symbols: []domain.Symbol{}}
	ph.Project.Sheets = append(ph.Project.Sheets, sh)
	// Keep sheets sorted by name for deterministic serialization
	sort.Slice(ph.Project.Sheets, func(i, j int) bool { return ph.Project.Sheets[i].Name < ph.Project.Sheets[j].Name })
	for i := range ph.Project.Sheets {
		if ph.Project.Sheets[i].Name == name {
			return &ph.Project.Sheets[i], nil
		}
	}
	return nil, fmt.Errorf("failed to create sheet %q", name)
}

// NextSymbolID returns a unique symbol ID like "s1", "s2", ... not used on the given sheet.
func NextSymbolID(sh *domain.Sheet) string {
	if sh == nil {
		return "s1"
	}
	maxN := 0
	exists := map[string]struct{}{}
	for _, s := range sh.Symbols {
		exists[s.ID] = struct{}{}
		var n int
		if _, err := fmt.Sscanf(s.ID, "s%d", &n); err == nil {
			if n > maxN {
				maxN = n
			}
		}
	}
	for n := maxN + 1; n < maxN+10000; n++ {
		id := fmt.Sprintf("s%d", n)
		if _, ok := exists[id]; !ok {
			return id
		}
	}
	return fmt.Sprintf("s%d", maxN+1)
}

// NextRef returns the next free designator for the given prefix across the whole project,
// e.g. NextRef(ph, "R") yields "R1", then "R2". Designators are project-unique so that
// where-used lookups stay unambiguous across sheets.
func NextRef(ph *ProjectHandle, prefix string) string {
	if prefix == "" {
		prefix = "U"
	}
	maxN := 0
	if ph != nil {
		for _, sh := range ph.Project.Sheets {
			for _, s := range sh.Symbols {
				var n int
				if _, err := fmt.Sscanf(s.Ref, prefix+"%d", &n); err == nil && n > maxN {
					maxN = n
				}
			}
		}
	}
	return fmt.Sprintf("%s%d", prefix, maxN+1)
}

// AddSymbol places a new symbol on the given sheet. If symbol.ID is empty, a unique one is
// generated; if symbol.Ref is empty, the next free designator with prefix "U" is assigned.
// Returns the created symbol.
func AddSymbol(ph *ProjectHandle, sheetName string, symbol domain.Symbol) (domain.Symbol, error) {
	sh, err := EnsureSheet(ph, sheetName)
	if err != nil {
		return domain.Symbol{}, err
	}
	if symbol.ID == "" {
		symbol.ID = NextSymbolID(sh)
	} else {
		for _, s := range sh.Symbols {
			if s.ID == symbol.ID {
				return domain.Symbol{}, fmt.Errorf("symbol id %s already exists on sheet %s", symbol.ID, sheetName)
			}
		}
	}
	if symbol.Ref == "" {
		symbol.Ref = NextRef(ph, "U")
	} else {
		for _, osh := range ph.Project.Sheets {
			for _, s := range osh.Symbols {
				if s.Ref == symbol.Ref {
					return domain.Symbol{}, fmt.Errorf("designator %s already used", symbol.Ref)
				}
			}
		}
	}
	// default footprint when the caller gave none
	if symbol.Size.X <= 0 || symbol.Size.Y <= 0 {
		symbol.Size = domain.DefaultSymbolSize
	}
	sh.Symbols = append(sh.Symbols, symbol)
	return symbol, nil
}

// findSymbol returns sheet pointer, symbol index and pointer, or error.
func findSymbol(ph *ProjectHandle, sheetName string, symbolID string) (*domain.Sheet, int, *domain.Symbol, error) {
	if ph == nil {
		return nil, -1, nil, fmt.Errorf("project handle is nil")
	}
	for i := range ph.Project.Sheets {
		sh := &ph.Project.Sheets[i]
		if sh.Name != sheetName {
			continue
		}
		for k := range sh.Symbols {
			if sh.Symbols[k].ID == symbolID {
				return sh, k, &sh.Symbols[k], nil
			}
		}
		return sh, -1, nil, fmt.Errorf("symbol %s not found on sheet %s", symbolID, sheetName)
	}
	return nil, -1, nil, fmt.Errorf("sheet %s not found", sheetName)
}

// RemoveSymbol deletes the symbol from the sheet. Wires stay; any wire points that
// were attached to the symbol's pins become floating until the next rebuild.
func RemoveSymbol(ph *ProjectHandle, sheetName string, symbolID string) error {
	sh, idx, _, err := findSymbol(ph, sheetName, symbolID)
	if err != nil {
		return err
	}
	sh.Symbols = append(sh.Symbols[:idx], sh.Symbols[idx+1:]...)
	return nil
}

// RotateSymbol turns the symbol by delta degrees (a multiple of 90); the stored
// rotation is normalized into [0,360).
func RotateSymbol(ph *ProjectHandle, sheetName string, symbolID string, delta int) error {
	if delta%90 != 0 {
		return fmt.Errorf("rotation must be a multiple of 90, got %d", delta)
	}
	_, _, sym, err := findSymbol(ph, sheetName, symbolID)
	if err != nil {
		return err
	}
	sym.Rotation = ((sym.Rotation+delta)%360 + 360) % 360
	return nil
}

// UpdateSymbolMeta updates the symbol's designator (if non-empty and project-unique) and value.
// Pins and position are preserved.
func UpdateSymbolMeta(ph *ProjectHandle, sheetName string, symbolID string, newRef string, value string) error {
	_, _, sym, err := findSymbol(ph, sheetName, symbolID)
	if err != nil {
		return err
	}
	if newRef != "" && newRef != sym.Ref {
		for _, sh := range ph.Project.Sheets {
			for _, s := range sh.Symbols {
				if s.Ref == newRef {
					return fmt.Errorf("designator %s already used", newRef)
				}
			}
		}
		sym.Ref = newRef
	}
	sym.Value = value
	return nil
}
