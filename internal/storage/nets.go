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

	"goschematic/internal/domain"
	"goschematic/internal/wirenet"
)

// NamedNetSet returns the set of net names used anywhere in the project.
func NamedNetSet(p domain.Project) map[string]struct{} {
	s := make(map[string]struct{})
	for _, sh := range p.Sheets {
		for _, n := range sh.Nets {
			if n.Name == "" {
				continue
			}
			s[n.Name] = struct{}{}
		}
	}
	return s
}

// ComputeUnnamedNets returns, per sheet, how many nets carry no name yet. Anonymous
// nets are legal but an exported netlist is easier to read when every net is named,
// so the UI surfaces this count.
func ComputeUnnamedNets(p domain.Project) map[string]int {
	out := make(map[string]int)
	for _, sh := range p.Sheets {
		cnt := 0
		for _, n := range sh.Nets {
			if n.Name == "" {
				cnt++
			}
		}
		if cnt > 0 {
			out[sh.Name] = cnt
		}
	}
	return out
}

// NextNetName returns the next free auto-generated net name like "N1", "N2" across
// the whole project.
func NextNetName(p domain.Project) string {
	maxN := 0
	for _, sh := range p.Sheets {
		for _, n := range sh.Nets {
			var v int
			if _, err := fmt.Sscanf(n.Name, "N%d", &v); err == nil && v > maxN {
				maxN = v
			}
		}
	}
	return fmt.Sprintf("N%d", maxN+1)
}

// RenameNet changes the name of a net on the given sheet. The new name must not be
// in use anywhere in the project (net names are global so cross-sheet connectivity
// by name stays unambiguous). An empty newName makes the net anonymous again.
func RenameNet(ph *ProjectHandle, sheetName string, oldName string, newName string) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if oldName == "" {
		return fmt.Errorf("old net name is required")
	}
	if newName != "" {
		if _, used := NamedNetSet(ph.Project)[newName]; used {
			return fmt.Errorf("net name %s already used", newName)
		}
	}
	for i := range ph.Project.Sheets {
		sh := &ph.Project.Sheets[i]
		if sh.Name != sheetName {
			continue
		}
		for j := range sh.Nets {
			if sh.Nets[j].Name == oldName {
				sh.Nets[j].Name = newName
				return nil
			}
		}
		return fmt.Errorf("net %s not found on sheet %s", oldName, sheetName)
	}
	return fmt.Errorf("sheet %s not found", sheetName)
}

// NameNetOfWire assigns a name to whichever net record contains the given wire.
// Used when the user labels a wire segment: the whole connected net takes the name.
func NameNetOfWire(ph *ProjectHandle, sheetName string, wire wirenet.WireID, name string) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if name == "" {
		return fmt.Errorf("net name is required")
	}
	if _, used := NamedNetSet(ph.Project)[name]; used {
		return fmt.Errorf("net name %s already used", name)
	}
	for i := range ph.Project.Sheets {
		sh := &ph.Project.Sheets[i]
		if sh.Name != sheetName {
			continue
		}
		for j := range sh.Nets {
			for _, id := range sh.Nets[j].Wires {
				if id == wire {
					sh.Nets[j].Name = name
					return nil
				}
			}
		}
		return fmt.Errorf("wire %d not found in any net on sheet %s", wire, sheetName)
	}
	return fmt.Errorf("sheet %s not found", sheetName)
}
