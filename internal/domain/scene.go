/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

// BuildManager instantiates a live connectivity engine for the sheet:
// symbols become nodes with one connector per pin, then wires and nets are
// rebuilt from the persisted records (connector reattachment and junction
// discovery included). A grid of zero disables snapping.
func (s *Sheet) BuildManager(tolerance float64) *wirenet.Manager {
	m := wirenet.NewManager(wirenet.Settings{
		Snap:                geometry.Snapper(s.Grid),
		Tolerance:           tolerance,
		RouteStraightAngles: true,
	})
	for _, sym := range s.Symbols {
		n := wirenet.NewNode(sym.ID, sym.Pos)
		n.SetSize(sym.Size)
		for _, pin := range sym.Pins {
			n.AddConnector(pin.Name, RotateOffset(pin.Offset, sym.Rotation))
		}
		m.AddNode(n)
	}
	m.Rebuild(s.Wires, s.Nets)
	return m
}

// Capture writes the engine's wires and nets back into the sheet records.
// Symbol placement is owned by the sheet and is not read back.
func (s *Sheet) Capture(m *wirenet.Manager) {
	s.Wires, s.Nets = m.Records()
}

// RotateOffset rotates a pin offset by the symbol rotation, which is
// restricted to multiples of 90 degrees.
func RotateOffset(off geometry.Point, rotation int) geometry.Point {
	switch ((rotation % 360) + 360) % 360 {
	case 90:
		return geometry.P(-off.Y, off.X)
	case 180:
		return geometry.P(-off.X, -off.Y)
	case 270:
		return geometry.P(off.Y, -off.X)
	default:
		return off
	}
}
