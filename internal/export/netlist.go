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
	"sort"
	"strings"

	"goschematic/internal/domain"
	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

// GenerateNetlist renders the project's connectivity as a plain-text netlist:
// per sheet, one block per net listing the attached symbol pins as ref.pin.
// Anonymous nets get sequential n1, n2, ... names local to the sheet.
// Connectivity is recomputed from the stored wires, so the output reflects
// the same attachment rules the editor uses.
func GenerateNetlist(p *domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "netlist %q\n", p.Name)
	if rev := p.Metadata.Revision; rev != "" {
		fmt.Fprintf(&b, "revision %s\n", rev)
	}

	for si := range p.Sheets {
		sh := &p.Sheets[si]
		fmt.Fprintf(&b, "\nsheet %q\n", sh.Name)

		m := sh.BuildManager(geometry.DefaultTolerance)

		// net -> sorted list of "ref.pin"
		pinsByNet := make(map[*netKey][]string)
		keys := make(map[*wirenet.Net]*netKey)
		anon := 0
		for _, net := range m.Nets() {
			name := net.Name()
			if name == "" {
				anon++
				name = fmt.Sprintf("n%d", anon)
			}
			k := &netKey{name: name, wires: net.Count()}
			keys[net] = k
			pinsByNet[k] = nil
		}
		for _, node := range m.Nodes() {
			sym, ok := symbolByID(sh, node.ID())
			if !ok {
				continue
			}
			for _, c := range node.Connectors() {
				if !c.Attached() {
					continue
				}
				net := m.NetOf(c.AttachedWire())
				if net == nil {
					continue
				}
				if k, ok := keys[net]; ok {
					pinsByNet[k] = append(pinsByNet[k], fmt.Sprintf("%s.%s", sym.Ref, c.Name()))
				}
			}
		}

		ordered := make([]*netKey, 0, len(pinsByNet))
		for k := range pinsByNet {
			ordered = append(ordered, k)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].name < ordered[j].name })
		for _, k := range ordered {
			pins := pinsByNet[k]
			sort.Strings(pins)
			fmt.Fprintf(&b, "net %s wires=%d\n", k.name, k.wires)
			for _, pin := range pins {
				fmt.Fprintf(&b, "  %s\n", pin)
			}
		}
	}
	return b.String()
}

type netKey struct {
	name  string
	wires int
}

func symbolByID(sh *domain.Sheet, id string) (domain.Symbol, bool) {
	for _, sym := range sh.Symbols {
		if sym.ID == id {
			return sym, true
		}
	}
	return domain.Symbol{}, false
}
