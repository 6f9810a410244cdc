package domain

import (
	"encoding/json"
	"testing"

	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

func TestProjectJSONRoundTrip(t *testing.T) {
	p := Project{
		Name: "RoundTrip",
		Sheets: []Sheet{
			{
				Name: "Sheet1",
				Grid: 10,
				Symbols: []Symbol{
					{
						ID:  "sym-1",
						Ref: "R1",
						Pos: geometry.P(100, 100),
						Pins: []Pin{
							{Name: "1", Offset: geometry.P(-20, 0)},
							{Name: "2", Offset: geometry.P(20, 0)},
						},
					},
				},
				Wires: []wirenet.WireRecord{
					{ID: 1, Points: []wirenet.PointRecord{{X: 0, Y: 0}, {X: 80, Y: 100}}},
				},
				Nets: []wirenet.NetRecord{{Name: "N1", Wires: []wirenet.WireID{1}}},
			},
		},
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != p.Name {
		t.Fatalf("name mismatch: got %q want %q", got.Name, p.Name)
	}
	if len(got.Sheets) != 1 || len(got.Sheets[0].Symbols) != 1 || len(got.Sheets[0].Wires) != 1 {
		t.Fatalf("unexpected sheet structure: %+v", got)
	}
	if got.Sheets[0].Nets[0].Name != "N1" {
		t.Fatalf("net name lost: %+v", got.Sheets[0].Nets)
	}
}

func TestSheetLookupHelpers(t *testing.T) {
	p := Project{Sheets: []Sheet{{Name: "Main", Symbols: []Symbol{{ID: "s1", Ref: "U1"}}}}}
	sheet, ok := p.SheetByName("Main")
	if !ok {
		t.Fatalf("sheet not found")
	}
	if _, ok := sheet.SymbolByRef("U1"); !ok {
		t.Fatalf("symbol not found by ref")
	}
	if _, ok := sheet.SymbolByRef("U9"); ok {
		t.Fatalf("unexpected symbol match")
	}
}

func TestRotateOffset(t *testing.T) {
	off := geometry.P(20, 0)
	cases := []struct {
		rot  int
		want geometry.Point
	}{
		{0, geometry.P(20, 0)},
		{90, geometry.P(0, 20)},
		{180, geometry.P(-20, 0)},
		{270, geometry.P(0, -20)},
		{-90, geometry.P(0, -20)},
		{450, geometry.P(0, 20)},
	}
	for _, c := range cases {
		if got := RotateOffset(off, c.rot); got != c.want {
			t.Fatalf("rotation %d: got %+v want %+v", c.rot, got, c.want)
		}
	}
}

func TestBuildManagerReconnects(t *testing.T) {
	sheet := Sheet{
		Name: "Main",
		Symbols: []Symbol{
			{ID: "sym-1", Ref: "U1", Pos: geometry.P(100, 0), Pins: []Pin{{Name: "A", Offset: geometry.P(0, 0)}}},
		},
		Wires: []wirenet.WireRecord{
			{ID: 1, Points: []wirenet.PointRecord{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			{ID: 2, Points: []wirenet.PointRecord{{X: 50, Y: 0, Junction: true}, {X: 50, Y: 100}}},
		},
		Nets: []wirenet.NetRecord{{Name: "N1", Wires: []wirenet.WireID{1, 2}}},
	}

	m := sheet.BuildManager(0)

	if m.NetOf(1) != m.NetOf(2) {
		t.Fatalf("junctioned wires must share a net after rebuild")
	}
	pins := m.Connectors()
	if len(pins) != 1 || !pins[0].Attached() {
		t.Fatalf("pin at wire endpoint must be attached after rebuild")
	}

	sheet.Capture(m)
	if len(sheet.Wires) != 2 || len(sheet.Nets) != 1 {
		t.Fatalf("capture lost records: %d wires, %d nets", len(sheet.Wires), len(sheet.Nets))
	}
}
