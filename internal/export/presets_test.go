/*
 * Copyright (c) 2025
 */
package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goschematic/internal/storage"
)

func TestBatchExportWebPreset(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := BatchExport(ph, BatchOptions{Preset: PresetWeb}); err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "web", "png", "sheet-main.png"),
		filepath.Join(root, "exports", "web", "svg", "sheet-main.svg"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExportPrintPreset(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := BatchExport(ph, BatchOptions{Preset: PresetPrint}); err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "print", "schematic.pdf"),
		filepath.Join(root, "exports", "print", "schematic.net"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestGenerateNetlistListsAttachedPins(t *testing.T) {
	proj := sampleProject()
	out := GenerateNetlist(&proj)
	if !strings.Contains(out, "net VCC") {
		t.Fatalf("netlist missing named net:\n%s", out)
	}
	// Pin 1 of R1 sits on the end of wire 1 (net VCC).
	if !strings.Contains(out, "R1.1") {
		t.Fatalf("netlist missing R1.1 attachment:\n%s", out)
	}
	// Pin 2 resolves to (100,40), the start of wire 2 on the anonymous net.
	if !strings.Contains(out, "R1.2") {
		t.Fatalf("netlist missing R1.2 attachment:\n%s", out)
	}
	if !strings.Contains(out, `sheet "main"`) {
		t.Fatalf("netlist missing sheet header:\n%s", out)
	}
}
