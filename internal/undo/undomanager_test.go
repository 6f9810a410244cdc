/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerSheet: 10, MinInterval: 10 * time.Millisecond})
	sh := "main"
	m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("a"), TS: time.Now()})
	m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("b"), TS: time.Now().Add(20 * time.Millisecond)})
	if _, sheets, total := m.Stats(); sheets != 1 || total != 2 {
		t.Fatalf("expected 1 sheet and 2 snapshots, got sheets=%d total=%d", sheets, total)
	}
	s, ok := m.Undo(sh)
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo(sh)
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestCoalesce(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerSheet: 10, MinInterval: 50 * time.Millisecond})
	sh := "power"
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("1"), TS: t0})
	m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)}) // coalesce
	_, _, total := m.Stats()
	if total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo(sh)
	if !ok || string(s.Blob) != "2" {
		t.Fatalf("expected coalesced snapshot '2', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerSheet: 2, MinInterval: 1 * time.Millisecond})
	sh := "io"
	for i := 0; i < 10; i++ {
		m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("xxxxx"), TS: time.Now().Add(time.Duration(i) * time.Millisecond)})
	}
	_, _, total := m.Stats()
	if total > 2 {
		t.Fatalf("expected MaxPerSheet cap to limit to 2, got %d", total)
	}
}

func TestClearSheetAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxPerSheet: 10, MinInterval: time.Millisecond})
	sh := "ctrl"
	m.PushSnapshot(Snapshot{Sheet: sh, Blob: []byte("abcdef"), TS: time.Now()})
	tb, sheets, total := m.Stats()
	if tb == 0 || sheets != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d sheets=%d total=%d", tb, sheets, total)
	}
	m.ClearSheet(sh)
	tb2, sheets2, total2 := m.Stats()
	if tb2 != 0 || sheets2 != 0 || total2 != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d sheets=%d total=%d", tb2, sheets2, total2)
	}
}

func TestGlobalPruneAcrossSheets(t *testing.T) {
	// Very small MaxBytes so pruning triggers across sheets
	m := NewManager(Config{MaxBytes: 8, MaxPerSheet: 0, MinInterval: time.Millisecond})
	t0 := time.Now()
	// Sheet "a" older snapshot
	m.PushSnapshot(Snapshot{Sheet: "a", Blob: []byte("xxxx"), TS: t0})
	// Sheet "b" newer snapshot
	m.PushSnapshot(Snapshot{Sheet: "b", Blob: []byte("yyyy"), TS: t0.Add(time.Second)})

	// Add another snapshot to exceed cap and force prune of oldest sheet snapshot
	m.PushSnapshot(Snapshot{Sheet: "b", Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})

	// After pruning, oldest (sheet "a") should be removed
	_, sheets, total := m.Stats()
	if sheets == 0 || total == 0 {
		t.Fatalf("expected some snapshots to remain")
	}
	// Undo sheet "a" should now be empty
	if _, ok := m.Undo("a"); ok {
		t.Fatalf("expected sheet a to have been pruned")
	}
	// Undo sheet "b" should still work
	if _, ok := m.Undo("b"); !ok {
		t.Fatalf("expected sheet b to have snapshots")
	}
}
