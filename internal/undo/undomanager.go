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
	"sync"
	"time"
)

// Snapshot represents a reversible state blob for a sheet.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// TS is when the snapshot was captured.
type Snapshot struct {
	Sheet string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerSheet limits number of snapshots per sheet kept in memory (0 means unlimited).
	MaxPerSheet int
	// MinInterval coalesces snapshots captured within the interval for the same sheet,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per sheet with performance safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-sheet stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// PushSnapshot records a snapshot for a sheet. If within MinInterval from the last
// snapshot on the same sheet, it replaces the last one. Clears redo stack for that sheet.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Sheet]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[s.Sheet] = stack
			m.redo[s.Sheet] = nil
			m.enforceCapsLocked(s.Sheet)
			return
		}
	}
	// Push new
	stack = append(stack, s)
	m.undo[s.Sheet] = stack
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the sheet
	m.redo[s.Sheet] = nil
	m.enforceCapsLocked(s.Sheet)
}

// Undo pops from the sheet undo stack and pushes to redo stack, returning the snapshot.
func (m *Manager) Undo(sheet string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[sheet]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[sheet] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[sheet] = append(m.redo[sheet], s)
	return s, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(sheet string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[sheet]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[sheet] = r[:len(r)-1]
	m.undo[sheet] = append(m.undo[sheet], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(sheet)
	return s, true
}

// ClearSheet clears undo/redo stacks for a sheet to free memory.
func (m *Manager) ClearSheet(sheet string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[sheet] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, sheet)
	delete(m.redo, sheet)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, sheets int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sheets = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, sheets, totalSnapshots
}

func (m *Manager) enforceCapsLocked(sheet string) {
	// Per-sheet depth cap
	if m.cfg.MaxPerSheet > 0 {
		stack := m.undo[sheet]
		if len(stack) > m.cfg.MaxPerSheet {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerSheet
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[sheet] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all sheets
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestSheet := ""
		oldestIdx := -1
		var oldestTS time.Time
		for sh, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestSheet = sh
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestSheet]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestSheet] = stack[1:]
		if len(m.undo[oldestSheet]) == 0 {
			delete(m.undo, oldestSheet)
		}
	}
}
