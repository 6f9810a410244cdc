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
	"time"

	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

// Recorder bridges the connectivity engine's change notifications to the undo
// manager. Registered as the engine's observer, it captures a state blob after
// every structural change; rapid-fire events (a drag emits one PointMoved per
// frame) collapse into a single snapshot via the manager's MinInterval.
//
// The capture function serializes whatever the caller wants restored on undo,
// typically the sheet's wire and net records.
type Recorder struct {
	wirenet.NopObserver

	mgr     *Manager
	sheet   string
	capture func() []byte
	now     func() time.Time
}

// NewRecorder returns a Recorder pushing snapshots for the named sheet.
// capture must be safe to call from whatever goroutine drives the engine.
func NewRecorder(mgr *Manager, sheet string, capture func() []byte) *Recorder {
	return &Recorder{mgr: mgr, sheet: sheet, capture: capture, now: time.Now}
}

func (r *Recorder) snapshot() {
	if r.mgr == nil || r.capture == nil {
		return
	}
	blob := r.capture()
	if blob == nil {
		return
	}
	r.mgr.PushSnapshot(Snapshot{Sheet: r.sheet, Blob: blob, TS: r.now()})
}

func (r *Recorder) WireAdded(wirenet.WireID)   { r.snapshot() }
func (r *Recorder) WireRemoved(wirenet.WireID) { r.snapshot() }

func (r *Recorder) NetsMerged(*wirenet.Net, *wirenet.Net) { r.snapshot() }
func (r *Recorder) NetRemoved(*wirenet.Net)               { r.snapshot() }

func (r *Recorder) PointMoved(wirenet.WireID, int, geometry.Point, geometry.Point) { r.snapshot() }
func (r *Recorder) JunctionChanged(wirenet.WireID, int, bool)                      { r.snapshot() }

func (r *Recorder) ConnectorAttached(*wirenet.Connector, wirenet.WireID, int) { r.snapshot() }
func (r *Recorder) ConnectorDetached(*wirenet.Connector, wirenet.WireID, int) { r.snapshot() }
