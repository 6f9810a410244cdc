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
	"encoding/json"
	"testing"
	"time"

	"goschematic/internal/geometry"
	"goschematic/internal/wirenet"
)

func TestRecorderCapturesEngineChanges(t *testing.T) {
	um := NewManager(Config{MaxBytes: 1 << 20, MaxPerSheet: 100, MinInterval: time.Millisecond})
	wm := wirenet.NewManager(wirenet.Settings{})

	rec := NewRecorder(um, "main", func() []byte {
		wires, nets := wm.Records()
		blob, err := json.Marshal(struct {
			Wires []wirenet.WireRecord `json:"wires"`
			Nets  []wirenet.NetRecord  `json:"nets"`
		}{wires, nets})
		if err != nil {
			return nil
		}
		return blob
	})
	// Deterministic clock so no two events coalesce
	fake := time.Unix(0, 0)
	rec.now = func() time.Time {
		fake = fake.Add(time.Second)
		return fake
	}
	wm.SetObserver(rec)

	w := wm.CreateWire(geometry.P(0, 0))
	w.AppendPoint(geometry.P(100, 0))
	wm.MovePointTo(w.ID(), 1, geometry.P(100, 50))

	_, sheets, total := um.Stats()
	if sheets != 1 || total == 0 {
		t.Fatalf("expected snapshots on one sheet, got sheets=%d total=%d", sheets, total)
	}
	// Latest snapshot must decode back to the current engine state
	s, ok := um.Undo("main")
	if !ok {
		t.Fatalf("expected undo snapshot")
	}
	var got struct {
		Wires []wirenet.WireRecord `json:"wires"`
		Nets  []wirenet.NetRecord  `json:"nets"`
	}
	if err := json.Unmarshal(s.Blob, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(got.Wires) != 1 || len(got.Wires[0].Points) != 2 {
		t.Fatalf("unexpected captured wires: %+v", got.Wires)
	}
	last := got.Wires[0].Points[1]
	if last.X != 100 || last.Y != 50 {
		t.Fatalf("expected captured point (100,50), got (%v,%v)", last.X, last.Y)
	}
}
