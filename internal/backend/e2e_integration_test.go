/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"goschematic/internal/storage"
)

func TestE2EBackendSchemaAndSearch(t *testing.T) {
	db := openPGForTest(t)
	defer func() { _ = db.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Insert a project, a manifest version and a netlist version
	var pid int64
	if err := db.QueryRowContext(ctx, `INSERT INTO projects(name, description) VALUES($1,$2) RETURNING id`, "E2E Project", "demo").Scan(&pid); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	manifest := map[string]any{"name": "E2E Project", "sheets": []any{}}
	b, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO manifests(project_id, version, manifest) VALUES($1,$2,$3)`, pid, 1, string(b)); err != nil {
		t.Fatalf("insert manifest: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO netlists(project_id, version, netlist) VALUES($1,$2,$3)`, pid, 1, "netlist \"E2E Project\"\n"); err != nil {
		t.Fatalf("insert netlist: %v", err)
	}

	// Fetch latest versions the way the server routes do
	var ver int64
	var raw string
	if err := db.QueryRowContext(ctx, `SELECT version, manifest FROM manifests WHERE project_id=$1 ORDER BY version DESC, id DESC LIMIT 1`, pid).Scan(&ver, &raw); err != nil {
		t.Fatalf("select manifest: %v", err)
	}
	if ver != 1 || raw == "" {
		t.Fatalf("unexpected manifest ver=%d raw_empty=%v", ver, raw == "")
	}
	if err := db.QueryRowContext(ctx, `SELECT version, netlist FROM netlists WHERE project_id=$1 ORDER BY version DESC, id DESC LIMIT 1`, pid).Scan(&ver, &raw); err != nil {
		t.Fatalf("select netlist: %v", err)
	}
	if ver != 1 || raw == "" {
		t.Fatalf("unexpected netlist ver=%d", ver)
	}

	// Seed a document and search it end-to-end through SearchPG
	if _, err := db.ExecContext(ctx, `INSERT INTO documents(id, project_id, doc_type, external_ref, raw_text, sheet_name, ref) VALUES($1,$2,$3,$4,$5,$6,$7)`, 2001, pid, "symbol", "sheet:main/symbol:s1", "U7 opamp", "main", "U7"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}
	res, err := SearchPG(ctx, db, pid, storage.SearchQuery{Text: "opamp"})
	if err != nil {
		t.Fatalf("searchpg: %v", err)
	}
	if len(res) == 0 || res[0].DocID != 2001 {
		t.Fatalf("expected result doc 2001, got %+v", res)
	}
}
