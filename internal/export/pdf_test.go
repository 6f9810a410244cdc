/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"

	"goschematic/internal/storage"
)

func TestExportProjectPDFCreatesFile(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	out := filepath.Join(root, "exports", "schematic.pdf")
	if err := ExportProjectPDF(ph, out, PDFOptions{IncludeGrid: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
}

func TestExportProjectPDFSheetFilter(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, sampleProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	// Unknown sheet names drop out of the filter; an empty result is an error.
	err = ExportProjectPDF(ph, filepath.Join(root, "out.pdf"), PDFOptions{Sheets: []string{"nope"}})
	if err == nil {
		t.Fatalf("expected error when no sheets match the filter")
	}
}
