/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version holds build-time version metadata. The variables are
// overridden by the release build via -ldflags -X.
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the VCS revision the build was produced from.
	Commit = "unknown"
	// Date is the build timestamp in RFC3339.
	Date = "unknown"
)

// String returns a single-line human-readable version description.
func String() string {
	return fmt.Sprintf("goschematic %s (%s, built %s)", Version, Commit, Date)
}
