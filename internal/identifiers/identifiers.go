// Copyright 2025 NeIC System Developers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package identifiers derives dataset and accession identifiers: pure
// functions, no I/O, deterministic where the protocol demands determinism.
package identifiers

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateDatasetID derives a deterministic dataset id from a user and an
// inbox path. With two or fewer path segments it falls back to a per-user
// default; otherwise it uses the first real directory component.
func GenerateDatasetID(user, inboxPath string) string {
	segments := strings.Split(inboxPath, "/")
	if len(segments) <= 2 {
		return "urn:default:" + user
	}
	if segments[0] == "" {
		return "urn:dir:" + segments[1]
	}
	return "urn:dir:" + segments[0]
}

// GenerateAccessionID returns a fresh, URN-form UUIDv4 accession identifier.
func GenerateAccessionID() string {
	return "urn:uuid:" + uuid.New().String()
}
