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

package identifiers

import (
	"regexp"
	"testing"
)

func TestGenerateDatasetID_ShortPath(t *testing.T) {
	got := GenerateDatasetID("alice", "/f.c4gh")
	want := "urn:default:alice"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateDatasetID_AbsoluteDir(t *testing.T) {
	got := GenerateDatasetID("u", "/a/b/c")
	want := "urn:dir:a"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateDatasetID_RelativeDir(t *testing.T) {
	got := GenerateDatasetID("u", "a/b/c")
	want := "urn:dir:a"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateDatasetID_Deterministic(t *testing.T) {
	a := GenerateDatasetID("alice", "/ega/alice/sub/f.c4gh")
	b := GenerateDatasetID("alice", "/ega/alice/sub/f.c4gh")
	if a != b {
		t.Errorf("expected deterministic output, got %q and %q", a, b)
	}
}

func TestGenerateAccessionID_Shape(t *testing.T) {
	re := regexp.MustCompile(`^urn:uuid:[0-9a-f-]{36}$`)
	id := GenerateAccessionID()
	if !re.MatchString(id) {
		t.Errorf("accession id %q does not match expected shape", id)
	}
}

func TestGenerateAccessionID_Unique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := GenerateAccessionID()
		if seen[id] {
			t.Fatalf("duplicate accession id generated: %s", id)
		}
		seen[id] = true
	}
}
