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

package schema

import (
	"testing"
)

func TestValidate_AppliesDefault(t *testing.T) {
	v := New()
	instance := map[string]any{
		"user":      "alice",
		"filepath":  "/ega/alice/f.c4gh",
		"operation": "upload",
	}

	out, err := v.Validate("inbox-upload", instance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checksums, ok := out["encrypted_checksums"].([]any)
	if !ok {
		t.Fatalf("expected default encrypted_checksums to be materialised, got %T", out["encrypted_checksums"])
	}
	if len(checksums) != 0 {
		t.Errorf("expected empty default slice, got %v", checksums)
	}
}

func TestValidate_RejectsNonConforming(t *testing.T) {
	v := New()
	instance := map[string]any{
		"user": "alice",
		// missing filepath and operation
	}

	if _, err := v.Validate("inbox-upload", instance); err == nil {
		t.Error("expected validation error for missing required fields")
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	v := New()
	if _, err := v.Validate("does-not-exist", map[string]any{}); err == nil {
		t.Error("expected schema error for unknown schema name")
	}
}

func TestPreload_AllSchemas(t *testing.T) {
	v := New()
	err := v.Preload(
		"inbox-upload", "inbox-rename", "inbox-remove",
		"ingestion-trigger", "ingestion-accession-request", "ingestion-accession",
		"ingestion-completion", "dataset-mapping", "ingestion-user-error",
	)
	if err != nil {
		t.Fatalf("unexpected error preloading schemas: %v", err)
	}
}

func TestValidate_DoesNotOverrideProvidedValue(t *testing.T) {
	v := New()
	instance := map[string]any{
		"user":      "alice",
		"filepath":  "/ega/alice/f.c4gh",
		"operation": "upload",
		"encrypted_checksums": []any{
			map[string]any{"type": "sha256", "value": "abc"},
		},
	}

	out, err := v.Validate("inbox-upload", instance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksums := out["encrypted_checksums"].([]any)
	if len(checksums) != 1 {
		t.Errorf("expected provided value to be preserved, got %v", checksums)
	}
}
