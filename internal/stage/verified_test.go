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

package stage

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

func TestVerifiedHandler_PublishesAccessionRequest(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewVerifiedHandler(v, pub, "sda", "accessionIDs")

	body, _ := json.Marshal(map[string]any{
		"user":     "alice",
		"filepath": "/ega/alice/f.c4gh",
		"decrypted_checksums": []map[string]string{
			{"type": "sha256", "value": "abc123"},
		},
	})

	if err := h.Handle(context.Background(), body, "corr-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.published))
	}

	var req messages.AccessionRequest
	if err := json.Unmarshal(pub.published[0].Body, &req); err != nil {
		t.Fatalf("published body did not decode: %v", err)
	}
	if req.Type != "accession" || req.User != "alice" {
		t.Errorf("unexpected accession request: %+v", req)
	}
	if !regexp.MustCompile(`^urn:uuid:[0-9a-f-]{36}$`).MatchString(req.AccessionID) {
		t.Errorf("expected urn:uuid accession id, got %q", req.AccessionID)
	}
}

func TestVerifiedHandler_RejectsMissingChecksums(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewVerifiedHandler(v, pub, "sda", "accessionIDs")

	body, _ := json.Marshal(map[string]any{
		"user":     "alice",
		"filepath": "/ega/alice/f.c4gh",
	})

	if err := h.Handle(context.Background(), body, ""); err == nil {
		t.Fatal("expected validation error for missing decrypted_checksums")
	}
}
