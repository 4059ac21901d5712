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
	"errors"
	"testing"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

type fakePublisher struct {
	published []amqp091.Publishing
	keys      []string
}

func (f *fakePublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	return nil
}

func TestInboxHandler_UploadPublishesIngestTrigger(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewInboxHandler(v, pub, "sda", "ingest")

	body, _ := json.Marshal(map[string]any{
		"user":      "alice",
		"filepath":  "/ega/alice/f.c4gh",
		"operation": "upload",
	})

	if err := h.Handle(context.Background(), body, "corr-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.published))
	}
	if pub.keys[0] != "ingest" {
		t.Errorf("expected routing key ingest, got %q", pub.keys[0])
	}

	var trigger messages.IngestTrigger
	if err := json.Unmarshal(pub.published[0].Body, &trigger); err != nil {
		t.Fatalf("published body did not decode: %v", err)
	}
	if trigger.Type != "ingest" || trigger.User != "alice" || trigger.FilePath != "/ega/alice/f.c4gh" {
		t.Errorf("unexpected trigger: %+v", trigger)
	}
}

func TestInboxHandler_RenameProducesNoDownstreamMessage(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewInboxHandler(v, pub, "sda", "ingest")

	body, _ := json.Marshal(map[string]any{
		"user":      "alice",
		"filepath":  "/ega/alice/new.c4gh",
		"oldpath":   "/ega/alice/old.c4gh",
		"operation": "rename",
	})

	if err := h.Handle(context.Background(), body, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("expected no publish for rename, got %d", len(pub.published))
	}
}

func TestInboxHandler_RejectsInvalidPath(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewInboxHandler(v, pub, "sda", "ingest")

	body, _ := json.Marshal(map[string]any{
		"user":      "alice",
		"filepath":  "/ega/alice/..",
		"operation": "upload",
	})

	err := h.Handle(context.Background(), body, "")
	if err == nil {
		t.Fatal("expected path validation error")
	}
	var pathErr *errs.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected a *errs.PathError in the error chain, got %v", err)
	}
	if pathErr.FilePath != "/ega/alice/.." {
		t.Errorf("expected PathError to carry the offending path, got %q", pathErr.FilePath)
	}
	if len(pub.published) != 0 {
		t.Errorf("expected no publish for invalid path, got %d", len(pub.published))
	}
}

func TestInboxHandler_RejectsMissingRequiredField(t *testing.T) {
	v := schema.New()
	pub := &fakePublisher{}
	h := NewInboxHandler(v, pub, "sda", "ingest")

	body, _ := json.Marshal(map[string]any{
		"user":      "alice",
		"operation": "upload",
	})

	if err := h.Handle(context.Background(), body, ""); err == nil {
		t.Fatal("expected validation error for missing filepath")
	}
}
