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
	"fmt"

	"github.com/neicnordic/sda-orchestrator-go/internal/broker"
	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// InboxHandler consumes inbox events and, for uploads, publishes an
// IngestTrigger. Renames and removes are validated and acknowledged but
// produce no downstream message.
type InboxHandler struct {
	validator  *schema.Validator
	publisher  Publisher
	exchange   string
	ingestQueue string
}

// NewInboxHandler builds an InboxHandler.
func NewInboxHandler(v *schema.Validator, pub Publisher, exchange, ingestQueue string) *InboxHandler {
	return &InboxHandler{validator: v, publisher: pub, exchange: exchange, ingestQueue: ingestQueue}
}

// Handle implements broker.Handler.
func (h *InboxHandler) Handle(ctx context.Context, body []byte, correlationID string) error {
	raw, err := decodeInstance(body)
	if err != nil {
		return &broker.StageError{Reason: "decode inbox event", Underlying: err}
	}

	operation, _ := raw["operation"].(string)
	schemaName, err := inboxSchemaFor(operation)
	if err != nil {
		return &broker.StageError{Reason: err.Error()}
	}

	validated, err := h.validator.Validate(schemaName, raw)
	if err != nil {
		return &broker.StageError{Reason: "validate inbox event", Underlying: err}
	}

	var event messages.InboxEvent
	if err := decodeInto(validated, &event); err != nil {
		return &broker.StageError{Reason: "decode validated inbox event", Underlying: err}
	}
	event.Operation = messages.InboxOperation(operation)

	if event.Operation != messages.OperationUpload {
		return nil
	}

	if !messages.ValidPath(event.FilePath) {
		pathErr := &errs.PathError{FilePath: event.FilePath}
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "invalid inbox path",
			EncryptedChecksums: event.EncryptedChecksums,
			Underlying:         pathErr,
		}
	}

	trigger := messages.IngestTrigger{
		Type:               "ingest",
		User:               event.User,
		FilePath:           event.FilePath,
		EncryptedChecksums: event.EncryptedChecksums,
	}

	if err := publishJSON(h.validator, h.publisher, "ingestion-trigger", trigger, h.exchange, h.ingestQueue, correlationID); err != nil {
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "publish ingest trigger",
			EncryptedChecksums: event.EncryptedChecksums,
			Underlying:         err,
		}
	}

	return nil
}

func inboxSchemaFor(operation string) (string, error) {
	switch operation {
	case "upload":
		return "inbox-upload", nil
	case "rename":
		return "inbox-rename", nil
	case "remove":
		return "inbox-remove", nil
	default:
		return "", fmt.Errorf("unknown inbox operation %q", operation)
	}
}
