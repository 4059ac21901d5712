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

	"github.com/neicnordic/sda-orchestrator-go/internal/broker"
	"github.com/neicnordic/sda-orchestrator-go/internal/identifiers"
	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// VerifiedHandler consumes verified events, generates an accession id, and
// publishes an AccessionRequest.
type VerifiedHandler struct {
	validator         *schema.Validator
	publisher         Publisher
	exchange          string
	accessionIDsQueue string
}

// NewVerifiedHandler builds a VerifiedHandler.
func NewVerifiedHandler(v *schema.Validator, pub Publisher, exchange, accessionIDsQueue string) *VerifiedHandler {
	return &VerifiedHandler{validator: v, publisher: pub, exchange: exchange, accessionIDsQueue: accessionIDsQueue}
}

// Handle implements broker.Handler.
func (h *VerifiedHandler) Handle(ctx context.Context, body []byte, correlationID string) error {
	raw, err := decodeInstance(body)
	if err != nil {
		return &broker.StageError{Reason: "decode verified event", Underlying: err}
	}

	validated, err := h.validator.Validate("ingestion-accession-request", raw)
	if err != nil {
		return &broker.StageError{Reason: "validate verified event", Underlying: err}
	}

	var event messages.VerifiedEvent
	if err := decodeInto(validated, &event); err != nil {
		return &broker.StageError{Reason: "decode validated verified event", Underlying: err}
	}

	request := messages.AccessionRequest{
		Type:               "accession",
		User:               event.User,
		FilePath:           event.FilePath,
		DecryptedChecksums: event.DecryptedChecksums,
		AccessionID:        identifiers.GenerateAccessionID(),
	}

	if err := publishJSON(h.validator, h.publisher, "ingestion-accession", request, h.exchange, h.accessionIDsQueue, correlationID); err != nil {
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "publish accession request",
			DecryptedChecksums: event.DecryptedChecksums,
			Underlying:         err,
		}
	}

	return nil
}
