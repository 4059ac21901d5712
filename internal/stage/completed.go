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
	"time"

	"github.com/neicnordic/sda-orchestrator-go/internal/broker"
	"github.com/neicnordic/sda-orchestrator-go/internal/datasetstore"
	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/orchestrate"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// CompletedHandler consumes completed events, resolves a dataset id via the
// identifier orchestration protocol, publishes a MappingTrigger, and then
// records the dataset/accession mapping.
type CompletedHandler struct {
	validator      *schema.Validator
	publisher      Publisher
	resolver       *orchestrate.IdentifierResolver
	store          datasetstore.Store
	exchange       string
	mappingsQueue  string
}

// NewCompletedHandler builds a CompletedHandler.
func NewCompletedHandler(v *schema.Validator, pub Publisher, resolver *orchestrate.IdentifierResolver, store datasetstore.Store, exchange, mappingsQueue string) *CompletedHandler {
	return &CompletedHandler{validator: v, publisher: pub, resolver: resolver, store: store, exchange: exchange, mappingsQueue: mappingsQueue}
}

// Handle implements broker.Handler.
func (h *CompletedHandler) Handle(ctx context.Context, body []byte, correlationID string) error {
	raw, err := decodeInstance(body)
	if err != nil {
		return &broker.StageError{Reason: "decode completed event", Underlying: err}
	}

	validated, err := h.validator.Validate("ingestion-completion", raw)
	if err != nil {
		return &broker.StageError{Reason: "validate completed event", Underlying: err}
	}

	var event messages.CompletedEvent
	if err := decodeInto(validated, &event); err != nil {
		return &broker.StageError{Reason: "decode validated completed event", Underlying: err}
	}

	datasetID, err := h.resolver.Resolve(ctx, event.User, event.FilePath)
	if err != nil {
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "resolve dataset identifier",
			DecryptedChecksums: event.DecryptedChecksums,
			Underlying:         err,
		}
	}

	mapping := messages.MappingTrigger{
		Type:         "mapping",
		DatasetID:    datasetID,
		AccessionIDs: []string{event.AccessionID},
	}

	if err := publishJSON(h.validator, h.publisher, "dataset-mapping", mapping, h.exchange, h.mappingsQueue, correlationID); err != nil {
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "publish dataset mapping",
			DecryptedChecksums: event.DecryptedChecksums,
			Underlying:         err,
		}
	}

	if err := h.store.Record(ctx, datasetID, event.AccessionID, time.Now()); err != nil {
		return &broker.StageError{
			User:               event.User,
			FilePath:           event.FilePath,
			Reason:             "record dataset mapping",
			DecryptedChecksums: event.DecryptedChecksums,
			Underlying:         err,
		}
	}

	return nil
}
