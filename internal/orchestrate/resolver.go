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

// Package orchestrate sequences the DOI and access-registry clients into the
// identifier-resolution protocol the completed stage uses to derive a
// dataset id, falling back to the deterministic URN form when no registered-
// DOI protocol is configured.
package orchestrate

import (
	"context"
	"fmt"

	"github.com/neicnordic/sda-orchestrator-go/internal/accessregistry"
	"github.com/neicnordic/sda-orchestrator-go/internal/doi"
	"github.com/neicnordic/sda-orchestrator-go/internal/identifiers"
)

// IdentifierResolver derives the dataset id for a completed event, either by
// running the full registered-DOI protocol or by falling back to the
// deterministic URN scheme.
type IdentifierResolver struct {
	doiClient     doi.Client
	accessClient  accessregistry.Client
	registeredDOI bool
}

// NewIdentifierResolver builds a resolver. registeredDOI is decided once at
// construction from the presence of all seven DOI/REMS environment
// variables; doiClient and accessClient may be nil when registeredDOI is
// false.
func NewIdentifierResolver(doiClient doi.Client, accessClient accessregistry.Client, registeredDOI bool) *IdentifierResolver {
	return &IdentifierResolver{doiClient: doiClient, accessClient: accessClient, registeredDOI: registeredDOI}
}

// Resolve returns the dataset id for (user, filepath). When the registered-
// DOI protocol is configured, it runs draft -> register -> publish in strict
// sequence and returns the full DOI; any failure in that sequence aborts the
// event and is returned wrapped (%w) with the failing step named, so the
// calling stage handler can attach it to a *broker.StageError. Otherwise it returns the deterministic
// URN form with no remote calls.
func (r *IdentifierResolver) Resolve(ctx context.Context, user, filepath string) (string, error) {
	if !r.registeredDOI {
		return identifiers.GenerateDatasetID(user, filepath), nil
	}

	draft, err := r.doiClient.CreateDraft(ctx, user, filepath)
	if err != nil {
		return "", fmt.Errorf("create doi draft: %w", err)
	}

	if _, err := r.accessClient.RegisterResource(ctx, draft.FullDOI); err != nil {
		return "", fmt.Errorf("register access resource for %s: %w", draft.FullDOI, err)
	}

	if err := r.doiClient.SetState(ctx, "publish", draft.Suffix); err != nil {
		return "", fmt.Errorf("publish doi %s: %w", draft.FullDOI, err)
	}

	return draft.FullDOI, nil
}
