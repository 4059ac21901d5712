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

package orchestrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neicnordic/sda-orchestrator-go/internal/accessregistry"
	"github.com/neicnordic/sda-orchestrator-go/internal/doi"
)

type fakeDOIClient struct {
	draft       *doi.Object
	draftErr    error
	setStateErr error

	calls []string
}

func (f *fakeDOIClient) CreateDraft(ctx context.Context, user, filepath string) (*doi.Object, error) {
	f.calls = append(f.calls, "draft")
	return f.draft, f.draftErr
}

func (f *fakeDOIClient) SetState(ctx context.Context, state, suffix string) error {
	f.calls = append(f.calls, "publish")
	return f.setStateErr
}

type fakeAccessClient struct {
	err   error
	calls []string
}

func (f *fakeAccessClient) RegisterResource(ctx context.Context, doi string) (*accessregistry.ResourceIDs, error) {
	f.calls = append(f.calls, "register")
	return &accessregistry.ResourceIDs{}, f.err
}

func TestResolve_FallbackWithoutRegisteredDOI(t *testing.T) {
	r := NewIdentifierResolver(nil, nil, false)

	id, err := r.Resolve(context.Background(), "alice", "/ega/alice/sub/f.c4gh")
	require.NoError(t, err)
	require.Equal(t, "urn:dir:ega", id)
}

func TestResolve_RegisteredDOIRunsInOrder(t *testing.T) {
	doiClient := &fakeDOIClient{draft: &doi.Object{Suffix: "abcd", FullDOI: "10.1234/abcd"}}
	accessClient := &fakeAccessClient{}
	r := NewIdentifierResolver(doiClient, accessClient, true)

	id, err := r.Resolve(context.Background(), "alice", "/ega/alice/f.c4gh")
	require.NoError(t, err)
	require.Equal(t, "10.1234/abcd", id)
	require.Equal(t, []string{"draft", "publish"}, doiClient.calls)
	require.Len(t, accessClient.calls, 1)
}

func TestResolve_AbortsOnAccessRegistryFailureWithoutPublishing(t *testing.T) {
	doiClient := &fakeDOIClient{draft: &doi.Object{Suffix: "abcd", FullDOI: "10.1234/abcd"}}
	accessClient := &fakeAccessClient{err: errors.New("registry down")}
	r := NewIdentifierResolver(doiClient, accessClient, true)

	_, err := r.Resolve(context.Background(), "alice", "/ega/alice/f.c4gh")
	require.Error(t, err)
	require.NotContains(t, doiClient.calls, "publish", "expected publish to never be called when registration fails")
}

func TestResolve_AbortsOnDraftFailure(t *testing.T) {
	doiClient := &fakeDOIClient{draftErr: errors.New("doi api down")}
	accessClient := &fakeAccessClient{}
	r := NewIdentifierResolver(doiClient, accessClient, true)

	_, err := r.Resolve(context.Background(), "alice", "/ega/alice/f.c4gh")
	require.Error(t, err)
	require.Empty(t, accessClient.calls, "expected access registry to never be called when draft fails")
}
