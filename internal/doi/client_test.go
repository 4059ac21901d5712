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

package doi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*DataCiteClient, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewDataCiteClient(Config{
		BaseURL:  srv.URL,
		Prefix:   "10.1234",
		Username: "user",
		Password: "pass",
	}, nil)
	return c, srv.Close
}

func TestCreateDraft_Success(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/dois" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			t.Errorf("expected basic auth, got %q/%q ok=%v", user, pass, ok)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "10.1234/abcd-efgh", "type": "dois"},
		})
	})
	defer closeFn()

	obj, err := c.CreateDraft(context.Background(), "alice", "/ega/alice/f.c4gh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Suffix != "abcd-efgh" {
		t.Errorf("expected suffix abcd-efgh, got %q", obj.Suffix)
	}
	if obj.FullDOI != "10.1234/abcd-efgh" {
		t.Errorf("expected full doi 10.1234/abcd-efgh, got %q", obj.FullDOI)
	}
}

func TestCreateDraft_ClassifiesNonRetryableError(t *testing.T) {
	calls := 0
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid credentials"))
	})
	defer closeFn()

	_, err := c.CreateDraft(context.Background(), "alice", "/ega/alice/f.c4gh")
	if err == nil {
		t.Fatal("expected error")
	}
	var doiErr *errs.DOIError
	if !asDOIError(err, &doiErr) {
		t.Fatalf("expected *errs.DOIError, got %T", err)
	}
	if doiErr.Type != errs.DOIErrorAuthentication {
		t.Errorf("expected authentication error type, got %v", doiErr.Type)
	}
	if calls != 1 {
		t.Errorf("expected non-retryable error to stop after 1 call, got %d", calls)
	}
}

func TestCreateDraft_RetriesOnServerError(t *testing.T) {
	calls := 0
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "10.1234/retry-ok"},
		})
	})
	defer closeFn()

	obj, err := c.CreateDraft(context.Background(), "alice", "/ega/alice/f.c4gh")
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if obj.Suffix != "retry-ok" {
		t.Errorf("expected suffix retry-ok, got %q", obj.Suffix)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestSetState_PublishSuccess(t *testing.T) {
	var sawBody map[string]any
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/dois/abcd-efgh" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&sawBody)
		w.WriteHeader(http.StatusOK)
	})
	defer closeFn()

	if err := c.SetState(context.Background(), "publish", "abcd-efgh"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := sawBody["data"].(map[string]any)
	attrs := data["attributes"].(map[string]any)
	if attrs["event"] != "publish" {
		t.Errorf("expected event=publish in request body, got %v", attrs["event"])
	}
}

func asDOIError(err error, target **errs.DOIError) bool {
	de, ok := err.(*errs.DOIError)
	if ok {
		*target = de
	}
	return ok
}
