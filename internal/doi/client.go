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

// Package doi implements a DOI drafting and publication client: a draft now,
// publish later protocol against a DataCite-compatible registration API.
package doi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
	"github.com/neicnordic/sda-orchestrator-go/internal/retryutil"
)

// Object is the minimal DOI representation the orchestrator carries between
// drafting and publication.
type Object struct {
	Suffix  string
	FullDOI string
}

// Client drafts and publishes DOIs against a DataCite-compatible registration
// API.
type Client interface {
	CreateDraft(ctx context.Context, user, filepath string) (*Object, error)
	SetState(ctx context.Context, state, suffix string) error
}

// Config configures the DataCite-compatible client.
type Config struct {
	BaseURL  string
	Prefix   string
	Username string
	Password string
}

// DataCiteClient is the HTTP adapter talking to the configured DOI API.
type DataCiteClient struct {
	cfg        Config
	httpClient *http.Client
	retry      retryutil.Config
	log        *zap.Logger
}

// NewDataCiteClient builds a DataCiteClient from cfg with a 30-second HTTP
// timeout.
func NewDataCiteClient(cfg Config, log *zap.Logger) *DataCiteClient {
	return &DataCiteClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retryutil.DefaultConfig(),
		log:        log,
	}
}

type doiDocument struct {
	Data struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

// CreateDraft POSTs a draft DOI with minimal metadata derived from user and
// filepath, returning its suffix and full identifier. Any response other than
// 201 Created fails with a classified *errs.DOIError; only transport faults
// and 5xx responses are retried.
func (c *DataCiteClient) CreateDraft(ctx context.Context, user, filepath string) (*Object, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type": "dois",
			"attributes": map[string]any{
				"prefix": c.cfg.Prefix,
				"event":  "draft",
				"titles": []map[string]string{
					{"title": fmt.Sprintf("Dataset for %s: %s", user, filepath)},
				},
			},
		},
	}

	var doc doiDocument
	err := retryutil.Do(ctx, c.retry, func() error {
		var attemptErr error
		doc, attemptErr = c.post(ctx, "/dois", payload)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	suffix := doc.Data.ID
	if idx := strings.LastIndex(doc.Data.ID, "/"); idx >= 0 {
		suffix = doc.Data.ID[idx+1:]
	}

	return &Object{
		Suffix:  suffix,
		FullDOI: fmt.Sprintf("%s/%s", c.cfg.Prefix, suffix),
	}, nil
}

// SetState transitions a DOI, e.g. state="publish" to move a draft to
// findable. The identifier resolver only ever calls this with state="publish".
func (c *DataCiteClient) SetState(ctx context.Context, state, suffix string) error {
	payload := map[string]any{
		"data": map[string]any{
			"type": "dois",
			"attributes": map[string]any{
				"event": state,
			},
		},
	}

	return retryutil.Do(ctx, c.retry, func() error {
		_, err := c.put(ctx, "/dois/"+suffix, payload)
		return err
	})
}

func (c *DataCiteClient) post(ctx context.Context, path string, payload map[string]any) (doiDocument, error) {
	return c.do(ctx, http.MethodPost, path, payload, http.StatusCreated)
}

func (c *DataCiteClient) put(ctx context.Context, path string, payload map[string]any) (doiDocument, error) {
	return c.do(ctx, http.MethodPut, path, payload, http.StatusOK)
}

func (c *DataCiteClient) do(ctx context.Context, method, path string, payload map[string]any, wantStatus int) (doiDocument, error) {
	var doc doiDocument

	body, err := json.Marshal(payload)
	if err != nil {
		return doc, fmt.Errorf("marshal doi request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return doc, fmt.Errorf("build doi request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Content-Type", "application/vnd.api+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return doc, errs.NewDOINetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != wantStatus {
		if c.log != nil {
			c.log.Error("doi api request failed",
				zap.String("path", path), zap.Int("status", resp.StatusCode))
		}
		return doc, errs.ClassifyDOIError(resp.StatusCode, string(respBody))
	}

	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &doc); err != nil {
			return doc, fmt.Errorf("decode doi response: %w", err)
		}
	}

	return doc, nil
}
