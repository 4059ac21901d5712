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

// Package accessregistry registers dataset resources -- and their
// supporting organisation/license/form/workflow/catalogue-item objects -- in
// an external access-management registry, composing each sub-resource
// behind one entrypoint with idempotent lookup-then-create semantics.
package accessregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
	"github.com/neicnordic/sda-orchestrator-go/internal/regconfig"
	"github.com/neicnordic/sda-orchestrator-go/internal/retryutil"
)

// ResourceIDs names every sub-resource RegisterResource either found or
// created, keyed by the composite natural key.
type ResourceIDs struct {
	OrganizationID string
	LicenseID      string
	FormID         string
	WorkflowID     string
	ResourceID     string
	CatalogueItemID string
}

// Client composes organisation, license, form, workflow, resource, and
// catalogue-item sub-resources for a dataset DOI, idempotently.
type Client interface {
	RegisterResource(ctx context.Context, doi string) (*ResourceIDs, error)
}

// Config configures the REMS-style registry client.
type Config struct {
	BaseURL  string
	APIKey   string
	UserID   string
	Template *regconfig.OrgTemplate
}

// RegistryClient is the HTTP adapter talking to the access-management API.
type RegistryClient struct {
	cfg        Config
	httpClient *http.Client
	retry      retryutil.Config
	log        *zap.Logger
}

// NewRegistryClient builds a RegistryClient from cfg.
func NewRegistryClient(cfg Config, log *zap.Logger) *RegistryClient {
	return &RegistryClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retryutil.DefaultConfig(),
		log:        log,
	}
}

// RegisterResource composes the organisation, license, form, workflow,
// resource, and catalogue-item sub-resources for doi in that fixed order.
// Every step lists existing sub-resources first and only creates one on a
// miss, so calling RegisterResource twice against the same state performs
// exactly one create per sub-resource.
func (c *RegistryClient) RegisterResource(ctx context.Context, doi string) (*ResourceIDs, error) {
	tmpl := c.cfg.Template
	ids := &ResourceIDs{}

	orgID, err := c.ensureOrganization(ctx, tmpl.Organization.ID, tmpl.Organization.ShortName, tmpl.Organization.Name)
	if err != nil {
		return nil, err
	}
	ids.OrganizationID = orgID

	licenseID, err := c.ensureLicense(ctx, orgID, tmpl.License.Title, tmpl.License.URL)
	if err != nil {
		return nil, err
	}
	ids.LicenseID = licenseID

	formID, err := c.ensureForm(ctx, orgID, tmpl.Form.Title, tmpl.Form.Fields)
	if err != nil {
		return nil, err
	}
	ids.FormID = formID

	workflowID, err := c.ensureWorkflow(ctx, orgID, tmpl.Workflow.Title)
	if err != nil {
		return nil, err
	}
	ids.WorkflowID = workflowID

	resourceID, err := c.ensureResource(ctx, orgID, doi, licenseID)
	if err != nil {
		return nil, err
	}
	ids.ResourceID = resourceID

	itemID, err := c.ensureCatalogueItem(ctx, doi, formID, resourceID, workflowID)
	if err != nil {
		return nil, err
	}
	ids.CatalogueItemID = itemID

	return ids, nil
}

func (c *RegistryClient) ensureOrganization(ctx context.Context, id, shortName, name string) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/organizations", &list); err != nil {
		return "", err
	}
	for _, org := range list {
		if orgID, _ := org["id"].(string); orgID == id {
			return id, nil
		}
	}

	payload := map[string]any{
		"id":        id,
		"shortName": shortName,
		"name":      name,
		"owner":     []string{c.cfg.UserID},
	}
	if _, err := c.create(ctx, "/api/organizations/create", payload); err != nil {
		return "", err
	}
	return id, nil
}

func (c *RegistryClient) ensureLicense(ctx context.Context, orgID, title, url string) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/licenses", &list); err != nil {
		return "", err
	}
	for _, lic := range list {
		if !sameOrg(lic, orgID) {
			continue
		}
		if licenseTitle(lic) == title {
			return idOf(lic)
		}
	}

	payload := map[string]any{
		"organization": map[string]string{"organization/id": orgID},
		"licensetype":  "link",
		"localizations": map[string]any{
			"en": map[string]string{"title": title, "textcontent": url},
		},
	}
	return c.create(ctx, "/api/licenses/create", payload)
}

func (c *RegistryClient) ensureForm(ctx context.Context, orgID, title string, fields []regconfig.FormField) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/forms", &list); err != nil {
		return "", err
	}
	for _, form := range list {
		if !sameOrg(form, orgID) {
			continue
		}
		if formTitle, _ := form["form/title"].(string); formTitle == title {
			return idOf(form)
		}
	}

	items := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		items = append(items, map[string]any{
			"field/title":    map[string]string{"en": f.Title},
			"field/type":     f.Type,
			"field/optional": f.Optional,
		})
	}
	payload := map[string]any{
		"organization": map[string]string{"organization/id": orgID},
		"form/title":   title,
		"form/fields":  items,
	}
	return c.create(ctx, "/api/forms/create", payload)
}

func (c *RegistryClient) ensureWorkflow(ctx context.Context, orgID, title string) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/workflows", &list); err != nil {
		return "", err
	}
	for _, wf := range list {
		if !sameOrg(wf, orgID) {
			continue
		}
		if wfTitle, _ := wf["title"].(string); wfTitle == title {
			return idOf(wf)
		}
	}

	payload := map[string]any{
		"organization": map[string]string{"organization/id": orgID},
		"title":        title,
		"type":         "workflow/default",
		"handlers":     []string{c.cfg.UserID},
	}
	return c.create(ctx, "/api/workflows/create", payload)
}

func (c *RegistryClient) ensureResource(ctx context.Context, orgID, doi, licenseID string) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/resources", &list); err != nil {
		return "", err
	}
	for _, res := range list {
		if !sameOrg(res, orgID) {
			continue
		}
		if resID, _ := res["resid"].(string); resID == doi {
			return idOf(res)
		}
	}

	payload := map[string]any{
		"organization": map[string]string{"organization/id": orgID},
		"resid":        doi,
		"licenses":     []string{licenseID},
	}
	return c.create(ctx, "/api/resources/create", payload)
}

func (c *RegistryClient) ensureCatalogueItem(ctx context.Context, doi, formID, resourceID, workflowID string) (string, error) {
	var list []map[string]any
	if err := c.get(ctx, "/api/catalogue-items", &list); err != nil {
		return "", err
	}
	// A listed item's resid is either the resource's external id (the doi)
	// or the resource id this client sent as resid on create.
	for _, item := range list {
		if resID, _ := item["resid"].(string); resID == doi || resID == resourceID {
			return idOf(item)
		}
	}

	payload := map[string]any{
		"form":      formID,
		"resid":     resourceID,
		"wfid":      workflowID,
		"localizations": map[string]any{
			"en": map[string]string{
				"title":   "Catalogue item for resource " + doi,
				"infourl": doi,
			},
		},
	}
	return c.create(ctx, "/api/catalogue-items/create", payload)
}

func sameOrg(obj map[string]any, orgID string) bool {
	org, ok := obj["organization"].(map[string]any)
	if !ok {
		return false
	}
	id, _ := org["organization/id"].(string)
	return id == orgID
}

func licenseTitle(lic map[string]any) string {
	loc, ok := lic["localizations"].(map[string]any)
	if !ok {
		return ""
	}
	en, ok := loc["en"].(map[string]any)
	if !ok {
		return ""
	}
	title, _ := en["title"].(string)
	return title
}

func idOf(obj map[string]any) (string, error) {
	switch v := obj["id"].(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return "", fmt.Errorf("sub-resource missing id field: %v", obj)
	}
}

func (c *RegistryClient) get(ctx context.Context, path string, out any) error {
	return retryutil.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
		if err != nil {
			return fmt.Errorf("build registry request: %w", err)
		}
		c.setAuthHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errs.NewAccessRegistryNetworkError(path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return errs.ClassifyAccessRegistryError(path, resp.StatusCode, string(body))
		}
		if len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, out)
	})
}

type createResponse struct {
	Success bool `json:"success"`
	ID      any  `json:"id"`
}

func (c *RegistryClient) create(ctx context.Context, path string, payload map[string]any) (string, error) {
	var id string

	err := retryutil.Do(ctx, c.retry, func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal registry payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build registry request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.setAuthHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errs.NewAccessRegistryNetworkError(path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			if c.log != nil {
				c.log.Error("access registry create failed",
					zap.String("path", path), zap.Int("status", resp.StatusCode))
			}
			return errs.ClassifyAccessRegistryError(path, resp.StatusCode, string(respBody))
		}

		var decoded createResponse
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return &errs.AccessRegistryError{Endpoint: path, StatusCode: resp.StatusCode, Message: "malformed create response", Underlying: err}
		}
		if !decoded.Success {
			return &errs.AccessRegistryError{Endpoint: path, StatusCode: resp.StatusCode, Message: "create reported success=false"}
		}

		switch v := decoded.ID.(type) {
		case string:
			id = v
		case float64:
			id = fmt.Sprintf("%.0f", v)
		default:
			return &errs.AccessRegistryError{Endpoint: path, StatusCode: resp.StatusCode, Message: "create response missing id"}
		}
		return nil
	})

	return id, err
}

func (c *RegistryClient) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-rems-api-key", c.cfg.APIKey)
	req.Header.Set("x-rems-user-id", c.cfg.UserID)
}
