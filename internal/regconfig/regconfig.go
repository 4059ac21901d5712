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

// Package regconfig loads the access-registry organisational template: the
// organisation id, license text, workflow title, and form fields used when
// the orchestrator registers a dataset resource. This package deliberately
// stays on encoding/json alone -- it decodes a single well-known document
// shape once at startup (see DESIGN.md).
package regconfig

import (
	"embed"
	"encoding/json"
	"os"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
)

//go:embed default.json
var defaultFS embed.FS

// FormField describes one field of the access-registry application form.
type FormField struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
}

// OrgTemplate is the access-registry organisational template: every
// natural-key value the registry client needs to look up or create its
// sub-resources.
type OrgTemplate struct {
	Organization struct {
		ID        string `json:"id"`
		ShortName string `json:"short_name"`
		Name      string `json:"name"`
	} `json:"organization"`
	License struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"license"`
	Form struct {
		Title  string      `json:"title"`
		Fields []FormField `json:"fields"`
	} `json:"form"`
	Workflow struct {
		Title string `json:"title"`
	} `json:"workflow"`
}

// Load reads the organisational template from path, or from the packaged
// default document when path is empty.
func Load(path string) (*OrgTemplate, error) {
	var data []byte
	var err error

	if path == "" {
		data, err = defaultFS.ReadFile("default.json")
		if err != nil {
			return nil, &errs.ConfigError{Msg: "read packaged default access-registry template", Underlying: err}
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, &errs.ConfigError{Msg: "read access-registry template " + path, Underlying: err}
		}
	}

	var tmpl OrgTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, &errs.ConfigError{Msg: "parse access-registry template", Underlying: err}
	}
	if tmpl.Organization.ID == "" {
		return nil, &errs.ConfigError{Msg: "access-registry template missing organization.id"}
	}

	return &tmpl, nil
}
