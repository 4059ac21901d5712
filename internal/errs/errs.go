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

// Package errs defines the typed error kinds the orchestrator distinguishes
// between at startup and per-message: a small struct carrying a
// classification, an Unwrap, and for HTTP-backed kinds a Retryable flag
// consumed by internal/retryutil.
package errs

import "fmt"

// ConfigError is a startup-fatal failure loading process or registry config.
type ConfigError struct {
	Msg        string
	Underlying error
}

func (e *ConfigError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("config error: %s: %v", e.Msg, e.Underlying)
	}
	return fmt.Sprintf("config error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// SchemaError is a startup-fatal failure loading or compiling a named schema.
type SchemaError struct {
	SchemaName string
	Underlying error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %v", e.SchemaName, e.Underlying)
}

func (e *SchemaError) Unwrap() error { return e.Underlying }

// ValidationError is a per-message failure: the decoded instance does not
// conform to its named schema.
type ValidationError struct {
	SchemaName string
	Underlying error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error against %s: %v", e.SchemaName, e.Underlying)
}

func (e *ValidationError) Unwrap() error { return e.Underlying }

// PathError is a per-message failure: an inbox upload path violates the
// path-syntax invariant.
type PathError struct {
	FilePath string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid inbox path: %q", e.FilePath)
}

// DOIErrorType classifies a DOIError for retry and logging purposes.
type DOIErrorType string

const (
	DOIErrorAuthentication DOIErrorType = "authentication"
	DOIErrorValidation     DOIErrorType = "validation"
	DOIErrorRateLimit      DOIErrorType = "rate_limit"
	DOIErrorNetwork        DOIErrorType = "network"
	DOIErrorAPI            DOIErrorType = "api"
)

// DOIError reports a failure talking to the DOI registration service.
type DOIError struct {
	Type       DOIErrorType
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *DOIError) Error() string {
	return fmt.Sprintf("doi %s error (HTTP %d): %s", e.Type, e.StatusCode, e.Message)
}

func (e *DOIError) Unwrap() error    { return e.Underlying }
func (e *DOIError) IsRetryable() bool { return e.Retryable }

// AccessRegistryError reports a failure talking to the access-management
// registry, including a create response that did not report success.
type AccessRegistryError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *AccessRegistryError) Error() string {
	return fmt.Sprintf("access registry error at %s (HTTP %d): %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *AccessRegistryError) Unwrap() error    { return e.Underlying }
func (e *AccessRegistryError) IsRetryable() bool { return e.Retryable }

// BrokerTransportError reports a failure connecting to or communicating with
// the message broker, driving the reconnect loop in internal/broker.
type BrokerTransportError struct {
	Msg        string
	Underlying error
}

func (e *BrokerTransportError) Error() string {
	return fmt.Sprintf("broker transport error: %s: %v", e.Msg, e.Underlying)
}

func (e *BrokerTransportError) Unwrap() error { return e.Underlying }
