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

package errs

import "net/http"

// ClassifyDOIError builds a DOIError from an HTTP status code and message:
// auth/validation/rate-limit buckets are never retried, 5xx is.
func ClassifyDOIError(statusCode int, message string) *DOIError {
	t, retryable := classify(statusCode)
	return &DOIError{Type: DOIErrorType(t), StatusCode: statusCode, Message: message, Retryable: retryable}
}

// ClassifyAccessRegistryError builds an AccessRegistryError the same way.
func ClassifyAccessRegistryError(endpoint string, statusCode int, message string) *AccessRegistryError {
	_, retryable := classify(statusCode)
	return &AccessRegistryError{Endpoint: endpoint, StatusCode: statusCode, Message: message, Retryable: retryable}
}

func classify(statusCode int) (errorType string, retryable bool) {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return string(DOIErrorAuthentication), false
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return string(DOIErrorValidation), false
	case statusCode == http.StatusTooManyRequests:
		return string(DOIErrorRateLimit), false
	case statusCode >= 500 && statusCode < 600:
		return string(DOIErrorAPI), true
	default:
		return string(DOIErrorAPI), false
	}
}

// NewDOINetworkError wraps a transport-level failure (dial/timeout) reaching
// the DOI service as a retryable DOIError.
func NewDOINetworkError(err error) *DOIError {
	return &DOIError{Type: DOIErrorNetwork, Message: err.Error(), Underlying: err, Retryable: true}
}

// NewAccessRegistryNetworkError wraps a transport-level failure reaching the
// access registry as a retryable AccessRegistryError.
func NewAccessRegistryNetworkError(endpoint string, err error) *AccessRegistryError {
	return &AccessRegistryError{Endpoint: endpoint, Message: err.Error(), Underlying: err, Retryable: true}
}
