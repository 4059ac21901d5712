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

// Package messages defines the tagged message variants that flow through the
// ingestion pipeline: one Go type per JSON Schema named in the orchestrator's
// external interfaces.
package messages

import "strings"

// Checksum is a single checksum entry carried on inbox and verification events.
type Checksum struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// InboxOperation is the discriminator for InboxEvent.Operation.
type InboxOperation string

const (
	OperationUpload InboxOperation = "upload"
	OperationRename InboxOperation = "rename"
	OperationRemove InboxOperation = "remove"
)

// InboxEvent is consumed from the inbox queue.
type InboxEvent struct {
	User                string         `json:"user"`
	FilePath            string         `json:"filepath"`
	OldPath             string         `json:"oldpath,omitempty"`
	Operation           InboxOperation `json:"operation"`
	EncryptedChecksums  []Checksum     `json:"encrypted_checksums,omitempty"`
}

// IngestTrigger is published to the ingest queue on a successful inbox upload.
type IngestTrigger struct {
	Type               string     `json:"type"`
	User               string     `json:"user"`
	FilePath           string     `json:"filepath"`
	EncryptedChecksums []Checksum `json:"encrypted_checksums,omitempty"`
}

// VerifiedEvent is consumed from the verified queue.
type VerifiedEvent struct {
	User              string     `json:"user"`
	FilePath          string     `json:"filepath"`
	DecryptedChecksums []Checksum `json:"decrypted_checksums"`
}

// AccessionRequest is published to the accessionIDs queue.
type AccessionRequest struct {
	Type               string     `json:"type"`
	User               string     `json:"user"`
	FilePath           string     `json:"filepath"`
	DecryptedChecksums []Checksum `json:"decrypted_checksums"`
	AccessionID        string     `json:"accession_id"`
}

// CompletedEvent is consumed from the completed queue.
type CompletedEvent struct {
	User               string     `json:"user"`
	FilePath           string     `json:"filepath"`
	AccessionID        string     `json:"accession_id"`
	DecryptedChecksums []Checksum `json:"decrypted_checksums"`
}

// MappingTrigger is published to the mappings queue.
type MappingTrigger struct {
	Type         string   `json:"type"`
	DatasetID    string   `json:"dataset_id"`
	AccessionIDs []string `json:"accession_ids"`
}

// ErrorRecord is published to the error queue whenever a stage handler fails.
type ErrorRecord struct {
	User               string     `json:"user"`
	FilePath           string     `json:"filepath"`
	Reason             string     `json:"reason"`
	EncryptedChecksums []Checksum `json:"encrypted_checksums,omitempty"`
	DecryptedChecksums []Checksum `json:"decrypted_checksums,omitempty"`
}

// ValidPath reports whether filepath is a syntactically valid inbox path: its
// final slash-separated segment must be non-empty and not "." or "..".
func ValidPath(filepath string) bool {
	segments := strings.Split(filepath, "/")
	last := segments[len(segments)-1]
	return last != "" && last != "." && last != ".."
}
