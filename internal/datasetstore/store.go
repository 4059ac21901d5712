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

// Package datasetstore abstracts the file-to-dataset mapping record the
// completed stage writes once a mapping has been published. The real
// ingestion pipeline backs this with Postgres; this package only defines the
// port and an in-memory implementation, so the orchestration logic in
// internal/stage never depends on a concrete database driver.
package datasetstore

import (
	"context"
	"sync"
	"time"
)

// Record is one dataset_id -> accession_ids mapping, recorded once per
// successful completed-event publish and idempotent on DatasetID: recording
// again for the same dataset id appends any new accession ids rather than
// duplicating the record.
type Record struct {
	DatasetID    string
	AccessionIDs []string
	RecordedAt   time.Time
}

// Store records dataset-to-accession mappings. Implementations must make
// Record idempotent on datasetID.
type Store interface {
	Record(ctx context.Context, datasetID, accessionID string, recordedAt time.Time) error
	Get(ctx context.Context, datasetID string) (*Record, bool)
}

// MemoryStore is an in-memory Store, used in tests and in deployments that
// only need the broker-visible side effects of the mapping stage.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Record appends accessionID to datasetID's record, creating it if absent,
// and is a no-op if accessionID is already present.
func (s *MemoryStore) Record(_ context.Context, datasetID, accessionID string, recordedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[datasetID]
	if !ok {
		rec = &Record{DatasetID: datasetID, RecordedAt: recordedAt}
		s.records[datasetID] = rec
	}
	for _, existing := range rec.AccessionIDs {
		if existing == accessionID {
			return nil
		}
	}
	rec.AccessionIDs = append(rec.AccessionIDs, accessionID)
	return nil
}

// Get returns the record for datasetID, if any.
func (s *MemoryStore) Get(_ context.Context, datasetID string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[datasetID]
	if !ok {
		return nil, false
	}
	cp := *rec
	cp.AccessionIDs = append([]string(nil), rec.AccessionIDs...)
	return &cp, true
}
