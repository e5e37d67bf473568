package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

// MemoryStore is an in-memory Store for tests and dry runs. It mirrors the
// Mongo semantics: lookups miss with (nil, nil), inserts reject duplicate
// natural keys, updates report their match count.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*planning.CaseRecord

	// Inserts and Updates count mutations for assertions in tests.
	Inserts int
	Updates int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*planning.CaseRecord)}
}

func recordKey(council, reference string) string {
	return council + "\x00" + reference
}

// FindByReference returns a copy of the stored record, if any.
func (s *MemoryStore) FindByReference(_ context.Context, council, reference string) (*planning.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey(council, reference)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// FindByReferenceWithDecision filters to records carrying a decision notice.
func (s *MemoryStore) FindByReferenceWithDecision(ctx context.Context, council, reference string) (*planning.CaseRecord, error) {
	rec, err := s.FindByReference(ctx, council, reference)
	if err != nil || rec == nil {
		return nil, err
	}
	if !rec.HasDocument(planning.DocDecisionNotice) {
		return nil, nil
	}
	return rec, nil
}

// Insert stores a new record, rejecting duplicate (council, reference) keys
// the way the unique index would.
func (s *MemoryStore) Insert(_ context.Context, rec *planning.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(rec.Council, rec.Summary.Reference)
	if _, exists := s.records[key]; exists {
		return fmt.Errorf("duplicate key: %s %s", rec.Council, rec.Summary.Reference)
	}
	s.records[key] = cloneRecord(rec)
	s.Inserts++
	return nil
}

// UpdateByReference applies the merge-update fields and reports matches.
func (s *MemoryStore) UpdateByReference(_ context.Context, council, reference string, upd CaseUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey(council, reference)]
	if !ok {
		return 0, nil
	}
	rec.Summary = upd.Summary
	rec.FurtherInformation = upd.FurtherInformation
	rec.AgentDetails = upd.AgentDetails
	rec.Documents = append([]planning.DocumentRef(nil), upd.Documents...)
	rec.UpdatedAt = upd.UpdatedAt
	rec.UpdatedBy = upd.UpdatedBy
	s.Updates++
	return 1, nil
}

// Close implements Store; it performs no action.
func (s *MemoryStore) Close(context.Context) error { return nil }

func cloneRecord(rec *planning.CaseRecord) *planning.CaseRecord {
	clone := *rec
	clone.Documents = append([]planning.DocumentRef(nil), rec.Documents...)
	return &clone
}
