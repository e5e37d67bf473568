package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

func newRecord(reference string, docs ...planning.DocumentRef) *planning.CaseRecord {
	return &planning.CaseRecord{
		Council:   "Leeds",
		Summary:   planning.Summary{Reference: reference},
		Documents: docs,
	}
}

func TestMemoryStore_FindMissesReturnNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.FindByReference(ctx, "Leeds", "24/00001/FU")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = s.FindByReferenceWithDecision(ctx, "Leeds", "24/00001/FU")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newRecord("24/00001/FU")))
	assert.Error(t, s.Insert(ctx, newRecord("24/00001/FU")), "duplicate natural key must be rejected")

	rec, err := s.FindByReference(ctx, "Leeds", "24/00001/FU")
	require.NoError(t, err)
	require.NotNil(t, rec)

	// A record without a decision notice is invisible to the decision lookup.
	rec, err = s.FindByReferenceWithDecision(ctx, "Leeds", "24/00001/FU")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_FindWithDecision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newRecord("24/00002/FU",
		planning.DocumentRef{DocType: planning.DocDecisionNotice})))

	rec, err := s.FindByReferenceWithDecision(ctx, "Leeds", "24/00002/FU")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestMemoryStore_UpdateByReference(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newRecord("24/00003/FU",
		planning.DocumentRef{DocType: planning.DocApplicationForm})))

	now := time.Now().UTC()
	matched, err := s.UpdateByReference(ctx, "Leeds", "24/00003/FU", CaseUpdate{
		Summary: planning.Summary{Reference: "24/00003/FU", Decision: "Approved"},
		Documents: []planning.DocumentRef{
			{DocType: planning.DocApplicationForm},
			{DocType: planning.DocDecisionNotice},
		},
		UpdatedAt: now,
		UpdatedBy: "actor",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	rec, err := s.FindByReference(ctx, "Leeds", "24/00003/FU")
	require.NoError(t, err)
	assert.Equal(t, "Approved", rec.Summary.Decision)
	assert.Len(t, rec.Documents, 2)
	assert.Equal(t, "actor", rec.UpdatedBy)

	// A vanished target yields zero matches, not an error.
	matched, err = s.UpdateByReference(ctx, "Leeds", "gone", CaseUpdate{})
	require.NoError(t, err)
	assert.Zero(t, matched)
}

func TestMemoryStore_FindReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newRecord("24/00004/FU")))
	rec, err := s.FindByReference(ctx, "Leeds", "24/00004/FU")
	require.NoError(t, err)

	rec.Documents = append(rec.Documents, planning.DocumentRef{DocType: planning.DocDecisionNotice})

	again, err := s.FindByReference(ctx, "Leeds", "24/00004/FU")
	require.NoError(t, err)
	assert.Empty(t, again.Documents, "mutating a returned record must not affect the store")
}
