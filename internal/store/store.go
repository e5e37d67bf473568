// Package store defines the document-store interface the reconciliation
// engine writes through. By using an interface, we decouple the crawl from a
// specific database, allowing an in-memory store in tests and dry runs.
package store

import (
	"context"
	"time"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

// CaseUpdate carries the fields replaced when a decided case is merged into
// an existing record. Everything not listed here is preserved.
type CaseUpdate struct {
	Summary            planning.Summary
	FurtherInformation planning.FurtherInformation
	AgentDetails       planning.AgentDetails
	Documents          []planning.DocumentRef
	UpdatedAt          time.Time
	UpdatedBy          string
}

// Store is the narrow persistence interface for case records. Lookups that
// find nothing return (nil, nil), not an error.
type Store interface {
	// FindByReference returns the record for (council, reference), if any.
	FindByReference(ctx context.Context, council, reference string) (*planning.CaseRecord, error)

	// FindByReferenceWithDecision is FindByReference filtered to records
	// that already carry a decision_notice document.
	FindByReferenceWithDecision(ctx context.Context, council, reference string) (*planning.CaseRecord, error)

	// Insert writes a new case record.
	Insert(ctx context.Context, rec *planning.CaseRecord) error

	// UpdateByReference applies the update to the matching record and
	// returns the match count. Zero matches is not an error; the target may
	// have vanished between read and write.
	UpdateByReference(ctx context.Context, council, reference string, upd CaseUpdate) (int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
