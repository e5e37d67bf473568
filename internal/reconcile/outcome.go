// Package reconcile drives the two crawl passes, deciding per case whether
// to insert, merge-update, or skip against the persisted store.
package reconcile

import (
	"github.com/civicgrid/planportal-crawler/internal/planning"
)

// Pass names, used in progress events and summaries.
const (
	PassValidated = "validated"
	PassDecided   = "decided"
)

// Status is the terminal state of one processed case.
type Status string

// Per-case terminal states.
const (
	StatusInserted Status = "inserted"
	StatusUpdated  Status = "updated"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Outcome records how one case link was resolved. Failures carry the error;
// skips carry the reason. A failed case never aborts its pass.
type Outcome struct {
	Link      planning.CaseLink
	Reference string
	Status    Status
	Reason    string
	Err       error
}

func inserted(link planning.CaseLink, reference string) Outcome {
	return Outcome{Link: link, Reference: reference, Status: StatusInserted}
}

func updated(link planning.CaseLink, reference string) Outcome {
	return Outcome{Link: link, Reference: reference, Status: StatusUpdated}
}

func skipped(link planning.CaseLink, reference, reason string) Outcome {
	return Outcome{Link: link, Reference: reference, Status: StatusSkipped, Reason: reason}
}

func failed(link planning.CaseLink, reference string, err error) Outcome {
	return Outcome{Link: link, Reference: reference, Status: StatusFailed, Err: err}
}

// reasonText flattens the skip reason or error for diagnostics.
func (o Outcome) reasonText() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Reason
}

// PassSummary aggregates the outcomes of one pass.
type PassSummary struct {
	Pass     string
	Total    int
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
	Failures []Outcome
}

func (s *PassSummary) add(o Outcome) {
	switch o.Status {
	case StatusInserted:
		s.Inserted++
	case StatusUpdated:
		s.Updated++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
}
