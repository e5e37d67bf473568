// Package progress defines the event structures emitted while a crawl pass
// runs, and the sink fan-out that consumes them.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StagePassStart  Stage = "PASS_START"
	StageCaseDone   Stage = "CASE_DONE"
	StageUploadDone Stage = "UPLOAD_DONE"
	StagePassDone   Stage = "PASS_DONE"
)

// Event captures a single milestone of crawl progress.
type Event struct {
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Pass names the crawl pass ("validated" or "decided").
	Pass string
	// Stage denotes which milestone occurred.
	Stage Stage
	// Reference scopes case and upload events to a case reference id.
	Reference string
	// URL is the offending or processed link, for diagnostics.
	URL string
	// Outcome holds the per-case result for CASE_DONE events.
	Outcome string
	// Reason carries the skip reason or error text, if any.
	Reason string
	// DocType labels UPLOAD_DONE events with the document classification.
	DocType string
	// Bytes carries the uploaded size for UPLOAD_DONE events.
	Bytes int64
	// Total is the number of case links found, set on PASS_START.
	Total int
	// Dur captures wall time for PASS_DONE events.
	Dur time.Duration
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.Pass == "" {
		return errors.New("pass name is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StagePassStart, StagePassDone:
	case StageCaseDone:
		if e.Outcome == "" {
			return errors.New("case done requires an outcome")
		}
	case StageUploadDone:
		if e.DocType == "" {
			return errors.New("upload done requires a doc type")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
