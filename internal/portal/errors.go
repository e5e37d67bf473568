package portal

import "errors"

// Sentinel errors for the failure modes that matter to callers. Transport
// and parse failures are wrapped with %w and context; these three carry the
// propagation policy: shape and loop errors abort the enclosing pass, a
// missing reference only abandons the current case.
var (
	// ErrProtocolShape means an expected HTML element is missing. The portal
	// changed its markup or is blocking us, so the current pass cannot
	// continue.
	ErrProtocolShape = errors.New("portal: page structure does not match expected markup")

	// ErrPaginationLoop means a results page linked back to a page already
	// visited. Without the guard the walk would never terminate.
	ErrPaginationLoop = errors.New("portal: pagination cursor did not advance")

	// ErrMissingReference means a case's documents page carries no reference
	// id. The case is skipped; the pass continues.
	ErrMissingReference = errors.New("portal: case page has no reference id")
)
