package services

import "errors"

// Error kinds per the dispatcher's failure taxonomy. Both are fatal: callers
// abort the run rather than retrying. Soft conditions (no reachable vehicle,
// empty candidate lists, zero active vehicles) are never surfaced as errors;
// they are handled inline with logged fallbacks.
var (
	// ErrConfiguration marks setup-time failures: unreadable skims,
	// inconsistent zone tables, invalid knob values.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataIntegrity marks invariant violations during simulation:
	// routing a vehicle with no payload, a request naming an unknown
	// micro-zone. These are programmer/data errors, not runtime conditions.
	ErrDataIntegrity = errors.New("data integrity error")
)
