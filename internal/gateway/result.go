package gateway

// Status classifies the outcome of a gateway call.
type Status int

const (
	// StatusOK means the server answered with a parseable payload.
	StatusOK Status = iota
	// StatusAuth covers 401/403/422 and body-level auth refusals.
	StatusAuth
	// StatusSoftBlocked means the server asked for a cooldown; calls made
	// before the deadline are short-circuited.
	StatusSoftBlocked
	// StatusTransport covers timeouts, network errors, and malformed bodies.
	StatusTransport
	// StatusDegraded means the call never attempted the network because
	// degraded mode or a cooldown was active.
	StatusDegraded
)

// String returns a stable label for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAuth:
		return "auth_error"
	case StatusSoftBlocked:
		return "soft_blocked"
	case StatusTransport:
		return "transport_failure"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a gateway call. Expected failure classes
// are values here, never panics or opaque errors; Err carries the underlying
// cause for logs only.
type Result struct {
	Status Status
	Err    error
}

// OK reports whether the call succeeded against the real server.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// NetworkAttempted reports whether the call reached for the network at all.
func (r Result) NetworkAttempted() bool {
	return r.Status != StatusDegraded
}
