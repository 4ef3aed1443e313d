package fallback

import "sync"

// Mode is the process-wide degraded-mode flag. It is sticky: either trigger
// (operator toggle, auth-error threshold) keeps it set on its own, and the
// auth trigger clears only when a fresh credential is observed.
type Mode struct {
	mu          sync.Mutex
	operator    bool
	authLimited bool
}

// Degraded reports whether remote calls should be bypassed.
func (m *Mode) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operator || m.authLimited
}

// SetOperator toggles the explicit operator/config trigger.
func (m *Mode) SetOperator(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operator = on
}

// TripAuthLimit engages the auth-error trigger.
func (m *Mode) TripAuthLimit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authLimited = true
}

// ClearAuthLimit releases the auth-error trigger after a new credential was
// observed. The operator trigger is unaffected.
func (m *Mode) ClearAuthLimit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authLimited = false
}

// AuthLimited reports whether the auth trigger specifically is engaged, for
// the "reconnect needed" UI signal.
func (m *Mode) AuthLimited() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authLimited
}
