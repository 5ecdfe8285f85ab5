package auth

import (
	"sync"
	"time"
)

// VerifierTTL bounds how long an authorization attempt may stay in flight.
const VerifierTTL = 10 * time.Minute

type pendingAuth struct {
	state     string
	verifier  string
	createdAt time.Time
}

// VerifierStore holds the PKCE verifier of the single in-flight authorization.
// A new Put replaces any pending attempt.
type VerifierStore struct {
	mu      sync.Mutex
	pending *pendingAuth
	now     func() time.Time
}

// NewVerifierStore creates an empty VerifierStore.
func NewVerifierStore() *VerifierStore {
	return &VerifierStore{now: time.Now}
}

// Put records verifier for state, overwriting any earlier attempt.
func (v *VerifierStore) Put(state, verifier string) {
	v.mu.Lock()
	v.pending = &pendingAuth{state: state, verifier: verifier, createdAt: v.now()}
	v.mu.Unlock()
}

// Take returns and clears the verifier recorded for state. It reports false if
// nothing is pending, the state does not match, or the attempt has expired.
// A mismatched state leaves the pending attempt in place.
func (v *VerifierStore) Take(state string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pending
	if p == nil || p.state != state {
		return "", false
	}
	v.pending = nil
	if v.now().Sub(p.createdAt) >= VerifierTTL {
		return "", false
	}
	return p.verifier, true
}
