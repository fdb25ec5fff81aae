package session

import "time"

// Join attempts are throttled per connecting client so pairing codes
// cannot be brute-forced. The check runs before any code lookup.
const (
	AttemptWindow        = time.Minute
	MaxAttemptsPerWindow = 10
)

type attemptWindow struct {
	count       int
	windowStart time.Time
}

// SetJoinLimit overrides the attempt window and cap. Non-positive values
// keep the defaults. Not safe to call once traffic is flowing.
func (r *Registry) SetJoinLimit(window time.Duration, maxAttempts int) {
	if window > 0 {
		r.joinWindow = window
	}
	if maxAttempts > 0 {
		r.joinMax = maxAttempts
	}
}

// RecordJoinAttempt counts one join attempt for clientID inside the
// sliding window and reports whether the attempt is blocked and how many
// attempts remain.
func (r *Registry) RecordJoinAttempt(clientID string) (blocked bool, remaining int) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.attempts[clientID]
	if rec == nil || now.Sub(rec.windowStart) > r.joinWindow {
		r.attempts[clientID] = &attemptWindow{count: 1, windowStart: now}
		return false, r.joinMax - 1
	}
	rec.count++
	if rec.count > r.joinMax {
		return true, 0
	}
	return false, r.joinMax - rec.count
}
