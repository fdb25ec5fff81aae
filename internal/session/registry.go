package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"darts-live/internal/game"
)

const SessionTTL = 2 * time.Hour

// Session pairs one match with the clients currently watching or scoring
// it. The registry owns every Session; the match itself is only mutated
// through Do, which serializes all gameplay for the session.
type Session struct {
	Code         string
	MasterCode   string
	CreatedAt    time.Time
	LastActivity time.Time

	mu    sync.Mutex
	match *game.Match
}

// Do runs fn with exclusive access to the session's match. All gameplay
// mutations and snapshot reads go through here so no broadcast can ever
// observe a half-applied throw.
func (s *Session) Do(fn func(m *game.Match)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.match)
}

// Registry multiplexes live matches behind human-readable pairing codes.
type Registry struct {
	ttl        time.Duration
	joinWindow time.Duration
	joinMax    int
	now        func() time.Time

	mu          sync.Mutex
	sessions    map[string]*Session
	masterCodes map[string]string
	clients     map[string]map[string]struct{}
	attempts    map[string]*attemptWindow
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &Registry{
		ttl:         ttl,
		joinWindow:  AttemptWindow,
		joinMax:     MaxAttemptsPerWindow,
		now:         time.Now,
		sessions:    map[string]*Session{},
		masterCodes: map[string]string{},
		clients:     map[string]map[string]struct{}{},
		attempts:    map[string]*attemptWindow{},
	}
}

// CreateSession allocates a fresh match from settings and issues a
// primary and a master pairing code, both unique across both code maps.
// No client is joined yet.
func (r *Registry) CreateSession(settings game.Settings) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}
	masterCode, err := r.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}

	now := r.now()
	sess := &Session{
		Code:         code,
		MasterCode:   masterCode,
		CreatedAt:    now,
		LastActivity: now,
		match:        game.NewMatch(settings),
	}
	r.sessions[code] = sess
	r.masterCodes[masterCode] = code
	r.clients[code] = map[string]struct{}{}
	return sess, nil
}

// uniqueCodeLocked retries generation until the code collides with
// neither the primary nor the alias map, failing loudly rather than
// looping forever.
func (r *Registry) uniqueCodeLocked() (string, error) {
	for i := 0; i < maxCodeRetries; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[code]; taken {
			continue
		}
		if _, taken := r.masterCodes[code]; taken {
			continue
		}
		return code, nil
	}
	log.Error().Int("retries", maxCodeRetries).Msg("pairing code generation exhausted")
	return "", ErrCodeSpaceExhausted
}

// GetSession resolves a primary code first, then the master-code alias.
func (r *Registry) GetSession(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(code)
}

func (r *Registry) resolveLocked(code string) (*Session, bool) {
	if sess, ok := r.sessions[code]; ok {
		return sess, true
	}
	if primary, ok := r.masterCodes[code]; ok {
		sess, ok := r.sessions[primary]
		return sess, ok
	}
	return nil, false
}

// AddClient joins clientID to the session's client set. Idempotent;
// refreshes the activity clock. Returns false when the code resolves to
// nothing.
func (r *Registry) AddClient(code, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.resolveLocked(code)
	if !ok {
		return false
	}
	r.clients[sess.Code][clientID] = struct{}{}
	sess.LastActivity = r.now()
	return true
}

// RemoveClientFromAll drops clientID from every session it joined, e.g.
// on disconnect, and returns the affected primary codes so the gateway
// can push fresh connection counts to those rooms.
func (r *Registry) RemoveClientFromAll(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected []string
	for code, members := range r.clients {
		if _, ok := members[clientID]; !ok {
			continue
		}
		delete(members, clientID)
		if sess, ok := r.sessions[code]; ok {
			sess.LastActivity = r.now()
		}
		affected = append(affected, code)
	}
	return affected
}

// ClientCount reports how many clients are joined to the session.
func (r *Registry) ClientCount(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.resolveLocked(code)
	if !ok {
		return 0
	}
	return len(r.clients[sess.Code])
}

// Touch refreshes the session's activity clock on gameplay actions.
func (r *Registry) Touch(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.resolveLocked(code); ok {
		sess.LastActivity = r.now()
	}
}

// Counts returns the live session and client totals for the public
// stats endpoint.
func (r *Registry) Counts() (sessions, clients int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions = len(r.sessions)
	for _, members := range r.clients {
		clients += len(members)
	}
	return sessions, clients
}

// CleanupExpired removes every session idle past the TTL, together with
// its master-code alias and client set, and prunes stale rate-limit
// windows. Returns how many sessions were removed.
func (r *Registry) CleanupExpired() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, sess := range r.sessions {
		if now.Sub(sess.LastActivity) <= r.ttl {
			continue
		}
		delete(r.sessions, code)
		delete(r.clients, code)
		delete(r.masterCodes, sess.MasterCode)
		removed++
		log.Info().Str("code", code).Msg("session expired")
	}
	for clientID, rec := range r.attempts {
		if now.Sub(rec.windowStart) > r.joinWindow {
			delete(r.attempts, clientID)
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions on a fixed interval until ctx is
// cancelled.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.CleanupExpired(); n > 0 {
					log.Info().Int("removed", n).Msg("janitor sweep")
				}
			}
		}
	}()
}
