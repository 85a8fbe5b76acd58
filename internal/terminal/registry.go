package terminal

import (
	"crypto/sha256"
	"crypto/subtle"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/pdv-terminal/internal/cart"
	"github.com/google/uuid"
)

type tokenDigest [sha256.Size]byte

func digestToken(token string) tokenDigest {
	return sha256.Sum256([]byte(token))
}

// session owns one cart. mu serializes every operation on it.
// token is the digest of the access token the PDV API last confirmed for owner.
type session struct {
	mu       sync.Mutex
	id       string
	owner    string
	token    atomic.Pointer[tokenDigest]
	cart     *cart.Cart
	openedAt time.Time
	lastSeen time.Time
	closed   bool
}

func (s *session) boundTo(d tokenDigest) bool {
	cur := s.token.Load()
	return cur != nil && subtle.ConstantTimeCompare(cur[:], d[:]) == 1
}

func (s *session) bind(d tokenDigest) {
	s.token.Store(&d)
}

// Registry holds the open sessions of this process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*session{}}
}

func (r *Registry) open(owner string, token tokenDigest, now time.Time) *session {
	s := &session{
		id:       uuid.NewString(),
		owner:    owner,
		cart:     cart.New(),
		openedAt: now,
		lastSeen: now,
	}
	s.bind(token)
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// get returns the session when it exists and belongs to owner.
func (r *Registry) get(id, owner string) (*session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.owner != owner {
		return nil, false
	}
	return s, true
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// listFor returns the owner's session ids, oldest first.
func (r *Registry) listFor(owner string) []*session {
	r.mu.RLock()
	out := make([]*session, 0)
	for _, s := range r.sessions {
		if s.owner == owner {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].openedAt.Before(out[j].openedAt) })
	return out
}

// Sweep closes sessions idle since before now-ttl. Sessions busy with an operation are skipped.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.lastSeen.Before(cutoff) {
			s.closed = true
			delete(r.sessions, id)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}
