package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"eventsales/internal/model"
)

// DefaultTTL is the fixed session lifetime: 12 hours from creation, no
// sliding renewal.
const DefaultTTL = 12 * time.Hour

const sweepInterval = time.Minute

type entry struct {
	identity  model.Identity
	expiresAt time.Time
}

// Store holds bearer tokens in process memory. Sessions do not survive a
// restart; re-authentication is cheap and the tokens are not long-lived
// credentials.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create issues a fresh 256-bit token bound to the identity snapshot.
func (s *Store) Create(identity model.Identity) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a broken
		// entropy source is not something to limp past.
		panic("session: entropy source unavailable: " + err.Error())
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.entries[token] = entry{
		identity:  identity,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return token
}

// Resolve returns the identity for a live token. Expired tokens resolve
// as absent even before the janitor sweeps them.
func (s *Store) Resolve(token string) (model.Identity, bool) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return model.Identity{}, false
	}
	return e.identity, true
}

func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor. Safe to call once.
func (s *Store) Close() {
	close(s.stop)
	<-s.done
}

func (s *Store) janitor() {
	defer close(s.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := s.now()
	s.mu.Lock()
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
		}
	}
	s.mu.Unlock()
}
