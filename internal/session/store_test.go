package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventsales/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(DefaultTTL)
	t.Cleanup(s.Close)
	return s
}

func testIdentity() model.Identity {
	return model.Identity{ID: "m-1", Name: "Asha", Email: "asha@example.com", Role: model.RoleMember}
}

func TestCreateAndResolve(t *testing.T) {
	s := newTestStore(t)

	token := s.Create(testIdentity())
	require.Len(t, token, 64, "256 bits hex-encoded")

	got, ok := s.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, testIdentity(), got)
}

func TestTokensAreUnique(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := s.Create(testIdentity())
		assert.False(t, seen[token])
		seen[token] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestResolveUnknownToken(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Resolve("deadbeef")
	assert.False(t, ok)
}

func TestRevoke(t *testing.T) {
	s := newTestStore(t)

	token := s.Create(testIdentity())
	s.Revoke(token)

	_, ok := s.Resolve(token)
	assert.False(t, ok, "token must be unusable immediately after logout")
}

func TestExpiryAfterTTL(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	token := s.Create(testIdentity())

	s.now = func() time.Time { return base.Add(DefaultTTL - time.Minute) }
	_, ok := s.Resolve(token)
	assert.True(t, ok, "token must still resolve just before the TTL")

	s.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	_, ok = s.Resolve(token)
	assert.False(t, ok, "token must be unusable after 12 hours")
}

func TestExpiryIsFixedNotSliding(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	token := s.Create(testIdentity())

	// Resolving repeatedly must not extend the lifetime.
	for i := 1; i <= 11; i++ {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, ok := s.Resolve(token)
		require.True(t, ok)
	}

	s.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	_, ok := s.Resolve(token)
	assert.False(t, ok)
}

func TestSweepRemovesExpired(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Create(testIdentity())
	s.Create(testIdentity())

	s.now = func() time.Time { return base.Add(DefaultTTL + time.Minute) }
	s.sweep()
	assert.Equal(t, 0, s.Len())
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token := s.Create(testIdentity())
			if _, ok := s.Resolve(token); !ok {
				t.Error("freshly created token did not resolve")
			}
			s.Revoke(token)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}
