package session

import (
	"github.com/wb-go/wbf/ginext"

	"eventsales/internal/dto"
	"eventsales/internal/model"
)

// HeaderName carries the bearer token on every authenticated call.
const HeaderName = "x-session"

const identityKey = "session.identity"

// Middleware resolves the x-session header into an Identity and aborts
// with 401 when the token is absent, unknown or expired.
func Middleware(store *Store) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		token := c.GetHeader(HeaderName)
		if token == "" {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}
		identity, ok := store.Resolve(token)
		if !ok {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin gates a route to admin identities. Must run after
// Middleware.
func RequireAdmin() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		identity, ok := FromContext(c)
		if !ok || !identity.IsAdmin() {
			dto.ForbiddenError(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// FromContext returns the identity Middleware stored for this request.
func FromContext(c *ginext.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
