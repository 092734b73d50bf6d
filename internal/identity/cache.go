package identity

import (
	"context"
	"net/http"
	"sync"
	"time"
)

type cacheEntry struct {
	session   Session
	expiresAt time.Time
}

// CachingProvider remembers active sessions per credential for a fixed TTL, or until the
// session expires if that comes first.
// Errors and inactive sessions always go through to the wrapped provider.
type CachingProvider struct {
	next       Provider
	cookieName string
	ttl        time.Duration
	clock      func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCachingProvider(next Provider, cookieName string, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		next:       next,
		cookieName: cookieName,
		ttl:        ttl,
		clock:      time.Now,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *CachingProvider) Resolve(ctx context.Context, r *http.Request) (Session, error) {
	credential, ok := ReadCredential(r, c.cookieName)
	if !ok {
		return c.next.Resolve(ctx, r)
	}

	key := credential.Token.Unveil()
	if s, found := c.get(key); found {
		return s, nil
	}

	s, err := c.next.Resolve(ctx, r)
	if err != nil {
		return Session{}, err
	}

	if s.Active() {
		c.set(key, s)
	}

	return s, nil
}

func (c *CachingProvider) get(key string) (Session, bool) {
	now := c.clock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || !now.Before(entry.expiresAt) {
		return Session{}, false
	}
	return entry.session, true
}

func (c *CachingProvider) set(key string, s Session) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Never outlive the session itself.
	expiresAt := now.Add(c.ttl)
	if !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(expiresAt) {
		expiresAt = s.ExpiresAt
	}

	c.entries[key] = cacheEntry{session: s, expiresAt: expiresAt}
}

// Len returns the number of entries held, expired or not.
func (c *CachingProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops expired entries.
func (c *CachingProvider) Purge() {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Run purges expired entries every interval until ctx is done.
func (c *CachingProvider) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
