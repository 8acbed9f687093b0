package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID  string
	expires time.Time
}

// MemoryCache is an in-process [Cache]. A janitor goroutine evicts expired
// entries until Close is called.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache starts a cache whose janitor runs every interval. A
// non-positive interval disables the janitor; expired entries are then only
// dropped on access.
func NewMemoryCache(interval time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if interval > 0 {
		go c.janitor(interval)
	} else {
		close(c.done)
	}
	return c
}

func (c *MemoryCache) Put(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := validate(sessionID, ttl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[sessionID]; ok && now.Before(e.expires) {
		return ErrExists
	}
	c.entries[sessionID] = memoryEntry{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(sessionID)
}

func (c *MemoryCache) Take(_ context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, err := c.liveLocked(sessionID)
	if err != nil {
		return "", err
	}
	delete(c.entries, sessionID)
	return user, nil
}

func (c *MemoryCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.entries, sessionID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included until evicted.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the janitor and waits for it to exit.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *MemoryCache) liveLocked(sessionID string) (string, error) {
	e, ok := c.entries[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, sessionID)
		return "", ErrNotFound
	}
	return e.userID, nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, id)
		}
	}
}
