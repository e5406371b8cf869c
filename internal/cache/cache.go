// Package cache keeps encoded staff views (dashboards, calendar weeks) in
// memory so repeated polling does not hit Postgres. Writes drop the
// affected prefix.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	TTLDashboard = 30 * time.Second
	TTLCalendar  = 5 * time.Minute
)

// Key prefixes shared by handlers that read and invalidate.
const (
	PrefixDashboard = "dashboard:"
	PrefixCalendar  = "calendar:"
)

// View is an encoded response body with its validator.
type View struct {
	Body []byte
	ETag string
	TTL  time.Duration
	Hit  bool
}

type entry struct {
	view    View
	expires time.Time
}

// Cache maps keys to views. A disabled cache builds every view afresh.
type Cache struct {
	mu      sync.RWMutex
	views   map[string]entry
	enabled bool
}

// Stats describes the cache for the health endpoint.
type Stats struct {
	Enabled bool `json:"enabled"`
	Keys    int  `json:"keys"`
	Live    int  `json:"live"`
}

func New(enabled bool) *Cache {
	c := &Cache{views: make(map[string]entry), enabled: enabled}
	if enabled {
		go c.sweepLoop()
	}
	return c
}

// Load returns the view stored under key, or encodes the value build
// returns and stores it for ttl. build errors are returned as is and
// nothing is stored.
func (c *Cache) Load(key string, ttl time.Duration, build func() (any, error)) (View, error) {
	if v, ok := c.lookup(key, time.Now()); ok {
		return v, nil
	}
	value, err := build()
	if err != nil {
		return View{}, err
	}
	body, err := json.Marshal(value)
	if err != nil {
		return View{}, fmt.Errorf("encode %s: %w", key, err)
	}
	v := View{Body: body, ETag: tag(body), TTL: ttl}
	if c.enabled {
		c.mu.Lock()
		c.views[key] = entry{view: v, expires: time.Now().Add(ttl)}
		c.mu.Unlock()
	}
	return v, nil
}

func (c *Cache) lookup(key string, now time.Time) (View, bool) {
	if !c.enabled {
		return View{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.views[key]
	if !ok || !now.Before(e.expires) {
		return View{}, false
	}
	v := e.view
	v.Hit = true
	return v, true
}

// Invalidate drops every key starting with prefix and returns how many.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.views {
		if strings.HasPrefix(key, prefix) {
			delete(c.views, key)
			n++
		}
	}
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Enabled: c.enabled, Keys: len(c.views)}
	now := time.Now()
	for _, e := range c.views {
		if now.Before(e.expires) {
			s.Live++
		}
	}
	return s
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for now := range ticker.C {
		c.sweep(now)
	}
}

func (c *Cache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.views {
		if !now.Before(e.expires) {
			delete(c.views, key)
		}
	}
}

// tag is a weak validator over the first 8 bytes of the body's SHA-256.
func tag(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}
