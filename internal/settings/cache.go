package settings

import (
	"context"
	"sync"
	"time"

	"github.com/loykin/prnotify/internal/common"
)

// DefaultCacheTTL is how long a read of the settings is reused.
const DefaultCacheTTL = 33333 * time.Millisecond

// Loader reads the persisted settings. It returns nil when nothing is stored yet.
type Loader func(ctx context.Context) (*Settings, error)

// Cache is a read-through cache over a Loader. It also tracks the global
// Data and notifies listeners when it changes between reads.
type Cache struct {
	TTL time.Duration
	Now func() time.Time

	load Loader

	mu        sync.Mutex
	cached    *Settings
	expiry    time.Time
	lastData  *Data
	listeners []func(Data)
}

// NewCache returns a cache over load. A zero ttl means DefaultCacheTTL.
func NewCache(load Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{TTL: ttl, Now: time.Now, load: load}
}

// OnDataChange registers fn to run when a read sees different global Data.
func (c *Cache) OnDataChange(fn func(Data)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Invalidate makes the next Get read the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry = time.Time{}
}

// Get returns the cached settings, reloading them after expiry. The result
// must not be modified.
func (c *Cache) Get(ctx context.Context) (*Settings, error) {
	return c.get(ctx, false)
}

// Refresh reloads the settings regardless of expiry.
func (c *Cache) Refresh(ctx context.Context) (*Settings, error) {
	return c.get(ctx, true)
}

func (c *Cache) get(ctx context.Context, force bool) (*Settings, error) {
	c.mu.Lock()
	now := c.Now()
	if !force && c.cached != nil && now.Before(c.expiry) {
		s := c.cached
		c.mu.Unlock()
		return s, nil
	}

	loaded, err := c.load(ctx)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if loaded == nil {
		// nothing stored yet: serve defaults without caching them
		c.cached = nil
		c.mu.Unlock()
		common.GetLogger().WithComponent("settings").Debug("no stored settings, using defaults")
		return Default(), nil
	}

	c.cached = loaded
	c.expiry = now.Add(c.TTL)
	var fire []func(Data)
	if c.lastData == nil || *c.lastData != loaded.Data {
		d := loaded.Data
		c.lastData = &d
		fire = append(fire, c.listeners...)
	}
	c.mu.Unlock()

	for _, fn := range fire {
		fn(loaded.Data)
	}
	return loaded, nil
}
