package nav

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/rshade/freightdash/internal/cache"
)

// Payload is the state attached to one navigation transition.
type Payload map[string]json.RawMessage

// Clone returns a shallow copy; raw values are never mutated in place.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Set marshals v under key.
func (p Payload) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload %q: %w", key, err)
	}
	p[key] = raw
	return nil
}

// Get unmarshals the value under key into v and reports whether it was present.
func (p Payload) Get(key string, v any) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding payload %q: %w", key, err)
	}
	return true, nil
}

// Channel is the navigation layer: it moves between routes with a payload
// and hands the payload of the transition that led to the current route to
// whoever asks first.
type Channel interface {
	NavigateTo(route string, p Payload) error
	IncomingPayload() (Payload, bool)
}

// MemoryChannel is an in-process Channel. OnNavigate, when set, is called
// after every transition; a router uses it to switch pages.
type MemoryChannel struct {
	mu       sync.Mutex
	route    string
	payload  Payload
	consumed bool

	OnNavigate func(route string)
}

// NewMemoryChannel starts at route with no payload.
func NewMemoryChannel(route string) *MemoryChannel {
	return &MemoryChannel{route: route, consumed: true}
}

// Route returns the current route.
func (c *MemoryChannel) Route() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// NavigateTo switches to route, replacing any unconsumed payload.
func (c *MemoryChannel) NavigateTo(route string, p Payload) error {
	if route == "" {
		return errors.New("empty route")
	}
	c.mu.Lock()
	c.route = route
	c.payload = p.Clone()
	c.consumed = len(p) == 0
	cb := c.OnNavigate
	c.mu.Unlock()

	if cb != nil {
		cb(route)
	}
	return nil
}

// IncomingPayload returns the current transition's payload once.
func (c *MemoryChannel) IncomingPayload() (Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consumed {
		return nil, false
	}
	c.consumed = true
	p := c.payload
	c.payload = nil
	return p, true
}

// FileChannel persists payloads in a FileStore so a later process can pick
// them up. Each channel reads the payloads addressed to its own route.
type FileChannel struct {
	store *cache.FileStore
	route string
}

// NewFileChannel returns a channel for the page at route.
func NewFileChannel(store *cache.FileStore, route string) *FileChannel {
	return &FileChannel{store: store, route: route}
}

func routeKey(route string) string {
	return cache.GenerateSimpleKey("nav", route)
}

// NavigateTo stores p for the next process that opens route.
func (c *FileChannel) NavigateTo(route string, p Payload) error {
	if route == "" {
		return errors.New("empty route")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err = c.store.Set(routeKey(route), data); err != nil {
		return fmt.Errorf("storing payload for %s: %w", route, err)
	}
	return nil
}

// IncomingPayload claims the payload addressed to this channel's route.
// Expired or missing payloads report false.
func (c *FileChannel) IncomingPayload() (Payload, bool) {
	entry, err := c.store.Take(routeKey(c.route))
	if err != nil {
		return nil, false
	}
	var p Payload
	if err = json.Unmarshal(entry.Data, &p); err != nil || len(p) == 0 {
		return nil, false
	}
	return p, true
}
