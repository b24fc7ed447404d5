// Package inflight rejects a second submission of the same action while the
// first is still running, e.g. a double-clicked import button.
package inflight

import (
	"strings"
	"sync"
)

// Guard tracks running actions by key. The zero value is not usable; call New.
type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func New() *Guard {
	return &Guard{running: make(map[string]struct{})}
}

// Key joins the parts that identify one action, typically user ID and action name.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Acquire marks key as running. ok is false when it already is; otherwise
// the caller must call release exactly once when done.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return func() {}, false
	}
	g.running[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
		})
	}, true
}

// Running reports whether key is currently held.
func (g *Guard) Running(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[key]
	return busy
}
