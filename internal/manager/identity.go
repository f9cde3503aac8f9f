// Package manager implements the entity managers: cache-first reads,
// validated write-through mutations and the deferred shutdown flush, for
// lecturers, users and tags.
package manager

import "sync"

// Identity addresses an entity by any of its unique keys. Empty fields are
// ignored during matching.
type Identity struct {
	UUID     string
	Username string
	Email    string
}

func (id Identity) keys() []string {
	return []string{id.UUID, id.Username, id.Email}
}

// String picks the first set key, for log lines.
func (id Identity) String() string {
	for _, k := range id.keys() {
		if k != "" {
			return k
		}
	}
	return "<empty>"
}

// keyedMutex serializes check-then-act sequences per entity identity, so two
// concurrent creates for the same username, or two bookings against the same
// lecturer, cannot both pass their checks on a stale snapshot.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the key's mutex is held and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
