// Package locks serializes deploy/update/cleanup operations per
// deploymentId so the webhook handler and the reconciler never race on
// the same deployment's working tree or port allocation.
package locks

import "sync"

// KeyedMutex is a table of per-key mutexes, created lazily and never
// removed (deploymentIds are bounded in practice by active previews).
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex returns a ready KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) lockFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires key's mutex, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.lockFor(key).Lock()
}

// Unlock releases key's mutex.
func (k *KeyedMutex) Unlock(key string) {
	k.lockFor(key).Unlock()
}

// WithLock runs fn while holding key's mutex.
func (k *KeyedMutex) WithLock(key string, fn func()) {
	k.Lock(key)
	defer k.Unlock(key)
	fn()
}
