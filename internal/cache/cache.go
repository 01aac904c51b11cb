// Package cache holds bounded in-memory caches with expiry and a manager
// that purges expired entries in the background.
package cache

import (
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	GetOrCreate(key string, create func() T) T
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that support purging expired entries
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup for registered caches
type Manager struct {
	mu        sync.Mutex
	caches    []Cleaner
	onCleaned func(removed int)
	stop      chan struct{}
	done      chan struct{}
	started   bool
	stopOnce  sync.Once
}

// NewManager creates a manager. onCleaned, if not nil, is called after each
// sweep that removed at least one entry.
func NewManager(onCleaned func(removed int)) *Manager {
	return &Manager{
		onCleaned: onCleaned,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Register adds a cache to the manager
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup. Calling it twice is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

// Sweep purges expired entries from every registered cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	removed := 0
	for _, c := range caches {
		removed += c.CleanExpired()
	}
	if removed > 0 && m.onCleaned != nil {
		m.onCleaned(removed)
	}
	return removed
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}
