package ratelimit

import (
	"sync"
	"time"
)

// Manager multiplexes independent Limiters by identity string. A
// limiter is constructed lazily with the manager's default config the
// first time an identity is seen and lives for the process lifetime
// unless replaced via UpdateLimit.
type Manager struct {
	mu              sync.Mutex
	defaultMaxCalls int
	defaultPeriod   time.Duration
	limiters        map[string]*Limiter
}

func NewManager(defaultMaxCalls int, defaultPeriod time.Duration) *Manager {
	if defaultMaxCalls < 1 {
		defaultMaxCalls = DefaultMaxCalls
	}
	if defaultPeriod <= 0 {
		defaultPeriod = DefaultPeriod
	}
	return &Manager{
		defaultMaxCalls: defaultMaxCalls,
		defaultPeriod:   defaultPeriod,
		limiters:        make(map[string]*Limiter),
	}
}

func (m *Manager) Allow(identity string) bool {
	return m.limiter(identity).Allow()
}

func (m *Manager) Remaining(identity string) int {
	return m.limiter(identity).Remaining()
}

func (m *Manager) RetryAfter(identity string) time.Duration {
	return m.limiter(identity).RetryAfter()
}

// UpdateLimit replaces the identity's limiter with a fresh one using
// the given config. This is a full reset, not a live reconfiguration:
// the identity's in-flight window history is discarded.
func (m *Manager) UpdateLimit(identity string, maxCalls int, period time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[identity] = NewLimiter(maxCalls, period)
}

func (m *Manager) limiter(identity string) *Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[identity]
	if !ok {
		l = NewLimiter(m.defaultMaxCalls, m.defaultPeriod)
		m.limiters[identity] = l
	}
	return l
}
