package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last produced a document for each
// host, so repeat scrapes of the same site skip the cheaper engines that
// are known to fail there. Entries expire after ttl; expired entries are
// dropped on the next write.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]remembered
	ttl     time.Duration

	// now is swapped in tests.
	now func() time.Time
}

type remembered struct {
	engine    string
	expiresAt time.Time
}

// NewDomainMemory creates a DomainMemory whose entries live for ttl.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: make(map[string]remembered),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the engine remembered for host, or "".
func (m *DomainMemory) Get(host string) string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[host]
	if !ok {
		return ""
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, host)
		return ""
	}
	return e.engine
}

// Set records that engine produced a document for host.
func (m *DomainMemory) Set(host, engine string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for h, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, h)
		}
	}
	m.entries[host] = remembered{engine: engine, expiresAt: now.Add(m.ttl)}
}

// Delete forgets host, e.g. after its remembered engine failed.
func (m *DomainMemory) Delete(host string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	delete(m.entries, host)
	m.mu.Unlock()
}

// Len returns the number of unexpired entries.
func (m *DomainMemory) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	now := m.now()
	for _, e := range m.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
