// Package sessions implements the server-side session lifecycle and the
// access gate that protects authenticated routes.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/server/models"
)

// Store holds live sessions keyed by session id.
type Store interface {
	Create(ctx context.Context, s models.Session) error
	// Get returns common.ErrorNotFound for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store. Expired entries are dropped lazily
// on Get and in bulk by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s models.Session) error {
	if s.ID == "" {
		return common.ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return common.ErrorAlreadyExists
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if s.Expired(m.now()) {
		delete(m.sessions, sessionID)
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Sweep removes every session expired at now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n := m.Sweep(now)
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}
