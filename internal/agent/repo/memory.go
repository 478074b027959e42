package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
)

// MemorySessionRepository keeps sessions in process. Used by the CLI demo and tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string][]byte

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[string][]byte{}, locks: map[string]*sync.Mutex{}}
}

func (m *MemorySessionRepository) Get(_ context.Context, key string) (*model.Session, error) {
	m.mu.RLock()
	raw, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return model.NewSession(key, time.Now()), nil
	}
	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Put stores a serialized copy so callers cannot mutate stored state.
func (m *MemorySessionRepository) Put(_ context.Context, s *model.Session) error {
	s.UpdatedAt = time.Now()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	m.mu.Lock()
	m.sessions[s.Key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionRepository) Lock(ctx context.Context, key string) (func(), error) {
	m.locksMu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.locksMu.Unlock()

	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		return l.Unlock, nil
	case <-ctx.Done():
		// hand the lock back once the pending acquisition completes
		go func() {
			<-acquired
			l.Unlock()
		}()
		return nil, ctx.Err()
	}
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
