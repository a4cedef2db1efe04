package lead

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps leads in process. Used for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	leads  map[int64]Lead
	nextID int64
	closed bool

	// InsertErr and UpdateErr, when set, are returned by every session.
	InsertErr error
	UpdateErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[int64]Lead)}
}

func (s *MemoryStore) Open(context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return &memorySession{store: s}, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored leads.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// Get returns a copy of the lead with id.
func (s *MemoryStore) Get(id int64) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[id]
	return l, ok
}

type memorySession struct {
	store  *MemoryStore
	closed bool
}

func (m *memorySession) Insert(_ context.Context, l *Lead) (int64, error) {
	if m.closed {
		return 0, ErrStoreClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return 0, s.InsertErr
	}
	s.nextID++
	stored := cloneLead(*l)
	stored.ID = s.nextID
	s.leads[stored.ID] = stored
	return stored.ID, nil
}

func (m *memorySession) Update(_ context.Context, l *Lead) error {
	if m.closed {
		return ErrStoreClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.leads[l.ID]; !ok {
		return ErrNotFound
	}
	s.leads[l.ID] = cloneLead(*l)
	return nil
}

func (m *memorySession) ListAll(context.Context) ([]Lead, error) {
	if m.closed {
		return nil, ErrStoreClosed
	}
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, cloneLead(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memorySession) Close() error {
	m.closed = true
	return nil
}

// cloneLead copies l so stored leads share no pointers with callers.
func cloneLead(l Lead) Lead {
	l.NormalizedPhone = clonePtr(l.NormalizedPhone)
	l.PreferredEnd = clonePtr(l.PreferredEnd)
	l.UTCOffset = clonePtr(l.UTCOffset)
	l.CallID = clonePtr(l.CallID)
	l.FXUSDEUR = clonePtr(l.FXUSDEUR)
	l.FunFactShort = clonePtr(l.FunFactShort)
	return l
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ Store = (*MemoryStore)(nil)
