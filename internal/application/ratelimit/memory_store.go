package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore guarda las entradas en el proceso, con un lock por clave.
// Las entradas se crean en el primer intento y viven mientras viva el proceso.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu    sync.Mutex
	entry Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore construye un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Update ejecuta fn con el lock de la clave tomado.
func (s *MemoryStore) Update(_ context.Context, key string, fn func(e *Entry)) error {
	s.mu.Lock()
	me, ok := s.entries[key]
	if !ok {
		me = &memoryEntry{}
		s.entries[key] = me
	}
	s.mu.Unlock()

	me.mu.Lock()
	defer me.mu.Unlock()
	fn(&me.entry)
	return nil
}

// Get devuelve una copia de la entrada.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	me, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return Entry{}, false
	}
	me.mu.Lock()
	defer me.mu.Unlock()
	cp := me.entry
	cp.Attempts = append([]time.Time(nil), me.entry.Attempts...)
	return cp, true
}

// Len número de clientes observados.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
