package signalprop

import (
	"sort"
	"sync"
)

// Store tracks the active handler for each bound property of a host.
// It is owned by the caller; binders only touch the key they govern.
// The zero value is ready to use.
type Store struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Load returns the record stored under name, or nil.
func (s *Store) Load(name string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[name]
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Names returns the stored property names in sorted order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Must be called while holding s.mu.
func (s *Store) get(name string) Record {
	return s.records[name]
}

// Must be called while holding s.mu.
func (s *Store) put(name string, r Record) {
	if s.records == nil {
		s.records = make(map[string]Record)
	}
	s.records[name] = r
}

// Must be called while holding s.mu.
func (s *Store) remove(name string) {
	delete(s.records, name)
}
