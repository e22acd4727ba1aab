package params

import (
	"sync/atomic"
)

// Store holds the active Params.
// Store is safe for concurrent use: Params are swapped atomically, never mutated.
type Store struct {
	p atomic.Pointer[Params]
}

// NewStore creates new Store holding p which may be nil
func NewStore(p *Params) *Store {
	s := &Store{}
	if p != nil {
		s.p.Store(p)
	}

	return s
}

// Load returns active Params or nil if none have been set
func (s *Store) Load() *Params {
	return s.p.Load()
}

// Swap replaces active Params with p and returns the previous ones
func (s *Store) Swap(p *Params) *Params {
	return s.p.Swap(p)
}
