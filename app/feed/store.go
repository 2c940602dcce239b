package feed

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store holds the current snapshot and the per-source fetch state table.
//
// The snapshot reference is the only shared state between the refresh
// pipeline and request handlers. Snapshots are immutable, so publishing is a
// single pointer swap and readers never observe a partially-built snapshot or
// block one another. Read returns nil until the first successful cycle.
//
// Source state is touched only by the scheduler goroutine and its fetch
// workers, never by request handlers; a plain mutex suffices there.
type Store struct {
	snapshot atomic.Pointer[Snapshot]

	mu     sync.Mutex
	states map[string]*SourceState
}

func NewStore() *Store {
	return &Store{
		states: make(map[string]*SourceState),
	}
}

func (s *Store) Publish(snapshot *Snapshot) {
	s.snapshot.Store(snapshot)
}

func (s *Store) Read() *Snapshot {
	return s.snapshot.Load()
}

// State returns a copy of the fetch state for a source, zero-valued if the
// source has never been fetched.
func (s *Store) State(sourceID string) SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[sourceID]; ok {
		return *state
	}
	return SourceState{}
}

func (s *Store) SetInFlight(sourceID string, inFlight bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(sourceID).InFlight = inFlight
}

// RecordSuccess resets the failure counter and stores the validator captured
// from a fresh or not-modified response.
func (s *Store) RecordSuccess(sourceID string, validator Validator, fetchedAt time.Time, nextFetchAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sourceID)
	state.Validator = validator
	state.ConsecutiveFailures = 0
	state.LastSuccess = fetchedAt
	state.NextFetchAt = nextFetchAt
	state.CircuitOpenUntil = time.Time{}
}

// RecordFailure bumps the failure counter; once it crosses threshold the
// circuit opens until openUntil and the source is skipped rather than
// hammered.
func (s *Store) RecordFailure(sourceID string, fetchedAt time.Time, nextFetchAt time.Time, threshold int, openUntil time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sourceID)
	state.ConsecutiveFailures++
	state.LastFailure = fetchedAt
	state.NextFetchAt = nextFetchAt
	if threshold > 0 && state.ConsecutiveFailures >= threshold {
		state.CircuitOpenUntil = openUntil
	}
}

// Due reports whether a source should be fetched now: its interval has
// elapsed, no fetch for it is in flight, and its circuit is closed.
func (s *Store) Due(sourceID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sourceID]
	if !ok {
		return true
	}
	if state.InFlight {
		return false
	}
	if state.CircuitOpenUntil.After(now) {
		return false
	}
	return !state.NextFetchAt.After(now)
}

// state returns the live entry for sourceID, creating it if needed. Callers
// must hold mu.
func (s *Store) state(sourceID string) *SourceState {
	state, ok := s.states[sourceID]
	if !ok {
		state = &SourceState{}
		s.states[sourceID] = state
	}
	return state
}
