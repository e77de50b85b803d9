// Package session wraps a continuation oracle plus a single current state
// into a generation session: the typical embedding of an oracle, with
// serialized mutation and torn-read-free inspection.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Constraint is the contract every continuation oracle satisfies, generic
// over the oracle's state type. Both the regex oracle and the two LR(1)
// oracle variants implement it.
type Constraint[S interface{ Invalid() bool }] interface {
	// StartState returns the state of the empty prefix.
	StartState() S

	// StateAfter returns the state reached by reading p from the start
	// state, or an invalid state if p cannot extend to acceptance.
	StateAfter(p []byte) S

	// Advance returns the state reached by reading p from s.
	Advance(s S, p []byte) S

	// IsMatch reports whether the prefix that produced s is itself an
	// accepted string.
	IsMatch(s S) bool

	// ValidContinuations returns the sorted vocabulary indices viable at s.
	ValidContinuations(s S) []int

	// NextState returns the state after appending vocabulary entry i to s,
	// or an invalid state.
	NextState(s S, i int) S
}

// Session owns an oracle plus the current state of one generation run.
//
// Mutations (Reset, Next, Feed) must be serialized by the caller; concurrent
// mutation is undefined. Readers (Get, IsMatch, IsInvalid, Continuations) may
// run concurrently with each other and with a mutation, and always observe
// either the state before the mutation or the state after it, never a torn
// value.
//
// Next runs its state computation on a separate goroutine, but it does not
// return until that goroutine holds the state lock: a reader that runs after
// Next returns either blocks until the new state is produced or sees it
// already installed. There is no cancellation; the computation runs to
// completion.
type Session[S interface{ Invalid() bool }] struct {
	id     uuid.UUID
	oracle Constraint[S]

	mu  sync.Mutex
	cur S
}

// New creates a Session over oracle, positioned at the start state.
func New[S interface{ Invalid() bool }](oracle Constraint[S]) *Session[S] {
	return &Session[S]{
		id:     uuid.New(),
		oracle: oracle,
		cur:    oracle.StartState(),
	}
}

// ID returns the session's unique identifier.
func (s *Session[S]) ID() uuid.UUID {
	return s.id
}

// Get returns a snapshot of the current state.
func (s *Session[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Set replaces the current state, e.g. with one resumed from a snapshot.
func (s *Session[S]) Set(state S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = state
}

// Reset returns the session to the oracle's start state.
func (s *Session[S]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = s.oracle.StartState()
}

// Next advances the current state by vocabulary entry i. The computation runs
// asynchronously, but by the time Next returns it has taken the state lock,
// so a subsequent Get observes the completed new state (or blocks until it is
// produced).
func (s *Session[S]) Next(i int) {
	acquired := make(chan struct{})
	go func() {
		s.mu.Lock()
		close(acquired)
		defer s.mu.Unlock()
		s.cur = s.oracle.NextState(s.cur, i)
	}()
	<-acquired
}

// Feed advances the current state by raw bytes, synchronously.
func (s *Session[S]) Feed(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = s.oracle.Advance(s.cur, p)
}

// IsMatch reports whether the current state's prefix is an accepted string.
func (s *Session[S]) IsMatch() bool {
	return s.oracle.IsMatch(s.Get())
}

// IsInvalid reports whether the session has advanced into a state from which
// acceptance is impossible: either the state itself is the invalid sentinel,
// or it is a dead end with no viable continuation and no match.
func (s *Session[S]) IsInvalid() bool {
	cur := s.Get()
	if cur.Invalid() {
		return true
	}
	return len(s.oracle.ValidContinuations(cur)) == 0 && !s.oracle.IsMatch(cur)
}

// Continuations returns the vocabulary indices viable at the current state.
func (s *Session[S]) Continuations() []int {
	return s.oracle.ValidContinuations(s.Get())
}
