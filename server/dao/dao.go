// Package dao provides data access objects for use in the oracle server.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
)

// Store holds all the repositories.
type Store interface {
	Clients() ClientRepository
	Sessions() SessionRepository
	Close() error
}

// ClientRepository holds the API clients allowed to mint tokens against this
// server.
type ClientRepository interface {
	Create(ctx context.Context, c Client) (Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	GetByName(ctx context.Context, name string) (Client, error)
	GetAll(ctx context.Context) ([]Client, error)
	Delete(ctx context.Context, id uuid.UUID) (Client, error)
	Close() error
}

// Client is an API client registered with the server. KeyHash is a bcrypt
// hash of the client's API key; the key itself is never stored.
type Client struct {
	ID      uuid.UUID
	Name    string
	KeyHash []byte
	Created time.Time
}

// SessionRepository holds live generation sessions. Sessions hold running
// oracle state and so are inherently in-memory; there is no persistent
// implementation (suspending a session across restarts goes through its
// snapshot instead).
type SessionRepository interface {
	Create(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAll(ctx context.Context) ([]Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
	Close() error
}

// Runner is the live, concurrency-safe generation wrapper a Session holds:
// one oracle plus one current state.
type Runner interface {
	// Reset returns the session to the oracle's start state.
	Reset()

	// Next advances the current state by the given vocabulary index.
	Next(i int)

	// Feed advances the current state by raw bytes.
	Feed(p []byte)

	// IsMatch reports whether the current prefix is an accepted string.
	IsMatch() bool

	// IsInvalid reports whether acceptance has become impossible.
	IsInvalid() bool

	// OnlySkippableMatching reports whether the session is a match with
	// nothing but skippable tokens left. Always false for regex sessions.
	OnlySkippableMatching() bool

	// Continuations returns the vocabulary indices viable at the current
	// state.
	Continuations() []int

	// VocabLen returns the size of the oracle's vocabulary; valid indices
	// for Next are [0, VocabLen).
	VocabLen() int

	// Snapshot suspends the current state to a blob, or errors if the state
	// is invalid.
	Snapshot() ([]byte, error)

	// Resume replaces the current state with one decoded from a blob
	// previously produced by Snapshot on a session over the same spec.
	Resume(blob []byte) error
}

// Session is one live generation session.
type Session struct {
	ID       uuid.UUID
	SpecName string
	Variant  string
	Created  time.Time
	Runner   Runner
}
