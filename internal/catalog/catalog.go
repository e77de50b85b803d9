// Package catalog is a registry of named oracle specs: already-compiled
// automatons, parse tables, and vocabularies that the daemon and CLI can
// instantiate oracles from by name. It is consulted at construction time
// only; no query-path operation of any oracle ever touches it.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("the requested spec was not found")
	ErrConstraintViolation = errors.New("a spec with that name already exists")
	ErrDecodingFailure     = errors.New("spec could not be decoded from storage format")
)

// Entry is one named spec in the catalog.
type Entry struct {
	ID      uuid.UUID
	Name    string
	Doc     Document
	Created time.Time
}

// Store holds named specs in persistence.
type Store interface {
	// Create adds a new spec to the catalog. The ID and Created fields of
	// the passed entry are ignored and filled in by the store.
	Create(ctx context.Context, e Entry) (Entry, error)

	// GetByName retrieves the spec with the given name, or an error wrapping
	// ErrNotFound.
	GetByName(ctx context.Context, name string) (Entry, error)

	// GetAll retrieves every spec, ordered by name.
	GetAll(ctx context.Context) ([]Entry, error)

	// Delete removes the spec with the given name and returns it, or an
	// error wrapping ErrNotFound.
	Delete(ctx context.Context, name string) (Entry, error)

	Close() error
}
