package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemStore is a Store that lives only as long as the process. Suitable for
// tests and for daemons run without a data directory.
type InMemStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemStore creates an empty in-memory catalog.
func NewInMemStore() *InMemStore {
	return &InMemStore{entries: make(map[string]Entry)}
}

func (st *InMemStore) Create(ctx context.Context, e Entry) (Entry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.entries[e.Name]; ok {
		return Entry{}, fmt.Errorf("spec %q: %w", e.Name, ErrConstraintViolation)
	}

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return Entry{}, fmt.Errorf("could not generate ID: %w", err)
	}

	e.ID = newUUID
	e.Created = time.Now()
	st.entries[e.Name] = e
	return e, nil
}

func (st *InMemStore) GetByName(ctx context.Context, name string) (Entry, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("spec %q: %w", name, ErrNotFound)
	}
	return e, nil
}

func (st *InMemStore) GetAll(ctx context.Context) ([]Entry, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	all := make([]Entry, 0, len(st.entries))
	for _, e := range st.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (st *InMemStore) Delete(ctx context.Context, name string) (Entry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("spec %q: %w", name, ErrNotFound)
	}
	delete(st.entries, name)
	return e, nil
}

func (st *InMemStore) Close() error {
	return nil
}
