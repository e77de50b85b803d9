package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dekarrin/gramoracle/server/dao"
	"github.com/google/uuid"
)

// ClientsRepo is an in-memory dao.ClientRepository.
type ClientsRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]dao.Client
	byName  map[string]uuid.UUID
}

func NewClientsRepo() *ClientsRepo {
	return &ClientsRepo{
		byID:   make(map[uuid.UUID]dao.Client),
		byName: make(map[string]uuid.UUID),
	}
}

func (repo *ClientsRepo) Create(ctx context.Context, c dao.Client) (dao.Client, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.byName[c.Name]; ok {
		return dao.Client{}, fmt.Errorf("client %q: %w", c.Name, dao.ErrConstraintViolation)
	}

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Client{}, fmt.Errorf("could not generate ID: %w", err)
	}

	c.ID = newUUID
	c.Created = time.Now()
	c.KeyHash = append([]byte{}, c.KeyHash...)

	repo.byID[c.ID] = c
	repo.byName[c.Name] = c.ID
	return c, nil
}

func (repo *ClientsRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Client, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	c, ok := repo.byID[id]
	if !ok {
		return dao.Client{}, dao.ErrNotFound
	}
	return c, nil
}

func (repo *ClientsRepo) GetByName(ctx context.Context, name string) (dao.Client, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	id, ok := repo.byName[name]
	if !ok {
		return dao.Client{}, dao.ErrNotFound
	}
	return repo.byID[id], nil
}

func (repo *ClientsRepo) GetAll(ctx context.Context) ([]dao.Client, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	all := make([]dao.Client, 0, len(repo.byID))
	for _, c := range repo.byID {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (repo *ClientsRepo) Delete(ctx context.Context, id uuid.UUID) (dao.Client, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	c, ok := repo.byID[id]
	if !ok {
		return dao.Client{}, dao.ErrNotFound
	}
	delete(repo.byID, id)
	delete(repo.byName, c.Name)
	return c, nil
}

func (repo *ClientsRepo) Close() error {
	return nil
}
