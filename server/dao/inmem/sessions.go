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

// SessionsRepo is an in-memory dao.SessionRepository.
type SessionsRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]dao.Session
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		byID: make(map[uuid.UUID]dao.Session),
	}
}

func (repo *SessionsRepo) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if s.Runner == nil {
		return dao.Session{}, fmt.Errorf("session has no runner")
	}

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID
	s.Created = time.Now()
	repo.byID[s.ID] = s
	return s, nil
}

func (repo *SessionsRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	s, ok := repo.byID[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	return s, nil
}

func (repo *SessionsRepo) GetAll(ctx context.Context) ([]dao.Session, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	all := make([]dao.Session, 0, len(repo.byID))
	for _, s := range repo.byID {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Created.Before(all[j].Created) })
	return all, nil
}

func (repo *SessionsRepo) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	s, ok := repo.byID[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	delete(repo.byID, id)
	return s, nil
}

func (repo *SessionsRepo) Close() error {
	return nil
}
