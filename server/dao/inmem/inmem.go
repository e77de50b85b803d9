// Package inmem provides in-memory implementations of the oracle server's
// repositories.
package inmem

import (
	"github.com/dekarrin/gramoracle/server/dao"
)

type store struct {
	clients  *ClientsRepo
	sessions *SessionsRepo
}

// NewDatastore creates a Store whose repositories all live in process
// memory.
func NewDatastore() dao.Store {
	return &store{
		clients:  NewClientsRepo(),
		sessions: NewSessionsRepo(),
	}
}

func (st *store) Clients() dao.ClientRepository {
	return st.clients
}

func (st *store) Sessions() dao.SessionRepository {
	return st.sessions
}

func (st *store) Close() error {
	var err error
	if cErr := st.clients.Close(); cErr != nil {
		err = cErr
	}
	if sErr := st.sessions.Close(); sErr != nil {
		err = sErr
	}
	return err
}
