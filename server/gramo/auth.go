package gramo

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/gramoracle/server/dao"
	"github.com/dekarrin/gramoracle/server/serr"
)

// Login verifies the given client name and API key and returns the matching
// client. Returns an error wrapping serr.ErrBadCredentials if the name does
// not exist or the key does not match, without distinguishing the two.
func (svc Service) Login(ctx context.Context, name, key string) (dao.Client, error) {
	client, err := svc.DB.Clients().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Client{}, serr.New("", serr.ErrBadCredentials)
		}
		return dao.Client{}, serr.WrapDB("get client", err)
	}

	if err := bcrypt.CompareHashAndPassword(client.KeyHash, []byte(key)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.Client{}, serr.New("", serr.ErrBadCredentials)
		}
		return dao.Client{}, serr.New("compare key hash", err)
	}

	return client, nil
}

// CreateClient registers a new API client with the given name and key. The
// key is stored only as a bcrypt hash.
func (svc Service) CreateClient(ctx context.Context, name, key string) (dao.Client, error) {
	if name == "" {
		return dao.Client{}, serr.New("client name must not be empty", serr.ErrBadArgument)
	}
	if key == "" {
		return dao.Client{}, serr.New("client key must not be empty", serr.ErrBadArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return dao.Client{}, serr.New("hash client key", err)
	}

	client, err := svc.DB.Clients().Create(ctx, dao.Client{Name: name, KeyHash: hash})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Client{}, serr.New("a client with that name already exists", serr.ErrAlreadyExists)
		}
		return dao.Client{}, serr.WrapDB("create client", err)
	}
	return client, nil
}
