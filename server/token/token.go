// Package token handles the creation and validation of the JWT tokens the
// oracle server issues to its API clients.
package token

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dekarrin/gramoracle/server/dao"
)

const issuer = "gramd"

// Generate creates a signed JWT for the given client. The signing key is the
// server secret concatenated with the client's key hash, so rotating a
// client's API key invalidates its outstanding tokens.
func Generate(secret []byte, c dao.Client) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        issuer,
		"exp":        time.Now().Add(time.Hour).Unix(),
		"sub":        c.ID.String(),
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signKey(secret, c))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// Validate parses and verifies a JWT and returns the client it was issued
// to.
func Validate(ctx context.Context, tok string, secret []byte, db dao.ClientRepository) (dao.Client, error) {
	var client dao.Client

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// who is the client? we need this for further verification
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		client, err = db.GetByID(ctx, id)
		if err != nil {
			if err == dao.ErrNotFound {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signKey(secret, client), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.Client{}, err
	}

	return client, nil
}

// Get pulls the bearer token out of a request's Authorization header.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	tok := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return tok, nil
}

func signKey(secret []byte, c dao.Client) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, c.KeyHash...)
	return key
}
