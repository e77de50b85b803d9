// Package middle contains middleware for use with the oracle server.
package middle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/gramoracle/server/dao"
	"github.com/dekarrin/gramoracle/server/result"
	"github.com/dekarrin/gramoracle/server/token"
)

// Middleware is a function that takes a handler and returns a new handler
// which wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in the context of a request populated by the Auth
// middleware.
type AuthKey int64

const (
	AuthLoggedIn AuthKey = iota
	AuthClient
)

// KeyChecker verifies a client name and API key pair. It is the slice of the
// backend service the middleware needs for direct key auth; a failed check
// returns an error and the zero client.
type KeyChecker interface {
	Login(ctx context.Context, name, key string) (dao.Client, error)
}

// Auth holds what the server's auth middleware needs to resolve the calling
// API client. Two schemes are accepted, tried in order:
//
//  1. a Bearer JWT previously minted by the login endpoint, validated
//     against the signing secret and the client registry;
//  2. an X-API-Key header of the form "name:key", checked directly against
//     the stored key hash. This trades the cost of a hash comparison per
//     request for not having to mint a token first, which suits one-shot
//     daemon-to-daemon calls.
//
// Handlers downstream read AuthClient and AuthLoggedIn from the request
// context.
type Auth struct {
	// Clients is the registry tokens are validated against.
	Clients dao.ClientRepository

	// Keys checks direct name/key credentials.
	Keys KeyChecker

	// Secret signs and validates JWTs.
	Secret []byte

	// UnauthDelay is slept before every auth-rejection response, as a
	// brake on credential guessing.
	UnauthDelay time.Duration
}

// Required returns middleware that rejects requests with no resolvable
// client with an HTTP-401.
func (a Auth) Required() Middleware {
	return a.middleware(true)
}

// Optional returns middleware that resolves the client when credentials are
// present but lets anonymous requests through; AuthLoggedIn tells handlers
// which case they are in.
func (a Auth) Optional() Middleware {
	return a.middleware(false)
}

func (a Auth) middleware(required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			client, err := a.resolve(req)
			if err != nil && required {
				r := result.Unauthorized("", err.Error())
				time.Sleep(a.UnauthDelay)
				r.WriteResponse(w)
				r.Log(req)
				return
			}

			ctx := req.Context()
			ctx = context.WithValue(ctx, AuthLoggedIn, err == nil)
			ctx = context.WithValue(ctx, AuthClient, client)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// resolve finds the calling client via whichever credential scheme the
// request carries.
func (a Auth) resolve(req *http.Request) (dao.Client, error) {
	if tok, err := token.Get(req); err == nil {
		client, err := token.Validate(req.Context(), tok, a.Secret, a.Clients)
		if err != nil {
			return dao.Client{}, fmt.Errorf("bearer token: %w", err)
		}
		return client, nil
	}

	if name, key, ok := apiKeyCredentials(req); ok {
		client, err := a.Keys.Login(req.Context(), name, key)
		if err != nil {
			return dao.Client{}, fmt.Errorf("API key for %q rejected", name)
		}
		return client, nil
	}

	return dao.Client{}, fmt.Errorf("no bearer token or API key present")
}

// apiKeyCredentials pulls "name:key" out of the X-API-Key header.
func apiKeyCredentials(req *http.Request) (name, key string, ok bool) {
	header := strings.TrimSpace(req.Header.Get("X-API-Key"))
	if header == "" {
		return "", "", false
	}

	parts := strings.SplitN(header, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Recover returns middleware that converts a panicking handler into a logged
// HTTP-500 instead of tearing down the connection.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					r := result.TextErr(
						http.StatusInternalServerError,
						"An internal server error occurred",
						fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
					)
					r.WriteResponse(w)
					r.Log(req)
				}
			}()
			next.ServeHTTP(w, req)
		})
	}
}
