// Package serr holds the failure-mode sentinels of the oracle server's
// service layer, plus the small helpers that attach context to them.
//
// A service operation that fails for a known reason returns an error
// wrapping one of the sentinels below, so the HTTP layer can map it to a
// status code with errors.Is. ParsePrefix passes the prefix parser's own
// errors through without a sentinel, and unexpected internal failures (such
// as a key-hashing error) wrap none either. The wrapping is plain stdlib composition
// (errors.Join under fmt.Errorf's %w), so multi-cause errors need no
// dedicated type here.
package serr

import (
	"errors"
	"fmt"
)

var (
	// ErrBadCredentials covers both an unknown client name and a key that
	// fails its hash check; callers are deliberately not told which.
	ErrBadCredentials = errors.New("the supplied client/key combination is incorrect")

	// ErrNotFound means the named spec or the referenced session does not
	// exist (or, for sessions, has already been ended).
	ErrNotFound = errors.New("the requested entity could not be found")

	// ErrAlreadyExists means a spec or client with the same name is
	// already registered.
	ErrAlreadyExists = errors.New("resource with same identifying information already exists")

	// ErrBadArgument covers unusable inputs: a spec document that fails
	// validation, a session variant the spec's kind cannot build, an empty
	// client name or key.
	ErrBadArgument = errors.New("one or more of the arguments is invalid")

	// ErrBodyUnmarshal means the request body could not be decoded at all,
	// as opposed to decoding into something ErrBadArgument rejects.
	ErrBodyUnmarshal = errors.New("malformed data in request")

	// ErrDB wraps failures of the catalog and of the client and session
	// repositories.
	ErrDB = errors.New("an error occured with the DB")

	// ErrPermissions is reserved for operations the resolved client may
	// not perform.
	ErrPermissions = errors.New("you don't have permission to do that")
)

// New builds an error carrying msg and wrapping every given cause, such
// that errors.Is on the result reports true for each of them. With no
// causes it is a plain new error; with no message it is just the joined
// causes.
func New(msg string, causes ...error) error {
	joined := errors.Join(causes...)

	switch {
	case joined == nil:
		return errors.New(msg)
	case msg == "":
		return joined
	default:
		return fmt.Errorf("%s: %w", msg, joined)
	}
}

// WrapDB marks err as a persistence failure: the result wraps both err and
// ErrDB.
func WrapDB(msg string, err error) error {
	return New(msg, err, ErrDB)
}
