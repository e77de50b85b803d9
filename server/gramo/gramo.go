// Package gramo provides the backend service layer of the oracle server: the
// business logic the HTTP API calls into. It owns the spec catalog and the
// live generation sessions.
package gramo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dekarrin/gramoracle/internal/catalog"
	"github.com/dekarrin/gramoracle/internal/parsetree"
	"github.com/dekarrin/gramoracle/internal/prefixparse"
	"github.com/dekarrin/gramoracle/server/dao"
	"github.com/dekarrin/gramoracle/server/serr"
)

// Session variants.
const (
	VariantRegex     = "regex"
	VariantLRRegular = "lr-regular"
	VariantLRExact   = "lr-exact"
)

// Service is the backend of the oracle server. Create one with the stores it
// should use and call its methods to perform queries and operations.
type Service struct {
	// DB holds the server's clients and live sessions.
	DB dao.Store

	// Catalog holds the named specs sessions are instantiated from.
	Catalog catalog.Store

	// CacheCapacity bounds each LR(1) oracle's continuation cache. Zero
	// selects the built-in default.
	CacheCapacity int
}

// CreateSpec adds a named spec document to the catalog.
func (svc Service) CreateSpec(ctx context.Context, name string, doc catalog.Document) (catalog.Entry, error) {
	if err := doc.Validate(); err != nil {
		return catalog.Entry{}, serr.New(err.Error(), serr.ErrBadArgument)
	}

	e, err := svc.Catalog.Create(ctx, catalog.Entry{Name: name, Doc: doc})
	if err != nil {
		if errors.Is(err, catalog.ErrConstraintViolation) {
			return catalog.Entry{}, serr.New("a spec with that name already exists", serr.ErrAlreadyExists)
		}
		return catalog.Entry{}, serr.WrapDB("create spec", err)
	}
	return e, nil
}

// GetSpecs returns every spec in the catalog.
func (svc Service) GetSpecs(ctx context.Context) ([]catalog.Entry, error) {
	all, err := svc.Catalog.GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("get specs", err)
	}
	return all, nil
}

// GetSpec returns the named spec.
func (svc Service) GetSpec(ctx context.Context, name string) (catalog.Entry, error) {
	e, err := svc.Catalog.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Entry{}, serr.New("no spec with that name exists", serr.ErrNotFound)
		}
		return catalog.Entry{}, serr.WrapDB("get spec", err)
	}
	return e, nil
}

// DeleteSpec removes the named spec from the catalog and returns it.
func (svc Service) DeleteSpec(ctx context.Context, name string) (catalog.Entry, error) {
	e, err := svc.Catalog.Delete(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Entry{}, serr.New("no spec with that name exists", serr.ErrNotFound)
		}
		return catalog.Entry{}, serr.WrapDB("delete spec", err)
	}
	return e, nil
}

// CreateSession instantiates an oracle from the named spec and wraps it into
// a new live session. variant selects which oracle family to build; it must
// agree with the spec's kind.
func (svc Service) CreateSession(ctx context.Context, specName, variant string) (dao.Session, error) {
	entry, err := svc.GetSpec(ctx, specName)
	if err != nil {
		return dao.Session{}, err
	}

	runner, err := svc.buildRunner(entry.Doc, variant)
	if err != nil {
		return dao.Session{}, err
	}

	s, err := svc.DB.Sessions().Create(ctx, dao.Session{
		SpecName: specName,
		Variant:  variant,
		Runner:   runner,
	})
	if err != nil {
		return dao.Session{}, serr.WrapDB("create session", err)
	}
	return s, nil
}

func (svc Service) buildRunner(doc catalog.Document, variant string) (dao.Runner, error) {
	switch variant {
	case VariantRegex:
		oracle, err := catalog.BuildRegexOracle(doc)
		if err != nil {
			return nil, serr.New(err.Error(), serr.ErrBadArgument)
		}
		return newRegexRunner(oracle), nil
	case VariantLRRegular:
		oracle, err := catalog.BuildRegularOracle(doc, svc.CacheCapacity)
		if err != nil {
			return nil, serr.New(err.Error(), serr.ErrBadArgument)
		}
		return newLRRunner(oracle), nil
	case VariantLRExact:
		oracle, err := catalog.BuildExactOracle(doc, svc.CacheCapacity)
		if err != nil {
			return nil, serr.New(err.Error(), serr.ErrBadArgument)
		}
		return newLRRunner(oracle), nil
	default:
		return nil, serr.New(fmt.Sprintf("unknown session variant: %q", variant), serr.ErrBadArgument)
	}
}

// GetSession returns the live session with the given ID.
func (svc Service) GetSession(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, err := svc.DB.Sessions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Session{}, serr.New("no session with that ID exists", serr.ErrNotFound)
		}
		return dao.Session{}, serr.WrapDB("get session", err)
	}
	return s, nil
}

// GetSessions returns every live session, oldest first.
func (svc Service) GetSessions(ctx context.Context) ([]dao.Session, error) {
	all, err := svc.DB.Sessions().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("get sessions", err)
	}
	return all, nil
}

// DeleteSession ends the session with the given ID and returns it.
func (svc Service) DeleteSession(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, err := svc.DB.Sessions().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Session{}, serr.New("no session with that ID exists", serr.ErrNotFound)
		}
		return dao.Session{}, serr.WrapDB("delete session", err)
	}
	return s, nil
}

// ParsePrefix runs the prefix parser for the named grammar spec over input,
// returning the tree of the longest committable prefix and the unconsumed
// tail.
func (svc Service) ParsePrefix(ctx context.Context, specName string, input []byte, opts prefixparse.Options) (*parsetree.Node, []byte, error) {
	entry, err := svc.GetSpec(ctx, specName)
	if err != nil {
		return nil, nil, err
	}
	if entry.Doc.Kind != catalog.KindGrammar {
		return nil, nil, serr.New(fmt.Sprintf("spec %q is a %s spec, not a grammar", specName, entry.Doc.Kind), serr.ErrBadArgument)
	}

	table, err := catalog.BuildTable(entry.Doc)
	if err != nil {
		return nil, nil, serr.New(err.Error(), serr.ErrBadArgument)
	}
	lexer, err := catalog.BuildLexer(entry.Doc)
	if err != nil {
		return nil, nil, serr.New(err.Error(), serr.ErrBadArgument)
	}

	return prefixparse.Parse(table, lexer, input, opts)
}
