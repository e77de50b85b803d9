package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramoracle/internal/catalog"
	"github.com/dekarrin/gramoracle/server/result"
	"github.com/dekarrin/gramoracle/server/serr"
)

// HTTPCreateSpec returns a HandlerFunc that adds a new named spec to the
// catalog.
func (api API) HTTPCreateSpec() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateSpec)
}

func (api API) epCreateSpec(req *http.Request) result.Result {
	var createData CreateSpecRequest
	if err := parseJSON(req, &createData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createData.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty spec name")
	}

	doc, err := catalog.ParseDocument(createData.Doc)
	if err != nil {
		return result.BadRequest("doc: "+err.Error(), "bad spec document: %s", err.Error())
	}

	entry, err := api.Backend.CreateSpec(req.Context(), createData.Name, doc)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("A spec with that name already exists", "duplicate spec %q", createData.Name)
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(specModel(entry), "created spec %q", entry.Name)
}

// HTTPGetSpecs returns a HandlerFunc that lists every spec in the catalog.
func (api API) HTTPGetSpecs() http.HandlerFunc {
	return api.httpEndpoint(api.epGetSpecs)
}

func (api API) epGetSpecs(req *http.Request) result.Result {
	all, err := api.Backend.GetSpecs(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]SpecModel, len(all))
	for i := range all {
		resp[i] = specModel(all[i])
	}
	return result.OK(resp, "listed %d specs", len(resp))
}

// HTTPGetSpec returns a HandlerFunc that retrieves one spec by name.
func (api API) HTTPGetSpec() http.HandlerFunc {
	return api.httpEndpoint(api.epGetSpec)
}

func (api API) epGetSpec(req *http.Request) result.Result {
	name := requireNameParam(req)

	entry, err := api.Backend.GetSpec(req.Context(), name)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no spec named %q", name)
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(specModel(entry), "got spec %q", name)
}

// HTTPDeleteSpec returns a HandlerFunc that removes one spec by name.
func (api API) HTTPDeleteSpec() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteSpec)
}

func (api API) epDeleteSpec(req *http.Request) result.Result {
	name := requireNameParam(req)

	entry, err := api.Backend.DeleteSpec(req.Context(), name)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no spec named %q", name)
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(specModel(entry), "deleted spec %q", name)
}

func specModel(e catalog.Entry) SpecModel {
	return SpecModel{
		Name:      e.Name,
		Kind:      e.Doc.Kind,
		VocabSize: len(e.Doc.Vocab),
		Created:   e.Created.Unix(),
	}
}
