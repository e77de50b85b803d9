package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/prefixparse"
	"github.com/dekarrin/gramoracle/server/result"
	"github.com/dekarrin/gramoracle/server/serr"
)

// HTTPCreateParse returns a HandlerFunc that runs the prefix parser for a
// named grammar spec over an input and returns the tree and unconsumed tail.
func (api API) HTTPCreateParse() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateParse)
}

func (api API) epCreateParse(req *http.Request) result.Result {
	var parseData ParseRequest
	if err := parseJSON(req, &parseData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if parseData.Spec == "" {
		return result.BadRequest("spec: property is empty or missing from request", "empty spec name")
	}

	opts := prefixparse.Options{
		SkipEmpty:      parseData.SkipEmpty,
		CollapseSingle: parseData.CollapseSingle,
	}

	tree, tail, err := api.Backend.ParsePrefix(req.Context(), parseData.Spec, []byte(parseData.Input), opts)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no spec named %q", parseData.Spec)
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}

		parseFailure := &oraerrors.ParseFailureError{}
		if errors.As(err, &parseFailure) {
			return result.Err(http.StatusUnprocessableEntity, err.Error(), "parse failure at byte %d", parseFailure.ByteOffset)
		}
		return result.InternalServerError(err.Error())
	}

	treeModel := TreeModel(tree)
	resp := ParseResponse{Tree: &treeModel, Tail: string(tail)}
	return result.OK(resp, "parsed %d input bytes against spec %q, %d-byte tail", len(parseData.Input), parseData.Spec, len(tail))
}
