package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramoracle/server/result"
	"github.com/dekarrin/gramoracle/server/serr"
	"github.com/dekarrin/gramoracle/server/token"
)

// HTTPCreateLogin returns a HandlerFunc that uses the API to log in a client
// with a name and API key and return the auth token for that client.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	loginData := LoginRequest{}
	err := parseJSON(req, &loginData)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	if loginData.Client == "" {
		return result.BadRequest("client: property is empty or missing from request", "empty client")
	}
	if loginData.Key == "" {
		return result.BadRequest("key: property is empty or missing from request", "empty key")
	}

	client, err := api.Backend.Login(req.Context(), loginData.Client, loginData.Key)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "client '%s': %s", loginData.Client, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	// key is valid, generate token for the client and return it.
	tok, err := token.Generate(api.Secret, client)
	if err != nil {
		return result.InternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:    tok,
		ClientID: client.ID.String(),
	}
	return result.Created(resp, "client '"+client.Name+"' successfully logged in")
}
