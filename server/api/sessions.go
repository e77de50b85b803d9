package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/dekarrin/gramoracle/server/dao"
	"github.com/dekarrin/gramoracle/server/result"
	"github.com/dekarrin/gramoracle/server/serr"
)

// HTTPCreateSession returns a HandlerFunc that starts a new generation
// session over a named catalog spec.
func (api API) HTTPCreateSession() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateSession)
}

func (api API) epCreateSession(req *http.Request) result.Result {
	var createData CreateSessionRequest
	if err := parseJSON(req, &createData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createData.Spec == "" {
		return result.BadRequest("spec: property is empty or missing from request", "empty spec name")
	}
	if createData.Variant == "" {
		return result.BadRequest("variant: property is empty or missing from request", "empty variant")
	}

	s, err := api.Backend.CreateSession(req.Context(), createData.Spec, createData.Variant)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no spec named %q", createData.Spec)
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(sessionModel(s), "created %s session %s over spec %q", s.Variant, s.ID, s.SpecName)
}

// HTTPGetSessions returns a HandlerFunc that lists every live session.
func (api API) HTTPGetSessions() http.HandlerFunc {
	return api.httpEndpoint(api.epGetSessions)
}

func (api API) epGetSessions(req *http.Request) result.Result {
	all, err := api.Backend.GetSessions(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]SessionModel, len(all))
	for i := range all {
		resp[i] = sessionModel(all[i])
	}
	return result.OK(resp, "listed %d sessions", len(resp))
}

// HTTPGetSession returns a HandlerFunc that reports a session's current
// state.
func (api API) HTTPGetSession() http.HandlerFunc {
	return api.httpEndpoint(api.epGetSession)
}

func (api API) epGetSession(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}
	return result.OK(sessionModel(s), "got session %s", s.ID)
}

// HTTPDeleteSession returns a HandlerFunc that ends a session.
func (api API) HTTPDeleteSession() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteSession)
}

func (api API) epDeleteSession(req *http.Request) result.Result {
	id := requireIDParam(req)

	s, err := api.Backend.DeleteSession(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no session %s", id)
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(sessionModel(s), "deleted session %s", s.ID)
}

// HTTPGetContinuations returns a HandlerFunc that lists the vocabulary
// indices viable at a session's current state.
func (api API) HTTPGetContinuations() http.HandlerFunc {
	return api.httpEndpoint(api.epGetContinuations)
}

func (api API) epGetContinuations(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	indices := s.Runner.Continuations()
	if indices == nil {
		indices = []int{}
	}
	return result.OK(ContinuationsResponse{Indices: indices}, "session %s: %d continuations", s.ID, len(indices))
}

// HTTPSessionNext returns a HandlerFunc that advances a session by one
// vocabulary entry.
func (api API) HTTPSessionNext() http.HandlerFunc {
	return api.httpEndpoint(api.epSessionNext)
}

func (api API) epSessionNext(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	var nextData NextRequest
	if err := parseJSON(req, &nextData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if nextData.Index < 0 || nextData.Index >= s.Runner.VocabLen() {
		return result.BadRequest("index: out of vocabulary range", "vocabulary index %d out of range [0, %d)", nextData.Index, s.Runner.VocabLen())
	}

	s.Runner.Next(nextData.Index)
	return result.OK(sessionModel(s), "session %s advanced by index %d", s.ID, nextData.Index)
}

// HTTPSessionFeed returns a HandlerFunc that advances a session by raw
// bytes.
func (api API) HTTPSessionFeed() http.HandlerFunc {
	return api.httpEndpoint(api.epSessionFeed)
}

func (api API) epSessionFeed(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	var feedData FeedRequest
	if err := parseJSON(req, &feedData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	data, err := base64.StdEncoding.DecodeString(feedData.Data)
	if err != nil {
		return result.BadRequest("data: not valid base64", "bad feed data: %s", err.Error())
	}

	s.Runner.Feed(data)
	return result.OK(sessionModel(s), "session %s advanced by %d bytes", s.ID, len(data))
}

// HTTPSessionReset returns a HandlerFunc that returns a session to its start
// state.
func (api API) HTTPSessionReset() http.HandlerFunc {
	return api.httpEndpoint(api.epSessionReset)
}

func (api API) epSessionReset(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	s.Runner.Reset()
	return result.OK(sessionModel(s), "session %s reset", s.ID)
}

// HTTPGetSnapshot returns a HandlerFunc that suspends a session's current
// state to a portable blob.
func (api API) HTTPGetSnapshot() http.HandlerFunc {
	return api.httpEndpoint(api.epGetSnapshot)
}

func (api API) epGetSnapshot(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	blob, err := s.Runner.Snapshot()
	if err != nil {
		return result.Conflict(err.Error(), "session %s: %s", s.ID, err.Error())
	}

	resp := SnapshotModel{Data: base64.StdEncoding.EncodeToString(blob)}
	return result.OK(resp, "session %s suspended to %d-byte snapshot", s.ID, len(blob))
}

// HTTPPutSnapshot returns a HandlerFunc that resumes a session from a blob
// previously produced by HTTPGetSnapshot.
func (api API) HTTPPutSnapshot() http.HandlerFunc {
	return api.httpEndpoint(api.epPutSnapshot)
}

func (api API) epPutSnapshot(req *http.Request) result.Result {
	s, r, ok := api.lookupSession(req)
	if !ok {
		return r
	}

	var snapData SnapshotModel
	if err := parseJSON(req, &snapData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	blob, err := base64.StdEncoding.DecodeString(snapData.Data)
	if err != nil {
		return result.BadRequest("data: not valid base64", "bad snapshot data: %s", err.Error())
	}

	if err := s.Runner.Resume(blob); err != nil {
		return result.BadRequest(err.Error(), "session %s: %s", s.ID, err.Error())
	}

	return result.OK(sessionModel(s), "session %s resumed from snapshot", s.ID)
}

// lookupSession resolves the session referenced in the request URI. On
// failure the returned Result carries the error response and ok is false.
func (api API) lookupSession(req *http.Request) (dao.Session, result.Result, bool) {
	id := requireIDParam(req)

	s, err := api.Backend.GetSession(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return dao.Session{}, result.NotFound("no session %s", id), false
		}
		return dao.Session{}, result.InternalServerError(err.Error()), false
	}
	return s, result.Result{}, true
}

func sessionModel(s dao.Session) SessionModel {
	return SessionModel{
		ID:                    s.ID.String(),
		Spec:                  s.SpecName,
		Variant:               s.Variant,
		Created:               s.Created.Unix(),
		IsMatch:               s.Runner.IsMatch(),
		IsInvalid:             s.Runner.IsInvalid(),
		OnlySkippableMatching: s.Runner.OnlySkippableMatching(),
	}
}
