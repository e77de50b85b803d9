package api

import (
	"encoding/json"

	"github.com/dekarrin/gramoracle/internal/parsetree"
)

// LoginRequest is the request body for creating a login token.
type LoginRequest struct {
	Client string `json:"client"`
	Key    string `json:"key"`
}

// LoginResponse is the response body containing a newly minted token.
type LoginResponse struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

// InfoModel describes the server.
type InfoModel struct {
	Version struct {
		Server  string `json:"server"`
		Library string `json:"library"`
	} `json:"version"`
}

// CreateSpecRequest is the request body for adding a spec to the catalog.
// Doc is the spec document itself, embedded as-is.
type CreateSpecRequest struct {
	Name string          `json:"name"`
	Doc  json.RawMessage `json:"doc"`
}

// SpecModel describes one catalog spec.
type SpecModel struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	VocabSize int    `json:"vocab_size"`
	Created   int64  `json:"created"`
}

// CreateSessionRequest is the request body for starting a generation
// session.
type CreateSessionRequest struct {
	Spec    string `json:"spec"`
	Variant string `json:"variant"`
}

// SessionModel describes one live session, including its current state's
// query results.
type SessionModel struct {
	ID                    string `json:"id"`
	Spec                  string `json:"spec"`
	Variant               string `json:"variant"`
	Created               int64  `json:"created"`
	IsMatch               bool   `json:"is_match"`
	IsInvalid             bool   `json:"is_invalid"`
	OnlySkippableMatching bool   `json:"only_skippable_matching"`
}

// NextRequest is the request body for advancing a session by one vocabulary
// entry.
type NextRequest struct {
	Index int `json:"index"`
}

// FeedRequest is the request body for advancing a session by raw bytes,
// base64-encoded so non-UTF-8 byte strings survive the JSON trip.
type FeedRequest struct {
	Data string `json:"data"`
}

// ContinuationsResponse lists the vocabulary indices viable at a session's
// current state.
type ContinuationsResponse struct {
	Indices []int `json:"indices"`
}

// SnapshotModel carries a suspended session state, base64-encoded.
type SnapshotModel struct {
	Data string `json:"data"`
}

// ParseRequest is the request body for a prefix parse.
type ParseRequest struct {
	Spec           string `json:"spec"`
	Input          string `json:"input"`
	SkipEmpty      bool   `json:"skip_empty,omitempty"`
	CollapseSingle bool   `json:"collapse_single,omitempty"`
}

// ParseResponse is the result of a prefix parse: the tree of the longest
// committable prefix plus the unconsumed tail.
type ParseResponse struct {
	Tree *TreeNodeModel `json:"tree"`
	Tail string         `json:"tail"`
}

// TreeNodeModel is the JSON form of a parse-tree node. Terminals carry Value
// and ByteSpan; non-terminals carry Children; ε-reduction nodes carry only
// Name.
type TreeNodeModel struct {
	Name     string          `json:"name"`
	Value    *string         `json:"value,omitempty"`
	ByteSpan *[2]int         `json:"byte_span,omitempty"`
	Children []TreeNodeModel `json:"children,omitempty"`
}

// TreeModel converts a parse tree to its JSON form.
func TreeModel(n *parsetree.Node) TreeNodeModel {
	m := TreeNodeModel{Name: n.Name}

	switch n.Kind {
	case parsetree.KindTerminal:
		val := string(n.Value)
		m.Value = &val
		m.ByteSpan = &[2]int{n.Span.Start, n.Span.End}
	case parsetree.KindNonTerminal:
		m.Children = make([]TreeNodeModel, len(n.Children))
		for i, c := range n.Children {
			m.Children[i] = TreeModel(c)
		}
	}

	return m
}
