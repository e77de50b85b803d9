// Package lroracle implements the LR(1) continuation oracle: a streaming
// lex-and-parse state machine lifted to answer which vocabulary
// continuations keep a grammar's acceptance reachable. Its state is a
// value (parser stack, lexer state, pending bytes, last match) that is
// advanced one byte at a time and can be compared and cached between
// calls.
package lroracle

import (
	"fmt"
	"strings"

	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/util"
)

// noLex is the sentinel lexer-state value meaning "no lexer run is in
// progress"; the next byte fed in starts a fresh run from the lexer's own
// start state. It happens to share automaton.DeadState's value, but the two
// are never confused because noLex is only ever read before a lexer.Step
// call, never passed as its result.
const noLex = automaton.DeadState

// match records the most recently matched token since the last commit: the
// token id, how many of the pending bytes it covers, and the lexer state it
// was matched in (kept for diagnostics, not used to drive further steps).
type match struct {
	tokenID  string
	length   int
	lexState int
}

// State is one value of the (S, L, P, M) tuple: parser stack, pending lexer
// state, bytes read since the last committed token boundary, and the last
// match found among those bytes. It is cheap to copy by value; Advance always
// returns a new State rather than mutating its receiver, so a caller holding
// an older State continues to see a consistent snapshot.
type State struct {
	valid    bool
	stack    []int
	lexState int
	pending  []byte
	matched  *match
}

// Invalid reports whether s is the sentinel "no longer extendable" state:
// every query method and Advance treat it as a dead end.
func (s State) Invalid() bool {
	return !s.valid
}

var invalidState = State{valid: false}

func (s State) cloneStack() []int {
	out := make([]int, len(s.stack))
	copy(out, s.stack)
	return out
}

// key returns a canonical, comparable encoding of s suitable for use as a
// cache key: two States with the same key behave identically under every
// query method.
func (s State) key() string {
	if !s.valid {
		return "!"
	}
	var sb strings.Builder
	for _, st := range s.stack {
		fmt.Fprintf(&sb, "%d,", st)
	}
	sb.WriteByte('|')
	fmt.Fprintf(&sb, "%d|", s.lexState)
	sb.Write(s.pending)
	sb.WriteByte('|')
	if s.matched != nil {
		fmt.Fprintf(&sb, "%s:%d", s.matched.tokenID, s.matched.length)
	}
	return sb.String()
}

// Parts is the exported decomposition of a State, used to suspend a state to
// storage and resume it later. A Parts value round-trips through FromParts
// back to a State that behaves identically.
type Parts struct {
	Stack    []int
	LexState int
	Pending  []byte

	// HasMatch gates the three match fields; when false they are zero.
	HasMatch bool
	TokenID  string
	TokenLen int
	MatchLex int
}

// Parts decomposes s. ok is false when s is the invalid sentinel, which has
// no decomposition worth storing.
func (s State) Parts() (p Parts, ok bool) {
	if !s.valid {
		return Parts{}, false
	}
	p.Stack = s.cloneStack()
	p.LexState = s.lexState
	p.Pending = append([]byte{}, s.pending...)
	if s.matched != nil {
		p.HasMatch = true
		p.TokenID = s.matched.tokenID
		p.TokenLen = s.matched.length
		p.MatchLex = s.matched.lexState
	}
	return p, true
}

// FromParts rebuilds a State from a decomposition previously produced by
// Parts. It trusts the caller: feeding it parts that never came from a real
// State produces a State whose behavior is undefined.
func FromParts(p Parts) State {
	s := State{
		valid:    true,
		stack:    append([]int{}, p.Stack...),
		lexState: p.LexState,
		pending:  append([]byte{}, p.Pending...),
	}
	if p.HasMatch {
		s.matched = &match{tokenID: p.TokenID, length: p.TokenLen, lexState: p.MatchLex}
	}
	return s
}

// grammarLexer pairs a grammar.Lexer with the skippable-token classification
// precomputed at oracle construction, to avoid recomputing membership tests
// on every byte.
type grammarLexer struct {
	lx        grammar.Lexer
	skippable util.StringSet
}

func (gl grammarLexer) isSkippable(tokenID string) bool {
	return gl.skippable.Has(tokenID)
}
