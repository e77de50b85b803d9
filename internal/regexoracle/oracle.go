// Package regexoracle implements the regex continuation oracle: a DFA
// lifted to act over a fixed vocabulary, answering which continuations may
// be appended to a prefix without making acceptance of the modeled regex
// impossible. Regex compilation itself is out of scope; the caller supplies
// an already-compiled automaton.ByteDFA.
package regexoracle

import (
	"fmt"

	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/prefix"
	"github.com/dekarrin/gramoracle/internal/vocab"
)

// State is a regex continuation oracle's state: the underlying DFA state, or
// automaton.DeadState if the prefix that produced it can never be extended
// to an accepted string.
type State int

// Invalid reports whether s is the sentinel invalid state.
func (s State) Invalid() bool {
	return int(s) == automaton.DeadState
}

// Oracle wraps a compiled regex DFA plus a vocabulary, implementing the
// Constraint contract for a regular language.
type Oracle struct {
	dfa   automaton.ByteDFA
	vocab *vocab.Vocab
	idx   *prefix.Index
	trace func(s string)
}

// New builds a regex continuation oracle from an already-compiled DFA and a
// vocabulary. The prefix-match index is built once here and shared by every
// subsequent ValidContinuations call.
func New(dfa automaton.ByteDFA, v *vocab.Vocab) *Oracle {
	return &Oracle{
		dfa:   dfa,
		vocab: v,
		idx:   prefix.New(dfa, v.Len(), func(i int) []byte { return v.At(i) }),
	}
}

// RegisterTraceListener sets a function to be called with diagnostic strings
// as the oracle works. Must be set before the oracle is shared between
// goroutines; it is not guarded.
func (o *Oracle) RegisterTraceListener(listener func(s string)) {
	o.trace = listener
}

func (o *Oracle) notifyTrace(fmtStr string, args ...interface{}) {
	if o.trace != nil {
		o.trace(fmt.Sprintf(fmtStr, args...))
	}
}

// StartState returns the DFA's start state.
func (o *Oracle) StartState() State {
	return State(o.dfa.Start())
}

// StateAfter returns the DFA state reached after reading prefix, or the
// invalid sentinel if prefix enters the dead state at any point.
func (o *Oracle) StateAfter(p []byte) State {
	return State(automaton.Run(o.dfa, o.dfa.Start(), p))
}

// CheckPrefix returns nil when prefix can still extend to an accepted
// string, or an InvalidPrefixError carrying the offset of the byte that
// made acceptance impossible.
func (o *Oracle) CheckPrefix(p []byte) error {
	s := o.dfa.Start()
	for i, b := range p {
		s = o.dfa.Step(s, b)
		if s == automaton.DeadState {
			return oraerrors.NewInvalidPrefix(i, "prefix cannot extend to an accepted string")
		}
	}
	return nil
}

// Advance returns the DFA state reached after reading p from s, or the
// invalid sentinel if any byte of p drives the DFA dead.
func (o *Oracle) Advance(s State, p []byte) State {
	if s.Invalid() {
		return State(automaton.DeadState)
	}
	return State(automaton.Run(o.dfa, int(s), p))
}

// IsMatch reports whether s is an accepting state.
func (o *Oracle) IsMatch(s State) bool {
	if s.Invalid() {
		return false
	}
	return o.dfa.IsAccepting(int(s))
}

// ValidContinuations returns the sorted vocabulary indices viable at s. A
// dead/invalid state always yields an empty list.
func (o *Oracle) ValidContinuations(s State) []int {
	if s.Invalid() {
		return nil
	}
	viable := o.idx.Viable(int(s))
	o.notifyTrace("continuations: %d viable at DFA state %d", len(viable), int(s))
	return viable
}

// NextState returns the DFA state after reading vocabulary entry i from s, or
// the invalid sentinel if doing so drives the DFA dead.
func (o *Oracle) NextState(s State, i int) State {
	if s.Invalid() {
		return State(automaton.DeadState)
	}
	return State(automaton.Run(o.dfa, int(s), o.vocab.At(i)))
}

// Vocab returns the vocabulary this oracle was built over.
func (o *Oracle) Vocab() *vocab.Vocab {
	return o.vocab
}
