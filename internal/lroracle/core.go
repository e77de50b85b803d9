package lroracle

import (
	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/util"
)

// endOfInput is the lookahead terminal a table's augmented start production
// accepts on.
const endOfInput = "$"

// core holds everything both oracle variants share: the table, lexer, and
// terminal bookkeeping, plus the byte-step algorithm and the is_match
// simulation. It has no continuation-generation logic of its own; that
// differs between the regular and exact variants and lives in oracle.go.
type core struct {
	table     grammar.Table
	lexer     grammarLexer
	realTerms []string // table.Terminals() minus anything IsSkippable

	// canExtend[L] reports whether any byte moves the lexer out of state L.
	// When it is false the token run has nowhere left to go, so the commit
	// the next byte would force can be performed as soon as L is entered.
	canExtend []bool
}

func newCore(table grammar.Table, lexer grammar.Lexer) *core {
	skip := util.StringSetOf(lexer.SkippableIDs())
	gl := grammarLexer{lx: lexer, skippable: skip}

	var real []string
	for _, t := range table.Terminals() {
		if !skip.Has(t) {
			real = append(real, t)
		}
	}

	canExtend := make([]bool, lexer.NumStates())
	for l := range canExtend {
		for b := 0; b < 256; b++ {
			if lexer.Step(l, byte(b)) != automaton.DeadState {
				canExtend[l] = true
				break
			}
		}
	}

	return &core{table: table, lexer: gl, realTerms: real, canExtend: canExtend}
}

// startState returns the initial (S, L, P, M): a one-element parser stack at
// the table's initial state, no lexer run in progress, nothing pending.
func (c *core) startState() State {
	return State{valid: true, stack: []int{c.table.Initial()}, lexState: noLex}
}

// advance performs one byte-step of the algorithm: feed b to the lexer; if it
// keeps the lexer alive, extend P (and refresh M if the new lex state
// accepts); if it kills the lexer, commit the most recent match (driving the
// parser through any pending reductions and the shift for it, unless the
// matched token is skippable), then resume on the bytes left over in P after
// the consumed boundary. A run that lands in a state no byte can extend is
// committed immediately rather than waiting for the next byte to force it:
// the outcome is the same fold either way, and an unacceptable token
// surfaces as invalid one byte earlier. A malformed commit (an unacceptable
// token, or a dead lexer with nothing ever matched) yields the invalid
// state.
func (c *core) advance(s State, b byte) State {
	if !s.valid {
		return s
	}

	from := s.lexState
	if from == noLex {
		from = c.lexer.lx.Start()
	}
	next := c.lexer.lx.Step(from, b)

	pending := append(append([]byte{}, s.pending...), b)

	var m *match
	if s.matched != nil {
		cp := *s.matched
		m = &cp
	}
	if tok, ok := c.lexer.lx.TokenAt(next); ok {
		m = &match{tokenID: tok, length: len(pending), lexState: next}
	}

	if next != automaton.DeadState && c.canExtend[next] {
		return State{valid: true, stack: s.stack, lexState: next, pending: pending, matched: m}
	}

	// lexer died, or the run is stuck: must commit on m, or the whole
	// prefix is malformed.
	if m == nil {
		return invalidState
	}
	return c.commit(State{valid: true, stack: s.stack, lexState: next, pending: pending, matched: m})
}

// commit applies s.matched (which must be non-nil), then re-lexes every
// pending byte past the match boundary one at a time from a fresh run. The
// replay covers the whole leftover span, not just the byte that ended the
// run: the lexer may have stayed alive without matching for several bytes
// after the committed token, and each of those bytes belongs to the next
// token(s). Replaying through advance naturally cascades across runs of
// back-to-back tokens already buffered in P.
func (c *core) commit(s State) State {
	m := s.matched

	stack := s.cloneStack()
	if !c.lexer.isSkippable(m.tokenID) {
		outcome, newStack := driveAction(c.table, stack, m.tokenID)
		if outcome == grammar.Error {
			return invalidState
		}
		stack = newStack
	}

	leftover := append([]byte{}, s.pending[m.length:]...)
	committed := State{valid: true, stack: stack, lexState: noLex, pending: nil, matched: nil}

	for _, lb := range leftover {
		committed = c.advance(committed, lb)
		if !committed.valid {
			return invalidState
		}
	}
	return committed
}

// stateAfter folds advance over p, short-circuiting once the state goes
// invalid.
func (c *core) stateAfter(s State, p []byte) State {
	for _, b := range p {
		if !s.valid {
			return s
		}
		s = c.advance(s, b)
	}
	return s
}

// driveAction simulates the parser's ACTION/GOTO-driven reduce loop on
// terminal from stack, without touching any lexer or byte state: reduce
// repeatedly until a Shift, Accept, or Error is reached. It is the shared
// core of both the valid-terminal membership tests and the commit and
// match simulations, run against a hypothetical (not-yet-pushed)
// lookahead.
func driveAction(table grammar.Table, stack []int, terminal string) (grammar.ActionType, []int) {
	s := append([]int{}, stack...)
	for {
		act := table.Action(s[len(s)-1], terminal)
		switch act.Type {
		case grammar.Shift:
			return grammar.Shift, append(s, act.ShiftState)
		case grammar.Accept:
			return grammar.Accept, s
		case grammar.Reduce:
			if act.ReduceLen >= len(s) {
				return grammar.Error, s
			}
			s = s[:len(s)-act.ReduceLen]
			nextState, ok := table.Goto(s[len(s)-1], act.ReduceSymbol)
			if !ok {
				return grammar.Error, s
			}
			s = append(s, nextState)
		default:
			return grammar.Error, s
		}
	}
}

// tValid returns every terminal id that could be shifted from stack's top
// after zero or more hypothetical reductions, plus every skippable token id
// unconditionally (skippable tokens never reach the parser, so they are
// always acceptable regardless of where the parser currently sits).
func (c *core) tValid(stack []int) util.StringSet {
	out := util.NewStringSet()
	for _, t := range c.realTerms {
		outcome, _ := driveAction(c.table, stack, t)
		if outcome == grammar.Shift || outcome == grammar.Accept {
			out.Add(t)
		}
	}
	out.AddAll(c.lexer.skippable)
	return out
}

// isMatch reports whether s, committed as-is (its pending match if any, then
// reduced against end-of-input), would reach Accept.
func (c *core) isMatch(s State) bool {
	if !s.valid {
		return false
	}
	// every pending byte must be covered by the current match: a partial
	// token hanging past the match boundary is not part of any accepted
	// string.
	if s.matched == nil && len(s.pending) > 0 {
		return false
	}
	if s.matched != nil && s.matched.length != len(s.pending) {
		return false
	}
	stack := s.cloneStack()
	if s.matched != nil && !c.lexer.isSkippable(s.matched.tokenID) {
		outcome, newStack := driveAction(c.table, stack, s.matched.tokenID)
		if outcome != grammar.Shift && outcome != grammar.Accept {
			return false
		}
		if outcome == grammar.Accept {
			return true
		}
		stack = newStack
	}
	outcome, _ := driveAction(c.table, stack, endOfInput)
	return outcome == grammar.Accept
}

// onlySkippableMatching reports whether s both is_match and has no real
// (non-skippable) terminal currently shiftable: every remaining viable
// continuation can only ever extend a skippable token from here.
func (c *core) onlySkippableMatching(s State) bool {
	if !c.isMatch(s) {
		return false
	}
	valid := c.tValid(s.stack)
	for _, t := range c.realTerms {
		if valid.Has(t) {
			return false
		}
	}
	return true
}
