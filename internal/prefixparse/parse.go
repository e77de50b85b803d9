// Package prefixparse implements the LR(1) prefix parser: it runs the same
// streaming lex-and-parse engine as the continuation oracle over a concrete
// input, but builds an actual parse tree and, when the input cannot be
// fully accepted, backtracks to the last committed-token boundary at which
// the parser stack reduces completely to the start symbol.
package prefixparse

import (
	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/parsetree"
	"github.com/dekarrin/gramoracle/internal/util"
)

const endOfInput = "$"
const noLex = automaton.DeadState

// Options control the tree-shaping rules.
type Options struct {
	// SkipEmpty omits Empty(name) nodes from their parent's children list
	// instead of including them.
	SkipEmpty bool

	// CollapseSingle replaces a NonTerminal with exactly one (surviving)
	// child by that child.
	CollapseSingle bool
}

type match struct {
	tokenID string
	length  int
}

// liveState is the bookkeeping carried between bytes: the parser stack, the
// parallel node stack (one entry per grammar-stack symbol above the bottom
// sentinel, nil where an omitted epsilon reduction leaves no tree node), and
// the in-flight lexer run.
type liveState struct {
	stack []int
	nodes []*parsetree.Node

	lexState     int
	pendingStart int
	pending      []byte
	matched      *match

	accepted bool
}

// checkpoint is a snapshot taken right after every committed non-skippable
// token, used to backtrack when forward progress stalls. Skippable commits
// do not snapshot: the longest valid prefix ends at a grammar token, not at
// trailing whitespace.
type checkpoint struct {
	offset int
	stack  []int
	nodes  []*parsetree.Node
}

// Parse runs the prefix parser over input and returns the tree for the
// longest committable prefix plus the unconsumed tail, or a ParseFailureError
// if no committed-token boundary ever reduced completely to the start
// symbol.
func Parse(table grammar.Table, lexer grammar.Lexer, input []byte, opt Options) (*parsetree.Node, []byte, error) {
	skip := util.StringSetOf(lexer.SkippableIDs())

	p := &parser{table: table, lexer: lexer, skippable: skip, opt: opt}
	return p.run(input)
}

type parser struct {
	table     grammar.Table
	lexer     grammar.Lexer
	skippable util.StringSet
	opt       Options
}

func (p *parser) run(input []byte) (*parsetree.Node, []byte, error) {
	s := liveState{stack: []int{p.table.Initial()}}
	checkpoints := []checkpoint{{offset: 0, stack: cloneInts(s.stack), nodes: nil}}

	pos := 0
	for pos < len(input) {
		next, ok := p.step(s, input[pos], &checkpoints)
		pos++
		if !ok {
			return p.backtrack(checkpoints, input, pos-1)
		}
		s = next
		if s.accepted {
			return p.finish(s.nodes, input, pos)
		}
	}

	// End of input with no explicit Accept seen: force-finalize any
	// in-flight match, since there are no more bytes left to extend it with.
	final, ok := p.finalize(s, &checkpoints)
	if !ok {
		return p.backtrack(checkpoints, input, pos)
	}
	if final.accepted {
		return p.finish(final.nodes, input, len(input))
	}
	if root, ok := p.reduceAtEnd(final.stack, final.nodes); ok {
		return root, append([]byte{}, input[final.pendingStart:]...), nil
	}
	return p.backtrack(checkpoints, input, pos)
}

// step performs one byte of the streaming algorithm against s. Every
// committed token boundary reached while processing this byte (there may be
// more than one, when several tokens were already buffered ahead of the byte
// that finally killed the lexer) appends its own checkpoint.
func (p *parser) step(s liveState, b byte, cps *[]checkpoint) (liveState, bool) {
	from := s.lexState
	if from == noLex {
		from = p.lexer.Start()
	}
	next := p.lexer.Step(from, b)
	pending := append(append([]byte{}, s.pending...), b)

	m := s.matched
	if tok, ok := p.lexer.TokenAt(next); ok {
		m = &match{tokenID: tok, length: len(pending)}
	}

	if next != automaton.DeadState {
		s.lexState = next
		s.pending = pending
		s.matched = m
		return s, true
	}

	if m == nil {
		return liveState{}, false
	}

	s.pending = pending
	s.matched = m
	return p.commit(s, cps)
}

// commit applies s.matched (which must be non-nil) and cascades over any
// bytes buffered past the committed boundary.
func (p *parser) commit(s liveState, cps *[]checkpoint) (liveState, bool) {
	m := s.matched
	start := s.pendingStart
	end := start + m.length
	leftover := append([]byte{}, s.pending[m.length:]...)

	if !p.skippable.Has(m.tokenID) {
		lookahead := parsetree.Terminal(m.tokenID, parsetree.Span{Start: start, End: end}, s.pending[:m.length])

		outcome, newStack := driveAction(p.table, s.stack, s.nodes, m.tokenID, lookahead, p.opt)
		switch outcome.action {
		case grammar.Error:
			return liveState{}, false
		case grammar.Accept:
			return liveState{stack: newStack, nodes: outcome.nodes, accepted: true}, true
		default: // Shift
			s.stack = newStack
			s.nodes = outcome.nodes
		}

		*cps = append(*cps, checkpoint{offset: end, stack: cloneInts(s.stack), nodes: cloneNodes(s.nodes)})
	}

	s.lexState = noLex
	s.pendingStart = end
	s.pending = nil
	s.matched = nil

	for _, lb := range leftover {
		next, ok := p.step(s, lb, cps)
		if !ok {
			return liveState{}, false
		}
		s = next
		if s.accepted {
			return s, true
		}
	}
	return s, true
}

// finalize greedily commits every complete match left in flight at end of
// input; replaying a commit's leftover bytes can produce a fresh complete
// match, so this loops until nothing committable remains.
func (p *parser) finalize(s liveState, cps *[]checkpoint) (liveState, bool) {
	for s.matched != nil {
		next, ok := p.commit(s, cps)
		if !ok {
			return liveState{}, false
		}
		s = next
		if s.accepted {
			return s, true
		}
	}
	return s, true
}

// reduceAtEnd runs the end-of-input reductions on a stopped stack and node
// stack, returning the completed root when the parser accepts with a single
// tree left.
func (p *parser) reduceAtEnd(stack []int, nodes []*parsetree.Node) (*parsetree.Node, bool) {
	outcome, _ := driveAction(p.table, stack, nodes, endOfInput, nil, p.opt)
	if outcome.action != grammar.Accept || len(outcome.nodes) != 1 {
		return nil, false
	}
	return outcome.nodes[0], true
}

func (p *parser) finish(nodes []*parsetree.Node, input []byte, consumed int) (*parsetree.Node, []byte, error) {
	if len(nodes) != 1 {
		return nil, nil, oraerrors.NewParseFailure(consumed, "accepted state did not reduce to exactly one tree root")
	}
	return nodes[0], append([]byte{}, input[consumed:]...), nil
}

// backtrack walks checkpoints from most to least recent, returning the tree
// for the first one whose stack completely reduces to the start symbol.
func (p *parser) backtrack(checkpoints []checkpoint, input []byte, failedAt int) (*parsetree.Node, []byte, error) {
	for i := len(checkpoints) - 1; i >= 0; i-- {
		cp := checkpoints[i]
		root, ok := p.reduceAtEnd(cp.stack, cp.nodes)
		if !ok {
			continue
		}
		return root, append([]byte{}, input[cp.offset:]...), nil
	}
	return nil, nil, oraerrors.NewParseFailure(failedAt, "no committed prefix reduces to the start symbol")
}

func cloneInts(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

func cloneNodes(s []*parsetree.Node) []*parsetree.Node {
	out := make([]*parsetree.Node, len(s))
	copy(out, s)
	return out
}
