package lroracle

import (
	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/trie"
	"github.com/dekarrin/gramoracle/internal/util"
)

// walkState is one position of a regular-variant continuation walk: where
// the lexer sits, the last match of the current token run, and every byte of
// that run (a commit must re-lex the bytes past the match boundary from a
// fresh run, so they are carried along rather than discarded).
type walkState struct {
	lex      int
	tok      string
	matchLen int
	run      []byte

	// rest is set once a non-skippable token has been committed during the
	// walk; later commits are judged by lexer viability alone.
	rest bool
}

// lexWalker steps walkStates byte by byte for the regular variant. It is
// advance's lexer-faithful sibling: the same byte step, the same eager
// commit of runs no byte can extend, and the same full re-lex of the bytes
// past a committed match. The one difference is the commit itself: instead
// of driving the parser, the first non-skippable token is checked against
// the querying state's T_valid and every token after it is accepted
// unchecked. Because that check can only ever be looser than the real
// parser drive, every continuation the exact variant keeps survives here
// too.
type lexWalker struct {
	core  *core
	first util.StringSet
}

// step advances ws by one byte; ok is false when the walk is dead.
func (w *lexWalker) step(ws walkState, b byte) (walkState, bool) {
	from := ws.lex
	if from == noLex {
		from = w.core.lexer.lx.Start()
	}
	next := w.core.lexer.lx.Step(from, b)

	run := append(append([]byte{}, ws.run...), b)

	tok, matchLen := ws.tok, ws.matchLen
	if id, ok := w.core.lexer.lx.TokenAt(next); ok {
		tok, matchLen = id, len(run)
	}

	ns := walkState{lex: next, tok: tok, matchLen: matchLen, run: run, rest: ws.rest}

	if next != automaton.DeadState && w.core.canExtend[next] {
		return ns, true
	}
	if tok == "" {
		return walkState{}, false
	}
	return w.commit(ns)
}

// commit applies ws.tok, then re-lexes every run byte past the match
// boundary from a fresh run, cascading across further commits the same way
// core.commit does.
func (w *lexWalker) commit(ws walkState) (walkState, bool) {
	if !ws.rest && !w.first.Has(ws.tok) {
		return walkState{}, false
	}
	rest := ws.rest || !w.core.lexer.isSkippable(ws.tok)

	out := walkState{lex: noLex, rest: rest}
	for _, lb := range ws.run[ws.matchLen:] {
		var ok bool
		out, ok = w.step(out, lb)
		if !ok {
			return walkState{}, false
		}
	}
	return out, true
}

// walk visits the vocabulary trie in lockstep with the walker, pruning a
// whole subtree as soon as its walk dies and collecting the indices of
// every node reached alive.
func (w *lexWalker) walk(node *trie.Node, ws walkState, out *[]int) {
	*out = append(*out, node.Indices...)

	node.Each(func(b byte, child *trie.Node) {
		next, ok := w.step(ws, b)
		if !ok {
			return
		}
		w.walk(child, next, out)
	})
}
