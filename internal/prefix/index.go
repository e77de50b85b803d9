// Package prefix implements the prefix-match index: given an automaton
// state q, which vocabulary indices are viable at q? The regex oracle
// consults it directly; the LR(1) oracle applies the same trie-lockstep walk
// over its richer streaming state.
package prefix

import (
	"sort"
	"sync"

	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/trie"
)

// Index answers viability queries against a single automaton, memoising the
// sorted result for every state it has been asked about. It is safe for
// concurrent use; queries are read-heavy and the memo map is guarded by a
// RWMutex so concurrent readers never block each other once a state has been
// computed.
type Index struct {
	dfa  automaton.ByteDFA
	trie *trie.Trie

	mu    sync.RWMutex
	memo  map[int][]int
}

// New builds a prefix-match index over dfa for the n continuations returned
// by entryAt. The trie is built once here; it is shared read-only by every
// subsequent query regardless of which state is asked about.
func New(dfa automaton.ByteDFA, n int, entryAt func(i int) []byte) *Index {
	return &Index{
		dfa:  dfa,
		trie: trie.Build(n, entryAt),
		memo: make(map[int][]int),
	}
}

// Viable returns the sorted vocabulary indices viable at automaton state q:
// those whose bytes are a prefix of some string that, read from q, visits an
// accepting state. An empty continuation is viable at any live q. The dead
// state (or any non-live state) always yields an empty result.
func (idx *Index) Viable(q int) []int {
	if q == automaton.DeadState || !idx.dfa.IsLive(q) {
		return nil
	}

	idx.mu.RLock()
	if cached, ok := idx.memo[q]; ok {
		idx.mu.RUnlock()
		return cached
	}
	idx.mu.RUnlock()

	result := idx.compute(q)

	idx.mu.Lock()
	idx.memo[q] = result
	idx.mu.Unlock()

	return result
}

// compute performs the single left-to-right walk of the trie and dfa in
// lockstep: at each trie node, prune the whole
// subtree as soon as the paired dfa state is dead, instead of re-reading
// every vocabulary entry from scratch.
func (idx *Index) compute(q int) []int {
	var out []int
	idx.walk(idx.trie.Root(), q, &out)
	sort.Ints(out)
	return out
}

func (idx *Index) walk(node *trie.Node, state int, out *[]int) {
	// every continuation terminating at this node is a prefix of itself, so
	// if we got here without dying, all of them are viable (including the
	// empty continuation when node is the root).
	*out = append(*out, node.Indices...)

	node.Each(func(b byte, child *trie.Node) {
		next := idx.dfa.Step(state, b)
		if next == automaton.DeadState || !idx.dfa.IsLive(next) {
			return
		}
		idx.walk(child, next, out)
	})
}
