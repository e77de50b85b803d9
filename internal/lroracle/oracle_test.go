package lroracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/vocab"
)

// arithTable returns the classic SLR(1) table for
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | id
func arithTable() grammar.Table {
	sh := func(to int) grammar.Action { return grammar.Action{Type: grammar.Shift, ShiftState: to} }
	re := func(sym string, l, prod int) grammar.Action {
		return grammar.Action{Type: grammar.Reduce, ReduceSymbol: sym, ReduceLen: l, ReduceProd: prod}
	}
	acc := grammar.Action{Type: grammar.Accept}

	actions := map[int]map[string]grammar.Action{
		0:  {"id": sh(5), "(": sh(4)},
		1:  {"+": sh(6), "$": acc},
		2:  {"+": re("E", 1, 1), "*": sh(7), ")": re("E", 1, 1), "$": re("E", 1, 1)},
		3:  {"+": re("T", 1, 1), "*": re("T", 1, 1), ")": re("T", 1, 1), "$": re("T", 1, 1)},
		4:  {"id": sh(5), "(": sh(4)},
		5:  {"+": re("F", 1, 1), "*": re("F", 1, 1), ")": re("F", 1, 1), "$": re("F", 1, 1)},
		6:  {"id": sh(5), "(": sh(4)},
		7:  {"id": sh(5), "(": sh(4)},
		8:  {"+": sh(6), ")": sh(11)},
		9:  {"+": re("E", 3, 0), "*": sh(7), ")": re("E", 3, 0), "$": re("E", 3, 0)},
		10: {"+": re("T", 3, 0), "*": re("T", 3, 0), ")": re("T", 3, 0), "$": re("T", 3, 0)},
		11: {"+": re("F", 3, 0), "*": re("F", 3, 0), ")": re("F", 3, 0), "$": re("F", 3, 0)},
	}
	gotos := map[int]map[string]int{
		0: {"E": 1, "T": 2, "F": 3},
		4: {"E": 8, "T": 2, "F": 3},
		6: {"T": 9, "F": 3},
		7: {"F": 10},
	}
	productions := map[string][]grammar.Production{
		"E": {{Symbols: []string{"E", "+", "T"}}, {Symbols: []string{"T"}}},
		"T": {{Symbols: []string{"T", "*", "F"}}, {Symbols: []string{"F"}}},
		"F": {{Symbols: []string{"(", "E", ")"}}, {Symbols: []string{"id"}}},
	}
	return grammar.NewStaticTable(0, "E", actions, gotos, productions, []string{"id", "+", "*", "(", ")"})
}

// arithLexer returns a lexer with tokens id ([0-9]+), the four operator and
// paren tokens, and skippable whitespace.
func arithLexer(t *testing.T) grammar.Lexer {
	// lexer DFA states: 0 start, 1 id, 2 '+', 3 '*', 4 '(', 5 ')', 6 ws
	transitions := make([][256]int, 7)
	for s := range transitions {
		for b := 0; b < 256; b++ {
			transitions[s][b] = automaton.DeadState
		}
	}
	for b := byte('0'); b <= '9'; b++ {
		transitions[0][b] = 1
		transitions[1][b] = 1
	}
	transitions[0]['+'] = 2
	transitions[0]['*'] = 3
	transitions[0]['('] = 4
	transitions[0][')'] = 5
	for _, b := range []byte{' ', '\t', '\n'} {
		transitions[0][b] = 6
		transitions[6][b] = 6
	}

	dfa := automaton.NewTableDFA(0, transitions, []bool{false, true, true, true, true, true, true})
	lx, err := grammar.NewDFALexer(dfa, 7, map[int]string{1: "id", 2: "+", 3: "*", 4: "(", 5: ")", 6: "ws"}, []string{"ws"})
	require.NoError(t, err)
	return lx
}

// arithVocab is the vocabulary the arithmetic-grammar tests run against.
//
// indices: 0:"" 1:"1" 2:"+" 3:"*" 4:"(" 5:")" 6:" " 7:"12" 8:"1(1" 9:"2"
func arithVocab() *vocab.Vocab {
	return vocab.FromStrings([]string{"", "1", "+", "*", "(", ")", " ", "12", "1(1", "2"})
}

func arithExact(t *testing.T) *ExactOracle {
	return NewExact(arithTable(), arithLexer(t), arithVocab(), 0)
}

func arithRegular(t *testing.T) *RegularOracle {
	return NewRegular(arithTable(), arithLexer(t), arithVocab(), 0)
}

func Test_StartStateContinuations(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)
	regular := arithRegular(t)

	s := exact.StartState()

	// at the start only an expression may begin: a number, an open paren,
	// whitespace, or the empty continuation. "1(1" is lexer-viable (its
	// first token may start an expression, and the tokens after it are not
	// checked against the parser) but parser-dead, so the regular variant
	// keeps it and the exact variant proves it dead.
	assert.Equal([]int{0, 1, 4, 6, 7, 9}, exact.ValidContinuations(s))
	assert.Equal([]int{0, 1, 4, 6, 7, 8, 9}, regular.ValidContinuations(regular.StartState()))
}

func Test_ExactIsSubsetOfRegular(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)
	regular := arithRegular(t)

	prefixes := []string{"", "1", "1+", "1 + 2", "(", "(1", "(1)"}
	for _, prefix := range prefixes {
		se := exact.StateAfter([]byte(prefix))
		sr := regular.StateAfter([]byte(prefix))
		if !assert.False(se.Invalid(), "prefix %q", prefix) {
			continue
		}

		regularSet := map[int]bool{}
		for _, i := range regular.ValidContinuations(sr) {
			regularSet[i] = true
		}
		for _, i := range exact.ValidContinuations(se) {
			assert.True(regularSet[i], "prefix %q: exact offered %d but regular did not", prefix, i)
		}
	}
}

func Test_ValidContinuations_afterOnePlus(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	s := exact.StateAfter([]byte("1+"))
	if !assert.False(s.Invalid()) {
		return
	}

	got := exact.ValidContinuations(s)

	assert.Contains(got, 0, "empty continuation")
	assert.Contains(got, 1, "a digit may start the next operand")
	assert.Contains(got, 4, "an open paren may start the next operand")
	assert.Contains(got, 6, "whitespace is always insertable")
	assert.Contains(got, 7)
	assert.NotContains(got, 5, "a close paren cannot follow +")
	assert.NotContains(got, 8, "1(1 is parser-dead")
}

func Test_ValidContinuations_invalidState(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	s := exact.StateAfter([]byte(")1"))
	assert.True(s.Invalid())
	assert.Empty(exact.ValidContinuations(s))
}

func Test_StateAfter(t *testing.T) {
	testCases := []struct {
		name      string
		prefix    string
		expectInv bool
	}{
		{name: "empty", prefix: "", expectInv: false},
		{name: "single number", prefix: "1", expectInv: false},
		{name: "dangling operator", prefix: "1+", expectInv: false},
		{name: "full expression", prefix: "1+2*3", expectInv: false},
		{name: "spaced expression", prefix: "1 + 2 * 3", expectInv: false},
		{name: "parens", prefix: "(1+2)", expectInv: false},
		{name: "close paren first", prefix: ")1", expectInv: true},
		{name: "operator cannot follow operator", prefix: "1+*1", expectInv: true},
		{name: "byte outside the lexer", prefix: "1%", expectInv: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			exact := arithExact(t)

			assert.Equal(tc.expectInv, exact.StateAfter([]byte(tc.prefix)).Invalid())
		})
	}
}

func Test_IsMatch(t *testing.T) {
	testCases := []struct {
		name   string
		prefix string
		expect bool
	}{
		{name: "single number", prefix: "1", expect: true},
		{name: "sum", prefix: "1+2", expect: true},
		{name: "trailing whitespace", prefix: "1+2  ", expect: true},
		{name: "dangling operator", prefix: "1+", expect: false},
		{name: "empty", prefix: "", expect: false},
		{name: "unclosed paren", prefix: "(1", expect: false},
		{name: "closed paren", prefix: "(1)", expect: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			exact := arithExact(t)

			assert.Equal(tc.expect, exact.IsMatch(exact.StateAfter([]byte(tc.prefix))))
		})
	}
}

func Test_ExtensionSoundness_exact(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)
	v := arithVocab()

	prefixes := []string{"", "1", "1+", "1 + 2", "(", "(1+2", "12*"}
	for _, prefix := range prefixes {
		s := exact.StateAfter([]byte(prefix))
		if !assert.False(s.Invalid(), "prefix %q", prefix) {
			continue
		}

		for _, i := range exact.ValidContinuations(s) {
			next := exact.NextState(s, i)
			assert.False(next.Invalid(), "prefix %q continuation %q", prefix, v.At(i))
		}
	}
}

func Test_StateDeterminism(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	// "1+2" re-expressed as the single-byte continuations 1, + and 2.
	folded := exact.StartState()
	for _, i := range []int{1, 2, 9} {
		folded = exact.NextState(folded, i)
	}

	assert.Equal(exact.StateAfter([]byte("1+2")), folded)
}

func Test_SkippableTransparency(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	bare := exact.StateAfter([]byte("1+2"))
	spaced := exact.StateAfter([]byte("1 + 2"))

	assert.Equal(bare, spaced, "whitespace between tokens must not change the state")
	assert.Equal(exact.IsMatch(bare), exact.IsMatch(spaced))
}

func Test_EmptyContinuation(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	prefixes := []string{"", "1", "1+", "(1+2)"}
	for _, prefix := range prefixes {
		s := exact.StateAfter([]byte(prefix))
		if !assert.False(s.Invalid(), "prefix %q", prefix) {
			continue
		}

		assert.Contains(exact.ValidContinuations(s), 0, "prefix %q", prefix)
		assert.Equal(s, exact.NextState(s, 0), "prefix %q: empty continuation must not move the state", prefix)
	}
}

func Test_CheckPrefix(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	assert.NoError(exact.CheckPrefix([]byte("1 + 2 *")))
	assert.NoError(exact.CheckPrefix(nil))

	err := exact.CheckPrefix([]byte("1+*1"))
	if !assert.Error(err) {
		return
	}
	invalid := &oraerrors.InvalidPrefixError{}
	if assert.ErrorAs(err, &invalid) {
		// no byte can extend the '*' token, so it commits as soon as it is
		// read and the parser rejects it right there.
		assert.Equal(2, invalid.ByteOffset)
	}
}

func Test_OnlySkippableMatching_arith(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	// after "1" more expression could always follow, so a match is never
	// skippable-only in this grammar.
	s := exact.StateAfter([]byte("1"))
	assert.True(exact.IsMatch(s))
	assert.False(exact.OnlySkippableMatching(s))
}

// fooTable is the table for the single-production grammar S -> foo.
func fooTable() grammar.Table {
	actions := map[int]map[string]grammar.Action{
		0: {"foo": {Type: grammar.Shift, ShiftState: 2}},
		1: {"$": {Type: grammar.Accept}},
		2: {"$": {Type: grammar.Reduce, ReduceSymbol: "S", ReduceLen: 1, ReduceProd: 0}},
	}
	gotos := map[int]map[string]int{
		0: {"S": 1},
	}
	productions := map[string][]grammar.Production{
		"S": {{Symbols: []string{"foo"}}},
	}
	return grammar.NewStaticTable(0, "S", actions, gotos, productions, []string{"foo"})
}

func fooLexer(t *testing.T) grammar.Lexer {
	// lexer DFA states: 0 start, 1 'f', 2 'fo', 3 'foo', 4 ws
	transitions := make([][256]int, 5)
	for s := range transitions {
		for b := 0; b < 256; b++ {
			transitions[s][b] = automaton.DeadState
		}
	}
	transitions[0]['f'] = 1
	transitions[1]['o'] = 2
	transitions[2]['o'] = 3
	transitions[0][' '] = 4
	transitions[4][' '] = 4

	dfa := automaton.NewTableDFA(0, transitions, []bool{false, false, false, true, true})
	lx, err := grammar.NewDFALexer(dfa, 5, map[int]string{3: "foo", 4: "ws"}, []string{"ws"})
	require.NoError(t, err)
	return lx
}

func Test_OnlySkippableMatching_scenarioS5(t *testing.T) {
	assert := assert.New(t)

	v := vocab.FromStrings([]string{"", "foo", " ", "o"})
	exact := NewExact(fooTable(), fooLexer(t), v, 0)

	s := exact.StateAfter([]byte("foo   "))
	if !assert.False(s.Invalid()) {
		return
	}

	assert.True(exact.IsMatch(s))
	assert.True(exact.OnlySkippableMatching(s))

	// mid-token, nothing holds yet.
	mid := exact.StateAfter([]byte("fo"))
	assert.False(exact.IsMatch(mid))
	assert.False(exact.OnlySkippableMatching(mid))
	got := exact.ValidContinuations(mid)
	assert.Contains(got, 0, "empty continuation")
	assert.Contains(got, 3, `"o" completes foo`)
	assert.NotContains(got, 1, "cannot restart foo mid-token")
	assert.NotContains(got, 2, "whitespace cannot interrupt a token")
}

// relexTable is the table for the grammar S -> a e, whose two terminals are
// lexed by tokens that overlap: "a" is the byte string "ab", "e" is "cx",
// and a third token "b" is the byte string "abcy". Lexing "abcx" must match
// "ab" greedily toward "abcy", give up on 'x', commit "a", and then re-lex
// the whole leftover "cx" into "e".
func relexTable() grammar.Table {
	actions := map[int]map[string]grammar.Action{
		0: {"a": {Type: grammar.Shift, ShiftState: 2}},
		1: {"$": {Type: grammar.Accept}},
		2: {"e": {Type: grammar.Shift, ShiftState: 3}},
		3: {"$": {Type: grammar.Reduce, ReduceSymbol: "S", ReduceLen: 2, ReduceProd: 0}},
	}
	gotos := map[int]map[string]int{
		0: {"S": 1},
	}
	productions := map[string][]grammar.Production{
		"S": {{Symbols: []string{"a", "e"}}},
	}
	return grammar.NewStaticTable(0, "S", actions, gotos, productions, []string{"a", "e"})
}

func relexLexer(t *testing.T) grammar.Lexer {
	// lexer DFA states: 0 start, 1 'a', 2 'ab' (token a), 3 'abc',
	// 4 'abcy' (token b), 5 'c', 6 'cx' (token e). The path 2->3 keeps the
	// lexer alive without matching for a byte past token a's match point.
	transitions := make([][256]int, 7)
	for s := range transitions {
		for b := 0; b < 256; b++ {
			transitions[s][b] = automaton.DeadState
		}
	}
	transitions[0]['a'] = 1
	transitions[1]['b'] = 2
	transitions[2]['c'] = 3
	transitions[3]['y'] = 4
	transitions[0]['c'] = 5
	transitions[5]['x'] = 6

	dfa := automaton.NewTableDFA(0, transitions, []bool{false, false, true, false, true, false, true})
	lx, err := grammar.NewDFALexer(dfa, 7, map[int]string{2: "a", 4: "b", 6: "e"}, nil)
	require.NoError(t, err)
	return lx
}

func Test_ValidContinuations_leftoverRelex(t *testing.T) {
	assert := assert.New(t)

	// vocab indices: 0:"" 1:"ab" 2:"cx" 3:"abcx" 4:"abcy" 5:"x"
	v := vocab.FromStrings([]string{"", "ab", "cx", "abcx", "abcy", "x"})
	exact := NewExact(relexTable(), relexLexer(t), v, 0)
	regular := NewRegular(relexTable(), relexLexer(t), v, 0)

	s := exact.StateAfter([]byte("ab"))
	if !assert.False(s.Invalid()) {
		return
	}

	// "cx" dies lexing toward "abcy" only on its second byte, one past
	// token a's match point; committing "a" must re-lex the full leftover
	// "cx" into token e, not just the byte that killed the run.
	assert.Equal([]int{0, 1, 2, 3}, exact.ValidContinuations(s))

	// "abcy" would commit token b, which the grammar has no use for: the
	// regular variant keeps it on lexer viability alone, the exact variant
	// proves it dead.
	assert.Equal([]int{0, 1, 2, 3, 4}, regular.ValidContinuations(regular.StateAfter([]byte("ab"))))

	next := exact.NextState(s, 2)
	if !assert.False(next.Invalid(), `"cx" must be consumable after "ab"`) {
		return
	}
	assert.True(exact.IsMatch(next))
	assert.Equal(exact.StateAfter([]byte("abcx")), next)

	// completeness: every vocabulary index whose NextState survives is
	// reported, and nothing else is.
	valid := map[int]bool{}
	for _, i := range exact.ValidContinuations(s) {
		valid[i] = true
	}
	for i := 0; i < v.Len(); i++ {
		assert.Equal(!exact.NextState(s, i).Invalid(), valid[i], "continuation %q", v.At(i))
	}
}

func Test_ValidContinuations_cached(t *testing.T) {
	assert := assert.New(t)

	regular := arithRegular(t)

	s := regular.StateAfter([]byte("1+"))
	first := regular.ValidContinuations(s)
	second := regular.ValidContinuations(s)

	assert.Equal(first, second)
}

func Test_PartsRoundTrip(t *testing.T) {
	assert := assert.New(t)

	exact := arithExact(t)

	s := exact.StateAfter([]byte("1 + 2"))
	parts, ok := s.Parts()
	if !assert.True(ok) {
		return
	}

	restored := FromParts(parts)
	assert.Equal(s, restored)
	assert.Equal(exact.IsMatch(s), exact.IsMatch(restored))
	assert.Equal(exact.ValidContinuations(s), exact.ValidContinuations(restored))

	_, ok = invalidState.Parts()
	assert.False(ok)
}
