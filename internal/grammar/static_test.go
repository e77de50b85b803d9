package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/gramoracle/internal/automaton"
)

func testTable() *StaticTable {
	actions := map[int]map[string]Action{
		0: {"a": {Type: Shift, ShiftState: 1}},
		1: {"$": {Type: Accept}, "a": {Type: Reduce, ReduceSymbol: "S", ReduceLen: 1, ReduceProd: 0}},
	}
	gotos := map[int]map[string]int{
		0: {"S": 1},
	}
	productions := map[string][]Production{
		"S": {{Symbols: []string{"a"}}, {Symbols: []string{"S", "a"}}},
	}
	return NewStaticTable(0, "S", actions, gotos, productions, []string{"a"})
}

func Test_StaticTable_Action(t *testing.T) {
	testCases := []struct {
		name     string
		state    int
		terminal string
		expect   ActionType
	}{
		{name: "shift entry", state: 0, terminal: "a", expect: Shift},
		{name: "accept entry", state: 1, terminal: "$", expect: Accept},
		{name: "missing terminal is error", state: 0, terminal: "z", expect: Error},
		{name: "missing state is error", state: 42, terminal: "a", expect: Error},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			tbl := testTable()

			assert.Equal(tc.expect, tbl.Action(tc.state, tc.terminal).Type)
		})
	}
}

func Test_StaticTable_Goto(t *testing.T) {
	assert := assert.New(t)

	tbl := testTable()

	next, ok := tbl.Goto(0, "S")
	assert.True(ok)
	assert.Equal(1, next)

	_, ok = tbl.Goto(0, "Z")
	assert.False(ok)

	_, ok = tbl.Goto(9, "S")
	assert.False(ok)
}

func Test_StaticTable_ProductionSymbols(t *testing.T) {
	assert := assert.New(t)

	tbl := testTable()

	assert.Equal([]string{"a"}, tbl.ProductionSymbols("S", 0))
	assert.Equal([]string{"S", "a"}, tbl.ProductionSymbols("S", 1))
	assert.Nil(tbl.ProductionSymbols("S", 2))
	assert.Nil(tbl.ProductionSymbols("Z", 0))
}

func Test_StaticTable_Terminals(t *testing.T) {
	assert := assert.New(t)

	tbl := NewStaticTable(0, "S", nil, nil, nil, []string{"z", "a", "m"})

	terms := tbl.Terminals()
	assert.Equal([]string{"a", "m", "z"}, terms)

	// mutating the returned slice must not affect the table.
	terms[0] = "clobbered"
	assert.Equal([]string{"a", "m", "z"}, tbl.Terminals())
}

// abLexDFA has token "ab" at state 2 and token "a" at state 1.
func abLexDFA() *automaton.TableDFA {
	transitions := make([][256]int, 3)
	for s := range transitions {
		for b := 0; b < 256; b++ {
			transitions[s][b] = automaton.DeadState
		}
	}
	transitions[0]['a'] = 1
	transitions[1]['b'] = 2
	return automaton.NewTableDFA(0, transitions, []bool{false, true, true})
}

func Test_NewDFALexer(t *testing.T) {
	assert := assert.New(t)

	lx, err := NewDFALexer(abLexDFA(), 3, map[int]string{1: "a", 2: "ab"}, []string{"ws"})
	require.NoError(t, err)

	assert.Equal(0, lx.Start())
	assert.Equal(1, lx.Step(0, 'a'))
	assert.Equal(automaton.DeadState, lx.Step(0, 'z'))

	tok, ok := lx.TokenAt(2)
	assert.True(ok)
	assert.Equal("ab", tok)

	_, ok = lx.TokenAt(0)
	assert.False(ok)

	assert.True(lx.IsSkippable("ws"))
	assert.False(lx.IsSkippable("a"))
	assert.Equal([]string{"ws"}, lx.SkippableIDs())
	assert.Equal(3, lx.NumStates())
}

func Test_NewDFALexer_conflicts(t *testing.T) {
	testCases := []struct {
		name   string
		tokens map[int]string
	}{
		{name: "label on non-accepting state", tokens: map[int]string{0: "bad", 1: "a", 2: "ab"}},
		{name: "accepting state without label", tokens: map[int]string{1: "a"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := NewDFALexer(abLexDFA(), 3, tc.tokens, nil)

			assert.Error(err)
		})
	}
}
