package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regexDoc describes a DFA accepting exactly "ab", with vocabulary
// ["", "a", "ab", "z"].
func regexDoc() Document {
	return Document{
		Kind:  KindRegex,
		Vocab: []string{"", "a", "ab", "z"},
		DFA: &DFADoc{
			States:    3,
			Start:     0,
			Accepting: []int{2},
			Edges: []EdgeDoc{
				{From: 0, Lo: 'a', Hi: 'a', To: 1},
				{From: 1, Lo: 'b', Hi: 'b', To: 2},
			},
		},
	}
}

// grammarDoc describes the grammar S -> foo with skippable whitespace and
// vocabulary ["", "foo", " "].
func grammarDoc() Document {
	return Document{
		Kind:  KindGrammar,
		Vocab: []string{"", "foo", " "},
		Lexer: &LexerDoc{
			DFA: DFADoc{
				States:    5,
				Start:     0,
				Accepting: []int{3, 4},
				Edges: []EdgeDoc{
					{From: 0, Lo: 'f', Hi: 'f', To: 1},
					{From: 1, Lo: 'o', Hi: 'o', To: 2},
					{From: 2, Lo: 'o', Hi: 'o', To: 3},
					{From: 0, Lo: ' ', Hi: ' ', To: 4},
					{From: 4, Lo: ' ', Hi: ' ', To: 4},
				},
			},
			Tokens:    []TokenLabelDoc{{State: 3, ID: "foo"}, {State: 4, ID: "ws"}},
			Skippable: []string{"ws"},
		},
		Table: &TableDoc{
			Initial:   0,
			Start:     "S",
			Terminals: []string{"foo"},
			Actions: []ActionDoc{
				{State: 0, Terminal: "foo", Type: "shift", To: 2},
				{State: 1, Terminal: "$", Type: "accept"},
				{State: 2, Terminal: "$", Type: "reduce", Symbol: "S", Len: 1, Prod: 0},
			},
			Gotos:       []GotoDoc{{State: 0, Symbol: "S", To: 1}},
			Productions: []ProdDoc{{Symbol: "S", Alternatives: [][]string{{"foo"}}}},
		},
	}
}

func Test_ParseDocument_roundTrip(t *testing.T) {
	assert := assert.New(t)

	data, err := EncodeDocument(grammarDoc())
	require.NoError(t, err)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	assert.Equal(grammarDoc(), doc)
}

func Test_Document_Validate(t *testing.T) {
	badDFA := regexDoc()
	badDFA.DFA.Edges = []EdgeDoc{{From: 0, Lo: 'a', Hi: 'a', To: 9}}

	badRange := regexDoc()
	badRange.DFA.Edges = []EdgeDoc{{From: 0, Lo: 'z', Hi: 'a', To: 1}}

	noDFA := Document{Kind: KindRegex, Vocab: []string{"a"}}
	noTable := Document{Kind: KindGrammar, Vocab: []string{"a"}, Lexer: grammarDoc().Lexer}

	testCases := []struct {
		name      string
		doc       Document
		expectErr bool
	}{
		{name: "valid regex doc", doc: regexDoc(), expectErr: false},
		{name: "valid grammar doc", doc: grammarDoc(), expectErr: false},
		{name: "unknown kind", doc: Document{Kind: "nope"}, expectErr: true},
		{name: "regex without dfa", doc: noDFA, expectErr: true},
		{name: "grammar without table", doc: noTable, expectErr: true},
		{name: "edge to out-of-range state", doc: badDFA, expectErr: true},
		{name: "inverted byte range", doc: badRange, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := tc.doc.Validate()

			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_BuildRegexOracle(t *testing.T) {
	assert := assert.New(t)

	o, err := BuildRegexOracle(regexDoc())
	require.NoError(t, err)

	s := o.StateAfter([]byte("a"))
	assert.False(s.Invalid())
	assert.False(o.IsMatch(s))

	// from "a", "" and nothing else in the vocabulary is viable except a
	// continuation starting with b; there is none, so only the empty entry.
	assert.Equal([]int{0}, o.ValidContinuations(s))

	assert.True(o.IsMatch(o.StateAfter([]byte("ab"))))
	assert.True(o.StateAfter([]byte("zz")).Invalid())

	_, err = BuildRegexOracle(grammarDoc())
	assert.Error(err, "grammar doc cannot build a regex oracle")
}

func Test_BuildExactOracle(t *testing.T) {
	assert := assert.New(t)

	o, err := BuildExactOracle(grammarDoc(), 0)
	require.NoError(t, err)

	s := o.StateAfter([]byte("foo "))
	require.False(t, s.Invalid())
	assert.True(o.IsMatch(s))
	assert.True(o.OnlySkippableMatching(s))

	start := o.StartState()
	got := o.ValidContinuations(start)
	assert.Contains(got, 0)
	assert.Contains(got, 1)
	assert.Contains(got, 2)
}

func Test_BuildRegularOracle(t *testing.T) {
	assert := assert.New(t)

	o, err := BuildRegularOracle(grammarDoc(), 0)
	require.NoError(t, err)

	assert.False(o.StateAfter([]byte("fo")).Invalid())
	assert.True(o.StateAfter([]byte("fx")).Invalid())
}

func Test_BuildLexer_conflicts(t *testing.T) {
	assert := assert.New(t)

	doc := grammarDoc()
	doc.Lexer.Tokens = append(doc.Lexer.Tokens, TokenLabelDoc{State: 3, ID: "other"})

	_, err := BuildLexer(doc)
	assert.Error(err)
}

func Test_BuildTable_badAction(t *testing.T) {
	assert := assert.New(t)

	doc := grammarDoc()
	doc.Table.Actions = append(doc.Table.Actions, ActionDoc{State: 0, Terminal: "foo", Type: "shift", To: 1})

	_, err := BuildTable(doc)
	assert.Error(err, "conflicting actions for the same cell")

	doc2 := grammarDoc()
	doc2.Table.Actions[0].Type = "warble"
	_, err = BuildTable(doc2)
	assert.Error(err, "unknown action type")
}

func Test_InMemStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	st := NewInMemStore()
	defer st.Close()

	created, err := st.Create(ctx, Entry{Name: "ab", Doc: regexDoc()})
	require.NoError(t, err)
	assert.Equal("ab", created.Name)
	assert.NotZero(created.ID)

	_, err = st.Create(ctx, Entry{Name: "ab", Doc: regexDoc()})
	assert.ErrorIs(err, ErrConstraintViolation)

	got, err := st.GetByName(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(created.ID, got.ID)

	_, err = st.GetByName(ctx, "missing")
	assert.ErrorIs(err, ErrNotFound)

	_, err = st.Create(ctx, Entry{Name: "foo", Doc: grammarDoc()})
	require.NoError(t, err)

	all, err := st.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, len(all))
	assert.Equal("ab", all[0].Name, "sorted by name")
	assert.Equal("foo", all[1].Name)

	deleted, err := st.Delete(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(created.ID, deleted.ID)

	_, err = st.Delete(ctx, "ab")
	assert.ErrorIs(err, ErrNotFound)
}
