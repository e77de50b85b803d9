package catalog

// This file contains the JSON document format for catalog specs, and the
// construction of live oracles from a loaded document. Compiling a regex or
// a grammar down to the automatons and tables a document holds happens
// outside this module; the document is the hand-off format.

import (
	"encoding/json"
	"fmt"

	"github.com/dekarrin/gramoracle/internal/automaton"
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/lroracle"
	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/regexoracle"
	"github.com/dekarrin/gramoracle/internal/vocab"
)

// Document kinds.
const (
	KindRegex   = "regex"
	KindGrammar = "grammar"
)

// Document is the top-level JSON form of a stored spec. Kind selects which of
// the optional sections are required: a regex document carries DFA, a
// grammar document carries Lexer and Table. Every document carries a
// vocabulary.
type Document struct {
	Kind  string   `json:"kind"`
	Vocab []string `json:"vocab"`

	DFA   *DFADoc   `json:"dfa,omitempty"`
	Lexer *LexerDoc `json:"lexer,omitempty"`
	Table *TableDoc `json:"table,omitempty"`
}

// DFADoc describes a compiled byte DFA: a state count, a start state, the
// accepting states, and transitions as byte-range edges (a dense 256-column
// table would bloat the JSON for the mostly-sparse automatons real specs
// have).
type DFADoc struct {
	States    int       `json:"states"`
	Start     int       `json:"start"`
	Accepting []int     `json:"accepting"`
	Edges     []EdgeDoc `json:"edges"`
}

// EdgeDoc is one transition: from state From, every byte in [Lo, Hi] goes to
// state To.
type EdgeDoc struct {
	From int `json:"from"`
	Lo   int `json:"lo"`
	Hi   int `json:"hi"`
	To   int `json:"to"`
}

// LexerDoc is a DFADoc whose accepting states carry token-id labels, plus
// the declared skippable set.
type LexerDoc struct {
	DFA       DFADoc          `json:"dfa"`
	Tokens    []TokenLabelDoc `json:"tokens"`
	Skippable []string        `json:"skippable,omitempty"`
}

// TokenLabelDoc assigns a token id to one accepting lexer state.
type TokenLabelDoc struct {
	State int    `json:"state"`
	ID    string `json:"id"`
}

// TableDoc is an LR(1) ACTION/GOTO table plus the production bodies needed
// to label parse-tree children.
type TableDoc struct {
	Initial     int         `json:"initial"`
	Start       string      `json:"start"`
	Terminals   []string    `json:"terminals"`
	Actions     []ActionDoc `json:"actions"`
	Gotos       []GotoDoc   `json:"gotos"`
	Productions []ProdDoc   `json:"productions"`
}

// ActionDoc is one ACTION table entry. Type is one of "shift", "reduce", or
// "accept"; error entries are simply absent.
type ActionDoc struct {
	State    int    `json:"state"`
	Terminal string `json:"terminal"`
	Type     string `json:"type"`
	To       int    `json:"to,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Len      int    `json:"len,omitempty"`
	Prod     int    `json:"prod,omitempty"`
}

// GotoDoc is one GOTO table entry.
type GotoDoc struct {
	State  int    `json:"state"`
	Symbol string `json:"symbol"`
	To     int    `json:"to"`
}

// ProdDoc lists the alternatives of one non-terminal, in declaration order.
type ProdDoc struct {
	Symbol       string     `json:"symbol"`
	Alternatives [][]string `json:"alternatives"`
}

// ParseDocument decodes and validates a JSON spec document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, oraerrors.NewConstructionError("parse spec document", err)
	}
	if err := doc.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}

// EncodeDocument is the inverse of ParseDocument.
func EncodeDocument(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Validate checks that the document's sections are consistent with its Kind
// and internally well-formed.
func (doc Document) Validate() error {
	switch doc.Kind {
	case KindRegex:
		if doc.DFA == nil {
			return oraerrors.NewConstructionError("validate spec", fmt.Errorf("regex document has no dfa section"))
		}
		if err := doc.DFA.validate(); err != nil {
			return oraerrors.NewConstructionError("validate dfa", err)
		}
	case KindGrammar:
		if doc.Lexer == nil || doc.Table == nil {
			return oraerrors.NewConstructionError("validate spec", fmt.Errorf("grammar document needs both lexer and table sections"))
		}
		if err := doc.Lexer.DFA.validate(); err != nil {
			return oraerrors.NewConstructionError("validate lexer dfa", err)
		}
	default:
		return oraerrors.NewConstructionError("validate spec", fmt.Errorf("unknown spec kind: %q", doc.Kind))
	}
	return nil
}

func (d DFADoc) validate() error {
	if d.States < 1 {
		return fmt.Errorf("must have at least one state")
	}
	if d.Start < 0 || d.Start >= d.States {
		return fmt.Errorf("start state %d out of range [0, %d)", d.Start, d.States)
	}
	for _, a := range d.Accepting {
		if a < 0 || a >= d.States {
			return fmt.Errorf("accepting state %d out of range [0, %d)", a, d.States)
		}
	}
	for _, e := range d.Edges {
		if e.From < 0 || e.From >= d.States || e.To < 0 || e.To >= d.States {
			return fmt.Errorf("edge %d-[%d,%d]->%d references state out of range [0, %d)", e.From, e.Lo, e.Hi, e.To, d.States)
		}
		if e.Lo < 0 || e.Hi > 255 || e.Lo > e.Hi {
			return fmt.Errorf("edge %d-[%d,%d]->%d has a bad byte range", e.From, e.Lo, e.Hi, e.To)
		}
	}
	return nil
}

// buildDFA expands a DFADoc's range edges into a dense automaton.TableDFA.
func buildDFA(d DFADoc) *automaton.TableDFA {
	transitions := make([][256]int, d.States)
	for s := range transitions {
		for b := 0; b < 256; b++ {
			transitions[s][b] = automaton.DeadState
		}
	}
	for _, e := range d.Edges {
		for b := e.Lo; b <= e.Hi; b++ {
			transitions[e.From][b] = e.To
		}
	}

	accepting := make([]bool, d.States)
	for _, a := range d.Accepting {
		accepting[a] = true
	}

	return automaton.NewTableDFA(d.Start, transitions, accepting)
}

// BuildRegexOracle constructs a regex continuation oracle from a validated
// regex document.
func BuildRegexOracle(doc Document) (*regexoracle.Oracle, error) {
	if doc.Kind != KindRegex {
		return nil, oraerrors.NewConstructionError("build regex oracle", fmt.Errorf("document kind is %q", doc.Kind))
	}
	return regexoracle.New(buildDFA(*doc.DFA), vocab.FromStrings(doc.Vocab)), nil
}

// BuildLexer constructs the lexer half of a grammar document.
func BuildLexer(doc Document) (grammar.Lexer, error) {
	if doc.Kind != KindGrammar {
		return nil, oraerrors.NewConstructionError("build lexer", fmt.Errorf("document kind is %q", doc.Kind))
	}

	tokens := make(map[int]string, len(doc.Lexer.Tokens))
	for _, tl := range doc.Lexer.Tokens {
		if prev, ok := tokens[tl.State]; ok {
			return nil, oraerrors.NewConstructionError("build lexer", fmt.Errorf("lexer state %d labelled with both %q and %q", tl.State, prev, tl.ID))
		}
		tokens[tl.State] = tl.ID
	}

	lx, err := grammar.NewDFALexer(buildDFA(doc.Lexer.DFA), doc.Lexer.DFA.States, tokens, doc.Lexer.Skippable)
	if err != nil {
		return nil, oraerrors.NewConstructionError("build lexer", err)
	}
	return lx, nil
}

// BuildTable constructs the parse-table half of a grammar document.
func BuildTable(doc Document) (grammar.Table, error) {
	if doc.Kind != KindGrammar {
		return nil, oraerrors.NewConstructionError("build table", fmt.Errorf("document kind is %q", doc.Kind))
	}

	td := doc.Table

	actions := make(map[int]map[string]grammar.Action)
	for _, a := range td.Actions {
		row := actions[a.State]
		if row == nil {
			row = make(map[string]grammar.Action)
			actions[a.State] = row
		}
		if _, ok := row[a.Terminal]; ok {
			return nil, oraerrors.NewConstructionError("build table", fmt.Errorf("conflicting actions for (%d, %q)", a.State, a.Terminal))
		}

		var act grammar.Action
		switch a.Type {
		case "shift":
			act = grammar.Action{Type: grammar.Shift, ShiftState: a.To}
		case "reduce":
			act = grammar.Action{Type: grammar.Reduce, ReduceSymbol: a.Symbol, ReduceLen: a.Len, ReduceProd: a.Prod}
		case "accept":
			act = grammar.Action{Type: grammar.Accept}
		default:
			return nil, oraerrors.NewConstructionError("build table", fmt.Errorf("unknown action type %q for (%d, %q)", a.Type, a.State, a.Terminal))
		}
		row[a.Terminal] = act
	}

	gotos := make(map[int]map[string]int)
	for _, g := range td.Gotos {
		row := gotos[g.State]
		if row == nil {
			row = make(map[string]int)
			gotos[g.State] = row
		}
		row[g.Symbol] = g.To
	}

	productions := make(map[string][]grammar.Production)
	for _, p := range td.Productions {
		for _, alt := range p.Alternatives {
			productions[p.Symbol] = append(productions[p.Symbol], grammar.Production{Symbols: alt})
		}
	}

	return grammar.NewStaticTable(td.Initial, td.Start, actions, gotos, productions, td.Terminals), nil
}

// BuildRegularOracle constructs a regular-variant LR(1) continuation oracle
// from a validated grammar document.
func BuildRegularOracle(doc Document, cacheCapacity int) (*lroracle.RegularOracle, error) {
	table, lexer, err := buildGrammarParts(doc)
	if err != nil {
		return nil, err
	}
	return lroracle.NewRegular(table, lexer, vocab.FromStrings(doc.Vocab), cacheCapacity), nil
}

// BuildExactOracle constructs an exact-variant LR(1) continuation oracle
// from a validated grammar document.
func BuildExactOracle(doc Document, cacheCapacity int) (*lroracle.ExactOracle, error) {
	table, lexer, err := buildGrammarParts(doc)
	if err != nil {
		return nil, err
	}
	return lroracle.NewExact(table, lexer, vocab.FromStrings(doc.Vocab), cacheCapacity), nil
}

func buildGrammarParts(doc Document) (grammar.Table, grammar.Lexer, error) {
	table, err := BuildTable(doc)
	if err != nil {
		return nil, nil, err
	}
	lexer, err := BuildLexer(doc)
	if err != nil {
		return nil, nil, err
	}
	return table, lexer, nil
}
