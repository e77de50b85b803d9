package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
	"golang.org/x/text/width"

	"github.com/dekarrin/gramoracle/internal/catalog"
	"github.com/dekarrin/gramoracle/internal/lroracle"
	"github.com/dekarrin/gramoracle/internal/parsetree"
	"github.com/dekarrin/gramoracle/internal/prefixparse"
	"github.com/dekarrin/gramoracle/internal/regexoracle"
	"github.com/dekarrin/gramoracle/internal/session"
)

var commandHelp = [][2]string{
	{"HELP", "show this help"},
	{"STATE", "report whether the current prefix is a match, invalid, or open"},
	{"CONT", "list the vocabulary indices viable at the current state"},
	{"NEXT index", "advance the session by the given vocabulary entry"},
	{"FEED text", "advance the session by raw bytes"},
	{"RESET", "return the session to the start state"},
	{"VOCAB", "print the vocabulary as an aligned index/entry table"},
	{"TREE input", "prefix-parse the given input and print its tree (grammar specs only)"},
	{"QUIT", "exit the session"},
}

// ops is the uniform view of whichever oracle variant the shell drives; each
// field is bound to the matching session method at construction.
type ops struct {
	reset     func()
	next      func(i int)
	feed      func(p []byte)
	check     func(p []byte) error
	isMatch   func() bool
	isInvalid func() bool
	onlySkip  func() bool
	conts     func() []int
}

// shell is the interactive session interpreter.
type shell struct {
	doc    catalog.Document
	ops    ops
	reader commandReader
	width  int

	// set only for grammar specs, for the TREE command
	canParse bool
}

func newShell(doc catalog.Document, variant string, outWidth int, forceDirect bool) (*shell, error) {
	if variant == "" {
		if doc.Kind == catalog.KindRegex {
			variant = "regex"
		} else {
			variant = "lr-exact"
		}
	}

	sh := &shell{doc: doc, width: outWidth, canParse: doc.Kind == catalog.KindGrammar}

	switch variant {
	case "regex":
		oracle, err := catalog.BuildRegexOracle(doc)
		if err != nil {
			return nil, err
		}
		sesh := session.New[regexoracle.State](oracle)
		sh.ops = ops{
			reset:     sesh.Reset,
			next:      sesh.Next,
			feed:      sesh.Feed,
			check:     oracle.CheckPrefix,
			isMatch:   sesh.IsMatch,
			isInvalid: sesh.IsInvalid,
			onlySkip:  func() bool { return false },
			conts:     sesh.Continuations,
		}
	case "lr-regular":
		oracle, err := catalog.BuildRegularOracle(doc, 0)
		if err != nil {
			return nil, err
		}
		sesh := session.New[lroracle.State](oracle)
		sh.ops = ops{
			reset:     sesh.Reset,
			next:      sesh.Next,
			feed:      sesh.Feed,
			check:     oracle.CheckPrefix,
			isMatch:   sesh.IsMatch,
			isInvalid: sesh.IsInvalid,
			onlySkip:  func() bool { return oracle.OnlySkippableMatching(sesh.Get()) },
			conts:     sesh.Continuations,
		}
	case "lr-exact":
		oracle, err := catalog.BuildExactOracle(doc, 0)
		if err != nil {
			return nil, err
		}
		sesh := session.New[lroracle.State](oracle)
		sh.ops = ops{
			reset:     sesh.Reset,
			next:      sesh.Next,
			feed:      sesh.Feed,
			check:     oracle.CheckPrefix,
			isMatch:   sesh.IsMatch,
			isInvalid: sesh.IsInvalid,
			onlySkip:  func() bool { return oracle.OnlySkippableMatching(sesh.Get()) },
			conts:     sesh.Continuations,
		}
	default:
		return nil, fmt.Errorf("unknown variant: %q", variant)
	}

	var err error
	if forceDirect {
		sh.reader = newDirectReader(os.Stdin)
	} else {
		sh.reader, err = newInteractiveReader()
		if err != nil {
			return nil, err
		}
	}

	return sh, nil
}

func (sh *shell) Close() error {
	return sh.reader.Close()
}

// RunUntilQuit starts the interpreter loop. Commands in startCommands are
// run first; after that, input is read until QUIT or EOF.
func (sh *shell) RunUntilQuit(startCommands []string) error {
	fmt.Printf("%s spec, %d vocabulary entries. Type HELP for commands.\n", sh.doc.Kind, len(sh.doc.Vocab))

	for _, cmd := range startCommands {
		if done, err := sh.exec(strings.TrimSpace(cmd)); done || err != nil {
			return err
		}
	}

	for {
		line, err := sh.reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		done, err := sh.exec(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		}
		if done {
			return nil
		}
	}
}

// exec runs a single command line. done is true when the session should end.
func (sh *shell) exec(line string) (done bool, err error) {
	if line == "" {
		return false, nil
	}

	parts := strings.SplitN(line, " ", 2)
	verb := strings.ToUpper(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = parts[1]
	}

	switch verb {
	case "QUIT":
		return true, nil
	case "HELP":
		sh.printHelp()
	case "STATE":
		sh.printState()
	case "CONT":
		indices := sh.ops.conts()
		if len(indices) == 0 {
			fmt.Println("(none)")
			break
		}
		strs := make([]string, len(indices))
		for i, idx := range indices {
			strs[i] = strconv.Itoa(idx)
		}
		fmt.Println(strings.Join(strs, " "))
	case "NEXT":
		idx, convErr := strconv.Atoi(strings.TrimSpace(arg))
		if convErr != nil {
			return false, fmt.Errorf("NEXT requires a vocabulary index")
		}
		if idx < 0 || idx >= len(sh.doc.Vocab) {
			return false, fmt.Errorf("index %d out of range [0, %d)", idx, len(sh.doc.Vocab))
		}
		sh.ops.next(idx)
		sh.printState()
	case "FEED":
		sh.ops.feed([]byte(arg))
		if sh.ops.isInvalid() {
			// re-check the fed text standalone from the start state so the
			// report carries a byte offset; the session itself only knows
			// it died. Earlier input to the session is not part of this
			// check, so the offset counts from the start of the fed text.
			if err := sh.ops.check([]byte(arg)); err != nil {
				return false, err
			}
		}
		sh.printState()
	case "RESET":
		sh.ops.reset()
		fmt.Println("reset to start state")
	case "VOCAB":
		sh.printVocab()
	case "TREE":
		if !sh.canParse {
			return false, fmt.Errorf("TREE requires a grammar spec")
		}
		return false, sh.printTree(arg)
	default:
		return false, fmt.Errorf("I don't know the command %q; type HELP for a list", verb)
	}

	return false, nil
}

func (sh *shell) printHelp() {
	ed := rosed.
		Edit("").
		WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
		InsertDefinitionsTable(0, commandHelp, sh.width)
	fmt.Print(ed.
		Insert(0, "Here are the commands you can use:\n").
		String())
}

func (sh *shell) printState() {
	switch {
	case sh.ops.isInvalid():
		fmt.Println("INVALID: no continuation can reach acceptance")
	case sh.ops.onlySkip():
		fmt.Println("MATCH (only skippable input remains)")
	case sh.ops.isMatch():
		fmt.Println("MATCH")
	default:
		fmt.Println("open: not yet a match")
	}
}

// printVocab prints the vocabulary as an index/entry table, aligned by
// display width so fullwidth CJK entries line up with narrow ASCII ones.
func (sh *shell) printVocab() {
	widest := 0
	for _, entry := range sh.doc.Vocab {
		if w := displayWidth(entry); w > widest {
			widest = w
		}
	}

	for i, entry := range sh.doc.Vocab {
		pad := strings.Repeat(" ", widest-displayWidth(entry))
		fmt.Printf("%6d  %s%s  %q\n", i, entry, pad, entry)
	}
}

// displayWidth returns the number of terminal columns the string occupies:
// East-Asian wide and fullwidth runes take two, everything else takes one.
func displayWidth(s string) int {
	cols := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			cols += 2
		default:
			cols++
		}
	}
	return cols
}

func (sh *shell) printTree(input string) error {
	table, err := catalog.BuildTable(sh.doc)
	if err != nil {
		return err
	}
	lexer, err := catalog.BuildLexer(sh.doc)
	if err != nil {
		return err
	}

	tree, tail, err := prefixparse.Parse(table, lexer, []byte(input), prefixparse.Options{})
	if err != nil {
		return err
	}

	fmt.Print(parsetree.Render(tree, sh.width))
	if terms := parsetree.TerminalsTable(tree, sh.width); terms != "" {
		fmt.Print(terms)
	}
	if len(tail) > 0 {
		fmt.Printf("unconsumed tail: %q\n", tail)
	}
	return nil
}
