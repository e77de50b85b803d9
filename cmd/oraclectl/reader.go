package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// commandReader reads one line of REPL input at a time.
type commandReader interface {
	ReadCommand() (string, error)
	Close() error
}

// directCommandReader reads commands from any generic input stream directly.
// It can be used generically with any io.Reader but does not sanitize the
// input of control and escape sequences.
type directCommandReader struct {
	r *bufio.Reader
}

// newDirectReader creates a directCommandReader with a buffered reader on
// the provided stream.
func newDirectReader(r io.Reader) *directCommandReader {
	return &directCommandReader{r: bufio.NewReader(r)}
}

func (dcr *directCommandReader) Close() error {
	// this function is here so directCommandReader implements commandReader.
	// For now it doesn't really do anything as the directCommandReader does
	// not create resources, but callers should treat it as though it must
	// have Close called on it.
	return nil
}

// ReadCommand reads the next line from the stream. The returned string will
// only be empty if there is an error reading input; otherwise this function
// blocks until a line containing non-space characters is read.
func (dcr *directCommandReader) ReadCommand() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dcr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}

// interactiveCommandReader reads commands from stdin using a go
// implementation of the GNU Readline library. This keeps input clear of all
// typing and editing escape sequences and enables the use of command
// history. This should in general only be used when directly connected to a
// TTY.
type interactiveCommandReader struct {
	rl *readline.Instance
}

// newInteractiveReader creates an interactiveCommandReader and initializes
// readline. The returned reader must have Close() called on it before
// disposal to properly teardown readline resources.
func newInteractiveReader() (*interactiveCommandReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &interactiveCommandReader{rl: rl}, nil
}

func (icr *interactiveCommandReader) Close() error {
	return icr.rl.Close()
}

// ReadCommand reads the next command from stdin, blocking until a line
// consisting of more than empty or whitespace-only input is read.
func (icr *interactiveCommandReader) ReadCommand() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = icr.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				return "", io.EOF
			}
			return "", err
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}
