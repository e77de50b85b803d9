/*
Oraclectl starts an interactive continuation-oracle session.

It reads in a spec document and builds the oracle it describes, then starts
reading commands from stdin until EOF or the "QUIT" command is input.

Usage:

	oraclectl [flags]

The flags are:

	-v, --version
		Give the current version of oraclectl and then exit.

	-f, --spec FILE
		Use the provided JSON spec document for the oracle. Defaults to the
		file "spec.json" in the current working directory.

	--variant VARIANT
		Which oracle to build from the spec: "regex", "lr-regular", or
		"lr-exact". Defaults to "regex" for regex specs and "lr-exact" for
		grammar specs.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading command input even if launched
		in a tty with stdin and stdout.

	-c, --command COMMANDS
		Immediately run the given command(s) at start. Can be multiple
		commands separated by the ";" character.

	-w, --width WIDTH
		Wrap and align output to the given console width. Defaults to 80.

Once a session has started, type "HELP" for an explanation of the commands.
To exit the interpreter, type "QUIT".
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/gramoracle/internal/catalog"
	"github.com/dekarrin/gramoracle/internal/version"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitSessionError indicates an unsuccessful program execution due to a
	// problem during the session.
	ExitSessionError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the oracle.
	ExitInitError
)

var (
	returnCode   int     = ExitSuccess
	flagVersion  *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	specFile     *string = pflag.StringP("spec", "f", "spec.json", "The JSON spec document that contains the oracle definition")
	variant      *string = pflag.String("variant", "", "Which oracle variant to build: regex, lr-regular, or lr-exact")
	forceDirect  *bool   = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	startCommand *string = pflag.StringP("command", "c", "", "Execute the given session commands immediately at start and leave the interpreter open")
	outputWidth  *int    = pflag.IntP("width", "w", 80, "Wrap and align output to the given console width")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	var startCommands []string
	if *startCommand != "" {
		startCommands = strings.Split(*startCommand, ";")
	}

	data, err := os.ReadFile(*specFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	doc, err := catalog.ParseDocument(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	sh, initErr := newShell(doc, *variant, *outputWidth, *forceDirect)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer sh.Close()

	err = sh.RunUntilQuit(startCommands)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSessionError
		return
	}
}
