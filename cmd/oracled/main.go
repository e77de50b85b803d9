/*
Oracled starts a continuation-oracle server and begins listening for new
connections.

Usage:

	oracled [flags]
	oracled [flags] -l [[ADDRESS]:PORT]

Once started, the oracle server will listen for HTTP requests and respond to
them using REST protocol. By default, it will listen on localhost:8080. This
can be changed with the --listen/-l flag (or config via environment var). The
flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the port preceded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated. As a
consequence, in this mode of operation all tokens are rendered invalid as
soon as the server shuts down. This is suitable for testing, but a secret
must be given via CLI flag, config file, or environment variable if running
in production.

The flags are:

	-v, --version
		Give the current version of the oracle server and then exit.

	-c, --config FILE
		Read configuration from the given TOML file before applying any
		other flags.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment
		variable GRAMORACLE_LISTEN_ADDRESS, and if that is not given, will
		default to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, will default to the value of
		environment variable GRAMORACLE_TOKEN_SECRET, and failing that a
		random secret is generated.

	--db CONN_STRING
		Use the given connection string for the spec catalog. Must be
		either "inmem" or "sqlite:PATH_TO_DATA_DIR". If not given, will
		default to the value of environment variable GRAMORACLE_DATABASE,
		and failing that to "inmem".
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/gramoracle/internal/config"
	"github.com/dekarrin/gramoracle/internal/version"
	"github.com/dekarrin/gramoracle/server"
	"github.com/dekarrin/gramoracle/server/serr"
)

const (
	EnvListen = "GRAMORACLE_LISTEN_ADDRESS"
	EnvSecret = "GRAMORACLE_TOKEN_SECRET"
	EnvDB     = "GRAMORACLE_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the oracle server and then exit.")
	flagConfig  = pflag.StringP("config", "c", "", "Read configuration from the given TOML file.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given connection string for the spec catalog.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.ServerCurrent)
		return
	}

	args := pflag.Args()

	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var cfg config.Config
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
	}

	// get address info
	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	cfg = cfg.FillDefaults()

	bindParts := strings.SplitN(cfg.Listen, ":", 2)
	if len(bindParts) != 2 {
		fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
		os.Exit(1)
	}
	addr := bindParts[0]
	port, err := strconv.Atoi(bindParts[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
		os.Exit(1)
	}

	// look at db connection string
	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr != "" {
		db, err := config.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
			os.Exit(1)
		}
		cfg.DB = db
	}

	// get token secret
	tokSecStr := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}
	if tokSecStr != "" {
		cfg.TokenSecret = tokSecStr
	}
	// was the secret given?
	if cfg.TokenSecret != "" {
		// if so, pad it out to the minimum size
		tokSecret := []byte(cfg.TokenSecret)

		for len(tokSecret) < config.MinSecretSize {
			doubledTokSecret := make([]byte, len(tokSecret)*2)
			copy(doubledTokSecret, tokSecret)
			copy(doubledTokSecret[len(tokSecret):], tokSecret)
			tokSecret = doubledTokSecret
		}

		if len(tokSecret) > config.MaxSecretSize {
			// keys would be chopped at the max, so rather than the user
			// thinking they have more security by giving a longer key,
			// refuse to start.
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), config.MaxSecretSize)
			os.Exit(1)
		}

		cfg.TokenSecret = string(tokSecret)
	} else {
		// generate a new one

		// use all possible bytes if doing a generated secret
		tokSecret := make([]byte, config.MaxSecretSize)
		_, err := rand.Read(tokSecret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		cfg.TokenSecret = string(tokSecret)

		// yell at the user bc they should know their secret might be bad
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Bad configuration: %s\n", err.Error())
		os.Exit(1)
	}

	// configuration complete, initialize the server
	osv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	// immediately create the admin client so we have someone we can log in
	// as.
	_, err = osv.Backend().CreateClient(context.Background(), "admin", "password")
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin client: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  Added initial admin client with key 'password'...")
	}

	// okay, now actually launch it
	log.Printf("INFO  Starting oracle server %s...", version.ServerCurrent)
	if err := osv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL %s", err.Error())
	}
}
