// Package config loads and validates configuration for the oracle daemon and
// CLI from a TOML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// DBType is the type of a catalog database connection.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone   DBType = "none"
	DatabaseSQLite DBType = "sqlite"
	DatabaseInMem  DBType = "inmem"
)

// ParseDBType parses a string found in a connection string into a DBType.
func ParseDBType(s string) (DBType, error) {
	sLower := strings.ToLower(s)

	switch sLower {
	case DatabaseSQLite.String():
		return DatabaseSQLite, nil
	case DatabaseInMem.String():
		return DatabaseInMem, nil
	default:
		return DatabaseNone, fmt.Errorf("DB type not one of 'sqlite' or 'inmem': %q", s)
	}
}

// Database contains configuration settings for connecting to the spec
// catalog's persistence layer.
type Database struct {
	// Type is the type of database the config refers to. It also determines
	// which of its other fields are valid.
	Type DBType `toml:"type"`

	// DataDir is the path on disk to a directory to use to store data in.
	// This is only applicable for certain DB types: SQLite.
	DataDir string `toml:"dir"`
}

// Validate returns an error if the Database does not have the correct fields
// set for its type.
func (db Database) Validate() error {
	switch db.Type {
	case DatabaseInMem:
		return nil
	case DatabaseSQLite:
		if db.DataDir == "" {
			return fmt.Errorf("dir not set to path")
		}
		return nil
	case DatabaseNone:
		return fmt.Errorf("'none' DB is not valid")
	default:
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// ParseDBConnString parses a database connection string of the form
// "engine:params" (or just "engine" if no other params are required) into a
// valid Database config object. For example, "sqlite:/data" gives a SQLite
// catalog persisted under the given dir, and "inmem" gives a catalog that
// lives only as long as the process.
func ParseDBConnString(s string) (Database, error) {
	var paramStr string
	dbParts := strings.SplitN(s, ":", 2)

	if len(dbParts) == 2 {
		paramStr = strings.TrimSpace(dbParts[1])
	}

	dbEng, err := ParseDBType(strings.TrimSpace(dbParts[0]))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	switch dbEng {
	case DatabaseInMem:
		if paramStr != "" {
			return Database{}, fmt.Errorf("unsupported param(s) for in-memory DB engine: %s", paramStr)
		}
		return Database{Type: DatabaseInMem}, nil
	case DatabaseSQLite:
		if paramStr == "" {
			return Database{}, fmt.Errorf("sqlite DB engine requires path to data directory after ':'")
		}
		return Database{Type: DatabaseSQLite, DataDir: paramStr}, nil
	case DatabaseNone:
		return Database{}, fmt.Errorf("cannot specify DB engine 'none' (perhaps you wanted 'inmem'?)")
	default:
		return Database{}, fmt.Errorf("unknown DB engine: %q", dbEng.String())
	}
}

// Config is a configuration for the oracle daemon. It contains all parameters
// that can be used to configure its operation.
type Config struct {
	// Listen is the full ADDRESS:PORT the daemon binds to.
	Listen string `toml:"listen"`

	// TokenSecret is the secret used for signing tokens.
	TokenSecret string `toml:"secret"`

	// DB is the configuration for the catalog's persistence layer.
	DB Database `toml:"db"`

	// CacheCapacity bounds the per-oracle continuation cache. Zero selects
	// the built-in default.
	CacheCapacity int `toml:"cache_capacity"`

	// UnauthDelayMillis is the amount of additional time to wait (in
	// milliseconds) before sending a response that indicates either that the
	// client was unauthorized or the client was unauthenticated. If not set
	// it will default to 1 second (1000ms). Set this to any negative number
	// to disable the delay.
	UnauthDelayMillis int `toml:"unauth_delay"`
}

// Load reads a Config from the TOML file at path.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// FillDefaults returns a new Config identical to cfg but with unset values
// set to their defaults.
func (cfg Config) FillDefaults() Config {
	newCFG := cfg

	if newCFG.Listen == "" {
		newCFG.Listen = "localhost:8080"
	}
	if newCFG.DB.Type == "" || newCFG.DB.Type == DatabaseNone {
		newCFG.DB = Database{Type: DatabaseInMem}
	}
	if newCFG.UnauthDelayMillis == 0 {
		newCFG.UnauthDelayMillis = 1000
	}

	return newCFG
}

// Validate returns an error if the Config has invalid field values set. It
// checks the token secret length, the DB settings, and that CacheCapacity is
// not negative; an empty token secret or unset DB type is invalid, while
// Listen and UnauthDelayMillis are not checked. If defaults are intended to
// be used, call Validate on the return value of FillDefaults.
func (cfg Config) Validate() error {
	if len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.TokenSecret))
	}
	if len(cfg.TokenSecret) > MaxSecretSize {
		return fmt.Errorf("token secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.TokenSecret))
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.CacheCapacity < 0 {
		return fmt.Errorf("cache_capacity: must not be negative")
	}

	return nil
}
