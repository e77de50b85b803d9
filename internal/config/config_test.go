package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "gramd.toml")
	content := `
listen = "0.0.0.0:9001"
secret = "anything-at-all"
cache_capacity = 1024
unauth_delay = 250

[db]
type = "sqlite"
dir = "/var/lib/gramd"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0660))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal("0.0.0.0:9001", cfg.Listen)
	assert.Equal("anything-at-all", cfg.TokenSecret)
	assert.Equal(1024, cfg.CacheCapacity)
	assert.Equal(250, cfg.UnauthDelayMillis)
	assert.Equal(DatabaseSQLite, cfg.DB.Type)
	assert.Equal("/var/lib/gramd", cfg.DB.DataDir)
}

func Test_Load_missingFile(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(err)
}

func Test_Load_malformed(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("listen = [whoops"), 0660))

	_, err := Load(path)
	assert.Error(err)
}

func Test_FillDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{}.FillDefaults()

	assert.Equal("localhost:8080", cfg.Listen)
	assert.Equal(DatabaseInMem, cfg.DB.Type)
	assert.Equal(1000, cfg.UnauthDelayMillis)

	// set values are not clobbered.
	cfg2 := Config{Listen: "x:1", UnauthDelayMillis: -1}.FillDefaults()
	assert.Equal("x:1", cfg2.Listen)
	assert.Equal(-1, cfg2.UnauthDelayMillis)
}

func Test_Validate(t *testing.T) {
	goodSecret := strings.Repeat("s", MinSecretSize)

	testCases := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{
			name:      "valid",
			cfg:       Config{TokenSecret: goodSecret, DB: Database{Type: DatabaseInMem}},
			expectErr: false,
		},
		{
			name:      "secret too short",
			cfg:       Config{TokenSecret: "short", DB: Database{Type: DatabaseInMem}},
			expectErr: true,
		},
		{
			name:      "secret too long",
			cfg:       Config{TokenSecret: strings.Repeat("s", MaxSecretSize+1), DB: Database{Type: DatabaseInMem}},
			expectErr: true,
		},
		{
			name:      "sqlite requires dir",
			cfg:       Config{TokenSecret: goodSecret, DB: Database{Type: DatabaseSQLite}},
			expectErr: true,
		},
		{
			name:      "negative cache capacity",
			cfg:       Config{TokenSecret: goodSecret, DB: Database{Type: DatabaseInMem}, CacheCapacity: -1},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := tc.cfg.Validate()

			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_ParseDBConnString(t *testing.T) {
	testCases := []struct {
		name      string
		s         string
		expect    Database
		expectErr bool
	}{
		{name: "inmem", s: "inmem", expect: Database{Type: DatabaseInMem}},
		{name: "sqlite with dir", s: "sqlite:/data", expect: Database{Type: DatabaseSQLite, DataDir: "/data"}},
		{name: "sqlite without dir", s: "sqlite", expectErr: true},
		{name: "inmem with params", s: "inmem:wat", expectErr: true},
		{name: "none", s: "none", expectErr: true},
		{name: "unknown engine", s: "postgres:x", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			db, err := ParseDBConnString(tc.s)

			if tc.expectErr {
				assert.Error(err)
			} else {
				if assert.NoError(err) {
					assert.Equal(tc.expect, db)
				}
			}
		})
	}
}
