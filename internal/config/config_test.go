package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SECRET_TOKEN", "")

	c, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, ":8080", c.ListenAddr)
	require.Equal(t, DefaultSourceURL, c.SourceURL)
	require.Equal(t, DefaultLimit, c.Limit)
	require.Zero(t, c.HTTPTimeout)
	require.Zero(t, c.RateLimit)
	require.Empty(t, c.SecretToken)
	require.Empty(t, c.JournalDSN)
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("PORT", "7878")
	t.Setenv("SECRET_TOKEN", "s3cret")

	c, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, ":7878", c.ListenAddr)
	require.Equal(t, "s3cret", c.SecretToken)
}

func TestLoad_FileEnvAndOverridePriority(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SECRET_TOKEN", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "postboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limit: 3\nhttp-timeout: 2s\nlog-handler: json\nrate-limit: 5\n"), 0o600))

	t.Setenv("POSTBOARD_RATE_LIMIT", "7")
	t.Setenv("POSTBOARD_SOURCE_URL", "http://127.0.0.1:9999/posts")

	c, err := Load(path, map[string]any{"limit": 4})
	require.NoError(t, err)
	require.Equal(t, 4, c.Limit)
	require.Equal(t, 2*time.Second, c.HTTPTimeout)
	require.Equal(t, "json", c.LogHandler)
	require.Equal(t, 7, c.RateLimit)
	require.Equal(t, "http://127.0.0.1:9999/posts", c.SourceURL)
}

func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen-addr":":9090"}`), 0o600))

	c, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, ":9090", c.ListenAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{ListenAddr: ":8080", SourceURL: DefaultSourceURL, Limit: 10}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"relative url":     func(c *Config) { c.SourceURL = "/posts" },
		"bad scheme":       func(c *Config) { c.SourceURL = "ftp://example.com/posts" },
		"zero limit":       func(c *Config) { c.Limit = 0 },
		"negative timeout": func(c *Config) { c.HTTPTimeout = -time.Second },
		"negative rate":    func(c *Config) { c.RateLimit = -1 },
		"empty listen":     func(c *Config) { c.ListenAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
