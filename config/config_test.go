package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/staleness"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default().Cache, cfg.Cache)
	assert.Equal(t, Default().TTLs, cfg.TTLs)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
cache:
  max_entries: 25
ttls:
  repository: 1m
  events: 30s
sync:
  base_url: https://sync.example.com
  poll_interval: 5s
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Cache.MaxEntries)
	assert.Equal(t, time.Minute, cfg.TTLs.Repository.Std())
	assert.Equal(t, 30*time.Second, cfg.TTLs.Events.Std())
	assert.Equal(t, "https://sync.example.com", cfg.Sync.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval.Std())

	// Untouched values keep their defaults.
	assert.Equal(t, Default().TTLs.UserProfile, cfg.TTLs.UserProfile)
	assert.Equal(t, Default().Fetch, cfg.Fetch)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
ttls:
  repository: soon
`)

	_, err := Load(path)

	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestLoad_EnvTokenOverridesFile(t *testing.T) {
	path := writeConfig(t, `
github:
  token: from-file
`)
	t.Setenv(EnvGitHubToken, "from-env")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHub.Token)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"zero sweep interval", func(c *Config) { c.Cache.SweepInterval = 0 }},
		{"zero repository ttl", func(c *Config) { c.TTLs.Repository = 0 }},
		{"zero fallback ttl", func(c *Config) { c.TTLs.Fallback = 0 }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Fetch.Retries = -1 }},
		{"zero poll interval", func(c *Config) { c.Sync.PollInterval = 0 }},
		{"negative settle delay", func(c *Config) { c.Sync.SettleDelay = Duration(-time.Second) }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestBuildPolicy(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.TTLs.Repository = Duration(time.Minute)
	cfg.TTLs.Fallback = Duration(10 * time.Second)

	policy := cfg.BuildPolicy()

	assert.Equal(t, time.Minute, policy.TTL(staleness.CategoryRepository))
	assert.Equal(t, staleness.DefaultEventsTTL, policy.TTL(staleness.CategoryEvents))
	assert.Equal(t, 10*time.Second, policy.TTL(staleness.Category("unknown")))
}
