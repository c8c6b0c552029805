// Package config loads runtime configuration for the data layer from a YAML
// file, with environment overrides for credentials.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bdougie/contributor.info-sub015/cache"
	"github.com/bdougie/contributor.info-sub015/errors"
	"github.com/bdougie/contributor.info-sub015/fetch"
	"github.com/bdougie/contributor.info-sub015/staleness"
	"github.com/bdougie/contributor.info-sub015/syncjob"
)

// EnvGitHubToken overrides github.token when set. Tokens belong in the
// environment, not in config files checked into dotfiles.
const EnvGitHubToken = "GITHUB_TOKEN"

// Duration wraps time.Duration so YAML configs can say "15m" instead of
// nanosecond integers.
type Duration time.Duration

// UnmarshalYAML parses Go duration strings ("15m", "2s").
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid duration")
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CacheConfig controls the in-memory store.
type CacheConfig struct {
	MaxEntries    int      `yaml:"max_entries"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// TTLConfig sets the freshness window per data category.
type TTLConfig struct {
	Repository   Duration `yaml:"repository"`
	UserProfile  Duration `yaml:"user_profile"`
	PullRequests Duration `yaml:"pull_requests"`
	Events       Duration `yaml:"events"`
	Fallback     Duration `yaml:"fallback"`
}

// FetchConfig controls the request wrapper.
type FetchConfig struct {
	Timeout Duration `yaml:"timeout"`
	Retries int      `yaml:"retries"`
	Backoff Duration `yaml:"backoff"`
}

// SyncConfig controls the sync job dispatcher and poller.
type SyncConfig struct {
	BaseURL      string   `yaml:"base_url"`
	PollInterval Duration `yaml:"poll_interval"`
	SettleDelay  Duration `yaml:"settle_delay"`
	MaxWait      Duration `yaml:"max_wait"`
}

// GitHubConfig holds GitHub API credentials.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// PrefsConfig locates the durable preference store.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// Config is the full data-layer configuration.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	TTLs   TTLConfig    `yaml:"ttls"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Sync   SyncConfig   `yaml:"sync"`
	GitHub GitHubConfig `yaml:"github"`
	Prefs  PrefsConfig  `yaml:"prefs"`
}

// Default returns the configuration used when no file is present. The values
// mirror the package-level defaults of each component.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			MaxEntries:    cache.DefaultMaxEntries,
			SweepInterval: Duration(cache.DefaultSweepInterval),
		},
		TTLs: TTLConfig{
			Repository:   Duration(staleness.DefaultRepositoryTTL),
			UserProfile:  Duration(staleness.DefaultUserProfileTTL),
			PullRequests: Duration(staleness.DefaultPullRequestsTTL),
			Events:       Duration(staleness.DefaultEventsTTL),
			Fallback:     Duration(staleness.DefaultFallbackTTL),
		},
		Fetch: FetchConfig{
			Timeout: Duration(fetch.DefaultTimeout),
			Retries: fetch.DefaultRetries,
			Backoff: Duration(fetch.DefaultBackoff),
		},
		Sync: SyncConfig{
			PollInterval: Duration(syncjob.DefaultPollInterval),
			SettleDelay:  Duration(syncjob.DefaultSettleDelay),
			MaxWait:      Duration(syncjob.DefaultMaxWait),
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file yields the defaults (plus overrides).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file")
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				wrapped := errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config file")
				return Config{}, errors.WithContext(wrapped, "path", path)
			}
		}
	}

	if token := os.Getenv(EnvGitHubToken); token != "" {
		cfg.GitHub.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations no component would accept.
func (c Config) Validate() error {
	if c.Cache.MaxEntries <= 0 {
		return errors.New(errors.CodeInvalidConfig, "cache.max_entries must be positive")
	}
	if c.Cache.SweepInterval.Std() <= 0 {
		return errors.New(errors.CodeInvalidConfig, "cache.sweep_interval must be positive")
	}
	for name, d := range map[string]Duration{
		"ttls.repository":    c.TTLs.Repository,
		"ttls.user_profile":  c.TTLs.UserProfile,
		"ttls.pull_requests": c.TTLs.PullRequests,
		"ttls.events":        c.TTLs.Events,
		"ttls.fallback":      c.TTLs.Fallback,
	} {
		if d.Std() <= 0 {
			return errors.Newf(errors.CodeInvalidConfig, "%s must be positive", name)
		}
	}
	if c.Fetch.Timeout.Std() <= 0 {
		return errors.New(errors.CodeInvalidConfig, "fetch.timeout must be positive")
	}
	if c.Fetch.Retries < 0 {
		return errors.New(errors.CodeInvalidConfig, "fetch.retries must not be negative")
	}
	if c.Sync.PollInterval.Std() <= 0 {
		return errors.New(errors.CodeInvalidConfig, "sync.poll_interval must be positive")
	}
	if c.Sync.SettleDelay.Std() < 0 {
		return errors.New(errors.CodeInvalidConfig, "sync.settle_delay must not be negative")
	}
	return nil
}

// BuildPolicy converts the TTL table into a staleness policy.
func (c Config) BuildPolicy() staleness.Policy {
	return staleness.NewPolicy(map[staleness.Category]time.Duration{
		staleness.CategoryRepository:   c.TTLs.Repository.Std(),
		staleness.CategoryUserProfile:  c.TTLs.UserProfile.Std(),
		staleness.CategoryPullRequests: c.TTLs.PullRequests.Std(),
		staleness.CategoryEvents:       c.TTLs.Events.Std(),
	}, c.TTLs.Fallback.Std())
}
