package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides. A double
// underscore separates nesting levels: SOASSOC_STACKEXCHANGE__KEY sets
// stackexchange.key.
const EnvPrefix = "SOASSOC_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SOASSOC_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SOASSOC_SEARCH__API_KEY to search.api_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validFormats = map[LogFormat]bool{
	LogText: true,
	LogJSON: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	se := c.StackExchange
	if se.APIURL == "" {
		return fmt.Errorf("stackexchange.api_url is required")
	}
	if se.SourceSite == "" || se.TargetSite == "" {
		return fmt.Errorf("stackexchange.source_site and stackexchange.target_site are required")
	}
	if se.SourceSite == se.TargetSite {
		return fmt.Errorf("stackexchange.target_site must differ from source_site (both %q)", se.SourceSite)
	}
	if se.RequestsPerSecond < 0 {
		return fmt.Errorf("stackexchange.requests_per_second must be non-negative")
	}
	if se.Timeout < 0 || c.Search.Timeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}

	if c.Search.APIURL == "" {
		return fmt.Errorf("search.api_url is required")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be non-negative")
	}

	if c.Log.Format != "" && !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
		}
	}

	return nil
}

// SearchConfigured reports whether the search engine credentials are set.
func (c *Config) SearchConfigured() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}

// OAuthConfigured reports whether Stack Exchange OAuth credentials are set.
func (c *Config) OAuthConfigured() bool {
	return c.StackExchange.ClientID != "" && c.StackExchange.ClientSecret != ""
}
