package config

import "time"

// LogFormat selects the log output encoding.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Config is the top-level soassoc configuration, corresponding to .soassoc.yml.
type Config struct {
	DataDir       string              `yaml:"data_dir" koanf:"data_dir"`
	Locale        string              `yaml:"locale" koanf:"locale"`
	Server        ServerConfig        `yaml:"server" koanf:"server"`
	StackExchange StackExchangeConfig `yaml:"stackexchange" koanf:"stackexchange"`
	Search        SearchConfig        `yaml:"search" koanf:"search"`
	Cache         CacheConfig         `yaml:"cache" koanf:"cache"`
	Controller    ControllerConfig    `yaml:"controller" koanf:"controller"`
	Auth          AuthConfig          `yaml:"auth" koanf:"auth"`
	Log           LogConfig           `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port" koanf:"port"`
	BaseURL  string `yaml:"base_url" koanf:"base_url"`
	AllowAll bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// StackExchangeConfig holds question API settings. SourceSite is the English
// corpus, TargetSite the corpus candidates come from.
type StackExchangeConfig struct {
	APIURL            string        `yaml:"api_url" koanf:"api_url"`
	Key               string        `yaml:"key" koanf:"key"`
	ClientID          string        `yaml:"client_id" koanf:"client_id"`
	ClientSecret      string        `yaml:"client_secret" koanf:"client_secret"`
	SourceSite        string        `yaml:"source_site" koanf:"source_site"`
	TargetSite        string        `yaml:"target_site" koanf:"target_site"`
	Filter            string        `yaml:"filter" koanf:"filter"`
	AnswersFilter     string        `yaml:"answers_filter" koanf:"answers_filter"`
	RequestsPerSecond float64       `yaml:"requests_per_second" koanf:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	APIURL   string        `yaml:"api_url" koanf:"api_url"`
	APIKey   string        `yaml:"api_key" koanf:"api_key"`
	EngineID string        `yaml:"engine_id" koanf:"engine_id"`
	Timeout  time.Duration `yaml:"timeout" koanf:"timeout"`
}

// CacheConfig configures the optional Redis response cache.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" koanf:"redis_url"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

// ControllerConfig tunes the page controller.
type ControllerConfig struct {
	DiscardStaleResults bool `yaml:"discard_stale_results" koanf:"discard_stale_results"`
}

// AuthConfig controls user sign-in.
type AuthConfig struct {
	Disabled   bool          `yaml:"disabled" koanf:"disabled"`
	SessionTTL time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}
