package config

import "time"

const (
	DefaultStackExchangeURL = "https://api.stackexchange.com/2.2"
	DefaultSearchURL        = "https://www.googleapis.com/customsearch/v1"
)

// KnownTargetSites are the non-English Stack Overflow sites offered by the
// init wizard.
var KnownTargetSites = []string{
	"ru.stackoverflow",
	"pt.stackoverflow",
	"es.stackoverflow",
	"ja.stackoverflow",
}

// localeForSite maps a target site to the UI locale that fits it.
var localeForSite = map[string]string{
	"ru.stackoverflow": "ru",
	"pt.stackoverflow": "pt",
	"es.stackoverflow": "es",
	"ja.stackoverflow": "ja",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Locale:  "ru",
		Server: ServerConfig{
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		StackExchange: StackExchangeConfig{
			APIURL:            DefaultStackExchangeURL,
			SourceSite:        "stackoverflow",
			TargetSite:        "ru.stackoverflow",
			AnswersFilter:     "!)s4ZC4Cto10(q(Yp)zK*",
			RequestsPerSecond: 25,
			Timeout:           30 * time.Second,
		},
		Search: SearchConfig{
			APIURL:  DefaultSearchURL,
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Controller: ControllerConfig{
			DiscardStaleResults: true,
		},
		Auth: AuthConfig{
			SessionTTL: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogText,
		},
	}
}

// LocaleForSite returns the UI locale matching a target site, or "en".
func LocaleForSite(site string) string {
	if l, ok := localeForSite[site]; ok {
		return l
	}
	return "en"
}
