package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/association"
	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/config"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/db"
	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/search"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
	"github.com/ziadkadry99/soassoc/internal/suggested"
)

// loadConfig loads and validates the config, providing a user-friendly error,
// and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `soassoc init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	logger := log.StandardLogger()
	logger.SetOutput(os.Stderr)
	if cfg.Log.Format == config.LogJSON {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level := log.InfoLevel
	if l, err := log.ParseLevel(cfg.Log.Level); err == nil {
		level = l
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	path := filepath.Join(cfg.DataDir, db.FileName)
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return database, nil
}

// deps are the collaborators shared by the server, serve and lookup commands.
type deps struct {
	cfg          *config.Config
	client       *stackexchange.Client
	source       stackexchange.Source
	redis        *redis.Client
	engine       search.Engine
	loc          *i18n.Localizer
	suggested    *suggested.Store
	associations *association.Service
	ctrl         *controller.Controller
}

// buildDeps wires the API clients, stores and the page controller. database
// may be nil for commands that do not persist anything; associations are
// then disabled.
func buildDeps(cfg *config.Config, database *db.DB) (*deps, error) {
	d := &deps{cfg: cfg}
	logger := log.StandardLogger()

	d.client = stackexchange.NewClient(cfg.StackExchange, logger)
	d.source = d.client
	if cfg.Cache.RedisURL != "" {
		rdb, err := stackexchange.NewRedisClient(cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		d.redis = rdb
		d.source = stackexchange.NewCachedSource(d.client, rdb, cfg.Cache.TTL)
		logger.WithField("ttl", cfg.Cache.TTL).Info("question cache enabled")
	}

	if !cfg.SearchConfigured() {
		logger.Warn("search.api_key or search.engine_id not set; searches will fail")
	}
	d.engine = search.NewClient(cfg.Search, logger)

	locale := cfg.Locale
	if locale == "" {
		locale = config.LocaleForSite(cfg.StackExchange.TargetSite)
	}
	loc, err := i18n.New(locale)
	if err != nil {
		return nil, fmt.Errorf("loading locale %q: %w", locale, err)
	}
	d.loc = loc

	var associate controller.AssociateFunc
	if database != nil {
		commentLoc, err := i18n.New(config.LocaleForSite(cfg.StackExchange.TargetSite))
		if err != nil {
			return nil, err
		}
		// Without sign-in every association is posted with the CLI token.
		var fallback string
		if cfg.Auth.Disabled {
			fallback = auth.CLIAccessToken()
		}
		d.suggested = suggested.NewStore(database)
		d.associations = association.NewService(
			association.NewStore(database),
			d.suggested,
			d.client,
			commentLoc,
			association.Options{
				TargetSite:    cfg.StackExchange.TargetSite,
				FallbackToken: fallback,
			},
			logger,
		)
		associate = d.associations.AssociateFunc()
	}

	d.ctrl = controller.New(d.source, d.engine, associate, loc, controller.Options{
		SourceSite:          cfg.StackExchange.SourceSite,
		TargetSite:          cfg.StackExchange.TargetSite,
		DiscardStaleResults: cfg.Controller.DiscardStaleResults,
	}, logger)
	return d, nil
}

func (d *deps) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
}
