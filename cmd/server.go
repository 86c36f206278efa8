package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/association"
	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/server"
	"github.com/ziadkadry99/soassoc/internal/suggested"
	"github.com/ziadkadry99/soassoc/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the association web server",
	Long:  `Starts the soassoc web server with the question pages, the websocket search channel and the JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		d, err := buildDeps(cfg, database)
		if err != nil {
			return err
		}
		defer d.Close()

		authStore := auth.NewStore(database)
		if !cfg.Auth.Disabled && !cfg.OAuthConfigured() {
			return fmt.Errorf("stackexchange.client_id and client_secret are required unless auth.disabled is set")
		}
		authHandler := auth.NewHandler(authStore, auth.HandlerConfig{
			ClientID:     cfg.StackExchange.ClientID,
			ClientSecret: cfg.StackExchange.ClientSecret,
			BaseURL:      cfg.Server.BaseURL,
			Site:         cfg.StackExchange.SourceSite,
			SessionTTL:   cfg.Auth.SessionTTL,
			Disabled:     cfg.Auth.Disabled,
		}, d.client, nil)

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, database, authHandler.Middleware, nil)

		pages, err := web.New(d.ctrl, d.suggested, web.Config{BaseURL: cfg.Server.BaseURL}, nil)
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}

		// Register all feature routes.
		r := srv.Router()
		auth.RegisterRoutes(r, authHandler)
		association.RegisterRoutes(r, d.associations)
		suggested.RegisterRoutes(r, d.suggested)
		pages.RegisterRoutes(r)
		pages.RegisterStreamRoutes(srv.StreamRouter())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go purgeSessions(ctx, authStore)
		go func() {
			<-ctx.Done()
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.WithFields(log.Fields{
			"version":     Version,
			"port":        cfg.Server.Port,
			"database":    database.Path(),
			"source_site": cfg.StackExchange.SourceSite,
			"target_site": cfg.StackExchange.TargetSite,
			"auth":        !cfg.Auth.Disabled,
		}).Info("soassoc server starting")

		if err := srv.Start(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// purgeSessions removes expired sessions hourly until ctx is done.
func purgeSessions(ctx context.Context, store *auth.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if n, err := store.PurgeExpired(ctx); err != nil {
			log.WithError(err).Warn("purging sessions")
		} else if n > 0 {
			log.WithField("count", n).Debug("purged expired sessions")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
