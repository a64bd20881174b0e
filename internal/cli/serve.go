package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MimoJanra/PortPulse/internal/api"
	"github.com/MimoJanra/PortPulse/internal/checker"
	"github.com/MimoJanra/PortPulse/internal/notifications"
	"github.com/MimoJanra/PortPulse/internal/storage"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the watch scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address (default :8080)")
	flags.String("db", "", "sqlite database path (default portpulse.db)")
	flags.Int("workers", 0, "probe worker count (default 5)")
	flags.Int("rate-limit", 0, "max probes per minute accepted by the API, 0 for unlimited")
	_ = opts.v.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = opts.v.BindPFlag("server.db_path", flags.Lookup("db"))
	_ = opts.v.BindPFlag("server.workers", flags.Lookup("workers"))
	_ = opts.v.BindPFlag("server.rate_limit_per_minute", flags.Lookup("rate-limit"))

	return cmd
}

func runServe(parent context.Context, opts *options) error {
	cfg := opts.cfg

	db, err := storage.InitDB(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close db")
		}
	}()

	watchRepo := storage.NewWatchRepo(db)
	resultRepo := storage.NewResultRepo(db)

	prober := checker.NewProber(opts.liveness(cfg.Probe.Liveness))

	pool := checker.NewWorkerPool(cfg.Server.Workers, prober, resultRepo)
	if cfg.Alert.Type != "" {
		sender, err := notifications.NewSender(notifications.Settings{
			Type:       cfg.Alert.Type,
			WebhookURL: cfg.Alert.WebhookURL,
			Token:      cfg.Alert.Token,
			ChatID:     cfg.Alert.ChatID,
		})
		if err != nil {
			return fmt.Errorf("failed to configure alerts: %w", err)
		}
		pool.SetAlerter(sender, cfg.Alert.Threshold)
		log.Info().Str("type", cfg.Alert.Type).Int("threshold", cfg.Alert.Threshold).Msg("alerts enabled")
	}
	pool.Start()
	defer pool.Stop()

	scheduler := checker.NewScheduler(watchRepo, pool)
	scheduler.Start()
	defer scheduler.Stop()

	var limiter *checker.RateLimiter
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter = checker.NewRateLimiter(cfg.Server.RateLimitPerMinute, 0)
	}

	server := &api.Server{
		Prober:    prober,
		Pool:      pool,
		Scheduler: scheduler,
		Watches:   watchRepo,
		Results:   resultRepo,
		Limiter:   limiter,
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.SetupRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("db", cfg.Server.DBPath).
			Int("workers", cfg.Server.Workers).
			Msg("PortPulse listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	return nil
}
