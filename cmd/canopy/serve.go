package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/adapters/file"
	"github.com/aretw0/canopy/internal/adapters/memory"
	redisadapter "github.com/aretw0/canopy/internal/adapters/redis"
	"github.com/aretw0/canopy/internal/logging"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
)

// serveConfig is read from the environment. Flags override the address.
type serveConfig struct {
	Addr          string        `env:"CANOPY_ADDR" envDefault:":8080"`
	Store         string        `env:"CANOPY_STORE" envDefault:"memory"`
	SessionsDir   string        `env:"CANOPY_SESSIONS_DIR" envDefault:".canopy/sessions"`
	RedisAddr     string        `env:"CANOPY_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"CANOPY_REDIS_PASSWORD"`
	RedisDB       int           `env:"CANOPY_REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"CANOPY_SESSION_TTL"`
	AutoSave      time.Duration `env:"CANOPY_AUTO_SAVE" envDefault:"10s"`
	AllowSkip     bool          `env:"CANOPY_ALLOW_SKIP"`
	LogLevel      string        `env:"CANOPY_LOG_LEVEL" envDefault:"info"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the questionnaire as a JSON API over HTTP, with sessions persisted to the configured store.`,
	Run: func(cmd *cobra.Command, args []string) {
		var cfg serveConfig
		if err := env.Parse(&cfg); err != nil {
			fmt.Printf("Error reading environment: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			port, _ := cmd.Flags().GetString("port")
			cfg.Addr = ":" + port
		}

		logger := logging.New(parseLevel(cfg.LogLevel))
		path, _ := cmd.Flags().GetString("questionnaire")

		store, locker, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)

		opts := []canopy.Option{
			canopy.WithLogger(logger),
			canopy.WithLifecycleHooks(metrics.Hooks()),
			canopy.WithAutoSave(cfg.AutoSave),
		}
		if cfg.AllowSkip {
			opts = append(opts, canopy.WithAllowSkip())
		}
		if locker != nil {
			mgr := session.NewManager(store,
				session.WithLogger(logger),
				session.WithLocker(locker))
			opts = append(opts, canopy.WithSessionManager(mgr))
		} else {
			opts = append(opts, canopy.WithStore(store))
		}

		engine, err := canopy.LoadFile(path, opts...)
		if err != nil {
			fmt.Printf("Error loading questionnaire: %v\n", err)
			os.Exit(1)
		}

		handler := canopyhttp.NewHandler(engine,
			canopyhttp.WithLogger(logger),
			canopyhttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr, "questionnaire", path, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

func buildStore(cfg serveConfig) (ports.SnapshotStore, ports.DistributedLocker, error) {
	switch cfg.Store {
	case "memory":
		return memory.NewStore(), nil, nil
	case "file":
		return file.NewStore(cfg.SessionsDir), nil, nil
	case "redis":
		var opts []redisadapter.Option
		if cfg.SessionTTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.SessionTTL))
		}
		store := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		locker := redisadapter.NewLocker(store.Client(), "canopy:lock:")
		return store, locker, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
