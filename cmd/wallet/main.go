package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/authgate"
	"github.com/eyeobad/aurora-pay/internal/database"
	apperrors "github.com/eyeobad/aurora-pay/internal/errors"
	"github.com/eyeobad/aurora-pay/internal/gateway/postgres"
	"github.com/eyeobad/aurora-pay/internal/health"
	"github.com/eyeobad/aurora-pay/internal/lifecycle"
	"github.com/eyeobad/aurora-pay/internal/notify"
	"github.com/eyeobad/aurora-pay/internal/prefs"
	"github.com/eyeobad/aurora-pay/internal/syncer"
	"github.com/eyeobad/aurora-pay/internal/wallet"
	"github.com/eyeobad/aurora-pay/pkg/config"
	"github.com/eyeobad/aurora-pay/pkg/graceful"
	"github.com/eyeobad/aurora-pay/pkg/logger"
	pkgredis "github.com/eyeobad/aurora-pay/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return err
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Warn("sentry init failed, continuing without it", slog.Any("error", err))
		} else {
			defer sentry.Flush(logger.FlushTimeout)
		}
	}

	config.Watch(v, log, func(next config.Config) {
		// Connection settings need a restart; nothing hot-swaps yet.
		log.Info("config change detected, restart to apply connection settings")
	})

	log.Info("starting wallet core",
		slog.String("env", cfg.AppEnv),
		slog.String("metrics_addr", cfg.Wallet.MetricsAddr),
	)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return err
	}

	migrationsDir := cfg.Wallet.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return err
	}

	kvClient, err := pkgredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to device store", slog.Any("error", err))
		return err
	}

	store := appstate.NewStore()
	prefStore := prefs.New(pkgredis.NewMetricsClient(kvClient), log)
	remote := postgres.New(db, log, []byte(cfg.Wallet.SessionSecret), cfg.Wallet.SessionTTL)
	sync := syncer.New(remote, store, prefStore, log)
	gate := authgate.New(authgate.UnavailablePrompter{}, prefStore, store, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	engine := wallet.New(store, sync, gate, prefStore, notify.NewSlogNotifier(log), errHandler, log)

	unsubscribe := engine.Subscribe(func(s appstate.State) {
		log.Debug("state changed",
			slog.Bool("initialized", s.Initialized),
			slog.Bool("loading", s.Loading),
			slog.Int("transactions", len(s.Transactions)),
		)
	})
	defer unsubscribe()

	if err := engine.LoadSession(ctx); err != nil {
		// A failed first load is recoverable: the UI can retry.
		log.Warn("initial session load failed", slog.Any("error", err))
	}

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("device_store", health.NewKVChecker(kvClient.Client))
	checker.AddCheck("remote_ledger", remote)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())
		status := http.StatusOK
		for _, v := range results {
			if v != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	})

	metricsAddr := cfg.Wallet.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}
	shutdownTimeout := cfg.Wallet.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	srv := graceful.NewServer(log, &http.Server{Addr: metricsAddr, Handler: mux}, shutdownTimeout)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(ctx)
	}()

	<-ctx.Done()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("database", func(context.Context) error { return db.Close() })
	shutdown.Register("device_store", func(context.Context) error { return kvClient.Close() })
	shutdown.Register("remote_session", remote.SignOut)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	if err := <-serveErr; err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("wallet core stopped")
	return nil
}
