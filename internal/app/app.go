package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/imishra/tradejournal/internal/adapter/postgres"
	"github.com/imishra/tradejournal/internal/adapter/postgres/daystore"
	"github.com/imishra/tradejournal/internal/broker"
	"github.com/imishra/tradejournal/internal/config"
	"github.com/imishra/tradejournal/internal/service/journal"
	"github.com/imishra/tradejournal/internal/storage"
	"github.com/imishra/tradejournal/internal/transport/middleware"
	"github.com/imishra/tradejournal/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, wires the journal service and broker clients into the HTTP
// surface, and serves until the context is cancelled or an interrupt
// arrives.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	dayRepo := daystore.New(pool)

	journalSvc := journal.NewService(logger, dayRepo, txManager)

	uploads, err := storage.NewUploadStore(cfg.Upload.Dir, logger)
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}

	liveSvc := newBrokerService(cfg.Broker, logger)

	journalHandler := rest.NewJournalHandler(journalSvc, liveSvc, uploads, logger)
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())

	mux := rest.NewRouter(rest.RouterDeps{
		Journal:   journalHandler,
		Health:    healthHandler,
		UploadDir: uploads.Dir(),
	})

	mws := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit(cfg.RateLimit.RequestsPerMinute))
	}
	handler := middleware.Chain(mws...)(mux)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newBrokerService builds the live PnL fetcher from whatever broker
// credentials are configured. With no credentials it still returns a working
// service that reports zero accounts.
func newBrokerService(cfg config.BrokerConfig, logger *slog.Logger) *broker.Service {
	var zerodha *broker.ZerodhaClient
	if cfg.HasZerodha() {
		zerodha = broker.NewZerodhaClient(cfg.ZerodhaAPIKey, cfg.ZerodhaAccessToken, logger)
	}

	groww := make([]*broker.GrowwClient, 0, len(cfg.GrowwAccounts))
	for _, acc := range cfg.GrowwAccounts {
		groww = append(groww, broker.NewGrowwClient(acc.Name, acc.AccessToken, logger))
	}

	return broker.NewService(logger, zerodha, groww)
}
