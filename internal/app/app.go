package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/urlinfo/internal/config"
	"github.com/MrSnakeDoc/urlinfo/internal/databases"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/scheduler"
	"github.com/MrSnakeDoc/urlinfo/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	checker *reputation.Checker
	stores  []databases.Built
}

// New loads the databases file, builds every store in order and wires the
// HTTP server. Any store failing to build aborts startup.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	loggerClient.Info("loading databases file", logger.String("path", cfg.DatabasesFile))
	file, err := databases.Load(cfg.DatabasesFile)
	if err != nil {
		return nil, err
	}

	stores, err := databases.NewFactory(loggerClient).BuildAll(ctx, file)
	if err != nil {
		return nil, err
	}

	raw := make([]reputation.Store, 0, len(stores))
	for _, b := range stores {
		raw = append(raw, b.Store)
		loggerClient.Info("store ready",
			logger.String("name", b.Name),
			logger.String("type", b.Type))
	}

	checker, err := reputation.NewChecker(loggerClient.Named("checker"), raw...)
	if err != nil {
		_ = databases.CloseAll(stores)
		return nil, err
	}

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitRefill: cfg.RateLimitRefillPerMin,
		Checker:         checker,
		Stores:          stores,
	}

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  httpserver.New(cfg, loggerClient, d),
		checker: checker,
		stores:  stores,
	}, nil
}

// Checker returns the aggregate checker over every configured store.
func (a *App) Checker() *reputation.Checker { return a.checker }

// Handler returns the HTTP handler without binding a listener.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts down
// gracefully and closes every store. SIGHUP reloads every reloadable store.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting urlinfo %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("urlinfo %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	hangups, stopHangups := notifyHangups()
	defer stopHangups()
	reloader := scheduler.NewStoreReloader(a.stores, a.logger.Named("reloader"), hangups)
	reloader.Start(ctx)
	defer reloader.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("urlinfo stopped cleanly")
	return nil
}

// notifyHangups turns SIGHUP into reload triggers. Signals arriving during a
// reload collapse into one.
func notifyHangups() (<-chan struct{}, func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	trigger := make(chan struct{}, 1)
	go func() {
		for range sig {
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}()
	return trigger, func() {
		signal.Stop(sig)
		close(sig)
	}
}

// Close releases every store. It is safe to call more than once.
func (a *App) Close() error {
	stores := a.stores
	a.stores = nil
	if err := databases.CloseAll(stores); err != nil {
		a.logger.Warn("failed to close stores", logger.Error(err))
		return err
	}
	return nil
}
