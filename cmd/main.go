package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/okian/vitalrace/internal/adapters/dataset"
	"github.com/okian/vitalrace/internal/adapters/http/api"
	"github.com/okian/vitalrace/internal/adapters/http/swagger"
	app "github.com/okian/vitalrace/internal/app"
	"github.com/okian/vitalrace/internal/config"
	"github.com/okian/vitalrace/pkg/logger"
	"github.com/okian/vitalrace/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "vitalrace exited", logger.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.LogJSON {
		if err := logger.Init(logger.WithJSON(true)); err != nil {
			return fmt.Errorf("init json logging: %w", err)
		}
		log = logger.Get()
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds and starts the service, loads the configured dataset and
// selects the default metric.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithPointCount(cfg.PointCount),
		app.WithDuration(cfg.Duration()),
		app.WithFrameInterval(cfg.FrameInterval()),
		app.WithResampleWorkers(cfg.ResampleWorkers),
		app.WithThresholds(cfg.CriticalThresholds),
		app.WithGroups(cfg.Groups),
		app.WithWindow(cfg.Window()),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}

	if cfg.DatasetPath == "" {
		log.Warn(ctx, "no dataset_path configured; serving an empty dataset")
		return svc, nil
	}
	ds, err := dataset.Load(ctx, cfg.DatasetPath)
	if err != nil {
		svc.Stop()
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if err := svc.Load(ctx, ds); err != nil {
		svc.Stop()
		return nil, fmt.Errorf("ingest dataset: %w", err)
	}

	if cfg.DefaultMetric == "" {
		return svc, nil
	}
	if err := svc.SelectMetric(ctx, cfg.DefaultMetric); err != nil {
		svc.Stop()
		return nil, fmt.Errorf("select default metric: %w", err)
	}
	if cfg.Autoplay {
		if err := svc.Play(ctx); err != nil {
			svc.Stop()
			return nil, fmt.Errorf("autoplay: %w", err)
		}
	}
	return svc, nil
}

// newRouter registers the API and the docs on a fresh router.
func newRouter(svc *app.Service) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, svc).Register(r)
	swagger.Register(r)
	return r
}

// startSystemMetricsUpdater updates system metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
