package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kevadb/keva-go/internal/command"
	"github.com/kevadb/keva-go/internal/infra/buildinfo"
	"github.com/kevadb/keva-go/internal/infra/confloader"
	"github.com/kevadb/keva-go/internal/infra/shutdown"
	"github.com/kevadb/keva-go/internal/server/config"
	"github.com/kevadb/keva-go/internal/server/tcpserver"
	"github.com/kevadb/keva-go/internal/store"
	"github.com/kevadb/keva-go/internal/telemetry/logger"
	"github.com/kevadb/keva-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("keva-server %s\n", buildinfo.String())
		return nil
	}

	loader, cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	log.Info("starting keva-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	// Store and background expiration sweeper.
	var storeOpts []store.Option
	if cfg.Store.Shards > 0 {
		storeOpts = append(storeOpts, store.WithShards(cfg.Store.Shards))
	}
	st := store.New(storeOpts...)

	sweeperOpts := []store.SweeperOption{store.WithSweepLogger(log)}
	if cfg.Store.SweepInterval > 0 {
		sweeperOpts = append(sweeperOpts, store.WithSweepInterval(cfg.Store.SweepInterval))
	}
	sweeper := store.NewSweeper(st, sweeperOpts...)
	sweeper.Start()

	// Metrics endpoint.
	m := metric.New(metric.Options{
		Keys:        func() float64 { return float64(st.Len()) },
		ExpiredKeys: func() float64 { return float64(st.ExpiredEvictions()) },
	})
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	// Command table over the store.
	handler := command.New(st,
		command.WithLogger(log),
		command.WithObserver(m.ObserveCommand),
		command.WithCompatConfig(map[string]string{
			"dir":        cfg.Store.Dir,
			"dbfilename": cfg.Store.DBFilename,
		}),
	)

	// TCP server.
	srv := tcpserver.New(&tcpserver.Config{
		Address:      cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
		MaxConns:     cfg.Server.MaxConns,
	}, handler,
		tcpserver.WithLogger(log),
		tcpserver.WithConnMetrics(m),
	)
	if err := srv.Start(context.Background()); err != nil {
		sweeper.Stop()
		return fmt.Errorf("start server: %w", err)
	}

	// Hot reload of the log level on config file changes.
	watcher, err := watchConfig(loader, *configFile, log)
	if err != nil {
		log.Warn("config watcher disabled", "error", err)
	}

	// Graceful shutdown, hooks run in reverse order.
	shutdownHandler := shutdown.NewHandler(30 * time.Second)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping expiration sweeper")
		sweeper.Stop()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down server")
		return srv.Shutdown(ctx)
	})
	if metricsServer != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics endpoint")
			return metricsServer.Shutdown(ctx)
		})
	}
	if watcher != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*confloader.Loader, *config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return loader, cfg, nil
}

// watchConfig watches the config file and applies log level changes
// without a restart. Returns nil when no config file is in use.
func watchConfig(loader *confloader.Loader, configFile string, log *slog.Logger) (*confloader.Watcher, error) {
	if configFile == "" {
		return nil, nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg := config.Default()
		if err := loader.Reload(cfg); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			log.Info("log level changed", "from", logger.GetLevel(), "to", cfg.Log.Level)
			logger.SetLevel(cfg.Log.Level)
		}
	})
	watcher.StartAsync()

	return watcher, nil
}
