package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/kvmesh-go/internal/infra/confloader"
	"github.com/yndnr/kvmesh-go/internal/infra/shutdown"
	"github.com/yndnr/kvmesh-go/internal/server/config"
	"github.com/yndnr/kvmesh-go/internal/server/httpserver"
	"github.com/yndnr/kvmesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/kvmesh-go/internal/server/kvserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
	"github.com/yndnr/kvmesh-go/internal/telemetry/metric"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kvmesh-server",
		Usage:   "in-memory key/value server with per-key subscriptions",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"KVMESH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "protocol listen address",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "enable the HTTP side server on this address",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (json, text)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "time allowed for graceful shutdown",
				Value: defaultShutdownTimeout,
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), flagOverrides(c), c.Duration("shutdown-timeout"))
		},
	}
}

// flagOverrides returns the explicitly set flags keyed by config path.
func flagOverrides(c *cli.Context) map[string]any {
	flags := make(map[string]any)
	if c.IsSet("addr") {
		flags["server.kv.addr"] = c.String("addr")
	}
	if c.IsSet("http-addr") {
		flags["server.http.addr"] = c.String("http-addr")
		flags["server.http.enabled"] = true
	}
	if c.IsSet("log-level") {
		flags["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		flags["log.format"] = c.String("log-format")
	}
	return flags
}

func run(ctx context.Context, configFile string, flags map[string]any, timeout time.Duration) error {
	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting kvmesh-server",
		"build", buildinfo.Banner("kvmesh-server"),
		"config", configFile)

	reg := metric.NewRegistry()
	db := memory.New(
		memory.WithLogger(slogLogger.With("component", "memory")),
		memory.WithMetrics(reg),
	)
	if err := reg.Register(metric.NewCollector(func() metric.Stats {
		st := db.Stats()
		return metric.Stats{Keys: st.Keys, Subscribers: st.Subscribers}
	})); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	kv := kvserver.New(config.ToKVServerConfig(cfg), db,
		kvserver.WithLogger(slogLogger.With("component", "kvserver")),
		kvserver.WithMetrics(reg),
	)

	shutdownHandler := shutdown.NewHandler(timeout)

	// Hooks run in reverse order of registration.
	if err := kv.Start(context.Background()); err != nil {
		return fmt.Errorf("start kv server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down kv server", "sessions", kv.Sessions())
		return kv.Shutdown(ctx)
	})

	if cfg.Server.HTTP.Enabled {
		httpServer, err := startHTTP(cfg, kv, db, reg, slogLogger)
		if err != nil {
			_ = kv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down HTTP server")
			return httpServer.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, flags, slogLogger)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop", "addr", kv.Addr().String())
	if err := shutdownHandler.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers the config file, environment and flags over defaults.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger returns both the logger interface and the slog.Logger handed
// to components.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(config.ToLoggerConfig(cfg))
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)
	slogLogger := logger.Slog(log)
	slog.SetDefault(slogLogger)

	return log, slogLogger, nil
}

func startHTTP(cfg *config.ServerConfig, kv *kvserver.Server, db *memory.Database, reg *metric.Registry, l *slog.Logger) (*httpserver.Server, error) {
	addr := cfg.Server.HTTP.Addr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen http %s: %w", addr, err)
	}

	l = l.With("component", "httpserver")
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Stats: func() handler.Stats {
			st := db.Stats()
			return handler.Stats{Keys: st.Keys, Subscribers: st.Subscribers}
		},
		Ready:    func() bool { return kv.Addr() != nil },
		Metrics:  reg.Handler(),
		Recorder: reg,
		Logger:   l,
	})
	srv := httpserver.New(addr, router)

	go func() {
		l.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil {
			l.Error("HTTP server error", "error", err)
		}
	}()
	return srv, nil
}

// watchConfig reloads the log level whenever the config file is rewritten.
// Other settings take effect on restart.
func watchConfig(configFile string, flags map[string]any, l *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(l.With("component", "confloader")))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(path string) {
		reloadLogLevel(path, flags)
	})
	w.StartAsync()
	return w, nil
}

func reloadLogLevel(path string, flags map[string]any) {
	cfg, err := loadConfig(path, flags)
	if err != nil {
		logger.Warn("config reload failed, keeping current settings", "file", path, "error", err)
		return
	}
	if logger.GetLevel() == cfg.Log.Level {
		return
	}
	logger.SetLevel(cfg.Log.Level)
	logger.Info("log level changed", "level", logger.GetLevel())
}
