package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/core/service"
	"github.com/yndnr/recordsvc/internal/infra/buildinfo"
	"github.com/yndnr/recordsvc/internal/infra/confloader"
	"github.com/yndnr/recordsvc/internal/infra/shutdown"
	"github.com/yndnr/recordsvc/internal/infra/tlsroots"
	"github.com/yndnr/recordsvc/internal/server/config"
	"github.com/yndnr/recordsvc/internal/server/httpserver"
	"github.com/yndnr/recordsvc/internal/server/httpserver/handler"
	"github.com/yndnr/recordsvc/internal/storage/memory"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
	"github.com/yndnr/recordsvc/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "recordsvc-server",
		Usage:   "In-memory record service",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"RECORDSVC_CONFIG"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting recordsvc-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile,
	)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	app, err := build(c.Context, cfg, log)
	if err != nil {
		return err
	}

	srvOpts := httpserver.Options{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}

	var certs *tlsroots.KeyPairReloader
	if cfg.Server.HTTP.TLSEnabled() {
		certs, err = tlsroots.NewKeyPairReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return fmt.Errorf("load tls key pair: %w", err)
		}
		srvOpts.TLSConfig = certs.ServerConfig()
		certs.Start()
	}

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, app.router, srvOpts)

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, shutdown.WithLogger(log))

	// Hooks run in reverse order of registration.
	if certs != nil {
		shutdownHandler.OnShutdown("tls reloader", func(context.Context) error {
			return certs.Stop()
		})
	}
	if configFile != "" {
		watcher, err := watchConfig(configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}
	shutdownHandler.OnShutdown("http server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", cfg.Server.HTTP.TLSEnabled(),
			"records_path", app.handler.RecordsPath(),
			"auth", cfg.Auth.Enabled,
		)
		var err error
		if cfg.Server.HTTP.TLSEnabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers the config file and RECORDSVC_* variables over the
// defaults and validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Backend: cfg.Log.Backend,
		Output:  os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// components is the assembled request path of the server.
type components struct {
	store   *memory.RecordStore
	metrics *metric.Registry
	handler *handler.Handler
	router  http.Handler
}

// build wires the store, services and HTTP stack described by cfg.
func build(ctx context.Context, cfg *config.ServerConfig, log logger.Logger) (*components, error) {
	store := memory.NewRecordStore()
	if cfg.Store.SeedSampleData {
		if err := store.Seed(ctx, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		log.Info("sample records seeded", "count", store.Count())
	}

	trusted, err := domain.ParseNetworkEntries(cfg.Server.HTTP.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server.http.trusted_proxies: %w", err)
	}

	var (
		metrics   *metric.Registry
		svcOpts   []service.RecordServiceOption
		routerCfg = &httpserver.RouterConfig{
			Logger:              log,
			MetricsAuthRequired: cfg.Metrics.AuthRequired,
			CORSAllowedOrigins:  cfg.Server.HTTP.CORSAllowedOrigins,
			TrustedProxies:      trusted,
			RateLimit:           cfg.Server.HTTP.RateLimit,
			EnableAudit:         cfg.Server.HTTP.EnableAudit,
		}
	)
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
		if err := metrics.Register(metric.NewRecordCollector(store)); err != nil {
			return nil, fmt.Errorf("register record collector: %w", err)
		}
		svcOpts = append(svcOpts, service.WithOperationObserver(metrics))
		routerCfg.Metrics = metrics
		routerCfg.MetricsHandler = metrics.Handler()
	}

	if cfg.Auth.Enabled {
		keys := memory.NewAPIKeyStore()
		if err := keys.Load(ctx, cfg.Auth.APIKeys()); err != nil {
			return nil, fmt.Errorf("load api keys: %w", err)
		}
		authCfg := service.DefaultAuthServiceConfig()
		if cfg.Auth.CacheTTL > 0 {
			authCfg.CacheTTL = cfg.Auth.CacheTTL
		}
		authCfg.GlobalAllowlist = cfg.Auth.Allowlist
		authCfg.Logger = log
		routerCfg.AuthService = service.NewAuthService(keys, authCfg)
		log.Info("api key authentication enabled", "keys", keys.Count())
	}

	h := handler.New(handler.Config{
		Records:    service.NewRecordService(store, svcOpts...),
		Logger:     log,
		PathPrefix: cfg.Server.HTTP.PathPrefix,
		Build:      buildinfo.Get(),
	})
	routerCfg.Handler = h

	return &components{
		store:   store,
		metrics: metrics,
		handler: h,
		router:  httpserver.NewRouter(routerCfg),
	}, nil
}

// watchConfig re-reads the config file on change and applies its log level.
// Other settings require a restart.
func watchConfig(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if !strings.EqualFold(cfg.Log.Level, logger.GetLevel()) {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
