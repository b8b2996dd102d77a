package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/config/source"
	"github.com/skekre98/hostkit/core"
	"github.com/skekre98/hostkit/discovery"
	"github.com/skekre98/hostkit/logging"
	"github.com/skekre98/hostkit/options"

	// contributors registered with discovery.Default
	_ "github.com/skekre98/hostkit/actuator"
	_ "github.com/skekre98/hostkit/web"
)

func init() {
	discovery.Register("http-defaults", func(env discovery.Env) (core.Contributor, error) {
		return httpDefaults(env.Config.HTTP), nil
	})
}

// httpDefaults seeds the shared HTTP client options from configuration.
// List it first in the manifest so later contributors can override it.
// Its startup hook creates the cache directory named by the final options.
func httpDefaults(cfg config.HTTPClientConfig) core.Contributor {
	return &core.Funcs{
		Startup: func(_ core.Host, hooks *core.Hooks) error {
			hooks.Add("http-defaults.cache-dir", ensureCacheDir)
			return nil
		},
		Options: func(_ core.Host, b *options.Builder) error {
			if cfg.BaseURL != "" {
				b.BaseURL(cfg.BaseURL)
			}
			if cfg.Timeout > 0 {
				b.HTTPTimeout(cfg.Timeout)
			}
			if cfg.UserAgent != "" {
				b.UserAgent(cfg.UserAgent)
			}
			for k, v := range cfg.Headers {
				b.Header(k, v)
			}
			if cfg.MaxRetries != nil {
				retry := options.DefaultRetry
				retry.Max = *cfg.MaxRetries
				b.Retry(retry)
			}
			if cfg.CacheDir != "" {
				b.CacheDir(cfg.CacheDir)
			}
			b.LogHTTP(cfg.LogEnabled)
			return nil
		},
	}
}

func ensureCacheDir(_ context.Context, h core.Host) error {
	c, err := h.Container()
	if err != nil {
		return err
	}
	dir := core.MustLookup[options.Options](c).CacheDir()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return nil
}

// manifest returns the contributor manifest: the file named by
// cfg.Manifest when set, otherwise the contributors list in cfg.
func manifest(cfg config.Root) (discovery.Manifest, error) {
	if cfg.Manifest == "" {
		return discovery.ManifestFrom(cfg), nil
	}
	f, err := os.Open(cfg.Manifest)
	if err != nil {
		return discovery.Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return discovery.LoadManifest(f)
}

func main() {
	// 1) config
	var cfg config.Root
	mgr, err := config.NewManager(&cfg,
		&config.StaticSource{SourceName: "defaults", Data: config.Defaults()},
		&source.FileSource{BasePath: envOr("HOSTKIT_CONFIG_DIR", "configs"), Profile: os.Getenv("APP_PROFILE")},
		&source.EnvSource{},
		&source.CLISource{},
	)
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	config.ApplyDefaults(&cfg)

	// 2) logging
	logger := logging.New(cfg.Logging.Level).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)

	// 3) discover contributors in manifest order
	m, err := manifest(cfg)
	if err != nil {
		logger.Error("manifest error", "error", err)
		os.Exit(1)
	}
	contributors, err := discovery.Discover(m, discovery.Default, discovery.Env{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Error("discovery error", "error", err, "registered", discovery.Default.IDs())
		os.Exit(1)
	}

	// 4) reload config on SIGHUP; options are frozen, so changes only take
	// effect on the next start and are just reported here.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchReload(ctx, mgr, logger)

	// 5) run
	app := core.NewApp(cfg.App.Name, logger, contributors...)
	app.ShutdownTimeout = cfg.Server.ShutdownTimeout
	if err := app.Run(ctx); err != nil {
		logger.Error("app error", "error", err)
		os.Exit(1)
	}
}

func watchReload(ctx context.Context, mgr *config.Manager, logger *slog.Logger) {
	events := make(chan config.Event, 1)
	mgr.Subscribe(events)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := mgr.Reload(ctx); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		case evt := <-events:
			logger.Info("config changed; restart to apply", "keys", evt.ChangedKeys)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
