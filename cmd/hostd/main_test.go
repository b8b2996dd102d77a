package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/core"
	"github.com/skekre98/hostkit/discovery"
	"github.com/skekre98/hostkit/options"
)

func TestHTTPDefaults(t *testing.T) {
	c := httpDefaults(config.HTTPClientConfig{
		BaseURL:    "https://api.example.com",
		Timeout:    3 * time.Second,
		UserAgent:  "hostd/test",
		Headers:    map[string]string{"x-tenant": "acme"},
		MaxRetries: ptr[uint64](5),
	})

	b := options.NewBuilder()
	require.NoError(t, c.ApplyOptions(nil, b))
	opts, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", opts.BaseURL())
	assert.Equal(t, 3*time.Second, opts.HTTPTimeout())
	assert.Equal(t, "hostd/test", opts.UserAgent())
	assert.Equal(t, "acme", opts.Headers()["X-Tenant"])
	assert.Equal(t, uint64(5), opts.Retry().Max)
}

func ptr[T any](v T) *T { return &v }

func TestHTTPDefaults_Retries(t *testing.T) {
	tests := []struct {
		name string
		max  *uint64
		want uint64
	}{
		{name: "unset keeps default", max: nil, want: options.DefaultRetry.Max},
		{name: "zero disables", max: ptr[uint64](0), want: 0},
		{name: "explicit", max: ptr[uint64](7), want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := options.NewBuilder()
			require.NoError(t, httpDefaults(config.HTTPClientConfig{MaxRetries: tt.max}).ApplyOptions(nil, b))
			opts, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Retry().Max)
		})
	}
}

func TestHTTPDefaults_CreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache", "http")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := core.NewApp("hostd", logger, httpDefaults(config.HTTPClientConfig{CacheDir: dir}))

	require.NoError(t, app.Start(context.Background()))
	defer app.Stop(context.Background())

	assert.DirExists(t, dir)
	c, err := app.Container()
	require.NoError(t, err)
	assert.Equal(t, dir, core.MustLookup[options.Options](c).CacheDir())
}

func TestManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contributors:\n  - web\n  - http-defaults\n"), 0o644))

	t.Run("from config", func(t *testing.T) {
		m, err := manifest(config.Root{Contributors: []string{"actuator"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"actuator"}, m.Contributors)
	})
	t.Run("file replaces config list", func(t *testing.T) {
		m, err := manifest(config.Root{Contributors: []string{"actuator"}, Manifest: path})
		require.NoError(t, err)
		assert.Equal(t, []string{"web", "http-defaults"}, m.Contributors)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := manifest(config.Root{Manifest: filepath.Join(t.TempDir(), "nope.yaml")})
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	ids := discovery.Default.IDs()
	assert.Subset(t, ids, []string{"actuator", "http-defaults", "web"})
}

func TestDiscoveredHostStartsAndStops(t *testing.T) {
	cfg := config.Root{
		App:          config.AppInfo{Name: "hostd", Version: "test"},
		Server:       config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		Contributors: []string{"http-defaults", "web", "actuator"},
	}
	config.ApplyDefaults(&cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	contributors, err := discovery.Discover(discovery.ManifestFrom(cfg), discovery.Default, discovery.Env{Config: cfg, Logger: logger})
	require.NoError(t, err)
	require.Len(t, contributors, 3)

	app := core.NewApp(cfg.App.Name, logger, contributors...)
	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Stop(context.Background()))
}
