// Package actuator exposes operational endpoints for a running host:
// health, info, lifecycle components and prometheus metrics.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/core"
	"github.com/skekre98/hostkit/discovery"
	"github.com/skekre98/hostkit/options"
	"github.com/skekre98/hostkit/web"
)

const Name = "actuator"

const upstreamTimeout = 2 * time.Second

func init() {
	discovery.Register(Name, func(env discovery.Env) (core.Contributor, error) {
		return New(env.Config), nil
	})
}

// Contributor registers the actuator routes on the web contributor and
// counts lifecycle events.
type Contributor struct {
	cfg      config.Root
	events   *prometheus.CounterVec
	observer *core.FuncObserver
}

func New(cfg config.Root) *Contributor {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostkit",
		Name:      "lifecycle_events_total",
		Help:      "Host lifecycle events by kind and component.",
	}, []string{"kind", "component"})

	return &Contributor{
		cfg:    cfg,
		events: events,
		observer: core.NewObserver(Name, func(e core.Event) {
			events.WithLabelValues(e.Kind.String(), e.Component).Inc()
		}),
	}
}

func (m *Contributor) RegisterStartupHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("actuator.metrics", func(_ context.Context, h core.Host) error {
		reg, err := registry(h)
		if err != nil {
			return err
		}
		return reg.Register(m.events)
	})
	return nil
}

func (m *Contributor) RegisterShutdownHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("actuator.metrics", func(_ context.Context, h core.Host) error {
		reg, err := registry(h)
		if err != nil {
			return err
		}
		reg.Unregister(m.events)
		return nil
	})
	return nil
}

func (m *Contributor) RegisterObservers(_ core.Host, obs *core.Observers) error {
	obs.Add(m.observer)
	return nil
}

func (m *Contributor) ApplyOptions(core.Host, *options.Builder) error { return nil }

func registry(h core.Host) (*prometheus.Registry, error) {
	c, err := h.Container()
	if err != nil {
		return nil, err
	}
	return core.Lookup[*prometheus.Registry](c)
}

// Routes implements web.RouteProvider.
func (m *Contributor) Routes(r web.Router, h core.Host) error {
	c, err := h.Container()
	if err != nil {
		return err
	}
	reg := core.MustLookup[*prometheus.Registry](c)
	tracker := core.MustLookup[*core.Tracker](c)
	opts := core.MustLookup[options.Options](c)
	client := core.MustLookup[*http.Client](c)

	health := healthcheck.NewMetricsHandler(reg, "hostkit")
	if limit := m.cfg.Actuator.MaxGoroutines; limit > 0 {
		health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(limit))
	}
	health.AddReadinessCheck("host", hostCheck(tracker, h.Name()))
	if u := opts.BaseURL(); u != "" {
		health.AddReadinessCheck("upstream", healthcheck.Timeout(upstreamCheck(client, u), upstreamTimeout))
	}

	group := r.Group(m.cfg.Actuator.BasePath)
	group.GET("/health", gin.WrapF(health.ReadyEndpoint))
	group.GET("/health/live", gin.WrapF(health.LiveEndpoint))
	group.GET("/info", m.info(h, opts))
	group.GET("/components", components(tracker))
	if m.cfg.Observability.Metrics.Enabled {
		group.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
	return nil
}

// hostCheck reports ready once the host announced itself created and
// until it is destroyed.
func hostCheck(tracker *core.Tracker, host string) healthcheck.Check {
	return func() error {
		e, ok := tracker.Snapshot()[host]
		if !ok || e.Kind != core.Created {
			return errors.New("host not running")
		}
		return nil
	}
}

func upstreamCheck(client *http.Client, url string) healthcheck.Check {
	return func() error {
		resp, err := client.Head(url)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
		return nil
	}
}

func (m *Contributor) info(h core.Host, opts options.Options) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rt := gin.H{
			"go":           runtime.Version(),
			"numGoroutine": runtime.NumGoroutine(),
			"time":         time.Now().UTC().Format(time.RFC3339),
			"pid":          os.Getpid(),
		}
		if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if mem, err := p.MemoryInfo(); err == nil {
				rt["rssBytes"] = mem.RSS
			}
		}
		out := gin.H{
			"app": gin.H{
				"name":    m.cfg.App.Name,
				"version": m.cfg.App.Version,
				"host":    h.Name(),
			},
			"runtime": rt,
		}
		if dir := opts.CacheDir(); dir != "" {
			out["cacheDir"] = dir
		}
		ctx.JSON(http.StatusOK, out)
	}
}

func components(tracker *core.Tracker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		out := gin.H{}
		for name, e := range tracker.Snapshot() {
			out[name] = gin.H{
				"state": e.Kind.String(),
				"since": e.At.UTC().Format(time.RFC3339Nano),
			}
		}
		ctx.JSON(http.StatusOK, out)
	}
}
