package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/core"
	"github.com/skekre98/hostkit/discovery"
	"github.com/skekre98/hostkit/options"
)

const Name = "web"

// OptionAddr is the options key under which the configured listen address
// is published.
const OptionAddr = "web.addr"

func init() {
	discovery.Register(Name, func(env discovery.Env) (core.Contributor, error) {
		return New(env.Config.Server, env.Logger), nil
	})
}

// RouteProvider is implemented by contributors that expose HTTP routes.
// The web contributor calls it for every such contributor in the container
// when its startup hook runs.
type RouteProvider interface {
	Routes(r Router, h core.Host) error
}

// Contributor serves HTTP with gin. The server is started by a startup
// hook and shut down gracefully by a shutdown hook.
type Contributor struct {
	cfg    config.ServerConfig
	logger *slog.Logger
	opts   Options

	engine *gin.Engine
	server *http.Server
	addr   net.Addr
}

func New(cfg config.ServerConfig, logger *slog.Logger, opts ...Option) *Contributor {
	if logger == nil {
		logger = slog.Default()
	}
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	return &Contributor{cfg: cfg, logger: logger, opts: o}
}

func (c *Contributor) RegisterStartupHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("web.serve", c.serve)
	return nil
}

func (c *Contributor) RegisterShutdownHooks(_ core.Host, hooks *core.Hooks) error {
	hooks.Add("web.shutdown", c.shutdown)
	return nil
}

func (c *Contributor) ApplyOptions(_ core.Host, b *options.Builder) error {
	b.Set(OptionAddr, c.cfg.Addr)
	return nil
}

// Engine returns the gin engine once the server has started.
func (c *Contributor) Engine() *gin.Engine { return c.engine }

// Addr returns the bound listener address once the server has started.
func (c *Contributor) Addr() net.Addr { return c.addr }

func (c *Contributor) serve(_ context.Context, h core.Host) error {
	container, err := h.Container()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(RecoveryProblem(c.logger))
	r.Use(AccessLog(c.logger))
	r.Use(c.opts.Middlewares...)

	for _, reg := range c.opts.Routes {
		reg(r)
	}
	contributors, err := core.Lookup[[]core.Contributor](container)
	if err != nil {
		return err
	}
	for _, other := range contributors {
		if rp, ok := other.(RouteProvider); ok {
			if err := rp.Routes(r, h); err != nil {
				return fmt.Errorf("routes from %T: %w", other, err)
			}
		}
	}

	// Listen synchronously so a bad address fails startup.
	ln, err := net.Listen("tcp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	srv := &http.Server{
		Handler:      r,
		ReadTimeout:  c.cfg.ReadTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
		IdleTimeout:  c.cfg.IdleTimeout,
	}
	c.engine, c.server, c.addr = r, srv, ln.Addr()

	go func() {
		c.logger.Info("http server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("http server error", "error", err)
		}
	}()

	if em, ok := h.(core.Emitter); ok {
		em.Emit(core.Started, "http")
	}
	return nil
}

func (c *Contributor) shutdown(ctx context.Context, h core.Host) error {
	if c.server == nil {
		return nil
	}
	if em, ok := h.(core.Emitter); ok {
		em.Emit(core.Stopped, "http")
	}

	timeout := c.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	c.server = nil
	return nil
}
