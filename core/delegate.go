package core

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/skekre98/hostkit/options"
)

type delegateState int

const (
	uninitialized delegateState = iota
	started
	stopped
)

// Delegate proxies a host's lifecycle to its contributors. Start
// aggregates the contributors, builds the container, registers observers
// and runs startup hooks. Stop unwinds the observers, runs shutdown hooks
// and releases everything it held.
//
// A Delegate is single-use: once stopped it cannot be started again. It is
// not safe for concurrent use; drive it from one goroutine.
type Delegate struct {
	logger       *slog.Logger
	contributors []Contributor

	state     delegateState
	host      Host
	container *Container
	platform  Observer
	regs      Registrations
}

// NewDelegate returns a delegate for contributors, which are aggregated in
// the given order.
func NewDelegate(logger *slog.Logger, contributors ...Contributor) *Delegate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delegate{
		logger:       logger,
		contributors: contributors,
	}
}

// Start brings the delegate from uninitialized to started. On any error
// nothing started by this call is left active: registered observers are
// unregistered and the container is discarded. Startup hooks that already
// ran are not rolled back.
func (d *Delegate) Start(ctx context.Context, host Host) error {
	switch d.state {
	case started:
		return ErrAlreadyStarted
	case stopped:
		return ErrStopped
	}
	if host == nil {
		return errors.New("delegate: nil host")
	}

	b := options.NewBuilder()
	regs, err := Aggregate(host, d.contributors, b)
	if err != nil {
		return err
	}
	opts, err := b.Build()
	if err != nil {
		return &ConfigurationError{Index: -1, Stage: StageBuildOptions, Err: err}
	}

	c, err := Build(host, opts, Deps{Logger: d.logger, Contributors: d.contributors})
	if err != nil {
		return err
	}
	platform := MustLookup[*Tracker](c)

	host.RegisterObserver(platform)
	for _, o := range regs.Observers.list {
		host.RegisterObserver(o)
	}

	d.host = host
	d.container = c
	d.platform = platform
	d.regs = regs
	d.state = started

	for _, h := range regs.Startup.list {
		d.logger.Info("running startup hook", "hook", h.name)
		if err := h.run(ctx, host); err != nil {
			d.logger.Error("startup hook failed", "hook", h.name, "error", err)
			d.unregisterObservers()
			d.release()
			d.state = uninitialized
			return &HookError{Phase: "startup", Hook: h.name, Err: err}
		}
	}

	d.logger.Info("delegate started",
		"host", host.Name(),
		"contributors", len(d.contributors),
		"startup_hooks", regs.Startup.Len(),
		"shutdown_hooks", regs.Shutdown.Len(),
		"observers", regs.Observers.Len(),
	)
	return nil
}

// Stop brings the delegate from started to stopped. Called in any other
// state it does nothing and returns ErrNotStarted.
//
// Every shutdown hook runs even if an earlier one fails; failures are
// logged and returned together as a *ShutdownError. The delegate is
// stopped either way.
func (d *Delegate) Stop(ctx context.Context) error {
	if d.state != started {
		return ErrNotStarted
	}

	d.unregisterObservers()

	var errs error
	for _, h := range d.regs.Shutdown.list {
		d.logger.Info("running shutdown hook", "hook", h.name)
		if err := h.run(ctx, d.host); err != nil {
			d.logger.Error("shutdown hook failed", "hook", h.name, "error", err)
			errs = multierr.Append(errs, &HookError{Phase: "shutdown", Hook: h.name, Err: err})
		}
	}

	d.release()
	d.contributors = nil
	d.state = stopped

	if errs != nil {
		return &ShutdownError{Errs: multierr.Errors(errs)}
	}
	return nil
}

// Container returns the container built by Start.
func (d *Delegate) Container() (*Container, error) {
	if d.state != started {
		return nil, ErrNotStarted
	}
	return d.container, nil
}

// unregisterObservers mirrors registration order: platform first.
func (d *Delegate) unregisterObservers() {
	if d.platform != nil {
		d.host.UnregisterObserver(d.platform)
	}
	if d.regs.Observers != nil {
		for _, o := range d.regs.Observers.list {
			d.host.UnregisterObserver(o)
		}
	}
}

func (d *Delegate) release() {
	d.host = nil
	d.container = nil
	d.platform = nil
	d.regs = Registrations{}
}
