package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"
)

// EventKind is a host lifecycle transition.
type EventKind int

const (
	Created EventKind = iota
	Started
	Stopped
	Destroyed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Event reports a lifecycle transition of a host component.
type Event struct {
	Kind      EventKind
	Component string
	At        time.Time
}

// Observer receives host lifecycle events. Hosts unregister observers by
// identity, so implementations must be comparable (typically pointers).
type Observer interface {
	Observe(e Event)
}

// FuncObserver adapts a function to Observer.
type FuncObserver struct {
	Name string
	fn   func(Event)
}

// NewObserver returns a named observer that calls fn for each event.
func NewObserver(name string, fn func(Event)) *FuncObserver {
	return &FuncObserver{Name: name, fn: fn}
}

func (o *FuncObserver) Observe(e Event) { o.fn(e) }

// Host is the application object a Delegate works on behalf of.
type Host interface {
	Name() string
	// Container returns the dependency container while the host is started.
	Container() (*Container, error)
	RegisterObserver(o Observer)
	UnregisterObserver(o Observer)
}

// Emitter is implemented by hosts that publish lifecycle events of their
// components. Contributors type-assert a Host to Emitter to report state.
type Emitter interface {
	Emit(kind EventKind, component string)
}

// App is a process-level Host. It owns a Delegate and forwards its own
// lifecycle into it.
type App struct {
	name     string
	logger   *slog.Logger
	delegate *Delegate

	// ShutdownTimeout bounds Stop when called from Run.
	ShutdownTimeout time.Duration

	mu        sync.RWMutex
	observers []Observer
}

func NewApp(name string, logger *slog.Logger, contributors ...Contributor) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		name:            name,
		logger:          logger,
		delegate:        NewDelegate(logger, contributors...),
		ShutdownTimeout: 15 * time.Second,
	}
}

func (a *App) Name() string { return a.name }

func (a *App) Container() (*Container, error) { return a.delegate.Container() }

func (a *App) RegisterObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// UnregisterObserver removes the first registration of o.
func (a *App) UnregisterObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := slices.Index(a.observers, o); i >= 0 {
		a.observers = slices.Delete(a.observers, i, i+1)
	}
}

// Emit notifies every registered observer. Safe for concurrent use.
func (a *App) Emit(kind EventKind, component string) {
	a.mu.RLock()
	obs := slices.Clone(a.observers)
	a.mu.RUnlock()

	e := Event{Kind: kind, Component: component, At: time.Now()}
	for _, o := range obs {
		o.Observe(e)
	}
}

// Start starts the underlying delegate with a as the host.
func (a *App) Start(ctx context.Context) error {
	if err := a.delegate.Start(ctx, a); err != nil {
		return err
	}
	a.Emit(Created, a.name)
	return nil
}

// Stop stops the underlying delegate.
func (a *App) Stop(ctx context.Context) error {
	if _, err := a.delegate.Container(); err == nil {
		a.Emit(Destroyed, a.name)
	}
	return a.delegate.Stop(ctx)
}

// Run starts the app, blocks until ctx is done or SIGINT/SIGTERM arrives,
// then stops it.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("host started", "host", a.name)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case <-ctx.Done():
	case <-stop:
	}

	// give hooks time to shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ShutdownTimeout)
	defer cancel()

	a.logger.Info("host stopping", "host", a.name)
	err := a.Stop(shutdownCtx)
	if errors.Is(err, ErrNotStarted) {
		return nil
	}
	return err
}
