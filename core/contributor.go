package core

import (
	"context"

	"github.com/skekre98/hostkit/options"
)

// Contributor is a unit of configuration that participates in startup.
// During aggregation each contributor may append startup hooks, append
// shutdown hooks and write options. Contributors must not do I/O when
// constructed; side effects belong in hooks.
type Contributor interface {
	// RegisterStartupHooks appends hooks run, in order, after the container is built.
	RegisterStartupHooks(h Host, hooks *Hooks) error
	// RegisterShutdownHooks appends hooks run, in order, when the delegate stops.
	RegisterShutdownHooks(h Host, hooks *Hooks) error
	// ApplyOptions writes global settings.
	ApplyOptions(h Host, b *options.Builder) error
}

// ObserverContributor is implemented by contributors that also supply
// host lifecycle observers.
type ObserverContributor interface {
	RegisterObservers(h Host, obs *Observers) error
}

// Hook is a startup or shutdown callback.
type Hook func(ctx context.Context, h Host) error

type namedHook struct {
	name string
	fn   Hook
}

// Hooks is an append-only, ordered list of named hooks.
type Hooks struct {
	list []namedHook
}

// Add appends fn under name. A nil fn is ignored.
func (h *Hooks) Add(name string, fn Hook) {
	if fn == nil {
		return
	}
	h.list = append(h.list, namedHook{name: name, fn: fn})
}

func (h *Hooks) Len() int { return len(h.list) }

// Names returns hook names in registration order.
func (h *Hooks) Names() []string {
	names := make([]string, len(h.list))
	for i, nh := range h.list {
		names[i] = nh.name
	}
	return names
}

func (nh namedHook) run(ctx context.Context, host Host) error {
	return guard(func() error { return nh.fn(ctx, host) })
}

// Observers is an append-only, ordered list of lifecycle observers.
type Observers struct {
	list []Observer
}

// Add appends o. A nil o is ignored.
func (o *Observers) Add(obs Observer) {
	if obs == nil {
		return
	}
	o.list = append(o.list, obs)
}

func (o *Observers) Len() int { return len(o.list) }

// Funcs adapts plain functions to Contributor and ObserverContributor.
// Nil fields are no-ops.
type Funcs struct {
	Startup   func(h Host, hooks *Hooks) error
	Shutdown  func(h Host, hooks *Hooks) error
	Observers func(h Host, obs *Observers) error
	Options   func(h Host, b *options.Builder) error
}

func (f *Funcs) RegisterStartupHooks(h Host, hooks *Hooks) error {
	if f.Startup == nil {
		return nil
	}
	return f.Startup(h, hooks)
}

func (f *Funcs) RegisterShutdownHooks(h Host, hooks *Hooks) error {
	if f.Shutdown == nil {
		return nil
	}
	return f.Shutdown(h, hooks)
}

func (f *Funcs) RegisterObservers(h Host, obs *Observers) error {
	if f.Observers == nil {
		return nil
	}
	return f.Observers(h, obs)
}

func (f *Funcs) ApplyOptions(h Host, b *options.Builder) error {
	if f.Options == nil {
		return nil
	}
	return f.Options(h, b)
}
