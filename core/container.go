package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/skekre98/hostkit/httpclient"
	"github.com/skekre98/hostkit/options"
)

// Container holds the shared singletons assembled at start. It is filled
// once by Build and read-only afterwards, so lookups never construct
// anything.
type Container struct {
	reg map[any]any
}

// TypeKey identifies a binding by its Go type.
type TypeKey[T any] struct{}

func (TypeKey[T]) String() string { return reflect.TypeFor[T]().String() }

// Names under which Build also binds its singletons, for callers that look
// up by name instead of by type.
const (
	KeyHost         = "host"
	KeyOptions      = "options"
	KeyLogger       = "logger"
	KeyHTTPClient   = "http.client"
	KeyRegistry     = "registry"
	KeyTracker      = "tracker"
	KeyContributors = "contributors"
)

// Deps are the inputs to Build that do not come from Options.
type Deps struct {
	Logger       *slog.Logger
	Contributors []Contributor
}

// Build eagerly constructs every shared singleton:
//   - the host
//   - the frozen options
//   - the logger
//   - a shared *http.Client configured from the options
//   - a prometheus registry with Go and process collectors
//   - the platform Tracker observer
//   - the contributor list
func Build(host Host, opts options.Options, deps Deps) (*Container, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}

	c := &Container{reg: make(map[any]any)}
	put[Host](c, KeyHost, host)
	put[options.Options](c, KeyOptions, opts)
	put[*slog.Logger](c, KeyLogger, logger)
	put[*http.Client](c, KeyHTTPClient, httpclient.New(opts, logger))
	put[*prometheus.Registry](c, KeyRegistry, reg)
	put[*Tracker](c, KeyTracker, NewTracker(logger))
	put[[]Contributor](c, KeyContributors, append([]Contributor(nil), deps.Contributors...))
	return c, nil
}

// put binds v under its type key and under name.
func put[T any](c *Container, name string, v T) {
	c.reg[TypeKey[T]{}] = v
	c.reg[name] = v
}

// Get returns the instance bound under key or a *NotBoundError.
func (c *Container) Get(key any) (any, error) {
	v, ok := c.reg[key]
	if !ok {
		return nil, &NotBoundError{Key: key}
	}
	return v, nil
}

// Lookup returns the instance bound for type T.
func Lookup[T any](c *Container) (T, error) {
	var zero T
	raw, err := c.Get(TypeKey[T]{})
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("container: wrong type. have=%T want=%v", raw, reflect.TypeFor[T]())
	}
	return v, nil
}

// MustLookup is Lookup for bindings that Build always provides.
func MustLookup[T any](c *Container) T {
	v, err := Lookup[T](c)
	if err != nil {
		panic(err)
	}
	return v
}
