// Package discovery turns a declared list of contributor identifiers into
// instantiated contributors.
//
// Packages that provide contributors register a Factory under a stable
// identifier, usually from init:
//
//	func init() {
//		discovery.Register("web", func(env discovery.Env) (core.Contributor, error) {
//			return web.New(env.Config.Server, env.Logger), nil
//		})
//	}
//
// The manifest (normally the `contributors` config key) then selects and
// orders them. Order is exactly the manifest order; nothing is sorted.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	cmap "github.com/orcaman/concurrent-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/core"
)

var (
	ErrUnknownContributor   = errors.New("unknown contributor")
	ErrDuplicateContributor = errors.New("duplicate contributor")
	ErrEmptyID              = errors.New("empty contributor id")
	ErrNilContributor       = errors.New("factory returned nil contributor")
)

// DiscoveryError reports a manifest entry that could not be turned into a
// contributor.
type DiscoveryError struct {
	Index int
	ID    string
	Err   error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: contributor #%d %q: %v", e.Index, e.ID, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Env is what factories may use to construct a contributor. Factories must
// not perform I/O.
type Env struct {
	Config config.Root
	Logger *slog.Logger
}

type Factory func(env Env) (core.Contributor, error)

// Registry maps identifiers to factories. It is safe for concurrent use.
type Registry struct {
	factories cmap.ConcurrentMap[string, Factory]
}

func NewRegistry() *Registry {
	return &Registry{factories: cmap.New[Factory]()}
}

// Register adds f under id. Registering an id twice is an error.
func (r *Registry) Register(id string, f Factory) error {
	if id == "" {
		return ErrEmptyID
	}
	if f == nil {
		return fmt.Errorf("discovery: nil factory for %q", id)
	}
	if !r.factories.SetIfAbsent(id, f) {
		return fmt.Errorf("discovery: %q: %w", id, ErrDuplicateContributor)
	}
	return nil
}

func (r *Registry) Lookup(id string) (Factory, bool) {
	return r.factories.Get(id)
}

// IDs returns every registered identifier, sorted.
func (r *Registry) IDs() []string {
	ids := r.factories.Keys()
	slices.Sort(ids)
	return ids
}

// Default is the process-wide registry used by Register.
var Default = NewRegistry()

// Register adds f to Default and panics on a conflicting id, like
// database/sql.Register.
func Register(id string, f Factory) {
	if err := Default.Register(id, f); err != nil {
		panic(err)
	}
}

// Manifest declares which contributors to load and in which order.
type Manifest struct {
	Contributors []string `yaml:"contributors"`
}

// ManifestFrom reads the manifest from loaded configuration.
func ManifestFrom(cfg config.Root) Manifest {
	return Manifest{Contributors: slices.Clone(cfg.Contributors)}
}

// LoadManifest decodes a standalone YAML manifest.
func LoadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Discover instantiates every contributor in m, in manifest order, from
// reg. The first entry that cannot be resolved aborts discovery with a
// *DiscoveryError.
func Discover(m Manifest, reg *Registry, env Env) ([]core.Contributor, error) {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	seen := make(map[string]bool, len(m.Contributors))
	out := make([]core.Contributor, 0, len(m.Contributors))
	for i, id := range m.Contributors {
		fail := func(err error) ([]core.Contributor, error) {
			return nil, &DiscoveryError{Index: i, ID: id, Err: err}
		}

		if id == "" {
			return fail(ErrEmptyID)
		}
		if seen[id] {
			return fail(ErrDuplicateContributor)
		}
		seen[id] = true

		f, ok := reg.Lookup(id)
		if !ok {
			return fail(ErrUnknownContributor)
		}
		c, err := instantiate(f, env)
		if err != nil {
			return fail(err)
		}
		if c == nil {
			return fail(ErrNilContributor)
		}

		env.Logger.Debug("discovered contributor", "module", id, "index", i)
		out = append(out, c)
	}
	return out, nil
}

func instantiate(f Factory, env Env) (c core.Contributor, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", core.ErrPanic, rec)
		}
	}()
	return f(env)
}
