package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Manager loads configuration from layered sources into a caller-owned
// struct, validates it and tells subscribers what changed on reload.
//
// A failed load or validation never touches the current configuration.
// All methods are safe for concurrent use.
type Manager struct {
	sources []ConfigSource
	config  any
	binder  *Binder
	mu      sync.RWMutex
	subs    []chan Event
}

// NewManager binds the merged sources into cfg, which must be a pointer to
// a struct using `config` and `validate` tags. Later sources override
// earlier ones, so pass them lowest precedence first:
//
//	var cfg config.Root
//	mgr, err := config.NewManager(&cfg,
//	    &config.StaticSource{SourceName: "defaults", Data: config.Defaults()},
//	    &source.FileSource{BasePath: "configs"},
//	    &source.EnvSource{},
//	    &source.CLISource{},
//	)
func NewManager(cfg any, sources ...ConfigSource) (*Manager, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("config: target must be a pointer to a struct, got %T", cfg)
	}

	m := &Manager{
		sources: sources,
		config:  cfg,
		binder:  NewBinder(),
	}
	if err := m.Reload(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads every source, binds and validates into a fresh value and
// only then copies it over the managed struct. Subscribers are notified
// when at least one top-level field changed.
func (m *Manager) Reload(ctx context.Context) error {
	merged := map[string]any{}
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		vals, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", src.Name(), err)
		}
		mergeMaps(merged, vals)
	}

	typ := reflect.TypeOf(m.config).Elem()
	next := reflect.New(typ)
	if err := m.binder.Bind(merged, next.Interface()); err != nil {
		return fmt.Errorf("failed to bind config: %w", err)
	}

	prev := reflect.New(typ)
	m.mu.Lock()
	prev.Elem().Set(reflect.ValueOf(m.config).Elem())
	reflect.ValueOf(m.config).Elem().Set(next.Elem())
	m.mu.Unlock()

	if !reflect.DeepEqual(prev.Interface(), next.Interface()) {
		m.notify(diffEvent(prev.Interface(), next.Interface()))
	}
	return nil
}

// Subscribe registers ch for change events. Sends never block: a full
// channel misses the event, so use a buffered one. The Manager never
// closes ch.
func (m *Manager) Subscribe(ch chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, ch)
}

func (m *Manager) notify(evt Event) {
	m.mu.RLock()
	subs := append([]chan Event(nil), m.subs...)
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
