package config

import (
	"context"
	"maps"
)

// ConfigSource yields one layer of configuration as a nested string-keyed
// map. Sources are merged in order, later layers winning.
type ConfigSource interface {
	// Load returns this layer's values. Implementations return a fresh map
	// on every call and honour ctx cancellation where loading can block.
	Load(ctx context.Context) (map[string]any, error)

	// Name identifies the source in errors and logs, e.g. "file" or "env".
	Name() string
}

// Event describes a change detected by Manager.Reload.
type Event struct {
	// ChangedKeys holds the top-level Root field names whose values differ,
	// e.g. ["Server"] when only server.addr changed.
	ChangedKeys []string

	OldConfig any
	NewConfig any
}

// StaticSource serves a fixed map. It is typically the first layer,
// carrying built-in defaults.
type StaticSource struct {
	SourceName string
	Data       map[string]any
}

func (s *StaticSource) Name() string { return s.SourceName }

func (s *StaticSource) Load(ctx context.Context) (map[string]any, error) {
	return deepCopy(s.Data), nil
}

func deepCopy(m map[string]any) map[string]any {
	out := maps.Clone(m)
	if out == nil {
		return map[string]any{}
	}
	for k, v := range out {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopy(nested)
		}
	}
	return out
}
