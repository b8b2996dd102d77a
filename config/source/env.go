package source

import (
	"context"
	"os"
	"strings"
)

// EnvPrefix is the default prefix for environment variables.
const EnvPrefix = "HOSTKIT_"

// EnvSource maps prefixed environment variables to nested keys by
// splitting on underscores and lower-casing:
//
//	HOSTKIT_SERVER_ADDR=:9090        -> {server: {addr: ":9090"}}
//	HOSTKIT_CONTRIBUTORS=web,actuator -> {contributors: "web,actuator"}
//
// Values stay strings; the binder converts them. When a leaf and a nested
// key collide (HOSTKIT_HTTP=x and HOSTKIT_HTTP_TIMEOUT=5s) whichever is
// seen first wins.
type EnvSource struct {
	// Prefix overrides EnvPrefix.
	Prefix string
}

func (e *EnvSource) Name() string { return "env" }

func (e *EnvSource) Load(ctx context.Context) (map[string]any, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	return loadEnvVars(prefix, os.Environ()), nil
}

func loadEnvVars(prefix string, environ []string) map[string]any {
	result := make(map[string]any)
	for _, env := range environ {
		key, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(key, prefix) {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		setNestedValue(result, strings.Split(key, "_"), value)
	}
	return result
}

func setNestedValue(m map[string]any, segments []string, value string) {
	current := m
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		if i == len(segments)-1 {
			current[segment] = value
			return
		}

		existing, exists := current[segment]
		if !exists {
			nested := make(map[string]any)
			current[segment] = nested
			current = nested
			continue
		}
		nested, ok := existing.(map[string]any)
		if !ok {
			// a leaf already occupies this path
			return
		}
		current = nested
	}
}
