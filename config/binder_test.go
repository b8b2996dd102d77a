package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/hostkit/config"
)

func TestBinder_Bind(t *testing.T) {
	type target struct {
		Name     string        `config:"name" validate:"required"`
		Port     int           `config:"port" validate:"min=1,max=65535"`
		Timeout  time.Duration `config:"timeout"`
		Tags     []string      `config:"tags"`
		Disabled bool          `config:"disabled"`
	}

	tests := []struct {
		name      string
		source    map[string]any
		want      target
		wantStage string
	}{
		{
			name:   "typed values",
			source: map[string]any{"name": "svc", "port": 8080, "timeout": "5s"},
			want:   target{Name: "svc", Port: 8080, Timeout: 5 * time.Second},
		},
		{
			name:   "weak typing from env-style strings",
			source: map[string]any{"name": "svc", "port": "9090", "tags": "a,b", "disabled": "true"},
			want:   target{Name: "svc", Port: 9090, Tags: []string{"a", "b"}, Disabled: true},
		},
		{
			name:      "missing required",
			source:    map[string]any{"port": 1},
			wantStage: "validate",
		},
		{
			name:      "out of range",
			source:    map[string]any{"name": "svc", "port": 70000},
			wantStage: "validate",
		},
		{
			name:      "bad duration",
			source:    map[string]any{"name": "svc", "port": 1, "timeout": "soon"},
			wantStage: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got target
			err := config.NewBinder().Bind(tt.source, &got)
			if tt.wantStage != "" {
				var bindErr *config.BindError
				require.ErrorAs(t, err, &bindErr)
				assert.Equal(t, tt.wantStage, bindErr.Stage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBinder_RootRules(t *testing.T) {
	base := func(extra map[string]any) map[string]any {
		m := map[string]any{
			"app":    map[string]any{"name": "hostd", "version": "1.0.0"},
			"server": map[string]any{"addr": ":8080"},
		}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	tests := []struct {
		name    string
		source  map[string]any
		wantTag string
	}{
		{
			name:   "ordered unique contributors",
			source: base(map[string]any{"contributors": []any{"web", "actuator"}}),
		},
		{
			name:    "duplicate contributor",
			source:  base(map[string]any{"contributors": "web,actuator,web"}),
			wantTag: "unique",
		},
		{
			name:    "relative actuator path",
			source:  base(map[string]any{"actuator": map[string]any{"basePath": "actuator"}}),
			wantTag: "abspath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Root
			err := config.NewBinder().Bind(tt.source, &cfg)
			if tt.wantTag == "" {
				require.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}

func TestBindError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &config.BindError{Stage: "decode", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "config decode error: inner", err.Error())
}
