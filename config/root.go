package config

import "time"

type AppInfo struct {
	Name    string `config:"name" validate:"required"`
	Version string `config:"version" validate:"required"`
}

type MetricsConfig struct {
	Enabled bool `config:"enabled"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `config:"metrics"`
}

type ActuatorConfig struct {
	BasePath string `config:"basePath"`
	// MaxGoroutines fails the liveness check above this count. Zero disables it.
	MaxGoroutines int `config:"maxGoroutines" validate:"gte=0"`
}

type ServerConfig struct {
	Addr            string        `config:"addr" validate:"required"`
	ReadTimeout     time.Duration `config:"readTimeout"`
	WriteTimeout    time.Duration `config:"writeTimeout"`
	IdleTimeout     time.Duration `config:"idleTimeout"`
	ShutdownTimeout time.Duration `config:"shutdownTimeout"`
}

// HTTPClientConfig seeds the options of the shared HTTP client.
type HTTPClientConfig struct {
	BaseURL    string            `config:"baseURL" validate:"omitempty,url"`
	Timeout    time.Duration     `config:"timeout"`
	UserAgent  string            `config:"userAgent"`
	Headers    map[string]string `config:"headers"`
	LogEnabled bool              `config:"log"`
	CacheDir   string            `config:"cacheDir"`
	// MaxRetries overrides the default retry count when set. Zero disables retries.
	MaxRetries *uint64 `config:"maxRetries" validate:"omitempty,lte=10"`
}

type LoggingConfig struct {
	Level string `config:"level" validate:"omitempty,oneof=debug info warn error"`
}

type Root struct {
	App           AppInfo             `config:"app"`
	Server        ServerConfig        `config:"server"`
	Observability ObservabilityConfig `config:"observability"`
	Actuator      ActuatorConfig      `config:"actuator"`
	HTTP          HTTPClientConfig    `config:"http"`
	Logging       LoggingConfig       `config:"logging"`
	// Contributors lists contributor identifiers in the order they are aggregated.
	Contributors []string `config:"contributors" validate:"dive,required"`
	// Manifest is a YAML file whose contributors list replaces Contributors.
	Manifest string `config:"manifest"`
}
