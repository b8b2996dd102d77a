package config

import "time"

// ApplyDefaults fills zero values that have a sensible default.
func ApplyDefaults(cfg *Root) {
	if cfg.Actuator.BasePath == "" {
		cfg.Actuator.BasePath = "/actuator"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Defaults returns the map form of the built-in defaults, suitable as the
// first, lowest-precedence layer of a Manager.
func Defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr":            ":8080",
			"readTimeout":     "5s",
			"writeTimeout":    "10s",
			"idleTimeout":     "60s",
			"shutdownTimeout": "10s",
		},
		"actuator": map[string]any{
			"basePath": "/actuator",
		},
		"logging": map[string]any{
			"level": "info",
		},
	}
}
