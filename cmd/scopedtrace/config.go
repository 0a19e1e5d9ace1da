package main

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	ServiceConfig struct {
		Environment string `env:"SCOPEDTRACE_ENVIRONMENT" env-default:"development"`

		SentryDSN string `env:"SENTRY_DSN"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`

		// Port enables the debug server. The command prints a single trace
		// and exits when it is empty.
		Port string `env:"PORT"`

		// Remote is the base URL of a running debug server to fetch a trace
		// from instead of collecting one locally.
		Remote string `env:"SCOPEDTRACE_REMOTE"`

		Format    string `env:"SCOPEDTRACE_FORMAT" env-default:"text"`
		Workers   int    `env:"SCOPEDTRACE_WORKERS" env-default:"4"`
		Items     int    `env:"SCOPEDTRACE_ITEMS" env-default:"8"`
		MaxFrames int    `env:"SCOPEDTRACE_MAX_FRAMES" env-default:"1024"`

		StoredTraces     int
		TracesSampleRate float64
	}
)

var (
	serviceConfigs = map[string]ServiceConfig{
		"production": {
			StoredTraces:     64,
			TracesSampleRate: 0.1,
		},
		"development": {
			StoredTraces:     16,
			TracesSampleRate: 1.0,
		},
	}
)

func loadConfig() (ServiceConfig, error) {
	var c ServiceConfig
	if err := cleanenv.ReadEnv(&c); err != nil {
		return ServiceConfig{}, fmt.Errorf("can't read configuration: %w", err)
	}
	defaults, exists := serviceConfigs[c.Environment]
	if !exists {
		return ServiceConfig{}, fmt.Errorf("service config for environment %v does not exist", c.Environment)
	}
	c.StoredTraces = defaults.StoredTraces
	c.TracesSampleRate = defaults.TracesSampleRate
	return c, nil
}
