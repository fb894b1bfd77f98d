package bpu

import (
	"github.com/latticebyte/bpu/internal/adapters/sink"
	"github.com/latticebyte/bpu/internal/adapters/sources"
	"github.com/latticebyte/bpu/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects
// can construct or modify it programmatically.
type Config = config.Config

type (
	// MetricsConfig configures the Prometheus scrape endpoint.
	MetricsConfig = config.MetricsConfig
	// SerialConfig configures the real TTY-backed ByteSink.
	SerialConfig = sink.SerialConfig
	// MQTTConfig configures the external CMD event source.
	MQTTConfig = sources.MQTTConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
