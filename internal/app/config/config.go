// Package config loads the YAML configuration file describing a BPU
// instance's tuning knobs, metrics endpoint, serial link, and MQTT command
// source, using a Load/applyDefaults/validate shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/latticebyte/bpu/internal/adapters/sink"
	"github.com/latticebyte/bpu/internal/adapters/sources"
	"github.com/latticebyte/bpu/internal/ports"
)

// Config is the top-level shape of a BPU instance's configuration file.
type Config struct {
	Tuning  ports.Tuning       `yaml:"tuning"`
	Metrics MetricsConfig      `yaml:"metrics"`
	Serial  sink.SerialConfig  `yaml:"serial"`
	MQTT    sources.MQTTConfig `yaml:"mqtt"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and parses path, applying defaults and validating the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Tuning: ports.DefaultTuning()}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := ports.DefaultTuning()
	if c.Tuning.TickMs == 0 {
		c.Tuning.TickMs = def.TickMs
	}
	if c.Tuning.SensorMs == 0 {
		c.Tuning.SensorMs = def.SensorMs
	}
	if c.Tuning.HBMs == 0 {
		c.Tuning.HBMs = def.HBMs
	}
	if c.Tuning.TelemMs == 0 {
		c.Tuning.TelemMs = def.TelemMs
	}
	if c.Tuning.CoalesceWindowMs == 0 {
		c.Tuning.CoalesceWindowMs = def.CoalesceWindowMs
	}
	if c.Tuning.AgedMs == 0 {
		c.Tuning.AgedMs = def.AgedMs
	}
	if c.Tuning.TxBudgetBytes == 0 {
		c.Tuning.TxBudgetBytes = def.TxBudgetBytes
	}
	if c.Tuning.OutMinFreeBytes == 0 {
		c.Tuning.OutMinFreeBytes = def.OutMinFreeBytes
	}
	if c.Tuning.EvtQN == 0 {
		c.Tuning.EvtQN = def.EvtQN
	}
	if c.Tuning.JobQN == 0 {
		c.Tuning.JobQN = def.JobQN
	}
	if c.Tuning.SnapshotInterval == 0 {
		c.Tuning.SnapshotInterval = def.SnapshotInterval
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.Serial.ApplyDefaults()
	c.MQTT.ApplyDefaults()
}

func (c *Config) validate() error {
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("serial config: %w", err)
	}
	if c.MQTT.Broker != "" {
		if err := c.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt config: %w", err)
		}
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Tuning.EvtQN <= 0 {
		return fmt.Errorf("tuning.evt_q_n must be > 0")
	}
	if c.Tuning.JobQN <= 0 {
		return fmt.Errorf("tuning.job_q_n must be > 0")
	}
	return nil
}
