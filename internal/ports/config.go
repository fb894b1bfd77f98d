package ports

import "time"

// Tuning holds every numeric/behavioral knob the core reads every tick. It
// is the single source of truth; the YAML config loader only ever populates
// one of these.
type Tuning struct {
	TickMs           uint32        `yaml:"tick_ms"`
	SensorMs         uint32        `yaml:"sensor_ms"`
	HBMs             uint32        `yaml:"hb_ms"`
	TelemMs          uint32        `yaml:"telem_ms"`
	CoalesceWindowMs uint32        `yaml:"coalesce_window_ms"`
	AgedMs           uint32        `yaml:"aged_ms"`
	TxBudgetBytes    uint32        `yaml:"tx_budget_bytes"`
	EnableDegrade    bool          `yaml:"enable_degrade"`
	OutMinFreeBytes  int           `yaml:"out_min_free_bytes"`
	EvtQN            int           `yaml:"evt_q_n"`
	JobQN            int           `yaml:"job_q_n"`
	DebugDumpTxHex   bool          `yaml:"debug_dump_tx_hex"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// DefaultTuning returns the nominal constants for every tuning knob.
func DefaultTuning() Tuning {
	return Tuning{
		TickMs:           20,
		SensorMs:         80,
		HBMs:             200,
		TelemMs:          1000,
		CoalesceWindowMs: 20,
		AgedMs:           200,
		TxBudgetBytes:    200,
		EnableDegrade:    true,
		OutMinFreeBytes:  96,
		EvtQN:            8,
		JobQN:            4,
		DebugDumpTxHex:   false,
		SnapshotInterval: 200 * time.Millisecond,
	}
}
