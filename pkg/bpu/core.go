package bpu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latticebyte/bpu/internal/adapters/flush"
	"github.com/latticebyte/bpu/internal/adapters/framer"
	"github.com/latticebyte/bpu/internal/adapters/observability"
	"github.com/latticebyte/bpu/internal/adapters/sink"
	"github.com/latticebyte/bpu/internal/adapters/sources"
	"github.com/latticebyte/bpu/internal/adapters/ticker"
	"github.com/latticebyte/bpu/internal/app/pipeline"
	"github.com/latticebyte/bpu/internal/ports"
)

// RuntimeOption customizes the dependencies NewRuntime would otherwise
// build from Config.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	sink       ports.ByteSink
	logSink    ports.LogSink
	clock      ports.Clock
	obs        ports.Observability
	cmdSources []ports.EventSource
}

// WithSink injects a custom ByteSink instead of opening Config.Serial.
func WithSink(s ByteSink) RuntimeOption {
	return func(o *runtimeOverrides) { o.sink = s }
}

// WithLogSink injects the diagnostic sink the throttled snapshot line is
// written to. Defaults to stderr via the standard logger if not set.
func WithLogSink(l LogSink) RuntimeOption {
	return func(o *runtimeOverrides) { o.logSink = l }
}

// WithClock overrides the monotonic clock driving the tick loop, primarily
// for tests.
func WithClock(c Clock) RuntimeOption {
	return func(o *runtimeOverrides) { o.clock = c }
}

// WithEventSource registers an additional external EventSource (e.g. a
// custom command channel) alongside any MQTT source Config.MQTT describes.
func WithEventSource(s EventSource) RuntimeOption {
	return func(o *runtimeOverrides) { o.cmdSources = append(o.cmdSources, s) }
}

// WithObservability overrides the default Prometheus-backed observability
// stack. Must be a *observability.PromObs-compatible value; a mismatched
// type is silently ignored and the default is built instead, since the
// snapshot emitter needs the concrete gauge/counter maps to push into.
func WithObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.obs = obs }
}

// Runtime wires the tick-driven core to a real or injected ByteSink, an
// optional MQTT command source, Prometheus observability, and a metrics
// HTTP server.
type Runtime struct {
	cfg    *Config
	core   *pipeline.Core
	driver *ticker.Driver
	obs    *observability.PromObs

	metricsSrv *http.Server
	stopCh     chan struct{}
}

// NewRuntime bootstraps the default adapters (a real serial ByteSink, an
// MQTT command source if Config.MQTT.Broker is set, Prometheus
// observability) from cfg. RuntimeOption values override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	snk := overrides.sink
	if snk == nil {
		var err error
		snk, err = sink.OpenSerial(cfg.Serial, 4096)
		if err != nil {
			return nil, fmt.Errorf("open serial sink: %w", err)
		}
	}

	promObs, ok := overrides.obs.(*observability.PromObs)
	if !ok || promObs == nil {
		promObs = observability.NewPromObs()
	}

	cmdSources := append([]ports.EventSource(nil), overrides.cmdSources...)
	if cfg.MQTT.Broker != "" {
		mqttSrc, err := sources.NewMQTTCommandSource(cfg.MQTT, promObs)
		if err != nil {
			return nil, fmt.Errorf("mqtt command source: %w", err)
		}
		cmdSources = append(cmdSources, mqttSrc)
	}

	clock := overrides.clock
	if clock == nil {
		clock = ticker.NewSystemClock()
	}

	logSink := overrides.logSink
	if logSink == nil {
		logSink = log.Writer()
	}

	f := flush.New(framer.New(), int(cfg.Tuning.TxBudgetBytes), cfg.Tuning.OutMinFreeBytes, cfg.Tuning.EnableDegrade)
	core := pipeline.New(cfg.Tuning, f, snk, promObs, logSink, clock, cmdSources...)

	driver := ticker.NewDriver(clock, cfg.Tuning.TickMs, core.Tick)

	return &Runtime{cfg: cfg, core: core, driver: driver, obs: promObs}, nil
}

// Start launches the external event sources, the tick driver goroutine, and
// the metrics HTTP server, then returns immediately. Call Run to block on a
// context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if err := r.core.Start(); err != nil {
		return err
	}
	r.stopCh = make(chan struct{})
	go r.driver.Run(r.stopCh)
	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until ctx is cancelled, then attempts a
// graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the tick driver, the metrics server, and every event
// source.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.stopCh != nil {
		close(r.stopCh)
	}
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if err := r.core.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Stats returns the live counters block for read-only inspection (e.g. a
// CLI "stats" subcommand).
func (r *Runtime) Stats() Stats {
	return r.core.Stats()
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}
