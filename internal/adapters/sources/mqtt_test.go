package sources

import (
	"testing"

	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// fakeMQTTMessage implements the paho mqtt.Message interface without a
// broker, so handle() can be exercised directly.
type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMQTTMessage) Duplicate() bool   { return false }
func (m *fakeMQTTMessage) Qos() byte         { return 0 }
func (m *fakeMQTTMessage) Retained() bool    { return false }
func (m *fakeMQTTMessage) Topic() string     { return m.topic }
func (m *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (m *fakeMQTTMessage) Payload() []byte   { return m.payload }
func (m *fakeMQTTMessage) Ack()              {}

type spyObs struct {
	errs []string
}

func (s *spyObs) LogInfo(string, ...ports.Field)            {}
func (s *spyObs) LogError(msg string, _ error, _ ...ports.Field) {
	s.errs = append(s.errs, msg)
}
func (s *spyObs) LogCritical(string, error, ...ports.Field) {}
func (s *spyObs) IncCounter(string, float64)                {}
func (s *spyObs) ObserveLatency(string, float64)            {}
func (s *spyObs) SetGauge(string, float64)                  {}

func TestMQTTConfigApplyDefaults(t *testing.T) {
	cfg := MQTTConfig{}
	cfg.ApplyDefaults()

	if cfg.ClientID == "" {
		t.Fatalf("expected a default client id")
	}
	if cfg.Topic == "" {
		t.Fatalf("expected a default topic")
	}
	if cfg.ConnectTimeout <= 0 {
		t.Fatalf("expected a default connect timeout")
	}
	if cfg.ReconnectBackoff <= 0 {
		t.Fatalf("expected a default reconnect backoff")
	}
}

func TestMQTTConfigValidateRejectsEmptyBroker(t *testing.T) {
	cfg := MQTTConfig{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected an error for a missing broker")
	}
}

func TestNewMQTTCommandSourceRejectsInvalidConfig(t *testing.T) {
	if _, err := NewMQTTCommandSource(MQTTConfig{}, nil); err == nil {
		t.Fatalf("expected an error for a config with no broker")
	}
}

func TestHandlePushesCMDEventOntoChannel(t *testing.T) {
	src, err := NewMQTTCommandSource(MQTTConfig{Broker: "tcp://127.0.0.1:1883"}, nil)
	if err != nil {
		t.Fatalf("NewMQTTCommandSource returned error: %v", err)
	}

	out := make(chan domain.Event, 1)
	handler := src.handle(out)
	handler(nil, &fakeMQTTMessage{topic: "bpu/cmd", payload: []byte{0xAA, 0xBB}})

	select {
	case ev := <-out:
		if ev.Type != domain.KindCMD {
			t.Fatalf("expected KindCMD, got %v", ev.Type)
		}
		got := ev.Payload[:ev.Len]
		want := []byte{0xAA, 0xBB}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("payload mismatch: got %v", got)
		}
	default:
		t.Fatalf("expected an event on the channel")
	}
}

func TestHandleDropsAndLogsWhenChannelFull(t *testing.T) {
	obs := &spyObs{}
	src, err := NewMQTTCommandSource(MQTTConfig{Broker: "tcp://127.0.0.1:1883"}, obs)
	if err != nil {
		t.Fatalf("NewMQTTCommandSource returned error: %v", err)
	}

	out := make(chan domain.Event) // unbuffered, nothing draining it
	handler := src.handle(out)
	handler(nil, &fakeMQTTMessage{topic: "bpu/cmd", payload: []byte{0x01}})

	if len(obs.errs) != 1 {
		t.Fatalf("expected exactly one logged error, got %d", len(obs.errs))
	}
}

func TestStopWithoutStartIsANoop(t *testing.T) {
	src, err := NewMQTTCommandSource(MQTTConfig{Broker: "tcp://127.0.0.1:1883"}, nil)
	if err != nil {
		t.Fatalf("NewMQTTCommandSource returned error: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop on an unstarted source returned error: %v", err)
	}
}

func TestConnectedDefaultsFalse(t *testing.T) {
	src, err := NewMQTTCommandSource(MQTTConfig{Broker: "tcp://127.0.0.1:1883"}, nil)
	if err != nil {
		t.Fatalf("NewMQTTCommandSource returned error: %v", err)
	}
	if src.Connected() {
		t.Fatalf("expected Connected to be false before Start")
	}
}
