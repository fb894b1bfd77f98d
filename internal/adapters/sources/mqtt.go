package sources

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// MQTTConfig captures the runtime details required to subscribe to the
// external CMD topic: broker address, client identity, QoS, and the
// reconnect/backoff knobs paho.mqtt.golang needs to stay attached.
type MQTTConfig struct {
	Broker           string        `yaml:"broker"`
	ClientID         string        `yaml:"client_id"`
	Topic            string        `yaml:"topic"`
	QoS              byte          `yaml:"qos"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
}

func (c *MQTTConfig) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "bpu-edge"
	}
	if c.Topic == "" {
		c.Topic = "bpu/cmd"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 2 * time.Second
	}
}

func (c *MQTTConfig) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	return nil
}

// MQTTCommandSource subscribes to an external topic and deposits each
// inbound message as a CMD event on a channel, drained once per tick by the
// sole owning goroutine — the only concurrency boundary in the whole
// pipeline is this channel.
type MQTTCommandSource struct {
	cfg    MQTTConfig
	client mqtt.Client
	obs    ports.Observability

	mu        sync.Mutex
	connected bool
	started   bool
}

// NewMQTTCommandSource validates cfg (after filling in defaults) and
// returns a source ready to Start.
func NewMQTTCommandSource(cfg MQTTConfig, obs ports.Observability) (*MQTTCommandSource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MQTTCommandSource{cfg: cfg, obs: obs}, nil
}

// Start connects to the broker and subscribes, pushing a domain.Event for
// every received message onto out. Satisfies ports.EventSource.
func (s *MQTTCommandSource) Start(out chan<- domain.Event) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("mqtt command source already started")
	}
	s.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(s.cfg.ReconnectBackoff)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		s.mu.Lock()
		s.connected = true
		s.mu.Unlock()
		if s.obs != nil {
			s.obs.LogInfo("mqtt command source connected",
				ports.Field{Key: "broker", Value: s.cfg.Broker},
				ports.Field{Key: "topic", Value: s.cfg.Topic})
		}
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handle(out))
		token.Wait()
		if err := token.Error(); err != nil && s.obs != nil {
			s.obs.LogError("mqtt subscribe failed", err, ports.Field{Key: "topic", Value: s.cfg.Topic})
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		if s.obs != nil {
			s.obs.LogError("mqtt command source connection lost", err)
		}
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(s.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect timeout after %s", s.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

// handle builds the paho message handler that lowers an inbound MQTT
// payload into a CMD domain.Event. The event carries the message receipt
// time, not any timestamp embedded in the payload — the core's clock is the
// only one that matters downstream.
func (s *MQTTCommandSource) handle(out chan<- domain.Event) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		nowMs := uint32(time.Now().UnixMilli())
		ev := domain.NewEvent(domain.KindCMD, 0, nowMs, payload)
		select {
		case out <- ev:
		default:
			if s.obs != nil {
				s.obs.LogError("mqtt command dropped: source channel full", nil,
					ports.Field{Key: "topic", Value: msg.Topic()})
			}
		}
	}
}

// Stop disconnects from the broker. Satisfies ports.EventSource.
func (s *MQTTCommandSource) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
	return nil
}

// Connected reports whether the broker connection is currently up.
func (s *MQTTCommandSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

var _ ports.EventSource = (*MQTTCommandSource)(nil)
