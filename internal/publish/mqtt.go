package publish

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// MQTTConfig holds broker settings
type MQTTConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

// Payload is the message published for each successful poll
type Payload struct {
	Timestamp  int64              `json:"timestamp"`
	ReceiverTS string             `json:"receiver_ts"`
	Bands      map[string]float64 `json:"bands"`
}

// MQTTPublisher republishes the newest snapshot of every poll
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func generateClientID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "kiwisnr_" + hex.EncodeToString(b)
}

// NewMQTTPublisher connects to the broker with auto-reconnect enabled
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(generateClientID())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(15*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.Topic), nil
}

func newPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, timeout: 5 * time.Second}
}

// BuildPayload converts the newest snapshot of a poll into a Payload.
// ok is false for polls without snapshots.
func BuildPayload(poll *models.Poll) (Payload, bool) {
	if len(poll.Snapshots) == 0 {
		return Payload{}, false
	}
	newest := poll.Snapshots[len(poll.Snapshots)-1]
	bands := make(map[string]float64, len(newest.SNR))
	for key, snr := range newest.Readings() {
		if math.IsNaN(snr) {
			continue
		}
		bands[string(key)] = snr
	}
	return Payload{
		Timestamp:  poll.CapturedAt.Unix(),
		ReceiverTS: newest.TS,
		Bands:      bands,
	}, true
}

// Record implements collector.Sink
func (p *MQTTPublisher) Record(_ context.Context, poll *models.Poll) error {
	payload, ok := BuildPayload(poll)
	if !ok {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal MQTT payload: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, data)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("MQTT publish to %s timed out", p.topic)
	}
	return token.Error()
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
