package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const DefaultTopic = "magsense/hmc5883l"

// publisher is the part of mqtt.Client used by MQTTSink.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type MQTTOpts struct {
	Broker         string
	ClientID       string
	Topic          string
	QoS            byte
	Retained       bool
	ConnectTimeout time.Duration
}

// MQTTSink publishes samples as JSON.
type MQTTSink struct {
	client  publisher
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
	close   func()
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(opts MQTTOpts) (*MQTTSink, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("stream: mqtt broker not set")
	}
	if opts.ClientID == "" {
		opts.ClientID = "magsense"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.ConnectTimeout)
	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("stream: mqtt connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("stream: could not connect to mqtt broker %s: %w", opts.Broker, err)
	}
	sink := newMQTTSink(client, opts)
	sink.close = func() { client.Disconnect(250) }
	return sink, nil
}

func newMQTTSink(client publisher, opts MQTTOpts) *MQTTSink {
	topic := opts.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &MQTTSink{
		client:  client,
		topic:   topic,
		qos:     opts.QoS,
		retain:  opts.Retained,
		timeout: timeout,
	}
}

func (s *MQTTSink) Write(ctx context.Context, sample Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("stream: could not encode sample: %w", err)
	}
	token := s.client.Publish(s.topic, s.qos, s.retain, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("stream: publish to %s timed out", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("stream: could not publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
