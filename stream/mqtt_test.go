package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type publication struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	published []publication
	token     *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.published = append(p.published, publication{topic, qos, retained, payload.([]byte)})
	return p.token
}

func TestMQTTSink_Write(t *testing.T) {
	pub := &fakePublisher{token: newFakeToken(nil, true)}
	sink := newMQTTSink(pub, MQTTOpts{QoS: 1, Retained: true})
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := sink.Write(context.Background(), NewSample(hmc5883l.Measurement{X: 1, Y: 2, Z: 3}, nil, at))

	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, DefaultTopic, pub.published[0].topic)
	assert.Equal(t, byte(1), pub.published[0].qos)
	assert.True(t, pub.published[0].retained)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.published[0].payload, &decoded))
	assert.Equal(t, 1.0, decoded["x"])
	assert.Equal(t, 2.0, decoded["y"])
	assert.Equal(t, 3.0, decoded["z"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["time"])
	assert.NotContains(t, decoded, "gauss")
}

func TestMQTTSink_PublishError(t *testing.T) {
	brokerErr := errors.New("not connected")
	pub := &fakePublisher{token: newFakeToken(brokerErr, true)}
	sink := newMQTTSink(pub, MQTTOpts{Topic: "lab/compass"})

	err := sink.Write(context.Background(), Sample{})

	assert.ErrorIs(t, err, brokerErr)
	assert.Equal(t, "lab/compass", pub.published[0].topic)
}

func TestMQTTSink_PublishTimeout(t *testing.T) {
	pub := &fakePublisher{token: newFakeToken(nil, false)}
	sink := newMQTTSink(pub, MQTTOpts{ConnectTimeout: 5 * time.Millisecond})

	err := sink.Write(context.Background(), Sample{})

	assert.ErrorContains(t, err, "timed out")
}

func TestNewMQTTSink_RequiresBroker(t *testing.T) {
	_, err := NewMQTTSink(MQTTOpts{})
	assert.Error(t, err)
}
