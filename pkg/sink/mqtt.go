package sink

import (
	"fmt"
	"time"

	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/mqtt"
)

// PublishFunc publishes payload to a topic.
type PublishFunc func(topic string, payload []byte) error

// QueuePublisher publishes with q, waiting at most timeout for each message.
func QueuePublisher(q *mqtt.Queue, timeout time.Duration) PublishFunc {
	return func(topic string, payload []byte) error {
		token := q.Pub(topic, payload)
		if !token.WaitTimeout(timeout) {
			return fmt.Errorf("publish %q timeout", topic)
		}
		return token.Error()
	}
}

// FramesTopic is the topic frames of device id are published to.
func FramesTopic(id frame.ID) string {
	return id.String() + "/frames"
}

// MQTT publishes frames as wire records.
type MQTT struct {
	Publish PublishFunc
	Topic   string
}

// NewMQTT creates an MQTT sink publishing on the frames topic of id.
func NewMQTT(publish PublishFunc, id frame.ID) *MQTT {
	return &MQTT{Publish: publish, Topic: FramesTopic(id)}
}

// Consume implements Sink.
func (m *MQTT) Consume(f *frame.Frame) error {
	b := f.RawBytes()
	return m.Publish(m.Topic, b[:])
}
