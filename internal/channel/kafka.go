package channel

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaRegistry is a Registry backed by Kafka topics. Logical destination
// names are resolved through the topics map; unmapped destinations publish
// to a topic of the same name.
type KafkaRegistry struct {
	brokers []string
	topics  map[string]string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafka creates a Kafka-backed registry. brokersCSV is a comma-separated
// broker list; topics maps logical destinations to physical topic names.
func NewKafka(brokersCSV string, topics map[string]string) *KafkaRegistry {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &KafkaRegistry{
		brokers: brokers,
		topics:  topics,
		writers: make(map[string]*kafka.Writer),
	}
}

// Enabled reports whether any broker is configured.
func (r *KafkaRegistry) Enabled() bool { return len(r.brokers) > 0 }

func (r *KafkaRegistry) topic(destination string) string {
	if t, ok := r.topics[destination]; ok && t != "" {
		return t
	}
	return destination
}

func (r *KafkaRegistry) writer(topic string) *kafka.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:         kafka.TCP(r.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
		r.writers[topic] = w
	}
	return w
}

// Publish writes one message to the destination's topic, keyed so that all
// messages for one order land on the same partition.
func (r *KafkaRegistry) Publish(ctx context.Context, destination string, msg Message) error {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return r.writer(r.topic(destination)).WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
}

// Consume runs a group reader on the destination's topic and bridges it to
// a Message channel. Reader errors other than context cancellation are
// logged and the reader keeps going.
func (r *KafkaRegistry) Consume(ctx context.Context, destination, group string) (<-chan Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  r.brokers,
		Topic:    r.topic(destination),
		GroupID:  group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	out := make(chan Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			km, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("kafka read failed", "destination", destination, "err", err)
				continue
			}
			msg := Message{Key: string(km.Key), Payload: km.Value, Headers: make(map[string]string, len(km.Headers))}
			for _, h := range km.Headers {
				msg.Headers[h.Key] = string(h.Value)
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close flushes and closes all writers.
func (r *KafkaRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, w := range r.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
