package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Message is one record bound for a topic. Payment events are keyed by
// aggregate ID so a transaction's events land on one partition in order.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer publishes to Kafka through per-topic writers created on
// first use. One Producer is shared by the event publisher, the
// notifier and the orphan requeue.
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafkago.Writer
	brokers []string
}

func NewProducer(cfg Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafkago.Writer),
		brokers: cfg.Brokers,
	}
}

// Publish writes the messages to topic in one batch.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	w := p.writer(topic)

	records := make([]kafkago.Message, 0, len(messages))
	for _, msg := range messages {
		record := kafkago.Message{
			Key:   msg.Key,
			Value: msg.Value,
		}
		for k, v := range msg.Headers {
			record.Headers = append(record.Headers, kafkago.Header{
				Key:   k,
				Value: []byte(v),
			})
		}
		records = append(records, record)
	}

	if err := w.WriteMessages(ctx, records...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

// Close closes every writer opened so far.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for topic %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]*kafkago.Writer)
	return firstErr
}

func (p *Producer) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	// Batches are tiny (a transition emits one or two events), so the
	// batch timeout stays short. RequireAll because a dropped ledger
	// event is worse than publish latency.
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafkago.Snappy,
	}
	p.writers[topic] = w
	return w
}
