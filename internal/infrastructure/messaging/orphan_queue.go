package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	pkgkafka "github.com/fanora/payment-service/pkg/kafka"
)

var _ port.OrphanQueue = (*OrphanQueue)(nil)

const attemptHeader = "orphan_attempt"

// orphanMessage is the wire form of a requeued canonical event.
type orphanMessage struct {
	Provider     string    `json:"provider"`
	Type         string    `json:"type"`
	ProviderTxID string    `json:"provider_tx_id"`
	AmountMinor  int64     `json:"amount_minor"`
	Currency     string    `json:"currency"`
	OccurredAt   time.Time `json:"occurred_at"`
	RawEventName string    `json:"raw_event_name"`
	SubscriberID string    `json:"subscriber_id,omitempty"`
}

// OrphanQueue requeues webhook events that outran their transaction row
// through a Kafka topic, carrying the attempt count in a header. Broker
// redelivery latency doubles as the retry backoff.
type OrphanQueue struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewOrphanQueue(producer *pkgkafka.Producer, topic string) *OrphanQueue {
	return &OrphanQueue{producer: producer, topic: topic}
}

func (q *OrphanQueue) Requeue(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) error {
	payload, err := json.Marshal(orphanMessage{
		Provider:     evt.Provider.String(),
		Type:         evt.Type.String(),
		ProviderTxID: evt.ProviderTxID,
		AmountMinor:  evt.AmountMinor,
		Currency:     evt.Currency,
		OccurredAt:   evt.OccurredAt,
		RawEventName: evt.RawEventName,
		SubscriberID: evt.SubscriberID,
	})
	if err != nil {
		return fmt.Errorf("marshal orphan event: %w", err)
	}

	msg := pkgkafka.Message{
		Key:   []byte(evt.Provider.String() + ":" + evt.ProviderTxID),
		Value: payload,
		Headers: map[string]string{
			attemptHeader: strconv.Itoa(attempt),
		},
	}
	if err := q.producer.Publish(ctx, q.topic, msg); err != nil {
		return fmt.Errorf("requeue orphan event: %w", err)
	}
	return nil
}

// OrphanHandler decodes requeued events and feeds them back into the
// reconciler with their attempt count.
func OrphanHandler(apply func(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) error, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var wire orphanMessage
		if err := json.Unmarshal(msg.Value, &wire); err != nil {
			logger.Error("dropping undecodable orphan message", slog.String("error", err.Error()))
			return nil
		}

		provider, err := valueobject.NewProvider(wire.Provider)
		if err != nil {
			logger.Error("dropping orphan message with bad provider", slog.String("provider", wire.Provider))
			return nil
		}
		kind, err := valueobject.NewCanonicalEventType(wire.Type)
		if err != nil {
			logger.Error("dropping orphan message with bad event type", slog.String("type", wire.Type))
			return nil
		}

		attempt, _ := strconv.Atoi(msg.Headers[attemptHeader])

		evt := valueobject.CanonicalEvent{
			Provider:     provider,
			Type:         kind,
			ProviderTxID: wire.ProviderTxID,
			AmountMinor:  wire.AmountMinor,
			Currency:     wire.Currency,
			OccurredAt:   wire.OccurredAt,
			RawEventName: wire.RawEventName,
			SubscriberID: wire.SubscriberID,
		}
		return apply(ctx, evt, attempt)
	}
}
