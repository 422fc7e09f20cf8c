package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/port"
	pkgkafka "github.com/fanora/payment-service/pkg/kafka"
)

var _ port.Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier emits user-facing notification requests onto a topic
// consumed by the notification service.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

type notification struct {
	Kind        string    `json:"kind"`
	UserID      uuid.UUID `json:"user_id"`
	PeerID      uuid.UUID `json:"peer_id,omitempty"`
	AmountMinor int64     `json:"amount_minor,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

func (n *KafkaNotifier) send(ctx context.Context, note notification) error {
	note.At = time.Now().UTC()
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := pkgkafka.Message{
		Key:     []byte(note.UserID.String()),
		Value:   payload,
		Headers: map[string]string{"kind": note.Kind},
	}
	if err := n.producer.Publish(ctx, n.topic, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) NotifyPaymentSettled(ctx context.Context, fanID, creatorID uuid.UUID, amountMinor int64, currency string) error {
	return n.send(ctx, notification{
		Kind: "payment.settled", UserID: fanID, PeerID: creatorID,
		AmountMinor: amountMinor, Currency: currency,
	})
}

func (n *KafkaNotifier) NotifyPaymentFailed(ctx context.Context, fanID uuid.UUID, reason string) error {
	return n.send(ctx, notification{Kind: "payment.failed", UserID: fanID, Reason: reason})
}

func (n *KafkaNotifier) NotifyPayoutPaid(ctx context.Context, creatorID uuid.UUID, amountMinor int64, currency string) error {
	return n.send(ctx, notification{
		Kind: "payout.paid", UserID: creatorID,
		AmountMinor: amountMinor, Currency: currency,
	})
}

func (n *KafkaNotifier) NotifyPayoutFailed(ctx context.Context, creatorID uuid.UUID, reason string) error {
	return n.send(ctx, notification{Kind: "payout.failed", UserID: creatorID, Reason: reason})
}
