package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Relay mirrors committed journal events to an external stream for
// downstream consumers (analytics, alerting). The journal store remains the
// source of truth; delivery is best-effort.
type Relay interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// KafkaRelay produces events to one topic, keyed by asset so per-asset
// ordering survives partitioning.
type KafkaRelay struct {
	client *kgo.Client
	topic  string
}

func NewKafkaRelay(brokers []string, topic string) (*KafkaRelay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaRelay{client: client, topic: topic}, nil
}

// relayRecord is the wire shape. Statuses and payload mirror the stored
// event; the payload keeps its kind tag so consumers can decode.
type relayRecord struct {
	EventID     string          `json:"event_id"`
	AssetID     string          `json:"asset_id"`
	ActorID     string          `json:"actor_id,omitempty"`
	EventType   string          `json:"event_type"`
	FromStatus  string          `json:"from_status,omitempty"`
	ToStatus    string          `json:"to_status"`
	Note        string          `json:"note"`
	PayloadKind string          `json:"payload_kind,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func (r *KafkaRelay) Publish(ctx context.Context, event Event) error {
	kind, raw, err := EncodePayload(event.Payload)
	if err != nil {
		return err
	}

	record := relayRecord{
		EventID:     event.ID.String(),
		AssetID:     event.AssetID.String(),
		EventType:   string(event.Type),
		ToStatus:    string(event.ToStatus),
		Note:        event.Note,
		PayloadKind: kind,
		Payload:     raw,
		CreatedAt:   event.CreatedAt.Format(time.RFC3339Nano),
	}
	if event.ActorID != nil {
		record.ActorID = event.ActorID.String()
	}
	if event.FromStatus != nil {
		record.FromStatus = string(*event.FromStatus)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal relay record: %w", err)
	}

	result := r.client.ProduceSync(ctx, &kgo.Record{
		Topic: r.topic,
		Key:   []byte(event.AssetID.String()),
		Value: value,
	})
	return result.FirstErr()
}

func (r *KafkaRelay) Close() {
	r.client.Close()
}
