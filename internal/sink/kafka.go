package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/velic0/game-telemetry/internal/domain"
)

// Kafka is the durable sink variant. Each event becomes one
// newline-terminated JSON record on the delivery topic, tagged with the
// ingestion timestamp and the fixed source identifier.
type Kafka struct {
	writer  *kafkago.Writer
	brokers []string
	topic   string
	clock   func() time.Time
}

type KafkaConfig struct {
	// Brokers is a comma-separated broker list.
	Brokers string
	Topic   string
}

// NewKafka builds the durable sink. It fails loudly on unusable config so
// the caller decides whether to fall back, instead of getting a silent
// substitute.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink: no brokers configured")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka sink: no topic configured")
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}

	return &Kafka{
		writer:  w,
		brokers: brokers,
		topic:   cfg.Topic,
		clock:   time.Now,
	}, nil
}

func (k *Kafka) Send(ctx context.Context, e domain.Event) error {
	msg, err := k.message(e)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	return nil
}

func (k *Kafka) SendBatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		msg, err := k.message(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	// WriteMessages reports per-message failures as kafka.WriteErrors;
	// any failed record fails the whole chunk.
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka send batch: %w", err)
	}
	return nil
}

// Healthy dials one broker and checks the delivery topic has live
// partition metadata.
func (k *Kafka) Healthy(ctx context.Context) bool {
	conn, err := kafkago.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return false
	}
	defer conn.Close()

	parts, err := conn.ReadPartitions(k.topic)
	return err == nil && len(parts) > 0
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// message enriches the event and serializes it as one line. Enrichment is
// computed here, per record, so timestamps within a batch are independent.
func (k *Kafka) message(e domain.Event) (kafkago.Message, error) {
	rec := domain.Enrich(e, k.clock())
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')

	return kafkago.Message{
		Key:   []byte(e.EventID),
		Value: data,
		Time:  k.clock().UTC(),
	}, nil
}

func splitBrokers(csv string) []string {
	var out []string
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
