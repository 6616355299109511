// Package events публикует события импорта линий в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// LineImported событие о зафиксированном импорте линии
type LineImported struct {
	LineaID     string    `json:"linea_id"`
	Numero      string    `json:"numero"`
	Created     bool      `json:"created"`
	Tramos      int       `json:"tramos"`
	Estructuras int       `json:"estructuras"`
	Finalized   bool      `json:"finalized"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Publisher публикует события импорта
type Publisher interface {
	PublishLineImported(ctx context.Context, event LineImported) error
	Close() error
}

// MessageWriter часть kafka.Writer, нужная издателю; подменяется в тестах
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher издатель поверх kafka-go
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher создает издатель; пустой список брокеров дает no-op издатель
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

// NewPublisher создает издатель поверх произвольного writer
func NewPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishLineImported пишет событие с ключом = id линии
func (p *KafkaPublisher) PublishLineImported(ctx context.Context, event LineImported) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.LineaID),
		Value: value,
		Time:  event.ImportedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish linea %s: %w", event.Numero, err)
	}
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop издатель, который ничего не отправляет
type Noop struct{}

// PublishLineImported отбрасывает событие
func (Noop) PublishLineImported(context.Context, LineImported) error { return nil }

// Close ничего не делает
func (Noop) Close() error { return nil }
