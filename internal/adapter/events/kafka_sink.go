package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink writes events as JSON, keyed by entity id so updates to one
// entity stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(conf KafkaConfig) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(conf.Brokers...),
		Topic:                  conf.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w}
}

func (k *KafkaSink) Send(ctx context.Context, event domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   eventKey(event),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	return k.writer.WriteMessages(ctx, msg)
}

// eventKey is "<entity>:<id>", e.g. "order:7" for every order.* event of order 7.
func eventKey(event domain.Event) []byte {
	entity, _, _ := strings.Cut(string(event.Type), ".")
	return []byte(entity + ":" + strconv.FormatInt(event.EntityID, 10))
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
