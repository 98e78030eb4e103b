package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConfluentProducer implements RoomEventProducer using confluent-kafka-go.
type ConfluentProducer struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewConfluentProducer creates a Kafka producer for room lifecycle events.
// The topic is created with the given partition count when missing.
func NewConfluentProducer(brokers, topic string, partitions int) (*ConfluentProducer, error) {
	if err := ensureTopic(brokers, topic, partitions); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str("topic", topic).Msg("failed to ensure topic, may already exist")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	l := pkglog.L()
	for e := range cp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l.Error().Err(ev.TopicPartition.Error).Str(pkglog.FieldRoomID, string(ev.Key)).Msg("kafka delivery failed")
			}
		case kafka.Error:
			l.Warn().Err(ev).Msg("kafka producer error")
		}
	}
	close(cp.doneCh)
}

func (cp *ConfluentProducer) produceEvent(event *RoomEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	// Keyed by room so one room's events stay ordered within a partition
	err = cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &cp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.RoomID),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// ProduceStreamStarted sends a stream_started event to Kafka.
func (cp *ConfluentProducer) ProduceStreamStarted(ctx context.Context, roomID, connectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return cp.produceEvent(&RoomEvent{
		Type:         EventStreamStarted,
		RoomID:       roomID,
		ConnectionID: connectionID,
		Timestamp:    time.Now().UnixMilli(),
	})
}

// ProduceStreamEnded sends a stream_ended event to Kafka.
func (cp *ConfluentProducer) ProduceStreamEnded(ctx context.Context, roomID, connectionID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return cp.produceEvent(&RoomEvent{
		Type:         EventStreamEnded,
		RoomID:       roomID,
		ConnectionID: connectionID,
		Reason:       reason,
		Timestamp:    time.Now().UnixMilli(),
	})
}

// Close flushes pending messages and closes the producer.
func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}
