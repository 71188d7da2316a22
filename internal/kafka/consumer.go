package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"social-go/internal/config"
)

// MessageHandler processes one consumed message. A nil error commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
	log      *logrus.Logger
}

// NewConfluentKafkaConsumer creates a consumer; the underlying client is created in Consume.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, log *logrus.Logger) (MessageConsumer, error) {
	return &confluentKafkaConsumer{cfg: cfg, log: log}, nil
}

// Consume blocks, handing messages to handler until ctx is canceled or a fatal error occurs.
// Offsets are committed manually after a successful handler call.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log := c.log.WithField("group", groupID)
	log.WithField("topics", topics).Info("Kafka consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Context canceled, consumer loop finished")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			fields := logrus.Fields{"topic": *e.TopicPartition.Topic, "offset": e.TopicPartition.Offset}
			if err := handler(ctx, e); err != nil {
				log.WithFields(fields).WithError(err).Error("Error processing Kafka message")
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.WithFields(fields).WithError(err).Error("Failed to commit offset")
			}
		case kafka.Error:
			log.WithFields(logrus.Fields{"code": e.Code(), "fatal": e.IsFatal()}).Error(e.Error())
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.WithField("partitions", e.Partitions).Info("Partitions assigned")
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.WithField("partitions", e.Partitions).Info("Partitions revoked")
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.log.WithError(err).WithField("group", c.groupID).Error("Error closing Kafka consumer")
	}
	c.consumer = nil
}
