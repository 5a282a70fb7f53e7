package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, event entity.ProfileChangedEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer connects to the first broker and makes sure the topic exists.
// When the broker is unreachable it returns a producer that only logs.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		logrus.Warn("no kafka brokers configured, using mock producer")
		return NewMockProducer()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logrus.WithError(err).Warn("kafka connection failed, using mock producer")
		return NewMockProducer()
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).WithField("topic", topic).Info("could not create topic (might already exist)")
	}

	logrus.WithField("brokers", brokers).Info("connected to kafka")
	return &kafkaProducer{writer: newWriter(brokers, topic)}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// encodeEvent keys messages by fid so one user's changes stay ordered.
func encodeEvent(event entity.ProfileChangedEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(event.FID, 10)),
		Value: value,
		Time:  event.ChangedAt,
	}, nil
}

func (p *kafkaProducer) Publish(ctx context.Context, event entity.ProfileChangedEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"topic": p.writer.Topic,
		"fid":   event.FID,
	}).Debug("profile change published")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

type mockProducer struct{}

func NewMockProducer() Producer {
	return &mockProducer{}
}

func (m *mockProducer) Publish(_ context.Context, event entity.ProfileChangedEvent) error {
	logrus.WithFields(logrus.Fields{
		"fid":       event.FID,
		"pfp_url":   event.PFPURL,
		"composite": event.CompositeID,
	}).Info("MOCK: profile change event")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
