package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one decoded event. A returned error is logged and the
// message is still committed.
type Handler func(ctx context.Context, event entity.ProfileChangedEvent) error

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consume reads profile change events until ctx is cancelled.
func Consume(ctx context.Context, cfg ConsumerConfig, handle Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
		"group":   cfg.GroupID,
	}).Info("event consumer started")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logrus.WithError(err).Error("error reading message from kafka")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			logrus.WithError(err).WithField("offset", msg.Offset).Warn("skipping malformed event")
			continue
		}

		if err := handle(ctx, event); err != nil {
			logrus.WithError(err).WithField("fid", event.FID).Error("event handler failed")
		}
	}
}

func decodeEvent(value []byte) (entity.ProfileChangedEvent, error) {
	var event entity.ProfileChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}
	if event.FID == 0 {
		return event, entity.ErrMissingFID
	}
	return event, nil
}

// LogEvent is a Handler that records each event.
func LogEvent(_ context.Context, event entity.ProfileChangedEvent) error {
	logrus.WithFields(logrus.Fields{
		"fid":        event.FID,
		"pfp_url":    event.PFPURL,
		"composite":  event.CompositeID,
		"filter":     event.Filter,
		"changed_at": event.ChangedAt,
	}).Info("profile picture changed")
	return nil
}
