package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ds124wfegd/pfpframe/config"
	"github.com/ds124wfegd/pfpframe/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := kafka.ConsumerConfig{
		Brokers: strings.Split(config.GetEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		Topic:   config.GetEnv("KAFKA_TOPIC", "pfp-changed"),
		GroupID: config.GetEnv("KAFKA_GROUP_ID", "pfp-events"),
	}

	if err := kafka.Consume(ctx, cfg, kafka.LogEvent); err != nil {
		logrus.Fatalf("event consumer stopped: %s", err.Error())
	}
	logrus.Info("event consumer stopped")
}
