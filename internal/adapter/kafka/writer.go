package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disdro-l0/internal/config"
	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// EventWriter publishes station lifecycle events to a Kafka topic.
// It implements pipeline.Reporter.
type EventWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewEventWriter creates a Kafka producer for the configured events topic.
// Events of one station share a partition so consumers see them in order.
func NewEventWriter(cfg *config.Config, logger *slog.Logger) *EventWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaEventsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &EventWriter{writer: w, logger: logger}
}

// Report publishes one event. Publishing failures are logged and never
// affect the station being converted.
func (w *EventWriter) Report(ctx context.Context, ev domain.StationEvent) {
	msg, err := serializeEvent(ev)
	if err != nil {
		w.logger.Error("serialize station event", "station", ev.Station, "error", err)
		return
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.logger.Warn("publish station event",
			"station", ev.Station,
			"state", ev.State,
			"topic", w.writer.Topic,
			"error", err,
		)
	}
}

func (w *EventWriter) Close() error {
	return w.writer.Close()
}

// serializeEvent marshals a StationEvent into a Kafka message keyed by station.
func serializeEvent(ev domain.StationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.Station),
		Value: data,
		Time:  ev.Time,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(ev.State)},
			{Key: "run_id", Value: []byte(ev.RunID)},
		},
	}, nil
}
