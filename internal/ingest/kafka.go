package ingest

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

// StartKafka consumes sighting records published by remote scanner
// helpers that cannot reach the gateway directly.
func StartKafka(ctx context.Context, cfg *config.Config, parser *Parser, out chan<- model.Sighting, logger *slog.Logger) {
	current := cfg.Ingest.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka ingest disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka ingest enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				continue
			}
			sighting, err := parser.ParseLine(string(m.Value))
			if err != nil || sighting == nil || sighting.Address == "" {
				continue
			}
			sighting.Source = "kafka"
			SendNonBlocking(ctx, out, *sighting, logger)
		}
	}()
}
