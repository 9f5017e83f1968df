package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/denamwangi/katy-trail-live/internal/api"
	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/engine"
	"github.com/denamwangi/katy-trail-live/internal/ingest"
	"github.com/denamwangi/katy-trail-live/internal/logging"
	"github.com/denamwangi/katy-trail-live/internal/model"
	"github.com/denamwangi/katy-trail-live/internal/storage"
	"github.com/denamwangi/katy-trail-live/internal/transport"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	logFormat := flag.String("log-format", "json", "log output format (json or text)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, *logFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage open failed", "err", err)
		os.Exit(1)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("storage init failed", "err", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	var sender transport.Sender
	if cfg.Dispatch.Enabled {
		sender = transport.NewHTTPSender(cfg.Dispatch.URL, cfg.Dispatch.APIKey, cfg.Dispatch.Timeout)
	}

	eng := engine.NewEngine(cfg, logger, store, sender)

	sightings := make(chan model.Sighting, cfg.Ingest.ChannelBuffer)
	parser := ingest.NewParser()
	ingest.StartREST(ctx, cfg, sightings, logger)
	ingest.StartTCPStream(ctx, cfg, parser, sightings, logger)
	ingest.StartFileTail(ctx, cfg, parser, sightings, logger)
	ingest.StartKafka(ctx, cfg, parser, sightings, logger)

	api.Start(ctx, cfg, eng, logger, version)

	logger.Info("gateway started",
		"gateway_id", cfg.Gateway.ID,
		"tracked_tags", len(cfg.Tracking.Tags),
		"dispatch_interval", cfg.Dispatch.Interval.String(),
	)

	eng.Run(ctx, sightings)

	logger.Info("gateway stopped")
}
