package ingest

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

// StartTCPStream reads newline-delimited sighting records from scanner
// helpers that hold a long-lived connection.
func StartTCPStream(ctx context.Context, cfg *config.Config, parser *Parser, out chan<- model.Sighting, logger *slog.Logger) {
	current := cfg.Ingest.TCPStream
	if !current.Enabled {
		if logger != nil {
			logger.Info("tcp stream ingest disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("tcp stream ingest enabled", "addr", current.Addr)
	}
	ln, err := net.Listen("tcp", current.Addr)
	if err != nil {
		if logger != nil {
			logger.Error("tcp stream listen error", "err", err)
		}
		return
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				if logger != nil {
					logger.Warn("tcp stream accept error", "err", err)
				}
				continue
			}
			go handleTCPStreamConn(ctx, conn, parser, out, logger)
		}
	}()
}

func handleTCPStreamConn(ctx context.Context, conn net.Conn, parser *Parser, out chan<- model.Sighting, logger *slog.Logger) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 8192), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		sighting, err := parser.ParseLine(scanner.Text())
		if err != nil || sighting == nil || sighting.Address == "" {
			continue
		}
		sighting.Source = "tcp_stream"
		SendNonBlocking(ctx, out, *sighting, logger)
	}
}
