package ingest

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

// StartFileTail follows scanner output files. The first deployment's
// scanner appended CSV rows to a flat file; tailing it is still the
// lowest-friction way to attach a radio helper that can only write to
// disk. Truncation (log rotation) reopens the file.
func StartFileTail(ctx context.Context, cfg *config.Config, parser *Parser, out chan<- model.Sighting, logger *slog.Logger) {
	current := cfg.Ingest.FileTail
	if !current.Enabled {
		if logger != nil {
			logger.Info("file tail ingest disabled")
		}
		return
	}
	// The scanner appends one burst per scan, so polling at the scan
	// cadence is enough.
	poll := cfg.Ingest.ScanInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	for _, path := range current.Files {
		path := path
		if logger != nil {
			logger.Info("file tail ingest enabled", "path", path, "start_at_end", current.StartAtEnd)
		}
		go tailFile(ctx, path, current.StartAtEnd, poll, parser, out, logger)
	}
}

func tailFile(ctx context.Context, path string, startAtEnd bool, poll time.Duration, parser *Parser, out chan<- model.Sighting, logger *slog.Logger) {
	var file *os.File
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if file == nil {
			f, err := os.Open(path)
			if err != nil {
				if logger != nil {
					logger.Warn("tail open failed", "path", path, "err", err)
				}
				if !BackoffSleep(ctx, 500*time.Millisecond) {
					return
				}
				continue
			}
			file = f
			if startAtEnd {
				if pos, err := file.Seek(0, io.SeekEnd); err == nil {
					offset = pos
				}
			}
		}

		reader := bufio.NewReader(file)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					if !BackoffSleep(ctx, poll) {
						_ = file.Close()
						return
					}
					info, statErr := os.Stat(path)
					if statErr == nil && info.Size() < offset {
						_ = file.Close()
						file = nil
						break
					}
					continue
				}
				if logger != nil {
					logger.Warn("tail read error", "path", path, "err", err)
				}
				_ = file.Close()
				file = nil
				break
			}
			offset += int64(len(line))
			sighting, perr := parser.ParseLine(line)
			if perr != nil || sighting == nil || sighting.Address == "" {
				continue
			}
			sighting.Source = "file_tail"
			SendNonBlocking(ctx, out, *sighting, logger)
		}
	}
}
