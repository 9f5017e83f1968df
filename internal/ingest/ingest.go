package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

// SendNonBlocking hands a sighting to the engine channel, dropping it
// with a warning when the channel is full. The scan edge must never
// stall behind a slow dispatch.
func SendNonBlocking(ctx context.Context, out chan<- model.Sighting, s model.Sighting, logger *slog.Logger) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("sighting channel full, dropping", "source", s.Source)
		}
		return false
	}
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
