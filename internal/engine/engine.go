package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
	"github.com/denamwangi/katy-trail-live/internal/storage"
	"github.com/denamwangi/katy-trail-live/internal/transport"
)

// Engine owns the detection-aggregation state: the tag allow-list, the
// per-tag RSSI windows, the anonymous traffic set and the movement-gate
// bookkeeping. One instance serves both the sighting pipeline and the
// dispatch cycle; Run multiplexes the two on a single goroutine so a
// dispatch always observes a consistent snapshot.
type Engine struct {
	logger *slog.Logger
	cfg    *config.Config

	allowlist *Allowlist
	pseudo    *Pseudonymizer
	windows   *WindowStore
	traffic   *TrafficSet

	store  storage.Store
	sender transport.Sender

	mu        sync.Mutex
	position  model.Position
	lastSent  *model.SentFix
	lastBatch time.Time
	processed int64
	dropped   int64
	matched   int64
	started   time.Time
}

func NewEngine(cfg *config.Config, logger *slog.Logger, store storage.Store, sender transport.Sender) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		allowlist: NewAllowlist(cfg.Tracking.Tags),
		pseudo:    NewPseudonymizer(cfg.Pseudonym.Salt),
		windows:   NewWindowStore(cfg.Tracking.RSSIWindow),
		traffic:   NewTrafficSet(),
		store:     store,
		sender:    sender,
		position: model.Position{
			Latitude:  cfg.Gateway.Latitude,
			Longitude: cfg.Gateway.Longitude,
		},
		started: time.Now().UTC(),
	}
}

// Run consumes sightings and fires the dispatch cycle on its own cadence.
// The two never run concurrently with each other: a sighting is fully
// processed before a due dispatch starts, and vice versa. There is no
// flush on shutdown; cancellation simply stops the loop.
func (e *Engine) Run(ctx context.Context, in <-chan model.Sighting) {
	interval := e.cfg.Dispatch.Interval
	if interval <= 0 {
		interval = 180 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case s, ok := <-in:
			if !ok {
				return
			}
			e.ProcessSighting(s)
		case now := <-ticker.C:
			e.Dispatch(ctx, now.UTC())
		case <-ctx.Done():
			return
		}
	}
}

// ProcessSighting runs one sighting through the pipeline: resolve against
// the allow-list, pseudonymize, count, and append to the raw log. A
// sighting without a signal strength reading is silently discarded.
func (e *Engine) ProcessSighting(s model.Sighting) {
	if s.RSSI == nil {
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
		return
	}
	now := s.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rssi := *s.RSSI

	tracked := false
	if tag, ok := e.allowlist.Resolve(s); ok {
		e.windows.Record(tag, rssi, now)
		tracked = true
		if e.logger != nil {
			e.logger.Debug("tag sighted", "tag", tag, "rssi", rssi)
		}
	}

	// A tracked tag is still a radio that was present, so it counts
	// toward anonymous traffic as well.
	token := e.pseudo.Token(s.Address)
	e.traffic.Record(token)

	e.mu.Lock()
	e.processed++
	if tracked {
		e.matched++
	}
	e.mu.Unlock()

	if e.store != nil {
		rec := model.SightingRecord{Timestamp: now, Token: token, RSSI: rssi}
		if err := e.store.SaveSighting(context.Background(), rec); err != nil {
			if e.logger != nil {
				e.logger.Warn("raw log write failed", "err", err)
			}
		}
	}
}

// Dispatch runs one batching cycle: drain the traffic set, evaluate the
// movement gate, merge whatever sections are due into one payload and
// send it. Returns true when a payload was delivered. Drained state is
// never restored on failure; delivery is at-most-once by design.
func (e *Engine) Dispatch(ctx context.Context, now time.Time) bool {
	unique := e.traffic.Drain()

	payload := model.Payload{GatewayID: e.cfg.Gateway.ID}
	if unique > 0 {
		payload.Telemetry = &model.TrafficSummary{
			GatewayID:     e.cfg.Gateway.ID,
			Timestamp:     now.UTC().Format(time.RFC3339),
			UniqueDevices: unique,
		}
	}

	e.mu.Lock()
	pos := e.position
	last := e.lastSent
	e.mu.Unlock()

	if ShouldReport(last, pos, now, e.cfg.Tracking.Heartbeat, e.cfg.Tracking.MinMoveMeters) {
		readings := make([]model.TagReading, 0, e.allowlist.Len())
		for _, tag := range e.allowlist.Tags() {
			if est, ok := e.windows.MedianEstimate(tag, now); ok {
				readings = append(readings, model.TagReading{ID: tag, RSSI: roundRSSI(est)})
			}
		}
		// Tags never matched, or expired out of the window, are
		// omitted, not reported as absent. With no estimable tag at
		// all the section is withheld and the gate re-evaluates
		// against the old fix next cycle.
		if len(readings) > 0 {
			payload.AssetTracking = &model.AssetSummary{
				GatewayID: e.cfg.Gateway.ID,
				Timestamp: now.UTC().Format(time.RFC3339),
				Latitude:  pos.Latitude,
				Longitude: pos.Longitude,
				Tags:      readings,
			}
		}
	}

	if payload.Telemetry == nil && payload.AssetTracking == nil {
		return false
	}

	var sendErr error
	if e.sender != nil {
		sendErr = e.sender.Send(ctx, payload)
	}

	if e.store != nil {
		rec := model.DispatchRecord{Timestamp: now.UTC(), Success: sendErr == nil}
		if payload.Telemetry != nil {
			rec.UniqueDevices = payload.Telemetry.UniqueDevices
		}
		if payload.AssetTracking != nil {
			rec.TagCount = len(payload.AssetTracking.Tags)
		}
		if err := e.store.SaveDispatch(ctx, rec); err != nil {
			if e.logger != nil {
				e.logger.Warn("dispatch audit write failed", "err", err)
			}
		}
	}

	if sendErr != nil {
		if e.logger != nil {
			e.logger.Error("dispatch failed", "err", sendErr, "unique_devices", unique)
		}
		return false
	}

	e.mu.Lock()
	e.lastBatch = now
	if payload.AssetTracking != nil {
		e.lastSent = &model.SentFix{Position: pos, Timestamp: now}
	}
	e.mu.Unlock()

	if e.logger != nil {
		tagCount := 0
		if payload.AssetTracking != nil {
			tagCount = len(payload.AssetTracking.Tags)
		}
		e.logger.Info("dispatched", "unique_devices", unique, "tags", tagCount)
	}
	return true
}

// SetPosition updates the gateway's current coordinate, the hook for a
// live position feed. The next dispatch cycle reads it.
func (e *Engine) SetPosition(pos model.Position) {
	e.mu.Lock()
	e.position = pos
	e.mu.Unlock()
}

func (e *Engine) Position() model.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// TrafficCount is the undrained distinct-device count for this cycle.
func (e *Engine) TrafficCount() int {
	return e.traffic.Count()
}

// TagEstimates returns the current median estimate for every allow-list
// tag that has a live window.
func (e *Engine) TagEstimates(now time.Time) []model.TagReading {
	readings := make([]model.TagReading, 0, e.allowlist.Len())
	for _, tag := range e.allowlist.Tags() {
		if est, ok := e.windows.MedianEstimate(tag, now); ok {
			readings = append(readings, model.TagReading{ID: tag, RSSI: roundRSSI(est)})
		}
	}
	return readings
}

// Status is a point-in-time snapshot for the observability API.
type Status struct {
	Started   time.Time
	LastBatch time.Time
	LastSent  *model.SentFix
	Processed int64
	Dropped   int64
	Matched   int64
	Tags      int
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Started:   e.started,
		LastBatch: e.lastBatch,
		Processed: e.processed,
		Dropped:   e.dropped,
		Matched:   e.matched,
		Tags:      e.allowlist.Len(),
	}
	if e.lastSent != nil {
		fix := *e.lastSent
		st.LastSent = &fix
	}
	return st
}

// roundRSSI rounds half away from zero; the wire schema wants an integer
// dBm even when an even-sized window medians to a half value.
func roundRSSI(v float64) int {
	return int(math.Round(v))
}
