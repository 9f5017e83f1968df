package engine

import (
	"math"
	"testing"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

var (
	heartbeat = 120 * time.Second
	minMove   = 10.0
	basePos   = model.Position{Latitude: 38.9517, Longitude: -92.3341}
)

func TestFirstFixAlwaysReports(t *testing.T) {
	if !ShouldReport(nil, basePos, time.Now(), heartbeat, minMove) {
		t.Fatalf("expected report with no prior fix")
	}
}

func TestHeartbeatTriggersWithoutMovement(t *testing.T) {
	now := time.Now()
	last := &model.SentFix{Position: basePos, Timestamp: now.Add(-130 * time.Second)}
	if !ShouldReport(last, basePos, now, heartbeat, minMove) {
		t.Fatalf("expected heartbeat to trigger at 130s elapsed")
	}
}

func TestMovementTriggersWithinHeartbeat(t *testing.T) {
	now := time.Now()
	last := &model.SentFix{Position: basePos, Timestamp: now.Add(-10 * time.Second)}
	// ~15 m north.
	moved := model.Position{Latitude: basePos.Latitude + 0.000135, Longitude: basePos.Longitude}
	if !ShouldReport(last, moved, now, heartbeat, minMove) {
		t.Fatalf("expected 15 m movement to trigger")
	}
}

func TestSmallMovementSuppressed(t *testing.T) {
	now := time.Now()
	last := &model.SentFix{Position: basePos, Timestamp: now.Add(-10 * time.Second)}
	// ~5 m north.
	moved := model.Position{Latitude: basePos.Latitude + 0.000045, Longitude: basePos.Longitude}
	if ShouldReport(last, moved, now, heartbeat, minMove) {
		t.Fatalf("expected 5 m movement to be suppressed")
	}
}

func TestDistanceMetersZero(t *testing.T) {
	if d := DistanceMeters(basePos, basePos); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceMetersKnownSpan(t *testing.T) {
	// One degree of latitude on the reference sphere.
	a := model.Position{Latitude: 0, Longitude: 0}
	b := model.Position{Latitude: 1, Longitude: 0}
	d := DistanceMeters(a, b)
	want := math.Pi * earthRadiusMeters / 180
	if math.Abs(d-want) > 1 {
		t.Fatalf("expected ~%v, got %v", want, d)
	}
}
