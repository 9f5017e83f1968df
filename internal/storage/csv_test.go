package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/config"
	"github.com/denamwangi/katy-trail-live/internal/model"
)

func configFor(driver string) config.StorageConfig {
	return config.StorageConfig{Enabled: true, Driver: driver}
}

func TestCSVAppendsRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detections.csv")
	store, err := NewCSV(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	if err := store.SaveSighting(ctx, model.SightingRecord{Timestamp: ts, Token: "261900fb1113aa4d", RSSI: -67}); err != nil {
		t.Fatalf("save sighting: %v", err)
	}
	if err := store.SaveDispatch(ctx, model.DispatchRecord{Timestamp: ts, UniqueDevices: 3, TagCount: 1, Success: true}); err != nil {
		t.Fatalf("save dispatch: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sightings: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "timestamp,token,rssi" {
		t.Fatalf("header: %q", lines[0])
	}
	if lines[1] != "2026-08-26T12:00:00Z,261900fb1113aa4d,-67" {
		t.Fatalf("row: %q", lines[1])
	}

	dispatchData, err := os.ReadFile(filepath.Join(dir, "dispatches.csv"))
	if err != nil {
		t.Fatalf("read dispatches: %v", err)
	}
	if !strings.Contains(string(dispatchData), "2026-08-26T12:00:00Z,3,1,true") {
		t.Fatalf("dispatch row missing: %q", dispatchData)
	}
}

func TestCSVReopenAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detections.csv")
	ctx := context.Background()
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		store, err := NewCSV(path)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := store.Init(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}
		if err := store.SaveSighting(ctx, model.SightingRecord{Timestamp: ts, Token: "abc", RSSI: -50}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one header and two rows, got %d lines", len(lines))
	}
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := configFor("mysql")
	if _, err := NewStore(cfg); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestDisabledStorageIsNil(t *testing.T) {
	cfg := configFor("sqlite")
	cfg.Enabled = false
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil {
		t.Fatalf("expected nil store when disabled")
	}
}
