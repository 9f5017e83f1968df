package engine

import (
	"testing"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

func TestResolveByNameCanonicalCasing(t *testing.T) {
	a := NewAllowlist([]string{"TrailCounter-A", "Beacon-B"})
	tag, ok := a.Resolve(model.Sighting{Address: "11:22:33:44:55:66", Name: "trailcounter-a"})
	if !ok {
		t.Fatalf("expected match")
	}
	if tag != "TrailCounter-A" {
		t.Fatalf("expected canonical casing, got %q", tag)
	}
}

func TestResolveByNameExactBeatsFolded(t *testing.T) {
	a := NewAllowlist([]string{"Beacon-B"})
	tag, ok := a.Resolve(model.Sighting{Address: "11:22:33:44:55:66", Name: "Beacon-B"})
	if !ok || tag != "Beacon-B" {
		t.Fatalf("expected exact name match, got %q ok=%v", tag, ok)
	}
}

func TestResolveByServiceID(t *testing.T) {
	a := NewAllowlist([]string{"0000feaa-0000-1000-8000-00805f9b34fb"})
	s := model.Sighting{
		Address:    "11:22:33:44:55:66",
		ServiceIDs: []string{"0000FEAA-0000-1000-8000-00805F9B34FB"},
	}
	tag, ok := a.Resolve(s)
	if !ok {
		t.Fatalf("expected service id match")
	}
	if tag != "0000feaa-0000-1000-8000-00805f9b34fb" {
		t.Fatalf("expected configured casing, got %q", tag)
	}
}

func TestResolveByAddressFallback(t *testing.T) {
	a := NewAllowlist([]string{"aa:bb:cc:dd:ee:ff"})
	tag, ok := a.Resolve(model.Sighting{Address: "AA:BB:CC:DD:EE:FF"})
	if !ok || tag != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("expected address fallback match, got %q ok=%v", tag, ok)
	}
}

func TestResolveNameWinsOverAddress(t *testing.T) {
	a := NewAllowlist([]string{"TrailCounter-A", "AA:BB:CC:DD:EE:FF"})
	tag, ok := a.Resolve(model.Sighting{Address: "AA:BB:CC:DD:EE:FF", Name: "TrailCounter-A"})
	if !ok || tag != "TrailCounter-A" {
		t.Fatalf("expected name match to win, got %q", tag)
	}
}

func TestResolveNoMatch(t *testing.T) {
	a := NewAllowlist([]string{"TrailCounter-A"})
	if _, ok := a.Resolve(model.Sighting{Address: "11:22:33:44:55:66", Name: "SomePhone"}); ok {
		t.Fatalf("expected no match")
	}
}

func TestDuplicateEntriesAreOneIdentity(t *testing.T) {
	a := NewAllowlist([]string{"TrailCounter-A", "TRAILCOUNTER-A"})
	if a.Len() != 1 {
		t.Fatalf("expected one identity, got %d", a.Len())
	}
	tag, ok := a.Resolve(model.Sighting{Address: "11:22:33:44:55:66", Name: "Trailcounter-A"})
	if !ok || tag != "TrailCounter-A" {
		t.Fatalf("expected first casing to win, got %q", tag)
	}
}

func TestEmptyEntriesSkipped(t *testing.T) {
	a := NewAllowlist([]string{"", "  ", "TrailCounter-A"})
	if a.Len() != 1 {
		t.Fatalf("expected one identity, got %d", a.Len())
	}
}
