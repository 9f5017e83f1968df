package engine

import (
	"testing"
	"time"
)

func TestMedianOddCount(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	now := time.Now().UTC()
	w.Record("tag", -60, now)
	w.Record("tag", -65, now.Add(time.Second))
	w.Record("tag", -70, now.Add(2*time.Second))
	est, ok := w.MedianEstimate("tag", now.Add(2*time.Second))
	if !ok {
		t.Fatalf("expected estimate")
	}
	if est != -65 {
		t.Fatalf("expected -65, got %v", est)
	}
}

func TestMedianEvenCount(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	now := time.Now().UTC()
	w.Record("tag", -60, now)
	w.Record("tag", -70, now.Add(time.Second))
	est, ok := w.MedianEstimate("tag", now.Add(time.Second))
	if !ok {
		t.Fatalf("expected estimate")
	}
	if est != -65.0 {
		t.Fatalf("expected -65.0, got %v", est)
	}
}

func TestMedianEmptyWindow(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	if _, ok := w.MedianEstimate("never-seen", time.Now()); ok {
		t.Fatalf("expected no estimate for unknown tag")
	}
}

func TestExpiryWithoutExplicitPrune(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	now := time.Now().UTC()
	w.Record("tag", -60, now)
	// No further Record calls; the read alone must exclude expired
	// samples.
	if _, ok := w.MedianEstimate("tag", now.Add(31*time.Second)); ok {
		t.Fatalf("expected fully-expired window to yield no estimate")
	}
}

func TestPartialExpiry(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	now := time.Now().UTC()
	w.Record("tag", -90, now)
	w.Record("tag", -60, now.Add(25*time.Second))
	w.Record("tag", -62, now.Add(28*time.Second))
	est, ok := w.MedianEstimate("tag", now.Add(40*time.Second))
	if !ok {
		t.Fatalf("expected estimate from surviving samples")
	}
	if est != -61.0 {
		t.Fatalf("expected -61.0 after oldest sample expired, got %v", est)
	}
}

func TestRecordPrunesOnWrite(t *testing.T) {
	w := NewWindowStore(30 * time.Second)
	now := time.Now().UTC()
	w.Record("tag", -90, now)
	w.Record("tag", -60, now.Add(35*time.Second))
	est, ok := w.MedianEstimate("tag", now.Add(35*time.Second))
	if !ok {
		t.Fatalf("expected estimate")
	}
	if est != -60 {
		t.Fatalf("expected only the fresh sample to survive, got %v", est)
	}
}
