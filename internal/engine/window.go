package engine

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	ts   time.Time
	rssi int
}

// WindowStore keeps one time-bounded RSSI window per tracked tag.
// Windows are created lazily on first match and pruned on every access,
// so memory stays bounded over unattended operation even if a tag walks
// out of range and never returns.
type WindowStore struct {
	mu   sync.Mutex
	span time.Duration
	tags map[string][]sample
}

func NewWindowStore(span time.Duration) *WindowStore {
	if span <= 0 {
		span = 30 * time.Second
	}
	return &WindowStore{span: span, tags: make(map[string][]sample)}
}

func (w *WindowStore) Record(tag string, rssi int, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	live := pruneSamples(append(w.tags[tag], sample{ts: now, rssi: rssi}), now.Add(-w.span))
	w.tags[tag] = live
}

// MedianEstimate returns the median RSSI over the live window, or false
// when the window is empty or fully expired. Even-sized windows average
// the two central values. The sort happens on a copy; insertion order in
// the window itself is what pruning relies on.
func (w *WindowStore) MedianEstimate(tag string, now time.Time) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	live := pruneSamples(w.tags[tag], now.Add(-w.span))
	if len(live) == 0 {
		delete(w.tags, tag)
		return 0, false
	}
	w.tags[tag] = live
	values := make([]int, len(live))
	for i, s := range live {
		values[i] = s.rssi
	}
	sort.Ints(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return float64(values[mid]), true
	}
	return float64(values[mid-1]+values[mid]) / 2, true
}

// pruneSamples drops entries older than cutoff. Samples are appended in
// arrival order, so expiry only ever trims from the front.
func pruneSamples(samples []sample, cutoff time.Time) []sample {
	i := 0
	for i < len(samples) && samples[i].ts.Before(cutoff) {
		i++
	}
	if i == 0 {
		return samples
	}
	return append(samples[:0:0], samples[i:]...)
}
