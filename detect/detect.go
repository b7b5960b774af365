// Package detect flags cache keys that are normalized at a high rate.
package detect

import (
	"sync"
	"time"
)

// Alert reports a key that crossed the hot threshold.
type Alert struct {
	Key   string
	Count int
}

// Detector counts occurrences of each key inside a sliding window.
type Detector struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	cooldown  time.Duration
	seen      map[string][]time.Time
	lastAlert map[string]time.Time
}

// New creates a Detector.
// threshold: occurrences within window that make a key hot (e.g., 10).
// window: time window to count within (e.g., 1s).
// cooldown: minimum time between alerts for the same key (e.g., 30s).
func New(threshold int, window, cooldown time.Duration) *Detector {
	return &Detector{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		seen:      make(map[string][]time.Time),
		lastAlert: make(map[string]time.Time),
	}
}

// Result holds the outcome of a Record call.
type Result struct {
	// Hot is true while the key's count within the window is at or above
	// the threshold.
	Hot bool
	// Alert is non-nil only when the key turns hot, at most once per
	// cooldown.
	Alert *Alert
}

// Record registers one normalization of key at t.
func (d *Detector) Record(key string, t time.Time) Result {
	if key == "" || d.threshold <= 0 {
		return Result{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	times := evict(d.seen[key], t.Add(-d.window))
	times = append(times, t)
	d.seen[key] = times

	if len(times) < d.threshold {
		return Result{}
	}

	res := Result{Hot: true}
	if last, ok := d.lastAlert[key]; !ok || t.Sub(last) >= d.cooldown {
		d.lastAlert[key] = t
		res.Alert = &Alert{Key: key, Count: len(times)}
	}
	return res
}

// Sweep drops keys with no occurrence inside the window ending at now and
// returns how many were dropped. Long-running callers invoke it
// periodically so that one-off keys do not accumulate.
func (d *Detector) Sweep(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.window)
	dropped := 0
	for key, times := range d.seen {
		if len(evict(times, cutoff)) > 0 {
			continue
		}
		delete(d.seen, key)
		if last, ok := d.lastAlert[key]; !ok || now.Sub(last) >= d.cooldown {
			delete(d.lastAlert, key)
		}
		dropped++
	}
	return dropped
}

// Len returns the number of keys currently tracked.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func evict(times []time.Time, cutoff time.Time) []time.Time {
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
