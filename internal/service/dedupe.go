package service

import (
	"sync"
	"time"
)

// DefaultDedupeWindow is how long a provider message id is remembered.
const DefaultDedupeWindow = 10 * time.Minute

// Deduper remembers provider message ids so redelivered webhooks are
// processed once. Expired ids are dropped by Prune.
type Deduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Deduper{seen: make(map[string]time.Time), window: window, now: time.Now}
}

// Seen records id and reports whether it was already recorded within the window.
// Empty ids are never considered duplicates.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if when, ok := d.seen[id]; ok && now.Sub(when) <= d.window {
		return true
	}
	d.seen[id] = now
	return false
}

// Forget drops id so a later redelivery is processed again.
func (d *Deduper) Forget(id string) {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

// Prune removes expired ids and returns how many were dropped.
func (d *Deduper) Prune() int {
	cut := d.now().Add(-d.window)
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for k, v := range d.seen {
		if v.Before(cut) {
			delete(d.seen, k)
			n++
		}
	}
	return n
}

// size is the number of ids currently remembered.
func (d *Deduper) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
