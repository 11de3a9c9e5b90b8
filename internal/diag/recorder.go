// Package diag surfaces chat-layer failures that would otherwise only be
// swallowed by logs. The store and the synchronization controller report
// errors here; the debug HTTP server exposes them for inspection.
package diag

import (
	"log"
	"sync"
	"time"
)

const maxEntries = 100

// Entry is one recorded failure.
type Entry struct {
	Time      time.Time `json:"time"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
}

// Recorder keeps a bounded ring of the most recent failures.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record logs the failure and retains it for the diagnostics surface.
// A nil error is ignored.
func (r *Recorder) Record(component string, err error) {
	if err == nil {
		return
	}
	log.Printf("[%s] %v", component, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Time:      time.Now().UTC(),
		Component: component,
		Message:   err.Error(),
	})
	if len(r.entries) > maxEntries {
		r.entries = r.entries[len(r.entries)-maxEntries:]
	}
}

// Recent returns the retained failures, oldest first.
func (r *Recorder) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
