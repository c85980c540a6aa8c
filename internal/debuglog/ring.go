package debuglog

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory diagnostics buffer. The buffer is
// purely diagnostic; dropping the oldest entries never affects correctness.
const DefaultCapacity = 100

type Entry struct {
	At      time.Time `json:"at"`
	Scope   string    `json:"scope"`
	Message string    `json:"message"`
}

// Ring is a bounded append-only log of recent diagnostic entries. Oldest
// entries are evicted first once capacity is reached. Safe for concurrent
// use. Construct with New and inject where needed; there is no package-level
// instance.
type Ring struct {
	mu       sync.Mutex
	entries  []Entry
	start    int
	size     int
	capacity int
}

func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Add records a diagnostic entry, evicting the oldest when full.
func (r *Ring) Add(scope, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.start + r.size) % r.capacity
	r.entries[idx] = Entry{At: time.Now().UTC(), Scope: scope, Message: message}
	if r.size < r.capacity {
		r.size++
	} else {
		r.start = (r.start + 1) % r.capacity
	}
}

// Snapshot returns the buffered entries oldest-first.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%r.capacity]
	}
	return out
}

// Len returns the current number of buffered entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
