package nav

import (
	"net/url"
	"sync"
)

// Entry is one history entry: a path plus its query.
type Entry struct {
	Path  string
	Query url.Values
}

func (e Entry) clone() Entry {
	return Entry{Path: e.Path, Query: CloneQuery(e.Query)}
}

// History models the browser history list: a slice of entries plus a
// cursor. Push appends after the cursor and truncates any forward
// entries, Replace swaps the current entry in place, Back and Forward
// move the cursor. All entries are copied on the way in and out so
// callers can never alias internal state.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	idx     int
}

// NewHistory creates a history whose single entry is initial.
func NewHistory(initial Entry) *History {
	return &History{
		entries: []Entry{initial.clone()},
	}
}

// Push appends a new entry after the cursor, dropping any forward
// entries, and moves the cursor to it.
func (h *History) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.idx+1], e.clone())
	h.idx = len(h.entries) - 1
}

// Replace swaps the current entry in place. The cursor does not move and
// the history length is unchanged.
func (h *History) Replace(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.idx] = e.clone()
}

// Back moves the cursor one entry back.
// Returns the new current entry, or ok=false if already at the oldest.
func (h *History) Back() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx == 0 {
		return Entry{}, false
	}
	h.idx--
	return h.entries[h.idx].clone(), true
}

// Forward moves the cursor one entry forward.
// Returns the new current entry, or ok=false if already at the newest.
func (h *History) Forward() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx >= len(h.entries)-1 {
		return Entry{}, false
	}
	h.idx++
	return h.entries[h.idx].clone(), true
}

// Current returns the entry at the cursor.
func (h *History) Current() Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[h.idx].clone()
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
