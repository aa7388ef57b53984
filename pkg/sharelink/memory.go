package sharelink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// MemoryStore keeps share links in process memory.
type MemoryStore struct {
	maxLinks int

	mu    sync.RWMutex
	links map[string]Link
	byLoc map[string]string // "path?query" -> code, makes Save idempotent
}

// NewMemoryStore creates a new MemoryStore.
//
// maxLinks caps the number of stored links (0 = no limit). Save returns
// ErrStoreFull at the cap; expired links are reclaimed by Cleanup.
func NewMemoryStore(maxLinks int) *MemoryStore {
	return &MemoryStore{
		maxLinks: maxLinks,
		links:    make(map[string]Link),
		byLoc:    make(map[string]string),
	}
}

// Save stores the location and returns its code. Saving a location that
// is already stored returns the existing code.
func (s *MemoryStore) Save(ctx context.Context, path, query string) (string, error) {
	loc := path + "?" + query

	s.mu.Lock()
	defer s.mu.Unlock()

	if code, ok := s.byLoc[loc]; ok {
		return code, nil
	}
	if s.maxLinks > 0 && len(s.links) >= s.maxLinks {
		return "", ErrStoreFull
	}

	code := generateCode()
	for _, taken := s.links[code]; taken; _, taken = s.links[code] {
		code = generateCode()
	}

	s.links[code] = Link{
		Code:      code,
		Path:      path,
		Query:     query,
		CreatedAt: time.Now(),
	}
	s.byLoc[loc] = code
	return code, nil
}

// Load retrieves a link by code.
func (s *MemoryStore) Load(ctx context.Context, code string) (Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[code]
	if !ok {
		return Link{}, ErrNotFound
	}
	return link, nil
}

// Cleanup removes links older than maxAge.
func (s *MemoryStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	for code, link := range s.links {
		if link.CreatedAt.Before(cutoff) {
			delete(s.links, code)
			delete(s.byLoc, link.Path+"?"+link.Query)
		}
	}
	return nil
}

// Len reports the number of stored links.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// generateCode generates a cryptographically random share code.
func generateCode() string {
	b := make([]byte, 6)
	rand.Read(b)
	return hex.EncodeToString(b)
}
