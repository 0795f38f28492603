// Package dedup keeps a bounded recent-window set of article content
// addresses so the news ingestor forwards each URL once.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// CanonicalURL normalizes a URL so that casing, fragments and trailing
// slashes do not produce distinct dedup keys.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), nil
}

// Fingerprint returns the content address of a canonicalized URL.
func Fingerprint(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

// Set is a bounded recent-window set. When it grows past capacity it is
// pruned back to 80%, dropping the oldest fingerprints first.
type Set struct {
	mu       sync.Mutex
	capacity int
	pruneTo  int
	seen     map[string]struct{}
	order    []string
}

const DefaultCapacity = 10000

// New creates a Set with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		capacity: capacity,
		pruneTo:  capacity * 8 / 10,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Seen records the fingerprint and reports whether it was already
// present. Safe for concurrent use.
func (s *Set) Seen(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[fingerprint]; ok {
		return true
	}

	s.seen[fingerprint] = struct{}{}
	s.order = append(s.order, fingerprint)

	if len(s.order) > s.capacity {
		s.prune()
	}
	return false
}

// Len returns the number of fingerprints currently held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Set) prune() {
	drop := len(s.order) - s.pruneTo
	if drop <= 0 {
		return
	}
	for _, fp := range s.order[:drop] {
		delete(s.seen, fp)
	}
	s.order = append(s.order[:0], s.order[drop:]...)
}
