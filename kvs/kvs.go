// Package kvs implements the Keyed Attribute Store: a bounded, concurrent
// map of namespaced attributes with per-entry TTL and glob-pattern scans.
package kvs

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zapdos-labs/videopipeline/videoframe"
)

const defaultCapacity = 100_000

// Key identifies a stored attribute by namespace and name.
type Key struct {
	Namespace string
	Name      string
}

type entry struct {
	attr      videoframe.Attribute
	expiresAt time.Time
	hasTTL    bool
}

func (e *entry) expired(now time.Time) bool {
	return e.hasTTL && now.After(e.expiresAt)
}

// Store is the KVS backing map: bounded and LRU-evicting under capacity
// pressure, with lazily expired TTL entries.
type Store struct {
	cache   *lru.Cache[Key, *entry]
	globs   *globCache
	metrics MetricsSink
}

// New constructs a Store with the given capacity. A capacity <= 0 uses the
// spec's default of 100,000 entries.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	cache, err := lru.New[Key, *entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("kvs: %w", err)
	}
	return &Store{cache: cache, globs: newGlobCache(), metrics: noopMetricsSink{}}, nil
}

// SetAttributes inserts or overwrites each attribute, resetting its TTL. A
// nil ttl means the entry never expires.
func (s *Store) SetAttributes(attrs []videoframe.Attribute, ttl *time.Duration) {
	now := time.Now()
	for _, a := range attrs {
		e := &entry{attr: a}
		if ttl != nil {
			e.hasTTL = true
			e.expiresAt = now.Add(*ttl)
		}
		if evicted := s.cache.Add(Key{Namespace: a.Namespace, Name: a.Name}, e); evicted {
			s.metrics.IncEvictions()
		}
	}
	s.metrics.SetSize(s.cache.Len())
}

// GetAttribute looks up an attribute; expired entries are not returned.
func (s *Store) GetAttribute(ns, name string) (videoframe.Attribute, bool) {
	key := Key{Namespace: ns, Name: name}
	e, ok := s.cache.Get(key)
	if !ok {
		return videoframe.Attribute{}, false
	}
	if e.expired(time.Now()) {
		s.cache.Remove(key)
		return videoframe.Attribute{}, false
	}
	return e.attr, true
}

// DelAttribute removes an attribute, returning its previous value if
// present and unexpired.
func (s *Store) DelAttribute(ns, name string) (videoframe.Attribute, bool) {
	key := Key{Namespace: ns, Name: name}
	e, ok := s.cache.Peek(key)
	s.cache.Remove(key)
	s.metrics.SetSize(s.cache.Len())
	if !ok || e.expired(time.Now()) {
		return videoframe.Attribute{}, false
	}
	return e.attr, true
}

// SearchAttributes scans for attributes whose namespace and name both
// match the given glob patterns (an empty pattern defaults to "*").
// Expired entries observed during the scan are skipped and evicted.
func (s *Store) SearchAttributes(nsPattern, namePattern string) ([]videoframe.Attribute, error) {
	nsGlob, nameGlob, err := s.globs.compilePair(nsPattern, namePattern)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []videoframe.Attribute
	for _, key := range s.cache.Keys() {
		if !nsGlob.Match(key.Namespace) || !nameGlob.Match(key.Name) {
			continue
		}
		e, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if e.expired(now) {
			s.cache.Remove(key)
			continue
		}
		out = append(out, e.attr)
	}
	return out, nil
}

// SearchKeys is SearchAttributes, returning only the matching keys.
func (s *Store) SearchKeys(nsPattern, namePattern string) ([]Key, error) {
	nsGlob, nameGlob, err := s.globs.compilePair(nsPattern, namePattern)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []Key
	for _, key := range s.cache.Keys() {
		if !nsGlob.Match(key.Namespace) || !nameGlob.Match(key.Name) {
			continue
		}
		e, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if e.expired(now) {
			s.cache.Remove(key)
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

// DelAttributes removes every entry matching the given glob patterns.
func (s *Store) DelAttributes(nsPattern, namePattern string) error {
	keys, err := s.SearchKeys(nsPattern, namePattern)
	if err != nil {
		return err
	}
	for _, key := range keys {
		s.cache.Remove(key)
	}
	s.metrics.SetSize(s.cache.Len())
	return nil
}

// Len reports the number of entries currently held, including any not yet
// lazily expired.
func (s *Store) Len() int { return s.cache.Len() }
