// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"sync"
	"time"

	"github.com/yorticia/yorticia-site/metrics"
)

// Tags shared by the gallery and calendar services
const (
	TagGallery  = "gallery"
	TagCalendar = "calendar"
)

// CategoryTag is attached to every listing of one gallery category.
func CategoryTag(category string) string {
	return "gallery:" + category
}

// ImageTag is attached to every entry that contains the image.
func ImageTag(id string) string {
	return "image:" + id
}

type entry struct {
	value     any
	tags      []string
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache whose entries carry invalidation tags.
// Writers invalidate by tag instead of tracking individual keys.
type Cache struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	byTag   map[string]map[string]struct{}
}

func New(name string, ttl time.Duration) *Cache {
	return &Cache{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
		byTag:   make(map[string]map[string]struct{}),
	}
}

// Get returns the cached value. Expired entries count as misses and are dropped.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if cur, still := c.entries[key]; still && c.now().After(cur.expiresAt) {
			c.removeLocked(key)
		}
		c.mu.Unlock()
		ok = false
	}

	metrics.RecordCacheLookup(c.name, ok)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given tags, replacing any previous entry.
func (c *Cache) Set(key string, value any, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = entry{
		value:     value,
		tags:      tags,
		expiresAt: c.now().Add(c.ttl),
	}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateTag drops every entry carrying any of the tags and returns how
// many entries were removed.
func (c *Cache) InvalidateTag(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for _, tag := range tags {
		for key := range c.byTag[tag] {
			if _, ok := c.entries[key]; ok {
				c.removeLocked(key)
				dropped++
			}
		}
		delete(c.byTag, tag)
	}

	if dropped > 0 {
		metrics.RecordCacheInvalidation(c.name, dropped)
	}
	return dropped
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.byTag = make(map[string]map[string]struct{})
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, tag := range e.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}
