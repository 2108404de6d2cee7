// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package objstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryObject is an object held by a MemoryBucket.
type MemoryObject struct {
	Data        []byte
	ContentType string
}

// MemoryBucket keeps objects in process memory. Used for local development
// without S3 credentials and in tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	baseURL string

	// FailDelete makes Delete and DeleteMany fail, for exercising cleanup paths.
	FailDelete bool
}

func NewMemory(baseURL string) *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]MemoryObject), baseURL: baseURL}
}

func (b *MemoryBucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("object %s: expected %d bytes, got %d", key, size, len(data))
	}

	b.mu.Lock()
	b.objects[key] = MemoryObject{Data: data, ContentType: contentType}
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete {
		return fmt.Errorf("failed to delete %s: storage unavailable", key)
	}
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) DeleteMany(ctx context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete {
		return fmt.Errorf("failed to delete %d objects: storage unavailable", len(keys))
	}
	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil
}

func (b *MemoryBucket) URL(key string) string {
	return joinURL(b.baseURL, key)
}

// Get returns the stored object.
func (b *MemoryBucket) Get(key string) (MemoryObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return MemoryObject{}, ErrObjectNotFound
	}
	return obj, nil
}

func (b *MemoryBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
