// Copyright 2016 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides the bounded, byte-budgeted subroot cache
// described in spec §4.4: keyed by (offset, width) with width a power
// of two at or above a threshold, LRU-evicted by a total byte budget
// rather than entry count, safe for concurrent readers.
package cache

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Key identifies a cached subroot: the digest of root(offset, 2^k).
type Key struct {
	Offset uint64
	Width  uint64
}

// Cache is a thread-safe, byte-budgeted LRU over subroot digests.
// Subroots covering already-appended, immutable ranges never go stale
// (spec §4.4), so this cache never needs invalidation, only eviction
// for memory. Inserts are idempotent: concurrent misses on the same
// key may each compute a value, but the cache settles on one (spec §5).
type Cache struct {
	mu           sync.Mutex
	inner        *lru.Cache[Key, []byte]
	capacityByte uint64
	usedBytes    uint64
	log          zerolog.Logger
}

// New builds a Cache with the given byte budget. capacityBytes must be
// positive; entryHint bounds the underlying LRU's entry count (a large,
// generous ceiling — actual eviction is governed by capacityBytes).
// Every digest is at least one byte, so a ceiling of capacityBytes
// entries is never reached before the byte budget is.
func New(capacityBytes uint64, log zerolog.Logger) *Cache {
	entryHint := int(min(capacityBytes, uint64(math.MaxInt)))
	inner, err := lru.New[Key, []byte](entryHint)
	if err != nil {
		// lru.New only fails for size <= 0, which entryHint is only
		// when capacityBytes is zero.
		panic(err)
	}
	return &Cache{inner: inner, capacityByte: capacityBytes, log: log}
}

// Get returns the cached digest for key, if present.
func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.inner.Get(key)
	if ok {
		c.log.Debug().Uint64("offset", key.Offset).Uint64("width", key.Width).Msg("subroot cache hit")
	}
	return v, ok
}

// Put inserts digest under key, evicting least-recently-used entries
// until the total byte budget is respected. If key is already present
// (a concurrent miss resolved by another goroutine first), Put is a
// no-op: inserts are idempotent (spec §5).
func (c *Cache) Put(key Key, digest []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inner.Peek(key); ok {
		return
	}

	c.inner.Add(key, digest)
	c.usedBytes += uint64(len(digest))

	for c.usedBytes > c.capacityByte {
		oldKey, oldVal, ok := c.inner.RemoveOldest()
		if !ok {
			break
		}
		c.usedBytes -= uint64(len(oldVal))
		c.log.Debug().Uint64("offset", oldKey.Offset).Uint64("width", oldKey.Width).Msg("subroot cache eviction")
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}
