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

// Package memory is the trivial in-memory reference backend (spec
// §6.3): a contiguous slice of (entry, leaf digest) pairs, guarded by
// a mutex so append and concurrent reads are safe together (spec §5).
package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
)

type leafRecord struct {
	entry  []byte
	digest []byte
}

// Backend is an in-memory storage.Backend implementation. It computes
// each leaf's digest at Append time using the configured Hasher, per
// the precompute-at-append mandate (spec §6.1, §9).
type Backend struct {
	mu     sync.RWMutex
	hasher *hash.Hasher
	leaves []leafRecord
	log    zerolog.Logger
}

// New builds an empty in-memory backend hashing entries with hasher.
func New(hasher *hash.Hasher, log zerolog.Logger) *Backend {
	return &Backend{hasher: hasher, log: log}
}

// Size returns the number of leaves currently stored.
func (b *Backend) Size(ctx context.Context) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint64(len(b.leaves)), nil
}

// Append stores entry, computing its leaf digest, and returns the new
// 1-based index.
func (b *Backend) Append(ctx context.Context, entry []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	digest := b.hasher.HashLeaf(entry)
	b.leaves = append(b.leaves, leafRecord{entry: entry, digest: digest})
	index := uint64(len(b.leaves))
	b.log.Debug().Uint64("index", index).Msg("appended entry")
	return index, nil
}

// Leaf returns the digest at the given 1-based index.
func (b *Backend) Leaf(ctx context.Context, index uint64) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 1 || index > uint64(len(b.leaves)) {
		return nil, apperr.NewIndexOutOfRange(index, uint64(len(b.leaves)))
	}
	return b.leaves[index-1].digest, nil
}

// Leaves returns the ordered digests covering 0-based [offset, offset+width).
func (b *Backend) Leaves(ctx context.Context, offset, width uint64) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset+width > uint64(len(b.leaves)) {
		return nil, apperr.NewIndexOutOfRange(offset+width, uint64(len(b.leaves)))
	}
	out := make([][]byte, width)
	for i := uint64(0); i < width; i++ {
		out[i] = b.leaves[offset+i].digest
	}
	return out, nil
}

// Entry returns the raw entry stored at the given 1-based index, for
// callers (e.g. visualization/testing tooling) that need the original
// blob rather than its digest (spec §9: in-memory reference implementations
// may expose more than the core contract).
func (b *Backend) Entry(index uint64) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 1 || index > uint64(len(b.leaves)) {
		return nil, apperr.NewIndexOutOfRange(index, uint64(len(b.leaves)))
	}
	return b.leaves[index-1].entry, nil
}
