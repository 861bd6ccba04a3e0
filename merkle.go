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

// Package merkle binds the hasher, storage backend, range computation
// and subroot cache behind the tree façade spec §4.7 describes:
// append, get_size, get_state, get_leaf, prove_inclusion,
// prove_consistency. This is the only layer that exposes the 1-based
// leaf-index convention spec.md's data model uses (§3) to callers of
// the proof APIs; ranges and proof are 0-based, matching the wider
// Merkle corpus, and ranges converts to the storage trait's 1-based
// Leaf index itself.
package merkle

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/cache"
	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/proof"
	"github.com/dendrite-log/merkle/ranges"
	"github.com/dendrite-log/merkle/storage"
)

const (
	defaultCacheThreshold     = 128
	defaultCacheCapacityBytes = 1 << 30
)

// Options are the tree's construction-time parameters (spec §4.7).
type Options struct {
	Algorithm hash.Algorithm
	// Security enables hash_leaf/hash_nodes domain separation.
	// Defaults to true; set explicitly false to disable it.
	Security *bool
	// CacheThreshold is the minimum power-of-two subroot width eligible
	// for caching. Zero selects the default (128).
	CacheThreshold uint64
	// CacheCapacityBytes bounds the subroot cache's total digest bytes.
	// Zero selects the default (2^30).
	CacheCapacityBytes uint64
	// DisableCache turns off subroot caching entirely.
	DisableCache bool
	// DisableSubrootIteration forces root computation through the
	// naive recursive definition. Reserved for testing (spec §4.7).
	DisableSubrootIteration bool
	// Log receives structured append/cache/backend events. The zero
	// value is a disabled logger (no module-level global, per spec §9).
	Log zerolog.Logger
}

func (o Options) security() bool {
	if o.Security == nil {
		return true
	}
	return *o.Security
}

func (o Options) cacheThreshold() uint64 {
	if o.CacheThreshold == 0 {
		return defaultCacheThreshold
	}
	return o.CacheThreshold
}

func (o Options) cacheCapacityBytes() uint64 {
	if o.CacheCapacityBytes == 0 {
		return defaultCacheCapacityBytes
	}
	return o.CacheCapacityBytes
}

// Tree composes a hasher, a storage backend and a range engine behind
// the operations spec §4.7 names. It holds no cryptographic material
// of its own; all state lives in the backend.
type Tree struct {
	hasher  *hash.Hasher
	backend storage.Backend
	engine  *ranges.Engine
	log     zerolog.Logger
}

// New constructs a Tree over backend, configured by opts. Unsupported
// algorithm names are rejected immediately (spec §4.1).
func New(backend storage.Backend, opts Options) (*Tree, error) {
	h, err := hash.New(opts.Algorithm, opts.security())
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if !opts.DisableCache {
		c = cache.New(opts.cacheCapacityBytes(), opts.Log)
	}

	engine := &ranges.Engine{
		Backend:   backend,
		Hasher:    h,
		Cache:     c,
		Threshold: opts.cacheThreshold(),
		Naive:     opts.DisableSubrootIteration,
		Log:       opts.Log,
	}

	return &Tree{hasher: h, backend: backend, engine: engine, log: opts.Log}, nil
}

// Append stores entry via the backend and returns its new 1-based index.
func (t *Tree) Append(ctx context.Context, entry []byte) (uint64, error) {
	index, err := t.backend.Append(ctx, entry)
	if err != nil {
		return 0, err
	}
	t.log.Debug().Uint64("index", index).Msg("tree append")
	return index, nil
}

// GetSize returns the current number of leaves.
func (t *Tree) GetSize(ctx context.Context) (uint64, error) {
	return t.backend.Size(ctx)
}

// GetState returns root(0, size) for the current tree size, or
// hash_empty() if the tree holds no leaves.
func (t *Tree) GetState(ctx context.Context) ([]byte, error) {
	size, err := t.backend.Size(ctx)
	if err != nil {
		return nil, err
	}
	return t.GetStateAt(ctx, size)
}

// GetStateAt returns root(0, size) for an arbitrary 0 <= size <= current size.
func (t *Tree) GetStateAt(ctx context.Context, size uint64) ([]byte, error) {
	current, err := t.backend.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size > current {
		return nil, apperr.NewInvalidChallenge("requested size %d exceeds tree size %d", size, current)
	}
	return t.engine.Root(ctx, 0, size)
}

// GetLeaf returns the digest at 1-based index.
func (t *Tree) GetLeaf(ctx context.Context, index uint64) ([]byte, error) {
	return t.backend.Leaf(ctx, index)
}

// ProveInclusion builds the proof that the leaf at 1-based index
// participates in the tree of the given size. 1 <= index <= size <= tree size.
func (t *Tree) ProveInclusion(ctx context.Context, index, size uint64) (*proof.Proof, error) {
	current, err := t.backend.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size > current {
		return nil, apperr.NewInvalidChallenge("requested size %d exceeds tree size %d", size, current)
	}
	if index < 1 || index > size {
		return nil, apperr.NewInvalidChallenge("inclusion index %d out of range for size %d", index, size)
	}
	return proof.ProveInclusion(ctx, t.engine, index-1, size)
}

// ProveConsistency builds the proof that the tree of size1 is a prefix
// of the tree of size2. 0 <= size1 <= size2 <= tree size.
func (t *Tree) ProveConsistency(ctx context.Context, size1, size2 uint64) (*proof.Proof, error) {
	current, err := t.backend.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size2 > current {
		return nil, apperr.NewInvalidChallenge("requested size %d exceeds tree size %d", size2, current)
	}
	return proof.ProveConsistency(ctx, t.engine, size1, size2)
}

// VerifyInclusion verifies proof against base and target using the
// algorithm and security policy recorded in proof.Metadata.
func VerifyInclusion(base, target []byte, p *proof.Proof) error {
	h, err := hash.New(p.Metadata.Algorithm, p.Metadata.Security)
	if err != nil {
		return err
	}
	return proof.VerifyInclusion(h, base, target, p)
}

// VerifyConsistency verifies proof against state1 and state2 using the
// algorithm and security policy recorded in proof.Metadata.
func VerifyConsistency(state1, state2 []byte, p *proof.Proof) error {
	h, err := hash.New(p.Metadata.Algorithm, p.Metadata.Security)
	if err != nil {
		return err
	}
	return proof.VerifyConsistency(h, state1, state2, p)
}
