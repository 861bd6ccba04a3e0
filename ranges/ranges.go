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

// Package ranges computes root(offset, width): the digest of the
// subtree spanning a contiguous leaf range, under the Sakura topology
// that never duplicates a lonely leaf (spec §4.3). It decomposes width
// into a strictly decreasing sum of power-of-two "subroots", computes
// each subroot iteratively over a leaf-digest working buffer, folds
// them right to left, and optionally consults a bounded subroot cache
// (spec §4.4). A naive recursive fallback is kept for differential
// testing against the optimized path (spec §4.7 disable_subroot_iteration).
package ranges

import (
	"context"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/cache"
	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/storage"
)

// Span identifies a power-of-two-sized leaf range [Offset, Offset+Width)
// within the Sakura decomposition of a larger range.
type Span struct {
	Offset uint64
	Width  uint64
}

// Decompose returns the exponents k1 > k2 > ... > kr >= 0 such that
// width = 2^k1 + 2^k2 + ... + 2^kr (spec §4.3 step 1). Exponents are
// returned in strictly decreasing order; an empty slice means width == 0.
func Decompose(width uint64) []uint64 {
	if width == 0 {
		return nil
	}
	var exps []uint64
	for b := bits.Len64(width) - 1; b >= 0; b-- {
		if width&(uint64(1)<<uint(b)) != 0 {
			exps = append(exps, uint64(b))
		}
	}
	return exps
}

// Subranges returns the left-to-right sequence of power-of-two subroot
// spans covering [offset, offset+width), per the same decomposition
// Decompose describes (spec §4.3 step 2).
func Subranges(offset, width uint64) []Span {
	exps := Decompose(width)
	spans := make([]Span, len(exps))
	o := offset
	for i, k := range exps {
		w := uint64(1) << k
		spans[i] = Span{Offset: o, Width: w}
		o += w
	}
	return spans
}

// Engine computes root() and subroot digests against a storage backend,
// optionally consulting a subroot cache.
type Engine struct {
	Backend   storage.Backend
	Hasher    *hash.Hasher
	Cache     *cache.Cache // nil disables caching entirely
	Threshold uint64       // minimum power-of-two width eligible for caching
	// Naive forces Root through the unbounded recursive definition
	// (disable_subroot_iteration), for differential testing only.
	Naive bool
	Log   zerolog.Logger
}

// Root computes root(offset, width): the digest over leaf indices
// [offset+1, offset+width] (spec §4.3).
func (e *Engine) Root(ctx context.Context, offset, width uint64) ([]byte, error) {
	if width == 0 {
		return e.Hasher.HashEmpty(), nil
	}
	if e.Naive {
		return e.naiveRoot(ctx, offset, width)
	}
	if width == 1 {
		return e.leaf(ctx, offset)
	}

	spans := Subranges(offset, width)
	acc, err := e.Subroot(ctx, spans[len(spans)-1])
	if err != nil {
		return nil, err
	}
	for i := len(spans) - 2; i >= 0; i-- {
		left, err := e.Subroot(ctx, spans[i])
		if err != nil {
			return nil, err
		}
		acc = e.Hasher.HashNodes(left, acc)
	}
	return acc, nil
}

// Subroot computes root(span.Offset, span.Width) for a power-of-two
// span, consulting the cache first when span.Width is at or above the
// configured threshold (spec §4.4).
func (e *Engine) Subroot(ctx context.Context, span Span) ([]byte, error) {
	if span.Width == 1 {
		return e.leaf(ctx, span.Offset)
	}

	cacheable := e.Cache != nil && span.Width >= e.Threshold
	key := cache.Key{Offset: span.Offset, Width: span.Width}
	if cacheable {
		if v, ok := e.Cache.Get(key); ok {
			return v, nil
		}
	}

	digest, err := e.computeSubroot(ctx, span)
	if err != nil {
		return nil, err
	}

	if cacheable {
		e.Cache.Put(key, digest)
	}
	return digest, nil
}

// computeSubroot builds span's digest iteratively: fetch the leaf
// digests covering the span in one batch, then fold pairs bottom-up
// over a working buffer bounded by span.Width digests (spec §4.3
// "Memory discipline").
func (e *Engine) computeSubroot(ctx context.Context, span Span) ([]byte, error) {
	buf, err := e.Backend.Leaves(ctx, span.Offset, span.Width)
	if err != nil {
		return nil, apperr.NewBackendError(err, "fetching leaves for subroot")
	}
	for n := len(buf); n > 1; n /= 2 {
		next := make([][]byte, n/2)
		for i := 0; i < n/2; i++ {
			next[i] = e.Hasher.HashNodes(buf[2*i], buf[2*i+1])
		}
		buf = next
	}
	return buf[0], nil
}

func (e *Engine) leaf(ctx context.Context, offset uint64) ([]byte, error) {
	d, err := e.Backend.Leaf(ctx, offset+1)
	if err != nil {
		return nil, apperr.NewBackendError(err, "fetching leaf")
	}
	return d, nil
}

// naiveRoot implements spec §4.3's "General case" formula directly,
// recursing without decomposition or caching. It exists only so this
// package's tests can check it against Root for agreement
// (disable_subroot_iteration).
func (e *Engine) naiveRoot(ctx context.Context, offset, width uint64) ([]byte, error) {
	if width == 0 {
		return e.Hasher.HashEmpty(), nil
	}
	if width == 1 {
		return e.leaf(ctx, offset)
	}
	p := SplitPoint(width)
	left, err := e.naiveRoot(ctx, offset, p)
	if err != nil {
		return nil, err
	}
	right, err := e.naiveRoot(ctx, offset+p, width-p)
	if err != nil {
		return nil, err
	}
	return e.Hasher.HashNodes(left, right), nil
}

// SplitPoint returns the largest power of two p such that p <= width,
// except when width is itself a power of two, in which case it returns
// width/2 (spec §4.3: "use the smaller power"). This is the split used
// both by Root's general-case formula and by consistency-proof
// recursion, which descends the same Sakura topology.
func SplitPoint(width uint64) uint64 {
	if width&(width-1) == 0 {
		return width / 2
	}
	return uint64(1) << uint(bits.Len64(width)-1)
}
