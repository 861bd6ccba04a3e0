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

// Package storage defines the backend trait the core requires: an
// append-only, indexed store of leaf digests. The core never touches
// files or databases directly; it only calls through this interface
// (spec §4.2, §6.1).
package storage

import "context"

// Backend is the trait a concrete storage implementation must satisfy.
// Indices are 1-based; the backend is responsible for hashing entries
// at append time using the tree's configured hasher and returning those
// precomputed digests from Leaf/Leaves thereafter (spec §6.1, §9).
type Backend interface {
	// Size returns the number of leaves currently stored.
	Size(ctx context.Context) (uint64, error)

	// Append stores entry, computing and persisting its leaf digest, and
	// returns the new 1-based index.
	Append(ctx context.Context, entry []byte) (uint64, error)

	// Leaf returns the digest at the given 1-based index. index must lie
	// in [1, size]; out-of-range is apperr.IndexOutOfRange.
	Leaf(ctx context.Context, index uint64) ([]byte, error)

	// Leaves returns the ordered digests covering 0-based range
	// [offset, offset+width), i.e. 1-based indices [offset+1, offset+width].
	// offset+width must not exceed size.
	Leaves(ctx context.Context, offset, width uint64) ([][]byte, error)
}
