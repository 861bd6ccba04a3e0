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

// Package proof builds and verifies inclusion and consistency proofs
// over the Sakura topology (spec §4.5, §4.6). Indices and sizes here
// are 0-based, leaf-count style ranges, matching ranges.Engine; the
// 1-based conversion lives solely at the merkle façade.
package proof

import (
	"context"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/ranges"
)

// Direction records which side of the running accumulator a path
// digest belongs on when folded (spec §4.5.1: "0 = left sibling,
// 1 = right sibling").
type Direction uint8

const (
	Left  Direction = 0
	Right Direction = 1
)

// Metadata is the target size and hash configuration a proof was
// produced against (spec §3).
type Metadata struct {
	Algorithm hash.Algorithm `json:"algorithm"`
	Security  bool           `json:"security"`
	Size      uint64         `json:"size"`
}

// Proof is the tagged record spec §3 describes: an ordered path of
// digests, a parallel fold direction per digest, and a subset marking
// which path entries additionally fold to an earlier state.
type Proof struct {
	Metadata Metadata
	Path     [][]byte
	Rule     []Direction
	Subset   []bool
	// Leaf is the digest of the leaf this inclusion proof was built
	// for, recorded at construction time (spec §4.6 step 3: "the
	// intended base index is derivable" — here, from the prover's own
	// view of which leaf it audited). Nil for consistency proofs,
	// which have no single base leaf. VerifyInclusion compares the
	// caller's base against it before folding, so a wrong base is
	// reported as BaseMismatch instead of the generic StateMismatch.
	Leaf []byte
}

// FoldWithBase accumulates path under rule starting from an externally
// supplied base (spec §4.6 verify_inclusion: "Fold proof.path under
// proof.rule starting from acc = base"). Every element of path carries
// a real direction.
func FoldWithBase(h *hash.Hasher, base []byte, path [][]byte, rule []Direction) []byte {
	acc := base
	for i, d := range path {
		if rule[i] == Left {
			acc = h.HashNodes(d, acc)
		} else {
			acc = h.HashNodes(acc, d)
		}
	}
	return acc
}

// FoldSelf folds a self-contained path whose first element is its own
// seed (rule[0] is an unused placeholder) — the shape consistency
// proofs use for both the prior-state and later-state folds (spec
// §4.5.2, §4.6). An empty path has no seed; callers substitute
// hash_empty() per spec's empty-tree law.
func FoldSelf(h *hash.Hasher, path [][]byte, rule []Direction) []byte {
	if len(path) == 0 {
		return nil
	}
	acc := path[0]
	for i := 1; i < len(path); i++ {
		if rule[i] == Left {
			acc = h.HashNodes(path[i], acc)
		} else {
			acc = h.HashNodes(acc, path[i])
		}
	}
	return acc
}

// ProveInclusion builds the proof that leaf index (0-based) is present
// in the tree of the given size (spec §4.5.1). 0 <= index < size <= tree size.
func ProveInclusion(ctx context.Context, engine *ranges.Engine, index, size uint64) (*Proof, error) {
	if size == 0 || index >= size {
		return nil, apperr.NewInvalidChallenge("inclusion index %d out of range for size %d", index, size)
	}

	spans := ranges.Subranges(0, size)
	c := -1
	for i, s := range spans {
		if index >= s.Offset && index < s.Offset+s.Width {
			c = i
			break
		}
	}
	if c < 0 {
		return nil, apperr.NewInvalidChallenge("inclusion index %d not covered by decomposition of size %d", index, size)
	}

	path, rule, err := innerAuditPath(ctx, engine, spans[c], index-spans[c].Offset)
	if err != nil {
		return nil, err
	}

	leaf, err := engine.Subroot(ctx, ranges.Span{Offset: index, Width: 1})
	if err != nil {
		return nil, err
	}

	if c < len(spans)-1 {
		rightOffset := spans[c+1].Offset
		rightWidth := size - rightOffset
		d, err := engine.Root(ctx, rightOffset, rightWidth)
		if err != nil {
			return nil, err
		}
		path = append(path, d)
		rule = append(rule, Right)
	}

	for j := c - 1; j >= 0; j-- {
		d, err := engine.Subroot(ctx, spans[j])
		if err != nil {
			return nil, err
		}
		path = append(path, d)
		rule = append(rule, Left)
	}

	return &Proof{
		Metadata: Metadata{Algorithm: engine.Hasher.Algorithm(), Security: engine.Hasher.Security(), Size: size},
		Path:     path,
		Rule:     rule,
		Subset:   make([]bool, len(path)),
		Leaf:     leaf,
	}, nil
}

// innerAuditPath builds the audit path from a leaf at localIndex up to
// the root of a single power-of-two span, via iterative halving. Each
// loop iteration descends one level closer to the leaf, so siblings
// are discovered root-to-leaf; FoldWithBase folds leaf-to-root, so the
// two slices are reversed before returning.
func innerAuditPath(ctx context.Context, engine *ranges.Engine, span ranges.Span, localIndex uint64) ([][]byte, []Direction, error) {
	var path [][]byte
	var rule []Direction

	o, w, li := span.Offset, span.Width, localIndex
	for w > 1 {
		half := w / 2
		if li < half {
			sib, err := engine.Subroot(ctx, ranges.Span{Offset: o + half, Width: half})
			if err != nil {
				return nil, nil, err
			}
			path = append(path, sib)
			rule = append(rule, Right)
			w = half
		} else {
			sib, err := engine.Subroot(ctx, ranges.Span{Offset: o, Width: half})
			if err != nil {
				return nil, nil, err
			}
			path = append(path, sib)
			rule = append(rule, Left)
			o += half
			li -= half
			w = half
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
		rule[i], rule[j] = rule[j], rule[i]
	}
	return path, rule, nil
}
