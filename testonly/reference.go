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

// Package testonly is a deliberately naive, storage-free reimplementation
// of the Sakura topology (spec §4.3-§4.5), used to fuzz the optimized
// engine and proof construction for agreement (spec §4.7's stated purpose
// for disable_subroot_iteration, extended here to proof shape) and by
// cmd/genvectors as the source of its test vectors. It never
// touches ranges, cache or storage; every digest is recomputed directly
// from an in-memory entries slice.
package testonly

import (
	"encoding/binary"

	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/proof"
)

// GenEntries returns n deterministic, distinct leaf blobs.
func GenEntries(n uint64) [][]byte {
	entries := make([][]byte, n)
	for i := range entries {
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(i))
		entries[i] = b
	}
	return entries
}

// refSplit is an independent, loop-based reimplementation of
// ranges.SplitPoint: the largest power of two p <= width, except when
// width is itself a power of two, in which case p = width/2.
func refSplit(width uint64) uint64 {
	p := uint64(1)
	for p*2 < width {
		p *= 2
	}
	if p*2 == width {
		return p
	}
	for p*2 <= width {
		p *= 2
	}
	return p
}

// RefRoot computes node(entries) via spec §4.3's recursive definition,
// with no decomposition, batching or caching.
func RefRoot(entries [][]byte, h *hash.Hasher) []byte {
	switch len(entries) {
	case 0:
		return h.HashEmpty()
	case 1:
		return h.HashLeaf(entries[0])
	default:
		k := refSplit(uint64(len(entries)))
		return h.HashNodes(RefRoot(entries[:k], h), RefRoot(entries[k:], h))
	}
}

// refSpan is a power-of-two leaf range, mirroring ranges.Span without
// importing it.
type refSpan struct {
	offset, width uint64
}

// refSubranges independently decomposes [offset, offset+width) into the
// same left-to-right power-of-two spans ranges.Subranges describes,
// via repeated largest-power-of-two extraction rather than bit scanning.
func refSubranges(offset, width uint64) []refSpan {
	var spans []refSpan
	remaining := width
	o := offset
	for remaining > 0 {
		p := uint64(1)
		for p*2 <= remaining {
			p *= 2
		}
		spans = append(spans, refSpan{offset: o, width: p})
		o += p
		remaining -= p
	}
	return spans
}

// RefInclusionProof builds the inclusion proof for leaf index (0-based)
// against entries[:size], by locating the containing power-of-two span
// and recursing down to the leaf directly over entries slices.
func RefInclusionProof(entries [][]byte, index uint64, h *hash.Hasher) *proof.Proof {
	size := uint64(len(entries))
	if size == 0 || index >= size {
		return nil
	}
	spans := refSubranges(0, size)
	c := -1
	for i, s := range spans {
		if index >= s.offset && index < s.offset+s.width {
			c = i
			break
		}
	}

	path, rule := refInnerAuditPath(entries[spans[c].offset:spans[c].offset+spans[c].width], index-spans[c].offset, h)

	if c < len(spans)-1 {
		rightOffset := spans[c+1].offset
		d := RefRoot(entries[rightOffset:size], h)
		path = append(path, d)
		rule = append(rule, proof.Right)
	}

	for j := c - 1; j >= 0; j-- {
		s := spans[j]
		d := RefRoot(entries[s.offset:s.offset+s.width], h)
		path = append(path, d)
		rule = append(rule, proof.Left)
	}

	return &proof.Proof{
		Metadata: proof.Metadata{Algorithm: h.Algorithm(), Security: h.Security(), Size: size},
		Path:     path,
		Rule:     rule,
		Subset:   make([]bool, len(path)),
		Leaf:     h.HashLeaf(entries[index]),
	}
}

// refInnerAuditPath recurses down a power-of-two entries slice to the
// leaf at localIndex, recording each sibling half in leaf-to-root order.
func refInnerAuditPath(entries [][]byte, localIndex uint64, h *hash.Hasher) ([][]byte, []proof.Direction) {
	if len(entries) == 1 {
		return nil, nil
	}
	half := uint64(len(entries)) / 2
	if localIndex < half {
		path, rule := refInnerAuditPath(entries[:half], localIndex, h)
		return append(path, RefRoot(entries[half:], h)), append(rule, proof.Right)
	}
	path, rule := refInnerAuditPath(entries[half:], localIndex-half, h)
	return append(path, RefRoot(entries[:half], h)), append(rule, proof.Left)
}

// RefConsistencyProof builds the consistency proof that entries[:size1]
// is a prefix of entries[:size2], mirroring proof.ProveConsistency's
// three-way case split without touching the proof or ranges packages.
func RefConsistencyProof(entries [][]byte, size1, size2 uint64, h *hash.Hasher) *proof.Proof {
	var path [][]byte
	var rule []proof.Direction
	var spans []refSpan

	switch {
	case size1 == size2, size1 == 0:
		path, rule, spans = refRootFold(entries[:size2], 0, size2, h)
	default:
		path, rule, spans = refConsistencySubproof(entries[:size2], 0, size2, size1, h)
	}

	subset := make([]bool, len(path))
	for i, s := range spans {
		subset[i] = size1 > 0 && s.offset+s.width <= size1
	}

	return &proof.Proof{
		Metadata: proof.Metadata{Algorithm: h.Algorithm(), Security: h.Security(), Size: size2},
		Path:     path,
		Rule:     rule,
		Subset:   subset,
	}
}

func refRootFold(entries [][]byte, offset, width uint64, h *hash.Hasher) ([][]byte, []proof.Direction, []refSpan) {
	forward := refSubranges(offset, width)
	n := len(forward)
	path := make([][]byte, n)
	rule := make([]proof.Direction, n)
	spans := make([]refSpan, n)
	for i := 0; i < n; i++ {
		s := forward[n-1-i]
		local := entries[s.offset-offset : s.offset-offset+s.width]
		path[i] = RefRoot(local, h)
		rule[i] = proof.Left
		spans[i] = s
	}
	return path, rule, spans
}

func refConsistencySubproof(entries [][]byte, offset, width, m uint64, h *hash.Hasher) ([][]byte, []proof.Direction, []refSpan) {
	if m == width {
		d := RefRoot(entries, h)
		return [][]byte{d}, []proof.Direction{proof.Left}, []refSpan{{offset: offset, width: width}}
	}

	k := refSplit(width)
	if m <= k {
		subPath, subRule, subSpans := refConsistencySubproof(entries[:k], offset, k, m, h)
		d := RefRoot(entries[k:], h)
		return append(subPath, d), append(subRule, proof.Right), append(subSpans, refSpan{offset: offset + k, width: width - k})
	}

	subPath, subRule, subSpans := refConsistencySubproof(entries[k:], offset+k, width-k, m-k, h)
	d := RefRoot(entries[:k], h)
	return append(subPath, d), append(subRule, proof.Left), append(subSpans, refSpan{offset: offset, width: k})
}
