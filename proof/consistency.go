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

package proof

import (
	"context"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/ranges"
)

// ProveConsistency builds the proof that the tree of size1 is a prefix
// of the tree of size2 (spec §4.5.2). 0 <= size1 <= size2 <= tree size.
//
// Unlike RFC 6962, the terminal self-commitment that a classic audit
// path omits (because the client already knows MTH(D[0:m])) is always
// emitted here, since spec.md's subset must independently reconstruct
// state1 from path entries the verifier can see. Subset membership is
// then a simple range-containment check: a path entry belongs to the
// shared prefix forest P iff the leaf range it covers lies entirely
// within [0, size1).
func ProveConsistency(ctx context.Context, engine *ranges.Engine, size1, size2 uint64) (*Proof, error) {
	if size1 > size2 {
		return nil, apperr.NewInvalidChallenge("consistency size1 %d exceeds size2 %d", size1, size2)
	}

	var path [][]byte
	var rule []Direction
	var spans []ranges.Span

	switch {
	case size1 == size2:
		p, r, s, err := rootFold(ctx, engine, 0, size1)
		if err != nil {
			return nil, err
		}
		path, rule, spans = p, r, s
	case size1 == 0:
		p, r, s, err := rootFold(ctx, engine, 0, size2)
		if err != nil {
			return nil, err
		}
		path, rule, spans = p, r, s
	default:
		p, r, s, err := consistencySubproof(ctx, engine, 0, size2, size1)
		if err != nil {
			return nil, err
		}
		path, rule, spans = p, r, s
	}

	// size1 == size2's spans are, by construction, exactly the
	// decomposition of size1, so every one already satisfies the
	// containment check below without special-casing.
	subset := make([]bool, len(path))
	for i, s := range spans {
		subset[i] = size1 > 0 && s.Offset+s.Width <= size1
	}

	return &Proof{
		Metadata: Metadata{Algorithm: engine.Hasher.Algorithm(), Security: engine.Hasher.Security(), Size: size2},
		Path:     path,
		Rule:     rule,
		Subset:   subset,
	}, nil
}

// rootFold returns the path/rule/span construction equivalent to
// Root(offset, width)'s own fold: the power-of-two spans covering
// [offset, offset+width), processed right to left with the rightmost
// span as the implicit seed and every other span folded in as a left
// sibling. This is the shape both the size1==0 and size1==size2
// consistency edge cases need (spec §4.5.2).
func rootFold(ctx context.Context, engine *ranges.Engine, offset, width uint64) ([][]byte, []Direction, []ranges.Span, error) {
	forward := ranges.Subranges(offset, width)
	n := len(forward)
	path := make([][]byte, n)
	rule := make([]Direction, n)
	spans := make([]ranges.Span, n)
	for i := 0; i < n; i++ {
		s := forward[n-1-i]
		d, err := engine.Subroot(ctx, s)
		if err != nil {
			return nil, nil, nil, err
		}
		path[i] = d
		spans[i] = s
		if i == 0 {
			rule[i] = Left // unused placeholder; path[0] is the seed
		} else {
			rule[i] = Left
		}
	}
	return path, rule, spans, nil
}

// consistencySubproof is the Sakura-topology adaptation of RFC 6962's
// SUBPROOF(m, D[n], b) recursion (grounded in arriqaaq/merkletree's
// tree.go, itself a direct transcription of RFC 6962 §2.1.2), modified
// to always emit the m == n terminal and to report, for every emitted
// digest, the leaf range it covers — so the caller can classify subset
// membership by containment instead of by threading RFC 6962's `b` flag.
func consistencySubproof(ctx context.Context, engine *ranges.Engine, offset, width, m uint64) ([][]byte, []Direction, []ranges.Span, error) {
	if m == width {
		d, err := engine.Root(ctx, offset, width)
		if err != nil {
			return nil, nil, nil, err
		}
		return [][]byte{d}, []Direction{Left}, []ranges.Span{{Offset: offset, Width: width}}, nil
	}

	k := ranges.SplitPoint(width)
	if m <= k {
		subPath, subRule, subSpans, err := consistencySubproof(ctx, engine, offset, k, m)
		if err != nil {
			return nil, nil, nil, err
		}
		d, err := engine.Root(ctx, offset+k, width-k)
		if err != nil {
			return nil, nil, nil, err
		}
		return append(subPath, d), append(subRule, Right), append(subSpans, ranges.Span{Offset: offset + k, Width: width - k}), nil
	}

	subPath, subRule, subSpans, err := consistencySubproof(ctx, engine, offset+k, width-k, m-k)
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := engine.Root(ctx, offset, k)
	if err != nil {
		return nil, nil, nil, err
	}
	return append(subPath, d), append(subRule, Left), append(subSpans, ranges.Span{Offset: offset, Width: k}), nil
}
