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
	"bytes"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
)

// shapeCheck rejects a structurally malformed proof before any hashing
// is attempted (spec §7 MalformedProof).
func shapeCheck(p *Proof) error {
	if len(p.Path) != len(p.Rule) {
		return apperr.NewInvalidProof(apperr.MalformedProof, "path length %d != rule length %d", len(p.Path), len(p.Rule))
	}
	if p.Subset != nil && len(p.Subset) != len(p.Path) {
		return apperr.NewInvalidProof(apperr.MalformedProof, "subset length %d != path length %d", len(p.Subset), len(p.Path))
	}
	return nil
}

// VerifyInclusion recomputes target from base and proof, per spec
// §4.6. The hasher must be constructed with proof.Metadata's algorithm
// and security policy; callers typically obtain it via hash.New using
// those fields, raising UnsupportedParameter if the algorithm is unknown.
func VerifyInclusion(h *hash.Hasher, base, target []byte, p *Proof) error {
	if err := shapeCheck(p); err != nil {
		return err
	}
	if len(p.Leaf) > 0 && !bytes.Equal(base, p.Leaf) {
		return apperr.NewInvalidProof(apperr.BaseMismatch, "base does not match the leaf this proof was built for")
	}
	acc := FoldWithBase(h, base, p.Path, p.Rule)
	if !bytes.Equal(acc, target) {
		return apperr.NewInvalidProof(apperr.StateMismatch, "folded path does not match target state")
	}
	return nil
}

// VerifyConsistency recomputes state1 from the subset-marked entries
// of proof.Path and state2 from the entire path, per spec §4.6.
func VerifyConsistency(h *hash.Hasher, state1, state2 []byte, p *Proof) error {
	if err := shapeCheck(p); err != nil {
		return err
	}

	var subsetPath [][]byte
	var subsetRule []Direction
	for i, in := range p.Subset {
		if in {
			subsetPath = append(subsetPath, p.Path[i])
			subsetRule = append(subsetRule, p.Rule[i])
		}
	}

	acc1 := FoldSelf(h, subsetPath, subsetRule)
	if acc1 == nil {
		acc1 = h.HashEmpty()
	}
	if !bytes.Equal(acc1, state1) {
		return apperr.NewInvalidProof(apperr.PriorStateMismatch, "subset fold does not match prior state")
	}

	acc2 := FoldSelf(h, p.Path, p.Rule)
	if acc2 == nil {
		acc2 = h.HashEmpty()
	}
	if !bytes.Equal(acc2, state2) {
		return apperr.NewInvalidProof(apperr.LaterStateMismatch, "full path fold does not match later state")
	}
	return nil
}
