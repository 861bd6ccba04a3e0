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
	"encoding/hex"
	"encoding/json"

	"github.com/dendrite-log/merkle/apperr"
)

// wireProof is the canonical JSON shape (spec §6.2 leaves encoding to
// the host; this is the one concrete encoding this repository ships).
type wireProof struct {
	Metadata Metadata `json:"metadata"`
	Path     []string `json:"path"`
	Rule     []uint8  `json:"rule"`
	Subset   []bool   `json:"subset"`
	Leaf     string   `json:"leaf,omitempty"`
}

// Encode produces the canonical JSON encoding of p: hex-encoded path
// digests alongside metadata, rule and subset.
func Encode(p *Proof) ([]byte, error) {
	w := wireProof{
		Metadata: p.Metadata,
		Path:     make([]string, len(p.Path)),
		Rule:     make([]uint8, len(p.Rule)),
		Subset:   p.Subset,
	}
	for i, d := range p.Path {
		w.Path[i] = hex.EncodeToString(d)
	}
	for i, r := range p.Rule {
		w.Rule[i] = uint8(r)
	}
	if len(p.Leaf) > 0 {
		w.Leaf = hex.EncodeToString(p.Leaf)
	}
	return json.Marshal(w)
}

// Decode parses the canonical JSON encoding produced by Encode,
// validating shape before returning.
func Decode(data []byte) (*Proof, error) {
	var w wireProof
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, apperr.NewInvalidProof(apperr.MalformedProof, "invalid proof JSON: %v", err)
	}
	if len(w.Path) != len(w.Rule) {
		return nil, apperr.NewInvalidProof(apperr.MalformedProof, "path length %d != rule length %d", len(w.Path), len(w.Rule))
	}
	if w.Subset != nil && len(w.Subset) != len(w.Path) {
		return nil, apperr.NewInvalidProof(apperr.MalformedProof, "subset length %d != path length %d", len(w.Subset), len(w.Path))
	}

	p := &Proof{
		Metadata: w.Metadata,
		Path:     make([][]byte, len(w.Path)),
		Rule:     make([]Direction, len(w.Rule)),
		Subset:   w.Subset,
	}
	for i, s := range w.Path {
		d, err := hex.DecodeString(s)
		if err != nil {
			return nil, apperr.NewInvalidProof(apperr.MalformedProof, "invalid hex digest at path[%d]: %v", i, err)
		}
		p.Path[i] = d
	}
	for i, r := range w.Rule {
		if r > 1 {
			return nil, apperr.NewInvalidProof(apperr.MalformedProof, "rule[%d] = %d is not 0 or 1", i, r)
		}
		p.Rule[i] = Direction(r)
	}
	if w.Leaf != "" {
		leaf, err := hex.DecodeString(w.Leaf)
		if err != nil {
			return nil, apperr.NewInvalidProof(apperr.MalformedProof, "invalid hex digest for leaf: %v", err)
		}
		p.Leaf = leaf
	}
	return p, nil
}
