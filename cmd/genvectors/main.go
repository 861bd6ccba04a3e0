// Copyright 2025 Google LLC. All Rights Reserved.
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

// genvectors emits JSON probes for inclusion and consistency proofs
// over the Sakura topology: one happy-path probe per generated tree
// shape, plus a battery of corrupted variants that a verifier must
// reject. It is a dev tool, not part of the importable module.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/proof"
	"github.com/dendrite-log/merkle/testonly"
)

var sizes = []uint64{1, 2, 3, 5, 6, 8, 13}

// inclusionProbe is a parameter set for inclusion proof verification.
type inclusionProbe struct {
	Index  uint64   `json:"index"`
	Size   uint64   `json:"size"`
	Base   []byte   `json:"base"`
	Target []byte   `json:"target"`
	Path   [][]byte `json:"path"`
	Rule   []uint8  `json:"rule"`

	Desc      string `json:"desc"`
	WantError bool   `json:"wantErr"`
}

// consistencyProbe is a parameter set for consistency proof verification.
type consistencyProbe struct {
	Size1  uint64   `json:"size1"`
	Size2  uint64   `json:"size2"`
	State1 []byte   `json:"state1"`
	State2 []byte   `json:"state2"`
	Path   [][]byte `json:"path"`
	Rule   []uint8  `json:"rule"`
	Subset []bool   `json:"subset"`

	Desc      string `json:"desc"`
	WantError bool   `json:"wantErr"`
}

func ruleBytes(rule []proof.Direction) []uint8 {
	out := make([]uint8, len(rule))
	for i, r := range rule {
		out[i] = uint8(r)
	}
	return out
}

func writeProbe(directory string, desc string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling probe %q: %w", desc, err)
	}
	name := strings.ReplaceAll(desc, " ", "-") + ".json"
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating directory %q: %w", directory, err)
	}
	return os.WriteFile(filepath.Join(directory, name), b, 0o644)
}

func extend(path [][]byte, extra ...[]byte) [][]byte {
	out := make([][]byte, len(path), len(path)+len(extra))
	copy(out, path)
	return append(out, extra...)
}

func flipBit(path [][]byte, i int) [][]byte {
	out := make([][]byte, len(path))
	copy(out, path)
	d := append([]byte(nil), out[i]...)
	d[0] ^= 0x08
	out[i] = d
	return out
}

func corruptInclusion(h *hash.Hasher, base inclusionProbe) []inclusionProbe {
	var ret []inclusionProbe
	add := func(desc string, mutate func(p *inclusionProbe)) {
		p := base
		p.Path = append([][]byte(nil), base.Path...)
		p.Rule = append([]uint8(nil), base.Rule...)
		mutate(&p)
		p.Desc = desc
		p.WantError = true
		ret = append(ret, p)
	}

	if base.Index > 0 {
		add("index minus one", func(p *inclusionProbe) { p.Index = base.Index - 1 })
	}
	add("index plus one", func(p *inclusionProbe) { p.Index = base.Index + 1 })
	add("size times two", func(p *inclusionProbe) { p.Size = base.Size * 2 })
	add("wrong base", func(p *inclusionProbe) { p.Base = h.HashLeaf([]byte("wrong-leaf")) })
	add("wrong target", func(p *inclusionProbe) { p.Target = h.HashLeaf([]byte("wrong-target")) })
	add("trailing garbage", func(p *inclusionProbe) {
		p.Path = extend(p.Path, h.HashEmpty())
		p.Rule = append(p.Rule, 0)
	})
	add("preceding garbage", func(p *inclusionProbe) {
		p.Path = append([][]byte{h.HashEmpty()}, p.Path...)
		p.Rule = append([]uint8{0}, p.Rule...)
	})
	if len(base.Path) > 0 {
		add("truncated proof", func(p *inclusionProbe) {
			p.Path = p.Path[:len(p.Path)-1]
			p.Rule = p.Rule[:len(p.Rule)-1]
		})
		for i := range base.Path {
			i := i
			add(fmt.Sprintf("modified path %d", i), func(p *inclusionProbe) { p.Path = flipBit(p.Path, i) })
		}
	}
	return ret
}

func corruptConsistency(h *hash.Hasher, base consistencyProbe) []consistencyProbe {
	var ret []consistencyProbe
	add := func(desc string, mutate func(p *consistencyProbe)) {
		p := base
		p.Path = append([][]byte(nil), base.Path...)
		p.Rule = append([]uint8(nil), base.Rule...)
		p.Subset = append([]bool(nil), base.Subset...)
		mutate(&p)
		p.Desc = desc
		p.WantError = true
		ret = append(ret, p)
	}

	add("wrong state1", func(p *consistencyProbe) { p.State1 = h.HashLeaf([]byte("wrong-state1")) })
	add("wrong state2", func(p *consistencyProbe) { p.State2 = h.HashLeaf([]byte("wrong-state2")) })
	add("swapped states", func(p *consistencyProbe) { p.State1, p.State2 = base.State2, base.State1 })
	add("trailing garbage", func(p *consistencyProbe) {
		p.Path = extend(p.Path, h.HashEmpty())
		p.Rule = append(p.Rule, 0)
		p.Subset = append(p.Subset, false)
	})
	if len(base.Path) > 0 {
		add("truncated proof", func(p *consistencyProbe) {
			p.Path = p.Path[:len(p.Path)-1]
			p.Rule = p.Rule[:len(p.Rule)-1]
			p.Subset = p.Subset[:len(p.Subset)-1]
		})
		for i := range base.Path {
			i := i
			add(fmt.Sprintf("modified path %d", i), func(p *consistencyProbe) { p.Path = flipBit(p.Path, i) })
		}
		add("flipped subset", func(p *consistencyProbe) {
			s := append([]bool(nil), base.Subset...)
			s[0] = !s[0]
			p.Subset = s
		})
	}
	return ret
}

func writeInclusionVectors(root string, h *hash.Hasher) error {
	n := 0
	for _, size := range sizes {
		entries := testonly.GenEntries(size)
		for index := uint64(0); index < size; index++ {
			p := testonly.RefInclusionProof(entries, index, h)
			base := inclusionProbe{
				Index:  index,
				Size:   size,
				Base:   h.HashLeaf(entries[index]),
				Target: testonly.RefRoot(entries, h),
				Path:   p.Path,
				Rule:   ruleBytes(p.Rule),
			}
			happy := base
			happy.Desc, happy.WantError = "happy path", false

			dir := filepath.Join(root, strconv.Itoa(n))
			if err := writeProbe(dir, happy.Desc, happy); err != nil {
				return err
			}
			for _, c := range corruptInclusion(h, base) {
				if err := writeProbe(dir, c.Desc, c); err != nil {
					return err
				}
			}
			n++
		}
	}
	return nil
}

func writeConsistencyVectors(root string, h *hash.Hasher) error {
	n := 0
	for _, size2 := range sizes {
		entries := testonly.GenEntries(size2)
		for size1 := uint64(0); size1 <= size2; size1++ {
			p := testonly.RefConsistencyProof(entries, size1, size2, h)
			base := consistencyProbe{
				Size1:  size1,
				Size2:  size2,
				State1: testonly.RefRoot(entries[:size1], h),
				State2: testonly.RefRoot(entries, h),
				Path:   p.Path,
				Rule:   ruleBytes(p.Rule),
				Subset: p.Subset,
			}
			happy := base
			happy.Desc, happy.WantError = "happy path", false

			dir := filepath.Join(root, strconv.Itoa(n))
			if err := writeProbe(dir, happy.Desc, happy); err != nil {
				return err
			}
			for _, c := range corruptConsistency(h, base) {
				if err := writeProbe(dir, c.Desc, c); err != nil {
					return err
				}
			}
			n++
		}
	}
	return nil
}

func main() {
	h, err := hash.New(hash.SHA256, true)
	if err != nil {
		log.Fatal(err)
	}

	if err := writeInclusionVectors("testdata/inclusion", h); err != nil {
		log.Fatalf("writing inclusion vectors: %v", err)
	}
	if err := writeConsistencyVectors("testdata/consistency", h); err != nil {
		log.Fatalf("writing consistency vectors: %v", err)
	}
}
