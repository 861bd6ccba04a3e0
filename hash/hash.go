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

// Package hash provides domain-separated cryptographic hashing for the
// Merkle engine: hash_empty, hash_leaf and hash_nodes, over a closed set of
// SHA-2/SHA-3 algorithms.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/dendrite-log/merkle/apperr"
)

// Algorithm identifies one of the supported hash functions. It is a closed
// enum, not a string-indexed registry: unsupported names are rejected at
// construction time (spec §4.1).
type Algorithm string

// Supported algorithms.
const (
	SHA224   Algorithm = "SHA224"
	SHA256   Algorithm = "SHA256"
	SHA384   Algorithm = "SHA384"
	SHA512   Algorithm = "SHA512"
	SHA3_224 Algorithm = "SHA3-224"
	SHA3_256 Algorithm = "SHA3-256"
	SHA3_384 Algorithm = "SHA3-384"
	SHA3_512 Algorithm = "SHA3-512"
)

const (
	leafPrefix = byte(0x00)
	nodePrefix = byte(0x01)
)

func newHashFunc(a Algorithm) (func() hash.Hash, error) {
	switch a {
	case SHA224:
		return sha256.New224, nil
	case SHA256:
		return sha256.New, nil
	case SHA384:
		return sha512.New384, nil
	case SHA512:
		return sha512.New, nil
	case SHA3_224:
		return sha3.New224, nil
	case SHA3_256:
		return sha3.New256, nil
	case SHA3_384:
		return sha3.New384, nil
	case SHA3_512:
		return sha3.New512, nil
	default:
		return nil, apperr.NewUnsupportedParameter("algorithm", string(a))
	}
}

// Hasher computes the three digests the tree needs, with or without the
// domain-separation security policy (spec §4.1). Hashing never fails once
// constructed (spec §7).
type Hasher struct {
	algorithm Algorithm
	security  bool
	newHash   func() hash.Hash
}

// New builds a Hasher for the given algorithm. security selects whether
// hash_leaf/hash_nodes apply the 0x00/0x01 domain-separation prefixes;
// hash_empty is unaffected by security either way.
func New(algorithm Algorithm, security bool) (*Hasher, error) {
	nh, err := newHashFunc(algorithm)
	if err != nil {
		return nil, err
	}
	return &Hasher{algorithm: algorithm, security: security, newHash: nh}, nil
}

// Algorithm reports the configured algorithm name.
func (h *Hasher) Algorithm() Algorithm { return h.algorithm }

// Security reports whether domain separation is enabled.
func (h *Hasher) Security() bool { return h.security }

// Size returns the digest width in bytes for this algorithm.
func (h *Hasher) Size() int { return h.newHash().Size() }

// Consume is the raw passthrough H(bytes), used only by tests.
func (h *Hasher) Consume(b []byte) []byte {
	hh := h.newHash()
	hh.Write(b)
	return hh.Sum(nil)
}

// HashEmpty returns H(ε), the state of a zero-leaf tree.
func (h *Hasher) HashEmpty() []byte {
	return h.newHash().Sum(nil)
}

// HashLeaf returns hash_leaf(blob): H(0x00‖blob) with security enabled, or
// H(blob) with it disabled.
func (h *Hasher) HashLeaf(blob []byte) []byte {
	hh := h.newHash()
	if h.security {
		hh.Write([]byte{leafPrefix})
	}
	hh.Write(blob)
	return hh.Sum(nil)
}

// HashNodes returns hash_nodes(left, right): H(0x01‖left‖right) with
// security enabled, or H(left‖right) with it disabled.
func (h *Hasher) HashNodes(left, right []byte) []byte {
	hh := h.newHash()
	if h.security {
		hh.Write([]byte{nodePrefix})
	}
	hh.Write(left)
	hh.Write(right)
	return hh.Sum(nil)
}
