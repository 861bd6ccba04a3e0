// Copyright 2025 The Tessera authors. All Rights Reserved.
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

// Package checkpoint is the optional, non-core companion the core's
// Non-goal "does not sign states" deliberately leaves to a host (spec
// §1, SPEC_FULL §9). It signs and verifies a (origin, size, state)
// triple as a c2sp.org/tlog-checkpoint note, adapted from the
// teacher's proof/tlog_proof.go. It depends on the core only through
// merkle.Tree.GetSize and merkle.Tree.GetState; the core never imports
// this package.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/transparency-dev/formats/log"
	"golang.org/x/mod/sumdb/note"

	"github.com/dendrite-log/merkle"
)

// Checkpoint is a signed commitment to a tree state at a given size,
// scoped to an origin identifying the log.
type Checkpoint struct {
	Origin string
	Size   uint64
	Hash   []byte
}

// Sign produces a signed note over c's c2sp.org/tlog-checkpoint body.
func Sign(c Checkpoint, signer note.Signer) ([]byte, error) {
	ckpt := log.Checkpoint{Origin: c.Origin, Size: c.Size, Hash: c.Hash}
	n := &note.Note{Text: string(ckpt.Marshal())}
	return note.Sign(n, signer)
}

// SignState reads the tree's current size and state and signs a
// checkpoint for them under origin. This is the only point of contact
// with the core: one read through merkle.Tree.GetSize followed by one
// through merkle.Tree.GetState.
func SignState(ctx context.Context, tree *merkle.Tree, origin string, signer note.Signer) ([]byte, error) {
	size, err := tree.GetSize(ctx)
	if err != nil {
		return nil, err
	}
	state, err := tree.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return Sign(Checkpoint{Origin: origin, Size: size, Hash: state}, signer)
}

// Verify parses and verifies a signed checkpoint note for origin,
// returning the committed (size, state) pair.
func Verify(raw []byte, origin string, verifier note.Verifier) (*Checkpoint, error) {
	parsed, _, _, err := log.ParseCheckpoint(raw, origin, verifier)
	if err != nil {
		return nil, fmt.Errorf("checkpoint could not be verified: %w", err)
	}
	return &Checkpoint{Origin: parsed.Origin, Size: parsed.Size, Hash: parsed.Hash}, nil
}
