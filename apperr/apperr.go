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

// Package apperr holds the closed error taxonomy shared by every layer of
// the engine, so callers can type-switch on a small, stable set of kinds
// instead of string-matching error messages.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Discriminator enumerates the specific ways a proof can fail verification.
type Discriminator int

const (
	// BaseMismatch means the caller-supplied base leaf hash does not match
	// the leaf digest the proof was constructed for.
	BaseMismatch Discriminator = iota
	// StateMismatch means an inclusion proof folded to a digest other than
	// the target state.
	StateMismatch
	// PriorStateMismatch means a consistency proof's subset fold did not
	// reproduce state1.
	PriorStateMismatch
	// LaterStateMismatch means a consistency proof's full fold did not
	// reproduce state2.
	LaterStateMismatch
	// MalformedProof means path/rule/subset shapes are inconsistent.
	MalformedProof
)

func (d Discriminator) String() string {
	switch d {
	case BaseMismatch:
		return "BaseMismatch"
	case StateMismatch:
		return "StateMismatch"
	case PriorStateMismatch:
		return "PriorStateMismatch"
	case LaterStateMismatch:
		return "LaterStateMismatch"
	case MalformedProof:
		return "MalformedProof"
	default:
		return "Unknown"
	}
}

// UnsupportedParameterError is returned when an algorithm name falls outside
// the closed set the Hasher supports.
type UnsupportedParameterError struct {
	Parameter string
	Value     string
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Parameter, e.Value)
}

// NewUnsupportedParameter builds an UnsupportedParameterError.
func NewUnsupportedParameter(parameter, value string) error {
	return &UnsupportedParameterError{Parameter: parameter, Value: value}
}

// InvalidChallengeError is returned when a caller-supplied index or size
// argument to a proof API is out of range.
type InvalidChallengeError struct {
	Msg string
}

func (e *InvalidChallengeError) Error() string { return e.Msg }

// NewInvalidChallenge builds an InvalidChallengeError with a formatted message.
func NewInvalidChallenge(format string, args ...interface{}) error {
	return &InvalidChallengeError{Msg: fmt.Sprintf(format, args...)}
}

// IndexOutOfRangeError is returned by a backend when a leaf index falls
// outside [1, size].
type IndexOutOfRangeError struct {
	Index uint64
	Size  uint64
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for size %d", e.Index, e.Size)
}

// NewIndexOutOfRange builds an IndexOutOfRangeError.
func NewIndexOutOfRange(index, size uint64) error {
	return &IndexOutOfRangeError{Index: index, Size: size}
}

// InvalidProofError is returned by the verifier; Discriminator says which
// specific check failed.
type InvalidProofError struct {
	Discriminator Discriminator
	Msg           string
}

func (e *InvalidProofError) Error() string {
	return fmt.Sprintf("invalid proof (%s): %s", e.Discriminator, e.Msg)
}

// NewInvalidProof builds an InvalidProofError for the given discriminator.
func NewInvalidProof(d Discriminator, format string, args ...interface{}) error {
	return &InvalidProofError{Discriminator: d, Msg: fmt.Sprintf(format, args...)}
}

// BackendError wraps a failure surfaced by a storage backend. The original
// error is preserved with a stack trace via github.com/pkg/errors so the
// failure can be traced back past the backend boundary; the core never
// attempts to recover from it.
type BackendError struct {
	cause error
}

func (e *BackendError) Error() string { return "backend error: " + e.cause.Error() }

// Unwrap allows errors.Is/errors.As to see through to the backend's error.
func (e *BackendError) Unwrap() error { return e.cause }

// NewBackendError wraps err, attaching a stack trace at the call site and
// the given context message.
func NewBackendError(err error, context string) error {
	if err == nil {
		return nil
	}
	return &BackendError{cause: errors.WithMessage(errors.WithStack(err), context)}
}
