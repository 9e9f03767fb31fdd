// Package prf defines the pluggable pseudorandom function backends that power
// the generator, together with the process-wide backend registry.
//
// Every backend expands a short secret state plus a 32-bit counter into
// fixed-size blocks of keystream. The generator treats backends uniformly
// through the Backend interface and must never special-case one by name.
package prf

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Size bounds that every backend descriptor must respect.
const (
	// MaxStateBytes is the largest number of seed bytes a backend may
	// consume per setup.
	MaxStateBytes = 64
	// MaxStateLen is the largest expanded state a backend may require.
	// State can be longer than the seed because of key expansion.
	MaxStateLen = 256
	// MaxOutputLen is the largest block a single Generate call may produce.
	MaxOutputLen = 256
)

// ErrUnknownAlgorithm is returned when no backend is registered under the
// requested algorithm name.
var ErrUnknownAlgorithm = errors.New("prf: unknown algorithm")

// Backend describes a single pseudorandom function.
//
// Setup and Generate are deterministic: the same seed always yields the same
// state, and the same (state, idx) pair always yields the same output block.
// That determinism is exactly why the caller must never query the same
// (state, idx) pair twice between seedings - a repeated keystream block is a
// catastrophic confidentiality failure.
type Backend interface {
	// Name identifies the algorithm, e.g. "chacha20".
	Name() string
	// Impl identifies the implementation variant, e.g. "portable".
	Impl() string

	// StateLen is the size in bytes of the opaque state buffer, including
	// any derived values. At most MaxStateLen.
	StateLen() int
	// StateBytes is the number of random seed bytes consumed by Setup.
	// At most StateLen, OutputLen and MaxStateBytes.
	StateBytes() int
	// OutputLen is the number of bytes written by a single Generate call.
	// At most MaxOutputLen.
	OutputLen() int
	// IdxStep is the number of counter values consumed per Generate call.
	// The caller must advance the counter by this amount between calls.
	IdxStep() uint32

	// Setup deterministically populates state from exactly StateBytes
	// random bytes. It must not retain a reference to seed; the caller
	// owns and will erase the seed buffer.
	Setup(state, seed []byte)
	// Generate writes exactly OutputLen pseudorandom bytes to out as a
	// function of state and idx, without mutating state.
	Generate(state, out []byte, idx uint32)
}

// Validate checks a backend descriptor against the size invariants. All
// violations are reported together. A backend that fails validation must
// never be made active.
func Validate(b Backend) error {
	var errs *multierror.Error

	if b.Name() == "" {
		errs = multierror.Append(errs, errors.New("empty algorithm name"))
	}
	if b.Impl() == "" {
		errs = multierror.Append(errs, errors.New("empty implementation name"))
	}
	if b.StateBytes() <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("state bytes %d must be positive", b.StateBytes()))
	}
	if b.StateBytes() > MaxStateBytes {
		errs = multierror.Append(errs, fmt.Errorf("state bytes %d exceeds maximum %d", b.StateBytes(), MaxStateBytes))
	}
	if b.StateLen() < b.StateBytes() {
		errs = multierror.Append(errs, fmt.Errorf("state length %d smaller than state bytes %d", b.StateLen(), b.StateBytes()))
	}
	if b.StateLen() > MaxStateLen {
		errs = multierror.Append(errs, fmt.Errorf("state length %d exceeds maximum %d", b.StateLen(), MaxStateLen))
	}
	if b.OutputLen() < b.StateBytes() {
		errs = multierror.Append(errs, fmt.Errorf("output length %d smaller than state bytes %d", b.OutputLen(), b.StateBytes()))
	}
	if b.OutputLen() > MaxOutputLen {
		errs = multierror.Append(errs, fmt.Errorf("output length %d exceeds maximum %d", b.OutputLen(), MaxOutputLen))
	}
	if b.IdxStep() < 1 {
		errs = multierror.Append(errs, fmt.Errorf("idx step %d must be at least 1", b.IdxStep()))
	}

	return errs.ErrorOrNil()
}
