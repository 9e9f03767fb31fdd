package rng

import (
	"errors"
	"fmt"
	"io"

	"github.com/randbase/randbase/csprng"
)

// ErrNotReady is returned when the service has not been started.
var ErrNotReady = errors.New("rng: not started")

// Reader provides a global instance to read from the RNG.
var Reader io.Reader = reader{}

// reader provides an io.Reader interface.
type reader struct{}

// Read implements the io.Reader interface.
func (reader) Read(b []byte) (n int, err error) {
	return Read(b)
}

// Read reads random bytes into the supplied byte slice.
func Read(b []byte) (n int, err error) {
	rngLock.Lock()
	defer rngLock.Unlock()

	if !rngReady.IsSet() {
		return 0, ErrNotReady
	}

	n, err = rng.Read(b)
	if err != nil && errors.Is(err, csprng.ErrEntropySource) {
		entropyFailures.Inc()
	}
	servedBytes.Add(n)
	return n, err
}

// Bytes allocates a new byte slice of given length and fills it with random
// data.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := Read(b); err != nil {
		return nil, fmt.Errorf("failed to get random data: %w", err)
	}
	return b, nil
}

// Number returns a random number from 0 to (incl.) max.
func Number(max uint64) (uint64, error) {
	if max == ^uint64(0) {
		return Uint64()
	}
	return Uint64N(max + 1)
}
