package rng

import (
	"encoding/binary"
	"errors"
	"math/bits"
	"time"
)

// Uniform integer helpers on top of the shared generator. Rejection is done
// with the widening-multiply technique, so the retry loop almost never runs.

// Uint32 returns a uniform random uint32.
func Uint32() (uint32, error) {
	b, err := Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 returns a uniform random uint64.
func Uint64() (uint64, error) {
	b, err := Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uint64N returns a random uint64 in [0,n) without modulo bias.
func Uint64N(n uint64) (uint64, error) {
	if n == 0 {
		return 0, errors.New("rng: upper bound must be positive")
	}
	if n&(n-1) == 0 { // n is a power of two, can mask
		v, err := Uint64()
		return v & (n - 1), err
	}

	v, err := Uint64()
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(v, n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			v, err = Uint64()
			if err != nil {
				return 0, err
			}
			hi, lo = bits.Mul64(v, n)
		}
	}
	return hi, nil
}

// IntN returns a random int in [0,n) without modulo bias.
func IntN(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("rng: upper bound must be positive")
	}
	v, err := Uint64N(uint64(n))
	return int(v), err
}

// Duration returns a random duration in [0,n) without modulo bias.
func Duration(n time.Duration) (time.Duration, error) {
	if n <= 0 {
		return 0, errors.New("rng: upper bound must be positive")
	}
	v, err := Uint64N(uint64(n))
	return time.Duration(v), err
}

// Shuffle randomizes the order of n elements by swapping the elements at
// indexes i and j.
func Shuffle(n int, swap func(i, j int)) error {
	if n < 0 {
		return errors.New("rng: negative element count")
	}

	// Fisher-Yates, iterating down so every permutation is equally likely.
	for i := n - 1; i > 0; i-- {
		j, err := Uint64N(uint64(i + 1))
		if err != nil {
			return err
		}
		swap(i, int(j))
	}
	return nil
}
