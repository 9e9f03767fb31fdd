//go:build !linux

package entropy

import (
	"crypto/rand"
	"fmt"
	"io"
)

func readOS(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Errorf("entropy: crypto/rand: %w", err)
	}
	return nil
}
