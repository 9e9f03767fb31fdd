//go:build linux

package entropy

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// readOS fills b via the getrandom syscall, looping over short reads and
// interrupts.
func readOS(b []byte) error {
	for len(b) > 0 {
		n, err := unix.Getrandom(b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("entropy: getrandom: %w", err)
		}
		b = b[n:]
	}
	return nil
}
