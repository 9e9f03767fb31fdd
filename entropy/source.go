// Package entropy provides the narrow boundary to the operating system's
// strong randomness source. The OS source is the slow-but-strong collaborator
// the generator amortizes; everything else in this module only ever touches
// it through the Source interface.
package entropy

import (
	"fmt"
	"io"
	"os"
)

// Source supplies strong external randomness. Entropy fills b completely or
// fails. After a failure the contents of b are not random and must not be
// used, even partially.
type Source interface {
	Entropy(b []byte) error
}

// Default is the operating system's strong randomness source.
var Default Source = osSource{}

type osSource struct{}

func (osSource) Entropy(b []byte) error {
	return readOS(b)
}

// Device returns a Source that reads from the given randomness device file,
// for deployments that want a specific urandom path. The file is opened per
// call so that no descriptor outlives the request.
func Device(path string) Source {
	return deviceSource(path)
}

type deviceSource string

func (d deviceSource) Entropy(b []byte) error {
	f, err := os.Open(string(d))
	if err != nil {
		return fmt.Errorf("entropy: open device %s: %w", string(d), err)
	}
	defer f.Close()

	if _, err := io.ReadFull(f, b); err != nil {
		return fmt.Errorf("entropy: read device %s: %w", string(d), err)
	}
	return nil
}
