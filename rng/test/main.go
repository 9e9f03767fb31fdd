package main

// Writes generator output to stdout for external statistical test suites
// (dieharder, PractRand, ent). A "." is printed to stderr at every KiB.

import (
	"fmt"
	"os"

	"github.com/randbase/randbase/csprng"
	"github.com/randbase/randbase/rng"
)

func main() {
	algorithm := "chacha20"
	if len(os.Args) > 1 {
		algorithm = os.Args[1]
	}

	err := rng.StartWith(&csprng.Options{Algorithm: algorithm})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start rng: %s\n", err)
		os.Exit(1)
	}

	os.Stderr.WriteString("writing 1MB to stdout, a \".\" will be printed at every 1024 bytes.\n")

	var bytesWritten int
	for {
		b, err := rng.Bytes(64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get random data: %s\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(b)

		bytesWritten += 64
		if bytesWritten%1024 == 0 {
			os.Stderr.WriteString(".")
		}
		if bytesWritten%65536 == 0 {
			fmt.Fprintf(os.Stderr, "\n%d bytes written\n", bytesWritten)
		}
		if bytesWritten >= 1000000 {
			os.Stderr.WriteString("\n")
			break
		}
	}
}
