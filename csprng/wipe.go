package csprng

// wipe zeroes b. Buffers that held seed or keystream material are cleared on
// every path that discards them, including error paths.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
