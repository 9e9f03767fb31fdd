package rng

import (
	"time"
)

// tickDuration paces the tick feeder. With 10ms ticks a full 64-bit batch
// takes well over half a second, keeping estimates conservative.
const tickDuration = 10 * time.Millisecond

// tickFeeder is a really simple entropy feeder that adds the least
// significant bit of the current nanosecond unixtime to its pool every time
// it 'ticks'. The more work the program does, the better the quality, as the
// internal scheduler cannot immediately run the goroutine when it's ready.
func tickFeeder() {
	var value int64
	var pushes int
	feeder := NewFeeder()

	for {
		select {
		case <-time.After(tickDuration):

			value = (value << 1) | (time.Now().UnixNano() % 2)

			pushes++
			if pushes >= 64 {
				feeder.SupplyEntropyAsIntIfNeeded(value, 8)
				pushes = 0
			}

		case <-shutdownSignal:
			return
		}
	}
}
