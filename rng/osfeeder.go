package rng

import (
	"time"

	"github.com/randbase/randbase/entropy"
)

// osFeedInterval paces the OS feeder. The engine reseeds itself on its output
// budget anyway; this only guarantees periodic divergence on idle generators.
const osFeedInterval = 10 * time.Minute

func osFeeder() {
	feeder := NewFeeder()
	for {
		// get entropy
		osEntropy := make([]byte, minFeedEntropy/8)
		if err := entropy.Default.Entropy(osEntropy); err != nil {
			log.WithError(err).Error("could not read entropy from os")
			entropyFailures.Inc()
			select {
			case <-time.After(10 * time.Second):
			case <-shutdownSignal:
				return
			}
			continue
		}

		// feed
		feeder.SupplyEntropy(osEntropy, len(osEntropy)*8)

		select {
		case <-time.After(osFeedInterval):
		case <-shutdownSignal:
			return
		}
	}
}
