package rng

import (
	vm "github.com/VictoriaMetrics/metrics"
)

var (
	servedBytes     = vm.NewCounter("randbase_bytes_served_total")
	entropyFailures = vm.NewCounter("randbase_entropy_failures_total")
)

func init() {
	vm.NewGauge("randbase_reseeds_total", func() float64 {
		rngLock.Lock()
		defer rngLock.Unlock()
		if rng == nil {
			return 0
		}
		return float64(rng.Stats().Reseeds)
	})
	vm.NewGauge("randbase_bytes_generated_total", func() float64 {
		rngLock.Lock()
		defer rngLock.Unlock()
		if rng == nil {
			return 0
		}
		return float64(rng.Stats().BytesGenerated)
	})
}
