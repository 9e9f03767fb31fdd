// Package rng provides a process-wide random byte service on top of the
// csprng engine: one shared, lock-guarded generator plus supplemental entropy
// feeders that keep mixing fresh material into it while the process runs.
package rng

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tevino/abool"

	"github.com/randbase/randbase/csprng"
)

var (
	rng      *csprng.Engine
	rngLock  sync.Mutex
	rngReady = abool.New()

	shutdownSignal = make(chan struct{})

	log = logrus.WithField("prefix", "rng")
)

// Start initializes the package generator with default options and launches
// the entropy feeders. Calling Start on a running service is a no-op.
func Start() error {
	return StartWith(nil)
}

// StartWith initializes the package generator with the given engine options
// and launches the entropy feeders.
func StartWith(opts *csprng.Options) error {
	rngLock.Lock()
	defer rngLock.Unlock()

	if rngReady.IsSet() {
		return nil
	}

	engine, err := csprng.New(opts)
	if err != nil {
		return err
	}
	rng = engine
	rngReady.Set()

	// random source: OS
	go osFeeder()

	// random source: goroutine ticks
	go tickFeeder()

	return nil
}

// Stop halts the feeders and wipes the generator. The service cannot be
// restarted afterwards; Stop is meant for process shutdown.
func Stop() {
	rngLock.Lock()
	defer rngLock.Unlock()

	if !rngReady.IsSet() {
		return
	}
	rngReady.UnSet()
	close(shutdownSignal)
	_ = rng.Close()
	rng = nil
}
