package rng

import (
	"encoding/binary"

	"github.com/tevino/abool"
)

// minFeedEntropy is the minimum entropy estimate, in bits, gathered before a
// feeder batch is mixed into the generator.
const minFeedEntropy = 256

// The Feeder is used to feed supplemental entropy to the generator. Batches
// are mixed in through the engine's add-seed operation; the engine's own
// reseed policy never depends on feeders, they are defense in depth.
type Feeder struct {
	input        chan *entropyData
	entropy      int
	needsEntropy *abool.AtomicBool
	buffer       []byte
}

type entropyData struct {
	data    []byte
	entropy int
}

// NewFeeder returns a new entropy Feeder.
func NewFeeder() *Feeder {
	f := &Feeder{
		input:        make(chan *entropyData),
		needsEntropy: abool.NewBool(true),
	}
	go f.run()
	return f
}

// NeedsEntropy returns whether the feeder is currently gathering entropy.
func (f *Feeder) NeedsEntropy() bool {
	return f.needsEntropy.IsSet()
}

// SupplyEntropy supplies entropy to the Feeder, blocking until the Feeder has
// read from it or the service shuts down.
func (f *Feeder) SupplyEntropy(data []byte, entropy int) {
	select {
	case f.input <- &entropyData{data: data, entropy: entropy}:
	case <-shutdownSignal:
	}
}

// SupplyEntropyIfNeeded supplies entropy to the Feeder, but does not block if
// no entropy is currently needed.
func (f *Feeder) SupplyEntropyIfNeeded(data []byte, entropy int) {
	if !f.needsEntropy.IsSet() {
		return
	}

	select {
	case f.input <- &entropyData{data: data, entropy: entropy}:
	default:
	}
}

// SupplyEntropyAsInt supplies entropy to the Feeder, blocking until the
// Feeder has read from it or the service shuts down.
func (f *Feeder) SupplyEntropyAsInt(n int64, entropy int) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(n))
	f.SupplyEntropy(b, entropy)
}

// SupplyEntropyAsIntIfNeeded supplies entropy to the Feeder, but does not
// block if no entropy is currently needed.
func (f *Feeder) SupplyEntropyAsIntIfNeeded(n int64, entropy int) {
	if !f.needsEntropy.IsSet() { // avoid allocating a slice if possible
		return
	}

	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(n))
	f.SupplyEntropyIfNeeded(b, entropy)
}

// CloseFeeder stops the feed processing - the responsible goroutine exits.
func (f *Feeder) CloseFeeder() {
	select {
	case f.input <- nil:
	case <-shutdownSignal:
	}
}

func (f *Feeder) run() {
	defer f.needsEntropy.UnSet()

	for {
		// gather
		f.needsEntropy.Set()
	gather:
		for {
			select {
			case newEntropy := <-f.input:
				if newEntropy == nil {
					return
				}
				f.buffer = append(f.buffer, newEntropy.data...)
				f.entropy += newEntropy.entropy
				if f.entropy >= minFeedEntropy {
					break gather
				}
			case <-shutdownSignal:
				return
			}
		}
		// feed
		f.needsEntropy.UnSet()
		f.feed()
	}
}

// feed mixes the gathered batch into the generator and clears the pool.
func (f *Feeder) feed() {
	rngLock.Lock()
	defer rngLock.Unlock()

	if rngReady.IsSet() {
		if err := rng.AddSeed(f.buffer); err != nil {
			log.WithError(err).Warn("failed to mix feeder entropy into the generator")
		}
	}

	for i := range f.buffer {
		f.buffer[i] = 0
	}
	f.buffer = nil
	f.entropy = 0
}
