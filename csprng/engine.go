// Package csprng implements a buffered, periodically reseeded userspace
// generator on top of a pluggable PRF backend.
//
// The engine serves byte requests from an internal keystream buffer and only
// falls back to the slow OS entropy source when its reseed policy demands it:
// on first use, after a configured output volume, when the block counter
// would wrap, or when the state was inherited across a process fork.
package csprng

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/randbase/randbase/entropy"
	"github.com/randbase/randbase/prf"
)

// DefaultReseedAfterBytes bounds how much keystream is produced from a single
// seeding before fresh OS entropy must be mixed in. One MiB keeps the window
// of a state compromise small while still amortizing OS calls by four orders
// of magnitude, and sits far below the counter capacity of every backend.
const DefaultReseedAfterBytes = 1 << 20

// counterSpace is the number of distinct values of the 32-bit block counter.
// The counter is tracked in 64 bits internally so that exhaustion is detected
// before a wrap could reuse an index.
const counterSpace = 1 << 32

var (
	// ErrEntropySource marks a failure of the OS entropy source. The
	// request that triggered the reseed fails; the engine never serves
	// bytes derived from stale or partially seeded state instead.
	ErrEntropySource = errors.New("csprng: entropy source failure")

	// ErrClosed is returned when using an engine after Close.
	ErrClosed = errors.New("csprng: generator is closed")
)

// Options configure a new Engine. The zero value selects chacha20, the OS
// entropy source and the default reseed threshold.
type Options struct {
	// Algorithm names the PRF to use. Defaults to "chacha20". The active
	// implementation for the process is resolved through the registry.
	Algorithm string

	// Backend overrides registry resolution with a concrete backend.
	// Intended for tests and custom deployments; it is validated against
	// the descriptor invariants before use.
	Backend prf.Backend

	// Source overrides the entropy source used for seeding.
	Source entropy.Source

	// ReseedAfterBytes overrides the reseed-after output volume.
	ReseedAfterBytes uint64
}

// Engine is a cryptographically secure pseudorandom byte generator.
//
// An Engine is not safe for concurrent use. Either keep one engine per
// goroutine, at the cost of per-goroutine reseed traffic, or share one behind
// a lock held for the duration of each read (package rng does the latter).
type Engine struct {
	backend prf.Backend
	src     entropy.Source

	state []byte // exclusively owned PRF state, StateLen bytes
	buf   []byte // generated but not yet consumed keystream
	pos   int    // read cursor into buf; len(buf) means empty

	counter        uint64 // next PRF index, wider than the wire counter
	seeded         bool
	closed         bool
	bytesSinceSeed uint64
	reseedAfter    uint64

	pid      int
	seedTime time.Time

	totalGenerated uint64
	totalReseeds   uint64
}

// Stats describe generator activity since construction.
type Stats struct {
	// Backend is the active backend as "algorithm/implementation".
	Backend string
	// BytesGenerated is the total keystream volume produced.
	BytesGenerated uint64
	// Reseeds counts completed reseed operations, including the first.
	Reseeds uint64
	// SeededAt is the time of the most recent successful reseed.
	SeededAt time.Time
}

// New creates and immediately seeds an Engine. A first-seed failure is
// returned as is; the engine never starts in an unseeded state.
func New(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = &Options{}
	}

	backend := opts.Backend
	if backend != nil {
		if err := prf.Validate(backend); err != nil {
			return nil, fmt.Errorf("csprng: invalid backend %s/%s: %w", backend.Name(), backend.Impl(), err)
		}
	} else {
		algo := opts.Algorithm
		if algo == "" {
			algo = "chacha20"
		}
		var err error
		backend, err = prf.Active(algo)
		if err != nil {
			return nil, err
		}
	}

	src := opts.Source
	if src == nil {
		src = entropy.Default
	}
	reseedAfter := opts.ReseedAfterBytes
	if reseedAfter == 0 {
		reseedAfter = DefaultReseedAfterBytes
	}

	e := &Engine{
		backend:     backend,
		src:         src,
		state:       make([]byte, backend.StateLen()),
		buf:         make([]byte, backend.OutputLen()),
		reseedAfter: reseedAfter,
		pid:         os.Getpid(),
	}
	e.pos = len(e.buf)

	if err := e.reseed(nil); err != nil {
		return nil, err
	}
	return e, nil
}

// Read fills p with pseudorandom bytes. It implements io.Reader and only
// fails when a required reseed cannot obtain OS entropy, or after Close.
func (e *Engine) Read(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := e.maybeReseed(); err != nil {
		return 0, err
	}

	n := 0
	for n < len(p) {
		if e.pos == len(e.buf) {
			if err := e.refill(); err != nil {
				return n, err
			}
		}
		c := copy(p[n:], e.buf[e.pos:])
		wipe(e.buf[e.pos : e.pos+c]) // handed-out bytes are key material
		e.pos += c
		n += c
	}
	return n, nil
}

// maybeReseed applies the reseed policy before a request is served: a state
// inherited across a fork, a never-seeded engine, an exceeded output budget
// or a counter about to wrap all force fresh entropy.
func (e *Engine) maybeReseed() error {
	switch {
	case os.Getpid() != e.pid:
		// A forked child shares keystream history with its parent;
		// serving from the inherited state would duplicate the
		// parent's future output.
		return e.reseed(nil)
	case !e.seeded:
		return e.reseed(nil)
	case e.bytesSinceSeed >= e.reseedAfter:
		return e.reseed(nil)
	case e.counter+uint64(e.backend.IdxStep()) > counterSpace:
		return e.reseed(nil)
	}
	return nil
}

// refill produces the next keystream block into the internal buffer.
func (e *Engine) refill() error {
	step := uint64(e.backend.IdxStep())
	if e.counter+step > counterSpace {
		// A single huge request can exhaust the counter between the
		// policy check and here.
		if err := e.reseed(nil); err != nil {
			return err
		}
	}

	e.backend.Generate(e.state, e.buf, uint32(e.counter))
	e.counter += step
	e.bytesSinceSeed += uint64(len(e.buf))
	e.totalGenerated += uint64(len(e.buf))
	e.pos = 0
	return nil
}

// reseed derives a fresh PRF state from the entropy source, optionally
// mixing in caller-supplied seed material. On failure the engine is left
// byte-for-byte unchanged, so a retry by the caller is safe.
func (e *Engine) reseed(extra []byte) error {
	seed := make([]byte, e.backend.StateBytes())
	if err := e.src.Entropy(seed); err != nil {
		wipe(seed)
		return fmt.Errorf("%w: %w", ErrEntropySource, err)
	}
	for i, b := range extra {
		seed[i%len(seed)] ^= b
	}

	fresh := make([]byte, e.backend.StateLen())
	e.backend.Setup(fresh, seed)
	wipe(seed)

	wipe(e.state)
	e.state = fresh
	wipe(e.buf)
	e.pos = len(e.buf)

	e.counter = 0
	e.bytesSinceSeed = 0
	e.seeded = true
	e.seedTime = time.Now()
	e.pid = os.Getpid()
	e.totalReseeds++
	return nil
}

// Reseed forces an immediate reseed from the entropy source.
func (e *Engine) Reseed() error {
	if e.closed {
		return ErrClosed
	}
	return e.reseed(nil)
}

// AddSeed mixes caller-supplied seed material into an immediate reseed. The
// extra bytes supplement fresh OS entropy, they never replace it.
func (e *Engine) AddSeed(extra []byte) error {
	if e.closed {
		return ErrClosed
	}
	return e.reseed(extra)
}

// Close wipes the PRF state and all buffered keystream. Residual bytes are
// equivalent to unused key material, so every buffer is zeroed before the
// engine is released. A closed engine fails all further reads.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	wipe(e.state)
	wipe(e.buf)
	e.pos = len(e.buf)
	e.counter = 0
	e.bytesSinceSeed = 0
	e.seeded = false
	e.closed = true
	return nil
}

// Stats returns generator activity totals.
func (e *Engine) Stats() Stats {
	return Stats{
		Backend:        e.backend.Name() + "/" + e.backend.Impl(),
		BytesGenerated: e.totalGenerated,
		Reseeds:        e.totalReseeds,
		SeededAt:       e.seedTime,
	}
}
