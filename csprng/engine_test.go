package csprng

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randbase/randbase/prf"
)

// fakeSource is a deterministic entropy source: the n-th call always yields
// the same bytes, so two engines fed by equal sources seed identically.
type fakeSource struct {
	calls   int
	failing bool
}

func (s *fakeSource) Entropy(b []byte) error {
	if s.failing {
		return errors.New("device exhausted")
	}
	s.calls++
	for i := range b {
		b[i] = byte(s.calls) ^ byte(i*13)
	}
	return nil
}

func newTestEngine(t *testing.T, opts *Options) (*Engine, *fakeSource) {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	src := &fakeSource{}
	opts.Source = src
	e, err := New(opts)
	require.NoError(t, err)
	return e, src
}

func TestNewDefaults(t *testing.T) {
	e, src := newTestEngine(t, nil)
	require.Equal(t, 1, src.calls, "engine must seed immediately")
	require.EqualValues(t, 1, e.Stats().Reseeds)

	b := make([]byte, 96)
	n, err := e.Read(b)
	require.NoError(t, err)
	require.Equal(t, 96, n)
}

func TestNewFailsWithoutEntropy(t *testing.T) {
	_, err := New(&Options{Source: &fakeSource{failing: true}})
	require.ErrorIs(t, err, ErrEntropySource)
}

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New(&Options{Algorithm: "no-such-algorithm", Source: &fakeSource{}})
	require.ErrorIs(t, err, prf.ErrUnknownAlgorithm)
}

func TestZeroLengthRead(t *testing.T) {
	e, src := newTestEngine(t, nil)
	before := src.calls
	n, err := e.Read(nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, before, src.calls)
}

// Reading a then b bytes must yield the same stream as reading a+b bytes
// from an engine with identical seed history.
func TestSplitReadTransparency(t *testing.T) {
	for _, algo := range []string{"chacha8", "chacha12", "chacha20"} {
		algo := algo
		t.Run(algo, func(t *testing.T) {
			e1, _ := newTestEngine(t, &Options{Algorithm: algo})
			e2, _ := newTestEngine(t, &Options{Algorithm: algo})

			for _, split := range []int{1, 63, 64, 65, 300} {
				total := split + 257

				joined := make([]byte, total)
				_, err := e1.Read(joined)
				require.NoError(t, err)

				split1 := make([]byte, split)
				split2 := make([]byte, total-split)
				_, err = e2.Read(split1)
				require.NoError(t, err)
				_, err = e2.Read(split2)
				require.NoError(t, err)

				require.Equal(t, joined[:split], split1, "split %d", split)
				require.Equal(t, joined[split:], split2, "split %d", split)
			}
		})
	}
}

func TestThresholdReseed(t *testing.T) {
	e, src := newTestEngine(t, &Options{Algorithm: "chacha8", ReseedAfterBytes: 128})

	b := make([]byte, 64)
	for i := 0; i < 2; i++ {
		_, err := e.Read(b)
		require.NoError(t, err)
	}
	require.Equal(t, 1, src.calls, "no reseed before the threshold")

	_, err := e.Read(b)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls, "threshold must force a reseed")
	require.EqualValues(t, 2, e.Stats().Reseeds)
}

func TestEntropyFailureLeavesStateUntouched(t *testing.T) {
	e, src := newTestEngine(t, nil)

	b := make([]byte, 100)
	_, err := e.Read(b)
	require.NoError(t, err)

	stateBefore := append([]byte(nil), e.state...)
	bufBefore := append([]byte(nil), e.buf...)
	counterBefore := e.counter
	bytesBefore := e.bytesSinceSeed

	src.failing = true

	require.ErrorIs(t, e.Reseed(), ErrEntropySource)

	// Force the policy path as well.
	e.bytesSinceSeed = e.reseedAfter
	n, err := e.Read(b)
	require.ErrorIs(t, err, ErrEntropySource)
	require.Zero(t, n, "no bytes may be served from stale state")

	e.bytesSinceSeed = bytesBefore
	assert.Equal(t, stateBefore, e.state, "prf state must be unchanged")
	assert.Equal(t, bufBefore, e.buf, "buffered keystream must be unchanged")
	assert.Equal(t, counterBefore, e.counter)

	// A retry after the source recovers is safe.
	src.failing = false
	_, err = e.Read(b)
	require.NoError(t, err)
}

// cloneEngine simulates a fork: the child gets a byte-for-byte copy of the
// engine state but a different owner PID.
func cloneEngine(e *Engine) *Engine {
	c := *e
	c.state = append([]byte(nil), e.state...)
	c.buf = append([]byte(nil), e.buf...)
	c.pid = os.Getpid() + 1
	return &c
}

func TestForkSafety(t *testing.T) {
	parent, src := newTestEngine(t, nil)

	warmup := make([]byte, 32)
	_, err := parent.Read(warmup)
	require.NoError(t, err)

	child := cloneEngine(parent)
	reseedsBefore := child.Stats().Reseeds

	childOut := make([]byte, 64)
	parentOut := make([]byte, 64)
	_, err = child.Read(childOut)
	require.NoError(t, err)
	_, err = parent.Read(parentOut)
	require.NoError(t, err)

	assert.NotEqual(t, parentOut, childOut, "child must not replay the parent's keystream")
	assert.Equal(t, reseedsBefore+1, child.Stats().Reseeds, "fork detection must force a reseed")
	assert.Greater(t, src.calls, 1, "the forced reseed must hit the entropy source")
}

// recordingBackend fails the test if any (seeding, idx) pair is queried twice
// or the counter does not advance by IdxStep between calls.
type recordingBackend struct {
	prf.Backend
	t       *testing.T
	epoch   int
	nextIdx uint32
	pairs   map[string]struct{}
}

func (r *recordingBackend) Setup(state, seed []byte) {
	r.epoch++
	r.nextIdx = 0
	r.Backend.Setup(state, seed)
}

func (r *recordingBackend) Generate(state, out []byte, idx uint32) {
	if idx != r.nextIdx {
		r.t.Fatalf("epoch %d: counter %d, want %d", r.epoch, idx, r.nextIdx)
	}
	key := fmt.Sprintf("%d/%d", r.epoch, idx)
	if _, ok := r.pairs[key]; ok {
		r.t.Fatalf("(state, counter) pair %s queried twice", key)
	}
	r.pairs[key] = struct{}{}
	r.nextIdx = idx + r.Backend.IdxStep()
	r.Backend.Generate(state, out, idx)
}

func TestNoCounterReuseAcrossReseeds(t *testing.T) {
	inner, err := prf.Active("chacha20")
	require.NoError(t, err)
	rec := &recordingBackend{
		Backend: inner,
		t:       t,
		pairs:   make(map[string]struct{}),
	}

	e, _ := newTestEngine(t, &Options{Backend: rec, ReseedAfterBytes: 512})

	b := make([]byte, 96)
	for i := 0; i < 64; i++ {
		_, err := e.Read(b)
		require.NoError(t, err)
	}
	require.Greater(t, rec.epoch, 1, "the byte budget must have forced reseeds")
}

func TestCounterExhaustionForcesReseed(t *testing.T) {
	e, src := newTestEngine(t, &Options{Algorithm: "chacha8"})
	callsBefore := src.calls

	// Pretend the whole counter range has been consumed.
	e.counter = counterSpace
	e.pos = len(e.buf)

	b := make([]byte, 64)
	_, err := e.Read(b)
	require.NoError(t, err)
	require.Equal(t, callsBefore+1, src.calls)
	require.Less(t, e.counter, uint64(16), "counter must restart after reseed")
}

func TestAddSeedDiverges(t *testing.T) {
	e1, _ := newTestEngine(t, nil)
	e2, _ := newTestEngine(t, nil)

	require.NoError(t, e1.Reseed())
	require.NoError(t, e2.AddSeed([]byte("supplemental seed material")))

	b1 := make([]byte, 64)
	b2 := make([]byte, 64)
	_, err := e1.Read(b1)
	require.NoError(t, err)
	_, err = e2.Read(b2)
	require.NoError(t, err)

	assert.NotEqual(t, b1, b2, "extra seed material must change the keystream")
}

func TestInvalidInjectedBackend(t *testing.T) {
	inner, err := prf.Active("chacha20")
	require.NoError(t, err)
	_, err = New(&Options{
		Backend: brokenBackend{inner},
		Source:  &fakeSource{},
	})
	require.Error(t, err)
}

// brokenBackend reports a state buffer smaller than its seed.
type brokenBackend struct {
	prf.Backend
}

func (brokenBackend) StateLen() int { return 1 }

func TestClose(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	b := make([]byte, 32)
	_, err := e.Read(b)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "closing twice is fine")

	_, err = e.Read(b)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, e.Reseed(), ErrClosed)
	require.ErrorIs(t, e.AddSeed(nil), ErrClosed)

	for _, v := range e.state {
		require.Zero(t, v, "state must be wiped on close")
	}
	for _, v := range e.buf {
		require.Zero(t, v, "buffered keystream must be wiped on close")
	}
}

func TestStats(t *testing.T) {
	e, _ := newTestEngine(t, &Options{Algorithm: "chacha8"})
	s := e.Stats()
	assert.Equal(t, "chacha8/portable", s.Backend)
	assert.False(t, s.SeededAt.IsZero())

	b := make([]byte, 200)
	_, err := e.Read(b)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e.Stats().BytesGenerated, uint64(200))
}

func BenchmarkRead(b *testing.B) {
	for _, size := range []int{32, 1024, 65536} {
		b.Run(fmt.Sprintf("%d", size), func(b *testing.B) {
			e, err := New(&Options{Source: &fakeSource{}})
			if err != nil {
				b.Fatal(err)
			}
			buf := make([]byte, size)
			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := e.Read(buf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
