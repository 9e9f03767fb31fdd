package prf

import (
	"golang.org/x/crypto/chacha20"
)

// chachaVecBlocks is the number of 64-byte blocks produced per Generate call.
// Larger batches keep the SIMD keystream core saturated.
const chachaVecBlocks = 4

// chachaVector is the vector-accelerated chacha20 backend. It delegates the
// keystream core to golang.org/x/crypto/chacha20, which dispatches to SIMD
// assembly on capable hardware, and produces four blocks per call.
//
// It is bit-compatible with the portable chacha20 backend: four portable
// blocks at indexes idx..idx+3 equal one vector block at idx.
type chachaVector struct{}

func init() {
	MustRegister(chachaVector{})
}

func (chachaVector) Name() string    { return "chacha20" }
func (chachaVector) Impl() string    { return ImplVector }
func (chachaVector) StateLen() int   { return chachaSeedLen }
func (chachaVector) StateBytes() int { return chachaSeedLen }
func (chachaVector) OutputLen() int  { return chachaVecBlocks * chachaBlockLen }
func (chachaVector) IdxStep() uint32 { return chachaVecBlocks }

// Setup keeps the raw key and nonce. The cipher is rebuilt on every Generate
// call so that the operation stays a pure function of (state, idx).
func (chachaVector) Setup(state, seed []byte) {
	copy(state[:chachaSeedLen], seed[:chachaSeedLen])
}

func (chachaVector) Generate(state, out []byte, idx uint32) {
	c, err := chacha20.NewUnauthenticatedCipher(state[:chachaKeyLen], state[chachaKeyLen:chachaSeedLen])
	if err != nil {
		// Key and nonce sizes are fixed at compile time.
		panic(err)
	}
	c.SetCounter(idx)

	out = out[:chachaVecBlocks*chachaBlockLen]
	for i := range out {
		out[i] = 0
	}
	c.XORKeyStream(out, out)
}
