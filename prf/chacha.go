package prf

import (
	"encoding/binary"
	"math/bits"
)

const (
	chachaKeyLen   = 32
	chachaNonceLen = 12
	// Seed layout: 32 key bytes followed by 12 nonce bytes, matching the
	// IETF state layout with a 32-bit block counter. The counter slot is
	// the PRF index.
	chachaSeedLen  = chachaKeyLen + chachaNonceLen
	chachaStateLen = 64 // 16 little-endian state words
	chachaBlockLen = 64
)

// chachaPortable is a pure-Go ChaCha block function with a configurable
// round count. One Generate call produces a single 64-byte block.
type chachaPortable struct {
	name   string
	rounds int
}

func init() {
	MustRegister(&chachaPortable{name: "chacha8", rounds: 8})
	MustRegister(&chachaPortable{name: "chacha12", rounds: 12})
	MustRegister(&chachaPortable{name: "chacha20", rounds: 20})
}

func (c *chachaPortable) Name() string    { return c.name }
func (c *chachaPortable) Impl() string    { return ImplPortable }
func (c *chachaPortable) StateLen() int   { return chachaStateLen }
func (c *chachaPortable) StateBytes() int { return chachaSeedLen }
func (c *chachaPortable) OutputLen() int  { return chachaBlockLen }
func (c *chachaPortable) IdxStep() uint32 { return 1 }

// Setup expands the seed into the 16-word block state. The counter word is
// left zero; Generate overwrites it with the index on every call.
func (c *chachaPortable) Setup(state, seed []byte) {
	binary.LittleEndian.PutUint32(state[0:], 0x61707865) // "expa"
	binary.LittleEndian.PutUint32(state[4:], 0x3320646e) // "nd 3"
	binary.LittleEndian.PutUint32(state[8:], 0x79622d32) // "2-by"
	binary.LittleEndian.PutUint32(state[12:], 0x6b206574) // "te k"
	copy(state[16:48], seed[:chachaKeyLen])
	binary.LittleEndian.PutUint32(state[48:], 0)
	copy(state[52:64], seed[chachaKeyLen:chachaSeedLen])
}

func (c *chachaPortable) Generate(state, out []byte, idx uint32) {
	var in [16]uint32
	for i := range in {
		in[i] = binary.LittleEndian.Uint32(state[i*4:])
	}
	in[12] = idx

	x := in
	for i := 0; i < c.rounds; i += 2 {
		// column round
		x[0], x[4], x[8], x[12] = quarterRound(x[0], x[4], x[8], x[12])
		x[1], x[5], x[9], x[13] = quarterRound(x[1], x[5], x[9], x[13])
		x[2], x[6], x[10], x[14] = quarterRound(x[2], x[6], x[10], x[14])
		x[3], x[7], x[11], x[15] = quarterRound(x[3], x[7], x[11], x[15])
		// diagonal round
		x[0], x[5], x[10], x[15] = quarterRound(x[0], x[5], x[10], x[15])
		x[1], x[6], x[11], x[12] = quarterRound(x[1], x[6], x[11], x[12])
		x[2], x[7], x[8], x[13] = quarterRound(x[2], x[7], x[8], x[13])
		x[3], x[4], x[9], x[14] = quarterRound(x[3], x[4], x[9], x[14])
	}

	for i := range x {
		binary.LittleEndian.PutUint32(out[i*4:], x[i]+in[i])
	}
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}
