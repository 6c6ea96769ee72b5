package utils

import (
	"encoding/binary"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// Channel is the Fiat-Shamir transcript: a 32-byte digest plus a draw
// counter. Mixing new data into the transcript updates the digest and
// resets the counter; drawing pseudo-random values from the transcript
// advances only the counter, leaving the digest (and therefore anything
// mixed in before it) untouched.
type Channel struct {
	hasher  core.MerkleHasher
	digest  core.Hash
	counter uint64
}

// NewChannel starts a fresh transcript over the given hasher.
func NewChannel(hasher core.MerkleHasher) *Channel {
	return &Channel{hasher: hasher}
}

// Digest returns the channel's current digest.
func (c *Channel) Digest() core.Hash {
	return c.digest
}

func (c *Channel) mix(data []byte) {
	c.digest = c.hasher.MixBytes(c.digest, data)
	c.counter = 0
}

// MixRoot mixes a Merkle commitment's root into the transcript.
func (c *Channel) MixRoot(root core.Hash) {
	c.mix(root.Bytes())
}

// MixU32s mixes a sequence of u32 words, little-endian, into the transcript.
func (c *Channel) MixU32s(words []uint32) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	c.mix(buf)
}

// MixU64 mixes a single u64 value, little-endian, into the transcript.
func (c *Channel) MixU64(v uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	c.mix(buf)
}

// MixFelts mixes a sequence of secure-field elements into the transcript,
// each encoded as four little-endian u32 limbs.
func (c *Channel) MixFelts(felts []core.QM31) {
	words := make([]uint32, 0, 4*len(felts))
	for _, f := range felts {
		words = append(words, f.C0.A.Uint32(), f.C0.B.Uint32(), f.C1.A.Uint32(), f.C1.B.Uint32())
	}
	c.MixU32s(words)
}

// drawBlock derives one 32-byte block from (digest, counter), consuming one
// counter tick, without touching the digest.
func (c *Channel) drawBlock() core.Hash {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, c.counter)
	c.counter++
	return c.hasher.MixBytes(c.digest, buf)
}

// DrawU32s derives eight pseudo-random u32 words from the transcript state.
func (c *Channel) DrawU32s() [8]uint32 {
	block := c.drawBlock()
	var words [8]uint32
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(block[i*4 : i*4+4])
	}
	return words
}

// DrawSecureFelt draws a single pseudo-random secure-field (QM31) element,
// by drawing eight u32 words and reducing the first four modulo p to build
// the element's four base-field lanes.
func (c *Channel) DrawSecureFelt() core.QM31 {
	words := c.DrawU32s()
	return core.QM31FromM31Array(
		core.FromU64(uint64(words[0])),
		core.FromU64(uint64(words[1])),
		core.FromU64(uint64(words[2])),
		core.FromU64(uint64(words[3])),
	)
}

// DrawSecureFelts draws n independent pseudo-random secure-field elements.
func (c *Channel) DrawSecureFelts(n int) []core.QM31 {
	out := make([]core.QM31, n)
	for i := range out {
		out[i] = c.DrawSecureFelt()
	}
	return out
}

// DrawRandomBytes draws n pseudo-random bytes from the transcript, used by
// query-position sampling.
func (c *Channel) DrawRandomBytes(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		block := c.drawBlock()
		out = append(out, block.Bytes()...)
	}
	return out[:n]
}
