package utils

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// ProofOfWork implements the grinding gate mixed into the channel after the
// last FRI commitment and before query sampling: the prover must find a nonce such that hashing
// the channel's current digest together with the nonce yields a digest with
// at least powBits leading zero bits.
type ProofOfWork struct {
	hasher core.MerkleHasher
}

// NewProofOfWork builds a grinding gate over the given hasher.
func NewProofOfWork(hasher core.MerkleHasher) ProofOfWork {
	return ProofOfWork{hasher: hasher}
}

func (p ProofOfWork) digestFor(challenge core.Hash, nonce uint64) core.Hash {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, nonce)
	return p.hasher.MixBytes(challenge, buf)
}

// Verify reports whether nonce solves the grinding challenge at the given
// difficulty (number of required leading zero bits).
func (p ProofOfWork) Verify(challenge core.Hash, nonce uint64, powBits int) bool {
	if powBits <= 0 {
		return true
	}
	d := p.digestFor(challenge, nonce)
	return leadingZeroBits(d) >= powBits
}

// Solve performs the grinding search, trying nonces in order until one
// satisfies the difficulty or maxIterations is exhausted.
func (p ProofOfWork) Solve(challenge core.Hash, powBits int, maxIterations uint64) (uint64, error) {
	if powBits <= 0 {
		return 0, nil
	}
	for nonce := uint64(0); nonce < maxIterations; nonce++ {
		if p.Verify(challenge, nonce, powBits) {
			return nonce, nil
		}
	}
	return 0, fmt.Errorf("pow: no solution found for difficulty %d within %d iterations", powBits, maxIterations)
}

func leadingZeroBits(h core.Hash) int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		count += bits.LeadingZeros8(b)
		break
	}
	return count
}
