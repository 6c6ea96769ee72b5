// Package core implements the native arithmetic, circle geometry, hashing and
// vector-commitment primitives the rest of the engine is built on: the
// Mersenne-31 field tower (M31/CM31/QM31), the circle group over M31, the
// keyed Merkle hash, and the mixed-degree vector commitment scheme.
package core

import "fmt"

// Modulus is the Mersenne prime 2^31 - 1 that the base field is built over.
const Modulus uint32 = (1 << 31) - 1

// M31 is an element of the base field GF(2^31 - 1), always kept in its
// canonical representative range [0, Modulus).
type M31 uint32

// M31Zero and M31One are the additive and multiplicative identities.
const (
	M31Zero M31 = 0
	M31One  M31 = 1
)

// reduce32 brings a sum of two canonical M31 values (so v < 2*Modulus) back
// into [0, Modulus).
func reduce32(v uint32) M31 {
	if v >= Modulus {
		v -= Modulus
	}
	return M31(v)
}

// reduce64 folds an arbitrary 62-bit product down to a canonical M31 value
// using the standard double Mersenne-31 fold: since 2^31 ≡ 1 (mod p), we can
// repeatedly replace the high bits by adding them back into the low bits.
func reduce64(x uint64) M31 {
	// First fold: x = hi*2^31 + lo  ==>  x ≡ hi + lo (mod p)
	lo := uint32(x & uint64(Modulus))
	hi := uint32(x >> 31)
	t := lo + hi
	// t can be up to 2*Modulus, fold once more the same way.
	t = (t & Modulus) + (t >> 31)
	if t >= Modulus {
		t -= Modulus
	}
	return M31(t)
}

// NewM31 builds a canonical field element from a value already known to be
// less than 2*Modulus (the common case: the sum of two canonical elements).
func NewM31(v uint32) M31 {
	return reduce32(v)
}

// FromU64 reduces an arbitrary uint64 modulo p, handling values many multiples
// of p above the canonical range (e.g. from_u64(p) == 0, from_u64(2p) == 0).
func FromU64(v uint64) M31 {
	v %= uint64(Modulus)
	return M31(v)
}

// Add returns a + b mod p.
func (a M31) Add(b M31) M31 {
	return reduce32(uint32(a) + uint32(b))
}

// Sub returns a - b mod p.
func (a M31) Sub(b M31) M31 {
	if a >= b {
		return a - b
	}
	return M31(Modulus) - b + a
}

// Neg returns -a mod p.
func (a M31) Neg() M31 {
	if a == 0 {
		return 0
	}
	return M31(Modulus) - a
}

// Mul returns a * b mod p.
func (a M31) Mul(b M31) M31 {
	return reduce64(uint64(a) * uint64(b))
}

// Square returns a^2 mod p.
func (a M31) Square() M31 {
	return a.Mul(a)
}

// Double returns 2a mod p.
func (a M31) Double() M31 {
	return a.Add(a)
}

// Pow raises a to the given exponent by square-and-multiply.
func (a M31) Pow(exp uint64) M31 {
	result := M31One
	base := a
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		exp >>= 1
	}
	return result
}

// Inverse returns the multiplicative inverse of a via Fermat's little theorem
// (a^(p-2)), and an error if a is zero.
func (a M31) Inverse() (M31, error) {
	if a.IsZero() {
		return 0, fmt.Errorf("m31: inverse of zero is undefined")
	}
	return a.Pow(uint64(Modulus - 2)), nil
}

// IsZero reports whether a is the additive identity.
func (a M31) IsZero() bool {
	return a == 0
}

// Equal reports whether a and b denote the same field element.
func (a M31) Equal(b M31) bool {
	return a == b
}

// Uint32 returns the canonical representative as a uint32.
func (a M31) Uint32() uint32 {
	return uint32(a)
}

// ToBytesLE encodes a as a little-endian 4-byte limb.
func (a M31) ToBytesLE() [4]byte {
	v := uint32(a)
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// M31FromBytesLE decodes a little-endian 4-byte limb, rejecting
// non-canonical encodings (values >= Modulus).
func M31FromBytesLE(b [4]byte) (M31, error) {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	if v >= Modulus {
		return 0, fmt.Errorf("m31: non-canonical encoding %d >= modulus %d", v, Modulus)
	}
	return M31(v), nil
}

func (a M31) String() string {
	return fmt.Sprintf("%d", uint32(a))
}

// BatchInverseInPlace inverts every (assumed non-zero) element of values in
// place using Montgomery's batched-inverse trick, processing four
// interleaved lanes at a time to give the multiply chain instruction-level
// parallelism without needing real SIMD.
func BatchInverseInPlace(values []M31) error {
	const lanes = 4
	n := len(values)
	if n == 0 {
		return nil
	}

	prefix := make([]M31, n)
	for lane := 0; lane < lanes && lane < n; lane++ {
		running := M31One
		for i := lane; i < n; i += lanes {
			running = running.Mul(values[i])
			prefix[i] = running
		}
	}

	for lane := 0; lane < lanes && lane < n; lane++ {
		last := lane
		for last+lanes < n {
			last += lanes
		}
		inv, err := prefix[last].Inverse()
		if err != nil {
			return fmt.Errorf("batch inverse: zero element in input: %w", err)
		}
		for i := last; i >= lane; i -= lanes {
			priorPrefix := M31One
			if i-lanes >= 0 {
				priorPrefix = prefix[i-lanes]
			}
			orig := values[i]
			values[i] = inv.Mul(priorPrefix)
			inv = inv.Mul(orig)
		}
	}
	return nil
}
