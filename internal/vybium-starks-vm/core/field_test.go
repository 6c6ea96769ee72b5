package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestM31AddSubRoundTrip(t *testing.T) {
	a, b := M31(123456789), M31(987654321)
	require.Equal(t, a, a.Add(b).Sub(b))
}

func TestM31MulInverse(t *testing.T) {
	a := M31(42)
	inv, err := a.Inverse()
	require.NoError(t, err)
	require.Equal(t, M31One, a.Mul(inv))
}

func TestM31InverseOfZero(t *testing.T) {
	_, err := M31Zero.Inverse()
	require.Error(t, err)
}

func TestM31FromU64ReducesMultiplesOfModulus(t *testing.T) {
	require.Equal(t, M31Zero, FromU64(uint64(Modulus)))
	require.Equal(t, M31Zero, FromU64(2*uint64(Modulus)))
	require.Equal(t, M31(5), FromU64(uint64(Modulus)+5))
}

func TestM31NegIsAdditiveInverse(t *testing.T) {
	a := M31(7)
	require.True(t, a.Add(a.Neg()).IsZero())
}

func TestM31PowMatchesRepeatedMul(t *testing.T) {
	a := M31(3)
	want := a.Mul(a).Mul(a).Mul(a).Mul(a)
	require.Equal(t, want, a.Pow(5))
}

func TestM31BytesRoundTrip(t *testing.T) {
	a := M31(1 << 20)
	b, err := M31FromBytesLE(a.ToBytesLE())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestM31FromBytesLERejectsNonCanonical(t *testing.T) {
	var nonCanonical [4]byte
	v := Modulus
	nonCanonical = [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	_, err := M31FromBytesLE(nonCanonical)
	require.Error(t, err)
}

func TestBatchInverseInPlaceMatchesIndividualInverse(t *testing.T) {
	values := []M31{1, 2, 3, 4, 5, 6, 7, 8, 9}
	want := make([]M31, len(values))
	for i, v := range values {
		inv, err := v.Inverse()
		require.NoError(t, err)
		want[i] = inv
	}

	got := append([]M31(nil), values...)
	require.NoError(t, BatchInverseInPlace(got))
	require.Equal(t, want, got)
}

func TestBatchInverseInPlaceRejectsZero(t *testing.T) {
	values := []M31{1, 0, 3}
	require.Error(t, BatchInverseInPlace(values))
}
