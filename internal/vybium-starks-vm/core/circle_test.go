package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCircleGeneratorHasFullOrder(t *testing.T) {
	p := CircleGenM31
	for i := 0; i < CircleOrderBits; i++ {
		require.False(t, p.Equal(CirclePointM31Zero), "generator should not reach identity before full order")
		p = p.Double()
	}
	require.True(t, p.Equal(CirclePointM31Zero))
}

func TestCirclePointSatisfiesCurveEquation(t *testing.T) {
	p := CircleGenM31.Mul(12345)
	lhs := p.X.Square().Add(p.Y.Square())
	require.Equal(t, M31One, lhs)
}

func TestCosetHalfStepNegates(t *testing.T) {
	// Stepping a coset by exactly half its order negates both coordinates of
	// every point, since that step is the unique order-2 element (-1, 0) and
	// (x, y) + (-1, 0) = (-x, -y). This is not the group inverse Neg (x, -y).
	coset := SubgroupCoset(4)
	half := coset.Size() / 2
	for i := uint64(0); i < half; i++ {
		p := coset.At(i)
		q := coset.At(i + half)
		require.True(t, q.Equal(CirclePointM31{X: p.X.Neg(), Y: p.Y.Neg()}), "index %d", i)
	}
}

func TestCircleDomainAtMatchesHalfCosetNegation(t *testing.T) {
	domain := CanonicCircleDomain(5)
	half := domain.HalfCoset.Size()
	for i := uint64(0); i < half; i++ {
		require.True(t, domain.At(i).Equal(domain.HalfCoset.At(i)))
		require.True(t, domain.At(i+half).Equal(domain.HalfCoset.At(i).Neg()))
	}
}

func TestLineDomainDoubleHalvesSize(t *testing.T) {
	domain := NewLineDomain(HalfOddsCoset(4))
	doubled := domain.Double()
	require.Equal(t, domain.LogSize()-1, doubled.LogSize())
}

func TestCirclePointIndexAddMatchesPointAdd(t *testing.T) {
	i := NewCirclePointIndex(17)
	j := NewCirclePointIndex(42)
	require.True(t, i.Add(j).ToPoint().Equal(i.ToPoint().Add(j.ToPoint())))
}
