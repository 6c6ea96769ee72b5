package protocols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

func TestBatchSamplesByPointGroupsSharedPoints(t *testing.T) {
	p1 := core.CirclePointQM31{X: core.QM31One, Y: core.QM31Zero}
	p2 := core.CirclePointQM31{X: core.QM31Zero, Y: core.QM31One}

	points := []core.CirclePointQM31{p1, p2, p1}
	cols := []int{0, 1, 2}
	vals := []core.QM31{core.QM31One, core.QM31One, core.QM31One}

	batches := BatchSamplesByPoint(points, cols, vals)
	require.Len(t, batches, 2)

	var p1Batch ColumnSampleBatch
	for _, b := range batches {
		if b.Point.Equal(p1) {
			p1Batch = b
		}
	}
	require.Len(t, p1Batch.ColumnValues, 2)
}

func TestEvalQuotientErrorsOnBaseFieldSamplePoint(t *testing.T) {
	// A sample point with no genuine conjugate pair (batch.Point already
	// lies in the base field) can't anchor a complex-conjugate-pair line,
	// so EvalQuotientAtDomainPoint must reject it rather than silently
	// degenerate to the old, incorrect Y-only subtraction.
	domain := core.CanonicCircleDomain(3)
	p := domain.At(1)
	other := domain.At(2)

	batch := ColumnSampleBatch{
		Point:        other.IntoQM31(),
		ColumnValues: []ColumnSample{{ColumnIndex: 0, Value: core.QM31FromM31(other.Y)}},
	}
	columnValues := map[int]core.M31{0: p.Y}

	_, err := EvalQuotientAtDomainPoint(p, batch, columnValues, core.QM31One)
	require.Error(t, err)
}

func TestEvalQuotientDistinguishesReflectionPoint(t *testing.T) {
	// p and its reflection (-p.X, p.Y) share a y-coordinate but are
	// different circle points; a denominator built from Y alone would
	// wrongly vanish at both whenever it vanishes at one. The
	// complex-conjugate-pair line depends on X too, so generically it does
	// not.
	ch := utils.NewChannel(core.Blake2sHasher{})
	z, err := DrawOODSPoint(ch)
	require.NoError(t, err)

	domain := core.CanonicCircleDomain(3)
	p := domain.At(1)
	reflection := core.CirclePointM31{X: p.X.Neg(), Y: p.Y}

	zConj := z.Conjugate()
	denomAtP := pairVanishing(z, zConj, p)
	denomAtReflection := pairVanishing(z, zConj, reflection)
	require.False(t, denomAtP.IsZero() && denomAtReflection.IsZero(),
		"pair-vanishing line should not vanish at an arbitrary unrelated point and its reflection simultaneously")
}

func TestEvalQuotientZeroWhenColumnMatchesConjugateLine(t *testing.T) {
	// A non-constant column: f(x,y)=y has its sample at the OODS point
	// equal to z.Y and, since the line through (z.Y, z.Y) and (conj(z).Y,
	// conj(z).Y) is just the identity v=y, the row value f evaluates to at
	// any base-field p is exactly that line's value at p.Y. Unlike the old
	// bare Y-subtraction, exercising this requires a genuine
	// non-base-field sample point.
	ch := utils.NewChannel(core.Blake2sHasher{})
	z, err := DrawOODSPoint(ch)
	require.NoError(t, err)

	domain := core.CanonicCircleDomain(3)
	p := domain.At(1)

	batch := ColumnSampleBatch{
		Point:        z,
		ColumnValues: []ColumnSample{{ColumnIndex: 0, Value: z.Y}},
	}
	columnValues := map[int]core.M31{0: p.Y}

	got, err := EvalQuotientAtDomainPoint(p, batch, columnValues, core.QM31One)
	require.NoError(t, err)
	require.True(t, got.IsZero(), "quotient should vanish when the column value equals the conjugate-pair line's prediction")
}

func TestEvalQuotientNonConstantColumnMatchesHandDerivedFormula(t *testing.T) {
	// f(x,y)=x is not a function of y alone, so (unlike the f(x,y)=y case
	// above) the conjugate-pair line generally disagrees with f away from
	// the sample points, giving a nonzero quotient -- this pins the
	// formula against an independently hand-derived expected value.
	ch := utils.NewChannel(core.Blake2sHasher{})
	z, err := DrawOODSPoint(ch)
	require.NoError(t, err)

	domain := core.CanonicCircleDomain(3)
	p := domain.At(1)

	batch := ColumnSampleBatch{
		Point:        z,
		ColumnValues: []ColumnSample{{ColumnIndex: 0, Value: z.X}},
	}
	columnValues := map[int]core.M31{0: p.X}

	got, err := EvalQuotientAtDomainPoint(p, batch, columnValues, core.QM31One)
	require.NoError(t, err)

	zConj := z.Conjugate()
	denomInv, err := pairVanishing(z, zConj, p).Inverse()
	require.NoError(t, err)
	yDiffInv, err := z.Y.Sub(zConj.Y).Inverse()
	require.NoError(t, err)
	lineSlope := z.X.Sub(zConj.X).Mul(yDiffInv)
	lineValue := lineSlope.Mul(core.QM31FromM31(p.Y)).Add(z.X.Sub(lineSlope.Mul(z.Y)))
	want := core.QM31FromM31(p.X).Sub(lineValue).Mul(denomInv)
	require.True(t, got.Equal(want))
}

func TestDrawOODSPointLiesOnCircle(t *testing.T) {
	ch := utils.NewChannel(core.Blake2sHasher{})
	p, err := DrawOODSPoint(ch)
	require.NoError(t, err)

	lhs := p.X.Mul(p.X).Add(p.Y.Mul(p.Y))
	require.True(t, lhs.Equal(core.QM31One))
}

func TestReconstructCompositionEvalOfZeroSamplesIsZero(t *testing.T) {
	ch := utils.NewChannel(core.Blake2sHasher{})
	oods, err := DrawOODSPoint(ch)
	require.NoError(t, err)

	zero := make([]core.QM31, CompositionColumns)
	got := ReconstructCompositionEval(zero, oods)
	require.True(t, got.IsZero())
}
