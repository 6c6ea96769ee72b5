package protocols

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// CompositionLogSplit is the number of times the composition polynomial is
// split into lower-degree sub-polynomials at commit time; the composition
// tree always holds CompositionColumns = 2^CompositionLogSplit * 4 raw
// columns (one per secure-field lane of each split half).
const CompositionLogSplit = 1

// CompositionColumns is the composition tree's fixed column count: two
// split halves, four base-field lanes each.
const CompositionColumns = 8

var (
	ErrNoTrees                   = errors.New("pcs: commitment scheme has no trees")
	ErrEmptyCommitments          = errors.New("pcs: proof has no commitments")
	ErrCompositionDomainTooSmall = errors.New("pcs: composition log size does not exceed the split bound")
)

// CommitmentScheme is the ordered list of Merkle trees a STARK proof
// commits to: zero or more preprocessed/main trace trees, followed by the
// composition tree.
type CommitmentScheme struct {
	Trees          []*core.MerkleTree
	ColumnLogSizes [][]uint32
}

// Commit appends a new tree to the scheme and mixes its root into channel.
func (cs *CommitmentScheme) Commit(channel *utils.Channel, tree *core.MerkleTree, columnLogSizes []uint32) {
	channel.MixRoot(tree.Root())
	cs.Trees = append(cs.Trees, tree)
	cs.ColumnLogSizes = append(cs.ColumnLogSizes, columnLogSizes)
}

// ColumnSample is one column's claimed value at a ColumnSampleBatch's point.
type ColumnSample struct {
	ColumnIndex int
	Value       core.QM31
}

// ColumnSampleBatch groups every column sampled at the same out-of-domain
// point, the unit the quotient engine accumulates a row's contribution
// over.
type ColumnSampleBatch struct {
	Point        core.CirclePointQM31
	ColumnValues []ColumnSample
}

// BatchSamplesByPoint groups parallel (point, column index, value) slices
// into ColumnSampleBatch entries sharing identical points.
func BatchSamplesByPoint(points []core.CirclePointQM31, columnIndices []int, values []core.QM31) []ColumnSampleBatch {
	var batches []ColumnSampleBatch
	index := map[core.CirclePointQM31]int{}
	for i, p := range points {
		sample := ColumnSample{ColumnIndex: columnIndices[i], Value: values[i]}
		if bi, ok := index[p]; ok {
			batches[bi].ColumnValues = append(batches[bi].ColumnValues, sample)
			continue
		}
		index[p] = len(batches)
		batches = append(batches, ColumnSampleBatch{Point: p, ColumnValues: []ColumnSample{sample}})
	}
	return batches
}

// pairVanishing evaluates, at a base-field domain point p, the unique
// (up to scale) line through excluded0 and excluded1 -- two points of the
// secure-field circle -- in (x,y) form: a*x + b*y + c, with
//
//	a = excluded0.Y - excluded1.Y
//	b = excluded1.X - excluded0.X
//	c = excluded0.X*excluded1.Y - excluded1.X*excluded0.Y
//
// This line meets the circle curve in exactly excluded0 and excluded1, so
// it vanishes at p iff p coincides with one of them -- unlike a bare
// Y-coordinate subtraction, it does not also vanish at p's reflection
// (-p.X, p.Y), which shares excluded0's y-coordinate but not its x.
func pairVanishing(excluded0, excluded1 core.CirclePointQM31, p core.CirclePointM31) core.QM31 {
	a := excluded0.Y.Sub(excluded1.Y)
	b := excluded1.X.Sub(excluded0.X)
	c := excluded0.X.Mul(excluded1.Y).Sub(excluded1.X.Mul(excluded0.Y))
	return a.Mul(core.QM31FromM31(p.X)).Add(b.Mul(core.QM31FromM31(p.Y))).Add(c)
}

// EvalQuotientAtDomainPoint computes one batch's contribution to the
// quotient value at a queried domain point p. Since batch.Point lives in
// the secure extension while p is a base-field domain point, the
// numerator and denominator are built from the complex-conjugate pair
// (batch.Point, batch.Point.Conjugate()): the denominator is the line
// through that pair evaluated at p (zero only when p is one of the pair,
// which for a base-field p means p equals batch.Point when it is itself
// base-field), and each column's numerator term subtracts, instead of the
// bare sampled value, the value of the line through (batch.Point.Y,
// cs.Value) and (batch.Point.Conjugate().Y, cs.Value.Conjugate())
// evaluated at p.Y -- so the quotient is low-degree iff every sampled
// value was correct.
func EvalQuotientAtDomainPoint(p core.CirclePointM31, batch ColumnSampleBatch, columnValues map[int]core.M31, randomCoeff core.QM31) (core.QM31, error) {
	z := batch.Point
	zConj := z.Conjugate()

	denom := pairVanishing(z, zConj, p)
	denomInv, err := denom.Inverse()
	if err != nil {
		return core.QM31Zero, fmt.Errorf("pcs: quotient denominator vanishes at domain point %s", p)
	}

	yDiff := z.Y.Sub(zConj.Y)
	yDiffInv, err := yDiff.Inverse()
	if err != nil {
		return core.QM31Zero, fmt.Errorf("pcs: out-of-domain point %s is not a genuine extension-field point", z)
	}
	py := core.QM31FromM31(p.Y)

	numerator := core.QM31Zero
	power := core.QM31One
	for _, cs := range batch.ColumnValues {
		v, ok := columnValues[cs.ColumnIndex]
		if !ok {
			return core.QM31Zero, fmt.Errorf("pcs: missing column %d value at queried row", cs.ColumnIndex)
		}
		lineSlope := cs.Value.Sub(cs.Value.Conjugate()).Mul(yDiffInv)
		lineValue := lineSlope.Mul(py).Add(cs.Value.Sub(lineSlope.Mul(z.Y)))

		diff := core.QM31FromM31(v).Sub(lineValue)
		numerator = numerator.Add(power.Mul(diff))
		power = power.Mul(randomCoeff)
	}
	return numerator.Mul(denomInv), nil
}

// FriAnswers sums every batch's quotient contribution at p into the single
// secure-field value that row contributes to the vector FRI proves
// low-degree.
func FriAnswers(p core.CirclePointM31, batches []ColumnSampleBatch, columnValues map[int]core.M31, randomCoeff core.QM31) (core.QM31, error) {
	acc := core.QM31Zero
	for _, b := range batches {
		v, err := EvalQuotientAtDomainPoint(p, b, columnValues, randomCoeff)
		if err != nil {
			return core.QM31Zero, err
		}
		acc = acc.Add(v)
	}
	return acc, nil
}

// DrawOODSPoint draws a uniformly random point on the circle over the
// secure extension field, via the rational parametrization x=(1-t^2)/(1+t^2),
// y=2t/(1+t^2) of a single drawn field element t (which indeed satisfies
// x^2+y^2=1 for every t with 1+t^2 != 0).
func DrawOODSPoint(channel *utils.Channel) (core.CirclePointQM31, error) {
	t := channel.DrawSecureFelt()
	tSq := t.Square()
	denom := core.QM31One.Add(tSq)
	denomInv, err := denom.Inverse()
	if err != nil {
		return core.CirclePointQM31{}, fmt.Errorf("pcs: degenerate oods parameter")
	}
	x := core.QM31One.Sub(tSq).Mul(denomInv)
	y := t.Add(t).Mul(denomInv)
	return core.CirclePointQM31{X: x, Y: y}, nil
}

// Extension-field basis elements used to recombine four base-field lanes
// (sampled as independent QM31 values, one per raw M31 column) back into a
// single secure-field value.
var (
	qm31BasisI  = core.NewQM31(core.NewCM31(core.M31Zero, core.M31One), core.CM31Zero)
	qm31BasisU  = core.NewQM31(core.CM31Zero, core.CM31One)
	qm31BasisIU = core.NewQM31(core.CM31Zero, core.NewCM31(core.M31Zero, core.M31One))
)

// ReconstructCompositionEval rebuilds the composition polynomial's
// out-of-domain evaluation from its CompositionColumns raw-column sample
// values: every four consecutive columns are the secure-field lanes of one
// CompositionLogSplit half (combined as a linear sum over the extension
// basis 1, i, u, iu),
// and the two halves are combined via the standard degree-2 split relation
// evaluated at oodsPoint.X.
func ReconstructCompositionEval(samples []core.QM31, oodsPoint core.CirclePointQM31) core.QM31 {
	lane := func(base int) core.QM31 {
		return samples[base].
			Add(samples[base+1].Mul(qm31BasisI)).
			Add(samples[base+2].Mul(qm31BasisU)).
			Add(samples[base+3].Mul(qm31BasisIU))
	}
	even := lane(0)
	odd := lane(4)
	return even.Add(oodsPoint.X.Mul(odd))
}
