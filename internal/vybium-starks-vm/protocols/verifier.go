package protocols

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

var (
	ErrInvalidStructure  = errors.New("verifier: proof structure does not match the commitment scheme")
	ErrInvalidProofShape = errors.New("verifier: proof shape does not match the component list")
	ErrOodsNotMatching   = errors.New("verifier: out-of-domain composition evaluation does not match the components")
)

// Verify runs the top-level STARK verifier: it replays the Fiat-Shamir
// transcript against proof, checks the out-of-domain composition identity,
// then verifies every tree's Merkle decommitment and folds the resulting
// quotient evaluations into the FRI low-degree check.
//
// commitmentScheme's trees are the trace tree(s) followed by the
// composition tree, all assumed to share domain's log-size (a
// simplification over the general mixed-degree case).
// commitmentScheme.ColumnLogSizes gives each tree's column log-sizes, used
// to size that tree's decommitment verification.
func Verify(
	components *Components,
	channel *utils.Channel,
	commitmentScheme *CommitmentScheme,
	proof *StarkProof,
	cfg *utils.PcsConfig,
	domain core.CircleDomain,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(commitmentScheme.Trees) == 0 {
		return ErrNoTrees
	}
	if len(proof.Commitments) == 0 {
		return ErrEmptyCommitments
	}
	if len(proof.Commitments) != len(commitmentScheme.Trees) {
		return fmt.Errorf("%w: proof has %d commitments, scheme manages %d trees", ErrInvalidStructure, len(proof.Commitments), len(commitmentScheme.Trees))
	}

	randomCoeff := channel.DrawSecureFelt()

	for _, root := range proof.Commitments {
		channel.MixRoot(root)
	}

	oodsPoint, err := DrawOODSPoint(channel)
	if err != nil {
		return err
	}

	maxBound := uint32(0)
	for _, c := range components.List() {
		if b := c.MaxConstraintLogDegreeBound(); b > maxBound {
			maxBound = b
		}
	}
	if maxBound <= CompositionLogSplit {
		return ErrCompositionDomainTooSmall
	}
	if components.NPreprocessedColumns() > 0 && len(commitmentScheme.Trees) <= PreprocessedTraceIdx {
		return fmt.Errorf("%w: components declare %d preprocessed columns but commitment scheme has no tree at index %d", ErrInvalidStructure, components.NPreprocessedColumns(), PreprocessedTraceIdx)
	}

	mask := components.MaskPoints(oodsPoint)
	if len(proof.SampledValues) != len(mask)+CompositionColumns {
		return fmt.Errorf("%w: got %d sampled columns, components declare %d plus %d composition columns", ErrInvalidProofShape, len(proof.SampledValues), len(mask), CompositionColumns)
	}
	traceSamples := proof.SampledValues[:len(mask)]
	compositionValues := proof.SampledValues[len(mask):]
	for i, points := range mask {
		if len(traceSamples[i]) != len(points) {
			return fmt.Errorf("%w: column %d sampled at %d points, mask wants %d", ErrInvalidProofShape, i, len(traceSamples[i]), len(points))
		}
	}
	for i, col := range compositionValues {
		if len(col) != 1 {
			return fmt.Errorf("%w: composition column %d must sample exactly one point, got %d", ErrInvalidProofShape, i, len(col))
		}
	}
	flatComposition := make([]core.QM31, CompositionColumns)
	for i, col := range compositionValues {
		flatComposition[i] = col[0]
	}

	claimedComposition := ReconstructCompositionEval(flatComposition, oodsPoint)
	actual := components.EvalCompositionPolynomialAtPoint(oodsPoint, traceSamples, randomCoeff, maxBound)
	if !actual.Equal(claimedComposition) {
		return ErrOodsNotMatching
	}

	batches := buildQuotientBatches(mask, traceSamples, oodsPoint, flatComposition)
	return verifyMerkleAndFRI(channel, commitmentScheme, proof, cfg, domain, batches, randomCoeff)
}

// buildQuotientBatches assembles the ColumnSampleBatch list the quotient
// engine needs: one sample per (trace column, mask point) pair, plus one
// sample per composition column, all anchored at the points the verifier
// actually sampled.
func buildQuotientBatches(
	mask [][]core.CirclePointQM31,
	traceSamples [][]core.QM31,
	oodsPoint core.CirclePointQM31,
	compositionValues []core.QM31,
) []ColumnSampleBatch {
	var points []core.CirclePointQM31
	var colIdx []int
	var vals []core.QM31

	col := 0
	for i, columnPoints := range mask {
		for j, p := range columnPoints {
			points = append(points, p)
			colIdx = append(colIdx, col)
			vals = append(vals, traceSamples[i][j])
		}
		col++
	}
	for i, v := range compositionValues {
		points = append(points, oodsPoint)
		colIdx = append(colIdx, col+i)
		vals = append(vals, v)
	}

	return BatchSamplesByPoint(points, colIdx, vals)
}

// verifyMerkleAndFRI hands the PCS tree decommitments to VerifyFRI's single
// shared query draw: the callback it receives verifies every tree's Merkle
// decommitment against that exact query set, reconstructs the PCS quotient
// value at every queried circle-domain position, and folds adjacent pairs
// down into the first FRI line layer with the alpha0 VerifyFRI drew.
func verifyMerkleAndFRI(
	channel *utils.Channel,
	commitmentScheme *CommitmentScheme,
	proof *StarkProof,
	cfg *utils.PcsConfig,
	domain core.CircleDomain,
	batches []ColumnSampleBatch,
	randomCoeff core.QM31,
) error {
	if len(proof.Decommitments) != len(commitmentScheme.Trees) {
		return fmt.Errorf("%w: got %d decommitments for %d trees", ErrInvalidStructure, len(proof.Decommitments), len(commitmentScheme.Trees))
	}
	if proof.Fri == nil {
		return fmt.Errorf("%w: missing fri proof", ErrInvalidStructure)
	}

	columnBase := make([]int, len(commitmentScheme.Trees))
	total := 0
	for i, sizes := range commitmentScheme.ColumnLogSizes {
		columnBase[i] = total
		total += len(sizes)
	}

	firstLineEvalsFn := func(alpha0 core.QM31, queries Queries) (map[uint64]core.QM31, error) {
		siblingQueries := queries.Siblings()

		rowValues := map[uint64]map[int]core.M31{}
		for i, tree := range commitmentScheme.Trees {
			if err := core.VerifyMerkleDecommitment(
				treeHasher,
				tree.Root(),
				tree.MaxLogSize(),
				commitmentScheme.ColumnLogSizes[i],
				siblingQueries.Positions,
				proof.Decommitments[i],
			); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidStructure, i, err)
			}
			nCols := len(commitmentScheme.ColumnLogSizes[i])
			vals := proof.Decommitments[i].QueriedValues[tree.MaxLogSize()]
			if len(vals) != nCols*len(siblingQueries.Positions) {
				return nil, fmt.Errorf("%w: tree %d: expected %d queried values, got %d", ErrInvalidStructure, i, nCols*len(siblingQueries.Positions), len(vals))
			}
			for r, p := range siblingQueries.Positions {
				row, ok := rowValues[p]
				if !ok {
					row = map[int]core.M31{}
					rowValues[p] = row
				}
				for c := 0; c < nCols; c++ {
					row[columnBase[i]+c] = vals[r*nCols+c]
				}
			}
		}

		reduced := queries.Fold(1)
		logHalf := domain.LogSize() - 1

		firstLineEvals := map[uint64]core.QM31{}
		for _, p := range reduced.Positions {
			row0, ok0 := rowValues[2*p]
			row1, ok1 := rowValues[2*p+1]
			if !ok0 || !ok1 {
				return nil, fmt.Errorf("%w: missing decommitted row for query fold pair at %d", ErrInvalidStructure, p)
			}
			naturalIdx := utils.BitReverse(p, logHalf)
			pt0 := domain.At(naturalIdx)
			pt1 := pt0.Neg()
			f0, err := FriAnswers(pt0, batches, row0, randomCoeff)
			if err != nil {
				return nil, err
			}
			f1, err := FriAnswers(pt1, batches, row1, randomCoeff)
			if err != nil {
				return nil, err
			}
			folded, err := foldPair(f0, f1, pt0.Y, alpha0)
			if err != nil {
				return nil, err
			}
			firstLineEvals[p] = folded
		}
		return firstLineEvals, nil
	}

	_, err := VerifyFRI(channel, cfg.Fri, domain, proof.Fri, firstLineEvalsFn)
	return err
}

// treeHasher is the hasher every commitment-scheme tree in this package
// uses, matching friHasher so a single hasher choice governs the whole
// transcript.
var treeHasher = friHasher
