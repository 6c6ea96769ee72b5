package protocols

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// FRI verifier errors, one per failure mode of the protocol's layered
// folding check.
var (
	ErrFirstLayerEvaluationsInvalid = errors.New("fri: first layer evaluations do not match the initial commitment")
	ErrFirstLayerCommitmentInvalid  = errors.New("fri: first layer commitment failed to verify")
	ErrInnerLayerEvaluationsInvalid = errors.New("fri: folded evaluations do not match the next layer's commitment")
	ErrInnerLayerCommitmentInvalid  = errors.New("fri: inner layer commitment failed to verify")
	ErrLastLayerDegreeInvalid       = errors.New("fri: last layer polynomial exceeds its claimed degree bound")
	ErrLastLayerEvaluationsInvalid  = errors.New("fri: last layer polynomial disagrees with the folded query evaluations")
	ErrInvalidNumFriLayers          = errors.New("fri: wrong number of inner layers for the claimed domain and last-layer sizes")
	ErrProofOfWorkInvalid           = errors.New("fri: proof-of-work nonce does not meet the required difficulty")
)

var m31InvTwo = func() core.M31 {
	inv, err := core.M31(2).Inverse()
	if err != nil {
		panic(err)
	}
	return inv
}()

// FoldLine folds a univariate evaluation vector over a line domain into one
// of half the size, via the standard FFT-style butterfly:
//
//	new(x^2) = (f(x)+f(-x))/2 + alpha*(f(x)-f(-x))/(2x)
//
// evals is stored in bit-reversed order (the convention every FRI layer's
// committed column uses): evals[2i] and evals[2i+1] are the values at the
// domain's natural index bit_reverse(i, newLogSize) and its negation, where
// newLogSize is the folded (output) domain's log-size. The output is stored
// the same way, relative to the folded domain.
func FoldLine(evals []core.QM31, domain core.LineDomain, alpha core.QM31) []core.QM31 {
	half := len(evals) / 2
	newLogSize := domain.LogSize() - 1
	out := make([]core.QM31, half)
	for i := 0; i < half; i++ {
		f0, f1 := evals[2*i], evals[2*i+1]
		naturalIdx := utils.BitReverse(uint64(i), newLogSize)
		x := domain.At(naturalIdx)
		folded, err := foldPair(f0, f1, x, alpha)
		if err != nil {
			panic(fmt.Sprintf("fri: domain point at index %d is zero", i))
		}
		out[i] = folded
	}
	return out
}

// foldPair applies the FoldLine butterfly to a single pair of sibling
// evaluations sharing the x-coordinate x (so f0 = f(x), f1 = f(-x)).
func foldPair(f0, f1 core.QM31, x core.M31, alpha core.QM31) (core.QM31, error) {
	xInv, err := x.Inverse()
	if err != nil {
		return core.QM31Zero, err
	}
	sum := f0.Add(f1).MulM31(m31InvTwo)
	diff := f0.Sub(f1).MulM31(xInv.Mul(m31InvTwo))
	return sum.Add(alpha.Mul(diff)), nil
}

// FoldCircleIntoLine folds a circle-domain evaluation vector (2*half
// points, stored bit-reversed: evals[2i] and evals[2i+1] are the values at
// domain's natural index bit_reverse(i, log2(half)) and its negation) down
// to a line-domain evaluation vector (half points, the same bit-reversed
// storage convention relative to the output line domain) by splitting each
// circle function into its even and odd parts along y:
//
//	new(x) = (f(x,y)+f(x,-y))/2 + alpha*(f(x,y)-f(x,-y))/(2y)
//
// returning the folded evaluations together with the line domain they now
// live over (the x-projection of domain's half-coset).
func FoldCircleIntoLine(evals []core.QM31, domain core.CircleDomain, alpha core.QM31) ([]core.QM31, core.LineDomain) {
	half := domain.HalfCoset.Size()
	logHalf := domain.HalfCoset.LogSize
	out := make([]core.QM31, half)
	for i := uint64(0); i < half; i++ {
		naturalIdx := utils.BitReverse(i, logHalf)
		p := domain.At(naturalIdx)
		f0, f1 := evals[2*i], evals[2*i+1]
		yInv, err := p.Y.Inverse()
		if err != nil {
			panic(fmt.Sprintf("fri: circle domain point at index %d has zero y", i))
		}
		sum := f0.Add(f1).MulM31(m31InvTwo)
		diff := f0.Sub(f1).MulM31(yInv.Mul(m31InvTwo))
		out[i] = sum.Add(alpha.Mul(diff))
	}
	return out, core.NewLineDomain(domain.HalfCoset)
}

// FriLayerProof is the per-layer material the verifier needs: the Merkle
// commitment to that layer's evaluations, and the decommitment opening the
// folded query positions (together with their fold-pair siblings).
type FriLayerProof struct {
	Root core.Hash
	Dec  *core.Decommitment
}

// FriProof is the full FRI transcript: one commitment+decommitment per
// folding layer after the initial circle-to-line fold, and the final
// layer's low-degree polynomial in coefficient form.
type FriProof struct {
	FirstLayerRoot   core.Hash
	FirstLayerDec    *core.Decommitment
	InnerLayers      []FriLayerProof
	LastLayerCoeffs  []core.QM31
	LastLayerLogSize uint32
	PowNonce         uint64
}

// friHasher is the hasher every FRI commitment in this package uses.
var friHasher core.MerkleHasher = core.Blake2sHasher{}

// ProveFRI runs the full commit phase over a single circle-domain
// evaluation vector, drawing folding randomness and query positions from
// channel, and returns the proof together with the queried positions (at
// the initial domain's log-size) it opened.
func ProveFRI(channel *utils.Channel, cfg *utils.FriConfig, domain core.CircleDomain, evals []core.QM31) (*FriProof, []uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if !utils.IsPowerOfTwo(len(evals)) {
		return nil, nil, fmt.Errorf("fri: initial evaluation vector length %d is not a power of two", len(evals))
	}

	alpha0 := channel.DrawSecureFelt()
	lineEvals, lineDomain := FoldCircleIntoLine(evals, domain, alpha0)

	firstTree, err := commitLineLayer(lineEvals)
	if err != nil {
		return nil, nil, err
	}
	channel.MixRoot(firstTree.Root())

	trees := []*core.MerkleTree{firstTree}
	curEvals := lineEvals
	curDomain := lineDomain

	for curDomain.LogSize() > uint32(cfg.LogLastLayerDegreeBound) {
		alpha := channel.DrawSecureFelt()
		nextEvals := FoldLine(curEvals, curDomain, alpha)
		nextDomain := curDomain.Double()
		nextTree, err := commitLineLayer(nextEvals)
		if err != nil {
			return nil, nil, err
		}
		channel.MixRoot(nextTree.Root())

		trees = append(trees, nextTree)
		curEvals, curDomain = nextEvals, nextDomain
	}

	lastCoeffs, err := interpolateToCoefficients(curDomain, curEvals)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range lastCoeffs[1<<uint(cfg.LogLastLayerDegreeBound):] {
		if !c.IsZero() {
			return nil, nil, fmt.Errorf("%w: nonzero coefficient beyond claimed bound", ErrLastLayerDegreeInvalid)
		}
	}
	lastCoeffs = lastCoeffs[:1<<uint(cfg.LogLastLayerDegreeBound)]
	channel.MixFelts(lastCoeffs)

	pow := utils.NewProofOfWork(friHasher)
	nonce, err := pow.Solve(channel.Digest(), cfg.PowBits, 1<<32)
	if err != nil {
		return nil, nil, err
	}
	channel.MixU64(nonce)

	queries := DrawQueries(channel, domain.LogSize(), cfg.NQueries)

	curQueries := queries.Fold(1)
	firstDec, _, err := firstTree.Decommit(curQueries.Siblings().Positions)
	if err != nil {
		return nil, nil, err
	}

	innerLayers := make([]FriLayerProof, 0, len(trees)-1)
	for li := 1; li < len(trees); li++ {
		curQueries = curQueries.Fold(1)
		dec, _, err := trees[li].Decommit(curQueries.Siblings().Positions)
		if err != nil {
			return nil, nil, err
		}
		innerLayers = append(innerLayers, FriLayerProof{Root: trees[li].Root(), Dec: dec})
	}

	proof := &FriProof{
		FirstLayerRoot:   firstTree.Root(),
		FirstLayerDec:    firstDec,
		InnerLayers:      innerLayers,
		LastLayerCoeffs:  lastCoeffs,
		LastLayerLogSize: curDomain.LogSize(),
		PowNonce:         nonce,
	}

	return proof, queries.Positions, nil
}

// friCommitPhaseAlphas replays the FRI commit-phase transcript against
// proof -- drawing alpha0 (the circle-to-line folding randomness) and every
// inner layer's folding randomness, mixing in each layer's root and the
// last-layer coefficients, and checking the proof-of-work grind -- without
// drawing any query positions. Queries are drawn exactly once, by
// VerifyFRI, after this replay completes; splitting the commit phase out
// like this is what lets that single draw be handed to VerifyFRI's caller
// and shared with the polynomial commitment layer's own tree decommitments.
func friCommitPhaseAlphas(channel *utils.Channel, cfg *utils.FriConfig, domain core.CircleDomain, proof *FriProof) (core.QM31, []core.QM31, error) {
	if err := cfg.Validate(); err != nil {
		return core.QM31Zero, nil, err
	}

	alpha0 := channel.DrawSecureFelt()
	channel.MixRoot(proof.FirstLayerRoot)

	lineDomain := core.NewLineDomain(domain.HalfCoset)
	curDomain := lineDomain

	var innerAlphas []core.QM31
	for curDomain.LogSize() > uint32(cfg.LogLastLayerDegreeBound) {
		if len(innerAlphas) >= len(proof.InnerLayers) {
			return core.QM31Zero, nil, ErrInvalidNumFriLayers
		}
		alpha := channel.DrawSecureFelt()
		channel.MixRoot(proof.InnerLayers[len(innerAlphas)].Root)
		innerAlphas = append(innerAlphas, alpha)
		curDomain = curDomain.Double()
	}
	if len(innerAlphas) != len(proof.InnerLayers) {
		return core.QM31Zero, nil, ErrInvalidNumFriLayers
	}
	if curDomain.LogSize() != proof.LastLayerLogSize {
		return core.QM31Zero, nil, ErrInvalidNumFriLayers
	}
	if len(proof.LastLayerCoeffs) != 1<<uint(cfg.LogLastLayerDegreeBound) {
		return core.QM31Zero, nil, ErrLastLayerDegreeInvalid
	}
	channel.MixFelts(proof.LastLayerCoeffs)

	pow := utils.NewProofOfWork(friHasher)
	if !pow.Verify(channel.Digest(), proof.PowNonce, cfg.PowBits) {
		return core.QM31Zero, nil, ErrProofOfWorkInvalid
	}
	channel.MixU64(proof.PowNonce)

	return alpha0, innerAlphas, nil
}

// VerifyFRI replays the commit-phase transcript against the given proof,
// draws the single shared query set, and checks every folding layer is
// consistent with the one before it down to the claimed last-layer
// polynomial. Folding the dense circle-domain evaluations at the queried
// positions is the caller's job (it holds the decommitted trace/quotient
// values, not this package): firstLineEvalsFn is invoked with alpha0 (the
// circle-to-line folding randomness) and the drawn queries, and must return,
// for every position expected among the first line layer's queried rows,
// the value obtained by folding the matching pair of decommitted
// circle-domain values with alpha0. VerifyFRI compares that against what
// the first layer's own decommitment reveals.
func VerifyFRI(
	channel *utils.Channel,
	cfg *utils.FriConfig,
	domain core.CircleDomain,
	proof *FriProof,
	firstLineEvalsFn func(alpha0 core.QM31, queries Queries) (map[uint64]core.QM31, error),
) ([]uint64, error) {
	alpha0, innerAlphas, err := friCommitPhaseAlphas(channel, cfg, domain, proof)
	if err != nil {
		return nil, err
	}

	lineDomain := core.NewLineDomain(domain.HalfCoset)

	queries := DrawQueries(channel, domain.LogSize(), cfg.NQueries)
	firstLineEvals, err := firstLineEvalsFn(alpha0, queries)
	if err != nil {
		return nil, err
	}

	curQueries := queries.Fold(1)
	siblingQueries := curQueries.Siblings()
	columnLogSizes := uniformLogSizes(lineDomain.LogSize(), 4)
	if err := core.VerifyMerkleDecommitment(friHasher, proof.FirstLayerRoot, lineDomain.LogSize(), columnLogSizes, siblingQueries.Positions, proof.FirstLayerDec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFirstLayerCommitmentInvalid, err)
	}
	curVals, err := reconstructQM31AtQueries(proof.FirstLayerDec, lineDomain.LogSize(), siblingQueries.Positions)
	if err != nil {
		return nil, err
	}
	for pos, want := range firstLineEvals {
		got, ok := curVals[pos]
		if !ok || !got.Equal(want) {
			return nil, ErrFirstLayerEvaluationsInvalid
		}
	}

	curDomain := lineDomain
	for li, alpha := range innerAlphas {
		layer := proof.InnerLayers[li]
		nextDomain := curDomain.Double()
		nextQueries := curQueries.Fold(1)
		nextSiblings := nextQueries.Siblings()

		isLast := li == len(innerAlphas)-1
		var nextVals map[uint64]core.QM31
		if !isLast {
			sizes := uniformLogSizes(nextDomain.LogSize(), 4)
			if err := core.VerifyMerkleDecommitment(friHasher, layer.Root, nextDomain.LogSize(), sizes, nextSiblings.Positions, layer.Dec); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInnerLayerCommitmentInvalid, err)
			}
			nextVals, err = reconstructQM31AtQueries(layer.Dec, nextDomain.LogSize(), nextSiblings.Positions)
			if err != nil {
				return nil, err
			}
		} else {
			sizes := uniformLogSizes(nextDomain.LogSize(), 4)
			if err := core.VerifyMerkleDecommitment(friHasher, layer.Root, nextDomain.LogSize(), sizes, nextSiblings.Positions, layer.Dec); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInnerLayerCommitmentInvalid, err)
			}
			nextVals, err = reconstructQM31AtQueries(layer.Dec, nextDomain.LogSize(), nextSiblings.Positions)
			if err != nil {
				return nil, err
			}
		}

		logFoldedSize := nextDomain.LogSize()
		for _, fp := range nextQueries.Positions {
			f0, ok0 := curVals[2*fp]
			f1, ok1 := curVals[2*fp+1]
			if !ok0 || !ok1 {
				return nil, ErrInnerLayerEvaluationsInvalid
			}
			naturalIdx := utils.BitReverse(fp, logFoldedSize)
			x := curDomain.At(naturalIdx)
			expected, err := foldPair(f0, f1, x, alpha)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInnerLayerEvaluationsInvalid, err)
			}
			if !isLast {
				got, ok := nextVals[fp]
				if !ok || !got.Equal(expected) {
					return nil, ErrInnerLayerEvaluationsInvalid
				}
			} else {
				got, ok := nextVals[fp]
				if !ok {
					return nil, ErrLastLayerEvaluationsInvalid
				}
				want := evalPolynomial(proof.LastLayerCoeffs, core.QM31FromM31(nextDomain.At(naturalIdx)))
				if !got.Equal(want) || !got.Equal(expected) {
					return nil, ErrLastLayerEvaluationsInvalid
				}
			}
		}

		curVals, curQueries, curDomain = nextVals, nextQueries, nextDomain
	}

	return queries.Positions, nil
}

// FriComplexity returns the asymptotic complexity bounds this FRI
// construction guarantees for an initial domain of the given size: the
// prover's arithmetic operation count, the verifier's, and the proof's
// field-element length.
func FriComplexity(domainSize int) (proverOps, verifierOps, proofLength int) {
	proverOps = 6 * domainSize
	verifierOps = 21 * utils.Log2(domainSize)
	proofLength = domainSize / 3
	return proverOps, verifierOps, proofLength
}

func uniformLogSizes(logSize uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = logSize
	}
	return out
}

// reconstructQM31AtQueries reassembles secure-field values from the four
// interleaved base-field lanes a Decommitment reveals at the given
// (already sorted, deduplicated) positions.
func reconstructQM31AtQueries(dec *core.Decommitment, logSize uint32, positions []uint64) (map[uint64]core.QM31, error) {
	vals := dec.QueriedValues[logSize]
	if len(vals) != 4*len(positions) {
		return nil, fmt.Errorf("fri: expected %d queried values at level %d, got %d", 4*len(positions), logSize, len(vals))
	}
	out := make(map[uint64]core.QM31, len(positions))
	for i, p := range positions {
		out[p] = core.QM31FromM31Array(vals[4*i], vals[4*i+1], vals[4*i+2], vals[4*i+3])
	}
	return out, nil
}

func commitLineLayer(evals []core.QM31) (*core.MerkleTree, error) {
	cols := qm31ToColumns(evals)
	return core.CommitMerkleTree(friHasher, cols)
}

// qm31ToColumns splits a QM31 evaluation vector into its four M31 lanes, so
// it can be committed through the M31-valued Merkle tree.
func qm31ToColumns(evals []core.QM31) []core.Column {
	n := len(evals)
	cols := make([]core.Column, 4)
	for i := range cols {
		cols[i] = make(core.Column, n)
	}
	for i, e := range evals {
		cols[0][i] = e.C0.A
		cols[1][i] = e.C0.B
		cols[2][i] = e.C1.A
		cols[3][i] = e.C1.B
	}
	return cols
}

// interpolateToCoefficients recovers the monomial-basis coefficients of the
// unique polynomial of degree < domain.Size() through (domain.At(bit_reverse(i,
// log2(n))), evals[i]) for every i -- evals is stored bit-reversed, like
// every other FRI layer -- via Gaussian elimination on the (tiny,
// last-layer sized) Vandermonde system. This is only ever run on the final,
// already heavily-folded FRI layer, so its cubic cost is negligible.
func interpolateToCoefficients(domain core.LineDomain, evals []core.QM31) ([]core.QM31, error) {
	n := len(evals)
	logN := domain.LogSize()
	matrix := make([][]core.QM31, n)
	for i := 0; i < n; i++ {
		x := core.QM31FromM31(domain.At(utils.BitReverse(uint64(i), logN)))
		row := make([]core.QM31, n+1)
		power := core.QM31One
		for j := 0; j < n; j++ {
			row[j] = power
			power = power.Mul(x)
		}
		row[n] = evals[i]
		matrix[i] = row
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if !matrix[r][col].IsZero() {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("fri: singular interpolation system")
		}
		matrix[col], matrix[pivot] = matrix[pivot], matrix[col]
		inv, err := matrix[col][col].Inverse()
		if err != nil {
			return nil, err
		}
		for j := col; j <= n; j++ {
			matrix[col][j] = matrix[col][j].Mul(inv)
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := matrix[r][col]
			if factor.IsZero() {
				continue
			}
			for j := col; j <= n; j++ {
				matrix[r][j] = matrix[r][j].Sub(factor.Mul(matrix[col][j]))
			}
		}
	}

	coeffs := make([]core.QM31, n)
	for i := 0; i < n; i++ {
		coeffs[i] = matrix[i][n]
	}
	return coeffs, nil
}

// evalPolynomial evaluates a monomial-basis polynomial at x via Horner's
// method.
func evalPolynomial(coeffs []core.QM31, x core.QM31) core.QM31 {
	acc := core.QM31Zero
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(coeffs[i])
	}
	return acc
}
