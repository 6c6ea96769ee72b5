package protocols

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// PreprocessedTraceIdx is the commitment-scheme tree index reserved for
// preprocessed columns whenever any component declares one via
// PreprocessedColumnIndices.
const PreprocessedTraceIdx = 0

// Component is the verifier-facing ABI every constraint system (AIR) must
// implement: enough surface for the verifier driver to know which domains
// the component's trace lives on, which points of those domains its
// constraints need sampled (the "mask"), and how to fold its constraint
// quotients into a shared accumulator at an out-of-domain point.
type Component interface {
	// NConstraints returns how many individual constraints the component
	// evaluates (used to size the random linear combination).
	NConstraints() int
	// MaxConstraintLogDegreeBound is the log2 degree bound of the
	// component's highest-degree constraint, after composing with the
	// quotienting denominator.
	MaxConstraintLogDegreeBound() uint32
	// TraceLogDegreeBounds returns, for every trace column the component
	// reads, that column's log2 degree bound.
	TraceLogDegreeBounds() []uint32
	// PreprocessedColumnIndices identifies which of the commitment
	// scheme's preprocessed columns this component reads, if any.
	PreprocessedColumnIndices() []int
	// MaskPoints returns, for every trace column, the list of circle
	// points (relative to the given evaluation point) whose values the
	// component's constraints need.
	MaskPoints(point core.CirclePointQM31) [][]core.CirclePointQM31
	// EvaluateConstraintQuotientsAtPoint folds every constraint's quotient
	// evaluation at point (given the sampled mask values, in the same
	// column order as TraceLogDegreeBounds, and the component's own
	// preprocessed-column values, in the same order as
	// PreprocessedColumnIndices) into acc, scaled by powers of randomCoeff.
	// maxBound is the composition-wide max constraint log-degree bound
	// Verify computed; a component's own MaxConstraintLogDegreeBound must
	// never exceed it.
	EvaluateConstraintQuotientsAtPoint(
		point core.CirclePointQM31,
		mask [][]core.QM31,
		preprocessedMask []core.QM31,
		acc *PointEvaluationAccumulator,
		randomCoeff core.QM31,
		maxBound uint32,
	)
}

// Errors returned while composing components into a commitment scheme.
var (
	ErrPreprocessedColumnSizeMismatch = errors.New("air: two components disagree on a shared preprocessed column's size")
	ErrPreprocessedColumnSizeMissing  = errors.New("air: component references a preprocessed column the commitment scheme does not provide")
)

// Components composes a list of Component implementations proved against a
// single commitment scheme, and is itself the unit the verifier drives.
// Preprocessed columns live on the single tree at PreprocessedTraceIdx, in
// ascending column-index order; that order is fixed once at construction so
// every MaskPoints/ColumnLogSizes/EvalCompositionPolynomialAtPoint call
// agrees on it.
type Components struct {
	list                    []Component
	preprocessedLogSizes    map[int]uint32
	preprocessedColumnOrder []int
	preprocessedColumnPos   map[int]int
}

// NPreprocessedColumns returns how many distinct preprocessed columns this
// component set reads, across all components.
func (cs *Components) NPreprocessedColumns() int {
	return len(cs.preprocessedColumnOrder)
}

// NewComponents composes the given components, validating that any
// preprocessed columns shared between them agree in log-size.
func NewComponents(preprocessedLogSizes map[int]uint32, list ...Component) (*Components, error) {
	seen := map[int]uint32{}
	for _, c := range list {
		for _, idx := range c.PreprocessedColumnIndices() {
			sz, ok := preprocessedLogSizes[idx]
			if !ok {
				return nil, fmt.Errorf("%w: column %d", ErrPreprocessedColumnSizeMissing, idx)
			}
			if prev, ok := seen[idx]; ok && prev != sz {
				return nil, fmt.Errorf("%w: column %d", ErrPreprocessedColumnSizeMismatch, idx)
			}
			seen[idx] = sz
		}
	}

	order := make([]int, 0, len(preprocessedLogSizes))
	for idx := range preprocessedLogSizes {
		order = append(order, idx)
	}
	sort.Ints(order)
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}

	return &Components{
		list:                    list,
		preprocessedLogSizes:    preprocessedLogSizes,
		preprocessedColumnOrder: order,
		preprocessedColumnPos:   pos,
	}, nil
}

// List returns the underlying components in evaluation order.
func (cs *Components) List() []Component {
	return cs.list
}

// ColumnLogSizes returns the concatenation of the preprocessed tree's column
// log-sizes (in ascending column-index order), followed by every
// component's trace column log-degree bounds in component order.
func (cs *Components) ColumnLogSizes() []uint32 {
	out := make([]uint32, 0, len(cs.preprocessedColumnOrder))
	for _, idx := range cs.preprocessedColumnOrder {
		out = append(out, cs.preprocessedLogSizes[idx])
	}
	for _, c := range cs.list {
		out = append(out, c.TraceLogDegreeBounds()...)
	}
	return out
}

// MaskPoints canonicalizes the preprocessed tree's mask to a single sample
// at point for every preprocessed column (they carry no row-to-row
// transition relation, unlike trace columns), then concatenates every
// component's own mask points at point.
func (cs *Components) MaskPoints(point core.CirclePointQM31) [][]core.CirclePointQM31 {
	out := make([][]core.CirclePointQM31, 0, len(cs.preprocessedColumnOrder))
	for range cs.preprocessedColumnOrder {
		out = append(out, []core.CirclePointQM31{point})
	}
	for _, c := range cs.list {
		out = append(out, c.MaskPoints(point)...)
	}
	return out
}

// EvalCompositionPolynomialAtPoint drives every component's constraint
// quotient evaluation at point into one shared accumulator, consuming mask
// values column-by-column in the same order ColumnLogSizes enumerates them
// (preprocessed columns first, then each component's own trace columns),
// and returns the folded composition value. maxBound is the composition-wide
// max constraint log-degree bound, threaded through so every component can
// check its own bound against it.
func (cs *Components) EvalCompositionPolynomialAtPoint(
	point core.CirclePointQM31,
	mask [][]core.QM31,
	randomCoeff core.QM31,
	maxBound uint32,
) core.QM31 {
	acc := NewPointEvaluationAccumulator(randomCoeff)
	preprocessed := mask[:len(cs.preprocessedColumnOrder)]
	offset := len(cs.preprocessedColumnOrder)
	for _, c := range cs.list {
		nCols := len(c.TraceLogDegreeBounds())
		var componentPreprocessed []core.QM31
		for _, idx := range c.PreprocessedColumnIndices() {
			componentPreprocessed = append(componentPreprocessed, preprocessed[cs.preprocessedColumnPos[idx]][0])
		}
		c.EvaluateConstraintQuotientsAtPoint(point, mask[offset:offset+nCols], componentPreprocessed, acc, randomCoeff, maxBound)
		offset += nCols
	}
	return acc.Finalize()
}
