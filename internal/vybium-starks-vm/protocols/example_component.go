package protocols

import "github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"

// Mask-row column indices the Fibonacci constraint expressions reference
// into the flattened [cur, next, side] row Arena.Eval consumes.
const (
	fibMaskCur = iota
	fibMaskNext
	fibMaskSide
)

// FibonacciComponent is a minimal constraint system exercising the
// Component ABI end-to-end: a single trace column obeying the transition
// next = cur + sideColumn, plus a single boundary constraint fixing the
// trace's first row to a public initial value. It exists purely to give the
// verifier driver something concrete to run against in tests; it is
// deliberately not a full example circuit. Its constraints are built once,
// through Arena, rather than as bare Go expressions, so the same
// constant-folding and degree-bound machinery every other component would
// use is exercised here too.
type FibonacciComponent struct {
	logSize      uint32
	initialValue core.QM31
	domain       core.Coset

	arena          *Arena
	transitionExpr ExprHandle
	boundaryExpr   ExprHandle
}

// NewFibonacciComponent builds a component over a trace of size 2^logSize,
// whose first row must equal initialValue.
func NewFibonacciComponent(logSize uint32, initialValue core.M31) *FibonacciComponent {
	qInitial := core.QM31FromM31(initialValue)

	arena := NewArena()
	cur := arena.Column(fibMaskCur)
	next := arena.Column(fibMaskNext)
	side := arena.Column(fibMaskSide)
	transitionExpr := arena.Sub(arena.Sub(next, cur), side)
	boundaryExpr := arena.Sub(cur, arena.Const(qInitial))

	return &FibonacciComponent{
		logSize:        logSize,
		initialValue:   qInitial,
		domain:         core.SubgroupCoset(logSize),
		arena:          arena,
		transitionExpr: transitionExpr,
		boundaryExpr:   boundaryExpr,
	}
}

func (c *FibonacciComponent) NConstraints() int {
	return 2
}

func (c *FibonacciComponent) MaxConstraintLogDegreeBound() uint32 {
	return c.logSize + 1
}

func (c *FibonacciComponent) TraceLogDegreeBounds() []uint32 {
	return []uint32{c.logSize, c.logSize}
}

func (c *FibonacciComponent) PreprocessedColumnIndices() []int {
	return nil
}

// MaskPoints returns the (point, point+step) pair for the Fibonacci column,
// which the transition constraint reads at both rows, and the single point
// for the side/step column, which it reads only at the current row.
func (c *FibonacciComponent) MaskPoints(point core.CirclePointQM31) [][]core.CirclePointQM31 {
	step := c.domain.Step()
	next := point.AddM31(step)
	return [][]core.CirclePointQM31{
		{point, next},
		{point},
	}
}

// EvaluateConstraintQuotientsAtPoint folds in the transition constraint
// (next - cur - side) and the boundary constraint (cur - initialValue) via
// the shared accumulator's Horner-style random linear combination.
// FibonacciComponent reads no preprocessed columns, so preprocessedMask is
// always empty.
func (c *FibonacciComponent) EvaluateConstraintQuotientsAtPoint(
	point core.CirclePointQM31,
	mask [][]core.QM31,
	preprocessedMask []core.QM31,
	acc *PointEvaluationAccumulator,
	randomCoeff core.QM31,
	maxBound uint32,
) {
	if c.MaxConstraintLogDegreeBound() > maxBound {
		panic("fibonacci: constraint degree bound exceeds composition max_bound")
	}

	row := []core.QM31{mask[0][0], mask[0][1], mask[1][0]}

	acc.Accumulate(c.arena.Eval(c.transitionExpr, row))
	acc.Accumulate(c.arena.Eval(c.boundaryExpr, row))
}
