package protocols

import "github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"

// PointEvaluationAccumulator folds a sequence of constraint-quotient
// evaluations at a single point into one secure-field value via Horner's
// method: acc <- acc*alpha + e. Constraints are expected to be fed in
// decreasing degree-bound order so that the highest-degree constraint ends
// up multiplied by alpha the most times, matching the random linear
// combination the verifier re-derives independently.
type PointEvaluationAccumulator struct {
	alpha core.QM31
	acc   core.QM31
}

// NewPointEvaluationAccumulator starts a fresh accumulator keyed by alpha.
func NewPointEvaluationAccumulator(alpha core.QM31) *PointEvaluationAccumulator {
	return &PointEvaluationAccumulator{alpha: alpha, acc: core.QM31Zero}
}

// Accumulate folds one more evaluation into the running total.
func (a *PointEvaluationAccumulator) Accumulate(e core.QM31) {
	a.acc = a.acc.Mul(a.alpha).Add(e)
}

// Finalize returns the accumulated value.
func (a *PointEvaluationAccumulator) Finalize() core.QM31 {
	return a.acc
}
