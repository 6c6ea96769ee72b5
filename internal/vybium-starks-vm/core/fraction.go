package core

// FractionMM is a lazily-reduced M31/M31 fraction, the building block of
// the logup accumulation argument: adding fractions without dividing keeps
// the per-row cost to a handful of field multiplications instead of a
// batch inversion per row.
type FractionMM struct {
	Numerator   M31
	Denominator M31
}

// Add returns a/b + c/d = (a*d + c*b) / (b*d), without reducing.
func (f FractionMM) Add(g FractionMM) FractionMM {
	return FractionMM{
		Numerator:   f.Numerator.Mul(g.Denominator).Add(g.Numerator.Mul(f.Denominator)),
		Denominator: f.Denominator.Mul(g.Denominator),
	}
}

// SumFractionsMM folds a slice of fractions into one via repeated Add.
func SumFractionsMM(fs []FractionMM) FractionMM {
	if len(fs) == 0 {
		return FractionMM{Numerator: 0, Denominator: M31One}
	}
	acc := fs[0]
	for _, f := range fs[1:] {
		acc = acc.Add(f)
	}
	return acc
}

// FractionMC is an M31/CM31 fraction, the shape a single row's lookup term
// takes before any accumulation has occurred.
type FractionMC struct {
	Numerator   M31
	Denominator CM31
}

// liftCC widens an M31/CM31 fraction into a CM31/CM31 one, the type the
// running sum takes on once two or more terms have been combined.
func (f FractionMC) liftCC() FractionCC {
	return FractionCC{Numerator: CM31FromM31(f.Numerator), Denominator: f.Denominator}
}

// FractionCC is a CM31/CM31 fraction: the accumulator type once more than
// one FractionMC term has been summed.
type FractionCC struct {
	Numerator   CM31
	Denominator CM31
}

// Add returns a/b + c/d = (a*d + c*b) / (b*d).
func (f FractionCC) Add(g FractionCC) FractionCC {
	return FractionCC{
		Numerator:   f.Numerator.Mul(g.Denominator).Add(g.Numerator.Mul(f.Denominator)),
		Denominator: f.Denominator.Mul(g.Denominator),
	}
}

// SumFractionsCC folds M31/CM31 fractions into a single CM31/CM31 result.
func SumFractionsCC(fs []FractionMC) FractionCC {
	if len(fs) == 0 {
		return FractionCC{Numerator: CM31Zero, Denominator: CM31One}
	}
	acc := fs[0].liftCC()
	for _, f := range fs[1:] {
		acc = acc.Add(f.liftCC())
	}
	return acc
}

// FractionMQ is an M31/QM31 fraction, the shape a single out-of-domain
// sampled lookup term takes in the secure field.
type FractionMQ struct {
	Numerator   M31
	Denominator QM31
}

func (f FractionMQ) liftQQ() FractionQQ {
	return FractionQQ{Numerator: QM31FromM31(f.Numerator), Denominator: f.Denominator}
}

// FractionQQ is a QM31/QM31 fraction: the accumulator type once more than
// one FractionMQ term has been summed.
type FractionQQ struct {
	Numerator   QM31
	Denominator QM31
}

// Add returns a/b + c/d = (a*d + c*b) / (b*d).
func (f FractionQQ) Add(g FractionQQ) FractionQQ {
	return FractionQQ{
		Numerator:   f.Numerator.Mul(g.Denominator).Add(g.Numerator.Mul(f.Denominator)),
		Denominator: f.Denominator.Mul(g.Denominator),
	}
}

// SumFractionsQQ folds M31/QM31 fractions into a single QM31/QM31 result.
func SumFractionsQQ(fs []FractionMQ) FractionQQ {
	if len(fs) == 0 {
		return FractionQQ{Numerator: QM31Zero, Denominator: QM31One}
	}
	acc := fs[0].liftQQ()
	for _, f := range fs[1:] {
		acc = acc.Add(f.liftQQ())
	}
	return acc
}
