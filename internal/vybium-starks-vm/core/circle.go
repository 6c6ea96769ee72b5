package core

import "fmt"

// CircleOrderBits is the 2-adicity of the circle group over M31: the group
// of points (x,y) with x^2+y^2=1 over GF(p) has order 2^31.
const CircleOrderBits = 31

// circleGenX, circleGenY are the coordinates of the canonical generator of
// the full order-2^31 circle group.
const (
	circleGenX uint32 = 2
	circleGenY uint32 = 1268011823
)

// CirclePointM31 is a point on the circle curve x^2+y^2=1 over the base
// field, elements of which form a cyclic group of order 2^31 under the
// circle group law.
type CirclePointM31 struct {
	X, Y M31
}

// CirclePointM31Zero is the group identity (1, 0).
var CirclePointM31Zero = CirclePointM31{X: M31One, Y: M31Zero}

// CircleGenM31 is the canonical generator of the order-2^31 circle group.
var CircleGenM31 = CirclePointM31{X: M31(circleGenX), Y: M31(circleGenY)}

// Add implements the circle group law: (x1,y1)+(x2,y2) = (x1x2-y1y2, x1y2+x2y1).
func (p CirclePointM31) Add(q CirclePointM31) CirclePointM31 {
	return CirclePointM31{
		X: p.X.Mul(q.X).Sub(p.Y.Mul(q.Y)),
		Y: p.X.Mul(q.Y).Add(q.X.Mul(p.Y)),
	}
}

// Double returns p+p.
func (p CirclePointM31) Double() CirclePointM31 {
	return p.Add(p)
}

// Neg returns the group inverse, the reflection (x, -y).
func (p CirclePointM31) Neg() CirclePointM31 {
	return CirclePointM31{X: p.X, Y: p.Y.Neg()}
}

// ConjugateX returns the x-coordinate of p.Neg(), i.e. just p.X (since
// negation in this group only flips y); kept as a named accessor because
// line-domain folding reasons about x-coordinates directly.
func (p CirclePointM31) ConjugateX() M31 {
	return p.X
}

// Mul computes scalar*p via double-and-add.
func (p CirclePointM31) Mul(scalar uint64) CirclePointM31 {
	result := CirclePointM31Zero
	base := p
	for scalar > 0 {
		if scalar&1 == 1 {
			result = result.Add(base)
		}
		base = base.Double()
		scalar >>= 1
	}
	return result
}

func (p CirclePointM31) Equal(q CirclePointM31) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

// IntoQM31 lifts a base-field circle point into the secure-field circle
// group, used to evaluate at an out-of-domain sample point.
func (p CirclePointM31) IntoQM31() CirclePointQM31 {
	return CirclePointQM31{X: QM31FromM31(p.X), Y: QM31FromM31(p.Y)}
}

func (p CirclePointM31) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}

// CirclePointQM31 is a point on the circle curve over the secure extension
// field, used for out-of-domain sample points and FRI's secure-field
// arithmetic.
type CirclePointQM31 struct {
	X, Y QM31
}

var CirclePointQM31Zero = CirclePointQM31{X: QM31One, Y: QM31Zero}

func (p CirclePointQM31) Add(q CirclePointQM31) CirclePointQM31 {
	return CirclePointQM31{
		X: p.X.Mul(q.X).Sub(p.Y.Mul(q.Y)),
		Y: p.X.Mul(q.Y).Add(q.X.Mul(p.Y)),
	}
}

func (p CirclePointQM31) Double() CirclePointQM31 {
	return p.Add(p)
}

func (p CirclePointQM31) Neg() CirclePointQM31 {
	return CirclePointQM31{X: p.X, Y: p.Y.Neg()}
}

// Conjugate returns p with both coordinates replaced by their QM31
// conjugate. Since the circle equation x^2+y^2=1 has base-field
// coefficients, this is again a point on the circle, and any polynomial
// with M31 coefficients evaluates to the conjugate value there -- the pair
// (p, p.Conjugate()) is what the PCS quotient layer interpolates its line
// through.
func (p CirclePointQM31) Conjugate() CirclePointQM31 {
	return CirclePointQM31{X: p.X.Conjugate(), Y: p.Y.Conjugate()}
}

// AddM31 adds a base-field circle point to a secure-field point (used
// when composing an OODS point with a domain element).
func (p CirclePointQM31) AddM31(q CirclePointM31) CirclePointQM31 {
	return p.Add(q.IntoQM31())
}

func (p CirclePointQM31) Equal(q CirclePointQM31) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

// CirclePointIndex is an additive index into the order-2^31 circle group:
// the point it denotes is CircleGenM31 raised to this index. Since the
// circle group law corresponds to addition of indices, most domain/coset
// bookkeeping is far simpler done in index space than in point space.
type CirclePointIndex uint64

const circleOrder uint64 = 1 << CircleOrderBits

// NewCirclePointIndex reduces v modulo the group order 2^31.
func NewCirclePointIndex(v uint64) CirclePointIndex {
	return CirclePointIndex(v % circleOrder)
}

// SubgroupGenIndex returns the index of a generator of the unique subgroup
// of order 2^logSize (0 <= logSize <= 31).
func SubgroupGenIndex(logSize uint32) CirclePointIndex {
	if logSize > CircleOrderBits {
		panic(fmt.Sprintf("circle: subgroup log-size %d exceeds group 2-adicity %d", logSize, CircleOrderBits))
	}
	return CirclePointIndex(uint64(1) << (CircleOrderBits - logSize))
}

// Add returns the index of the sum of the two points these indices denote.
func (i CirclePointIndex) Add(j CirclePointIndex) CirclePointIndex {
	return CirclePointIndex((uint64(i) + uint64(j)) % circleOrder)
}

// Double returns the index of twice the point this index denotes.
func (i CirclePointIndex) Double() CirclePointIndex {
	return CirclePointIndex((uint64(i) * 2) % circleOrder)
}

// ToPoint evaluates the point CircleGenM31^i.
func (i CirclePointIndex) ToPoint() CirclePointM31 {
	return CircleGenM31.Mul(uint64(i))
}

// Coset is an arithmetic progression of 2^LogSize circle-group points:
// { initial + k*step : k in [0, 2^LogSize) }, represented by indices so
// that stepping, doubling, and membership are exact integer arithmetic.
type Coset struct {
	InitialIndex CirclePointIndex
	StepIndex    CirclePointIndex
	LogSize      uint32
}

// NewCoset builds a size-2^logSize coset starting at initialIndex and
// stepping by the canonical generator of the order-2^logSize subgroup.
func NewCoset(initialIndex CirclePointIndex, logSize uint32) Coset {
	return Coset{
		InitialIndex: initialIndex,
		StepIndex:    SubgroupGenIndex(logSize),
		LogSize:      logSize,
	}
}

// SubgroupCoset returns the order-2^logSize subgroup itself (initial index 0).
func SubgroupCoset(logSize uint32) Coset {
	return NewCoset(0, logSize)
}

// OddsCoset returns the coset of odd multiples of the generator of the
// order-2^(logSize+1) group: { g, g^3, g^5, ... } with g of order
// 2^(logSize+1). This is the standard initial half-coset used to build a
// canonical circle domain.
func OddsCoset(logSize uint32) Coset {
	return NewCoset(SubgroupGenIndex(logSize+1), logSize)
}

// HalfOddsCoset returns the size-2^logSize coset whose initial point is a
// generator of the order-2^(logSize+2) group (half of OddsCoset(logSize)'s
// initial index, same step), used as the initial half-domain of a canonical
// circle domain of total size 2^(logSize+1).
func HalfOddsCoset(logSize uint32) Coset {
	return NewCoset(SubgroupGenIndex(logSize+2), logSize)
}

// Size returns the number of points in the coset.
func (c Coset) Size() uint64 {
	return uint64(1) << c.LogSize
}

// IndexAt returns the index of the i-th point (0-indexed) of the coset.
func (c Coset) IndexAt(i uint64) CirclePointIndex {
	return c.InitialIndex.Add(CirclePointIndex((i * uint64(c.StepIndex)) % circleOrder))
}

// At returns the i-th point of the coset.
func (c Coset) At(i uint64) CirclePointM31 {
	return c.IndexAt(i).ToPoint()
}

// Initial returns the coset's first point.
func (c Coset) Initial() CirclePointM31 {
	return c.InitialIndex.ToPoint()
}

// Step returns the coset's step point.
func (c Coset) Step() CirclePointM31 {
	return c.StepIndex.ToPoint()
}

// Double returns the coset of the images of this coset's points under
// doubling, a coset of half the size.
func (c Coset) Double() Coset {
	if c.LogSize == 0 {
		panic("circle: cannot double a size-1 coset")
	}
	return Coset{
		InitialIndex: c.InitialIndex.Double(),
		StepIndex:    c.StepIndex.Double(),
		LogSize:      c.LogSize - 1,
	}
}

// LineDomain is the set of x-coordinates of a coset, used as the evaluation
// domain for univariate "line" polynomials in FRI's folded layers.
type LineDomain struct {
	coset Coset
}

// NewLineDomain builds a line domain from the given coset. The coset's step
// must have order at least 4 (log-size difference of at least 2 from the
// points it's built from) so that x-coordinates of distinct points in the
// domain are themselves pairwise distinct; that invariant is maintained by
// callers constructing domains via doubling a canonical circle domain, so it
// is not separately re-checked here.
func NewLineDomain(coset Coset) LineDomain {
	return LineDomain{coset: coset}
}

// Size returns the number of points (and distinct x-coordinates) in the domain.
func (d LineDomain) Size() uint64 {
	return d.coset.Size()
}

// LogSize returns log2(Size()).
func (d LineDomain) LogSize() uint32 {
	return d.coset.LogSize
}

// At returns the i-th x-coordinate of the domain.
func (d LineDomain) At(i uint64) M31 {
	return d.coset.At(i).X
}

// Double returns the line domain obtained by one folding step: doubling
// every point of the underlying coset (so x2 = 2x^2-1 maps each pair of
// points to a single point of the smaller domain).
func (d LineDomain) Double() LineDomain {
	return LineDomain{coset: d.coset.Double()}
}

// Coset exposes the underlying coset.
func (d LineDomain) Coset() Coset {
	return d.coset
}

// CircleDomain is a canonical evaluation domain over the full circle: a
// half-coset H together with its negation -H, giving 2*|H| points total,
// the natural domain FRI's circle layer and the PCS commit step evaluate
// trace/composition polynomials over.
type CircleDomain struct {
	HalfCoset Coset
}

// NewCircleDomain builds a circle domain from a half-coset (typically
// produced by HalfOddsCoset).
func NewCircleDomain(halfCoset Coset) CircleDomain {
	return CircleDomain{HalfCoset: halfCoset}
}

// CanonicCircleDomain builds the standard domain of size 2^logSize used to
// evaluate a degree < 2^logSize polynomial, from HalfOddsCoset(logSize-1).
func CanonicCircleDomain(logSize uint32) CircleDomain {
	if logSize == 0 {
		panic("circle: canonic circle domain requires logSize >= 1")
	}
	return NewCircleDomain(HalfOddsCoset(logSize - 1))
}

// LogSize returns log2 of the total number of points in the domain.
func (d CircleDomain) LogSize() uint32 {
	return d.HalfCoset.LogSize + 1
}

// Size returns the total number of points in the domain.
func (d CircleDomain) Size() uint64 {
	return d.HalfCoset.Size() * 2
}

// At returns the i-th point of the domain: for i in the first half this is
// HalfCoset.At(i), for i in the second half it is the negation of the
// corresponding first-half point.
func (d CircleDomain) At(i uint64) CirclePointM31 {
	half := d.HalfCoset.Size()
	if i < half {
		return d.HalfCoset.At(i)
	}
	return d.HalfCoset.At(i - half).Neg()
}

// IndexAt returns the circle-group index of the i-th point, mirroring At.
func (d CircleDomain) IndexAt(i uint64) CirclePointIndex {
	half := d.HalfCoset.Size()
	if i < half {
		return d.HalfCoset.IndexAt(i)
	}
	idx := d.HalfCoset.IndexAt(i - half)
	// Negation flips y only, which in index space corresponds to negating
	// the index modulo the group order.
	return CirclePointIndex((circleOrder - uint64(idx)) % circleOrder)
}
