package core

import "fmt"

// QM31 is an element of the degree-4 extension field GF(p^4) that the
// security lane of the protocol (out-of-domain sampling, FRI folding
// randomness, constraint accumulation) is carried out over. It is
// represented as c0 + c1*u over CM31, where u^2 = 2 + i.
type QM31 struct {
	C0 CM31
	C1 CM31
}

var QM31Zero = QM31{C0: CM31Zero, C1: CM31Zero}
var QM31One = QM31{C0: CM31One, C1: CM31Zero}

// qm31R is the extension relation constant: u^2 = 2 + i.
var qm31R = CM31{A: 2, B: 1}

// NewQM31 builds a QM31 element from its two CM31 coordinates.
func NewQM31(c0, c1 CM31) QM31 {
	return QM31{C0: c0, C1: c1}
}

// QM31FromM31Array constructs the secure element whose four base-field
// lanes are (a, b, c, d): C0 = a+bi, C1 = c+di.
func QM31FromM31Array(a, b, c, d M31) QM31 {
	return QM31{C0: NewCM31(a, b), C1: NewCM31(c, d)}
}

// QM31FromM31 embeds a base-field element with all higher lanes zero.
func QM31FromM31(a M31) QM31 {
	return QM31{C0: CM31FromM31(a), C1: CM31Zero}
}

// QM31FromCM31 embeds a CM31 element with the u-lane zero.
func QM31FromCM31(c CM31) QM31 {
	return QM31{C0: c, C1: CM31Zero}
}

func (z QM31) Add(w QM31) QM31 {
	return QM31{C0: z.C0.Add(w.C0), C1: z.C1.Add(w.C1)}
}

func (z QM31) Sub(w QM31) QM31 {
	return QM31{C0: z.C0.Sub(w.C0), C1: z.C1.Sub(w.C1)}
}

func (z QM31) Neg() QM31 {
	return QM31{C0: z.C0.Neg(), C1: z.C1.Neg()}
}

// Mul computes (c0+c1 u)(d0+d1 u) = (c0 d0 + c1 d1 * R) + (c0 d1 + c1 d0) u,
// where R = u^2 = 2+i.
func (z QM31) Mul(w QM31) QM31 {
	c0d0 := z.C0.Mul(w.C0)
	c1d1 := z.C1.Mul(w.C1)
	cross := z.C0.Mul(w.C1).Add(z.C1.Mul(w.C0))
	return QM31{
		C0: c0d0.Add(c1d1.Mul(qm31R)),
		C1: cross,
	}
}

// MulCM31 scales z by a CM31 element.
func (z QM31) MulCM31(s CM31) QM31 {
	return QM31{C0: z.C0.Mul(s), C1: z.C1.Mul(s)}
}

// MulM31 scales z by a base-field element.
func (z QM31) MulM31(s M31) QM31 {
	return QM31{C0: z.C0.MulM31(s), C1: z.C1.MulM31(s)}
}

func (z QM31) Square() QM31 {
	return z.Mul(z)
}

// Conjugate returns c0 - c1*u, the conjugate with respect to the u
// extension (not the full Galois conjugate). A column with M31
// coefficients evaluated at a point and at its coordinate-wise conjugate
// yields conjugate values, which is what lets the PCS quotient layer build
// a line through a sample and its conjugate pair instead of assuming two
// out-of-domain points share a y-coordinate only when they're equal.
func (z QM31) Conjugate() QM31 {
	return QM31{C0: z.C0, C1: z.C1.Neg()}
}

// Inverse returns 1/z via the conjugate trick over the CM31 sub-extension:
// 1/z = (c0 - c1 u) / (c0^2 - c1^2 * R).
func (z QM31) Inverse() (QM31, error) {
	denom := z.C0.Square().Sub(z.C1.Square().Mul(qm31R))
	if denom.IsZero() {
		return QM31Zero, fmt.Errorf("qm31: inverse of zero is undefined")
	}
	denomInv, err := denom.Inverse()
	if err != nil {
		return QM31Zero, err
	}
	return z.Conjugate().MulCM31(denomInv), nil
}

func (z QM31) IsZero() bool {
	return z.C0.IsZero() && z.C1.IsZero()
}

func (z QM31) Equal(w QM31) bool {
	return z.C0.Equal(w.C0) && z.C1.Equal(w.C1)
}

// IsInBaseField reports whether z, despite living in the degree-4
// extension, actually denotes a base-field (M31) value.
func (z QM31) IsInBaseField() bool {
	return z.C1.IsZero() && z.C0.B.IsZero()
}

// TryIntoM31 projects z down to M31 if it denotes a base-field value,
// erroring otherwise.
func (z QM31) TryIntoM31() (M31, error) {
	if !z.IsInBaseField() {
		return 0, fmt.Errorf("qm31: %s is not a base field element", z)
	}
	return z.C0.A, nil
}

func (z QM31) String() string {
	return fmt.Sprintf("(%s + %s*u)", z.C0.String(), z.C1.String())
}
