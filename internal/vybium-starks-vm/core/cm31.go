package core

import "fmt"

// CM31 is an element of GF(p^2) = GF(p)[i]/(i^2+1), the "complex" extension
// of the base field used as the intermediate rung of the field tower.
type CM31 struct {
	A M31 // real part
	B M31 // imaginary part
}

// NewCM31 builds a CM31 element from its two M31 coordinates.
func NewCM31(a, b M31) CM31 {
	return CM31{A: a, B: b}
}

// CM31FromM31 embeds a base-field element as a CM31 with zero imaginary part.
func CM31FromM31(a M31) CM31 {
	return CM31{A: a, B: 0}
}

var CM31Zero = CM31{A: 0, B: 0}
var CM31One = CM31{A: 1, B: 0}

func (z CM31) Add(w CM31) CM31 {
	return CM31{A: z.A.Add(w.A), B: z.B.Add(w.B)}
}

func (z CM31) Sub(w CM31) CM31 {
	return CM31{A: z.A.Sub(w.A), B: z.B.Sub(w.B)}
}

func (z CM31) Neg() CM31 {
	return CM31{A: z.A.Neg(), B: z.B.Neg()}
}

// Mul computes (a+bi)(c+di) = (ac-bd) + (ad+bc)i.
func (z CM31) Mul(w CM31) CM31 {
	return CM31{
		A: z.A.Mul(w.A).Sub(z.B.Mul(w.B)),
		B: z.A.Mul(w.B).Add(z.B.Mul(w.A)),
	}
}

// MulM31 scales z by a base-field element.
func (z CM31) MulM31(s M31) CM31 {
	return CM31{A: z.A.Mul(s), B: z.B.Mul(s)}
}

func (z CM31) Square() CM31 {
	return z.Mul(z)
}

// Conjugate returns a-bi.
func (z CM31) Conjugate() CM31 {
	return CM31{A: z.A, B: z.B.Neg()}
}

// Norm returns a^2+b^2, an M31 element (the field norm down to the base
// field, also z * conjugate(z)).
func (z CM31) Norm() M31 {
	return z.A.Square().Add(z.B.Square())
}

// Inverse returns 1/z via the conjugate trick: 1/z = conj(z) / norm(z).
func (z CM31) Inverse() (CM31, error) {
	norm := z.Norm()
	if norm.IsZero() {
		return CM31Zero, fmt.Errorf("cm31: inverse of zero is undefined")
	}
	normInv, err := norm.Inverse()
	if err != nil {
		return CM31Zero, err
	}
	return z.Conjugate().MulM31(normInv), nil
}

func (z CM31) IsZero() bool {
	return z.A.IsZero() && z.B.IsZero()
}

func (z CM31) Equal(w CM31) bool {
	return z.A.Equal(w.A) && z.B.Equal(w.B)
}

func (z CM31) String() string {
	return fmt.Sprintf("(%d + %di)", uint32(z.A), uint32(z.B))
}
