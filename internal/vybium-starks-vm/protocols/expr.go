package protocols

import "github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"

// ExprKind tags the shape of an arena node in the constraint expression DSL.
type ExprKind int

const (
	ExprConst ExprKind = iota
	ExprColumn
	ExprAdd
	ExprSub
	ExprMul
	ExprNeg
)

// ExprHandle indexes a node inside an Arena.
type ExprHandle int

type exprNode struct {
	kind   ExprKind
	konst  core.QM31
	column int
	left   ExprHandle
	right  ExprHandle
}

// Arena is an append-only store of constraint expression nodes. Building
// expressions through its Add/Sub/Mul/Neg constructors (rather than
// allocating exprNode values directly) applies a handful of algebraic
// simplification rules as the tree is built, so trivially-redundant
// sub-expressions (x+0, 1*x, 0*x, constant folding) never end up part of
// the committed degree bound.
type Arena struct {
	nodes []exprNode
}

// NewArena returns an empty expression arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) push(n exprNode) ExprHandle {
	a.nodes = append(a.nodes, n)
	return ExprHandle(len(a.nodes) - 1)
}

// Const allocates a constant leaf.
func (a *Arena) Const(v core.QM31) ExprHandle {
	return a.push(exprNode{kind: ExprConst, konst: v})
}

// Column allocates a leaf referencing the i-th entry of the mask row passed
// to Eval.
func (a *Arena) Column(i int) ExprHandle {
	return a.push(exprNode{kind: ExprColumn, column: i})
}

func (a *Arena) node(h ExprHandle) exprNode {
	return a.nodes[h]
}

func (a *Arena) isConst(h ExprHandle, v core.QM31) bool {
	n := a.node(h)
	return n.kind == ExprConst && n.konst.Equal(v)
}

// Add builds l+r, folding constant operands and eliminating additive
// identities.
func (a *Arena) Add(l, r ExprHandle) ExprHandle {
	ln, rn := a.node(l), a.node(r)
	if ln.kind == ExprConst && rn.kind == ExprConst {
		return a.Const(ln.konst.Add(rn.konst))
	}
	if a.isConst(l, core.QM31Zero) {
		return r
	}
	if a.isConst(r, core.QM31Zero) {
		return l
	}
	return a.push(exprNode{kind: ExprAdd, left: l, right: r})
}

// Sub builds l-r, folding constant operands and eliminating the identity
// l-0.
func (a *Arena) Sub(l, r ExprHandle) ExprHandle {
	ln, rn := a.node(l), a.node(r)
	if ln.kind == ExprConst && rn.kind == ExprConst {
		return a.Const(ln.konst.Sub(rn.konst))
	}
	if a.isConst(r, core.QM31Zero) {
		return l
	}
	return a.push(exprNode{kind: ExprSub, left: l, right: r})
}

// Mul builds l*r, folding constant operands and eliminating the identities
// 1*x, x*1, 0*x, x*0.
func (a *Arena) Mul(l, r ExprHandle) ExprHandle {
	ln, rn := a.node(l), a.node(r)
	if ln.kind == ExprConst && rn.kind == ExprConst {
		return a.Const(ln.konst.Mul(rn.konst))
	}
	if a.isConst(l, core.QM31Zero) || a.isConst(r, core.QM31Zero) {
		return a.Const(core.QM31Zero)
	}
	if a.isConst(l, core.QM31One) {
		return r
	}
	if a.isConst(r, core.QM31One) {
		return l
	}
	return a.push(exprNode{kind: ExprMul, left: l, right: r})
}

// Neg builds -l, folding a constant operand.
func (a *Arena) Neg(l ExprHandle) ExprHandle {
	ln := a.node(l)
	if ln.kind == ExprConst {
		return a.Const(ln.konst.Neg())
	}
	return a.push(exprNode{kind: ExprNeg, left: l})
}

// Eval evaluates the expression rooted at h against a row of mask values.
func (a *Arena) Eval(h ExprHandle, mask []core.QM31) core.QM31 {
	n := a.node(h)
	switch n.kind {
	case ExprConst:
		return n.konst
	case ExprColumn:
		return mask[n.column]
	case ExprAdd:
		return a.Eval(n.left, mask).Add(a.Eval(n.right, mask))
	case ExprSub:
		return a.Eval(n.left, mask).Sub(a.Eval(n.right, mask))
	case ExprMul:
		return a.Eval(n.left, mask).Mul(a.Eval(n.right, mask))
	case ExprNeg:
		return a.Eval(n.left, mask).Neg()
	default:
		panic("expr: unknown node kind")
	}
}

// DegreeBound computes an upper bound on the expression's degree given the
// degree bound of every column it can reference: additive nodes take the
// max of their operands, multiplicative nodes the sum.
func (a *Arena) DegreeBound(h ExprHandle, columnDegrees []uint32) uint32 {
	n := a.node(h)
	switch n.kind {
	case ExprConst:
		return 0
	case ExprColumn:
		return columnDegrees[n.column]
	case ExprAdd, ExprSub:
		l := a.DegreeBound(n.left, columnDegrees)
		r := a.DegreeBound(n.right, columnDegrees)
		if l > r {
			return l
		}
		return r
	case ExprMul:
		return a.DegreeBound(n.left, columnDegrees) + a.DegreeBound(n.right, columnDegrees)
	case ExprNeg:
		return a.DegreeBound(n.left, columnDegrees)
	default:
		panic("expr: unknown node kind")
	}
}
