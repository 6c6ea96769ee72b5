package protocols

import "github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"

// StarkProof is the full wire transcript a verifier checks: one Merkle
// commitment per committed tree (trace trees followed by the composition
// tree), the out-of-domain sampled values needed to re-derive the
// composition polynomial and feed the component mask, the per-tree
// decommitments opening the queried rows, and the FRI proof over the
// resulting quotients (which carries its own proof-of-work nonce).
type StarkProof struct {
	// Commitments holds one root per tree, in commit order; the last entry
	// is always the composition tree's root.
	Commitments []core.Hash
	// SampledValues[i] holds, for the i-th trace column (flattened in
	// Components.ColumnLogSizes order), one sampled value per mask point
	// components.MaskPoints(oodsPoint)[i] names; the final CompositionColumns
	// entries are the composition tree's columns, each sampled at exactly
	// the OODS point.
	SampledValues [][]core.QM31
	// Decommitments holds one Merkle decommitment per tree, opening the
	// query positions drawn from the channel after sampling.
	Decommitments []*core.Decommitment
	Fri           *FriProof
}
