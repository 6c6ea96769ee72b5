// Package vybiumstarksvm is the public façade over the circle-STARK
// verifier implementation in internal/vybium-starks-vm: stable type aliases
// and re-exported entry points so callers never import the internal
// packages directly.
package vybiumstarksvm

import (
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// M31 is an element of the base Mersenne-31 field.
type M31 = core.M31

// QM31 is an element of the degree-4 secure extension field FRI and the
// out-of-domain sampling machinery operate over.
type QM31 = core.QM31

// CirclePoint is a point on the circle curve over the base field.
type CirclePoint = core.CirclePointM31

// CircleDomain is the canonical evaluation domain trace and composition
// columns are committed over.
type CircleDomain = core.CircleDomain

// Channel is the Fiat-Shamir transcript shared between proving and
// verifying.
type Channel = utils.Channel

// FriConfig configures the FRI folding protocol's blowup, last-layer size,
// query count, and proof-of-work grinding difficulty.
type FriConfig = utils.FriConfig

// PcsConfig configures the polynomial commitment scheme layer built on top
// of FRI.
type PcsConfig = utils.PcsConfig

// Component is the verifier-facing ABI every constraint system (AIR) must
// implement.
type Component = protocols.Component

// Components composes a list of Component implementations proved against a
// single commitment scheme.
type Components = protocols.Components

// CommitmentScheme is the ordered list of Merkle trees a STARK proof
// commits to.
type CommitmentScheme = protocols.CommitmentScheme

// StarkProof is the full wire transcript a verifier checks.
type StarkProof = protocols.StarkProof

// NewChannel starts a fresh Fiat-Shamir transcript over the default hasher.
func NewChannel() *Channel {
	return utils.NewChannel(core.Blake2sHasher{})
}

// DefaultPcsConfig returns a default PCS configuration wrapping a
// conservative FRI parameterization.
func DefaultPcsConfig() *PcsConfig {
	return utils.DefaultPcsConfig()
}

// Verify runs the top-level STARK verifier against a commitment scheme and
// proof, per the Component ABI. A non-nil error is always a *VMError, so
// callers can branch on its Code without importing the internal packages.
func Verify(components *Components, channel *Channel, commitmentScheme *CommitmentScheme, proof *StarkProof, cfg *PcsConfig, domain CircleDomain) error {
	return wrapVerifyErr(protocols.Verify(components, channel, commitmentScheme, proof, cfg, domain))
}
