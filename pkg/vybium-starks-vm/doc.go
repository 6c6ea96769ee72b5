// Package vybiumstarksvm provides a circle-STARK verifier over the
// Mersenne-31 field: Merkle vector commitments, FRI low-degree proximity
// testing, and a polynomial-commitment-scheme driver that checks a
// component's constraint quotients against an out-of-domain sample.
//
// # Quick Start
//
// Verifying a proof against a commitment scheme and a component list:
//
//	cfg := vybiumstarksvm.DefaultPcsConfig()
//	channel := vybiumstarksvm.NewChannel()
//	err := vybiumstarksvm.Verify(components, channel, commitmentScheme, proof, cfg, domain)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// - pkg/vybium-starks-vm/: public API (this package)
// - internal/vybium-starks-vm/: private implementation (not importable)
//
// The public API re-exports the types and entry points callers need to
// drive verification; implementation details under internal/ can change
// without breaking it.
//
// # Scope
//
// This package is verifier-facing: it implements the full Merkle/FRI/PCS
// decommitment and out-of-domain consistency checks a STARK verifier
// performs, together with the shared field and channel primitives. It does
// not implement a production prover's interpolation/FFT pipeline; the
// internal/vybium-starks-vm/protocols package's ProveFRI suffices to drive
// its own test proofs.
package vybiumstarksvm
