package vybiumstarksvm

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
)

// ErrorCode classifies a verifier failure by the taxonomy in the protocol's
// error-handling design: structural (malformed proof shape), cryptographic
// (a commitment or sampled value failed to check out), FRI-specific (a
// folding layer disagreed with its commitment), proof-of-work, or
// arithmetic (a field operation hit a degenerate input).
type ErrorCode int

const (
	// ErrUnknown represents an unclassified error.
	ErrUnknown ErrorCode = iota

	// ErrStructural covers malformed proof shape: commitment/tree count
	// mismatches, missing FRI proof, sampled-value count mismatches.
	ErrStructural

	// ErrCryptographic covers a failed commitment or out-of-domain
	// consistency check: root mismatch, witness stream exhaustion, OODS
	// composition disagreement.
	ErrCryptographic

	// ErrFRI covers a FRI-layer-specific failure: a folded evaluation,
	// layer commitment, or last-layer polynomial disagreement.
	ErrFRI

	// ErrProofOfWork covers a grinding nonce with insufficient leading
	// zero bits.
	ErrProofOfWork

	// ErrArithmetic names a degenerate field operation: division by zero,
	// a non-canonical encoding, or a secure-field element that does not lie
	// in the base field. classify never returns it: the internal packages
	// report such failures as plain errors without a sentinel, so they are
	// classified as ErrUnknown.
	ErrArithmetic
)

// VMError is the public error type every façade entry point wraps its
// internal error in, tagging it with an ErrorCode so callers can branch on
// failure kind without depending on the internal package's sentinel
// values.
type VMError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *VMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-starks-vm [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-starks-vm [%d]: %s", e.Code, e.Message)
}

func (e *VMError) Unwrap() error {
	return e.Cause
}

func (e *VMError) Is(target error) bool {
	t, ok := target.(*VMError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// classify maps an internal verifier error to the ErrorCode its sentinel
// belongs to, so the façade can tag an error without the caller ever seeing
// an internal/vybium-starks-vm sentinel value.
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, protocols.ErrInvalidStructure),
		errors.Is(err, protocols.ErrInvalidProofShape),
		errors.Is(err, protocols.ErrNoTrees),
		errors.Is(err, protocols.ErrEmptyCommitments),
		errors.Is(err, protocols.ErrCompositionDomainTooSmall),
		errors.Is(err, protocols.ErrInvalidNumFriLayers),
		errors.Is(err, protocols.ErrLastLayerDegreeInvalid):
		return ErrStructural
	case errors.Is(err, protocols.ErrProofOfWorkInvalid):
		return ErrProofOfWork
	case errors.Is(err, protocols.ErrFirstLayerCommitmentInvalid),
		errors.Is(err, protocols.ErrFirstLayerEvaluationsInvalid),
		errors.Is(err, protocols.ErrInnerLayerCommitmentInvalid),
		errors.Is(err, protocols.ErrInnerLayerEvaluationsInvalid),
		errors.Is(err, protocols.ErrLastLayerEvaluationsInvalid):
		return ErrFRI
	case errors.Is(err, protocols.ErrOodsNotMatching):
		return ErrCryptographic
	default:
		return ErrUnknown
	}
}

// wrapVerifyErr tags err with its ErrorCode and returns it as a *VMError, or
// returns nil if err is nil.
func wrapVerifyErr(err error) error {
	if err == nil {
		return nil
	}
	return &VMError{Code: classify(err), Message: "verification failed", Cause: err}
}
