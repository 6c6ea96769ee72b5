package utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

func TestProofOfWorkZeroBitsAlwaysSolves(t *testing.T) {
	pow := NewProofOfWork(core.Blake2sHasher{})
	var challenge core.Hash
	nonce, err := pow.Solve(challenge, 0, 1)
	require.NoError(t, err)
	require.True(t, pow.Verify(challenge, nonce, 0))
}

func TestProofOfWorkSolveThenVerify(t *testing.T) {
	pow := NewProofOfWork(core.Blake2sHasher{})
	var challenge core.Hash
	challenge[0] = 0x42

	nonce, err := pow.Solve(challenge, 8, 1<<20)
	require.NoError(t, err)
	require.True(t, pow.Verify(challenge, nonce, 8))
}

func TestProofOfWorkRejectsWrongNonce(t *testing.T) {
	pow := NewProofOfWork(core.Blake2sHasher{})
	var challenge core.Hash
	nonce, err := pow.Solve(challenge, 8, 1<<20)
	require.NoError(t, err)
	require.False(t, pow.Verify(challenge, nonce+1, 8))
}

func TestProofOfWorkExhaustsIterationBudget(t *testing.T) {
	pow := NewProofOfWork(core.Blake2sHasher{})
	var challenge core.Hash
	_, err := pow.Solve(challenge, 32, 4)
	require.Error(t, err)
}
