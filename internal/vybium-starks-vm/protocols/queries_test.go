package protocols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

func TestNewQueriesSortsAndDedups(t *testing.T) {
	q := NewQueries([]uint64{5, 1, 5, 3}, 4)
	require.Equal(t, []uint64{1, 3, 5}, q.Positions)
}

func TestSiblingsFlipsLowBit(t *testing.T) {
	q := NewQueries([]uint64{1, 2}, 4)
	sib := q.Siblings()
	require.Equal(t, []uint64{0, 1, 2, 3}, sib.Positions)
}

func TestFoldRightShifts(t *testing.T) {
	// Worked example: log_size=4, positions [15,7,7,3,2,8,1,0] normalize to
	// [0,1,2,3,7,8,15], and fold(1) (right-shift by 1) gives [0,1,3,4,7].
	q := NewQueries([]uint64{15, 7, 7, 3, 2, 8, 1, 0}, 4)
	folded := q.Fold(1)
	require.Equal(t, uint32(3), folded.LogDomainSize)
	require.Equal(t, []uint64{0, 1, 3, 4, 7}, folded.Positions)
}

func TestFoldTwiceEquivalentToFoldByTwo(t *testing.T) {
	q := NewQueries([]uint64{1, 5, 9, 13}, 4)
	a := q.Fold(1).Fold(1)
	b := q.Fold(2)
	require.Equal(t, b.Positions, a.Positions)
	require.Equal(t, b.LogDomainSize, a.LogDomainSize)
}

func TestSiblingsThenFoldMatchesDirectFold(t *testing.T) {
	// Siblings only ever touches bit 0, so folding a sibling-expanded set
	// gives the same reduced positions as folding the original directly.
	q := NewQueries([]uint64{2, 6}, 5)
	sib := q.Siblings()
	require.Equal(t, q.Fold(1).Positions, sib.Fold(1).Positions)
}

func TestDrawQueriesWithinDomainBounds(t *testing.T) {
	ch := utils.NewChannel(core.Blake2sHasher{})
	q := DrawQueries(ch, 6, 20)
	require.LessOrEqual(t, len(q.Positions), 20)
	for _, p := range q.Positions {
		require.Less(t, p, uint64(1)<<6)
	}
}
