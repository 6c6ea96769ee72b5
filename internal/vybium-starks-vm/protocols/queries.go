package protocols

import (
	"encoding/binary"
	"sort"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// Queries is a sorted, deduplicated set of query positions into a domain of
// a given log-size.
type Queries struct {
	Positions     []uint64
	LogDomainSize uint32
}

// NewQueries normalizes an arbitrary slice of positions (assumed already
// reduced modulo the domain size) into a canonical sorted, deduplicated
// Queries value.
func NewQueries(positions []uint64, logDomainSize uint32) Queries {
	cp := append([]uint64(nil), positions...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	seen := false
	var prev uint64
	for _, v := range cp {
		if seen && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
		seen = true
	}
	return Queries{Positions: out, LogDomainSize: logDomainSize}
}

// DrawQueries samples nQueries pseudo-random positions in [0, 2^logDomainSize)
// from the channel's transcript, then normalizes them via NewQueries.
func DrawQueries(channel *utils.Channel, logDomainSize uint32, nQueries int) Queries {
	mask := (uint64(1) << logDomainSize) - 1
	positions := make([]uint64, 0, nQueries)
	buf := channel.DrawRandomBytes(8 * nQueries)
	for i := 0; i < nQueries; i++ {
		v := binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
		positions = append(positions, v&mask)
	}
	return NewQueries(positions, logDomainSize)
}

// Siblings returns the set expanded with each position's fold-pair partner
// (its lowest bit flipped). Rows are committed in bit-reversed order, so a
// fold pair is always two adjacent storage positions differing only in bit
// 0; this is the full set of rows a FRI folding step needs revealed at this
// layer.
func (q Queries) Siblings() Queries {
	if q.LogDomainSize == 0 {
		return q
	}
	out := make([]uint64, 0, 2*len(q.Positions))
	for _, p := range q.Positions {
		out = append(out, p, p^1)
	}
	return NewQueries(out, q.LogDomainSize)
}

// Fold maps every position down by nFoldBits levels of a domain that halves
// at each FRI folding step, by right-shifting: position p's folded position
// is p >> nFoldBits. This only gives the right answer against storage
// committed in bit-reversed order -- see FoldLine/FoldCircleIntoLine, which
// pair adjacent positions 2i/2i+1 for exactly that reason.
func (q Queries) Fold(nFoldBits uint32) Queries {
	newLog := q.LogDomainSize - nFoldBits
	folded := make([]uint64, len(q.Positions))
	for i, p := range q.Positions {
		folded[i] = p >> nFoldBits
	}
	return NewQueries(folded, newLog)
}
