package core

import (
	"errors"
	"fmt"
	"sort"
)

// Mixed-degree Merkle vector commitment scheme errors, returned by Verify.
var (
	ErrWitnessTooShort     = errors.New("merkle: decommitment witness exhausted before verification completed")
	ErrWitnessTooLong      = errors.New("merkle: decommitment witness has unconsumed elements")
	ErrTooFewQueriedValues = errors.New("merkle: fewer queried values supplied than queried positions require")
	ErrTooManyQueriedValues = errors.New("merkle: more queried values supplied than queried positions require")
	ErrRootMismatch        = errors.New("merkle: recomputed root does not match the committed root")
)

// Column is one committed vector; its length must be a power of two, and
// its log2 length is the tree level it attaches to.
type Column []M31

func logSizeOf(col Column) (uint32, error) {
	n := len(col)
	if n == 0 || (n&(n-1)) != 0 {
		return 0, fmt.Errorf("merkle: column length %d is not a power of two", n)
	}
	log := uint32(0)
	for (1 << log) < n {
		log++
	}
	return log, nil
}

// MerkleTree is a mixed-degree commitment: columns of differing lengths
// attach at the tree level matching their own log-size, so a single tree
// can commit to, e.g., both a 2^20-row trace and a 2^5-row preprocessed
// lookup table at once.
type MerkleTree struct {
	hasher MerkleHasher
	// levels[L] holds the 2^L node hashes at level L; levels[maxLogSize] are
	// the leaves, levels[0] is the single root.
	levels [][]Hash
	// columnsByLevel[L] are the columns whose rows are hashed into level L.
	columnsByLevel map[uint32][]Column
	maxLogSize     uint32
}

// CommitMerkleTree builds a mixed-degree commitment over the given columns.
func CommitMerkleTree(hasher MerkleHasher, columns []Column) (*MerkleTree, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("merkle: cannot commit to zero columns")
	}

	byLevel := make(map[uint32][]Column)
	var maxLog uint32
	for _, col := range columns {
		log, err := logSizeOf(col)
		if err != nil {
			return nil, err
		}
		byLevel[log] = append(byLevel[log], col)
		if log > maxLog {
			maxLog = log
		}
	}

	levels := make([][]Hash, maxLog+1)
	// Leaves: level maxLog, no children.
	leafCount := uint64(1) << maxLog
	leaves := make([]Hash, leafCount)
	leafCols := byLevel[maxLog]
	for i := uint64(0); i < leafCount; i++ {
		leaves[i] = hasher.HashNode(nil, rowOf(leafCols, i))
	}
	levels[maxLog] = leaves

	for level := int(maxLog) - 1; level >= 0; level-- {
		L := uint32(level)
		size := uint64(1) << L
		child := levels[L+1]
		cols := byLevel[L]
		nodes := make([]Hash, size)
		for i := uint64(0); i < size; i++ {
			children := [2]Hash{child[2*i], child[2*i+1]}
			nodes[i] = hasher.HashNode(&children, rowOf(cols, i))
		}
		levels[L] = nodes
	}

	return &MerkleTree{
		hasher:         hasher,
		levels:         levels,
		columnsByLevel: byLevel,
		maxLogSize:     maxLog,
	}, nil
}

func rowOf(cols []Column, i uint64) []M31 {
	if len(cols) == 0 {
		return nil
	}
	row := make([]M31, len(cols))
	for j, c := range cols {
		row[j] = c[i]
	}
	return row
}

// Root returns the tree's root hash.
func (t *MerkleTree) Root() Hash {
	return t.levels[0][0]
}

// MaxLogSize returns the log2 of the largest committed column (and of the
// leaf level).
func (t *MerkleTree) MaxLogSize() uint32 {
	return t.maxLogSize
}

// resolveIndex maps a position expressed at the tree's maximum log-size
// down to the corresponding row of a column at a smaller log-size, by
// truncating the low (maxLogSize-targetLog) bits: each node at level L
// covers a contiguous range of 2^(maxLogSize-L) leaf positions.
func resolveIndex(pos uint64, maxLog, targetLog uint32) uint64 {
	return pos >> (maxLog - targetLog)
}

// Decommitment is the witness produced by Decommit: the minimal set of
// sibling hashes and column rows needed to rebuild the committed root from
// the queried values alone.
type Decommitment struct {
	// QueriedValues[level] holds, for every column at that level and every
	// distinct row the queries touch (in ascending row order), the
	// committed value -- the "column_witness" stream.
	QueriedValues map[uint32][]M31
	// HashWitness holds, per level from the leaves up to (but excluding)
	// the root, the sibling hashes not otherwise recomputable from the
	// queried values, in the order the verifier will consume them.
	HashWitness []Hash
}

// Decommit produces the witness needed to prove the values at the given
// query positions (expressed at the tree's maximum log-size) against the
// committed root.
func (t *MerkleTree) Decommit(queries []uint64) (*Decommitment, map[uint32][]uint64, error) {
	sortedQueries := dedupSortedU64(queries)

	queriedValues := make(map[uint32][]M31)
	rowsByLevel := make(map[uint32][]uint64)
	for level := uint32(0); level <= t.maxLogSize; level++ {
		cols := t.columnsByLevel[level]
		if len(cols) == 0 {
			continue
		}
		rows := dedupSortedU64(mapIndices(sortedQueries, t.maxLogSize, level))
		rowsByLevel[level] = rows
		for _, r := range rows {
			queriedValues[level] = append(queriedValues[level], rowOf(cols, r)...)
		}
	}

	// needed[level] is the set of node indices at that level whose hash the
	// verifier must end up knowing, either because it's rehashed from a
	// queried row or because it's a sibling of a node on the query path.
	needed := map[uint32]map[uint64]bool{}
	leafNeeded := map[uint64]bool{}
	for _, q := range sortedQueries {
		leafNeeded[resolveIndex(q, t.maxLogSize, t.maxLogSize)] = true
	}
	needed[t.maxLogSize] = leafNeeded

	var witness []Hash
	for level := int(t.maxLogSize); level >= 1; level-- {
		L := uint32(level)
		thisLevel := needed[L]
		parentNeeded := map[uint64]bool{}
		indices := make([]uint64, 0, len(thisLevel))
		for idx := range thisLevel {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		for _, idx := range indices {
			parentNeeded[idx/2] = true
			sibling := idx ^ 1
			if !thisLevel[sibling] {
				witness = append(witness, t.levels[L][sibling])
			}
		}
		needed[L-1] = parentNeeded
	}

	return &Decommitment{QueriedValues: queriedValues, HashWitness: witness}, rowsByLevel, nil
}

func mapIndices(sortedQueries []uint64, fromLog, toLog uint32) []uint64 {
	out := make([]uint64, len(sortedQueries))
	for i, q := range sortedQueries {
		out[i] = resolveIndex(q, fromLog, toLog)
	}
	return out
}

func dedupSortedU64(vs []uint64) []uint64 {
	cp := append([]uint64(nil), vs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	var prev uint64
	havePrev := false
	for _, v := range cp {
		if havePrev && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
		havePrev = true
	}
	return out
}

// VerifyMerkleDecommitment reconstructs the root from a decommitment and
// checks it against root, given the column log-sizes present in the tree
// (columnLogSizes) and the original query positions. It consumes the
// witness streams in the order MerkleTree.Decommit produced them and
// errors if the streams are too short, too long, or the roots disagree.
func VerifyMerkleDecommitment(
	hasher MerkleHasher,
	root Hash,
	maxLogSize uint32,
	columnLogSizes []uint32,
	queries []uint64,
	dec *Decommitment,
) error {
	sortedQueries := dedupSortedU64(queries)

	levelsPresent := map[uint32]bool{}
	for _, l := range columnLogSizes {
		levelsPresent[l] = true
	}

	// rowsByLevel mirrors the prover's grouping so we consume QueriedValues
	// in the same order they were produced.
	rowsByLevel := map[uint32][]uint64{}
	for level := uint32(0); level <= maxLogSize; level++ {
		if !levelsPresent[level] {
			continue
		}
		rowsByLevel[level] = dedupSortedU64(mapIndices(sortedQueries, maxLogSize, level))
	}

	// cursor tracks how many values of dec.QueriedValues[level] have been
	// consumed so far.
	cursor := map[uint32]int{}
	colCountAt := map[uint32]int{}
	for _, l := range columnLogSizes {
		colCountAt[l]++
	}

	nextQueried := func(level uint32) ([]M31, error) {
		n := colCountAt[level]
		avail := dec.QueriedValues[level]
		start := cursor[level]
		if start+n > len(avail) {
			return nil, ErrTooFewQueriedValues
		}
		cursor[level] += n
		return avail[start : start+n], nil
	}

	witnessIdx := 0
	nextWitness := func() (Hash, error) {
		if witnessIdx >= len(dec.HashWitness) {
			return Hash{}, ErrWitnessTooShort
		}
		h := dec.HashWitness[witnessIdx]
		witnessIdx++
		return h, nil
	}

	known := map[uint64]Hash{}
	if levelsPresent[maxLogSize] {
		for _, r := range rowsByLevel[maxLogSize] {
			vals, err := nextQueried(maxLogSize)
			if err != nil {
				return err
			}
			known[r] = hasher.HashNode(nil, vals)
		}
	}
	for _, q := range sortedQueries {
		leaf := resolveIndex(q, maxLogSize, maxLogSize)
		if _, ok := known[leaf]; !ok {
			vals, err := nextQueried(maxLogSize)
			if err != nil {
				return err
			}
			known[leaf] = hasher.HashNode(nil, vals)
		}
	}

	for level := int(maxLogSize); level >= 1; level-- {
		L := uint32(level)
		nextLevel := map[uint64]Hash{}
		seenParents := map[uint64]bool{}
		indices := make([]uint64, 0, len(known))
		for idx := range known {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		for _, idx := range indices {
			parent := idx / 2
			if seenParents[parent] {
				continue
			}
			seenParents[parent] = true
			left := idx &^ 1
			right := left + 1
			var leftHash, rightHash Hash
			if h, ok := known[left]; ok {
				leftHash = h
			} else {
				w, err := nextWitness()
				if err != nil {
					return err
				}
				leftHash = w
			}
			if h, ok := known[right]; ok {
				rightHash = h
			} else {
				w, err := nextWitness()
				if err != nil {
					return err
				}
				rightHash = w
			}
			var vals []M31
			if levelsPresent[L-1] {
				if contains(rowsByLevel[L-1], parent) {
					v, err := nextQueried(L - 1)
					if err != nil {
						return err
					}
					vals = v
				}
			}
			children := [2]Hash{leftHash, rightHash}
			nextLevel[parent] = hasher.HashNode(&children, vals)
		}
		known = nextLevel
	}

	if witnessIdx != len(dec.HashWitness) {
		return ErrWitnessTooLong
	}
	for level, vals := range dec.QueriedValues {
		if cursor[level] != len(vals) {
			return ErrTooManyQueriedValues
		}
	}

	root0, ok := known[0]
	if !ok {
		return fmt.Errorf("merkle: root not reconstructed")
	}
	if root0 != root {
		return ErrRootMismatch
	}
	return nil
}

func contains(sorted []uint64, v uint64) bool {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= v })
	return i < len(sorted) && sorted[i] == v
}
