// Command vybium-vm-prover builds the constant-Fibonacci test circuit,
// proves and verifies it via the circle-STARK verifier driver, and reports
// success on stdout and failures on stderr (exiting with status 1). It exists to give the verifier-facing protocol
// package a runnable end-to-end smoke test outside of `go test`.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

func main() {
	domainLogSize := flag.Uint("log-size", 3, "log2 of the circle domain size")
	traceRows := flag.Int("trace-rows", 0, "if set, overrides -log-size with the smallest power-of-two domain fitting this many rows")
	initial := flag.Uint64("initial-value", 7, "the Fibonacci trace's constant initial value")
	nQueries := flag.Int("n-queries", 8, "number of FRI query positions")
	flag.Parse()

	logSize := uint32(*domainLogSize)
	if *traceRows > 0 {
		logSize = uint32(utils.Log2(utils.NextPowerOfTwo(*traceRows)))
	}

	ok, err := proveAndVerify(logSize, core.M31(uint32(*initial)), *nQueries)
	if err != nil {
		fatal(fmt.Sprintf("failed to build proof: %v", err))
	}
	if !ok {
		fatal("verification rejected a proof the prover believed valid")
	}
	fmt.Println("OK: proof accepted")
}

// proveAndVerify builds a commitment scheme and StarkProof for a
// FibonacciComponent whose trace is the everywhere-constant function
// cur=initialValue, side=0 -- a constant function satisfies the component's
// transition and boundary constraints identically, so the composition
// polynomial (and every FRI quotient derived from it) is the zero
// polynomial, which ProveFRI can commit to directly without a real
// interpolation/FFT prover.
func proveAndVerify(domainLogSize uint32, initialValue core.M31, nQueries int) (bool, error) {
	hasher := core.Blake2sHasher{}
	domain := core.CanonicCircleDomain(domainLogSize)
	n := int(domain.Size())

	comp := protocols.NewFibonacciComponent(domainLogSize, initialValue)
	components, err := protocols.NewComponents(nil, comp)
	if err != nil {
		return false, err
	}

	curCol := make(core.Column, n)
	sideCol := make(core.Column, n)
	for i := range curCol {
		curCol[i] = initialValue
	}
	traceTree, err := core.CommitMerkleTree(hasher, []core.Column{curCol, sideCol})
	if err != nil {
		return false, err
	}

	compCols := make([]core.Column, protocols.CompositionColumns)
	for i := range compCols {
		compCols[i] = make(core.Column, n)
	}
	compTree, err := core.CommitMerkleTree(hasher, compCols)
	if err != nil {
		return false, err
	}

	columnLogSizes := make([]uint32, protocols.CompositionColumns)
	for i := range columnLogSizes {
		columnLogSizes[i] = domain.LogSize()
	}
	commitmentScheme := &protocols.CommitmentScheme{
		Trees:          []*core.MerkleTree{traceTree, compTree},
		ColumnLogSizes: [][]uint32{{domain.LogSize(), domain.LogSize()}, columnLogSizes},
	}

	cfg := utils.DefaultPcsConfig().WithFri(utils.DefaultFriConfig().WithNQueries(nQueries).WithLogLastLayerDegreeBound(1).WithPowBits(0))

	proverChannel := utils.NewChannel(hasher)
	proverChannel.DrawSecureFelt() // randomCoeff, mirroring Verify's first draw
	proverChannel.MixRoot(traceTree.Root())
	proverChannel.MixRoot(compTree.Root())

	oodsPoint, err := protocols.DrawOODSPoint(proverChannel)
	if err != nil {
		return false, err
	}

	mask := components.MaskPoints(oodsPoint)
	initialQM31 := core.QM31FromM31(initialValue)
	traceSamples := make([][]core.QM31, len(mask))
	for i, points := range mask {
		traceSamples[i] = make([]core.QM31, len(points))
		for j := range points {
			if i == 0 {
				traceSamples[i][j] = initialQM31
			} else {
				traceSamples[i][j] = core.QM31Zero
			}
		}
	}

	sampledValues := append([][]core.QM31{}, traceSamples...)
	for i := 0; i < protocols.CompositionColumns; i++ {
		sampledValues = append(sampledValues, []core.QM31{core.QM31Zero})
	}

	zeroEvals := make([]core.QM31, n)
	friProof, queriedPositions, err := protocols.ProveFRI(proverChannel, cfg.Fri, domain, zeroEvals)
	if err != nil {
		return false, err
	}

	siblingQueries := protocols.NewQueries(queriedPositions, domain.LogSize()).Siblings()
	traceDec, _, err := traceTree.Decommit(siblingQueries.Positions)
	if err != nil {
		return false, err
	}
	compDec, _, err := compTree.Decommit(siblingQueries.Positions)
	if err != nil {
		return false, err
	}

	proof := &protocols.StarkProof{
		Commitments:   []core.Hash{traceTree.Root(), compTree.Root()},
		SampledValues: sampledValues,
		Decommitments: []*core.Decommitment{traceDec, compDec},
		Fri:           friProof,
	}

	verifierChannel := utils.NewChannel(hasher)
	if err := protocols.Verify(components, verifierChannel, commitmentScheme, proof, cfg, domain); err != nil {
		logStderr(fmt.Sprintf("verification failed: %v", err))
		return false, nil
	}
	return true, nil
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "vybium-vm-prover:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
