// Package utils holds the configuration types, the Fiat-Shamir channel and
// proof-of-work grinding gate, and small bit/log helpers shared across the
// protocols and core packages.
package utils

import "fmt"

// FriConfig configures the FRI folding protocol: how aggressively the
// committed polynomial is blown up, how small the final layer is allowed to
// shrink to before it's sent in the clear, how many query positions are
// sampled, and how many leading zero bits a grinding nonce must exhibit.
type FriConfig struct {
	LogBlowupFactor         int
	LogLastLayerDegreeBound int
	NQueries                int
	PowBits                 int
}

// DefaultFriConfig returns a conservative, commonly-used parameterization.
func DefaultFriConfig() *FriConfig {
	return &FriConfig{
		LogBlowupFactor:         1,
		LogLastLayerDegreeBound: 0,
		NQueries:                64,
		PowBits:                 0,
	}
}

// Validate enforces the bounds the protocol requires for soundness: the
// last layer's degree bound must fit in [0, 10], the blowup factor in
// [1, 16], and at least one query and zero-or-more PoW bits must be asked
// for.
func (c *FriConfig) Validate() error {
	if c.LogLastLayerDegreeBound < 0 || c.LogLastLayerDegreeBound > 10 {
		return fmt.Errorf("fri: log_last_layer_degree_bound %d out of range [0, 10]", c.LogLastLayerDegreeBound)
	}
	if c.LogBlowupFactor < 1 || c.LogBlowupFactor > 16 {
		return fmt.Errorf("fri: log_blowup_factor %d out of range [1, 16]", c.LogBlowupFactor)
	}
	if c.NQueries <= 0 {
		return fmt.Errorf("fri: n_queries must be positive, got %d", c.NQueries)
	}
	if c.PowBits < 0 {
		return fmt.Errorf("fri: pow_bits must be non-negative, got %d", c.PowBits)
	}
	return nil
}

// SecurityBits estimates the protocol's achieved proximity soundness in
// bits: n_queries * log_blowup_factor. Grinding (pow_bits) buys additional
// soundness against a grinding adversary but is tracked separately, not
// folded into this figure.
func (c *FriConfig) SecurityBits() int {
	return c.NQueries * c.LogBlowupFactor
}

func (c *FriConfig) WithLogBlowupFactor(v int) *FriConfig {
	c.LogBlowupFactor = v
	return c
}

func (c *FriConfig) WithLogLastLayerDegreeBound(v int) *FriConfig {
	c.LogLastLayerDegreeBound = v
	return c
}

func (c *FriConfig) WithNQueries(v int) *FriConfig {
	c.NQueries = v
	return c
}

func (c *FriConfig) WithPowBits(v int) *FriConfig {
	c.PowBits = v
	return c
}

func (c *FriConfig) Clone() *FriConfig {
	cp := *c
	return &cp
}

// PcsConfig configures the polynomial commitment scheme layer built on top
// of FRI: the FRI parameters together with the circle domain's own blowup.
type PcsConfig struct {
	Fri             *FriConfig
	LogBlowupFactor int
}

// DefaultPcsConfig returns a default PCS configuration wrapping
// DefaultFriConfig.
func DefaultPcsConfig() *PcsConfig {
	return &PcsConfig{
		Fri:             DefaultFriConfig(),
		LogBlowupFactor: 1,
	}
}

// Validate checks both the PCS-level blowup factor and the wrapped FRI
// configuration.
func (c *PcsConfig) Validate() error {
	if c.LogBlowupFactor < 1 || c.LogBlowupFactor > 16 {
		return fmt.Errorf("pcs: log_blowup_factor %d out of range [1, 16]", c.LogBlowupFactor)
	}
	if c.Fri == nil {
		return fmt.Errorf("pcs: fri configuration is required")
	}
	return c.Fri.Validate()
}

func (c *PcsConfig) WithFri(fri *FriConfig) *PcsConfig {
	c.Fri = fri
	return c
}

func (c *PcsConfig) WithLogBlowupFactor(v int) *PcsConfig {
	c.LogBlowupFactor = v
	return c
}

func (c *PcsConfig) Clone() *PcsConfig {
	return &PcsConfig{
		Fri:             c.Fri.Clone(),
		LogBlowupFactor: c.LogBlowupFactor,
	}
}

// SecurityBits returns the FRI layer's estimated soundness in bits.
func (c *PcsConfig) SecurityBits() int {
	return c.Fri.SecurityBits()
}
