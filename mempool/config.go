// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

// Policy holds every knob the acceptance pipeline (C6) and eviction (C8)
// gates consult. It mirrors the shape of the teacher's own
// mempool.Policy/policy_enforcer.PolicyConfig split, collapsed into one
// struct since this package has a single acceptance path rather than v1/v2
// variants.
type Policy struct {
	// MaxTxVersion is the highest transaction version considered
	// standard.
	MaxTxVersion int32

	// AcceptNonStd allows non-standard transactions when true.
	AcceptNonStd bool

	// MaxOrphanTxSize bounds transactions the caller may orphan-pool on
	// missing inputs; enforced by the caller, not this package, but
	// carried here so a single Policy configures both.
	MaxOrphanTxSize int64

	// MaxSigOpCostPerTx is a bound on aggregated signature-operation
	// cost. The acceptance pipeline does not count signature operations
	// and does not read this field; every entry's SigOpCost is zero.
	MaxSigOpCostPerTx int64

	// MinRelayTxFee is the minimum feerate (amount per 1000 bytes)
	// required for relay and the baseline for calcMinRequiredTxRelayFee.
	MinRelayTxFee btcutil.Amount

	// IncrementalRelayFee is the minimum feerate bump required for a
	// replacement (BIP 125 rule 4) and for TrimToSize's rolling floor
	// bump.
	IncrementalRelayFee btcutil.Amount

	// AbsurdFeeMultiplier caps an accepted fee at this multiple of
	// MinRelayTxFee's implied fee for the transaction's size, guarding
	// against fee-field typos. Zero disables the check.
	AbsurdFeeMultiplier int64

	// MaxAncestorCount/MaxAncestorSize/MaxDescendantCount/
	// MaxDescendantSize bound C5's ancestor walk (gate 6).
	MaxAncestorCount   int64
	MaxAncestorSize    int64
	MaxDescendantCount int64
	MaxDescendantSize  int64

	// MaxRBFSequence is the highest TxIn.Sequence value considered an
	// explicit opt-in to replacement (BIP 125): sequences below this are
	// replaceable, at or above are final.
	MaxRBFSequence uint32

	// MaxReplacementEvictions bounds the total entries (conflicts plus
	// their descendants) a single replacement may evict.
	MaxReplacementEvictions int

	// MaxMempoolSize bounds DynamicMemoryUsage(); AcceptToMemoryPool
	// trims the pool to it after every accepted transaction unless
	// AcceptOptions.OverrideMempoolLimit is set.
	MaxMempoolSize int64

	// RollingFeeHalfLife is the decay half-life GetMinFee applies,
	// measured only across elapsed time in which blocks arrived. Bitcoin
	// Core fixes this at 12 hours; exposed here for testability.
	RollingFeeHalfLife time.Duration

	// TxExpiry is how long an entry may sit in the pool. Expire takes its
	// cutoff time as an argument and does not read this field.
	TxExpiry time.Duration

	// FreeTxRelayLimit is the teacher's penny-rate-limiter setting for
	// non-fee-paying relay. This package has no such rate limiter and
	// does not read this field.
	FreeTxRelayLimit float64

	// CheckFrequency is the fraction, out of 2^32, of Check() calls that
	// run the full invariant audit; Check only runs when the pool's owner
	// calls it. Zero disables it.
	CheckFrequency uint32

	// AncestorScoreKeyFunc, if non-nil, installs I5 (§4.1, §9) with this
	// key function instead of leaving it unset.
	AncestorScoreKeyFunc orderKeyFunc
}

// DefaultPolicy returns the policy this package ships with, matching the
// teacher's DefaultPolicyConfig values where the spec doesn't override
// them.
func DefaultPolicy() Policy {
	return Policy{
		MaxTxVersion:            2,
		MaxOrphanTxSize:         100000,
		MaxSigOpCostPerTx:       80000,
		MinRelayTxFee:           1000,
		IncrementalRelayFee:     1000,
		AbsurdFeeMultiplier:     10000,
		MaxAncestorCount:        25,
		MaxAncestorSize:         101000,
		MaxDescendantCount:      25,
		MaxDescendantSize:       101000,
		MaxRBFSequence:          0xfffffffe,
		MaxReplacementEvictions: 100,
		MaxMempoolSize:          300 * 1024 * 1024,
		RollingFeeHalfLife:      12 * time.Hour,
		TxExpiry:                14 * 24 * time.Hour,
		FreeTxRelayLimit:        15.0,
		CheckFrequency:          0,
	}
}

// Config wires the pool to its external collaborators (§6). Every field
// is optional; a nil collaborator is replaced with a no-op implementation
// so the pool is usable standalone in tests.
type Config struct {
	Policy Policy

	Coins        CoinsView
	Estimator    PolicyEstimator
	ChainTip     ChainTipAccessor
	SeqLocks     SequenceLockChecker
	Validator    ScriptValidator
	RejectFilter *RejectFilter

	// Now returns the current wall-clock time in seconds, overridable
	// for deterministic tests of Expire/GetMinFee decay.
	Now func() int64
}

func (c *Config) fillDefaults() {
	if c.Estimator == nil {
		c.Estimator = noopEstimator{}
	}
	if c.Validator == nil {
		c.Validator = noopValidator{}
	}
	if c.ChainTip == nil {
		c.ChainTip = zeroChainTip{}
	}
	if c.SeqLocks == nil {
		c.SeqLocks = alwaysFinalSeqLocks{}
	}
	if c.Coins == nil {
		c.Coins = emptyCoinsView{}
	}
	if c.RejectFilter == nil {
		c.RejectFilter = NewRejectFilter(DefaultRejectFilterSize)
	}
	if c.Now == nil {
		c.Now = func() int64 { return time.Now().Unix() }
	}
}
