// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// LockPoints caches the result of a BIP68 relative-lock-time evaluation
// against a specific chain tip. It is invalidated wholesale on reorg; the
// pool never mutates individual fields.
type LockPoints struct {
	Height    int32
	Time      int64
	MaxHeight int32
}

// TxEntry is the bookkeeping record the pool keeps for one accepted
// transaction. It is the "Entry" of C1: everything else in this package
// either owns a set of *TxEntry or mutates fields on one under the pool's
// lock.
//
// A TxEntry is never copied by value after insertion; every index and
// link set holds the same pointer.
type TxEntry struct {
	Tx   *btcutil.Tx
	Hash chainhash.Hash

	VSize     int64
	Fee       btcutil.Amount
	Time      int64
	Height    int32
	FeeDelta  btcutil.Amount
	SigOpCost int64

	LockPoints LockPoints

	// Aggregates, including self. Maintained exclusively by the
	// functions in aggregates.go; nothing else may write to them.
	DescCount  int64
	DescSize   int64
	DescModFee btcutil.Amount

	AncCount  int64
	AncSize   int64
	AncModFee btcutil.Amount

	// seq is a monotonically increasing sequence number assigned when the
	// entry is built, used only by Dump to write entries in acceptance
	// order; every ordering breaks ties by txid.
	seq uint64
}

// ModifiedFee is fee + feeDelta, the quantity every ordering key is
// derived from.
func (e *TxEntry) ModifiedFee() btcutil.Amount {
	return e.Fee + e.FeeDelta
}

// FeeRate returns the entry's own modified feerate in amount per 1000
// vbytes, matching the units the rest of the policy layer uses.
func (e *TxEntry) FeeRate() int64 {
	return feeRatePerKB(e.ModifiedFee(), e.VSize)
}

// DescendantFeeRate returns the combined feerate of self+descendants.
func (e *TxEntry) DescendantFeeRate() int64 {
	return feeRatePerKB(e.DescModFee, e.DescSize)
}

// AncestorFeeRate returns the combined feerate of self+ancestors.
func (e *TxEntry) AncestorFeeRate() int64 {
	return feeRatePerKB(e.AncModFee, e.AncSize)
}

// descendantScore is I1's key: max(feerate(self), feerate(self+descendants)).
func (e *TxEntry) descendantScore() int64 {
	return max64(e.FeeRate(), e.DescendantFeeRate())
}

// miningScore is I3's key: the ancestor feerate, used to rank candidates
// for block construction. Ties are broken by txid in the index itself.
func (e *TxEntry) miningScore() int64 {
	return e.AncestorFeeRate()
}

// ancestorScore is I4's key: min(feerate(self), feerate(self+ancestors)).
// I5, when installed, uses Policy.AncestorScoreKeyFunc instead.
func (e *TxEntry) ancestorScore() int64 {
	return min64(e.FeeRate(), e.AncestorFeeRate())
}

func feeRatePerKB(fee btcutil.Amount, vsize int64) int64 {
	if vsize <= 0 {
		return 0
	}
	return int64(fee) * 1000 / vsize
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// newTxEntry builds a fresh entry for tx, computing its own single-entry
// aggregates (no ancestors/descendants yet). Callers must run it through
// aggregates.go before the aggregates reflect reality.
func newTxEntry(tx *btcutil.Tx, vsize int64, fee btcutil.Amount, feeDelta btcutil.Amount, acceptTime int64, height int32, sigOpCost int64, lp LockPoints, seq uint64) *TxEntry {
	e := &TxEntry{
		Tx:         tx,
		Hash:       *tx.Hash(),
		VSize:      vsize,
		Fee:        fee,
		Time:       acceptTime,
		Height:     height,
		FeeDelta:   feeDelta,
		SigOpCost:  sigOpCost,
		LockPoints: lp,
		seq:        seq,
	}
	e.DescCount, e.DescSize, e.DescModFee = 1, vsize, e.ModifiedFee()
	e.AncCount, e.AncSize, e.AncModFee = 1, vsize, e.ModifiedFee()
	return e
}
