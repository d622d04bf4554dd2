// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UtxoEntry is the minimal view of a confirmed output the pool needs:
// enough to compute fees and feed a script validator, nothing about how
// it's stored.
type UtxoEntry struct {
	Amount      btcutil.Amount
	PkScript    []byte
	BlockHeight int32
	IsCoinBase  bool
	Spent       bool
}

// CoinsView is the read-only external collaborator giving acceptance and
// reorg access to the confirmed UTXO set. The pool never writes through
// it. Out of scope per §1: the storage engine behind this interface.
type CoinsView interface {
	FetchUtxoEntry(op wire.OutPoint) (*UtxoEntry, error)
}

// CoinsViewMemPool overlays a CoinsView with the pool's own outputs, so an
// acceptance check can see candidate outputs as well as confirmed ones. It
// does not hide already-spent pool outputs: acceptance must see every
// candidate to validate signatures, per §6.
type CoinsViewMemPool struct {
	base CoinsView
	pool *TxPool
}

// NewCoinsViewMemPool builds the pool-overlaid view described in §6.
func NewCoinsViewMemPool(base CoinsView, pool *TxPool) *CoinsViewMemPool {
	return &CoinsViewMemPool{base: base, pool: pool}
}

// FetchUtxoEntry resolves op against the pool first, then the base view.
func (v *CoinsViewMemPool) FetchUtxoEntry(op wire.OutPoint) (*UtxoEntry, error) {
	v.pool.mu.RLock()
	e := v.pool.set.Get(op.Hash)
	v.pool.mu.RUnlock()

	if e != nil {
		outs := e.Tx.MsgTx().TxOut
		if int(op.Index) >= len(outs) {
			return nil, nil
		}
		out := outs[op.Index]
		return &UtxoEntry{
			Amount:      btcutil.Amount(out.Value),
			PkScript:    out.PkScript,
			BlockHeight: -1,
			IsCoinBase:  false,
		}, nil
	}

	return v.base.FetchUtxoEntry(op)
}

// emptyCoinsView is the default CoinsView when the caller doesn't wire a
// real UTXO set; every lookup reports the outpoint unknown.
type emptyCoinsView struct{}

func (emptyCoinsView) FetchUtxoEntry(wire.OutPoint) (*UtxoEntry, error) { return nil, nil }

// PolicyEstimator is the out-of-scope fee-estimation collaborator; the
// pool only ever pushes observations at it, never reads its output.
type PolicyEstimator interface {
	ObserveTransaction(e *TxEntry, validFeeEstimate bool)
	ObserveBlock(height int32, entries []*TxEntry)
}

// noopEstimator satisfies PolicyEstimator when the caller doesn't wire a
// real one.
type noopEstimator struct{}

func (noopEstimator) ObserveTransaction(*TxEntry, bool) {}
func (noopEstimator) ObserveBlock(int32, []*TxEntry)    {}

// ChainTipAccessor exposes the minimal chain-tip facts LockPoints and
// policy gates need.
type ChainTipAccessor interface {
	BestHeight() int32
	BestHash() chainhash.Hash
	MedianTimePast() int64
}

// SequenceLockChecker evaluates BIP68 relative lock-times for tx given its
// inputs' confirmation heights/times. The algorithm itself lives outside
// this package (§1); the pool only owns caching the result as LockPoints.
type SequenceLockChecker interface {
	CalcSequenceLock(tx *btcutil.Tx, view CoinsView) (LockPoints, error)
	CheckSequenceLocks(lp LockPoints, tip ChainTipAccessor) bool
}

// ScriptValidator is the out-of-scope script/signature verification
// engine (§1, gate 7). Flags carries the policy flags (standardness,
// segwit, taproot, ...) the caller wants enforced.
type ScriptValidator interface {
	ValidateScripts(tx *btcutil.Tx, view CoinsView, flags uint32) error
}

// noopValidator accepts everything; useful for tests and for callers who
// validate scripts upstream of the pool.
type noopValidator struct{}

func (noopValidator) ValidateScripts(*btcutil.Tx, CoinsView, uint32) error { return nil }

// zeroChainTip is the default ChainTipAccessor when the caller doesn't
// wire a real chain view; height/time stay at the chain's genesis values.
type zeroChainTip struct{}

func (zeroChainTip) BestHeight() int32        { return 0 }
func (zeroChainTip) BestHash() chainhash.Hash { return chainhash.Hash{} }
func (zeroChainTip) MedianTimePast() int64    { return 0 }

// alwaysFinalSeqLocks is the default SequenceLockChecker: every lock
// point is immediately final. Appropriate when the caller enforces BIP68
// upstream of this package.
type alwaysFinalSeqLocks struct{}

func (alwaysFinalSeqLocks) CalcSequenceLock(*btcutil.Tx, CoinsView) (LockPoints, error) {
	return LockPoints{}, nil
}

func (alwaysFinalSeqLocks) CheckSequenceLocks(LockPoints, ChainTipAccessor) bool {
	return true
}
