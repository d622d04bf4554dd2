// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// fakeCoins is a CoinsView backed by a plain map, used by tests in place
// of a real UTXO set, mirroring the teacher's own fakeChain harness.
type fakeCoins struct {
	entries map[wire.OutPoint]*UtxoEntry
}

func newFakeCoins() *fakeCoins {
	return &fakeCoins{entries: make(map[wire.OutPoint]*UtxoEntry)}
}

func (f *fakeCoins) FetchUtxoEntry(op wire.OutPoint) (*UtxoEntry, error) {
	return f.entries[op], nil
}

func (f *fakeCoins) addCoin(op wire.OutPoint, amount btcutil.Amount) {
	f.entries[op] = &UtxoEntry{Amount: amount}
}

// fakeChainTip is a settable ChainTipAccessor.
type fakeChainTip struct {
	height int32
	mtp    int64
}

func (f *fakeChainTip) BestHeight() int32        { return f.height }
func (f *fakeChainTip) BestHash() chainhash.Hash { return chainhash.Hash{} }
func (f *fakeChainTip) MedianTimePast() int64    { return f.mtp }

// fakeClock lets tests control mp.cfg.Now() deterministically.
type fakeClock struct {
	t int64
}

func (c *fakeClock) now() int64 { return c.t }

// buildTx constructs a single-input, single-output transaction spending
// prevOp with value in, producing one output of value out. sequence is the
// sole input's sequence number. An arbitrary 1-byte distinguishing tag can
// be folded into the output's PkScript so otherwise-identical transactions
// hash differently.
func buildTx(prevOp wire.OutPoint, out int64, sequence uint32, tag byte) *btcutil.Tx {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: prevOp,
		Sequence:         sequence,
	})
	msgTx.AddTxOut(&wire.TxOut{
		Value:    out,
		PkScript: []byte{0x51, tag},
	})
	return btcutil.NewTx(msgTx)
}

// coinbaseLikeOutpoint returns a distinct synthetic outpoint tests can use
// as a confirmed coin to spend from, keyed by tag so independent test cases
// don't collide.
func coinbaseLikeOutpoint(tag byte) wire.OutPoint {
	var h chainhash.Hash
	h[0] = tag
	return wire.OutPoint{Hash: h, Index: 0}
}

// newTestPool builds a pool with permissive defaults suitable for
// exercising the acceptance pipeline without real script validation.
func newTestPool(coins CoinsView, tip ChainTipAccessor, clock *fakeClock) *TxPool {
	policy := DefaultPolicy()
	policy.MinRelayTxFee = 100
	policy.IncrementalRelayFee = 100

	cfg := Config{
		Policy:   policy,
		Coins:    coins,
		ChainTip: tip,
		Now:      clock.now,
	}
	return NewTxPool(cfg)
}
