// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestChainAcceptance is scenario S1: a child spending a parent already in
// the pool is accepted and the parent's descendant aggregates reflect it.
func TestChainAcceptance(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(1)
	coins.addCoin(rootOp, 100000)

	a := buildTx(rootOp, 90000, 0xfffffffd, 1) // fee 10000
	resA, err := mp.AcceptToMemoryPool(a, AcceptOptions{})
	require.NoError(t, err)
	require.NotNil(t, resA)

	bOp := wire.OutPoint{Hash: *a.Hash(), Index: 0}
	b := buildTx(bOp, 70000, 0xfffffffd, 2) // fee 20000
	resB, err := mp.AcceptToMemoryPool(b, AcceptOptions{})
	require.NoError(t, err)
	require.NotNil(t, resB)

	entryA := mp.FetchEntry(*a.Hash())
	require.NotNil(t, entryA)
	require.Equal(t, int64(2), entryA.DescCount)

	ascending := mp.set.byDescScore.ascending()
	require.Len(t, ascending, 2)
	require.Equal(t, *a.Hash(), ascending[0].Hash)
	require.Equal(t, *b.Hash(), ascending[1].Hash)
}

// TestReplaceByFee is scenario S2: a higher-fee replacement evicts the
// original and an entryRemoved(REPLACED) signal fires before entryAdded.
func TestReplaceByFee(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(2)
	coins.addCoin(rootOp, 100000)

	var order []string
	mp.Subscribe(func(n *Notification) {
		switch n.Type {
		case NTEntryAdded:
			order = append(order, "added:"+n.Entry.Hash.String())
		case NTEntryRemoved:
			order = append(order, "removed:"+n.Entry.Hash.String())
		}
	})

	original := buildTx(rootOp, 90000, 0xfffffffd, 1) // fee 10000
	_, err := mp.AcceptToMemoryPool(original, AcceptOptions{})
	require.NoError(t, err)

	replacement := buildTx(rootOp, 75000, 0xfffffffd, 2) // fee 25000
	res, err := mp.AcceptToMemoryPool(replacement, AcceptOptions{})
	require.NoError(t, err)
	require.Len(t, res.Replaced, 1)
	require.Equal(t, *original.Hash(), res.Replaced[0].Hash)

	require.False(t, mp.HaveTransaction(*original.Hash()))
	require.True(t, mp.HaveTransaction(*replacement.Hash()))

	require.Equal(t, []string{
		"removed:" + original.Hash().String(),
		"added:" + replacement.Hash().String(),
	}, order)
}

// TestDoubleSpendNonSignalling is scenario S6: a conflicting transaction
// that does not opt in to replacement is rejected and the original is
// untouched.
func TestDoubleSpendNonSignalling(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(3)
	coins.addCoin(rootOp, 100000)

	original := buildTx(rootOp, 90000, 0xffffffff, 1) // non-signalling
	_, err := mp.AcceptToMemoryPool(original, AcceptOptions{})
	require.NoError(t, err)

	conflict := buildTx(rootOp, 50000, 0xffffffff, 2)
	_, err = mp.AcceptToMemoryPool(conflict, AcceptOptions{})
	require.Error(t, err)

	var rejErr *RejectError
	require.ErrorAs(t, err, &rejErr)
	require.Equal(t, RejectConflict, rejErr.Reason)

	require.True(t, mp.HaveTransaction(*original.Hash()))
	require.False(t, mp.HaveTransaction(*conflict.Hash()))
}

// TestRejectFilterShortCircuit is scenario S7: a resubmission of a
// recently-rejected transaction short-circuits at gate 0.
func TestRejectFilterShortCircuit(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(4)
	coins.addCoin(rootOp, 1000)

	// Fee of zero is below minRelayTxFee, so this is rejected at gate 5.
	tx := buildTx(rootOp, 1000, 0xffffffff, 1)

	_, err := mp.AcceptToMemoryPool(tx, AcceptOptions{})
	require.Error(t, err)
	var first *RejectError
	require.ErrorAs(t, err, &first)
	require.Equal(t, RejectInsufficientFee, first.Reason)

	_, err = mp.AcceptToMemoryPool(tx, AcceptOptions{})
	require.Error(t, err)
	var second *RejectError
	require.ErrorAs(t, err, &second)
	require.Equal(t, RejectRecentlyRejected, second.Reason)

	clock.t += int64(DefaultRejectFilterTTL.Seconds()) + 1
	_, err = mp.AcceptToMemoryPool(tx, AcceptOptions{})
	require.Error(t, err)
	var third *RejectError
	require.ErrorAs(t, err, &third)
	require.Equal(t, RejectInsufficientFee, third.Reason)
}
