// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestReorgReinsertsDisconnectedParent is scenario S3: B (child of A) is
// already in the pool when a block containing A is disconnected; reinserting
// A and reconciling re-establishes the parent/child link and aggregates.
func TestReorgReinsertsDisconnectedParent(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(6)
	coins.addCoin(rootOp, 100000)

	a := buildTx(rootOp, 90000, 0xfffffffd, 1)
	aOut := wire.OutPoint{Hash: *a.Hash(), Index: 0}

	// B is accepted directly spending A's output as a confirmed coin,
	// simulating the state right after A's confirming block was mined and
	// B relayed against the new tip, without A itself in the pool.
	coins.addCoin(aOut, 90000)
	b := buildTx(aOut, 70000, 0xfffffffd, 2)
	_, err := mp.AcceptToMemoryPool(b, AcceptOptions{})
	require.NoError(t, err)

	reinserted := mp.UpdateMempoolForReorg([]*btcutil.Tx{a}, true)
	require.Len(t, reinserted, 1)
	require.Equal(t, *a.Hash(), reinserted[0])

	require.True(t, mp.HaveTransaction(*a.Hash()))

	entryA := mp.FetchEntry(*a.Hash())
	entryB := mp.FetchEntry(*b.Hash())
	require.NotNil(t, entryA)
	require.NotNil(t, entryB)

	parents := mp.links.parentsOf(entryB.Hash)
	require.Len(t, parents, 1)
	require.Equal(t, entryA.Hash, parents[0].Hash)

	children := mp.links.childrenOf(entryA.Hash)
	require.Len(t, children, 1)
	require.Equal(t, entryB.Hash, children[0].Hash)

	require.Equal(t, int64(2), entryA.DescCount)
}
