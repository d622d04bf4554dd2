// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExpire is scenario S5.
func TestExpire(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 0}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(5)
	coins.addCoin(rootOp, 100000)

	tx := buildTx(rootOp, 90000, 0xfffffffd, 1)
	_, err := mp.AcceptToMemoryPool(tx, AcceptOptions{AcceptTime: 0})
	require.NoError(t, err)

	clock.t = 101
	n := mp.Expire(100)
	require.Equal(t, 1, n)
	require.False(t, mp.HaveTransaction(*tx.Hash()))
}

// TestTrimToSizeEvictsLowestFeerateAndBumpsFloor exercises the core of S4:
// trimming to half the current memory usage evicts entries and raises
// GetMinFee above zero.
func TestTrimToSizeEvictsLowestFeerateAndBumpsFloor(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	for i := byte(0); i < 5; i++ {
		op := coinbaseLikeOutpoint(10 + i)
		coins.addCoin(op, 100000)
		fee := int64(1000) * int64(i+1)
		tx := buildTx(op, 100000-fee, 0xfffffffd, 10+i)
		_, err := mp.AcceptToMemoryPool(tx, AcceptOptions{})
		require.NoError(t, err)
	}
	require.Equal(t, 5, mp.Count())

	before := mp.DynamicMemoryUsage()
	mp.TrimToSize(before / 2)

	require.Less(t, mp.Count(), 5)
	require.Greater(t, mp.GetMinFee(), int64(0))
}

// TestGetMinFeeDecaysOnlyAcrossBlocks checks §4.8's decay gate: with no
// block having arrived since the last bump, GetMinFee does not decay even
// though wall-clock time has advanced.
func TestGetMinFeeDecaysOnlyAcrossBlocks(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	mp.bumpRollingMinFee(10000)
	clock.t += 12 * 3600
	require.Equal(t, int64(10000), mp.GetMinFee())

	mp.NotifyBlockConnected()
	require.Less(t, mp.GetMinFee(), int64(10000))
}
