// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestAncestorCountLimitBoundary checks §8's boundary behaviour: a chain of
// length MaxAncestorCount accepts; one more rejects at gate 6.
func TestAncestorCountLimitBoundary(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)
	mp.cfg.Policy.MaxAncestorCount = 3
	mp.cfg.Policy.MaxDescendantCount = 3

	rootOp := coinbaseLikeOutpoint(8)
	coins.addCoin(rootOp, 1000000)

	prevOp := rootOp
	value := int64(1000000)
	for i := byte(0); i < 3; i++ {
		value -= 10000
		tx := buildTx(prevOp, value, 0xfffffffd, 20+i)
		_, err := mp.AcceptToMemoryPool(tx, AcceptOptions{})
		require.NoError(t, err, "chain member %d should be accepted", i)
		prevOp = wire.OutPoint{Hash: *tx.Hash(), Index: 0}
	}

	value -= 10000
	tooMany := buildTx(prevOp, value, 0xfffffffd, 30)
	_, err := mp.AcceptToMemoryPool(tooMany, AcceptOptions{})
	require.Error(t, err)

	var rejErr *RejectError
	require.ErrorAs(t, err, &rejErr)
	require.Equal(t, RejectLimitsExceeded, rejErr.Reason)
}
