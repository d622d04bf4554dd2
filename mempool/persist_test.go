// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestDumpRestoreRoundTrip is scenario S8.
func TestDumpRestoreRoundTrip(t *testing.T) {
	coins := newFakeCoins()
	tip := &fakeChainTip{}
	clock := &fakeClock{t: 1000}
	mp := newTestPool(coins, tip, clock)

	rootOp := coinbaseLikeOutpoint(7)
	coins.addCoin(rootOp, 100000)

	a := buildTx(rootOp, 90000, 0xfffffffd, 1)
	_, err := mp.AcceptToMemoryPool(a, AcceptOptions{})
	require.NoError(t, err)

	bOp := wire.OutPoint{Hash: *a.Hash(), Index: 0}
	b := buildTx(bOp, 70000, 0xfffffffd, 2)
	_, err = mp.AcceptToMemoryPool(b, AcceptOptions{})
	require.NoError(t, err)

	mp.PrioritiseTransaction(*a.Hash(), 500)

	var buf bytes.Buffer
	require.NoError(t, mp.Dump(&buf))

	coins2 := newFakeCoins()
	coins2.addCoin(rootOp, 100000)
	mp2 := newTestPool(coins2, tip, clock)

	n, err := mp2.Restore(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	entryA1 := mp.FetchEntry(*a.Hash())
	entryA2 := mp2.FetchEntry(*a.Hash())
	require.NotNil(t, entryA2)
	require.Equal(t, entryA1.Fee, entryA2.Fee)
	require.Equal(t, entryA1.FeeDelta, entryA2.FeeDelta)
	require.Equal(t, entryA1.Time, entryA2.Time)

	entryB1 := mp.FetchEntry(*b.Hash())
	entryB2 := mp2.FetchEntry(*b.Hash())
	require.NotNil(t, entryB2)
	require.Equal(t, entryB1.Fee, entryB2.Fee)

	orig := mp.set.byAncScore.ascending()
	restored := mp2.set.byAncScore.ascending()
	require.Len(t, restored, len(orig))
	for i := range orig {
		require.Equal(t, orig[i].Hash, restored[i].Hash)
	}
}
