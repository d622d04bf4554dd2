// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedIndexInsertRemoveOrdering(t *testing.T) {
	idx := newOrderedIndex(func(e *TxEntry) int64 { return e.VSize }, false)

	mk := func(tag byte, vsize int64) *TxEntry {
		op := coinbaseLikeOutpoint(tag)
		tx := buildTx(op, 1000, 0xffffffff, tag)
		return newTxEntry(tx, vsize, 0, 0, 0, 0, 0, LockPoints{}, uint64(tag))
	}

	a := mk(1, 300)
	b := mk(2, 100)
	c := mk(3, 200)

	idx.insert(a)
	idx.insert(b)
	idx.insert(c)

	got := idx.ascending()
	require.Len(t, got, 3)
	require.Equal(t, b, got[0])
	require.Equal(t, c, got[1])
	require.Equal(t, a, got[2])

	idx.remove(b)
	got = idx.ascending()
	require.Len(t, got, 2)
	require.Equal(t, c, got[0])
	require.Equal(t, a, got[1])

	// reinsert after a key change: a's vsize "changes" to 50, making it the
	// new minimum.
	oldKey := idx.key(a)
	a.VSize = 50
	idx.reinsert(a, oldKey, idx.key(a))

	got = idx.ascending()
	require.Equal(t, a, got[0])
	require.Equal(t, c, got[1])
}

func TestTxSetInsertRemoveUpdatesTotals(t *testing.T) {
	s := newTxSet(nil)

	op := coinbaseLikeOutpoint(9)
	tx := buildTx(op, 1000, 0xffffffff, 9)
	e := newTxEntry(tx, 250, 1000, 0, 0, 0, 0, LockPoints{}, 1)

	s.insert(e)
	require.True(t, s.Has(e.Hash))
	require.Equal(t, int64(250), s.totalTxSize)

	s.remove(e)
	require.False(t, s.Has(e.Hash))
	require.Equal(t, int64(0), s.totalTxSize)
}
