// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestTxEntryModifiedFeeAndRate(t *testing.T) {
	op := coinbaseLikeOutpoint(1)
	tx := buildTx(op, 9000, 0xffffffff, 0)

	e := newTxEntry(tx, 1000, 1000, 500, 100, 1, 0, LockPoints{}, 1)

	require.Equal(t, btcutil.Amount(1500), e.ModifiedFee())
	require.Equal(t, int64(1500), e.FeeRate())

	// With no ancestors/descendants beyond self, descendant and ancestor
	// scores both equal the entry's own feerate.
	require.Equal(t, e.FeeRate(), e.descendantScore())
	require.Equal(t, e.FeeRate(), e.ancestorScore())
}

func TestFeeRatePerKB(t *testing.T) {
	require.Equal(t, int64(1000), feeRatePerKB(1000, 1000))
	require.Equal(t, int64(0), feeRatePerKB(1000, 0))
	require.Equal(t, int64(500), feeRatePerKB(500, 1000))
}
