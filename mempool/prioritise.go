// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// PrioritiseTransaction implements §4.6: accumulate delta into the side
// map, and if the transaction is currently in the pool, apply it
// immediately and re-propagate through every affected ordering.
func (mp *TxPool) PrioritiseTransaction(hash chainhash.Hash, delta btcutil.Amount) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.deltas[hash] += delta

	if e := mp.set.Get(hash); e != nil {
		applyPrioritisation(e, delta, mp.links, mp.set)
	}
}

// ClearPrioritisation removes any banked delta for hash and, if the
// transaction is in the pool, undoes its effect on the live entry.
func (mp *TxPool) ClearPrioritisation(hash chainhash.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delta, ok := mp.deltas[hash]
	if !ok {
		return
	}
	delete(mp.deltas, hash)

	if e := mp.set.Get(hash); e != nil {
		applyPrioritisation(e, -delta, mp.links, mp.set)
	}
}

// bankedDelta returns the side-map delta for hash, zero if none is
// recorded. Consulted by the acceptance pipeline so a pre-prioritised
// transaction receives its bump immediately on admission (§3).
func (mp *TxPool) bankedDelta(hash chainhash.Hash) btcutil.Amount {
	return mp.deltas[hash]
}
