// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// TrimToSize implements §4.8: while the pool's dynamic memory usage
// exceeds limit, evict the I1-minimum entry's descendant closure, raising
// the rolling floor fee to match. It acquires the pool's lock; callers
// already holding it (the acceptance pipeline's post-commit trim) use
// trimToSizeLocked instead.
func (mp *TxPool) TrimToSize(limit int64) []wire.OutPoint {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()
	return mp.trimToSizeLocked(limit)
}

func (mp *TxPool) trimToSizeLocked(limit int64) []wire.OutPoint {
	var freedOutpoints []wire.OutPoint

	for mp.dynamicMemoryUsageLocked() > limit {
		ascending := mp.set.byDescScore.ascending()
		if len(ascending) == 0 {
			break
		}
		worst := ascending[0]

		closure := calculateDescendants(worst, mp.links, nil)

		closureFeeRate := closureCombinedFeeRate(closure)
		mp.bumpRollingMinFee(closureFeeRate + feeRatePerKB(mp.cfg.Policy.IncrementalRelayFee, 1000))

		mp.removeStaged(closure, RemoveSizeLimit, false)

		for _, e := range closure.order {
			for _, in := range e.Tx.MsgTx().TxIn {
				if _, stillSpent := mp.links.spentBy[in.PreviousOutPoint]; !stillSpent {
					freedOutpoints = append(freedOutpoints, in.PreviousOutPoint)
				}
			}
		}
	}

	return freedOutpoints
}

func closureCombinedFeeRate(closure *entrySet) int64 {
	var size int64
	var fee btcutil.Amount
	for _, e := range closure.order {
		size += e.VSize
		fee += e.ModifiedFee()
	}
	return feeRatePerKB(fee, size)
}

// bumpRollingMinFee raises the rolling floor to at least feeRate and
// resets the decay clock, matching TrimToSize's contract in §4.8/§8
// property 4.
func (mp *TxPool) bumpRollingMinFee(feeRate int64) {
	if feeRate > mp.rollingMinFeeRate {
		mp.rollingMinFeeRate = feeRate
	}
	mp.lastRollingFeeUpdate = mp.cfg.Now()
	mp.blockSinceRollingFeeBump = false
}

// GetMinFee implements §4.8: the current rolling floor, decayed
// exponentially with half-life Policy.RollingFeeHalfLife, but only across
// elapsed time during which a block has arrived since the last bump
// (decay is paused otherwise). Returns a feerate in amount per 1000
// vbytes. Acquires the pool's lock; the acceptance pipeline, which
// already holds it, calls getMinFeeLocked directly.
func (mp *TxPool) GetMinFee() int64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.getMinFeeLocked()
}

func (mp *TxPool) getMinFeeLocked() int64 {
	if mp.rollingMinFeeRate == 0 {
		return 0
	}

	if !mp.blockSinceRollingFeeBump {
		return mp.rollingMinFeeRate
	}

	halfLifeSeconds := mp.cfg.Policy.RollingFeeHalfLife.Seconds()
	if halfLifeSeconds <= 0 {
		return mp.rollingMinFeeRate
	}

	elapsed := float64(mp.cfg.Now() - mp.lastRollingFeeUpdate)
	decayed := float64(mp.rollingMinFeeRate) * math.Pow(0.5, elapsed/halfLifeSeconds)

	incremental := feeRatePerKB(mp.cfg.Policy.IncrementalRelayFee, 1000)
	if decayed < float64(incremental)/2 {
		mp.rollingMinFeeRate = 0
		return 0
	}

	mp.rollingMinFeeRate = int64(decayed)
	mp.lastRollingFeeUpdate = mp.cfg.Now()
	return mp.rollingMinFeeRate
}

// noteBlockConnected marks that a block has arrived since the last
// rolling-fee bump, which gates GetMinFee's decay.
func (mp *TxPool) noteBlockConnected() {
	mp.blockSinceRollingFeeBump = true
}

// Expire implements §4.8: remove every entry with Time < t, together with
// its descendants, and return the count of removed transactions.
func (mp *TxPool) Expire(t int64) int {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()

	toExpire := newEntrySet()
	for _, e := range mp.set.all() {
		if e.Time < t {
			toExpire.add(e)
		}
	}
	if toExpire.len() == 0 {
		return 0
	}

	closure := newEntrySet()
	for _, e := range toExpire.order {
		calculateDescendants(e, mp.links, closure)
	}

	mp.removeStaged(closure, RemoveExpiry, false)
	return closure.len()
}
