// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// removeForReorg implements §4.7's removeForReorg: when the chain tip
// retreats, every entry's cached LockPoints and timelocks are revalidated
// against the new tip; an entry that no longer passes is removed together
// with its descendants, reason REORG.
func (mp *TxPool) removeForReorg() {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()

	height := mp.cfg.ChainTip.BestHeight()
	mtp := mp.cfg.ChainTip.MedianTimePast()

	stale := newEntrySet()
	for _, e := range mp.set.all() {
		if !mp.cfg.SeqLocks.CheckSequenceLocks(e.LockPoints, mp.cfg.ChainTip) {
			stale.add(e)
			continue
		}
		if !CheckFinalTx(e.Tx.MsgTx(), height+1, mtp) {
			stale.add(e)
		}
	}
	if stale.len() == 0 {
		return
	}

	closure := newEntrySet()
	for _, e := range stale.order {
		calculateDescendants(e, mp.links, closure)
	}
	mp.removeStaged(closure, RemoveReorg, false)
}

// reinsertFromDisconnectedBlock inserts tx directly, bypassing the fee and
// RBF gates of §4.5: these transactions were already valid mempool
// citizens before the block that confirmed them was disconnected, so only
// structural bookkeeping (C2/C3/C4) needs to run. Direct parents already
// back in the pool link normally; any other input is looked up in the UTXO
// view. A transaction with an input found in neither is not reinserted and
// false is returned. Children already in the pool are linked afterwards by
// UpdateTransactionsFromBlock.
func (mp *TxPool) reinsertFromDisconnectedBlock(tx *btcutil.Tx, height int32, acceptTime int64) (*TxEntry, bool) {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()

	hash := *tx.Hash()
	if mp.set.Has(hash) {
		return nil, false
	}

	msgTx := tx.MsgTx()
	vsize := int64(msgTx.SerializeSize())

	var totalIn, totalOut btcutil.Amount
	directParents := make([]*TxEntry, 0, len(msgTx.TxIn))
	seenParent := make(map[chainhash.Hash]bool)
	missingInput := false
	for _, in := range msgTx.TxIn {
		op := in.PreviousOutPoint
		if p := mp.set.Get(op.Hash); p != nil {
			if int(op.Index) < len(p.Tx.MsgTx().TxOut) {
				totalIn += btcutil.Amount(p.Tx.MsgTx().TxOut[op.Index].Value)
			}
			if !seenParent[p.Hash] {
				seenParent[p.Hash] = true
				directParents = append(directParents, p)
			}
			continue
		}
		utxo, err := mp.cfg.Coins.FetchUtxoEntry(op)
		if err != nil || utxo == nil {
			missingInput = true
			continue
		}
		totalIn += utxo.Amount
	}
	if missingInput {
		return nil, false
	}
	for _, out := range msgTx.TxOut {
		totalOut += btcutil.Amount(out.Value)
	}
	fee := totalIn - totalOut
	if fee < 0 {
		fee = 0
	}

	delta := mp.bankedDelta(hash)
	candidate := newTxEntry(tx, vsize, fee, delta, acceptTime, height, 0, LockPoints{}, mp.nextSeq())

	ancestors, err := calculateAncestors(candidate, directParents, mp.links, AncestorLimits{
		MaxAncestorCount:   mp.cfg.Policy.MaxAncestorCount,
		MaxAncestorSize:    mp.cfg.Policy.MaxAncestorSize,
		MaxDescendantCount: mp.cfg.Policy.MaxDescendantCount,
		MaxDescendantSize:  mp.cfg.Policy.MaxDescendantSize,
	})
	if err != nil {
		// A previously accepted transaction may now exceed the
		// configured limits if policy tightened across the reorg
		// window; reinsert it anyway, since rejecting a transaction the
		// chain once confirmed would lose it outright. Its ancestor set is
		// then taken from the link graph with no limits applied.
		ancestors = nil
	}

	mp.links.addEntry(candidate, mp.set.Get)
	if ancestors == nil {
		ancestors = ancestorClosure(candidate, mp.links)
	}
	mp.set.insert(candidate)
	updateAncestorsOf(true, candidate, ancestors, mp.set)
	updateEntryForAncestors(candidate, ancestors, mp.set)
	mp.txsUpdated++
	mp.rejects.Forget(hash)
	mp.notify.queue(&Notification{Type: NTEntryAdded, Entry: candidate})

	return candidate, true
}

// UpdateMempoolForReorg implements §4.7's UpdateMempoolForReorg: replay
// every transaction from the disconnected blocks back into the pool (in
// the order supplied, oldest-disconnected first) and, on success, run the
// reconciliation pass over the hashes that made it back in, newest first.
// addToMempool gates whether reinsertion is attempted at all; when false,
// only removeForReorg's staleness sweep runs.
func (mp *TxPool) UpdateMempoolForReorg(disconnectedTxs []*btcutil.Tx, addToMempool bool) []chainhash.Hash {
	mp.removeForReorg()

	if !addToMempool {
		return nil
	}

	now := mp.cfg.Now()
	height := mp.cfg.ChainTip.BestHeight()

	var reinserted []chainhash.Hash
	for _, tx := range disconnectedTxs {
		if _, ok := mp.reinsertFromDisconnectedBlock(tx, height, now); ok {
			reinserted = append(reinserted, *tx.Hash())
		}
	}

	for i, j := 0, len(reinserted)-1; i < j; i, j = i+1, j-1 {
		reinserted[i], reinserted[j] = reinserted[j], reinserted[i]
	}

	mp.UpdateTransactionsFromBlock(reinserted)
	return reinserted
}

// UpdateTransactionsFromBlock implements §4.7's reconciliation pass.
// vHashes must already be in reverse topological order (latest first); the
// caller (UpdateMempoolForReorg) arranges this. For each h, any entry
// already in the pool whose input spends one of h's outputs is a missed
// child the original acceptance of h never saw (because h wasn't in the
// pool yet); this links them and propagates h's ancestor contribution
// through h's descendant closure excluding any other member of vHashes,
// which will perform the identical update on its own turn.
func (mp *TxPool) UpdateTransactionsFromBlock(vHashes []chainhash.Hash) {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()

	inBatch := make(map[chainhash.Hash]bool, len(vHashes))
	for _, h := range vHashes {
		inBatch[h] = true
	}

	cache := make(map[chainhash.Hash]*entrySet)

	for _, h := range vHashes {
		parent := mp.set.Get(h)
		if parent == nil {
			continue
		}

		for _, child := range mp.set.all() {
			if child.Hash == parent.Hash {
				continue
			}
			for _, in := range child.Tx.MsgTx().TxIn {
				if in.PreviousOutPoint.Hash != parent.Hash {
					continue
				}
				already := false
				for _, p := range mp.links.parentsOf(child.Hash) {
					if p.Hash == parent.Hash {
						already = true
						break
					}
				}
				if !already {
					mp.links.linkChild(parent, child)
					mp.links.linkParent(child, parent)
				}
				break
			}
		}

		descendants, ok := cache[parent.Hash]
		if !ok {
			descendants = newEntrySet()
			calculateDescendants(parent, mp.links, descendants)
			cache[parent.Hash] = descendants
		}

		excluded := newEntrySet()
		for _, d := range descendants.order {
			if inBatch[d.Hash] && d.Hash != parent.Hash {
				excluded.add(d)
			}
		}
		if excluded.len() == 0 {
			updateDescendantsForAncestor(true, parent, descendants, mp.set)
			continue
		}
		filtered := newEntrySet()
		for _, d := range descendants.order {
			if !excluded.has(d.Hash) {
				filtered.add(d)
			}
		}
		updateDescendantsForAncestor(true, parent, filtered, mp.set)
	}
}
