// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AcceptOptions configures a single call to AcceptToMemoryPool, matching
// §4.5's acceptToPool(tx, opts).
type AcceptOptions struct {
	// LimitFree waives the minimum-relay-fee gate for free (fee-less or
	// near-free) transactions. No rate limit is applied to transactions
	// admitted this way.
	LimitFree bool

	// OverrideMempoolLimit skips TrimToSize after a successful accept,
	// used by callers reinserting blocks' worth of transactions during
	// reorg where trimming mid-batch would be premature.
	OverrideMempoolLimit bool

	// AbsurdFeeCap, if non-zero, rejects a transaction paying more than
	// this absolute fee, guarding against a fee-field typo.
	AbsurdFeeCap btcutil.Amount

	// AcceptTime overrides the acceptance timestamp; zero means "now".
	AcceptTime int64

	// ForceRecheck bypasses the gate-0 reject-filter short-circuit.
	ForceRecheck bool
}

// AcceptResult is returned by a successful AcceptToMemoryPool call.
type AcceptResult struct {
	Entry    *TxEntry
	Replaced []*TxEntry
}

// AcceptToMemoryPool runs tx through the ordered gates of §4.5 and, on
// success, commits it to the pool. All of gates 0-8 execute under the
// pool's exclusive lock.
func (mp *TxPool) AcceptToMemoryPool(tx *btcutil.Tx, opts AcceptOptions) (*AcceptResult, error) {
	mp.mu.Lock()
	defer mp.notify.drain()
	defer mp.mu.Unlock()

	hash := *tx.Hash()
	msgTx := tx.MsgTx()

	// Gate 0: reject-filter short-circuit.
	if !opts.ForceRecheck {
		if reason, rejected := mp.rejects.Check(hash, mp.cfg.Now()); rejected {
			return nil, newRejectErr(hash.String(), RejectRecentlyRejected,
				"recently rejected for "+reason.String(), nil)
		}
	}

	// Gate 1: well-formedness & standardness.
	if err := CheckTransactionSanity(tx, maxStandardTxWeight); err != nil {
		return nil, mp.reject(hash, RejectInvalid, err.Error())
	}
	height := mp.cfg.ChainTip.BestHeight()
	mtp := mp.cfg.ChainTip.MedianTimePast()
	if !CheckFinalTx(msgTx, height+1, mtp) {
		return nil, mp.reject(hash, RejectNonFinal, "transaction is not finalized")
	}
	if !mp.cfg.Policy.AcceptNonStd {
		for _, out := range msgTx.TxOut {
			if IsDust(out, mp.cfg.Policy.MinRelayTxFee) {
				return nil, mp.reject(hash, RejectDust, "transaction contains a dust output")
			}
		}
		if msgTx.Version > mp.cfg.Policy.MaxTxVersion {
			return nil, mp.reject(hash, RejectNonStandard, "transaction version too high")
		}
	}

	// Gate 2: no duplicate.
	if mp.set.Has(hash) {
		return nil, mp.reject(hash, RejectAlreadyInPool, "transaction already in pool")
	}

	// Gate 3: input availability.
	var vsize int64 = int64(msgTx.SerializeSize())
	var totalIn btcutil.Amount
	directParents := make([]*TxEntry, 0, len(msgTx.TxIn))
	seenParent := make(map[chainhash.Hash]bool)
	for _, in := range msgTx.TxIn {
		op := in.PreviousOutPoint
		if p := mp.set.Get(op.Hash); p != nil {
			if int(op.Index) >= len(p.Tx.MsgTx().TxOut) {
				return nil, mp.reject(hash, RejectMissingInputs, "references a non-existent output of an in-pool transaction")
			}
			totalIn += btcutil.Amount(p.Tx.MsgTx().TxOut[op.Index].Value)
			if !seenParent[p.Hash] {
				seenParent[p.Hash] = true
				directParents = append(directParents, p)
			}
			continue
		}
		utxo, err := mp.cfg.Coins.FetchUtxoEntry(op)
		if err != nil || utxo == nil || utxo.Spent {
			return nil, mp.reject(hash, RejectMissingInputs, "input not found in the UTXO set or pool")
		}
		totalIn += utxo.Amount
	}
	var totalOut btcutil.Amount
	for _, out := range msgTx.TxOut {
		totalOut += btcutil.Amount(out.Value)
	}
	if totalIn < totalOut {
		return nil, mp.reject(hash, RejectInvalid, "total input value less than total output value")
	}
	fee := totalIn - totalOut

	// Gate 4: conflicts / RBF.
	var evicted *entrySet
	conflictMap := mp.links.conflictsFor(msgTx)
	if len(conflictMap) > 0 {
		conflicts := newEntrySet()
		for _, c := range conflictMap {
			conflicts.add(c)
		}

		delta := mp.bankedDelta(hash)
		candidate := newTxEntry(tx, vsize, fee, delta, mp.acceptTime(opts), height, 0, LockPoints{}, mp.nextSeq())

		var err error
		evicted, err = ValidateReplacement(candidate, conflicts, mp.links, mp.cfg.Policy)
		if err != nil {
			reason := RejectReplacementInvalid
			if err == ErrNotReplaceable {
				reason = RejectConflict
			}
			return nil, mp.reject(hash, reason, err.Error())
		}
	}

	// Gate 5: fee gates.
	delta := mp.bankedDelta(hash)
	modFee := fee + delta
	minRelay := calcMinRequiredTxRelayFee(vsize, mp.cfg.Policy.MinRelayTxFee)
	if !opts.LimitFree && modFee < minRelay {
		return nil, mp.reject(hash, RejectInsufficientFee, "fee below minimum relay fee")
	}
	floor := feeRateToFee(mp.getMinFeeLocked(), vsize)
	if modFee < floor {
		return nil, mp.reject(hash, RejectInsufficientFee, "fee below the rolling minimum fee")
	}
	if opts.AbsurdFeeCap > 0 && modFee > opts.AbsurdFeeCap {
		return nil, mp.reject(hash, RejectAbsurdFee, "fee exceeds the absurd fee cap")
	}
	if m := mp.cfg.Policy.AbsurdFeeMultiplier; m > 0 && minRelay > 0 && modFee > minRelay*btcutil.Amount(m) {
		return nil, mp.reject(hash, RejectAbsurdFee, "fee exceeds the policy's absurd fee multiple")
	}

	// Gate 6: ancestor limits.
	candidate := newTxEntry(tx, vsize, fee, delta, mp.acceptTime(opts), height, 0, LockPoints{}, mp.nextSeq())
	limits := AncestorLimits{
		MaxAncestorCount:   mp.cfg.Policy.MaxAncestorCount,
		MaxAncestorSize:    mp.cfg.Policy.MaxAncestorSize,
		MaxDescendantCount: mp.cfg.Policy.MaxDescendantCount,
		MaxDescendantSize:  mp.cfg.Policy.MaxDescendantSize,
	}
	ancestors, err := calculateAncestors(candidate, directParents, mp.links, limits)
	if err != nil {
		return nil, mp.reject(hash, RejectLimitsExceeded, err.Error())
	}

	// Gate 7: script verification.
	view := NewCoinsViewMemPool(mp.cfg.Coins, mp)
	if err := mp.cfg.Validator.ValidateScripts(tx, view, 0); err != nil {
		return nil, mp.reject(hash, RejectScriptFailure, err.Error())
	}

	// Gate 8: commit.
	var replacedEntries []*TxEntry
	if evicted != nil {
		replacedEntries = append(replacedEntries, evicted.order...)
		mp.removeStaged(evicted, RemoveReplaced, false)
	}

	mp.links.addEntry(candidate, mp.set.Get)
	mp.set.insert(candidate)
	updateAncestorsOf(true, candidate, ancestors, mp.set)
	updateEntryForAncestors(candidate, ancestors, mp.set)
	mp.txsUpdated++
	mp.rejects.Forget(hash)
	mp.notify.queue(&Notification{Type: NTEntryAdded, Entry: candidate})
	mp.cfg.Estimator.ObserveTransaction(candidate, true)

	if !opts.OverrideMempoolLimit {
		mp.trimToSizeLocked(mp.cfg.Policy.MaxMempoolSize)
	}

	return &AcceptResult{Entry: candidate, Replaced: replacedEntries}, nil
}

// reject records hash in the reject filter (unless the rejection is a
// caller-retriable "missing inputs", which the orphan pool — outside this
// package — is expected to handle) and returns the structured error.
func (mp *TxPool) reject(hash chainhash.Hash, reason RejectReason, detail string) error {
	if reason != RejectMissingInputs {
		mp.rejects.Add(hash, reason, mp.cfg.Now(), DefaultRejectFilterTTL)
	}
	return newRejectErr(hash.String(), reason, detail, nil)
}

func (mp *TxPool) acceptTime(opts AcceptOptions) int64 {
	if opts.AcceptTime != 0 {
		return opts.AcceptTime
	}
	return mp.cfg.Now()
}

func (mp *TxPool) nextSeq() uint64 {
	mp.seqCounter++
	return mp.seqCounter
}

// feeRateToFee is the inverse of feeRatePerKB: the fee implied by rate
// (amount per 1000 vbytes) for a transaction of vsize bytes.
func feeRateToFee(rate, vsize int64) btcutil.Amount {
	return btcutil.Amount(rate * vsize / 1000)
}

const maxStandardTxWeight = 400000
