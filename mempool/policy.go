// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Policy violation errors surfaced by gate 4 (conflicts/RBF). Named and
// typed the way the teacher's policy_enforcer.go does, so callers can
// errors.Is against the specific BIP 125 rule that failed rather than
// parsing a message.
var (
	ErrTooManyEvictions        = errors.New("replacement evicts too many transactions")
	ErrReplacementSpendsParent = errors.New("replacement spends an output of a transaction it replaces")
	ErrInsufficientFeeRate     = errors.New("replacement does not pay a strictly higher feerate than every conflict")
	ErrInsufficientAbsoluteFee = errors.New("replacement fee does not cover the required incremental relay fee")
	ErrNewUnconfirmedInput     = errors.New("replacement spends an unconfirmed input none of the original conflicts spent")
	ErrNotReplaceable          = errors.New("conflicting transaction does not opt in to replacement")
)

const maxMoney = 21000000 * 1e8

// calcMinRequiredTxRelayFee scales minRelayTxFee by size/1000, rounding
// down (a zero result becomes minRelayTxFee itself), exactly as the
// teacher's policy.go does.
func calcMinRequiredTxRelayFee(serializedSize int64, minRelayTxFee btcutil.Amount) btcutil.Amount {
	fee := int64(minRelayTxFee) * serializedSize / 1000
	if fee == 0 && minRelayTxFee > 0 {
		fee = int64(minRelayTxFee)
	}
	if fee < 0 || fee > maxMoney {
		fee = maxMoney
	}
	return btcutil.Amount(fee)
}

// GetDustThreshold is the minimum output value, given minRelayTxFee,
// below which an output is considered uneconomical to spend and thus
// "dust".
func GetDustThreshold(txOut *wire.TxOut, minRelayTxFee btcutil.Amount) btcutil.Amount {
	totalSize := int64(len(txOut.PkScript)) + 8 + 41
	return 3 * calcMinRequiredTxRelayFee(totalSize, minRelayTxFee)
}

// IsDust reports whether txOut's value is below the dust threshold for
// minRelayTxFee.
func IsDust(txOut *wire.TxOut, minRelayTxFee btcutil.Amount) bool {
	if len(txOut.PkScript) > 0 && txOut.PkScript[0] == 0x6a { // OP_RETURN
		return false
	}
	threshold := GetDustThreshold(txOut, minRelayTxFee)
	return btcutil.Amount(txOut.Value) < threshold
}

// CheckTransactionSanity implements the structural half of gate 1: not a
// coinbase, has at least one input and output, no output exceeds the
// money supply, and the serialized size is within bounds. Script-level
// standardness (pubkey templates, push sizes) is intentionally thin here
// since the script engine itself is an external collaborator (§1); this
// only covers what the mempool core must gate before it will even look
// at ancestry.
func CheckTransactionSanity(tx *btcutil.Tx, maxTxWeight int64) error {
	msgTx := tx.MsgTx()

	if len(msgTx.TxIn) == 0 {
		return errors.New("transaction has no inputs")
	}
	if len(msgTx.TxOut) == 0 {
		return errors.New("transaction has no outputs")
	}
	if isCoinBase(msgTx) {
		return errors.New("transaction is an individually submitted coinbase")
	}

	var total int64
	for _, out := range msgTx.TxOut {
		if out.Value < 0 || out.Value > maxMoney {
			return errors.New("transaction output value out of range")
		}
		total += out.Value
		if total > maxMoney {
			return errors.New("total transaction output value out of range")
		}
	}

	seen := make(map[wire.OutPoint]bool, len(msgTx.TxIn))
	for _, in := range msgTx.TxIn {
		if seen[in.PreviousOutPoint] {
			return errors.New("transaction contains duplicate inputs")
		}
		seen[in.PreviousOutPoint] = true
	}

	if int64(msgTx.SerializeSize())*4 > maxTxWeight {
		return errors.New("transaction exceeds the maximum standard weight")
	}

	return nil
}

func isCoinBase(msgTx *wire.MsgTx) bool {
	return len(msgTx.TxIn) == 1 &&
		msgTx.TxIn[0].PreviousOutPoint.Index == math.MaxUint32 &&
		msgTx.TxIn[0].PreviousOutPoint.Hash == zeroHash
}

var zeroHash = [32]byte{}

// CheckFinalTx reports whether tx's lock-time and per-input sequence
// numbers are final as of height/medianTimePast, matching the standard
// nLockTime semantics: a transaction with every sequence at the maximum
// is always final regardless of LockTime's value.
func CheckFinalTx(msgTx *wire.MsgTx, height int32, medianTimePast int64) bool {
	if msgTx.LockTime == 0 {
		return true
	}

	blockTimeOrHeight := int64(height)
	if msgTx.LockTime >= lockTimeThreshold {
		blockTimeOrHeight = medianTimePast
	}
	if int64(msgTx.LockTime) < blockTimeOrHeight {
		return true
	}

	for _, in := range msgTx.TxIn {
		if in.Sequence != math.MaxUint32 {
			return false
		}
	}
	return true
}

const lockTimeThreshold = 500000000

// signalsReplacement reports whether tx opts in to BIP 125 replacement,
// directly (some input's sequence signals it) or by inheriting from a
// conflicting ancestor that does. Ported from the teacher's
// SignalsReplacement/signalsReplacementRecursive.
func signalsReplacement(e *TxEntry, links *linkGraph, maxRBFSequence uint32, visited map[[32]byte]bool) bool {
	if visited == nil {
		visited = make(map[[32]byte]bool)
	}
	if visited[e.Hash] {
		return false
	}
	visited[e.Hash] = true

	for _, in := range e.Tx.MsgTx().TxIn {
		if in.Sequence < maxRBFSequence {
			return true
		}
	}
	for _, p := range links.parentsOf(e.Hash) {
		if signalsReplacement(p, links, maxRBFSequence, visited) {
			return true
		}
	}
	return false
}

// ValidateReplacement implements §4.5 gate 4's five BIP 125 rules. conflicts
// is the direct set of in-pool entries whose outpoints replacement spends;
// evicted is the full closure (conflicts plus descendants) this function
// computes and returns on success.
func ValidateReplacement(
	replacement *TxEntry,
	conflicts *entrySet,
	links *linkGraph,
	policy Policy,
) (*entrySet, error) {

	for _, c := range conflicts.order {
		if !signalsReplacement(c, links, policy.MaxRBFSequence, nil) {
			return nil, ErrNotReplaceable
		}
	}

	evicted := newEntrySet()
	for _, c := range conflicts.order {
		calculateDescendants(c, links, evicted)
	}
	if len(evicted.order) > policy.MaxReplacementEvictions {
		return nil, ErrTooManyEvictions
	}

	replacementInputs := make(map[wire.OutPoint]bool, len(replacement.Tx.MsgTx().TxIn))
	for _, in := range replacement.Tx.MsgTx().TxIn {
		replacementInputs[in.PreviousOutPoint] = true
	}
	// The replacement must not spend any output of a transaction it is
	// itself about to evict.
	for _, ev := range evicted.order {
		if ev.Hash == replacement.Hash {
			continue
		}
		for op := range replacementInputs {
			if op.Hash == ev.Hash {
				return nil, ErrReplacementSpendsParent
			}
		}
	}

	replacementFeeRate := replacement.FeeRate()
	for _, c := range conflicts.order {
		if c.FeeRate() >= replacementFeeRate {
			return nil, ErrInsufficientFeeRate
		}
	}
	var replacedFees btcutil.Amount
	for _, ev := range evicted.order {
		replacedFees += ev.ModifiedFee()
	}

	requiredExtra := calcMinRequiredTxRelayFee(replacement.VSize, policy.IncrementalRelayFee)
	if replacement.ModifiedFee() < replacedFees+requiredExtra {
		return nil, ErrInsufficientAbsoluteFee
	}

	// Rule: the replacement must not introduce an unconfirmed input the
	// original conflicts did not already depend on (prevents cheaply
	// pinning new unconfirmed ancestors via a replacement).
	originalParents := make(map[[32]byte]bool)
	for _, c := range conflicts.order {
		for _, p := range links.parentsOf(c.Hash) {
			originalParents[p.Hash] = true
		}
	}
	for _, in := range replacement.Tx.MsgTx().TxIn {
		parentHash := in.PreviousOutPoint.Hash
		if _, inPool := links.links[parentHash]; inPool && !originalParents[parentHash] {
			return nil, ErrNewUnconfirmedInput
		}
	}

	return evicted, nil
}
