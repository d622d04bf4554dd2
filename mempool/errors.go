// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
)

// RemoveReason identifies why an entry left the pool. It is attached to
// every entryRemoved signal so subscribers can distinguish a confirmation
// from an eviction.
type RemoveReason int

const (
	// RemoveUnknown is used when no more specific reason applies.
	RemoveUnknown RemoveReason = iota

	// RemoveExpiry indicates the entry aged out via Expire.
	RemoveExpiry

	// RemoveSizeLimit indicates the entry was evicted by TrimToSize.
	RemoveSizeLimit

	// RemoveReorg indicates the entry was dropped during reorg
	// reconciliation because its lock points no longer validate.
	RemoveReorg

	// RemoveBlock indicates the entry confirmed in a connected block.
	RemoveBlock

	// RemoveConflict indicates the entry conflicted with a transaction
	// that confirmed in a connected block.
	RemoveConflict

	// RemoveReplaced indicates the entry was replaced under BIP 125.
	RemoveReplaced
)

// String implements fmt.Stringer.
func (r RemoveReason) String() string {
	switch r {
	case RemoveExpiry:
		return "expiry"
	case RemoveSizeLimit:
		return "size-limit"
	case RemoveReorg:
		return "reorg"
	case RemoveBlock:
		return "block"
	case RemoveConflict:
		return "conflict"
	case RemoveReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// RejectReason enumerates the distinct ways acceptToPool can refuse a
// transaction. Each gate in the acceptance pipeline surfaces exactly one
// of these.
type RejectReason int

const (
	RejectUnknown RejectReason = iota
	RejectInvalid
	RejectNonStandard
	RejectDust
	RejectNonFinal
	RejectAlreadyInPool
	RejectAlreadyConfirmed
	RejectMissingInputs
	RejectConflict
	RejectReplacementInvalid
	RejectInsufficientFee
	RejectAbsurdFee
	RejectLimitsExceeded
	RejectScriptFailure
	RejectRecentlyRejected
)

// String implements fmt.Stringer.
func (r RejectReason) String() string {
	switch r {
	case RejectInvalid:
		return "invalid"
	case RejectNonStandard:
		return "non-standard"
	case RejectDust:
		return "dust"
	case RejectNonFinal:
		return "non-final"
	case RejectAlreadyInPool:
		return "already-in-pool"
	case RejectAlreadyConfirmed:
		return "already-confirmed"
	case RejectMissingInputs:
		return "missing-inputs"
	case RejectConflict:
		return "conflict"
	case RejectReplacementInvalid:
		return "replacement-invalid"
	case RejectInsufficientFee:
		return "insufficient-fee"
	case RejectAbsurdFee:
		return "absurd-fee"
	case RejectLimitsExceeded:
		return "limits-exceeded"
	case RejectScriptFailure:
		return "script-failure"
	case RejectRecentlyRejected:
		return "recently-rejected"
	default:
		return "unknown"
	}
}

// RejectError is returned by AcceptToMemoryPool and calculateAncestors on
// rejection. It carries a machine-checkable Reason alongside a
// human-readable detail so that callers can branch on the former and log
// the latter.
type RejectError struct {
	Reason RejectReason
	TxHash string
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.TxHash, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.TxHash, e.Reason, e.Detail)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *RejectError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *RejectError with the same Reason,
// allowing callers to write errors.Is(err, &RejectError{Reason: ...}).
func (e *RejectError) Is(target error) bool {
	var other *RejectError
	if !errors.As(target, &other) {
		return false
	}
	return e.Reason == other.Reason
}

func newRejectErr(hash string, reason RejectReason, detail string, cause error) *RejectError {
	return &RejectError{Reason: reason, TxHash: hash, Detail: detail, Err: cause}
}

// Sentinel errors for conditions callers only need to detect, not branch
// on the kind of.
var (
	// ErrDumpVersionMismatch indicates the on-disk dump carries an
	// unrecognised MEMPOOL_DUMP_VERSION.
	ErrDumpVersionMismatch = errors.New("mempool: unsupported dump version")

	// ErrReorgWindowOpen indicates calculateAncestors/calculateDescendants
	// was invoked while the pool has an unreconciled reorg batch pending,
	// which is undefined per the reorg handler's contract.
	ErrReorgWindowOpen = errors.New("mempool: ancestor/descendant queries undefined during reorg reconciliation")

	// errInvariantViolated is used internally by Check to panic with a
	// consistent message; it is never returned to a caller.
	errInvariantViolated = errors.New("mempool: invariant violated")
)
