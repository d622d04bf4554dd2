// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"
)

// DefaultRejectFilterSize bounds how many recently-rejected/evicted txids
// the filter remembers. Sized the same order of magnitude as the
// teacher's orphan pool default, since both exist to avoid redoing
// expensive work on the same unwelcome transaction repeatedly.
const DefaultRejectFilterSize = 5000

// DefaultRejectFilterTTL is how long a rejection stays remembered before
// a resubmission is allowed to retry acceptance from gate 1 again.
const DefaultRejectFilterTTL = 15 * time.Minute

// rejectRecord is the detail kept alongside each hash the bounded LRU
// membership set remembers.
type rejectRecord struct {
	reason  RejectReason
	expires int64
}

// RejectFilter implements A3: a bounded cache of recently-rejected or
// recently-evicted txids, consulted at gate 0 of the acceptance pipeline
// so a flood of resubmissions of the same bad transaction doesn't redo
// gates 1-7 every time. Backed by decred/dcrd/lru for bounded membership;
// this package layers reason/expiry detail on top since lru.Cache itself
// only tracks presence under an eviction policy, not arbitrary values.
type RejectFilter struct {
	mu      sync.Mutex
	present lru.Cache
	detail  map[chainhash.Hash]rejectRecord
}

// NewRejectFilter builds a filter remembering up to limit txids.
func NewRejectFilter(limit uint) *RejectFilter {
	return &RejectFilter{
		present: lru.NewCache(limit),
		detail:  make(map[chainhash.Hash]rejectRecord),
	}
}

// Add records hash as rejected for reason, expiring after ttl.
func (f *RejectFilter) Add(hash chainhash.Hash, reason RejectReason, now int64, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.present.Add(hash)
	f.detail[hash] = rejectRecord{reason: reason, expires: now + int64(ttl/time.Second)}
}

// Check reports whether hash is currently remembered as rejected and, if
// so, the reason it was rejected for. An expired or evicted entry reports
// false.
func (f *RejectFilter) Check(hash chainhash.Hash, now int64) (RejectReason, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.present.Contains(hash) {
		delete(f.detail, hash)
		return RejectUnknown, false
	}
	rec, ok := f.detail[hash]
	if !ok {
		return RejectUnknown, false
	}
	if now >= rec.expires {
		f.present.Delete(hash)
		delete(f.detail, hash)
		return RejectUnknown, false
	}
	return rec.reason, true
}

// Forget removes hash from the filter, used once a previously rejected
// transaction is finally accepted.
func (f *RejectFilter) Forget(hash chainhash.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present.Delete(hash)
	delete(f.detail, hash)
}
