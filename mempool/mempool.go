// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"math/rand"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// TxPool is the pool itself: C2's multi-index set, C3's link graph, and the
// bookkeeping every other file in this package mutates under mp.mu. There
// is exactly one lock; no sub-component takes its own.
type TxPool struct {
	mu sync.RWMutex

	cfg Config

	set    *txSet
	links  *linkGraph
	notify *notifier

	rejects *RejectFilter
	deltas  map[chainhash.Hash]btcutil.Amount

	seqCounter uint64
	txsUpdated uint64

	rollingMinFeeRate        int64
	lastRollingFeeUpdate     int64
	blockSinceRollingFeeBump bool
}

// NewTxPool builds an empty pool wired to cfg. Any collaborator left nil in
// cfg is replaced by a no-op implementation.
func NewTxPool(cfg Config) *TxPool {
	cfg.fillDefaults()

	mp := &TxPool{
		cfg:     cfg,
		set:     newTxSet(cfg.Policy.AncestorScoreKeyFunc),
		links:   newLinkGraph(),
		notify:  newNotifier(),
		rejects: cfg.RejectFilter,
		deltas:  make(map[chainhash.Hash]btcutil.Amount),
	}
	return mp
}

// Subscribe registers callback to receive entryAdded/entryRemoved signals,
// dispatched outside the pool's lock per §5.
func (mp *TxPool) Subscribe(callback NotificationCallback) {
	mp.notify.Subscribe(callback)
}

// Count returns the number of transactions currently in the pool.
func (mp *TxPool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.set.Len()
}

// HaveTransaction reports whether hash is currently in the pool.
func (mp *TxPool) HaveTransaction(hash chainhash.Hash) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.set.Has(hash)
}

// FetchEntry returns the entry for hash, or nil if it is not in the pool.
// The returned pointer must not be mutated by the caller; every field it
// exposes is owned by this package.
func (mp *TxPool) FetchEntry(hash chainhash.Hash) *TxEntry {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.set.Get(hash)
}

// HasNoInputsOf reports whether none of tx's inputs spend an output of any
// transaction currently in the pool. It is a standalone query for external
// callers; the acceptance pipeline finds conflicts through the spent-output
// index instead.
func (mp *TxPool) HasNoInputsOf(tx *btcutil.Tx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	for _, in := range tx.MsgTx().TxIn {
		if mp.set.Has(in.PreviousOutPoint.Hash) {
			return false
		}
	}
	return true
}

// GetTransactionsUpdated returns the monotonically increasing counter
// bumped on every structural mutation (insertion or removal), letting a
// caller poll for "did anything change" without subscribing to signals.
func (mp *TxPool) GetTransactionsUpdated() uint64 {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.txsUpdated
}

// AddTransactionsUpdated bumps the counter GetTransactionsUpdated reports
// by n, for callers that drive mutations outside AcceptToMemoryPool (e.g.
// a block connect notification with nothing the pool itself tracked).
func (mp *TxPool) AddTransactionsUpdated(n uint64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.txsUpdated += n
}

// QueryHashes returns every txid currently in the pool, in no particular
// order, for bulk introspection.
func (mp *TxPool) QueryHashes() []chainhash.Hash {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	out := make([]chainhash.Hash, 0, mp.set.Len())
	for h := range mp.set.byHash {
		out = append(out, h)
	}
	return out
}

// EntryInfo is the read-only snapshot InfoAll reports per entry: enough for
// a CLI or RPC-style caller to print the pool's contents without handing
// out the live *TxEntry pointers mutated under the lock.
type EntryInfo struct {
	Hash        chainhash.Hash
	VSize       int64
	Fee         btcutil.Amount
	ModifiedFee btcutil.Amount
	Time        int64
	Height      int32
	DescCount   int64
	DescSize    int64
	AncCount    int64
	AncSize     int64
}

// InfoAll returns a snapshot of every entry in the pool, used by
// cmd/mempoolctl to print pool contents.
func (mp *TxPool) InfoAll() []EntryInfo {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	out := make([]EntryInfo, 0, mp.set.Len())
	for _, e := range mp.set.all() {
		out = append(out, EntryInfo{
			Hash:        e.Hash,
			VSize:       e.VSize,
			Fee:         e.Fee,
			ModifiedFee: e.ModifiedFee(),
			Time:        e.Time,
			Height:      e.Height,
			DescCount:   e.DescCount,
			DescSize:    e.DescSize,
			AncCount:    e.AncCount,
			AncSize:     e.AncSize,
		})
	}
	return out
}

// DynamicMemoryUsage reports the pool's estimated heap footprint, the
// quantity TrimToSize bounds.
func (mp *TxPool) DynamicMemoryUsage() int64 {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.dynamicMemoryUsageLocked()
}

func (mp *TxPool) dynamicMemoryUsageLocked() int64 {
	return mp.set.cachedInnerSize
}

// NotifyBlockConnected informs the pool that a block has arrived. From then
// on GetMinFee lets the rolling floor decay, until the next rolling-fee bump
// pauses the decay again (§4.8).
func (mp *TxPool) NotifyBlockConnected() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.noteBlockConnected()
}

// Check runs the §7/§8 sampled invariant audit if cfg.Policy.CheckFrequency
// fires this call, out of 2^32, exactly like Bitcoin Core's
// insecure_rand-gated Check(). A failed invariant is fatal: it logs at
// Critical and panics, mirroring how the wider codebase escalates a broken
// internal invariant rather than limping on with corrupted state.
func (mp *TxPool) Check() {
	if mp.cfg.Policy.CheckFrequency == 0 {
		return
	}
	if rand.Uint32() >= mp.cfg.Policy.CheckFrequency {
		return
	}

	mp.mu.RLock()
	defer mp.mu.RUnlock()
	mp.checkLocked()
}

func (mp *TxPool) checkLocked() {
	for hash, e := range mp.set.byHash {
		if e.Hash != hash {
			mp.fatal("entry keyed under wrong hash")
		}

		for _, p := range mp.links.parentsOf(hash) {
			found := false
			for _, c := range mp.links.childrenOf(p.Hash) {
				if c.Hash == hash {
					found = true
					break
				}
			}
			if !found {
				mp.fatal("parent/child link asymmetry")
			}
		}

		descendants := calculateDescendants(e, mp.links, nil)
		if descendants.len() != int(e.DescCount) {
			mp.fatal("descCount does not match the actual descendant closure size")
		}
	}

	var totalSize int64
	for _, e := range mp.set.byHash {
		totalSize += e.VSize
	}
	if totalSize != mp.set.totalTxSize {
		mp.fatal("totalTxSize does not match the sum of entry sizes")
	}
}

func (mp *TxPool) fatal(msg string) {
	log.Criticalf("mempool invariant violated: %s", msg)
	log.Debugf("%v", newLogClosure(func() string {
		return spew.Sdump(mp.set.byHash)
	}))
	panic(errInvariantViolated)
}
