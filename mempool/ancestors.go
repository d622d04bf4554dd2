// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AncestorLimits bounds the transitive closure calculateAncestors is
// willing to walk and accept. All four must hold simultaneously for every
// ancestor visited, with the candidate counted as already added to each
// ancestor's descendant totals.
type AncestorLimits struct {
	MaxAncestorCount   int64
	MaxAncestorSize    int64
	MaxDescendantCount int64
	MaxDescendantSize  int64
}

// entrySet is an ordered (by txid) collection of entries, used wherever
// the spec calls for "a set" that must later be iterated deterministically
// (removal batches, ancestor/descendant closures).
type entrySet struct {
	byHash map[chainhash.Hash]*TxEntry
	order  []*TxEntry
}

func newEntrySet() *entrySet {
	return &entrySet{byHash: make(map[chainhash.Hash]*TxEntry)}
}

func (s *entrySet) has(hash chainhash.Hash) bool {
	_, ok := s.byHash[hash]
	return ok
}

func (s *entrySet) add(e *TxEntry) bool {
	if s.has(e.Hash) {
		return false
	}
	s.byHash[e.Hash] = e
	s.order = sortedInsert(s.order, e)
	return true
}

func (s *entrySet) len() int {
	return len(s.order)
}

// calculateAncestors computes the transitive ancestor closure of a
// candidate entry (not yet in the pool) whose direct parents are
// directParents. It fails fast with RejectLimitsExceeded the moment any
// bound would be broken, per §4.3's "earliest rejection" requirement.
//
// The returned set includes the candidate itself, matching the
// "aggregates include self" convention used throughout this package.
func calculateAncestors(candidate *TxEntry, directParents []*TxEntry, links *linkGraph, limits AncestorLimits) (*entrySet, error) {
	ancestors := newEntrySet()
	ancestors.add(candidate)

	queue := append([]*TxEntry(nil), directParents...)
	sortQueueByHash(queue)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if !ancestors.add(p) {
			continue
		}

		if int64(ancestors.len()) > limits.MaxAncestorCount {
			return nil, newRejectErr(candidate.Hash.String(), RejectLimitsExceeded,
				"too many unconfirmed ancestors", nil)
		}
		var ancSize int64
		for _, a := range ancestors.order {
			if a.Hash != candidate.Hash {
				ancSize += a.VSize
			}
		}
		if ancSize > limits.MaxAncestorSize {
			return nil, newRejectErr(candidate.Hash.String(), RejectLimitsExceeded,
				"unconfirmed ancestor size too large", nil)
		}
		if p.DescCount+1 > limits.MaxDescendantCount {
			return nil, newRejectErr(candidate.Hash.String(), RejectLimitsExceeded,
				"would exceed descendant count limit of an ancestor", nil)
		}
		if p.DescSize+candidate.VSize > limits.MaxDescendantSize {
			return nil, newRejectErr(candidate.Hash.String(), RejectLimitsExceeded,
				"would exceed descendant size limit of an ancestor", nil)
		}

		for _, gp := range links.parentsOf(p.Hash) {
			if !ancestors.has(gp.Hash) {
				queue = append(queue, gp)
			}
		}
		sortQueueByHash(queue)
	}

	return ancestors, nil
}

// calculateAncestorsOf is calculateAncestors for an entry already present
// in the pool, walking links instead of a caller-supplied parent list.
func calculateAncestorsOf(e *TxEntry, links *linkGraph, limits AncestorLimits) (*entrySet, error) {
	return calculateAncestors(e, links.parentsOf(e.Hash), links, limits)
}

// calculateDescendants computes the transitive descendant closure of
// entry (including entry) by forward BFS over children. It never fails:
// no policy limit bounds descendant computation, only acceptance of new
// ancestors does.
//
// seed, if non-nil, is extended in place and also returned, letting
// callers accumulate a closure across several starting points (as the
// reorg handler's memoised cache does).
func calculateDescendants(entry *TxEntry, links *linkGraph, seed *entrySet) *entrySet {
	set := seed
	if set == nil {
		set = newEntrySet()
	}
	if !set.add(entry) {
		return set
	}

	queue := []*TxEntry{entry}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range links.childrenOf(cur.Hash) {
			if set.add(c) {
				queue = append(queue, c)
			}
		}
	}
	return set
}

func sortQueueByHash(q []*TxEntry) {
	// Small queues dominate in practice; insertion sort keeps this
	// branch-predictor-friendly and avoids importing sort for what is
	// usually fewer than MaxAncestorCount (25 by default) elements.
	for i := 1; i < len(q); i++ {
		for j := i; j > 0 && hashLess(q[j].Hash, q[j-1].Hash); j-- {
			q[j], q[j-1] = q[j-1], q[j]
		}
	}
}
