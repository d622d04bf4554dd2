// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

// removeStaged implements §4.4's removal algorithm for a batch closed
// under descendants (except the block-inclusion case, where updateDescendants
// drives the one exception the spec carves out). stage must already be
// the full set to remove; callers build it via calculateDescendants.
//
// Step 1 (ancestor decrement) is computed for the *entire* batch before
// any structural change, because computing ancestor sets after any
// member has been unlinked is undefined (§4.4).
func (mp *TxPool) removeStaged(stage *entrySet, reason RemoveReason, updateDescendants bool) {
	if stage.len() == 0 {
		return
	}

	// Step 1: decrement descendant aggregates on ancestors outside the
	// batch, for every member, using the graph exactly as it stands now.
	type pending struct {
		e         *TxEntry
		ancestors *entrySet
	}
	work := make([]pending, 0, stage.len())
	for _, e := range stage.order {
		ancestors := ancestorClosureExcluding(e, mp.links, stage)
		work = append(work, pending{e: e, ancestors: ancestors})
	}
	for _, w := range work {
		updateAncestorsOf(false, w.e, w.ancestors, mp.set)
	}

	// Step 2: for block-inclusion removal, direct children outside the
	// batch lost an ancestor; recompute their ancestor aggregates from
	// the post-removal graph.
	if reason == RemoveBlock && updateDescendants {
		affected := newEntrySet()
		for _, e := range stage.order {
			for _, c := range mp.links.childrenOf(e.Hash) {
				if !stage.has(c.Hash) {
					affected.add(c)
				}
			}
		}
		for _, c := range affected.order {
			newAncestors := ancestorClosureExcluding(c, mp.links, stage)
			updateEntryForAncestors(c, newAncestors, mp.set)
		}
	}

	// Steps 3 & 4: sever links and drop from C2/C3, queuing a removal
	// signal for each member (dispatched after the lock is released).
	for _, e := range stage.order {
		mp.links.removeEntry(e)
		mp.set.remove(e)
		mp.txsUpdated++
		mp.notify.queue(&Notification{Type: NTEntryRemoved, Entry: e, Reason: reason})
		if reason != RemoveBlock && reason != RemoveReplaced {
			mp.rejects.Add(e.Hash, RejectRecentlyRejected, mp.cfg.Now(), DefaultRejectFilterTTL)
		}
	}
}

// ancestorClosureExcluding walks backward over parent edges to find every
// ancestor of start still live in the graph. Members of exclude are
// traversed *through* (an ancestor reachable only via an excluded member
// is still an ancestor of start) but are themselves left out of the
// returned set, matching Bitcoin Core's UpdateForRemoveFromMempool: the
// whole batch is walked for reachability, only the decrement set is
// pruned to members outside the batch.
func ancestorClosureExcluding(start *TxEntry, links *linkGraph, exclude *entrySet) *entrySet {
	result := newEntrySet()
	visited := newEntrySet()
	visited.add(start)
	if !exclude.has(start.Hash) {
		result.add(start)
	}
	queue := []*TxEntry{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range links.parentsOf(cur.Hash) {
			if !visited.add(p) {
				continue
			}
			if !exclude.has(p.Hash) {
				result.add(p)
			}
			queue = append(queue, p)
		}
	}
	return result
}
