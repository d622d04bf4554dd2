// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
)

// updateAncestorsOf implements §4.4's updateAncestorsOf: for every ancestor
// of e other than e itself, adjust its descendant aggregates by ±1 count,
// ±e.VSize, ±e.ModifiedFee(), then re-sort it in I1/I3 if its key moved.
//
// add controls the sign: true on insertion, false on removal. ancestors
// is the set to adjust — on removal this must already have been reduced
// to exclude members of the batch being removed together with e (§4.4
// step 1).
func updateAncestorsOf(add bool, e *TxEntry, ancestors *entrySet, set *txSet) {
	sign := int64(1)
	if !add {
		sign = -1
	}
	for _, a := range ancestors.order {
		if a.Hash == e.Hash {
			continue
		}
		oldDesc := a.descendantScore()
		oldMine := a.miningScore()

		a.DescCount += sign
		a.DescSize += sign * e.VSize
		a.DescModFee += btcutil.Amount(sign) * e.ModifiedFee()

		set.reinsertDescendantKeys(a, oldDesc, oldMine)
	}
}

// updateEntryForAncestors implements §4.4's updateEntryForAncestors: sets
// e's own ancestor aggregates to the sum over ancestors (which includes e
// by convention), then re-sorts e in I4/I5.
func updateEntryForAncestors(e *TxEntry, ancestors *entrySet, set *txSet) {
	oldAnc := e.ancestorScore()

	var count, size int64
	var fee btcutil.Amount
	for _, a := range ancestors.order {
		count++
		size += a.VSize
		fee += a.ModifiedFee()
	}
	e.AncCount, e.AncSize, e.AncModFee = count, size, fee

	set.reinsertAncestorKeys(e, oldAnc)
}

// applyPrioritisation adjusts e.FeeDelta by delta and re-propagates the
// change through every ordering e's own key or its ancestors'/descendants'
// keys depend on. Unlike insertion, this does not change DescCount/AncCount
// (the topology is unchanged), only the modified-fee components of every
// cached aggregate that includes e.
func applyPrioritisation(e *TxEntry, delta btcutil.Amount, links *linkGraph, set *txSet) {
	if delta == 0 {
		return
	}

	oldDesc, oldMine, oldAnc := e.descendantScore(), e.miningScore(), e.ancestorScore()
	e.FeeDelta += delta
	e.DescModFee += delta
	e.AncModFee += delta
	set.reinsertDescendantKeys(e, oldDesc, oldMine)
	set.reinsertAncestorKeys(e, oldAnc)

	ancestors := ancestorClosure(e, links)
	for _, a := range ancestors.order {
		if a.Hash == e.Hash {
			continue
		}
		oa, om := a.descendantScore(), a.miningScore()
		a.DescModFee += delta
		set.reinsertDescendantKeys(a, oa, om)
	}

	descendants := calculateDescendants(e, links, nil)
	for _, d := range descendants.order {
		if d.Hash == e.Hash {
			continue
		}
		oa := d.ancestorScore()
		d.AncModFee += delta
		set.reinsertAncestorKeys(d, oa)
	}
}

// updateDescendantsForAncestor is the mirror of updateAncestorsOf, used by
// the reorg handler (§4.7 step 3): a transaction h has just been
// reinserted as an ancestor of entries already in the pool. For each such
// descendant d, bump its own ancestor aggregates by h's stats (it is d,
// not h, that just gained a previously-unknown ancestor), then bump h's
// own descendant aggregates by the sum over descendants, since h's
// descendant count was unknowable until its children were discovered.
func updateDescendantsForAncestor(add bool, ancestor *TxEntry, descendants *entrySet, set *txSet) {
	sign := int64(1)
	if !add {
		sign = -1
	}

	var modifySize, modifyCount int64
	var modifyFee btcutil.Amount

	for _, d := range descendants.order {
		if d.Hash == ancestor.Hash {
			continue
		}
		oldAnc := d.ancestorScore()

		d.AncCount += sign
		d.AncSize += sign * ancestor.VSize
		d.AncModFee += btcutil.Amount(sign) * ancestor.ModifiedFee()

		set.reinsertAncestorKeys(d, oldAnc)

		modifySize += d.VSize
		modifyFee += d.ModifiedFee()
		modifyCount++
	}

	oldDesc, oldMine := ancestor.descendantScore(), ancestor.miningScore()
	ancestor.DescCount += sign * modifyCount
	ancestor.DescSize += sign * modifySize
	ancestor.DescModFee += btcutil.Amount(sign) * modifyFee
	set.reinsertDescendantKeys(ancestor, oldDesc, oldMine)
}

// ancestorClosure walks backward over parent edges to find every ancestor
// of e already in the pool, with no limits applied. Unlike
// calculateAncestors (C5), this never rejects — prioritisation only
// touches topology that has already passed acceptance.
func ancestorClosure(e *TxEntry, links *linkGraph) *entrySet {
	set := newEntrySet()
	set.add(e)
	queue := []*TxEntry{e}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range links.parentsOf(cur.Hash) {
			if set.add(p) {
				queue = append(queue, p)
			}
		}
	}
	return set
}
