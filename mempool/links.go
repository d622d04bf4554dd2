// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// txLinks holds the direct parent/children edges for one entry, stored as
// slices kept sorted by txid for deterministic iteration. This mirrors the
// teacher's preference for explicit, ordered containers over map iteration
// order wherever determinism matters to a caller (block template
// construction, property tests).
type txLinks struct {
	parents  []*TxEntry
	children []*TxEntry
}

// linkGraph owns C3: per-entry parent/child sets plus the spent-output
// index. It never owns entry lifetime; entries are inserted/removed by the
// caller (mempool.go) which also owns C2.
type linkGraph struct {
	links   map[chainhash.Hash]*txLinks
	spentBy map[wire.OutPoint]*TxEntry
}

func newLinkGraph() *linkGraph {
	return &linkGraph{
		links:   make(map[chainhash.Hash]*txLinks),
		spentBy: make(map[wire.OutPoint]*TxEntry),
	}
}

func sortedInsert(s []*TxEntry, e *TxEntry) []*TxEntry {
	i := sort.Search(len(s), func(i int) bool {
		return hashLess(e.Hash, s[i].Hash) || e.Hash == s[i].Hash
	})
	if i < len(s) && s[i].Hash == e.Hash {
		return s
	}
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = e
	return s
}

func sortedRemove(s []*TxEntry, hash chainhash.Hash) []*TxEntry {
	i := sort.Search(len(s), func(i int) bool {
		return hashLess(hash, s[i].Hash) || hash == s[i].Hash
	})
	if i >= len(s) || s[i].Hash != hash {
		return s
	}
	copy(s[i:], s[i+1:])
	return s[:len(s)-1]
}

func hashLess(a, b chainhash.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ensure returns the link record for hash, creating an empty one if
// absent.
func (g *linkGraph) ensure(hash chainhash.Hash) *txLinks {
	l, ok := g.links[hash]
	if !ok {
		l = &txLinks{}
		g.links[hash] = l
	}
	return l
}

func (g *linkGraph) parentsOf(hash chainhash.Hash) []*TxEntry {
	if l, ok := g.links[hash]; ok {
		return l.parents
	}
	return nil
}

func (g *linkGraph) childrenOf(hash chainhash.Hash) []*TxEntry {
	if l, ok := g.links[hash]; ok {
		return l.children
	}
	return nil
}

// linkChild records that c directly spends an output of p. linkParent is
// its exact inverse; callers must call both or neither to preserve
// invariant 1 (p ∈ parents(c) ⇔ c ∈ children(p)).
func (g *linkGraph) linkChild(p, c *TxEntry) {
	l := g.ensure(p.Hash)
	l.children = sortedInsert(l.children, c)
}

func (g *linkGraph) linkParent(c, p *TxEntry) {
	l := g.ensure(c.Hash)
	l.parents = sortedInsert(l.parents, p)
}

func (g *linkGraph) unlinkChild(p, c *TxEntry) {
	if l, ok := g.links[p.Hash]; ok {
		l.children = sortedRemove(l.children, c.Hash)
	}
}

func (g *linkGraph) unlinkParent(c, p *TxEntry) {
	if l, ok := g.links[c.Hash]; ok {
		l.parents = sortedRemove(l.parents, p.Hash)
	}
}

// addEntry wires e's parent/child edges from its inputs and records each
// outpoint it spends in spentBy. byTxid resolves an outpoint's source transaction to
// an in-pool entry, or nil if it references a confirmed coin.
func (g *linkGraph) addEntry(e *TxEntry, byTxid func(chainhash.Hash) *TxEntry) {
	g.ensure(e.Hash)
	seen := make(map[chainhash.Hash]bool)
	for _, in := range e.Tx.MsgTx().TxIn {
		op := in.PreviousOutPoint
		g.spentBy[op] = e
		if p := byTxid(op.Hash); p != nil && !seen[p.Hash] {
			seen[p.Hash] = true
			g.linkParent(e, p)
			g.linkChild(p, e)
		}
	}
}

// removeEntry severs every edge touching e and drops its spentBy entries.
// Both sides of each edge are unlinked: e leaves every parent's child set
// and every child's parent set, and e's own link record is deleted.
func (g *linkGraph) removeEntry(e *TxEntry) {
	l, ok := g.links[e.Hash]
	if ok {
		for _, p := range l.parents {
			g.unlinkChild(p, e)
		}
		for _, c := range l.children {
			g.unlinkParent(c, e)
		}
		delete(g.links, e.Hash)
	}
	for _, in := range e.Tx.MsgTx().TxIn {
		if cur, ok := g.spentBy[in.PreviousOutPoint]; ok && cur.Hash == e.Hash {
			delete(g.spentBy, in.PreviousOutPoint)
		}
	}
}

// conflictsFor returns, for each input of tx, the in-pool entry already
// spending that outpoint, if any. Used by gate 4 (conflicts/RBF).
func (g *linkGraph) conflictsFor(tx *wire.MsgTx) map[chainhash.Hash]*TxEntry {
	var out map[chainhash.Hash]*TxEntry
	for _, in := range tx.TxIn {
		if e, ok := g.spentBy[in.PreviousOutPoint]; ok {
			if out == nil {
				out = make(map[chainhash.Hash]*TxEntry)
			}
			out[e.Hash] = e
		}
	}
	return out
}
