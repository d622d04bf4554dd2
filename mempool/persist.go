// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MempoolDumpVersion is the on-disk format version Dump writes and Restore
// checks, matching §6's MEMPOOL_DUMP_VERSION. A version mismatch on load is
// rejected outright rather than guessed at: the encoding is this package's
// private layout, not a general-purpose format with backward-compatibility
// obligations.
const MempoolDumpVersion uint64 = 1

// Dump writes every entry's (tx, time, feeDelta) to w, followed by the
// priority side-map for txids not currently in the pool, in the private
// binary layout §6 describes. It takes the read lock for the duration of
// the write.
func (mp *TxPool) Dump(w io.Writer) error {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, MempoolDumpVersion); err != nil {
		return err
	}

	// Written in acceptance order (by seq) rather than map iteration order,
	// so that Restore can replay parents before children without needing
	// its own base UTXO view to already contain every spent output.
	entries := mp.set.all()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeDumpedTx(bw, e.Tx.MsgTx(), e.Time, e.FeeDelta); err != nil {
			return err
		}
	}

	banked := make([]chainhash.Hash, 0, len(mp.deltas))
	for h := range mp.deltas {
		if !mp.set.Has(h) {
			banked = append(banked, h)
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(banked))); err != nil {
		return err
	}
	for _, h := range banked {
		if _, err := bw.Write(h[:]); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, int64(mp.deltas[h])); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeDumpedTx(w io.Writer, tx *wire.MsgTx, acceptTime int64, feeDelta btcutil.Amount) error {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(buf.Len())); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, acceptTime); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int64(feeDelta))
}

// Restore reads a dump written by Dump and replays every entry back through
// AcceptToMemoryPool with LimitFree and OverrideMempoolLimit set, so
// restored transactions skip the minimum-relay-fee gate and the size trim;
// the rolling-fee floor still applies to them. Entries that fail to
// reinsert (e.g. their inputs are no
// longer available) are silently dropped, matching the teacher's own
// best-effort approach to a stale dump.
func (mp *TxPool) Restore(r io.Reader) (restored int, err error) {
	br := bufio.NewReader(r)

	var version uint64
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if version != MempoolDumpVersion {
		return 0, ErrDumpVersionMismatch
	}

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return 0, err
	}

	for i := uint64(0); i < count; i++ {
		tx, acceptTime, feeDelta, err := readDumpedTx(br)
		if err != nil {
			return restored, err
		}

		hash := *tx.Hash()
		if feeDelta != 0 {
			mp.PrioritiseTransaction(hash, feeDelta)
		}

		_, acceptErr := mp.AcceptToMemoryPool(tx, AcceptOptions{
			LimitFree:            true,
			OverrideMempoolLimit: true,
			AcceptTime:           acceptTime,
		})
		if acceptErr == nil {
			restored++
		}
	}

	var bankedCount uint64
	if err := binary.Read(br, binary.LittleEndian, &bankedCount); err != nil {
		return restored, err
	}
	for i := uint64(0); i < bankedCount; i++ {
		var hash chainhash.Hash
		if _, err := io.ReadFull(br, hash[:]); err != nil {
			return restored, err
		}
		var delta int64
		if err := binary.Read(br, binary.LittleEndian, &delta); err != nil {
			return restored, err
		}
		mp.PrioritiseTransaction(hash, btcutil.Amount(delta))
	}

	return restored, nil
}

func readDumpedTx(r io.Reader) (*btcutil.Tx, int64, btcutil.Amount, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, 0, 0, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, 0, err
	}

	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, 0, 0, err
	}

	var acceptTime int64
	if err := binary.Read(r, binary.LittleEndian, &acceptTime); err != nil {
		return nil, 0, 0, err
	}
	var feeDelta int64
	if err := binary.Read(r, binary.LittleEndian, &feeDelta); err != nil {
		return nil, 0, 0, err
	}

	return btcutil.NewTx(&msgTx), acceptTime, btcutil.Amount(feeDelta), nil
}
