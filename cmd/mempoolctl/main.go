// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/btcpool-labs/mempool/mempool"
)

// mempoolctl is a minimal driver exercising configuration, logging, and the
// pool end to end: it builds a pool from the parsed policy, optionally
// restores a prior dump, and then either writes a fresh dump (--dump) or
// prints a summary of pool contents. It does not connect to a network or
// a chain; it is a manual/scripted exerciser for the core package, not a
// node.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	initLogRotator(cfg.LogFile)
	defer logRotator.Close()
	setLogLevel(cfg.LogLevel)

	policy := mempool.DefaultPolicy()
	policy.MaxMempoolSize = cfg.maxMempoolSize()
	policy.TxExpiry = cfg.TxExpiry
	policy.MinRelayTxFee = cfg.minRelayTxFeeAmount()
	policy.IncrementalRelayFee = cfg.incrementalRelayFeeAmount()

	pool := mempool.NewTxPool(mempool.Config{Policy: policy})

	pool.Subscribe(func(n *mempool.Notification) {
		switch n.Type {
		case mempool.NTEntryAdded:
			mpoolLog.Debugf("entry added: %s", n.Entry.Hash)
		case mempool.NTEntryRemoved:
			mpoolLog.Debugf("entry removed: %s (%s)", n.Entry.Hash, n.Reason)
		}
	})

	if cfg.Restore {
		if err := restoreDump(pool, cfg.DumpFile); err != nil {
			return err
		}
	}

	if cfg.Dump {
		return dumpPool(pool, cfg.DumpFile)
	}

	printSummary(pool)
	return nil
}

func restoreDump(pool *mempool.TxPool, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dump file: %w", err)
	}
	defer f.Close()

	n, err := pool.Restore(f)
	if err != nil {
		return fmt.Errorf("restoring dump: %w", err)
	}
	mpoolLog.Infof("restored %d transactions from %s", n, path)
	return nil
}

func dumpPool(pool *mempool.TxPool, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	defer f.Close()

	if err := pool.Dump(f); err != nil {
		return fmt.Errorf("dumping pool: %w", err)
	}
	mpoolLog.Infof("dumped %d transactions to %s", pool.Count(), path)
	return nil
}

func printSummary(pool *mempool.TxPool) {
	infos := pool.InfoAll()
	feeRate := func(i int) int64 {
		return int64(infos[i].ModifiedFee) * 1000 / btcutilAmountSafeDiv(infos[i].VSize)
	}
	sort.Slice(infos, func(i, j int) bool {
		return feeRate(i) > feeRate(j)
	})

	fmt.Printf("%d transactions in pool, %d bytes, updated counter %d\n",
		len(infos), pool.DynamicMemoryUsage(), pool.GetTransactionsUpdated())

	for _, info := range infos {
		fmt.Printf("%s  vsize=%d  fee=%d  ancestors=%d  descendants=%d\n",
			info.Hash, info.VSize, info.ModifiedFee, info.AncCount, info.DescCount)
	}
}

func btcutilAmountSafeDiv(vsize int64) int64 {
	if vsize == 0 {
		return 1
	}
	return vsize
}
