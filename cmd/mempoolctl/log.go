// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/btcpool-labs/mempool/mempool"
)

// logWriter outputs to both standard output and the write-end pipe of the
// initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is closed on shutdown by main.
	logRotator *rotator.Rotator

	mpoolLog = backendLog.Logger("MPOL")
)

func init() {
	mempool.UseLogger(mpoolLog)
}

// initLogRotator initializes the log rotator to write logs to logFile and
// create roll files in the same directory. It must be called before any
// logger is used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}
	logRotator = r
}

// setLogLevel sets the log level for mpoolLog, defaulting to info on an
// unrecognised level string.
func setLogLevel(levelStr string) {
	level, _ := btclog.LevelFromString(levelStr)
	mpoolLog.SetLevel(level)
}
