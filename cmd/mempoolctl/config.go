// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	defaultConfigFilename   = "mempoolctl.conf"
	defaultLogFilename      = "mempoolctl.log"
	defaultLogLevel         = "info"
	defaultDumpFilename     = "mempool.dump"
	defaultMaxMempoolSizeMB = 300
	defaultTxExpiry         = 14 * 24 * time.Hour
)

var (
	defaultHomeDir    = appHomeDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogFile    = filepath.Join(defaultHomeDir, defaultLogFilename)
	defaultDumpFile   = filepath.Join(defaultHomeDir, defaultDumpFilename)
)

// config defines the mempoolctl configuration options, parsed from the
// command line and an optional config file the way the teacher's own
// config.go loads btcd.conf.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogFile    string `long:"logfile" description:"File to write log output to"`
	LogLevel   string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	DumpFile   string `long:"dumpfile" description:"Path to the mempool dump file used by --dump and --restore"`

	Dump    bool `long:"dump" description:"Dump the pool's current contents to --dumpfile and exit"`
	Restore bool `long:"restore" description:"Restore pool contents from --dumpfile before printing"`

	MaxMempoolSizeMB    int64         `long:"maxmempoolsize" description:"Maximum mempool size in megabytes"`
	TxExpiry            time.Duration `long:"txexpiry" description:"How long an unconfirmed transaction may sit in the pool"`
	MinRelayTxFee       int64         `long:"minrelaytxfee" description:"Minimum relay fee rate in satoshis per 1000 bytes"`
	IncrementalRelayFee int64         `long:"incrementalrelayfee" description:"Minimum fee rate bump required for a BIP125 replacement"`
}

func appHomeDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "mempoolctl")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".mempoolctl")
	}
	return "."
}

func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		path = strings.Replace(path, "~", filepath.Dir(defaultHomeDir), 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

func validLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// loadConfig parses command-line flags, reading a config file first if one
// is present, following the same two-pass parse the teacher's loadConfig
// uses: once to discover an explicit -C, once more to apply it.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile:          defaultConfigFile,
		LogFile:             defaultLogFile,
		LogLevel:            defaultLogLevel,
		DumpFile:            defaultDumpFile,
		MaxMempoolSizeMB:    defaultMaxMempoolSizeMB,
		TxExpiry:            defaultTxExpiry,
		MinRelayTxFee:       1000,
		IncrementalRelayFee: 1000,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errorsAsFlagsErr(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, nil, err
		}
	}

	remainingArgs, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errorsAsFlagsErr(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if !validLogLevel(cfg.LogLevel) {
		return nil, nil, fmt.Errorf("invalid debuglevel %q", cfg.LogLevel)
	}

	cfg.LogFile = cleanAndExpandPath(cfg.LogFile)
	cfg.DumpFile = cleanAndExpandPath(cfg.DumpFile)

	return &cfg, remainingArgs, nil
}

func errorsAsFlagsErr(err error, target **flags.Error) bool {
	fe, ok := err.(*flags.Error)
	if !ok {
		return false
	}
	*target = fe
	return true
}

func (c *config) maxMempoolSize() int64 {
	return c.MaxMempoolSizeMB * 1024 * 1024
}

func (c *config) minRelayTxFeeAmount() btcutil.Amount {
	return btcutil.Amount(c.MinRelayTxFee)
}

func (c *config) incrementalRelayFeeAmount() btcutil.Amount {
	return btcutil.Amount(c.IncrementalRelayFee)
}
