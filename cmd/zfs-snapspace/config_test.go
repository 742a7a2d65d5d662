// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var cf configFlags
	cf.AddTo(flags)
	require.NoError(t, flags.Parse(args))
	return cf.Load(flags)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))
	return filename
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Mutate func(*Config)
		ErrSub string
	}
	testcases := map[string]TestCase{
		"no-zfs":     {func(c *Config) { c.ZFSPath = "" }, "zfs path"},
		"zero-jobs":  {func(c *Config) { c.Jobs = 0 }, "jobs"},
		"neg-time":   {func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		"neg-width":  {func(c *Config) { c.Width = -1 }, "width"},
		"zero-cache": {func(c *Config) { c.CacheSize = 0 }, "cache size"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.Mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.ErrSub)
		})
	}
}

func TestReadConfigFile(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, readConfigFile(strings.NewReader("jobs: 3\ntimeout: 1m30s\n"), &cfg))
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "zfs", cfg.ZFSPath)

	// An empty file changes nothing.
	require.NoError(t, readConfigFile(strings.NewReader(""), &cfg))
	assert.Equal(t, 3, cfg.Jobs)

	assert.Error(t, readConfigFile(strings.NewReader("jbos: 3\n"), &cfg))
}

// The precedence tests set environment variables, and so cannot be
// parallel.

func TestConfigPrecedence(t *testing.T) {
	filename := writeConfigFile(t, ""+
		"zfs: /usr/sbin/zfs\n"+
		"jobs: 4\n"+
		"width: 100\n"+
		"timeout: 30s\n")

	cfg, err := loadConfig(t, "--config", filename)
	require.NoError(t, err)
	assert.Equal(t, Config{
		ZFSPath:   "/usr/sbin/zfs",
		Jobs:      4,
		Timeout:   30 * time.Second,
		Width:     100,
		CacheSize: DefaultConfig().CacheSize,
	}, cfg)

	t.Setenv("ZFS_SNAPSPACE_JOBS", "6")
	t.Setenv("ZFS_SNAPSPACE_CACHE_SIZE", "10")
	cfg, err = loadConfig(t, "--config", filename)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Jobs)
	assert.Equal(t, 10, cfg.CacheSize)
	assert.Equal(t, 100, cfg.Width)

	cfg, err = loadConfig(t, "--config", filename, "--jobs", "8", "--width=0")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Jobs)
	assert.Equal(t, 0, cfg.Width)
	assert.Equal(t, 10, cfg.CacheSize)
	assert.Equal(t, "/usr/sbin/zfs", cfg.ZFSPath)
}

func TestConfigFileFromEnv(t *testing.T) {
	t.Setenv("ZFS_SNAPSPACE_CONFIG", writeConfigFile(t, "jobs: 5\n"))
	cfg, err := loadConfig(t)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Jobs)
}

func TestConfigErrors(t *testing.T) {
	_, err := loadConfig(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(t, "--config", writeConfigFile(t, "jobs: 0\n"))
	assert.ErrorContains(t, err, "jobs must be at least 1")

	t.Setenv("ZFS_SNAPSPACE_JOBS", "many")
	_, err = loadConfig(t)
	assert.ErrorContains(t, err, "environment")
}
