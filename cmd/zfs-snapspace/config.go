// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envVarPrefix = "ZFS_SNAPSPACE"

// Config is assembled from, in increasing order of precedence: the
// built-in defaults, the YAML config file, ZFS_SNAPSPACE_*
// environment variables, and command-line flags.
type Config struct {
	// ZFSPath is the zfs(8) binary to run.
	ZFSPath string `yaml:"zfs" envconfig:"ZFS"`
	// Jobs is how many zfs queries to run at once.
	Jobs int `yaml:"jobs" envconfig:"JOBS"`
	// Timeout bounds each zfs invocation; 0 for no timeout.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	// Width is the chart width; 0 to use the terminal's width.
	Width int `yaml:"width" envconfig:"WIDTH"`
	// CacheSize is how many zfs answers ls-snapshots remembers.
	CacheSize int `yaml:"cacheSize" envconfig:"CACHE_SIZE"`
}

func DefaultConfig() Config {
	return Config{
		ZFSPath:   "zfs",
		Jobs:      1,
		CacheSize: 1024,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ZFSPath == "":
		return errors.New("invalid configuration: zfs path must not be empty")
	case c.Jobs < 1:
		return fmt.Errorf("invalid configuration: jobs must be at least 1, got %d", c.Jobs)
	case c.Timeout < 0:
		return fmt.Errorf("invalid configuration: timeout must not be negative, got %v", c.Timeout)
	case c.Width < 0:
		return fmt.Errorf("invalid configuration: width must not be negative, got %d", c.Width)
	case c.CacheSize < 1:
		return fmt.Errorf("invalid configuration: cache size must be at least 1, got %d", c.CacheSize)
	}
	return nil
}

// readConfigFile overlays the YAML in r onto cfg.  Unknown keys are
// an error.
func readConfigFile(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// configFlags holds the command-line side of Config.
type configFlags struct {
	file string
	vals Config
}

func (f *configFlags) AddTo(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.StringVar(&f.file, "config", "", "read configuration from the YAML file `config.yaml` (default $"+envVarPrefix+"_CONFIG)")
	_ = cobra.MarkFlagFilename(flags, "config", "yaml", "yml")
	flags.StringVar(&f.vals.ZFSPath, "zfs", def.ZFSPath, "run the zfs(8) binary at `path`")
	_ = cobra.MarkFlagFilename(flags, "zfs")
	flags.IntVar(&f.vals.Jobs, "jobs", def.Jobs, "run `N` zfs queries at once")
	flags.DurationVar(&f.vals.Timeout, "timeout", def.Timeout, "give up on a zfs query after `duration` (0 for never)")
	flags.IntVar(&f.vals.Width, "width", def.Width, "draw charts `columns` wide (0 to use the terminal width)")
	flags.IntVar(&f.vals.CacheSize, "cache-size", def.CacheSize, "remember up to `N` zfs answers")
}

// Load assembles the effective Config.
func (f *configFlags) Load(flags *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	filename := f.file
	if filename == "" {
		filename = os.Getenv(envVarPrefix + "_CONFIG")
	}
	if filename != "" {
		fh, err := os.Open(filename)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		err = readConfigFile(fh, &cfg)
		_ = fh.Close()
		if err != nil {
			return Config{}, fmt.Errorf("parsing config file %q: %w", filename, err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment variables: %w", err)
	}

	if flags.Changed("zfs") {
		cfg.ZFSPath = f.vals.ZFSPath
	}
	if flags.Changed("jobs") {
		cfg.Jobs = f.vals.Jobs
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.vals.Timeout
	}
	if flags.Changed("width") {
		cfg.Width = f.vals.Width
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize = f.vals.CacheSize
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
