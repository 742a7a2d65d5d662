// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command zfs-snapspace shows how the space held by a ZFS dataset's
// snapshots is shared between them.
package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/profile"
	"git.lukeshu.com/zfs-snapspace/lib/textui"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

type subcommand struct {
	cobra.Command
	// NoZFS is set for subcommands that never talk to zfs, and so
	// don't need the binary to be present.
	NoZFS bool
	RunE  func(zfsutil.Oracle, Config, *cobra.Command, []string) error
}

// subcommands are registered from init(); each argparser calls them
// to get its own copy, flags included.
var subcommands []func() subcommand

func newArgparser() *cobra.Command {
	logLevelFlag := textui.LogLevelFlag{
		Level: dlog.LogLevelInfo,
	}
	var cfgFlags configFlags

	argparser := &cobra.Command{
		Use:   "zfs-snapspace {[flags]|SUBCOMMAND}",
		Short: "Show which ZFS snapshots are holding on to space",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
		SilenceUsage:  true, // our FlagErrorFunc will handle it

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevelFlag, "verbosity", "set the verbosity")
	cfgFlags.AddTo(argparser.PersistentFlags())
	stopProfiling := profile.AddProfileFlags(argparser.PersistentFlags(), "profile.")

	for _, newChild := range subcommands {
		child := newChild()
		cmd := child.Command
		runE := child.RunE
		noZFS := child.NoZFS
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			maybeSetErr := func(_err error) {
				if _err != nil && err == nil {
					err = _err
				}
			}
			defer func() {
				maybeSetErr(stopProfiling())
			}()

			ctx := cmd.Context()
			logger := textui.NewLogger(cmd.ErrOrStderr(), logLevelFlag.Level)
			ctx = dlog.WithLogger(ctx, logger)
			dlog.SetFallbackLogger(logger.WithField("zfs-snapspace.THIS_IS_A_BUG", true))

			cfg, err := cfgFlags.Load(cmd.Flags())
			if err != nil {
				return err
			}
			dlog.Debugf(ctx, "configuration: %+v", cfg)

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) error {
				var oracle zfsutil.Oracle
				if !noZFS {
					cli := &zfsutil.CLI{
						Path:    cfg.ZFSPath,
						Timeout: cfg.Timeout,
					}
					if err := cli.Check(ctx); err != nil {
						return err
					}
					oracle = cli
				}
				cmd.SetContext(ctx)
				return runE(oracle, cfg, cmd, args)
			})
			return grp.Wait()
		}
		argparser.AddCommand(&cmd)
	}

	return argparser
}

func main() {
	argparser := newArgparser()
	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
