// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/snapspace"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

func init() {
	subcommands = append(subcommands, func() subcommand {
		var check bool
		ret := subcommand{
			Command: cobra.Command{
				Use:   "dump-matrix DATASET",
				Short: "Write the raw and attributed matrices of a dataset's snapshots as JSON",
				Long: "" +
					"The output may be given to the 'render' subcommand to draw the chart again " +
					"without asking zfs.",
				Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
			},
			RunE: func(oracle zfsutil.Oracle, cfg Config, cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				report, err := analyze(ctx, oracle, cfg, args[0])
				if err != nil {
					return err
				}
				if check {
					if err := snapspace.CheckConservation(report.Raw, report.Attributed); err != nil {
						return err
					}
					dlog.Info(ctx, "every range's sub-ranges add up to what deleting it frees")
				}
				dlog.Info(ctx, "Writing matrices to stdout...")
				if err := writeJSON(cmd.OutOrStdout(), report, lowmemjson.ReEncoderConfig{
					Indent:                "\t",
					ForceTrailingNewlines: true,
					CompactIfUnder:        80,
				}); err != nil {
					return err
				}
				dlog.Info(ctx, "... done writing")
				return nil
			},
		}
		ret.Command.Flags().BoolVar(&check, "check", false,
			"verify that each range's attributed sub-ranges add up to what deleting it frees")
		return ret
	})
}
