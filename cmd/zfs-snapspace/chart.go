// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

func init() {
	subcommands = append(subcommands, func() subcommand {
		return subcommand{
			Command: cobra.Command{
				Use:   "chart DATASET",
				Short: "Draw how the space held by a dataset's snapshots is shared between them",
				Long: "" +
					"The top row of the chart is the space held only by the whole run of snapshots " +
					"together; each row below splits the run into shorter runs; the bottom row is " +
					"the space unique to each single snapshot.  The cells of the chart add up to " +
					"the space that deleting every snapshot would free.",
				Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
			},
			RunE: func(oracle zfsutil.Oracle, cfg Config, cmd *cobra.Command, args []string) error {
				report, err := analyze(cmd.Context(), oracle, cfg, args[0])
				if err != nil {
					return err
				}
				return renderReport(cmd.OutOrStdout(), report, chartWidth(cfg, cmd.OutOrStdout()))
			},
		}
	})
}
