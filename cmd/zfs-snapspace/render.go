// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

func init() {
	subcommands = append(subcommands, func() subcommand {
		return subcommand{
			Command: cobra.Command{
				Use:   "render {FILE.json|-}",
				Short: "Draw the chart from the output of 'dump-matrix', without asking zfs",
				Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
			},
			NoZFS: true,
			RunE: func(_ zfsutil.Oracle, cfg Config, cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				report, err := readJSONFile[*Report](ctx, cmd.InOrStdin(), args[0])
				if err != nil {
					return fmt.Errorf("reading %q: %w", args[0], err)
				}
				if report == nil {
					return fmt.Errorf("reading %q: file contains null", args[0])
				}
				if err := report.Validate(); err != nil {
					return fmt.Errorf("%q: %w", args[0], err)
				}
				ctx = dlog.WithField(ctx, "zfs.dataset", report.Dataset)
				warnAnomalies(ctx, report.Attributed, report.Snapshots)
				return renderReport(cmd.OutOrStdout(), report, chartWidth(cfg, cmd.OutOrStdout()))
			},
		}
	})
}
