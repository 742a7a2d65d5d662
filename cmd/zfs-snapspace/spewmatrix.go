// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"io"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/snapspace"
	"git.lukeshu.com/zfs-snapspace/lib/textui"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

// spewReport dumps each attributed range, longest ranges first, so
// that the structure can be eyeballed without the chart's rounding.
func spewReport(out io.Writer, report *Report) {
	spew := spew.NewDefaultConfig()
	spew.DisablePointerAddresses = true
	spew.SortKeys = true

	n := report.Attributed.Len()
	for d := n - 1; d >= 0; d-- {
		for s := 0; s+d < n; s++ {
			r := snapspace.Range{Start: s, End: s + d}
			textui.Fprintf(out, "%s..%s = ", report.Snapshots[r.Start], report.Snapshots[r.End])
			spew.Fdump(out, struct {
				Range snapspace.Range
				Raw   int64
				Bytes int64
			}{
				Range: r,
				Raw:   report.Raw.GetRange(r),
				Bytes: report.Attributed.GetRange(r),
			})
		}
	}
}

func init() {
	subcommands = append(subcommands, func() subcommand {
		return subcommand{
			Command: cobra.Command{
				Use:   "spew-matrix DATASET",
				Short: "Dump every range of a dataset's snapshots, raw and attributed",
				Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
			},
			RunE: func(oracle zfsutil.Oracle, cfg Config, cmd *cobra.Command, args []string) error {
				report, err := analyze(cmd.Context(), oracle, cfg, args[0])
				if err != nil {
					return err
				}
				spewReport(cmd.OutOrStdout(), report)
				return nil
			},
		}
	})
}
