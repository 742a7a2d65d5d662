// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/maps"
	"git.lukeshu.com/zfs-snapspace/lib/textui"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

// countSnapshots maps each dataset to how many snapshots it has.
func countSnapshots(ctx context.Context, oracle zfsutil.Oracle) (map[string]int, error) {
	datasets, err := oracle.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]int, len(datasets))
	for _, dataset := range datasets {
		snaps, err := oracle.ListSnapshots(ctx, dataset)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots of %q: %w", dataset, err)
		}
		ret[dataset] = len(snaps)
	}
	return ret, nil
}

func writeSnapshotCounts(out io.Writer, counts map[string]int) error {
	table := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	textui.Fprintf(table, "DATASET\tSNAPSHOTS\tRANGES\n")
	for _, dataset := range maps.SortedKeys(counts) {
		n := counts[dataset]
		textui.Fprintf(table, "%s\t%v\t%v\n", dataset, n, textui.Humanized(n*(n+1)/2))
	}
	return table.Flush()
}

func init() {
	subcommands = append(subcommands, func() subcommand {
		return subcommand{
			Command: cobra.Command{
				Use:   "ls-datasets",
				Short: "List datasets, with how many snapshots each has",
				Long: "" +
					"The RANGES column is how many zfs queries 'chart' and 'dump-matrix' " +
					"will make for the dataset.",
				Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
			},
			RunE: func(oracle zfsutil.Oracle, _ Config, cmd *cobra.Command, _ []string) error {
				counts, err := countSnapshots(cmd.Context(), oracle)
				if err != nil {
					return err
				}
				return writeSnapshotCounts(cmd.OutOrStdout(), counts)
			},
		}
	})
}
