// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"io"
	"text/tabwriter"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/zfs-snapspace/lib/textui"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

// snapshotSizes is what deleting a snapshot frees, alone and together
// with its neighbors on either side.
type snapshotSizes struct {
	Name      string
	Unique    uint64
	WithOlder uint64
	WithNewer uint64
}

// listSnapshotSizes needs only 3N-3 distinct ranges rather than the
// N(N+1)/2 of a full matrix.  At the ends of the chain the three
// queries for a snapshot coincide with each other or with another
// snapshot's; the cache absorbs the repeats.
func listSnapshotSizes(ctx context.Context, oracle zfsutil.Oracle, cacheSize int, dataset string) ([]snapshotSizes, error) {
	ctx = dlog.WithField(ctx, "zfs.dataset", dataset)
	if err := zfsutil.ValidateDataset(ctx, oracle, dataset); err != nil {
		return nil, err
	}
	cached, err := zfsutil.Cached(oracle, cacheSize)
	if err != nil {
		return nil, err
	}
	names, err := cached.ListSnapshots(ctx, dataset)
	if err != nil {
		return nil, err
	}
	oldest, newest := "", ""
	if len(names) > 0 {
		oldest, newest = names[0], names[len(names)-1]
	}
	ret := make([]snapshotSizes, len(names))
	for i, name := range names {
		ret[i].Name = name
		if ret[i].Unique, err = cached.SpaceFreedByDeletingRange(ctx, dataset, name, name); err != nil {
			return nil, err
		}
		if ret[i].WithOlder, err = cached.SpaceFreedByDeletingRange(ctx, dataset, oldest, name); err != nil {
			return nil, err
		}
		if ret[i].WithNewer, err = cached.SpaceFreedByDeletingRange(ctx, dataset, name, newest); err != nil {
			return nil, err
		}
	}
	dlog.Debugf(ctx, "cache holds %d answers", cached.Len())
	return ret, nil
}

func writeSnapshotSizes(out io.Writer, rows []snapshotSizes) error {
	table := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	textui.Fprintf(table, "SNAPSHOT\tUNIQUE\tWITH OLDER\tWITH NEWER\n")
	for _, row := range rows {
		textui.Fprintf(table, "%s\t%v\t%v\t%v\n",
			row.Name,
			textui.Bytes(row.Unique),
			textui.Bytes(row.WithOlder),
			textui.Bytes(row.WithNewer))
	}
	return table.Flush()
}

func init() {
	subcommands = append(subcommands, func() subcommand {
		return subcommand{
			Command: cobra.Command{
				Use:   "ls-snapshots DATASET",
				Short: "List how much deleting each snapshot would free",
				Long: "" +
					"For each snapshot, list the space that deleting just it would free, " +
					"that deleting it and every older snapshot would free, and that deleting " +
					"it and every newer snapshot would free.",
				Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
			},
			RunE: func(oracle zfsutil.Oracle, cfg Config, cmd *cobra.Command, args []string) error {
				rows, err := listSnapshotSizes(cmd.Context(), oracle, cfg.CacheSize, args[0])
				if err != nil {
					return err
				}
				return writeSnapshotSizes(cmd.OutOrStdout(), rows)
			},
		}
	})
}
