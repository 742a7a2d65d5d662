// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/zfs-snapspace/lib/slices"
	"git.lukeshu.com/zfs-snapspace/lib/snapchart"
	"git.lukeshu.com/zfs-snapspace/lib/snapspace"
	"git.lukeshu.com/zfs-snapspace/lib/textui"
	"git.lukeshu.com/zfs-snapspace/lib/zfsutil"
)

// Report is everything known about one dataset's snapshots.  It is
// what dump-matrix writes and render reads.
type Report struct {
	Dataset   string   `json:"dataset"`
	Snapshots []string `json:"snapshots"`
	// Raw is the bytes freed by deleting each range.
	Raw *snapspace.Matrix `json:"raw"`
	// Attributed is recomputed from Raw if absent.
	Attributed *snapspace.Matrix `json:"attributed,omitempty"`
}

// Validate checks that the matrices are the right shape for the list
// of snapshots, filling in Attributed if it is missing.
func (r *Report) Validate() error {
	if r.Raw == nil {
		return errors.New("report has no raw matrix")
	}
	if dup, ok := slices.Duplicate(r.Snapshots); ok {
		return fmt.Errorf("snapshot %q is listed more than once", dup)
	}
	if r.Raw.Len() != len(r.Snapshots) {
		return fmt.Errorf("report lists %d snapshots but has a raw matrix for %d", len(r.Snapshots), r.Raw.Len())
	}
	if r.Attributed == nil {
		r.Attributed = snapspace.Attribute(r.Raw)
	} else if r.Attributed.Len() != len(r.Snapshots) {
		return fmt.Errorf("report lists %d snapshots but has an attributed matrix for %d", len(r.Snapshots), r.Attributed.Len())
	}
	return nil
}

// analyze queries zfs about every range of the dataset's snapshots and
// attributes the space.
func analyze(ctx context.Context, oracle zfsutil.Oracle, cfg Config, dataset string) (*Report, error) {
	ctx = dlog.WithField(ctx, "zfs.dataset", dataset)
	if err := zfsutil.ValidateDataset(ctx, oracle, dataset); err != nil {
		return nil, err
	}
	names, err := oracle.ListSnapshots(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots of %q: %w", dataset, err)
	}
	n := len(names)
	dlog.Infof(ctx, "dataset has %d snapshots; querying %d ranges", n, n*(n+1)/2)

	raw, err := snapspace.BuildRawMatrix(ctx, oracle, dataset, names, snapspace.BuildConfig{
		Jobs: cfg.Jobs,
	})
	if err != nil {
		return nil, fmt.Errorf("%q: %w", dataset, err)
	}
	attributed := snapspace.Attribute(raw)
	warnAnomalies(ctx, attributed, names)

	return &Report{
		Dataset:    dataset,
		Snapshots:  names,
		Raw:        raw,
		Attributed: attributed,
	}, nil
}

func warnAnomalies(ctx context.Context, attributed *snapspace.Matrix, names []string) {
	for _, r := range snapspace.Anomalies(attributed) {
		dlog.Warnf(ctx, "range %s..%s is attributed %v; zfs's estimates for the overlapping ranges do not add up",
			names[r.Start], names[r.End], textui.Bytes(attributed.GetRange(r)))
	}
}

// chartWidth is the configured width, or else the width of the
// terminal that out is attached to.
func chartWidth(cfg Config, out io.Writer) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	f, _ := out.(*os.File)
	return textui.TerminalWidth(f)
}

func renderReport(out io.Writer, report *Report, width int) error {
	return snapchart.Render(out, report.Attributed, report.Snapshots, width)
}
