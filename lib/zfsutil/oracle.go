// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package zfsutil is the narrow interface between zfs-snapspace and
// the storage system: listing datasets and snapshots, and asking how
// much space deleting a range of snapshots would free.
package zfsutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Oracle answers read-only questions about a ZFS pool.
type Oracle interface {
	// ListDatasets returns the names of all filesystems and
	// volumes.
	ListDatasets(ctx context.Context) ([]string, error)
	// ListSnapshots returns the short names (without the
	// "dataset@" prefix) of the dataset's snapshots, oldest first.
	ListSnapshots(ctx context.Context, dataset string) ([]string, error)
	// SpaceFreedByDeletingRange returns how many bytes would be
	// freed by deleting the snapshots from start through end,
	// inclusive.  It is a dry run; nothing is deleted.
	SpaceFreedByDeletingRange(ctx context.Context, dataset, start, end string) (uint64, error)
}

// ErrToolNotFound is returned when the zfs(8) binary cannot be
// found.
var ErrToolNotFound = errors.New("zfs tool not found")

// CommandError is returned when a zfs(8) invocation exits
// unsuccessfully.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%q: %v", e.Args, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ParseError is returned when zfs(8) output is not what was
// expected.
type ParseError struct {
	Args   []string
	Output string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%q: could not parse output: %s: %q", e.Args, e.Msg, e.Output)
}

// DatasetNotFoundError is returned by ValidateDataset.
type DatasetNotFoundError struct {
	Name string
	// Suggestion is the closest existing dataset name, or "" if
	// nothing is close.
	Suggestion string
}

func (e *DatasetNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("dataset %q does not exist (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("dataset %q does not exist", e.Name)
}

// snapshotRange returns the zfs(8) name for the inclusive range of
// snapshots start..end of dataset.
func snapshotRange(dataset, start, end string) string {
	if start == end {
		return dataset + "@" + start
	}
	return dataset + "@" + start + "%" + end
}
